package common

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestSamplerDescriptorDefaultsOnlyRejectedFields(t *testing.T) {
	s := SamplerStagingData{}
	d := s.Descriptor("zero sampler")

	assert.Equal(t, "zero sampler", d.Label)
	assert.Equal(t, float32(32), d.LodMaxClamp)
	assert.Equal(t, uint16(1), d.MaxAnisotropy)
	assert.Zero(t, d.LodMinClamp)
	assert.Zero(t, d.Compare)
}

func TestSamplerDescriptorKeepsExplicitValues(t *testing.T) {
	s := SamplerStagingData{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeMirrorRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   1,
		LodMaxClamp:   4,
		MaxAnisotropy: 8,
	}
	d := s.Descriptor("explicit sampler")

	assert.Equal(t, wgpu.AddressModeClampToEdge, d.AddressModeU)
	assert.Equal(t, wgpu.AddressModeMirrorRepeat, d.AddressModeV)
	assert.Equal(t, wgpu.FilterModeLinear, d.MagFilter)
	// The nearest filter is the enum zero value and must not be upgraded.
	assert.Equal(t, wgpu.FilterModeNearest, d.MinFilter)
	assert.Equal(t, wgpu.MipmapFilterModeLinear, d.MipmapFilter)
	assert.Equal(t, float32(1), d.LodMinClamp)
	assert.Equal(t, float32(4), d.LodMaxClamp)
	assert.Equal(t, uint16(8), d.MaxAnisotropy)
}

func TestTextureLayerCountTreatsZeroAsOne(t *testing.T) {
	tex := TextureStagingData{}
	assert.Equal(t, uint32(1), tex.LayerCount())

	tex.Layers = 1
	assert.Equal(t, uint32(1), tex.LayerCount())

	tex.Layers = 6
	assert.Equal(t, uint32(6), tex.LayerCount())
}

func TestTextureBytesPerPixel(t *testing.T) {
	tex := TextureStagingData{}
	assert.Equal(t, uint32(4), tex.BytesPerPixel())

	tex.Format = wgpu.TextureFormatRGBA8Unorm
	assert.Equal(t, uint32(4), tex.BytesPerPixel())

	tex.Format = wgpu.TextureFormatR8Unorm
	assert.Equal(t, uint32(1), tex.BytesPerPixel())
}
