// package common holds the plain data types shared across the shading stage.
// Nothing here is interface-wrapped; these are bare structs and helpers the
// other packages pass between each other.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData carries the pixel data of a texture binding while it
// waits for GPU upload. BindGroupProvider keeps one of these per texture
// binding until the renderer turns it into a real texture and bind group.
// With Layers > 1 the upload creates a 2D texture array; Layers == 0 counts
// as 1.
type TextureStagingData struct {
	// Pixels holds the raw texel bytes. Multi-layer textures pack their
	// layers back to back, Width*Height*bytesPerPixel(Format) bytes each.
	Pixels []byte
	// Width in texels. Needed both for the texture descriptor and to slice
	// Pixels into rows.
	Width uint32
	// Height in texels.
	Height uint32
	// Layers is the array layer count. 0 or 1 makes a plain 2D texture,
	// anything above a 2D texture array.
	Layers uint32
	// Format is the texel format of Pixels; the zero value counts as
	// RGBA8Unorm. Glyph coverage masks use R8Unorm (one byte per texel).
	Format wgpu.TextureFormat
}

// BytesPerPixel returns the size of one texel of the staging data in bytes.
//
// Returns:
//   - uint32: bytes per texel for the staged format
func (t *TextureStagingData) BytesPerPixel() uint32 {
	if t.Format == wgpu.TextureFormatR8Unorm {
		return 1
	}
	return 4
}

// LayerCount returns the effective number of array layers, treating 0 as 1.
//
// Returns:
//   - uint32: the number of layers the GPU texture will be created with
func (t *TextureStagingData) LayerCount() uint32 {
	if t.Layers == 0 {
		return 1
	}
	return t.Layers
}

// SamplerStagingData carries a sampler configuration while it waits for GPU
// creation, the sampler counterpart of TextureStagingData. The zero value
// describes a nearest-filtered repeat sampler, matching the wgpu enum zero
// values, so an explicitly requested nearest filter survives; see Descriptor
// for the two fields that are defaulted.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW decide how coordinates
	// outside [0, 1] wrap in each dimension.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter pick the filtering under magnification and
	// minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter picks the filtering between mipmap levels.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp bound the level of detail used for
	// mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare makes the sampler a comparison sampler when set.
	Compare wgpu.CompareFunction
	// MaxAnisotropy caps anisotropic filtering; higher values sharpen
	// textures viewed at oblique angles.
	MaxAnisotropy uint16
}

// Descriptor expands the staging data into a sampler descriptor. Enum fields
// pass through unmodified, keeping the wgpu zero values (repeat addressing,
// nearest filtering) expressible. Only the two fields wgpu rejects at zero are
// defaulted: LodMaxClamp becomes 32 and MaxAnisotropy becomes 1.
//
// Parameters:
//   - label: the label for the created sampler
//
// Returns:
//   - *wgpu.SamplerDescriptor: the descriptor ready for device creation
func (s *SamplerStagingData) Descriptor(label string) *wgpu.SamplerDescriptor {
	d := &wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  s.AddressModeU,
		AddressModeV:  s.AddressModeV,
		AddressModeW:  s.AddressModeW,
		MagFilter:     s.MagFilter,
		MinFilter:     s.MinFilter,
		MipmapFilter:  s.MipmapFilter,
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   s.LodMaxClamp,
		Compare:       s.Compare,
		MaxAnisotropy: s.MaxAnisotropy,
	}
	if d.LodMaxClamp == 0 {
		d.LodMaxClamp = 32
	}
	if d.MaxAnisotropy == 0 {
		d.MaxAnisotropy = 1
	}
	return d
}
