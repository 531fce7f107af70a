package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/umbra-gfx/umbra-go/common"
	"github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"
)

func (b *wgpuBackend) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(vertexData) > 0 {
		buf, err := b.uploadBuffer(provider.Label()+" Vertex Buffer", vertexData, wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst)
		if err != nil {
			return err
		}
		provider.SetVertexBuffer(buf)
	}

	if len(indexData) > 0 {
		buf, err := b.uploadBuffer(provider.Label()+" Index Buffer", indexData, wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst)
		if err != nil {
			return err
		}
		provider.SetIndexBuffer(buf)
	}

	provider.SetIndexCount(indexCount)

	return nil
}

// uploadBuffer creates a buffer sized for data and writes data into it.
func (b *wgpuBackend) uploadBuffer(label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *wgpuBackend) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		created, err := b.device.CreateBindGroupLayout(&descriptor)
		if err != nil {
			return err
		}
		layout = created
		provider.SetBindGroupLayout(layout)
	}

	entries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, layoutEntry := range descriptor.Entries {
		entry, err := b.resourceEntry(provider, layoutEntry, bufferUsageOverrides, bufferSizeOverrides)
		if err != nil {
			return err
		}
		entries[i] = entry
	}

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(group)

	return nil
}

// resourceEntry resolves one layout entry to the provider resource that backs
// it. Texture and sampler bindings must already be initialized on the
// provider; buffer bindings are created on demand.
func (b *wgpuBackend) resourceEntry(provider bind_group_provider.BindGroupProvider, entry wgpu.BindGroupLayoutEntry, usageOverrides map[int]wgpu.BufferUsage, sizeOverrides map[int]uint64) (wgpu.BindGroupEntry, error) {
	binding := int(entry.Binding)

	switch {
	case entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		view := provider.TextureView(binding)
		if view == nil {
			return wgpu.BindGroupEntry{}, fmt.Errorf("binding %d wants a texture view; call InitTextureView before InitBindGroup", binding)
		}
		return wgpu.BindGroupEntry{Binding: entry.Binding, TextureView: view}, nil

	case entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		samp := provider.Sampler(binding)
		if samp == nil {
			return wgpu.BindGroupEntry{}, fmt.Errorf("binding %d wants a sampler; call InitSampler before InitBindGroup", binding)
		}
		return wgpu.BindGroupEntry{Binding: entry.Binding, Sampler: samp}, nil
	}

	buf, err := b.ensureBuffer(provider, entry, usageOverrides, sizeOverrides)
	if err != nil {
		return wgpu.BindGroupEntry{}, err
	}

	// A dynamic-offset binding exposes a MinBindingSize window into what is
	// usually a larger arena buffer. Binding the whole arena would fail
	// validation as soon as a non-zero offset slides the window past the end.
	size := uint64(wgpu.WholeSize)
	if entry.Buffer.HasDynamicOffset {
		size = entry.Buffer.MinBindingSize
	}
	return wgpu.BindGroupEntry{
		Binding: entry.Binding,
		Buffer:  buf,
		Offset:  0,
		Size:    size,
	}, nil
}

// ensureBuffer returns the provider's buffer for the entry's binding, creating
// one when absent. Usage overrides widen the derived flags; a size override
// replaces the MinBindingSize allocation, which is how arena buffers for
// dynamic-offset bindings get their capacity.
func (b *wgpuBackend) ensureBuffer(provider bind_group_provider.BindGroupProvider, entry wgpu.BindGroupLayoutEntry, usageOverrides map[int]wgpu.BufferUsage, sizeOverrides map[int]uint64) (*wgpu.Buffer, error) {
	binding := int(entry.Binding)
	if buf := provider.Buffer(binding); buf != nil {
		return buf, nil
	}

	usage := baseBufferUsage(entry.Buffer.Type)
	if extra, ok := usageOverrides[binding]; ok {
		usage |= extra
	}
	size := entry.Buffer.MinBindingSize
	if override, ok := sizeOverrides[binding]; ok {
		size = override
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: provider.Label() + " Buffer",
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, err
	}
	provider.SetBuffer(binding, buf)
	return buf, nil
}

// baseBufferUsage maps the binding type declared in the shader to buffer usage
// flags. Every buffer is CopyDst so WriteBuffers can stream updates into it.
func baseBufferUsage(t wgpu.BufferBindingType) wgpu.BufferUsage {
	switch t {
	case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
		return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	default:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	}
}

func (b *wgpuBackend) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	format := stagingData.Format
	if format == wgpu.TextureFormatUndefined {
		format = wgpu.TextureFormatRGBA8Unorm
	}

	size := wgpu.Extent3D{
		Width:              stagingData.Width,
		Height:             stagingData.Height,
		DepthOrArrayLayers: stagingData.LayerCount(),
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         provider.Label() + " Texture",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}

	// One write covers every layer: Pixels packs the layers back to back and
	// RowsPerImage tells the queue where each one starts.
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  stagingData.Width * stagingData.BytesPerPixel(),
			RowsPerImage: stagingData.Height,
		},
		&size,
	)

	// The default view picks its dimension from the layer count: 2D for one
	// layer, 2DArray for several.
	view, err := tex.CreateView(nil)
	if err != nil {
		return err
	}
	provider.SetTextureView(bindingKey, view)

	return nil
}

func (b *wgpuBackend) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	samp, err := b.device.CreateSampler(samplerStagingData.Descriptor(provider.Label() + " Sampler"))
	if err != nil {
		return err
	}
	provider.SetSampler(bindingKey, samp)

	return nil
}

func (b *wgpuBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		// Writes against bindings whose buffers were never created are dropped
		// rather than treated as errors.
		if buf := w.Provider.Buffer(w.Binding); buf != nil {
			b.queue.WriteBuffer(buf, w.Offset, w.Data)
		}
	}
}
