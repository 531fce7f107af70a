package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// BindGroupProvider is the handle a component holds to its GPU binding
// resources. Stage components (camera, node arena, instance sets, light
// arrays, materials, glyph resources) each own one; the Renderer populates it
// during initialization and reads it back when encoding draw calls.
//
// The lifecycle runs:
//  1. The component creates a provider with a unique label.
//  2. Renderer.InitTextureView and InitSampler stage image resources on it.
//  3. Renderer.InitBindGroup creates buffers, the layout, and the bind group.
//  4. The stage emits BufferWrite batches each frame; Renderer.WriteBuffers
//     uploads them.
//  5. Draw calls read BindGroup.
type BindGroupProvider interface {
	// Label returns the debug label this provider was created with.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the GPU bind group, or nil before initialization.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the GPU bind group layout, or nil before
	// initialization.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the GPU buffer at a binding index, or nil if none exists.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Buffers returns every GPU buffer keyed by binding index.
	//
	// Returns:
	//   - map[int]*wgpu.Buffer: buffers keyed by binding index
	Buffers() map[int]*wgpu.Buffer

	// TextureView returns the GPU texture view at a binding index, or nil if
	// none is staged.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView(binding int) *wgpu.TextureView

	// TextureViews returns every staged texture view keyed by binding index.
	//
	// Returns:
	//   - map[int]*wgpu.TextureView: texture views keyed by binding index
	TextureViews() map[int]*wgpu.TextureView

	// Sampler returns the GPU sampler at a binding index, or nil if none is
	// staged.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler(binding int) *wgpu.Sampler

	// Samplers returns every staged sampler keyed by binding index.
	//
	// Returns:
	//   - map[int]*wgpu.Sampler: samplers keyed by binding index
	Samplers() map[int]*wgpu.Sampler

	// VertexBuffer returns the GPU vertex buffer for providers that carry
	// geometry, or nil before InitMeshBuffers.
	//
	// Returns:
	//   - *wgpu.Buffer: the vertex buffer or nil
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the GPU index buffer for providers that carry
	// geometry, or nil before InitMeshBuffers.
	//
	// Returns:
	//   - *wgpu.Buffer: the index buffer or nil
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns how many indices a draw of this provider's geometry
	// covers.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// MissingBindings reports descriptor entries whose image resources have not
	// been staged on this provider. Buffer entries are never reported since the
	// Renderer creates buffers during InitBindGroup; texture and sampler entries
	// must be staged beforehand via InitTextureView/InitSampler. This is a
	// host-side precondition check, run before bind group creation, never at
	// invocation time.
	//
	// Parameters:
	//   - descriptor: the bind group layout the provider is expected to satisfy
	//
	// Returns:
	//   - []int: binding indices with missing resources, empty when complete
	MissingBindings(descriptor wgpu.BindGroupLayoutDescriptor) []int

	// SetBindGroup stores the bind group created by Renderer.InitBindGroup.
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBindGroupLayout stores the layout created by Renderer.InitBindGroup.
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer stores a created buffer at a binding index.
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetBuffers replaces the full buffer map.
	SetBuffers(buffers map[int]*wgpu.Buffer)

	// SetTextureView stages a texture view at a binding index.
	SetTextureView(binding int, tv *wgpu.TextureView)

	// SetTextureViews replaces the full texture view map.
	SetTextureViews(textureViews map[int]*wgpu.TextureView)

	// SetSampler stages a sampler at a binding index.
	SetSampler(binding int, s *wgpu.Sampler)

	// SetSamplers replaces the full sampler map.
	SetSamplers(samplers map[int]*wgpu.Sampler)

	// SetVertexBuffer stores the vertex buffer created by InitMeshBuffers.
	SetVertexBuffer(buf *wgpu.Buffer)

	// SetIndexBuffer stores the index buffer created by InitMeshBuffers.
	SetIndexBuffer(buf *wgpu.Buffer)

	// SetIndexCount records how many indices the stored index buffer holds.
	SetIndexCount(count int)

	// Release frees every GPU resource this provider holds and clears the
	// handles so the provider can be reinitialized.
	Release()
}

// provider implements BindGroupProvider. All wgpu handles it holds are owned
// by the provider once set and are released together in Release. The Renderer
// populates them; user code only supplies the label and options.
type provider struct {
	label string

	group       *wgpu.BindGroup
	groupLayout *wgpu.BindGroupLayout

	// Per-binding resources. Buffers are created by the Renderer during
	// InitBindGroup; views and samplers are staged beforehand.
	buffers  map[int]*wgpu.Buffer
	views    map[int]*wgpu.TextureView
	samplers map[int]*wgpu.Sampler

	// Geometry, present only on providers that carry a mesh.
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
}

var _ BindGroupProvider = &provider{}

// NewBindGroupProvider creates an empty provider under the given debug label.
//
// Parameters:
//   - label: debug label identifying the provider
//   - options: optional pre-created resources to seed the provider with
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &provider{
		label:    label,
		buffers:  make(map[int]*wgpu.Buffer),
		views:    make(map[int]*wgpu.TextureView),
		samplers: make(map[int]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *provider) Label() string {
	return p.label
}

func (p *provider) BindGroup() *wgpu.BindGroup {
	return p.group
}

func (p *provider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.groupLayout
}

func (p *provider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *provider) Buffers() map[int]*wgpu.Buffer {
	return p.buffers
}

func (p *provider) TextureView(binding int) *wgpu.TextureView {
	return p.views[binding]
}

func (p *provider) TextureViews() map[int]*wgpu.TextureView {
	return p.views
}

func (p *provider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *provider) Samplers() map[int]*wgpu.Sampler {
	return p.samplers
}

func (p *provider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *provider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *provider) IndexCount() int {
	return p.indexCount
}

func (p *provider) MissingBindings(descriptor wgpu.BindGroupLayoutDescriptor) []int {
	missing := make([]int, 0)
	for _, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		switch {
		case entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			if p.views[binding] == nil {
				missing = append(missing, binding)
			}
		case entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			if p.samplers[binding] == nil {
				missing = append(missing, binding)
			}
		}
	}
	return missing
}

func (p *provider) SetBindGroup(bg *wgpu.BindGroup) {
	p.group = bg
}

func (p *provider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.groupLayout = bgl
}

func (p *provider) SetBuffer(binding int, buf *wgpu.Buffer) {
	if p.buffers == nil {
		p.buffers = make(map[int]*wgpu.Buffer)
	}
	p.buffers[binding] = buf
}

func (p *provider) SetBuffers(buffers map[int]*wgpu.Buffer) {
	p.buffers = buffers
}

func (p *provider) SetTextureView(binding int, tv *wgpu.TextureView) {
	if p.views == nil {
		p.views = make(map[int]*wgpu.TextureView)
	}
	p.views[binding] = tv
}

func (p *provider) SetTextureViews(textureViews map[int]*wgpu.TextureView) {
	p.views = textureViews
}

func (p *provider) SetSampler(binding int, s *wgpu.Sampler) {
	if p.samplers == nil {
		p.samplers = make(map[int]*wgpu.Sampler)
	}
	p.samplers[binding] = s
}

func (p *provider) SetSamplers(samplers map[int]*wgpu.Sampler) {
	p.samplers = samplers
}

func (p *provider) SetVertexBuffer(buf *wgpu.Buffer) {
	p.vertexBuffer = buf
}

func (p *provider) SetIndexBuffer(buf *wgpu.Buffer) {
	p.indexBuffer = buf
}

func (p *provider) SetIndexCount(count int) {
	p.indexCount = count
}

func (p *provider) Release() {
	for binding, tv := range p.views {
		if tv != nil {
			tv.Release()
		}
		delete(p.views, binding)
	}
	for binding, s := range p.samplers {
		if s != nil {
			s.Release()
		}
		delete(p.samplers, binding)
	}
	for binding, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, binding)
	}

	if p.group != nil {
		p.group.Release()
		p.group = nil
	}
	if p.groupLayout != nil {
		p.groupLayout.Release()
		p.groupLayout = nil
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
}
