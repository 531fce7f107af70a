package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption seeds a provider with pre-created resources during
// construction. Most providers start empty and are populated by the Renderer;
// options exist for the cases where a resource already exists and should be
// adopted rather than recreated.
type BindGroupProviderOption func(*provider)

// WithBindGroup adopts a pre-created bind group.
//
// Parameters:
//   - bg: the bind group to adopt
//
// Returns:
//   - BindGroupProviderOption: the option function
func WithBindGroup(bg *wgpu.BindGroup) BindGroupProviderOption {
	return func(p *provider) {
		p.group = bg
	}
}

// WithBindGroupLayout adopts a pre-created bind group layout.
//
// Parameters:
//   - bgl: the layout to adopt
//
// Returns:
//   - BindGroupProviderOption: the option function
func WithBindGroupLayout(bgl *wgpu.BindGroupLayout) BindGroupProviderOption {
	return func(p *provider) {
		p.groupLayout = bgl
	}
}

// WithBuffer adopts a pre-created buffer at a binding index.
//
// Parameters:
//   - binding: the binding index
//   - buf: the buffer to adopt
//
// Returns:
//   - BindGroupProviderOption: the option function
func WithBuffer(binding int, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *provider) {
		if p.buffers == nil {
			p.buffers = make(map[int]*wgpu.Buffer)
		}
		p.buffers[binding] = buf
	}
}

// WithBuffers adopts a full buffer map, replacing anything already present.
//
// Parameters:
//   - buffers: buffers keyed by binding index
//
// Returns:
//   - BindGroupProviderOption: the option function
func WithBuffers(buffers map[int]*wgpu.Buffer) BindGroupProviderOption {
	return func(p *provider) {
		p.buffers = buffers
	}
}
