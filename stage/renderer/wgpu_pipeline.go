package renderer

import (
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/umbra-gfx/umbra-go/stage/renderer/pipeline"
	"github.com/umbra-gfx/umbra-go/stage/renderer/shader"
)

func (b *wgpuBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vert := p.Shader(shader.ShaderTypeVertex)
	frag := p.Shader(shader.ShaderTypeFragment)
	if vert == nil || frag == nil {
		return fmt.Errorf("pipeline %q needs both a vertex and a fragment shader", p.PipelineKey())
	}

	vsModule, err := b.compileShader(vert)
	if err != nil {
		return err
	}
	fsModule, err := b.compileShader(frag)
	if err != nil {
		return err
	}

	layout, err := b.pipelineLayout(p.PipelineKey(), vert, frag)
	if err != nil {
		return err
	}

	target := wgpu.ColorTargetState{
		Format:    *b.config.format,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vsModule,
			EntryPoint: vert.EntryPoint(),
			Buffers:    vertexBuffers(vert),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fsModule,
			EntryPoint: frag.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.config.samples),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencilState(p),
	})
	if err != nil {
		return err
	}

	p.SetRenderPipeline(created)

	return nil
}

// compileShader turns a shader's WGSL source into a GPU shader module labeled
// with the shader's key.
func (b *wgpuBackend) compileShader(s shader.Shader) (*wgpu.ShaderModule, error) {
	return b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: s.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.Source(),
		},
	})
}

// pipelineLayout merges the two shaders' bind group layouts and creates the
// pipeline layout from them. The layout slice is positional, so shaders must
// declare contiguous group indices to avoid nil entries.
func (b *wgpuBackend) pipelineLayout(key string, vert, frag shader.Shader) (*wgpu.PipelineLayout, error) {
	merged := mergeBindGroupLayouts(vert.BindGroupLayoutDescriptors(), frag.BindGroupLayoutDescriptors())

	maxGroup := -1
	for g := range merged {
		if g > maxGroup {
			maxGroup = g
		}
	}

	groupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g, desc := range merged {
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("create bind group layout %d for pipeline %q: %w", g, key, err)
		}
		groupLayouts[g] = layout
	}

	return b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            key,
		BindGroupLayouts: groupLayouts,
	})
}

// vertexBuffers flattens a vertex shader's per-slot buffer layouts into the
// single slice the pipeline descriptor wants, in slot order.
func vertexBuffers(s shader.Shader) []wgpu.VertexBufferLayout {
	slots := s.VertexLayouts()
	buffers := make([]wgpu.VertexBufferLayout, 0, len(slots))
	for slot := 0; slot < len(slots); slot++ {
		buffers = append(buffers, s.VertexLayout(slot)...)
	}
	return buffers
}

// depthStencilState maps the pipeline's depth settings onto the fixed depth
// format used by the main pass. Stencil is unused and left at compare-always.
func depthStencilState(p pipeline.Pipeline) *wgpu.DepthStencilState {
	compare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		compare = wgpu.CompareFunctionAlways
	}
	return &wgpu.DepthStencilState{
		Format:              wgpu.TextureFormatDepth24Plus,
		DepthWriteEnabled:   p.DepthWriteEnabled(),
		DepthCompare:        compare,
		DepthBias:           p.DepthBias(),
		DepthBiasSlopeScale: p.DepthBiasSlopeScale(),
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
	}
}

// mergeBindGroupLayouts combines the bind group layout descriptors reflected
// from a vertex and a fragment shader into one set usable for the pipeline
// layout. A group present in only one shader passes through untouched. When
// both shaders declare the same group, entries are united by binding number
// and a binding that appears in both stages gets the visibility flags of both.
//
// Parameters:
//   - vertexLayouts: layout descriptors keyed by group index from the vertex shader
//   - fragmentLayouts: layout descriptors keyed by group index from the fragment shader
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func mergeBindGroupLayouts(
	vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor,
) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(vertexLayouts)+len(fragmentLayouts))

	for g, vDesc := range vertexLayouts {
		fDesc, shared := fragmentLayouts[g]
		if !shared {
			merged[g] = vDesc
			continue
		}
		merged[g] = mergeGroupEntries(vDesc, fDesc)
	}
	for g, fDesc := range fragmentLayouts {
		if _, seen := merged[g]; !seen {
			merged[g] = fDesc
		}
	}

	return merged
}

// mergeGroupEntries unites the entries of one group declared by both shader
// stages. Entries are keyed by binding number; a shared binding keeps the
// vertex-side descriptor with the fragment stage ORed into its visibility.
func mergeGroupEntries(vDesc, fDesc wgpu.BindGroupLayoutDescriptor) wgpu.BindGroupLayoutDescriptor {
	byBinding := make(map[uint32]wgpu.BindGroupLayoutEntry, len(vDesc.Entries)+len(fDesc.Entries))
	for _, e := range vDesc.Entries {
		byBinding[e.Binding] = e
	}
	for _, e := range fDesc.Entries {
		if prev, ok := byBinding[e.Binding]; ok {
			prev.Visibility |= e.Visibility
			byBinding[e.Binding] = prev
			continue
		}
		byBinding[e.Binding] = e
	}

	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(byBinding))
	for _, e := range byBinding {
		entries = append(entries, e)
	}
	// deterministic entry order regardless of map iteration
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Binding < entries[j].Binding
	})

	return wgpu.BindGroupLayoutDescriptor{
		Label:   vDesc.Label,
		Entries: entries,
	}
}
