package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/umbra-gfx/umbra-go/stage/renderer/shader"
)

// Pipeline pairs a vertex and fragment shader with the fixed-function state
// needed to build a render pipeline: depth, blend, cull, and topology settings.
// The wgpu pipeline itself is created lazily by the renderer; until then
// Pipeline() returns nil.
type Pipeline interface {
	// PipelineKey returns the unique key this pipeline is cached and looked
	// up under.
	//
	// Returns:
	//   - string: the cache key
	PipelineKey() string

	// Shader returns the shader attached for a stage, or nil when none is set.
	//
	// Parameters:
	//   - shaderType: the stage to look up (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the attached shader or nil
	Shader(shaderType shader.ShaderType) shader.Shader

	// Pipeline returns the wgpu render pipeline, or nil before the renderer
	// has initialized it.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the render pipeline or nil
	Pipeline() *wgpu.RenderPipeline

	// DepthTestEnabled reports whether fragments are depth tested.
	//
	// Returns:
	//   - bool: true when depth testing is on
	DepthTestEnabled() bool

	// DepthWriteEnabled reports whether fragments write the depth buffer.
	//
	// Returns:
	//   - bool: true when depth writes are on
	DepthWriteEnabled() bool

	// DepthBias returns the constant depth bias applied during rasterization.
	//
	// Returns:
	//   - int32: the constant depth bias
	DepthBias() int32

	// DepthBiasSlopeScale returns the slope-scaled depth bias applied during
	// rasterization.
	//
	// Returns:
	//   - float32: the slope-scaled depth bias
	DepthBiasSlopeScale() float32

	// BlendEnabled reports whether color blending is on.
	//
	// Returns:
	//   - bool: true when blending is on
	BlendEnabled() bool

	// BlendState returns the blend equation used when blending is enabled.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState

	// CullMode returns which triangle faces are culled.
	//
	// Returns:
	//   - wgpu.CullMode: the configured cull mode
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology geometry is assembled with.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the configured topology
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the winding order that counts as front-facing.
	//
	// Returns:
	//   - wgpu.FrontFace: the configured winding order
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color channel write mask.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the configured write mask
	WriteMask() wgpu.ColorWriteMask

	// SetRenderPipeline stores the wgpu pipeline after the renderer creates it.
	//
	// Parameters:
	//   - p: the created render pipeline
	SetRenderPipeline(p *wgpu.RenderPipeline)
}

// depthState groups the depth-stencil half of the fixed-function
// configuration.
type depthState struct {
	test       bool
	write      bool
	bias       int32
	slopeScale float32
}

// rasterState groups primitive assembly and rasterization configuration.
type rasterState struct {
	cull      wgpu.CullMode
	topology  wgpu.PrimitiveTopology
	frontFace wgpu.FrontFace
}

// colorState groups the color target configuration.
type colorState struct {
	blend     bool
	writeMask wgpu.ColorWriteMask
	blendEq   *wgpu.BlendState
}

// pipeline implements Pipeline. Shaders must be attached through builder
// options before the renderer initializes it.
type pipeline struct {
	key            string
	vertexShader   shader.Shader
	fragmentShader shader.Shader
	renderPipeline *wgpu.RenderPipeline

	depth  depthState
	raster rasterState
	color  colorState
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a pipeline configuration under the given key. Defaults
// are a depth-tested, depth-writing, non-blended triangle list with no culling
// and CCW front faces; builder options adjust from there. The default blend
// equation is standard premultiplied-friendly alpha blending, inert until
// blending is enabled.
//
// Parameters:
//   - pipelineKey: the key the pipeline is cached under
//   - opts: configuration options applied in order
//
// Returns:
//   - Pipeline: the configured pipeline
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		key: pipelineKey,
		depth: depthState{
			test:  true,
			write: true,
		},
		raster: rasterState{
			cull:      wgpu.CullModeNone,
			topology:  wgpu.PrimitiveTopologyTriangleList,
			frontFace: wgpu.FrontFaceCCW,
		},
		color: colorState{
			writeMask: wgpu.ColorWriteMaskAll,
			blendEq: &wgpu.BlendState{
				Color: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorSrcAlpha,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					Operation: wgpu.BlendOperationAdd,
				},
				Alpha: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorOne,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					Operation: wgpu.BlendOperationAdd,
				},
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.key
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) Pipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depth.test
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depth.write
}

func (p *pipeline) DepthBias() int32 {
	return p.depth.bias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depth.slopeScale
}

func (p *pipeline) BlendEnabled() bool {
	return p.color.blend
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.color.blendEq
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.raster.cull
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.raster.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.raster.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.color.writeMask
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}
