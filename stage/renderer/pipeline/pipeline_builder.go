package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/umbra-gfx/umbra-go/stage/renderer/shader"
)

// PipelineBuilderOption adjusts one aspect of a pipeline's configuration
// during NewPipeline.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader attaches the vertex stage shader.
//
// Parameters:
//   - s: the vertex shader
//
// Returns:
//   - PipelineBuilderOption: the option function
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader attaches the fragment stage shader.
//
// Parameters:
//   - s: the fragment shader
//
// Returns:
//   - PipelineBuilderOption: the option function
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithDepthTestEnabled toggles depth testing.
//
// Parameters:
//   - enabled: whether fragments are depth tested
//
// Returns:
//   - PipelineBuilderOption: the option function
func WithDepthTestEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depth.test = enabled
	}
}

// WithDepthWriteEnabled toggles depth buffer writes. Transparent passes
// typically test against depth but leave it unwritten.
//
// Parameters:
//   - enabled: whether fragments write the depth buffer
//
// Returns:
//   - PipelineBuilderOption: the option function
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depth.write = enabled
	}
}

// WithDepthBias sets the constant and slope-scaled depth bias, which pushes
// coplanar geometry apart to avoid z-fighting.
//
// Parameters:
//   - bias: the constant depth bias
//   - slopeScale: the slope-scaled depth bias
//
// Returns:
//   - PipelineBuilderOption: the option function
func WithDepthBias(bias int32, slopeScale float32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depth.bias = bias
		p.depth.slopeScale = slopeScale
	}
}

// WithBlendEnabled toggles color blending.
//
// Parameters:
//   - enabled: whether the color target blends
//
// Returns:
//   - PipelineBuilderOption: the option function
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.color.blend = enabled
	}
}

// WithBlendState replaces the blend equation. Has no visible effect until
// blending is enabled.
//
// Parameters:
//   - state: the blend state to use
//
// Returns:
//   - PipelineBuilderOption: the option function
func WithBlendState(state *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.color.blendEq = state
	}
}

// WithCullMode selects which triangle faces are culled.
//
// Parameters:
//   - mode: the cull mode, such as wgpu.CullModeBack
//
// Returns:
//   - PipelineBuilderOption: the option function
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.raster.cull = mode
	}
}

// WithTopology selects the primitive topology.
//
// Parameters:
//   - topology: the topology, such as wgpu.PrimitiveTopologyTriangleList
//
// Returns:
//   - PipelineBuilderOption: the option function
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.raster.topology = topology
	}
}

// WithFrontFace selects the winding order that counts as front-facing.
//
// Parameters:
//   - face: wgpu.FrontFaceCCW or wgpu.FrontFaceCW
//
// Returns:
//   - PipelineBuilderOption: the option function
func WithFrontFace(face wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.raster.frontFace = face
	}
}

// WithWriteMask restricts which color channels are written.
//
// Parameters:
//   - mask: the color write mask
//
// Returns:
//   - PipelineBuilderOption: the option function
func WithWriteMask(mask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.color.writeMask = mask
	}
}
