package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umbra-gfx/umbra-go/stage/renderer/shader"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("mesh")

	assert.Equal(t, "mesh", p.PipelineKey())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.False(t, p.BlendEnabled())
	assert.Equal(t, int32(0), p.DepthBias())
	assert.Equal(t, float32(0), p.DepthBiasSlopeScale())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCCW, p.FrontFace())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
	assert.Nil(t, p.Pipeline())

	bs := p.BlendState()
	require.NotNil(t, bs)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, bs.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, bs.Color.DstFactor)
	assert.Equal(t, wgpu.BlendOperationAdd, bs.Color.Operation)
	assert.Equal(t, wgpu.BlendFactorOne, bs.Alpha.SrcFactor)
}

func TestNewPipelineOptions(t *testing.T) {
	vert := shader.NewShaderFromSource("test_vert", shader.ShaderTypeVertex, shader.NodeVertexSource)
	frag := shader.NewShaderFromSource("test_frag", shader.ShaderTypeFragment, shader.NodeFragmentSource)
	custom := &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		},
	}

	p := NewPipeline("text",
		WithVertexShader(vert),
		WithFragmentShader(frag),
		WithDepthTestEnabled(true),
		WithDepthWriteEnabled(false),
		WithDepthBias(2, 0.5),
		WithBlendEnabled(true),
		WithBlendState(custom),
		WithCullMode(wgpu.CullModeBack),
		WithTopology(wgpu.PrimitiveTopologyTriangleStrip),
		WithFrontFace(wgpu.FrontFaceCW),
		WithWriteMask(wgpu.ColorWriteMaskRed),
	)

	assert.Same(t, vert, p.Shader(shader.ShaderTypeVertex))
	assert.Same(t, frag, p.Shader(shader.ShaderTypeFragment))
	assert.True(t, p.DepthTestEnabled())
	assert.False(t, p.DepthWriteEnabled())
	assert.Equal(t, int32(2), p.DepthBias())
	assert.Equal(t, float32(0.5), p.DepthBiasSlopeScale())
	assert.True(t, p.BlendEnabled())
	assert.Same(t, custom, p.BlendState())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCW, p.FrontFace())
	assert.Equal(t, wgpu.ColorWriteMaskRed, p.WriteMask())
}
