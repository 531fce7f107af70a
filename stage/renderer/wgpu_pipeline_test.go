package renderer

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umbra-gfx/umbra-go/stage/renderer/shader"
)

func TestMergeBindGroupLayoutsORsVisibilityForSharedBindings(t *testing.T) {
	vertexLayouts := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {
			Label: "vert group 0",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    1,
					Visibility: wgpu.ShaderStageVertex,
					Buffer: wgpu.BufferBindingLayout{
						Type:             wgpu.BufferBindingTypeUniform,
						HasDynamicOffset: true,
						MinBindingSize:   64,
					},
				},
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageVertex,
					Buffer: wgpu.BufferBindingLayout{
						Type:           wgpu.BufferBindingTypeUniform,
						MinBindingSize: 192,
					},
				},
			},
		},
	}
	fragmentLayouts := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {
			Label: "frag group 0",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageFragment,
					Buffer: wgpu.BufferBindingLayout{
						Type:           wgpu.BufferBindingTypeUniform,
						MinBindingSize: 192,
					},
				},
			},
		},
		1: {
			Label: "frag group 1",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageFragment,
					Buffer: wgpu.BufferBindingLayout{
						Type:           wgpu.BufferBindingTypeUniform,
						MinBindingSize: 32,
					},
				},
			},
		},
	}

	merged := mergeBindGroupLayouts(vertexLayouts, fragmentLayouts)
	require.Len(t, merged, 2)

	group0 := merged[0]
	require.Len(t, group0.Entries, 2)
	// entries come back sorted by binding
	assert.Equal(t, uint32(0), group0.Entries[0].Binding)
	assert.Equal(t, uint32(1), group0.Entries[1].Binding)
	// binding 0 appears in both stages
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, group0.Entries[0].Visibility)
	// binding 1 is vertex-only and keeps its dynamic offset flag
	assert.Equal(t, wgpu.ShaderStageVertex, group0.Entries[1].Visibility)
	assert.True(t, group0.Entries[1].Buffer.HasDynamicOffset)
	assert.Equal(t, uint64(64), group0.Entries[1].Buffer.MinBindingSize)

	// group 1 exists only on the fragment side and passes through untouched
	group1 := merged[1]
	require.Len(t, group1.Entries, 1)
	assert.Equal(t, wgpu.ShaderStageFragment, group1.Entries[0].Visibility)
}

func TestMergeBindGroupLayoutsForLitProgramPair(t *testing.T) {
	vert := shader.NewShaderFromSource("lit_vert", shader.ShaderTypeVertex, shader.LitVertexSource)
	frag := shader.NewShaderFromSource("lit_frag", shader.ShaderTypeFragment, shader.LitFragmentSource)

	merged := mergeBindGroupLayouts(vert.BindGroupLayoutDescriptors(), frag.BindGroupLayoutDescriptors())
	require.Len(t, merged, 3)

	// group 0: camera + node transform, vertex stage only
	group0, ok := merged[0]
	require.True(t, ok)
	require.Len(t, group0.Entries, 2)
	assert.Equal(t, uint64(192), group0.Entries[0].Buffer.MinBindingSize)
	assert.True(t, group0.Entries[1].Buffer.HasDynamicOffset)

	// group 1: material + light array, fragment stage only
	group1, ok := merged[1]
	require.True(t, ok)
	require.Len(t, group1.Entries, 2)
	assert.Equal(t, uint64(32), group1.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, uint64(96), group1.Entries[1].Buffer.MinBindingSize)

	// group 2: color texture + sampler
	group2, ok := merged[2]
	require.True(t, ok)
	require.Len(t, group2.Entries, 2)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, group2.Entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, group2.Entries[1].Sampler.Type)

	// contiguous groups mean the positional pipeline layout has no nil gaps
	maxGroup := -1
	for g := range merged {
		if g > maxGroup {
			maxGroup = g
		}
	}
	assert.Equal(t, len(merged)-1, maxGroup)
}
