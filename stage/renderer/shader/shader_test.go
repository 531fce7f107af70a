package shader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umbra-gfx/umbra-go/stage/glyph"
)

func TestProcessInjectsStructSourcesAndStripsAnnotations(t *testing.T) {
	sh := NewShaderFromSource("node_vert", ShaderTypeVertex, NodeVertexSource)

	src := sh.Source()
	require.Contains(t, src, "struct CameraBlock")
	require.Contains(t, src, "struct NodeTransform")
	require.Contains(t, src, "struct VertexInput")
	require.Contains(t, src, "@group(0) @binding(0) var<uniform> camera: CameraBlock;")
	require.Contains(t, src, "@group(0) @binding(1) var<uniform> node: NodeTransform;")
	assert.NotContains(t, src, "@umbra:")
}

func TestProcessEmitsFixedSizeArrayDeclaration(t *testing.T) {
	sh := NewShaderFromSource("lit_frag", ShaderTypeFragment, LitFragmentSource)

	require.Contains(t, sh.Source(), "@group(1) @binding(1) var<uniform> lights: array<LightRecord, 6>;")
}

func TestNodeVertexBindingSurface(t *testing.T) {
	sh := NewShaderFromSource("node_vert", ShaderTypeVertex, NodeVertexSource)

	require.Equal(t, "vs_main", sh.EntryPoint())
	require.Equal(t, ShaderTypeVertex, sh.ShaderType())

	desc := sh.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 2)

	cam := desc.Entries[0]
	require.Equal(t, uint32(0), cam.Binding)
	require.Equal(t, wgpu.ShaderStageVertex, cam.Visibility)
	require.Equal(t, wgpu.BufferBindingTypeUniform, cam.Buffer.Type)
	require.Equal(t, uint64(192), cam.Buffer.MinBindingSize)
	require.False(t, cam.Buffer.HasDynamicOffset)

	node := desc.Entries[1]
	require.Equal(t, uint32(1), node.Binding)
	require.Equal(t, wgpu.BufferBindingTypeUniform, node.Buffer.Type)
	require.Equal(t, uint64(64), node.Buffer.MinBindingSize)
	require.True(t, node.Buffer.HasDynamicOffset)

	require.Equal(t, "camera", sh.BindGroupVarName(0, 0))
	require.Equal(t, "node", sh.BindGroupVarName(0, 1))
	binding, ok := sh.BindGroupFromVarName(0, "node")
	require.True(t, ok)
	require.Equal(t, 1, binding)
}

func TestNodeVertexLayoutMatchesMeshStride(t *testing.T) {
	sh := NewShaderFromSource("node_vert", ShaderTypeVertex, NodeVertexSource)

	layouts := sh.VertexLayout(0)
	require.Len(t, layouts, 1)

	layout := layouts[0]
	require.Equal(t, uint64(32), layout.ArrayStride)
	require.Equal(t, wgpu.VertexStepModeVertex, layout.StepMode)
	require.Len(t, layout.Attributes, 3)

	require.Equal(t, wgpu.VertexFormatFloat32x3, layout.Attributes[0].Format)
	require.Equal(t, uint64(0), layout.Attributes[0].Offset)
	require.Equal(t, wgpu.VertexFormatFloat32x3, layout.Attributes[1].Format)
	require.Equal(t, uint64(12), layout.Attributes[1].Offset)
	require.Equal(t, wgpu.VertexFormatFloat32x2, layout.Attributes[2].Format)
	require.Equal(t, uint64(24), layout.Attributes[2].Offset)
}

func TestInstancedVertexBindingSurface(t *testing.T) {
	sh := NewShaderFromSource("instanced_vert", ShaderTypeVertex, InstancedVertexSource)

	desc := sh.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 2)

	instances := desc.Entries[1]
	require.Equal(t, uint32(1), instances.Binding)
	require.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, instances.Buffer.Type)
	require.Equal(t, uint64(80), instances.Buffer.MinBindingSize, "one InstanceRecord element")
	require.False(t, instances.Buffer.HasDynamicOffset)

	require.Equal(t, "instances", sh.BindGroupVarName(0, 1))
}

func TestLitFragmentBindingSurface(t *testing.T) {
	sh := NewShaderFromSource("lit_frag", ShaderTypeFragment, LitFragmentSource)

	require.Equal(t, "fs_main", sh.EntryPoint())

	frame := sh.BindGroupLayoutDescriptor(1)
	require.Len(t, frame.Entries, 2)

	mat := frame.Entries[0]
	require.Equal(t, wgpu.ShaderStageFragment, mat.Visibility)
	require.Equal(t, wgpu.BufferBindingTypeUniform, mat.Buffer.Type)
	require.Equal(t, uint64(32), mat.Buffer.MinBindingSize)

	lights := frame.Entries[1]
	require.Equal(t, wgpu.BufferBindingTypeUniform, lights.Buffer.Type)
	require.Equal(t, uint64(96), lights.Buffer.MinBindingSize, "six LightRecord elements")

	surface := sh.BindGroupLayoutDescriptor(2)
	require.Len(t, surface.Entries, 2)
	require.Equal(t, wgpu.TextureSampleTypeFloat, surface.Entries[0].Texture.SampleType)
	require.Equal(t, wgpu.TextureViewDimension2D, surface.Entries[0].Texture.ViewDimension)
	require.Equal(t, wgpu.SamplerBindingTypeFiltering, surface.Entries[1].Sampler.Type)
}

func TestTextVertexLayoutMatchesGlyphStride(t *testing.T) {
	sh := NewShaderFromSource("text_vert", ShaderTypeVertex, TextVertexSource)

	layouts := sh.VertexLayout(0)
	require.Len(t, layouts, 1)

	layout := layouts[0]
	require.Equal(t, uint64(glyph.GPUGlyphVertexSize), layout.ArrayStride)
	require.Len(t, layout.Attributes, 4)

	require.Equal(t, wgpu.VertexFormatFloat32x2, layout.Attributes[0].Format)
	require.Equal(t, uint64(0), layout.Attributes[0].Offset)
	require.Equal(t, wgpu.VertexFormatFloat32x2, layout.Attributes[1].Format)
	require.Equal(t, uint64(8), layout.Attributes[1].Offset)
	require.Equal(t, wgpu.VertexFormatFloat32x4, layout.Attributes[2].Format)
	require.Equal(t, uint64(16), layout.Attributes[2].Offset)
	require.Equal(t, wgpu.VertexFormatUint32, layout.Attributes[3].Format)
	require.Equal(t, uint64(32), layout.Attributes[3].Offset)
}

func TestTextFragmentVariantsDifferOnlyInViewDimension(t *testing.T) {
	atlas := NewShaderFromSource("text_atlas_frag", ShaderTypeFragment, TextAtlasFragmentSource)
	array := NewShaderFromSource("text_array_frag", ShaderTypeFragment, TextArrayFragmentSource)

	atlasDesc := atlas.BindGroupLayoutDescriptor(0)
	arrayDesc := array.BindGroupLayoutDescriptor(0)
	require.Len(t, atlasDesc.Entries, 2)
	require.Len(t, arrayDesc.Entries, 2)

	require.Equal(t, wgpu.TextureViewDimension2D, atlasDesc.Entries[0].Texture.ViewDimension)
	require.Equal(t, wgpu.TextureViewDimension2DArray, arrayDesc.Entries[0].Texture.ViewDimension)
	require.Equal(t, atlasDesc.Entries[1].Sampler.Type, arrayDesc.Entries[1].Sampler.Type)
}

func TestProviderDeclarationsCarryIdentityAndRole(t *testing.T) {
	sh := NewShaderFromSource("text_array_frag", ShaderTypeFragment, TextArrayFragmentSource)

	decls := sh.Declarations()
	providers := make([]Annotation, 0, len(decls))
	for _, d := range decls {
		if d.Type == AnnotationTypeProvider {
			providers = append(providers, d)
		}
	}
	require.Len(t, providers, 2)

	require.Equal(t, AnnotationArgGlyph, providers[0].Args[0])
	require.Equal(t, AnnotationArgColorTexture, providers[0].Args[1])
	require.Equal(t, 0, *providers[0].Group)
	require.Equal(t, 0, *providers[0].Binding)

	require.Equal(t, AnnotationArgGlyph, providers[1].Args[0])
	require.Equal(t, AnnotationArgColorSampler, providers[1].Args[1])
	require.Equal(t, 1, *providers[1].Binding)
}

func TestGroupDeclarationsRecordAddressSpace(t *testing.T) {
	sh := NewShaderFromSource("node_vert", ShaderTypeVertex, NodeVertexSource)

	decls := sh.Declarations()
	require.Len(t, decls, 2)
	require.Equal(t, AnnotationTypeBindingGroup, decls[0].Type)
	require.Equal(t, annotationArgStorageTypeUniform, decls[0].Args[0])
	require.Equal(t, annotationArgStorageTypeUniformDynamic, decls[1].Args[0])
}

func TestNewShaderReadsFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node_vert.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(NodeVertexSource), 0o644))

	sh := NewShader("from_path", ShaderTypeVertex, path)
	require.Equal(t, "from_path", sh.Key())
	require.Equal(t, "vs_main", sh.EntryPoint())
	require.Equal(t, "from_path", sh.Module().Label)
}

func TestNewShaderPanicsOnMissingFile(t *testing.T) {
	require.Panics(t, func() {
		NewShader("missing", ShaderTypeVertex, filepath.Join(t.TempDir(), "nope.wgsl"))
	})
}

func TestNewShaderFromSourcePanicsOnMalformedAnnotation(t *testing.T) {
	require.Panics(t, func() {
		NewShaderFromSource("bad", ShaderTypeVertex, "//@umbra:include does_not_exist\n")
	})
}

func TestParseAnnotationRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"unknown type", "//@umbra:frobnicate camera"},
		{"include arity", "//@umbra:include camera vertex"},
		{"unknown struct", "//@umbra:include shadow"},
		{"group arity", "//@umbra:group 0 0 storage_uniform camera"},
		{"unknown address space", "//@umbra:group 0 0 push_constant camera camera"},
		{"unknown group type", "//@umbra:group 0 0 storage_uniform camera shadow"},
		{"unknown array element", "//@umbra:group 1 1 storage_uniform lights array<shadow,6>"},
		{"bad array count", "//@umbra:group 1 1 storage_uniform lights array<light_record,many>"},
		{"unknown provider", "//@umbra:provider 2 0 shadow"},
		{"unknown role", "//@umbra:provider 2 0 texture depth_texture"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := parseAnnotation(tc.line, 1)
			require.Error(t, err)
			require.Nil(t, a)
		})
	}
}

func TestParseAnnotationIgnoresPlainComments(t *testing.T) {
	a, err := parseAnnotation("// just a comment about @group usage", 1)
	require.NoError(t, err)
	require.Nil(t, a)
}

func TestCompileStockPrograms(t *testing.T) {
	programs := map[string]struct {
		shaderType ShaderType
		source     string
	}{
		"node_vert":       {ShaderTypeVertex, NodeVertexSource},
		"node_frag":       {ShaderTypeFragment, NodeFragmentSource},
		"instanced_vert":  {ShaderTypeVertex, InstancedVertexSource},
		"instanced_frag":  {ShaderTypeFragment, InstancedFragmentSource},
		"lit_vert":        {ShaderTypeVertex, LitVertexSource},
		"lit_frag":        {ShaderTypeFragment, LitFragmentSource},
		"text_vert":       {ShaderTypeVertex, TextVertexSource},
		"text_atlas_frag": {ShaderTypeFragment, TextAtlasFragmentSource},
		"text_array_frag": {ShaderTypeFragment, TextArrayFragmentSource},
	}

	for name, p := range programs {
		t.Run(name, func(t *testing.T) {
			sh := NewShaderFromSource(name, p.shaderType, p.source)
			require.NotEmpty(t, sh.EntryPoint())

			spirv, err := naga.Compile(sh.Source())
			if err != nil {
				msg := err.Error()
				if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
					t.Skipf("naga feature gap: %v", err)
				}
				t.Fatalf("failed to compile %s: %v", name, err)
			}

			require.GreaterOrEqual(t, len(spirv), 4)
			magic := uint32(spirv[0]) | uint32(spirv[1])<<8 | uint32(spirv[2])<<16 | uint32(spirv[3])<<24
			require.Equal(t, uint32(0x07230203), magic, "SPIR-V magic")
		})
	}
}
