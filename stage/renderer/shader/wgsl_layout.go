// wgsl_layout.go implements the WGSL memory layout rules needed to size buffer
// bindings, plus the mapping from WGSL types to wgpu binding and vertex formats.
//
// Layout reference: https://www.w3.org/TR/WGSL/#alignment-and-size
package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// typeLayout is the byte size and alignment of a WGSL type.
type typeLayout struct {
	size  uint64
	align uint64
}

// primitiveLayouts maps WGSL scalar, vector, and matrix type names to their
// size and alignment. Vector types are listed in both the template and the
// shorthand spelling. Matrix columns are padded to the column vector's
// alignment, which is why mat3x3<f32> occupies 48 bytes.
var primitiveLayouts = map[string]typeLayout{
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"f16":  {2, 2},
	"bool": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},

	"vec2<i32>": {8, 8},
	"vec2i":     {8, 8},
	"vec3<i32>": {12, 16},
	"vec3i":     {12, 16},
	"vec4<i32>": {16, 16},
	"vec4i":     {16, 16},

	"vec2<u32>": {8, 8},
	"vec2u":     {8, 8},
	"vec3<u32>": {12, 16},
	"vec3u":     {12, 16},
	"vec4<u32>": {16, 16},
	"vec4u":     {16, 16},

	"vec2<f16>": {4, 4},
	"vec2h":     {4, 4},
	"vec4<f16>": {8, 8},
	"vec4h":     {8, 8},

	"mat2x2<f32>": {16, 8},
	"mat2x3<f32>": {32, 16},
	"mat2x4<f32>": {32, 16},
	"mat3x2<f32>": {24, 8},
	"mat3x3<f32>": {48, 16},
	"mat3x4<f32>": {48, 16},
	"mat4x2<f32>": {32, 8},
	"mat4x3<f32>": {64, 16},
	"mat4x4<f32>": {64, 16},
}

// vertexFormat pairs a wgpu vertex format with its packed byte width.
type vertexFormat struct {
	format wgpu.VertexFormat
	width  uint64
}

// vertexFormats maps the WGSL types legal in vertex input structs to wgpu
// vertex formats. Unlike buffer layouts, vertex attributes pack tightly, so
// the width here is the unpadded size.
var vertexFormats = map[string]vertexFormat{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},

	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec2i":     {wgpu.VertexFormatSint32x2, 8},
	"vec2<i32>": {wgpu.VertexFormatSint32x2, 8},
	"vec3i":     {wgpu.VertexFormatSint32x3, 12},
	"vec3<i32>": {wgpu.VertexFormatSint32x3, 12},
	"vec4i":     {wgpu.VertexFormatSint32x4, 16},
	"vec4<i32>": {wgpu.VertexFormatSint32x4, 16},

	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec2u":     {wgpu.VertexFormatUint32x2, 8},
	"vec2<u32>": {wgpu.VertexFormatUint32x2, 8},
	"vec3u":     {wgpu.VertexFormatUint32x3, 12},
	"vec3<u32>": {wgpu.VertexFormatUint32x3, 12},
	"vec4u":     {wgpu.VertexFormatUint32x4, 16},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},

	"vec2h":     {wgpu.VertexFormatFloat16x2, 4},
	"vec2<f16>": {wgpu.VertexFormatFloat16x2, 4},
	"vec4h":     {wgpu.VertexFormatFloat16x4, 8},
	"vec4<f16>": {wgpu.VertexFormatFloat16x4, 8},
}

// textureShape is the view dimension and multisample flag implied by a WGSL
// texture type name.
type textureShape struct {
	dimension    wgpu.TextureViewDimension
	multisampled bool
}

// textureShapes maps WGSL texture base type names, sampled and depth variants
// alike, to their view shape.
var textureShapes = map[string]textureShape{
	"texture_1d":                    {wgpu.TextureViewDimension1D, false},
	"texture_2d":                    {wgpu.TextureViewDimension2D, false},
	"texture_2d_array":              {wgpu.TextureViewDimension2DArray, false},
	"texture_3d":                    {wgpu.TextureViewDimension3D, false},
	"texture_cube":                  {wgpu.TextureViewDimensionCube, false},
	"texture_cube_array":            {wgpu.TextureViewDimensionCubeArray, false},
	"texture_multisampled_2d":       {wgpu.TextureViewDimension2D, true},
	"texture_depth_2d":              {wgpu.TextureViewDimension2D, false},
	"texture_depth_2d_array":        {wgpu.TextureViewDimension2DArray, false},
	"texture_depth_cube":            {wgpu.TextureViewDimensionCube, false},
	"texture_depth_cube_array":      {wgpu.TextureViewDimensionCubeArray, false},
	"texture_depth_multisampled_2d": {wgpu.TextureViewDimension2D, true},
}

// texelSampleTypes maps a sampled texture's scalar parameter to the wgpu
// sample type.
var texelSampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

// alignTo rounds v up to the next multiple of align, which must be a power of
// two. align of zero returns v unchanged.
func alignTo(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// layoutEntry converts one scanned resource declaration into a fully populated
// wgpu.BindGroupLayoutEntry. The resource category follows from the declaration
// shape: an address space qualifier means a buffer, otherwise the type name
// selects a sampler or texture layout. Buffer entries get MinBindingSize from
// the bound type's memory layout when it can be resolved; unresolvable types
// leave it at zero, which wgpu treats as no minimum.
//
// Parameters:
//   - decl: the scanned @group/@binding declaration
//   - visibility: the shader stage visibility flag for the entry
//   - sizes: resolved struct layouts keyed by struct name
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the populated layout entry
func layoutEntry(decl resourceDecl, visibility wgpu.ShaderStage, sizes map[string]typeLayout) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    uint32(decl.binding),
		Visibility: visibility,
	}

	if decl.space != "" {
		entry.Buffer = bufferLayout(decl.space)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if l, ok := layoutOf(decl.typ, sizes); ok && l.size > 0 {
				entry.Buffer.MinBindingSize = l.size
			}
		}
		return entry
	}

	switch {
	case decl.typ == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case decl.typ == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(decl.typ, "texture_"):
		entry.Texture = textureLayout(decl.typ)
	}
	return entry
}

// bufferLayout maps an address space qualifier to a buffer binding layout.
// Storage defaults to read-only; only a read_write access mode yields a
// writable storage binding.
func bufferLayout(space string) wgpu.BufferBindingLayout {
	switch {
	case space == "uniform":
		return wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}
	case strings.HasPrefix(space, "storage"):
		if strings.Contains(space, "read_write") {
			return wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}
		}
		return wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}
	}
	return wgpu.BufferBindingLayout{}
}

// textureLayout maps a WGSL texture type, such as texture_2d<f32> or
// texture_depth_2d, to a texture binding layout. Depth textures carry the
// depth sample type; sampled textures take theirs from the scalar parameter.
func textureLayout(typ string) wgpu.TextureBindingLayout {
	base, param := cutTypeParam(typ)

	var layout wgpu.TextureBindingLayout
	if shape, ok := textureShapes[base]; ok {
		layout.ViewDimension = shape.dimension
		layout.Multisampled = shape.multisampled
	}
	if strings.HasPrefix(base, "texture_depth_") {
		layout.SampleType = wgpu.TextureSampleTypeDepth
	} else if st, ok := texelSampleTypes[param]; ok {
		layout.SampleType = st
	}
	return layout
}

// layoutOf resolves a WGSL type name to its size and alignment. structLayouts
// supplies previously solved struct types. Fixed arrays contribute count times
// the element stride; a runtime-sized array resolves to a single element
// stride, the smallest binding that is useful at all, leaving callers to scale
// by element count.
//
// Parameters:
//   - typ: the WGSL type name, such as "f32", "CameraBlock", or "array<LightRecord, 6>"
//   - structLayouts: resolved struct layouts keyed by struct name
//
// Returns:
//   - typeLayout: the resolved layout
//   - bool: false when the type is unknown
func layoutOf(typ string, structLayouts map[string]typeLayout) (typeLayout, bool) {
	if l, ok := primitiveLayouts[typ]; ok {
		return l, true
	}
	if l, ok := structLayouts[typ]; ok {
		return l, true
	}

	if inner, ok := strings.CutPrefix(typ, "array<"); ok && strings.HasSuffix(inner, ">") {
		parts := splitTopLevel(strings.TrimSuffix(inner, ">"), ',')
		elem, ok := layoutOf(strings.TrimSpace(parts[0]), structLayouts)
		if !ok {
			return typeLayout{}, false
		}
		stride := alignTo(elem.size, elem.align)
		if len(parts) == 1 {
			return typeLayout{stride, elem.align}, true
		}
		count, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return typeLayout{}, false
		}
		return typeLayout{count * stride, elem.align}, true
	}

	return typeLayout{}, false
}

// structSizes solves the size and alignment of every scanned struct, following
// struct-typed fields through the declaration set. Structs referencing unknown
// types are left out of the result; their bindings simply get no MinBindingSize.
//
// Parameters:
//   - structs: every struct scanned from the source
//
// Returns:
//   - map[string]typeLayout: solved layouts keyed by struct name
func structSizes(structs []wgslStruct) map[string]typeLayout {
	s := layoutSolver{
		decls:    make(map[string]wgslStruct, len(structs)),
		solved:   make(map[string]typeLayout, len(structs)),
		visiting: make(map[string]bool),
	}
	for _, st := range structs {
		s.decls[st.name] = st
	}
	for name := range s.decls {
		s.resolve(name)
	}
	return s.solved
}

// layoutSolver memoizes struct layout resolution. The visiting set guards
// against cyclic declarations, which valid WGSL cannot contain but malformed
// input might.
type layoutSolver struct {
	decls    map[string]wgslStruct
	solved   map[string]typeLayout
	visiting map[string]bool
}

func (s *layoutSolver) resolve(name string) (typeLayout, bool) {
	if l, ok := s.solved[name]; ok {
		return l, true
	}
	st, ok := s.decls[name]
	if !ok || s.visiting[name] {
		return typeLayout{}, false
	}
	s.visiting[name] = true
	defer delete(s.visiting, name)

	l, ok := s.fieldsLayout(st)
	if !ok {
		return typeLayout{}, false
	}
	s.solved[name] = l
	return l, true
}

// fieldsLayout places each non-builtin field at the next offset aligned for its
// type and rounds the total up to the struct's alignment, the maximum over all
// fields, per WGSL structure layout rules.
func (s *layoutSolver) fieldsLayout(st wgslStruct) (typeLayout, bool) {
	var offset uint64
	maxAlign := uint64(1)
	for _, f := range st.fields {
		if f.builtin {
			continue
		}
		fl, ok := s.typeLayout(f.typ)
		if !ok {
			return typeLayout{}, false
		}
		offset = alignTo(offset, fl.align)
		offset += fl.size
		if fl.align > maxAlign {
			maxAlign = fl.align
		}
	}
	return typeLayout{alignTo(offset, maxAlign), maxAlign}, true
}

// typeLayout resolves a field type, recursing into struct declarations that
// have not been solved yet.
func (s *layoutSolver) typeLayout(typ string) (typeLayout, bool) {
	if l, ok := layoutOf(typ, s.solved); ok {
		return l, true
	}
	if inner, ok := strings.CutPrefix(typ, "array<"); ok && strings.HasSuffix(inner, ">") {
		elemType := splitTopLevel(strings.TrimSuffix(inner, ">"), ',')[0]
		if _, ok := s.typeLayout(strings.TrimSpace(elemType)); ok {
			return layoutOf(typ, s.solved)
		}
		return typeLayout{}, false
	}
	return s.resolve(typ)
}

// cutTypeParam splits a parameterized WGSL type into base name and parameter:
// "texture_2d<f32>" becomes ("texture_2d", "f32") and an unparameterized name
// comes back with an empty parameter.
func cutTypeParam(typ string) (base, param string) {
	base, param, ok := strings.Cut(typ, "<")
	if !ok {
		return typ, ""
	}
	return base, strings.TrimSpace(strings.TrimSuffix(param, ">"))
}
