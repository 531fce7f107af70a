package shader

import (
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies which render pipeline stage a shader occupies.
type ShaderType int

const (
	// ShaderTypeVertex marks a vertex stage shader.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment marks a fragment stage shader, always paired with a
	// vertex shader in a pipeline.
	ShaderTypeFragment
)

// Shader is a pre-processed WGSL shader with its pipeline metadata already
// extracted: entry point, vertex buffer layouts, bind group layout descriptors,
// and the annotation declarations that tell the stage which resource provider
// feeds each bind group.
type Shader interface {
	// Key returns the unique identifier under which this shader is cached
	// and looked up.
	//
	// Returns:
	//   - string: the shader key
	Key() string

	// Source returns the final WGSL source after pre-processing, with every
	// annotation expanded.
	//
	// Returns:
	//   - string: the processed WGSL source
	Source() string

	// EntryPoint returns the name of this shader's stage entry function,
	// such as "vs_main".
	//
	// Returns:
	//   - string: the entry point function name
	EntryPoint() string

	// ShaderType reports which pipeline stage this shader occupies.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// Module returns the shader module descriptor assembled at construction,
	// ready to hand to wgpu for compilation.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: descriptor holding the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// VertexLayout returns the vertex buffer layout parsed for one buffer
	// slot, or nil when the slot has none. Fragment shaders have no layouts.
	//
	// Parameters:
	//   - key: the buffer slot index
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layout for that slot, or nil
	VertexLayout(key int) []wgpu.VertexBufferLayout

	// VertexLayouts returns every parsed vertex buffer layout keyed by
	// buffer slot.
	//
	// Returns:
	//   - map[int][]wgpu.VertexBufferLayout: layouts keyed by slot index
	VertexLayouts() map[int][]wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptor returns the layout descriptor parsed for one
	// bind group, or a zero descriptor when the group is not declared. These
	// are CPU-side descriptions; the renderer turns them into live
	// wgpu.BindGroupLayout objects.
	//
	// Parameters:
	//   - bindingKey: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor for that group
	BindGroupLayoutDescriptor(bindingKey int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors returns every parsed bind group layout
	// descriptor keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the WGSL variable name declared at a group and
	// binding, or an empty string when nothing is declared there.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the declared variable name, or ""
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName looks up the binding index of a variable name
	// within a group.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the declared WGSL variable name to find
	//
	// Returns:
	//   - int: the binding index, or -1 when not found
	//   - bool: whether the variable name was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// BindGroupVarNames returns every declared variable name keyed by group
	// then binding index.
	//
	// Returns:
	//   - map[int]map[int]string: variable names by group and binding
	BindGroupVarNames() map[int]map[int]string

	// Declarations returns the annotations parsed from the source that name
	// bind groups and resource providers. The stage consumes these to wire
	// each bind group to the provider that owns its resources.
	//
	// Returns:
	//   - []Annotation: parsed group and provider declarations
	Declarations() []Annotation
}

// shader backs the Shader interface with everything parsed out of one WGSL
// source: the processed text, its module descriptor, and the reflection
// results consumed during pipeline and bind group creation.
type shader struct {
	key        string
	source     string
	shaderType ShaderType
	entryPoint string
	module     *wgpu.ShaderModuleDescriptor

	vertexLayouts map[int][]wgpu.VertexBufferLayout
	groupLayouts  map[int]wgpu.BindGroupLayoutDescriptor
	groupVarNames map[int]map[int]string

	pp PreProcessor
}

var _ Shader = &shader{}

// NewShader loads WGSL source from a file and builds a Shader from it. Panics
// when the file cannot be read, since a missing shader is a programming error
// nothing downstream can recover from.
//
// Parameters:
//   - key: unique identifier for caching and lookups
//   - shaderType: the pipeline stage the shader occupies
//   - sourcePath: path of the WGSL source file
//
// Returns:
//   - Shader: the parsed shader
func NewShader(key string, shaderType ShaderType, sourcePath string) Shader {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		panic(fmt.Sprintf("shader: failed to read source file %q: %v", sourcePath, err))
	}
	return NewShaderFromSource(key, shaderType, string(data))
}

// NewShaderFromSource builds a Shader from in-memory WGSL source. This is the
// constructor the embedded program set (see programs.go) and tests go through.
// Panics when pre-processing rejects the source.
//
// Parameters:
//   - key: unique identifier for caching and lookups
//   - shaderType: the pipeline stage the shader occupies
//   - source: raw WGSL source, possibly carrying @umbra: annotations
//
// Returns:
//   - Shader: the parsed shader
func NewShaderFromSource(key string, shaderType ShaderType, source string) Shader {
	s := &shader{
		key:        key,
		shaderType: shaderType,
		pp:         NewPreProcessor(),
	}
	s.build(source)
	return s
}

// build runs the pre-processor over the raw source, then extracts entry point,
// vertex layouts (vertex stage only), and bind group layouts from the result.
// Bindings annotated with a dynamic address space get their layout entries
// flagged afterwards, since the generated WGSL is indistinguishable from a
// plain uniform declaration.
func (s *shader) build(raw string) {
	processed, err := s.pp.Process(raw)
	if err != nil {
		panic(fmt.Sprintf("shader: failed to pre-process shader source %q: %v", s.key, err))
	}
	s.source = processed
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: processed,
		},
	}

	s.entryPoint = entryPointName(processed, s.shaderType)

	visibility := wgpu.ShaderStageNone
	switch s.shaderType {
	case ShaderTypeVertex:
		s.vertexLayouts = vertexBufferLayouts(processed)
		visibility = wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		visibility = wgpu.ShaderStageFragment
	}
	if s.vertexLayouts == nil {
		s.vertexLayouts = make(map[int][]wgpu.VertexBufferLayout)
	}

	s.groupLayouts, s.groupVarNames = bindGroupLayouts(processed, visibility)
	s.flagDynamicOffsets()
}

// flagDynamicOffsets sets HasDynamicOffset on every buffer entry whose group
// annotation used the storage_uniform_dynamic address space. Those bindings are
// indexed per draw with an offset into a larger arena buffer.
func (s *shader) flagDynamicOffsets() {
	for _, d := range s.pp.Declarations() {
		if d.Type != AnnotationTypeBindingGroup || d.Args[0] != annotationArgStorageTypeUniformDynamic {
			continue
		}
		desc, ok := s.groupLayouts[*d.Group]
		if !ok {
			continue
		}
		for i := range desc.Entries {
			if desc.Entries[i].Binding == uint32(*d.Binding) {
				desc.Entries[i].Buffer.HasDynamicOffset = true
			}
		}
	}
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) VertexLayout(key int) []wgpu.VertexBufferLayout {
	return s.vertexLayouts[key]
}

func (s *shader) VertexLayouts() map[int][]wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) BindGroupLayoutDescriptor(bindingKey int) wgpu.BindGroupLayoutDescriptor {
	return s.groupLayouts[bindingKey]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.groupLayouts
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.groupVarNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	for binding, name := range s.groupVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) BindGroupVarNames() map[int]map[int]string {
	return s.groupVarNames
}

func (s *shader) Declarations() []Annotation {
	return s.pp.Declarations()
}
