// annotations.go holds the parsing half of the Umbra WGSL pre-processor: the
// annotation and argument vocabularies plus the line parser. An annotation is
// a single-line WGSL comment carrying the @umbra: marker, and is how a shader
// asks for struct injection, a generated binding declaration, or a resource
// provider registration. Parsed lines become Annotation values that the
// PreProcessor rewrites source with and the Stage later reads to wire GPU
// resources.
//
// ANNOTATIONS.md at the repository root documents the syntax with examples.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix marks an Umbra annotation inside a WGSL comment. The
// parser only considers lines whose leading "//" is followed by this marker.
const annotationPrefix = "@umbra:"

// AnnotationType is the first word of an annotation and selects which
// pre-processor action runs. The remaining words are interpreted per type,
// so each type populates a different subset of Annotation's fields.
type AnnotationType string

const (
	// annotationTypeInclude splices the WGSL source of a registered struct
	// into the shader where the annotation sits. The spliced text comes from
	// the .wgsl asset embedded next to the matching Go GPU type. Include
	// lines vanish during pre-processing and never reach the declarations
	// list.
	//
	// Syntax: //@umbra:include <struct_type>
	//
	// Example: //@umbra:include camera
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup emits a WGSL @group/@binding variable
	// declaration in place of the annotation and records it in the
	// PreProcessor's declarations list. Because the record keeps the group
	// index, binding index, and resolved struct type, the Stage can match
	// bindings to resource providers by meaning rather than by variable
	// name.
	//
	// Syntax: //@umbra:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@umbra:group 0 0 storage_uniform camera camera
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider records which resource provider owns a group
	// and binding while emitting nothing: the WGSL declaration stays
	// hand-written directly below the annotation. Texture and sampler
	// bindings use this form, since raw WGSL types have no registered
	// struct to generate from.
	//
	// A binding role may follow the provider identity to say what an
	// individual binding inside a multi-binding group is for, letting the
	// stage resolve binding indices from declarations instead of matching
	// variable names as strings.
	//
	// Syntax:
	//   //@umbra:provider <group> <binding> <provider_identity>
	//   //@umbra:provider <group> <binding> <provider_identity> <binding_role>
	//
	// Examples:
	//   //@umbra:provider 2 0 texture color_texture
	//   //@umbra:provider 0 1 glyph color_sampler
	AnnotationTypeProvider AnnotationType = "provider"
)

// Annotation is one parsed @umbra: line. Group and provider annotations are
// collected on the PreProcessor's declarations list and drive the Stage's
// resource wiring; include annotations are consumed during source rewriting
// and never surface there.
type Annotation struct {
	// Type selects the pre-processor action: include, group, or provider.
	Type AnnotationType

	// Args holds the arguments after any group/binding indices. Layout per
	// Type:
	//   - include:  [0] = struct type key (e.g. "camera")
	//   - group:    [0] = address space, [1] = var name, [2] = WGSL type key
	//   - provider: [0] = provider identity (e.g. "texture", "glyph"), [1] = binding role (optional, e.g. "color_texture")
	Args []AnnotationArg

	// Line is the 1-based source line the annotation came from, kept for
	// error messages.
	Line int

	// Group carries the @group index of group and provider annotations;
	// include annotations leave it nil.
	Group *int

	// Binding carries the @binding index of group and provider annotations;
	// include annotations leave it nil.
	Binding *int
}

// AnnotationArg is one whitespace-separated annotation argument. The
// vocabulary splits into struct type keys (include and group), address
// spaces (group), provider identities (provider), and binding roles
// (provider, optional).
type AnnotationArg string

// ── Registered struct keys ─────────────────────────────────────────────────────
// Each key names a WGSL struct with a Go GPU type behind it and an embedded
// .wgsl asset holding its source. Keys appear in @umbra:include annotations
// and as the type field of @umbra:group annotations, optionally wrapped in
// array<>.

const (
	// AnnotationArgCamera names the CameraBlock struct.
	// Source: stage/camera/assets/camera_block.wgsl
	AnnotationArgCamera AnnotationArg = "camera"

	// AnnotationArgVertex names the VertexInput struct for mesh geometry.
	// Source: stage/mesh/assets/vertex.wgsl
	AnnotationArgVertex AnnotationArg = "vertex"

	// AnnotationArgGlyphVertex names the VertexInput struct for text geometry.
	// Source: stage/glyph/assets/glyph_vertex.wgsl
	AnnotationArgGlyphVertex AnnotationArg = "glyph_vertex"

	// AnnotationArgNodeTransform names the NodeTransform struct selected per
	// draw through a dynamic offset.
	// Source: stage/node/assets/node_transform.wgsl
	AnnotationArgNodeTransform AnnotationArg = "node_transform"

	// AnnotationArgInstanceRecord names the InstanceRecord struct for
	// instanced draws.
	// Source: stage/instance/assets/instance_record.wgsl
	AnnotationArgInstanceRecord AnnotationArg = "instance_record"

	// AnnotationArgLightRecord names the LightRecord struct for the
	// per-frame light array.
	// Source: stage/light/assets/light_record.wgsl
	AnnotationArgLightRecord AnnotationArg = "light_record"

	// AnnotationArgMaterialParams names the MaterialParams struct for
	// per-draw material data.
	// Source: stage/renderer/material/assets/material_params.wgsl
	AnnotationArgMaterialParams AnnotationArg = "material_params"
)

// ── Address spaces ──────────────────────────────────────────────────────────────
// The third argument of an @umbra:group annotation, deciding the var<>
// form of the generated declaration.

const (
	// annotationArgStorageTypeUniform generates var<uniform>.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

	// annotationArgStorageTypeUniformDynamic generates var<uniform> and
	// flags the layout entry with HasDynamicOffset, so each draw indexes
	// the binding through a dynamic offset into a larger arena buffer.
	annotationArgStorageTypeUniformDynamic AnnotationArg = "storage_uniform_dynamic"

	// annotationArgStorageTypeRead generates var<storage, read>.
	annotationArgStorageTypeRead AnnotationArg = "storage_read"

	// annotationArgStorageTypeReadWrite generates var<storage, read_write>.
	annotationArgStorageTypeReadWrite AnnotationArg = "storage_read_write"
)

// ── Provider identities ─────────────────────────────────────────────────────────
// The third argument of an @umbra:provider annotation, naming the
// Stage-level resource provider that owns the group. Draw call setup
// matches on these to pick the right BindGroupProvider.

const (
	// AnnotationArgTexture names the surface texture provider: the color
	// texture and sampler mesh pipelines bind.
	AnnotationArgTexture AnnotationArg = "texture"

	// AnnotationArgGlyph names the glyph resource provider: the glyph pages
	// and sampler text pipelines bind.
	AnnotationArgGlyph AnnotationArg = "glyph"
)

// ── Binding roles ───────────────────────────────────────────────────────────────
// The optional fourth argument of an @umbra:provider annotation, saying
// what a single binding inside a provider group is for. With roles present
// the stage reads binding indices straight from declarations and never falls
// back to variable-name matching.

const (
	// AnnotationArgColorTexture marks a color texture binding.
	AnnotationArgColorTexture AnnotationArg = "color_texture"

	// AnnotationArgColorSampler marks the sampler paired with the color
	// texture.
	AnnotationArgColorSampler AnnotationArg = "color_sampler"
)

// validStructTypes is the accepted struct key vocabulary for @umbra:include
// and @umbra:group annotations. Every entry needs a matching registryEntry
// in the PreProcessor's structRegistry.
var validStructTypes = []AnnotationArg{
	AnnotationArgCamera,
	AnnotationArgVertex,
	AnnotationArgGlyphVertex,
	AnnotationArgNodeTransform,
	AnnotationArgInstanceRecord,
	AnnotationArgLightRecord,
	AnnotationArgMaterialParams,
}

// validAddressSpaces is the accepted address space vocabulary for
// @umbra:group annotations.
var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeUniformDynamic,
	annotationArgStorageTypeRead,
	annotationArgStorageTypeReadWrite,
}

// validProviderIdentities is the accepted provider vocabulary for
// @umbra:provider annotations.
var validProviderIdentities = []AnnotationArg{
	AnnotationArgTexture,
	AnnotationArgGlyph,
}

// validBindingRoles is the accepted binding role vocabulary for
// @umbra:provider annotations.
var validBindingRoles = []AnnotationArg{
	AnnotationArgColorTexture,
	AnnotationArgColorSampler,
}

// parseAnnotation reads one line of WGSL source as a potential @umbra:
// annotation. Lines without the marker come back as nil with no error;
// marked lines either parse into an Annotation or fail with an error saying
// what was malformed.
//
// Parameters:
//   - line: the raw WGSL source line
//   - lineNum: the 1-based line number, used in error messages
//
// Returns:
//   - *Annotation: the parsed annotation, or nil for a non-annotation line
//   - error: what was wrong with a malformed annotation
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	_, after, ok := strings.Cut(strings.TrimSpace(line), annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @umbra annotation", lineNum)
	}

	switch args[0] {
	case string(annotationTypeInclude):
		return parseIncludeAnnotation(args[1:], lineNum)
	case string(AnnotationTypeBindingGroup):
		return parseGroupAnnotation(args[1:], lineNum)
	case string(AnnotationTypeProvider):
		return parseProviderAnnotation(args[1:], lineNum)
	default:
		return nil, fmt.Errorf("line %d: unknown @umbra annotation type %q", lineNum, args[0])
	}
}

// parseIncludeAnnotation handles the arguments after the include keyword:
// one registered struct type key.
func parseIncludeAnnotation(args []string, lineNum int) (*Annotation, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("line %d: @umbra include annotation requires exactly one argument", lineNum)
	}
	if !slices.Contains(validStructTypes, AnnotationArg(args[0])) {
		return nil, fmt.Errorf("line %d: unknown struct type %q in @umbra include annotation", lineNum, args[0])
	}
	return &Annotation{
		Type: annotationTypeInclude,
		Args: []AnnotationArg{AnnotationArg(args[0])},
		Line: lineNum,
	}, nil
}

// parseGroupAnnotation handles the arguments after the group keyword: group
// index, binding index, address space, variable name, and struct type, in
// that order.
func parseGroupAnnotation(args []string, lineNum int) (*Annotation, error) {
	if len(args) != 5 {
		return nil, fmt.Errorf("line %d: @umbra group annotation requires exactly five arguments (group number, binding number, address space, var name, struct type)", lineNum)
	}
	group, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid group number %q in @umbra group annotation: %v", lineNum, args[0], err)
	}
	binding, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid binding number %q in @umbra group annotation: %v", lineNum, args[1], err)
	}
	if !slices.Contains(validAddressSpaces, AnnotationArg(args[2])) {
		return nil, fmt.Errorf("line %d: unknown address space %q in @umbra group annotation", lineNum, args[2])
	}
	if err := validateGroupType(args[4], lineNum); err != nil {
		return nil, err
	}
	return &Annotation{
		Type:    AnnotationTypeBindingGroup,
		Args:    []AnnotationArg{AnnotationArg(args[2]), AnnotationArg(args[3]), AnnotationArg(args[4])},
		Line:    lineNum,
		Group:   &group,
		Binding: &binding,
	}, nil
}

// parseProviderAnnotation handles the arguments after the provider keyword:
// group index, binding index, provider identity, and an optional binding
// role.
func parseProviderAnnotation(args []string, lineNum int) (*Annotation, error) {
	if len(args) < 3 || len(args) > 4 {
		return nil, fmt.Errorf("line %d: @umbra provider annotation requires three or four arguments (group, binding, provider identity[, binding role])", lineNum)
	}
	group, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid group number %q: %v", lineNum, args[0], err)
	}
	binding, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid binding number %q in @umbra provider annotation: %v", lineNum, args[1], err)
	}
	if !slices.Contains(validProviderIdentities, AnnotationArg(args[2])) {
		return nil, fmt.Errorf("line %d: unknown provider identity %q in @umbra provider annotation", lineNum, args[2])
	}
	annotationArgs := []AnnotationArg{AnnotationArg(args[2])}
	if len(args) == 4 {
		if !slices.Contains(validBindingRoles, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown binding role %q in @umbra provider annotation", lineNum, args[3])
		}
		annotationArgs = append(annotationArgs, AnnotationArg(args[3]))
	}
	return &Annotation{
		Type:    AnnotationTypeProvider,
		Args:    annotationArgs,
		Line:    lineNum,
		Group:   &group,
		Binding: &binding,
	}, nil
}

// validateGroupType checks the type argument of a group annotation. Accepted
// forms: a bare registered struct key, a runtime-sized array "array<type>",
// and a fixed-size array "array<type,count>". Spaces inside the array forms
// would split them into separate arguments, so none are allowed.
//
// Parameters:
//   - typeArg: the raw type argument text
//   - lineNum: the 1-based line number, used in error messages
//
// Returns:
//   - error: what was wrong with a malformed type argument
func validateGroupType(typeArg string, lineNum int) error {
	inner, ok := strings.CutPrefix(typeArg, "array<")
	if !ok {
		if !slices.Contains(validStructTypes, AnnotationArg(typeArg)) {
			return fmt.Errorf("line %d: unknown struct type %q in @umbra group annotation", lineNum, typeArg)
		}
		return nil
	}
	inner = strings.TrimSuffix(inner, ">")
	elem, count, hasCount := strings.Cut(inner, ",")
	if !slices.Contains(validStructTypes, AnnotationArg(elem)) {
		return fmt.Errorf("line %d: unknown array element type %q in @umbra group annotation", lineNum, elem)
	}
	if hasCount {
		if _, err := strconv.ParseUint(count, 10, 32); err != nil {
			return fmt.Errorf("line %d: invalid array count %q in @umbra group annotation: %v", lineNum, count, err)
		}
	}
	return nil
}
