// pre_processor.go is the rewriting half of the Umbra WGSL pre-processor.
// It walks shader source line by line, hands candidate lines to the
// annotation parser, and splices in generated declarations or embedded
// struct sources where annotations stood. Along the way it collects the
// group and provider declarations the Stage needs to bind resources
// semantically rather than by string lookup.
//
// Two registries back the expansion: structRegistry resolves struct keys to
// their embedded WGSL source and type name (feeding both @umbra:include and
// the type field of @umbra:group), and addressSpaceRegistry resolves address
// space keys to WGSL var<> syntax.
//
// ANNOTATIONS.md at the repository root documents the annotation syntax.
package shader

import (
	"fmt"
	"strings"

	"github.com/umbra-gfx/umbra-go/stage/camera"
	"github.com/umbra-gfx/umbra-go/stage/glyph"
	"github.com/umbra-gfx/umbra-go/stage/instance"
	"github.com/umbra-gfx/umbra-go/stage/light"
	"github.com/umbra-gfx/umbra-go/stage/mesh"
	"github.com/umbra-gfx/umbra-go/stage/node"
	"github.com/umbra-gfx/umbra-go/stage/renderer/material"
)

// registryEntry is what a struct key resolves to: the embedded WGSL source
// of the struct and the type name written into generated declarations.
type registryEntry struct {
	// Source is the struct definition text @umbra:include splices in.
	Source string

	// Type is the name @umbra:group declarations reference (e.g.
	// "CameraBlock", "LightRecord").
	Type string
}

// preProcessor backs PreProcessor with the two expansion registries and the
// declaration accumulator.
type preProcessor struct {
	// structRegistry resolves struct keys to embedded source and type name.
	structRegistry map[AnnotationArg]registryEntry

	// addressSpaceRegistry resolves address space keys to var<> syntax.
	addressSpaceRegistry map[AnnotationArg]string

	// declarations gathers group and provider annotations while Process
	// runs, starting empty on each call.
	declarations []Annotation
}

// PreProcessor expands @umbra: annotations in raw WGSL source into generated
// declarations and injected struct sources, collecting the group and provider
// declarations the Stage later uses to wire resources.
type PreProcessor interface {
	// Process expands every @umbra: annotation in the source. Include
	// annotations become embedded struct definitions, group annotations become
	// generated @group/@binding declarations, and provider annotations vanish
	// from the text while still being recorded. The declarations list is reset
	// on every call; read it through Declarations afterwards.
	//
	// Parameters:
	//   - source: raw WGSL source carrying annotations
	//
	// Returns:
	//   - string: the WGSL source with all annotations expanded
	//   - error: an error when an annotation is malformed or names an unknown type
	Process(source string) (string, error)

	// Declarations returns the group and provider annotations collected by the
	// most recent Process call, in source order. Nil before the first call.
	//
	// Returns:
	//   - []Annotation: the collected declarations
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a pre-processor with both registries fully
// populated: every struct key the annotation vocabulary accepts resolves to
// the embedded source and type name of its GPU type package.
//
// Returns:
//   - PreProcessor: the ready pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgCamera:         {Source: camera.GPUCameraBlockSource, Type: "CameraBlock"},
			AnnotationArgVertex:         {Source: mesh.GPUVertexSource, Type: "VertexInput"},
			AnnotationArgGlyphVertex:    {Source: glyph.GPUGlyphVertexSource, Type: "VertexInput"},
			AnnotationArgNodeTransform:  {Source: node.GPUNodeTransformSource, Type: "NodeTransform"},
			AnnotationArgInstanceRecord: {Source: instance.GPUInstanceRecordSource, Type: "InstanceRecord"},
			AnnotationArgLightRecord:    {Source: light.GPULightRecordSource, Type: "LightRecord"},
			AnnotationArgMaterialParams: {Source: material.GPUMaterialParamsSource, Type: "MaterialParams"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform:        "var<uniform>",
			annotationArgStorageTypeUniformDynamic: "var<uniform>",
			annotationArgStorageTypeRead:           "var<storage, read>",
			annotationArgStorageTypeReadWrite:      "var<storage, read_write>",
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}
		text, keep, err := p.expand(a)
		if err != nil {
			return "", err
		}
		if keep {
			out = append(out, text)
		}
	}
	return strings.Join(out, "\n"), nil
}

// expand produces the WGSL text that replaces one annotation line. Include
// annotations inject the registered struct source; group annotations emit a
// generated @group/@binding declaration; provider annotations emit nothing and
// their line disappears from the output. Group and provider annotations are
// recorded in the declarations list as a side effect.
//
// Parameters:
//   - a: the parsed annotation to expand
//
// Returns:
//   - string: the replacement WGSL text
//   - bool: whether the replacement occupies an output line at all
//   - error: an error for include arguments missing from the registry
func (p *preProcessor) expand(a *Annotation) (string, bool, error) {
	switch a.Type {
	case annotationTypeInclude:
		entry, ok := p.structRegistry[a.Args[0]]
		if !ok {
			return "", false, fmt.Errorf("line %d: unknown @umbra:include argument %q", a.Line, a.Args[0])
		}
		return entry.Source, true, nil
	case AnnotationTypeBindingGroup:
		p.declarations = append(p.declarations, *a)
		decl := fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;",
			*a.Group, *a.Binding, p.addressSpaceRegistry[a.Args[0]], a.Args[1], p.resolveGroupType(string(a.Args[2])))
		return decl, true, nil
	case AnnotationTypeProvider:
		p.declarations = append(p.declarations, *a)
		return "", false, nil
	default:
		return "", false, fmt.Errorf("line %d: unknown annotation type %q", a.Line, a.Type)
	}
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

// resolveGroupType maps a group annotation type argument to the WGSL type emitted in the
// generated declaration. Bare struct keys resolve through the registry; "array<type>" and
// "array<type,count>" resolve the element through the registry and keep the array form.
//
// Parameters:
//   - typeArg: the validated type argument from the annotation
//
// Returns:
//   - string: the WGSL type name for the generated declaration
func (p *preProcessor) resolveGroupType(typeArg string) string {
	inner, ok := strings.CutPrefix(typeArg, "array<")
	if !ok {
		return p.structRegistry[AnnotationArg(typeArg)].Type
	}
	inner = strings.TrimSuffix(inner, ">")
	elem, count, hasCount := strings.Cut(inner, ",")
	entry := p.structRegistry[AnnotationArg(elem)]
	if hasCount {
		return fmt.Sprintf("array<%s, %s>", entry.Type, count)
	}
	return fmt.Sprintf("array<%s>", entry.Type)
}
