// wgsl_reflect.go extracts pipeline metadata from WGSL source: entry point names,
// vertex buffer layouts, and bind group layout descriptors. The extraction is
// regex-driven over comment-stripped source, which is enough for the well-formed
// shaders this engine generates and embeds. Memory layout rules live in wgsl_layout.go.
package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslField is one field of a WGSL struct. location is -1 when the field
// carries no @location attribute.
type wgslField struct {
	name     string
	typ      string
	location int
	builtin  bool
}

// wgslStruct is a struct declaration scanned from WGSL source.
type wgslStruct struct {
	name   string
	fields []wgslField
}

// resourceDecl is a single @group/@binding var declaration scanned from WGSL
// source. space holds the address space qualifier ("uniform", "storage, read")
// and is empty for handle types such as textures and samplers.
type resourceDecl struct {
	group   int
	binding int
	space   string
	name    string
	typ     string
}

var (
	// structRe captures the name and body of a struct declaration.
	structRe = regexp.MustCompile(`\bstruct\s+(\w+)\s*\{([^}]*)\}`)

	// attrRe captures any @name(args) attribute on a struct field.
	attrRe = regexp.MustCompile(`@(\w+)\(([^)]*)\)`)

	// resourceRe captures group index, binding index, optional address space,
	// variable name, and type from a resource declaration such as
	// @group(0) @binding(0) var<uniform> camera: CameraBlock; or
	// @group(0) @binding(2) var page_sampler: sampler;
	resourceRe = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]+)>)?\s+(\w+)\s*:\s*([^;]+);`)

	// entryPointPatterns captures the function name following each stage attribute.
	entryPointPatterns = map[ShaderType]*regexp.Regexp{
		ShaderTypeVertex:   regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`),
		ShaderTypeFragment: regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`),
	}
)

// entryPointName extracts the entry point function name for the given stage
// from WGSL source. Returns an empty string when the source declares no
// function for that stage.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - shaderType: the stage whose entry point to find
//
// Returns:
//   - string: the entry point function name, or empty string if not found
func entryPointName(source string, shaderType ShaderType) string {
	re, ok := entryPointPatterns[shaderType]
	if !ok {
		return ""
	}
	if m := re.FindStringSubmatch(stripWGSLComments(source)); m != nil {
		return m[1]
	}
	return ""
}

// vertexBufferLayouts extracts vertex buffer layouts from WGSL source. A struct
// qualifies as a vertex input when every field carries an @location attribute
// and none is a builtin; each qualifying struct becomes one buffer layout with
// sequentially packed attributes. Structs using types with no vertex format
// equivalent are skipped, as are fragment-only sources, which yield an empty map.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - map[int][]wgpu.VertexBufferLayout: vertex layouts keyed by buffer slot in
//     order of declaration
func vertexBufferLayouts(source string) map[int][]wgpu.VertexBufferLayout {
	layouts := make(map[int][]wgpu.VertexBufferLayout)
	slot := 0
	for _, st := range scanStructs(stripWGSLComments(source)) {
		if !isVertexInput(st) {
			continue
		}
		layout, ok := vertexLayoutFor(st)
		if !ok {
			continue
		}
		layouts[slot] = []wgpu.VertexBufferLayout{layout}
		slot++
	}
	return layouts
}

// bindGroupLayouts extracts every @group/@binding resource declaration from
// WGSL source and assembles per-group wgpu.BindGroupLayoutDescriptor values,
// entries sorted by binding index. Buffer bindings get MinBindingSize computed
// from the bound type's WGSL memory layout so the renderer can allocate
// correctly sized buffers without further shader knowledge. The visibility flag
// is stamped onto every entry.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - visibility: the shader stage visibility flag to set on each entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
//   - map[int]map[int]string: declared variable names keyed by group then binding index
func bindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	cleaned := stripWGSLComments(source)
	sizes := structSizes(scanStructs(cleaned))

	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)
	for _, decl := range scanResources(cleaned) {
		entries[decl.group] = append(entries[decl.group], layoutEntry(decl, visibility, sizes))
		if names[decl.group] == nil {
			names[decl.group] = make(map[int]string)
		}
		names[decl.group][decl.binding] = decl.name
	}

	descriptors := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for group, groupEntries := range entries {
		sort.Slice(groupEntries, func(i, j int) bool {
			return groupEntries[i].Binding < groupEntries[j].Binding
		})
		descriptors[group] = wgpu.BindGroupLayoutDescriptor{Entries: groupEntries}
	}
	return descriptors, names
}

// scanStructs returns every struct declared in comment-stripped WGSL source,
// in order of declaration.
func scanStructs(cleaned string) []wgslStruct {
	matches := structRe.FindAllStringSubmatch(cleaned, -1)
	structs := make([]wgslStruct, 0, len(matches))
	for _, m := range matches {
		structs = append(structs, wgslStruct{name: m[1], fields: scanFields(m[2])})
	}
	return structs
}

// scanFields parses a struct body into fields. Fields are separated by commas
// at angle-bracket depth zero, so parameterized types like array<LightRecord, 6>
// survive intact. Attributes are collected first, then stripped, leaving a bare
// name: type pair.
func scanFields(body string) []wgslField {
	chunks := splitTopLevel(body, ',')
	fields := make([]wgslField, 0, len(chunks))
	for _, chunk := range chunks {
		field := wgslField{location: -1}
		for _, attr := range attrRe.FindAllStringSubmatch(chunk, -1) {
			switch attr[1] {
			case "location":
				if loc, err := strconv.Atoi(attr[2]); err == nil {
					field.location = loc
				}
			case "builtin":
				field.builtin = true
			}
		}
		name, typ, ok := strings.Cut(attrRe.ReplaceAllString(chunk, ""), ":")
		if !ok {
			continue
		}
		field.name = strings.TrimSpace(name)
		field.typ = strings.TrimSpace(typ)
		if field.name == "" || field.typ == "" {
			continue
		}
		fields = append(fields, field)
	}
	return fields
}

// scanResources returns every @group/@binding var declaration in
// comment-stripped WGSL source, in order of declaration.
func scanResources(cleaned string) []resourceDecl {
	matches := resourceRe.FindAllStringSubmatch(cleaned, -1)
	decls := make([]resourceDecl, 0, len(matches))
	for _, m := range matches {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		decls = append(decls, resourceDecl{
			group:   group,
			binding: binding,
			space:   strings.TrimSpace(m[3]),
			name:    strings.TrimSpace(m[4]),
			typ:     strings.TrimSpace(m[5]),
		})
	}
	return decls
}

// isVertexInput reports whether a struct is a pure vertex input: at least one
// field, every field located, no builtins. Vertex output structs always mix
// @location fields with @builtin(position), so they never qualify.
func isVertexInput(st wgslStruct) bool {
	if len(st.fields) == 0 {
		return false
	}
	for _, f := range st.fields {
		if f.builtin || f.location < 0 {
			return false
		}
	}
	return true
}

// vertexLayoutFor converts a vertex input struct into a wgpu.VertexBufferLayout,
// assigning sequential byte offsets in field order and taking the shader location
// from each field's @location attribute.
//
// Parameters:
//   - st: the vertex input struct to convert
//
// Returns:
//   - wgpu.VertexBufferLayout: the assembled layout
//   - bool: false when a field type has no vertex format equivalent
func vertexLayoutFor(st wgslStruct) (wgpu.VertexBufferLayout, bool) {
	attrs := make([]wgpu.VertexAttribute, 0, len(st.fields))
	var offset uint64
	for _, f := range st.fields {
		vf, ok := vertexFormats[f.typ]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         vf.format,
			Offset:         offset,
			ShaderLocation: uint32(f.location),
		})
		offset += vf.width
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}

// stripWGSLComments removes // line comments and /* */ block comments from WGSL
// source in a single pass. Block comments nest per the WGSL specification; a //
// inside a block comment and a /* inside a line comment are both inert. Newlines
// are preserved even inside comments so line-oriented consumers keep their
// positions.
func stripWGSLComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))

	const (
		code = iota
		lineComment
		blockComment
	)
	state := code
	depth := 0

	for i := 0; i < len(source); i++ {
		c := source[i]
		if c == '\n' {
			sb.WriteByte('\n')
			if state == lineComment {
				state = code
			}
			continue
		}
		switch state {
		case code:
			if c == '/' && i+1 < len(source) {
				switch source[i+1] {
				case '/':
					state = lineComment
					i++
					continue
				case '*':
					state = blockComment
					depth = 1
					i++
					continue
				}
			}
			sb.WriteByte(c)
		case blockComment:
			if i+1 < len(source) {
				if c == '/' && source[i+1] == '*' {
					depth++
					i++
					continue
				}
				if c == '*' && source[i+1] == '/' {
					depth--
					i++
					if depth == 0 {
						state = code
					}
					continue
				}
			}
		}
	}
	return sb.String()
}

// splitTopLevel splits s at occurrences of sep that sit at angle-bracket depth
// zero. WGSL has no other nesting inside struct bodies, so tracking < and > is
// sufficient.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
