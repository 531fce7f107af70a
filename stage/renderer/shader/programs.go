// programs.go embeds the built-in WGSL program set. Each source still contains
// its @umbra: annotations and is meant to be handed to NewShaderFromSource,
// which pre-processes it and parses the resulting layouts. The programs pair up
// into the stage's stock pipelines:
//
//   - NodeVertexSource + NodeFragmentSource: single meshes, unlit
//   - LitVertexSource + LitFragmentSource: single meshes with the light array
//   - InstancedVertexSource + InstancedFragmentSource: instanced meshes with a layer-selecting texture array
//   - TextVertexSource + TextAtlasFragmentSource or TextArrayFragmentSource: text runs, one fragment variant per glyph addressing mode
package shader

import _ "embed"

//go:embed programs/node_vert.wgsl
var NodeVertexSource string

//go:embed programs/node_frag.wgsl
var NodeFragmentSource string

//go:embed programs/instanced_vert.wgsl
var InstancedVertexSource string

//go:embed programs/instanced_frag.wgsl
var InstancedFragmentSource string

//go:embed programs/lit_vert.wgsl
var LitVertexSource string

//go:embed programs/lit_frag.wgsl
var LitFragmentSource string

//go:embed programs/text_vert.wgsl
var TextVertexSource string

//go:embed programs/text_atlas_frag.wgsl
var TextAtlasFragmentSource string

//go:embed programs/text_array_frag.wgsl
var TextArrayFragmentSource string
