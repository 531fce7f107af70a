package glyph

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// GPUGlyphVertexSource is the canonical WGSL definition of the VertexInput struct for text pipelines.
// Matches GPUGlyphVertex layout exactly (36 bytes packed).
//
//go:embed assets/glyph_vertex.wgsl
var GPUGlyphVertexSource string

// GPUGlyphVertexSize is the packed vertex stride in bytes. The struct carries
// a trailing u32, so unsafe.Sizeof would report the padded Go size; the GPU
// stride is the packed one.
const GPUGlyphVertexSize = 36

// GPUGlyphVertex is the GPU-aligned representation of one text quad vertex.
// One vertex format serves both glyph addressing modes: array pipelines read
// GlyphID to select the texture layer, atlas pipelines ignore it because the
// UV was pre-mapped into the atlas page during layout.
// Matches the WGSL VertexInput struct layout exactly (see GPUGlyphVertexSource).
// Size: 36 bytes packed.
type GPUGlyphVertex struct {
	Position [2]float32 // offset  0: screen position (8 bytes)
	UV       [2]float32 // offset  8: texture coordinate (8 bytes)
	Color    [4]float32 // offset 16: RGBA tint (16 bytes)
	GlyphID  uint32     // offset 32: glyph id for array-mode layer selection (4 bytes)
}

// Size returns the packed size of the GPUGlyphVertex struct in bytes.
//
// Returns:
//   - int: the packed size of the struct in bytes.
func (g *GPUGlyphVertex) Size() int {
	return GPUGlyphVertexSize
}

// Marshal serializes the GPUGlyphVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 36-byte buffer ready for GPU upload.
func (g *GPUGlyphVertex) Marshal() []byte {
	buf := make([]byte, GPUGlyphVertexSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.UV[0]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.UV[1]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Color[3]))
	binary.LittleEndian.PutUint32(buf[32:36], g.GlyphID)
	return buf
}

// MarshalVertices serializes a vertex slice into one contiguous buffer for
// GPU upload.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: len(vertices) * 36 bytes
func MarshalVertices(vertices []GPUGlyphVertex) []byte {
	buf := make([]byte, 0, len(vertices)*GPUGlyphVertexSize)
	for i := range vertices {
		buf = append(buf, vertices[i].Marshal()...)
	}
	return buf
}
