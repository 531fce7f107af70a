package resolve

import (
	"github.com/umbra-gfx/umbra-go/stage/glyph"
)

// AlphaCutoff is the fixed binarization threshold for anti-aliased glyph
// edges. A fragment whose tinted alpha is at or below the cutoff is
// discarded; the boundary is half-open, so exactly 0.3 discards.
const AlphaCutoff float32 = 0.3

// GlyphIndexer shades text fragments against a glyph resource: it samples,
// tints and decides discard. Discard is the designed output suppression of
// glyph edges, frequent and side-effect-free, not an error. Ids are not
// range-checked here; runs pass glyph.ValidateRun before submission.
type GlyphIndexer interface {
	// Shade resolves a fragment's glyph sample and applies the alpha cutoff.
	//
	// Parameters:
	//   - id: the glyph id carried by the vertex stream
	//   - uv: the interpolated texture coordinate
	//   - tint: the interpolated vertex color
	//
	// Returns:
	//   - [4]float32: tint * sample, componentwise
	//   - bool: true when the fragment is kept, false when discarded
	Shade(id uint32, uv [2]float32, tint [4]float32) ([4]float32, bool)
}

type glyphIndexer struct {
	res glyph.Resource
}

var _ GlyphIndexer = &glyphIndexer{}

// NewGlyphIndexer wraps a glyph resource. The resource's addressing mode was
// chosen when the resource was built; the indexer never branches on it.
//
// Parameters:
//   - res: the glyph resource to sample
//
// Returns:
//   - GlyphIndexer: the indexer
func NewGlyphIndexer(res glyph.Resource) GlyphIndexer {
	return &glyphIndexer{res: res}
}

func (g *glyphIndexer) Shade(id uint32, uv [2]float32, tint [4]float32) ([4]float32, bool) {
	s := g.res.Sample(g.res.Locate(id, uv))
	color := [4]float32{
		tint[0] * s[0],
		tint[1] * s[1],
		tint[2] * s[2],
		tint[3] * s[3],
	}
	return color, color[3] > AlphaCutoff
}
