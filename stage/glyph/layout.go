package glyph

import (
	"strings"
)

// Run is the output of laying out a string: a triangle list in pixel space
// plus the distinct glyph ids it references, ready for ValidateRun.
type Run struct {
	Vertices []GPUGlyphVertex
	IDs      []uint32
}

// ShapedGlyph is one positioned glyph produced by a Shaper. Offsets displace
// the glyph from the pen in font space, with positive y pointing up; the
// advance moves the pen after the glyph.
type ShapedGlyph struct {
	ID      uint32
	XOffset float32
	YOffset float32
	Advance float32
}

// Shaper turns a single line of text into positioned glyphs. Lines never
// contain newlines; Layout splits those before shaping.
type Shaper interface {
	// Shape maps the line to glyph ids of the font with per-glyph placement.
	//
	// Parameters:
	//   - line: the text to shape, without newlines
	//   - f: the font whose glyph ids the output references
	//
	// Returns:
	//   - []ShapedGlyph: the positioned glyphs in visual order
	//   - error: a shaping error
	Shape(line string, f Font) ([]ShapedGlyph, error)
}

// builtinShaper is the default one-rune-one-glyph shaper. It walks the line
// rune by rune, drops runes the font does not carry, and advances by each
// glyph's own advance. No kerning, no ligatures, no bidi.
type builtinShaper struct{}

var _ Shaper = builtinShaper{}

func (builtinShaper) Shape(line string, f Font) ([]ShapedGlyph, error) {
	shaped := make([]ShapedGlyph, 0, len(line))
	for _, r := range line {
		id, ok := f.GlyphID(r)
		if !ok {
			continue
		}
		shaped = append(shaped, ShapedGlyph{ID: id, Advance: f.Metrics(id).Advance})
	}
	return shaped, nil
}

type layoutConfig struct {
	shaper Shaper
}

// LayoutOption defines a function that configures a layout call.
type LayoutOption func(*layoutConfig)

// WithShaper replaces the default rune-walking shaper, for callers that want
// kerning and complex script support from a real shaping engine.
//
// Parameters:
//   - s: the shaper to use
//
// Returns:
//   - LayoutOption: the option function
func WithShaper(s Shaper) LayoutOption {
	return func(c *layoutConfig) {
		c.shaper = s
	}
}

// Layout shapes and places a string as textured quads in pixel space. The
// origin sits on the baseline of the first line with y growing downward, the
// way window coordinates do; ToClipSpace converts the result for submission.
// Newlines advance the pen by the font's line height. Zero-coverage glyphs
// such as spaces advance the pen without emitting geometry.
//
// Parameters:
//   - text: the text to lay out, newlines included
//   - f: the font resource to place against
//   - originX, originY: the baseline origin of the first line in pixels
//   - tint: the per-vertex color multiplied against sampled coverage
//   - options: optional LayoutOption configuration
//
// Returns:
//   - Run: the placed vertices and the referenced glyph ids
//   - error: a shaping error
func Layout(text string, f Font, originX, originY float32, tint [4]float32, options ...LayoutOption) (Run, error) {
	cfg := layoutConfig{shaper: builtinShaper{}}
	for _, opt := range options {
		opt(&cfg)
	}

	var run Run
	penY := originY
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			penY += f.LineHeight()
		}
		shaped, err := cfg.shaper.Shape(line, f)
		if err != nil {
			return Run{}, err
		}
		penX := originX
		for _, g := range shaped {
			met := f.Metrics(g.ID)
			if met.Width > 0 && met.Height > 0 {
				appendQuad(&run, g, met, f.QuadUV(g.ID), penX, penY, tint)
			}
			penX += g.Advance
		}
	}
	return run, nil
}

// appendQuad emits the two triangles of one glyph quad. The quad's top-left
// corner sits at the pen displaced by the shaper offsets and the glyph
// bearings; shaper offsets use font-space y-up, so YOffset subtracts.
func appendQuad(run *Run, g ShapedGlyph, met Metrics, q [4]float32, penX, penY float32, tint [4]float32) {
	left := penX + g.XOffset + met.BearingX
	top := penY - g.YOffset - met.BearingY
	right := left + met.Width
	bottom := top + met.Height

	tl := GPUGlyphVertex{Position: [2]float32{left, top}, UV: [2]float32{q[0], q[1]}, Color: tint, GlyphID: g.ID}
	tr := GPUGlyphVertex{Position: [2]float32{right, top}, UV: [2]float32{q[2], q[1]}, Color: tint, GlyphID: g.ID}
	br := GPUGlyphVertex{Position: [2]float32{right, bottom}, UV: [2]float32{q[2], q[3]}, Color: tint, GlyphID: g.ID}
	bl := GPUGlyphVertex{Position: [2]float32{left, bottom}, UV: [2]float32{q[0], q[3]}, Color: tint, GlyphID: g.ID}

	run.Vertices = append(run.Vertices, tl, tr, br, tl, br, bl)
	run.IDs = append(run.IDs, g.ID)
}

// ToClipSpace converts laid-out vertices from pixel space to clip space in
// place. x maps [0,width] onto [-1,1] and y flips, so pixel y-down becomes
// clip y-up.
//
// Parameters:
//   - vertices: the vertices to convert
//   - width, height: the target surface size in pixels
func ToClipSpace(vertices []GPUGlyphVertex, width, height float32) {
	for i := range vertices {
		vertices[i].Position[0] = 2*vertices[i].Position[0]/width - 1
		vertices[i].Position[1] = 1 - 2*vertices[i].Position[1]/height
	}
}
