package glyph

import (
	"bytes"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// GoTextShaper shapes text through go-text/typesetting's HarfBuzz port,
// adding kerning and contextual positioning on top of the default rune
// walker. Positions come from the shaping engine; the rendered bitmaps stay
// the resource's per-rune glyphs, so substitutions such as ligatures fall
// back to the first rune of their cluster.
//
// GoTextShaper is safe for concurrent use. Parsed font.Font values are
// read-only and cached per source; font.Face and shaping.HarfbuzzShaper are
// not concurrent-safe, so each Shape call gets a fresh face and a pooled
// shaper.
type GoTextShaper struct {
	mu    *sync.Mutex
	fonts map[*FontSource]*font.Font
	pool  sync.Pool
}

var _ Shaper = &GoTextShaper{}

// NewGoTextShaper creates a GoTextShaper with an empty font cache.
//
// Returns:
//   - *GoTextShaper: the shaper
func NewGoTextShaper() *GoTextShaper {
	return &GoTextShaper{
		mu:    &sync.Mutex{},
		fonts: make(map[*FontSource]*font.Font),
		pool: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
	}
}

// Shape shapes a line left-to-right and maps the output back onto the
// resource's glyph ids through each glyph's cluster rune. Cluster runes the
// resource does not carry are dropped, matching the default shaper.
//
// Parameters:
//   - line: the text to shape, without newlines
//   - f: the font whose glyph ids the output references
//
// Returns:
//   - []ShapedGlyph: the positioned glyphs in visual order
//   - error: a font parsing error
func (s *GoTextShaper) Shape(line string, f Font) ([]ShapedGlyph, error) {
	if line == "" {
		return nil, nil
	}
	fnt, err := s.parsedFont(f.Source())
	if err != nil {
		return nil, err
	}

	runes := []rune(line)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(fnt),
		Size:      fixed.Int26_6(f.Size() * 64),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.pool.Put(hb)

	shaped := make([]ShapedGlyph, 0, len(output.Glyphs))
	for _, g := range output.Glyphs {
		cluster := g.TextIndex()
		if cluster < 0 || cluster >= len(runes) {
			continue
		}
		id, ok := f.GlyphID(runes[cluster])
		if !ok {
			continue
		}
		shaped = append(shaped, ShapedGlyph{
			ID:      id,
			XOffset: float32(g.XOffset) / 64,
			YOffset: float32(g.YOffset) / 64,
			Advance: float32(g.Advance) / 64,
		})
	}
	return shaped, nil
}

// parsedFont returns the cached thread-safe font.Font for a source, parsing
// it on first use.
func (s *GoTextShaper) parsedFont(src *FontSource) (*font.Font, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.fonts[src]; ok {
		return f, nil
	}
	face, err := font.ParseTTF(bytes.NewReader(src.Data()))
	if err != nil {
		return nil, err
	}
	s.fonts[src] = face.Font
	return face.Font, nil
}

// detectScript returns the script of the first non-space rune, defaulting to
// Latin. Mixed-script text should be split into runs before shaping.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
