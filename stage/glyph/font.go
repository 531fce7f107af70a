package glyph

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// FontSource wraps a parsed TTF/OTF font together with its raw bytes. The
// raw bytes stay available so the HarfBuzz shaping path can parse the same
// data with its own font stack.
type FontSource struct {
	data []byte
	fnt  *opentype.Font
}

// NewFontSource parses TTF/OTF font data.
//
// Parameters:
//   - ttf: the raw font file bytes
//
// Returns:
//   - *FontSource: the parsed source
//   - error: when the data is not a valid font
func NewFontSource(ttf []byte) (*FontSource, error) {
	fnt, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font data: %w", err)
	}
	return &FontSource{data: ttf, fnt: fnt}, nil
}

// Data returns the raw font bytes the source was parsed from.
//
// Returns:
//   - []byte: the font file bytes
func (s *FontSource) Data() []byte {
	return s.data
}

// NewFace creates a rasterization face at the given pixel size. font.Face is
// not safe for concurrent use; create one face per goroutine.
//
// Parameters:
//   - size: the font size in pixels
//
// Returns:
//   - font.Face: the face
//   - error: when face creation fails
func (s *FontSource) NewFace(size float32) (font.Face, error) {
	face, err := opentype.NewFace(s.fnt, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face at size %g: %w", size, err)
	}
	return face, nil
}

// DefaultRunes returns the printable ASCII range including space, the
// default build set for glyph resources.
//
// Returns:
//   - []rune: runes 32 through 126
func DefaultRunes() []rune {
	runes := make([]rune, 0, 95)
	for r := rune(32); r <= 126; r++ {
		runes = append(runes, r)
	}
	return runes
}
