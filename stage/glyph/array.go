package glyph

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/umbra-gfx/umbra-go/common"
)

// arraySet stores one glyph per layer of a fixed-capacity R8 texture array.
// The layer count is a constant of the resource: pipelines built against it
// bake the count into their bind group layout, so the set always carries
// exactly capacity layers even when fewer glyphs are built.
type arraySet struct {
	src          *FontSource
	size         float32
	layers       []*image.Alpha
	cellW, cellH int
	ids          map[rune]uint32
	metrics      []Metrics
	lineHeight   float32
	ascent       float32
}

var _ Font = &arraySet{}

// BuildArray rasterizes the rune set at the given pixel size and assigns each
// renderable glyph its own layer of uniform cell dimensions. Runes the font
// cannot render are dropped from the set. An empty rune slice falls back to
// DefaultRunes.
//
// Parameters:
//   - src: the parsed font source
//   - size: the rasterization size in pixels
//   - runes: the runes to include
//   - options: optional BuildOption configuration
//
// Returns:
//   - Font: the layered array resource
//   - error: ErrResourceFull when the renderable glyphs exceed the layer capacity, or a rasterization error
func BuildArray(src *FontSource, size float32, runes []rune, options ...BuildOption) (Font, error) {
	cfg := defaultBuildConfig()
	for _, opt := range options {
		opt(&cfg)
	}
	if len(runes) == 0 {
		runes = DefaultRunes()
	}
	runes = dedupeRunes(runes)

	face, err := src.NewFace(size)
	if err != nil {
		return nil, err
	}
	lineHeight, ascent := faceMetrics(face)

	glyphs, err := rasterizeRunes(src, size, runes, cfg.workers)
	if err != nil {
		return nil, err
	}

	s := &arraySet{
		src:        src,
		size:       size,
		ids:        make(map[rune]uint32, len(glyphs)),
		lineHeight: lineHeight,
		ascent:     ascent,
	}
	var masks []*image.Alpha
	for _, g := range glyphs {
		if !g.ok {
			continue
		}
		s.ids[g.r] = uint32(len(masks))
		s.metrics = append(s.metrics, g.met)
		masks = append(masks, g.mask)
	}
	if len(masks) > cfg.textureCount {
		return nil, fmt.Errorf("%d glyphs with %d layers: %w", len(masks), cfg.textureCount, ErrResourceFull)
	}

	s.cellW, s.cellH = cfg.cellW, cfg.cellH
	if s.cellW <= 0 || s.cellH <= 0 {
		for _, m := range masks {
			if m == nil {
				continue
			}
			s.cellW = max(s.cellW, m.Rect.Dx())
			s.cellH = max(s.cellH, m.Rect.Dy())
		}
		s.cellW = max(s.cellW, 1)
		s.cellH = max(s.cellH, 1)
	}

	s.layers = make([]*image.Alpha, cfg.textureCount)
	for i, m := range masks {
		if m == nil {
			continue
		}
		layer := image.NewAlpha(image.Rect(0, 0, s.cellW, s.cellH))
		w := min(m.Rect.Dx(), s.cellW)
		h := min(m.Rect.Dy(), s.cellH)
		draw.Draw(layer, image.Rect(0, 0, w, h), m, image.Point{}, draw.Src)
		s.layers[i] = layer
	}
	return s, nil
}

// Mode reports the addressing mode of the set.
//
// Returns:
//   - Mode: always ModeTextureArray
func (s *arraySet) Mode() Mode {
	return ModeTextureArray
}

// Locate forwards the vertex uv unchanged and carries the id as the layer
// coordinate. No range check happens here: an id past the layer capacity
// flows straight through, which is why runs must pass ValidateRun before
// submission.
//
// Parameters:
//   - id: the glyph id
//   - uv: the interpolated vertex uv
//
// Returns:
//   - SampleCoord: the uv with layer float32(id)
func (s *arraySet) Locate(id uint32, uv [2]float32) SampleCoord {
	return SampleCoord{UV: uv, Layer: float32(id)}
}

// Sample reads the layer texel under the coordinate with clamp-to-edge
// addressing and expands the R8 coverage value to (1, 1, 1, a). Layers with
// no glyph read as fully transparent. The layer must be within TextureCount;
// out-of-range runs are rejected by ValidateRun before anything samples.
//
// Parameters:
//   - c: the sample coordinate
//
// Returns:
//   - [4]float32: the sampled color
func (s *arraySet) Sample(c SampleCoord) [4]float32 {
	layer := s.layers[int(c.Layer)]
	if layer == nil {
		return [4]float32{1, 1, 1, 0}
	}
	x := clampInt(int(c.UV[0]*float32(s.cellW)), 0, s.cellW-1)
	y := clampInt(int(c.UV[1]*float32(s.cellH)), 0, s.cellH-1)
	alpha := float32(layer.Pix[y*layer.Stride+x]) / 255
	return [4]float32{1, 1, 1, alpha}
}

// TextureCount reports the fixed layer capacity of the set.
//
// Returns:
//   - int: the layer count
func (s *arraySet) TextureCount() int {
	return len(s.layers)
}

// Source returns the font source the set was built from.
//
// Returns:
//   - *FontSource: the parsed source
func (s *arraySet) Source() *FontSource {
	return s.src
}

// Size returns the pixel size the glyphs were rasterized at.
//
// Returns:
//   - float32: the rasterization size
func (s *arraySet) Size() float32 {
	return s.size
}

// GlyphID looks up the glyph id for a rune.
//
// Parameters:
//   - r: the rune
//
// Returns:
//   - uint32: the glyph id
//   - bool: false when the rune is not in the set
func (s *arraySet) GlyphID(r rune) (uint32, bool) {
	id, ok := s.ids[r]
	return id, ok
}

// Metrics returns the layout metrics for a glyph id. The id must come from
// GlyphID.
//
// Parameters:
//   - id: the glyph id
//
// Returns:
//   - Metrics: the glyph metrics
func (s *arraySet) Metrics(id uint32) Metrics {
	return s.metrics[id]
}

// QuadUV returns the glyph's extent within its cell in normalized uv as
// (minU, minV, maxU, maxV). Zero-coverage glyphs return all zeros.
//
// Parameters:
//   - id: the glyph id
//
// Returns:
//   - [4]float32: the normalized rectangle
func (s *arraySet) QuadUV(id uint32) [4]float32 {
	met := s.metrics[id]
	if met.Width <= 0 || met.Height <= 0 {
		return [4]float32{}
	}
	return [4]float32{
		0,
		0,
		met.Width / float32(s.cellW),
		met.Height / float32(s.cellH),
	}
}

// LineHeight returns the font's line advance in pixels.
//
// Returns:
//   - float32: the line height
func (s *arraySet) LineHeight() float32 {
	return s.lineHeight
}

// Ascent returns the baseline-to-top distance in pixels.
//
// Returns:
//   - float32: the ascent
func (s *arraySet) Ascent() float32 {
	return s.ascent
}

// StagingData returns every layer as one tightly packed R8 upload, unbuilt
// layers included as zero coverage.
//
// Returns:
//   - common.TextureStagingData: the staging payload
func (s *arraySet) StagingData() common.TextureStagingData {
	layerSize := s.cellW * s.cellH
	pixels := make([]byte, layerSize*len(s.layers))
	for i, layer := range s.layers {
		if layer == nil {
			continue
		}
		copy(pixels[i*layerSize:], layer.Pix)
	}
	return common.TextureStagingData{
		Pixels: pixels,
		Width:  uint32(s.cellW),
		Height: uint32(s.cellH),
		Layers: uint32(len(s.layers)),
		Format: wgpu.TextureFormatR8Unorm,
	}
}
