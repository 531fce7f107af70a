package glyph

import (
	"fmt"
	"image"
	"image/draw"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/umbra-gfx/umbra-go/common"
)

// atlas packs every glyph of a rune set onto a single R8 page. Text pipelines
// built against an atlas sample a plain 2D texture, with each glyph's page
// rectangle baked into the vertex uvs at layout time.
type atlas struct {
	src        *FontSource
	size       float32
	page       *image.Alpha
	rects      []image.Rectangle
	ids        map[rune]uint32
	metrics    []Metrics
	lineHeight float32
	ascent     float32
}

var _ Font = &atlas{}

// BuildAtlas rasterizes the rune set at the given pixel size and shelf-packs
// the glyphs onto the smallest power-of-two page that fits. Runes the font
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
//   - Font: the packed atlas resource
//   - error: ErrResourceFull when the set cannot pack within the page cap, or a rasterization error
func BuildAtlas(src *FontSource, size float32, runes []rune, options ...BuildOption) (Font, error) {
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

	a := &atlas{
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
		a.ids[g.r] = uint32(len(masks))
		a.metrics = append(a.metrics, g.met)
		masks = append(masks, g.mask)
	}

	rects, pageSize, err := packMasks(masks, cfg.padding, cfg.maxPageSize)
	if err != nil {
		return nil, err
	}
	a.rects = rects
	a.page = image.NewAlpha(image.Rect(0, 0, pageSize, pageSize))
	for i, m := range masks {
		if m == nil {
			continue
		}
		draw.Draw(a.page, rects[i], m, image.Point{}, draw.Src)
	}
	return a, nil
}

// packMasks shelf-packs the masks into the smallest power-of-two page that
// holds them all, growing by doubling up to maxPageSize.
func packMasks(masks []*image.Alpha, padding, maxPageSize int) ([]image.Rectangle, int, error) {
	for size := 64; size <= maxPageSize; size *= 2 {
		if rects, ok := tryPack(masks, padding, size); ok {
			return rects, size, nil
		}
	}
	return nil, 0, fmt.Errorf("%d glyphs exceed a %dx%d page: %w", len(masks), maxPageSize, maxPageSize, ErrResourceFull)
}

// tryPack places the masks tallest-first on horizontal shelves. Rectangles
// land in the slot matching each mask's glyph id regardless of placement
// order. Zero-coverage glyphs keep an empty rectangle and consume no space.
func tryPack(masks []*image.Alpha, padding, size int) ([]image.Rectangle, bool) {
	order := make([]int, len(masks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return maskHeight(masks[order[a]]) > maskHeight(masks[order[b]])
	})

	rects := make([]image.Rectangle, len(masks))
	x, y, shelf := padding, padding, 0
	for _, i := range order {
		m := masks[i]
		if m == nil {
			continue
		}
		w, h := m.Rect.Dx(), m.Rect.Dy()
		if x+w+padding > size {
			x = padding
			y += shelf + padding
			shelf = 0
		}
		if x+w+padding > size || y+h+padding > size {
			return nil, false
		}
		rects[i] = image.Rect(x, y, x+w, y+h)
		x += w + padding
		if h > shelf {
			shelf = h
		}
	}
	return rects, true
}

func maskHeight(m *image.Alpha) int {
	if m == nil {
		return 0
	}
	return m.Rect.Dy()
}

// Mode reports the addressing mode of the atlas.
//
// Returns:
//   - Mode: always ModeAtlas
func (a *atlas) Mode() Mode {
	return ModeAtlas
}

// Locate forwards the vertex uv unchanged at layer 0. Atlas addressing puts
// the glyph's page rectangle into the vertex uvs at layout time, so the
// fragment stage has nothing left to resolve and the id goes unused.
//
// Parameters:
//   - id: the glyph id, ignored in atlas mode
//   - uv: the interpolated vertex uv
//
// Returns:
//   - SampleCoord: the page uv, layer 0
func (a *atlas) Locate(_ uint32, uv [2]float32) SampleCoord {
	return SampleCoord{UV: uv}
}

// Sample reads the page texel under the coordinate with clamp-to-edge
// addressing and expands the R8 coverage value to (1, 1, 1, a).
//
// Parameters:
//   - c: the sample coordinate
//
// Returns:
//   - [4]float32: the sampled color
func (a *atlas) Sample(c SampleCoord) [4]float32 {
	w, h := a.page.Rect.Dx(), a.page.Rect.Dy()
	x := clampInt(int(c.UV[0]*float32(w)), 0, w-1)
	y := clampInt(int(c.UV[1]*float32(h)), 0, h-1)
	alpha := float32(a.page.Pix[y*a.page.Stride+x]) / 255
	return [4]float32{1, 1, 1, alpha}
}

// TextureCount reports how many glyph ids the atlas addresses.
//
// Returns:
//   - int: the packed glyph count
func (a *atlas) TextureCount() int {
	return len(a.rects)
}

// Source returns the font source the atlas was built from.
//
// Returns:
//   - *FontSource: the parsed source
func (a *atlas) Source() *FontSource {
	return a.src
}

// Size returns the pixel size the glyphs were rasterized at.
//
// Returns:
//   - float32: the rasterization size
func (a *atlas) Size() float32 {
	return a.size
}

// GlyphID looks up the glyph id for a rune.
//
// Parameters:
//   - r: the rune
//
// Returns:
//   - uint32: the glyph id
//   - bool: false when the rune is not in the atlas
func (a *atlas) GlyphID(r rune) (uint32, bool) {
	id, ok := a.ids[r]
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
func (a *atlas) Metrics(id uint32) Metrics {
	return a.metrics[id]
}

// QuadUV returns the glyph's page rectangle in normalized uv as
// (minU, minV, maxU, maxV). Zero-coverage glyphs return all zeros.
//
// Parameters:
//   - id: the glyph id
//
// Returns:
//   - [4]float32: the normalized rectangle
func (a *atlas) QuadUV(id uint32) [4]float32 {
	r := a.rects[id]
	if r.Empty() {
		return [4]float32{}
	}
	w := float32(a.page.Rect.Dx())
	h := float32(a.page.Rect.Dy())
	return [4]float32{
		float32(r.Min.X) / w,
		float32(r.Min.Y) / h,
		float32(r.Max.X) / w,
		float32(r.Max.Y) / h,
	}
}

// LineHeight returns the font's line advance in pixels.
//
// Returns:
//   - float32: the line height
func (a *atlas) LineHeight() float32 {
	return a.lineHeight
}

// Ascent returns the baseline-to-top distance in pixels.
//
// Returns:
//   - float32: the ascent
func (a *atlas) Ascent() float32 {
	return a.ascent
}

// StagingData returns the page as a single-layer R8 upload.
//
// Returns:
//   - common.TextureStagingData: the staging payload
func (a *atlas) StagingData() common.TextureStagingData {
	pixels := make([]byte, len(a.page.Pix))
	copy(pixels, a.page.Pix)
	return common.TextureStagingData{
		Pixels: pixels,
		Width:  uint32(a.page.Rect.Dx()),
		Height: uint32(a.page.Rect.Dy()),
		Layers: 1,
		Format: wgpu.TextureFormatR8Unorm,
	}
}
