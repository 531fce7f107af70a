package glyph

import (
	"image"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// DefaultBuildWorkers is the default number of rasterization workers for
// resource builds.
const DefaultBuildWorkers = 4

// rasterGlyph is one rasterized glyph: the coverage mask plus placement
// metrics. Whitespace and other empty glyphs carry a nil mask but keep their
// advance.
type rasterGlyph struct {
	r    rune
	mask *image.Alpha
	met  Metrics
	ok   bool
}

// rasterizeRunes renders every rune of the build set into an alpha mask,
// fanned out over a worker pool. font.Face is not safe for concurrent use, so
// each chunk task creates its own face. Results are positional; scheduling
// order never affects output.
func rasterizeRunes(src *FontSource, size float32, runes []rune, workers int) ([]rasterGlyph, error) {
	if workers <= 0 {
		workers = DefaultBuildWorkers
	}
	if workers > len(runes) {
		workers = len(runes)
	}

	glyphs := make([]rasterGlyph, len(runes))
	if len(runes) == 0 {
		return glyphs, nil
	}

	chunk := (len(runes) + workers - 1) / workers
	errs := make([]error, workers)

	pool := worker.NewDynamicWorkerPool(workers, 256, 1*time.Second)
	var wg sync.WaitGroup
	taskID := 0
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, len(runes))
		if start >= end {
			break
		}
		wg.Add(1)
		slot := w
		id := taskID
		taskID++
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				face, err := src.NewFace(size)
				if err != nil {
					errs[slot] = err
					return nil, err
				}
				defer face.Close()
				for i := start; i < end; i++ {
					glyphs[i] = rasterizeGlyph(face, runes[i])
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return glyphs, nil
}

// rasterizeGlyph renders one rune through a face into an alpha mask. Bounds
// arrive as 26.6 fixed point; min floors and max ceils so the pixel rect
// covers the full outline.
func rasterizeGlyph(face font.Face, r rune) rasterGlyph {
	bounds, advance, ok := face.GlyphBounds(r)
	if !ok {
		return rasterGlyph{r: r}
	}

	minX := int(bounds.Min.X) >> 6
	minY := int(bounds.Min.Y) >> 6
	maxX := int(bounds.Max.X+63) >> 6
	maxY := int(bounds.Max.Y+63) >> 6

	g := rasterGlyph{
		r:  r,
		ok: true,
		met: Metrics{
			Advance:  float32(advance) / 64,
			BearingX: float32(minX),
			BearingY: float32(-minY),
			Width:    float32(maxX - minX),
			Height:   float32(maxY - minY),
		},
	}
	if maxX <= minX || maxY <= minY {
		// zero-coverage glyph, advance only
		return g
	}

	mask := image.NewAlpha(image.Rect(0, 0, maxX-minX, maxY-minY))
	drawer := &font.Drawer{
		Dst:  mask,
		Src:  image.White,
		Face: face,
		Dot:  fixed.Point26_6{X: -bounds.Min.X, Y: -bounds.Min.Y},
	}
	drawer.DrawString(string(r))
	g.mask = mask
	return g
}

// faceMetrics reads the line metrics off a face in pixels.
func faceMetrics(face font.Face) (lineHeight, ascent float32) {
	m := face.Metrics()
	return float32(m.Height) / 64, float32(m.Ascent) / 64
}

// dedupeRunes drops repeated runes while keeping first-seen order, so glyph
// ids stay stable for a given input set.
func dedupeRunes(runes []rune) []rune {
	seen := make(map[rune]struct{}, len(runes))
	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
