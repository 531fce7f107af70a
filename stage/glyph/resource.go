package glyph

import (
	"errors"
	"fmt"

	"github.com/umbra-gfx/umbra-go/common"
)

// Mode identifies how a glyph resource addresses its texture data.
type Mode uint8

const (
	// ModeTextureArray stores one texture element per glyph; the glyph id
	// selects the array layer, exactly as instance records select theirs.
	ModeTextureArray Mode = iota

	// ModeAtlas stores all glyphs in one packed page; the glyph id selects a
	// UV sub-rectangle resolved during layout.
	ModeAtlas
)

// DefaultTextureCount is the default glyph capacity of an array-mode
// resource. The capacity is fixed at build time; ids at or above it are
// rejected by ValidateRun before submission, never clamped.
const DefaultTextureCount = 128

// ErrGlyphIndex is returned when a glyph id is out of range for its resource.
var ErrGlyphIndex = errors.New("glyph id out of range")

// ErrResourceFull is returned when a glyph resource cannot hold the requested
// rune set: the atlas page overflowed at the maximum page size, or the rune
// count exceeds an array resource's texture count.
var ErrResourceFull = errors.New("glyph resource full")

// SampleCoord is a resolved texture coordinate: a UV pair plus the array
// layer. Atlas-mode coordinates always carry layer 0.
type SampleCoord struct {
	UV    [2]float32
	Layer float32
}

// Resource is the polymorphic glyph resource. The variant is chosen once at
// font-resource construction; per-glyph code never branches on it. Sampled
// colors follow the R8 coverage convention: a texel with coverage a expands
// to (1, 1, 1, a), so tinting scales the alpha that the cutoff tests.
type Resource interface {
	// Mode returns the addressing mode fixed at construction.
	//
	// Returns:
	//   - Mode: ModeTextureArray or ModeAtlas
	Mode() Mode

	// Locate resolves the fragment inputs (id, uv) into a texture coordinate,
	// mirroring what the fragment stage does with them. The uv is the one the
	// vertex stream carries, already placed by layout via QuadUV. Atlas mode
	// ignores the id and samples the page at the uv directly; array mode
	// carries the id as the layer. No bounds check happens in either mode; ids
	// are validated host-side by ValidateRun.
	//
	// Parameters:
	//   - id: the glyph id
	//   - uv: the interpolated vertex uv
	//
	// Returns:
	//   - SampleCoord: the resolved coordinate
	Locate(id uint32, uv [2]float32) SampleCoord

	// Sample fetches the color at a resolved coordinate with nearest
	// filtering, the CPU reference of the GPU fetch.
	//
	// Parameters:
	//   - c: the resolved coordinate
	//
	// Returns:
	//   - [4]float32: the sampled RGBA color
	Sample(c SampleCoord) [4]float32

	// TextureCount returns the number of addressable texture elements: the
	// layer capacity in array mode, the packed glyph count in atlas mode.
	//
	// Returns:
	//   - int: the element count
	TextureCount() int
}

// Font extends Resource with the metrics and id mapping the layout step
// needs. Both concrete resources implement it.
type Font interface {
	Resource

	// Source returns the font source the resource was built from.
	//
	// Returns:
	//   - *FontSource: the parsed source
	Source() *FontSource

	// Size returns the pixel size the glyphs were rasterized at.
	//
	// Returns:
	//   - float32: the rasterization size
	Size() float32

	// GlyphID maps a rune to its glyph id within this resource.
	//
	// Parameters:
	//   - r: the rune to look up
	//
	// Returns:
	//   - uint32: the glyph id
	//   - bool: false when the rune was not part of the build set
	GlyphID(r rune) (uint32, bool)

	// Metrics returns the placement metrics for a glyph id.
	//
	// Parameters:
	//   - id: the glyph id
	//
	// Returns:
	//   - Metrics: advance, bearing and pixel extent
	Metrics(id uint32) Metrics

	// QuadUV returns the UV rectangle layout writes into a glyph's quad
	// vertices: the page sub-rectangle in atlas mode, the glyph's extent
	// within its fixed cell in array mode.
	//
	// Parameters:
	//   - id: the glyph id
	//
	// Returns:
	//   - [4]float32: (uMin, vMin, uMax, vMax)
	QuadUV(id uint32) [4]float32

	// LineHeight returns the vertical pen advance between baselines, in
	// pixels.
	//
	// Returns:
	//   - float32: the line height
	LineHeight() float32

	// Ascent returns the distance from the baseline to the top of the tallest
	// glyph, in pixels.
	//
	// Returns:
	//   - float32: the ascent
	Ascent() float32

	// StagingData returns the resource's pixel data packaged for texture
	// upload: one R8 page in atlas mode, stacked R8 layers in array mode.
	//
	// Returns:
	//   - common.TextureStagingData: the upload description
	StagingData() common.TextureStagingData
}

// Metrics describes how a glyph's quad is placed relative to the pen.
type Metrics struct {
	// Advance is the horizontal pen movement after emitting the glyph, in
	// pixels.
	Advance float32
	// BearingX is the horizontal offset from the pen to the quad's left edge.
	BearingX float32
	// BearingY is the vertical offset from the baseline up to the quad's top
	// edge.
	BearingY float32
	// Width and Height are the glyph's pixel extent.
	Width  float32
	Height float32
}

// ValidateRun checks every glyph id of a shaped run against the resource
// capacity. This is the host-side gate: shading code performs no bounds
// checks, so a run must pass here before its draw is submitted.
//
// Parameters:
//   - ids: the glyph ids of the run
//   - res: the resource the run will sample
//
// Returns:
//   - error: ErrGlyphIndex naming the first offending id, or nil
func ValidateRun(ids []uint32, res Resource) error {
	count := res.TextureCount()
	for _, id := range ids {
		if int(id) >= count {
			return fmt.Errorf("glyph id %d with texture count %d: %w", id, count, ErrGlyphIndex)
		}
	}
	return nil
}

// clampInt mirrors clamp-to-edge sampler addressing for the CPU reference
// samplers.
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
