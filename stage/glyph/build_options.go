package glyph

// buildConfig collects the knobs shared by the atlas and array builders.
type buildConfig struct {
	workers      int
	padding      int
	maxPageSize  int
	textureCount int
	cellW, cellH int
}

func defaultBuildConfig() buildConfig {
	return buildConfig{
		workers:      DefaultBuildWorkers,
		padding:      1,
		maxPageSize:  2048,
		textureCount: DefaultTextureCount,
	}
}

// BuildOption defines a function that configures a resource build.
type BuildOption func(*buildConfig)

// WithBuildWorkers sets the number of parallel rasterization workers.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - BuildOption: the option function
func WithBuildWorkers(workers int) BuildOption {
	return func(c *buildConfig) {
		c.workers = workers
	}
}

// WithPadding sets the pixel padding between packed atlas glyphs. Padding
// keeps linear filtering from bleeding neighboring glyphs.
//
// Parameters:
//   - padding: the padding in pixels
//
// Returns:
//   - BuildOption: the option function
func WithPadding(padding int) BuildOption {
	return func(c *buildConfig) {
		c.padding = padding
	}
}

// WithMaxPageSize caps the atlas page edge length. Builds that cannot pack
// within the cap fail with ErrResourceFull.
//
// Parameters:
//   - size: the maximum page edge in pixels
//
// Returns:
//   - BuildOption: the option function
func WithMaxPageSize(size int) BuildOption {
	return func(c *buildConfig) {
		c.maxPageSize = size
	}
}

// WithTextureCount overrides the array resource's layer capacity. The value
// becomes a fixed constant of the resource and of any pipeline built against
// it.
//
// Parameters:
//   - count: the layer capacity
//
// Returns:
//   - BuildOption: the option function
func WithTextureCount(count int) BuildOption {
	return func(c *buildConfig) {
		c.textureCount = count
	}
}

// WithCellSize fixes the array resource's layer dimensions instead of
// deriving them from the largest rasterized glyph.
//
// Parameters:
//   - w, h: the layer dimensions in pixels
//
// Returns:
//   - BuildOption: the option function
func WithCellSize(w, h int) BuildOption {
	return func(c *buildConfig) {
		c.cellW = w
		c.cellH = h
	}
}
