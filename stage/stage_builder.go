package stage

import (
	"time"

	"github.com/umbra-gfx/umbra-go/stage/camera"
	"github.com/umbra-gfx/umbra-go/stage/renderer"
	"github.com/umbra-gfx/umbra-go/stage/window"
)

// StageBuilderOption defines a function that modifies the stage during
// creation.
type StageBuilderOption func(*stage)

// WithRenderer attaches the renderer the stage creates GPU resources on and
// submits frames through. A stage built without one stays host-side: entities
// register and frames assemble, but nothing is uploaded or drawn.
//
// Parameters:
//   - r: the renderer to attach
//
// Returns:
//   - StageBuilderOption: the option function
func WithRenderer(r renderer.Renderer) StageBuilderOption {
	return func(s *stage) {
		s.r = r
	}
}

// WithWindow attaches the window whose surface the stage presents to. The
// stage wires resize events to the renderer and to the camera aspect ratio,
// and uses the window size to place text in clip space.
//
// Parameters:
//   - w: the window to attach
//
// Returns:
//   - StageBuilderOption: the option function
func WithWindow(w window.Window) StageBuilderOption {
	return func(s *stage) {
		s.win = w
	}
}

// WithCamera attaches a caller-built camera. When omitted the stage builds a
// default camera against the configured clip target.
//
// Parameters:
//   - c: the camera to attach
//
// Returns:
//   - StageBuilderOption: the option function
func WithCamera(c camera.Camera) StageBuilderOption {
	return func(s *stage) {
		s.cam = c
	}
}

// WithClipTarget sets the clip-space convention the stage's default camera
// corrects for. Ignored when a camera is supplied through WithCamera.
//
// Parameters:
//   - target: the backend clip-space convention
//
// Returns:
//   - StageBuilderOption: the option function
func WithClipTarget(target camera.ClipTarget) StageBuilderOption {
	return func(s *stage) {
		s.clipTarget = target
	}
}

// WithNodeCapacity sets how many node transform slots the stage's arena
// holds. The value is fixed for the stage's lifetime.
//
// Parameters:
//   - capacity: the number of transform slots, default 1024
//
// Returns:
//   - StageBuilderOption: the option function
func WithNodeCapacity(capacity int) StageBuilderOption {
	return func(s *stage) {
		s.nodeCapacity = capacity
	}
}

// WithInstanceCapacity sets the record capacity of instance sets created
// through AddBatch. The capacity becomes a constant of each batch's pipeline.
//
// Parameters:
//   - capacity: the per-batch record capacity, default 8
//
// Returns:
//   - StageBuilderOption: the option function
func WithInstanceCapacity(capacity int) StageBuilderOption {
	return func(s *stage) {
		s.instanceCapacity = capacity
	}
}

// WithLightCount sets the capacity of the stage's light array. The count
// must match the array length compiled into any lit shader the stage runs.
//
// Parameters:
//   - count: the light capacity, default 6
//
// Returns:
//   - StageBuilderOption: the option function
func WithLightCount(count int) StageBuilderOption {
	return func(s *stage) {
		s.lightCount = count
	}
}

// WithGlyphTextureCount sets the texture-array layer count used when the
// stage builds fonts in texture-array mode. Zero keeps the font default.
//
// Parameters:
//   - count: the glyph layer capacity
//
// Returns:
//   - StageBuilderOption: the option function
func WithGlyphTextureCount(count int) StageBuilderOption {
	return func(s *stage) {
		s.glyphTextureCount = count
	}
}

// WithComputeWorkers sets how many workers the stage fans transform rebuilds
// out to each frame. Values below one are clamped to one.
//
// Parameters:
//   - count: the worker count, default NumCPU-1
//
// Returns:
//   - StageBuilderOption: the option function
func WithComputeWorkers(count int) StageBuilderOption {
	return func(s *stage) {
		if count < 1 {
			count = 1
		}
		s.computeWorkers = count
	}
}

// WithProfiling enables or disables the frame profiler from the start.
//
// Parameters:
//   - enabled: whether profiling starts enabled
//
// Returns:
//   - StageBuilderOption: the option function
func WithProfiling(enabled bool) StageBuilderOption {
	return func(s *stage) {
		s.profilingEnabled = enabled
	}
}

// WithTickRate sets the fixed tick rate the stage's update loop runs at.
//
// Parameters:
//   - fps: ticks per second, values of zero or below fall back to 60
//
// Returns:
//   - StageBuilderOption: the option function
func WithTickRate(fps float64) StageBuilderOption {
	return func(s *stage) {
		if fps <= 0 {
			fps = 60
		}
		s.tickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithRenderFrameLimit caps how many frames per second the render loop
// produces. Zero or below removes the cap.
//
// Parameters:
//   - fps: the frame cap
//
// Returns:
//   - StageBuilderOption: the option function
func WithRenderFrameLimit(fps float64) StageBuilderOption {
	return func(s *stage) {
		if fps <= 0 {
			s.renderFrameLimit = 0
			return
		}
		s.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
