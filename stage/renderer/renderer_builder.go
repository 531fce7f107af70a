package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/umbra-gfx/umbra-go/stage/renderer/pipeline"
)

// RendererBuilderOption configures a renderer inside NewRenderer, before the
// backend is constructed.
type RendererBuilderOption func(*renderer)

// WithPipeline seeds the pipeline cache with one Pipeline under the given key.
// The Pipeline's GPU object is not created; use RegisterPipelines for that.
//
// Parameters:
//   - key: the cache key for the pipeline
//   - p: the Pipeline to seed
//
// Returns:
//   - RendererBuilderOption: the option to pass to NewRenderer
func WithPipeline(key string, p pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		r.pipelines[key] = p
	}
}

// WithPipelines seeds the pipeline cache with a whole map of Pipelines,
// replacing anything seeded before it.
//
// Parameters:
//   - pipelines: the cache contents, keyed by pipeline key
//
// Returns:
//   - RendererBuilderOption: the option to pass to NewRenderer
func WithPipelines(pipelines map[string]pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		r.pipelines = pipelines
	}
}

// WithPresentMode picks how frames reach the display. Without this option the
// backend runs uncapped.
//
// Parameters:
//   - mode: PresentModeVSync or PresentModeUncapped
//
// Returns:
//   - RendererBuilderOption: the option to pass to NewRenderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.settings.presentMode = &mode
	}
}

// WithMSAA picks the anti-aliasing sample count. The default is MSAA4x;
// MSAAOff disables multisampling. MSAA8x and MSAA16x depend on the adapter
// and are not available everywhere.
//
// Parameters:
//   - count: the MSAASampleCount to render with
//
// Returns:
//   - RendererBuilderOption: the option to pass to NewRenderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.settings.msaa = &count
	}
}

// WithClearColor picks the color the main render pass clears to each frame.
// The default is a dark neutral gray.
//
// Parameters:
//   - color: the clear color as normalized RGBA
//
// Returns:
//   - RendererBuilderOption: the option to pass to NewRenderer
func WithClearColor(color wgpu.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.settings.clearColor = &color
	}
}

// WithForceSoftwareRenderer makes adapter selection request the CPU fallback
// instead of a hardware GPU. A software Vulkan ICD such as SwiftShader or
// lavapipe must be installed for this to succeed. Intended for headless
// machines and CI.
//
// Parameters:
//   - force: true to request the fallback adapter, false for hardware
//
// Returns:
//   - RendererBuilderOption: the option to pass to NewRenderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.settings.softwareAdapter = force
	}
}
