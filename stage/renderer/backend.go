package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/umbra-gfx/umbra-go/common"
	"github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"
	"github.com/umbra-gfx/umbra-go/stage/renderer/pipeline"
)

// RendererBackendType selects which GPU API implementation backs a Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU backs the renderer with WebGPU via wgpu-native.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how finished frames reach the display.
type PresentMode int

const (
	// PresentModeVSync holds each frame until the next vertical blank. The frame
	// rate is capped at the monitor refresh rate and tearing cannot occur.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped hands frames to the display as soon as they are ready.
	// Latency is minimal but frames may tear.
	PresentModeUncapped
)

// MSAASampleCount is the per-pixel sample count used for multisample
// anti-aliasing. WebGPU only guarantees counts of 1 and 4; the higher counts
// depend on the adapter.
type MSAASampleCount uint32

const (
	// MSAAOff renders one sample per pixel, disabling anti-aliasing.
	MSAAOff MSAASampleCount = 1

	// MSAA4x renders four samples per pixel. This is the renderer default and
	// is supported everywhere.
	MSAA4x MSAASampleCount = 4

	// MSAA8x renders eight samples per pixel where the adapter allows it.
	MSAA8x MSAASampleCount = 8

	// MSAA16x renders sixteen samples per pixel where the adapter allows it.
	MSAA16x MSAASampleCount = 16
)

// RendererBackend is the device-facing half of the renderer. The Renderer
// front end owns the pipeline cache and validation; the backend owns every
// object that lives on the GPU. Detailed semantics for each operation are
// documented on the corresponding Renderer method.
type RendererBackend interface {
	// ConfigureSurface (re)configures the swapchain for a new surface size and
	// rebuilds the render targets that depend on it.
	ConfigureSurface(width, height int)

	// SetPresentMode selects the presentation mode applied by the next
	// ConfigureSurface call.
	SetPresentMode(mode PresentMode)

	// SetClearColor selects the color the main pass clears to, applied by the
	// next ConfigureSurface call.
	SetClearColor(color wgpu.Color)

	// RegisterRenderPipeline compiles the pipeline's shaders and creates the
	// GPU render pipeline object, storing it back on the Pipeline.
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitMeshBuffers uploads vertex and index data into new GPU buffers held
	// by the provider.
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup materializes the provider's bind group from a layout
	// descriptor, creating backing buffers for any binding that has none.
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView uploads staged pixels into a new texture and stores its
	// default view on the provider.
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a sampler from staged settings and stores it on the
	// provider.
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers pushes queued buffer writes to the GPU queue.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the next swapchain image and opens the main render
	// pass on a fresh command encoder.
	BeginFrame() error

	// DrawCall records one indexed, instanced draw into the open render pass.
	DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []DrawBinding)

	// EndFrame closes the render pass and submits the recorded commands.
	EndFrame()

	// Present shows the submitted frame and releases the swapchain image.
	Present()
}
