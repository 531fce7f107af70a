package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/umbra-gfx/umbra-go/common"
	"github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"
	"github.com/umbra-gfx/umbra-go/stage/renderer/pipeline"
	"github.com/umbra-gfx/umbra-go/stage/window"
)

// DrawBinding names one bind group slot of a draw call: the provider whose
// bind group fills the slot, and the dynamic offsets to apply when binding it.
// The slot number is the binding's index in the DrawCall slice. DynamicOffsets
// needs one entry per dynamic binding in the group, in binding order, and
// stays nil for groups without dynamic bindings.
type DrawBinding struct {
	// Provider supplies the bind group for this slot.
	Provider bind_group_provider.BindGroupProvider
	// DynamicOffsets are byte offsets into the group's dynamic bindings.
	DynamicOffsets []uint32
}

// backendSettings buffers values collected from builder options until the
// backend exists to receive them.
type backendSettings struct {
	presentMode     *PresentMode
	msaa            *MSAASampleCount
	clearColor      *wgpu.Color
	softwareAdapter bool
}

// renderer fronts a RendererBackend with a keyed pipeline cache.
type renderer struct {
	mu sync.Mutex

	pipelines map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	settings backendSettings
}

// Renderer is the top-level rendering API. It keeps a cache of registered
// pipelines keyed by their PipelineKey, initializes GPU resources onto
// BindGroupProviders, and drives the per-frame loop of BeginFrame, DrawCall,
// EndFrame, and Present. All GPU work is delegated to a swappable backend.
type Renderer interface {
	// Pipeline looks up a cached Pipeline by key.
	//
	// Parameters:
	//   - key: the key the Pipeline was registered under
	//
	// Returns:
	//   - pipeline.Pipeline: the cached Pipeline, or nil when the key is unknown
	Pipeline(key string) pipeline.Pipeline

	// Pipelines exposes the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: every cached Pipeline keyed by its registration key
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines creates the GPU render pipeline object for each given
	// Pipeline and caches it under its PipelineKey. A key that is already
	// cached is skipped, so re-registering is free and never duplicates GPU
	// resources.
	//
	// Parameters:
	//   - pipelines: the Pipelines to create and cache
	//
	// Returns:
	//   - error: an error when GPU pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// SetPipeline stores a Pipeline in the cache under the given key,
	// replacing any previous entry.
	//
	// Parameters:
	//   - key: the cache key
	//   - p: the Pipeline to store
	SetPipeline(key string, p pipeline.Pipeline)

	// SetPipelines swaps the whole pipeline cache for the given map.
	//
	// Parameters:
	//   - pipelines: the new cache contents, keyed by pipeline key
	SetPipelines(pipelines map[string]pipeline.Pipeline)

	// InitMeshBuffers uploads raw vertex and index bytes into fresh GPU
	// buffers stored on the provider, ready for DrawCall.
	//
	// Parameters:
	//   - provider: the BindGroupProvider that will hold the mesh buffers
	//   - vertexData: packed vertex bytes to upload
	//   - indexData: packed uint32 index bytes to upload
	//   - indexCount: how many indices indexData holds, used by DrawCall
	//
	// Returns:
	//   - error: an error when buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup builds the provider's bind group from a layout
	// descriptor. Buffer bindings without a buffer get one created; texture
	// and sampler bindings must have been initialized through InitTextureView
	// and InitSampler first. Per-binding overrides widen buffer usage flags
	// or replace the allocation size, the latter being how arena buffers
	// larger than the shader's bound window are made for dynamic offsets.
	//
	// Parameters:
	//   - provider: the BindGroupProvider that will hold the bind group
	//   - descriptor: the layout the bind group must satisfy
	//   - bufferUsageOverrides: extra usage flags ORed in per binding, nil safe
	//   - bufferSizeOverrides: allocation sizes replacing MinBindingSize per binding, nil safe
	//
	// Returns:
	//   - error: an error when a required resource is missing or creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView uploads staged pixels into a new GPU texture and stores
	// its view on the provider under the given binding. Staging data holding
	// several layers becomes a 2D texture array. Must run before InitBindGroup
	// for any texture binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider that will hold the texture view
	//   - bindingKey: the binding index the texture satisfies
	//   - stagingData: pixel bytes plus dimensions, layer count, and format
	//
	// Returns:
	//   - error: an error when texture creation fails
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a GPU sampler from staged settings and stores it on
	// the provider under the given binding. Must run before InitBindGroup for
	// any sampler binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider that will hold the sampler
	//   - bindingKey: the binding index the sampler satisfies
	//   - samplerStagingData: the sampler settings
	//
	// Returns:
	//   - error: an error when sampler creation fails
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers flushes queued buffer writes to the GPU. Each write lands
	// in one provider buffer at a binding and byte offset.
	//
	// Parameters:
	//   - writes: the BufferWrite batch to flush
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the next swapchain image and opens the main render
	// pass. Pair every successful BeginFrame with EndFrame and Present.
	//
	// Returns:
	//   - error: an error when the swapchain image cannot be acquired
	BeginFrame() error

	// DrawCall records one instanced, indexed draw into the open render pass.
	// Any number of draw calls fit between BeginFrame and EndFrame.
	//
	// Parameters:
	//   - pipelineKey: the key of the cached Pipeline to draw with
	//   - meshProvider: the BindGroupProvider holding the mesh's vertex and index buffers
	//   - instanceCount: how many instances to draw
	//   - bindGroups: the bind group slots to set, in slot order
	//
	// Returns:
	//   - error: an error when no pipeline is cached under pipelineKey
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []DrawBinding) error

	// EndFrame closes the render pass and submits the frame's commands to the
	// GPU queue. The frame is not visible until Present.
	EndFrame()

	// Present shows the submitted frame and releases the swapchain image.
	// Call once per frame, after EndFrame.
	Present()

	// Resize reconfigures the surface and its render targets for a new size.
	// Call when the window is resized.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	Resize(width, height int)

	// SetPresentMode changes how frames are delivered to the display. The new
	// mode takes effect on the next Resize.
	//
	// Parameters:
	//   - mode: PresentModeVSync or PresentModeUncapped
	SetPresentMode(mode PresentMode)
}

var _ Renderer = &renderer{}

// NewRenderer builds a Renderer on the requested backend, bound to the given
// window's surface and sized to the window's current dimensions.
//
// Parameters:
//   - backendType: which GPU backend to construct (currently WGPU)
//   - window: the Window supplying the surface descriptor and initial size
//   - options: RendererBuilderOption values applied before the backend starts
//
// Returns:
//   - Renderer: the configured Renderer
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		pipelines:   make(map[string]pipeline.Pipeline),
		backendType: backendType,
	}

	// Options run before backend construction so adapter selection and the
	// MSAA sample count are known up front.
	for _, opt := range options {
		opt(r)
	}

	samples := MSAA4x
	if r.settings.msaa != nil {
		samples = *r.settings.msaa
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPUBackend(window.SurfaceDescriptor(), r.settings.softwareAdapter, samples)
	}

	if r.settings.presentMode != nil {
		r.backend.SetPresentMode(*r.settings.presentMode)
	}
	if r.settings.clearColor != nil {
		r.backend.SetClearColor(*r.settings.clearColor)
	}

	r.backend.ConfigureSurface(window.Width(), window.Height())
	return r
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelines[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelines
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, cached := r.pipelines[key]; cached {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return err
		}
		r.pipelines[key] = p
	}
	return nil
}

func (r *renderer) SetPipeline(key string, p pipeline.Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelines[key] = p
}

func (r *renderer) SetPipelines(pipelines map[string]pipeline.Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelines = pipelines
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return r.backend.InitTextureView(provider, bindingKey, stagingData)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []DrawBinding) error {
	r.mu.Lock()
	p, cached := r.pipelines[pipelineKey]
	r.mu.Unlock()

	if !cached {
		return fmt.Errorf("no pipeline registered under key %q", pipelineKey)
	}

	r.backend.DrawCall(p, meshProvider, instanceCount, bindGroups)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}
