package renderer

import (
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuBackend implements RendererBackend on top of wgpu-native. It owns one
// device/queue pair bound to a single window surface.
type wgpuBackend struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	config  surfaceConfig
	targets renderTargets
	frame   activeFrame
}

// surfaceConfig carries the presentation settings applied on the next
// ConfigureSurface call, plus the swapchain format chosen by the last one.
type surfaceConfig struct {
	format      *wgpu.TextureFormat
	presentMode wgpu.PresentMode
	samples     MSAASampleCount
	clearColor  wgpu.Color
}

// renderTargets holds the offscreen attachments tied to the current surface
// size. ConfigureSurface rebuilds all three.
type renderTargets struct {
	msaaView  *wgpu.TextureView
	depthView *wgpu.TextureView
	passDesc  *wgpu.RenderPassDescriptor
}

// activeFrame tracks the swapchain image held between BeginFrame and Present.
type activeFrame struct {
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
	surface *wgpu.Texture
	view    *wgpu.TextureView
}

var _ RendererBackend = &wgpuBackend{}

func newWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, softwareAdapter bool, samples MSAASampleCount) RendererBackend {
	// The surface and device must be created and driven from one OS thread.
	runtime.LockOSThread()

	b := &wgpuBackend{
		instance: wgpu.CreateInstance(nil),
		config: surfaceConfig{
			presentMode: wgpu.PresentModeImmediate,
			samples:     samples,
			clearColor:  wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		},
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: softwareAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		panic(err)
	}
	b.adapter = adapter

	// The default WebGPU limits are plenty for the handful of bind groups the
	// stage pipelines use, so no extra limits are requested.
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Stage Device",
	})
	if err != nil {
		panic(err)
	}
	b.device = device
	b.queue = device.GetQueue()

	return b
}

func (b *wgpuBackend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	caps := b.surface.GetCapabilities(b.adapter)
	b.config.format = &caps.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.config.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.config.presentMode,
		AlphaMode:   caps.AlphaModes[0],
	})

	b.rebuildTargets(uint32(width), uint32(height))
}

// rebuildTargets recreates the MSAA and depth attachments for the given
// surface size and caches the render pass descriptor that references them.
func (b *wgpuBackend) rebuildTargets(width, height uint32) {
	samples := uint32(b.config.samples)

	b.targets.msaaView = nil
	if samples > 1 {
		// Multisampled color target; each frame resolves it into the swapchain
		// view via ResolveTarget.
		b.targets.msaaView = b.newTargetView("MSAA Texture", width, height, samples, *b.config.format)
	}

	// The depth attachment must carry the same sample count as the color one.
	b.targets.depthView = b.newTargetView("Depth Texture", width, height, samples, wgpu.TextureFormatDepth24Plus)

	// Samples beyond the resolve are never read back, so nothing is stored
	// from the multisampled target itself.
	colorStore := wgpu.StoreOpStore
	if samples > 1 {
		colorStore = wgpu.StoreOpDiscard
	}

	// With MSAA on, View is the multisampled target and BeginFrame fills in
	// ResolveTarget with the swapchain view. With MSAA off, msaaView is nil
	// here and BeginFrame sets View to the swapchain view directly.
	b.targets.passDesc = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.targets.msaaView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    colorStore,
				ClearValue: b.config.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.targets.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

// newTargetView creates a render attachment texture and returns its default
// view. Target textures are only ever written by the render pass.
func (b *wgpuBackend) newTargetView(label string, width, height, samples uint32, format wgpu.TextureFormat) *wgpu.TextureView {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		panic(err)
	}
	return view
}

func (b *wgpuBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.config.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.config.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuBackend) SetClearColor(color wgpu.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.config.clearColor = color
}
