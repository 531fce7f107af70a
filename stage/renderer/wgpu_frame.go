package renderer

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"
	"github.com/umbra-gfx/umbra-go/stage/renderer/pipeline"
)

func (b *wgpuBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Acquiring a second swapchain image while one is still held trips
	// wgpu-native validation ("Surface image is already acquired"), so refuse
	// to overlap frames instead.
	if b.frame.surface != nil {
		return errors.New("frame already in flight; present the previous frame first")
	}

	surfaceTex, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTex.CreateView(nil)
	if err != nil {
		surfaceTex.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTex.Release()
		return err
	}

	// MSAA on: the pass draws into the multisampled target and resolves into
	// the swapchain view. MSAA off: the pass draws the swapchain view directly.
	attachment := &b.targets.passDesc.ColorAttachments[0]
	if b.config.samples > 1 {
		attachment.ResolveTarget = view
	} else {
		attachment.View = view
	}

	b.frame = activeFrame{
		encoder: encoder,
		pass:    encoder.BeginRenderPass(b.targets.passDesc),
		surface: surfaceTex,
		view:    view,
	}

	return nil
}

func (b *wgpuBackend) DrawCall(
	p pipeline.Pipeline,
	meshProvider bind_group_provider.BindGroupProvider,
	instanceCount uint32,
	bindGroups []DrawBinding,
) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pass := b.frame.pass
	if pass == nil {
		return
	}

	pass.SetPipeline(p.Pipeline())

	for slot, binding := range bindGroups {
		pass.SetBindGroup(uint32(slot), binding.Provider.BindGroup(), binding.DynamicOffsets)
	}

	pass.SetVertexBuffer(0, meshProvider.VertexBuffer(), 0, wgpu.WholeSize)
	pass.SetIndexBuffer(meshProvider.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(meshProvider.IndexCount()), instanceCount, 0, 0, 0)
}

func (b *wgpuBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frame.pass.End()

	commands, err := b.frame.encoder.Finish(nil)
	if err != nil {
		// Nothing to submit; drop the whole frame including the swapchain
		// image so the next BeginFrame can acquire again.
		b.frame.encoder.Release()
		b.frame.view.Release()
		b.frame.surface.Release()
		b.frame = activeFrame{}
		return
	}

	b.queue.Submit(commands)

	commands.Release()
	b.frame.encoder.Release()
	b.frame.encoder = nil
	b.frame.pass = nil
}

func (b *wgpuBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame.surface == nil {
		return
	}

	b.surface.Present()

	if b.frame.view != nil {
		b.frame.view.Release()
	}
	b.frame.surface.Release()
	b.frame = activeFrame{}
}
