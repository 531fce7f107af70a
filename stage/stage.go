// Package stage ties the entity packages and the renderer together into a
// runnable scene. A Stage owns the camera, the node transform arena, the
// per-frame light array, instanced batches, fonts, and text runs, and drives
// them through a fixed-tick update loop and a render loop.
//
// Pipelines are wired declaratively: every shader carries annotations naming
// the struct type or resource provider behind each bind group, and the stage
// matches those declarations against the providers it manages when it
// assembles draw calls. Host data that a pipeline cannot check itself, such as
// glyph indices or light radii, is validated on the stage before a draw is
// submitted.
package stage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/umbra-gfx/umbra-go/common"
	"github.com/umbra-gfx/umbra-go/stage/camera"
	"github.com/umbra-gfx/umbra-go/stage/glyph"
	"github.com/umbra-gfx/umbra-go/stage/instance"
	"github.com/umbra-gfx/umbra-go/stage/light"
	"github.com/umbra-gfx/umbra-go/stage/mesh"
	"github.com/umbra-gfx/umbra-go/stage/node"
	"github.com/umbra-gfx/umbra-go/stage/profiler"
	"github.com/umbra-gfx/umbra-go/stage/renderer"
	"github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"
	"github.com/umbra-gfx/umbra-go/stage/renderer/material"
	"github.com/umbra-gfx/umbra-go/stage/renderer/pipeline"
	"github.com/umbra-gfx/umbra-go/stage/renderer/shader"
	"github.com/umbra-gfx/umbra-go/stage/window"
)

// DefaultNodeCapacity is the number of transform slots a stage's arena holds
// unless overridden through WithNodeCapacity.
const DefaultNodeCapacity = 1024

// ErrMissingBinding reports a draw whose pipeline requires a resource that the
// stage could not supply: an unregistered pipeline or texture, a bind group
// with no provider, or a provider missing one of the layout's bindings.
var ErrMissingBinding = errors.New("stage: missing binding")

// DrawCall is one fully assembled draw: the pipeline to bind, the mesh
// geometry, the bind groups in slot order, and the host-side data the stage
// validates before submission. Lights, GlyphIDs, and Glyphs are only populated
// for draws whose pipelines consume them.
type DrawCall struct {
	// Pipeline is the pipeline the draw binds.
	Pipeline pipeline.Pipeline

	// Mesh holds the vertex and index buffers for the draw.
	Mesh bind_group_provider.BindGroupProvider

	// InstanceCount is the number of instances submitted.
	InstanceCount uint32

	// BindGroups lists the providers bound per group, indexed by group slot.
	BindGroups []renderer.DrawBinding

	// Lights is the light array feeding the draw's shading, when the fragment
	// pipeline declares one.
	Lights light.Array

	// GlyphIDs are the glyph indices referenced by the draw's vertices, when
	// the draw renders text.
	GlyphIDs []uint32

	// Glyphs is the glyph resource the ids index into.
	Glyphs glyph.Resource
}

// Stage is a runnable scene: a registry of nodes, batches, lights, fonts, and
// text runs bound to a camera, plus the update and render loops that drive
// them. All registry methods are safe for concurrent use.
//
// A stage built without a renderer stays host-side: entities register, slots
// are assigned, and PrepareFrame assembles buffer writes, but no GPU resources
// are created and DrawCalls does nothing. This keeps scene logic testable away
// from a device.
type Stage interface {
	// Name retrieves the stage's name, used to label its GPU resources.
	//
	// Returns:
	//   - string: the stage name
	Name() string

	// Camera retrieves the stage's camera.
	//
	// Returns:
	//   - camera.Camera: the camera, never nil
	Camera() camera.Camera

	// Renderer retrieves the attached renderer.
	//
	// Returns:
	//   - renderer.Renderer: the renderer, or nil for a host-side stage
	Renderer() renderer.Renderer

	// Window retrieves the attached window.
	//
	// Returns:
	//   - window.Window: the window, or nil when the stage runs headless
	Window() window.Window

	// Arena retrieves the transform arena nodes are slotted into.
	//
	// Returns:
	//   - node.Arena: the arena
	Arena() node.Arena

	// Lights retrieves the stage's light array.
	//
	// Returns:
	//   - light.Array: the light array
	Lights() light.Array

	// AddNode registers a node and assigns it a transform slot. The node's
	// material decides the pipeline key; the pipeline is built from the given
	// shaders on first use. A node carrying a light also claims a light slot.
	// Panics if the node or either shader is nil.
	//
	// Parameters:
	//   - n: the node to register
	//   - vertexShader: the vertex shader for the node's pipeline
	//   - fragmentShader: the fragment shader for the node's pipeline
	//   - options: optional pipeline options applied when the pipeline is first built
	//
	// Returns:
	//   - uint64: the node's stage-unique id
	//   - error: when no transform or light slot is free, or GPU wiring fails
	AddNode(n node.Node, vertexShader, fragmentShader shader.Shader, options ...pipeline.PipelineBuilderOption) (uint64, error)

	// Node retrieves a registered node by id.
	//
	// Parameters:
	//   - id: the id returned by AddNode
	//
	// Returns:
	//   - node.Node: the node, or nil when the id is unknown
	Node(id uint64) node.Node

	// Nodes retrieves all registered nodes in insertion order.
	//
	// Returns:
	//   - []node.Node: a copy of the node list
	Nodes() []node.Node

	// NodeCount retrieves the number of registered nodes.
	//
	// Returns:
	//   - int: the node count
	NodeCount() int

	// RemoveNode unregisters a node, frees its transform slot for reuse, and
	// releases its light slot if it carried one. Unknown ids are ignored.
	//
	// Parameters:
	//   - id: the id returned by AddNode
	RemoveNode(id uint64)

	// Clear removes every node and every light from the stage, returning all
	// transform and light slots. Batches, fonts, and text runs are kept.
	Clear()

	// AddLight registers a standalone light that is not attached to any node.
	//
	// Parameters:
	//   - l: the light to add
	//
	// Returns:
	//   - error: when the light array is full or the radius is negative
	AddLight(l light.Light) error

	// RemoveLight unregisters a previously added light.
	//
	// Parameters:
	//   - l: the light to remove
	//
	// Returns:
	//   - error: when the remaining lights fail validation
	RemoveLight(l light.Light) error

	// AddBatch registers an instanced batch: one mesh and material drawn once
	// per record in the returned set. The set's capacity is fixed at the
	// stage's configured instance capacity and becomes a constant of the
	// batch's pipeline. Panics if the mesh, material, or either shader is nil.
	//
	// Parameters:
	//   - name: the stage-unique batch name
	//   - msh: the mesh every instance shares
	//   - mat: the material every instance shares
	//   - vertexShader: the vertex shader for the batch's pipeline
	//   - fragmentShader: the fragment shader for the batch's pipeline
	//   - options: optional pipeline options applied when the pipeline is first built
	//
	// Returns:
	//   - instance.Set: the record set the caller fills
	//   - error: when the name is taken or GPU wiring fails
	AddBatch(name string, msh mesh.Mesh, mat material.Material, vertexShader, fragmentShader shader.Shader, options ...pipeline.PipelineBuilderOption) (instance.Set, error)

	// Batch retrieves the record set of a registered batch.
	//
	// Parameters:
	//   - name: the batch name
	//
	// Returns:
	//   - instance.Set: the set, or nil when the name is unknown
	Batch(name string) instance.Set

	// RemoveBatch unregisters a batch. Unknown names are ignored.
	//
	// Parameters:
	//   - name: the batch name
	RemoveBatch(name string)

	// RegisterTexture stores a texture for materials to reference by key. The
	// GPU texture and sampler are created lazily the first time a pipeline
	// samples the key.
	//
	// Parameters:
	//   - key: the stage-unique texture key
	//   - staging: the pixel data to upload
	//   - sampler: the sampler configuration, zero value for nearest-filtered repeat
	//
	// Returns:
	//   - error: when the key is taken or the pixel data does not match its dimensions
	RegisterTexture(key string, staging common.TextureStagingData, sampler common.SamplerStagingData) error

	// LoadFont rasterizes a font into a glyph resource and registers it under
	// the given key. Texture-array fonts honor the stage's configured glyph
	// texture count. The rasterized set covers the printable ASCII range.
	//
	// Parameters:
	//   - key: the stage-unique font key
	//   - src: the parsed font source
	//   - size: the rasterization size in pixels
	//   - mode: atlas or texture-array addressing
	//   - options: optional build options forwarded to the rasterizer
	//
	// Returns:
	//   - error: when the key is taken or rasterization fails
	LoadFont(key string, src *glyph.FontSource, size float32, mode glyph.Mode, options ...glyph.BuildOption) error

	// AddFont registers a caller-built font under the given key.
	//
	// Parameters:
	//   - key: the stage-unique font key
	//   - f: the font to register
	//
	// Returns:
	//   - error: when the key is taken or the font is nil
	AddFont(key string, f glyph.Font) error

	// Font retrieves a registered font by key.
	//
	// Parameters:
	//   - key: the font key
	//
	// Returns:
	//   - glyph.Font: the font, or nil when the key is unknown
	Font(key string) glyph.Font

	// AddText lays out a text run against a registered font and registers it
	// for drawing. The run is shaped immediately so invalid glyph indices are
	// rejected here rather than at draw time. Origin coordinates are in pixels
	// from the window's top-left corner. Panics if either shader is nil.
	//
	// Parameters:
	//   - pipelineKey: the key the text pipeline registers under
	//   - fontKey: the font the run samples
	//   - content: the text to lay out
	//   - x: the pen origin in pixels from the left edge
	//   - y: the baseline origin in pixels from the top edge
	//   - tint: the RGBA tint multiplied into every sampled texel
	//   - vertexShader: the vertex shader for the text pipeline
	//   - fragmentShader: the fragment shader for the text pipeline
	//   - options: optional pipeline options applied when the pipeline is first built
	//
	// Returns:
	//   - uint64: the run's stage-unique id
	//   - error: when the font is unknown, layout fails, or GPU wiring fails
	AddText(pipelineKey, fontKey, content string, x, y float32, tint [4]float32, vertexShader, fragmentShader shader.Shader, options ...pipeline.PipelineBuilderOption) (uint64, error)

	// SetTextContent replaces a run's text. The new content is validated
	// immediately; geometry is rebuilt on the next PrepareFrame.
	//
	// Parameters:
	//   - id: the id returned by AddText
	//   - content: the replacement text
	//
	// Returns:
	//   - error: when the id is unknown or the new content fails validation
	SetTextContent(id uint64, content string) error

	// SetTextPosition moves a run's origin. Geometry is rebuilt on the next
	// PrepareFrame.
	//
	// Parameters:
	//   - id: the id returned by AddText
	//   - x: the new pen origin in pixels from the left edge
	//   - y: the new baseline origin in pixels from the top edge
	//
	// Returns:
	//   - error: when the id is unknown
	SetTextPosition(id uint64, x, y float32) error

	// RemoveText unregisters a text run and releases its geometry buffers.
	// Unknown ids are ignored.
	//
	// Parameters:
	//   - id: the id returned by AddText
	RemoveText(id uint64)

	// PrepareFrame advances node transforms by the frame delta, syncs attached
	// light positions, rebuilds dirty text geometry, and collects every
	// coalesced buffer write for the frame: the camera block, dirty arena
	// ranges, dirty instance sets, the light array, and material parameters.
	// Transform rebuilds fan out over the stage's compute workers; the result
	// is identical to a serial pass.
	//
	// The returned slice aliases internal storage and is valid until the next
	// call; hand it to Renderer.WriteBuffers before preparing another frame.
	//
	// Parameters:
	//   - dt: seconds elapsed since the previous frame
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: the frame's buffer writes
	PrepareFrame(dt float32) []bind_group_provider.BufferWrite

	// DrawCalls assembles, validates, and submits one draw per visible node,
	// batch, and text run, in registration order. Entities that are not
	// structurally complete, such as a node without a mesh or an empty batch,
	// are skipped. Does nothing on a host-side stage.
	//
	// Returns:
	//   - error: the first validation or submission failure
	DrawCalls() error

	// ValidateDraw checks a draw against the stage's submission rules: the
	// pipeline and mesh buffers must be present, every bind group slot the
	// pipeline's shaders declare must have a provider covering all of the
	// layout's bindings, glyph ids must index inside the glyph resource, and
	// the light array must hold only non-negative radii.
	//
	// Parameters:
	//   - dc: the draw to check
	//
	// Returns:
	//   - error: nil when the draw may be submitted
	ValidateDraw(dc DrawCall) error

	// Run starts the update and render loops and blocks processing window
	// messages until the stage quits or the window closes. Panics when the
	// stage has no window or no renderer.
	Run()

	// Quit stops the loops and closes the window. Safe to call more than once
	// and from any goroutine.
	Quit()

	// SetTickRate changes the update loop frequency, immediately when the
	// stage is running.
	//
	// Parameters:
	//   - fps: ticks per second, values of zero or below fall back to 60
	SetTickRate(fps float64)

	// SetTickCallback sets the function the update loop calls every tick.
	// Must be set before Run.
	//
	// Parameters:
	//   - callback: receives the seconds elapsed since the previous tick
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback sets a function the render loop calls after each
	// frame is submitted. Must be set before Run.
	//
	// Parameters:
	//   - callback: receives the seconds elapsed since the previous frame
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit caps the render loop's frame rate.
	//
	// Parameters:
	//   - fps: the frame cap, zero or below removes it
	SetRenderFrameLimit(fps float64)

	// EnableProfiler starts per-frame profiling reports.
	EnableProfiler()

	// DisableProfiler stops per-frame profiling reports.
	DisableProfiler()
}

// batchEntry tracks one instanced batch and the provider holding its camera
// and record buffers.
type batchEntry struct {
	name        string
	msh         mesh.Mesh
	mat         material.Material
	set         instance.Set
	provider    bind_group_provider.BindGroupProvider
	pipelineKey string
}

// textEntry tracks one text run. The provider holds only the run's vertex and
// index buffers; glyph textures live on the font's provider.
type textEntry struct {
	id          uint64
	pipelineKey string
	fontKey     string
	content     string
	x, y        float32
	tint        [4]float32
	dirty       bool
	run         glyph.Run
	provider    bind_group_provider.BindGroupProvider
}

// fontEntry tracks a registered font and the provider holding its glyph
// texture and sampler. GPU initialization is deferred until the first text
// pipeline reveals the group layout.
type fontEntry struct {
	font        glyph.Font
	provider    bind_group_provider.BindGroupProvider
	initialized bool
}

// textureEntry tracks a registered surface texture. Upload and bind group
// creation are deferred until the first material pipeline samples the key.
type textureEntry struct {
	key         string
	staging     common.TextureStagingData
	sampler     common.SamplerStagingData
	provider    bind_group_provider.BindGroupProvider
	initialized bool
}

// materialEntry tracks the provider holding a material's parameter buffer
// and, for lit pipelines, the shared light array buffer.
type materialEntry struct {
	provider      bind_group_provider.BindGroupProvider
	paramsBinding int
	lightsBinding int
}

type stage struct {
	mu *sync.RWMutex

	name string
	cam  camera.Camera
	r    renderer.Renderer
	win  window.Window

	arena     node.Arena
	nodes     map[uint64]node.Node
	nodeOrder []uint64
	nextID    uint64
	freeSlots []int
	nextSlot  int

	lights     light.Array
	lightNodes []node.Node

	batches    map[string]*batchEntry
	batchOrder []string

	texts     map[uint64]*textEntry
	textOrder []uint64

	fonts    map[string]*fontEntry
	textures map[string]*textureEntry

	materials     map[material.Material]*materialEntry
	materialOrder []material.Material

	// frameProvider holds the camera block and the transform arena for node
	// pipelines. cameraProvider is whichever provider first created the camera
	// buffer; later providers share it instead of allocating their own.
	frameProvider  bind_group_provider.BindGroupProvider
	cameraProvider bind_group_provider.BindGroupProvider
	cameraBinding  int
	cameraBuffer   *wgpu.Buffer
	lightsBuffer   *wgpu.Buffer
	whiteTexture   *textureEntry

	clipTarget        camera.ClipTarget
	nodeCapacity      int
	instanceCapacity  int
	lightCount        int
	glyphTextureCount int

	// computePool manages a bounded set of reusable goroutines for the
	// parallel transform rebuild in PrepareFrame.
	computeWorkers int
	computePool    worker.DynamicWorkerPool

	writePool        []bind_group_provider.BufferWrite
	drawBindingsPool []renderer.DrawBinding

	tickRateChannel  chan time.Duration
	running          bool
	wg               sync.WaitGroup
	quitChannel      chan struct{}
	quitOnce         sync.Once
	prof             *profiler.Profiler
	profilingEnabled bool
	tickRate         time.Duration
	tickCallback     func(deltaTime float32)
	renderCallback   func(deltaTime float32)
	renderFrameLimit time.Duration
}

var _ Stage = &stage{}

// NewStage creates a stage with the given name. Without options the stage is
// host-side, carries a default camera, 1024 transform slots, 6 light slots,
// an instance capacity of 8 per batch, and a 60 Hz tick rate.
//
// Parameters:
//   - name: the stage name, used to label GPU resources
//   - options: a variadic list of options to configure the stage
//
// Returns:
//   - Stage: the configured stage
func NewStage(name string, options ...StageBuilderOption) Stage {
	s := &stage{
		mu:               &sync.RWMutex{},
		name:             name,
		nodes:            map[uint64]node.Node{},
		batches:          map[string]*batchEntry{},
		texts:            map[uint64]*textEntry{},
		fonts:            map[string]*fontEntry{},
		textures:         map[string]*textureEntry{},
		materials:        map[material.Material]*materialEntry{},
		nextID:           1,
		clipTarget:       camera.ClipTargetWebGPU,
		nodeCapacity:     DefaultNodeCapacity,
		instanceCapacity: instance.DefaultCapacity,
		lightCount:       light.MaxLights,
		computeWorkers:   max(runtime.NumCPU()-1, 1),
		writePool:        make([]bind_group_provider.BufferWrite, 0, 16),
		drawBindingsPool: make([]renderer.DrawBinding, 0, 3),
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		prof:             profiler.NewProfiler(),
		tickRate:         time.Second / 60,
	}

	for _, option := range options {
		option(s)
	}

	if s.instanceCapacity <= 0 {
		panic(fmt.Sprintf("stage: instance capacity must be positive, got %d", s.instanceCapacity))
	}
	if s.glyphTextureCount < 0 {
		panic(fmt.Sprintf("stage: glyph texture count must not be negative, got %d", s.glyphTextureCount))
	}

	if s.cam == nil {
		s.cam = camera.NewCamera(camera.WithClipTarget(s.clipTarget))
	}
	s.arena = node.NewArena(s.nodeCapacity)
	s.lights = light.NewArray(light.WithArrayCapacity(s.lightCount))

	// Initialize the compute pool after options so WithComputeWorkers can
	// override the default. Queue size of 256 accommodates typical chunk
	// counts with headroom.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)

	if s.win != nil {
		s.win.SetResizeCallback(func(width, height int) {
			if s.r != nil {
				s.r.Resize(width, height)
			}
			if height > 0 {
				s.cam.SetAspect(float32(width) / float32(height))
			}
		})
	}

	return s
}

func (s *stage) Name() string {
	return s.name
}

func (s *stage) Camera() camera.Camera {
	return s.cam
}

func (s *stage) Renderer() renderer.Renderer {
	return s.r
}

func (s *stage) Window() window.Window {
	return s.win
}

func (s *stage) Arena() node.Arena {
	return s.arena
}

func (s *stage) Lights() light.Array {
	return s.lights
}

func (s *stage) AddNode(n node.Node, vertexShader, fragmentShader shader.Shader, options ...pipeline.PipelineBuilderOption) (uint64, error) {
	if n == nil {
		panic("stage: cannot add a nil node")
	}
	if vertexShader == nil || fragmentShader == nil {
		panic("stage: node pipelines need both a vertex and a fragment shader")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFrameProviderLocked(vertexShader); err != nil {
		return 0, err
	}
	if mat := n.Material(); mat != nil {
		if mat.PipelineKey() == "" {
			return 0, fmt.Errorf("material %q has no pipeline key", mat.Name())
		}
		if err := s.ensureMaterialLocked(mat, fragmentShader); err != nil {
			return 0, err
		}
		if err := s.ensureTextureLocked(mat.TextureKey(), fragmentShader); err != nil {
			return 0, err
		}
		if err := s.registerPipelineLocked(mat.PipelineKey(), vertexShader, fragmentShader, options...); err != nil {
			return 0, err
		}
	}
	if msh := n.Mesh(); msh != nil {
		if err := s.ensureMeshLocked(msh); err != nil {
			return 0, err
		}
	}

	slot, err := s.takeSlotLocked()
	if err != nil {
		return 0, err
	}
	if l := n.Light(); l != nil {
		if err := s.lights.Add(l); err != nil {
			s.freeSlots = append(s.freeSlots, slot)
			return 0, fmt.Errorf("add light for node in stage %q: %w", s.name, err)
		}
		s.lightNodes = append(s.lightNodes, n)
	}

	id := s.nextID
	s.nextID++
	n.SetID(id)
	n.SetIndex(slot)
	n.SetDirty(true)
	s.nodes[id] = n
	s.nodeOrder = append(s.nodeOrder, id)

	return id, nil
}

func (s *stage) Node(id uint64) node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[id]
}

func (s *stage) Nodes() []node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]node.Node, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		out = append(out, s.nodes[id])
	}
	return out
}

func (s *stage) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodeOrder)
}

func (s *stage) RemoveNode(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return
	}
	delete(s.nodes, id)
	for i, other := range s.nodeOrder {
		if other == id {
			s.nodeOrder = append(s.nodeOrder[:i], s.nodeOrder[i+1:]...)
			break
		}
	}
	if idx := n.Index(); idx >= 0 {
		s.freeSlots = append(s.freeSlots, idx)
		n.SetIndex(-1)
	}
	if l := n.Light(); l != nil {
		s.removeLightLocked(l)
		for i, other := range s.lightNodes {
			if other == n {
				s.lightNodes = append(s.lightNodes[:i], s.lightNodes[i+1:]...)
				break
			}
		}
	}
}

func (s *stage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.nodes {
		n.SetIndex(-1)
	}
	s.nodes = map[uint64]node.Node{}
	s.nodeOrder = s.nodeOrder[:0]
	s.freeSlots = s.freeSlots[:0]
	s.nextSlot = 0
	s.lights.Clear()
	s.lightNodes = s.lightNodes[:0]
}

func (s *stage) AddLight(l light.Light) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lights.Add(l)
}

func (s *stage) RemoveLight(l light.Light) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLightLocked(l)
}

func (s *stage) AddBatch(name string, msh mesh.Mesh, mat material.Material, vertexShader, fragmentShader shader.Shader, options ...pipeline.PipelineBuilderOption) (instance.Set, error) {
	if msh == nil || mat == nil {
		panic("stage: cannot add a batch without a mesh and a material")
	}
	if vertexShader == nil || fragmentShader == nil {
		panic("stage: batch pipelines need both a vertex and a fragment shader")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.batches[name]; exists {
		return nil, fmt.Errorf("batch %q already exists in stage %q", name, s.name)
	}
	if mat.PipelineKey() == "" {
		return nil, fmt.Errorf("material %q has no pipeline key", mat.Name())
	}

	camGroup, camBinding, ok := declarationFor(vertexShader, shader.AnnotationArgCamera)
	if !ok {
		return nil, fmt.Errorf("vertex shader %q declares no camera block", vertexShader.Key())
	}
	recGroup, recBinding, ok := declarationFor(vertexShader, shader.AnnotationArgInstanceRecord)
	if !ok {
		return nil, fmt.Errorf("vertex shader %q declares no instance records", vertexShader.Key())
	}
	if recGroup != camGroup {
		return nil, fmt.Errorf("vertex shader %q splits camera and instance records across groups %d and %d", vertexShader.Key(), camGroup, recGroup)
	}
	if recBinding != instance.RecordBinding {
		return nil, fmt.Errorf("vertex shader %q binds instance records at %d, sets flush to binding %d", vertexShader.Key(), recBinding, instance.RecordBinding)
	}

	set := instance.NewSet(instance.WithCapacity(s.instanceCapacity))
	provider := bind_group_provider.NewBindGroupProvider(s.name + "_batch_" + name)
	if s.cameraBuffer != nil {
		provider.SetBuffer(camBinding, s.cameraBuffer)
	}
	if s.r != nil {
		var rec instance.GPUInstanceRecord
		sizeOverrides := map[int]uint64{recBinding: uint64(set.Capacity()) * uint64(rec.Size())}
		if err := s.r.InitBindGroup(provider, vertexShader.BindGroupLayoutDescriptor(camGroup), nil, sizeOverrides); err != nil {
			return nil, fmt.Errorf("init bind group for batch %q in stage %q: %w", name, s.name, err)
		}
		if s.cameraBuffer == nil {
			s.cameraBuffer = provider.Buffer(camBinding)
		}
	}
	if s.cameraProvider == nil {
		s.cameraProvider = provider
		s.cameraBinding = camBinding
	}
	set.SetBindGroupProvider(provider)

	if err := s.ensureMaterialLocked(mat, fragmentShader); err != nil {
		return nil, err
	}
	if err := s.ensureTextureLocked(mat.TextureKey(), fragmentShader); err != nil {
		return nil, err
	}
	if err := s.ensureMeshLocked(msh); err != nil {
		return nil, err
	}
	if err := s.registerPipelineLocked(mat.PipelineKey(), vertexShader, fragmentShader, options...); err != nil {
		return nil, err
	}

	s.batches[name] = &batchEntry{
		name:        name,
		msh:         msh,
		mat:         mat,
		set:         set,
		provider:    provider,
		pipelineKey: mat.PipelineKey(),
	}
	s.batchOrder = append(s.batchOrder, name)

	return set, nil
}

func (s *stage) Batch(name string) instance.Set {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.batches[name]
	if !ok {
		return nil
	}
	return b.set
}

func (s *stage) RemoveBatch(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.batches[name]; !ok {
		return
	}
	delete(s.batches, name)
	for i, other := range s.batchOrder {
		if other == name {
			s.batchOrder = append(s.batchOrder[:i], s.batchOrder[i+1:]...)
			break
		}
	}
}

func (s *stage) RegisterTexture(key string, staging common.TextureStagingData, sampler common.SamplerStagingData) error {
	if key == "" {
		return fmt.Errorf("texture key must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.textures[key]; exists {
		return fmt.Errorf("texture %q already registered in stage %q", key, s.name)
	}
	expected := uint64(staging.Width) * uint64(staging.Height) * uint64(staging.BytesPerPixel()) * uint64(staging.LayerCount())
	if uint64(len(staging.Pixels)) != expected {
		return fmt.Errorf("texture %q holds %d bytes, dimensions require %d", key, len(staging.Pixels), expected)
	}

	s.textures[key] = &textureEntry{
		key:      key,
		staging:  staging,
		sampler:  sampler,
		provider: bind_group_provider.NewBindGroupProvider(s.name + "_texture_" + key),
	}
	return nil
}

func (s *stage) LoadFont(key string, src *glyph.FontSource, size float32, mode glyph.Mode, options ...glyph.BuildOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fonts[key]; exists {
		return fmt.Errorf("font %q already loaded in stage %q", key, s.name)
	}

	var f glyph.Font
	var err error
	switch mode {
	case glyph.ModeAtlas:
		f, err = glyph.BuildAtlas(src, size, glyph.DefaultRunes(), options...)
	default:
		if s.glyphTextureCount > 0 {
			options = append([]glyph.BuildOption{glyph.WithTextureCount(s.glyphTextureCount)}, options...)
		}
		f, err = glyph.BuildArray(src, size, glyph.DefaultRunes(), options...)
	}
	if err != nil {
		return fmt.Errorf("build font %q for stage %q: %w", key, s.name, err)
	}

	s.fonts[key] = &fontEntry{
		font:     f,
		provider: bind_group_provider.NewBindGroupProvider(s.name + "_font_" + key),
	}
	return nil
}

func (s *stage) AddFont(key string, f glyph.Font) error {
	if f == nil {
		return fmt.Errorf("font %q is nil", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fonts[key]; exists {
		return fmt.Errorf("font %q already loaded in stage %q", key, s.name)
	}
	s.fonts[key] = &fontEntry{
		font:     f,
		provider: bind_group_provider.NewBindGroupProvider(s.name + "_font_" + key),
	}
	return nil
}

func (s *stage) Font(key string) glyph.Font {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.fonts[key]
	if !ok {
		return nil
	}
	return f.font
}

func (s *stage) AddText(pipelineKey, fontKey, content string, x, y float32, tint [4]float32, vertexShader, fragmentShader shader.Shader, options ...pipeline.PipelineBuilderOption) (uint64, error) {
	if vertexShader == nil || fragmentShader == nil {
		panic("stage: text pipelines need both a vertex and a fragment shader")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.fonts[fontKey]
	if !ok {
		return 0, fmt.Errorf("font %q is not loaded in stage %q: %w", fontKey, s.name, ErrMissingBinding)
	}

	// Shape immediately so bad runs fail at the API boundary instead of
	// surfacing as a skipped draw.
	run, err := glyph.Layout(content, f.font, x, y, tint)
	if err != nil {
		return 0, fmt.Errorf("lay out text for stage %q: %w", s.name, err)
	}
	if err := glyph.ValidateRun(run.IDs, f.font); err != nil {
		return 0, fmt.Errorf("text run rejected for stage %q: %w", s.name, err)
	}

	if err := s.ensureFontLocked(f, fragmentShader); err != nil {
		return 0, err
	}
	if err := s.registerPipelineLocked(pipelineKey, vertexShader, fragmentShader, options...); err != nil {
		return 0, err
	}

	id := s.nextID
	s.nextID++
	t := &textEntry{
		id:          id,
		pipelineKey: pipelineKey,
		fontKey:     fontKey,
		content:     content,
		x:           x,
		y:           y,
		tint:        tint,
		dirty:       true,
		provider:    bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s_text_%d", s.name, id)),
	}
	s.texts[id] = t
	s.textOrder = append(s.textOrder, id)

	return id, nil
}

func (s *stage) SetTextContent(id uint64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.texts[id]
	if !ok {
		return fmt.Errorf("text %d is not registered in stage %q", id, s.name)
	}
	if t.content == content {
		return nil
	}

	f, ok := s.fonts[t.fontKey]
	if !ok {
		return fmt.Errorf("font %q is not loaded in stage %q: %w", t.fontKey, s.name, ErrMissingBinding)
	}
	run, err := glyph.Layout(content, f.font, t.x, t.y, t.tint)
	if err != nil {
		return fmt.Errorf("lay out text %d for stage %q: %w", id, s.name, err)
	}
	if err := glyph.ValidateRun(run.IDs, f.font); err != nil {
		return fmt.Errorf("text run rejected for stage %q: %w", s.name, err)
	}

	t.content = content
	t.dirty = true
	return nil
}

func (s *stage) SetTextPosition(id uint64, x, y float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.texts[id]
	if !ok {
		return fmt.Errorf("text %d is not registered in stage %q", id, s.name)
	}
	if t.x == x && t.y == y {
		return nil
	}
	t.x = x
	t.y = y
	t.dirty = true
	return nil
}

func (s *stage) RemoveText(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.texts[id]
	if !ok {
		return
	}
	delete(s.texts, id)
	for i, other := range s.textOrder {
		if other == id {
			s.textOrder = append(s.textOrder[:i], s.textOrder[i+1:]...)
			break
		}
	}
	releaseTextGeometry(t.provider)
}

func (s *stage) PrepareFrame(dt float32) []bind_group_provider.BufferWrite {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cam.Update()

	// Phase 1: parallel transform rebuild. Node ranges are chunked across the
	// compute pool; workers are reused across frames. A WaitGroup provides
	// per-frame barrier sync since pool.Wait() blocks until workers idle-exit
	// which is unsuitable for frame-rate workloads. Each slot is written by
	// exactly one worker, so the arena contents never depend on scheduling.
	order := s.nodeOrder
	if len(order) > 0 {
		workers := min(s.computeWorkers, len(order))
		chunk := (len(order) + workers - 1) / workers
		var wg sync.WaitGroup
		taskID := 0
		for start := 0; start < len(order); start += chunk {
			lo, hi := start, min(start+chunk, len(order))
			wg.Add(1)
			id := taskID
			taskID++
			s.computePool.SubmitTask(worker.Task{
				ID: id,
				Do: func() (any, error) {
					defer wg.Done()
					for _, nodeID := range order[lo:hi] {
						n := s.nodes[nodeID]
						if n == nil || !n.Enabled() {
							continue
						}
						n.Advance(dt)
						if !n.Dirty() {
							continue
						}
						if err := s.arena.Set(n.Index(), n.Transform()); err != nil {
							continue
						}
						n.SetDirty(false)
					}
					return nil, nil
				},
			})
		}
		wg.Wait()
	}

	// Phase 2: sync attached light positions from their nodes.
	for _, n := range s.lightNodes {
		if l := n.Light(); l != nil && n.Enabled() {
			x, y, z := n.Position()
			l.SetPosition(x, y, z)
		}
	}

	// Phase 3: rebuild dirty text geometry.
	for _, id := range s.textOrder {
		if t := s.texts[id]; t.dirty {
			s.rebuildTextLocked(t)
		}
	}

	// Phase 4: collect the frame's buffer writes.
	allWrites := s.writePool[:0]
	if s.cameraProvider != nil {
		block := s.cam.Block()
		allWrites = append(allWrites, bind_group_provider.BufferWrite{
			Provider: s.cameraProvider,
			Binding:  s.cameraBinding,
			Data:     block.Marshal(),
		})
	}
	allWrites = append(allWrites, s.arena.Flush()...)
	for _, name := range s.batchOrder {
		allWrites = append(allWrites, s.batches[name].set.Flush()...)
	}
	// The light array only gains a provider once a lit material is wired, so
	// its writes would have nowhere to land before that.
	if s.lights.BindGroupProvider() != nil {
		allWrites = append(allWrites, s.lights.Flush()...)
	}
	for _, mat := range s.materialOrder {
		entry := s.materials[mat]
		params := mat.Params()
		allWrites = append(allWrites, bind_group_provider.BufferWrite{
			Provider: entry.provider,
			Binding:  entry.paramsBinding,
			Data:     params.Marshal(),
		})
	}
	s.writePool = allWrites

	return allWrites
}

func (s *stage) DrawCalls() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.r == nil {
		return nil
	}

	for _, id := range s.nodeOrder {
		n := s.nodes[id]
		if n == nil || !n.Enabled() {
			continue
		}
		dc, ok, err := s.buildNodeDrawLocked(n)
		if err != nil {
			return fmt.Errorf("draw call failed for node %d in stage %q: %w", id, s.name, err)
		}
		if !ok {
			continue
		}
		if err := s.submitLocked(dc); err != nil {
			return fmt.Errorf("draw call failed for node %d in stage %q: %w", id, s.name, err)
		}
	}

	for _, name := range s.batchOrder {
		b := s.batches[name]
		dc, ok, err := s.buildBatchDrawLocked(b)
		if err != nil {
			return fmt.Errorf("draw call failed for batch %q in stage %q: %w", name, s.name, err)
		}
		if !ok {
			continue
		}
		if err := s.submitLocked(dc); err != nil {
			return fmt.Errorf("draw call failed for batch %q in stage %q: %w", name, s.name, err)
		}
	}

	for _, id := range s.textOrder {
		t := s.texts[id]
		dc, ok, err := s.buildTextDrawLocked(t)
		if err != nil {
			return fmt.Errorf("draw call failed for text %d in stage %q: %w", id, s.name, err)
		}
		if !ok {
			continue
		}
		if err := s.submitLocked(dc); err != nil {
			return fmt.Errorf("draw call failed for text %d in stage %q: %w", id, s.name, err)
		}
	}

	return nil
}

func (s *stage) ValidateDraw(dc DrawCall) error {
	if dc.Pipeline == nil {
		return fmt.Errorf("draw has no pipeline: %w", ErrMissingBinding)
	}
	key := dc.Pipeline.PipelineKey()
	if dc.Mesh == nil || dc.Mesh.VertexBuffer() == nil || dc.Mesh.IndexBuffer() == nil {
		return fmt.Errorf("pipeline %q draw has no mesh buffers: %w", key, ErrMissingBinding)
	}

	if dc.Lights != nil {
		if err := dc.Lights.Validate(); err != nil {
			return fmt.Errorf("pipeline %q draw: %w", key, err)
		}
	}
	if len(dc.GlyphIDs) > 0 {
		if dc.Glyphs == nil {
			return fmt.Errorf("pipeline %q draw carries glyph ids but no glyph resource: %w", key, ErrMissingBinding)
		}
		if err := glyph.ValidateRun(dc.GlyphIDs, dc.Glyphs); err != nil {
			return fmt.Errorf("pipeline %q draw: %w", key, err)
		}
	}

	shaders := []shader.Shader{
		dc.Pipeline.Shader(shader.ShaderTypeVertex),
		dc.Pipeline.Shader(shader.ShaderTypeFragment),
	}

	// Every group slot either shader declares must be covered.
	groupCount := 0
	for _, sh := range shaders {
		if sh == nil {
			continue
		}
		for g := range sh.BindGroupLayoutDescriptors() {
			groupCount = max(groupCount, g+1)
		}
	}
	if len(dc.BindGroups) < groupCount {
		return fmt.Errorf("pipeline %q draw binds %d groups, shaders declare %d: %w", key, len(dc.BindGroups), groupCount, ErrMissingBinding)
	}

	for slot, db := range dc.BindGroups {
		if db.Provider == nil {
			return fmt.Errorf("pipeline %q group %d has no provider: %w", key, slot, ErrMissingBinding)
		}
		for _, sh := range shaders {
			if sh == nil {
				continue
			}
			desc := sh.BindGroupLayoutDescriptor(slot)
			if len(desc.Entries) == 0 {
				continue
			}
			if missing := db.Provider.MissingBindings(desc); len(missing) > 0 {
				return fmt.Errorf("pipeline %q group %d is missing bindings %v: %w", key, slot, missing, ErrMissingBinding)
			}
		}
	}

	return nil
}

func (s *stage) Run() {
	if s.win == nil {
		panic(fmt.Sprintf("stage: stage %q needs a window to run", s.name))
	}
	if s.r == nil {
		panic(fmt.Sprintf("stage: stage %q needs a renderer to run", s.name))
	}

	s.running = true
	s.handle()
	s.win.ProcessMessages()
	s.signalQuit()
	s.wg.Wait()
}

func (s *stage) Quit() {
	if s.win != nil {
		s.win.Close()
	}
	s.signalQuit()
}

func (s *stage) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	rate := time.Duration(float64(time.Second) / fps)
	if s.running {
		select {
		case s.tickRateChannel <- rate:
		default:
			// Drain a pending unconsumed rate and replace it.
			select {
			case <-s.tickRateChannel:
			default:
			}
			s.tickRateChannel <- rate
		}
		return
	}
	s.tickRate = rate
}

func (s *stage) SetTickCallback(callback func(deltaTime float32)) {
	s.tickCallback = callback
}

func (s *stage) SetRenderCallback(callback func(deltaTime float32)) {
	s.renderCallback = callback
}

func (s *stage) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		s.renderFrameLimit = 0
		return
	}
	s.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (s *stage) EnableProfiler() {
	s.profilingEnabled = true
}

func (s *stage) DisableProfiler() {
	s.profilingEnabled = false
}

// handle starts the update, render, and quit goroutines.
func (s *stage) handle() {
	s.wg.Add(3)
	go s.handleUpdate()
	go s.handleRender()
	go s.handleQuit()
}

// handleUpdate runs the fixed-tick loop, invoking the tick callback and
// honoring live tick rate changes.
func (s *stage) handleUpdate() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickRate)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-s.quitChannel:
			return
		case now := <-ticker.C:
			deltaTime := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			if s.tickCallback != nil {
				s.tickCallback(deltaTime)
			}
		case rate := <-s.tickRateChannel:
			ticker.Reset(rate)
		}
	}
}

// handleRender runs the render loop: prepare and upload frame data, submit
// draw calls, present, then apply the optional frame limit. A panic in frame
// code is logged and quits the stage instead of crashing the process.
func (s *stage) handleRender() {
	defer s.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			Logger().Error("render loop recovered from panic", "stage", s.name, "panic", rec)
			s.signalQuit()
		}
	}()

	lastRender := time.Now()
	for {
		select {
		case <-s.quitChannel:
			return
		default:
			now := time.Now()
			deltaTime := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			writes := s.PrepareFrame(deltaTime)
			s.r.WriteBuffers(writes)

			if err := s.r.BeginFrame(); err == nil {
				if err := s.DrawCalls(); err != nil {
					Logger().Error("draw calls failed", "stage", s.name, "error", err)
				}
				s.r.EndFrame()
				s.r.Present()
			}

			if s.renderCallback != nil {
				s.renderCallback(deltaTime)
			}
			if s.profilingEnabled {
				// Reports follow the package logger, including installs that
				// happen after the stage was built.
				s.prof.SetLogger(Logger())
				s.prof.Tick()
			}
			if s.renderFrameLimit > 0 {
				if remaining := s.renderFrameLimit - time.Since(lastRender); remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// handleQuit holds the wait group open until a quit is signaled, so Run does
// not return while the stage is still live.
func (s *stage) handleQuit() {
	defer s.wg.Done()
	<-s.quitChannel
}

func (s *stage) signalQuit() {
	s.quitOnce.Do(func() {
		s.running = false
		close(s.quitChannel)
	})
}

// takeSlotLocked claims a transform slot, preferring freed slots over fresh
// ones.
func (s *stage) takeSlotLocked() (int, error) {
	if n := len(s.freeSlots); n > 0 {
		slot := s.freeSlots[n-1]
		s.freeSlots = s.freeSlots[:n-1]
		return slot, nil
	}
	if s.nextSlot >= s.arena.Capacity() {
		return 0, fmt.Errorf("stage %q has no free transform slot, capacity %d: %w", s.name, s.arena.Capacity(), node.ErrIndexRange)
	}
	slot := s.nextSlot
	s.nextSlot++
	return slot, nil
}

func (s *stage) removeLightLocked(l light.Light) error {
	remaining := s.lights.Lights()
	for i, other := range remaining {
		if other == l {
			remaining = append(remaining[:i], remaining[i+1:]...)
			return s.lights.SetLights(remaining)
		}
	}
	return nil
}

// ensureFrameProviderLocked creates the provider shared by all node pipelines,
// holding the camera block and the transform arena, sized for the arena's full
// backing store.
func (s *stage) ensureFrameProviderLocked(vertexShader shader.Shader) error {
	if s.frameProvider != nil {
		return nil
	}

	camGroup, camBinding, ok := declarationFor(vertexShader, shader.AnnotationArgCamera)
	if !ok {
		return fmt.Errorf("vertex shader %q declares no camera block", vertexShader.Key())
	}
	nodeGroup, nodeBinding, hasNode := declarationFor(vertexShader, shader.AnnotationArgNodeTransform)
	if hasNode {
		if nodeGroup != camGroup {
			return fmt.Errorf("vertex shader %q splits camera and node transforms across groups %d and %d", vertexShader.Key(), camGroup, nodeGroup)
		}
		if nodeBinding != node.TransformBinding {
			return fmt.Errorf("vertex shader %q binds node transforms at %d, the arena flushes to binding %d", vertexShader.Key(), nodeBinding, node.TransformBinding)
		}
	}

	provider := bind_group_provider.NewBindGroupProvider(s.name + "_frame")
	if s.cameraBuffer != nil {
		provider.SetBuffer(camBinding, s.cameraBuffer)
	}
	if s.r != nil {
		var sizeOverrides map[int]uint64
		if hasNode {
			sizeOverrides = map[int]uint64{nodeBinding: s.arena.Size()}
		}
		if err := s.r.InitBindGroup(provider, vertexShader.BindGroupLayoutDescriptor(camGroup), nil, sizeOverrides); err != nil {
			return fmt.Errorf("init frame bind group for stage %q: %w", s.name, err)
		}
		if s.cameraBuffer == nil {
			s.cameraBuffer = provider.Buffer(camBinding)
		}
	}
	if s.cameraProvider == nil {
		s.cameraProvider = provider
		s.cameraBinding = camBinding
	}

	s.frameProvider = provider
	s.cam.SetBindGroupProvider(provider)
	s.arena.SetBindGroupProvider(provider)
	return nil
}

// ensureMaterialLocked creates the provider holding a material's parameter
// buffer. The first lit material's provider also owns the light array buffer;
// later lit materials share it.
func (s *stage) ensureMaterialLocked(mat material.Material, fragmentShader shader.Shader) error {
	if _, exists := s.materials[mat]; exists {
		return nil
	}

	group, paramsBinding, ok := declarationFor(fragmentShader, shader.AnnotationArgMaterialParams)
	if !ok {
		// The pipeline consumes no material parameters, nothing to wire.
		return nil
	}

	provider := bind_group_provider.NewBindGroupProvider(s.name + "_material_" + mat.Name())
	lightsBinding := -1
	if lg, lb, hasLights := declarationFor(fragmentShader, shader.AnnotationArgLightRecord); hasLights && lg == group {
		if lb != light.ArrayBinding {
			return fmt.Errorf("fragment shader %q binds lights at %d, the array flushes to binding %d", fragmentShader.Key(), lb, light.ArrayBinding)
		}
		lightsBinding = lb
		if s.lightsBuffer != nil {
			provider.SetBuffer(lb, s.lightsBuffer)
		}
	}

	if s.r != nil {
		if err := s.r.InitBindGroup(provider, fragmentShader.BindGroupLayoutDescriptor(group), nil, nil); err != nil {
			return fmt.Errorf("init material bind group for %q in stage %q: %w", mat.Name(), s.name, err)
		}
		if lightsBinding >= 0 && s.lightsBuffer == nil {
			s.lightsBuffer = provider.Buffer(lightsBinding)
		}
	}
	if lightsBinding >= 0 && s.lights.BindGroupProvider() == nil {
		s.lights.SetBindGroupProvider(provider)
	}

	s.materials[mat] = &materialEntry{
		provider:      provider,
		paramsBinding: paramsBinding,
		lightsBinding: lightsBinding,
	}
	s.materialOrder = append(s.materialOrder, mat)
	return nil
}

// ensureTextureLocked resolves the texture a material samples, falling back to
// the built-in white texture for an empty key, and initializes it against the
// pipeline's texture group layout on first use.
func (s *stage) ensureTextureLocked(key string, fragmentShader shader.Shader) error {
	group, ok := providerGroupFor(fragmentShader, shader.AnnotationArgTexture)
	if !ok {
		// The pipeline samples no surface texture, nothing to wire.
		return nil
	}

	entry := s.textures[key]
	if key == "" {
		entry = s.ensureWhiteTextureLocked()
	}
	if entry == nil {
		return fmt.Errorf("texture %q is not registered in stage %q: %w", key, s.name, ErrMissingBinding)
	}
	return s.initTextureEntryLocked(entry, fragmentShader, group)
}

// ensureWhiteTextureLocked lazily creates the 1x1 white texture materials
// without a texture key sample, keeping untextured and textured draws on the
// same pipeline layout.
func (s *stage) ensureWhiteTextureLocked() *textureEntry {
	if s.whiteTexture == nil {
		s.whiteTexture = &textureEntry{
			staging: common.TextureStagingData{
				Pixels: []byte{255, 255, 255, 255},
				Width:  1,
				Height: 1,
			},
			provider: bind_group_provider.NewBindGroupProvider(s.name + "_texture_white"),
		}
	}
	return s.whiteTexture
}

func (s *stage) initTextureEntryLocked(entry *textureEntry, fragmentShader shader.Shader, group int) error {
	if s.r == nil || entry.initialized {
		return nil
	}

	desc := fragmentShader.BindGroupLayoutDescriptor(group)
	texBinding, sampBinding := textureSamplerBindings(fragmentShader, group, desc)
	if texBinding < 0 || sampBinding < 0 {
		return fmt.Errorf("fragment shader %q group %d lacks a texture and sampler binding pair", fragmentShader.Key(), group)
	}

	name := entry.key
	if name == "" {
		name = "white"
	}
	if err := s.r.InitTextureView(entry.provider, texBinding, entry.staging); err != nil {
		return fmt.Errorf("upload texture %q for stage %q: %w", name, s.name, err)
	}
	if err := s.r.InitSampler(entry.provider, sampBinding, entry.sampler); err != nil {
		return fmt.Errorf("create sampler for texture %q in stage %q: %w", name, s.name, err)
	}
	if err := s.r.InitBindGroup(entry.provider, desc, nil, nil); err != nil {
		return fmt.Errorf("init bind group for texture %q in stage %q: %w", name, s.name, err)
	}
	entry.initialized = true
	return nil
}

// ensureFontLocked uploads a font's glyph texture and builds its bind group
// against the first text pipeline that samples it.
func (s *stage) ensureFontLocked(f *fontEntry, fragmentShader shader.Shader) error {
	group, ok := providerGroupFor(fragmentShader, shader.AnnotationArgGlyph)
	if !ok {
		return fmt.Errorf("fragment shader %q declares no glyph provider", fragmentShader.Key())
	}
	if s.r == nil || f.initialized {
		return nil
	}

	desc := fragmentShader.BindGroupLayoutDescriptor(group)
	texBinding, sampBinding := textureSamplerBindings(fragmentShader, group, desc)
	if texBinding < 0 || sampBinding < 0 {
		return fmt.Errorf("fragment shader %q group %d lacks a texture and sampler binding pair", fragmentShader.Key(), group)
	}

	if err := s.r.InitTextureView(f.provider, texBinding, f.font.StagingData()); err != nil {
		return fmt.Errorf("upload glyph texture for stage %q: %w", s.name, err)
	}
	// Nearest filtering keeps GPU glyph fetches aligned with the CPU
	// reference sampler; layout places quads on integer pixels, so there is
	// nothing for linear filtering to smooth at 1:1 scale.
	sampler := common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
	}
	if err := s.r.InitSampler(f.provider, sampBinding, sampler); err != nil {
		return fmt.Errorf("create glyph sampler for stage %q: %w", s.name, err)
	}
	if err := s.r.InitBindGroup(f.provider, desc, nil, nil); err != nil {
		return fmt.Errorf("init glyph bind group for stage %q: %w", s.name, err)
	}
	f.initialized = true
	return nil
}

func (s *stage) ensureMeshLocked(msh mesh.Mesh) error {
	if msh.BindGroupProvider() == nil {
		msh.SetBindGroupProvider(bind_group_provider.NewBindGroupProvider(msh.Name() + "_mesh"))
	}
	provider := msh.BindGroupProvider()
	if s.r == nil || provider.VertexBuffer() != nil {
		return nil
	}
	if err := s.r.InitMeshBuffers(provider, msh.VertexData(), msh.IndexData(), msh.IndexCount()); err != nil {
		return fmt.Errorf("init mesh buffers for %q in stage %q: %w", msh.Name(), s.name, err)
	}
	return nil
}

func (s *stage) registerPipelineLocked(key string, vertexShader, fragmentShader shader.Shader, options ...pipeline.PipelineBuilderOption) error {
	if s.r == nil || s.r.Pipeline(key) != nil {
		return nil
	}
	opts := append([]pipeline.PipelineBuilderOption{
		pipeline.WithVertexShader(vertexShader),
		pipeline.WithFragmentShader(fragmentShader),
	}, options...)
	if err := s.r.RegisterPipelines(pipeline.NewPipeline(key, opts...)); err != nil {
		return fmt.Errorf("register pipeline %q for stage %q: %w", key, s.name, err)
	}
	return nil
}

// rebuildTextLocked re-lays a dirty run out and replaces its geometry buffers.
// Failures keep the previous geometry and are logged, since PrepareFrame has
// no error path.
func (s *stage) rebuildTextLocked(t *textEntry) {
	t.dirty = false

	f, ok := s.fonts[t.fontKey]
	if !ok {
		Logger().Warn("text references an unloaded font", "stage", s.name, "font", t.fontKey)
		return
	}
	run, err := glyph.Layout(t.content, f.font, t.x, t.y, t.tint)
	if err != nil {
		Logger().Error("text layout failed", "stage", s.name, "error", err)
		return
	}
	if err := glyph.ValidateRun(run.IDs, f.font); err != nil {
		Logger().Error("text run rejected", "stage", s.name, "error", err)
		return
	}
	if s.win != nil {
		glyph.ToClipSpace(run.Vertices, float32(s.win.Width()), float32(s.win.Height()))
	}
	t.run = run

	if s.r == nil || len(run.Vertices) == 0 {
		return
	}
	releaseTextGeometry(t.provider)
	indexData, indexCount := sequentialIndices(len(run.Vertices))
	if err := s.r.InitMeshBuffers(t.provider, glyph.MarshalVertices(run.Vertices), indexData, indexCount); err != nil {
		Logger().Error("text geometry upload failed", "stage", s.name, "error", err)
	}
}

// submitLocked validates an assembled draw and hands it to the renderer.
func (s *stage) submitLocked(dc DrawCall) error {
	if err := s.ValidateDraw(dc); err != nil {
		return err
	}
	return s.r.DrawCall(dc.Pipeline.PipelineKey(), dc.Mesh, dc.InstanceCount, dc.BindGroups)
}

// drawSources routes shader declarations to the providers satisfying them for
// one draw. uniform covers the camera-bearing group: the frame provider for
// node draws, the batch provider for instanced draws.
type drawSources struct {
	uniform  renderer.DrawBinding
	material renderer.DrawBinding
	texture  renderer.DrawBinding
	glyphs   renderer.DrawBinding
}

func (s *stage) buildNodeDrawLocked(n node.Node) (DrawCall, bool, error) {
	msh, mat := n.Mesh(), n.Material()
	if msh == nil || mat == nil {
		return DrawCall{}, false, nil
	}
	meshProvider := msh.BindGroupProvider()
	if meshProvider == nil || meshProvider.VertexBuffer() == nil {
		return DrawCall{}, false, nil
	}
	rp := s.r.Pipeline(mat.PipelineKey())
	if rp == nil {
		return DrawCall{}, false, fmt.Errorf("pipeline %q is not registered: %w", mat.PipelineKey(), ErrMissingBinding)
	}

	// The slot index feeds the dynamic offset, so an out-of-range slot must
	// be caught before the offset math reaches the GPU.
	idx := n.Index()
	if idx < 0 || idx >= s.arena.Capacity() {
		return DrawCall{}, false, fmt.Errorf("transform slot %d with capacity %d: %w", idx, s.arena.Capacity(), node.ErrIndexRange)
	}

	vs := rp.Shader(shader.ShaderTypeVertex)
	fs := rp.Shader(shader.ShaderTypeFragment)

	var matProvider bind_group_provider.BindGroupProvider
	if entry := s.materials[mat]; entry != nil {
		matProvider = entry.provider
	}
	groups, err := s.assembleGroupsLocked(vs, fs, drawSources{
		uniform:  renderer.DrawBinding{Provider: s.frameProvider, DynamicOffsets: []uint32{s.arena.DynamicOffset(idx)}},
		material: renderer.DrawBinding{Provider: matProvider},
		texture:  renderer.DrawBinding{Provider: s.textureProviderLocked(mat.TextureKey())},
	})
	if err != nil {
		return DrawCall{}, false, err
	}

	dc := DrawCall{
		Pipeline:      rp,
		Mesh:          meshProvider,
		InstanceCount: 1,
		BindGroups:    groups,
	}
	if _, _, hasLights := declarationFor(fs, shader.AnnotationArgLightRecord); hasLights {
		dc.Lights = s.lights
	}
	return dc, true, nil
}

func (s *stage) buildBatchDrawLocked(b *batchEntry) (DrawCall, bool, error) {
	if b.set.Len() == 0 {
		return DrawCall{}, false, nil
	}
	meshProvider := b.msh.BindGroupProvider()
	if meshProvider == nil || meshProvider.VertexBuffer() == nil {
		return DrawCall{}, false, nil
	}
	rp := s.r.Pipeline(b.pipelineKey)
	if rp == nil {
		return DrawCall{}, false, fmt.Errorf("pipeline %q is not registered: %w", b.pipelineKey, ErrMissingBinding)
	}

	vs := rp.Shader(shader.ShaderTypeVertex)
	fs := rp.Shader(shader.ShaderTypeFragment)

	var matProvider bind_group_provider.BindGroupProvider
	if entry := s.materials[b.mat]; entry != nil {
		matProvider = entry.provider
	}
	groups, err := s.assembleGroupsLocked(vs, fs, drawSources{
		uniform:  renderer.DrawBinding{Provider: b.provider},
		material: renderer.DrawBinding{Provider: matProvider},
		texture:  renderer.DrawBinding{Provider: s.textureProviderLocked(b.mat.TextureKey())},
	})
	if err != nil {
		return DrawCall{}, false, err
	}

	dc := DrawCall{
		Pipeline:      rp,
		Mesh:          meshProvider,
		InstanceCount: uint32(b.set.Len()),
		BindGroups:    groups,
	}
	if _, _, hasLights := declarationFor(fs, shader.AnnotationArgLightRecord); hasLights {
		dc.Lights = s.lights
	}
	return dc, true, nil
}

func (s *stage) buildTextDrawLocked(t *textEntry) (DrawCall, bool, error) {
	if len(t.run.Vertices) == 0 || t.provider.VertexBuffer() == nil {
		return DrawCall{}, false, nil
	}
	f, ok := s.fonts[t.fontKey]
	if !ok {
		return DrawCall{}, false, fmt.Errorf("font %q is not loaded: %w", t.fontKey, ErrMissingBinding)
	}
	rp := s.r.Pipeline(t.pipelineKey)
	if rp == nil {
		return DrawCall{}, false, fmt.Errorf("pipeline %q is not registered: %w", t.pipelineKey, ErrMissingBinding)
	}

	groups, err := s.assembleGroupsLocked(
		rp.Shader(shader.ShaderTypeVertex),
		rp.Shader(shader.ShaderTypeFragment),
		drawSources{glyphs: renderer.DrawBinding{Provider: f.provider}},
	)
	if err != nil {
		return DrawCall{}, false, err
	}

	return DrawCall{
		Pipeline:      rp,
		Mesh:          t.provider,
		InstanceCount: 1,
		BindGroups:    groups,
		GlyphIDs:      t.run.IDs,
		Glyphs:        f.font,
	}, true, nil
}

// assembleGroupsLocked walks both shaders' annotation declarations and builds
// the bind group list in slot order. The first declaration seen for a group
// decides its provider; later declarations in the same group are necessarily
// served by the same one.
func (s *stage) assembleGroupsLocked(vs, fs shader.Shader, src drawSources) ([]renderer.DrawBinding, error) {
	assigned := map[int]renderer.DrawBinding{}
	maxGroup := -1

	for _, sh := range []shader.Shader{vs, fs} {
		if sh == nil {
			continue
		}
		for _, decl := range sh.Declarations() {
			if decl.Group == nil {
				continue
			}
			g := *decl.Group
			maxGroup = max(maxGroup, g)
			if _, exists := assigned[g]; exists {
				continue
			}
			switch decl.Type {
			case shader.AnnotationTypeBindingGroup:
				switch structType(decl) {
				case shader.AnnotationArgCamera, shader.AnnotationArgNodeTransform, shader.AnnotationArgInstanceRecord:
					assigned[g] = src.uniform
				case shader.AnnotationArgMaterialParams, shader.AnnotationArgLightRecord:
					assigned[g] = src.material
				}
			case shader.AnnotationTypeProvider:
				if len(decl.Args) == 0 {
					continue
				}
				switch decl.Args[0] {
				case shader.AnnotationArgTexture:
					assigned[g] = src.texture
				case shader.AnnotationArgGlyph:
					assigned[g] = src.glyphs
				}
			}
		}
	}

	bindGroups := s.drawBindingsPool[:0]
	for g := 0; g <= maxGroup; g++ {
		db, ok := assigned[g]
		if !ok || db.Provider == nil {
			return nil, fmt.Errorf("group %d has no provider: %w", g, ErrMissingBinding)
		}
		bindGroups = append(bindGroups, db)
	}
	s.drawBindingsPool = bindGroups
	return bindGroups, nil
}

// textureProviderLocked resolves the provider a material's texture key binds,
// which always exists once AddNode or AddBatch wired the material.
func (s *stage) textureProviderLocked(key string) bind_group_provider.BindGroupProvider {
	if key == "" {
		if s.whiteTexture == nil {
			return nil
		}
		return s.whiteTexture.provider
	}
	entry := s.textures[key]
	if entry == nil {
		return nil
	}
	return entry.provider
}

// structType extracts the struct type argument of a binding-group declaration,
// stripping any array wrapper and element count.
func structType(decl shader.Annotation) shader.AnnotationArg {
	if len(decl.Args) < 3 {
		return ""
	}
	typeArg := string(decl.Args[2])
	if stripped, ok := strings.CutPrefix(typeArg, "array<"); ok {
		typeArg = strings.TrimSuffix(stripped, ">")
		if elem, _, hasCount := strings.Cut(typeArg, ","); hasCount {
			typeArg = elem
		}
	}
	return shader.AnnotationArg(typeArg)
}

// declarationFor finds the binding-group declaration for a struct type,
// returning its group and binding indices.
func declarationFor(sh shader.Shader, arg shader.AnnotationArg) (int, int, bool) {
	if sh == nil {
		return 0, 0, false
	}
	for _, decl := range sh.Declarations() {
		if decl.Type != shader.AnnotationTypeBindingGroup || decl.Group == nil || decl.Binding == nil {
			continue
		}
		if structType(decl) == arg {
			return *decl.Group, *decl.Binding, true
		}
	}
	return 0, 0, false
}

// providerGroupFor finds the group a provider identity is declared for.
func providerGroupFor(sh shader.Shader, identity shader.AnnotationArg) (int, bool) {
	if sh == nil {
		return 0, false
	}
	for _, decl := range sh.Declarations() {
		if decl.Type != shader.AnnotationTypeProvider || decl.Group == nil || len(decl.Args) == 0 {
			continue
		}
		if decl.Args[0] == identity {
			return *decl.Group, true
		}
	}
	return 0, false
}

// textureSamplerBindings resolves which bindings of a provider group hold the
// texture view and the sampler, preferring annotation roles and falling back
// to classifying the layout entries.
func textureSamplerBindings(sh shader.Shader, group int, desc wgpu.BindGroupLayoutDescriptor) (int, int) {
	texBinding, sampBinding := -1, -1
	for _, decl := range sh.Declarations() {
		if decl.Type != shader.AnnotationTypeProvider || decl.Group == nil || decl.Binding == nil || *decl.Group != group {
			continue
		}
		if len(decl.Args) > 1 {
			switch decl.Args[1] {
			case shader.AnnotationArgColorTexture:
				texBinding = *decl.Binding
			case shader.AnnotationArgColorSampler:
				sampBinding = *decl.Binding
			}
		}
	}
	for _, e := range desc.Entries {
		switch {
		case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			if sampBinding < 0 {
				sampBinding = int(e.Binding)
			}
		case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			if texBinding < 0 {
				texBinding = int(e.Binding)
			}
		}
	}
	return texBinding, sampBinding
}

// releaseTextGeometry frees a text run's vertex and index buffers. Glyph
// textures live on the font's provider and are untouched.
func releaseTextGeometry(p bind_group_provider.BindGroupProvider) {
	if vb := p.VertexBuffer(); vb != nil {
		vb.Release()
		p.SetVertexBuffer(nil)
	}
	if ib := p.IndexBuffer(); ib != nil {
		ib.Release()
		p.SetIndexBuffer(nil)
	}
	p.SetIndexCount(0)
}

// sequentialIndices builds a little-endian uint32 index buffer covering
// vertices 0 through count-1, matching the non-indexed triangle list a text
// layout emits.
func sequentialIndices(count int) ([]byte, int) {
	data := make([]byte, 4*count)
	for i := 0; i < count; i++ {
		binary.LittleEndian.PutUint32(data[4*i:], uint32(i))
	}
	return data, count
}
