package camera

import (
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/umbra-gfx/umbra-go/common"
	"github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"
)

// cameraSeq numbers cameras so each gets a distinct provider label.
var cameraSeq atomic.Uint64

// ClipTarget identifies the clip-space convention of the rendering backend the
// stage submits to. It is fixed when the camera is built, never per-draw state.
type ClipTarget uint8

const (
	// ClipTargetWebGPU is the default: Y up in clip space, depth in [0, 1].
	// Matches the convention of common.Perspective, so no correction is applied.
	ClipTargetWebGPU ClipTarget = iota
	// ClipTargetVulkan inverts the vertical clip axis (Vulkan clip space is Y down).
	ClipTargetVulkan
	// ClipTargetOpenGL shares the WebGPU vertical convention; no correction is applied.
	ClipTargetOpenGL
)

// yCorrection returns the clip-space correction matrix for the target.
// Identity for every target except those with an inverted vertical axis.
//
// Returns:
//   - [16]float32: the y-correction matrix (column-major)
func (t ClipTarget) yCorrection() [16]float32 {
	m := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	if t == ClipTargetVulkan {
		m[5] = -1
	}
	return m
}

// viewState is the look-at frame the view matrix is built from.
type viewState struct {
	eye    [3]float32
	target [3]float32
	up     [3]float32
}

// lensState holds the perspective parameters.
type lensState struct {
	fov    float32
	aspect float32
	near   float32
	far    float32
}

// matrixSet caches the matrices derived from the view and lens state.
type matrixSet struct {
	view        [16]float32
	projection  [16]float32
	yCorrection [16]float32
}

type camera struct {
	mu sync.Mutex

	view viewState
	lens lensState

	clipTarget ClipTarget
	matrices   matrixSet

	controller CameraController
	provider   bind_group_provider.BindGroupProvider
}

// Camera owns the view and projection state of one viewpoint. Setters change
// the look-at frame or the lens and recompute the matrices; with a
// CameraController attached, Update pulls eye and target from the controller
// each frame instead. Block freezes the state into the per-frame GPU uniform.
type Camera interface {
	// Eye reports the camera's world-space position.
	//
	// Returns:
	//   - x, y, z: the eye position
	Eye() (x, y, z float32)

	// Target reports the point the camera looks at.
	//
	// Returns:
	//   - x, y, z: the look-at position
	Target() (x, y, z float32)

	// Up reports the camera's up direction.
	//
	// Returns:
	//   - x, y, z: the up vector
	Up() (x, y, z float32)

	// Fov reports the vertical field of view in radians.
	//
	// Returns:
	//   - float32: the field of view
	Fov() float32

	// Aspect reports the width over height ratio of the viewport.
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near reports the near clip plane distance.
	//
	// Returns:
	//   - float32: the near distance
	Near() float32

	// Far reports the far clip plane distance.
	//
	// Returns:
	//   - float32: the far distance
	Far() float32

	// ClipTarget reports which backend clip-space convention the camera
	// corrects for.
	//
	// Returns:
	//   - ClipTarget: the configured clip target
	ClipTarget() ClipTarget

	// ViewMatrix reports the current view matrix, column-major.
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix reports the current projection matrix, column-major.
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// YCorrectionMatrix reports the clip-space correction for the configured
	// clip target. Identity unless the target flips the vertical axis.
	//
	// Returns:
	//   - [16]float32: the correction matrix
	YCorrectionMatrix() [16]float32

	// Block freezes the camera into its per-frame GPU uniform. The result is
	// a copy; mutating the camera afterwards never changes a block already
	// handed to in-flight draws.
	//
	// Returns:
	//   - GPUCameraBlock: the {projection, view, y_correction} snapshot
	Block() GPUCameraBlock

	// Controller reports the attached CameraController, or nil.
	//
	// Returns:
	//   - CameraController: the controller driving this camera, if any
	Controller() CameraController

	// BindGroupProvider reports the provider holding the camera's GPU
	// resources.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider, or nil
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Update pulls eye and target from the controller when one is attached
	// and recomputes the matrices. Run once per frame, before Block.
	Update()

	// SetEye moves the camera and recomputes the matrices.
	//
	// Parameters:
	//   - x, y, z: the new eye position
	SetEye(x, y, z float32)

	// SetTarget re-aims the camera and recomputes the matrices.
	//
	// Parameters:
	//   - x, y, z: the new look-at position
	SetTarget(x, y, z float32)

	// SetUp changes the up direction and recomputes the matrices.
	//
	// Parameters:
	//   - x, y, z: the new up vector
	SetUp(x, y, z float32)

	// SetFov changes the vertical field of view and recomputes the matrices.
	//
	// Parameters:
	//   - fov: the field of view in radians
	SetFov(fov float32)

	// SetAspect changes the viewport ratio and recomputes the matrices. Call
	// on resize so the projection keeps matching the surface.
	//
	// Parameters:
	//   - aspect: width divided by height
	SetAspect(aspect float32)

	// SetNear changes the near clip distance and recomputes the matrices.
	//
	// Parameters:
	//   - near: the near distance
	SetNear(near float32)

	// SetFar changes the far clip distance and recomputes the matrices.
	//
	// Parameters:
	//   - far: the far distance
	SetFar(far float32)

	// SetController attaches a controller for Update to pull from.
	//
	// Parameters:
	//   - ctrl: the controller, or nil to detach
	SetController(ctrl CameraController)

	// SetBindGroupProvider swaps the provider holding the camera's GPU
	// resources.
	//
	// Parameters:
	//   - provider: the replacement provider
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Camera = &camera{}

// NewCamera builds a camera looking at the origin from (0, 0, 5) with a 45
// degree field of view and a WebGPU clip target.
//
// Parameters:
//   - options: functional options overriding the defaults
//
// Returns:
//   - Camera: the configured camera
func NewCamera(options ...CameraBuilderOption) Camera {
	label := "camera_" + strconv.FormatUint(cameraSeq.Add(1)-1, 10)
	c := &camera{
		view: viewState{
			eye:    [3]float32{0, 0, 5},
			target: [3]float32{0, 0, 0},
			up:     [3]float32{0, 1, 0},
		},
		lens: lensState{
			fov:    45.0 * (math.Pi / 180.0),
			aspect: 1.0,
			near:   0.1,
			far:    100.0,
		},
		clipTarget: ClipTargetWebGPU,
		provider:   bind_group_provider.NewBindGroupProvider(label),
	}
	for _, option := range options {
		option(c)
	}
	c.refresh()
	return c
}

func (c *camera) Eye() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.eye[0], c.view.eye[1], c.view.eye[2]
}

func (c *camera) Target() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.target[0], c.view.target[1], c.view.target[2]
}

func (c *camera) Up() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.up[0], c.view.up[1], c.view.up[2]
}

func (c *camera) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lens.fov
}

func (c *camera) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lens.aspect
}

func (c *camera) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lens.near
}

func (c *camera) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lens.far
}

func (c *camera) ClipTarget() ClipTarget {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clipTarget
}

func (c *camera) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matrices.view
}

func (c *camera) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matrices.projection
}

func (c *camera) YCorrectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matrices.yCorrection
}

func (c *camera) Block() GPUCameraBlock {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraBlock{
		Projection:  c.matrices.projection,
		View:        c.matrices.view,
		YCorrection: c.matrices.yCorrection,
	}
}

func (c *camera) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *camera) BindGroupProvider() bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.provider
}

func (c *camera) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller != nil {
		c.view.eye[0], c.view.eye[1], c.view.eye[2] = c.controller.Position()
		c.view.target[0], c.view.target[1], c.view.target[2] = c.controller.Target()
	}
	c.refresh()
}

func (c *camera) SetEye(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.eye = [3]float32{x, y, z}
	c.refresh()
}

func (c *camera) SetTarget(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.target = [3]float32{x, y, z}
	c.refresh()
}

func (c *camera) SetUp(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.up = [3]float32{x, y, z}
	c.refresh()
}

func (c *camera) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lens.fov = fov
	c.refresh()
}

func (c *camera) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lens.aspect = aspect
	c.refresh()
}

func (c *camera) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lens.near = near
	c.refresh()
}

func (c *camera) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lens.far = far
	c.refresh()
}

func (c *camera) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
}

func (c *camera) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.provider = provider
}

// refresh rebuilds the cached matrices from the current view and lens state.
// Caller holds the mutex.
func (c *camera) refresh() {
	common.LookAt(c.matrices.view[:],
		c.view.eye[0], c.view.eye[1], c.view.eye[2],
		c.view.target[0], c.view.target[1], c.view.target[2],
		c.view.up[0], c.view.up[1], c.view.up[2],
	)

	common.Perspective(c.matrices.projection[:],
		c.lens.fov, c.lens.aspect, c.lens.near, c.lens.far,
	)

	c.matrices.yCorrection = c.clipTarget.yCorrection()
}
