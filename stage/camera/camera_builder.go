package camera

import (
	"github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"
)

// CameraBuilderOption configures a camera inside NewCamera.
type CameraBuilderOption func(*camera)

// WithEye places the camera in world space.
//
// Parameters:
//   - x, y, z: the eye position
//
// Returns:
//   - CameraBuilderOption: the option to pass to NewCamera
func WithEye(x, y, z float32) CameraBuilderOption {
	return func(c *camera) {
		c.view.eye = [3]float32{x, y, z}
	}
}

// WithTarget aims the camera at a point in world space.
//
// Parameters:
//   - x, y, z: the look-at position
//
// Returns:
//   - CameraBuilderOption: the option to pass to NewCamera
func WithTarget(x, y, z float32) CameraBuilderOption {
	return func(c *camera) {
		c.view.target = [3]float32{x, y, z}
	}
}

// WithUp overrides the camera's up direction.
//
// Parameters:
//   - x, y, z: the up vector
//
// Returns:
//   - CameraBuilderOption: the option to pass to NewCamera
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *camera) {
		c.view.up = [3]float32{x, y, z}
	}
}

// WithFov picks the vertical field of view.
//
// Parameters:
//   - fov: the field of view in radians
//
// Returns:
//   - CameraBuilderOption: the option to pass to NewCamera
func WithFov(fov float32) CameraBuilderOption {
	return func(c *camera) {
		c.lens.fov = fov
	}
}

// WithAspect picks the viewport ratio the projection is built for.
//
// Parameters:
//   - aspect: width divided by height
//
// Returns:
//   - CameraBuilderOption: the option to pass to NewCamera
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *camera) {
		c.lens.aspect = aspect
	}
}

// WithNear picks the near clip plane distance.
//
// Parameters:
//   - near: the near distance
//
// Returns:
//   - CameraBuilderOption: the option to pass to NewCamera
func WithNear(near float32) CameraBuilderOption {
	return func(c *camera) {
		c.lens.near = near
	}
}

// WithFar picks the far clip plane distance.
//
// Parameters:
//   - far: the far distance
//
// Returns:
//   - CameraBuilderOption: the option to pass to NewCamera
func WithFar(far float32) CameraBuilderOption {
	return func(c *camera) {
		c.lens.far = far
	}
}

// WithClipTarget picks the backend clip-space convention the camera corrects
// for. A build-time property of the backend, never per-draw state.
//
// Parameters:
//   - target: the backend's clip target
//
// Returns:
//   - CameraBuilderOption: the option to pass to NewCamera
func WithClipTarget(target ClipTarget) CameraBuilderOption {
	return func(c *camera) {
		c.clipTarget = target
	}
}

// WithController attaches a controller and seeds the camera's eye and target
// from it, so the first frame is already framed correctly.
//
// Parameters:
//   - ctrl: the controller to attach
//
// Returns:
//   - CameraBuilderOption: the option to pass to NewCamera
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *camera) {
		c.controller = ctrl
		if ctrl != nil {
			c.view.eye[0], c.view.eye[1], c.view.eye[2] = ctrl.Position()
			c.view.target[0], c.view.target[1], c.view.target[2] = ctrl.Target()
		}
	}
}

// WithBindGroupProvider swaps in a pre-built provider for the camera's GPU
// resources instead of the one NewCamera creates.
//
// Parameters:
//   - provider: the provider to use
//
// Returns:
//   - CameraBuilderOption: the option to pass to NewCamera
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) CameraBuilderOption {
	return func(c *camera) {
		c.provider = provider
	}
}
