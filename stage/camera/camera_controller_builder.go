package camera

// CameraControllerOption configures an orbit controller inside
// NewOrbitController.
type CameraControllerOption func(*orbitController)

// WithControllerTarget places the pivot point the controller orbits.
//
// Parameters:
//   - x, y, z: the pivot position
//
// Returns:
//   - CameraControllerOption: the option to pass to NewOrbitController
func WithControllerTarget(x, y, z float32) CameraControllerOption {
	return func(o *orbitController) {
		o.pivot = [3]float32{x, y, z}
	}
}

// WithRadius starts the camera at the given distance from the pivot.
//
// Parameters:
//   - radius: the starting orbit radius
//
// Returns:
//   - CameraControllerOption: the option to pass to NewOrbitController
func WithRadius(radius float32) CameraControllerOption {
	return func(o *orbitController) {
		o.orbit.radius = radius
	}
}

// WithRadiusBounds limits how close and how far zooming can move the camera.
//
// Parameters:
//   - min, max: the radius limits
//
// Returns:
//   - CameraControllerOption: the option to pass to NewOrbitController
func WithRadiusBounds(min, max float32) CameraControllerOption {
	return func(o *orbitController) {
		o.limits.minRadius = min
		o.limits.maxRadius = max
	}
}

// WithAzimuth starts the camera at the given horizontal angle. Zero is the
// +Z side of the pivot.
//
// Parameters:
//   - azimuth: the starting angle in radians
//
// Returns:
//   - CameraControllerOption: the option to pass to NewOrbitController
func WithAzimuth(azimuth float32) CameraControllerOption {
	return func(o *orbitController) {
		o.orbit.azimuth = azimuth
	}
}

// WithElevation starts the camera at the given vertical angle above the
// horizontal plane.
//
// Parameters:
//   - elevation: the starting angle in radians
//
// Returns:
//   - CameraControllerOption: the option to pass to NewOrbitController
func WithElevation(elevation float32) CameraControllerOption {
	return func(o *orbitController) {
		o.orbit.elevation = elevation
	}
}

// WithElevationBounds limits how far the camera can tilt. Keep the bounds
// short of the poles or the view flips at the top.
//
// Parameters:
//   - min, max: the elevation limits in radians
//
// Returns:
//   - CameraControllerOption: the option to pass to NewOrbitController
func WithElevationBounds(min, max float32) CameraControllerOption {
	return func(o *orbitController) {
		o.limits.minElevation = min
		o.limits.maxElevation = max
	}
}

// WithOrbitSpeed sets the angle covered by one keyboard orbit step.
//
// Parameters:
//   - speed: radians per orbit call
//
// Returns:
//   - CameraControllerOption: the option to pass to NewOrbitController
func WithOrbitSpeed(speed float32) CameraControllerOption {
	return func(o *orbitController) {
		o.speed.orbit = speed
	}
}

// WithMouseSensitivity sets the radians-per-pixel factor applied to Drag.
//
// Parameters:
//   - sensitivity: the drag scale factor
//
// Returns:
//   - CameraControllerOption: the option to pass to NewOrbitController
func WithMouseSensitivity(sensitivity float32) CameraControllerOption {
	return func(o *orbitController) {
		o.speed.mouse = sensitivity
	}
}

// WithZoomSpeed sets the radius change per unit of Zoom delta.
//
// Parameters:
//   - speed: the zoom scale factor
//
// Returns:
//   - CameraControllerOption: the option to pass to NewOrbitController
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(o *orbitController) {
		o.speed.zoom = speed
	}
}
