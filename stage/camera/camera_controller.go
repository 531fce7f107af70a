package camera

// CameraController drives the camera from user input. A controller owns the
// positional state: it keeps spherical coordinates around a pivot point and
// exposes the resulting world position. The camera pulls Position and Target
// on Update, so input handlers talk to the controller and never to the camera
// directly.
type CameraController interface {
	// Position reports the controller's current world-space camera position.
	//
	// Returns:
	//   - x, y, z: the camera position
	Position() (x, y, z float32)

	// Target reports the pivot point the camera orbits and looks at.
	//
	// Returns:
	//   - x, y, z: the pivot position
	Target() (x, y, z float32)

	// SetTarget moves the pivot point. The camera position follows, keeping
	// its spherical offset.
	//
	// Parameters:
	//   - x, y, z: the new pivot position
	SetTarget(x, y, z float32)

	// OrbitLeft swings the camera one orbit step counterclockwise around the
	// pivot, viewed from above.
	OrbitLeft()

	// OrbitRight swings the camera one orbit step clockwise around the pivot,
	// viewed from above.
	OrbitRight()

	// OrbitUp tilts the view up by one orbit step, stopping at the elevation
	// limit.
	OrbitUp()

	// OrbitDown tilts the view down by one orbit step, stopping at the
	// elevation limit.
	OrbitDown()

	// Drag turns a mouse movement into orbit motion, scaled by the mouse
	// sensitivity. Positive dx swings right, positive dy tilts up.
	//
	// Parameters:
	//   - dx, dy: cursor movement in pixels since the last event
	Drag(dx, dy float32)

	// Zoom moves the camera along its view ray by shrinking or growing the
	// orbit radius. Positive delta moves closer to the pivot.
	//
	// Parameters:
	//   - delta: scroll amount, scaled by the zoom speed
	Zoom(delta float32)

	// Radius reports the distance between camera and pivot.
	//
	// Returns:
	//   - float32: the orbit radius
	Radius() float32

	// SetRadius moves the camera to the given distance, bounded by the radius
	// limits.
	//
	// Parameters:
	//   - radius: the new distance from the pivot
	SetRadius(radius float32)

	// Azimuth reports the horizontal angle around the Y axis, in radians.
	// Zero places the camera on the +Z side of the pivot.
	//
	// Returns:
	//   - float32: the azimuth
	Azimuth() float32

	// SetAzimuth rotates the camera to the given horizontal angle.
	//
	// Parameters:
	//   - azimuth: the new angle in radians
	SetAzimuth(azimuth float32)

	// Elevation reports the vertical angle above the horizontal plane, in
	// radians.
	//
	// Returns:
	//   - float32: the elevation
	Elevation() float32

	// SetElevation tilts the camera to the given vertical angle, bounded by
	// the elevation limits.
	//
	// Parameters:
	//   - elevation: the new angle in radians
	SetElevation(elevation float32)

	// OrbitSpeed reports the angle one keyboard orbit step covers.
	//
	// Returns:
	//   - float32: radians per orbit call
	OrbitSpeed() float32

	// MouseSensitivity reports the radians-per-pixel factor applied to Drag.
	//
	// Returns:
	//   - float32: the drag scale factor
	MouseSensitivity() float32

	// ZoomSpeed reports the radius change per unit of Zoom delta.
	//
	// Returns:
	//   - float32: the zoom scale factor
	ZoomSpeed() float32
}
