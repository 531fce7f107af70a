package camera

import (
	"sync"

	"github.com/chewxy/math32"
)

// sphericalCoords places the camera relative to the pivot: radius is the
// distance, azimuth the horizontal angle around Y, elevation the vertical
// angle from the horizontal plane.
type sphericalCoords struct {
	radius    float32
	azimuth   float32
	elevation float32
}

// orbitLimits bounds the coordinates the input handlers may reach. The
// elevation bounds stop short of the poles so the up vector never degenerates.
type orbitLimits struct {
	minRadius, maxRadius       float32
	minElevation, maxElevation float32
}

// orbitSpeeds scales the three input channels: keyboard orbit steps, mouse
// drag deltas, and scroll zoom deltas.
type orbitSpeeds struct {
	orbit float32
	mouse float32
	zoom  float32
}

// orbitController implements CameraController with spherical coordinates
// around a pivot. Every mutation recomputes the cached world position, which
// the camera reads on its next Update.
type orbitController struct {
	mu sync.Mutex

	position [3]float32
	pivot    [3]float32

	orbit  sphericalCoords
	limits orbitLimits
	speed  orbitSpeeds
}

var _ CameraController = &orbitController{}

// NewOrbitController builds a controller with defaults suited to orbiting a
// small scene: radius 10, a slight downward viewing angle, and gentle input
// speeds.
//
// Parameters:
//   - options: functional options overriding the defaults
//
// Returns:
//   - CameraController: the configured controller
func NewOrbitController(options ...CameraControllerOption) CameraController {
	o := &orbitController{
		orbit: sphericalCoords{
			radius:    10.0,
			azimuth:   0.0,
			elevation: math32.Pi / 6,
		},
		limits: orbitLimits{
			minRadius:    1.0,
			maxRadius:    100.0,
			minElevation: -math32.Pi/2 + 0.1,
			maxElevation: math32.Pi/2 - 0.1,
		},
		speed: orbitSpeeds{
			orbit: 0.03,
			mouse: 0.005,
			zoom:  1.0,
		},
	}

	for _, option := range options {
		option(o)
	}

	o.recompute()
	return o
}

// recompute derives the cached world position from the pivot and the current
// spherical coordinates. Caller holds the mutex.
func (o *orbitController) recompute() {
	horizontal := o.orbit.radius * math32.Cos(o.orbit.elevation)

	o.position[0] = o.pivot[0] + horizontal*math32.Sin(o.orbit.azimuth)
	o.position[1] = o.pivot[1] + o.orbit.radius*math32.Sin(o.orbit.elevation)
	o.position[2] = o.pivot[2] + horizontal*math32.Cos(o.orbit.azimuth)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

func (o *orbitController) Position() (x, y, z float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.position[0], o.position[1], o.position[2]
}

func (o *orbitController) Target() (x, y, z float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pivot[0], o.pivot[1], o.pivot[2]
}

func (o *orbitController) SetTarget(x, y, z float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pivot = [3]float32{x, y, z}
	o.recompute()
}

func (o *orbitController) OrbitLeft() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orbit.azimuth -= o.speed.orbit
	o.recompute()
}

func (o *orbitController) OrbitRight() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orbit.azimuth += o.speed.orbit
	o.recompute()
}

func (o *orbitController) OrbitUp() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orbit.elevation = clamp(o.orbit.elevation+o.speed.orbit, o.limits.minElevation, o.limits.maxElevation)
	o.recompute()
}

func (o *orbitController) OrbitDown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orbit.elevation = clamp(o.orbit.elevation-o.speed.orbit, o.limits.minElevation, o.limits.maxElevation)
	o.recompute()
}

func (o *orbitController) Drag(dx, dy float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orbit.azimuth += dx * o.speed.mouse
	o.orbit.elevation = clamp(o.orbit.elevation+dy*o.speed.mouse, o.limits.minElevation, o.limits.maxElevation)
	o.recompute()
}

func (o *orbitController) Zoom(delta float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orbit.radius = clamp(o.orbit.radius-delta*o.speed.zoom, o.limits.minRadius, o.limits.maxRadius)
	o.recompute()
}

func (o *orbitController) Radius() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.orbit.radius
}

func (o *orbitController) SetRadius(radius float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orbit.radius = clamp(radius, o.limits.minRadius, o.limits.maxRadius)
	o.recompute()
}

func (o *orbitController) Azimuth() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.orbit.azimuth
}

func (o *orbitController) SetAzimuth(azimuth float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orbit.azimuth = azimuth
	o.recompute()
}

func (o *orbitController) Elevation() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.orbit.elevation
}

func (o *orbitController) SetElevation(elevation float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orbit.elevation = clamp(elevation, o.limits.minElevation, o.limits.maxElevation)
	o.recompute()
}

func (o *orbitController) OrbitSpeed() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.speed.orbit
}

func (o *orbitController) MouseSensitivity() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.speed.mouse
}

func (o *orbitController) ZoomSpeed() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.speed.zoom
}
