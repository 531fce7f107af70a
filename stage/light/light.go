package light

// Light is a point light feeding the lit forward pass: a world-space
// position plus an attenuation radius, snapshotted into the frame's light
// array whenever the array flushes. A disabled light stays staged but is
// left out of the marshaled block.
type Light interface {
	// Position reports where the light sits in world space.
	//
	// Returns:
	//   - [3]float32: the (x, y, z) position
	Position() [3]float32

	// Radius reports the attenuation radius. The value travels to the
	// shader untouched; what falloff it drives is up to the shading code.
	//
	// Returns:
	//   - float32: the radius
	Radius() float32

	// Enabled reports whether the light currently contributes to shading.
	//
	// Returns:
	//   - bool: true while the light is active
	Enabled() bool

	// Record copies the light's state into a GPU record. The copy is
	// detached: mutating the light afterwards leaves the record alone.
	//
	// Returns:
	//   - GPULightRecord: the position and radius at call time
	Record() GPULightRecord

	// SetPosition moves the light to a new world-space position.
	//
	// Parameters:
	//   - x, y, z: the new position components
	SetPosition(x, y, z float32)

	// SetRadius replaces the attenuation radius. Negative radii are not
	// rejected here; Array staging and Validate catch them.
	//
	// Parameters:
	//   - radius: the new radius
	SetRadius(radius float32)

	// SetEnabled toggles the light's contribution to shading.
	//
	// Parameters:
	//   - enabled: true to include the light in the next flush
	SetEnabled(enabled bool)
}

// pointLight backs Light with plain mutable fields. Concurrent access is
// mediated by the Array holding the light, not by the light itself.
type pointLight struct {
	position [3]float32
	radius   float32
	enabled  bool
}

var _ Light = &pointLight{}

// NewLight creates a point light at the origin with a radius of 10, enabled,
// then applies the given options.
//
// Parameters:
//   - opts: options applied in order over the defaults
//
// Returns:
//   - Light: the configured light
func NewLight(opts ...LightBuilderOption) Light {
	l := &pointLight{
		radius:  10.0,
		enabled: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *pointLight) Position() [3]float32 {
	return l.position
}

func (l *pointLight) Radius() float32 {
	return l.radius
}

func (l *pointLight) Enabled() bool {
	return l.enabled
}

func (l *pointLight) Record() GPULightRecord {
	return GPULightRecord{
		Position: l.position,
		Radius:   l.radius,
	}
}

func (l *pointLight) SetPosition(x, y, z float32) {
	l.position = [3]float32{x, y, z}
}

func (l *pointLight) SetRadius(radius float32) {
	l.radius = radius
}

func (l *pointLight) SetEnabled(enabled bool) {
	l.enabled = enabled
}
