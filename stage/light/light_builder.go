package light

// LightBuilderOption configures a light inside NewLight.
type LightBuilderOption func(*pointLight)

// WithPosition places the light in world space.
//
// Parameters:
//   - x, y, z: the position components
//
// Returns:
//   - LightBuilderOption: the option to pass to NewLight
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *pointLight) {
		l.position = [3]float32{x, y, z}
	}
}

// WithRadius picks the attenuation radius.
//
// Parameters:
//   - radius: the radius value
//
// Returns:
//   - LightBuilderOption: the option to pass to NewLight
func WithRadius(radius float32) LightBuilderOption {
	return func(l *pointLight) {
		l.radius = radius
	}
}

// WithEnabled decides whether the light starts out active.
//
// Parameters:
//   - enabled: false to stage the light inactive
//
// Returns:
//   - LightBuilderOption: the option to pass to NewLight
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *pointLight) {
		l.enabled = enabled
	}
}
