package light

import "github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"

// ArrayBuilderOption defines a function that modifies the array during creation.
type ArrayBuilderOption func(*array)

// WithArrayCapacity overrides the default light budget. The value becomes a
// fixed constant of the array and of any pipeline built against it.
//
// Parameters:
//   - capacity: the light budget
//
// Returns:
//   - ArrayBuilderOption: the option function
func WithArrayCapacity(capacity int) ArrayBuilderOption {
	return func(a *array) {
		a.capacity = capacity
	}
}

// WithBindGroupProvider sets the provider that will hold the array's GPU
// buffer.
//
// Parameters:
//   - provider: the provider to use
//
// Returns:
//   - ArrayBuilderOption: the option function
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) ArrayBuilderOption {
	return func(a *array) {
		a.bindGroupProvider = provider
	}
}
