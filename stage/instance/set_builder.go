package instance

import "github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"

// SetBuilderOption defines a function that modifies the set during creation.
type SetBuilderOption func(*set)

// WithCapacity overrides the default record capacity. The value becomes a
// fixed constant of the set and of any pipeline built against it.
//
// Parameters:
//   - capacity: the record capacity
//
// Returns:
//   - SetBuilderOption: the option function
func WithCapacity(capacity int) SetBuilderOption {
	return func(s *set) {
		s.capacity = capacity
	}
}

// WithBindGroupProvider sets the provider that will hold the set's GPU
// buffer.
//
// Parameters:
//   - provider: the provider to use
//
// Returns:
//   - SetBuilderOption: the option function
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) SetBuilderOption {
	return func(s *set) {
		s.bindGroupProvider = provider
	}
}
