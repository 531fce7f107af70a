package node

import "github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"

// ArenaBuilderOption defines a function that modifies the arena during creation.
type ArenaBuilderOption func(*arena)

// WithAlignment overrides the uniform offset alignment used to compute the
// slot stride. Must match the device's reported
// MinUniformBufferOffsetAlignment; must be a power of two.
//
// Parameters:
//   - alignment: the alignment in bytes
//
// Returns:
//   - ArenaBuilderOption: the option function
func WithAlignment(alignment uint32) ArenaBuilderOption {
	return func(a *arena) {
		a.alignment = alignment
	}
}

// WithBindGroupProvider sets the provider that will hold the arena's GPU
// buffer.
//
// Parameters:
//   - provider: the provider to use
//
// Returns:
//   - ArenaBuilderOption: the option function
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) ArenaBuilderOption {
	return func(a *arena) {
		a.bindGroupProvider = provider
	}
}
