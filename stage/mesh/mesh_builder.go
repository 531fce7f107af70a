package mesh

import "github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"

// MeshBuilderOption is a function that configures a Mesh instance during construction.
type MeshBuilderOption func(*mesh)

// WithName is an option builder that sets the mesh identifier.
//
// Parameters:
//   - name: the mesh name
//
// Returns:
//   - MeshBuilderOption: a function that applies the name option to a mesh
func WithName(name string) MeshBuilderOption {
	return func(m *mesh) {
		m.name = name
	}
}

// WithVertices is an option builder that sets the interleaved vertex slice.
//
// Parameters:
//   - vertices: the vertex data
//
// Returns:
//   - MeshBuilderOption: a function that applies the vertices option to a mesh
func WithVertices(vertices []GPUVertex) MeshBuilderOption {
	return func(m *mesh) {
		m.vertices = vertices
	}
}

// WithIndices is an option builder that sets the index slice.
//
// Parameters:
//   - indices: the index data, counter-clockwise winding
//
// Returns:
//   - MeshBuilderOption: a function that applies the indices option to a mesh
func WithIndices(indices []uint32) MeshBuilderOption {
	return func(m *mesh) {
		m.indices = indices
	}
}

// WithBindGroupProvider is an option builder that sets the provider holding
// GPU mesh buffers.
//
// Parameters:
//   - provider: the provider to use
//
// Returns:
//   - MeshBuilderOption: a function that applies the provider option to a mesh
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) MeshBuilderOption {
	return func(m *mesh) {
		m.bindGroupProvider = provider
	}
}
