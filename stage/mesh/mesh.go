package mesh

import (
	"encoding/binary"

	"github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"
)

// mesh is the implementation of the Mesh interface.
type mesh struct {
	name     string
	vertices []GPUVertex
	indices  []uint32

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Mesh defines the interface for drawable geometry: an interleaved vertex
// slice plus a uint32 index slice, with marshal helpers producing the byte
// buffers the renderer uploads. Geometry is demo content generated in code;
// there is no asset loading.
type Mesh interface {
	// Name retrieves the mesh identifier.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// Vertices returns the interleaved vertex slice.
	//
	// Returns:
	//   - []GPUVertex: the vertices
	Vertices() []GPUVertex

	// Indices returns the index slice, counter-clockwise winding.
	//
	// Returns:
	//   - []uint32: the indices
	Indices() []uint32

	// VertexData serializes all vertices for GPU upload.
	//
	// Returns:
	//   - []byte: the vertex buffer contents
	VertexData() []byte

	// IndexData serializes all indices for GPU upload, little-endian uint32.
	//
	// Returns:
	//   - []byte: the index buffer contents
	IndexData() []byte

	// IndexCount returns the number of indices for draw calls.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// BindGroupProvider retrieves the provider holding GPU mesh buffers.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider, or nil if not yet initialized
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetBindGroupProvider sets the provider holding GPU mesh buffers.
	//
	// Parameters:
	//   - provider: the provider to use
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Mesh = &mesh{}

// NewMesh creates a Mesh configured with the provided options.
//
// Parameters:
//   - options: variadic list of MeshBuilderOption functions to configure the mesh
//
// Returns:
//   - Mesh: a new Mesh instance
func NewMesh(options ...MeshBuilderOption) Mesh {
	m := &mesh{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) Vertices() []GPUVertex {
	return m.vertices
}

func (m *mesh) Indices() []uint32 {
	return m.indices
}

func (m *mesh) VertexData() []byte {
	var v GPUVertex
	buf := make([]byte, 0, len(m.vertices)*v.Size())
	for i := range m.vertices {
		buf = append(buf, m.vertices[i].Marshal()...)
	}
	return buf
}

func (m *mesh) IndexData() []byte {
	buf := make([]byte, len(m.indices)*4)
	for i, idx := range m.indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

func (m *mesh) IndexCount() int {
	return len(m.indices)
}

func (m *mesh) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

func (m *mesh) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	m.bindGroupProvider = provider
}

// Quad generates a unit quad in the XY plane facing +Z, centered on the
// origin, counter-clockwise winding.
//
// Returns:
//   - []GPUVertex: 4 vertices
//   - []uint32: 6 indices
func Quad() ([]GPUVertex, []uint32) {
	vertices := []GPUVertex{
		{Position: [3]float32{-0.5, -0.5, 0}, Normal: [3]float32{0, 0, 1}, UV: [2]float32{0, 1}},
		{Position: [3]float32{0.5, -0.5, 0}, Normal: [3]float32{0, 0, 1}, UV: [2]float32{1, 1}},
		{Position: [3]float32{0.5, 0.5, 0}, Normal: [3]float32{0, 0, 1}, UV: [2]float32{1, 0}},
		{Position: [3]float32{-0.5, 0.5, 0}, Normal: [3]float32{0, 0, 1}, UV: [2]float32{0, 0}},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return vertices, indices
}

// Cube generates a unit cube centered on the origin, 4 vertices per face so
// each face carries its own outward normal, counter-clockwise winding viewed
// from outside.
//
// Returns:
//   - []GPUVertex: 24 vertices
//   - []uint32: 36 indices
func Cube() ([]GPUVertex, []uint32) {
	faces := []struct {
		corners [4][3]float32
		normal  [3]float32
	}{
		// +Z
		{[4][3]float32{{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}}, [3]float32{0, 0, 1}},
		// -Z
		{[4][3]float32{{0.5, -0.5, -0.5}, {-0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}}, [3]float32{0, 0, -1}},
		// +X
		{[4][3]float32{{0.5, -0.5, 0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5}}, [3]float32{1, 0, 0}},
		// -X
		{[4][3]float32{{-0.5, -0.5, -0.5}, {-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5}}, [3]float32{-1, 0, 0}},
		// +Y
		{[4][3]float32{{-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5}}, [3]float32{0, 1, 0}},
		// -Y
		{[4][3]float32{{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}, {-0.5, -0.5, 0.5}}, [3]float32{0, -1, 0}},
	}
	uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

	vertices := make([]GPUVertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for f, face := range faces {
		base := uint32(f * 4)
		for c := range face.corners {
			vertices = append(vertices, GPUVertex{
				Position: face.corners[c],
				Normal:   face.normal,
				UV:       uvs[c],
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}
