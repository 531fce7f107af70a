package mesh

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPUVertexLayout(t *testing.T) {
	v := GPUVertex{
		Position: [3]float32{1, 2, 3},
		Normal:   [3]float32{0, 1, 0},
		UV:       [2]float32{0.25, 0.75},
	}
	require.Equal(t, 32, v.Size())

	buf := v.Marshal()
	require.Len(t, buf, 32)

	at := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	assert.Equal(t, float32(1), at(0))
	assert.Equal(t, float32(3), at(8))
	assert.Equal(t, float32(1), at(16))
	assert.Equal(t, float32(0.25), at(24))
	assert.Equal(t, float32(0.75), at(28))
}

func TestQuadGeometry(t *testing.T) {
	vertices, indices := Quad()
	require.Len(t, vertices, 4)
	require.Len(t, indices, 6)

	for _, v := range vertices {
		assert.Equal(t, [3]float32{0, 0, 1}, v.Normal)
		assert.Zero(t, v.Position[2])
	}
	for _, idx := range indices {
		assert.Less(t, idx, uint32(4))
	}
}

func TestCubeGeometry(t *testing.T) {
	vertices, indices := Cube()
	require.Len(t, vertices, 24)
	require.Len(t, indices, 36)

	// every position sits on the half-unit shell
	for _, v := range vertices {
		onShell := false
		for _, p := range v.Position {
			if p == 0.5 || p == -0.5 {
				onShell = true
			}
		}
		assert.True(t, onShell)
	}

	// each face's normal points along its fixed axis
	for f := 0; f < 6; f++ {
		n := vertices[f*4].Normal
		lenSq := n[0]*n[0] + n[1]*n[1] + n[2]*n[2]
		assert.Equal(t, float32(1), lenSq)
		for c := 1; c < 4; c++ {
			assert.Equal(t, n, vertices[f*4+c].Normal)
		}
	}

	for _, idx := range indices {
		assert.Less(t, idx, uint32(24))
	}
}

func TestCubeWindingIsCounterClockwise(t *testing.T) {
	vertices, indices := Cube()

	// for each triangle, (b-a) x (c-a) must point along the face normal
	for tri := 0; tri < len(indices); tri += 3 {
		a := vertices[indices[tri]].Position
		b := vertices[indices[tri+1]].Position
		c := vertices[indices[tri+2]].Position
		n := vertices[indices[tri]].Normal

		ab := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		ac := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		cross := [3]float32{
			ab[1]*ac[2] - ab[2]*ac[1],
			ab[2]*ac[0] - ab[0]*ac[2],
			ab[0]*ac[1] - ab[1]*ac[0],
		}

		dot := cross[0]*n[0] + cross[1]*n[1] + cross[2]*n[2]
		assert.Positive(t, dot)
	}
}

func TestMeshDataRoundTrip(t *testing.T) {
	v, idx := Quad()
	m := NewMesh(WithName("quad"), WithVertices(v), WithIndices(idx))

	assert.Equal(t, "quad", m.Name())
	assert.Equal(t, 6, m.IndexCount())
	assert.Len(t, m.VertexData(), 4*32)

	ib := m.IndexData()
	require.Len(t, ib, 6*4)
	for i, want := range idx {
		assert.Equal(t, want, binary.LittleEndian.Uint32(ib[i*4:]))
	}
}
