package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity(t *testing.T) {
	m := make([]float32, 16)
	for i := range m {
		m[i] = float32(i) + 3
	}
	Identity(m)

	want := []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	assert.Equal(t, want, m)
}

func TestMul4IdentityIsNeutral(t *testing.T) {
	id := make([]float32, 16)
	Identity(id)

	m := []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}

	out := make([]float32, 16)
	Mul4(out, id, m)
	assert.Equal(t, m, out, "identity * m should equal m")

	Mul4(out, m, id)
	assert.Equal(t, m, out, "m * identity should equal m")
}

func TestMul4InPlaceAliasing(t *testing.T) {
	// Mul4 buffers internally, so out may alias an input.
	a := make([]float32, 16)
	BuildModelMatrix(a, 1, 2, 3, 0.5, 0.25, 0.75, 1, 1, 1)
	b := make([]float32, 16)
	BuildModelMatrix(b, -4, 0, 2, 0, 1.2, 0, 2, 2, 2)

	want := make([]float32, 16)
	Mul4(want, a, b)

	got := make([]float32, 16)
	copy(got, a)
	Mul4(got, got, b)
	assert.Equal(t, want, got)
}

func TestMul4MatchesVectorComposition(t *testing.T) {
	a := make([]float32, 16)
	BuildModelMatrix(a, 0, 3, 0, 0, math.Pi/3, 0, 1, 1, 1)
	b := make([]float32, 16)
	BuildModelMatrix(b, 2, 0, -1, 0.4, 0, 0, 1.5, 1.5, 1.5)

	ab := make([]float32, 16)
	Mul4(ab, a, b)

	v := [4]float32{0.7, -1.3, 2.2, 1}
	direct := MulVec4(ab, v)
	stepped := MulVec4(a, MulVec4(b, v))

	for i := range direct {
		assert.InDelta(t, float64(stepped[i]), float64(direct[i]), 1e-5)
	}
}

func TestMulVec4(t *testing.T) {
	m := make([]float32, 16)
	BuildModelMatrix(m, 10, 20, 30, 0, 0, 0, 1, 1, 1)

	out := MulVec4(m, [4]float32{1, 2, 3, 1})
	assert.Equal(t, [4]float32{11, 22, 33, 1}, out)

	// w = 0 ignores translation (direction vector).
	dir := MulVec4(m, [4]float32{1, 2, 3, 0})
	assert.Equal(t, [4]float32{1, 2, 3, 0}, dir)
}

func TestMat3FromMat4(t *testing.T) {
	m := []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	out := make([]float32, 9)
	Mat3FromMat4(out, m)

	// Upper-left 3x3 block, column-major: translation column dropped.
	assert.Equal(t, []float32{1, 2, 3, 5, 6, 7, 9, 10, 11}, out)
}

func TestMulVec3Mat3RotatesWithoutTranslation(t *testing.T) {
	m4 := make([]float32, 16)
	// 90 degrees about Y with a translation that must not leak into the 3x3 block.
	BuildModelMatrix(m4, 100, 200, 300, 0, math.Pi/2, 0, 1, 1, 1)

	m3 := make([]float32, 9)
	Mat3FromMat4(m3, m4)

	out := MulVec3Mat3(m3, [3]float32{1, 0, 0})
	assert.InDelta(t, 0, float64(out[0]), 1e-6)
	assert.InDelta(t, 0, float64(out[1]), 1e-6)
	assert.InDelta(t, -1, float64(out[2]), 1e-6)
}

func TestPerspectiveDepthRange(t *testing.T) {
	m := make([]float32, 16)
	Perspective(m, float32(math.Pi)/2, 1, 0.1, 100)

	// A point on the near plane maps to depth 0 after perspective divide.
	near := MulVec4(m, [4]float32{0, 0, -0.1, 1})
	assert.InDelta(t, 0, float64(near[2]/near[3]), 1e-5)

	// A point on the far plane maps to depth 1.
	far := MulVec4(m, [4]float32{0, 0, -100, 1})
	assert.InDelta(t, 1, float64(far[2]/far[3]), 1e-4)

	// w carries the view-space distance.
	assert.InDelta(t, 0.1, float64(near[3]), 1e-6)
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	m := make([]float32, 16)
	LookAt(m, 5, 3, 8, 0, 0, 0, 0, 1, 0)

	eye := MulVec4(m, [4]float32{5, 3, 8, 1})
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 0, float64(eye[i]), 1e-5)
	}
	assert.InDelta(t, 1, float64(eye[3]), 1e-6)
}

func TestLookAtForwardIsNegativeZ(t *testing.T) {
	m := make([]float32, 16)
	LookAt(m, 0, 0, 10, 0, 0, 0, 0, 1, 0)

	// The look target sits in front of the camera, on the -Z axis in view space.
	target := MulVec4(m, [4]float32{0, 0, 0, 1})
	assert.InDelta(t, 0, float64(target[0]), 1e-6)
	assert.InDelta(t, 0, float64(target[1]), 1e-6)
	assert.InDelta(t, -10, float64(target[2]), 1e-5)
}

func TestBuildModelMatrixTranslationAndScale(t *testing.T) {
	m := make([]float32, 16)
	BuildModelMatrix(m, 1, -2, 3, 0, 0, 0, 2, 4, 8)

	out := MulVec4(m, [4]float32{1, 1, 1, 1})
	assert.Equal(t, [4]float32{3, 2, 11, 1}, out)
}

func TestBuildModelMatrixRotationY(t *testing.T) {
	m := make([]float32, 16)
	BuildModelMatrix(m, 0, 0, 0, 0, math.Pi/2, 0, 1, 1, 1)

	out := MulVec4(m, [4]float32{1, 0, 0, 1})
	assert.InDelta(t, 0, float64(out[0]), 1e-6)
	assert.InDelta(t, 0, float64(out[1]), 1e-6)
	assert.InDelta(t, -1, float64(out[2]), 1e-6)
}
