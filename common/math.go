package common

import (
	"math"
)

// Matrices throughout this package are flat slices in column-major order,
// matching the layout WGSL expects for mat4x4<f32> uniforms.

// sincos evaluates sin and cos of a float32 angle in radians.
func sincos(a float32) (float32, float32) {
	s, c := math.Sincos(float64(a))
	return float32(s), float32(c)
}

// normalize3 scales a 3-component vector to unit length. A zero vector is
// passed through unchanged instead of dividing by zero.
func normalize3(x, y, z float32) (float32, float32, float32) {
	lenSq := float64(x*x + y*y + z*z)
	if lenSq == 0 {
		lenSq = 1
	}
	inv := 1.0 / float32(math.Sqrt(lenSq))
	return x * inv, y * inv, z * inv
}

// cross3 returns the cross product a x b of two 3-component vectors.
func cross3(ax, ay, az, bx, by, bz float32) (float32, float32, float32) {
	return ay*bz - az*by, az*bx - ax*bz, ax*by - ay*bx
}

// Identity overwrites m with the 4x4 identity matrix.
//
// Parameters:
//   - m: destination, at least 16 elements
func Identity(m []float32) {
	clear(m)
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// Mul4 computes out = a * b for 4x4 column-major matrices. The product is
// accumulated in a local buffer first, so out may alias either input.
//
// Parameters:
//   - out: destination, at least 16 elements
//   - a: left operand, 16 elements
//   - b: right operand, 16 elements
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for c := 0; c < 4; c++ {
		bc := b[c*4 : c*4+4]
		for r := 0; r < 4; r++ {
			buf[c*4+r] = a[r]*bc[0] + a[4+r]*bc[1] + a[8+r]*bc[2] + a[12+r]*bc[3]
		}
	}
	copy(out, buf[:])
}

// MulVec4 applies a 4x4 column-major matrix to a 4-component vector.
//
// Parameters:
//   - m: matrix (16 elements, column-major)
//   - v: input vector
//
// Returns:
//   - [4]float32: m * v
func MulVec4(m []float32, v [4]float32) [4]float32 {
	var out [4]float32
	for j := 0; j < 4; j++ {
		out[j] = m[0*4+j]*v[0] + m[1*4+j]*v[1] + m[2*4+j]*v[2] + m[3*4+j]*v[3]
	}
	return out
}

// Mat3FromMat4 copies the upper-left 3x3 block of a 4x4 column-major matrix
// into a flat 9-element column-major slice, dropping the translation column.
//
// Parameters:
//   - out: destination, at least 9 elements
//   - m: source matrix, 16 elements
func Mat3FromMat4(out, m []float32) {
	out[0], out[1], out[2] = m[0], m[1], m[2]
	out[3], out[4], out[5] = m[4], m[5], m[6]
	out[6], out[7], out[8] = m[8], m[9], m[10]
}

// MulVec3Mat3 applies a 3x3 column-major matrix to a 3-component vector.
//
// Parameters:
//   - m: matrix (9 elements, column-major)
//   - v: input vector
//
// Returns:
//   - [3]float32: m * v
func MulVec3Mat3(m []float32, v [3]float32) [3]float32 {
	var out [3]float32
	for j := 0; j < 3; j++ {
		out[j] = m[0*3+j]*v[0] + m[1*3+j]*v[1] + m[2*3+j]*v[2]
	}
	return out
}

// Perspective writes a perspective projection with depth mapped to the
// [0, 1] range WebGPU clip space uses.
//
// Parameters:
//   - out: destination, at least 16 elements
//   - fovY: vertical field of view, radians
//   - aspect: viewport width over height
//   - near: near plane distance (must be > 0)
//   - far: far plane distance (must be > near)
func Perspective(out []float32, fovY, aspect, near, far float32) {
	focal := 1.0 / float32(math.Tan(float64(fovY)/2.0))
	clear(out)
	out[0] = focal / aspect
	out[5] = focal
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
}

// BuildModelMatrix writes a 4x4 model matrix combining translation, Euler
// rotation, and per-axis scale. Rotation applies as yaw * pitch * roll
// (Ry * Rx * Rz) with the scale folded into each basis column.
//
// Parameters:
//   - out: destination, at least 16 elements
//   - posX, posY, posZ: world-space translation
//   - rotX, rotY, rotZ: per-axis rotation angles, radians
//   - scaleX, scaleY, scaleZ: per-axis scale factors
func BuildModelMatrix(out []float32, posX, posY, posZ, rotX, rotY, rotZ, scaleX, scaleY, scaleZ float32) {
	sinP, cosP := sincos(rotX)
	sinY, cosY := sincos(rotY)
	sinR, cosR := sincos(rotZ)

	out[0] = (cosY*cosR + sinY*sinP*sinR) * scaleX
	out[1] = (cosP * sinR) * scaleX
	out[2] = (-sinY*cosR + cosY*sinP*sinR) * scaleX
	out[3] = 0

	out[4] = (cosY*-sinR + sinY*sinP*cosR) * scaleY
	out[5] = (cosP * cosR) * scaleY
	out[6] = (sinY*sinR + cosY*sinP*cosR) * scaleY
	out[7] = 0

	out[8] = (sinY * cosP) * scaleZ
	out[9] = (-sinP) * scaleZ
	out[10] = (cosY * cosP) * scaleZ
	out[11] = 0

	out[12] = posX
	out[13] = posY
	out[14] = posZ
	out[15] = 1
}

// LookAt writes a view matrix carrying world coordinates into a camera frame
// at the given eye position, looking toward center.
//
// Parameters:
//   - out: destination, at least 16 elements
//   - eyeX, eyeY, eyeZ: world-space camera position
//   - centerX, centerY, centerZ: point the camera looks at
//   - upX, upY, upZ: approximate up direction (typically 0,1,0)
func LookAt(out []float32, eyeX, eyeY, eyeZ, centerX, centerY, centerZ, upX, upY, upZ float32) {
	// Basis: z runs from the target back toward the eye; x and y complete a
	// right-handed frame around it.
	zx, zy, zz := normalize3(eyeX-centerX, eyeY-centerY, eyeZ-centerZ)
	xx, xy, xz := cross3(upX, upY, upZ, zx, zy, zz)
	xx, xy, xz = normalize3(xx, xy, xz)
	yx, yy, yz := cross3(zx, zy, zz, xx, xy, xz)

	out[0], out[4], out[8], out[12] = xx, xy, xz, -(xx*eyeX + xy*eyeY + xz*eyeZ)
	out[1], out[5], out[9], out[13] = yx, yy, yz, -(yx*eyeX + yy*eyeY + yz*eyeZ)
	out[2], out[6], out[10], out[14] = zx, zy, zz, -(zx*eyeX + zy*eyeY + zz*eyeZ)
	out[3], out[7], out[11], out[15] = 0, 0, 0, 1
}
