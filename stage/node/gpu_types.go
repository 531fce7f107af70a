package node

import (
	"encoding/binary"
	"math"
	"unsafe"

	_ "embed"
)

// GPUNodeTransformSource is the canonical WGSL struct declaration matching
// GPUNodeTransform, embedded for shader assembly.
//
//go:embed assets/node_transform.wgsl
var GPUNodeTransformSource string

// GPUNodeTransform is the per-node uniform block selected by dynamic offset.
// One arena slot holds exactly one of these; the slot stride is this size
// rounded up to the device uniform offset alignment.
type GPUNodeTransform struct {
	Model [16]float32 // offset 0, column-major model matrix
}

// Size returns the byte size of the GPUNodeTransform struct.
//
// Returns:
//   - int: the size in bytes (64)
func (t *GPUNodeTransform) Size() int {
	return int(unsafe.Sizeof(*t))
}

// Marshal serializes the GPUNodeTransform into little-endian bytes matching
// the WGSL struct layout.
//
// Returns:
//   - []byte: the serialized data
func (t *GPUNodeTransform) Marshal() []byte {
	buf := make([]byte, t.Size())
	for i, f := range t.Model {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
