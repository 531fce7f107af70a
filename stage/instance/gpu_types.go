package instance

import (
	"encoding/binary"
	"math"
	"unsafe"

	_ "embed"
)

// GPUInstanceRecordSource is the canonical WGSL struct declaration matching
// GPUInstanceRecord, embedded for shader assembly.
//
//go:embed assets/instance_record.wgsl
var GPUInstanceRecordSource string

// GPUInstanceRecord is one element of the ordered instance array. The model
// matrix places the instance in the world; ArrayIndex carries the texture
// array layer float-encoded in component 0, components 1..3 are padding. The
// layer value passes through the stage unmodified, bit for bit.
type GPUInstanceRecord struct {
	Model      [16]float32 // offset 0, column-major model matrix
	ArrayIndex [4]float32  // offset 64, layer index in [0], rest zero
}

// NewRecord builds a GPUInstanceRecord from a model matrix and a texture
// array layer.
//
// Parameters:
//   - model: column-major model matrix
//   - layer: texture array layer, float-encoded
//
// Returns:
//   - GPUInstanceRecord: the assembled record
func NewRecord(model [16]float32, layer float32) GPUInstanceRecord {
	return GPUInstanceRecord{
		Model:      model,
		ArrayIndex: [4]float32{layer, 0, 0, 0},
	}
}

// Size returns the byte size of the GPUInstanceRecord struct.
//
// Returns:
//   - int: the size in bytes (80)
func (g *GPUInstanceRecord) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUInstanceRecord into little-endian bytes matching
// the WGSL struct layout.
//
// Returns:
//   - []byte: the serialized data
func (g *GPUInstanceRecord) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i, f := range g.Model {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	for i, f := range g.ArrayIndex {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(f))
	}
	return buf
}
