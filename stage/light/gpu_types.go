package light

import (
	"encoding/binary"
	"math"
	"unsafe"

	_ "embed"
)

// GPULightRecordSource is the canonical WGSL struct declaration matching
// GPULightRecord, embedded for shader assembly.
//
//go:embed assets/light_record.wgsl
var GPULightRecordSource string

// GPULightRecord is one element of the ordered light array: world position in
// xyz, radius in w, packed as a single vec4. The fragment stage subtracts the
// fragment position from xyz and passes w through untouched.
type GPULightRecord struct {
	Position [3]float32 // offset 0, world-space position
	Radius   float32    // offset 12, attenuation radius
}

// Size returns the byte size of the GPULightRecord struct.
//
// Returns:
//   - int: the size in bytes (16)
func (g *GPULightRecord) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULightRecord into little-endian bytes matching the
// WGSL struct layout.
//
// Returns:
//   - []byte: the serialized data
func (g *GPULightRecord) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i, f := range g.Position {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(g.Radius))
	return buf
}
