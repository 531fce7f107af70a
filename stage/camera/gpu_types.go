package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraBlockSource is the canonical WGSL definition of the CameraBlock struct.
// Matches GPUCameraBlock layout exactly (192 bytes, std140 aligned).
//
//go:embed assets/camera_block.wgsl
var GPUCameraBlockSource string

// GPUCameraBlock is the GPU-aligned representation of the per-frame camera uniform.
// Matches the WGSL CameraBlock struct layout exactly (see GPUCameraBlockSource).
// Projection and view are frozen when the block is snapshotted and stay immutable
// for every draw of the frame. YCorrection is identity unless the clip target
// requires a vertical axis flip; resolvers apply it last, after projection.
// Size: 192 bytes (three mat4x4<f32>, std140 aligned).
type GPUCameraBlock struct {
	Projection  [16]float32 // offset   0: projection matrix (mat4x4<f32>)
	View        [16]float32 // offset  64: view matrix (mat4x4<f32>)
	YCorrection [16]float32 // offset 128: clip-space y-correction matrix (mat4x4<f32>)
}

// Size returns the size of the GPUCameraBlock struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (192)
func (g *GPUCameraBlock) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraBlock struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraBlock) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Projection[i]))
	}
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.View[i]))
	}
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[128+i*4:], math.Float32bits(g.YCorrection[i]))
	}
	return buf
}
