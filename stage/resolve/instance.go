package resolve

import (
	"github.com/umbra-gfx/umbra-go/common"
	"github.com/umbra-gfx/umbra-go/stage/camera"
	"github.com/umbra-gfx/umbra-go/stage/instance"
)

// InstanceSelector resolves a draw's instance ordinal to that instance's
// transforms and texture-array layer. Ordinals must lie in [0, Count); the
// capacity bound is enforced by instance.Set validation before a draw is
// issued, never here.
type InstanceSelector interface {
	// Count returns the number of resolvable instances.
	//
	// Returns:
	//   - int: the instance count
	Count() int

	// WorldPosition maps a model-space position into view space through
	// instance i's model matrix.
	//
	// Parameters:
	//   - i: the instance ordinal
	//   - v: the model-space position
	//
	// Returns:
	//   - [4]float32: view * model[i] * (v, 1)
	WorldPosition(i int, v [3]float32) [4]float32

	// ClipPosition maps a model-space position to clip space through
	// instance i's model matrix and the frame's camera.
	//
	// Parameters:
	//   - i: the instance ordinal
	//   - v: the model-space position
	//
	// Returns:
	//   - [4]float32: the clip-space position
	ClipPosition(i int, v [3]float32) [4]float32

	// Layer returns instance i's texture-array layer exactly as staged, the
	// float-encoded integer passed through bit for bit.
	//
	// Parameters:
	//   - i: the instance ordinal
	//
	// Returns:
	//   - float32: the array layer
	Layer(i int) float32

	// SampleCoord combines a 2D texture coordinate with instance i's layer
	// into an array-sample coordinate.
	//
	// Parameters:
	//   - i: the instance ordinal
	//   - uv: the 2D texture coordinate
	//
	// Returns:
	//   - [3]float32: (u, v, layer)
	SampleCoord(i int, uv [2]float32) [3]float32
}

type instanceSelector struct {
	world  [][16]float32
	clip   [][16]float32
	layers []float32
}

var _ InstanceSelector = &instanceSelector{}

// NewInstanceSelector snapshots the staged instance records against a frame's
// camera block, precomposing the per-instance view and clip matrices.
//
// Parameters:
//   - block: the frame's camera block
//   - records: the staged instance records in draw order
//
// Returns:
//   - InstanceSelector: the selector for this draw
func NewInstanceSelector(block camera.GPUCameraBlock, records []instance.GPUInstanceRecord) InstanceSelector {
	var base [16]float32
	common.Mul4(base[:], block.YCorrection[:], block.Projection[:])

	s := &instanceSelector{
		world:  make([][16]float32, len(records)),
		clip:   make([][16]float32, len(records)),
		layers: make([]float32, len(records)),
	}
	for i, rec := range records {
		common.Mul4(s.world[i][:], block.View[:], rec.Model[:])
		common.Mul4(s.clip[i][:], base[:], s.world[i][:])
		s.layers[i] = rec.ArrayIndex[0]
	}
	return s
}

func (s *instanceSelector) Count() int {
	return len(s.layers)
}

func (s *instanceSelector) WorldPosition(i int, v [3]float32) [4]float32 {
	return common.MulVec4(s.world[i][:], [4]float32{v[0], v[1], v[2], 1})
}

func (s *instanceSelector) ClipPosition(i int, v [3]float32) [4]float32 {
	return common.MulVec4(s.clip[i][:], [4]float32{v[0], v[1], v[2], 1})
}

func (s *instanceSelector) Layer(i int) float32 {
	return s.layers[i]
}

func (s *instanceSelector) SampleCoord(i int, uv [2]float32) [3]float32 {
	return [3]float32{uv[0], uv[1], s.layers[i]}
}
