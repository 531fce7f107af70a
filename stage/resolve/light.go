package resolve

import (
	"github.com/chewxy/math32"
	"github.com/umbra-gfx/umbra-go/common"
	"github.com/umbra-gfx/umbra-go/stage/light"
)

// LightAccumulator produces the per-fragment light vectors a downstream BRDF
// consumes. Output order matches the staged light order index for index;
// attenuation code indexes the two sequences positionally.
type LightAccumulator interface {
	// Count returns the number of staged lights.
	//
	// Returns:
	//   - int: the light count
	Count() int

	// Accumulate computes one vector per light for a fragment position: xyz
	// is the fragment-to-light direction, unnormalized, and w carries the
	// light's radius through unmodified.
	//
	// Parameters:
	//   - fragPos: the fragment's world-space position
	//
	// Returns:
	//   - [][4]float32: one vector per light, aligned with the staged order
	Accumulate(fragPos [3]float32) [][4]float32

	// NormalMatrix returns the direct upper 3x3 block of the model matrix.
	// This is not the inverse-transpose: under non-uniform scale it shears
	// lighting directions. Uniform-scale scenes are unaffected.
	//
	// Returns:
	//   - [9]float32: the column-major 3x3 block
	NormalMatrix() [9]float32

	// TransformNormal maps a model-space normal through the normal matrix
	// and renormalizes it. Zero-length inputs come back unchanged.
	//
	// Parameters:
	//   - n: the model-space normal
	//
	// Returns:
	//   - [3]float32: the unit world-space normal
	TransformNormal(n [3]float32) [3]float32
}

type lightAccumulator struct {
	records []light.GPULightRecord
	normal  [9]float32
}

var _ LightAccumulator = &lightAccumulator{}

// NewLightAccumulator snapshots the staged light records and the draw's model
// matrix.
//
// Parameters:
//   - records: the staged light records in array order
//   - model: the draw's model matrix
//
// Returns:
//   - LightAccumulator: the accumulator for this draw
func NewLightAccumulator(records []light.GPULightRecord, model [16]float32) LightAccumulator {
	a := &lightAccumulator{
		records: append([]light.GPULightRecord(nil), records...),
	}
	common.Mat3FromMat4(a.normal[:], model[:])
	return a
}

func (a *lightAccumulator) Count() int {
	return len(a.records)
}

func (a *lightAccumulator) Accumulate(fragPos [3]float32) [][4]float32 {
	out := make([][4]float32, len(a.records))
	for i, rec := range a.records {
		out[i] = [4]float32{
			rec.Position[0] - fragPos[0],
			rec.Position[1] - fragPos[1],
			rec.Position[2] - fragPos[2],
			rec.Radius,
		}
	}
	return out
}

func (a *lightAccumulator) NormalMatrix() [9]float32 {
	return a.normal
}

func (a *lightAccumulator) TransformNormal(n [3]float32) [3]float32 {
	v := common.MulVec3Mat3(a.normal[:], n)
	length := math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if length == 0 {
		return v
	}
	return [3]float32{v[0] / length, v[1] / length, v[2] / length}
}
