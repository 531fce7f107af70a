package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPUMaterialParamsLayout(t *testing.T) {
	params := GPUMaterialParams{
		BaseColor: [4]float32{0.1, 0.2, 0.3, 0.4},
		Emissive:  [3]float32{0.5, 0.6, 0.7},
		Metallic:  0.8,
	}
	require.Equal(t, 32, params.Size())

	buf := params.Marshal()
	require.Len(t, buf, 32)

	at := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	assert.Equal(t, float32(0.1), at(0))
	assert.Equal(t, float32(0.4), at(12))
	// emissive starts at 16, metallic fills the slot at 28
	assert.Equal(t, float32(0.5), at(16))
	assert.Equal(t, float32(0.7), at(24))
	assert.Equal(t, float32(0.8), at(28))
}

func TestNewMaterialDefaults(t *testing.T) {
	m := NewMaterial()
	assert.Equal(t, [4]float32{1, 1, 1, 1}, m.BaseColor())
	assert.Equal(t, [3]float32{0, 0, 0}, m.Emissive())
	assert.Zero(t, m.Metallic())
}

func TestMaterialParamsOrderAndSnapshot(t *testing.T) {
	m := NewMaterial(
		WithName("brushed"),
		WithBaseColor(1, 0, 0, 1),
		WithEmissive(0, 0.5, 0),
		WithMetallic(0.9),
		WithPipelineKey("lit"),
	)
	assert.Equal(t, "brushed", m.Name())
	assert.Equal(t, "lit", m.PipelineKey())

	params := m.Params()
	assert.Equal(t, [4]float32{1, 0, 0, 1}, params.BaseColor)
	assert.Equal(t, [3]float32{0, 0.5, 0}, params.Emissive)
	assert.Equal(t, float32(0.9), params.Metallic)

	// later mutation must not leak into the snapshot
	m.SetMetallic(0.1)
	assert.Equal(t, float32(0.9), params.Metallic)
	assert.Equal(t, float32(0.1), m.Params().Metallic)
}
