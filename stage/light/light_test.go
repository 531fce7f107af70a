package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPULightRecordLayout(t *testing.T) {
	rec := GPULightRecord{
		Position: [3]float32{1, 2, 3},
		Radius:   5,
	}
	require.Equal(t, 16, rec.Size())

	buf := rec.Marshal()
	require.Len(t, buf, 16)
	for i, want := range []float32{1, 2, 3, 5} {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		assert.Equal(t, want, got)
	}
}

func TestNewLightDefaults(t *testing.T) {
	l := NewLight()
	assert.Equal(t, [3]float32{0, 0, 0}, l.Position())
	assert.Equal(t, float32(10), l.Radius())
	assert.True(t, l.Enabled())
}

func TestLightRecordSnapshotsState(t *testing.T) {
	l := NewLight(WithPosition(1, 0, 0), WithRadius(5))
	rec := l.Record()
	assert.Equal(t, [3]float32{1, 0, 0}, rec.Position)
	assert.Equal(t, float32(5), rec.Radius)

	// later mutation must not leak into the snapshot
	l.SetPosition(9, 9, 9)
	assert.Equal(t, [3]float32{1, 0, 0}, rec.Position)
}

func TestArrayBudgetEnforced(t *testing.T) {
	a := NewArray()
	require.Equal(t, MaxLights, a.Capacity())

	for range MaxLights {
		require.NoError(t, a.Add(NewLight()))
	}
	err := a.Add(NewLight())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyLights)
	assert.Equal(t, MaxLights, a.Len())
}

func TestArrayRejectsNegativeRadius(t *testing.T) {
	a := NewArray()
	err := a.Add(NewLight(WithRadius(-1)))
	assert.ErrorIs(t, err, ErrNegativeRadius)
	assert.Zero(t, a.Len())

	err = a.SetLights([]Light{NewLight(), NewLight(WithRadius(-0.5))})
	assert.ErrorIs(t, err, ErrNegativeRadius)
	assert.Zero(t, a.Len())
}

func TestArrayValidateCatchesLateMutation(t *testing.T) {
	a := NewArray()
	l := NewLight(WithRadius(3))
	require.NoError(t, a.Add(l))
	require.NoError(t, a.Validate())

	l.SetRadius(-2)
	assert.ErrorIs(t, a.Validate(), ErrNegativeRadius)
}

func TestArrayRecordsPreserveOrderAndSkipDisabled(t *testing.T) {
	a := NewArray()
	require.NoError(t, a.Add(NewLight(WithPosition(1, 0, 0), WithRadius(5))))
	require.NoError(t, a.Add(NewLight(WithPosition(0, 1, 0), WithRadius(2), WithEnabled(false))))
	require.NoError(t, a.Add(NewLight(WithPosition(0, 0, 1), WithRadius(7))))

	records := a.Records()
	require.Len(t, records, 2)
	assert.Equal(t, [3]float32{1, 0, 0}, records[0].Position)
	assert.Equal(t, float32(5), records[0].Radius)
	assert.Equal(t, [3]float32{0, 0, 1}, records[1].Position)
	assert.Equal(t, float32(7), records[1].Radius)
}

func TestArrayMarshalPadsToBudget(t *testing.T) {
	a := NewArray(WithArrayCapacity(3))
	require.NoError(t, a.Add(NewLight(WithPosition(1, 2, 3), WithRadius(4))))

	buf := a.Marshal()
	require.Len(t, buf, 3*16)

	radius := math.Float32frombits(binary.LittleEndian.Uint32(buf[12:]))
	assert.Equal(t, float32(4), radius)
	for _, b := range buf[16:] {
		require.Zero(t, b)
	}
}

func TestArrayFlushReflectsCurrentEntityState(t *testing.T) {
	a := NewArray()
	l := NewLight(WithPosition(0, 0, 0), WithRadius(1))
	require.NoError(t, a.Add(l))

	l.SetPosition(4, 5, 6)
	writes := a.Flush()
	require.Len(t, writes, 1)
	assert.Equal(t, ArrayBinding, writes[0].Binding)

	x := math.Float32frombits(binary.LittleEndian.Uint32(writes[0].Data[0:]))
	assert.Equal(t, float32(4), x)

	empty := NewArray()
	assert.Empty(t, empty.Flush())
}

func TestArrayFlushZeroesAfterLastLightRemoved(t *testing.T) {
	a := NewArray()
	require.NoError(t, a.Add(NewLight(WithRadius(3))))
	require.Len(t, a.Flush(), 1)

	a.Clear()
	writes := a.Flush()
	require.Len(t, writes, 1)
	for _, b := range writes[0].Data {
		require.Zero(t, b)
	}

	// The zeroing upload happens once.
	assert.Empty(t, a.Flush())
}
