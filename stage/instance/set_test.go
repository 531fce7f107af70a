package instance

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umbra-gfx/umbra-go/common"
)

func TestGPUInstanceRecordLayout(t *testing.T) {
	var model [16]float32
	common.Identity(model[:])
	rec := NewRecord(model, 3)
	require.Equal(t, 80, rec.Size())

	buf := rec.Marshal()
	require.Len(t, buf, 80)

	// diagonal of the identity model
	for _, i := range []int{0, 5, 10, 15} {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		assert.Equal(t, float32(1), got)
	}

	layer := math.Float32frombits(binary.LittleEndian.Uint32(buf[64:]))
	assert.Equal(t, float32(3), layer)
	for _, off := range []int{68, 72, 76} {
		pad := binary.LittleEndian.Uint32(buf[off:])
		assert.Zero(t, pad)
	}
}

func TestSetCapacityEnforced(t *testing.T) {
	s := NewSet()
	require.Equal(t, DefaultCapacity, s.Capacity())

	var model [16]float32
	common.Identity(model[:])
	for i := range DefaultCapacity {
		require.NoError(t, s.Add(NewRecord(model, float32(i))))
	}
	require.Equal(t, DefaultCapacity, s.Len())

	err := s.Add(NewRecord(model, 99))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, DefaultCapacity, s.Len())
}

func TestSetRecordsReplacesAndValidates(t *testing.T) {
	s := NewSet(WithCapacity(2))

	var model [16]float32
	common.Identity(model[:])
	require.NoError(t, s.SetRecords([]GPUInstanceRecord{
		NewRecord(model, 0),
		NewRecord(model, 1),
	}))
	assert.Equal(t, 2, s.Len())

	err := s.SetRecords(make([]GPUInstanceRecord, 3))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	// failed replace leaves the staged records untouched
	assert.Equal(t, 2, s.Len())
}

func TestSetLayerPassthroughBitExact(t *testing.T) {
	s := NewSet()
	var model [16]float32
	common.Identity(model[:])

	layers := []float32{0, 1, 2.5, 7, float32(math.Pi)}
	for _, l := range layers {
		require.NoError(t, s.Add(NewRecord(model, l)))
	}

	for i, want := range layers {
		rec, ok := s.At(i)
		require.True(t, ok)
		assert.Equal(t, math.Float32bits(want), math.Float32bits(rec.ArrayIndex[0]))
	}

	_, ok := s.At(len(layers))
	assert.False(t, ok)
}

func TestSetMarshalPadsToCapacity(t *testing.T) {
	s := NewSet(WithCapacity(4))
	var model [16]float32
	common.Identity(model[:])
	require.NoError(t, s.Add(NewRecord(model, 2)))

	buf := s.Marshal()
	require.Len(t, buf, 4*80)

	layer := math.Float32frombits(binary.LittleEndian.Uint32(buf[64:]))
	assert.Equal(t, float32(2), layer)
	for _, b := range buf[80:] {
		require.Zero(t, b)
	}
}

func TestSetFlushEmitsWholeBlock(t *testing.T) {
	s := NewSet(WithCapacity(2))
	var model [16]float32
	common.Identity(model[:])
	require.NoError(t, s.Add(NewRecord(model, 1)))
	require.True(t, s.Dirty())

	writes := s.Flush()
	require.Len(t, writes, 1)
	assert.Equal(t, RecordBinding, writes[0].Binding)
	assert.Equal(t, uint64(0), writes[0].Offset)
	assert.Len(t, writes[0].Data, 2*80)

	assert.False(t, s.Dirty())
	assert.Empty(t, s.Flush())
}

func TestSetPanicsOnBadCapacity(t *testing.T) {
	assert.Panics(t, func() { NewSet(WithCapacity(0)) })
	assert.Panics(t, func() { NewSet(WithCapacity(-1)) })
}
