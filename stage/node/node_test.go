package node

import (
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umbra-gfx/umbra-go/common"
)

func sequentialTransform(base float32) GPUNodeTransform {
	var t GPUNodeTransform
	for i := range t.Model {
		t.Model[i] = base + float32(i)
	}
	return t
}

func TestGPUNodeTransformLayout(t *testing.T) {
	tr := sequentialTransform(0)
	require.Equal(t, 64, tr.Size())

	buf := tr.Marshal()
	require.Len(t, buf, 64)
	for i := range 16 {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		assert.Equal(t, float32(i), got)
	}
}

func TestArenaStrideRoundsUpToAlignment(t *testing.T) {
	a := NewArena(4)
	assert.Equal(t, uint32(256), a.Stride())
	assert.Equal(t, uint32(256), a.Alignment())
	assert.Equal(t, uint64(1024), a.Size())

	tight := NewArena(4, WithAlignment(64))
	assert.Equal(t, uint32(64), tight.Stride())
	assert.Equal(t, uint64(256), tight.Size())
}

func TestArenaDynamicOffsetsAreAlignmentMultiples(t *testing.T) {
	a := NewArena(8)
	for i := range 8 {
		off := a.DynamicOffset(i)
		assert.Equal(t, uint32(i)*a.Stride(), off)
		assert.Zero(t, off%a.Alignment())
	}
}

func TestArenaSetRangeChecked(t *testing.T) {
	a := NewArena(2)
	require.NoError(t, a.Set(0, GPUNodeTransform{}))
	require.NoError(t, a.Set(1, GPUNodeTransform{}))

	err := a.Set(2, GPUNodeTransform{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexRange)

	err = a.Set(-1, GPUNodeTransform{})
	assert.ErrorIs(t, err, ErrIndexRange)

	_, err = a.At(5)
	assert.ErrorIs(t, err, ErrIndexRange)
}

func TestArenaMarshalPlacesSlotsAtStrideOffsets(t *testing.T) {
	a := NewArena(3, WithAlignment(256))
	require.NoError(t, a.Set(0, sequentialTransform(0)))
	require.NoError(t, a.Set(2, sequentialTransform(1000)))

	buf := a.Marshal()
	require.Len(t, buf, 3*256)

	first := math.Float32frombits(binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, float32(0), first)

	slot2 := math.Float32frombits(binary.LittleEndian.Uint32(buf[2*256:]))
	assert.Equal(t, float32(1000), slot2)

	got, err := a.At(2)
	require.NoError(t, err)
	assert.Equal(t, sequentialTransform(1000), got)
}

func TestArenaFlushCoalescesConsecutiveSlots(t *testing.T) {
	a := NewArena(6)
	require.NoError(t, a.Set(1, sequentialTransform(1)))
	require.NoError(t, a.Set(2, sequentialTransform(2)))
	require.NoError(t, a.Set(4, sequentialTransform(4)))
	require.True(t, a.Dirty())

	writes := a.Flush()
	require.Len(t, writes, 2)

	assert.Equal(t, uint64(a.DynamicOffset(1)), writes[0].Offset)
	assert.Len(t, writes[0].Data, int(a.Stride())*2)
	assert.Equal(t, TransformBinding, writes[0].Binding)

	assert.Equal(t, uint64(a.DynamicOffset(4)), writes[1].Offset)
	assert.Len(t, writes[1].Data, int(a.Stride()))

	assert.False(t, a.Dirty())
	assert.Empty(t, a.Flush())
}

func TestArenaConcurrentSet(t *testing.T) {
	const slots = 16
	a := NewArena(slots)

	var wg sync.WaitGroup
	for i := range slots {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, a.Set(i, sequentialTransform(float32(i*100))))
		}()
	}
	wg.Wait()

	for i := range slots {
		got, err := a.At(i)
		require.NoError(t, err)
		assert.Equal(t, sequentialTransform(float32(i*100)), got)
	}
}

func TestArenaPanicsOnBadConfiguration(t *testing.T) {
	assert.Panics(t, func() { NewArena(0) })
	assert.Panics(t, func() { NewArena(-2) })
	assert.Panics(t, func() { NewArena(4, WithAlignment(100)) })
}

func TestNewNodeDefaults(t *testing.T) {
	n := NewNode()
	assert.True(t, n.Enabled())
	assert.Equal(t, -1, n.Index())
	assert.True(t, n.Dirty())

	sx, sy, sz := n.Scale()
	assert.Equal(t, [3]float32{1, 1, 1}, [3]float32{sx, sy, sz})
}

func TestNodeTransformMatchesModelMatrix(t *testing.T) {
	n := NewNode(
		WithPosition(1, 2, 3),
		WithRotation(0, math.Pi/2, 0),
		WithScale(2, 2, 2),
	)

	want := make([]float32, 16)
	common.BuildModelMatrix(want, 1, 2, 3, 0, math.Pi/2, 0, 2, 2, 2)

	got := n.Transform()
	for i := range 16 {
		assert.InDelta(t, want[i], got.Model[i], 1e-6)
	}
}

func TestNodeAdvanceIntegratesSpin(t *testing.T) {
	n := NewNode(WithSpin([3]float32{0, 1, 0}, 90))
	n.SetDirty(false)

	n.Advance(1.0)
	require.True(t, n.Dirty())

	_, ry, _ := n.Rotation()
	assert.InDelta(t, math.Pi/2, ry, 1e-5)
}

func TestNodeAdvanceWithoutSpinStaysClean(t *testing.T) {
	n := NewNode()
	n.SetDirty(false)

	n.Advance(1.0)
	assert.False(t, n.Dirty())
}

func TestNodeSettersMarkDirty(t *testing.T) {
	n := NewNode()
	n.SetDirty(false)

	n.SetPosition(5, 0, 0)
	assert.True(t, n.Dirty())

	n.SetDirty(false)
	n.SetRotation(0, 1, 0)
	assert.True(t, n.Dirty())

	n.SetDirty(false)
	n.SetScale(2, 2, 2)
	assert.True(t, n.Dirty())
}
