package node

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"
)

// DefaultAlignment is the default uniform offset alignment for arena slots,
// matching the WebGPU default minUniformBufferOffsetAlignment limit.
const DefaultAlignment uint32 = 256

// TransformBinding is the binding index of the arena buffer within its bind
// group (group 0, binding 1 in the shipped shaders).
const TransformBinding = 1

// ErrIndexRange is returned when a slot index falls outside the arena's
// capacity. Capacity is fixed at construction; index validation is a host-side
// precondition, never an invocation-time check.
var ErrIndexRange = errors.New("node index out of range")

// arena is the unexported implementation of Arena.
type arena struct {
	mu *sync.Mutex

	capacity  int
	alignment uint32
	stride    uint32

	// data is the stride-padded backing store, len = capacity * stride.
	data []byte
	// dirtySlots marks slots written since the last Flush.
	dirtySlots []bool
	dirty      bool

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Arena owns a fixed number of node transform slots backed by a single
// uniform buffer. Each slot stores one GPUNodeTransform at a fixed stride;
// draws select a slot with a dynamic offset rather than rebinding, so many
// nodes share one binding. Capacity and alignment are fixed at construction.
type Arena interface {
	// Capacity returns the number of transform slots in the arena.
	//
	// Returns:
	//   - int: the slot count
	Capacity() int

	// Alignment returns the uniform offset alignment the stride was rounded to.
	//
	// Returns:
	//   - uint32: the alignment in bytes
	Alignment() uint32

	// Stride returns the byte distance between consecutive slots: the
	// GPUNodeTransform size rounded up to the alignment.
	//
	// Returns:
	//   - uint32: the slot stride in bytes
	Stride() uint32

	// Size returns the total byte size of the backing buffer.
	//
	// Returns:
	//   - uint64: capacity * stride
	Size() uint64

	// DynamicOffset returns the dynamic offset that selects the given slot at
	// draw time. The index is not range-checked here; pair with Set, which is.
	//
	// Parameters:
	//   - index: the slot index
	//
	// Returns:
	//   - uint32: index * stride
	DynamicOffset(index int) uint32

	// Set writes a transform into a slot and marks it dirty. Safe for
	// concurrent use; the frame prep phase fans slot updates out over a worker
	// pool.
	//
	// Parameters:
	//   - index: the slot index
	//   - t: the transform to store
	//
	// Returns:
	//   - error: ErrIndexRange if index is outside [0, capacity)
	Set(index int, t GPUNodeTransform) error

	// At reads the transform currently stored in a slot.
	//
	// Parameters:
	//   - index: the slot index
	//
	// Returns:
	//   - GPUNodeTransform: the stored transform
	//   - error: ErrIndexRange if index is outside [0, capacity)
	At(index int) (GPUNodeTransform, error)

	// Marshal returns the full stride-padded arena bytes. The returned slice
	// aliases the backing store; callers consume it before the next write
	// phase begins.
	//
	// Returns:
	//   - []byte: the backing store, slot i at offset i*stride
	Marshal() []byte

	// Dirty reports whether any slot has been written since the last Flush.
	//
	// Returns:
	//   - bool: true if at least one slot is dirty
	Dirty() bool

	// Flush clears all dirty marks and returns the pending uploads as buffer
	// writes, with runs of consecutive dirty slots coalesced into single
	// writes. The write data aliases the backing store.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: the coalesced writes, empty when clean
	Flush() []bind_group_provider.BufferWrite

	// BindGroupProvider returns the provider holding the arena's GPU buffer.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider or nil
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetBindGroupProvider sets the provider holding the arena's GPU buffer.
	//
	// Parameters:
	//   - provider: the provider to use
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Arena = &arena{}

// NewArena creates a transform arena with the given slot capacity.
// Panics if capacity is not positive or the configured alignment is not a
// power of two.
//
// Parameters:
//   - capacity: the number of slots, fixed for the arena's lifetime
//   - options: a variadic list of options to configure the arena
//
// Returns:
//   - Arena: a new arena with all slots zeroed and clean
func NewArena(capacity int, options ...ArenaBuilderOption) Arena {
	if capacity <= 0 {
		panic(fmt.Sprintf("node: arena capacity must be positive, got %d", capacity))
	}
	a := &arena{
		mu:        &sync.Mutex{},
		capacity:  capacity,
		alignment: DefaultAlignment,
	}
	for _, option := range options {
		option(a)
	}
	if a.alignment == 0 || a.alignment&(a.alignment-1) != 0 {
		panic(fmt.Sprintf("node: arena alignment must be a power of two, got %d", a.alignment))
	}

	var t GPUNodeTransform
	a.stride = roundUp(uint32(t.Size()), a.alignment)
	a.data = make([]byte, uint64(capacity)*uint64(a.stride))
	a.dirtySlots = make([]bool, capacity)
	return a
}

// roundUp rounds size up to the next multiple of align. align must be a power
// of two.
func roundUp(size, align uint32) uint32 {
	return (size + align - 1) &^ (align - 1)
}

func float32FromBytes(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func (a *arena) Capacity() int {
	return a.capacity
}

func (a *arena) Alignment() uint32 {
	return a.alignment
}

func (a *arena) Stride() uint32 {
	return a.stride
}

func (a *arena) Size() uint64 {
	return uint64(a.capacity) * uint64(a.stride)
}

func (a *arena) DynamicOffset(index int) uint32 {
	return uint32(index) * a.stride
}

func (a *arena) Set(index int, t GPUNodeTransform) error {
	if index < 0 || index >= a.capacity {
		return fmt.Errorf("set slot %d of %d: %w", index, a.capacity, ErrIndexRange)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	copy(a.data[a.DynamicOffset(index):], t.Marshal())
	a.dirtySlots[index] = true
	a.dirty = true
	return nil
}

func (a *arena) At(index int) (GPUNodeTransform, error) {
	var t GPUNodeTransform
	if index < 0 || index >= a.capacity {
		return t, fmt.Errorf("read slot %d of %d: %w", index, a.capacity, ErrIndexRange)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	off := a.DynamicOffset(index)
	for i := range t.Model {
		t.Model[i] = float32FromBytes(a.data[off+uint32(i)*4:])
	}
	return t, nil
}

func (a *arena) Marshal() []byte {
	return a.data
}

func (a *arena) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirty
}

func (a *arena) Flush() []bind_group_provider.BufferWrite {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.dirty {
		return nil
	}

	writes := make([]bind_group_provider.BufferWrite, 0)
	for start := 0; start < a.capacity; {
		if !a.dirtySlots[start] {
			start++
			continue
		}
		end := start
		for end+1 < a.capacity && a.dirtySlots[end+1] {
			end++
		}
		from := a.DynamicOffset(start)
		to := a.DynamicOffset(end) + a.stride
		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: a.bindGroupProvider,
			Binding:  TransformBinding,
			Offset:   uint64(from),
			Data:     a.data[from:to],
		})
		for i := start; i <= end; i++ {
			a.dirtySlots[i] = false
		}
		start = end + 1
	}
	a.dirty = false
	return writes
}

func (a *arena) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return a.bindGroupProvider
}

func (a *arena) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	a.bindGroupProvider = provider
}
