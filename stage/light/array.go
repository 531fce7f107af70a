package light

import (
	"errors"
	"fmt"
	"sync"

	"github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"
)

// MaxLights is the default light budget per lit draw. The budget is a
// pipeline-build-time constant; the shading loop always iterates the full
// array and unused tail records stay zeroed.
const MaxLights = 6

// ArrayBinding is the binding index of the light array buffer within its bind
// group (group 1, binding 1 in the shipped lit shaders).
const ArrayBinding = 1

// ErrTooManyLights is returned when more lights are staged than the array's
// fixed capacity allows.
var ErrTooManyLights = errors.New("light budget exceeded")

// ErrNegativeRadius is returned when a light with a negative radius is
// staged. Radius validation happens host-side at staging time; the shading
// code receives the value unmodified.
var ErrNegativeRadius = errors.New("light radius must be non-negative")

// array is the unexported implementation of Array.
type array struct {
	mu sync.Mutex

	capacity int
	lights   []Light
	live     bool

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Array is the ordered, fixed-capacity light set bound as one uniform array.
// Light state lives in mutable Light entities, so Flush re-marshals the full
// block every frame rather than tracking dirtiness per light.
type Array interface {
	// Capacity returns the fixed light budget.
	//
	// Returns:
	//   - int: the capacity
	Capacity() int

	// Len returns the number of staged lights, enabled or not.
	//
	// Returns:
	//   - int: the light count
	Len() int

	// Add stages a light, preserving insertion order.
	//
	// Parameters:
	//   - l: the light to stage
	//
	// Returns:
	//   - error: ErrTooManyLights when full, ErrNegativeRadius on a negative radius
	Add(l Light) error

	// SetLights replaces all staged lights.
	//
	// Parameters:
	//   - lights: the new light list, in accumulation order
	//
	// Returns:
	//   - error: ErrTooManyLights or ErrNegativeRadius, leaving the staged set untouched
	SetLights(lights []Light) error

	// Lights returns a copy of the staged light list.
	//
	// Returns:
	//   - []Light: the staged lights in order
	Lights() []Light

	// Records snapshots the enabled lights as GPU records, order preserved.
	// This is the frame-scoped input consumed by reference evaluation.
	//
	// Returns:
	//   - []GPULightRecord: one record per enabled light
	Records() []GPULightRecord

	// Clear removes all staged lights.
	Clear()

	// Validate re-checks the radius precondition over the current entity
	// state. Radii mutate through entity pointers after staging, so the draw
	// gate runs this before submission.
	//
	// Returns:
	//   - error: ErrNegativeRadius naming the offending light index, or nil
	Validate() error

	// Marshal serializes the full uniform block: capacity * 16 bytes with
	// enabled-light records first and zeroed tail elements.
	//
	// Returns:
	//   - []byte: the serialized block
	Marshal() []byte

	// Flush returns the frame's upload as a single whole-block buffer write.
	// An array that has never held a light flushes nothing; once it has, the
	// first flush after it empties still uploads a zeroed block.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: one write, or empty
	Flush() []bind_group_provider.BufferWrite

	// BindGroupProvider returns the provider holding the array's GPU buffer.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider or nil
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetBindGroupProvider sets the provider holding the array's GPU buffer.
	//
	// Parameters:
	//   - provider: the provider to use
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Array = &array{}

// NewArray creates a light array with the default budget of 6, overridable
// once through WithArrayCapacity. Panics if the configured capacity is not
// positive.
//
// Parameters:
//   - options: a variadic list of options to configure the array
//
// Returns:
//   - Array: a new empty array
func NewArray(options ...ArrayBuilderOption) Array {
	a := &array{
		capacity: MaxLights,
	}
	for _, option := range options {
		option(a)
	}
	if a.capacity <= 0 {
		panic(fmt.Sprintf("light: array capacity must be positive, got %d", a.capacity))
	}
	a.lights = make([]Light, 0, a.capacity)
	return a
}

func (a *array) Capacity() int {
	return a.capacity
}

func (a *array) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.lights)
}

func (a *array) Add(l Light) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.lights) >= a.capacity {
		return fmt.Errorf("stage light %d of %d: %w", len(a.lights)+1, a.capacity, ErrTooManyLights)
	}
	if l.Radius() < 0 {
		return fmt.Errorf("stage light with radius %f: %w", l.Radius(), ErrNegativeRadius)
	}
	a.lights = append(a.lights, l)
	a.live = true
	return nil
}

func (a *array) SetLights(lights []Light) error {
	if len(lights) > a.capacity {
		return fmt.Errorf("stage %d lights with budget %d: %w", len(lights), a.capacity, ErrTooManyLights)
	}
	for i, l := range lights {
		if l.Radius() < 0 {
			return fmt.Errorf("stage light %d with radius %f: %w", i, l.Radius(), ErrNegativeRadius)
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lights = a.lights[:0]
	a.lights = append(a.lights, lights...)
	if len(lights) > 0 {
		a.live = true
	}
	return nil
}

func (a *array) Lights() []Light {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Light, len(a.lights))
	copy(out, a.lights)
	return out
}

func (a *array) Records() []GPULightRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	records := make([]GPULightRecord, 0, len(a.lights))
	for _, l := range a.lights {
		if !l.Enabled() {
			continue
		}
		records = append(records, l.Record())
	}
	return records
}

func (a *array) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lights = a.lights[:0]
}

func (a *array) Validate() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, l := range a.lights {
		if l.Radius() < 0 {
			return fmt.Errorf("light %d has radius %f: %w", i, l.Radius(), ErrNegativeRadius)
		}
	}
	return nil
}

func (a *array) Marshal() []byte {
	records := a.Records()
	var rec GPULightRecord
	buf := make([]byte, a.capacity*rec.Size())
	for i := range records {
		copy(buf[i*rec.Size():], records[i].Marshal())
	}
	return buf
}

func (a *array) Flush() []bind_group_provider.BufferWrite {
	a.mu.Lock()
	if len(a.lights) == 0 {
		// The first flush after the array empties still uploads once,
		// zeroing the buffer.
		if !a.live {
			a.mu.Unlock()
			return nil
		}
		a.live = false
	}
	a.mu.Unlock()
	return []bind_group_provider.BufferWrite{{
		Provider: a.bindGroupProvider,
		Binding:  ArrayBinding,
		Offset:   0,
		Data:     a.Marshal(),
	}}
}

func (a *array) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return a.bindGroupProvider
}

func (a *array) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	a.bindGroupProvider = provider
}
