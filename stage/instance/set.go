package instance

import (
	"errors"
	"fmt"
	"sync"

	"github.com/umbra-gfx/umbra-go/stage/renderer/bind_group_provider"
)

// DefaultCapacity is the default instance array capacity. The capacity is a
// pipeline-build-time constant; exceeding it is a host-side precondition
// failure, never checked per invocation.
const DefaultCapacity = 8

// RecordBinding is the binding index of the instance array buffer within its
// bind group (group 0, binding 1 in the shipped instanced shaders).
const RecordBinding = 1

// ErrCapacityExceeded is returned when more records are staged than the set's
// fixed capacity allows.
var ErrCapacityExceeded = errors.New("instance capacity exceeded")

// set is the unexported implementation of Set.
type set struct {
	mu *sync.Mutex

	capacity int
	records  []GPUInstanceRecord
	dirty    bool

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Set is an ordered, fixed-capacity collection of instance records bound as
// one uniform array. Record order is the draw order: ordinal i of an
// instanced draw reads element i. Overflow behavior is undefined GPU-side, so
// every mutation here enforces the capacity.
type Set interface {
	// Capacity returns the fixed record capacity.
	//
	// Returns:
	//   - int: the capacity
	Capacity() int

	// Len returns the number of records currently staged.
	//
	// Returns:
	//   - int: the record count
	Len() int

	// Add appends a record, preserving insertion order.
	//
	// Parameters:
	//   - record: the record to append
	//
	// Returns:
	//   - error: ErrCapacityExceeded when the set is full
	Add(record GPUInstanceRecord) error

	// SetRecords replaces all staged records.
	//
	// Parameters:
	//   - records: the new record list, in draw order
	//
	// Returns:
	//   - error: ErrCapacityExceeded when len(records) exceeds the capacity
	SetRecords(records []GPUInstanceRecord) error

	// At returns the record at ordinal i.
	//
	// Parameters:
	//   - i: the record ordinal
	//
	// Returns:
	//   - GPUInstanceRecord: the record
	//   - bool: false when i is outside [0, Len())
	At(i int) (GPUInstanceRecord, bool)

	// Records returns a copy of the staged records in draw order, the
	// frame-scoped snapshot consumed by reference evaluation.
	//
	// Returns:
	//   - []GPUInstanceRecord: the records
	Records() []GPUInstanceRecord

	// Clear removes all staged records and marks the set dirty.
	Clear()

	// Marshal serializes the full uniform block: capacity * 80 bytes with
	// staged records first and zeroed tail elements.
	//
	// Returns:
	//   - []byte: the serialized block
	Marshal() []byte

	// Dirty reports whether records changed since the last Flush.
	//
	// Returns:
	//   - bool: true if an upload is pending
	Dirty() bool

	// Flush clears the dirty mark and returns the pending upload as a single
	// whole-block buffer write.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: one write, or empty when clean
	Flush() []bind_group_provider.BufferWrite

	// BindGroupProvider returns the provider holding the set's GPU buffer.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider or nil
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetBindGroupProvider sets the provider holding the set's GPU buffer.
	//
	// Parameters:
	//   - provider: the provider to use
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Set = &set{}

// NewSet creates an instance set with the default capacity of 8, overridable
// once through WithCapacity. Panics if the configured capacity is not
// positive.
//
// Parameters:
//   - options: a variadic list of options to configure the set
//
// Returns:
//   - Set: a new empty set
func NewSet(options ...SetBuilderOption) Set {
	s := &set{
		mu:       &sync.Mutex{},
		capacity: DefaultCapacity,
	}
	for _, option := range options {
		option(s)
	}
	if s.capacity <= 0 {
		panic(fmt.Sprintf("instance: set capacity must be positive, got %d", s.capacity))
	}
	s.records = make([]GPUInstanceRecord, 0, s.capacity)
	return s
}

func (s *set) Capacity() int {
	return s.capacity
}

func (s *set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *set) Add(record GPUInstanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) >= s.capacity {
		return fmt.Errorf("add record %d of %d: %w", len(s.records)+1, s.capacity, ErrCapacityExceeded)
	}
	s.records = append(s.records, record)
	s.dirty = true
	return nil
}

func (s *set) SetRecords(records []GPUInstanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(records) > s.capacity {
		return fmt.Errorf("stage %d records with capacity %d: %w", len(records), s.capacity, ErrCapacityExceeded)
	}
	s.records = s.records[:0]
	s.records = append(s.records, records...)
	s.dirty = true
	return nil
}

func (s *set) At(i int) (GPUInstanceRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.records) {
		return GPUInstanceRecord{}, false
	}
	return s.records[i], true
}

func (s *set) Records() []GPUInstanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GPUInstanceRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0]
	s.dirty = true
}

func (s *set) Marshal() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rec GPUInstanceRecord
	buf := make([]byte, s.capacity*rec.Size())
	for i := range s.records {
		copy(buf[i*rec.Size():], s.records[i].Marshal())
	}
	return buf
}

func (s *set) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *set) Flush() []bind_group_provider.BufferWrite {
	s.mu.Lock()
	dirty := s.dirty
	s.dirty = false
	s.mu.Unlock()
	if !dirty {
		return nil
	}
	return []bind_group_provider.BufferWrite{{
		Provider: s.bindGroupProvider,
		Binding:  RecordBinding,
		Offset:   0,
		Data:     s.Marshal(),
	}}
}

func (s *set) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return s.bindGroupProvider
}

func (s *set) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	s.bindGroupProvider = provider
}
