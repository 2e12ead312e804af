package ecs

import "fmt"

// EntityID is a generational handle to an entity. Index addresses a slot in
// the world's entity table; Generation must match the slot's current
// generation for the handle to be live.
type EntityID struct {
	Index      uint32 // slot in the entity table, recycled after destruction
	Generation uint32 // incremented every time the slot is freed
}

// NilEntity is never a live entity.
var NilEntity = EntityID{}

// Pack returns the handle as a single 64-bit value, generation in the high
// word.
func (e EntityID) Pack() uint64 {
	return uint64(e.Generation)<<32 | uint64(e.Index)
}

// UnpackEntityID is the inverse of EntityID.Pack.
func UnpackEntityID(v uint64) EntityID {
	return EntityID{Index: uint32(v), Generation: uint32(v >> 32)}
}

// IsNil reports whether e is the zero handle.
func (e EntityID) IsNil() bool {
	return e == NilEntity
}

func (e EntityID) String() string {
	return fmt.Sprintf("%d:%d", e.Index, e.Generation)
}

// entityRecord holds where an entity lives.
type entityRecord struct {
	chunk      *chunk // nil while the slot is free
	slot       int    // row inside chunk
	generation uint32 // current generation of this slot
	moved      uint64 // world migration count at the last archetype change
}

// entityTable maps entity indices to their chunk rows. Freed indices are
// kept on a stack and reused, newest first.
type entityTable struct {
	records []entityRecord
	freeIDs []uint32
	alive   int
}

func newEntityTable(capacity int) entityTable {
	return entityTable{
		records: make([]entityRecord, 0, capacity),
		freeIDs: make([]uint32, 0, capacity/4),
	}
}

// allocate pops a free index or appends a fresh slot with generation 1. The
// returned record has no chunk yet.
func (t *entityTable) allocate() EntityID {
	t.alive++
	if n := len(t.freeIDs); n > 0 {
		idx := t.freeIDs[n-1]
		t.freeIDs = t.freeIDs[:n-1]
		return EntityID{Index: idx, Generation: t.records[idx].generation}
	}
	idx := uint32(len(t.records))
	t.records = append(t.records, entityRecord{generation: 1})
	return EntityID{Index: idx, Generation: 1}
}

// free clears the slot, bumps its generation and queues the index for reuse.
func (t *entityTable) free(e EntityID) {
	rec := &t.records[e.Index]
	rec.chunk = nil
	rec.slot = -1
	rec.moved = 0
	rec.generation++
	if rec.generation == 0 {
		// wrapped; generation 0 is reserved for the nil handle
		rec.generation = 1
	}
	t.freeIDs = append(t.freeIDs, e.Index)
	t.alive--
}

// valid reports whether e refers to a live entity.
func (t *entityTable) valid(e EntityID) bool {
	if int(e.Index) >= len(t.records) {
		return false
	}
	rec := &t.records[e.Index]
	return rec.chunk != nil && rec.generation == e.Generation
}

func (t *entityTable) record(e EntityID) *entityRecord {
	return &t.records[e.Index]
}
