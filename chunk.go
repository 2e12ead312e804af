package ecs

import (
	"fmt"
	"reflect"
	"unsafe"
)

// chunkHeader is the bookkeeping part of a chunk.
type chunkHeader struct {
	combo     *ComponentCombination
	archetype uint32 // index into the world's archetype list
	count     uint32 // live rows; row count-1 is always the last occupied one
}

// chunk is a fixed-capacity block for one archetype. Column i of the block
// starts at combo.Offsets[i]; row r of that column is Size bytes at
// Offsets[i] + r*Size. This file is the only place that does pointer
// arithmetic on chunk memory.
type chunk struct {
	chunkHeader
	base unsafe.Pointer // storage block of type combo.block
}

// zeroSized is handed out for tag components, which own no memory.
var zeroSized struct{}

func newChunk(archetype uint32, combo *ComponentCombination) *chunk {
	return &chunk{
		chunkHeader: chunkHeader{combo: combo, archetype: archetype},
		base:        reflect.New(combo.block).UnsafePointer(),
	}
}

func (c *chunk) len() int {
	return int(c.count)
}

func (c *chunk) full() bool {
	return int(c.count) == c.combo.ChunkCapacity
}

func (c *chunk) checkSlot(slot int) {
	if slot < 0 || slot >= c.combo.ChunkCapacity {
		panic(fmt.Sprintf("ecs: slot %d out of chunk capacity %d", slot, c.combo.ChunkCapacity))
	}
}

// entities returns the live part of the entity-id column.
func (c *chunk) entities() []EntityID {
	return unsafe.Slice((*EntityID)(c.base), c.combo.ChunkCapacity)[:c.count]
}

func (c *chunk) entityAt(slot int) EntityID {
	if debugChecks {
		c.checkSlot(slot)
	}
	return *(*EntityID)(unsafe.Add(c.base, uintptr(slot)*entityIDSize))
}

func (c *chunk) setEntity(slot int, e EntityID) {
	if debugChecks {
		c.checkSlot(slot)
	}
	*(*EntityID)(unsafe.Add(c.base, uintptr(slot)*entityIDSize)) = e
}

// component returns the address of column col at row slot.
func (c *chunk) component(col, slot int) unsafe.Pointer {
	if debugChecks {
		c.checkSlot(slot)
	}
	t := c.combo.Types[col]
	if t.Size == 0 {
		return unsafe.Pointer(&zeroSized)
	}
	return unsafe.Add(c.base, c.combo.Offsets[col]+uintptr(slot)*t.Size)
}

// column returns the base address of column col, or nil for tags.
func (c *chunk) column(col int) unsafe.Pointer {
	if c.combo.Types[col].Size == 0 {
		return nil
	}
	return unsafe.Add(c.base, c.combo.Offsets[col])
}

// ChunkView gives read and write access to the live rows of one chunk
// during iteration. It is only valid inside the callback that received it.
type ChunkView struct {
	c *chunk
}

// Len returns the number of live rows.
func (v ChunkView) Len() int {
	return v.c.len()
}

// Capacity returns the maximum number of rows the chunk can hold.
func (v ChunkView) Capacity() int {
	return v.c.combo.ChunkCapacity
}

// Entities returns the entity ids of the live rows, aligned with Column.
func (v ChunkView) Entities() []EntityID {
	return v.c.entities()
}

// Layout returns the component layout shared by every chunk of the
// archetype.
func (v ChunkView) Layout() *ComponentCombination {
	return v.c.combo
}

// Column returns the live rows of the column holding T, aligned by slot with
// Entities. It returns nil if the chunk has no such column or T is a tag.
func Column[T any](v ChunkView) []T {
	col := v.c.combo.Column(HashOf[T]())
	if col < 0 {
		return nil
	}
	if t := v.c.combo.Types[col].Type; t != reflect.TypeFor[T]() {
		panic(fmt.Sprintf("ecs: column holds %s, not %s", t, reflect.TypeFor[T]()))
	}
	p := v.c.column(col)
	if p == nil {
		return nil
	}
	return unsafe.Slice((*T)(p), v.c.combo.ChunkCapacity)[:v.c.count]
}
