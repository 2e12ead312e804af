package ecs

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unsafe"

	"github.com/rotisserie/eris"
)

// ErrLayoutTooLarge is returned when a component combination cannot fit at
// least one row in a chunk.
var ErrLayoutTooLarge = eris.New("ecs: component layout does not fit in a chunk")

const (
	// chunkHeaderSize is the part of a chunk taken by its bookkeeping.
	chunkHeaderSize = unsafe.Sizeof(chunkHeader{})
	// ChunkStorageSize is the number of bytes available for columns.
	ChunkStorageSize = ChunkSize - chunkHeaderSize
	// capacitySafetyRows is subtracted from the naive capacity to leave room
	// for alignment padding between columns.
	capacitySafetyRows = 2

	entityIDSize = unsafe.Sizeof(EntityID{})
)

var entityIDType = reflect.TypeFor[EntityID]()

// ComponentCombination is the immutable chunk layout of one component set:
// column offsets within the storage block plus the number of entities a
// chunk holds. The entity-id column always starts at offset 0.
type ComponentCombination struct {
	Types         []*ComponentInfo // sorted by hash
	Offsets       []uintptr        // byte offset of each column; 0 for tags
	ChunkCapacity int
	Span          uintptr // bytes used by all columns
	RowSize       uintptr // entity id plus every component size

	block reflect.Type // typed storage block matching Offsets
}

// BuildComponentCombination lays out the columns of types in a chunk. types
// must be sorted by hash and free of duplicates.
func BuildComponentCombination(types []*ComponentInfo) (*ComponentCombination, error) {
	if len(types) > MaxArchetypeComponents {
		panic(fmt.Sprintf("ecs: %d components exceed the archetype limit of %d", len(types), MaxArchetypeComponents))
	}
	row := entityIDSize
	for _, t := range types {
		row += t.Size
	}
	capacity := int(ChunkStorageSize/row) - capacitySafetyRows
	if capacity < 1 {
		return nil, eris.Wrapf(ErrLayoutTooLarge, "row of %d bytes for [%s] leaves no room in %d bytes",
			row, typeNames(types), ChunkStorageSize)
	}

	combo := &ComponentCombination{
		Types:         slices.Clone(types),
		Offsets:       make([]uintptr, len(types)),
		ChunkCapacity: capacity,
		RowSize:       row,
	}
	fields := make([]reflect.StructField, 0, len(types)+1)
	fields = append(fields, reflect.StructField{
		Name: "Entities",
		Type: reflect.ArrayOf(capacity, entityIDType),
	})
	offset := uintptr(capacity) * entityIDSize
	for i, t := range types {
		if t.IsTag() {
			continue
		}
		offset = alignUp(offset, t.Align)
		combo.Offsets[i] = offset
		fields = append(fields, reflect.StructField{
			Name: fmt.Sprintf("C%d", i),
			Type: reflect.ArrayOf(capacity, t.Type),
		})
		offset += uintptr(capacity) * t.Size
	}
	if offset > ChunkStorageSize {
		return nil, eris.Wrapf(ErrLayoutTooLarge, "columns for [%s] span %d of %d bytes",
			typeNames(types), offset, ChunkStorageSize)
	}
	combo.Span = offset

	// The block is allocated through reflect so the collector knows where
	// pointers live; its field offsets must agree with ours.
	combo.block = reflect.StructOf(fields)
	f := 1
	for i, t := range types {
		if t.IsTag() {
			continue
		}
		if got := combo.block.Field(f).Offset; got != combo.Offsets[i] {
			panic(fmt.Sprintf("ecs: column %s laid out at %d, storage block has it at %d", t.Type, combo.Offsets[i], got))
		}
		f++
	}
	return combo, nil
}

// Column returns the index of the column holding h, or -1.
func (c *ComponentCombination) Column(h TypeHash) int {
	for i, t := range c.Types {
		if t.Hash == h {
			return i
		}
	}
	return -1
}

// sameTypes compares two sorted type lists by descriptor identity.
func sameTypes(a, b []*ComponentInfo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func typeNames(types []*ComponentInfo) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name()
	}
	return strings.Join(names, ", ")
}
