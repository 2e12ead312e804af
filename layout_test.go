package ecs

import (
	"testing"

	"github.com/rotisserie/eris"
)

type byteAndWord struct {
	B byte
	W int64
}

type smallByte struct{ B byte }

type huge struct{ Data [ChunkStorageSize]byte }

type half struct{ Data [ChunkStorageSize / 2]byte }

// go test -run ^TestBuildComponentCombination$ . -count 1
func TestBuildComponentCombination(t *testing.T) {
	w := NewWorld()
	pos := Register[Position](w)

	t.Run("capacity", func(t *testing.T) {
		combo, err := BuildComponentCombination([]*ComponentInfo{pos})
		if err != nil {
			t.Fatal(err)
		}
		row := entityIDSize + pos.Size
		if want := int(ChunkStorageSize/row) - capacitySafetyRows; combo.ChunkCapacity != want {
			t.Errorf("expected capacity %d, got %d", want, combo.ChunkCapacity)
		}
		if combo.Offsets[0] != uintptr(combo.ChunkCapacity)*entityIDSize {
			t.Errorf("column should follow the entity column, got offset %d", combo.Offsets[0])
		}
		if combo.Span > ChunkStorageSize {
			t.Errorf("span %d exceeds storage %d", combo.Span, ChunkStorageSize)
		}
	})

	t.Run("alignment", func(t *testing.T) {
		types := sortTypes([]*ComponentInfo{Register[smallByte](w), Register[byteAndWord](w), pos, Register[Tag](w)})
		combo, err := BuildComponentCombination(types)
		if err != nil {
			t.Fatal(err)
		}
		for i, ty := range combo.Types {
			if ty.IsTag() {
				if combo.Offsets[i] != 0 {
					t.Errorf("tag %s given offset %d", ty.Type, combo.Offsets[i])
				}
				continue
			}
			if combo.Offsets[i]%ty.Align != 0 {
				t.Errorf("%s at offset %d is not %d-aligned", ty.Type, combo.Offsets[i], ty.Align)
			}
		}
		if combo.Span > ChunkStorageSize {
			t.Errorf("span %d exceeds storage %d", combo.Span, ChunkStorageSize)
		}
	})

	t.Run("empty", func(t *testing.T) {
		combo, err := BuildComponentCombination(nil)
		if err != nil {
			t.Fatal(err)
		}
		if combo.ChunkCapacity < 1 || combo.RowSize != entityIDSize {
			t.Errorf("unexpected empty layout %+v", combo)
		}
	})

	t.Run("too large", func(t *testing.T) {
		for _, types := range [][]*ComponentInfo{
			{Register[huge](w)},
			sortTypes([]*ComponentInfo{Register[half](w), pos}),
		} {
			_, err := BuildComponentCombination(types)
			if !eris.Is(err, ErrLayoutTooLarge) {
				t.Errorf("expected ErrLayoutTooLarge for %s, got %v", typeNames(types), err)
			}
		}
	})

	t.Run("column lookup", func(t *testing.T) {
		combo, _ := BuildComponentCombination([]*ComponentInfo{pos})
		if combo.Column(pos.Hash) != 0 || combo.Column(HashOf[Velocity]()) != -1 {
			t.Error("Column lookup mismatch")
		}
	})
}

// go test -run ^TestLayoutTooLargeThroughWorld$ . -count 1
func TestLayoutTooLargeThroughWorld(t *testing.T) {
	w := NewWorld()
	info := Register[huge](w)
	if err := w.PrepareArchetype(info); !eris.Is(err, ErrLayoutTooLarge) {
		t.Fatalf("expected ErrLayoutTooLarge, got %v", err)
	}
	expectPanic(t, "NewEntity", func() { w.NewEntity(info) })
	e := w.NewEntity()
	expectPanic(t, "AddComponent", func() { AddComponent[huge](w, e) })
	if !w.IsValid(e) || w.NumComponents(e) != 0 {
		t.Error("failed add left the entity changed")
	}
	if err := w.PrepareArchetype(Register[Position](w)); err != nil {
		t.Errorf("PrepareArchetype failed for a small type: %v", err)
	}
}

// go test -run ^TestTooManyComponents$ . -count 1
func TestTooManyComponents(t *testing.T) {
	types := make([]*ComponentInfo, MaxArchetypeComponents+1)
	for i := range types {
		types[i] = &ComponentInfo{Hash: TypeHash(i)}
	}
	expectPanic(t, "BuildComponentCombination", func() { BuildComponentCombination(types) })
}

// go test -run ^TestColumnView$ . -count 1
func TestColumnView(t *testing.T) {
	w := NewWorld()
	for i := range 10 {
		NewEntity2(w, Position{X: float32(i)}, Tag{})
	}
	q := w.Query(Register[Position](w))
	seen := 0
	w.ForEachChunk(q, func(v ChunkView) {
		ps := Column[Position](v)
		es := v.Entities()
		if len(ps) != v.Len() || len(es) != v.Len() {
			t.Fatalf("column lengths %d/%d, chunk holds %d", len(ps), len(es), v.Len())
		}
		if Column[Tag](v) != nil {
			t.Error("tag column should be nil")
		}
		if Column[Velocity](v) != nil {
			t.Error("missing column should be nil")
		}
		for i, e := range es {
			if GetComponent[Position](w, e).X != ps[i].X {
				t.Errorf("row %d not aligned with its entity", i)
			}
		}
		if v.Capacity() != v.Layout().ChunkCapacity {
			t.Error("capacity mismatch")
		}
		seen += v.Len()
	})
	if seen != 10 {
		t.Errorf("expected 10 rows, saw %d", seen)
	}
}
