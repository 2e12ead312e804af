package ecs

import "fmt"

// insertEntityInChunk appends a row for id to c and returns its slot. With
// init set, every column is default-constructed; migration and duplication
// pass false and fill the row themselves.
func (w *World) insertEntityInChunk(c *chunk, id EntityID, init bool) int {
	if c.full() {
		panic(fmt.Sprintf("ecs: insert into full chunk of archetype %d", c.archetype))
	}
	slot := int(c.count)
	if init {
		for col, t := range c.combo.Types {
			if t.Size != 0 {
				t.construct(c.component(col, slot))
			}
		}
	}
	c.setEntity(slot, id)
	c.count++
	a := w.archetypes.archetypes[c.archetype]
	a.size++
	if c.full() {
		a.setChunkFull(c)
	}
	return slot
}

// eraseEntityInChunk destructs the row at slot and fills the hole with the
// last row. It returns the id of the entity that moved into slot, if any, so
// the caller can fix its table entry. An emptied chunk is released.
func (w *World) eraseEntityInChunk(c *chunk, slot int) (EntityID, bool) {
	a := w.archetypes.archetypes[c.archetype]
	wasFull := c.full()
	last := int(c.count) - 1
	var moved EntityID
	for col, t := range c.combo.Types {
		if t.Size == 0 {
			continue
		}
		t.destruct(c.component(col, slot))
		if slot != last {
			t.move(c.component(col, slot), c.component(col, last))
		}
	}
	if slot != last {
		moved = c.entityAt(last)
		c.setEntity(slot, moved)
	}
	c.setEntity(last, NilEntity)
	c.count--
	a.size--
	if wasFull {
		a.setChunkPartial(c)
	}
	if c.count == 0 {
		w.releaseChunk(a, c)
	}
	return moved, slot != last
}

// eraseRow erases a row and repairs the table entry of the entity that was
// swapped into its place.
func (w *World) eraseRow(c *chunk, slot int) {
	if moved, ok := w.eraseEntityInChunk(c, slot); ok {
		w.entities.record(moved).slot = slot
	}
}

// moveEntityToArchetype migrates id into target. Columns present in both
// archetypes are moved, columns new to target are default-constructed and
// columns missing from target are dropped with the old row. The entity is
// never observable in two archetypes.
func (w *World) moveEntityToArchetype(target *archetype, id EntityID) {
	rec := w.entities.record(id)
	src, srcSlot := rec.chunk, rec.slot
	dst := w.findFreeChunk(target)
	dstSlot := w.insertEntityInChunk(dst, id, false)

	from, to := src.combo.Types, dst.combo.Types
	i := 0
	for j, t := range to {
		for i < len(from) && from[i].Hash < t.Hash {
			i++
		}
		if t.Size == 0 {
			continue
		}
		if i < len(from) && from[i] == t {
			t.move(dst.component(j, dstSlot), src.component(i, srcSlot))
		} else {
			t.construct(dst.component(j, dstSlot))
		}
	}

	w.eraseRow(src, srcSlot)
	w.migrations++
	rec.chunk = dst
	rec.slot = dstSlot
	rec.moved = w.migrations
}

// addComponent migrates e to the archetype that also holds info. It reports
// false if e already had the component.
func (w *World) addComponent(e EntityID, info *ComponentInfo) bool {
	rec := w.mustRecord(e)
	a := w.archetypes.archetypes[rec.chunk.archetype]
	if a.has(info.Hash) {
		return false
	}
	w.moveEntityToArchetype(w.archetypeWith(a, info), e)
	return true
}

// removeComponent fires the removal callbacks while the value is still
// readable, then migrates e to the archetype without info. Removing an
// absent component is a no-op without callbacks.
func (w *World) removeComponent(e EntityID, info *ComponentInfo) bool {
	rec := w.mustRecord(e)
	if !w.archetypes.archetypes[rec.chunk.archetype].has(info.Hash) {
		return false
	}
	w.fireComponentRemoved(e, info)
	// callbacks may have changed the entity or grown the table
	if !w.entities.valid(e) {
		return true
	}
	rec = w.entities.record(e)
	a := w.archetypes.archetypes[rec.chunk.archetype]
	if !a.has(info.Hash) {
		return true
	}
	w.moveEntityToArchetype(w.archetypeWithout(a, info), e)
	return true
}

// locate returns e's chunk, its slot and the column holding h there, or -1
// when e has no such component.
func (w *World) locate(e EntityID, h TypeHash) (*chunk, int, int) {
	rec := w.entities.record(e)
	a := w.archetypes.archetypes[rec.chunk.archetype]
	return rec.chunk, rec.slot, a.column(h)
}
