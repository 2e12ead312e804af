package ecs

import (
	"fmt"
	"reflect"
)

// Iteration visits matched archetypes in creation order, their chunks from
// last to first and the rows of each chunk from the last slot down to 0.
// Destroying the entity currently being visited, or adding or removing one
// of its components, is safe: the row that fills its hole has already been
// visited, and an entity that changed archetype after the walk started is
// not visited again in the archetype it moved to. Entities created during
// the walk may or may not be visited. Other structural changes to rows not
// yet visited (destroying them, moving them to another archetype) may skip
// those rows.

// eachChunk calls fn for every non-empty chunk of the archetypes q matches.
// stamp is the world's migration count when the walk started.
func (w *World) eachChunk(q *Query, fn func(a *archetype, c *chunk, stamp uint64)) {
	stamp := w.migrations
	for _, idx := range q.matching(w) {
		a := w.archetypes.archetypes[idx]
		for ci := len(a.chunks) - 1; ci >= 0; ci-- {
			if ci >= len(a.chunks) {
				continue
			}
			if c := a.chunks[ci]; c.count > 0 {
				fn(a, c, stamp)
			}
		}
	}
}

// skipRow reports whether slot is past the end of c, or holds an entity
// that moved archetype after stamp.
func (w *World) skipRow(c *chunk, slot int, stamp uint64) bool {
	if slot >= c.len() {
		return true
	}
	return w.migrations != stamp && w.entities.records[c.entityAt(slot).Index].moved > stamp
}

// iterInfo returns the registered descriptor of T, or nil when T was never
// registered and therefore cannot have a column anywhere.
func iterInfo[T any](w *World) *ComponentInfo {
	info, _ := InfoOf[T](w)
	return info
}

// typedColumn returns the column of a holding info, or -1. A column whose
// descriptor is not info belongs to a different type with the same hash.
func typedColumn[T any](a *archetype, info *ComponentInfo) int {
	if info == nil {
		return -1
	}
	col := a.column(info.Hash)
	if col >= 0 && a.combo.Types[col] != info {
		panic(fmt.Sprintf("ecs: column holds %s, not %s", a.combo.Types[col].Type, reflect.TypeFor[T]()))
	}
	return col
}

// componentAt returns the T in column col at slot, or nil when the
// archetype has no such column.
func componentAt[T any](c *chunk, col, slot int) *T {
	if col < 0 {
		return nil
	}
	return (*T)(c.component(col, slot))
}

// ForEachChunk calls fn once per non-empty chunk matched by q. Use Column
// to get typed slices of the chunk's rows.
func (w *World) ForEachChunk(q *Query, fn func(ChunkView)) {
	w.eachChunk(q, func(_ *archetype, c *chunk, _ uint64) {
		fn(ChunkView{c: c})
	})
}

// ForEachEntity calls fn for every entity matched by q.
func (w *World) ForEachEntity(q *Query, fn func(EntityID)) {
	w.eachChunk(q, func(_ *archetype, c *chunk, stamp uint64) {
		for slot := c.len() - 1; slot >= 0; slot-- {
			if w.skipRow(c, slot, stamp) {
				continue
			}
			fn(c.entityAt(slot))
		}
	})
}

// Count returns the number of entities matched by q.
func (w *World) Count(q *Query) int {
	n := 0
	w.eachChunk(q, func(_ *archetype, c *chunk, _ uint64) {
		n += c.len()
	})
	return n
}

// Entities returns the entities matched by q, in iteration order.
func (w *World) Entities(q *Query) []EntityID {
	out := make([]EntityID, 0, w.Count(q))
	w.ForEachEntity(q, func(e EntityID) {
		out = append(out, e)
	})
	return out
}

// ForEach1 calls fn with the A of every entity matched by q. When q does not
// require A, entities without one are passed nil.
func ForEach1[A any](w *World, q *Query, fn func(*A)) {
	ia := iterInfo[A](w)
	w.eachChunk(q, func(a *archetype, c *chunk, stamp uint64) {
		ca := typedColumn[A](a, ia)
		for slot := c.len() - 1; slot >= 0; slot-- {
			if w.skipRow(c, slot, stamp) {
				continue
			}
			fn(componentAt[A](c, ca, slot))
		}
	})
}

// ForEach2 is ForEach1 for two component types.
func ForEach2[A, B any](w *World, q *Query, fn func(*A, *B)) {
	ia, ib := iterInfo[A](w), iterInfo[B](w)
	w.eachChunk(q, func(a *archetype, c *chunk, stamp uint64) {
		ca, cb := typedColumn[A](a, ia), typedColumn[B](a, ib)
		for slot := c.len() - 1; slot >= 0; slot-- {
			if w.skipRow(c, slot, stamp) {
				continue
			}
			fn(componentAt[A](c, ca, slot), componentAt[B](c, cb, slot))
		}
	})
}

// ForEach3 is ForEach1 for three component types.
func ForEach3[A, B, C any](w *World, q *Query, fn func(*A, *B, *C)) {
	ia, ib, ic := iterInfo[A](w), iterInfo[B](w), iterInfo[C](w)
	w.eachChunk(q, func(a *archetype, c *chunk, stamp uint64) {
		ca, cb, cc := typedColumn[A](a, ia), typedColumn[B](a, ib), typedColumn[C](a, ic)
		for slot := c.len() - 1; slot >= 0; slot-- {
			if w.skipRow(c, slot, stamp) {
				continue
			}
			fn(componentAt[A](c, ca, slot), componentAt[B](c, cb, slot), componentAt[C](c, cc, slot))
		}
	})
}

// ForEachWithEntity1 is ForEach1 that also passes the entity.
func ForEachWithEntity1[A any](w *World, q *Query, fn func(EntityID, *A)) {
	ia := iterInfo[A](w)
	w.eachChunk(q, func(a *archetype, c *chunk, stamp uint64) {
		ca := typedColumn[A](a, ia)
		for slot := c.len() - 1; slot >= 0; slot-- {
			if w.skipRow(c, slot, stamp) {
				continue
			}
			fn(c.entityAt(slot), componentAt[A](c, ca, slot))
		}
	})
}

// ForEachWithEntity2 is ForEach2 that also passes the entity.
func ForEachWithEntity2[A, B any](w *World, q *Query, fn func(EntityID, *A, *B)) {
	ia, ib := iterInfo[A](w), iterInfo[B](w)
	w.eachChunk(q, func(a *archetype, c *chunk, stamp uint64) {
		ca, cb := typedColumn[A](a, ia), typedColumn[B](a, ib)
		for slot := c.len() - 1; slot >= 0; slot-- {
			if w.skipRow(c, slot, stamp) {
				continue
			}
			fn(c.entityAt(slot), componentAt[A](c, ca, slot), componentAt[B](c, cb, slot))
		}
	})
}

// ForEachWithEntity3 is ForEach3 that also passes the entity.
func ForEachWithEntity3[A, B, C any](w *World, q *Query, fn func(EntityID, *A, *B, *C)) {
	ia, ib, ic := iterInfo[A](w), iterInfo[B](w), iterInfo[C](w)
	w.eachChunk(q, func(a *archetype, c *chunk, stamp uint64) {
		ca, cb, cc := typedColumn[A](a, ia), typedColumn[B](a, ib), typedColumn[C](a, ic)
		for slot := c.len() - 1; slot >= 0; slot-- {
			if w.skipRow(c, slot, stamp) {
				continue
			}
			fn(c.entityAt(slot), componentAt[A](c, ca, slot), componentAt[B](c, cb, slot), componentAt[C](c, cc, slot))
		}
	})
}

// Filter is a pull iterator over the entities matched by a query, yielding
// their T. It follows the same order and mutation rules as ForEach1.
//
//	f := ecs.NewFilter[Position](w, q)
//	for f.Next() {
//	    p := f.Get()
//	    ...
//	}
type Filter[T any] struct {
	world   *World
	query   *Query
	matched []uint32
	info    *ComponentInfo
	stamp   uint64
	arch    *archetype
	chunk   *chunk
	col     int
	archIdx int // position in matched
	chunkIx int // position in arch.chunks, counting down
	slot    int // row in chunk, counting down
}

// NewFilter returns a Filter positioned before the first entity. q is built
// if it was not already.
func NewFilter[T any](w *World, q *Query) *Filter[T] {
	if !q.built {
		q.Build()
	}
	f := &Filter[T]{world: w, query: q}
	f.Reset()
	return f
}

// Reset rewinds the filter. Archetypes created since the last Reset are
// picked up.
func (f *Filter[T]) Reset() {
	f.matched = f.query.matching(f.world)
	f.info = iterInfo[T](f.world)
	f.stamp = f.world.migrations
	f.archIdx = -1
	f.arch = nil
	f.chunk = nil
	f.slot = -1
}

// Next advances to the next entity and reports whether there is one.
func (f *Filter[T]) Next() bool {
	f.slot--
	for {
		if f.chunk != nil {
			if f.slot >= f.chunk.len() {
				f.slot = f.chunk.len() - 1
			}
			for f.slot >= 0 && f.world.skipRow(f.chunk, f.slot, f.stamp) {
				f.slot--
			}
			if f.slot >= 0 {
				return true
			}
		}
		if !f.nextChunk() {
			return false
		}
	}
}

func (f *Filter[T]) nextChunk() bool {
	f.chunk = nil
	for {
		if f.arch != nil {
			f.chunkIx--
			if f.chunkIx >= len(f.arch.chunks) {
				f.chunkIx = len(f.arch.chunks) - 1
			}
			if f.chunkIx >= 0 {
				f.chunk = f.arch.chunks[f.chunkIx]
				f.slot = f.chunk.len() - 1
				return true
			}
		}
		f.archIdx++
		if f.archIdx >= len(f.matched) {
			f.arch = nil
			return false
		}
		f.arch = f.world.archetypes.archetypes[f.matched[f.archIdx]]
		f.col = typedColumn[T](f.arch, f.info)
		f.chunkIx = len(f.arch.chunks)
	}
}

// Entity returns the current entity. Only valid after Next returned true.
func (f *Filter[T]) Entity() EntityID {
	return f.chunk.entityAt(f.slot)
}

// Get returns the current entity's T, or nil if it has none.
func (f *Filter[T]) Get() *T {
	return componentAt[T](f.chunk, f.col, f.slot)
}
