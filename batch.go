package ecs

import (
	"cmp"
	"slices"
)

// batchEntry pairs an input position with the archetype the entity lived in
// when the batch started.
type batchEntry struct {
	idx  int
	arch uint32
}

// groupByArchetype validates entities and orders them by source archetype,
// so consecutive migrations reuse the same transition edge and target chunk.
func (w *World) groupByArchetype(entities []EntityID) []batchEntry {
	out := make([]batchEntry, len(entities))
	for i, e := range entities {
		rec := w.mustRecord(e)
		out[i] = batchEntry{idx: i, arch: rec.chunk.archetype}
	}
	slices.SortStableFunc(out, func(a, b batchEntry) int {
		return cmp.Compare(a.arch, b.arch)
	})
	return out
}

// AddComponentBatch adds a default-constructed T to every entity that lacks
// one and returns the entities' T in input order. Entities listed twice are
// handled once. Each entity fires its own add callbacks, so the returned
// pointers are only taken once the whole batch has migrated.
func AddComponentBatch[T any](w *World, entities []EntityID) []*T {
	info := Register[T](w)
	for _, be := range w.groupByArchetype(entities) {
		e := entities[be.idx]
		if !w.entities.valid(e) {
			// destroyed by a callback earlier in the batch
			continue
		}
		if w.addComponent(e, info) {
			w.fireComponentAdded(e, info)
		}
	}
	return batchPointers[T](w, entities, info)
}

// SetComponentBatch stores val as the T of every entity, adding it where
// missing.
func SetComponentBatch[T any](w *World, entities []EntityID, val T) {
	info := Register[T](w)
	for _, be := range w.groupByArchetype(entities) {
		e := entities[be.idx]
		if !w.entities.valid(e) {
			continue
		}
		added := w.addComponent(e, info)
		*componentOf[T](w, e, info.Hash) = val
		if added {
			w.fireComponentAdded(e, info)
		}
	}
}

// RemoveComponentBatch removes T from every entity holding one and returns
// how many lost it.
func RemoveComponentBatch[T any](w *World, entities []EntityID) int {
	info, ok := InfoOf[T](w)
	if !ok {
		return 0
	}
	n := 0
	for _, be := range w.groupByArchetype(entities) {
		e := entities[be.idx]
		if w.entities.valid(e) && w.removeComponent(e, info) {
			n++
		}
	}
	return n
}

// DestroyEntities destroys every entity matched by q and returns how many
// were destroyed.
func (w *World) DestroyEntities(q *Query) int {
	n := 0
	w.ForEachEntity(q, func(e EntityID) {
		w.Destroy(e)
		n++
	})
	return n
}

func batchPointers[T any](w *World, entities []EntityID, info *ComponentInfo) []*T {
	out := make([]*T, len(entities))
	for i, e := range entities {
		if w.HasComponentByHash(e, info.Hash) {
			out[i] = componentOf[T](w, e, info.Hash)
		}
	}
	return out
}
