package ecs

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
)

const (
	defaultInitialCapacity = 1024
	defaultChunkReserve    = 1
)

// World owns every entity, archetype, chunk and component descriptor, plus
// the singletons and systems registered against it. The zero value is not
// usable; create worlds with NewWorld.
type World struct {
	components   componentRegistry
	entities     entityTable
	archetypes   archetypeDirectory
	events       EventBus
	hooks        componentHooks
	singletons   singletons
	systems      systemRegistry
	logger       *slog.Logger
	empty        *archetype // archetype with no components
	chunkReserve int
	migrations   uint64 // archetype moves so far, stamps entityRecord.moved
}

// Option configures a World at construction.
type Option func(*worldOptions)

type worldOptions struct {
	logger          *slog.Logger
	initialCapacity int
	chunkReserve    int
}

// WithInitialCapacity preallocates the entity table for n entities.
func WithInitialCapacity(n int) Option {
	return func(o *worldOptions) {
		o.initialCapacity = n
	}
}

// WithChunkReserve sets how many emptied chunks each archetype keeps for
// reuse instead of dropping them.
func WithChunkReserve(n int) Option {
	return func(o *worldOptions) {
		o.chunkReserve = n
	}
}

// WithLogger routes the world's debug records to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *worldOptions) {
		o.logger = logger
	}
}

// NewWorld creates an empty World.
func NewWorld(opts ...Option) *World {
	o := worldOptions{
		initialCapacity: defaultInitialCapacity,
		chunkReserve:    defaultChunkReserve,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.initialCapacity < 0 {
		o.initialCapacity = 0
	}
	if o.chunkReserve < 0 {
		o.chunkReserve = 0
	}
	w := &World{
		components:   newComponentRegistry(),
		entities:     newEntityTable(o.initialCapacity),
		archetypes:   newArchetypeDirectory(),
		hooks:        newComponentHooks(),
		singletons:   newSingletons(),
		systems:      newSystemRegistry(),
		logger:       o.logger,
		chunkReserve: o.chunkReserve,
	}
	w.empty = w.mustArchetype(nil)
	return w
}

// IsValid reports whether e refers to a live entity of this world. Handles
// of destroyed entities stay invalid even after their index is reused.
func (w *World) IsValid(e EntityID) bool {
	return w.entities.valid(e)
}

// mustRecord is the single enforcement point for entity handles passed to
// mutation APIs.
func (w *World) mustRecord(e EntityID) *entityRecord {
	if !w.entities.valid(e) {
		panic(fmt.Sprintf("ecs: entity %v is stale or out of range", e))
	}
	return w.entities.record(e)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.entities.alive
}

// ArchetypeCount returns the number of archetypes created so far, including
// the empty one.
func (w *World) ArchetypeCount() int {
	return len(w.archetypes.archetypes)
}

// NewEntity creates an entity holding default-constructed components of the
// given types. Duplicate types are ignored.
func (w *World) NewEntity(infos ...*ComponentInfo) EntityID {
	if len(infos) == 0 {
		return w.spawn(w.empty)
	}
	types := sortTypes(slices.Clone(infos))
	return w.spawn(w.mustArchetype(types))
}

// NewEntityFromHashes is NewEntity for callers that only know type hashes.
// Every hash must belong to a registered type.
func (w *World) NewEntityFromHashes(hashes ...TypeHash) EntityID {
	infos := make([]*ComponentInfo, len(hashes))
	for i, h := range hashes {
		infos[i] = w.mustInfoByHash(h)
	}
	return w.NewEntity(infos...)
}

// NewEntities creates n entities sharing one component set.
func (w *World) NewEntities(n int, infos ...*ComponentInfo) []EntityID {
	a := w.empty
	if len(infos) > 0 {
		a = w.mustArchetype(sortTypes(slices.Clone(infos)))
	}
	out := make([]EntityID, n)
	for i := range out {
		out[i] = w.spawn(a)
	}
	return out
}

// PrepareArchetype creates the archetype for infos ahead of use. It returns
// ErrLayoutTooLarge, wrapped, when the combination cannot fit in a chunk;
// mutation APIs panic in that case instead.
func (w *World) PrepareArchetype(infos ...*ComponentInfo) error {
	_, err := w.findOrCreateArchetype(sortTypes(slices.Clone(infos)))
	return err
}

// spawn allocates an entity, places it in a default-constructed row of a
// and fires the creation callbacks.
func (w *World) spawn(a *archetype) EntityID {
	return w.spawnWith(a, nil)
}

// spawnWith is spawn with a hook that fills the new row before any callback
// can observe it.
func (w *World) spawnWith(a *archetype, fill func(c *chunk, slot int)) EntityID {
	id := w.entities.allocate()
	c := w.findFreeChunk(a)
	slot := w.insertEntityInChunk(c, id, true)
	rec := w.entities.record(id)
	rec.chunk = c
	rec.slot = slot
	if fill != nil {
		fill(c, slot)
	}
	w.fireEntityCreated(id, a)
	return id
}

// DuplicateEntity creates a new entity in e's archetype whose components are
// copies of e's.
func (w *World) DuplicateEntity(e EntityID) EntityID {
	src := w.mustRecord(e)
	srcChunk, srcSlot := src.chunk, src.slot
	a := w.archetypes.archetypes[srcChunk.archetype]
	id := w.entities.allocate()
	c := w.findFreeChunk(a)
	slot := w.insertEntityInChunk(c, id, false)
	for col, t := range a.combo.Types {
		if t.Size != 0 {
			t.copy(c.component(col, slot), srcChunk.component(col, srcSlot))
		}
	}
	rec := w.entities.record(id)
	rec.chunk = c
	rec.slot = slot
	w.fireEntityCreated(id, a)
	return id
}

// Destroy fires the removal callback of every component e holds, then the
// destruction callback, then erases e's row and recycles its index.
func (w *World) Destroy(e EntityID) {
	rec := w.mustRecord(e)
	a := w.archetypes.archetypes[rec.chunk.archetype]
	for _, t := range a.combo.Types {
		// callbacks may destroy e, strip components from it or grow the
		// entity table, so nothing about e is cached across them
		if !w.entities.valid(e) {
			return
		}
		if w.HasComponentByHash(e, t.Hash) {
			w.fireComponentRemoved(e, t)
		}
	}
	if !w.entities.valid(e) {
		return
	}
	w.fireEntityDestroyed(e)
	if !w.entities.valid(e) {
		return
	}
	rec = w.entities.record(e)
	w.eraseRow(rec.chunk, rec.slot)
	w.entities.free(e)
}

// Clear destroys every entity, firing the usual callbacks. Archetypes and
// registered types are kept.
func (w *World) Clear() {
	for _, a := range w.archetypes.archetypes {
		for ci := len(a.chunks) - 1; ci >= 0; ci-- {
			if ci >= len(a.chunks) {
				continue
			}
			c := a.chunks[ci]
			for c.count > 0 {
				w.Destroy(c.entityAt(int(c.count) - 1))
			}
		}
	}
}

// NumComponents returns how many component types e holds, tags included.
func (w *World) NumComponents(e EntityID) int {
	rec := w.mustRecord(e)
	return len(w.archetypes.archetypes[rec.chunk.archetype].hashes)
}

// ComponentHashes returns the sorted type hashes of e's components.
func (w *World) ComponentHashes(e EntityID) []TypeHash {
	rec := w.mustRecord(e)
	return slices.Clone(w.archetypes.archetypes[rec.chunk.archetype].hashes)
}

// ArchetypeOf returns the index of the archetype e currently lives in.
func (w *World) ArchetypeOf(e EntityID) int {
	rec := w.mustRecord(e)
	return int(rec.chunk.archetype)
}

// HasComponentByHash reports whether e is live and holds component h.
func (w *World) HasComponentByHash(e EntityID, h TypeHash) bool {
	if !w.entities.valid(e) {
		return false
	}
	return w.archetypes.archetypes[w.entities.record(e).chunk.archetype].has(h)
}

// AddComponentByHash adds a default-constructed component of the registered
// type h. It reports false if e already held it.
func (w *World) AddComponentByHash(e EntityID, h TypeHash) bool {
	info := w.mustInfoByHash(h)
	if !w.addComponent(e, info) {
		return false
	}
	w.fireComponentAdded(e, info)
	return true
}

// RemoveComponentByHash removes component h from e. It reports false, and
// fires nothing, if e did not hold it.
func (w *World) RemoveComponentByHash(e EntityID, h TypeHash) bool {
	return w.removeComponent(e, w.mustInfoByHash(h))
}

// ComponentByHash returns a pointer to e's component h boxed in an any, for
// layers that work on reflected values.
func (w *World) ComponentByHash(e EntityID, h TypeHash) (any, bool) {
	if !w.HasComponentByHash(e, h) {
		return nil, false
	}
	c, slot, col := w.locate(e, h)
	t := c.combo.Types[col]
	return reflect.NewAt(t.Type, c.component(col, slot)).Interface(), true
}

// Close shuts down registered systems in reverse registration order and
// drops them. The world stays usable.
func (w *World) Close() {
	w.systems.shutdown(w)
}
