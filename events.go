package ecs

import (
	"slices"

	"github.com/kamstrup/intmap"
)

// EntityCreated is published after an entity has been placed in its
// archetype, before its ComponentAdded events.
type EntityCreated struct {
	Entity EntityID
}

// EntityDestroyed is published after the ComponentRemoved events of a
// destroyed entity, while its components are still readable.
type EntityDestroyed struct {
	Entity EntityID
}

// ComponentAdded is published once a component has been added and, when a
// value was supplied, assigned.
type ComponentAdded struct {
	Entity    EntityID
	Component *ComponentInfo
}

// ComponentRemoved is published before a component is removed, so handlers
// can still read its last value.
type ComponentRemoved struct {
	Entity    EntityID
	Component *ComponentInfo
}

type componentHook struct {
	fn func(w *World, e EntityID)
	id uint64
}

// componentHooks holds callbacks keyed by component hash, so adding a
// Position only wakes the Position listeners.
type componentHooks struct {
	added   *intmap.Map[TypeHash, []componentHook]
	removed *intmap.Map[TypeHash, []componentHook]
	nextID  uint64
}

func newComponentHooks() componentHooks {
	return componentHooks{
		added:   intmap.New[TypeHash, []componentHook](8),
		removed: intmap.New[TypeHash, []componentHook](8),
	}
}

func (h *componentHooks) table(kind subscriptionKind) *intmap.Map[TypeHash, []componentHook] {
	if kind == subscriptionComponentAdded {
		return h.added
	}
	return h.removed
}

func (h *componentHooks) subscribe(kind subscriptionKind, hash TypeHash, fn func(*World, EntityID)) Subscription {
	h.nextID++
	m := h.table(kind)
	hooks, _ := m.Get(hash)
	m.Put(hash, append(hooks, componentHook{fn: fn, id: h.nextID}))
	return Subscription{id: h.nextID, key: uint64(hash), kind: kind}
}

func (h *componentHooks) unsubscribe(sub Subscription) bool {
	m := h.table(sub.kind)
	hooks, _ := m.Get(TypeHash(sub.key))
	i := slices.IndexFunc(hooks, func(c componentHook) bool { return c.id == sub.id })
	if i < 0 {
		return false
	}
	m.Put(TypeHash(sub.key), slices.Delete(slices.Clone(hooks), i, i+1))
	return true
}

// Events returns the world's event bus. Besides the lifecycle events above,
// callers may publish their own event types on it.
func (w *World) Events() *EventBus {
	return &w.events
}

// OnAddEntity subscribes fn to entity creation.
func (w *World) OnAddEntity(fn func(EntityID)) Subscription {
	return Subscribe(&w.events, func(ev EntityCreated) { fn(ev.Entity) })
}

// OnDestroyEntity subscribes fn to entity destruction.
func (w *World) OnDestroyEntity(fn func(EntityID)) Subscription {
	return Subscribe(&w.events, func(ev EntityDestroyed) { fn(ev.Entity) })
}

// OnAddComponent subscribes fn to additions of T. fn receives the stored
// component.
func OnAddComponent[T any](w *World, fn func(e EntityID, c *T)) Subscription {
	info := Register[T](w)
	return w.hooks.subscribe(subscriptionComponentAdded, info.Hash, func(w *World, e EntityID) {
		fn(e, componentOf[T](w, e, info.Hash))
	})
}

// OnRemoveComponent subscribes fn to removals of T. fn runs before the
// component is dropped and receives its last value.
func OnRemoveComponent[T any](w *World, fn func(e EntityID, c *T)) Subscription {
	info := Register[T](w)
	return w.hooks.subscribe(subscriptionComponentRemoved, info.Hash, func(w *World, e EntityID) {
		fn(e, componentOf[T](w, e, info.Hash))
	})
}

// Unsubscribe removes any subscription made through the world.
func (w *World) Unsubscribe(sub Subscription) bool {
	switch sub.kind {
	case subscriptionEvent:
		return w.events.Unsubscribe(sub)
	case subscriptionComponentAdded, subscriptionComponentRemoved:
		return w.hooks.unsubscribe(sub)
	}
	return false
}

// componentOf returns e's component h as *T. e must hold it.
func componentOf[T any](w *World, e EntityID, h TypeHash) *T {
	c, slot, col := w.locate(e, h)
	return (*T)(c.component(col, slot))
}

func (w *World) fireEntityCreated(e EntityID, a *archetype) {
	Publish(&w.events, EntityCreated{Entity: e})
	for _, t := range a.combo.Types {
		if !w.HasComponentByHash(e, t.Hash) {
			continue
		}
		w.fireComponentAdded(e, t)
	}
}

func (w *World) fireEntityDestroyed(e EntityID) {
	Publish(&w.events, EntityDestroyed{Entity: e})
}

func (w *World) fireComponentAdded(e EntityID, info *ComponentInfo) {
	w.runHooks(w.hooks.added, e, info)
	if w.HasComponentByHash(e, info.Hash) {
		Publish(&w.events, ComponentAdded{Entity: e, Component: info})
	}
}

func (w *World) fireComponentRemoved(e EntityID, info *ComponentInfo) {
	w.runHooks(w.hooks.removed, e, info)
	if w.HasComponentByHash(e, info.Hash) {
		Publish(&w.events, ComponentRemoved{Entity: e, Component: info})
	}
}

// runHooks calls the per-type hooks for info while e still holds it.
func (w *World) runHooks(m *intmap.Map[TypeHash, []componentHook], e EntityID, info *ComponentInfo) {
	hooks, _ := m.Get(info.Hash)
	for _, h := range hooks {
		if !w.HasComponentByHash(e, info.Hash) {
			return
		}
		h.fn(w, e)
	}
}
