package ecs

import (
	"fmt"
	"reflect"
)

// AddComponent adds a default-constructed T to e and returns it. If e
// already holds a T, nothing changes and the existing value is returned.
//
// Adding a component moves e to another archetype. The entity must be live;
// stale handles panic. The result is nil if an add callback destroyed e or
// removed its T.
func AddComponent[T any](w *World, e EntityID) *T {
	info := Register[T](w)
	if !w.addComponent(e, info) {
		return componentOf[T](w, e, info.Hash)
	}
	w.fireComponentAdded(e, info)
	return componentAfterHooks[T](w, e, info)
}

// AddComponentWith adds T to e holding val. If e already holds a T, its
// value is left untouched; use SetComponent to overwrite.
func AddComponentWith[T any](w *World, e EntityID, val T) *T {
	info := Register[T](w)
	if !w.addComponent(e, info) {
		return componentOf[T](w, e, info.Hash)
	}
	*componentOf[T](w, e, info.Hash) = val
	w.fireComponentAdded(e, info)
	return componentAfterHooks[T](w, e, info)
}

// SetComponent stores val as e's T, adding the component if needed.
func SetComponent[T any](w *World, e EntityID, val T) *T {
	info := Register[T](w)
	added := w.addComponent(e, info)
	p := componentOf[T](w, e, info.Hash)
	*p = val
	if !added {
		return p
	}
	w.fireComponentAdded(e, info)
	return componentAfterHooks[T](w, e, info)
}

// componentAfterHooks returns e's T once add callbacks have run, or nil if
// they destroyed e or took the T away. Callbacks may also have moved e, so
// the row is looked up again.
func componentAfterHooks[T any](w *World, e EntityID, info *ComponentInfo) *T {
	if !w.HasComponentByHash(e, info.Hash) {
		return nil
	}
	return componentOf[T](w, e, info.Hash)
}

// RemoveComponent removes T from e. It reports false, and fires nothing,
// when e did not hold a T.
func RemoveComponent[T any](w *World, e EntityID) bool {
	info, ok := InfoOf[T](w)
	if !ok {
		w.mustRecord(e)
		return false
	}
	return w.removeComponent(e, info)
}

// HasComponent reports whether e is live and holds a T.
func HasComponent[T any](w *World, e EntityID) bool {
	info, ok := InfoOf[T](w)
	return ok && w.HasComponentByHash(e, info.Hash)
}

// GetComponent returns e's T. It panics if e is stale or has no T; use
// TryGetComponent when absence is expected.
func GetComponent[T any](w *World, e EntityID) *T {
	info, ok := InfoOf[T](w)
	if !ok {
		panic(fmt.Sprintf("ecs: component %s is not registered", reflect.TypeFor[T]()))
	}
	return mustComponent[T](w, e, info)
}

// TryGetComponent returns e's T, or nil and false when e is stale or holds
// no T.
func TryGetComponent[T any](w *World, e EntityID) (*T, bool) {
	info, ok := InfoOf[T](w)
	if !ok || !w.HasComponentByHash(e, info.Hash) {
		return nil, false
	}
	return componentOf[T](w, e, info.Hash), true
}

func mustComponent[T any](w *World, e EntityID, info *ComponentInfo) *T {
	w.mustRecord(e)
	if !w.HasComponentByHash(e, info.Hash) {
		panic(fmt.Sprintf("ecs: entity %v has no %s", e, info.Type))
	}
	return componentOf[T](w, e, info.Hash)
}
