package ecs

import (
	"fmt"
	"reflect"

	"github.com/kamstrup/intmap"
)

// singletons stores at most one value per type, keyed by type hash. Values
// live in their own allocation so pointers handed out stay valid until the
// singleton is removed. Freed slots are reused.
type singletons struct {
	items   []any // *T per slot, nil when free
	slots   *intmap.Map[TypeHash, int]
	freeIDs []int
}

func newSingletons() singletons {
	return singletons{
		items: make([]any, 0, 8),
		slots: intmap.New[TypeHash, int](8),
	}
}

func (s *singletons) get(h TypeHash) (any, bool) {
	id, ok := s.slots.Get(h)
	if !ok {
		return nil, false
	}
	return s.items[id], true
}

func (s *singletons) put(h TypeHash, v any) {
	var id int
	if n := len(s.freeIDs); n > 0 {
		id = s.freeIDs[n-1]
		s.freeIDs = s.freeIDs[:n-1]
		s.items[id] = v
	} else {
		id = len(s.items)
		s.items = append(s.items, v)
	}
	s.slots.Put(h, id)
}

func (s *singletons) remove(h TypeHash) bool {
	id, ok := s.slots.Get(h)
	if !ok {
		return false
	}
	s.slots.Del(h)
	s.items[id] = nil
	s.freeIDs = append(s.freeIDs, id)
	return true
}

func (s *singletons) len() int {
	return len(s.items) - len(s.freeIDs)
}

// SetSingleton stores v as the world's T and returns the stored value. An
// existing T is overwritten in place, so earlier pointers see the new value.
func SetSingleton[T any](w *World, v T) *T {
	h := HashOf[T]()
	if cur, ok := w.singletons.get(h); ok {
		p := mustSingleton[T](cur)
		*p = v
		return p
	}
	p := new(T)
	*p = v
	w.singletons.put(h, p)
	w.logger.Debug("singleton set", "type", reflect.TypeFor[T]().String())
	return p
}

// GetSingleton returns the world's T, if one was set.
func GetSingleton[T any](w *World) (*T, bool) {
	cur, ok := w.singletons.get(HashOf[T]())
	if !ok {
		return nil, false
	}
	return mustSingleton[T](cur), true
}

// RemoveSingleton drops the world's T. It reports whether one was set.
func RemoveSingleton[T any](w *World) bool {
	return w.singletons.remove(HashOf[T]())
}

// SingletonCount returns the number of singletons set on the world.
func (w *World) SingletonCount() int {
	return w.singletons.len()
}

func mustSingleton[T any](v any) *T {
	p, ok := v.(*T)
	if !ok {
		panic(fmt.Sprintf("ecs: singleton hash collision: %T is not %s", v, reflect.TypeFor[*T]()))
	}
	return p
}
