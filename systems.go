package ecs

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/kamstrup/intmap"
)

// System is a unit of logic run against a world.
type System interface {
	Run(w *World)
}

// Shutdowner is implemented by systems that hold resources to release when
// the world is closed.
type Shutdowner interface {
	Shutdown(w *World)
}

// systemRegistry keeps one instance per system type, in registration order.
type systemRegistry struct {
	byHash *intmap.Map[TypeHash, System]
	order  []System
}

func newSystemRegistry() systemRegistry {
	return systemRegistry{
		byHash: intmap.New[TypeHash, System](8),
		order:  make([]System, 0, 8),
	}
}

// shutdown calls Shutdown on every system that implements it, newest first,
// and forgets all systems.
func (r *systemRegistry) shutdown(w *World) {
	order := r.order
	r.order = make([]System, 0, 8)
	r.byHash = intmap.New[TypeHash, System](8)
	for _, s := range slices.Backward(order) {
		if sd, ok := s.(Shutdowner); ok {
			sd.Shutdown(w)
		}
	}
}

// AddSystem returns the world's system of type T, calling build to create it
// on first use. Later calls return the existing instance and ignore build.
func AddSystem[T System](w *World, build func(*World) T) T {
	h := HashOf[T]()
	if s, ok := w.systems.byHash.Get(h); ok {
		return mustSystem[T](s)
	}
	s := build(w)
	// build may have registered T itself
	if cur, ok := w.systems.byHash.Get(h); ok {
		return mustSystem[T](cur)
	}
	w.systems.byHash.Put(h, s)
	w.systems.order = append(w.systems.order, s)
	w.logger.Debug("system added", "type", reflect.TypeFor[T]().String(), "systems", len(w.systems.order))
	return s
}

// GetSystem returns the world's system of type T, if it was added.
func GetSystem[T System](w *World) (T, bool) {
	s, ok := w.systems.byHash.Get(HashOf[T]())
	if !ok {
		var zero T
		return zero, false
	}
	return mustSystem[T](s), true
}

// RunSystem runs the world's system of type T. It reports false when no
// such system was added.
func RunSystem[T System](w *World) bool {
	s, ok := GetSystem[T](w)
	if !ok {
		return false
	}
	s.Run(w)
	return true
}

// RunSystems runs every system in registration order. Systems added while
// running are first run on the next call.
func (w *World) RunSystems() {
	for _, s := range slices.Clone(w.systems.order) {
		s.Run(w)
	}
}

// SystemCount returns the number of systems added to the world.
func (w *World) SystemCount() int {
	return len(w.systems.order)
}

func mustSystem[T System](s System) T {
	t, ok := s.(T)
	if !ok {
		panic(fmt.Sprintf("ecs: system hash collision: %T is not %s", s, reflect.TypeFor[T]()))
	}
	return t
}
