package ecs

import (
	"reflect"
	"slices"
)

// MaxEventTypes defines the maximum number of unique event types that can be
// registered in an EventBus.
const MaxEventTypes = 256

type subscriptionKind uint8

const (
	subscriptionEvent subscriptionKind = iota + 1
	subscriptionComponentAdded
	subscriptionComponentRemoved
)

// Subscription identifies one registered callback so it can be removed
// again. The zero value identifies nothing.
type Subscription struct {
	id   uint64
	key  uint64 // event type id or component hash
	kind subscriptionKind
}

// Valid reports whether s was returned by a subscribe call.
func (s Subscription) Valid() bool {
	return s.id != 0
}

type handler struct {
	fn any // func(T) for the event type registered under the slot
	id uint64
}

// EventBus delivers typed events to subscribers synchronously, in
// subscription order. Handlers run on the publishing goroutine and may
// subscribe or unsubscribe while an event is being delivered; such changes
// take effect from the next Publish. The bus does not guard against handlers
// mutating whatever the event refers to.
type EventBus struct {
	eventTypeMap    map[reflect.Type]uint8
	handlers        [MaxEventTypes][]handler
	nextEventTypeID int
	nextHandlerID   uint64
}

// Subscribe registers fn for events of type T.
func Subscribe[T any](bus *EventBus, fn func(T)) Subscription {
	id := bus.getEventTypeID(reflect.TypeFor[T]())
	bus.nextHandlerID++
	if cap(bus.handlers[id]) == 0 {
		bus.handlers[id] = make([]handler, 0, 4)
	}
	bus.handlers[id] = append(bus.handlers[id], handler{fn: fn, id: bus.nextHandlerID})
	return Subscription{id: bus.nextHandlerID, key: uint64(id), kind: subscriptionEvent}
}

// Publish delivers event to every handler subscribed to T.
func Publish[T any](bus *EventBus, event T) {
	id, ok := bus.eventTypeMap[reflect.TypeFor[T]()]
	if !ok {
		return
	}
	for _, h := range bus.handlers[id] {
		h.fn.(func(T))(event)
	}
}

// HasSubscribers reports whether any handler listens for T.
func HasSubscribers[T any](bus *EventBus) bool {
	id, ok := bus.eventTypeMap[reflect.TypeFor[T]()]
	return ok && len(bus.handlers[id]) > 0
}

// Unsubscribe removes the handler identified by sub. It reports whether a
// handler was removed.
func (bus *EventBus) Unsubscribe(sub Subscription) bool {
	if sub.kind != subscriptionEvent || sub.key >= MaxEventTypes {
		return false
	}
	hs := bus.handlers[sub.key]
	i := slices.IndexFunc(hs, func(h handler) bool { return h.id == sub.id })
	if i < 0 {
		return false
	}
	// a Publish in progress may still be ranging over hs
	bus.handlers[sub.key] = slices.Delete(slices.Clone(hs), i, i+1)
	return true
}

// getEventTypeID retrieves or assigns an ID for the event type.
func (bus *EventBus) getEventTypeID(t reflect.Type) uint8 {
	if bus.eventTypeMap == nil {
		bus.eventTypeMap = make(map[reflect.Type]uint8)
	}
	if id, ok := bus.eventTypeMap[t]; ok {
		return id
	}
	if bus.nextEventTypeID >= MaxEventTypes {
		panic("ecs: too many event types")
	}
	id := uint8(bus.nextEventTypeID)
	bus.nextEventTypeID++
	bus.eventTypeMap[t] = id
	return id
}
