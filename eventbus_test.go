package ecs

import (
	"testing"
)

type TestEvent struct {
	Value int
}

// go test -run ^TestEventBusDelivery$ . -count 1
func TestEventBusDelivery(t *testing.T) {
	tests := []struct {
		name     string
		handlers int
		events   []int
		want     int
	}{
		{name: "no handlers", handlers: 0, events: []int{7}, want: 0},
		{name: "one handler", handlers: 1, events: []int{1, 2}, want: 3},
		{name: "fan out", handlers: 100, events: []int{1}, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &EventBus{}
			got := 0
			subs := make([]Subscription, tt.handlers)
			for i := range subs {
				subs[i] = Subscribe(bus, func(e TestEvent) { got += e.Value })
				if !subs[i].Valid() {
					t.Fatalf("subscription %d is not valid", i)
				}
			}
			if HasSubscribers[TestEvent](bus) != (tt.handlers > 0) {
				t.Errorf("HasSubscribers = %v with %d handlers", !(tt.handlers > 0), tt.handlers)
			}
			for _, v := range tt.events {
				Publish(bus, TestEvent{Value: v})
			}
			if got != tt.want {
				t.Errorf("handlers received %d, want %d", got, tt.want)
			}
			for _, sub := range subs {
				bus.Unsubscribe(sub)
			}
			if HasSubscribers[TestEvent](bus) {
				t.Error("bus still reports subscribers after unsubscribing all")
			}
		})
	}
}

// go test -run ^TestEventBusTypesAreSeparate$ . -count 1
func TestEventBusTypesAreSeparate(t *testing.T) {
	bus := &EventBus{}
	events, positions := 0, 0
	evSub := Subscribe(bus, func(e TestEvent) { events += e.Value })
	Subscribe(bus, func(p Position) { positions += int(p.X) })
	if HasSubscribers[Velocity](bus) {
		t.Error("Velocity has no handlers")
	}

	Publish(bus, TestEvent{Value: 4})
	Publish(bus, Position{X: 10})
	Publish(bus, Velocity{X: 99})
	if events != 4 || positions != 10 {
		t.Fatalf("events=%d positions=%d", events, positions)
	}

	bus.Unsubscribe(evSub)
	if HasSubscribers[TestEvent](bus) || !HasSubscribers[Position](bus) {
		t.Error("unsubscribing one type affected another")
	}
	Publish(bus, Position{X: 1})
	if positions != 11 {
		t.Errorf("expected positions 11, got %d", positions)
	}
}

func TestEventBusOrder(t *testing.T) {
	bus := &EventBus{}
	var order []int
	for i := range 5 {
		Subscribe(bus, func(TestEvent) { order = append(order, i) })
	}
	Publish(bus, TestEvent{})
	for i, v := range order {
		if v != i {
			t.Fatalf("handlers ran out of order: %v", order)
		}
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := &EventBus{}
	a, b := 0, 0
	subA := Subscribe(bus, func(TestEvent) { a++ })
	Subscribe(bus, func(TestEvent) { b++ })
	if !subA.Valid() || (Subscription{}).Valid() {
		t.Fatal("Valid mismatch")
	}
	if !bus.Unsubscribe(subA) {
		t.Fatal("unsubscribe failed")
	}
	if bus.Unsubscribe(subA) {
		t.Error("second unsubscribe succeeded")
	}
	if bus.Unsubscribe(Subscription{}) {
		t.Error("zero subscription removed something")
	}
	Publish(bus, TestEvent{})
	if a != 0 || b != 1 {
		t.Errorf("expected a=0 b=1, got a=%d b=%d", a, b)
	}
}

func TestEventBusUnsubscribeDuringPublish(t *testing.T) {
	bus := &EventBus{}
	calls := 0
	var second Subscription
	Subscribe(bus, func(TestEvent) {
		calls++
		bus.Unsubscribe(second)
	})
	second = Subscribe(bus, func(TestEvent) { calls++ })
	Publish(bus, TestEvent{})
	if calls != 2 {
		t.Errorf("removal should apply from the next publish, got %d calls", calls)
	}
	Publish(bus, TestEvent{})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestEventBusTooManyTypes(t *testing.T) {
	bus := &EventBus{nextEventTypeID: MaxEventTypes}
	expectPanic(t, "Subscribe", func() { Subscribe(bus, func(TestEvent) {}) })
}
