package ecs

import (
	"fmt"
	"testing"
)

func BenchmarkEventBusSubscribe(b *testing.B) {
	for b.Loop() {
		bus := &EventBus{}
		for range 1000 {
			Subscribe(bus, func(TestEvent) {})
		}
	}
	b.ReportAllocs()
}

func BenchmarkEventBusPublish(b *testing.B) {
	for _, handlers := range []int{0, 1, 16, 256} {
		b.Run(fmt.Sprintf("%dHandlers", handlers), func(b *testing.B) {
			bus := &EventBus{}
			sum := 0
			for range handlers {
				Subscribe(bus, func(e TestEvent) { sum += e.Value })
			}
			event := TestEvent{Value: 42}
			for b.Loop() {
				Publish(bus, event)
			}
			if handlers > 0 && sum == 0 {
				b.Fatal("handlers did not run")
			}
			b.ReportAllocs()
		})
	}
}

// BenchmarkPublish measures entity churn with lifecycle listeners attached.
func BenchmarkPublish(b *testing.B) {
	w := NewWorld()
	hits := 0
	OnAddComponent(w, func(EntityID, *Velocity) { hits++ })
	OnRemoveComponent(w, func(EntityID, *Position) { hits++ })
	w.OnAddEntity(func(EntityID) { hits++ })
	builder := NewBuilder(w, Register[Position](w), Register[Velocity](w))
	for b.Loop() {
		for _, e := range builder.NewEntities(100) {
			w.Destroy(e)
		}
	}
	if hits == 0 {
		b.Fatal("listeners did not run")
	}
	b.ReportAllocs()
}
