// ecsdump builds a sample world, runs a few simulation ticks over it and
// prints the resulting archetype table. Build:
//
//	go build -o ecsdump ./cmd/ecsdump
//
// Usage:
//
//	./ecsdump [-config world.yaml] [-entities 10000] [-ticks 10]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	ecs "github.com/GuanHuiLim/Ouroboros-2-sub005"
)

type position struct {
	X, Y float32
}

type velocity struct {
	X, Y float32
}

type health struct {
	HP int32
}

// Default gives fresh entities full health.
func (h *health) Default() {
	h.HP = 100
}

type enemy struct{}

type frameClock struct {
	Tick int
	Dt   float32
}

type moveSystem struct {
	query *ecs.Query
}

func (s *moveSystem) Run(w *ecs.World) {
	clock, _ := ecs.GetSingleton[frameClock](w)
	ecs.ForEach2(w, s.query, func(p *position, v *velocity) {
		p.X += v.X * clock.Dt
		p.Y += v.Y * clock.Dt
	})
}

// decaySystem drains enemy health and destroys enemies that reach zero.
type decaySystem struct {
	query  *ecs.Query
	logger *slog.Logger
	killed int
}

func (s *decaySystem) Run(w *ecs.World) {
	ecs.ForEachWithEntity1(w, s.query, func(e ecs.EntityID, h *health) {
		h.HP -= 15
		if h.HP <= 0 {
			w.Destroy(e)
			s.killed++
		}
	})
}

func (s *decaySystem) Shutdown(*ecs.World) {
	s.logger.Info("decay system stopped", "killed", s.killed)
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML world config (defaults when empty)")
	entities := flag.Int("entities", 10000, "Number of entities to create")
	ticks := flag.Int("ticks", 10, "Simulation ticks to run before dumping")
	flag.Parse()

	cfg := ecs.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = ecs.LoadConfig(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	level, err := cfg.Level()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	w, err := ecs.NewWorldFromConfig(cfg, ecs.WithLogger(logger))
	if err != nil {
		logger.Error("create world", "err", err)
		os.Exit(1)
	}
	populate(w, *entities)
	ecs.SetSingleton(w, frameClock{Dt: 1.0 / 60})

	ecs.AddSystem(w, func(w *ecs.World) *moveSystem {
		return &moveSystem{query: w.Query(ecs.Register[position](w), ecs.Register[velocity](w))}
	})
	ecs.AddSystem(w, func(w *ecs.World) *decaySystem {
		return &decaySystem{query: w.Query(ecs.Register[health](w), ecs.Register[enemy](w)), logger: logger}
	})

	for range *ticks {
		clock, _ := ecs.GetSingleton[frameClock](w)
		clock.Tick++
		w.RunSystems()
	}
	w.Close()

	stats := w.Stats()
	logger.Info("world ready",
		"entities", stats.Entities,
		"archetypes", len(stats.Archetypes),
		"chunks", stats.Chunks,
		"components", stats.Components)
	if err := w.DumpArchetypes(os.Stdout); err != nil {
		logger.Error("dump", "err", err)
		os.Exit(1)
	}
}

// populate creates a mix of moving bodies, static props and enemies.
func populate(w *ecs.World, n int) {
	pos := ecs.Register[position](w)
	for i := range n {
		switch i % 4 {
		case 0:
			ecs.NewEntity2(w, position{X: float32(i)}, velocity{X: 1, Y: 0.5})
		case 1:
			w.NewEntity(pos)
		case 2:
			e := ecs.NewEntity1(w, position{Y: float32(i)})
			ecs.AddComponent[health](w, e)
			ecs.AddComponent[enemy](w, e)
		default:
			e := ecs.NewEntity3(w, position{}, velocity{Y: -1}, health{HP: 40})
			ecs.AddComponent[enemy](w, e)
		}
	}
}
