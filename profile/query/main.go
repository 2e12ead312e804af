// Profiling:
// go build ./profile/query
// go tool pprof -http=":8000" -nodefraction=0.001 ./query cpu.pprof

package main

import (
	ecs "github.com/GuanHuiLim/Ouroboros-2-sub005"
	"github.com/pkg/profile"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

type comp3 struct {
	V int64
	W int64
}

type comp4 struct {
	V int64
	W int64
}

type comp5 struct {
	V int64
	W int64
}

type comp6 struct {
	V int64
	W int64
}

func main() {
	count := 50
	iters := 1000
	entities := 100000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for range rounds {
		w := ecs.NewWorld(ecs.WithInitialCapacity(numEntities))
		batch := ecs.NewBuilder(w,
			ecs.Register[comp1](w), ecs.Register[comp2](w), ecs.Register[comp3](w),
			ecs.Register[comp4](w), ecs.Register[comp5](w), ecs.Register[comp6](w))
		batch.NewEntities(numEntities)
		query := w.Query(batch.Components()...)

		for range iters {
			w.ForEachChunk(query, func(v ecs.ChunkView) {
				c1 := ecs.Column[comp1](v)
				c2 := ecs.Column[comp2](v)
				for i := range c1 {
					c1[i].V += c2[i].V
					c1[i].W += c2[i].W
				}
			})
		}
	}
}
