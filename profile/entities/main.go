// Profiling:
// go build ./profile/entities
// go tool pprof -http=":8000" -nodefraction=0.001 ./entities mem.pprof

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

func main() {
	count := 50
	iters := 1000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

// run churns entities through create, iterate and destroy, which exercises
// chunk allocation, release and index recycling.
func run(rounds, iters, numEntities int) {
	for range rounds {
		w := ecs.NewWorld(ecs.WithInitialCapacity(numEntities))
		batch := ecs.NewBuilder(w, ecs.Register[comp1](w), ecs.Register[comp2](w))
		query := w.Query(batch.Components()...)
		filter := ecs.NewFilter[comp1](w, query)

		for range iters {
			batch.NewEntities(numEntities)
			ecs.ForEach2(w, query, func(c1 *comp1, c2 *comp2) {
				c1.V += c2.V
				c1.W += c2.W
			})
			filter.Reset()
			for filter.Next() {
				w.Destroy(filter.Entity())
			}
		}
	}
}
