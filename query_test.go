package ecs

import (
	"slices"
	"testing"
)

type compA struct{ V int }
type compB struct{ V int }
type compC struct{ V int }

// go test -run ^TestQueryRequireExclude$ . -count 1
func TestQueryRequireExclude(t *testing.T) {
	w := NewWorld()
	a, b, c := Register[compA](w), Register[compB](w), Register[compC](w)
	ab := w.NewEntity(a, b)
	ac := w.NewEntity(a, c)
	abc := w.NewEntity(a, b, c)

	q := NewQuery().Require(a.Hash, b.Hash).Exclude(c.Hash).Build()
	got := w.Entities(q)
	if len(got) != 1 || got[0] != ab {
		t.Fatalf("expected only %v, got %v", ab, got)
	}
	for _, idx := range q.matching(w) {
		arch := w.archetypes.archetypes[idx]
		if arch.has(c.Hash) {
			t.Errorf("archetype %d holds an excluded component", idx)
		}
	}

	all := w.Query(a)
	if n := w.Count(all); n != 3 {
		t.Errorf("expected 3 entities with A, got %d", n)
	}
	withC := NewQuery().Require(c.Hash).Build()
	if got := w.Entities(withC); !slices.Contains(got, ac) || !slices.Contains(got, abc) || len(got) != 2 {
		t.Errorf("unexpected entities with C: %v", got)
	}
	if n := w.Count(NewQuery().Build()); n != 3 {
		t.Errorf("empty query should match everything, got %d", n)
	}
}

// go test -run ^TestQueryBuild$ . -count 1
func TestQueryBuild(t *testing.T) {
	a, b := HashOf[compA](), HashOf[compB]()
	q := NewQuery().Require(b, entityHash, a, b).Exclude(entityHash).Build()
	req := q.Required()
	if len(req) != 2 || req[0] > req[1] {
		t.Errorf("require list not normalized: %v", req)
	}
	if slices.Contains(req, entityHash) || len(q.Excluded()) != 0 {
		t.Error("entity pseudo component kept")
	}
	if q.Build() != q {
		t.Error("Build is not idempotent")
	}
	expectPanic(t, "Require after Build", func() { q.Require(a) })
	expectPanic(t, "Exclude after Build", func() { q.Exclude(a) })
	expectPanic(t, "Matches before Build", func() { NewQuery().Matches(a) })
}

// go test -run ^TestQueryBitCollisions$ . -count 1
func TestQueryBitCollisions(t *testing.T) {
	// h and h+63 share a matcher bit.
	h := TypeHash(1000)
	alias := h + 63
	if matcherBit(h) != matcherBit(alias) {
		t.Fatal("test hashes must collide")
	}

	req := NewQuery().Require(h).Build()
	if req.Matches(alias) {
		t.Error("prefilter hit accepted without exact match")
	}
	if !req.Matches(alias, h) {
		t.Error("exact match rejected")
	}

	ex := NewQuery().Exclude(alias).Build()
	if !ex.Matches(h) {
		t.Error("exclude rejected an archetype that only shares a bit")
	}
	if ex.Matches(h, alias) {
		t.Error("excluded hash accepted")
	}

	// XOR signatures cancel for two colliding types; the directory must
	// still tell the archetypes apart.
	w := NewWorld()
	infos := []*ComponentInfo{{Hash: h, Bit: matcherBit(h)}, {Hash: alias, Bit: matcherBit(alias)}}
	if signatureOf(infos) != 0 || presenceMask(infos) != matcherBit(h) {
		t.Error("unexpected signature arithmetic")
	}
	if w.archetypes.find(signatureOf(infos), infos) != nil {
		t.Error("empty archetype matched a two-type list")
	}
}

// go test -run ^TestQueryCacheRefresh$ . -count 1
func TestQueryCacheRefresh(t *testing.T) {
	w := NewWorld()
	a := Register[compA](w)
	w.NewEntity(a)
	q := w.Query(a)
	if n := len(q.matching(w)); n != 1 {
		t.Fatalf("expected 1 matched archetype, got %d", n)
	}
	w.NewEntity(a, Register[compB](w))
	if n := len(q.matching(w)); n != 2 {
		t.Errorf("cache not refreshed, got %d archetypes", n)
	}

	other := NewWorld()
	other.NewEntity(Register[compA](other))
	if n := other.Count(q); n != 1 {
		t.Errorf("query reused in another world matched %d", n)
	}
	if n := w.Count(q); n != 2 {
		t.Errorf("query back in first world matched %d", n)
	}
}

// go test -run ^TestForEachDestroyCurrent$ . -count 1
func TestForEachDestroyCurrent(t *testing.T) {
	w := NewWorld()
	a := Register[compA](w)
	const n = 3000
	for i := range n {
		SetComponent(w, w.NewEntity(a), compA{V: i})
	}
	q := w.Query(a)
	seen := make(map[EntityID]int, n)
	ForEachWithEntity1(w, q, func(e EntityID, c *compA) {
		seen[e]++
		if c.V%2 == 0 {
			w.Destroy(e)
		}
	})
	if len(seen) != n {
		t.Fatalf("visited %d entities, expected %d", len(seen), n)
	}
	for e, count := range seen {
		if count != 1 {
			t.Fatalf("entity %v visited %d times", e, count)
		}
	}
	if w.EntityCount() != n/2 {
		t.Errorf("expected %d survivors, got %d", n/2, w.EntityCount())
	}
	ForEach1(w, q, func(c *compA) {
		if c.V%2 == 0 {
			t.Fatalf("destroyed value %d still iterated", c.V)
		}
	})
	checkInvariants(t, w)

	if got := w.DestroyEntities(q); got != n/2 || w.EntityCount() != 0 {
		t.Errorf("DestroyEntities removed %d, %d left", got, w.EntityCount())
	}
	checkInvariants(t, w)
}

// go test -run ^TestForEachRemoveCurrentComponent$ . -count 1
func TestForEachRemoveCurrentComponent(t *testing.T) {
	w := NewWorld()
	for i := range 2500 {
		NewEntity2(w, compA{V: i}, compB{V: i})
	}
	q := w.Query(Register[compA](w), Register[compB](w))
	visits := 0
	ForEachWithEntity2(w, q, func(e EntityID, a *compA, b *compB) {
		visits++
		if a.V != b.V {
			t.Fatalf("rows out of step: %d vs %d", a.V, b.V)
		}
		RemoveComponent[compB](w, e)
	})
	if visits != 2500 {
		t.Errorf("expected 2500 visits, got %d", visits)
	}
	if w.Count(q) != 0 {
		t.Error("entities still hold compB")
	}
	checkInvariants(t, w)
}

// go test -run ^TestForEachOptional$ . -count 1
func TestForEachOptional(t *testing.T) {
	w := NewWorld()
	NewEntity1(w, compA{V: 1})
	NewEntity2(w, compA{V: 2}, compB{V: 20})
	NewEntity3(w, compA{V: 3}, compB{V: 30}, compC{V: 300})

	q := w.Query(Register[compA](w))
	sum, nils := 0, 0
	ForEach3(w, q, func(a *compA, b *compB, c *compC) {
		sum += a.V
		if b == nil {
			nils++
		} else {
			sum += b.V
		}
		if c != nil {
			sum += c.V
		}
	})
	if sum != 1+2+3+20+30+300 || nils != 1 {
		t.Errorf("unexpected sum %d, nils %d", sum, nils)
	}

	pairs := 0
	ForEach2(w, w.Query(Register[compB](w)), func(a *compA, b *compB) {
		if a == nil || b == nil {
			t.Fatal("required components passed as nil")
		}
		pairs++
	})
	if pairs != 2 {
		t.Errorf("expected 2 pairs, got %d", pairs)
	}
	entities := 0
	w.ForEachEntity(q, func(EntityID) { entities++ })
	ForEachWithEntity3(w, q, func(e EntityID, a *compA, _ *compB, _ *compC) {
		if GetComponent[compA](w, e) != a {
			t.Error("entity and component out of step")
		}
	})
	if entities != 3 {
		t.Errorf("expected 3 entities, got %d", entities)
	}
}

// go test -run ^TestFilter$ . -count 1
func TestFilter(t *testing.T) {
	w := NewWorld()
	a := Register[compA](w)
	capacity := w.mustArchetype([]*ComponentInfo{a}).combo.ChunkCapacity
	total := capacity*2 + 5
	for i := range total {
		NewEntity1(w, compA{V: i})
	}
	NewEntity2(w, compA{V: -1}, compB{})

	f := NewFilter[compA](w, NewQuery().Require(a.Hash))
	count := 0
	for f.Next() {
		if f.Get() == nil || !w.IsValid(f.Entity()) {
			t.Fatal("filter yielded an invalid row")
		}
		if f.Get().V >= 0 && f.Get().V%5 == 0 {
			w.Destroy(f.Entity())
		}
		count++
	}
	if count != total+1 {
		t.Errorf("expected %d rows, got %d", total+1, count)
	}
	f.Reset()
	left := 0
	for f.Next() {
		left++
	}
	if left != w.EntityCount() {
		t.Errorf("second pass saw %d, world holds %d", left, w.EntityCount())
	}
	checkInvariants(t, w)
}

// go test -run ^TestForEachMovedIntoLaterArchetype$ . -count 1
func TestForEachMovedIntoLaterArchetype(t *testing.T) {
	t.Run("remove", func(t *testing.T) {
		w := NewWorld()
		// {A,B} is created before {A}, so the walk reaches {A} after the move
		e1 := NewEntity2(w, compA{V: 1}, compB{V: 1})
		e2 := NewEntity1(w, compA{V: 2})
		visits := map[EntityID]int{}
		ForEachWithEntity1(w, w.Query(Register[compA](w)), func(e EntityID, _ *compA) {
			visits[e]++
			RemoveComponent[compB](w, e)
		})
		if visits[e1] != 1 || visits[e2] != 1 || len(visits) != 2 {
			t.Errorf("unexpected visits %v", visits)
		}
		checkInvariants(t, w)
	})

	t.Run("add", func(t *testing.T) {
		w := NewWorld()
		for i := range 10 {
			NewEntity1(w, compA{V: i})
		}
		NewEntity2(w, compA{V: 10}, compC{})
		visits := map[EntityID]int{}
		ForEachWithEntity1(w, w.Query(Register[compA](w)), func(e EntityID, _ *compA) {
			visits[e]++
			AddComponent[compC](w, e)
		})
		if len(visits) != 11 {
			t.Fatalf("visited %d entities, expected 11", len(visits))
		}
		for e, n := range visits {
			if n != 1 {
				t.Errorf("entity %v visited %d times", e, n)
			}
		}
	})

	t.Run("filter", func(t *testing.T) {
		w := NewWorld()
		e1 := NewEntity2(w, compA{V: 1}, compB{V: 1})
		NewEntity1(w, compA{V: 2})
		f := NewFilter[compA](w, w.Query(Register[compA](w)))
		seen := map[EntityID]int{}
		for f.Next() {
			seen[f.Entity()]++
			RemoveComponent[compB](w, f.Entity())
		}
		if seen[e1] != 1 || len(seen) != 2 {
			t.Errorf("unexpected visits %v", seen)
		}
		f.Reset()
		n := 0
		for f.Next() {
			n++
		}
		if n != 2 {
			t.Errorf("after Reset the filter saw %d entities, expected 2", n)
		}
	})
}

func spawnLocalSmall(w *World) EntityID {
	type Local struct{ V int8 }
	return NewEntity1(w, Local{V: 3})
}

// countLocalBig iterates a different type that prints the same as the one
// spawnLocalSmall stores.
func countLocalBig(w *World, q *Query) (forEach, filter int) {
	type Local struct{ Big [64]int64 }
	ForEach1(w, q, func(p *Local) {
		if p != nil {
			forEach++
		}
	})
	f := NewFilter[Local](w, q)
	for f.Next() {
		if f.Get() != nil {
			filter++
		}
	}
	return forEach, filter
}

// go test -run ^TestIterateSameNamedLocalTypes$ . -count 1
func TestIterateSameNamedLocalTypes(t *testing.T) {
	w := NewWorld()
	spawnLocalSmall(w)
	q := NewQuery().Build()
	if w.Count(q) != 1 {
		t.Fatalf("expected 1 entity, got %d", w.Count(q))
	}
	forEach, filter := countLocalBig(w, q)
	if forEach != 0 || filter != 0 {
		t.Errorf("unregistered type resolved to another type's column: ForEach1 %d, Filter %d", forEach, filter)
	}
	checkInvariants(t, w)
}
