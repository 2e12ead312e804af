package ecs

import (
	"slices"
)

// Query selects archetypes by component presence. It is built once with
// Require and Exclude, frozen by Build and then reused for every iteration.
//
// A built query caches the archetypes it matched in the last world it ran
// against; the cache is refreshed whenever that world creates an archetype.
type Query struct {
	require     []TypeHash
	exclude     []TypeHash
	requireMask uint64
	excludeMask uint64
	built       bool
	cache       queryCache
}

// queryCache remembers the archetype indices matched in one world.
type queryCache struct {
	world   *World
	version uint32
	matched []uint32
}

// NewQuery returns an empty query. A built empty query matches every
// archetype.
func NewQuery() *Query {
	return &Query{}
}

// Require adds component hashes every matched archetype must hold.
func (q *Query) Require(hashes ...TypeHash) *Query {
	q.mustBeOpen()
	q.require = append(q.require, hashes...)
	return q
}

// Exclude adds component hashes no matched archetype may hold.
func (q *Query) Exclude(hashes ...TypeHash) *Query {
	q.mustBeOpen()
	q.exclude = append(q.exclude, hashes...)
	return q
}

func (q *Query) mustBeOpen() {
	if q.built {
		panic("ecs: query modified after Build")
	}
}

// Build normalizes the hash lists and freezes the query. The entity-id
// column is implicit in every archetype, so it is dropped from both lists.
func (q *Query) Build() *Query {
	if q.built {
		return q
	}
	q.require = normalizeHashes(q.require)
	q.exclude = normalizeHashes(q.exclude)
	q.requireMask = hashMask(q.require)
	q.excludeMask = hashMask(q.exclude)
	q.built = true
	return q
}

func normalizeHashes(hashes []TypeHash) []TypeHash {
	hashes = slices.DeleteFunc(hashes, func(h TypeHash) bool { return h == entityHash })
	slices.Sort(hashes)
	return slices.Compact(hashes)
}

// Required returns the normalized require list of a built query.
func (q *Query) Required() []TypeHash {
	return slices.Clone(q.require)
}

// Excluded returns the normalized exclude list of a built query.
func (q *Query) Excluded() []TypeHash {
	return slices.Clone(q.exclude)
}

// Matches reports whether an entity holding exactly hashes would be
// selected. hashes need not be sorted.
func (q *Query) Matches(hashes ...TypeHash) bool {
	q.mustBeBuilt()
	sorted := normalizeHashes(slices.Clone(hashes))
	return q.matchSorted(hashMask(sorted), sorted)
}

func (q *Query) mustBeBuilt() {
	if !q.built {
		panic("ecs: query used before Build")
	}
}

// matches is the two-phase test against one archetype: a mask prefilter
// that can only reject, then the exact hash comparison.
func (q *Query) matches(a *archetype) bool {
	return q.matchSorted(a.mask, a.hashes)
}

func (q *Query) matchSorted(mask uint64, hashes []TypeHash) bool {
	if len(q.require) > 0 && !intersects(mask, q.requireMask) {
		return false
	}
	if intersects(mask, q.excludeMask) {
		for _, h := range q.exclude {
			if _, ok := slices.BinarySearch(hashes, h); ok {
				return false
			}
		}
	}
	for _, h := range q.require {
		if _, ok := slices.BinarySearch(hashes, h); !ok {
			return false
		}
	}
	return true
}

// matching returns the indices of the archetypes of w selected by q,
// refreshing the cache when w has grown new archetypes since the last call.
func (q *Query) matching(w *World) []uint32 {
	q.mustBeBuilt()
	c := &q.cache
	if c.world == w && c.version == w.archetypes.version && c.matched != nil {
		return c.matched
	}
	c.world = w
	c.version = w.archetypes.version
	c.matched = c.matched[:0]
	if c.matched == nil {
		c.matched = make([]uint32, 0, 8)
	}
	for _, a := range w.archetypes.archetypes {
		if q.matches(a) {
			c.matched = append(c.matched, a.index)
		}
	}
	return c.matched
}

// Query builds a query requiring the given registered types.
func (w *World) Query(infos ...*ComponentInfo) *Query {
	q := NewQuery()
	for _, info := range infos {
		q.Require(info.Hash)
	}
	return q.Build()
}

// HashesOf returns the hashes of infos, for use with Require and Exclude.
func HashesOf(infos ...*ComponentInfo) []TypeHash {
	out := make([]TypeHash, len(infos))
	for i, info := range infos {
		out[i] = info.Hash
	}
	return out
}
