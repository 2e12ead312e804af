package ecs

import (
	"fmt"
	"slices"

	"github.com/kamstrup/intmap"
)

// archetype owns the chunks of every entity holding exactly one component
// set. Full chunks are kept contiguous at the front of chunks, so the last
// chunk is the only candidate for insertion. Archetypes are never deleted.
type archetype struct {
	combo       *ComponentCombination
	hashes      []TypeHash // sorted, parallel to combo.Types
	chunks      []*chunk
	spare       []*chunk                      // released chunks kept for reuse
	addEdges    *intmap.Map[TypeHash, uint32] // component added -> archetype index
	removeEdges *intmap.Map[TypeHash, uint32] // component removed -> archetype index
	signature   uint64                        // XOR of matcher bits, directory key
	mask        uint64                        // OR of matcher bits, query prefilter
	index       uint32                        // position in the world's archetype list
	fullChunks  int                           // chunks[:fullChunks] are at capacity
	size        int                           // live entities across chunks
}

func newArchetype(index uint32, combo *ComponentCombination) *archetype {
	a := &archetype{
		combo:       combo,
		hashes:      make([]TypeHash, len(combo.Types)),
		chunks:      make([]*chunk, 0, 4),
		addEdges:    intmap.New[TypeHash, uint32](4),
		removeEdges: intmap.New[TypeHash, uint32](4),
		signature:   signatureOf(combo.Types),
		mask:        presenceMask(combo.Types),
		index:       index,
	}
	for i, t := range combo.Types {
		a.hashes[i] = t.Hash
	}
	return a
}

// has reports whether the archetype holds a component with hash h.
func (a *archetype) has(h TypeHash) bool {
	_, ok := slices.BinarySearch(a.hashes, h)
	return ok
}

// column returns the column index of h, or -1.
func (a *archetype) column(h TypeHash) int {
	if i, ok := slices.BinarySearch(a.hashes, h); ok {
		return i
	}
	return -1
}

func (a *archetype) chunkIndex(c *chunk) int {
	i := slices.Index(a.chunks, c)
	if i < 0 {
		panic("ecs: chunk does not belong to its archetype")
	}
	return i
}

// setChunkFull moves c, which just reached capacity, into the full prefix.
func (a *archetype) setChunkFull(c *chunk) {
	i := a.chunkIndex(c)
	if i < a.fullChunks {
		return
	}
	a.chunks[i], a.chunks[a.fullChunks] = a.chunks[a.fullChunks], a.chunks[i]
	a.fullChunks++
}

// setChunkPartial moves c, which just dropped below capacity, out of the full
// prefix.
func (a *archetype) setChunkPartial(c *chunk) {
	i := a.chunkIndex(c)
	if i >= a.fullChunks {
		return
	}
	last := a.fullChunks - 1
	a.chunks[i], a.chunks[last] = a.chunks[last], a.chunks[i]
	a.fullChunks--
}

// archetypeDirectory maps signatures to the archetypes sharing them.
// Several archetypes may share a signature when matcher bits collide.
type archetypeDirectory struct {
	bySignature *intmap.Map[uint64, []uint32]
	archetypes  []*archetype
	version     uint32 // bumped whenever an archetype is created
}

func newArchetypeDirectory() archetypeDirectory {
	return archetypeDirectory{
		bySignature: intmap.New[uint64, []uint32](16),
		archetypes:  make([]*archetype, 0, 16),
	}
}

// find returns the archetype holding exactly types, or nil.
func (d *archetypeDirectory) find(sig uint64, types []*ComponentInfo) *archetype {
	candidates, _ := d.bySignature.Get(sig)
	for _, idx := range candidates {
		if a := d.archetypes[idx]; sameTypes(a.combo.Types, types) {
			return a
		}
	}
	return nil
}

// findOrCreateArchetype resolves the archetype for types, which must be
// sorted by hash. A new archetype starts with one empty chunk.
func (w *World) findOrCreateArchetype(types []*ComponentInfo) (*archetype, error) {
	sig := signatureOf(types)
	if a := w.archetypes.find(sig, types); a != nil {
		return a, nil
	}
	combo, err := BuildComponentCombination(types)
	if err != nil {
		return nil, err
	}
	d := &w.archetypes
	a := newArchetype(uint32(len(d.archetypes)), combo)
	a.chunks = append(a.chunks, newChunk(a.index, combo))
	d.archetypes = append(d.archetypes, a)
	candidates, _ := d.bySignature.Get(sig)
	d.bySignature.Put(sig, append(candidates, a.index))
	d.version++
	w.logger.Debug("archetype created",
		"index", a.index,
		"components", typeNames(types),
		"signature", sig,
		"chunk_capacity", combo.ChunkCapacity)
	return a, nil
}

// mustArchetype is findOrCreateArchetype for mutation paths, where a layout
// that cannot fit is a caller bug.
func (w *World) mustArchetype(types []*ComponentInfo) *archetype {
	a, err := w.findOrCreateArchetype(types)
	if err != nil {
		panic(err.Error())
	}
	return a
}

// archetypeWith returns the archetype of a's components plus info, caching
// the transition in both directions.
func (w *World) archetypeWith(a *archetype, info *ComponentInfo) *archetype {
	if idx, ok := a.addEdges.Get(info.Hash); ok {
		return w.archetypes.archetypes[idx]
	}
	if len(a.hashes) >= MaxArchetypeComponents {
		panic(fmt.Sprintf("ecs: adding %s exceeds the archetype limit of %d components", info.Type, MaxArchetypeComponents))
	}
	target := w.mustArchetype(withType(a.combo.Types, info))
	a.addEdges.Put(info.Hash, target.index)
	target.removeEdges.Put(info.Hash, a.index)
	return target
}

// archetypeWithout returns the archetype of a's components minus info.
func (w *World) archetypeWithout(a *archetype, info *ComponentInfo) *archetype {
	if idx, ok := a.removeEdges.Get(info.Hash); ok {
		return w.archetypes.archetypes[idx]
	}
	target := w.mustArchetype(withoutType(a.combo.Types, info))
	a.removeEdges.Put(info.Hash, target.index)
	target.addEdges.Put(info.Hash, a.index)
	return target
}

// findFreeChunk returns the last chunk if it has room, otherwise a recycled
// or newly allocated chunk appended to the list.
func (w *World) findFreeChunk(a *archetype) *chunk {
	if a.fullChunks < len(a.chunks) {
		return a.chunks[len(a.chunks)-1]
	}
	var c *chunk
	if n := len(a.spare); n > 0 {
		c = a.spare[n-1]
		a.spare[n-1] = nil
		a.spare = a.spare[:n-1]
	} else {
		c = newChunk(a.index, a.combo)
		w.logger.Debug("chunk allocated", "archetype", a.index, "chunks", len(a.chunks)+1)
	}
	a.chunks = append(a.chunks, c)
	return c
}

// releaseChunk drops an empty chunk from the archetype, keeping it in the
// spare list while the reserve has room.
func (w *World) releaseChunk(a *archetype, c *chunk) {
	i := a.chunkIndex(c)
	last := len(a.chunks) - 1
	a.chunks[i] = a.chunks[last]
	a.chunks[last] = nil
	a.chunks = a.chunks[:last]
	if len(a.spare) < w.chunkReserve {
		a.spare = append(a.spare, c)
		return
	}
	w.logger.Debug("chunk released", "archetype", a.index, "chunks", len(a.chunks))
}
