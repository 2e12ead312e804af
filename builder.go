package ecs

// Builder creates entities of one fixed component set. It resolves the
// archetype once, so repeated creation skips sorting and directory lookups.
type Builder struct {
	world *World
	arch  *archetype
}

// NewBuilder returns a Builder for entities holding the given types.
func NewBuilder(w *World, infos ...*ComponentInfo) *Builder {
	b := &Builder{world: w, arch: w.empty}
	if len(infos) > 0 {
		types := sortTypes(append([]*ComponentInfo(nil), infos...))
		b.arch = w.mustArchetype(types)
	}
	return b
}

// NewEntity creates one entity with default-constructed components.
func (b *Builder) NewEntity() EntityID {
	return b.world.spawn(b.arch)
}

// NewEntities creates count entities and returns their ids.
func (b *Builder) NewEntities(count int) []EntityID {
	out := make([]EntityID, count)
	for i := range out {
		out[i] = b.world.spawn(b.arch)
	}
	return out
}

// Components returns the descriptors of the builder's component set.
func (b *Builder) Components() []*ComponentInfo {
	return append([]*ComponentInfo(nil), b.arch.combo.Types...)
}

// NewEntity1 creates an entity holding a. Creation callbacks see the value.
func NewEntity1[A any](w *World, a A) EntityID {
	ia := Register[A](w)
	arch := w.mustArchetype([]*ComponentInfo{ia})
	return w.spawnWith(arch, func(c *chunk, slot int) {
		setColumn(c, arch, ia, slot, a)
	})
}

// NewEntity2 creates an entity holding a and b.
func NewEntity2[A, B any](w *World, a A, b B) EntityID {
	ia, ib := Register[A](w), Register[B](w)
	arch := w.mustArchetype(sortTypes([]*ComponentInfo{ia, ib}))
	return w.spawnWith(arch, func(c *chunk, slot int) {
		setColumn(c, arch, ia, slot, a)
		setColumn(c, arch, ib, slot, b)
	})
}

// NewEntity3 creates an entity holding a, b and c.
func NewEntity3[A, B, C any](w *World, a A, b B, c C) EntityID {
	ia, ib, ic := Register[A](w), Register[B](w), Register[C](w)
	arch := w.mustArchetype(sortTypes([]*ComponentInfo{ia, ib, ic}))
	return w.spawnWith(arch, func(ch *chunk, slot int) {
		setColumn(ch, arch, ia, slot, a)
		setColumn(ch, arch, ib, slot, b)
		setColumn(ch, arch, ic, slot, c)
	})
}

func setColumn[T any](c *chunk, a *archetype, info *ComponentInfo, slot int, val T) {
	*(*T)(c.component(a.column(info.Hash), slot)) = val
}
