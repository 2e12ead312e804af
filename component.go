package ecs

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"reflect"
	"unsafe"

	"github.com/kamstrup/intmap"
)

// TypeHash is the stable identity of a component type. It is derived from
// the type's package path and name, so the same type hashes identically in
// every world and every process.
type TypeHash uint64

// Defaulter is implemented by component types whose default value is not the
// zero value. Default is called on a zeroed component whenever a row is
// default-constructed.
type Defaulter interface {
	Default()
}

// ComponentInfo describes one component type: its identity, its memory
// footprint and the functions used to manage values stored in chunks.
// Zero-sized (tag) types have Size and Align 0; they take part in archetype
// signatures but own no column.
type ComponentInfo struct {
	Type  reflect.Type
	Hash  TypeHash
	Bit   uint64 // matcher bit, 1 << (Hash % 63)
	Size  uintptr
	Align uintptr

	construct func(dst unsafe.Pointer)
	destruct  func(dst unsafe.Pointer)
	copy      func(dst, src unsafe.Pointer)
	move      func(dst, src unsafe.Pointer)
}

// IsTag reports whether the component has no storage.
func (c *ComponentInfo) IsTag() bool {
	return c.Size == 0
}

// Name returns the Go type name of the component.
func (c *ComponentInfo) Name() string {
	return c.Type.String()
}

func (c *ComponentInfo) String() string {
	return fmt.Sprintf("%s#%016x", c.Type, uint64(c.Hash))
}

// HashOf returns the type hash of T without registering it.
func HashOf[T any]() TypeHash {
	return hashType(reflect.TypeFor[T]())
}

// entityHash is the pseudo component standing for the entity-id column.
var entityHash = HashOf[EntityID]()

// hashType computes FNV-1a over the package path and the type string.
func hashType(t reflect.Type) TypeHash {
	pkg := t.PkgPath()
	if pkg == "" && t.Kind() == reflect.Pointer {
		pkg = t.Elem().PkgPath()
	}
	h := fnv.New64a()
	h.Write([]byte(pkg))
	h.Write([]byte{'.'})
	h.Write([]byte(t.String()))
	return TypeHash(h.Sum64())
}

// componentRegistry owns the descriptors of every component type used by a
// world. Registration is lazy and idempotent.
type componentRegistry struct {
	byType map[reflect.Type]*ComponentInfo
	byHash *intmap.Map[TypeHash, *ComponentInfo]
	infos  []*ComponentInfo // registration order
}

func newComponentRegistry() componentRegistry {
	return componentRegistry{
		byType: make(map[reflect.Type]*ComponentInfo, 16),
		byHash: intmap.New[TypeHash, *ComponentInfo](16),
		infos:  make([]*ComponentInfo, 0, 16),
	}
}

// add stores a freshly built descriptor. Two distinct types sharing a hash
// would make hash-keyed lookups ambiguous, so that is fatal.
func (r *componentRegistry) add(info *ComponentInfo, logger *slog.Logger) *ComponentInfo {
	if other, ok := r.byHash.Get(info.Hash); ok {
		panic(fmt.Sprintf("ecs: type hash collision between %s and %s", other.Type, info.Type))
	}
	r.byType[info.Type] = info
	r.byHash.Put(info.Hash, info)
	r.infos = append(r.infos, info)
	logger.Debug("component registered",
		"type", info.Type.String(),
		"hash", uint64(info.Hash),
		"size", info.Size,
		"align", info.Align)
	return info
}

func (r *componentRegistry) lookup(t reflect.Type) (*ComponentInfo, bool) {
	info, ok := r.byType[t]
	return info, ok
}

func (r *componentRegistry) lookupHash(h TypeHash) (*ComponentInfo, bool) {
	return r.byHash.Get(h)
}

// Register returns the descriptor for T, creating it on first use.
//
// Pointer types cannot be components: a component is a value stored inside
// a chunk. EntityID is reserved for the implicit entity column.
func Register[T any](w *World) *ComponentInfo {
	t := reflect.TypeFor[T]()
	if info, ok := w.components.lookup(t); ok {
		return info
	}
	return w.components.add(newComponentInfo[T](t), w.logger)
}

// newComponentInfo builds the function table for T.
func newComponentInfo[T any](t reflect.Type) *ComponentInfo {
	switch {
	case t.Kind() == reflect.Pointer:
		panic(fmt.Sprintf("ecs: pointer type %s cannot be a component", t))
	case t == reflect.TypeFor[EntityID]():
		panic("ecs: EntityID is reserved for the entity column")
	}
	info := &ComponentInfo{
		Type:  t,
		Hash:  hashType(t),
		Size:  t.Size(),
		Align: uintptr(t.Align()),
	}
	if info.Size == 0 {
		info.Align = 0
	}
	info.Bit = matcherBit(info.Hash)
	info.construct = func(dst unsafe.Pointer) {
		p := (*T)(dst)
		var zero T
		*p = zero
		if d, ok := any(p).(Defaulter); ok {
			d.Default()
		}
	}
	info.destruct = func(dst unsafe.Pointer) {
		var zero T
		*(*T)(dst) = zero
	}
	info.copy = func(dst, src unsafe.Pointer) {
		*(*T)(dst) = *(*T)(src)
	}
	info.move = func(dst, src unsafe.Pointer) {
		var zero T
		*(*T)(dst) = *(*T)(src)
		*(*T)(src) = zero
	}
	return info
}

// InfoOf returns the descriptor for T if it has been registered.
func InfoOf[T any](w *World) (*ComponentInfo, bool) {
	return w.components.lookup(reflect.TypeFor[T]())
}

// InfoByHash returns the registered descriptor with the given hash.
func (w *World) InfoByHash(h TypeHash) (*ComponentInfo, bool) {
	return w.components.lookupHash(h)
}

// ComponentTypes returns the registered descriptors in registration order.
func (w *World) ComponentTypes() []*ComponentInfo {
	out := make([]*ComponentInfo, len(w.components.infos))
	copy(out, w.components.infos)
	return out
}

// mustInfoByHash resolves a hash or panics; mutation APIs only accept
// registered types.
func (w *World) mustInfoByHash(h TypeHash) *ComponentInfo {
	info, ok := w.components.lookupHash(h)
	if !ok {
		panic(fmt.Sprintf("ecs: component hash %016x is not registered", uint64(h)))
	}
	return info
}
