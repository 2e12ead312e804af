package ecs

import (
	"cmp"
	"slices"
)

// alignUp rounds offset up to a multiple of align. align 0 leaves offset
// untouched.
func alignUp(offset, align uintptr) uintptr {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// sortTypes sorts descriptors by hash and drops duplicates in place.
func sortTypes(types []*ComponentInfo) []*ComponentInfo {
	slices.SortFunc(types, func(a, b *ComponentInfo) int {
		return cmp.Compare(a.Hash, b.Hash)
	})
	return slices.Compact(types)
}

// withType returns the sorted union of types and t. types must be sorted.
func withType(types []*ComponentInfo, t *ComponentInfo) []*ComponentInfo {
	out := make([]*ComponentInfo, 0, len(types)+1)
	i := 0
	for i < len(types) && types[i].Hash < t.Hash {
		out = append(out, types[i])
		i++
	}
	out = append(out, t)
	return append(out, types[i:]...)
}

// withoutType returns types minus t, preserving order.
func withoutType(types []*ComponentInfo, t *ComponentInfo) []*ComponentInfo {
	out := make([]*ComponentInfo, 0, len(types))
	for _, x := range types {
		if x != t {
			out = append(out, x)
		}
	}
	return out
}
