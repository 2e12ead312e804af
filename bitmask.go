package ecs

// Signatures are single 64-bit words. Each component type maps to one bit,
// 1 << (hash % 63), so distinct types can share a bit. Bits are only ever
// used to prune candidates before an exact comparison of hash lists.

// matcherBit returns the presence bit for a type hash.
func matcherBit(h TypeHash) uint64 {
	return uint64(1) << (uint64(h) % 63)
}

// signatureOf XORs the matcher bits of types. It keys the archetype
// directory; two types sharing a bit cancel out, which is fine because
// every directory hit is confirmed by an exact list comparison.
func signatureOf(types []*ComponentInfo) uint64 {
	var sig uint64
	for _, t := range types {
		sig ^= t.Bit
	}
	return sig
}

// presenceMask ORs the matcher bits of types. Unlike the XOR signature it
// never loses a bit, so it can reject archetypes without false negatives.
func presenceMask(types []*ComponentInfo) uint64 {
	var m uint64
	for _, t := range types {
		m |= t.Bit
	}
	return m
}

// hashMask ORs the matcher bits of a list of hashes.
func hashMask(hashes []TypeHash) uint64 {
	var m uint64
	for _, h := range hashes {
		m |= matcherBit(h)
	}
	return m
}

// intersects reports whether two masks share any bit.
func intersects(m, other uint64) bool {
	return m&other != 0
}
