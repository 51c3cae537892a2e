package recsplit

import "math/bits"

// SupplementalHashShift is the index window width: a key's universal hash
// is only recomputed when the descent index crosses a 2^18 boundary, the
// supplemental hash varies within a window.
const SupplementalHashShift = 18

const (
	sipK0Xor = 0x736f6d6570736575
	sipK1Xor = 0x646f72616e646f6d
	sipK2Xor = 0x6c7967656e657261
	sipK3Xor = 0x7465646279746573
)

// siphash24 computes SipHash-2-4 over b using k0/k1 as the 128-bit key: 2
// compression rounds per 8-byte message block, 4 finalization rounds. The
// final block carries the message length (mod 256) in its top byte.
func siphash24(b []byte, k0, k1 uint64) uint64 {
	v0 := k0 ^ sipK0Xor
	v1 := k1 ^ sipK1Xor
	v2 := k0 ^ sipK2Xor
	v3 := k1 ^ sipK3Xor

	round := func() {
		v0 += v1
		v2 += v3
		v1 = bits.RotateLeft64(v1, 13)
		v3 = bits.RotateLeft64(v3, 16)
		v1 ^= v0
		v3 ^= v2
		v0 = bits.RotateLeft64(v0, 32)
		v2 += v1
		v0 += v3
		v1 = bits.RotateLeft64(v1, 17)
		v3 = bits.RotateLeft64(v3, 21)
		v1 ^= v2
		v3 ^= v0
		v2 = bits.RotateLeft64(v2, 32)
	}

	end := len(b)
	for off := 0; off <= end+8; off += 8 {
		var m uint64
		var repeat int
		if off <= end {
			i := 0
			for ; i < 8 && off+i < end; i++ {
				m |= uint64(b[off+i]) << (8 * uint(i))
			}
			if i < 8 {
				m |= uint64(end) << 56
			}
			v3 ^= m
			repeat = 2
		} else {
			v2 ^= 0xff
			repeat = 4
		}
		for i := 0; i < repeat; i++ {
			round()
		}
		v0 ^= m
	}
	return v0 ^ v1 ^ v2 ^ v3
}

// universalHash is the per-bucket, per-window key hash: SipHash-2-4 keyed
// by (index, index).
func universalHash(key []byte, index uint64) uint64 {
	return siphash24(key, index, index)
}

// hash64 is the SplitMix64 finisher, used only by XorFilter8.
func hash64(x uint64) uint64 {
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x = x ^ (x >> 31)
	return x
}

// supplementalHash mixes the universal hash with the descent index to
// pick a split/leaf slot at each node, without re-hashing the key.
func supplementalHash(hash uint64, index uint64) uint32 {
	x := uint32(bits.RotateLeft64(hash, int(index&63)) ^ index)
	x = (x>>16 ^ x) * 0x45d9f3b
	x = (x>>16 ^ x) * 0x45d9f3b
	x = x >> 16 ^ x
	return x
}

// reduce maps a 32-bit hash into [0, n) via Lemire's fast alternative to
// modulo reduction: (hash * n) >> 32.
func reduce(hash uint32, n uint32) uint32 {
	return uint32((uint64(hash) * uint64(n)) >> 32)
}

// getUniversalHashIndex returns the descent-index window a supplemental
// hash belongs to; universalHash is only recomputed when this changes.
func getUniversalHashIndex(index uint64) uint64 {
	return index >> SupplementalHashShift
}

// unfoldSigned inverts the zig-zag fold used to transmit signed integers
// as unsigned Elias-Delta codes: odd values decode to (u+1)/2, even
// values decode to -(u/2).
func unfoldSigned(u uint64) int64 {
	if u&1 == 1 {
		return int64((u + 1) / 2)
	}
	return -int64(u / 2)
}
