// Package xorfilter evaluates XorFilter8 membership filters: a compact,
// probabilistic approximate-membership structure built from a 3-wise XOR
// of 8-bit fingerprints. Like recsplit, this package only evaluates a
// pre-built filter; it does not construct one.
package xorfilter

import "encoding/binary"

// arrayLength returns the fingerprint array length a filter of size keys
// was built with: 3 + floor(123*size/100), the standard XOR-filter
// over-provisioning factor that keeps peeling-construction failures rare.
func arrayLength(size uint32) uint32 {
	return uint32(3 + uint64(123)*uint64(size)/100)
}

// hash64 is the SplitMix64 finisher used to derive a key's three
// candidate slots and its fingerprint byte.
func hash64(x uint64) uint64 {
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x = x ^ (x >> 31)
	return x
}

func reduce(hash uint32, n uint32) uint32 {
	return uint32((uint64(hash) * uint64(n)) >> 32)
}

func fingerprint(hash uint64) uint32 {
	return uint32(hash & 0xff)
}

// Filter is an evaluator over an immutable, previously-built XorFilter8
// binary: a 4-byte big-endian size, a 4-byte big-endian hash index, and a
// contiguous fingerprint byte array. It has no mutable state beyond the
// fingerprint slice it was loaded from and may be used concurrently from
// any number of goroutines.
type Filter struct {
	size         uint32
	hashIndex    uint32
	arrayLength  uint32
	blockLength  uint32
	fingerprints []byte
}

// Load decodes a Filter from a raw binary buffer: bytes [0:4) are the
// big-endian key count, bytes [4:8) are the big-endian hash index, and
// the remaining bytes are the fingerprint array (not byte-swapped, unlike
// recsplit's word buffers).
func Load(data []byte) (*Filter, error) {
	if len(data) < 8 {
		return nil, ErrTruncated
	}
	f := &Filter{
		size:      binary.BigEndian.Uint32(data[0:4]),
		hashIndex: binary.BigEndian.Uint32(data[4:8]),
	}
	f.arrayLength = arrayLength(f.size)
	f.blockLength = f.arrayLength / 3
	f.fingerprints = data[8:]
	if uint32(len(f.fingerprints)) < f.arrayLength {
		return nil, ErrTruncated
	}
	return f, nil
}

// Size returns the number of keys the filter was built over.
func (f *Filter) Size() uint32 { return f.size }

// MayContain reports whether key might be a member of the build set. It
// always returns true for keys that were in the build set; for foreign
// keys it returns true with false-positive probability approximately
// 2^-8.
func (f *Filter) MayContain(key uint64) bool {
	hash := hash64(key + uint64(f.hashIndex))
	fp := fingerprint(hash)
	h0 := reduce(uint32(hash), f.blockLength)
	h1 := reduce(uint32(hash>>16), f.blockLength) + f.blockLength
	h2 := reduce(uint32(hash>>32), f.blockLength) + 2*f.blockLength
	fp ^= uint32(f.fingerprints[h0]) ^ uint32(f.fingerprints[h1]) ^ uint32(f.fingerprints[h2])
	return fp&0xff == 0
}
