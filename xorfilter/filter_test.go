package xorfilter

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildFilter constructs a valid XorFilter8 binary for keys by brute-force
// search over candidate hashIndex values and, for each candidate, over
// fingerprint byte assignments via Gaussian-elimination-free direct
// solving: since this package only evaluates filters, the test helper
// takes the simplest correct construction - try hashIndex values until
// the induced 3 slots per key admit a consistent fingerprint assignment
// via the standard peel-and-assign algorithm.
func buildFilter(t *testing.T, keys []uint64) []byte {
	t.Helper()
	size := uint32(len(keys))
	al := arrayLength(size)
	bl := al / 3

	for hashIndex := uint32(0); hashIndex < 10000; hashIndex++ {
		slots := make([][3]uint32, len(keys))
		fps := make([]uint32, len(keys))
		for i, k := range keys {
			hv := hash64(k + uint64(hashIndex))
			fps[i] = fingerprint(hv)
			slots[i] = [3]uint32{
				reduce(uint32(hv), bl),
				reduce(uint32(hv>>16), bl) + bl,
				reduce(uint32(hv>>32), bl) + 2*bl,
			}
		}

		assignment, ok := peel(slots, int(al))
		if !ok {
			continue
		}

		fp := make([]byte, al)
		assigned := make([]bool, al)
		// Assign fingerprints in reverse peel order so each key's
		// designated slot can still be solved from its two already-fixed
		// sibling slots.
		for i := len(assignment) - 1; i >= 0; i-- {
			keyIdx := assignment[i].keyIdx
			slot := assignment[i].slot
			var x uint32
			for _, s := range slots[keyIdx] {
				if s != slot {
					x ^= uint32(fp[s])
				}
			}
			fp[slot] = byte(fps[keyIdx] ^ x)
			assigned[slot] = true
		}
		for i := range fp {
			if !assigned[i] {
				fp[i] = 0
			}
		}

		buf := make([]byte, 8+len(fp))
		binary.BigEndian.PutUint32(buf[0:4], size)
		binary.BigEndian.PutUint32(buf[4:8], hashIndex)
		copy(buf[8:], fp)
		return buf
	}
	t.Fatalf("failed to construct a XorFilter8 over %d keys", len(keys))
	return nil
}

type peelAssignment struct {
	keyIdx int
	slot   uint32
}

// peel runs the standard 3-wise XOR-filter peeling construction: while any
// slot is touched by exactly one remaining key, assign that key to that
// slot and remove it. Returns false if construction stalls (the caller
// should retry with a different hashIndex).
func peel(slots [][3]uint32, arrayLen int) ([]peelAssignment, bool) {
	degree := make([]int, arrayLen)
	slotKeys := make([][]int, arrayLen)
	for i, s := range slots {
		for _, sl := range s {
			degree[sl]++
			slotKeys[sl] = append(slotKeys[sl], i)
		}
	}

	removed := make([]bool, len(slots))
	queue := make([]uint32, 0, arrayLen)
	for sl := 0; sl < arrayLen; sl++ {
		if degree[sl] == 1 {
			queue = append(queue, uint32(sl))
		}
	}

	var order []peelAssignment
	for len(queue) > 0 {
		sl := queue[0]
		queue = queue[1:]
		if degree[sl] != 1 {
			continue
		}
		var keyIdx = -1
		for _, ki := range slotKeys[sl] {
			if !removed[ki] {
				keyIdx = ki
				break
			}
		}
		if keyIdx < 0 {
			continue
		}
		removed[keyIdx] = true
		order = append(order, peelAssignment{keyIdx: keyIdx, slot: sl})
		for _, sib := range slots[keyIdx] {
			degree[sib]--
			if degree[sib] == 1 {
				queue = append(queue, sib)
			}
		}
	}

	for _, r := range removed {
		if !r {
			return nil, false
		}
	}
	return order, true
}

// TestXorFilterS1Scenario covers S1: N=3 keys {1,2,3}; all three report
// true, and a sample of non-members shows an approximately 2^-8 hit rate.
func TestXorFilterS1Scenario(t *testing.T) {
	keys := []uint64{1, 2, 3}
	data := buildFilter(t, keys)
	f, err := Load(data)
	require.NoError(t, err)
	require.EqualValues(t, 3, f.Size())

	for _, k := range keys {
		require.True(t, f.MayContain(k), "member key %d", k)
	}

	rng := rand.New(rand.NewSource(1))
	hits := 0
	const trials = 1000
	for i := 0; i < trials; i++ {
		k := rng.Uint64()
		if f.MayContain(k) {
			hits++
		}
	}
	// Expected ~1000/256 ~= 4 hits; allow generous slack since this is a
	// tiny 3-key filter, not the 10^6-trial fpr property (S7/S8 below).
	require.Less(t, hits, trials/4)
}

// TestXorFilterCompleteness covers S7: every build-set key reports true,
// across a larger key set than the S1 smoke test.
func TestXorFilterCompleteness(t *testing.T) {
	n := 500
	keys := make([]uint64, n)
	rng := rand.New(rand.NewSource(42))
	seen := make(map[uint64]bool)
	for i := 0; i < n; i++ {
		var k uint64
		for {
			k = rng.Uint64()
			if !seen[k] {
				seen[k] = true
				break
			}
		}
		keys[i] = k
	}

	data := buildFilter(t, keys)
	f, err := Load(data)
	require.NoError(t, err)
	for _, k := range keys {
		require.True(t, f.MayContain(k), "member key %d", k)
	}
}

// TestXorFilterFalsePositiveRate covers S8 at reduced scale (10^4 rather
// than 10^6 foreign keys) to keep the test fast while still pinning the
// false-positive rate in the right ballpark (~2^-8, generous tolerance).
func TestXorFilterFalsePositiveRate(t *testing.T) {
	n := 2000
	keys := make([]uint64, n)
	rng := rand.New(rand.NewSource(7))
	member := make(map[uint64]bool, n)
	for i := range keys {
		var k uint64
		for {
			k = rng.Uint64()
			if !member[k] {
				member[k] = true
				break
			}
		}
		keys[i] = k
	}
	data := buildFilter(t, keys)
	f, err := Load(data)
	require.NoError(t, err)

	const trials = 10000
	hits := 0
	for i := 0; i < trials; i++ {
		var k uint64
		for {
			k = rng.Uint64()
			if !member[k] {
				break
			}
		}
		if f.MayContain(k) {
			hits++
		}
	}
	rate := float64(hits) / float64(trials)
	require.InDelta(t, 1.0/256.0, rate, 0.01)
}

func TestLoadRejectsTruncatedHeader(t *testing.T) {
	_, err := Load([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestLoadRejectsShortFingerprintArray(t *testing.T) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], 100) // claims 100 keys, no fingerprints follow
	_, err := Load(buf)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestArrayLengthFormula(t *testing.T) {
	require.EqualValues(t, 3, arrayLength(0))
	require.EqualValues(t, 3+uint64(123)*100/100, arrayLength(100))
}
