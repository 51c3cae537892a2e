package recsplit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMonotoneListRoundTrip covers S4: values [0, 5, 5, 17, 42, 42, 99]
// round-trip through the flat-encoding test helper, which exercises the
// real decode path (loadMonotoneList + get) against a known sequence.
func TestMonotoneListRoundTrip(t *testing.T) {
	values := []uint32{0, 5, 5, 17, 42, 42, 99}

	w := &bitWriter{}
	encodeFlatMonotoneList(w, values)

	r := NewBitReader(w.words)
	m, err := loadMonotoneList(r)
	require.NoError(t, err)
	require.Equal(t, w.n, r.Pos())

	for i, want := range values {
		require.Equal(t, want, m.get(r, uint32(i)), "index %d", i)
	}
}

func TestMonotoneListGetPair(t *testing.T) {
	values := []uint32{1, 1, 2, 3, 5, 8, 13}
	w := &bitWriter{}
	encodeFlatMonotoneList(w, values)

	r := NewBitReader(w.words)
	m, err := loadMonotoneList(r)
	require.NoError(t, err)

	for i := 0; i < len(values)-1; i++ {
		hi, lo := m.getPair(r, uint32(i))
		require.Equal(t, values[i], hi)
		require.Equal(t, values[i+1], lo)
	}
}

func TestMonotoneListMonotonicity(t *testing.T) {
	// A larger, strictly increasing sequence in the test-only flat
	// encoding (tiers 1 and 2 have width 0, level 3 holds every value),
	// read back in order through get.
	n := 200
	values := make([]uint32, n)
	for i := range values {
		values[i] = uint32(i * 7)
	}
	w := &bitWriter{}
	encodeFlatMonotoneList(w, values)
	r := NewBitReader(w.words)
	m, err := loadMonotoneList(r)
	require.NoError(t, err)

	for i := 0; i < n-1; i++ {
		require.LessOrEqual(t, m.get(r, uint32(i)), m.get(r, uint32(i+1)))
	}
}

func TestMonotoneListEmpty(t *testing.T) {
	w := &bitWriter{}
	encodeFlatMonotoneList(w, nil)
	r := NewBitReader(w.words)
	m, err := loadMonotoneList(r)
	require.NoError(t, err)
	require.Equal(t, uint32(0), m.count3)
}

func TestMonotoneListRejectsOversizedBitCounts(t *testing.T) {
	w := &bitWriter{}
	encodeDeltaMinusOne(w, 1)  // count3 = 1
	encodeDeltaMinusOne(w, 0)  // diff = 0
	encodeSignedDeltaMinusOne(w, 0)
	encodeDeltaMinusOne(w, 33) // bitCount1 = 33, out of [0,32]
	encodeDeltaMinusOne(w, 0)
	encodeDeltaMinusOne(w, 0)

	r := NewBitReader(w.words)
	_, err := loadMonotoneList(r)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}
