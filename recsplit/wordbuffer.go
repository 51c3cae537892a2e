package recsplit

// WordsFromBytes interprets b as a sequence of big-endian 64-bit words,
// one per 8 input bytes, matching the wire format both the settings and
// hash files use. A trailing partial word (len(b) not a multiple of 8) is
// zero-padded, so callers are not required to pad their input themselves.
func WordsFromBytes(b []byte) []uint64 {
	words := make([]uint64, (len(b)+7)/8)
	for i := range words {
		var x uint64
		for j := 0; j < 8; j++ {
			bi := i*8 + j
			var c byte
			if bi < len(b) {
				c = b[bi]
			}
			x = (x << 8) | uint64(c)
		}
		words[i] = x
	}
	return words
}
