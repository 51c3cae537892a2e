package recsplit

// getMinBitCount returns the floor on bits-per-key the start-position
// arithmetic reserves ahead of a bucket's offset: at least 1.375 bits per
// key, so that two buckets never address the same bit range even when a
// bucket's encoded tree is smaller than that floor.
func getMinBitCount(size uint32) uint32 {
	return (size*11 + 7) >> 3
}

func bucketCountFor(size uint64, averageBucketSize int) uint32 {
	if averageBucketSize <= 0 {
		// Degenerate settings (average bucket size 0): every key gets its
		// own bucket rather than dividing by zero.
		return uint32(size)
	}
	return uint32((size + uint64(averageBucketSize) - 1) / uint64(averageBucketSize))
}

// Evaluator decodes and evaluates a RecSplit minimal perfect hash
// function. It is immutable after Load: every Evaluate call takes its own
// copy of the bit cursor over the shared word buffer, so a single
// Evaluator can be evaluated concurrently from any number of goroutines.
type Evaluator struct {
	settings *Settings

	size         uint64
	bucketCount  uint32
	minOffsetDiff uint32
	minStartDiff  uint32

	offsetList *monotoneList
	startList  *monotoneList

	startBuckets uint64

	reader *BitReader
}

// Size returns the number of keys in the build set (the image of
// Evaluate is exactly [0, Size())).
func (e *Evaluator) Size() uint64 { return e.size }

// BucketCount returns the number of buckets keys are dispatched across.
func (e *Evaluator) BucketCount() uint32 { return e.bucketCount }

// LoadEvaluator decodes a RecSplitEvaluator header (and its two embedded
// monotone lists) from the hash-file word buffer, against the given
// Settings table decoded from the settings-file word buffer.
//
// It fails with ErrUnsupportedFormat if the header's "alternative" bit is
// set: this evaluator only implements the default encoding variant.
func LoadEvaluator(words []uint64, settings *Settings) (*Evaluator, error) {
	r := NewBitReader(words)

	sizeCode, err := r.ReadEliasDelta()
	if err != nil {
		return nil, err
	}
	e := &Evaluator{
		settings: settings,
		size:     sizeCode - 1,
		reader:   r,
	}
	e.bucketCount = bucketCountFor(e.size, settings.AverageBucketSize)

	if !r.inBounds(r.pos) {
		return nil, ErrTruncated
	}
	if r.ReadBit() != 0 {
		return nil, ErrUnsupportedFormat
	}

	minOffsetDiff, err := r.ReadEliasDelta()
	if err != nil {
		return nil, err
	}
	e.minOffsetDiff = uint32(minOffsetDiff - 1)

	minStartDiff, err := r.ReadEliasDelta()
	if err != nil {
		return nil, err
	}
	e.minStartDiff = uint32(minStartDiff - 1)

	if e.offsetList, err = loadMonotoneList(r); err != nil {
		return nil, err
	}
	if e.startList, err = loadMonotoneList(r); err != nil {
		return nil, err
	}
	e.startBuckets = r.Pos()
	return e, nil
}

// bucketGeometry returns a bucket's key range [offset, offset+bucketSize)
// and the bit position its encoded split tree starts at. bucketSize == 0
// means the bucket holds no keys.
func (e *Evaluator) bucketGeometry(b uint32) (offset, bucketSize uint32, startPos uint64) {
	offHi, offLo := e.offsetList.getPair(e.reader, b)
	offset = offHi + b*e.minOffsetDiff
	offsetNext := offLo + (b+1)*e.minOffsetDiff
	bucketSize = offsetNext - offset
	if bucketSize == 0 {
		return offset, 0, 0
	}
	startPos = e.startBuckets + uint64(getMinBitCount(offset)) + uint64(e.startList.get(e.reader, b)) + uint64(b)*uint64(e.minStartDiff)
	return offset, bucketSize, startPos
}

// Evaluate returns key's minimal perfect hash index in [0, Size()). The
// result is meaningful only for keys in the original build set; for a
// foreign key it returns an arbitrary in-range value, or 0 if the key
// hashes to an empty bucket (see spec §9 for the sentinel-0 ambiguity
// this implies).
func (e *Evaluator) Evaluate(key []byte) uint64 {
	hashCode := universalHash(key, 0)

	var b uint32
	if e.bucketCount != 1 {
		b = reduce(uint32(hashCode), e.bucketCount)
	}

	offset, bucketSize, startPos := e.bucketGeometry(b)
	if bucketSize == 0 {
		return 0
	}

	cursor := e.reader.Clone()
	return uint64(e.descend(cursor, startPos, key, hashCode, 0, offset, bucketSize))
}

// descend walks the encoded split tree for one bucket, starting at pos
// with descent index, add (the base offset so far) and size (remaining
// key count), re-hashing only when the descent index crosses a
// SupplementalHashShift-bit window (S6: recomputing eagerly at every step
// or lazily at window changes yields the same final slot).
func (e *Evaluator) descend(r *BitReader, pos uint64, key []byte, hashCode uint64, index uint64, add uint32, size uint32) uint32 {
	for {
		if size < 2 {
			return add
		}
		shift := e.settings.Rice(int(size))
		value, next := r.ReadRice(pos, shift)
		pos = next

		oldWindow := getUniversalHashIndex(index)
		index += value + 1
		newWindow := getUniversalHashIndex(index)
		if newWindow != oldWindow {
			hashCode = universalHash(key, newWindow)
		}

		if int(size) <= e.settings.LeafSize {
			h := supplementalHash(hashCode, index)
			return add + reduce(h, size)
		}

		split := e.settings.Split(int(size))
		var firstPart, otherPart uint32
		var arity int
		if split < 0 {
			firstPart = uint32(-split)
			otherPart = size - firstPart
			arity = 2
		} else {
			firstPart = size / uint32(split)
			otherPart = firstPart
			arity = int(split)
		}

		h := supplementalHash(hashCode, index)
		if firstPart != otherPart {
			choice := reduce(h, size)
			if choice < firstPart {
				size = firstPart
				continue
			}
			pos = e.skip(pos, firstPart)
			add += firstPart
			size = otherPart
			continue
		}

		choice := reduce(h, uint32(arity))
		for i := uint32(0); i < choice; i++ {
			pos = e.skip(pos, firstPart)
			add += firstPart
		}
		size = firstPart
	}
}

// skip advances pos past an entire encoded subtree of the given size
// without recomputing any hashes, mirroring the shape descend would have
// taken had it visited every child (TESTABLE PROPERTY 9).
func (e *Evaluator) skip(pos uint64, size uint32) uint64 {
	if size < 2 {
		return pos
	}
	pos = e.reader.SkipGolombRice(pos, e.settings.Rice(int(size)))
	if int(size) <= e.settings.LeafSize {
		return pos
	}
	split := e.settings.Split(int(size))
	var firstPart, otherPart uint32
	var arity int
	if split < 0 {
		firstPart = uint32(-split)
		otherPart = size - firstPart
		arity = 2
	} else {
		firstPart = size / uint32(split)
		otherPart = firstPart
		arity = int(split)
	}
	s := firstPart
	for i := 0; i < arity; i++ {
		pos = e.skip(pos, s)
		s = otherPart
	}
	return pos
}
