// Package loadutil is the external file-loading layer around recsplit and
// xorfilter: memory-mapped access to settings/hash/filter binaries and a
// line-oriented key scanner. Neither recsplit nor xorfilter has any notion
// of files, only of immutable in-memory byte and word buffers; loadutil is
// where those buffers come from.
package loadutil

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/exp/mmap"

	"github.com/rpcpool/minperf/recsplit"
)

// WordFile memory-maps path and returns its contents as a big-endian u64
// word buffer ready for recsplit.LoadSettings/LoadEvaluator. The mapping
// is closed once the bytes have been copied out, since recsplit's
// decoded values only ever reference the returned slice, not the file.
func WordFile(path string) ([]uint64, error) {
	b, err := readAll(path)
	if err != nil {
		return nil, err
	}
	return recsplit.WordsFromBytes(b), nil
}

// ByteFile memory-maps path and returns its raw contents, for formats
// (like XorFilter8) that are not byte-swapped on load.
func ByteFile(path string) ([]byte, error) {
	return readAll(path)
}

func readAll(path string) ([]byte, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loadutil: open %s: %w", path, err)
	}
	defer f.Close()
	size := f.Len()
	if size == 0 {
		return nil, fmt.Errorf("loadutil: %s is empty", path)
	}
	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("loadutil: read %s: %w", path, err)
	}
	return buf, nil
}

// KeyScanner reads keys one per line from a key file, transparently
// gunzipping sources named with a .gz suffix. It reproduces the trimming
// behavior of the original C demo's line reader: trailing bytes below
// 0x20 (the space character) are stripped, since a key file's keys are
// arbitrary byte strings rather than guaranteed UTF-8 text, and a key may
// legitimately be empty after trimming a blank line.
type KeyScanner struct {
	closer  io.Closer
	scanner *bufio.Scanner
}

// NewStdinKeyScanner wraps an already-open reader (typically os.Stdin)
// for line-oriented key reading. Closing the returned scanner is a no-op:
// callers own the lifetime of r.
func NewStdinKeyScanner(r io.Reader) *KeyScanner {
	return &KeyScanner{
		closer:  io.NopCloser(nil),
		scanner: bufio.NewScanner(r),
	}
}

// OpenKeyScanner opens path for line-oriented key reading. If path ends
// in ".gz" the stream is transparently decompressed.
func OpenKeyScanner(path string) (*KeyScanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loadutil: open %s: %w", path, err)
	}

	var r io.Reader = f
	closer := io.Closer(f)
	if isGzipName(path) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("loadutil: gzip %s: %w", path, err)
		}
		r = gz
		closer = multiCloser{gz, f}
	}

	return &KeyScanner{
		closer:  closer,
		scanner: bufio.NewScanner(r),
	}, nil
}

func isGzipName(path string) bool {
	return len(path) > 3 && path[len(path)-3:] == ".gz"
}

// Scan advances to the next key. It returns false at EOF or on read
// error; callers should check Err after a false return.
func (k *KeyScanner) Scan() bool {
	return k.scanner.Scan()
}

// Key returns the current line, trimmed of trailing control bytes.
func (k *KeyScanner) Key() []byte {
	line := k.scanner.Bytes()
	n := len(line)
	for n > 0 && line[n-1] < ' ' {
		n--
	}
	return line[:n]
}

// Err returns the first non-EOF error encountered by Scan.
func (k *KeyScanner) Err() error { return k.scanner.Err() }

// Close releases the underlying file (and gzip reader, if any).
func (k *KeyScanner) Close() error { return k.closer.Close() }

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
