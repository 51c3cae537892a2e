package recsplit

import "errors"

// Sentinel error kinds surfaced at load or evaluate boundaries. The core
// never retries and never partially succeeds: a load either produces a
// fully decoded, immutable value or returns one of these wrapped errors.
var (
	// ErrUnsupportedFormat is returned when the decoded header describes a
	// variant this evaluator does not implement: the "alternative" bit set
	// in a RecSplitEvaluator header, a Settings table length exceeding
	// MaxSize, or a monotone list bit width outside [0, 32].
	ErrUnsupportedFormat = errors.New("recsplit: unsupported format")

	// ErrTruncated is returned when an Elias-Delta code, or the evaluator
	// header's "alternative" bit, would be read past the end of the word
	// buffer. Fixed-width and Golomb-Rice reads (ReadNumber, ReadUntilZero,
	// ReadRice) do not report it: past the end they read zero bits.
	ErrTruncated = errors.New("recsplit: truncated bitstream")

	// ErrInvalidEncoding is returned when an Elias-Delta code would yield
	// the reserved value 0. A code that runs off the end of the buffer is
	// reported as ErrTruncated instead.
	ErrInvalidEncoding = errors.New("recsplit: invalid encoding")
)

// IsUnsupportedFormat reports whether err is or wraps ErrUnsupportedFormat.
func IsUnsupportedFormat(err error) bool { return errors.Is(err, ErrUnsupportedFormat) }

// IsTruncated reports whether err is or wraps ErrTruncated.
func IsTruncated(err error) bool { return errors.Is(err, ErrTruncated) }

// IsInvalidEncoding reports whether err is or wraps ErrInvalidEncoding.
func IsInvalidEncoding(err error) bool { return errors.Is(err, ErrInvalidEncoding) }
