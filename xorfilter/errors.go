package xorfilter

import "errors"

// ErrTruncated is returned when a filter binary is shorter than its
// declared header plus fingerprint array implies.
var ErrTruncated = errors.New("xorfilter: truncated filter")
