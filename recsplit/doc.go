// Package recsplit decodes and evaluates RecSplit minimal perfect hash
// functions against a bit-packed binary representation produced offline.
//
// A RecSplit function assigns every key in a known build set a unique
// index in [0, size) by recursively splitting each bucket of keys using a
// re-hashing seed recorded, per split, as a Golomb-Rice code. Evaluating a
// key replays the same splitting decisions the (external) builder made:
// hash the key, find its bucket via two compressed monotone offset lists,
// then descend the encoded split tree bit by bit until a leaf assigns the
// final slot.
//
// This package only evaluates pre-built functions; it does not construct
// them. The two inputs - a settings blob and a hash blob - are produced by
// an external builder and are expected to be immutable, in-memory, 64-bit
// big-endian word buffers for the lifetime of the decoded Settings and
// Evaluator values.
package recsplit
