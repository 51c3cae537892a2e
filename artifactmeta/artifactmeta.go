// Package artifactmeta is a small sidecar key-value manifest format
// attached to a built RecSplit or XorFilter8 artifact: build timestamp,
// key count, and other provenance the evaluator itself has no use for but
// tooling around it (the CLI's --describe flag) wants to surface.
package artifactmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	bin "github.com/gagliardetto/binary"
)

const (
	MaxNumKVs    = 255
	MaxKeySize   = 255
	MaxValueSize = 255
)

// Well-known keys a manifest produced by this module's tooling sets.
var (
	KeyKind     = []byte("kind")     // "recsplit" or "xorfilter"
	KeyBuiltAt  = []byte("built_at") // RFC3339 timestamp, as a string
	KeyKeyCount = []byte("keys")     // uint64 key count
)

// Meta is an ordered list of key-value byte-string pairs.
type Meta struct {
	KeyVals []KV
}

type KV struct {
	Key   []byte
	Value []byte
}

func NewKV(key, value []byte) KV {
	return KV{Key: key, Value: value}
}

// Bytes returns the serialized metadata, panicking if it exceeds the
// format's size limits (callers are expected to have validated sizes
// before calling Add).
func (m *Meta) Bytes() []byte {
	b, err := m.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return b
}

func (m Meta) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if len(m.KeyVals) > MaxNumKVs {
		return nil, fmt.Errorf("number of key-value pairs %d exceeds max %d", len(m.KeyVals), MaxNumKVs)
	}
	buf.WriteByte(byte(len(m.KeyVals)))
	for i, kv := range m.KeyVals {
		if len(kv.Key) > MaxKeySize {
			return nil, fmt.Errorf("key %d size %d exceeds max %d", i, len(kv.Key), MaxKeySize)
		}
		buf.WriteByte(byte(len(kv.Key)))
		buf.Write(kv.Key)

		if len(kv.Value) > MaxValueSize {
			return nil, fmt.Errorf("value %d size %d exceeds max %d", i, len(kv.Value), MaxValueSize)
		}
		buf.WriteByte(byte(len(kv.Value)))
		buf.Write(kv.Value)
	}
	return buf.Bytes(), nil
}

// Decoder is the minimal reader interface UnmarshalWithDecoder needs.
type Decoder interface {
	io.ByteReader
	io.Reader
}

func (m *Meta) UnmarshalWithDecoder(decoder Decoder) error {
	numKVs, err := decoder.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read number of key-value pairs: %w", err)
	}
	for i := 0; i < int(numKVs); i++ {
		var kv KV
		keyLen, err := decoder.ReadByte()
		if err != nil {
			return fmt.Errorf("failed to read key length %d: %w", i, err)
		}
		kv.Key = make([]byte, keyLen)
		if _, err := io.ReadFull(decoder, kv.Key); err != nil {
			return fmt.Errorf("failed to read key %d: %w", i, err)
		}

		valueLen, err := decoder.ReadByte()
		if err != nil {
			return fmt.Errorf("failed to read value length %d: %w", i, err)
		}
		kv.Value = make([]byte, valueLen)
		if _, err := io.ReadFull(decoder, kv.Value); err != nil {
			return fmt.Errorf("failed to read value %d: %w", i, err)
		}
		m.KeyVals = append(m.KeyVals, kv)
	}
	return nil
}

// UnmarshalBinary decodes a manifest previously produced by Bytes/MarshalBinary.
func (m *Meta) UnmarshalBinary(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return m.UnmarshalWithDecoder(bin.NewBorshDecoder(b))
}

// Add appends a key-value pair.
func (m *Meta) Add(key, value []byte) error {
	if len(m.KeyVals) >= MaxNumKVs {
		return fmt.Errorf("number of key-value pairs %d exceeds max %d", len(m.KeyVals), MaxNumKVs)
	}
	if len(key) > MaxKeySize {
		return fmt.Errorf("key size %d exceeds max %d", len(key), MaxKeySize)
	}
	if len(value) > MaxValueSize {
		return fmt.Errorf("value size %d exceeds max %d", len(value), MaxValueSize)
	}
	m.KeyVals = append(m.KeyVals, KV{Key: cloneBytes(key), Value: cloneBytes(value)})
	return nil
}

func (m *Meta) AddString(key []byte, value string) error {
	return m.Add(key, []byte(value))
}

func (m Meta) GetString(key []byte) (string, bool) {
	value, ok := m.Get(key)
	if !ok {
		return "", false
	}
	return string(value), true
}

func (m *Meta) AddUint64(key []byte, value uint64) error {
	return m.Add(key, encodeUint64(value))
}

func (m Meta) GetUint64(key []byte) (uint64, bool) {
	value, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	return decodeUint64(value), true
}

func encodeUint64(value uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	return buf
}

func decodeUint64(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf)
}

// Get returns the first value for the given key.
func (m Meta) Get(key []byte) ([]byte, bool) {
	for _, kv := range m.KeyVals {
		if bytes.Equal(kv.Key, key) {
			return kv.Value, true
		}
	}
	return nil, false
}

// Remove drops every pair with the given key.
func (m *Meta) Remove(key []byte) {
	var kept []KV
	for _, kv := range m.KeyVals {
		if !bytes.Equal(kv.Key, key) {
			kept = append(kept, kv)
		}
	}
	m.KeyVals = kept
}

// Count returns the number of pairs with the given key.
func (m *Meta) Count(key []byte) int {
	count := 0
	for _, kv := range m.KeyVals {
		if bytes.Equal(kv.Key, key) {
			count++
		}
	}
	return count
}

func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}
