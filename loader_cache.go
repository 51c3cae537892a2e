package main

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// fileCache memoizes loaded word/byte buffers by file path for the
// lifetime of one CLI invocation. It exists because a single
// bulk-evaluate run may be pointed at the same path twice (e.g. a
// settings file reused as its own hash file for a tiny fixture): without
// it, each reference would re-mmap and re-copy the
// same bytes. Keys are xxhash'd rather than compared as raw strings
// purely to match the hashing style the rest of this codebase's ancestry
// uses for cache keys.
type fileCache struct {
	mu    sync.Mutex
	bytes map[uint64][]byte
}

func newFileCache() *fileCache {
	return &fileCache{bytes: make(map[uint64][]byte)}
}

func cacheKey(path string) uint64 {
	return xxhash.Sum64String(path)
}

func (c *fileCache) getOrLoad(path string, load func(string) ([]byte, error)) ([]byte, error) {
	key := cacheKey(path)

	c.mu.Lock()
	if b, ok := c.bytes[key]; ok {
		c.mu.Unlock()
		return b, nil
	}
	c.mu.Unlock()

	b, err := load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.bytes[key] = b
	c.mu.Unlock()
	return b, nil
}
