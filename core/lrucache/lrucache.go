// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package lrucache provides a thread-safe, fixed-capacity least-recently-used (LRU) cache
of rendered HTML fragments.

Keys are strings and values are byte slices. When created with compression enabled via
[New], values are stored zstd-compressed whenever that saves space and are transparently
decompressed by [Cache.Get].
*/
package lrucache

import (
	"container/list"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrInvalidSize is returned by [New] for a non-positive capacity.
var ErrInvalidSize = errors.New("must provide a positive size")

// Cache is a fixed-capacity, least-recently-used cache that is safe for concurrent use.
// Instances must be constructed with [New]; the zero value is not ready for use.
type Cache struct {
	size      int
	evictList *list.List
	items     map[string]*list.Element
	lock      sync.Mutex

	// nil unless compression is enabled
	enc *zstd.Encoder
	dec *zstd.Decoder

	hits   uint64
	misses uint64
}

type entry struct {
	key        string
	value      []byte
	compressed bool
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Len    int
	Hits   uint64
	Misses uint64
}

// New creates a cache holding at most size entries.
func New(size int, compress bool) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	c := &Cache{
		size:      size,
		evictList: list.New(),
		items:     make(map[string]*list.Element, size),
	}

	if compress {
		// A nil writer/reader lets us use EncodeAll/DecodeAll without streams.
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}

		c.enc = enc
		c.dec = dec
	}

	return c, nil
}

// Add stores value under key, making it the most recently used entry.
// Add reports whether an older entry was evicted to make room.
func (c *Cache) Add(key string, value []byte) bool {
	stored, compressed := c.encode(value)

	c.lock.Lock()
	defer c.lock.Unlock()

	if el, ok := c.items[key]; ok {
		c.evictList.MoveToFront(el)

		ent := el.Value.(*entry)
		ent.value = stored
		ent.compressed = compressed

		return false
	}

	c.items[key] = c.evictList.PushFront(&entry{key: key, value: stored, compressed: compressed})

	if c.evictList.Len() <= c.size {
		return false
	}

	if oldest := c.evictList.Back(); oldest != nil {
		c.evictList.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).key)
	}

	return true
}

// Get returns a copy of the value stored under key and marks it most recently used.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.lock.Lock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		c.lock.Unlock()

		return nil, false
	}

	c.hits++
	c.evictList.MoveToFront(el)

	ent := el.Value.(*entry)
	stored, compressed := ent.value, ent.compressed

	c.lock.Unlock()

	return c.decode(stored, compressed)
}

// Remove deletes key and reports whether it was present.
func (c *Cache) Remove(key string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}

	c.evictList.Remove(el)
	delete(c.items, key)

	return true
}

// Purge drops every entry. Counters are kept.
func (c *Cache) Purge() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.evictList.Init()
	clear(c.items)
}

// Keys returns all keys from the oldest to the newest.
func (c *Cache) Keys() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	keys := make([]string, 0, len(c.items))
	for el := c.evictList.Back(); el != nil; el = el.Prev() {
		keys = append(keys, el.Value.(*entry).key)
	}

	return keys
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.evictList.Len()
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()

	return Stats{Len: c.evictList.Len(), Hits: c.hits, Misses: c.misses}
}

// encode copies value, compressing it when that makes it smaller.
//
// zstd.Encoder supports concurrent EncodeAll calls, so this runs without the lock.
func (c *Cache) encode(value []byte) ([]byte, bool) {
	if c.enc != nil && len(value) > 0 {
		if packed := c.enc.EncodeAll(value, nil); len(packed) < len(value) {
			return packed, true
		}
	}

	return append([]byte(nil), value...), false
}

func (c *Cache) decode(stored []byte, compressed bool) ([]byte, bool) {
	if !compressed {
		return append([]byte(nil), stored...), true
	}

	out, err := c.dec.DecodeAll(stored, nil)
	if err != nil {
		return nil, false
	}

	return out, true
}
