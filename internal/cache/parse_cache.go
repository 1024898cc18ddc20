// Package cache provides a bounded LRU cache for parsed syntax trees.
package cache

import (
	"sync/atomic"

	xxhash "github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Key identifies one parse: the entry point, a fingerprint of the parser
// options and the query text.
type Key struct {
	Entry   string
	Options string
	Text    string
}

func (k Key) hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(k.Entry)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(k.Options)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(k.Text)
	return d.Sum64()
}

type entry[V any] struct {
	key   Key
	value V
}

// ParseCache is a least-recently-used cache of parse results. It is safe
// for concurrent use. Cached values must be immutable.
type ParseCache[V any] struct {
	entries *lru.Cache[uint64, entry[V]]

	hits, misses atomic.Int64
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    int
	Misses  int
	Entries int
}

// New creates a cache holding at most capacity entries. A non-positive
// capacity returns nil, which is a valid always-missing cache.
func New[V any](capacity int) *ParseCache[V] {
	if capacity <= 0 {
		return nil
	}
	entries, err := lru.New[uint64, entry[V]](capacity)
	if err != nil {
		// only returned for a non-positive size
		return nil
	}
	return &ParseCache[V]{entries: entries}
}

// Get returns the cached value for key.
func (c *ParseCache[V]) Get(key Key) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	e, ok := c.entries.Get(key.hash())
	if !ok || e.key != key {
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Put stores value under key, evicting the least recently used entry when
// the cache is full. A hash collision replaces the older entry.
func (c *ParseCache[V]) Put(key Key, value V) {
	if c == nil {
		return
	}
	c.entries.Add(key.hash(), entry[V]{key: key, value: value})
}

// Len returns the number of cached entries.
func (c *ParseCache[V]) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Stats returns hit and miss counters.
func (c *ParseCache[V]) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		Hits:    int(c.hits.Load()),
		Misses:  int(c.misses.Load()),
		Entries: c.entries.Len(),
	}
}

// Clear drops every entry and resets the counters.
func (c *ParseCache[V]) Clear() {
	if c == nil {
		return
	}
	c.entries.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}
