// Package respcache keeps recent upstream read responses in memory so the
// UIs do not refetch the same data on every navigation.
package respcache

import (
	"container/list"
	"sync"
	"time"
)

// DefaultMaxAge is the expiry window when WithMaxAge is not given.
const DefaultMaxAge = 300000 * time.Millisecond

type entry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
	elem       *list.Element
}

// Cache is a key-value store with per-entry expiry. Expired entries are
// removed only when looked up; there is no background sweep. Create one per
// process and hand it to every consumer.
type Cache[V any] struct {
	mu         sync.Mutex
	maxAge     time.Duration
	maxEntries int
	now        func() time.Time
	entries    map[string]*entry[V]
	order      *list.List // keys, least recently inserted at the front
}

type Option func(*options)

type options struct {
	maxAge     time.Duration
	maxEntries int
	now        func() time.Time
}

// WithMaxAge fixes the expiry window for the lifetime of the cache.
func WithMaxAge(d time.Duration) Option {
	return func(o *options) {
		o.maxAge = d
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithMaxEntries bounds the number of stored entries. Inserting a new key
// into a full cache evicts the least recently inserted one. Zero or less
// leaves the cache unbounded.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

func New[V any](opts ...Option) *Cache[V] {
	o := options{
		maxAge: DefaultMaxAge,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		maxAge:     o.maxAge,
		maxEntries: o.maxEntries,
		now:        o.now,
		entries:    make(map[string]*entry[V]),
		order:      list.New(),
	}
}

func (c *Cache[V]) MaxAge() time.Duration {
	return c.maxAge
}

// Get returns the value stored under key if it is at most MaxAge old. A stale
// entry is deleted as part of the lookup.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.insertedAt) > c.maxAge {
		c.remove(e)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry and restarting
// its expiry window.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.remove(old)
	}
	e := &entry[V]{key: key, value: value, insertedAt: c.now()}
	e.elem = c.order.PushBack(e)
	c.entries[key] = e

	if c.maxEntries > 0 {
		for len(c.entries) > c.maxEntries {
			c.remove(c.order.Front().Value.(*entry[V]))
		}
	}
}

// Clear removes the given keys, or every entry when called without keys.
// Missing keys are ignored.
func (c *Cache[V]) Clear(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(keys) == 0 {
		c.entries = make(map[string]*entry[V])
		c.order.Init()
		return
	}
	for _, key := range keys {
		if e, ok := c.entries[key]; ok {
			c.remove(e)
		}
	}
}

// Len counts stored entries, including expired ones not yet looked up.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) remove(e *entry[V]) {
	c.order.Remove(e.elem)
	delete(c.entries, e.key)
}
