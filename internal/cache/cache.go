package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long fetched data stays fresh.
const DefaultTTL = 30 * time.Second

// Entry is the cached state of one key.
type Entry[T any] struct {
	Data      T
	FetchedAt time.Time
	// Stale marks data that must be revalidated on the next read, either
	// because it was invalidated or because it was written locally.
	Stale     bool
	LastError error
}

// FetchFunc loads fresh data for a key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Cache holds entries keyed by Key. Safe for concurrent use. Concurrent
// fetches of one key are collapsed into a single call.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[Key]*Entry[T]
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group
}

// New creates a cache whose entries go stale after ttl. A non-positive ttl
// uses DefaultTTL.
func New[T any](ttl time.Duration) *Cache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[T]{
		entries: make(map[Key]*Entry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (c *Cache[T]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// GetOrFetch returns fresh cached data or fetches it. When a fetch fails the
// previous data, if any, is returned together with the error and kept in the
// cache with LastError set.
func (c *Cache[T]) GetOrFetch(ctx context.Context, key Key, fetch FetchFunc[T]) (T, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	if ok && c.fresh(e) {
		data := e.Data
		c.mu.RUnlock()
		return data, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		data, err := fetch(ctx)
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			prev, had := c.entries[key]
			if !had {
				c.entries[key] = &Entry[T]{LastError: err, Stale: true}
				var zero T
				return zero, err
			}
			prev.LastError = err
			prev.Stale = true
			return prev.Data, err
		}
		c.entries[key] = &Entry[T]{Data: data, FetchedAt: c.now()}
		return data, nil
	})
	if err != nil {
		err = fmt.Errorf("fetching %s: %w", key, err)
	}
	data, _ := v.(T)
	return data, err
}

// Peek returns the entry for key without fetching.
func (c *Cache[T]) Peek(key Key) (Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry[T]{}, false
	}
	return *e, true
}

// Set stores fresh data for key.
func (c *Cache[T]) Set(key Key, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &Entry[T]{Data: data, FetchedAt: c.now()}
}

// Mutate applies fn to the cached data of key and stores the result as a
// local, not yet confirmed, write. A missing key starts from the zero value.
// The entry is marked stale so the next read revalidates it.
func (c *Cache[T]) Mutate(key Key, fn func(T) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &Entry[T]{}
		c.entries[key] = e
	}
	e.Data = fn(e.Data)
	e.Stale = true
	return e.Data
}

// Invalidate marks key stale. Data stays readable through Peek until the
// next successful fetch replaces it.
func (c *Cache[T]) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.Stale = true
	}
}

// InvalidateWhere marks every key matching pred stale and returns how many
// were marked.
func (c *Cache[T]) InvalidateWhere(pred func(Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if pred(k) {
			e.Stale = true
			n++
		}
	}
	return n
}

// Len returns the number of cached keys.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[T]) fresh(e *Entry[T]) bool {
	return !e.Stale && e.LastError == nil && c.now().Sub(e.FetchedAt) < c.ttl
}
