// Package cache is a keyed, TTL-based cache of backend-derived state.
// It gives views synchronous-feeling reads (stale-while-revalidate),
// coalesces concurrent fetches per key, and applies responses in the
// order their requests were issued so a slow early response can never
// clobber a newer one.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is the staleness window used when Options.TTL is zero.
const DefaultTTL = 5 * time.Minute

// FetchFunc loads the authoritative value for a key from the backend.
type FetchFunc func(ctx context.Context) (any, error)

// Options tune a single read.
type Options struct {
	// TTL is how long a fetched value counts as fresh. Zero means
	// DefaultTTL.
	TTL time.Duration
}

func (o Options) ttl() time.Duration {
	if o.TTL <= 0 {
		return DefaultTTL
	}
	return o.TTL
}

// flight is one in-progress fetch. Concurrent readers of the same key
// attach to the same flight instead of issuing a second request.
type flight struct {
	seq  uint64
	done chan struct{}
	val  any
	err  error
}

// entry is the cached state for one key.
type entry struct {
	value     any
	hasValue  bool
	fetchedAt time.Time
	ttl       time.Duration
	forced    bool // invalidated: stale regardless of age

	inflight *flight
	issued   uint64 // sequence of the most recently issued fetch
	applied  uint64 // sequence up to which results have been applied
}

func (e *entry) fresh(now time.Time) bool {
	return e.hasValue && !e.forced && now.Sub(e.fetchedAt) < e.ttl
}

// Cache is a process-wide store of server-derived values. Views request
// invalidation; only the cache itself writes entries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	// onRefreshError observes failures of fetches no caller awaited
	// (background refreshes and poll ticks). Never fatal: the previous
	// value stays in place and polling continues on schedule.
	onRefreshError func(key string, err error)
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// OnRefreshError registers the observer for background fetch failures.
func (c *Cache) OnRefreshError(fn func(key string, err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefreshError = fn
}

// Read returns the value for key. A fresh cached value is returned
// immediately. A value that is merely stale by age is also returned
// immediately, with a refresh scheduled in the background. When no value
// exists, or the key was invalidated, Read blocks for a re-fetched
// result instead of serving what it has, attaching to the in-flight
// fetch if one is already running.
func (c *Cache) Read(ctx context.Context, key string, fetch FetchFunc, opts Options) (any, error) {
	c.mu.Lock()
	e := c.entry(key)
	e.ttl = opts.ttl()
	now := time.Now()

	if e.fresh(now) {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}

	if e.hasValue && !e.forced {
		// Stale-while-revalidate: serve what we have, refresh behind.
		if e.inflight == nil {
			c.startFetchLocked(key, e, fetch)
		}
		v := e.value
		c.mu.Unlock()
		return v, nil
	}

	// No value yet, or the key was invalidated: this caller must wait
	// for a post-invalidation result. The pre-invalidation value is
	// never served.
	fl := e.inflight
	if fl == nil {
		fl = c.startFetchLocked(key, e, fetch)
	}
	c.mu.Unlock()

	return wait(ctx, fl)
}

// Refresh forces a fetch for key regardless of freshness and blocks for
// its result. Concurrent refreshes of the same key share one request.
// On failure the cached value is left in place and the error returned.
func (c *Cache) Refresh(ctx context.Context, key string, fetch FetchFunc, opts Options) (any, error) {
	c.mu.Lock()
	e := c.entry(key)
	e.ttl = opts.ttl()

	fl := e.inflight
	if fl == nil {
		fl = c.startFetchLocked(key, e, fetch)
	}
	c.mu.Unlock()

	return wait(ctx, fl)
}

// Peek returns the cached value without fetching. The second result is
// false when the key holds no value.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.hasValue {
		return nil, false
	}
	return e.value, true
}

// Invalidate marks the key immediately stale. The next Read (or the next
// poll tick) re-fetches before serving, and a response from any fetch
// issued before the invalidation is no longer applied to the cache.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.invalidateLocked(e)
	}
}

// InvalidatePrefix invalidates every key starting with prefix, for
// parameterized query families ("records?" etc.).
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.invalidateLocked(e)
		}
	}
}

func (c *Cache) invalidateLocked(e *entry) {
	e.forced = true
	// Results of fetches issued up to now may predate the event that
	// triggered the invalidation; refuse to apply them. Waiters on a
	// detached flight still receive its outcome directly.
	e.applied = e.issued
	e.inflight = nil
}

func (c *Cache) entry(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{ttl: DefaultTTL}
		c.entries[key] = e
	}
	return e
}

// startFetchLocked issues a new fetch for key. Must hold c.mu.
// The fetch runs on a background context: navigating away from a view
// never cancels a request already on the wire, and its result, when it
// arrives, is still applied to the shared cache.
func (c *Cache) startFetchLocked(key string, e *entry, fetch FetchFunc) *flight {
	e.issued++
	fl := &flight{seq: e.issued, done: make(chan struct{})}
	e.inflight = fl

	go func() {
		val, err := fetch(context.Background())

		c.mu.Lock()
		fl.val, fl.err = val, err

		// Apply in issue order: a result is installed only if nothing
		// issued later has been applied (or invalidated past it).
		if fl.seq > e.applied {
			e.applied = fl.seq
			if err == nil {
				e.value = val
				e.hasValue = true
				e.fetchedAt = time.Now()
				e.forced = false
			}
		}
		if e.inflight == fl {
			e.inflight = nil
		}
		onErr := c.onRefreshError
		c.mu.Unlock()

		close(fl.done)

		if err != nil && onErr != nil {
			onErr(key, err)
		}
	}()

	return fl
}

// wait blocks until the flight resolves or ctx is done. Cancellation
// abandons the wait only; the fetch itself keeps running and its result
// still lands in the cache.
func wait(ctx context.Context, fl *flight) (any, error) {
	select {
	case <-fl.done:
		return fl.val, fl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
