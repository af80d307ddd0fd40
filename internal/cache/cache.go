// Package cache provides the engine's per-repository TTL caches with
// in-flight request coalescing and generation-based staleness tracking.
//
// A RepoCache is constructed per application session (or per test) and
// passed to the engine explicitly; there is no module-level state.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value    any
	cachedAt time.Time
}

type call struct {
	done  chan struct{}
	value any
	err   error
}

// RepoCache holds TTL entries and in-flight loads keyed by canonicalized
// repository path plus query kind. Entries are replaced wholesale per key,
// never mutated in place.
type RepoCache struct {
	mu          sync.Mutex
	entries     map[string]entry
	inflight    map[string]*call
	generations map[string]uint64
	epochs      map[string]uint64 // bumped by Invalidate; guards in-flight stores
	clearEpoch  uint64
}

// New creates an empty RepoCache.
func New() *RepoCache {
	return &RepoCache{
		entries:     make(map[string]entry),
		inflight:    make(map[string]*call),
		generations: make(map[string]uint64),
		epochs:      make(map[string]uint64),
	}
}

// Cached returns the fresh cached value for key, joins an in-flight load for
// the same key, or invokes loader and caches its result. At most one loader
// runs per key at a time, so concurrent status polls collapse into a single
// external command.
func Cached[T any](c *RepoCache, key string, ttl time.Duration, loader func() (T, error)) (T, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && time.Since(e.cachedAt) < ttl {
		c.mu.Unlock()
		return e.value.(T), nil
	}
	if inflight, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		<-inflight.done
		if inflight.err != nil {
			var zero T
			return zero, inflight.err
		}
		return inflight.value.(T), nil
	}

	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	epoch := c.epochs[key]
	clearEpoch := c.clearEpoch
	c.mu.Unlock()

	value, err := loader()
	cl.value, cl.err = value, err

	c.mu.Lock()
	delete(c.inflight, key)
	// An invalidation that arrived while the loader ran means the result may
	// predate the mutation; hand it to the waiters but do not cache it.
	if err == nil && c.epochs[key] == epoch && c.clearEpoch == clearEpoch {
		c.entries[key] = entry{value: value, cachedAt: time.Now()}
	}
	c.mu.Unlock()
	close(cl.done)

	return value, err
}

// Invalidate removes the given keys. Mutations call this before returning so
// the next read is guaranteed fresh rather than waiting out the TTL. A load
// in flight for an invalidated key completes but its result is not cached.
func (c *RepoCache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
		c.epochs[key]++
	}
}

// InvalidatePrefix removes every entry whose key starts with prefix. Used
// for dimensioned keys such as activity series keyed by lookback window.
func (c *RepoCache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if hasPrefix(key, prefix) {
			delete(c.entries, key)
			c.epochs[key]++
		}
	}
	for key := range c.inflight {
		if hasPrefix(key, prefix) {
			c.epochs[key]++
		}
	}
}

func hasPrefix(key, prefix string) bool {
	return len(key) >= len(prefix) && key[:len(prefix)] == prefix
}

// Clear discards all entries, for explicit reset or repository-path change.
// In-flight loads are left to finish; their results are discarded too.
func (c *RepoCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.clearEpoch++
}

// NextGeneration advances and returns the generation counter for a query
// kind. A caller notes the generation when it issues a request and discards
// any response whose generation is no longer current, so an out-of-order
// result cannot overwrite fresher state. This is a staleness filter, not a
// cancellation: superseded commands run to completion.
func (c *RepoCache) NextGeneration(kind string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[kind]++
	return c.generations[kind]
}

// Generation returns the current generation for a query kind.
func (c *RepoCache) Generation(kind string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[kind]
}

// IsCurrent reports whether gen is still the newest generation for kind.
func (c *RepoCache) IsCurrent(kind string, gen uint64) bool {
	return c.Generation(kind) == gen
}
