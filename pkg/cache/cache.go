// Package cache is an in-memory TTL cache for extraction results. Entries
// expire a fixed time after insertion; expired entries are dropped on lookup
// and by a periodic sweep.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/xhad/excerpt/pkg/logger"
)

const (
	DefaultTTL           = time.Hour
	DefaultSweepInterval = 30 * time.Minute
	// sweepBatch bounds how many deletions happen under one write lock.
	sweepBatch = 256
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

type Config struct {
	DefaultTTL    time.Duration
	SweepInterval time.Duration
	Clock         Clock
}

type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

type entry[V any] struct {
	value    V
	storedAt time.Time
	expires  time.Time
}

// Cache is safe for concurrent use.
type Cache[V any] struct {
	config Config

	mu      sync.RWMutex
	entries map[string]entry[V]

	lifecycle sync.Mutex
	stopCh    chan struct{}
	// done is closed when the current sweep goroutine exits.
	done      chan struct{}
	runCtx    context.Context
}

func New[V any](config Config) *Cache[V] {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultTTL
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultSweepInterval
	}
	if config.Clock == nil {
		config.Clock = SystemClock
	}
	return &Cache[V]{
		config:  config,
		entries: make(map[string]entry[V]),
	}
}

// Key derives the cache key of an extraction from the document text, the
// serialized schema and the document label.
func Key(document, schemaJSON, label string) string {
	sum := sha256.Sum256([]byte(document + schemaJSON + label))
	return hex.EncodeToString(sum[:])
}

func (c *Cache[V]) expired(e entry[V], now time.Time) bool {
	return now.After(e.expires)
}

// Get returns the value stored under key unless it has expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, _, ok := c.Lookup(key)
	return v, ok
}

// Lookup is Get that also reports when the value was stored.
func (c *Cache[V]) Lookup(key string) (V, time.Time, bool) {
	var zero V
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return zero, time.Time{}, false
	}
	if c.expired(e, c.config.Clock.Now()) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && c.expired(cur, c.config.Clock.Now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, time.Time{}, false
	}
	return e.value, e.storedAt, true
}

// Set stores value under key. A non-positive ttl uses the default.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}
	now := c.config.Clock.Now()
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, storedAt: now, expires: now.Add(ttl)}
	c.mu.Unlock()
}

// Delete reports whether key was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Stats counts every stored entry, expired or not. Keys are sorted.
func (c *Cache[V]) Stats() Stats {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return Stats{Size: len(keys), Keys: keys}
}

// Sweep removes expired entries and returns how many were dropped.
func (c *Cache[V]) Sweep() int {
	now := c.config.Clock.Now()

	c.mu.RLock()
	var stale []string
	for k, e := range c.entries {
		if c.expired(e, now) {
			stale = append(stale, k)
		}
	}
	c.mu.RUnlock()

	removed := 0
	for start := 0; start < len(stale); start += sweepBatch {
		end := min(start+sweepBatch, len(stale))
		c.mu.Lock()
		for _, k := range stale[start:end] {
			// The entry may have been replaced since the scan.
			if e, ok := c.entries[k]; ok && c.expired(e, now) {
				delete(c.entries, k)
				removed++
			}
		}
		c.mu.Unlock()
	}
	return removed
}

// Start launches the periodic sweep. It runs until Stop is called or ctx is
// done. Calling Start on a running cache does nothing; a cache whose sweep
// ended with its context can be started again.
func (c *Cache[V]) Start(ctx context.Context) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.stopCh != nil {
		if c.runCtx.Err() == nil {
			select {
			case <-c.done:
			default:
				return
			}
		}
		// The previous sweep is exiting on its own context.
		<-c.done
	}
	stopCh := make(chan struct{})
	done := make(chan struct{})
	c.stopCh, c.done, c.runCtx = stopCh, done, ctx

	log := logger.FromContext(ctx)
	interval := c.config.SweepInterval
	log.Debug("starting cache sweep", "interval", interval)

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := c.Sweep(); n > 0 {
					log.Debug("swept expired cache entries", "removed", n)
				}
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the sweep and waits for it to exit. It is safe to call more than
// once.
func (c *Cache[V]) Stop() {
	c.lifecycle.Lock()
	done := c.done
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
	c.lifecycle.Unlock()
	if done != nil {
		<-done
	}
}
