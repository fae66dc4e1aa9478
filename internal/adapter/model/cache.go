package model

import (
	"context"
	"math"
	"sync"

	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	"github.com/couchcryptid/ndvi-forecast/internal/observability"
)

// CachedModel wraps a Model with an in-memory LRU cache. The wrapped model
// must be deterministic.
type CachedModel struct {
	inner   domain.Model
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedModel creates a cache decorator around a model.
func NewCachedModel(inner domain.Model, maxEntries int, metrics *observability.Metrics) *CachedModel {
	return &CachedModel{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedModel) Predict(ctx context.Context, f domain.Features) (float64, error) {
	if v, ok := c.cache.get(f); ok {
		c.metrics.ModelCache.WithLabelValues("memory", "hit").Inc()
		return v, nil
	}
	c.metrics.ModelCache.WithLabelValues("memory", "miss").Inc()

	v, err := c.inner.Predict(ctx, f)
	if err != nil {
		return v, err
	}
	// Non-finite values are reported as failures upstream; keep them out of the cache.
	if !math.IsNaN(v) && !math.IsInf(v, 0) {
		c.cache.put(f, v)
	}
	return v, nil
}

// CheckReadiness delegates to the wrapped model when it supports readiness.
func (c *CachedModel) CheckReadiness(ctx context.Context) error {
	if rc, ok := c.inner.(interface{ CheckReadiness(context.Context) error }); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

// lruCache is a simple thread-safe LRU cache of model outputs.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[domain.Features]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   domain.Features
	value float64
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[domain.Features]*entry),
	}
}

func (c *lruCache) get(key domain.Features) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key domain.Features, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
