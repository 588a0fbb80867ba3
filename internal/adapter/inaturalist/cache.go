package inaturalist

import (
	"context"
	"sync"

	"github.com/pollinatorlab/bee-conservation-etl/internal/observability"
)

// CachedResolver wraps a TaxonResolver with an in-memory LRU cache. A run
// re-resolves the same species name once per listing and once per
// enrichment, so the cache roughly halves taxa traffic.
type CachedResolver struct {
	inner   TaxonResolver
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator around a resolver.
func NewCachedResolver(inner TaxonResolver, maxEntries int, metrics *observability.Metrics) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedResolver) SpeciesTaxonID(ctx context.Context, scientificName string) (string, error) {
	if id, ok := c.cache.get(scientificName); ok {
		c.metrics.TaxaCache.WithLabelValues("hit").Inc()
		return id, nil
	}
	c.metrics.TaxaCache.WithLabelValues("miss").Inc()

	id, err := c.inner.SpeciesTaxonID(ctx, scientificName)
	if err != nil {
		return "", err
	}
	// Only cache resolved IDs so a transient "not found" can be retried.
	if id != "" {
		c.cache.put(scientificName, id)
	}
	return id, nil
}

// lruCache is a simple thread-safe LRU cache of taxon IDs keyed by name.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value string
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key, value string) {
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
