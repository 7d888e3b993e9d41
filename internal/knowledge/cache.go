package knowledge

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// flightKey is the single key of the one-slot cache.
const flightKey = "knowledge"

// RefreshFunc rebuilds the knowledge document.
type RefreshFunc func(ctx context.Context) (*Document, error)

// Cache is a single-slot refresh-on-expiry cache for the aggregated
// knowledge document. Concurrent refreshes coalesce into one flight, an
// expired document is never served, and a failed refresh leaves the
// previously stored document untouched so the next request retries.
type Cache struct {
	refresh RefreshFunc
	ttl     time.Duration
	now     func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	doc       *Document
	fetchedAt time.Time
	gen       uint64
}

// CacheOption customises a Cache.
type CacheOption func(*Cache)

// WithClock replaces the cache's time source, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates an empty cache that rebuilds via refresh once the
// stored document's age reaches ttl.
func NewCache(refresh RefreshFunc, ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{
		refresh: refresh,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the current document, rebuilding it first when the slot is
// empty or expired. Concurrent callers over an empty or expired slot
// share one refresh.
func (c *Cache) Get(ctx context.Context) (*Document, error) {
	if doc := c.freshDoc(); doc != nil {
		return doc, nil
	}
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		// Re-check inside the flight: a late arrival may find the
		// winner's document already stored.
		if doc := c.freshDoc(); doc != nil {
			return doc, nil
		}
		c.mu.Lock()
		gen := c.gen
		c.mu.Unlock()

		doc, err := c.refresh(ctx)
		if err != nil {
			return nil, err
		}
		c.store(doc, gen)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// Current returns the stored document without triggering a refresh,
// regardless of its age.
func (c *Cache) Current() (*Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil {
		return nil, false
	}
	return c.doc, true
}

// Invalidate empties the slot so the next Get rebuilds the document.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc = nil
	c.gen++
}

func (c *Cache) freshDoc() *Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil {
		return nil
	}
	if c.now().Sub(c.fetchedAt) >= c.ttl {
		return nil
	}
	return c.doc
}

func (c *Cache) store(doc *Document, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc.FetchedAt = c.now()
	if c.gen != gen {
		// Invalidated while the refresh ran. The caller still gets the
		// document, but the slot stays empty so the next request sees
		// the newer source state.
		return
	}
	c.doc = doc
	c.fetchedAt = doc.FetchedAt
}
