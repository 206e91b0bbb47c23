package biolink

import (
	"context"
	"sync"
	"time"
)

// contentCache is an in-memory TTL cache of the content document. It
// serves the route-resolver hot path; admin reads bypass it. Every
// admin save invalidates it so resolved pages never lag a save by more
// than one request.
type contentCache struct {
	store ContentStore
	ttl   time.Duration

	mu      sync.RWMutex
	doc     Content
	loaded  bool
	fetched time.Time
}

func newContentCache(store ContentStore, ttl time.Duration) *contentCache {
	return &contentCache{store: store, ttl: ttl}
}

func (c *contentCache) validLocked() bool {
	return c.loaded && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read hits the store.
func (c *contentCache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}

// Content returns the cached document, reloading it when stale.
func (c *contentCache) Content(ctx context.Context) (Content, error) {
	c.mu.RLock()
	if c.validLocked() {
		doc := c.doc
		c.mu.RUnlock()
		return doc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.validLocked() {
		return c.doc, nil
	}
	doc, err := c.store.GetContent(ctx)
	if err != nil {
		return Content{}, err
	}
	c.doc = doc
	c.loaded = true
	c.fetched = time.Now()
	return doc, nil
}
