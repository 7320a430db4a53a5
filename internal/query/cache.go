// Package query caches remote read results until a tag they provide is
// invalidated.
package query

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/capitalize-ai/bot-console/internal/invalidation"
	"github.com/capitalize-ai/bot-console/pkg/metrics"
)

type entry struct {
	value any
	tags  []invalidation.Tag
}

// Cache holds decoded query results.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	byTag   map[invalidation.Tag]map[string]struct{}
	cancels []func()
}

// NewCache creates a cache that drops entries whenever the registry
// invalidates one of their tags.
func NewCache(reg *invalidation.Registry) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		byTag:   make(map[invalidation.Tag]map[string]struct{}),
	}
	for _, tag := range invalidation.AllTags {
		c.cancels = append(c.cancels, reg.Subscribe(tag, c.Drop))
	}
	return c
}

// Close detaches the cache from its registry.
func (c *Cache) Close() {
	for _, cancel := range c.cancels {
		cancel()
	}
}

// Key builds a cache key from an operation name and its parameters.
func Key(operation string, params url.Values) string {
	if len(params) == 0 {
		return operation
	}
	return operation + "?" + params.Encode()
}

// Drop removes every entry that provides tag.
func (c *Cache) Drop(tag invalidation.Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.byTag[tag] {
		c.removeLocked(key)
	}
	delete(c.byTag, tag)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) removeLocked(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	for _, tag := range e.tags {
		delete(c.byTag[tag], key)
	}
}

func (c *Cache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.value, ok
}

func (c *Cache) put(key string, value any, tags []invalidation.Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(key)
	c.entries[key] = entry{value: value, tags: tags}
	for _, tag := range tags {
		if c.byTag[tag] == nil {
			c.byTag[tag] = make(map[string]struct{})
		}
		c.byTag[tag][key] = struct{}{}
	}
}

// Fetch returns the cached value for key or calls fn and caches its result
// under tags. Errors are never cached.
func Fetch[T any](ctx context.Context, c *Cache, key string, tags []invalidation.Tag, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.get(key); ok {
		if typed, ok := v.(T); ok {
			metrics.RecordCacheLookup(true)
			return typed, nil
		}
	}
	metrics.RecordCacheLookup(false)

	value, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("query %s: %w", key, err)
	}
	c.put(key, value, tags)
	return value, nil
}
