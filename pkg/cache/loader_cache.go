// Package cache provides a small loader cache combining LRU storage with
// singleflight so concurrent misses for the same key trigger one load.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// LoaderCache caches values loaded on miss via a callback. A burst of N
// concurrent misses for the same key runs one load; the rest share its result.
type LoaderCache[V any] struct {
	lru   *lru.Cache[string, V]
	group singleflight.Group
}

// NewLoaderCache creates a loader cache holding at most maxEntries values.
func NewLoaderCache[V any](maxEntries int) (*LoaderCache[V], error) {
	lruCache, err := lru.New[string, V](maxEntries)
	if err != nil {
		return nil, err
	}

	return &LoaderCache[V]{lru: lruCache}, nil
}

// Get returns the value for key, loading it via load on cache miss.
// Load errors are not cached; the next Get for the key loads again.
func (c *LoaderCache[V]) Get(ctx context.Context, key string, load func(context.Context, string) (V, error)) (V, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}

	val, err, _ := c.group.Do(key, func() (any, error) {
		loaded, loadErr := load(ctx, key)
		if loadErr != nil {
			var zero V
			return zero, loadErr
		}

		c.lru.Add(key, loaded)

		return loaded, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	return val.(V), nil
}

// Invalidate removes the entry for key.
func (c *LoaderCache[V]) Invalidate(key string) {
	c.lru.Remove(key)
}

// Len returns the number of cached entries.
func (c *LoaderCache[V]) Len() int {
	return c.lru.Len()
}
