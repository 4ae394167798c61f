package embedding

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached wraps a Provider with an LRU cache so identical text always maps to
// the identical vector without a second network call.
type Cached struct {
	inner Provider
	cache *lru.Cache[string, []float32]
}

// NewCached wraps inner with a cache of the given size.
func NewCached(inner Provider, size int) (*Cached, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector when available. Cached vectors are treated
// as read-only by all callers.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(text); ok {
		return vec, nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, vec)
	return vec, nil
}
