package wheel

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Loader resolves a wheel id into a graph when the cache misses.
type Loader func(ctx context.Context, id string) (*Graph, error)

// Cache keeps decoded graphs in memory keyed by wheel id.
type Cache struct {
	lru    *expirable.LRU[string, *Graph]
	loader Loader
}

// NewCache creates a cache holding at most size graphs for ttl each.
// A zero ttl disables expiry.
func NewCache(size int, ttl time.Duration, loader Loader) *Cache {
	if size <= 0 {
		size = 16
	}
	return &Cache{
		lru:    expirable.NewLRU[string, *Graph](size, nil, ttl),
		loader: loader,
	}
}

// Get returns the cached graph for id, loading it on a miss. An empty id
// resolves to the built-in wheel.
func (c *Cache) Get(ctx context.Context, id string) (*Graph, error) {
	if id == "" {
		id = "default"
	}
	if g, ok := c.lru.Get(id); ok {
		return g, nil
	}

	var (
		g   *Graph
		err error
	)
	if c.loader != nil {
		g, err = c.loader(ctx, id)
	} else if id == "default" {
		g, err = Default()
	} else {
		err = ErrUnknownWheel
	}
	if err != nil {
		return nil, err
	}
	c.lru.Add(id, g)
	return g, nil
}

// Put stores g under its own id.
func (c *Cache) Put(g *Graph) {
	if g == nil {
		return
	}
	c.lru.Add(g.ID(), g)
}

// Invalidate drops a wheel so the next Get reloads it.
func (c *Cache) Invalidate(id string) {
	c.lru.Remove(id)
}

// Len reports the number of cached graphs.
func (c *Cache) Len() int {
	return c.lru.Len()
}
