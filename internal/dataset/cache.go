package dataset

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"

	"duck-adapter/internal/domain"
)

// SchemaLoader reads the columns of one table from the engine.
type SchemaLoader func(ctx context.Context, table string) ([]domain.Column, error)

// SchemaCache memoizes table descriptors. Concurrent misses for the same
// table share a single load.
type SchemaCache struct {
	cache gcache.Cache
	group singleflight.Group
	// gen advances on every purge. Loads are shared only within one
	// generation, and a load that raced a purge is not stored.
	gen atomic.Uint64
}

// NewSchemaCache returns an LRU cache of size entries. A ttl of zero keeps
// entries until evicted or invalidated. A size of zero disables caching.
func NewSchemaCache(size int, ttl time.Duration) *SchemaCache {
	c := &SchemaCache{}
	if size <= 0 {
		return c
	}
	b := gcache.New(size).LRU()
	if ttl > 0 {
		b = b.Expiration(ttl)
	}
	c.cache = b.Build()
	return c
}

func cacheKey(table string) string { return strings.ToLower(table) }

// Get returns the cached columns of table, calling load on a miss.
func (c *SchemaCache) Get(ctx context.Context, table string, load SchemaLoader) ([]domain.Column, error) {
	if c == nil || c.cache == nil {
		return load(ctx, table)
	}
	key := cacheKey(table)
	if v, err := c.cache.Get(key); err == nil {
		return slices.Clone(v.([]domain.Column)), nil
	} else if !errors.Is(err, gcache.KeyNotFoundError) {
		return nil, err
	}

	gen := c.gen.Load()
	v, err, _ := c.group.Do(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		cols, err := load(ctx, table)
		if err != nil {
			return nil, err
		}
		if c.gen.Load() == gen {
			_ = c.cache.Set(key, cols)
		}
		return cols, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]domain.Column)), nil
}

// Purge drops every entry.
func (c *SchemaCache) Purge() {
	if c == nil || c.cache == nil {
		return
	}
	c.gen.Add(1)
	c.cache.Purge()
}
