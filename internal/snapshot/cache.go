package snapshot

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache holds recent per-source fetches keyed by source and coordinate cell.
type Cache struct {
	c *gocache.Cache
}

// NewCache builds a cache whose entries live for ttl.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{c: gocache.New(ttl, 2*ttl)}
}

func (c *Cache) get(key string) (map[string]any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.c.Get(key)
	if !ok {
		return nil, false
	}
	values, ok := v.(map[string]any)
	return values, ok
}

func (c *Cache) set(key string, values map[string]any) {
	if c == nil {
		return
	}
	c.c.SetDefault(key, values)
}
