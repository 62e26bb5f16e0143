package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cacher is the process-local TTL cache interface used by the pipeline.
type Cacher interface {
	Get(key string) (any, bool)
	Set(key string, val any, ttl time.Duration)
}

// TTL implements Cacher on top of go-cache. Entries expire lazily; there is
// no size cap.
type TTL struct {
	c *gocache.Cache
}

// New creates a TTL cache. defaultTTL applies when Set is called with ttl <= 0.
func New(defaultTTL time.Duration) *TTL {
	// The janitor sweep is coarse on purpose; reads already skip expired
	// entries.
	return &TTL{c: gocache.New(defaultTTL, 10*time.Minute)}
}

func (t *TTL) Get(key string) (any, bool) {
	return t.c.Get(key)
}

func (t *TTL) Set(key string, val any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	t.c.Set(key, val, ttl)
}

// Flush drops all entries. Test helper.
func (t *TTL) Flush() {
	t.c.Flush()
}
