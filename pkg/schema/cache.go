package schema

import (
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the process-wide parse cache.
const DefaultCacheSize = 100

// Cache memoizes parse results keyed by a hash of the raw schema text. The
// same text always parses the same way, so entries never need invalidation
// beyond capacity eviction. Safe for concurrent use.
type Cache struct {
	entries *lru.Cache[uint64, *Model]
}

// NewCache creates a cache holding up to size parsed schemas. Size values
// below 1 fall back to DefaultCacheSize.
func NewCache(size int) *Cache {
	if size < 1 {
		size = DefaultCacheSize
	}
	// lru.New only errors on non-positive size, which is guarded above.
	entries, _ := lru.New[uint64, *Model](size)
	return &Cache{entries: entries}
}

// Parse returns the cached model for raw, parsing and storing it on a miss.
// The cached model is shared between requests and must not be mutated.
func (c *Cache) Parse(raw string) *Model {
	key := hashText(raw)
	if m, ok := c.entries.Get(key); ok {
		return m
	}

	m := Parse(raw)
	c.entries.Add(key, m)
	return m
}

// Len returns the number of cached schemas.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func hashText(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
