package markdown

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of compiled slides kept in memory.
const DefaultCacheSize = 100

// Cache memoises compiled output keyed by source text. The dock preview
// re-renders every slide on each change, so most lookups are hits.
type Cache struct {
	entries *lru.Cache[string, string]
}

// NewCache creates a cache holding at most size entries.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Compile returns the cached output for source, compiling on a miss.
func (c *Cache) Compile(source string) string {
	return c.lookup("md:", source, Compile)
}

// Plain is the cached counterpart of Plain.
func (c *Cache) Plain(source string) string {
	return c.lookup("txt:", source, Plain)
}

// Render compiles source as markdown or plain text.
func (c *Cache) Render(source string, markdown bool) string {
	if markdown {
		return c.Compile(source)
	}
	return c.Plain(source)
}

// Len reports how many entries are cached.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) lookup(prefix, source string, fn func(string) string) string {
	key := prefix + source
	if html, ok := c.entries.Get(key); ok {
		return html
	}
	html := fn(source)
	c.entries.Add(key, html)
	return html
}
