package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache keys
const (
	CacheKeyJellyfinUsers = "jellyfin:users"
	CacheKeyJellyfinItem  = "jellyfin:item:%s"
	CacheKeyPlayedState   = "events:played:%s:%s"
	PrefixJellyfin        = "jellyfin:"
	CacheKeyArchivePing   = "archive:ping"
)

// Cache TTLs
const (
	TTLJellyfinUsers = 5 * time.Minute
	TTLJellyfinItem  = 2 * time.Minute
	TTLPlayedState   = 24 * time.Hour
	TTLArchivePing   = 30 * time.Second
)

// Cache is a wrapper around go-cache
type Cache struct {
	store *gocache.Cache
}

// New creates a new Cache instance
func New() *Cache {
	return &Cache{
		store: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// Set stores a value in the cache with the specified TTL
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.store.Set(key, value, ttl)
}

// Get retrieves a value from the cache
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Delete removes a value from the cache
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// Clear removes all values from the cache
func (c *Cache) Clear() {
	c.store.Flush()
}

// DeletePrefix removes all keys starting with prefix
func (c *Cache) DeletePrefix(prefix string) {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}
}

// Count returns the number of cached items, including expired ones not yet evicted
func (c *Cache) Count() int {
	return c.store.ItemCount()
}

// GetOrSet retrieves a value from cache, or sets it if not found.
// Errors from fn are not cached.
func (c *Cache) GetOrSet(key string, ttl time.Duration, fn func() (any, error)) (any, error) {
	if val, found := c.Get(key); found {
		return val, nil
	}

	val, err := fn()
	if err != nil {
		return nil, err
	}

	c.Set(key, val, ttl)
	return val, nil
}

// Swap stores value and returns the previous one, if any
func (c *Cache) Swap(key string, value any, ttl time.Duration) (any, bool) {
	prev, found := c.store.Get(key)
	c.store.Set(key, value, ttl)
	return prev, found
}
