package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/flightscrape/models"
)

// entry holds a cached response with its creation timestamp.
type entry struct {
	response  *models.SearchResponse
	createdAt time.Time
}

// Cache is an in-memory cache of search responses keyed by search URL.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	done       chan struct{}
	closeOnce  sync.Once
}

// New creates a Cache holding at most maxEntries responses. A background
// goroutine evicts entries older than one hour every five minutes until
// Close is called.
func New(maxEntries int) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        time.Hour,
		now:        time.Now,
		done:       make(chan struct{}),
	}

	go c.cleanupLoop(5 * time.Minute)
	return c
}

// Key derives the cache key for a search URL under a site profile.
func Key(searchURL, profile string) string {
	h := sha256.New()
	h.Write([]byte(profile))
	h.Write([]byte("|"))
	h.Write([]byte(searchURL))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached response younger than maxAgeMs milliseconds.
// maxAgeMs <= 0 disables the lookup.
func (c *Cache) Get(key string, maxAgeMs int) (*models.SearchResponse, bool) {
	if maxAgeMs <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	maxAge := time.Duration(maxAgeMs) * time.Millisecond
	if c.now().Sub(e.createdAt) > maxAge {
		return nil, false
	}
	return e.response, true
}

// Set stores a response. At capacity the oldest entry is evicted.
func (c *Cache) Set(key string, resp *models.SearchResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.store {
			if oldestKey == "" || e.createdAt.Before(oldest) {
				oldestKey, oldest = k, e.createdAt
			}
		}
		delete(c.store, oldestKey)
	}

	c.store[key] = &entry{response: resp, createdAt: c.now()}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Cache) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) evictExpired() {
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
}
