package wordsource

import (
	"sync"
	"time"

	"github.com/at-ishikawa/spellingtrainer/internal/spelling"
)

type rangeKey struct {
	start int
	end   int
}

type cacheEntry struct {
	words     []spelling.Word
	expiresAt time.Time
}

// Cache keeps fetched word lists per range for a limited time.
// When it holds capacity ranges, expired entries are dropped first and then the oldest one.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	now      func() time.Time
	entries  map[rangeKey]cacheEntry
	order    []rangeKey
}

func NewCache(ttl time.Duration, capacity int) *Cache {
	return &Cache{
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
		entries:  make(map[rangeKey]cacheEntry),
	}
}

// Get returns a copy of the cached words of the range.
func (c *Cache) Get(start, end int) ([]spelling.Word, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := rangeKey{start: start, end: end}
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expiresAt) {
		c.deleteLocked(key)
		return nil, false
	}
	return copyWords(entry.words), true
}

func (c *Cache) Set(start, end int, words []spelling.Word) {
	if c.ttl <= 0 || c.capacity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := rangeKey{start: start, end: end}
	if _, ok := c.entries[key]; ok {
		c.deleteLocked(key)
	}
	for len(c.entries) >= c.capacity {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry{
		words:     copyWords(words),
		expiresAt: c.now().Add(c.ttl),
	}
	c.order = append(c.order, key)
}

// Clear drops every cached range.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[rangeKey]cacheEntry)
	c.order = nil
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictLocked() {
	now := c.now()
	for _, key := range c.order {
		if !now.Before(c.entries[key].expiresAt) {
			c.deleteLocked(key)
			return
		}
	}
	c.deleteLocked(c.order[0])
}

func (c *Cache) deleteLocked(key rangeKey) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func copyWords(words []spelling.Word) []spelling.Word {
	copied := make([]spelling.Word, len(words))
	copy(copied, words)
	return copied
}
