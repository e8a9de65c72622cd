package cache

import (
	"sync"
	"time"

	"ragstore/internal/domain"
)

// SequenceCache keeps recently decompressed sequences keyed by fingerprint.
// Entries carry the store generation they were resolved against; a bump of
// the generation (on every append) invalidates them lazily.
type SequenceCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	gen     uint64
}

type cacheEntry struct {
	seq       domain.Sequence
	timestamp time.Time
	gen       uint64
}

func NewSequenceCache(maxSize int, ttl time.Duration) *SequenceCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SequenceCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func (c *SequenceCache) Get(fingerprint string) (domain.Sequence, bool) {
	c.mu.RLock()
	entry, exists := c.entries[fingerprint]
	currentGen := c.gen
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl || entry.gen != currentGen {
		c.mu.Lock()
		delete(c.entries, fingerprint)
		c.removeFromOrder(fingerprint)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.moveToEnd(fingerprint)
	c.mu.Unlock()

	return entry.seq, true
}

func (c *SequenceCache) Put(fingerprint string, seq domain.Sequence) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[fingerprint]; exists {
		c.entries[fingerprint] = &cacheEntry{seq: seq, timestamp: time.Now(), gen: c.gen}
		c.moveToEnd(fingerprint)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[fingerprint] = &cacheEntry{seq: seq, timestamp: time.Now(), gen: c.gen}
	c.order = append(c.order, fingerprint)
}

// Invalidate drops everything and bumps the generation so stale entries
// still in flight never resurface.
func (c *SequenceCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.gen++
}

func (c *SequenceCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *SequenceCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *SequenceCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *SequenceCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
