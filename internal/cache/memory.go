// Package cache stores serialized API responses keyed by route.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Veraticus/costdb/internal/service"
)

// DefaultTTL applies when no ttl is configured.
const DefaultTTL = 5 * time.Minute

// cacheEntry represents a cached response body.
type cacheEntry struct {
	expiry time.Time
	value  []byte
}

// Memory provides a thread-safe in-process cache.
type Memory struct {
	entries  map[string]cacheEntry
	now      func() time.Time
	stopCh   chan struct{}
	ttl      time.Duration
	mu       sync.RWMutex
	stopOnce sync.Once
}

var _ service.Cache = (*Memory)(nil)

// NewMemory creates a new cache with the specified TTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &Memory{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves a value if it exists and hasn't expired.
func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || c.now().After(entry.expiry) {
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores a value.
func (c *Memory) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		value:  value,
		expiry: c.now().Add(c.ttl),
	}
	return nil
}

// Invalidate removes all entries.
func (c *Memory) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *Memory) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	return nil
}

// cleanup periodically removes expired entries.
func (c *Memory) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *Memory) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiry) {
			delete(c.entries, key)
		}
	}
}
