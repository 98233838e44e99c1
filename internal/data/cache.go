package data

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"tariff-backtest/internal/model"
)

// CacheEntry is one cached provider response.
type CacheEntry struct {
	Samples   []model.PriceSample
	ExpiresAt time.Time
}

// PriceCache is an in-memory TTL cache for day-ahead price responses.
// It is created by the caller and passed to the client; a nil cache disables caching.
type PriceCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewPriceCache(ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PriceCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns a copy of the cached samples if present and not expired.
func (c *PriceCache) Get(key string) ([]model.PriceSample, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists {
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return append([]model.PriceSample(nil), entry.Samples...), true
}

func (c *PriceCache) Set(key string, samples []model.PriceSample) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		Samples:   append([]model.PriceSample(nil), samples...),
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Clear removes all entries from the cache
func (c *PriceCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
}

// Len counts entries, expired ones included until the janitor removes them.
func (c *PriceCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// StartJanitor removes expired entries every interval until ctx is done.
func (c *PriceCache) StartJanitor(ctx context.Context, interval time.Duration) {
	if c == nil {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.removeExpired()
			}
		}
	}()
}

func (c *PriceCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
		}
	}
}

// GenerateCacheKey creates a cache key from query parameters
func GenerateCacheKey(baseURL string, start, end time.Time) string {
	keyStr := fmt.Sprintf("%s:%d:%d", baseURL, start.UnixMilli(), end.UnixMilli())

	// Hash the key to keep it reasonably sized
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}
