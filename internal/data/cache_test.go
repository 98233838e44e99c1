package data

import (
	"context"
	"testing"
	"time"

	"tariff-backtest/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceCacheTTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewPriceCache(time.Hour)
	c.now = func() time.Time { return now }

	samples := []model.PriceSample{{Timestamp: now, Price: 0.2}}
	c.Set("k", samples)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, samples, got)

	// Callers own the returned slice.
	got[0].Price = 99
	again, _ := c.Get("k")
	assert.Equal(t, 0.2, again[0].Price)

	now = now.Add(61 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.removeExpired()
	assert.Equal(t, 0, c.Len())
}

func TestPriceCacheClearAndNil(t *testing.T) {
	c := NewPriceCache(time.Minute)
	c.Set("a", nil)
	c.Set("b", nil)
	assert.Equal(t, 2, c.Len())
	c.Clear()
	assert.Equal(t, 0, c.Len())

	var nilCache *PriceCache
	nilCache.Set("a", nil)
	_, ok := nilCache.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, nilCache.Len())
}

func TestPriceCacheJanitorStops(t *testing.T) {
	c := NewPriceCache(time.Millisecond)
	c.Set("k", nil)

	ctx, cancel := context.WithCancel(context.Background())
	c.StartJanitor(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
}

func TestGenerateCacheKey(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := GenerateCacheKey("https://x", start, start.AddDate(0, 0, 1))
	b := GenerateCacheKey("https://x", start.In(time.FixedZone("CET", 3600)), start.AddDate(0, 0, 1))
	c := GenerateCacheKey("https://x", start, start.AddDate(0, 0, 2))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
