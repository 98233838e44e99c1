package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"tariff-backtest/internal/metrics"
	"tariff-backtest/internal/model"
)

const DefaultDayAheadURL = "https://api.awattar.de/v1/marketdata"

// DayAheadClient fetches day-ahead market prices from an aWATTar-compatible API.
type DayAheadClient struct {
	BaseURL string
	Client  *http.Client
	Cache   *PriceCache
	Logger  *slog.Logger
}

func NewDayAheadClient(baseURL string, timeout time.Duration, cache *PriceCache, logger *slog.Logger) *DayAheadClient {
	if baseURL == "" {
		baseURL = DefaultDayAheadURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DayAheadClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
		Cache:   cache,
		Logger:  logger.With("module", "dayahead"),
	}
}

// ProviderError is a non-success response from the price provider.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
}

func (e *ProviderError) Error() string {
	return e.Message
}

type marketDataResponse struct {
	Object string `json:"object"`
	Data   []struct {
		StartTimestamp int64   `json:"start_timestamp"`
		EndTimestamp   int64   `json:"end_timestamp"`
		MarketPrice    float64 `json:"marketprice"`
		Unit           string  `json:"unit"`
	} `json:"data"`
}

// GetDayAheadPrices returns the prices of the calendar day containing day (in day's location).
func (c *DayAheadClient) GetDayAheadPrices(ctx context.Context, day time.Time) ([]model.PriceSample, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return c.Query(ctx, start, start.AddDate(0, 0, 1))
}

// Query fetches [start, end), consulting the cache first.
// Prices are converted from the provider's Eur/MWh to currency per kWh.
func (c *DayAheadClient) Query(ctx context.Context, start, end time.Time) ([]model.PriceSample, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("start and end are required")
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("start must be before end")
	}

	cacheKey := GenerateCacheKey(c.BaseURL, start, end)
	if c.Cache != nil {
		if cached, found := c.Cache.Get(cacheKey); found {
			metrics.IncPriceCache(metrics.CacheHit)
			c.Logger.Debug("cache hit", slog.Int("samples", len(cached)), slog.Time("start", start), slog.Time("end", end))
			return cached, nil
		}
		metrics.IncPriceCache(metrics.CacheMiss)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("start", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("end", strconv.FormatInt(end.UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		c.Logger.Warn("request failed", slog.Any("error", err), slog.Duration("duration", duration))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.Logger.Debug("response", slog.Int("status", resp.StatusCode), slog.Duration("duration", duration))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Code:       "PROVIDER_ERROR",
			Message:    fmt.Sprintf("price provider returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	var result marketDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	samples := make([]model.PriceSample, 0, len(result.Data))
	for _, d := range result.Data {
		samples = append(samples, model.PriceSample{
			Timestamp: time.UnixMilli(d.StartTimestamp).UTC(),
			Price:     d.MarketPrice / 1000,
		})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Timestamp.Before(samples[j].Timestamp) })

	c.Logger.Info("fetched day-ahead prices", slog.Int("samples", len(samples)), slog.Time("start", start), slog.Time("end", end))
	c.Cache.Set(cacheKey, samples)
	return samples, nil
}

// FetchRange fetches [start, end) month by month and concatenates the results.
func (c *DayAheadClient) FetchRange(ctx context.Context, start, end time.Time) ([]model.PriceSample, error) {
	var out []model.PriceSample
	for from := start; from.Before(end); {
		to := from.AddDate(0, 1, 0)
		if to.After(end) {
			to = end
		}
		chunk, err := c.Query(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("%s..%s: %w", from.Format("2006-01-02"), to.Format("2006-01-02"), err)
		}
		out = append(out, chunk...)
		from = to
	}
	return out, nil
}
