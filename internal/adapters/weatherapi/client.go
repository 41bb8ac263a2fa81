// Package weatherapi fetches current conditions from an OpenWeatherMap-style
// API. The upstream is best-effort: a missing key, an open breaker, or any
// fetch failure surfaces as an unavailable reading, never as a hard failure
// of the recommendation path.
package weatherapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/okian/crema/internal/domain/weather"
	"github.com/okian/crema/pkg/metrics"
)

// Default client configuration.
const (
	defaultBaseURL     = "https://api.openweathermap.org/data/2.5"
	defaultTimeout     = 5 * time.Second
	defaultCacheTTL    = 5 * time.Minute
	breakerMaxRequests = 3
	breakerInterval    = 60 * time.Second
	breakerTimeout     = 30 * time.Second
	breakerMinRequests = 5
	breakerFailureRate = 0.6
)

// Fetcher returns the current reading for a city, or nil when the upstream
// is unavailable.
type Fetcher interface {
	Current(ctx context.Context, city string) (*weather.Reading, error)
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the upstream base URL.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithAPIKey sets the upstream API key. Without a key every lookup reports
// an unavailable reading.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithCacheTTL sets how long a fetched reading is reused per city.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

type cacheEntry struct {
	reading *weather.Reading
	expires time.Time
}

// Client implements Fetcher with a per-city TTL cache and a circuit breaker
// around the upstream call.
type Client struct {
	baseURL  string
	apiKey   string
	cacheTTL time.Duration
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*weather.Reading]

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// New constructs a weather client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:  defaultBaseURL,
		cacheTTL: defaultCacheTTL,
		http:     &http.Client{Timeout: defaultTimeout},
		cache:    make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[*weather.Reading](gobreaker.Settings{
		Name:        "weather-upstream",
		MaxRequests: breakerMaxRequests,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= breakerMinRequests && ratio >= breakerFailureRate
		},
	})
	return c
}

// upstreamResponse mirrors the fields we read from the upstream payload.
type upstreamResponse struct {
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
}

// Current returns the cached or freshly fetched reading for a city. A nil
// reading with a nil error means the upstream is unavailable.
func (c *Client) Current(ctx context.Context, city string) (*weather.Reading, error) {
	if c.apiKey == "" {
		metrics.RecordWeatherFetch("unavailable")
		return nil, nil
	}

	if r, ok := c.cached(city); ok {
		metrics.RecordWeatherFetch("cached")
		return r, nil
	}

	reading, err := c.breaker.Execute(func() (*weather.Reading, error) {
		return c.fetch(ctx, city)
	})
	if err != nil {
		metrics.RecordWeatherFetch("error")
		metrics.RecordErrorByComponent("weatherapi", "fetch")
		return nil, err
	}

	c.store(city, reading)
	metrics.RecordWeatherFetch("ok")
	return reading, nil
}

func (c *Client) cached(city string) (*weather.Reading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.cache[city]
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.reading, true
}

func (c *Client) store(city string, r *weather.Reading) {
	c.mu.Lock()
	c.cache[city] = cacheEntry{reading: r, expires: time.Now().Add(c.cacheTTL)}
	c.mu.Unlock()
}

func (c *Client) fetch(ctx context.Context, city string) (*weather.Reading, error) {
	u := fmt.Sprintf("%s/weather?q=%s&appid=%s&units=metric",
		c.baseURL, url.QueryEscape(city), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body upstreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	reading := &weather.Reading{TempC: body.Main.Temp}
	if len(body.Weather) > 0 {
		reading.Conditions = body.Weather[0].Main
	}
	return reading, nil
}
