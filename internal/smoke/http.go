package smoke

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/crema/pkg/logger"
)

// HTTPClient wraps http.Client with a shared timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Send performs a request with a JSON body.
func (c *HTTPClient) Send(ctx context.Context, method, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// seedCatalog PUTs every generated item into the service.
func seedCatalog(ctx context.Context, config *Config, client *HTTPClient, items []Item, stats *Stats) error {
	logger.Get().Info(ctx, "seeding catalog", logger.Int("items", len(items)))

	for _, item := range items {
		url := config.BaseURL + "/api/v1/coffees/" + item.ID
		resp, err := client.Send(ctx, http.MethodPut, url, item)
		if err != nil {
			return fmt.Errorf("failed to seed item %s: %w", item.ID, err)
		}
		if _, err := readResponseBody(resp); err != nil {
			return fmt.Errorf("failed to read seed response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("seeding item %s got status %d", item.ID, resp.StatusCode)
		}
		stats.ItemsSeeded++
	}
	logger.Get().Info(ctx, "catalog seeded", logger.Int("count", stats.ItemsSeeded))
	return nil
}

// submitReviews pushes reviews concurrently using a worker pool.
func submitReviews(ctx context.Context, config *Config, client *HTTPClient, reviews []Review, stats *Stats) error {
	logger.Get().Info(ctx, "submitting reviews",
		logger.Int("reviews", len(reviews)),
		logger.Int("workers", config.Workers))

	var (
		successful int64
		failed     int64
	)

	reviewChan := make(chan Review, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for review := range reviewChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				url := config.BaseURL + "/api/v1/coffees/" + review.ItemID + "/reviews"
				resp, err := client.Send(ctx, http.MethodPost, url, review)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				_, _ = readResponseBody(resp)
				if resp.StatusCode == http.StatusCreated {
					atomic.AddInt64(&successful, 1)
				} else {
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(reviewChan)
		for _, review := range reviews {
			select {
			case <-ctx.Done():
				return
			case reviewChan <- review:
			}
		}
	}()

	wg.Wait()

	stats.ReviewsSubmitted = len(reviews)
	stats.ReviewsSuccessful = int(atomic.LoadInt64(&successful))
	stats.ReviewsFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "review submission completed",
		logger.Int("successful", stats.ReviewsSuccessful),
		logger.Int("failed", stats.ReviewsFailed))
	return nil
}

// fetchRecommendation asks the profile endpoint for a rater's ranking.
func fetchRecommendation(ctx context.Context, config *Config, client *HTTPClient, raterID string) (Recommendation, error) {
	url := config.BaseURL + "/api/v1/recommendations/profile"
	resp, err := client.Send(ctx, http.MethodPost, url, map[string]any{
		"rater_id": raterID,
		"limit":    config.TopN,
	})
	if err != nil {
		return Recommendation{}, fmt.Errorf("failed to fetch recommendation: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return Recommendation{}, fmt.Errorf("failed to read recommendation: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Recommendation{}, fmt.Errorf("recommendation request got status %d", resp.StatusCode)
	}

	var rec Recommendation
	if err := json.Unmarshal(body, &rec); err != nil {
		return Recommendation{}, fmt.Errorf("failed to decode recommendation: %w", err)
	}
	return rec, nil
}

// fetchWeatherRecommendation asks the weather endpoint for a ranking.
func fetchWeatherRecommendation(ctx context.Context, config *Config, client *HTTPClient) (Recommendation, error) {
	url := fmt.Sprintf("%s/api/v1/recommendations/weather?limit=%d", config.BaseURL, config.TopN)
	resp, err := client.Get(ctx, url)
	if err != nil {
		return Recommendation{}, fmt.Errorf("failed to fetch weather recommendation: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return Recommendation{}, fmt.Errorf("failed to read weather recommendation: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Recommendation{}, fmt.Errorf("weather recommendation got status %d", resp.StatusCode)
	}

	var rec Recommendation
	if err := json.Unmarshal(body, &rec); err != nil {
		return Recommendation{}, fmt.Errorf("failed to decode weather recommendation: %w", err)
	}
	return rec, nil
}
