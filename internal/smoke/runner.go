package smoke

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/crema/pkg/logger"
)

// File permission constants.
const (
	catalogFilePermission = 0600
)

// Run executes the complete smoke run against a live service.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting crema smoke run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("items", config.NumItems),
		logger.Int("reviews", config.NumReviews),
		logger.Int("workers", config.Workers),
		logger.Int("topN", config.TopN))

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config, client); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: A fresh service with no history must fall back
	if err := verifyColdStartFallback(ctx, config, client); err != nil {
		return fmt.Errorf("cold-start verification failed: %w", err)
	}

	// Step 3: Seed the catalog
	items := generateCatalog(ctx, config)
	if err := seedCatalog(ctx, config, client, items, stats); err != nil {
		return fmt.Errorf("catalog seeding failed: %w", err)
	}

	// Step 4: Submit reviews concurrently
	reviews := generateReviews(ctx, config, items)
	if err := submitReviews(ctx, config, client, reviews, stats); err != nil {
		return fmt.Errorf("review submission failed: %w", err)
	}

	// Step 5: Verify aggregates and recommendations
	if err := verifyResults(ctx, config, client, items, reviews, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Save the seeded catalog for inspection
	if err := saveCatalogToFile(ctx, config, items); err != nil {
		logger.Get().Warn(ctx, "failed to save catalog to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "smoke run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Any 200 counts as healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveCatalogToFile writes the seeded catalog to a JSON file.
func saveCatalogToFile(ctx context.Context, config *Config, items []Item) error {
	if len(items) == 0 {
		return fmt.Errorf("no items to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "seeded_catalog_" + timestamp + ".json"
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.WriteFile(filename, data, catalogFilePermission); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}

	logger.Get().Info(ctx, "catalog saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var reviewsPerSecond float64
	if stats.Duration > 0 {
		reviewsPerSecond = float64(stats.ReviewsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("itemsSeeded", stats.ItemsSeeded),
		logger.Int("reviewsSubmitted", stats.ReviewsSubmitted),
		logger.Int("reviewsSuccessful", stats.ReviewsSuccessful),
		logger.Int("reviewsFailed", stats.ReviewsFailed),
		logger.Int("recommendations", stats.Recommendations),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("reviewsPerSecond", reviewsPerSecond))
}
