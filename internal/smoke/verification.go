package smoke

import (
	"context"
	"fmt"
	"math"

	json "github.com/goccy/go-json"

	"github.com/okian/crema/pkg/logger"
)

const scoreTolerance = 1e-6

// verifyColdStartFallback checks that recommending against an empty
// service returns a flagged fallback instead of an error.
func verifyColdStartFallback(ctx context.Context, config *Config, client *HTTPClient) error {
	rec, err := fetchRecommendation(ctx, config, client, "smoke-cold-start")
	if err != nil {
		return err
	}
	if !rec.UsedFallback {
		return fmt.Errorf("cold-start recommendation was not flagged as fallback")
	}
	logger.Get().Info(ctx, "cold-start fallback verified",
		logger.String("reason", rec.FallbackReason))
	return nil
}

// verifyResults checks aggregates and recommendation behavior after the
// catalog has been seeded and reviewed.
func verifyResults(ctx context.Context, config *Config, client *HTTPClient, items []Item, reviews []Review, stats *Stats) error {
	logger.Get().Info(ctx, "verifying results")

	// Recompute expected aggregates locally: last score per (item, rater)
	// wins, matching the supersede semantics of the server.
	latest := map[string]map[string]int{}
	for _, review := range reviews {
		if latest[review.ItemID] == nil {
			latest[review.ItemID] = map[string]int{}
		}
		latest[review.ItemID][review.RaterID] = review.Score
	}

	checked := 0
	for itemID, byRater := range latest {
		if checked >= 10 {
			break
		}
		sum, count := 0, 0
		for _, score := range byRater {
			sum += score
			count++
		}
		expected := float64(sum) / float64(count)

		item, err := fetchItem(ctx, config, client, itemID)
		if err != nil {
			return err
		}
		if item.Quality.Count != count {
			return fmt.Errorf("item %s: expected %d ratings, server has %d", itemID, count, item.Quality.Count)
		}
		if item.Quality.Avg == nil || math.Abs(*item.Quality.Avg-expected) > scoreTolerance {
			return fmt.Errorf("item %s: aggregate mismatch", itemID)
		}
		checked++
	}
	logger.Get().Info(ctx, "aggregates verified", logger.Int("itemsChecked", checked))

	// A rater with history must get a personalized, non-fallback answer
	// when any of their scores cleared the positive threshold.
	if raterID := findPositiveRater(reviews); raterID != "" {
		rec, err := fetchRecommendation(ctx, config, client, raterID)
		if err != nil {
			return err
		}
		if rec.UsedFallback {
			return fmt.Errorf("rater %s with positive history got a fallback answer", raterID)
		}
		stats.Recommendations += len(rec.Items)
		if err := verifyAvailability(rec, items); err != nil {
			return err
		}
	}

	// A repeat rating by the same rater must supersede, not append.
	if err := verifySupersede(ctx, config, client, items[0].ID); err != nil {
		return err
	}

	// The weather path must answer regardless of upstream availability.
	rec, err := fetchWeatherRecommendation(ctx, config, client)
	if err != nil {
		return err
	}
	stats.Recommendations += len(rec.Items)
	if err := verifyAvailability(rec, items); err != nil {
		return err
	}

	logger.Get().Info(ctx, "result verification completed")
	return nil
}

// verifySupersede posts two scores from one rater and checks the rating
// count moved by exactly one.
func verifySupersede(ctx context.Context, config *Config, client *HTTPClient, itemID string) error {
	before, err := fetchItem(ctx, config, client, itemID)
	if err != nil {
		return err
	}

	url := config.BaseURL + "/api/v1/coffees/" + itemID + "/reviews"
	for _, score := range []int{5, 1} {
		resp, err := client.Send(ctx, "POST", url, Review{RaterID: "smoke-supersede", Score: score})
		if err != nil {
			return fmt.Errorf("supersede probe failed: %w", err)
		}
		if _, err := readResponseBody(resp); err != nil {
			return fmt.Errorf("supersede probe read failed: %w", err)
		}
		if resp.StatusCode != 201 {
			return fmt.Errorf("supersede probe got status %d", resp.StatusCode)
		}
	}

	after, err := fetchItem(ctx, config, client, itemID)
	if err != nil {
		return err
	}
	if after.Quality.Count != before.Quality.Count+1 {
		return fmt.Errorf("item %s: repeat rating changed count from %d to %d",
			itemID, before.Quality.Count, after.Quality.Count)
	}
	logger.Get().Info(ctx, "supersede semantics verified", logger.String("itemID", itemID))
	return nil
}

// verifyAvailability checks that no retired item leaked into a ranking.
func verifyAvailability(rec Recommendation, items []Item) error {
	retired := map[string]struct{}{}
	for _, item := range items {
		if !item.Available {
			retired[item.ID] = struct{}{}
		}
	}
	for _, item := range rec.Items {
		if _, ok := retired[item.ID]; ok {
			return fmt.Errorf("retired item %s appeared in a recommendation", item.ID)
		}
	}
	return nil
}

// findPositiveRater returns a rater whose latest scores include one at or
// above the positive threshold, or empty when none exists.
func findPositiveRater(reviews []Review) string {
	latest := map[string]map[string]int{}
	for _, review := range reviews {
		if latest[review.RaterID] == nil {
			latest[review.RaterID] = map[string]int{}
		}
		latest[review.RaterID][review.ItemID] = review.Score
	}
	for raterID, byItem := range latest {
		for _, score := range byItem {
			if score >= 4 {
				return raterID
			}
		}
	}
	return ""
}

// fetchItem reads one catalog item back from the service.
func fetchItem(ctx context.Context, config *Config, client *HTTPClient, itemID string) (Item, error) {
	resp, err := client.Get(ctx, config.BaseURL+"/api/v1/coffees/"+itemID)
	if err != nil {
		return Item{}, fmt.Errorf("failed to fetch item %s: %w", itemID, err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return Item{}, fmt.Errorf("failed to read item %s: %w", itemID, err)
	}
	if resp.StatusCode != 200 {
		return Item{}, fmt.Errorf("fetching item %s got status %d", itemID, resp.StatusCode)
	}

	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return Item{}, fmt.Errorf("failed to decode item %s: %w", itemID, err)
	}
	return item, nil
}
