// Package rating holds the pure parts of review aggregation: score
// validation and the recompute of an item's quality statistic from its
// full live event set.
package rating

import (
	"fmt"

	"github.com/okian/crema/internal/domain/model"
)

// Valid rating bounds.
const (
	MinScore = 1
	MaxScore = 5
)

// ValidateScore rejects scores outside 1..5 before any aggregation runs.
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return fmt.Errorf("%w: %d", ErrInvalidScore, score)
	}
	return nil
}

// Aggregate recomputes the quality statistic from the authoritative live
// event set for one item. Recomputing from scratch, rather than folding a
// delta into a running average, is what keeps the statistic correct when an
// existing rater supersedes their own score.
func Aggregate(events []model.RatingEvent) model.Quality {
	if len(events) == 0 {
		return model.Quality{}
	}
	var sum float64
	for _, e := range events {
		sum += float64(e.Score)
	}
	avg := sum / float64(len(events))
	return model.Quality{Avg: &avg, Count: len(events)}
}
