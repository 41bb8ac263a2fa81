package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/crema/internal/domain/model"
	"github.com/okian/crema/internal/domain/rating"
	"github.com/okian/crema/pkg/metrics"
)

// Default review store configuration.
const (
	defaultShardCount  = 8
	defaultReviewLimit = 100
)

// Option applies a configuration option to the ShardedReviews store.
type Option func(*ShardedReviews)

// WithShardCount sets the number of shards. Upserts for the same item
// always land on the same shard, which is the per-item serialization point
// for the read-recompute-write cycle.
func WithShardCount(n int) Option {
	return func(s *ShardedReviews) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

type reviewShard struct {
	mu     sync.RWMutex
	byItem map[string]map[string]model.RatingEvent // itemID -> raterID -> event
}

// ShardedReviews implements Reviews with item-hashed shards. Each shard
// lock covers the full upsert-recompute-writeback cycle, so concurrent
// upserts for one item cannot lose an update; upserts for different items
// proceed independently.
type ShardedReviews struct {
	shardCount int
	shards     []*reviewShard
	quality    QualityWriter
}

// NewShardedReviews constructs the review store. The quality writer
// receives the recomputed statistic on every accepted upsert.
func NewShardedReviews(quality QualityWriter, opts ...Option) *ShardedReviews {
	s := &ShardedReviews{
		shardCount: defaultShardCount,
		quality:    quality,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*reviewShard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &reviewShard{byItem: make(map[string]map[string]model.RatingEvent)}
	}
	return s
}

func (s *ShardedReviews) shardFor(itemID string) *reviewShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(itemID))
	return s.shards[h.Sum32()%uint32(s.shardCount)]
}

// Upsert stores or supersedes the rating event for (rater, item) and
// recomputes the item's quality from the full live set. A score outside
// 1..5 is rejected before any mutation.
func (s *ShardedReviews) Upsert(ctx context.Context, itemID, raterID string, score int, comment string) (model.RatingEvent, model.Quality, error) {
	if itemID == "" || raterID == "" {
		return model.RatingEvent{}, model.Quality{}, ErrEmptyID
	}
	if err := rating.ValidateScore(score); err != nil {
		metrics.RecordRatingRejected()
		return model.RatingEvent{}, model.Quality{}, err
	}

	now := time.Now().UTC()
	shard := s.shardFor(itemID)

	shard.mu.Lock()
	raters, ok := shard.byItem[itemID]
	if !ok {
		raters = make(map[string]model.RatingEvent)
		shard.byItem[itemID] = raters
	}

	event, exists := raters[raterID]
	if exists {
		event.Score = score
		event.Comment = comment
		event.UpdatedAt = now
	} else {
		event = model.RatingEvent{
			ID:        uuid.NewString(),
			ItemID:    itemID,
			RaterID:   raterID,
			Score:     score,
			Comment:   comment,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	raters[raterID] = event

	live := make([]model.RatingEvent, 0, len(raters))
	for _, e := range raters {
		live = append(live, e)
	}
	q := rating.Aggregate(live)

	// Write back while still holding the shard lock so concurrent upserts
	// for this item cannot interleave between recompute and write.
	err := s.quality.SetQuality(ctx, itemID, q)
	shard.mu.Unlock()

	if err != nil {
		return model.RatingEvent{}, model.Quality{}, fmt.Errorf("write quality for %s: %w", itemID, err)
	}

	metrics.RecordRatingUpsert(!exists)
	return event, q, nil
}

// EventsFor returns every live event authored by a rater, ordered by item
// id for determinism.
func (s *ShardedReviews) EventsFor(ctx context.Context, raterID string) ([]model.RatingEvent, error) {
	if raterID == "" {
		return nil, ErrEmptyID
	}

	var out []model.RatingEvent
	for _, shard := range s.shards {
		shard.mu.RLock()
		for _, raters := range shard.byItem {
			if e, ok := raters[raterID]; ok {
				out = append(out, e)
			}
		}
		shard.mu.RUnlock()
	}

	sort.Slice(out, func(a, b int) bool { return out[a].ItemID < out[b].ItemID })
	return out, nil
}

// ListForItem returns the newest live events for an item, up to limit.
func (s *ShardedReviews) ListForItem(ctx context.Context, itemID string, limit int) ([]model.RatingEvent, error) {
	if itemID == "" {
		return nil, ErrEmptyID
	}
	if limit < 1 {
		limit = defaultReviewLimit
	}

	shard := s.shardFor(itemID)
	shard.mu.RLock()
	raters := shard.byItem[itemID]
	out := make([]model.RatingEvent, 0, len(raters))
	for _, e := range raters {
		out = append(out, e)
	}
	shard.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool {
		if !out[a].UpdatedAt.Equal(out[b].UpdatedAt) {
			return out[a].UpdatedAt.After(out[b].UpdatedAt)
		}
		return out[a].RaterID < out[b].RaterID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of live events across all shards.
func (s *ShardedReviews) Count(ctx context.Context) int {
	total := 0
	for _, shard := range s.shards {
		shard.mu.RLock()
		for _, raters := range shard.byItem {
			total += len(raters)
		}
		shard.mu.RUnlock()
	}
	return total
}
