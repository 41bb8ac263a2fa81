// Package service provides the core recommendation service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/crema/internal/adapters/repository"
	"github.com/okian/crema/internal/adapters/weatherapi"
	"github.com/okian/crema/internal/domain/model"
	"github.com/okian/crema/internal/domain/preference"
	"github.com/okian/crema/internal/domain/scoring"
	"github.com/okian/crema/internal/domain/weather"
	"github.com/okian/crema/pkg/logger"
	"github.com/okian/crema/pkg/metrics"
)

// Fallback trigger reasons reported in recommendation metadata.
const (
	FallbackNone        = ""
	FallbackNoPrefs     = "no_preference"
	FallbackNoCandidate = "no_candidates"
	FallbackNoWeather   = "weather_unavailable"
)

// Recommendation is the engine's answer: an ordered item list plus the
// diagnostic metadata callers present differently on fallback.
type Recommendation struct {
	Items          []model.Item
	UsedFallback   bool
	FallbackReason string

	// Context is set for weather-driven requests.
	Context *model.WeatherContext

	// Preference is the target the items were scored against; nil on
	// fallback results.
	Preference *model.Preference
}

// Service wires the stores, the weather client, and the scoring engine.
type Service struct {
	mu sync.RWMutex

	catalog *repository.MemoryCatalog
	reviews *repository.ShardedReviews
	weather weatherapi.Fetcher
	engine  *scoring.Engine

	topK        int
	shardCount  int
	parallelism int
	weights     scoring.Weights
	defaultCity string
	now         func() time.Time

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTopK sets the default number of recommendations returned.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithShardCount sets the review store shard count.
func WithShardCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithScoreWeights overrides the scoring term weights.
func WithScoreWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithScoringParallelism bounds concurrent candidate scoring.
func WithScoringParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithWeather sets the upstream weather fetcher. A nil fetcher means every
// context request runs without ambient data.
func WithWeather(f weatherapi.Fetcher) Option {
	return func(s *Service) {
		s.weather = f
	}
}

// WithDefaultCity sets the city used when a caller omits one.
func WithDefaultCity(city string) Option {
	return func(s *Service) {
		if city != "" {
			s.defaultCity = city
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source, used by tests to pin part-of-day.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		topK:        6,
		shardCount:  8,
		parallelism: runtime.NumCPU(),
		weights:     scoring.DefaultWeights(),
		defaultCity: "Sao Paulo,BR",
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the stores and the scoring engine.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.catalog = repository.NewMemoryCatalog()
	s.reviews = repository.NewShardedReviews(s.catalog,
		repository.WithShardCount(s.shardCount),
	)
	s.engine = scoring.NewEngine(
		scoring.WithWeights(s.weights),
		scoring.WithParallelism(s.parallelism),
	)

	s.started = true
	s.logger.Info(ctx, "recommendation service started",
		logger.Int("topK", s.topK),
		logger.Int("shards", s.shardCount),
		logger.Bool("weatherUpstream", s.weather != nil),
	)
	return nil
}

// Stop shuts the service down. The in-memory stores need no teardown; this
// exists for symmetry with Start and future persistent backends.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "recommendation service stopped")
}

// RecommendByContext ranks the catalog against ambient weather. A missing
// city falls back to the configured default; an unavailable weather reading
// triggers the quality-ranked fallback. k <= 0 selects the default top-k.
func (s *Service) RecommendByContext(ctx context.Context, city, partOfDayHint string, k int) (Recommendation, error) {
	metrics.RecordRecommendation("context")
	if k <= 0 {
		k = s.topK
	}
	if city == "" {
		city = s.defaultCity
	}

	pod := weather.ParsePartOfDay(partOfDayHint, s.now())
	reading := s.currentReading(ctx, city)
	wc := weather.Classify(reading, pod)

	if reading == nil {
		rec, err := s.fallback(ctx, k, FallbackNoWeather)
		rec.Context = &wc
		return rec, err
	}

	pref := weather.PreferenceFrom(wc)
	rec, err := s.rank(ctx, pref, scoring.Constraints{}, k)
	if err != nil {
		return Recommendation{}, err
	}
	rec.Context = &wc
	return rec, nil
}

// RecommendByHistory ranks the catalog against a preference derived from
// the rater's review history, merged with any explicit fields. With no
// derivable preference and no explicit one it returns the quality-ranked
// fallback.
func (s *Service) RecommendByHistory(ctx context.Context, raterID string, exp *preference.Explicit, k int) (Recommendation, error) {
	metrics.RecordRecommendation("history")
	if k <= 0 {
		k = s.topK
	}

	events, err := s.reviews.EventsFor(ctx, raterID)
	if err != nil && !errors.Is(err, repository.ErrEmptyID) {
		return Recommendation{}, fmt.Errorf("load rating history: %w", err)
	}

	history := make([]preference.RatedItem, 0, len(events))
	for _, e := range events {
		item, gerr := s.catalog.Get(ctx, e.ItemID)
		if gerr != nil {
			// A rated item that left the catalog contributes nothing.
			continue
		}
		history = append(history, preference.RatedItem{Event: e, Item: item})
	}

	derived, derivedOK := preference.FromHistory(history)
	pref, ok := preference.Merge(derived, derivedOK, exp)
	if !ok {
		return s.fallback(ctx, k, FallbackNoPrefs)
	}

	return s.rank(ctx, pref, constraintsFrom(exp), k)
}

// UpsertReview validates and stores a rating event, superseding the
// rater's prior event for the item, and returns the stored event plus the
// refreshed quality statistic.
func (s *Service) UpsertReview(ctx context.Context, itemID, raterID string, score int, comment string) (model.RatingEvent, model.Quality, error) {
	if _, err := s.catalog.Get(ctx, itemID); err != nil {
		return model.RatingEvent{}, model.Quality{}, err
	}
	event, q, err := s.reviews.Upsert(ctx, itemID, raterID, score, comment)
	if err != nil {
		return model.RatingEvent{}, model.Quality{}, err
	}
	metrics.UpdateReviewCount(s.reviews.Count(ctx))
	return event, q, nil
}

// ReviewsFor returns the newest live reviews for an item.
func (s *Service) ReviewsFor(ctx context.Context, itemID string, limit int) ([]model.RatingEvent, error) {
	if _, err := s.catalog.Get(ctx, itemID); err != nil {
		return nil, err
	}
	return s.reviews.ListForItem(ctx, itemID, limit)
}

// ListItems returns a filtered catalog page.
func (s *Service) ListItems(ctx context.Context, f repository.ListFilter) (repository.ListResult, error) {
	return s.catalog.List(ctx, f)
}

// GetItem returns one catalog item.
func (s *Service) GetItem(ctx context.Context, id string) (model.Item, error) {
	return s.catalog.Get(ctx, id)
}

// PutItem creates or replaces a catalog item.
func (s *Service) PutItem(ctx context.Context, item model.Item) error {
	return s.catalog.Put(ctx, item)
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":    s.started,
		"topK":       s.topK,
		"shardCount": s.shardCount,
	}
	if s.started {
		stats["catalogSize"] = s.catalog.Count(ctx)
		stats["reviewCount"] = s.reviews.Count(ctx)
		metrics.UpdateCatalogSize(s.catalog.Count(ctx))
		metrics.UpdateReviewCount(s.reviews.Count(ctx))
	}
	return stats
}

// currentReading asks the upstream for ambient weather. Every failure mode
// degrades to an absent reading; weather is never a hard dependency.
func (s *Service) currentReading(ctx context.Context, city string) *weather.Reading {
	if s.weather == nil {
		return nil
	}
	reading, err := s.weather.Current(ctx, city)
	if err != nil {
		s.logger.Warn(ctx, "weather upstream unavailable",
			logger.String("city", city),
			logger.Error(err),
		)
		return nil
	}
	return reading
}

// rank runs the hard-constraint filter and the scoring engine, falling
// back when nothing is eligible.
func (s *Service) rank(ctx context.Context, pref model.Preference, c scoring.Constraints, k int) (Recommendation, error) {
	items, err := s.catalog.ListAvailable(ctx)
	if err != nil {
		return Recommendation{}, fmt.Errorf("list catalog: %w", err)
	}

	eligible := scoring.Eligible(items, c)
	if len(eligible) == 0 {
		return s.fallback(ctx, k, FallbackNoCandidate)
	}

	start := time.Now()
	ranked := s.engine.Rank(ctx, eligible, pref, k)
	metrics.RecordScoringDuration(float64(time.Since(start).Milliseconds()))

	byID := make(map[string]model.Item, len(eligible))
	for _, item := range eligible {
		byID[item.ID] = item
	}
	out := make([]model.Item, len(ranked))
	for i, c := range ranked {
		out[i] = byID[c.ItemID]
	}

	return Recommendation{Items: out, Preference: &pref}, nil
}

// fallback substitutes the quality-ranked default list. An empty catalog
// yields an empty, still-flagged list, never an error.
func (s *Service) fallback(ctx context.Context, k int, reason string) (Recommendation, error) {
	metrics.RecordFallback(reason)

	top, err := s.catalog.TopByQuality(ctx, k)
	if err != nil && !errors.Is(err, repository.ErrInvalidLimit) {
		return Recommendation{}, fmt.Errorf("quality fallback: %w", err)
	}

	return Recommendation{
		Items:          top,
		UsedFallback:   true,
		FallbackReason: reason,
	}, nil
}

func constraintsFrom(exp *preference.Explicit) scoring.Constraints {
	if exp == nil {
		return scoring.Constraints{}
	}
	c := scoring.Constraints{MaxPrice: exp.MaxPrice}
	if len(exp.ExcludeAllergens) > 0 {
		c.ExcludedAllergens = make(map[string]struct{}, len(exp.ExcludeAllergens))
		for _, a := range exp.ExcludeAllergens {
			c.ExcludedAllergens[a] = struct{}{}
		}
	}
	return c
}
