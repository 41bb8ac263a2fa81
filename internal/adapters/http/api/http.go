// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"github.com/okian/crema/internal/adapters/repository"
	service "github.com/okian/crema/internal/app"
	"github.com/okian/crema/internal/domain/model"
	"github.com/okian/crema/internal/domain/preference"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RecommendByContext(ctx context.Context, city, partOfDay string, k int) (service.Recommendation, error)
	RecommendByHistory(ctx context.Context, raterID string, exp *preference.Explicit, k int) (service.Recommendation, error)

	UpsertReview(ctx context.Context, itemID, raterID string, score int, comment string) (model.RatingEvent, model.Quality, error)
	ReviewsFor(ctx context.Context, itemID string, limit int) ([]model.RatingEvent, error)

	ListItems(ctx context.Context, f repository.ListFilter) (repository.ListResult, error)
	GetItem(ctx context.Context, id string) (model.Item, error)
	PutItem(ctx context.Context, item model.Item) error

	Stats(ctx context.Context) map[string]any
}

// Server wires HTTP routes for the business API.
type Server struct {
	recommendationsHandler *RecommendationsHandler
	coffeesHandler         *CoffeesHandler
	reviewsHandler         *ReviewsHandler
	healthHandler          *HealthHandler
	statsHandler           *StatsHandler

	rateRPS   float64
	rateBurst int
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxLimit int, opts ...ServerOption) *Server {
	s := &Server{
		recommendationsHandler: NewRecommendationsHandler(deps, maxLimit),
		coffeesHandler:         NewCoffeesHandler(deps, maxLimit),
		reviewsHandler:         NewReviewsHandler(deps, maxLimit),
		healthHandler:          NewHealthHandler(),
		statsHandler:           NewStatsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServerOption customizes the Server.
type ServerOption func(*Server)

// WithRateLimit enables token-bucket limiting on the business routes.
// A non-positive rps disables the limiter.
func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		s.rateRPS = rps
		s.rateBurst = burst
	}
}

// Routes builds the full handler tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api/v1", func(r chi.Router) {
		if s.rateRPS > 0 {
			r.Use(RateLimitMiddleware(s.rateRPS, s.rateBurst))
		}

		r.Get("/recommendations/weather", MetricsMiddleware(s.recommendationsHandler.HandleByWeather, "recommendations_weather"))
		r.Post("/recommendations/profile", MetricsMiddleware(s.recommendationsHandler.HandleByProfile, "recommendations_profile"))

		r.Get("/coffees", MetricsMiddleware(s.coffeesHandler.HandleList, "coffees_list"))
		r.Get("/coffees/{id}", MetricsMiddleware(s.coffeesHandler.HandleGet, "coffees_get"))
		r.Put("/coffees/{id}", MetricsMiddleware(s.coffeesHandler.HandlePut, "coffees_put"))

		r.Get("/coffees/{id}/reviews", MetricsMiddleware(s.reviewsHandler.HandleList, "reviews_list"))
		r.Post("/coffees/{id}/reviews", MetricsMiddleware(s.reviewsHandler.HandlePost, "reviews_post"))
	})

	return r
}

// recommendationResponse mirrors the wire shape of a ranked answer.
type recommendationResponse struct {
	Items          []model.Item          `json:"items"`
	UsedFallback   bool                  `json:"used_fallback"`
	FallbackReason string                `json:"fallback_reason,omitempty"`
	Context        *model.WeatherContext `json:"context,omitempty"`
	Preference     *model.Preference     `json:"preference,omitempty"`
}

func toRecommendationResponse(rec service.Recommendation) recommendationResponse {
	items := rec.Items
	if items == nil {
		items = []model.Item{}
	}
	return recommendationResponse{
		Items:          items,
		UsedFallback:   rec.UsedFallback,
		FallbackReason: rec.FallbackReason,
		Context:        rec.Context,
		Preference:     rec.Preference,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
