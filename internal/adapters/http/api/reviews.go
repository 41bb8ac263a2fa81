package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/okian/crema/internal/adapters/repository"
	"github.com/okian/crema/internal/domain/model"
	"github.com/okian/crema/internal/domain/rating"
)

// ReviewDependencies defines the interface for review operations.
type ReviewDependencies interface {
	UpsertReview(ctx context.Context, itemID, raterID string, score int, comment string) (model.RatingEvent, model.Quality, error)
	ReviewsFor(ctx context.Context, itemID string, limit int) ([]model.RatingEvent, error)
}

// ReviewsHandler handles review requests.
type ReviewsHandler struct {
	deps     ReviewDependencies
	maxLimit int
}

// NewReviewsHandler creates a new reviews handler.
func NewReviewsHandler(deps ReviewDependencies, maxLimit int) *ReviewsHandler {
	return &ReviewsHandler{deps: deps, maxLimit: maxLimit}
}

// reviewRequest mirrors the wire schema for POST /api/v1/coffees/{id}/reviews.
type reviewRequest struct {
	RaterID string `json:"rater_id"`
	Score   int    `json:"score"`
	Comment string `json:"comment,omitempty"`
}

func (rr reviewRequest) validate() error {
	if strings.TrimSpace(rr.RaterID) == "" {
		return ErrMissingRater
	}
	return rating.ValidateScore(rr.Score)
}

// reviewResponse carries the stored event plus the aggregate it produced.
type reviewResponse struct {
	Review  model.RatingEvent `json:"review"`
	Quality model.Quality     `json:"quality"`
}

// HandlePost handles POST /api/v1/coffees/{id}/reviews requests. A repeat
// rating by the same rater supersedes the earlier one.
func (h *ReviewsHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_review"
	itemID := chi.URLParam(r, "id")

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	event, quality, err := h.deps.UpsertReview(r.Context(), itemID, strings.TrimSpace(req.RaterID), req.Score, req.Comment)
	switch {
	case errors.Is(err, repository.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "not_found", wrapKind(op, ErrNotFound, err))
	case errors.Is(err, rating.ErrInvalidScore):
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
	default:
		writeJSON(w, http.StatusCreated, reviewResponse{Review: event, Quality: quality})
	}
}

// HandleList handles GET /api/v1/coffees/{id}/reviews requests. Reviews
// come back newest first.
func (h *ReviewsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_reviews"
	itemID := chi.URLParam(r, "id")

	limit, err := parseLimit(r.URL.Query().Get("limit"), h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	reviews, err := h.deps.ReviewsFor(r.Context(), itemID, limit)
	switch {
	case errors.Is(err, repository.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "not_found", wrapKind(op, ErrNotFound, err))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
	default:
		if reviews == nil {
			reviews = []model.RatingEvent{}
		}
		writeJSON(w, http.StatusOK, reviews)
	}
}
