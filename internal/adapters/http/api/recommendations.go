package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	service "github.com/okian/crema/internal/app"
	"github.com/okian/crema/internal/domain/model"
	"github.com/okian/crema/internal/domain/preference"
)

// RecommendationDependencies defines the interface for recommendation requests.
type RecommendationDependencies interface {
	RecommendByContext(ctx context.Context, city, partOfDay string, k int) (service.Recommendation, error)
	RecommendByHistory(ctx context.Context, raterID string, exp *preference.Explicit, k int) (service.Recommendation, error)
}

// RecommendationsHandler handles recommendation requests.
type RecommendationsHandler struct {
	deps     RecommendationDependencies
	maxLimit int
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(deps RecommendationDependencies, maxLimit int) *RecommendationsHandler {
	return &RecommendationsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleByWeather handles GET /api/v1/recommendations/weather requests.
// city and part_of_day are optional; the service falls back to its
// configured defaults.
func (h *RecommendationsHandler) HandleByWeather(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommend_weather"
	q := r.URL.Query()

	k, err := parseLimit(q.Get("limit"), h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.RecommendByContext(r.Context(), q.Get("city"), q.Get("part_of_day"), k)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toRecommendationResponse(rec))
}

// profileRequest mirrors the wire schema for POST /api/v1/recommendations/profile.
type profileRequest struct {
	RaterID          string                `json:"rater_id"`
	Desired          *model.SensoryProfile `json:"desired,omitempty"`
	Roasts           []string              `json:"roasts,omitempty"`
	Kind             string                `json:"kind,omitempty"`
	ExcludeAllergens []string              `json:"exclude_allergens,omitempty"`
	MaxPrice         *float64              `json:"max_price,omitempty"`
	Limit            int                   `json:"limit,omitempty"`
}

func (p profileRequest) validate(maxLimit int) error {
	if strings.TrimSpace(p.RaterID) == "" && p.Desired == nil && len(p.Roasts) == 0 &&
		p.Kind == "" && len(p.ExcludeAllergens) == 0 && p.MaxPrice == nil {
		return ErrEmptyProfile
	}
	if p.Limit < 0 || p.Limit > maxLimit {
		return ErrBadLimit
	}
	if p.MaxPrice != nil && *p.MaxPrice < 0 {
		return ErrNegativePrice
	}
	switch model.Kind(p.Kind) {
	case model.KindBean, model.KindDrink, "":
	default:
		return ErrBadKind
	}
	for _, roast := range p.Roasts {
		switch model.Roast(roast) {
		case model.RoastLight, model.RoastMedium, model.RoastDark, model.RoastNone:
		default:
			return ErrBadRoast
		}
	}
	if p.Desired != nil {
		for _, dim := range []*float64{
			p.Desired.Acidity, p.Desired.Sweetness, p.Desired.Bitterness,
			p.Desired.Body, p.Desired.Aroma,
		} {
			if dim != nil && (*dim < 0 || *dim > 5) {
				return ErrBadSensory
			}
		}
	}
	return nil
}

func (p profileRequest) explicit() *preference.Explicit {
	if p.Desired == nil && len(p.Roasts) == 0 && p.Kind == "" &&
		len(p.ExcludeAllergens) == 0 && p.MaxPrice == nil {
		return nil
	}
	exp := &preference.Explicit{
		Desired:          p.Desired,
		ExcludeAllergens: p.ExcludeAllergens,
		MaxPrice:         p.MaxPrice,
	}
	for _, roast := range p.Roasts {
		exp.Roasts = append(exp.Roasts, model.Roast(roast))
	}
	if p.Kind != "" {
		kind := model.Kind(p.Kind)
		exp.Kind = &kind
	}
	return exp
}

// HandleByProfile handles POST /api/v1/recommendations/profile requests.
func (h *RecommendationsHandler) HandleByProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommend_profile"

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(h.maxLimit); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.RecommendByHistory(r.Context(), strings.TrimSpace(req.RaterID), req.explicit(), req.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toRecommendationResponse(rec))
}

// parseLimit reads an optional limit parameter. Empty means "service
// default"; anything else must be a positive integer within maxLimit.
func parseLimit(raw string, maxLimit int) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrBadLimit
	}
	if n > maxLimit {
		return 0, ErrBadLimit
	}
	return n, nil
}
