package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/okian/crema/internal/adapters/repository"
	"github.com/okian/crema/internal/domain/model"
)

// CatalogDependencies defines the interface for catalog operations.
type CatalogDependencies interface {
	ListItems(ctx context.Context, f repository.ListFilter) (repository.ListResult, error)
	GetItem(ctx context.Context, id string) (model.Item, error)
	PutItem(ctx context.Context, item model.Item) error
}

// CoffeesHandler handles catalog requests.
type CoffeesHandler struct {
	deps     CatalogDependencies
	maxLimit int
}

// NewCoffeesHandler creates a new catalog handler.
func NewCoffeesHandler(deps CatalogDependencies, maxLimit int) *CoffeesHandler {
	return &CoffeesHandler{deps: deps, maxLimit: maxLimit}
}

// listResponse is one page of catalog items.
type listResponse struct {
	Items []model.Item `json:"items"`
	Page  int          `json:"page"`
	Pages int          `json:"pages"`
	Total int          `json:"total"`
}

// HandleList handles GET /api/v1/coffees requests. Supports kind, roast,
// q (name substring), page and limit query parameters.
func (h *CoffeesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_coffees"
	q := r.URL.Query()

	filter := repository.ListFilter{
		Kind:   model.Kind(q.Get("kind")),
		Roast:  model.Roast(q.Get("roast")),
		Search: q.Get("q"),
	}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, ErrBadLimit))
			return
		}
		filter.Page = n
	}
	limit, err := parseLimit(q.Get("limit"), h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	filter.Limit = limit

	res, err := h.deps.ListItems(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	items := res.Items
	if items == nil {
		items = []model.Item{}
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Page: res.Page, Pages: res.Pages, Total: res.Total})
}

// HandleGet handles GET /api/v1/coffees/{id} requests.
func (h *CoffeesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_coffee"
	id := chi.URLParam(r, "id")

	item, err := h.deps.GetItem(r.Context(), id)
	switch {
	case errors.Is(err, repository.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "not_found", wrapKind(op, ErrNotFound, err))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
	default:
		writeJSON(w, http.StatusOK, item)
	}
}

// HandlePut handles PUT /api/v1/coffees/{id} requests. The path id wins
// over any id in the body; the stored quality statistic is preserved.
func (h *CoffeesHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_coffee"
	id := chi.URLParam(r, "id")

	var item model.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	item.ID = id
	if err := item.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.PutItem(r.Context(), item); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}

	stored, err := h.deps.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, stored)
}
