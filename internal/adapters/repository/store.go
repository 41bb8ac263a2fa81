// Package repository provides the in-memory catalog and review stores.
package repository

import (
	"context"

	"github.com/okian/crema/internal/domain/model"
)

// ListFilter narrows and pages a catalog listing.
type ListFilter struct {
	Kind   model.Kind  // empty = all
	Roast  model.Roast // empty = all
	Search string      // case-insensitive substring match on name
	Page   int         // 1-based
	Limit  int
}

// ListResult is one page of a catalog listing.
type ListResult struct {
	Items []model.Item
	Page  int
	Pages int
	Total int
}

// Catalog provides read/write access to catalog items. The engine only
// reads; writes come from the admin/seed path and the quality writer.
type Catalog interface {
	// Put creates or replaces an item. The stored quality statistic of an
	// existing item is preserved; only the rating path may change it.
	Put(ctx context.Context, item model.Item) error

	// Get returns an item by id, or ErrItemNotFound.
	Get(ctx context.Context, id string) (model.Item, error)

	// List returns a filtered, quality-ordered page of the catalog.
	List(ctx context.Context, f ListFilter) (ListResult, error)

	// ListAvailable returns every available item.
	ListAvailable(ctx context.Context) ([]model.Item, error)

	// TopByQuality returns up to n available items ordered by quality avg
	// desc, rating count desc, then id asc.
	TopByQuality(ctx context.Context, n int) ([]model.Item, error)

	// Count returns the number of items tracked.
	Count(ctx context.Context) int
}

// QualityWriter is the single write path for an item's quality statistic.
type QualityWriter interface {
	SetQuality(ctx context.Context, itemID string, q model.Quality) error
}

// Reviews provides the live rating-event set and its upsert path.
type Reviews interface {
	// Upsert stores a rating event, superseding any prior event for the
	// same (rater, item) pair, recomputes the item's quality statistic
	// from the full live set, and writes it back. The compute-and-write
	// cycle is serialized per item.
	Upsert(ctx context.Context, itemID, raterID string, score int, comment string) (model.RatingEvent, model.Quality, error)

	// EventsFor returns every live event authored by a rater.
	EventsFor(ctx context.Context, raterID string) ([]model.RatingEvent, error)

	// ListForItem returns the newest live events for an item, up to limit.
	ListForItem(ctx context.Context, itemID string, limit int) ([]model.RatingEvent, error)

	// Count returns the number of live events.
	Count(ctx context.Context) int
}
