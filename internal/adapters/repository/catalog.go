package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/okian/crema/internal/domain/model"
	"github.com/okian/crema/pkg/metrics"
)

// Default paging bounds for catalog listings.
const (
	defaultPageLimit = 12
	maxPageLimit     = 50
)

// MemoryCatalog implements Catalog and QualityWriter with a map guarded by
// a RWMutex plus a treap quality index for O(log n) quality-ranked reads.
type MemoryCatalog struct {
	mu    sync.RWMutex
	byID  map[string]model.Item
	qroot *qnode
}

// NewMemoryCatalog constructs an empty catalog store.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{byID: make(map[string]model.Item)}
}

// Put creates or replaces an item. The quality statistic of an existing
// item is preserved so only the rating path can move it.
func (c *MemoryCatalog) Put(ctx context.Context, item model.Item) error {
	if item.ID == "" {
		return ErrEmptyID
	}

	c.mu.Lock()
	if old, ok := c.byID[item.ID]; ok {
		item.Quality = old.Quality
		c.qroot = qDelete(c.qroot, keyOf(old))
	}
	c.byID[item.ID] = item
	c.qroot = qInsert(c.qroot, keyOf(item))
	total := len(c.byID)
	c.mu.Unlock()

	metrics.UpdateCatalogSize(total)
	return nil
}

// SetQuality writes the recomputed quality statistic for an item and
// repositions it in the quality index.
func (c *MemoryCatalog) SetQuality(ctx context.Context, itemID string, q model.Quality) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.byID[itemID]
	if !ok {
		return ErrItemNotFound
	}
	c.qroot = qDelete(c.qroot, keyOf(item))
	item.Quality = q
	c.byID[itemID] = item
	c.qroot = qInsert(c.qroot, keyOf(item))
	return nil
}

// Get returns an item by id.
func (c *MemoryCatalog) Get(ctx context.Context, id string) (model.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.byID[id]
	if !ok {
		return model.Item{}, ErrItemNotFound
	}
	return item, nil
}

// List returns a filtered page of the catalog ordered by quality avg desc,
// then name asc, then id asc.
func (c *MemoryCatalog) List(ctx context.Context, f ListFilter) (ListResult, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	search := strings.ToLower(f.Search)

	c.mu.RLock()
	matched := make([]model.Item, 0, len(c.byID))
	for _, item := range c.byID {
		if f.Kind != "" && item.Kind != f.Kind {
			continue
		}
		if f.Roast != "" && item.Roast != f.Roast {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.Name), search) {
			continue
		}
		matched = append(matched, item)
	}
	c.mu.RUnlock()

	sort.Slice(matched, func(a, b int) bool {
		if matched[a].QualityAvg() != matched[b].QualityAvg() {
			return matched[a].QualityAvg() > matched[b].QualityAvg()
		}
		if matched[a].Name != matched[b].Name {
			return matched[a].Name < matched[b].Name
		}
		return matched[a].ID < matched[b].ID
	})

	total := len(matched)
	pages := (total + f.Limit - 1) / f.Limit
	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}

	return ListResult{
		Items: matched[start:end],
		Page:  f.Page,
		Pages: pages,
		Total: total,
	}, nil
}

// ListAvailable returns every available item in id order.
func (c *MemoryCatalog) ListAvailable(ctx context.Context) ([]model.Item, error) {
	c.mu.RLock()
	out := make([]model.Item, 0, len(c.byID))
	for _, item := range c.byID {
		if item.Available {
			out = append(out, item)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

// TopByQuality returns up to n available items in quality-index order.
func (c *MemoryCatalog) TopByQuality(ctx context.Context, n int) ([]model.Item, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, n)
	qCollect(c.qroot, n, func(id string) bool {
		return c.byID[id].Available
	}, &ids)

	out := make([]model.Item, len(ids))
	for i, id := range ids {
		out[i] = c.byID[id]
	}
	return out, nil
}

// Count returns the number of items tracked.
func (c *MemoryCatalog) Count(ctx context.Context) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

func keyOf(item model.Item) qkey {
	return qkey{avg: item.QualityAvg(), count: item.Quality.Count, id: item.ID}
}
