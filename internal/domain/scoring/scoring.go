// Package scoring filters the catalog by hard constraints and ranks the
// eligible items against a target preference.
package scoring

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/okian/crema/internal/domain/attribute"
	"github.com/okian/crema/internal/domain/model"
)

// Default term weights. The exact split is a tunable default, not a
// contract; config may override it.
const (
	DefaultCategoricalWeight = 0.6
	DefaultDistanceWeight    = 0.3
	DefaultQualityWeight     = 0.1

	defaultParallelism = 4
)

// Weights control the relative influence of the three score terms.
type Weights struct {
	Categorical float64
	Distance    float64
	Quality     float64
}

// DefaultWeights returns the standard 0.6/0.3/0.1 split.
func DefaultWeights() Weights {
	return Weights{
		Categorical: DefaultCategoricalWeight,
		Distance:    DefaultDistanceWeight,
		Quality:     DefaultQualityWeight,
	}
}

// Constraints are the hard filters applied before scoring. Items failing a
// constraint are removed from the candidate set, never merely penalized.
type Constraints struct {
	ExcludedAllergens map[string]struct{}
	MaxPrice          *float64
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights overrides the term weights.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		if w.Categorical > 0 || w.Distance > 0 || w.Quality > 0 {
			e.weights = w
		}
	}
}

// WithParallelism bounds the number of goroutines scoring candidates.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// Engine scores and ranks catalog items. It is stateless apart from its
// configuration and safe for concurrent use.
type Engine struct {
	weights     Weights
	parallelism int
}

// NewEngine creates an engine with default weights.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights:     DefaultWeights(),
		parallelism: defaultParallelism,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Eligible filters items by the hard constraints: availability, allergen
// exclusions, and the price ceiling.
func Eligible(items []model.Item, c Constraints) []model.Item {
	out := make([]model.Item, 0, len(items))
	for _, item := range items {
		if !item.Available {
			continue
		}
		if len(c.ExcludedAllergens) > 0 && item.ContainsAny(c.ExcludedAllergens) {
			continue
		}
		if c.MaxPrice != nil && item.Price != nil && item.Price.Amount > *c.MaxPrice {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Score computes the additive score for one item against the target:
// categorical bonus minus sensory distance plus the quality prior.
func (e *Engine) Score(item model.Item, pref model.Preference) float64 {
	return e.weights.Categorical*categorical(item, pref) -
		e.weights.Distance*distance(attribute.Sensory(item), pref.Sensory) +
		e.weights.Quality*item.QualityAvg()
}

// Rank scores every eligible item concurrently and returns the top k in
// descending score order, ties broken by ascending item id. When fewer
// than k items are eligible all of them are returned.
func (e *Engine) Rank(ctx context.Context, eligible []model.Item, pref model.Preference, k int) []model.ScoredCandidate {
	if len(eligible) == 0 || k <= 0 {
		return nil
	}

	scored := make([]model.ScoredCandidate, len(eligible))
	workers := e.parallelism
	if workers > len(eligible) {
		workers = len(eligible)
	}

	idx := make(chan int, len(eligible))
	for i := range eligible {
		idx <- i
	}
	close(idx)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				select {
				case <-ctx.Done():
					return
				default:
				}
				scored[i] = model.ScoredCandidate{
					ItemID: eligible[i].ID,
					Score:  e.Score(eligible[i], pref),
				}
			}
		}()
	}
	wg.Wait()

	// A cancelled context stops workers early and leaves zero-valued
	// slots; drop those before sorting so only scored items rank.
	if ctx.Err() != nil {
		filled := scored[:0]
		for _, c := range scored {
			if c.ItemID != "" {
				filled = append(filled, c)
			}
		}
		scored = filled
	}

	sort.Slice(scored, func(a, b int) bool {
		if scored[a].Score != scored[b].Score {
			return scored[a].Score > scored[b].Score
		}
		return scored[a].ItemID < scored[b].ItemID
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

// categorical sums the coarse-fit bonuses: roast and kind weights, serve
// affinity, shared tasting notes, brew methods, and ingredient bonuses.
func categorical(item model.Item, pref model.Preference) float64 {
	f := attribute.FacetsOf(item)
	sum := pref.RoastWeight[f.Roast] +
		pref.KindBonus[f.Kind] +
		pref.ServeBonus[f.TempAffinity]
	for _, note := range item.TastingNotes {
		sum += pref.NoteWeight[note]
	}
	for _, method := range item.BrewMethods {
		sum += pref.BrewBonus[method]
	}
	for _, tag := range item.Allergens {
		sum += pref.ContainsBonus[tag]
	}
	return sum
}

// distance is the Euclidean distance in the five-dimension sensory space.
func distance(a, b model.Vector) float64 {
	da := a.Acidity - b.Acidity
	ds := a.Sweetness - b.Sweetness
	db := a.Bitterness - b.Bitterness
	dy := a.Body - b.Body
	dr := a.Aroma - b.Aroma
	return math.Sqrt(da*da + ds*ds + db*db + dy*dy + dr*dr)
}
