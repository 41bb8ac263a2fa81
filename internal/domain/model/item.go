// Package model contains domain models passed between layers.
package model

import "strings"

// Kind says whether a catalog entry is whole beans or a prepared drink.
type Kind string

// Catalog item kinds.
const (
	KindBean  Kind = "bean"
	KindDrink Kind = "drink"
)

// Roast is the roast level of an item. Drinks without a meaningful roast
// use RoastNone.
type Roast string

// Roast levels.
const (
	RoastLight  Roast = "light"
	RoastMedium Roast = "medium"
	RoastDark   Roast = "dark"
	RoastNone   Roast = "none"
)

// TempAffinity says whether an item is meant to be served hot, cold, or both.
type TempAffinity string

// Temperature affinities.
const (
	ServeHot    TempAffinity = "hot"
	ServeCold   TempAffinity = "cold"
	ServeEither TempAffinity = "either"
)

// SensoryProfile holds the raw five-dimension taste profile as stored on an
// item. Each dimension is optional; nil means the roastery never provided it.
// Resolution of missing dimensions happens in the attribute package, never
// at scoring call sites.
type SensoryProfile struct {
	Acidity    *float64 `json:"acidity,omitempty"`
	Sweetness  *float64 `json:"sweetness,omitempty"`
	Bitterness *float64 `json:"bitterness,omitempty"`
	Body       *float64 `json:"body,omitempty"`
	Aroma      *float64 `json:"aroma,omitempty"`
}

// Price is an optional price tag on an item.
type Price struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// Quality is the aggregate rating statistic for an item. Avg is nil until
// the item has at least one live rating. Written only by the rating
// aggregation path.
type Quality struct {
	Avg   *float64 `json:"avg,omitempty"`
	Count int      `json:"count"`
}

// Item is a catalog entry: a coffee bean or a prepared drink.
type Item struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Roastery     string         `json:"roastery,omitempty"`
	Kind         Kind           `json:"kind"`
	Roast        Roast          `json:"roast,omitempty"`
	TempAffinity TempAffinity   `json:"temperature,omitempty"`
	Sensory      SensoryProfile `json:"sensory"`
	TastingNotes []string       `json:"tasting_notes,omitempty"`
	BrewMethods  []string       `json:"brew_methods,omitempty"`
	Allergens    []string       `json:"allergens,omitempty"`
	Price        *Price         `json:"price,omitempty"`
	Available    bool           `json:"available"`
	Quality      Quality        `json:"quality"`
}

// Validate checks the fields a write path must reject early. Optional
// enum fields are only checked when set.
func (i Item) Validate() error {
	switch {
	case strings.TrimSpace(i.ID) == "":
		return ErrMissingID
	case strings.TrimSpace(i.Name) == "":
		return ErrMissingName
	}
	switch i.Kind {
	case KindBean, KindDrink:
	default:
		return ErrBadKind
	}
	switch i.Roast {
	case RoastLight, RoastMedium, RoastDark, RoastNone, "":
	default:
		return ErrBadRoast
	}
	switch i.TempAffinity {
	case ServeHot, ServeCold, ServeEither, "":
	default:
		return ErrBadAffinity
	}
	if i.Price != nil && i.Price.Amount < 0 {
		return ErrNegativePrice
	}
	return nil
}

// QualityAvg returns the aggregate average or 0 when the item has no ratings.
func (i Item) QualityAvg() float64 {
	if i.Quality.Avg == nil {
		return 0
	}
	return *i.Quality.Avg
}

// HasNote reports whether the item carries the given tasting note.
func (i Item) HasNote(note string) bool {
	for _, n := range i.TastingNotes {
		if n == note {
			return true
		}
	}
	return false
}

// HasBrewMethod reports whether the item lists the given brew method.
func (i Item) HasBrewMethod(method string) bool {
	for _, m := range i.BrewMethods {
		if m == method {
			return true
		}
	}
	return false
}

// ContainsAny reports whether any of the item's allergens appears in the
// given exclusion set.
func (i Item) ContainsAny(excluded map[string]struct{}) bool {
	for _, a := range i.Allergens {
		if _, ok := excluded[a]; ok {
			return true
		}
	}
	return false
}
