// Package attribute centralizes access to an item's sensory vector and
// categorical facets. All defaulting for sparsely populated items happens
// here so scoring never branches on field presence.
package attribute

import "github.com/okian/crema/internal/domain/model"

// Neutral midpoints used when an item omits a sensory dimension.
const (
	defaultAcidity    = 3
	defaultSweetness  = 3
	defaultBitterness = 2
	defaultBody       = 3
	defaultAroma      = 3
)

// Bounds of every sensory dimension.
const (
	sensoryMin = 0
	sensoryMax = 5
)

// Facets are the categorical attributes scoring cares about.
type Facets struct {
	Kind         model.Kind
	Roast        model.Roast
	TempAffinity model.TempAffinity
}

// Sensory resolves an item's raw profile into a full vector. Missing
// dimensions take their neutral midpoint; present values are clamped
// into [0,5].
func Sensory(item model.Item) model.Vector {
	return model.Vector{
		Acidity:    resolve(item.Sensory.Acidity, defaultAcidity),
		Sweetness:  resolve(item.Sensory.Sweetness, defaultSweetness),
		Bitterness: resolve(item.Sensory.Bitterness, defaultBitterness),
		Body:       resolve(item.Sensory.Body, defaultBody),
		Aroma:      resolve(item.Sensory.Aroma, defaultAroma),
	}
}

// Neutral returns the midpoint vector used as the base of context-derived
// preferences.
func Neutral() model.Vector {
	return model.Vector{
		Acidity:    defaultAcidity,
		Sweetness:  defaultSweetness,
		Bitterness: defaultBitterness,
		Body:       defaultBody,
		Aroma:      defaultAroma,
	}
}

// FacetsOf returns the item's categorical facets with defaults applied:
// roast falls back to none, temperature affinity to either.
func FacetsOf(item model.Item) Facets {
	f := Facets{
		Kind:         item.Kind,
		Roast:        item.Roast,
		TempAffinity: item.TempAffinity,
	}
	if f.Roast == "" {
		f.Roast = model.RoastNone
	}
	if f.TempAffinity == "" {
		f.TempAffinity = model.ServeEither
	}
	return f
}

func resolve(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	if *v < sensoryMin {
		return sensoryMin
	}
	if *v > sensoryMax {
		return sensoryMax
	}
	return *v
}
