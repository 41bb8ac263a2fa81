// Package preference derives the target preference a request is scored
// against, either from a rater's review history or from explicit
// caller-supplied fields, or a merge of both.
package preference

import (
	"github.com/okian/crema/internal/domain/attribute"
	"github.com/okian/crema/internal/domain/model"
)

// positiveThreshold is the minimum score treated as positive signal.
// Lower scores contribute nothing; this is a deliberate simplification,
// not rejection of negative signal.
const positiveThreshold = 4

// RatedItem joins a live rating event to the item it rates.
type RatedItem struct {
	Event model.RatingEvent
	Item  model.Item
}

// FromHistory derives a preference from a rater's live events. Only events
// scoring at or above the positive threshold contribute, weighted by the
// rater's score. The second return is false when no positive events exist,
// which signals "no derivable preference" rather than a degenerate
// all-zero target.
func FromHistory(history []RatedItem) (model.Preference, bool) {
	var totalWeight float64
	var sum model.Vector
	roastMass := map[model.Roast]float64{}
	noteMass := map[string]float64{}

	for _, h := range history {
		if h.Event.Score < positiveThreshold {
			continue
		}
		w := float64(h.Event.Score)
		v := attribute.Sensory(h.Item)
		sum.Acidity += v.Acidity * w
		sum.Sweetness += v.Sweetness * w
		sum.Bitterness += v.Bitterness * w
		sum.Body += v.Body * w
		sum.Aroma += v.Aroma * w

		roastMass[attribute.FacetsOf(h.Item).Roast] += w
		for _, note := range h.Item.TastingNotes {
			noteMass[note] += w
		}
		totalWeight += w
	}

	if totalWeight == 0 {
		return model.Preference{}, false
	}

	p := model.Preference{
		Sensory: model.Vector{
			Acidity:    sum.Acidity / totalWeight,
			Sweetness:  sum.Sweetness / totalWeight,
			Bitterness: sum.Bitterness / totalWeight,
			Body:       sum.Body / totalWeight,
			Aroma:      sum.Aroma / totalWeight,
		},
		RoastWeight: make(map[model.Roast]float64, len(roastMass)),
		NoteWeight:  make(map[string]float64, len(noteMass)),
	}
	for r, m := range roastMass {
		p.RoastWeight[r] = m / totalWeight
	}
	for n, m := range noteMass {
		p.NoteWeight[n] = m / totalWeight
	}
	return p, true
}

// Explicit carries caller-supplied preference and constraint fields. The
// preference-shaping fields are Desired, Roasts, and Kind; the allergen
// exclusions and price ceiling are hard constraints handled by the scoring
// filter, not part of the target.
type Explicit struct {
	Desired          *model.SensoryProfile
	Roasts           []model.Roast
	Kind             *model.Kind
	ExcludeAllergens []string
	MaxPrice         *float64
}

// ShapesPreference reports whether the explicit fields carry any
// preference signal, as opposed to constraints only.
func (e *Explicit) ShapesPreference() bool {
	if e == nil {
		return false
	}
	return e.Desired != nil || len(e.Roasts) > 0 || e.Kind != nil
}

// Merge layers explicit fields over a derived preference. Explicit fields
// override the corresponding derived field; unspecified fields keep the
// derived value. When no derived preference exists the explicit fields are
// layered over the neutral target instead. The second return is false only
// when neither source contributes anything.
func Merge(derived model.Preference, derivedOK bool, exp *Explicit) (model.Preference, bool) {
	if !derivedOK && !exp.ShapesPreference() {
		return model.Preference{}, false
	}

	p := derived
	if !derivedOK {
		p = model.Preference{Sensory: attribute.Neutral()}
	}

	if exp == nil {
		return p, true
	}

	if d := exp.Desired; d != nil {
		if d.Acidity != nil {
			p.Sensory.Acidity = *d.Acidity
		}
		if d.Sweetness != nil {
			p.Sensory.Sweetness = *d.Sweetness
		}
		if d.Bitterness != nil {
			p.Sensory.Bitterness = *d.Bitterness
		}
		if d.Body != nil {
			p.Sensory.Body = *d.Body
		}
		if d.Aroma != nil {
			p.Sensory.Aroma = *d.Aroma
		}
	}

	if len(exp.Roasts) > 0 {
		p.RoastWeight = make(map[model.Roast]float64, len(exp.Roasts))
		for _, r := range exp.Roasts {
			p.RoastWeight[r] = 1
		}
	}

	if exp.Kind != nil {
		p.KindBonus = map[model.Kind]float64{*exp.Kind: 1}
	}

	return p, true
}
