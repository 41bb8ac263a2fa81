package weather

import (
	"github.com/okian/crema/internal/domain/attribute"
	"github.com/okian/crema/internal/domain/model"
)

// Boost values for context-derived preferences. Each bucket activates a
// disjoint set of boosts layered onto the neutral sensory target.
const (
	strongBoost = 2.0
	mediumBoost = 1.5
	baseBoost   = 1.0
	lightBoost  = 0.5

	// Sensory target shifts applied by rain and nighttime.
	rainAromaShift   = 1.0
	nightAcidityShift = 1.0
)

// PreferenceFrom maps a weather context into a scoring preference. Boosts
// are additive and non-exclusive: the bucket, rain, and part-of-day layers
// each contribute independently.
func PreferenceFrom(wc model.WeatherContext) model.Preference {
	p := model.Preference{
		Sensory:       attribute.Neutral(),
		RoastWeight:   map[model.Roast]float64{},
		KindBonus:     map[model.Kind]float64{},
		NoteWeight:    map[string]float64{},
		BrewBonus:     map[string]float64{},
		ServeBonus:    map[model.TempAffinity]float64{},
		ContainsBonus: map[string]float64{},
	}

	switch wc.TempBucket {
	case model.BucketHot:
		p.BrewBonus["cold-brew"] = strongBoost
		p.BrewBonus["iced"] = mediumBoost
		p.RoastWeight[model.RoastLight] = baseBoost
		p.RoastWeight[model.RoastMedium] = baseBoost
		p.KindBonus[model.KindDrink] = baseBoost
		p.ServeBonus[model.ServeCold] = mediumBoost
	case model.BucketCold:
		p.BrewBonus["espresso"] = baseBoost
		p.BrewBonus["mokapot"] = baseBoost
		p.BrewBonus["steam-milk"] = lightBoost
		p.RoastWeight[model.RoastDark] = baseBoost
		p.KindBonus[model.KindDrink] = baseBoost
		p.ServeBonus[model.ServeHot] = mediumBoost
		p.ContainsBonus["milk"] = baseBoost
	case model.BucketWarm, model.BucketMild:
		p.RoastWeight[model.RoastMedium] = baseBoost
		p.KindBonus[model.KindBean] = lightBoost
		p.ServeBonus[model.ServeEither] = baseBoost
	}

	if wc.Rainy {
		p.Sensory.Aroma = clamp(p.Sensory.Aroma + rainAromaShift)
		p.NoteWeight["comfort"] = baseBoost
		p.RoastWeight[model.RoastDark] += lightBoost
	}

	switch wc.PartOfDay {
	case model.Morning:
		p.BrewBonus["v60"] = baseBoost
		p.BrewBonus["kalita"] = baseBoost
		p.BrewBonus["pour-over"] = baseBoost
	case model.Night:
		p.Sensory.Acidity = clamp(p.Sensory.Acidity - nightAcidityShift)
	case model.Day:
		// No adjustment for daytime.
	}

	return p
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return v
}
