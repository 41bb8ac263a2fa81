// Package weather maps raw ambient-weather readings into a discrete context
// and turns that context into a scoring preference. Ambient data is
// best-effort: an absent reading classifies to a fixed default instead of
// failing.
package weather

import (
	"strings"
	"time"

	"github.com/okian/crema/internal/domain/model"
)

// Bucket thresholds in degrees Celsius.
const (
	hotThreshold  = 28
	coldThreshold = 16
	warmThreshold = 22
)

// Part-of-day boundaries (local hour).
const (
	morningStartHour = 5
	dayStartHour     = 11
	nightStartHour   = 18
)

// Reading is a raw upstream weather observation. Temp is nil when the
// upstream response omitted it.
type Reading struct {
	TempC      *float64
	Conditions string // upstream condition word, e.g. "Rain", "Clouds"
}

// DefaultContext is the fixed classification used when no reading exists.
// It is a legitimate scoring context, not a failure.
func DefaultContext(pod model.PartOfDay) model.WeatherContext {
	return model.WeatherContext{
		TempBucket: model.BucketMild,
		Rainy:      false,
		PartOfDay:  pod,
	}
}

// Classify maps a reading into a discrete weather context. A nil reading or
// a reading without temperature yields the default mild, dry context.
func Classify(r *Reading, pod model.PartOfDay) model.WeatherContext {
	if r == nil || r.TempC == nil {
		return DefaultContext(pod)
	}

	bucket := model.BucketMild
	switch t := *r.TempC; {
	case t >= hotThreshold:
		bucket = model.BucketHot
	case t <= coldThreshold:
		bucket = model.BucketCold
	case t >= warmThreshold:
		bucket = model.BucketWarm
	}

	return model.WeatherContext{
		TempBucket: bucket,
		Rainy:      strings.Contains(strings.ToLower(r.Conditions), "rain"),
		PartOfDay:  pod,
	}
}

// PartOfDayAt buckets a clock time into morning, day, or night.
func PartOfDayAt(t time.Time) model.PartOfDay {
	switch h := t.Hour(); {
	case h >= morningStartHour && h < dayStartHour:
		return model.Morning
	case h >= dayStartHour && h < nightStartHour:
		return model.Day
	default:
		return model.Night
	}
}

// ParsePartOfDay interprets a caller-supplied hint, falling back to the
// clock when the hint is empty or unknown.
func ParsePartOfDay(hint string, now time.Time) model.PartOfDay {
	switch model.PartOfDay(strings.ToLower(strings.TrimSpace(hint))) {
	case model.Morning:
		return model.Morning
	case model.Day:
		return model.Day
	case model.Night:
		return model.Night
	default:
		return PartOfDayAt(now)
	}
}
