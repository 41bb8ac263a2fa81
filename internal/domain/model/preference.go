package model

// Vector is a fully resolved five-dimension sensory vector. Values are
// always within [0,5]; resolution from a SensoryProfile lives in the
// attribute package.
type Vector struct {
	Acidity    float64 `json:"acidity"`
	Sweetness  float64 `json:"sweetness"`
	Bitterness float64 `json:"bitterness"`
	Body       float64 `json:"body"`
	Aroma      float64 `json:"aroma"`
}

// Preference is the ephemeral target a request is scored against: a sensory
// vector plus categorical weights. Built fresh per request, never persisted.
type Preference struct {
	Sensory     Vector                   `json:"sensory"`
	RoastWeight map[Roast]float64        `json:"roast_weight,omitempty"`
	KindBonus   map[Kind]float64         `json:"kind_bonus,omitempty"`
	NoteWeight  map[string]float64       `json:"note_weight,omitempty"`
	BrewBonus   map[string]float64       `json:"brew_bonus,omitempty"`
	ServeBonus  map[TempAffinity]float64 `json:"serve_bonus,omitempty"`
	// ContainsBonus rewards items carrying an ingredient tag, e.g. milk
	// drinks in cold weather. Keyed by allergen/ingredient tag.
	ContainsBonus map[string]float64 `json:"contains_bonus,omitempty"`
}

// TempBucket is the discrete ambient-temperature classification.
type TempBucket string

// Temperature buckets.
const (
	BucketCold TempBucket = "cold"
	BucketMild TempBucket = "mild"
	BucketWarm TempBucket = "warm"
	BucketHot  TempBucket = "hot"
)

// PartOfDay is a coarse time-of-day hint.
type PartOfDay string

// Parts of the day.
const (
	Morning PartOfDay = "morning"
	Day     PartOfDay = "day"
	Night   PartOfDay = "night"
)

// WeatherContext is the discrete context derived from a raw weather reading,
// or from the static default when no reading is available.
type WeatherContext struct {
	TempBucket TempBucket `json:"temp_bucket"`
	Rainy      bool       `json:"is_rainy"`
	PartOfDay  PartOfDay  `json:"part_of_day"`
}

// ScoredCandidate pairs an item id with its computed score. It exists only
// to order results; callers only ever see the final ordered id list.
type ScoredCandidate struct {
	ItemID string
	Score  float64
}
