package smoke

import "time"

// Config holds configuration for the smoke run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumItems   int           // Number of catalog items to seed
	NumReviews int           // Number of reviews to submit
	NumRaters  int           // Size of the simulated rater pool
	TopN       int           // Number of recommendations to request
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for the seeded catalog
	LogFile    string        // Log file for run output
	Verbose    bool          // Enable verbose logging
}

// Item mirrors the catalog wire schema.
type Item struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Roastery     string         `json:"roastery,omitempty"`
	Kind         string         `json:"kind"`
	Roast        string         `json:"roast,omitempty"`
	Temperature  string         `json:"temperature,omitempty"`
	Sensory      map[string]any `json:"sensory"`
	TastingNotes []string       `json:"tasting_notes,omitempty"`
	BrewMethods  []string       `json:"brew_methods,omitempty"`
	Allergens    []string       `json:"allergens,omitempty"`
	Available    bool           `json:"available"`
	Quality      Quality        `json:"quality"`
}

// Quality mirrors the aggregate statistic on a catalog item.
type Quality struct {
	Avg   *float64 `json:"avg,omitempty"`
	Count int      `json:"count"`
}

// Review mirrors the review wire schema.
type Review struct {
	ItemID  string `json:"-"`
	RaterID string `json:"rater_id"`
	Score   int    `json:"score"`
	Comment string `json:"comment,omitempty"`
}

// ReviewAck mirrors the response from review submission.
type ReviewAck struct {
	Review  map[string]any `json:"review"`
	Quality Quality        `json:"quality"`
}

// Recommendation mirrors a ranked answer.
type Recommendation struct {
	Items          []Item `json:"items"`
	UsedFallback   bool   `json:"used_fallback"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	ItemsSeeded       int
	ReviewsSubmitted  int
	ReviewsSuccessful int
	ReviewsFailed     int
	Recommendations   int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
