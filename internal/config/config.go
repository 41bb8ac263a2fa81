// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// TopK is the default number of recommendations returned.
	TopK int `koanf:"top_k"`

	// MaxListLimit caps catalog and review listing page sizes.
	MaxListLimit int `koanf:"max_list_limit"`

	// ShardCount configures the number of shards in the review store.
	ShardCount int `koanf:"shard_count"`

	// ScoringParallelism bounds concurrent candidate scoring.
	ScoringParallelism int `koanf:"scoring_parallelism"`

	// Score term weights. The split is a tunable default.
	CategoricalWeight float64 `koanf:"categorical_weight"`
	DistanceWeight    float64 `koanf:"distance_weight"`
	QualityWeight     float64 `koanf:"quality_weight"`

	// Weather upstream settings. An empty API key disables the upstream
	// and every context request classifies against the static default.
	WeatherAPIBase     string `koanf:"weather_api_base"`
	WeatherAPIKey      string `koanf:"weather_api_key"`
	WeatherCacheTTLSec int    `koanf:"weather_cache_ttl_sec"`
	DefaultCity        string `koanf:"default_city"`

	// Rate limiting for the HTTP API.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		TopK:               6,
		MaxListLimit:       50,
		ShardCount:         8,
		ScoringParallelism: runtime.NumCPU(),
		CategoricalWeight:  0.6,
		DistanceWeight:     0.3,
		QualityWeight:      0.1,
		WeatherAPIBase:     "https://api.openweathermap.org/data/2.5",
		WeatherAPIKey:      "",
		WeatherCacheTTLSec: 300,
		DefaultCity:        "Sao Paulo,BR",
		RateLimitRPS:       50,
		RateLimitBurst:     100,
	}
}
