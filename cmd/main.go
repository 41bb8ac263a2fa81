package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/crema/internal/adapters/http/api"
	"github.com/okian/crema/internal/adapters/http/swagger"
	"github.com/okian/crema/internal/adapters/weatherapi"
	service "github.com/okian/crema/internal/app"
	"github.com/okian/crema/internal/config"
	"github.com/okian/crema/internal/domain/scoring"
	"github.com/okian/crema/pkg/logger"
	"github.com/okian/crema/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	weatherClient := weatherapi.New(
		weatherapi.WithBaseURL(cfg.WeatherAPIBase),
		weatherapi.WithAPIKey(cfg.WeatherAPIKey),
		weatherapi.WithCacheTTL(time.Duration(cfg.WeatherCacheTTLSec)*time.Second),
	)

	svc := service.New(
		service.WithLogger(log),
		service.WithTopK(cfg.TopK),
		service.WithShardCount(cfg.ShardCount),
		service.WithScoringParallelism(cfg.ScoringParallelism),
		service.WithScoreWeights(scoring.Weights{
			Categorical: cfg.CategoricalWeight,
			Distance:    cfg.DistanceWeight,
			Quality:     cfg.QualityWeight,
		}),
		service.WithWeather(weatherClient),
		service.WithDefaultCity(cfg.DefaultCity),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()

	// Register API docs under /api-docs
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, cfg.MaxListLimit,
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	mux.Handle("/", apiServer.Routes())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater refreshes the catalog and review gauges on a
// fixed interval so scrapes stay close to the truth between requests.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.Stats(ctx)
			if size, ok := stats["catalogSize"].(int); ok {
				metrics.UpdateCatalogSize(size)
			}
			if count, ok := stats["reviewCount"].(int); ok {
				metrics.UpdateReviewCount(count)
			}
		}
	}
}
