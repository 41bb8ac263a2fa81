package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/crema/internal/smoke"
)

// Default configuration constants.
const (
	defaultNumItems   = 50
	defaultNumReviews = 500
	defaultNumRaters  = 40
	defaultTopN       = 6
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numItems   = flag.Int("items", defaultNumItems, "Number of catalog items to seed")
		numReviews = flag.Int("reviews", defaultNumReviews, "Number of reviews to submit")
		numRaters  = flag.Int("raters", defaultNumRaters, "Size of the simulated rater pool")
		topN       = flag.Int("top", defaultTopN, "Number of recommendations to request")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for the seeded catalog (default: seeded_catalog_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for run output (default: smoke_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoke.ShowHelp()
		return
	}

	if err := smoke.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &smoke.Config{
		BaseURL:    *baseURL,
		NumItems:   *numItems,
		NumReviews: *numReviews,
		NumRaters:  *numRaters,
		TopN:       *topN,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	if err := smoke.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Smoke run failed: " + err.Error() + "\n")
		return
	}
}
