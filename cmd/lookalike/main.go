// Command lookalike scores every pair of users for duplicate or fraud
// similarity and groups them into strong and weak communities.
//
// Usage:
//
//	lookalike [-fetch] [-input random_users.csv] [-output output_csv] [-store sqlite|postgres|none]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/scrypster/lookalike/internal/config"
	"github.com/scrypster/lookalike/internal/logger"
)

var (
	configPath      = flag.String("config", "", "Path to YAML config file (optional, uses env vars by default)")
	fetch           = flag.Bool("fetch", false, "Fetch users from the data API and write the input CSV first")
	inputPath       = flag.String("input", "", "Path to the user CSV (default: <output>/random_users.csv)")
	outputDir       = flag.String("output", "", "Directory for report CSV files (overrides config)")
	storeEngine     = flag.String("store", "", "Storage engine: sqlite, postgres or none (overrides config)")
	strongThreshold = flag.Int("strong-threshold", 0, "Minimum total points for a strong pair (overrides config)")
	workers         = flag.Int("workers", -1, "Number of pair workers, 0 for one per CPU (overrides config)")
	snapshotPath    = flag.String("snapshot", "", "Write a verified SQLite snapshot to this path after the run")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Env); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		Fetch:    *fetch,
		Input:    *inputPath,
		Snapshot: *snapshotPath,
	}
	if err := run(ctx, cfg, opts, log); err != nil {
		log.Error("lookalike failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// applyFlags overrides configuration with command-line flags that were set.
func applyFlags(cfg *config.Config) {
	if *outputDir != "" {
		cfg.Output.CSVDir = *outputDir
	}
	if *storeEngine != "" {
		cfg.Storage.Engine = *storeEngine
	}
	if *strongThreshold > 0 {
		cfg.Similarity.StrongThreshold = *strongThreshold
	}
	if *workers >= 0 {
		cfg.Engine.Workers = *workers
	}
}
