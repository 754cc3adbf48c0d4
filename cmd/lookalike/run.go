package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/scrypster/lookalike/internal/collector"
	"github.com/scrypster/lookalike/internal/config"
	"github.com/scrypster/lookalike/internal/dataset"
	"github.com/scrypster/lookalike/internal/engine"
	"github.com/scrypster/lookalike/internal/report"
	"github.com/scrypster/lookalike/internal/similarity"
	"github.com/scrypster/lookalike/internal/storage"
	"github.com/scrypster/lookalike/internal/storage/postgres"
	"github.com/scrypster/lookalike/internal/storage/sqlite"
	"github.com/scrypster/lookalike/pkg/types"
)

type options struct {
	Fetch    bool   // fetch from the data API before analyzing
	Input    string // user CSV path, empty for <csv dir>/random_users.csv
	Snapshot string // SQLite snapshot path written after the run, empty to skip
}

// snapshotter is implemented by stores that can copy themselves to a file.
type snapshotter interface {
	Snapshot(ctx context.Context, destPath string) error
}

// run executes the pipeline: acquire users, persist them, analyze, then
// write and persist the results.
func run(ctx context.Context, cfg *config.Config, opts options, log *zap.Logger) error {
	input := opts.Input
	if input == "" {
		input = filepath.Join(cfg.Output.CSVDir, dataset.DefaultFilename)
	}

	if opts.Fetch {
		client := collector.NewClient(collectorConfig(cfg), log.Named("collector"))
		fetched, err := client.FetchUsers(ctx, cfg.Collector.Total, cfg.Collector.BatchSize)
		if err != nil {
			return fmt.Errorf("fetch users: %w", err)
		}
		if err := dataset.WriteUsers(input, fetched); err != nil {
			return err
		}
		log.Info("saved users", zap.Int("users", len(fetched)), zap.String("path", input))
	}

	users, err := dataset.ReadUsers(input)
	if err != nil {
		return err
	}
	if invalid := dataset.InvalidUIDs(users); len(invalid) > 0 {
		log.Warn("users with non-UUID uids", zap.Int("count", len(invalid)), zap.Strings("sample", sample(invalid, 5)))
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn("failed to close store", zap.Error(err))
			}
		}()

		if users, err = loadThroughStore(ctx, store, users, log); err != nil {
			return err
		}
	}

	analyzer, err := engine.NewAnalyzer(similarityConfig(cfg), engineConfig(cfg), log.Named("engine"))
	if err != nil {
		return err
	}
	analysis, err := analyzer.Run(ctx, users)
	if err != nil {
		return err
	}

	paths, err := report.WriteAll(cfg.Output.CSVDir, analysis)
	if err != nil {
		return err
	}
	log.Info("wrote reports", zap.Strings("paths", paths))

	if store != nil {
		if err := store.SaveAnalysis(ctx, analysis); err != nil {
			return fmt.Errorf("save analysis: %w", err)
		}
	}

	if opts.Snapshot != "" {
		snap, ok := store.(snapshotter)
		if !ok {
			return fmt.Errorf("snapshot requires the %s storage engine", config.EngineSQLite)
		}
		if err := snap.Snapshot(ctx, opts.Snapshot); err != nil {
			return err
		}
		log.Info("wrote database snapshot", zap.String("path", opts.Snapshot))
	}

	log.Info("analysis complete", zap.Object("summary", report.Summarize(analysis)))
	return nil
}

// loadThroughStore saves users into the normalized tables and reads this
// run's population back, logging the most common property values across
// everything stored. Users saved by earlier runs stay in the store but are
// not analyzed again.
func loadThroughStore(ctx context.Context, store storage.Store, users []types.User, log *zap.Logger) ([]types.User, error) {
	if err := store.SaveUsers(ctx, users); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}

	common, err := store.MostCommonProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("most common properties: %w", err)
	}
	fields := make([]zap.Field, 0, len(common))
	for _, pc := range common {
		fields = append(fields, zap.String(pc.Property, fmt.Sprintf("%s (%d)", pc.Value, pc.Count)))
	}
	log.Info("most common properties", fields...)

	stored, err := store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	wanted := make(map[string]struct{}, len(users))
	for _, u := range users {
		wanted[u.UID] = struct{}{}
	}
	population := make([]types.User, 0, len(users))
	for _, u := range stored {
		if _, ok := wanted[u.UID]; ok {
			population = append(population, u)
		}
	}
	if len(stored) > len(population) {
		log.Debug("skipping users from earlier runs", zap.Int("count", len(stored)-len(population)))
	}
	return population, nil
}

// openStore opens the configured backend, or returns nil for EngineNone.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	switch cfg.Storage.Engine {
	case config.EngineNone:
		return nil, nil
	case config.EnginePostgres:
		store, err := postgres.NewStore(ctx, cfg.Storage.Postgres.DSN())
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", cfg.Storage.DataPath, err)
		}
		store, err := sqlite.NewStore(cfg.SQLitePath(), log.Named("sqlite"))
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func similarityConfig(cfg *config.Config) similarity.Config {
	return similarity.Config{
		StrongThreshold: cfg.Similarity.StrongThreshold,
		FuzzyThreshold:  cfg.Similarity.FuzzyThreshold,
		ProximityKm:     cfg.Similarity.ProximityKm,
	}
}

func engineConfig(cfg *config.Config) engine.Config {
	ec := engine.DefaultConfig()
	if cfg.Engine.Workers > 0 {
		ec.Workers = cfg.Engine.Workers
	}
	return ec
}

func collectorConfig(cfg *config.Config) collector.Config {
	return collector.Config{
		URL:               cfg.Collector.APIURL,
		MaxRetries:        cfg.Collector.MaxRetries,
		InitialDelay:      cfg.Collector.InitialDelay,
		MaxDelay:          cfg.Collector.MaxDelay,
		RequestsPerSecond: cfg.Collector.RequestsPerSecond,
		Timeout:           cfg.Collector.Timeout,
		Breaker:           collector.DefaultCircuitBreakerConfig(),
	}
}

func sample(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}
