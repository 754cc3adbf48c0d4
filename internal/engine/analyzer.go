package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scrypster/lookalike/internal/similarity"
	"github.com/scrypster/lookalike/pkg/types"
)

// Analyzer runs the complete similarity analysis over a population: every
// pair is scored and classified, then each tier's graph is partitioned into
// groups.
type Analyzer struct {
	scorer *similarity.Scorer
	driver *Driver
	logger *zap.Logger
}

// NewAnalyzer creates an Analyzer from the similarity thresholds and driver
// configuration. A nil logger disables logging.
func NewAnalyzer(simCfg similarity.Config, engineCfg Config, logger *zap.Logger) (*Analyzer, error) {
	if err := simCfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: invalid similarity config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	scorer := similarity.NewScorer(simCfg, logger.Named("similarity"))
	driver, err := NewDriver(scorer, engineCfg, logger.Named("driver"))
	if err != nil {
		return nil, err
	}
	return &Analyzer{scorer: scorer, driver: driver, logger: logger}, nil
}

// Run analyzes users. The caller receives either a complete analysis or an
// error, never a partial result.
func (a *Analyzer) Run(ctx context.Context, users []types.User) (*types.Analysis, error) {
	if err := validatePopulation(users); err != nil {
		return nil, err
	}

	result, err := a.driver.Evaluate(ctx, users)
	if err != nil {
		return nil, fmt.Errorf("engine: pairwise evaluation failed: %w", err)
	}

	analysis := &types.Analysis{
		RunID:           uuid.New().String(),
		CreatedAt:       time.Now().UTC(),
		StrongThreshold: a.scorer.Config().StrongThreshold,
		PairsConsidered: result.Considered,
		Pairs:           result.Pairs,
	}

	for _, tier := range types.ValidTiers {
		g := BuildGraph(result.Pairs, tier)
		communities := g.Communities()
		groups := groupsOf(tier, communities)
		a.logger.Info("built relationship groups",
			zap.String("tier", string(tier)),
			zap.Int("nodes", g.NodeCount()),
			zap.Int("edges", g.EdgeCount()),
			zap.Int("groups", len(groups)),
			zap.Float64("modularity", g.Modularity(communities)))

		if tier == types.TierStrong {
			analysis.StrongGroups = groups
		} else {
			analysis.WeakGroups = groups
		}
	}

	return analysis, nil
}

// validatePopulation rejects records without a UID and repeated UIDs, which
// would otherwise collapse into self edges of the relationship graph.
func validatePopulation(users []types.User) error {
	seen := make(map[string]int, len(users))
	for i, u := range users {
		if u.UID == "" {
			return fmt.Errorf("engine: record %d: %w", i, ErrMissingUID)
		}
		if prev, ok := seen[u.UID]; ok {
			return fmt.Errorf("engine: records %d and %d share uid %s: %w", prev, i, u.UID, ErrDuplicateUID)
		}
		seen[u.UID] = i
	}
	return nil
}
