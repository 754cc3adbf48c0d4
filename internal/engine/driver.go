package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scrypster/lookalike/pkg/types"
)

// PairResult is the outcome of evaluating every pair of a population.
type PairResult struct {
	// Pairs holds the non-excluded evaluations in completion order.
	Pairs []types.PairEvaluation

	// Considered is the number of pairs evaluated, always N·(N−1)/2.
	Considered int
}

// Driver evaluates all unordered pairs of a population across a worker pool.
type Driver struct {
	comparer Comparer
	config   Config
	logger   *zap.Logger
}

// NewDriver creates a Driver. A nil logger disables logging.
func NewDriver(comparer Comparer, config Config, logger *zap.Logger) (*Driver, error) {
	if comparer == nil {
		return nil, fmt.Errorf("engine: comparer is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("engine: invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{comparer: comparer, config: config, logger: logger}, nil
}

// Evaluate compares every unordered pair of users exactly once and returns
// the evaluations that were not excluded. The set of results does not depend
// on the worker count; their order does.
//
// A failure in any pair task cancels the remaining work and is returned as a
// *WorkerError; no partial result is ever returned. Populations with fewer
// than two users yield an empty result.
func (d *Driver) Evaluate(ctx context.Context, users []types.User) (*PairResult, error) {
	n := len(users)
	total := PairCount(n)
	if total == 0 {
		return &PairResult{Pairs: []types.PairEvaluation{}}, nil
	}

	workers := min(d.config.Workers, total)
	d.logger.Info("comparing pairs",
		zap.Int("users", n),
		zap.Int("pairs", total),
		zap.Int("workers", workers))
	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan pairJob, workers*4)
	results := make(chan types.PairEvaluation, workers*4)
	var considered atomic.Int64

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				select {
				case jobs <- pairJob{i: i, j: j}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for job := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				eval, ok, err := d.evaluate(&users[job.i], &users[job.j])
				if err != nil {
					return err
				}
				considered.Add(1)
				if !ok {
					continue
				}
				select {
				case results <- *eval:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	pairs := make([]types.PairEvaluation, 0)
	for eval := range results {
		pairs = append(pairs, eval)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.logger.Info("pair comparison complete",
		zap.Int64("considered", considered.Load()),
		zap.Int("emitted", len(pairs)),
		zap.Duration("elapsed", time.Since(started)))

	return &PairResult{Pairs: pairs, Considered: int(considered.Load())}, nil
}

// evaluate runs one comparison, converting a panic into a *WorkerError.
func (d *Driver) evaluate(a, b *types.User) (eval *types.PairEvaluation, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			eval, ok = nil, false
			err = &WorkerError{UID1: a.UID, UID2: b.UID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	eval, ok = d.comparer.Compare(a, b)
	if ok && (eval == nil || eval.Tier == types.TierNone) {
		return nil, false, &WorkerError{UID1: a.UID, UID2: b.UID, Err: fmt.Errorf("comparer returned an unclassified evaluation")}
	}
	return eval, ok, nil
}
