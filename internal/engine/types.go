// Package engine provides the pairwise evaluation driver and the
// relationship graph builder. The driver fans every unordered pair of a
// population out to a fixed worker pool; the graph builder partitions the
// resulting per-tier graphs into communities by greedy modularity merging.
package engine

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/scrypster/lookalike/pkg/types"
)

var (
	// ErrMissingUID indicates a record without a UID in the population.
	ErrMissingUID = errors.New("user record has no uid")

	// ErrDuplicateUID indicates two records sharing a UID in the population.
	ErrDuplicateUID = errors.New("duplicate user uid")
)

// Comparer evaluates a single pair of users. Implementations must be pure
// functions of their inputs so that pairs can be evaluated in any order on
// any worker.
type Comparer interface {
	Compare(a, b *types.User) (*types.PairEvaluation, bool)
}

// Config holds configuration for the pairwise driver.
type Config struct {
	// Workers is the number of concurrent pair workers (default: runtime.NumCPU()).
	Workers int
}

// DefaultConfig returns a Config sized to the host.
func DefaultConfig() Config {
	return Config{
		Workers: runtime.NumCPU(),
	}
}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("Workers must be >= 1, got %d", c.Workers)
	}
	return nil
}

// pairJob identifies one unordered pair by population index, i < j.
type pairJob struct {
	i, j int
}

// WorkerError reports a failure inside a pair task. Any WorkerError aborts
// the whole run.
type WorkerError struct {
	UID1 string
	UID2 string
	Err  error
}

// Error implements the error interface
func (e *WorkerError) Error() string {
	return fmt.Sprintf("pair worker failed on (%s, %s): %v", e.UID1, e.UID2, e.Err)
}

// Unwrap returns the underlying failure
func (e *WorkerError) Unwrap() error {
	return e.Err
}

// PairCount returns N·(N−1)/2, the number of unordered pairs in a population of n.
func PairCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}
