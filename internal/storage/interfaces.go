// Package storage provides composable storage interfaces for the Lookalike system.
//
// The storage layer is built from small, focused interfaces: UserStore keeps
// the normalized user population and AnalysisStore keeps the results of
// analysis runs. Backends implement both and are composed through Store.
package storage

import (
	"context"

	"github.com/scrypster/lookalike/pkg/types"
)

// UserStore persists the user population in normalized form
// (users plus their addresses, employment and subscriptions).
type UserStore interface {
	// SaveUsers creates or updates users keyed by UID (upsert semantics).
	// All users are written in a single transaction.
	SaveUsers(ctx context.Context, users []types.User) error

	// ListUsers returns every stored user as a flat record, ordered by UID.
	ListUsers(ctx context.Context) ([]types.User, error)

	// MostCommonProperties returns, for each entry of Properties, the most
	// frequent non-empty value and its count. Ties are broken by value
	// ascending. Properties without any value are omitted.
	MostCommonProperties(ctx context.Context) ([]PropertyCount, error)
}

// AnalysisStore persists analysis runs.
type AnalysisStore interface {
	// SaveAnalysis stores a run with its pairs and groups. Saving a run id
	// that already exists replaces the previous run.
	SaveAnalysis(ctx context.Context, analysis *types.Analysis) error

	// GetAnalysis retrieves a run by id.
	// Returns ErrNotFound if the run doesn't exist.
	GetAnalysis(ctx context.Context, runID string) (*types.Analysis, error)
}

// Store is the complete storage backend.
type Store interface {
	UserStore
	AnalysisStore

	// Init creates the schema. It is idempotent.
	Init(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
