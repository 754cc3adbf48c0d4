// Package postgres provides a PostgreSQL implementation of storage interfaces.
// This file contains test helpers only available during testing.
package postgres

import (
	"context"
	"fmt"
)

// TruncateForTest removes all rows from every table.
// It is intended for use in tests only.
func (s *Store) TruncateForTest(ctx context.Context) error {
	_, err := s.DB().ExecContext(ctx, `TRUNCATE TABLE user_groups, pair_evaluations, analysis_runs,
		users, addresses, employment, subscriptions RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("postgres: failed to truncate tables: %w", err)
	}
	return nil
}
