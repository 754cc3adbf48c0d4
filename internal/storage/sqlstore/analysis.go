package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scrypster/lookalike/internal/storage"
	"github.com/scrypster/lookalike/pkg/types"
)

// SaveAnalysis stores a run, replacing any previous run with the same id.
func (s *Store) SaveAnalysis(ctx context.Context, analysis *types.Analysis) error {
	if analysis == nil {
		return storage.ErrInvalidInput
	}
	if analysis.RunID == "" {
		return fmt.Errorf("%w: run id is required", storage.ErrInvalidInput)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"user_groups", "pair_evaluations", "analysis_runs"} {
			if _, err := tx.ExecContext(ctx,
				s.rebind("DELETE FROM "+table+" WHERE run_id = ?"), analysis.RunID); err != nil {
				return s.errorf("failed to clear %s: %w", table, err)
			}
		}

		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO analysis_runs (run_id, created_at, strong_threshold, pairs_considered)
			VALUES (?, ?, ?, ?)`),
			analysis.RunID, analysis.CreatedAt.UTC(), analysis.StrongThreshold, analysis.PairsConsidered,
		); err != nil {
			return s.errorf("failed to insert run: %w", err)
		}

		pairStmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO pair_evaluations (run_id, uid1, uid2,
				personal_points, personal_evidence,
				address_points, address_evidence,
				employment_points, employment_evidence,
				subscription_points, subscription_evidence,
				total_points, tier)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return s.errorf("failed to prepare pair insert: %w", err)
		}
		defer func() { _ = pairStmt.Close() }()

		for i := range analysis.Pairs {
			p := &analysis.Pairs[i]
			if _, err := pairStmt.ExecContext(ctx,
				analysis.RunID, p.UID1, p.UID2,
				p.Personal.Points, p.Personal.Summary(),
				p.Address.Points, p.Address.Summary(),
				p.Employment.Points, p.Employment.Summary(),
				p.Subscription.Points, p.Subscription.Summary(),
				p.Total, string(p.Tier),
			); err != nil {
				return s.errorf("failed to insert pair %s/%s: %w", p.UID1, p.UID2, err)
			}
		}

		groupStmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO user_groups (run_id, tier, ordinal, uid) VALUES (?, ?, ?, ?)`))
		if err != nil {
			return s.errorf("failed to prepare group insert: %w", err)
		}
		defer func() { _ = groupStmt.Close() }()

		for _, tier := range types.ValidTiers {
			for _, g := range analysis.Groups(tier) {
				for _, uid := range g.Members {
					if _, err := groupStmt.ExecContext(ctx, analysis.RunID, string(tier), g.Ordinal, uid); err != nil {
						return s.errorf("failed to insert %s group %d: %w", tier, g.Ordinal, err)
					}
				}
			}
		}
		return nil
	})
}

// GetAnalysis retrieves a run by id.
func (s *Store) GetAnalysis(ctx context.Context, runID string) (*types.Analysis, error) {
	analysis := &types.Analysis{
		RunID:        runID,
		Pairs:        make([]types.PairEvaluation, 0),
		StrongGroups: make([]types.Group, 0),
		WeakGroups:   make([]types.Group, 0),
	}

	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT created_at, strong_threshold, pairs_considered
		FROM analysis_runs WHERE run_id = ?`), runID,
	).Scan(&analysis.CreatedAt, &analysis.StrongThreshold, &analysis.PairsConsidered)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: analysis run %s", storage.ErrNotFound, runID)
	}
	if err != nil {
		return nil, s.errorf("failed to get analysis run: %w", err)
	}
	analysis.CreatedAt = analysis.CreatedAt.UTC()

	if err := s.loadPairs(ctx, analysis); err != nil {
		return nil, err
	}
	if err := s.loadGroups(ctx, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

func (s *Store) loadPairs(ctx context.Context, analysis *types.Analysis) error {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT uid1, uid2,
			personal_points, personal_evidence,
			address_points, address_evidence,
			employment_points, employment_evidence,
			subscription_points, subscription_evidence,
			total_points, tier
		FROM pair_evaluations WHERE run_id = ?
		ORDER BY uid1, uid2`), analysis.RunID)
	if err != nil {
		return s.errorf("failed to query pairs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			p        types.PairEvaluation
			tier     string
			evidence [4]string
		)
		if err := rows.Scan(&p.UID1, &p.UID2,
			&p.Personal.Points, &evidence[0],
			&p.Address.Points, &evidence[1],
			&p.Employment.Points, &evidence[2],
			&p.Subscription.Points, &evidence[3],
			&p.Total, &tier,
		); err != nil {
			return s.errorf("failed to scan pair: %w", err)
		}
		p.Tier = types.ParseTier(tier)

		scores := []*types.FacetScore{&p.Personal, &p.Address, &p.Employment, &p.Subscription}
		for i, score := range scores {
			if score.Evidence, err = types.ParseEvidence(evidence[i]); err != nil {
				return s.errorf("pair %s/%s: %w", p.UID1, p.UID2, err)
			}
		}
		analysis.Pairs = append(analysis.Pairs, p)
	}
	if err := rows.Err(); err != nil {
		return s.errorf("failed to iterate pairs: %w", err)
	}
	return nil
}

func (s *Store) loadGroups(ctx context.Context, analysis *types.Analysis) error {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT tier, ordinal, uid FROM user_groups
		WHERE run_id = ?
		ORDER BY tier, ordinal, uid`), analysis.RunID)
	if err != nil {
		return s.errorf("failed to query groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			tierName string
			ordinal  int
			uid      string
		)
		if err := rows.Scan(&tierName, &ordinal, &uid); err != nil {
			return s.errorf("failed to scan group member: %w", err)
		}

		tier := types.ParseTier(tierName)
		if tier == types.TierNone {
			continue
		}
		groups := &analysis.StrongGroups
		if tier == types.TierWeak {
			groups = &analysis.WeakGroups
		}
		if n := len(*groups); n == 0 || (*groups)[n-1].Ordinal != ordinal {
			*groups = append(*groups, types.Group{Ordinal: ordinal, Tier: tier})
		}
		last := &(*groups)[len(*groups)-1]
		last.Members = append(last.Members, uid)
	}
	if err := rows.Err(); err != nil {
		return s.errorf("failed to iterate groups: %w", err)
	}
	return nil
}
