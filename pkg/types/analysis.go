package types

import "time"

// Group is a community of at least two users within one tier's graph.
type Group struct {
	Ordinal int      `json:"ordinal"` // 1-based, in the order communities were produced
	Tier    Tier     `json:"tier"`
	Members []string `json:"members"` // UIDs in lexicographic order
}

// Analysis is the complete, consistent result of one run over a population.
type Analysis struct {
	RunID           string    `json:"run_id"`
	CreatedAt       time.Time `json:"created_at"`
	StrongThreshold int       `json:"strong_threshold"`

	// PairsConsidered is N·(N−1)/2 for a population of N users.
	// Excluded pairs are dropped silently, so PairsConsidered-len(Pairs)
	// is the only visible trace of them.
	PairsConsidered int `json:"pairs_considered"`

	Pairs        []PairEvaluation `json:"pairs"`
	StrongGroups []Group          `json:"strong_groups"`
	WeakGroups   []Group          `json:"weak_groups"`
}

// Groups returns the groups for the given tier.
func (a *Analysis) Groups(tier Tier) []Group {
	switch tier {
	case TierStrong:
		return a.StrongGroups
	case TierWeak:
		return a.WeakGroups
	default:
		return nil
	}
}
