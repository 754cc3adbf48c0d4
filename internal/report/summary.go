package report

import (
	"go.uber.org/zap/zapcore"

	"github.com/scrypster/lookalike/pkg/types"
)

// TierSummary describes the pairs and groups of one tier.
type TierSummary struct {
	Pairs   int   `json:"pairs"`
	Groups  int   `json:"groups"`
	Sizes   []int `json:"sizes"` // Group sizes by group number
	Users   int   `json:"users"` // Users placed in a group of this tier
	Largest int   `json:"largest"`
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s TierSummary) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("pairs", s.Pairs)
	enc.AddInt("groups", s.Groups)
	enc.AddInt("users", s.Users)
	enc.AddInt("largest", s.Largest)
	return nil
}

// Summary holds the group statistics of an analysis run.
type Summary struct {
	RunID           string      `json:"run_id"`
	PairsConsidered int         `json:"pairs_considered"`
	PairsExcluded   int         `json:"pairs_excluded"`
	Strong          TierSummary `json:"strong"`
	Weak            TierSummary `json:"weak"`
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s Summary) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("run_id", s.RunID)
	enc.AddInt("pairs_considered", s.PairsConsidered)
	enc.AddInt("pairs_excluded", s.PairsExcluded)
	if err := enc.AddObject("strong", s.Strong); err != nil {
		return err
	}
	return enc.AddObject("weak", s.Weak)
}

// Summarize computes the group statistics of analysis.
func Summarize(analysis *types.Analysis) Summary {
	s := Summary{
		RunID:           analysis.RunID,
		PairsConsidered: analysis.PairsConsidered,
		PairsExcluded:   analysis.PairsConsidered - len(analysis.Pairs),
		Strong:          summarizeTier(analysis.StrongGroups),
		Weak:            summarizeTier(analysis.WeakGroups),
	}
	for i := range analysis.Pairs {
		switch analysis.Pairs[i].Tier {
		case types.TierStrong:
			s.Strong.Pairs++
		case types.TierWeak:
			s.Weak.Pairs++
		}
	}
	if s.PairsExcluded < 0 {
		s.PairsExcluded = 0
	}
	return s
}

func summarizeTier(groups []types.Group) TierSummary {
	t := TierSummary{
		Groups: len(groups),
		Sizes:  make([]int, len(groups)),
	}
	for i, g := range groups {
		n := len(g.Members)
		t.Sizes[i] = n
		t.Users += n
		t.Largest = max(t.Largest, n)
	}
	return t
}
