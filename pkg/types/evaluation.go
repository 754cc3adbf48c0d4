package types

import (
	"fmt"
	"strconv"
	"strings"
)

// EvidenceSeparator joins evidence entries in their human-readable form.
const EvidenceSeparator = "; "

// Facet names one of the four independently scored attribute groups.
type Facet string

// Facet constants, in report column order.
const (
	FacetPersonal     Facet = "personal"
	FacetAddress      Facet = "address"
	FacetEmployment   Facet = "employment"
	FacetSubscription Facet = "subscription"
)

// Facets lists all facets in report column order.
var Facets = []Facet{FacetPersonal, FacetAddress, FacetEmployment, FacetSubscription}

// Evidence is a single field comparison that passed its acceptance threshold.
type Evidence struct {
	Label string  `json:"label"` // Field name or label (e.g. "city", "location")
	Score float64 `json:"score"` // Similarity in [0,1]
}

// String formats the evidence as "label:score" with two decimal places.
func (e Evidence) String() string {
	return fmt.Sprintf("%s:%.2f", e.Label, e.Score)
}

// FacetScore is the outcome of one facet sub-scorer: the number of points
// awarded and the evidence behind them, in fixed field-check order.
type FacetScore struct {
	Points   int        `json:"points"`
	Evidence []Evidence `json:"evidence,omitempty"`
}

// Add records a passing field and awards one point.
func (f *FacetScore) Add(label string, score float64) {
	f.Evidence = append(f.Evidence, Evidence{Label: label, Score: score})
	f.Points++
}

// Summary returns the evidence list as semicolon-joined "label:score" strings.
func (f FacetScore) Summary() string {
	parts := make([]string, len(f.Evidence))
	for i, e := range f.Evidence {
		parts[i] = e.String()
	}
	return strings.Join(parts, EvidenceSeparator)
}

// ParseEvidence is the inverse of FacetScore.Summary. Scores carry the two
// decimal places of the summary form.
func ParseEvidence(summary string) ([]Evidence, error) {
	if strings.TrimSpace(summary) == "" {
		return nil, nil
	}
	parts := strings.Split(summary, EvidenceSeparator)
	evidence := make([]Evidence, 0, len(parts))
	for _, part := range parts {
		idx := strings.LastIndex(part, ":")
		if idx <= 0 {
			return nil, fmt.Errorf("invalid evidence entry %q", part)
		}
		score, err := strconv.ParseFloat(part[idx+1:], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid evidence score in %q: %w", part, err)
		}
		evidence = append(evidence, Evidence{Label: part[:idx], Score: score})
	}
	return evidence, nil
}

// PairEvaluation is the classified comparison of two users.
// Only pairs with a tier other than TierNone are ever emitted.
type PairEvaluation struct {
	UID1 string `json:"uid1"`
	UID2 string `json:"uid2"`

	Personal     FacetScore `json:"personal"`
	Address      FacetScore `json:"address"`
	Employment   FacetScore `json:"employment"`
	Subscription FacetScore `json:"subscription"`

	Total int  `json:"total"`
	Tier  Tier `json:"tier"`
}

// Facet returns the score for the given facet.
func (p *PairEvaluation) Facet(f Facet) FacetScore {
	switch f {
	case FacetPersonal:
		return p.Personal
	case FacetAddress:
		return p.Address
	case FacetEmployment:
		return p.Employment
	case FacetSubscription:
		return p.Subscription
	default:
		return FacetScore{}
	}
}

// Key returns the UIDs of the pair in lexicographic order, independent of
// the order in which the two users were compared.
func (p *PairEvaluation) Key() [2]string {
	if p.UID2 < p.UID1 {
		return [2]string{p.UID2, p.UID1}
	}
	return [2]string{p.UID1, p.UID2}
}
