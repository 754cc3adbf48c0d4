// Package types defines the core data structures for the Lookalike similarity
// system. These types represent user records, pairwise evaluations and the
// communities derived from the relationship graph of a single analysis run.
package types

// Tier represents the relationship classification assigned to a pair of users.
type Tier string

// Relationship tier constants
const (
	// TierStrong indicates the pair scored at or above the strong threshold
	TierStrong Tier = "strong"

	// TierWeak indicates the pair scored at least MinWeakPoints but below the strong threshold
	TierWeak Tier = "weak"

	// TierNone indicates the pair is excluded from all downstream output
	TierNone Tier = ""
)

// MinWeakPoints is the lowest total point count that still yields a weak tier.
const MinWeakPoints = 2

// ValidTiers contains the tiers that can appear on a reported pair.
var ValidTiers = []Tier{TierStrong, TierWeak}

// Label returns the human-readable label used in report tables ("Strong", "Weak").
func (t Tier) Label() string {
	switch t {
	case TierStrong:
		return "Strong"
	case TierWeak:
		return "Weak"
	default:
		return ""
	}
}

// ParseTier converts either a tier value or a report label to a Tier.
// Unknown input yields TierNone.
func ParseTier(s string) Tier {
	switch s {
	case "strong", "Strong":
		return TierStrong
	case "weak", "Weak":
		return TierWeak
	default:
		return TierNone
	}
}
