package similarity

import (
	"go.uber.org/zap"

	"github.com/scrypster/lookalike/pkg/types"
)

// Upper bounds on the points each facet can award.
const (
	MaxPersonalPoints     = 4
	MaxAddressPoints      = 6
	MaxEmploymentPoints   = 2
	MaxSubscriptionPoints = 4
	MaxTotalPoints        = MaxPersonalPoints + MaxAddressPoints + MaxEmploymentPoints + MaxSubscriptionPoints
)

// locationLabel is the evidence label for the coordinate proximity check.
const locationLabel = "location"

// Scorer compares user records facet by facet and classifies the pair.
// It holds no mutable state.
type Scorer struct {
	config Config
	logger *zap.Logger
}

// NewScorer creates a Scorer. A nil logger disables logging.
func NewScorer(config Config, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{config: config, logger: logger}
}

// Config returns the thresholds the scorer was built with.
func (s *Scorer) Config() Config {
	return s.config
}

// fuzzy awards a point for label when the normalized values are similar enough.
func (s *Scorer) fuzzy(score *types.FacetScore, label, a, b string) {
	if ratio := FuzzyRatio(a, b); ratio >= s.config.FuzzyThreshold {
		score.Add(label, ratio)
	}
}

// Personal compares first name, last name (fuzzy), gender (case-insensitive
// exact) and date of birth (verbatim).
func (s *Scorer) Personal(a, b *types.User) types.FacetScore {
	var score types.FacetScore
	s.fuzzy(&score, "first_name", a.FirstName, b.FirstName)
	s.fuzzy(&score, "last_name", a.LastName, b.LastName)
	if EqualFold(a.Gender, b.Gender) {
		score.Add("gender", 1)
	}
	if a.DateOfBirth == b.DateOfBirth {
		score.Add("date_of_birth", 1)
	}
	return score
}

// Address compares city, street name, street address, zip code and state
// (fuzzy) plus coordinate proximity. A malformed or missing coordinate is
// logged and only costs the location point.
func (s *Scorer) Address(a, b *types.User) types.FacetScore {
	var score types.FacetScore
	s.fuzzy(&score, "city", a.Address.City, b.Address.City)
	s.fuzzy(&score, "street_name", a.Address.StreetName, b.Address.StreetName)
	s.fuzzy(&score, "street_address", a.Address.StreetAddress, b.Address.StreetAddress)
	s.fuzzy(&score, "zip_code", a.Address.ZipCode, b.Address.ZipCode)
	s.fuzzy(&score, "state", a.Address.State, b.Address.State)

	near, err := s.near(a, b)
	if err != nil {
		s.logger.Warn("skipping location comparison",
			zap.String("uid1", a.UID),
			zap.String("uid2", b.UID),
			zap.Error(err))
	} else if near {
		score.Add(locationLabel, 1)
	}
	return score
}

// near reports whether the two users are within ProximityKm of each other.
func (s *Scorer) near(a, b *types.User) (bool, error) {
	c1, err := ParseCoordinate(a.Address.Latitude, a.Address.Longitude)
	if err != nil {
		return false, err
	}
	c2, err := ParseCoordinate(b.Address.Latitude, b.Address.Longitude)
	if err != nil {
		return false, err
	}
	return DistanceKm(c1, c2) < s.config.ProximityKm, nil
}

// Employment compares job title and key skill.
func (s *Scorer) Employment(a, b *types.User) types.FacetScore {
	var score types.FacetScore
	s.fuzzy(&score, "employment_title", a.Employment.Title, b.Employment.Title)
	s.fuzzy(&score, "key_skill", a.Employment.KeySkill, b.Employment.KeySkill)
	return score
}

// Subscription compares plan, status, payment method and term.
func (s *Scorer) Subscription(a, b *types.User) types.FacetScore {
	var score types.FacetScore
	s.fuzzy(&score, "subscription_plan", a.Subscription.Plan, b.Subscription.Plan)
	s.fuzzy(&score, "subscription_status", a.Subscription.Status, b.Subscription.Status)
	s.fuzzy(&score, "payment_method", a.Subscription.PaymentMethod, b.Subscription.PaymentMethod)
	s.fuzzy(&score, "subscription_term", a.Subscription.Term, b.Subscription.Term)
	return score
}

// Classify maps a total point count to a tier.
func (s *Scorer) Classify(total int) types.Tier {
	switch {
	case total < types.MinWeakPoints:
		return types.TierNone
	case total >= s.config.StrongThreshold:
		return types.TierStrong
	default:
		return types.TierWeak
	}
}

// Compare scores all four facets of a and b. The second return value is
// false when the pair is excluded, in which case the evaluation is nil.
func (s *Scorer) Compare(a, b *types.User) (*types.PairEvaluation, bool) {
	eval := &types.PairEvaluation{
		UID1:         a.UID,
		UID2:         b.UID,
		Personal:     s.Personal(a, b),
		Address:      s.Address(a, b),
		Employment:   s.Employment(a, b),
		Subscription: s.Subscription(a, b),
	}
	eval.Total = eval.Personal.Points + eval.Address.Points + eval.Employment.Points + eval.Subscription.Points
	eval.Tier = s.Classify(eval.Total)
	if eval.Tier == types.TierNone {
		return nil, false
	}
	return eval, true
}
