package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/scrypster/lookalike/pkg/types"
)

func newTestUser(uid string) types.User {
	return types.User{
		UID:         uid,
		FirstName:   "Alice",
		LastName:    "Smith",
		Gender:      "Female",
		DateOfBirth: "1990-01-01",
		Address: types.Address{
			City:          "Boston",
			StreetName:    "Maple Avenue",
			StreetAddress: "123 Maple Avenue",
			ZipCode:       "02115",
			State:         "Massachusetts",
			Latitude:      "42.3601",
			Longitude:     "-71.0589",
		},
		Employment: types.Employment{
			Title:    "Engineer",
			KeySkill: "Teamwork",
		},
		Subscription: types.Subscription{
			Plan:          "Gold",
			Status:        "Active",
			PaymentMethod: "Credit card",
			Term:          "Monthly",
		},
	}
}

// newUnrelatedUser shares only gender and date of birth with newTestUser.
func newUnrelatedUser(uid string) types.User {
	return types.User{
		UID:         uid,
		FirstName:   "Zoe",
		LastName:    "Kowalski",
		Gender:      " female ",
		DateOfBirth: "1990-01-01",
		Address: types.Address{
			City:          "Denver",
			StreetName:    "Oak Road",
			StreetAddress: "9 Oak Road",
			ZipCode:       "80202",
			State:         "Colorado",
			Latitude:      "39.7392",
			Longitude:     "-104.9903",
		},
		Employment: types.Employment{
			Title:    "Accountant",
			KeySkill: "Leadership",
		},
		Subscription: types.Subscription{
			Plan:          "Basic",
			Status:        "Idle",
			PaymentMethod: "Bitcoin",
			Term:          "Annual",
		},
	}
}

func TestCompare_IdenticalRecordsScoreMaximum(t *testing.T) {
	s := NewScorer(DefaultConfig(), nil)
	a, b := newTestUser("a"), newTestUser("b")

	eval, ok := s.Compare(&a, &b)
	require.True(t, ok)

	assert.Equal(t, "a", eval.UID1)
	assert.Equal(t, "b", eval.UID2)
	assert.Equal(t, MaxPersonalPoints, eval.Personal.Points)
	assert.Equal(t, MaxAddressPoints, eval.Address.Points)
	assert.Equal(t, MaxEmploymentPoints, eval.Employment.Points)
	assert.Equal(t, MaxSubscriptionPoints, eval.Subscription.Points)
	assert.Equal(t, 16, eval.Total)
	assert.Equal(t, types.TierStrong, eval.Tier)
}

func TestCompare_EvidenceFollowsFieldOrder(t *testing.T) {
	s := NewScorer(DefaultConfig(), nil)
	a, b := newTestUser("a"), newTestUser("b")

	eval, ok := s.Compare(&a, &b)
	require.True(t, ok)

	assert.Equal(t, "first_name:1.00; last_name:1.00; gender:1.00; date_of_birth:1.00", eval.Personal.Summary())
	assert.Equal(t, "city:1.00; street_name:1.00; street_address:1.00; zip_code:1.00; state:1.00; location:1.00", eval.Address.Summary())
	assert.Equal(t, "employment_title:1.00; key_skill:1.00", eval.Employment.Summary())
	assert.Equal(t, "subscription_plan:1.00; subscription_status:1.00; payment_method:1.00; subscription_term:1.00", eval.Subscription.Summary())
}

func TestCompare_GenderAndBirthDateOnlyIsWeak(t *testing.T) {
	s := NewScorer(DefaultConfig(), nil)
	a, b := newTestUser("a"), newUnrelatedUser("b")

	eval, ok := s.Compare(&a, &b)
	require.True(t, ok)

	assert.Equal(t, 2, eval.Personal.Points)
	assert.Equal(t, 0, eval.Address.Points)
	assert.Equal(t, 0, eval.Employment.Points)
	assert.Equal(t, 0, eval.Subscription.Points)
	assert.Equal(t, 2, eval.Total)
	assert.Equal(t, types.TierWeak, eval.Tier)
	assert.Equal(t, "gender:1.00; date_of_birth:1.00", eval.Personal.Summary())
}

func TestCompare_BelowTwoPointsIsExcluded(t *testing.T) {
	s := NewScorer(DefaultConfig(), nil)
	a, b := newTestUser("a"), newUnrelatedUser("b")
	b.DateOfBirth = "1971-12-31"

	eval, ok := s.Compare(&a, &b)
	assert.False(t, ok)
	assert.Nil(t, eval)
}

func TestPersonal_JustUnderThresholdEarnsNothing(t *testing.T) {
	s := NewScorer(DefaultConfig(), nil)
	a, b := newTestUser("a"), newTestUser("b")
	a.FirstName, b.FirstName = "Jonathan", "Johnathon"

	score := s.Personal(&a, &b)
	assert.Equal(t, 3, score.Points)
	for _, e := range score.Evidence {
		assert.NotEqual(t, "first_name", e.Label)
	}

	a.FirstName, b.FirstName = "abcdefghijklmnopqrs", "abcdefghijklmnowxyz"
	assert.Equal(t, 3, s.Personal(&a, &b).Points, "a 0.79 ratio must not earn a point")
}

func TestAddress_ProximityBoundary(t *testing.T) {
	s := NewScorer(DefaultConfig(), nil)
	a, b := newTestUser("a"), newTestUser("b")

	// About 5.6 km north.
	b.Address.Latitude = "42.4101"
	assert.Equal(t, MaxAddressPoints, s.Address(&a, &b).Points)

	// About 22 km north.
	b.Address.Latitude = "42.5601"
	score := s.Address(&a, &b)
	assert.Equal(t, MaxAddressPoints-1, score.Points)
	for _, e := range score.Evidence {
		assert.NotEqual(t, locationLabel, e.Label)
	}
}

func TestAddress_MalformedCoordinateIsRecovered(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := NewScorer(DefaultConfig(), zap.New(core))

	for _, lat := range []string{"", "not-a-number", "1e400"} {
		a, b := newTestUser("a"), newTestUser("b")
		a.Address.Latitude = lat

		var score types.FacetScore
		require.NotPanics(t, func() { score = s.Address(&a, &b) })
		assert.Equal(t, MaxAddressPoints-1, score.Points, "lat=%q", lat)

		eval, ok := s.Compare(&a, &b)
		require.True(t, ok)
		assert.Equal(t, 15, eval.Total)
	}

	assert.Equal(t, 6, logs.Len(), "each recovery is logged")
	entry := logs.All()[0]
	assert.Equal(t, "skipping location comparison", entry.Message)
	assert.Equal(t, "a", entry.ContextMap()["uid1"])
}

func TestCompare_Symmetric(t *testing.T) {
	s := NewScorer(DefaultConfig(), nil)
	a, b := newTestUser("a"), newTestUser("b")
	b.FirstName = "Alicia"
	b.Address.City = "Bostn"
	b.Subscription.Plan = "Golden"
	b.Address.Longitude = "-71.1"

	ab, ok := s.Compare(&a, &b)
	require.True(t, ok)
	ba, ok := s.Compare(&b, &a)
	require.True(t, ok)

	ba.UID1, ba.UID2 = ba.UID2, ba.UID1
	assert.Equal(t, ab, ba)
}

func TestClassify_Monotonic(t *testing.T) {
	rank := map[types.Tier]int{types.TierNone: 0, types.TierWeak: 1, types.TierStrong: 2}

	for total := 0; total <= MaxTotalPoints; total++ {
		prev := 3
		for threshold := types.MinWeakPoints; threshold <= MaxTotalPoints+1; threshold++ {
			cfg := DefaultConfig()
			cfg.StrongThreshold = threshold
			got := rank[NewScorer(cfg, nil).Classify(total)]
			assert.LessOrEqual(t, got, prev, "total=%d threshold=%d", total, threshold)
			prev = got
		}
	}
}

func TestClassify_Boundaries(t *testing.T) {
	s := NewScorer(DefaultConfig(), nil)
	assert.Equal(t, types.TierNone, s.Classify(0))
	assert.Equal(t, types.TierNone, s.Classify(1))
	assert.Equal(t, types.TierWeak, s.Classify(2))
	assert.Equal(t, types.TierWeak, s.Classify(4))
	assert.Equal(t, types.TierStrong, s.Classify(5))
	assert.Equal(t, types.TierStrong, s.Classify(16))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.StrongThreshold = 1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.FuzzyThreshold = 1.2
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ProximityKm = 0
	assert.Error(t, cfg.Validate())
}
