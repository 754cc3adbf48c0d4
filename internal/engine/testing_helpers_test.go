package engine

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/scrypster/lookalike/pkg/types"
)

var (
	testCities   = []string{"Boston", "Bostn", "Denver", "Austin", "Portland"}
	testStates   = []string{"Massachusetts", "Colorado", "Texas", "Oregon"}
	testPlans    = []string{"Gold", "Silver", "Basic", "Premium"}
	testStatuses = []string{"Active", "Idle", "Pending", "Blocked"}
	testPayments = []string{"Credit card", "Bitcoin", "Paypal", "Cash"}
	testTerms    = []string{"Monthly", "Annual", "Payment in advance"}
	testGenders  = []string{"Female", "Male", "Non-binary"}
	testTitles   = []string{"Engineer", "Accountant", "Designer"}
	testSkills   = []string{"Teamwork", "Leadership", "Communication"}
	testNames    = []string{"Alice", "Alicia", "Bob", "Robert", "Carol", "Dave", "Eve"}
)

// syntheticPopulation returns n deterministic users with enough overlap to
// produce strong, weak and excluded pairs.
func syntheticPopulation(n int, seed int64) []types.User {
	r := rand.New(rand.NewSource(seed))
	pick := func(xs []string) string { return xs[r.Intn(len(xs))] }

	users := make([]types.User, n)
	for i := range users {
		lat := fmt.Sprintf("%.4f", 40+r.Float64())
		lng := fmt.Sprintf("%.4f", -74+r.Float64())
		if i%7 == 3 {
			lat = "n/a"
		}
		users[i] = types.User{
			UID:         fmt.Sprintf("user-%03d", i),
			FirstName:   pick(testNames),
			LastName:    pick(testNames) + "son",
			Gender:      pick(testGenders),
			DateOfBirth: fmt.Sprintf("19%02d-0%d-1%d", 60+r.Intn(3), 1+r.Intn(2), r.Intn(2)),
			Address: types.Address{
				City:          pick(testCities),
				StreetName:    pick(testNames) + " Street",
				StreetAddress: fmt.Sprintf("%d %s Street", r.Intn(3), pick(testNames)),
				ZipCode:       fmt.Sprintf("0%04d", r.Intn(3)),
				State:         pick(testStates),
				Latitude:      lat,
				Longitude:     lng,
			},
			Employment: types.Employment{
				Title:    pick(testTitles),
				KeySkill: pick(testSkills),
			},
			Subscription: types.Subscription{
				Plan:          pick(testPlans),
				Status:        pick(testStatuses),
				PaymentMethod: pick(testPayments),
				Term:          pick(testTerms),
			},
		}
	}
	return users
}

// canonical returns the evaluations keyed by their ordered UID pair, with
// UID1 < UID2, sorted, so result sets can be compared independent of order.
func canonical(pairs []types.PairEvaluation) []types.PairEvaluation {
	out := make([]types.PairEvaluation, len(pairs))
	for i, p := range pairs {
		if p.UID2 < p.UID1 {
			p.UID1, p.UID2 = p.UID2, p.UID1
		}
		out[i] = p
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UID1 != out[j].UID1 {
			return out[i].UID1 < out[j].UID1
		}
		return out[i].UID2 < out[j].UID2
	})
	return out
}

func pair(uid1, uid2 string, tier types.Tier) types.PairEvaluation {
	return types.PairEvaluation{UID1: uid1, UID2: uid2, Tier: tier}
}
