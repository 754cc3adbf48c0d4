// Package storagetest provides a behavioral test suite shared by all
// storage.Store backends.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/lookalike/internal/storage"
	"github.com/scrypster/lookalike/pkg/types"
)

// Factory returns an empty, initialized store. It registers its own cleanup.
type Factory func(t *testing.T) storage.Store

// NewUser builds a complete user record for tests.
func NewUser(uid, first, city string) types.User {
	return types.User{
		UID:         uid,
		FirstName:   first,
		LastName:    "Keeling",
		Username:    first + ".keeling",
		Email:       first + "@email.com",
		Avatar:      "https://robohash.org/" + first,
		Gender:      "Female",
		PhoneNumber: "+1-555-0100",
		DateOfBirth: "1990-04-12",
		Address: types.Address{
			City:          city,
			StreetName:    "Main Street",
			StreetAddress: "12 Main Street",
			ZipCode:       "12345",
			State:         "Ohio",
			Country:       "United States",
			Latitude:      "40.7128",
			Longitude:     "-74.006",
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

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("SaveAndListUsers", func(t *testing.T) { testSaveAndListUsers(t, newStore(t)) })
	t.Run("SaveUsersUpserts", func(t *testing.T) { testSaveUsersUpserts(t, newStore(t)) })
	t.Run("SaveUsersRejectsMissingUID", func(t *testing.T) { testSaveUsersRejectsMissingUID(t, newStore(t)) })
	t.Run("ListUsersEmpty", func(t *testing.T) { testListUsersEmpty(t, newStore(t)) })
	t.Run("MalformedCoordinatesSurvive", func(t *testing.T) { testMalformedCoordinatesSurvive(t, newStore(t)) })
	t.Run("MostCommonProperties", func(t *testing.T) { testMostCommonProperties(t, newStore(t)) })
	t.Run("MostCommonPropertiesTies", func(t *testing.T) { testMostCommonPropertiesTies(t, newStore(t)) })
	t.Run("SaveAndGetAnalysis", func(t *testing.T) { testSaveAndGetAnalysis(t, newStore(t)) })
	t.Run("SaveAnalysisReplaces", func(t *testing.T) { testSaveAnalysisReplaces(t, newStore(t)) })
	t.Run("GetAnalysisNotFound", func(t *testing.T) { testGetAnalysisNotFound(t, newStore(t)) })
	t.Run("SaveAnalysisInvalid", func(t *testing.T) { testSaveAnalysisInvalid(t, newStore(t)) })
	t.Run("InitIdempotent", func(t *testing.T) { testInitIdempotent(t, newStore(t)) })
}

func testSaveAndListUsers(t *testing.T, store storage.Store) {
	ctx := context.Background()
	users := []types.User{
		NewUser("c3", "carol", "Dayton"),
		NewUser("a1", "alice", "Akron"),
		NewUser("b2", "bob", "Berea"),
	}
	require.NoError(t, store.SaveUsers(ctx, users))

	got, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []string{"a1", "b2", "c3"}, []string{got[0].UID, got[1].UID, got[2].UID},
		"users must be ordered by uid")
	assert.Equal(t, users[1], got[0], "flat record must round trip through the normalized tables")
}

func testSaveUsersUpserts(t *testing.T, store storage.Store) {
	ctx := context.Background()
	require.NoError(t, store.SaveUsers(ctx, []types.User{NewUser("a1", "alice", "Akron")}))

	updated := NewUser("a1", "alicia", "Toledo")
	updated.Subscription.Plan = "Platinum"
	require.NoError(t, store.SaveUsers(ctx, []types.User{updated}))

	got, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, updated, got[0])
}

func testSaveUsersRejectsMissingUID(t *testing.T, store storage.Store) {
	ctx := context.Background()
	err := store.SaveUsers(ctx, []types.User{NewUser("a1", "alice", "Akron"), NewUser("", "ghost", "Nowhere")})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))

	got, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "a rejected batch must not be partially written")
}

func testListUsersEmpty(t *testing.T, store storage.Store) {
	got, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func testMalformedCoordinatesSurvive(t *testing.T, store storage.Store) {
	ctx := context.Background()
	u := NewUser("a1", "alice", "Akron")
	u.Address.Latitude = "n/a"
	u.Address.Longitude = ""
	require.NoError(t, store.SaveUsers(ctx, []types.User{u}))

	got, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "n/a", got[0].Address.Latitude)
	assert.Equal(t, "", got[0].Address.Longitude)
}

func testMostCommonProperties(t *testing.T, store storage.Store) {
	ctx := context.Background()
	a := NewUser("a1", "alice", "Akron")
	b := NewUser("b2", "bob", "Akron")
	b.Gender = "Male"
	c := NewUser("c3", "carol", "Berea")
	c.Employment.Title = ""
	require.NoError(t, store.SaveUsers(ctx, []types.User{a, b, c}))

	got, err := store.MostCommonProperties(ctx)
	require.NoError(t, err)

	byName := make(map[string]storage.PropertyCount, len(got))
	for _, pc := range got {
		byName[pc.Property] = pc
	}
	assert.Equal(t, storage.PropertyCount{Property: "city", Value: "Akron", Count: 2}, byName["city"])
	assert.Equal(t, storage.PropertyCount{Property: "gender", Value: "Female", Count: 2}, byName["gender"])
	assert.Equal(t, storage.PropertyCount{Property: "employment_title", Value: "Engineer", Count: 2}, byName["employment_title"],
		"empty values are not counted")
	assert.Equal(t, 3, byName["subscription_plan"].Count)

	require.Len(t, got, len(storage.Properties))
	for i, p := range storage.Properties {
		assert.Equal(t, p.Name, got[i].Property, "properties are reported in fixed order")
	}
}

func testMostCommonPropertiesTies(t *testing.T, store storage.Store) {
	ctx := context.Background()
	a := NewUser("a1", "alice", "Zanesville")
	b := NewUser("b2", "bob", "Akron")
	require.NoError(t, store.SaveUsers(ctx, []types.User{a, b}))

	got, err := store.MostCommonProperties(ctx)
	require.NoError(t, err)
	for _, pc := range got {
		if pc.Property == "city" {
			assert.Equal(t, "Akron", pc.Value, "ties are broken by value ascending")
			assert.Equal(t, 1, pc.Count)
		}
	}
}

func sampleAnalysis(runID string) *types.Analysis {
	strong := types.PairEvaluation{
		UID1: "a1", UID2: "b2",
		Personal:     types.FacetScore{Points: 2, Evidence: []types.Evidence{{Label: "first_name", Score: 0.83}, {Label: "gender", Score: 1}}},
		Address:      types.FacetScore{Points: 2, Evidence: []types.Evidence{{Label: "city", Score: 1}, {Label: "location", Score: 1}}},
		Employment:   types.FacetScore{Points: 1, Evidence: []types.Evidence{{Label: "employment_title", Score: 0.9}}},
		Subscription: types.FacetScore{},
		Total:        5,
		Tier:         types.TierStrong,
	}
	weak := types.PairEvaluation{
		UID1: "b2", UID2: "c3",
		Subscription: types.FacetScore{Points: 2, Evidence: []types.Evidence{{Label: "subscription_plan", Score: 1}, {Label: "payment_method", Score: 1}}},
		Total:        2,
		Tier:         types.TierWeak,
	}
	return &types.Analysis{
		RunID:           runID,
		CreatedAt:       time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		StrongThreshold: 5,
		PairsConsidered: 3,
		Pairs:           []types.PairEvaluation{strong, weak},
		StrongGroups:    []types.Group{{Ordinal: 1, Tier: types.TierStrong, Members: []string{"a1", "b2"}}},
		WeakGroups:      []types.Group{{Ordinal: 1, Tier: types.TierWeak, Members: []string{"b2", "c3"}}},
	}
}

func testSaveAndGetAnalysis(t *testing.T, store storage.Store) {
	ctx := context.Background()
	want := sampleAnalysis("run-1")
	require.NoError(t, store.SaveAnalysis(ctx, want))

	got, err := store.GetAnalysis(ctx, "run-1")
	require.NoError(t, err)

	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %v, got %v", want.CreatedAt, got.CreatedAt)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.StrongThreshold, got.StrongThreshold)
	assert.Equal(t, want.PairsConsidered, got.PairsConsidered)
	assert.Equal(t, want.Pairs, got.Pairs)
	assert.Equal(t, want.StrongGroups, got.StrongGroups)
	assert.Equal(t, want.WeakGroups, got.WeakGroups)
}

func testSaveAnalysisReplaces(t *testing.T, store storage.Store) {
	ctx := context.Background()
	require.NoError(t, store.SaveAnalysis(ctx, sampleAnalysis("run-1")))

	replacement := sampleAnalysis("run-1")
	replacement.Pairs = replacement.Pairs[:1]
	replacement.WeakGroups = []types.Group{}
	require.NoError(t, store.SaveAnalysis(ctx, replacement))

	got, err := store.GetAnalysis(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got.Pairs, 1)
	assert.Empty(t, got.WeakGroups)
	assert.Len(t, got.StrongGroups, 1)
}

func testGetAnalysisNotFound(t *testing.T, store storage.Store) {
	_, err := store.GetAnalysis(context.Background(), "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func testSaveAnalysisInvalid(t *testing.T, store storage.Store) {
	ctx := context.Background()
	assert.True(t, errors.Is(store.SaveAnalysis(ctx, nil), storage.ErrInvalidInput))
	assert.True(t, errors.Is(store.SaveAnalysis(ctx, &types.Analysis{}), storage.ErrInvalidInput))
}

func testInitIdempotent(t *testing.T, store storage.Store) {
	ctx := context.Background()
	require.NoError(t, store.SaveUsers(ctx, []types.User{NewUser("a1", "alice", "Akron")}))
	require.NoError(t, store.Init(ctx))

	got, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1, "re-running Init must keep existing data")
}
