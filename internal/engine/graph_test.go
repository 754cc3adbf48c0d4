package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/lookalike/internal/similarity"
	"github.com/scrypster/lookalike/pkg/types"
)

func TestBuildGraph_EdgesAreExactlyTheTierPairs(t *testing.T) {
	pairs := []types.PairEvaluation{
		pair("a", "b", types.TierStrong),
		pair("b", "c", types.TierStrong),
		pair("a", "c", types.TierWeak),
		pair("c", "d", types.TierWeak),
	}

	strong := BuildGraph(pairs, types.TierStrong)
	assert.Equal(t, types.TierStrong, strong.Tier())
	assert.Equal(t, 3, strong.NodeCount())
	assert.Equal(t, 2, strong.EdgeCount())
	assert.True(t, strong.HasEdge("a", "b"))
	assert.True(t, strong.HasEdge("c", "b"))
	assert.False(t, strong.HasEdge("a", "c"), "a-c is weak, not strong")
	assert.False(t, strong.HasEdge("c", "d"))
	assert.Equal(t, []string{"a", "c"}, strong.Neighbors("b"))
	assert.Nil(t, strong.Neighbors("zzz"))

	weak := BuildGraph(pairs, types.TierWeak)
	assert.Equal(t, 2, weak.EdgeCount())
	assert.True(t, weak.HasEdge("a", "c"))
	assert.False(t, weak.HasEdge("a", "b"))
}

func TestBuildGraph_IgnoresDuplicatesAndSelfPairs(t *testing.T) {
	pairs := []types.PairEvaluation{
		pair("a", "b", types.TierStrong),
		pair("b", "a", types.TierStrong),
		pair("a", "a", types.TierStrong),
	}
	g := BuildGraph(pairs, types.TierStrong)
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
}

func TestStrongChain_ConnectivityFollowsDeclaredEdges(t *testing.T) {
	// a-b and b-c are strong, a-c is not.
	pairs := []types.PairEvaluation{
		pair("a", "b", types.TierStrong),
		pair("b", "c", types.TierStrong),
		pair("a", "c", types.TierWeak),
	}
	g := BuildGraph(pairs, types.TierStrong)

	assert.Equal(t, [][]string{{"a", "b", "c"}}, g.Components())
	assert.False(t, g.HasEdge("a", "c"))

	// On a three node path every merge has positive gain, so the
	// clustering keeps the whole component together.
	groups := BuildGroups(pairs, types.TierStrong)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"a", "b", "c"}, groups[0].Members)
	for _, grp := range groups {
		for _, m := range grp.Members {
			assert.Contains(t, g.Components()[0], m)
		}
	}
}

func TestCommunities_DisjointEdgesStaySeparate(t *testing.T) {
	pairs := []types.PairEvaluation{
		pair("d", "c", types.TierWeak),
		pair("a", "b", types.TierWeak),
	}
	groups := BuildGroups(pairs, types.TierWeak)
	require.Len(t, groups, 2)
	assert.Equal(t, types.Group{Ordinal: 1, Tier: types.TierWeak, Members: []string{"a", "b"}}, groups[0])
	assert.Equal(t, types.Group{Ordinal: 2, Tier: types.TierWeak, Members: []string{"c", "d"}}, groups[1])
}

func twoTriangles() []types.PairEvaluation {
	return []types.PairEvaluation{
		pair("a1", "a2", types.TierStrong),
		pair("a2", "a3", types.TierStrong),
		pair("a1", "a3", types.TierStrong),
		pair("b1", "b2", types.TierStrong),
		pair("b2", "b3", types.TierStrong),
		pair("b1", "b3", types.TierStrong),
		pair("a3", "b1", types.TierStrong),
	}
}

func TestCommunities_BridgedTrianglesSplit(t *testing.T) {
	g := BuildGraph(twoTriangles(), types.TierStrong)

	communities := g.Communities()
	assert.Equal(t, [][]string{{"a1", "a2", "a3"}, {"b1", "b2", "b3"}}, communities)
	assert.Len(t, g.Components(), 1, "the bridge keeps the graph connected")

	split := g.Modularity(communities)
	whole := g.Modularity([][]string{{"a1", "a2", "a3", "b1", "b2", "b3"}})
	singletons := g.Modularity([][]string{{"a1"}, {"a2"}, {"a3"}, {"b1"}, {"b2"}, {"b3"}})

	assert.InDelta(t, 5.0/14.0, split, 1e-9)
	assert.InDelta(t, 0, whole, 1e-9)
	assert.Greater(t, split, whole)
	assert.Greater(t, split, singletons)
}

func TestCommunities_IndependentOfPairOrder(t *testing.T) {
	pairs := twoTriangles()
	pairs = append(pairs,
		pair("c1", "c2", types.TierStrong),
		pair("c2", "c3", types.TierStrong),
		pair("c3", "c4", types.TierStrong),
		pair("c4", "c1", types.TierStrong),
		pair("b3", "c1", types.TierStrong),
	)
	expected := BuildGroups(pairs, types.TierStrong)

	r := rand.New(rand.NewSource(11))
	for i := 0; i < 20; i++ {
		shuffled := append([]types.PairEvaluation(nil), pairs...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		for k := range shuffled {
			if r.Intn(2) == 0 {
				shuffled[k].UID1, shuffled[k].UID2 = shuffled[k].UID2, shuffled[k].UID1
			}
		}
		assert.Equal(t, expected, BuildGroups(shuffled, types.TierStrong))
	}
}

func TestGroups_InvariantsOnSyntheticPopulation(t *testing.T) {
	users := syntheticPopulation(80, 5)
	a, err := NewAnalyzer(similarity.DefaultConfig(), Config{Workers: 4}, nil)
	require.NoError(t, err)

	analysis, err := a.Run(t.Context(), users)
	require.NoError(t, err)

	for _, tier := range types.ValidTiers {
		g := BuildGraph(analysis.Pairs, tier)
		for i, grp := range analysis.Groups(tier) {
			assert.Equal(t, i+1, grp.Ordinal)
			assert.Equal(t, tier, grp.Tier)
			assert.GreaterOrEqual(t, len(grp.Members), 2)
			assert.IsNonDecreasing(t, grp.Members)

			seen := make(map[string]bool)
			for _, m := range grp.Members {
				assert.False(t, seen[m], "uid %s repeated in group %d", m, grp.Ordinal)
				seen[m] = true
				assert.NotEmpty(t, g.Neighbors(m), "every member has an edge of its tier")
			}
		}
	}
}

func TestBuildGroups_EmptyTier(t *testing.T) {
	groups := BuildGroups([]types.PairEvaluation{pair("a", "b", types.TierWeak)}, types.TierStrong)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)

	g := BuildGraph(nil, types.TierStrong)
	assert.Zero(t, g.NodeCount())
	assert.Zero(t, g.Modularity(nil))
	assert.Empty(t, g.Communities())
}
