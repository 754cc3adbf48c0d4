package engine

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/scrypster/lookalike/pkg/types"
)

// Graph is the run-scoped relationship graph of one tier. Vertices are the
// UIDs that appear in at least one pair of the tier; an edge means only
// "evaluated as this tier". Node ids follow the lexicographic order of the
// UIDs, so the structure does not depend on the order of the input pairs.
type Graph struct {
	tier  types.Tier
	graph *simple.UndirectedGraph
	ids   map[string]int64
	uids  []string
}

// BuildGraph builds the graph whose edges are exactly the pairs with the
// given tier. Self pairs are ignored.
func BuildGraph(pairs []types.PairEvaluation, tier types.Tier) *Graph {
	var edges [][2]string
	seen := make(map[string]struct{})
	for i := range pairs {
		p := &pairs[i]
		if p.Tier != tier || p.UID1 == p.UID2 {
			continue
		}
		edges = append(edges, p.Key())
		seen[p.UID1] = struct{}{}
		seen[p.UID2] = struct{}{}
	}

	uids := make([]string, 0, len(seen))
	for uid := range seen {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	g := &Graph{
		tier:  tier,
		graph: simple.NewUndirectedGraph(),
		ids:   make(map[string]int64, len(uids)),
		uids:  uids,
	}
	for id, uid := range uids {
		g.ids[uid] = int64(id)
		g.graph.AddNode(simple.Node(id))
	}
	for _, e := range edges {
		g.graph.SetEdge(simple.Edge{F: simple.Node(g.ids[e[0]]), T: simple.Node(g.ids[e[1]])})
	}
	return g
}

// Tier returns the tier the graph was built for.
func (g *Graph) Tier() types.Tier {
	return g.tier
}

// NodeCount returns the number of vertices.
func (g *Graph) NodeCount() int {
	return len(g.uids)
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	return g.graph.Edges().Len()
}

// HasEdge reports whether a and b were evaluated as the graph's tier.
func (g *Graph) HasEdge(a, b string) bool {
	x, okA := g.ids[a]
	y, okB := g.ids[b]
	if !okA || !okB {
		return false
	}
	return g.graph.HasEdgeBetween(x, y)
}

// Neighbors returns the UIDs adjacent to uid in lexicographic order.
func (g *Graph) Neighbors(uid string) []string {
	id, ok := g.ids[uid]
	if !ok {
		return nil
	}
	return g.names(graph.NodesOf(g.graph.From(id)))
}

// Components returns the connected components of the graph, each sorted,
// ordered by their first UID.
func (g *Graph) Components() [][]string {
	var out [][]string
	for _, c := range topo.ConnectedComponents(g.graph) {
		out = append(out, g.names(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Communities partitions the graph by greedy modularity merging. Each
// community is sorted lexicographically. Communities are ordered by size
// descending, then by first UID. Singletons are included.
func (g *Graph) Communities() [][]string {
	var out [][]string
	for _, members := range greedyModularity(g.graph, len(g.uids)) {
		names := make([]string, len(members))
		for i, id := range members {
			names[i] = g.uids[id]
		}
		sort.Strings(names)
		out = append(out, names)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i][0] < out[j][0]
	})
	return out
}

// Modularity returns the modularity Q of the given partition of the graph.
// UIDs not in the graph are ignored.
func (g *Graph) Modularity(partition [][]string) float64 {
	if g.graph.Edges().Len() == 0 {
		return 0
	}
	communities := make([][]graph.Node, 0, len(partition))
	for _, members := range partition {
		var nodes []graph.Node
		for _, uid := range members {
			if id, ok := g.ids[uid]; ok {
				nodes = append(nodes, simple.Node(id))
			}
		}
		if len(nodes) > 0 {
			communities = append(communities, nodes)
		}
	}
	return community.Q(g.graph, communities, 1)
}

func (g *Graph) names(nodes []graph.Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = g.uids[n.ID()]
	}
	sort.Strings(names)
	return names
}

// BuildGroups builds the graph for tier and returns its communities with at
// least two members as 1-based ordinal groups.
func BuildGroups(pairs []types.PairEvaluation, tier types.Tier) []types.Group {
	return groupsOf(tier, BuildGraph(pairs, tier).Communities())
}

// groupsOf drops singleton communities and numbers the rest from 1.
func groupsOf(tier types.Tier, communities [][]string) []types.Group {
	groups := make([]types.Group, 0)
	for _, members := range communities {
		if len(members) < 2 {
			continue
		}
		groups = append(groups, types.Group{
			Ordinal: len(groups) + 1,
			Tier:    tier,
			Members: members,
		})
	}
	return groups
}
