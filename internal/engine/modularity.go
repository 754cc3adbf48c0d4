package engine

import (
	"container/heap"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
)

// mergeCandidate is a proposed merge of communities i and j (i < j) with
// modularity gain dq.
type mergeCandidate struct {
	dq   float64
	i, j int
}

// candidateHeap is a max-heap on dq with ties broken by (i, j) ascending.
// Entries go stale as communities merge and are validated on pop.
type candidateHeap []mergeCandidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(a, b int) bool {
	if h[a].dq != h[b].dq {
		return h[a].dq > h[b].dq
	}
	if h[a].i != h[b].i {
		return h[a].i < h[b].i
	}
	return h[a].j < h[b].j
}
func (h candidateHeap) Swap(a, b int) { h[a], h[b] = h[b], h[a] }
func (h *candidateHeap) Push(x any)   { *h = append(*h, x.(mergeCandidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// greedyModularity runs Clauset-Newman-Moore agglomerative clustering over
// nodes 0..n-1 of g. Starting from singletons it repeatedly merges the pair
// of adjacent communities with the largest modularity gain and stops when no
// merge increases modularity. Returns the member ids of every surviving
// community, singletons included, each sorted ascending.
func greedyModularity(g *simple.UndirectedGraph, n int) [][]int {
	m := g.Edges().Len()
	if n == 0 {
		return nil
	}

	members := make([][]int, n)
	alive := make([]bool, n)
	for i := range members {
		members[i] = []int{i}
		alive[i] = true
	}
	if m == 0 {
		return members
	}

	// a[i] is the fraction of edge ends attached to community i; dq[i][j] is
	// the gain of merging adjacent communities i and j.
	twoM := float64(2 * m)
	a := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = float64(g.From(int64(i)).Len()) / twoM
	}

	dq := make([]map[int]float64, n)
	for i := range dq {
		dq[i] = make(map[int]float64)
	}
	h := &candidateHeap{}
	edges := g.Edges()
	for edges.Next() {
		e := edges.Edge()
		i, j := int(e.From().ID()), int(e.To().ID())
		if i > j {
			i, j = j, i
		}
		gain := 2 * (1/twoM - a[i]*a[j])
		dq[i][j] = gain
		dq[j][i] = gain
		*h = append(*h, mergeCandidate{dq: gain, i: i, j: j})
	}
	heap.Init(h)

	for h.Len() > 0 {
		c := heap.Pop(h).(mergeCandidate)
		if !alive[c.i] || !alive[c.j] {
			continue
		}
		if cur, ok := dq[c.i][c.j]; !ok || cur != c.dq {
			continue
		}
		if c.dq <= 0 {
			break
		}
		mergeInto(c.i, c.j, a, dq, h)
		members[c.i] = append(members[c.i], members[c.j]...)
		members[c.j] = nil
		alive[c.j] = false
	}

	var out [][]int
	for i, ms := range members {
		if !alive[i] {
			continue
		}
		sort.Ints(ms)
		out = append(out, ms)
	}
	return out
}

// mergeInto merges community j into i, updating the gains of every community
// adjacent to either and pushing the new candidates.
func mergeInto(i, j int, a []float64, dq []map[int]float64, h *candidateHeap) {
	updated := make(map[int]float64, len(dq[i])+len(dq[j]))
	for k, gik := range dq[i] {
		if k == j {
			continue
		}
		if gjk, ok := dq[j][k]; ok {
			updated[k] = gik + gjk
		} else {
			updated[k] = gik - 2*a[j]*a[k]
		}
	}
	for k, gjk := range dq[j] {
		if k == i {
			continue
		}
		if _, ok := dq[i][k]; !ok {
			updated[k] = gjk - 2*a[i]*a[k]
		}
	}

	for k := range dq[j] {
		delete(dq[k], j)
	}
	dq[j] = nil

	dq[i] = updated
	for k, gain := range updated {
		dq[k][i] = gain
		lo, hi := i, k
		if hi < lo {
			lo, hi = hi, lo
		}
		heap.Push(h, mergeCandidate{dq: gain, i: lo, j: hi})
	}
	a[i] += a[j]
	a[j] = 0
}
