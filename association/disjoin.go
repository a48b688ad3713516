package association

import (
	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/geometry"
)

// Disjoin removes edges of m so that walking seeds in order, each seed collecting the
// clusters it reaches, never meets a cluster already reached from an earlier seed.
// It returns the number of edges removed. A nil metric means geometry.ClosestDistance.
//
// Implementation:
//   - Stage 1: A target linked from several roots (seeds with no incoming edge) keeps only
//     the edge from the closest root. Ties go to the root listed first.
//   - Stage 2: Walk seeds in order. An edge into a cluster owned by an earlier seed is removed.
//     A seed owned by an earlier seed is skipped, as the resolver skips it.
//
// Complexity:
//   - Time O(r·d·c + V + E) for r roots of out-degree d and metric cost c, Space O(V).
func Disjoin(m *Matrix, seeds []*cluster.Cluster, metric Metric) int {
	if m == nil {
		return 0
	}
	if metric == nil {
		metric = geometry.ClosestDistance
	}

	removed := disjoinRoots(m, seeds, metric)

	owner := make(map[cluster.ID]cluster.ID)
	for _, seed := range seeds {
		if seed == nil || m.OutDegree(seed.ID()) == 0 {
			continue
		}
		if _, taken := owner[seed.ID()]; taken {
			continue
		}
		owner[seed.ID()] = seed.ID()

		stack := []*cluster.Cluster{seed}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			for _, t := range m.Targets(cur.ID()) {
				if t.ID() == seed.ID() {
					continue
				}
				if o, ok := owner[t.ID()]; ok {
					if o != seed.ID() {
						m.Remove(cur.ID(), t.ID())
						removed++
					}
					continue
				}
				owner[t.ID()] = seed.ID()
				stack = append(stack, t)
			}
		}
	}

	return removed
}

// disjoinRoots keeps, for every target shared by several roots, the edge from the closest root.
func disjoinRoots(m *Matrix, seeds []*cluster.Cluster, metric Metric) int {
	type claim struct {
		root *cluster.Cluster
		d    float64
	}

	// 1. Roots are fixed before any edge is removed
	var roots []*cluster.Cluster
	for _, s := range seeds {
		if s != nil && m.OutDegree(s.ID()) > 0 && m.InDegree(s.ID()) == 0 {
			roots = append(roots, s)
		}
	}
	if len(roots) < 2 {
		return 0
	}

	// 2. Closest root per target; strict comparison keeps the earlier root on ties
	best := make(map[cluster.ID]claim)
	for _, r := range roots {
		for _, t := range m.Targets(r.ID()) {
			d := metric(r, t)
			if cur, ok := best[t.ID()]; !ok || d < cur.d {
				best[t.ID()] = claim{root: r, d: d}
			}
		}
	}

	// 3. Drop the losing edges
	removed := 0
	for _, r := range roots {
		for _, t := range m.Targets(r.ID()) {
			if best[t.ID()].root != r {
				m.Remove(r.ID(), t.ID())
				removed++
			}
		}
	}

	return removed
}
