package resolve_test

import (
	"fmt"

	"github.com/larreco/larmerge/association"
	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/detector"
	"github.com/larreco/larmerge/resolve"
)

// ExampleResolve resolves a cyclic component and a single edge into two disjoint groups.
// Clusters 1..5 hold 5..1 hits, so cluster.Compare visits them by ID.
//
//	1 → 2 → 3 → 1      4 → 5
//
// Seed 1 absorbs 2 and 3 (the cycle back to 1 is guarded); 2 and 3 are then claimed and
// skipped as seeds; seed 4 absorbs 5.
func ExampleResolve() {
	s := cluster.NewStore()
	var cs []*cluster.Cluster
	for n := 5; n >= 1; n-- {
		hits := make([]*detector.Hit, n)
		for i := range hits {
			hits[i] = &detector.Hit{ID: uint64(s.NHits() + i)}
		}
		c, _ := s.Create(hits)
		cs = append(cs, c)
	}

	m := association.NewMatrix()
	for _, e := range [][2]int{{0, 1}, {1, 2}, {2, 0}, {3, 4}} {
		_ = m.Add(cs[e[0]], cs[e[1]])
	}

	res, err := resolve.Resolve(m, nil)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, g := range res.Groups {
		fmt.Println("seed", g.Seed.ID(), "absorbs", g.MemberIDs())
	}
	fmt.Println("skipped seeds:", res.SkippedSeeds)

	// Output:
	// seed 1 absorbs [2 3]
	// seed 4 absorbs [5]
	// skipped seeds: 2
}
