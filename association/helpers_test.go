package association_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/detector"
)

// segment creates a cluster of n hits spaced 0.1 apart along X starting at (x0, y).
func segment(t *testing.T, s *cluster.Store, n int, x0, y float64) *cluster.Cluster {
	t.Helper()
	hits := make([]*detector.Hit, n)
	for i := range hits {
		hits[i] = &detector.Hit{
			ID:       uint64(s.NHits() + i),
			Position: detector.Vector{X: x0 + 0.1*float64(i), Y: y},
			Energy:   1,
			View:     detector.ViewW,
			Tagged:   true,
		}
	}
	c, err := s.Create(hits)
	require.NoError(t, err)

	return c
}

// threeClusters builds A(50 hits), B(10 hits) and C(8 hits) with
// distance(A,B)=1.0, distance(A,C)=3.0 and B, C far apart.
func threeClusters(t *testing.T) (s *cluster.Store, a, b, c *cluster.Cluster) {
	t.Helper()
	s = cluster.NewStore()
	a = segment(t, s, 50, 0, 0)   // x 0..4.9
	b = segment(t, s, 10, 5.9, 0) // x 5.9..6.8
	c = segment(t, s, 8, 0, 3)    // x 0..0.7 at y=3

	return s, a, b, c
}
