package geometry

import (
	"math"

	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/detector"
)

// Unreachable is the distance reported when either cluster has no hits.
var Unreachable = math.Inf(1)

// ClosestDistance returns the minimum Euclidean distance between any hit of a and any hit of b.
// It returns Unreachable if either cluster is empty.
func ClosestDistance(a, b *cluster.Cluster) float64 {
	if a == nil || b == nil || a.Empty() || b.Empty() {
		return Unreachable
	}

	best := math.Inf(1)
	for i := 0; i < a.NHits(); i++ {
		pa := a.Hit(i).Position
		for j := 0; j < b.NHits(); j++ {
			if d := pa.Sub(b.Hit(j).Position).MagSq(); d < best {
				best = d
			}
		}
	}

	return math.Sqrt(best)
}

// ClosestPosition returns the position of the hit in c closest to p.
func ClosestPosition(p detector.Vector, c *cluster.Cluster) (detector.Vector, bool) {
	if c == nil || c.Empty() {
		return detector.Vector{}, false
	}

	best, bestD := c.Hit(0).Position, math.Inf(1)
	for i := 0; i < c.NHits(); i++ {
		q := c.Hit(i).Position
		if d := p.Sub(q).MagSq(); d < bestD {
			best, bestD = q, d
		}
	}

	return best, true
}
