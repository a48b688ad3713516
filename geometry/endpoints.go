package geometry

import (
	"math"

	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/detector"
)

// Endpoints returns the hit positions with the smallest and largest projection onto the
// principal axis of c. A single-hit cluster returns that hit twice.
func Endpoints(c *cluster.Cluster) (inner, outer detector.Vector, ok bool) {
	if c == nil || c.Empty() {
		return detector.Vector{}, detector.Vector{}, false
	}
	if c.NHits() == 1 {
		p := c.Hit(0).Position
		return p, p, true
	}
	axes, err := ClusterAxes(c)
	if err != nil {
		return detector.Vector{}, detector.Vector{}, false
	}

	dir := axes.Primary()
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < c.NHits(); i++ {
		p := c.Hit(i).Position
		l := p.Sub(axes.Centroid).Dot(dir)
		if l < lo {
			lo, inner = l, p
		}
		if l > hi {
			hi, outer = l, p
		}
	}

	return inner, outer, true
}

// EndpointDistance returns the smallest distance between an endpoint of a and an endpoint of b,
// or Unreachable if either cluster is empty.
func EndpointDistance(a, b *cluster.Cluster) float64 {
	ai, ao, okA := Endpoints(a)
	bi, bo, okB := Endpoints(b)
	if !okA || !okB {
		return Unreachable
	}

	best := math.Inf(1)
	for _, p := range [2]detector.Vector{ai, ao} {
		for _, q := range [2]detector.Vector{bi, bo} {
			best = math.Min(best, p.Sub(q).Mag())
		}
	}

	return best
}

// AxisAlignment returns |cos| between the principal axes of a and b, or 0 when either axis
// cannot be fitted.
func AxisAlignment(a, b *cluster.Cluster) float64 {
	pa, errA := ClusterAxes(a)
	pb, errB := ClusterAxes(b)
	if errA != nil || errB != nil {
		return 0
	}

	return math.Abs(pa.Primary().CosOpeningAngle(pb.Primary()))
}
