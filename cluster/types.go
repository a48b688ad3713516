package cluster

import (
	"cmp"
	"errors"
	"math"
	"sort"

	"github.com/larreco/larmerge/detector"
)

// Sentinel errors for cluster operations.
var (
	// ErrNilHit indicates a nil *detector.Hit was supplied.
	ErrNilHit = errors.New("cluster: nil hit")

	// ErrHitOwned indicates the hit already belongs to another live cluster.
	ErrHitOwned = errors.New("cluster: hit already owned by another cluster")

	// ErrClusterNotFound indicates the handle does not name a live cluster.
	ErrClusterNotFound = errors.New("cluster: cluster not found")

	// ErrSelfMerge indicates an attempt to merge a cluster into itself.
	ErrSelfMerge = errors.New("cluster: cannot merge a cluster into itself")

	// ErrUnavailable indicates the member cluster is not available for merging.
	ErrUnavailable = errors.New("cluster: cluster is not available")

	// ErrHitNotInCluster indicates RemoveHits referenced a hit the cluster does not hold.
	ErrHitNotInCluster = errors.New("cluster: hit not in cluster")

	// ErrCapacity indicates the store's cluster cap was reached.
	ErrCapacity = errors.New("cluster: store capacity exceeded")
)

// ID is a stable, non-owning handle to a cluster within one Store.
type ID uint64

// Cluster is an ordered collection of hit references with cached derived quantities.
// Fields are private; the Store is the only writer.
type Cluster struct {
	id        ID
	hits      []*detector.Hit
	energy    float64
	minX      float64
	maxX      float64
	available bool
	retired   bool
}

// ID returns the cluster's handle.
func (c *Cluster) ID() ID { return c.id }

// NHits returns the number of hits.
func (c *Cluster) NHits() int { return len(c.hits) }

// Empty reports whether the cluster holds no hits.
func (c *Cluster) Empty() bool { return len(c.hits) == 0 }

// Energy returns the summed hit energy.
func (c *Cluster) Energy() float64 { return c.energy }

// Available reports whether the cluster may still be absorbed by another.
func (c *Cluster) Available() bool { return c.available }

// Retired reports whether the cluster was deleted or merged away.
func (c *Cluster) Retired() bool { return c.retired }

// Hits returns a copy of the hit references in insertion order.
func (c *Cluster) Hits() []*detector.Hit {
	out := make([]*detector.Hit, len(c.hits))
	copy(out, c.hits)

	return out
}

// Hit returns the i-th hit without copying the list.
func (c *Cluster) Hit(i int) *detector.Hit { return c.hits[i] }

// Contains reports whether h is one of the cluster's hits.
func (c *Cluster) Contains(h *detector.Hit) bool {
	for _, x := range c.hits {
		if x == h {
			return true
		}
	}

	return false
}

// SpanX returns the extent of the cluster along the drift coordinate.
func (c *Cluster) SpanX() (minX, maxX float64, ok bool) {
	if len(c.hits) == 0 {
		return 0, 0, false
	}

	return c.minX, c.maxX, true
}

// Volume returns the volume identity of the cluster, defined as the volume of its first hit.
// Upstream clustering keeps clusters volume-pure, so one hit is representative.
func (c *Cluster) Volume() (detector.VolumeID, bool) {
	if len(c.hits) == 0 {
		return detector.VolumeID{}, false
	}

	return c.hits[0].VolumeTag()
}

// View returns the view of the first hit, or ViewUnknown for an empty cluster.
func (c *Cluster) View() detector.View {
	if len(c.hits) == 0 {
		return detector.ViewUnknown
	}

	return c.hits[0].View
}

// LengthSquared returns the squared diagonal of the cluster's axis-aligned bounding box.
func (c *Cluster) LengthSquared() float64 {
	if len(c.hits) == 0 {
		return 0
	}
	lo, hi := c.hits[0].Position, c.hits[0].Position
	for _, h := range c.hits[1:] {
		p := h.Position
		lo = detector.Vector{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = detector.Vector{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}

	return hi.Sub(lo).MagSq()
}

// refresh recomputes the cached quantities from c.hits.
func (c *Cluster) refresh() {
	c.energy = 0
	c.minX, c.maxX = math.Inf(1), math.Inf(-1)
	for _, h := range c.hits {
		c.energy += h.Energy
		c.minX = math.Min(c.minX, h.Position.X)
		c.maxX = math.Max(c.maxX, h.Position.X)
	}
	if len(c.hits) == 0 {
		c.minX, c.maxX = 0, 0
	}
}

// Compare orders clusters for every deterministic iteration in larmerge:
// more hits first, then more energy, then lower ID. It returns a negative number
// when a sorts before b. A NaN energy sorts below every other energy.
func Compare(a, b *Cluster) int {
	if c := cmp.Compare(b.NHits(), a.NHits()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.energy, a.energy); c != 0 {
		return c
	}

	return cmp.Compare(a.id, b.id)
}

// Sort orders cs in place by Compare.
func Sort(cs []*Cluster) {
	sort.SliceStable(cs, func(i, j int) bool { return Compare(cs[i], cs[j]) < 0 })
}

// SortAvailableLast orders unavailable clusters before available ones, each part by Compare.
// Clusters already attached to particle-flow objects therefore act as seeds first.
func SortAvailableLast(cs []*Cluster) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].available != cs[j].available {
			return !cs[i].available
		}

		return Compare(cs[i], cs[j]) < 0
	})
}

// IDs returns the handles of cs in order.
func IDs(cs []*Cluster) []ID {
	out := make([]ID, len(cs))
	for i, c := range cs {
		out[i] = c.id
	}

	return out
}
