package geometry

import "github.com/larreco/larmerge/cluster"

// DefaultOverlapPadding absorbs drift-coordinate reconstruction uncertainty in VolumeOverlap.
const DefaultOverlapPadding = 0.5

// Interval is a closed extent [Min, Max] along one coordinate.
type Interval struct {
	Min float64
	Max float64
}

// Pad widens the interval by p on both ends.
func (iv Interval) Pad(p float64) Interval { return Interval{Min: iv.Min - p, Max: iv.Max + p} }

// Width returns Max-Min.
func (iv Interval) Width() float64 { return iv.Max - iv.Min }

// DriftSpan returns the extent of c along the drift coordinate (X).
func DriftSpan(c *cluster.Cluster) (Interval, bool) {
	if c == nil {
		return Interval{}, false
	}
	lo, hi, ok := c.SpanX()
	if !ok {
		return Interval{}, false
	}

	return Interval{Min: lo, Max: hi}, true
}

// VolumeOverlap reports whether span a intersects span b once b is padded by padding.
//
// With b' = b.Pad(padding), overlap holds if any of:
//   - a.Min lies in [b'.Min, b'.Max)
//   - a.Max lies in (b'.Min, b'.Max]
//   - a contains b'
func VolumeOverlap(a, b Interval, padding float64) bool {
	o := b.Pad(padding)

	return (a.Min >= o.Min && a.Min < o.Max) ||
		(a.Max > o.Min && a.Max <= o.Max) ||
		(a.Min <= o.Min && a.Max >= o.Max)
}

// ClustersOverlap evaluates VolumeOverlap on the drift spans of two clusters in both padding
// directions, so the answer does not depend on argument order. Empty clusters never overlap.
func ClustersOverlap(a, b *cluster.Cluster, padding float64) bool {
	sa, okA := DriftSpan(a)
	sb, okB := DriftSpan(b)
	if !okA || !okB {
		return false
	}

	return VolumeOverlap(sa, sb, padding) || VolumeOverlap(sb, sa, padding)
}
