package volume

import (
	"sort"

	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/detector"
)

// PurityReport describes how the hits of one cluster are spread over detector volumes.
type PurityReport struct {
	// Cluster is the inspected cluster's handle.
	Cluster cluster.ID

	// View is the cluster's view (first hit).
	View detector.View

	// Hits is the total hit count.
	Hits int

	// Volumes counts tagged hits per volume.
	Volumes map[detector.VolumeID]int

	// Untagged counts hits without a volume tag.
	Untagged int

	// Mixed is true when a tagged hit disagrees with the first hit's volume.
	Mixed bool
}

// Purity inspects c. Empty clusters produce a report with Hits == 0.
func Purity(c *cluster.Cluster) PurityReport {
	r := PurityReport{
		Cluster: c.ID(),
		View:    c.View(),
		Hits:    c.NHits(),
		Volumes: make(map[detector.VolumeID]int),
	}
	ref, hasRef := c.Volume()
	for i := 0; i < c.NHits(); i++ {
		v, ok := c.Hit(i).VolumeTag()
		if !ok {
			r.Untagged++
			continue
		}
		r.Volumes[v]++
		if hasRef && v != ref {
			r.Mixed = true
		}
	}

	return r
}

// MixedClusters returns the purity reports of the clusters that span several volumes,
// in input order.
func MixedClusters(cs []*cluster.Cluster) []PurityReport {
	var out []PurityReport
	for _, c := range cs {
		if r := Purity(c); r.Mixed {
			out = append(out, r)
		}
	}

	return out
}

// CatalogKey groups hits by volume and view.
type CatalogKey struct {
	Volume detector.VolumeID
	View   detector.View
}

// Catalog groups tagged hits by volume and view. With mergeDrift, stacked sub volumes
// sharing a drift volume are folded together (see detector.VolumeID.DriftMerged).
// Untagged hits are ignored.
func Catalog(hits []*detector.Hit, mergeDrift bool) map[CatalogKey][]*detector.Hit {
	out := make(map[CatalogKey][]*detector.Hit)
	for _, h := range hits {
		v, ok := h.VolumeTag()
		if !ok {
			continue
		}
		if mergeDrift {
			v = v.DriftMerged()
		}
		k := CatalogKey{Volume: v, View: h.View}
		out[k] = append(out[k], h)
	}

	return out
}

// CatalogKeys returns the keys of a catalog in a stable order (TPC, Sub, View).
func CatalogKeys(catalog map[CatalogKey][]*detector.Hit) []CatalogKey {
	keys := make([]CatalogKey, 0, len(catalog))
	for k := range catalog {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Volume.TPC != b.Volume.TPC {
			return a.Volume.TPC < b.Volume.TPC
		}
		if a.Volume.Sub != b.Volume.Sub {
			return a.Volume.Sub < b.Volume.Sub
		}

		return a.View < b.View
	})

	return keys
}
