package merge

import (
	"errors"

	"github.com/larreco/larmerge/association"
	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/resolve"
	"github.com/larreco/larmerge/volume"
)

var (
	// ErrNilSource is returned when Run is given a nil Source.
	ErrNilSource = errors.New("merge: source is nil")

	// ErrMergeFailed wraps a MergeAndDelete failure reported by the Source.
	ErrMergeFailed = errors.New("merge: merge-and-delete failed")

	// ErrNoProgress indicates the loop exceeded its pass bound without reaching an empty matrix.
	ErrNoProgress = errors.New("merge: no progress within pass bound")

	// ErrExcessiveSize is the reason handed to Abandoner.Abandon when a size cap is exceeded.
	ErrExcessiveSize = errors.New("merge: event exceeds size limits")

	// ErrUnknownVariant indicates a Variant value outside the defined set.
	ErrUnknownVariant = errors.New("merge: unknown variant")
)

// Source is the external collection the driver reads clusters from and issues merges to.
type Source interface {
	// CleanClusters returns the clusters eligible for association in the current state.
	CleanClusters() []*cluster.Cluster

	// MergeAndDelete folds member into seed and retires member. It must be all-or-nothing.
	MergeAndDelete(seed, member cluster.ID) error
}

// Abandoner is implemented by sources that can publish an empty result for an event.
type Abandoner interface {
	Abandon(reason error) error
}

// Variant selects how the association matrix is built and how seeds are ordered.
type Variant int

const (
	// VariantMerging associates every pair below threshold and seeds unavailable clusters first.
	VariantMerging Variant = iota

	// VariantGrowing links candidates to the nearest of a fixed seed list chosen once per run.
	VariantGrowing

	// VariantExtension links aligned clusters by endpoint distance.
	VariantExtension
)

// String implements fmt.Stringer.
func (v Variant) String() string {
	switch v {
	case VariantMerging:
		return "merging"
	case VariantGrowing:
		return "growing"
	case VariantExtension:
		return "extension"
	default:
		return "unknown"
	}
}

// ParseVariant maps a variant name to its value.
func ParseVariant(s string) (Variant, error) {
	for _, v := range []Variant{VariantMerging, VariantGrowing, VariantExtension} {
		if v.String() == s {
			return v, nil
		}
	}

	return 0, ErrUnknownVariant
}

// PassSummary describes one outer iteration.
type PassSummary struct {
	// Pass is the 1-based pass number.
	Pass int

	// Clusters is the number of clean clusters read at the start of the pass.
	Clusters int

	Build   association.Summary
	Filter  volume.Summary
	Resolve resolve.Summary

	// Disjoined counts edges removed so that no two merge groups share a cluster.
	Disjoined int

	// Merges is the number of MergeAndDelete calls issued in this pass.
	Merges int
}

// Report is the outcome of Run.
type Report struct {
	Variant Variant

	// InitialClusters is the clean cluster count read by the first pass.
	InitialClusters int

	// Passes is the number of passes started, including the final empty one.
	Passes int

	// Merges is the total number of MergeAndDelete calls issued.
	Merges int

	// Abandoned is set when a size cap was exceeded and nothing was attempted.
	Abandoned bool

	PassSummaries []PassSummary
}

// Recorder observes driver progress. metrics.Collector implements it.
type Recorder interface {
	ObservePass(v Variant, s PassSummary)
	ObserveRun(r *Report, err error)
}

// StoreSource adapts a cluster.Store to Source.
type StoreSource struct {
	Store *cluster.Store

	// MinHits drops clusters with fewer hits from CleanClusters.
	MinHits int

	// OnlyAvailable drops unavailable clusters from CleanClusters.
	OnlyAvailable bool
}

// CleanClusters returns the live clusters passing the hit and availability cuts, in creation order.
func (s StoreSource) CleanClusters() []*cluster.Cluster {
	return s.Store.Select(func(c *cluster.Cluster) bool {
		if c.NHits() < s.MinHits {
			return false
		}

		return !s.OnlyAvailable || c.Available()
	})
}

// MergeAndDelete forwards to the store.
func (s StoreSource) MergeAndDelete(seed, member cluster.ID) error {
	return s.Store.MergeAndDelete(seed, member)
}

// Abandon deletes every live cluster of the store, publishing an empty event.
func (s StoreSource) Abandon(_ error) error {
	for _, c := range s.Store.List() {
		if err := s.Store.Delete(c.ID()); err != nil {
			return err
		}
	}

	return nil
}
