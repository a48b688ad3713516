package merge_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/detector"
	"github.com/larreco/larmerge/merge"
)

// track adds a cluster of n hits from start in steps of step, tagged with vol.
func track(t *testing.T, s *cluster.Store, n int, start, step detector.Vector, vol detector.VolumeID, opts ...cluster.CreateOption) *cluster.Cluster {
	t.Helper()
	hits := make([]*detector.Hit, n)
	for i := range hits {
		hits[i] = &detector.Hit{
			ID:       uint64(s.NHits() + i),
			Position: start.Add(step.Scale(float64(i))),
			Energy:   1,
			View:     detector.ViewW,
			Volume:   vol,
			Tagged:   true,
		}
	}
	c, err := s.Create(hits, opts...)
	require.NoError(t, err)

	return c
}

// alongX is shorthand for a track on the X axis at height y with 0.1 spacing.
func alongX(t *testing.T, s *cluster.Store, n int, x0, y float64, opts ...cluster.CreateOption) *cluster.Cluster {
	t.Helper()

	return track(t, s, n, detector.Vector{X: x0, Y: y}, detector.Vector{X: 0.1}, detector.VolumeID{}, opts...)
}

// failingSource wraps a StoreSource and rejects merges after ok successful calls.
type failingSource struct {
	merge.StoreSource
	ok  int
	err error
}

func (f *failingSource) MergeAndDelete(seed, member cluster.ID) error {
	if f.ok == 0 {
		return f.err
	}
	f.ok--

	return f.StoreSource.MergeAndDelete(seed, member)
}

// plainSource hides StoreSource.Abandon.
type plainSource struct{ src merge.StoreSource }

func (p plainSource) CleanClusters() []*cluster.Cluster { return p.src.CleanClusters() }

func (p plainSource) MergeAndDelete(seed, member cluster.ID) error {
	return p.src.MergeAndDelete(seed, member)
}

// passRecorder collects what the driver reports.
type passRecorder struct {
	passes []merge.PassSummary
	runs   int
	err    error
}

func (r *passRecorder) ObservePass(_ merge.Variant, s merge.PassSummary) { r.passes = append(r.passes, s) }

func (r *passRecorder) ObserveRun(_ *merge.Report, err error) {
	r.runs++
	r.err = err
}
