package metrics_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/detector"
	"github.com/larreco/larmerge/merge"
	"github.com/larreco/larmerge/metrics"
)

func pair(t *testing.T) *cluster.Store {
	t.Helper()
	s := cluster.NewStore()
	for _, x0 := range []float64{0, 1} {
		hits := make([]*detector.Hit, 5)
		for i := range hits {
			hits[i] = &detector.Hit{ID: uint64(s.NHits() + i), Position: detector.Vector{X: x0 + 0.1*float64(i)}, Tagged: true}
		}
		_, err := s.Create(hits)
		require.NoError(t, err)
	}

	return s
}

func TestCollector_ObservesDriver(t *testing.T) {
	c := metrics.NewCollector("larmerge")
	d := merge.NewDriver(merge.WithRecorder(c))

	_, err := d.Run(context.Background(), merge.StoreSource{Store: pair(t)})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Passes.WithLabelValues("merging")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Merges.WithLabelValues("merging")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.EdgesBuilt.WithLabelValues("merging")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Runs.WithLabelValues("merging", metrics.OutcomeOK)))
	assert.Equal(t, 1, testutil.CollectAndCount(c.RunPasses))
}

func TestCollector_AbandonedOutcome(t *testing.T) {
	c := metrics.NewCollector("larmerge")
	d := merge.NewDriver(merge.WithRecorder(c), merge.WithMaxClusters(1))

	rep, err := d.Run(context.Background(), merge.StoreSource{Store: pair(t)})
	require.NoError(t, err)
	require.True(t, rep.Abandoned)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Runs.WithLabelValues("merging", metrics.OutcomeAbandoned)))
	assert.Zero(t, testutil.CollectAndCount(c.RunPasses), "no passes recorded for abandoned runs")
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, metrics.Outcome(&merge.Report{}, nil))
	assert.Equal(t, metrics.OutcomeAbandoned, metrics.Outcome(&merge.Report{Abandoned: true}, nil))
	assert.Equal(t, metrics.OutcomeFailed, metrics.Outcome(nil, merge.ErrMergeFailed))
	assert.Equal(t, metrics.OutcomeCancelled, metrics.Outcome(nil, context.Canceled))
}

func TestCollector_StagesAndEvents(t *testing.T) {
	c := metrics.NewCollector("larmerge")
	c.ObserveStage("consolidation", 7)
	c.ObserveStage("consolidation", 3)
	c.ObserveEvent(nil)
	c.ObserveEvent(merge.ErrNoProgress)

	assert.Equal(t, 10.0, testutil.ToFloat64(c.StageChanges.WithLabelValues("consolidation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Events.WithLabelValues(metrics.OutcomeFailed)))

	expected := `
# HELP larmerge_events_total Events processed by outcome.
# TYPE larmerge_events_total counter
larmerge_events_total{outcome="failed"} 1
larmerge_events_total{outcome="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "larmerge_events_total"))
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := metrics.NewCollector("larmerge")
	c.ObserveEvent(nil)
	path := filepath.Join(t.TempDir(), "larmerge.prom")

	require.NoError(t, c.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `larmerge_events_total{outcome="ok"} 1`)
	assert.Error(t, c.WriteTextfile(""))
}

func TestCollector_Independent(t *testing.T) {
	a := metrics.NewCollector("larmerge")
	b := metrics.NewCollector("larmerge")
	a.ObserveEvent(nil)
	assert.Zero(t, testutil.ToFloat64(b.Events.WithLabelValues(metrics.OutcomeOK)))
}
