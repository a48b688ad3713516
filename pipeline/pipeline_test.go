package pipeline_test

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/larreco/larmerge/config"
	"github.com/larreco/larmerge/eventio"
	"github.com/larreco/larmerge/metrics"
	"github.com/larreco/larmerge/pipeline"
)

const twoClusters = `
event_id: pair
hits:
  - {id: 1, position: {x: 0.0}, view: W, volume: {tpc: 0, sub: 0}}
  - {id: 2, position: {x: 0.1}, view: W, volume: {tpc: 0, sub: 0}}
  - {id: 3, position: {x: 1.0}, view: W, volume: {tpc: 0, sub: 0}}
  - {id: 4, position: {x: 1.1}, view: W, volume: {tpc: 0, sub: 0}}
clusters:
  - {label: a, hits: [1, 2]}
  - {label: b, hits: [3, 4]}
`

func event(t *testing.T) *eventio.Event {
	t.Helper()
	specs, err := eventio.Decode(strings.NewReader(twoClusters))
	require.NoError(t, err)
	ev, err := specs[0].Build()
	require.NoError(t, err)

	return ev
}

func TestProcess_Merging(t *testing.T) {
	m := metrics.NewCollector("larmerge")
	r, err := pipeline.New(config.Default(), pipeline.WithLogger(zaptest.NewLogger(t)), pipeline.WithMetrics(m))
	require.NoError(t, err)

	res := r.Process(context.Background(), event(t))
	assert.Empty(t, res.Error)
	require.Len(t, res.Clusters, 1)
	assert.Equal(t, "a", res.Clusters[0].Label)
	assert.Equal(t, []uint64{1, 2, 3, 4}, res.Clusters[0].Hits)
	assert.Equal(t, "passes=2 merges=1", res.Stages[pipeline.StageMerging])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues(metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Merges.WithLabelValues("merging")))
}

func TestProcess_Abandoned(t *testing.T) {
	cfg := config.Default()
	cfg.Limits.MaxClusters = 1
	r, err := pipeline.New(cfg, pipeline.WithStages(pipeline.StageMerging, pipeline.StageNearGaps))
	require.NoError(t, err)

	res := r.Process(context.Background(), event(t))
	assert.True(t, res.Abandoned)
	assert.Empty(t, res.Clusters)
	assert.Equal(t, "abandoned", res.Stages[pipeline.StageMerging])
	assert.NotContains(t, res.Stages, pipeline.StageNearGaps)
}

func TestProcess_FailureIsRecorded(t *testing.T) {
	cfg := config.Default()
	cfg.Limits.MaxPasses = 1
	m := metrics.NewCollector("larmerge")
	r, err := pipeline.New(cfg, pipeline.WithMetrics(m))
	require.NoError(t, err)

	res := r.Process(context.Background(), event(t))
	assert.Contains(t, res.Error, "no progress")
	assert.Len(t, res.Clusters, 1, "merges issued before the failure stay applied")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues(metrics.OutcomeFailed)))
}

func TestProcess_AllStages(t *testing.T) {
	r, err := pipeline.New(config.Default(), pipeline.WithStages(
		pipeline.StageConsolidation,
		pipeline.StageGrowing,
		pipeline.StageExtension,
		pipeline.StageNearGaps,
	))
	require.NoError(t, err)

	res := r.Process(context.Background(), event(t))
	assert.Empty(t, res.Error)
	assert.Len(t, res.Stages, 4)
	assert.Equal(t, "seeds=0 matches=0 merges=0 malformed=0", res.Stages[pipeline.StageNearGaps])
}

func TestNew_Errors(t *testing.T) {
	_, err := pipeline.New(config.Default(), pipeline.WithStages("bogus"))
	assert.ErrorIs(t, err, pipeline.ErrUnknownStage)

	cfg := config.Default()
	cfg.Merging.MaxSeparation = 0
	_, err = pipeline.New(cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}
