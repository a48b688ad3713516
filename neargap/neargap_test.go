package neargap_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/config"
	"github.com/larreco/larmerge/detector"
	"github.com/larreco/larmerge/neargap"
	"github.com/larreco/larmerge/pfo"
)

type event struct {
	clusters *cluster.Store
	pfos     *pfo.Store
}

func newEvent(t *testing.T) *event {
	t.Helper()
	cs := cluster.NewStore()
	ps, err := pfo.NewStore(cs)
	require.NoError(t, err)

	return &event{clusters: cs, pfos: ps}
}

// cluster3D creates a 3D cluster with one hit per point.
func (e *event) cluster3D(t *testing.T, vol detector.VolumeID, points []detector.Vector) *cluster.Cluster {
	t.Helper()
	hits := make([]*detector.Hit, len(points))
	for i, p := range points {
		hits[i] = &detector.Hit{
			ID:       uint64(e.clusters.NHits() + i),
			Position: p,
			Energy:   1,
			View:     detector.View3D,
			Volume:   vol,
			Tagged:   true,
		}
	}
	c, err := e.clusters.Create(hits)
	require.NoError(t, err)

	return c
}

// alongZ creates a PFO whose 3D cluster has one hit per unit z in [z0, z1] at the given x.
func (e *event) alongZ(t *testing.T, x float64, z0, z1 int, vol detector.VolumeID) *pfo.Pfo {
	t.Helper()
	var points []detector.Vector
	for z := z0; z <= z1; z++ {
		points = append(points, detector.Vector{X: x, Z: float64(z)})
	}
	p, err := e.pfos.Create(e.cluster3D(t, vol, points).ID())
	require.NoError(t, err)

	return p
}

func TestRun_StitchesAcrossGap(t *testing.T) {
	e := newEvent(t)
	a := e.alongZ(t, 0, -60, 3, detector.VolumeID{})
	b := e.alongZ(t, 0, 6, 50, detector.VolumeID{})

	sum, err := neargap.New().Run(context.Background(), e.pfos)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Seeds)
	assert.Equal(t, 1, sum.Matches)
	assert.Equal(t, 1, sum.Merges)
	assert.True(t, b.Retired())
	assert.Equal(t, 1, e.pfos.Len())

	cs, err := e.pfos.ThreeDClusters(a.ID())
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, 109, cs[0].NHits())
}

func TestRun_RejectsIncompatible(t *testing.T) {
	e := newEvent(t)
	e.alongZ(t, 0, -60, 3, detector.VolumeID{})

	var perpendicular []detector.Vector
	for x := -10; x <= 10; x++ {
		perpendicular = append(perpendicular, detector.Vector{X: float64(x), Z: 20})
	}
	_, err := e.pfos.Create(e.cluster3D(t, detector.VolumeID{}, perpendicular).ID())
	require.NoError(t, err)
	e.alongZ(t, 50, 6, 50, detector.VolumeID{}) // parallel but displaced

	sum, err := neargap.New().Run(context.Background(), e.pfos)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Seeds)
	assert.Zero(t, sum.Matches)
	assert.Equal(t, 3, e.pfos.Len())
}

func TestRun_FacingSeedsMergeOnce(t *testing.T) {
	e := newEvent(t)
	a := e.alongZ(t, 0, -60, 3, detector.VolumeID{})
	b := e.alongZ(t, 0, -3, 60, detector.VolumeID{})

	sum, err := neargap.New().Run(context.Background(), e.pfos)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Seeds)
	assert.Equal(t, 2, sum.Matches)
	assert.Equal(t, 1, sum.Groups)
	assert.Equal(t, 1, sum.Merges)
	assert.False(t, a.Retired())
	assert.True(t, b.Retired())
}

func TestRun_SpanningAndSmallAreNotSeeds(t *testing.T) {
	e := newEvent(t)
	e.alongZ(t, 0, -30, 30, detector.VolumeID{}) // spans the gap
	e.alongZ(t, 5, -26, 3, detector.VolumeID{})  // 30 hits

	sum, err := neargap.New().Run(context.Background(), e.pfos)
	require.NoError(t, err)
	assert.Zero(t, sum.Seeds)
	assert.Zero(t, sum.Merges)
}

func TestRun_MalformedSkipped(t *testing.T) {
	e := newEvent(t)
	c1 := e.cluster3D(t, detector.VolumeID{}, []detector.Vector{{Z: 1}, {Z: 2}})
	c2 := e.cluster3D(t, detector.VolumeID{}, []detector.Vector{{Z: 3}, {Z: 4}})
	_, err := e.pfos.Create(c1.ID(), c2.ID())
	require.NoError(t, err)

	sum, err := neargap.New().Run(context.Background(), e.pfos)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Pfos)
	assert.Equal(t, 1, sum.Malformed)
}

func TestNewFromConfig_VolumeCheck(t *testing.T) {
	cfg := config.Default()
	cfg.NearGaps.CheckVolumes = true
	st, err := neargap.NewFromConfig(cfg)
	require.NoError(t, err)

	e := newEvent(t)
	e.alongZ(t, 0, -60, 3, detector.VolumeID{TPC: 0})
	e.alongZ(t, 0, 6, 50, detector.VolumeID{TPC: 1})

	sum, err := st.Run(context.Background(), e.pfos)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Matches)
	assert.Equal(t, 1, sum.Vetoed)
	assert.Zero(t, sum.Merges)
	assert.Equal(t, 2, e.pfos.Len())
}

func TestRun_Errors(t *testing.T) {
	_, err := neargap.New().Run(context.Background(), nil)
	assert.ErrorIs(t, err, neargap.ErrNilStore)

	e := newEvent(t)
	e.alongZ(t, 0, -60, 3, detector.VolumeID{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = neargap.New().Run(ctx, e.pfos)
	assert.ErrorIs(t, err, context.Canceled)
}
