package detector_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larreco/larmerge/detector"
)

func TestVector_Arithmetic(t *testing.T) {
	a := detector.Vector{X: 1, Y: 2, Z: 3}
	b := detector.Vector{X: -1, Y: 0, Z: 2}

	assert.Equal(t, detector.Vector{X: 0, Y: 2, Z: 5}, a.Add(b))
	assert.Equal(t, detector.Vector{X: 2, Y: 2, Z: 1}, a.Sub(b))
	assert.Equal(t, detector.Vector{X: 2, Y: 4, Z: 6}, a.Scale(2))
	assert.Equal(t, 5.0, a.Dot(b))
	assert.Equal(t, detector.Vector{X: 4, Y: -5, Z: 2}, a.Cross(b))
	assert.Equal(t, 14.0, a.MagSq())
	assert.InDelta(t, math.Sqrt(14), a.Mag(), 1e-12)
}

func TestVector_Unit(t *testing.T) {
	u, ok := detector.Vector{X: 3, Y: 4}.Unit()
	require.True(t, ok)
	assert.InDelta(t, 1, u.Mag(), 1e-12)

	_, ok = detector.Vector{}.Unit()
	assert.False(t, ok)
}

func TestVector_CosOpeningAngle(t *testing.T) {
	x := detector.Vector{X: 1}
	assert.InDelta(t, 1, x.CosOpeningAngle(detector.Vector{X: 5}), 1e-12)
	assert.InDelta(t, -1, x.CosOpeningAngle(detector.Vector{X: -2}), 1e-12)
	assert.InDelta(t, 0, x.CosOpeningAngle(detector.Vector{Y: 1}), 1e-12)
	assert.Equal(t, 0.0, x.CosOpeningAngle(detector.Vector{}), "zero vector has no direction")
}

func TestParseView(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want detector.View
	}{
		{"U", detector.ViewU}, {"v", detector.ViewV}, {"W", detector.ViewW},
		{"3d", detector.View3D}, {"Custom", detector.ViewCustom},
	} {
		got, err := detector.ParseView(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, got, mustParse(t, got.String()), "String round-trips")
	}

	_, err := detector.ParseView("Y")
	assert.ErrorIs(t, err, detector.ErrUnknownView)
}

func mustParse(t *testing.T, s string) detector.View {
	t.Helper()
	v, err := detector.ParseView(s)
	require.NoError(t, err)

	return v
}

func TestView_Is2D(t *testing.T) {
	assert.True(t, detector.ViewW.Is2D())
	assert.False(t, detector.View3D.Is2D())
	assert.False(t, detector.ViewUnknown.Is2D())
	assert.Equal(t, "View(9)", detector.View(9).String())
}

func TestVolumeID_DriftMerged(t *testing.T) {
	assert.Equal(t, detector.VolumeID{TPC: 2, Sub: 1}, detector.VolumeID{TPC: 2, Sub: 3}.DriftMerged())
	assert.Equal(t, detector.VolumeID{TPC: 2, Sub: 0}, detector.VolumeID{TPC: 2, Sub: 4}.DriftMerged())
	assert.Equal(t, "2:3", detector.VolumeID{TPC: 2, Sub: 3}.String())
}

func TestHit_VolumeTag(t *testing.T) {
	tagged := &detector.Hit{Volume: detector.VolumeID{TPC: 1}, Tagged: true}
	v, ok := tagged.VolumeTag()
	assert.True(t, ok)
	assert.Equal(t, detector.VolumeID{TPC: 1}, v)

	plain := &detector.Hit{Volume: detector.VolumeID{TPC: 1}}
	_, ok = plain.VolumeTag()
	assert.False(t, ok, "volume is ignored without the tag")

	var nilHit *detector.Hit
	_, ok = nilHit.VolumeTag()
	assert.False(t, ok)
}
