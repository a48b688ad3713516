package association_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larreco/larmerge/association"
	"github.com/larreco/larmerge/cluster"
)

func TestBuild_Threshold_ThreeClusters(t *testing.T) {
	_, a, b, c := threeClusters(t)
	bld := association.NewBuilder(association.WithMode(association.ModeThreshold))

	m, sum := bld.Build([]*cluster.Cluster{c, b, a})
	assert.Equal(t, [][2]cluster.ID{{a.ID(), b.ID()}, {b.ID(), a.ID()}}, m.Pairs())
	assert.Equal(t, 3, sum.Candidates)
	assert.Equal(t, 6, sum.PairsTested)
	assert.Equal(t, 2, sum.Edges)
}

func TestBuild_BestSeed_IsForest(t *testing.T) {
	_, a, b, c := threeClusters(t)
	bld := association.NewBuilder(association.WithMaxSeparation(3.5))

	m, _ := bld.Build([]*cluster.Cluster{a, b, c})
	// a precedes b and c; b and c both join a
	assert.Equal(t, [][2]cluster.ID{{a.ID(), b.ID()}, {a.ID(), c.ID()}}, m.Pairs())
	for _, y := range []*cluster.Cluster{a, b, c} {
		assert.LessOrEqual(t, m.InDegree(y.ID()), 1)
	}
}

func TestBuild_BestSeed_TieGoesToFirstInOrder(t *testing.T) {
	s := cluster.NewStore()
	big := segment(t, s, 20, 0, 0)
	other := segment(t, s, 10, 0, 5)
	y := segment(t, s, 1, 0, 10)
	flat := func(_, _ *cluster.Cluster) float64 { return 1 }

	m, _ := association.NewBuilder(association.WithMetric(flat)).Build([]*cluster.Cluster{y, other, big})
	assert.True(t, m.Has(big.ID(), y.ID()))
	assert.False(t, m.Has(other.ID(), y.ID()))
	assert.True(t, m.Has(big.ID(), other.ID()))
}

func TestBuild_SkipsEmptyClusters(t *testing.T) {
	s, a, b, _ := threeClusters(t)
	empty, err := s.Create(nil)
	require.NoError(t, err)

	m, sum := association.NewBuilder(association.WithMode(association.ModeThreshold)).
		Build([]*cluster.Cluster{a, empty, b, nil})
	assert.Equal(t, 2, sum.Malformed)
	assert.Equal(t, 2, sum.Candidates)
	_, known := m.Cluster(empty.ID())
	assert.False(t, known)
}

func TestBuild_Predicate(t *testing.T) {
	_, a, b, _ := threeClusters(t)
	bld := association.NewBuilder(
		association.WithMode(association.ModeThreshold),
		association.WithPredicate(func(from, _ *cluster.Cluster) bool { return from.ID() == a.ID() }),
	)
	m, sum := bld.Build([]*cluster.Cluster{a, b})
	assert.Equal(t, [][2]cluster.ID{{a.ID(), b.ID()}}, m.Pairs())
	assert.Equal(t, 1, sum.Rejected)
}

func TestBuild_CustomMetric(t *testing.T) {
	_, a, b, c := threeClusters(t)
	always := func(_, _ *cluster.Cluster) float64 { return 0 }
	m, _ := association.NewBuilder(
		association.WithMode(association.ModeThreshold),
		association.WithMetric(always),
	).Build([]*cluster.Cluster{a, b, c})
	assert.Equal(t, 6, m.EdgeCount())

	m, _ = association.NewBuilder(association.WithMaxSeparation(0)).Build([]*cluster.Cluster{a, b, c})
	assert.True(t, m.Empty(), "zero threshold never matches")
}

func TestBuild_PredicateFactory(t *testing.T) {
	_, a, b, c := threeClusters(t)
	var calls int
	var seen []cluster.ID
	bld := association.NewBuilder(
		association.WithMode(association.ModeThreshold),
		association.WithMaxSeparation(10),
		association.WithPredicateFactory(func(cs []*cluster.Cluster) association.Predicate {
			calls++
			seen = cluster.IDs(cs)
			return func(_, to *cluster.Cluster) bool { return to.ID() != c.ID() }
		}),
		association.WithPredicate(func(from, _ *cluster.Cluster) bool { return from.ID() == a.ID() }),
	)

	m, sum := bld.Build([]*cluster.Cluster{c, b, a})
	assert.Equal(t, 1, calls, "one factory call per Build")
	assert.Equal(t, []cluster.ID{a.ID(), b.ID(), c.ID()}, seen)
	assert.Equal(t, [][2]cluster.ID{{a.ID(), b.ID()}}, m.Pairs(), "both gates apply")
	assert.Equal(t, 5, sum.Rejected)

	bld.BuildSeeded([]*cluster.Cluster{a}, []*cluster.Cluster{b, c})
	assert.Equal(t, 2, calls)
	assert.Len(t, seen, 3)
}

func TestBuildSeeded(t *testing.T) {
	_, a, b, c := threeClusters(t)
	bld := association.NewBuilder(association.WithMaxSeparation(3.5))

	m, sum := bld.BuildSeeded([]*cluster.Cluster{a}, []*cluster.Cluster{a, b, c})
	assert.Equal(t, [][2]cluster.ID{{a.ID(), b.ID()}, {a.ID(), c.ID()}}, m.Pairs())
	assert.Equal(t, 4, sum.Candidates)
	assert.False(t, m.HasSource(b.ID()), "candidates never become sources")
}

func TestBuild_Deterministic(t *testing.T) {
	_, a, b, c := threeClusters(t)
	bld := association.NewBuilder(association.WithMode(association.ModeThreshold), association.WithMaxSeparation(10))

	first, _ := bld.Build([]*cluster.Cluster{a, b, c})
	for _, perm := range [][]*cluster.Cluster{{c, b, a}, {b, a, c}, {c, a, b}} {
		again, _ := bld.Build(perm)
		if diff := cmp.Diff(first.Pairs(), again.Pairs()); diff != "" {
			t.Fatalf("input order leaked into the matrix (-want +got):\n%s", diff)
		}
	}
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "best-seed", association.ModeBestSeed.String())
	assert.Equal(t, "threshold", association.ModeThreshold.String())
	assert.Equal(t, "unknown", association.Mode(7).String())
}
