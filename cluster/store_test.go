package cluster_test

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/detector"
)

// hitsAlongX returns n tagged hits at x0, x0+step, ... in volume vol.
func hitsAlongX(firstID uint64, n int, x0, step float64, vol detector.VolumeID) []*detector.Hit {
	out := make([]*detector.Hit, n)
	for i := range out {
		out[i] = &detector.Hit{
			ID:       firstID + uint64(i),
			Position: detector.Vector{X: x0 + float64(i)*step},
			Energy:   1,
			View:     detector.ViewW,
			Volume:   vol,
			Tagged:   true,
		}
	}

	return out
}

func TestStore_CreateAndGet(t *testing.T) {
	s := cluster.NewStore()
	c, err := s.Create(hitsAlongX(0, 3, 1, 2, detector.VolumeID{}))
	require.NoError(t, err)

	assert.Equal(t, cluster.ID(1), c.ID(), "IDs start at 1")
	assert.Equal(t, 3, c.NHits())
	assert.Equal(t, 3.0, c.Energy())
	assert.True(t, c.Available())
	lo, hi, ok := c.SpanX()
	require.True(t, ok)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 5.0, hi)
	assert.Equal(t, 16.0, c.LengthSquared())

	got, err := s.Get(c.ID())
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.True(t, s.Has(c.ID()))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 3, s.NHits())

	_, err = s.Get(99)
	assert.ErrorIs(t, err, cluster.ErrClusterNotFound)
}

func TestStore_HitExclusivity(t *testing.T) {
	s := cluster.NewStore()
	hits := hitsAlongX(0, 2, 0, 1, detector.VolumeID{})
	_, err := s.Create(hits)
	require.NoError(t, err)

	_, err = s.Create(hits[:1])
	assert.ErrorIs(t, err, cluster.ErrHitOwned)

	dup := hitsAlongX(10, 1, 0, 1, detector.VolumeID{})
	_, err = s.Create([]*detector.Hit{dup[0], dup[0]})
	assert.ErrorIs(t, err, cluster.ErrHitOwned)

	_, err = s.Create([]*detector.Hit{nil})
	assert.ErrorIs(t, err, cluster.ErrNilHit)
	assert.Equal(t, 1, s.Len(), "failed creates leave no trace")
}

func TestStore_Capacity(t *testing.T) {
	s := cluster.NewStore(cluster.WithMaxClusters(1))
	_, err := s.Create(nil)
	require.NoError(t, err)
	_, err = s.Create(nil)
	assert.ErrorIs(t, err, cluster.ErrCapacity)
}

func TestStore_MergeAndDelete(t *testing.T) {
	s := cluster.NewStore()
	seed, _ := s.Create(hitsAlongX(0, 3, 0, 1, detector.VolumeID{}))
	member, _ := s.Create(hitsAlongX(10, 2, 10, 1, detector.VolumeID{}))
	moved := member.Hits()

	require.NoError(t, s.MergeAndDelete(seed.ID(), member.ID()))
	assert.Equal(t, 5, seed.NHits())
	assert.True(t, member.Retired())
	assert.False(t, s.Has(member.ID()))
	for _, h := range moved {
		owner, ok := s.Owner(h)
		require.True(t, ok)
		assert.Equal(t, seed.ID(), owner)
	}
	_, hi, _ := seed.SpanX()
	assert.Equal(t, 11.0, hi, "caches refreshed")
}

func TestStore_MergeAndDelete_Failures(t *testing.T) {
	s := cluster.NewStore()
	a, _ := s.Create(hitsAlongX(0, 1, 0, 1, detector.VolumeID{}))
	b, _ := s.Create(hitsAlongX(1, 1, 1, 1, detector.VolumeID{}), cluster.WithAvailable(false))

	assert.ErrorIs(t, s.MergeAndDelete(a.ID(), a.ID()), cluster.ErrSelfMerge)
	assert.ErrorIs(t, s.MergeAndDelete(a.ID(), 42), cluster.ErrClusterNotFound)
	assert.ErrorIs(t, s.MergeAndDelete(42, a.ID()), cluster.ErrClusterNotFound)
	assert.ErrorIs(t, s.MergeAndDelete(a.ID(), b.ID()), cluster.ErrUnavailable)

	// unavailable clusters may still absorb
	require.NoError(t, s.MergeAndDelete(b.ID(), a.ID()))
	assert.Equal(t, 2, b.NHits())
	assert.Equal(t, 1, s.Len())
}

func TestStore_AddRemoveDelete(t *testing.T) {
	s := cluster.NewStore()
	c, _ := s.Create(hitsAlongX(0, 2, 0, 1, detector.VolumeID{}))
	extra := hitsAlongX(5, 2, 5, 1, detector.VolumeID{})

	require.NoError(t, s.AddHits(c.ID(), extra))
	assert.Equal(t, 4, c.NHits())
	assert.ErrorIs(t, s.AddHits(c.ID(), extra[:1]), cluster.ErrHitOwned)

	require.NoError(t, s.RemoveHits(c.ID(), c.Hits()))
	assert.True(t, c.Empty())
	assert.True(t, s.Has(c.ID()), "empty clusters stay until deleted")
	assert.ErrorIs(t, s.RemoveHits(c.ID(), extra), cluster.ErrHitNotInCluster)

	require.NoError(t, s.Delete(c.ID()))
	assert.ErrorIs(t, s.Delete(c.ID()), cluster.ErrClusterNotFound)
	assert.Equal(t, 0, s.NHits())
}

func TestStore_SelectKeepsCreationOrder(t *testing.T) {
	s := cluster.NewStore()
	var ids []cluster.ID
	for i := 0; i < 5; i++ {
		c, err := s.Create(hitsAlongX(uint64(i*10), i+1, 0, 1, detector.VolumeID{}))
		require.NoError(t, err)
		ids = append(ids, c.ID())
	}
	big := s.Select(func(c *cluster.Cluster) bool { return c.NHits() >= 3 })
	assert.Equal(t, ids[2:], cluster.IDs(big))
	assert.Equal(t, ids, cluster.IDs(s.List()))
}

func TestCompare_TotalOrder(t *testing.T) {
	s := cluster.NewStore()
	small, _ := s.Create(hitsAlongX(0, 2, 0, 1, detector.VolumeID{}))
	large, _ := s.Create(hitsAlongX(10, 5, 0, 1, detector.VolumeID{}))
	tieA, _ := s.Create(hitsAlongX(20, 3, 0, 1, detector.VolumeID{}))
	tieB, _ := s.Create(hitsAlongX(30, 3, 0, 1, detector.VolumeID{}))
	heavy := hitsAlongX(40, 3, 0, 1, detector.VolumeID{})
	heavy[0].Energy = 10
	tieHeavy, _ := s.Create(heavy)

	cs := []*cluster.Cluster{small, tieB, tieA, large, tieHeavy}
	cluster.Sort(cs)
	assert.Equal(t, []cluster.ID{large.ID(), tieHeavy.ID(), tieA.ID(), tieB.ID(), small.ID()}, cluster.IDs(cs))
	assert.Zero(t, cluster.Compare(tieA, tieA))
}

func TestCompare_NaNEnergySortsLast(t *testing.T) {
	s := cluster.NewStore()
	nanHits := hitsAlongX(0, 3, 0, 1, detector.VolumeID{})
	nanHits[0].Energy = math.NaN()
	nan, _ := s.Create(nanHits)
	plain, _ := s.Create(hitsAlongX(10, 3, 0, 1, detector.VolumeID{}))
	nanHits2 := hitsAlongX(20, 3, 0, 1, detector.VolumeID{})
	nanHits2[1].Energy = math.NaN()
	nan2, _ := s.Create(nanHits2)

	assert.Negative(t, cluster.Compare(plain, nan))
	assert.Positive(t, cluster.Compare(nan, plain))
	assert.Zero(t, cluster.Compare(nan, nan))
	assert.Negative(t, cluster.Compare(nan, nan2), "NaN energies fall back to ID")

	for _, in := range [][]*cluster.Cluster{{nan, plain, nan2}, {nan2, nan, plain}, {plain, nan2, nan}} {
		cluster.Sort(in)
		assert.Equal(t, []cluster.ID{plain.ID(), nan.ID(), nan2.ID()}, cluster.IDs(in))
	}
}

func TestSortAvailableLast(t *testing.T) {
	s := cluster.NewStore()
	a, _ := s.Create(hitsAlongX(0, 5, 0, 1, detector.VolumeID{}))
	b, _ := s.Create(hitsAlongX(10, 2, 0, 1, detector.VolumeID{}), cluster.WithAvailable(false))
	c, _ := s.Create(hitsAlongX(20, 3, 0, 1, detector.VolumeID{}), cluster.WithAvailable(false))

	cs := []*cluster.Cluster{a, b, c}
	cluster.SortAvailableLast(cs)
	assert.Equal(t, []cluster.ID{c.ID(), b.ID(), a.ID()}, cluster.IDs(cs))
}

func TestCluster_VolumeAndView(t *testing.T) {
	s := cluster.NewStore()
	vol := detector.VolumeID{TPC: 3, Sub: 1}
	c, _ := s.Create(hitsAlongX(0, 2, 0, 1, vol))
	v, ok := c.Volume()
	require.True(t, ok)
	assert.Equal(t, vol, v)
	assert.Equal(t, detector.ViewW, c.View())

	empty, _ := s.Create(nil)
	_, ok = empty.Volume()
	assert.False(t, ok)
	assert.Equal(t, detector.ViewUnknown, empty.View())
	_, _, ok = empty.SpanX()
	assert.False(t, ok)
}

func TestStore_ConcurrentReaders(t *testing.T) {
	s := cluster.NewStore()
	for i := 0; i < 20; i++ {
		_, err := s.Create(hitsAlongX(uint64(i*10), 3, 0, 1, detector.VolumeID{}))
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.List()
				_ = s.NHits()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, s.Len())
}
