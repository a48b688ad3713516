package neargap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/larreco/larmerge/association"
	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/config"
	"github.com/larreco/larmerge/detector"
	"github.com/larreco/larmerge/geometry"
	"github.com/larreco/larmerge/pfo"
	"github.com/larreco/larmerge/resolve"
	"github.com/larreco/larmerge/volume"
)

var (
	// ErrNilStore is returned when Run is given a nil PFO store.
	ErrNilStore = errors.New("neargap: pfo store is nil")

	// ErrMergeFailed wraps a pfo.Store.MergeAndDelete failure.
	ErrMergeFailed = errors.New("neargap: pfo merge failed")
)

// Params are the selection cuts.
type Params struct {
	MinClusterHits        int
	GapHalfLength         float64
	LookoutRange          float64
	MinAbsCosAxis         float64
	MinAbsCosDisplacement float64
	MinGapPoints          int
	MaxSpanningPoints     int
	NearGapPoints         int
}

// DefaultParams returns the shipped cuts.
func DefaultParams() Params {
	return Params{
		MinClusterHits:        40,
		GapHalfLength:         4.1,
		LookoutRange:          100,
		MinAbsCosAxis:         0.7,
		MinAbsCosDisplacement: 0.85,
		MinGapPoints:          6,
		MaxSpanningPoints:     2,
		NearGapPoints:         20,
	}
}

// Option configures a Stitcher.
type Option func(s *Stitcher)

// WithParams replaces the selection cuts.
func WithParams(p Params) Option {
	return func(s *Stitcher) { s.params = p }
}

// WithFilter prunes the matches with a volume filter. Nil disables the check (default).
func WithFilter(f *volume.Filter) Option {
	return func(s *Stitcher) { s.filter = f }
}

// WithLogger sets the logger (default zap.NewNop()).
func WithLogger(l *zap.Logger) Option {
	return func(s *Stitcher) {
		if l != nil {
			s.log = l
		}
	}
}

// Stitcher runs near-gap recovery over a pfo.Store.
type Stitcher struct {
	params Params
	filter *volume.Filter
	log    *zap.Logger
}

// New returns a Stitcher with DefaultParams and no volume check.
func New(opts ...Option) *Stitcher {
	s := &Stitcher{params: DefaultParams(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewFromConfig returns a Stitcher for the near_gaps section of cfg. The volume check, when
// enabled, uses the policy and padding of the volume section.
func NewFromConfig(cfg config.Config, extra ...Option) (*Stitcher, error) {
	ng := cfg.NearGaps
	opts := []Option{WithParams(Params{
		MinClusterHits:        ng.MinClusterHits,
		GapHalfLength:         ng.GapHalfLength,
		LookoutRange:          ng.LookoutRange,
		MinAbsCosAxis:         ng.MinAbsCosAxis,
		MinAbsCosDisplacement: ng.MinAbsCosDisplacement,
		MinGapPoints:          ng.MinGapPoints,
		MaxSpanningPoints:     ng.MaxSpanningPoints,
		NearGapPoints:         ng.NearGapPoints,
	})}
	if ng.CheckVolumes {
		policy, err := volume.ParsePolicy(cfg.Volume.Policy)
		if err != nil {
			return nil, fmt.Errorf("neargap: %w", err)
		}
		opts = append(opts, WithFilter(volume.NewFilter(
			volume.WithPolicy(policy),
			volume.WithPadding(cfg.Volume.Padding),
		)))
	}

	return New(append(opts, extra...)...), nil
}

// Summary reports what one Run did.
type Summary struct {
	// Pfos is the number of live PFOs examined.
	Pfos int

	// Malformed counts PFOs skipped for holding several 3D clusters.
	Malformed int

	// Seeds counts PFOs selected as seeds.
	Seeds int

	// FitFailures counts seeds or candidates whose PCA failed.
	FitFailures int

	// Matches is the number of (seed, candidate) pairs that passed the compatibility cuts.
	Matches int

	// Vetoed counts matches removed by the volume filter.
	Vetoed int

	// Groups is the number of resolved merge groups.
	Groups int

	// Merges is the number of PFO merges performed.
	Merges int
}

// object is a PFO reduced to its single 3D cluster.
type object struct {
	id pfo.ID
	c  *cluster.Cluster
}

// seed is a selected seed with its side of the gap and near-gap fit.
type seed struct {
	object
	side int
	axes geometry.Axes
}

// Run stitches the PFOs of ps.
//
// Implementation:
//   - Stage 1: Reduce PFOs to their 3D cluster, in creation order; count malformed ones.
//   - Stage 2: Select seeds and fit their near-gap hits.
//   - Stage 3: For each seed, match compatible candidates on the opposite side.
//   - Stage 4: Filter, resolve and merge.
func (s *Stitcher) Run(ctx context.Context, ps *pfo.Store) (Summary, error) {
	var sum Summary
	if ps == nil {
		return sum, ErrNilStore
	}

	// 1. Objects
	var objects []object
	for _, p := range ps.List() {
		sum.Pfos++
		cs, err := ps.ThreeDClusters(p.ID())
		if err != nil {
			return sum, err
		}
		switch len(cs) {
		case 0:
			continue
		case 1:
			objects = append(objects, object{id: p.ID(), c: cs[0]})
		default:
			sum.Malformed++
			s.log.Debug("pfo with several 3D clusters", zap.Uint64("pfo", uint64(p.ID())), zap.Int("clusters", len(cs)))
		}
	}

	// 2. Seeds
	var seeds []seed
	for _, o := range objects {
		sd, ok, err := s.selectSeed(o)
		if err != nil {
			sum.FitFailures++
			continue
		}
		if ok {
			seeds = append(seeds, sd)
		}
	}
	sum.Seeds = len(seeds)
	if len(seeds) == 0 {
		return sum, nil
	}

	// 3. Matches
	m := association.NewMatrix()
	used := make(map[pfo.ID]struct{})
	for _, sd := range seeds {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		for _, o := range objects {
			if o.id == sd.id {
				continue
			}
			if _, taken := used[o.id]; taken {
				continue
			}
			axes, ok, err := s.candidate(o, sd.side)
			if err != nil {
				sum.FitFailures++
				continue
			}
			if !ok {
				continue
			}
			a := geometry.Compatibility(sd.axes, axes)
			if a.Displacement > s.params.MinAbsCosDisplacement && a.Axis > s.params.MinAbsCosAxis {
				if err := m.Add(sd.c, o.c); err != nil {
					return sum, err
				}
				used[o.id] = struct{}{}
				sum.Matches++
			}
		}
	}

	// 4. Filter, resolve, merge
	if s.filter != nil {
		sum.Vetoed = s.filter.Apply(m).EdgesRemoved
	}
	if m.Empty() {
		return sum, nil
	}
	res, err := resolve.Resolve(m, resolveOrder(m, seeds))
	if err != nil {
		return sum, err
	}
	sum.Groups = len(res.Groups)

	owner := make(map[cluster.ID]pfo.ID, len(objects))
	for _, o := range objects {
		owner[o.c.ID()] = o.id
	}
	for _, g := range res.Groups {
		into := owner[g.Seed.ID()]
		for _, mem := range g.Members {
			from := owner[mem.ID()]
			if err := ps.MergeAndDelete(into, from); err != nil {
				return sum, fmt.Errorf("%w: %d into %d: %w", ErrMergeFailed, from, into, err)
			}
			sum.Merges++
		}
	}

	s.log.Debug("near-gap stitching",
		zap.Int("pfos", sum.Pfos),
		zap.Int("seeds", sum.Seeds),
		zap.Int("matches", sum.Matches),
		zap.Int("merges", sum.Merges),
	)

	return sum, nil
}

// resolveOrder lists the seeds that no other seed matched first, then the others, each in
// PFO order. Every candidate is matched at most once, so this never claims a cluster twice.
func resolveOrder(m *association.Matrix, seeds []seed) []*cluster.Cluster {
	out := make([]*cluster.Cluster, 0, len(seeds))
	for _, sd := range seeds {
		if m.HasSource(sd.c.ID()) && m.InDegree(sd.c.ID()) == 0 {
			out = append(out, sd.c)
		}
	}
	for _, sd := range seeds {
		if m.HasSource(sd.c.ID()) && m.InDegree(sd.c.ID()) > 0 {
			out = append(out, sd.c)
		}
	}

	return out
}

// regions counts hits inside the gap region and on either side of it.
func (s *Stitcher) regions(c *cluster.Cluster) (inGap, before, after int) {
	h := s.params.GapHalfLength
	for _, hit := range c.Hits() {
		switch z := hit.Position.Z; {
		case z > -h && z < h:
			inGap++
		case z <= -h:
			before++
		default:
			after++
		}
	}

	return inGap, before, after
}

func (s *Stitcher) spans(before, after int) bool {
	return before > s.params.MaxSpanningPoints && after > s.params.MaxSpanningPoints
}

// selectSeed applies the seed cuts to o and fits its near-gap hits.
func (s *Stitcher) selectSeed(o object) (seed, bool, error) {
	if o.c.NHits() < s.params.MinClusterHits {
		return seed{}, false, nil
	}
	inGap, before, after := s.regions(o.c)
	if inGap < s.params.MinGapPoints || s.spans(before, after) {
		return seed{}, false, nil
	}
	side := 1
	if before > after {
		side = -1
	}

	axes, err := geometry.PrincipalAxes(s.nearGapPoints(o.c), nil)
	if err != nil {
		return seed{}, false, err
	}

	return seed{object: o, side: side, axes: axes}, true, nil
}

// nearGapPoints returns up to NearGapPoints hit positions outside the gap region, closest to it.
func (s *Stitcher) nearGapPoints(c *cluster.Cluster) []detector.Vector {
	h := s.params.GapHalfLength
	var points []detector.Vector
	for _, hit := range c.Hits() {
		if math.Abs(hit.Position.Z) >= h {
			points = append(points, hit.Position)
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return math.Abs(points[i].Z) < math.Abs(points[j].Z)
	})
	if len(points) > s.params.NearGapPoints {
		points = points[:s.params.NearGapPoints]
	}

	return points
}

// candidate applies the candidate cuts to o for a seed on side and fits its lookout hits.
func (s *Stitcher) candidate(o object, side int) (geometry.Axes, bool, error) {
	h, r := s.params.GapHalfLength, s.params.LookoutRange
	var points []detector.Vector
	for _, hit := range o.c.Hits() {
		z := hit.Position.Z
		if (side < 0 && z > h && z < r) || (side > 0 && z < -h && z > -r) {
			points = append(points, hit.Position)
		}
	}
	_, before, after := s.regions(o.c)
	if len(points) < s.params.MinGapPoints || s.spans(before, after) {
		return geometry.Axes{}, false, nil
	}

	axes, err := geometry.PrincipalAxes(points, nil)
	if err != nil {
		return geometry.Axes{}, false, err
	}

	return axes, true, nil
}
