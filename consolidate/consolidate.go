package consolidate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/config"
	"github.com/larreco/larmerge/detector"
	"github.com/larreco/larmerge/geometry"
	"github.com/larreco/larmerge/volume"
)

// ErrNilStore is returned when Run is given a nil store.
var ErrNilStore = errors.New("consolidate: store is nil")

// Defaults of the shipped configuration.
const (
	DefaultMinTrackLength            = 10.0
	DefaultMaxTransverseDisplacement = 1.0
	DefaultMinAssociatedSpan         = 1.0
	DefaultMinAssociatedFraction     = 0.5
)

// Option configures a Consolidator.
type Option func(c *Consolidator)

// WithMinTrackLength sets the length a cluster needs to act as a track.
func WithMinTrackLength(l float64) Option {
	return func(c *Consolidator) { c.minTrackLength = l }
}

// WithMaxTransverseDisplacement sets the largest distance between a donor hit and the track axis.
func WithMaxTransverseDisplacement(d float64) Option {
	return func(c *Consolidator) { c.maxTransverse = d }
}

// WithMinAssociatedSpan sets the longitudinal span that accepts a donor's associated hits.
func WithMinAssociatedSpan(s float64) Option {
	return func(c *Consolidator) { c.minSpan = s }
}

// WithMinAssociatedFraction sets the donor hit fraction that accepts its associated hits.
func WithMinAssociatedFraction(f float64) Option {
	return func(c *Consolidator) { c.minFraction = f }
}

// WithPolicy sets the cross-volume policy (default volume.PolicyVetoAll).
func WithPolicy(p volume.Policy) Option {
	return func(c *Consolidator) { c.policy = p }
}

// WithPadding sets the drift-span padding of the volume gate.
func WithPadding(p float64) Option {
	return func(c *Consolidator) { c.padding = p }
}

// WithLogger sets the logger (default zap.NewNop()).
func WithLogger(l *zap.Logger) Option {
	return func(c *Consolidator) {
		if l != nil {
			c.log = l
		}
	}
}

// Consolidator runs track consolidation over a cluster.Store.
type Consolidator struct {
	minTrackLength float64
	maxTransverse  float64
	minSpan        float64
	minFraction    float64
	policy         volume.Policy
	padding        float64
	log            *zap.Logger
}

// New returns a Consolidator with the shipped defaults.
func New(opts ...Option) *Consolidator {
	c := &Consolidator{
		minTrackLength: DefaultMinTrackLength,
		maxTransverse:  DefaultMaxTransverseDisplacement,
		minSpan:        DefaultMinAssociatedSpan,
		minFraction:    DefaultMinAssociatedFraction,
		policy:         volume.PolicyVetoAll,
		padding:        geometry.DefaultOverlapPadding,
		log:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewFromConfig returns a Consolidator for the consolidation section of cfg.
func NewFromConfig(cfg config.Config, extra ...Option) (*Consolidator, error) {
	cc := cfg.Consolidation
	policy, err := volume.ParsePolicy(cc.Policy)
	if err != nil {
		return nil, fmt.Errorf("consolidate: %w", err)
	}
	opts := []Option{
		WithMinTrackLength(cc.MinTrackLength),
		WithMaxTransverseDisplacement(cc.MaxTransverseDisplacement),
		WithMinAssociatedSpan(cc.MinAssociatedSpan),
		WithMinAssociatedFraction(cc.MinAssociatedFraction),
		WithPolicy(policy),
		WithPadding(cfg.Volume.Padding),
	}

	return New(append(opts, extra...)...), nil
}

// Summary reports what one Run did.
type Summary struct {
	// Tracks is the number of clusters long enough to act as tracks.
	Tracks int

	// FitFailures counts tracks whose line fit failed; they are skipped.
	FitFailures int

	// PairsTested counts (track, donor) pairs whose hits were examined.
	PairsTested int

	// Vetoed counts pairs refused by the volume policy.
	Vetoed int

	// Unjudged counts pairs skipped because a volume identity was missing.
	Unjudged int

	// HitsMoved is the number of hits reassigned.
	HitsMoved int

	// ClustersDeleted counts donors left empty and deleted.
	ClustersDeleted int
}

// track is the line fit of one track cluster.
type track struct {
	c          *cluster.Cluster
	axes       geometry.Axes
	minL, maxL float64
}

// longitudinal returns the coordinate of p along the track axis.
func (t *track) longitudinal(p detector.Vector) float64 {
	return p.Sub(t.axes.Centroid).Dot(t.axes.Primary())
}

// project returns the point of the axis closest to p.
func (t *track) project(p detector.Vector) detector.Vector {
	return t.axes.Centroid.Add(t.axes.Primary().Scale(t.longitudinal(p)))
}

// plan collects the moves before anything is applied.
type plan struct {
	moved    map[*detector.Hit]struct{}
	adds     map[cluster.ID][]*detector.Hit
	removes  map[cluster.ID][]*detector.Hit
	addOrder []cluster.ID
	rmOrder  []cluster.ID
}

func (p *plan) move(to, from cluster.ID, h *detector.Hit) {
	if _, done := p.moved[h]; done {
		return
	}
	p.moved[h] = struct{}{}
	if _, ok := p.adds[to]; !ok {
		p.addOrder = append(p.addOrder, to)
	}
	p.adds[to] = append(p.adds[to], h)
	if _, ok := p.removes[from]; !ok {
		p.rmOrder = append(p.rmOrder, from)
	}
	p.removes[from] = append(p.removes[from], h)
}

// Run consolidates the clusters of store.
//
// Implementation:
//   - Stage 1: Select and fit tracks; tracks and donors are visited in cluster.Compare order.
//   - Stage 2: For every (track, donor) pair passing the length and volume gates, plan the moves.
//   - Stage 3: Apply removals, then additions, then delete emptied clusters.
func (c *Consolidator) Run(ctx context.Context, store *cluster.Store) (Summary, error) {
	var s Summary
	if store == nil {
		return s, ErrNilStore
	}

	// 1. Tracks and donors
	donors := store.List()
	cluster.Sort(donors)
	minLenSq := c.minTrackLength * c.minTrackLength
	var tracks []*track
	for _, cl := range donors {
		if cl.LengthSquared() < minLenSq {
			continue
		}
		s.Tracks++
		t, err := fit(cl)
		if err != nil {
			s.FitFailures++
			c.log.Debug("track fit failed", zap.Uint64("cluster", uint64(cl.ID())), zap.Error(err))
			continue
		}
		tracks = append(tracks, t)
	}

	// 2. Plan
	p := &plan{
		moved:   make(map[*detector.Hit]struct{}),
		adds:    make(map[cluster.ID][]*detector.Hit),
		removes: make(map[cluster.ID][]*detector.Hit),
	}
	for _, t := range tracks {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		lenSqI := t.c.LengthSquared()
		for _, j := range donors {
			if j == t.c || 2*j.LengthSquared() > lenSqI {
				continue
			}
			switch v := volume.Classify(t.c, j, c.padding); {
			case v == volume.VerdictUnknown:
				s.Unjudged++
				continue
			case !c.policy.Allows(v):
				s.Vetoed++
				continue
			}
			s.PairsTested++
			for _, h := range c.associated(t, j) {
				p.move(t.c.ID(), j.ID(), h)
			}
		}
	}

	// 3. Apply
	for _, id := range p.rmOrder {
		if err := store.RemoveHits(id, p.removes[id]); err != nil {
			return s, fmt.Errorf("consolidate: remove hits from %d: %w", id, err)
		}
	}
	for _, id := range p.addOrder {
		if err := store.AddHits(id, p.adds[id]); err != nil {
			return s, fmt.Errorf("consolidate: add hits to %d: %w", id, err)
		}
		s.HitsMoved += len(p.adds[id])
	}
	for _, id := range p.rmOrder {
		cl, err := store.Get(id)
		if err != nil || !cl.Empty() {
			continue
		}
		if err := store.Delete(id); err != nil {
			return s, fmt.Errorf("consolidate: delete %d: %w", id, err)
		}
		s.ClustersDeleted++
	}

	c.log.Debug("track consolidation",
		zap.Int("tracks", s.Tracks),
		zap.Int("pairs", s.PairsTested),
		zap.Int("vetoed", s.Vetoed),
		zap.Int("hits_moved", s.HitsMoved),
		zap.Int("deleted", s.ClustersDeleted),
	)

	return s, nil
}

// fit runs the line fit of a track and records its longitudinal extent.
func fit(cl *cluster.Cluster) (*track, error) {
	axes, err := geometry.ClusterAxes(cl)
	if err != nil {
		return nil, err
	}
	t := &track{c: cl, axes: axes, minL: math.Inf(1), maxL: math.Inf(-1)}
	for _, h := range cl.Hits() {
		l := t.longitudinal(h.Position)
		t.minL = math.Min(t.minL, l)
		t.maxL = math.Max(t.maxL, l)
	}

	return t, nil
}

// associated returns the hits of donor j that fill gaps in t, or nil if the set is rejected.
func (c *Consolidator) associated(t *track, j *cluster.Cluster) []*detector.Hit {
	maxTSq := c.maxTransverse * c.maxTransverse
	minL, maxL := math.Inf(1), math.Inf(-1)
	var hits []*detector.Hit

	for _, h := range j.Hits() {
		rJ := h.Position
		l := t.longitudinal(rJ)
		if l < t.minL || l > t.maxL {
			continue
		}
		rI, ok := geometry.ClosestPosition(rJ, t.c)
		if !ok {
			return nil
		}
		rK := t.project(rJ)

		rsqIJ := rI.Sub(rJ).MagSq()
		rsqJK := rJ.Sub(rK).MagSq()
		rsqKI := rK.Sub(rI).MagSq()
		if rsqJK < math.Min(maxTSq, math.Min(rsqIJ, rsqKI)) {
			minL = math.Min(minL, l)
			maxL = math.Max(maxL, l)
			hits = append(hits, h)
		}
	}
	if len(hits) == 0 {
		return nil
	}

	span := maxL - minL
	fraction := float64(len(hits)) / float64(j.NHits())
	if span > c.minSpan || fraction > c.minFraction {
		return hits
	}

	return nil
}
