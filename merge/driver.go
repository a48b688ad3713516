// File: driver.go
// Role: Fixed-point merge loop (build → filter → resolve → realize) over an external Source.
//
// Determinism:
//   - Every pass re-reads the Source and re-sorts; no cluster reference survives a pass.
//   - Groups are realized in resolver order, members in cluster.Compare order.
//
// Concurrency:
//   - A Driver holds configuration only and may be shared; one Run owns its Source.
package merge

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/larreco/larmerge/association"
	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/detector"
	"github.com/larreco/larmerge/geometry"
	"github.com/larreco/larmerge/resolve"
	"github.com/larreco/larmerge/volume"
)

// DefaultMinAxisCos is the default alignment cut of the extension variant.
const DefaultMinAxisCos = 0.9

// DefaultMinSeedHits is the default seed size of the growing variant.
const DefaultMinSeedHits = 10

// DefaultExtensionSeparation is the default endpoint distance cut of the extension variant.
const DefaultExtensionSeparation = 5.0

// Option configures a Driver.
type Option func(d *Driver)

// WithVariant selects the association variant (default VariantMerging).
func WithVariant(v Variant) Option {
	return func(d *Driver) { d.variant = v }
}

// WithBuilder replaces the variant's default association builder.
func WithBuilder(b *association.Builder) Option {
	return func(d *Driver) { d.builder = b }
}

// WithFilter replaces the default volume filter. A nil filter disables volume checking.
func WithFilter(f *volume.Filter) Option {
	return func(d *Driver) {
		d.filter = f
		d.filterSet = true
	}
}

// WithLogger sets the logger (default zap.NewNop()).
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

// WithRecorder installs a progress observer.
func WithRecorder(r Recorder) Option {
	return func(d *Driver) { d.rec = r }
}

// WithMaxClusters abandons events with more clean clusters than n. Zero disables the cap.
func WithMaxClusters(n int) Option {
	return func(d *Driver) { d.maxClusters = n }
}

// WithMaxHits abandons events whose clean clusters hold more than n hits. Zero disables the cap.
func WithMaxHits(n int) Option {
	return func(d *Driver) { d.maxHits = n }
}

// WithMinSeedHits sets the seed size of the growing variant.
func WithMinSeedHits(n int) Option {
	return func(d *Driver) { d.minSeedHits = n }
}

// WithMaxPasses bounds the number of passes. Zero uses the initial cluster count.
func WithMaxPasses(n int) Option {
	return func(d *Driver) { d.maxPasses = n }
}

// WithMaxMembers bounds the size of a single merge group (see resolve.WithMaxMembers).
func WithMaxMembers(n int) Option {
	return func(d *Driver) { d.maxMembers = n }
}

// WithMinAxisCos sets the principal-axis alignment cut of the extension variant's default builder.
func WithMinAxisCos(c float64) Option {
	return func(d *Driver) { d.minAxisCos = c }
}

// Driver runs the fixed-point merge loop.
type Driver struct {
	variant   Variant
	builder   *association.Builder
	filter    *volume.Filter
	filterSet bool
	log       *zap.Logger
	rec       Recorder

	maxClusters int
	maxHits     int
	minSeedHits int
	maxPasses   int
	maxMembers  int
	minAxisCos  float64
}

// NewDriver returns a Driver. Unless overridden, the builder and filter follow the variant:
//
//	merging    threshold builder, overlap-aware filter
//	growing    best-seed builder over a fixed seed list, overlap-aware filter
//	extension  best-seed builder on endpoint distance gated by axis alignment, no filter
func NewDriver(opts ...Option) *Driver {
	d := &Driver{
		log:         zap.NewNop(),
		minSeedHits: DefaultMinSeedHits,
		minAxisCos:  DefaultMinAxisCos,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.builder == nil {
		d.builder = d.defaultBuilder()
	}
	if !d.filterSet && d.variant != VariantExtension {
		d.filter = volume.NewFilter()
	}

	return d
}

// Variant returns the configured variant.
func (d *Driver) Variant() Variant { return d.variant }

// defaultBuilder returns the association builder of the configured variant.
func (d *Driver) defaultBuilder() *association.Builder {
	switch d.variant {
	case VariantMerging:
		return association.NewBuilder(
			association.WithMode(association.ModeThreshold),
			association.WithPredicate(targetAvailable),
		)
	case VariantExtension:
		return association.NewBuilder(
			association.WithMode(association.ModeBestSeed),
			association.WithMaxSeparation(DefaultExtensionSeparation),
			association.WithMetric(geometry.EndpointDistance),
			association.WithPredicateFactory(alignedTargets(d.minAxisCos)),
		)
	default:
		return association.NewBuilder(
			association.WithMode(association.ModeBestSeed),
			association.WithPredicate(targetAvailable),
		)
	}
}

// targetAvailable keeps unavailable clusters from ever being absorbed; they may still seed.
func targetAvailable(_, to *cluster.Cluster) bool { return to.Available() }

// alignedTargets gates extension pairs on an available target and |cos| between principal
// axes of at least minCos. Axes are fitted once per Build; an unfittable cluster counts as cos 0.
func alignedTargets(minCos float64) association.PredicateFactory {
	return func(clusters []*cluster.Cluster) association.Predicate {
		axes := make(map[cluster.ID]detector.Vector, len(clusters))
		for _, c := range clusters {
			if a, err := geometry.ClusterAxes(c); err == nil {
				axes[c.ID()] = a.Primary()
			}
		}

		return func(from, to *cluster.Cluster) bool {
			if !to.Available() {
				return false
			}
			cos := 0.0
			pa, okA := axes[from.ID()]
			pb, okB := axes[to.ID()]
			if okA && okB {
				cos = math.Abs(pa.CosOpeningAngle(pb))
			}

			return cos >= minCos
		}
	}
}

// Run merges clusters of src until a pass produces an empty association matrix.
//
// Implementation:
//   - Stage 1: Read the clean clusters once and apply the excessive-size guard.
//   - Stage 2: Fix the pass bound and, for the growing variant, the seed list.
//   - Stage 3: Loop: re-read, build, filter, stop on empty, disjoin (merging), resolve, realize.
//
// Errors:
//   - ErrNilSource.
//   - resolve.ErrAlreadyClaimed / resolve.ErrSelfReference / resolve.ErrGroupTooLarge (consistency).
//   - ErrMergeFailed wrapping the Source's error. Merges issued before the failure stay applied.
//   - ErrNoProgress when the pass bound is exceeded.
//   - ctx.Err() when ctx is cancelled between passes.
func (d *Driver) Run(ctx context.Context, src Source) (rep *Report, err error) {
	if src == nil {
		return nil, ErrNilSource
	}
	rep = &Report{Variant: d.variant}
	log := d.log.With(zap.Stringer("variant", d.variant))
	defer func() {
		switch {
		case IsFatal(err):
			log.Error("merge aborted", zap.Int("pass", rep.Passes), zap.Error(err))
		case err != nil:
			log.Info("merge interrupted", zap.Int("pass", rep.Passes), zap.Error(err))
		}
		if d.rec != nil {
			d.rec.ObserveRun(rep, err)
		}
	}()

	// 1. Excessive-size guard
	initial := src.CleanClusters()
	rep.InitialClusters = len(initial)
	if reason := d.oversize(initial); reason != nil {
		rep.Abandoned = true
		log.Warn("abandoning event", zap.Error(reason))
		if ab, ok := src.(Abandoner); ok {
			if aerr := ab.Abandon(reason); aerr != nil {
				return rep, fmt.Errorf("merge: abandon: %w", aerr)
			}
		}

		return rep, nil
	}

	// 2. Pass bound and fixed seeds
	limit := d.maxPasses
	if limit <= 0 {
		limit = max(len(initial), 1)
	}
	var seedIDs map[cluster.ID]struct{}
	if d.variant == VariantGrowing {
		seedIDs = make(map[cluster.ID]struct{})
		for _, c := range initial {
			if c.NHits() >= d.minSeedHits {
				seedIDs[c.ID()] = struct{}{}
			}
		}
	}

	// 3. Fixed-point loop
	current := initial
	for pass := 1; ; pass++ {
		if err = ctx.Err(); err != nil {
			return rep, err
		}
		if pass > limit {
			return rep, fmt.Errorf("%w: %d passes", ErrNoProgress, limit)
		}
		if pass > 1 {
			current = src.CleanClusters()
		}
		rep.Passes = pass

		ps := PassSummary{Pass: pass, Clusters: len(current)}
		m := d.build(current, seedIDs, &ps)
		if d.filter != nil {
			ps.Filter = d.filter.Apply(m)
		}
		if m.Empty() {
			d.finishPass(log, rep, ps)
			return rep, nil
		}

		seeds := d.seedOrder(current)
		if seeds != nil {
			ps.Disjoined = association.Disjoin(m, seeds, d.builder.Metric())
		}
		res, rerr := resolve.Resolve(m, seeds, resolve.WithMaxMembers(d.maxMembers))
		if rerr != nil {
			return rep, rerr
		}
		ps.Resolve = res.Summary

		for _, g := range res.Groups {
			for _, mem := range g.Members {
				if merr := src.MergeAndDelete(g.Seed.ID(), mem.ID()); merr != nil {
					d.finishPass(log, rep, ps)
					return rep, fmt.Errorf("%w: %d into %d: %w", ErrMergeFailed, mem.ID(), g.Seed.ID(), merr)
				}
				ps.Merges++
				rep.Merges++
			}
		}
		d.finishPass(log, rep, ps)

		if ps.Merges == 0 {
			return rep, fmt.Errorf("%w: pass %d resolved no merges", ErrNoProgress, pass)
		}
	}
}

// oversize returns a non-nil reason when clusters exceed a configured cap.
func (d *Driver) oversize(clusters []*cluster.Cluster) error {
	if d.maxClusters > 0 && len(clusters) > d.maxClusters {
		return fmt.Errorf("%w: %d clusters > %d", ErrExcessiveSize, len(clusters), d.maxClusters)
	}
	if d.maxHits > 0 {
		hits := 0
		for _, c := range clusters {
			hits += c.NHits()
		}
		if hits > d.maxHits {
			return fmt.Errorf("%w: %d hits > %d", ErrExcessiveSize, hits, d.maxHits)
		}
	}

	return nil
}

// build produces the pass's association matrix.
func (d *Driver) build(current []*cluster.Cluster, seedIDs map[cluster.ID]struct{}, ps *PassSummary) *association.Matrix {
	if d.variant != VariantGrowing {
		m, s := d.builder.Build(current)
		ps.Build = s
		return m
	}

	var seeds, candidates []*cluster.Cluster
	for _, c := range current {
		if _, ok := seedIDs[c.ID()]; ok {
			seeds = append(seeds, c)
		} else {
			candidates = append(candidates, c)
		}
	}
	m, s := d.builder.BuildSeeded(seeds, candidates)
	ps.Build = s

	return m
}

// seedOrder returns the explicit resolver seed order, or nil for matrix-source order.
func (d *Driver) seedOrder(current []*cluster.Cluster) []*cluster.Cluster {
	if d.variant != VariantMerging {
		return nil
	}
	seeds := append([]*cluster.Cluster(nil), current...)
	cluster.SortAvailableLast(seeds)

	return seeds
}

// finishPass records ps in the report, the log and the recorder.
func (d *Driver) finishPass(log *zap.Logger, rep *Report, ps PassSummary) {
	rep.PassSummaries = append(rep.PassSummaries, ps)
	log.Debug("merge pass",
		zap.Int("pass", ps.Pass),
		zap.Int("clusters", ps.Clusters),
		zap.Int("edges", ps.Build.Edges),
		zap.Int("edges_vetoed", ps.Filter.EdgesRemoved),
		zap.Int("edges_disjoined", ps.Disjoined),
		zap.Int("groups", ps.Resolve.Groups),
		zap.Int("merges", ps.Merges),
	)
	if d.rec != nil {
		d.rec.ObservePass(d.variant, ps)
	}
}

// IsFatal reports whether err aborts an event (as opposed to ctx cancellation).
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
