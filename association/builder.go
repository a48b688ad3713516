package association

import (
	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/geometry"
)

// DefaultMaxSeparation is the default maximum association distance.
const DefaultMaxSeparation = 2.5

// Mode selects how candidate pairs become edges.
type Mode int

const (
	// ModeBestSeed links each cluster to its single nearest predecessor (forest).
	ModeBestSeed Mode = iota

	// ModeThreshold links every ordered pair below the maximum separation (dense).
	ModeThreshold
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeBestSeed:
		return "best-seed"
	case ModeThreshold:
		return "threshold"
	default:
		return "unknown"
	}
}

// Metric measures the separation of two clusters. Smaller is closer.
type Metric func(a, b *cluster.Cluster) float64

// Predicate is an additional gate a pair must pass before its metric is considered.
type Predicate func(from, to *cluster.Cluster) bool

// PredicateFactory derives a Predicate from the clusters of one Build call, so per-cluster
// work (such as an axis fit) is done once per call instead of once per pair.
type PredicateFactory func(clusters []*cluster.Cluster) Predicate

// Option configures a Builder.
type Option func(b *Builder)

// WithMaxSeparation sets the exclusive upper bound on the metric for an edge.
func WithMaxSeparation(d float64) Option {
	return func(b *Builder) { b.maxSeparation = d }
}

// WithMode selects ModeBestSeed or ModeThreshold.
func WithMode(m Mode) Option {
	return func(b *Builder) { b.mode = m }
}

// WithMetric replaces geometry.ClosestDistance as the separation metric.
func WithMetric(fn Metric) Option {
	return func(b *Builder) {
		if fn != nil {
			b.metric = fn
		}
	}
}

// WithPredicate installs an extra pair gate, evaluated before the metric.
func WithPredicate(fn Predicate) Option {
	return func(b *Builder) { b.predicate = fn }
}

// WithPredicateFactory installs a pair gate built once per Build or BuildSeeded call.
// It applies in addition to WithPredicate.
func WithPredicateFactory(fn PredicateFactory) Option {
	return func(b *Builder) { b.predicateFor = fn }
}

// Builder turns an ordered cluster set into a Matrix. It is stateless between calls.
type Builder struct {
	maxSeparation float64
	mode          Mode
	metric        Metric
	predicate     Predicate
	predicateFor  PredicateFactory
}

// NewBuilder returns a Builder with ModeBestSeed, DefaultMaxSeparation and ClosestDistance.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		maxSeparation: DefaultMaxSeparation,
		mode:          ModeBestSeed,
		metric:        geometry.ClosestDistance,
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Mode returns the configured mode.
func (b *Builder) Mode() Mode { return b.mode }

// MaxSeparation returns the configured maximum separation.
func (b *Builder) MaxSeparation() float64 { return b.maxSeparation }

// Metric returns the separation metric.
func (b *Builder) Metric() Metric { return b.metric }

// Summary reports what one Build call looked at.
type Summary struct {
	// Candidates is the number of non-empty clusters considered.
	Candidates int

	// Malformed counts clusters skipped because they hold no hits.
	Malformed int

	// PairsTested counts metric evaluations.
	PairsTested int

	// Rejected counts pairs refused by the predicate.
	Rejected int

	// Edges is the number of edges in the produced matrix.
	Edges int
}

// Build produces the association matrix for clusters.
//
// Implementation:
//   - Stage 1: Drop empty clusters (malformed input) and sort the rest by cluster.Compare.
//   - Stage 2: ModeThreshold adds X→Y for every ordered pair with metric < max separation.
//     ModeBestSeed links each Y to the nearest X sorted before it; the strict comparison
//     keeps the earliest X on ties.
//
// Complexity:
//   - Time O(n²) metric evaluations, Space O(n + e).
func (b *Builder) Build(clusters []*cluster.Cluster) (*Matrix, Summary) {
	// 1. Clean and order the input
	ordered, s := b.prepare(clusters)
	gate := b.gate(ordered)
	m := NewMatrix()

	// 2. Pairs
	switch b.mode {
	case ModeThreshold:
		for _, x := range ordered {
			for _, y := range ordered {
				if x == y {
					continue
				}
				if d, ok := b.measure(x, y, gate, &s); ok && d < b.maxSeparation {
					_ = m.Add(x, y)
				}
			}
		}
	default:
		for j, y := range ordered {
			if best := b.nearest(ordered[:j], y, gate, &s); best != nil {
				_ = m.Add(best, y)
			}
		}
	}

	s.Edges = m.EdgeCount()

	return m, s
}

// BuildSeeded links every candidate to its nearest seed under the maximum separation.
// Seeds never become targets and candidates never become sources.
func (b *Builder) BuildSeeded(seeds, candidates []*cluster.Cluster) (*Matrix, Summary) {
	orderedSeeds, s := b.prepare(seeds)
	orderedCandidates, sc := b.prepare(candidates)
	s.Candidates += sc.Candidates
	s.Malformed += sc.Malformed

	isSeed := make(map[cluster.ID]struct{}, len(orderedSeeds))
	for _, c := range orderedSeeds {
		isSeed[c.ID()] = struct{}{}
	}

	gate := b.gate(append(append([]*cluster.Cluster(nil), orderedSeeds...), orderedCandidates...))
	m := NewMatrix()
	for _, y := range orderedCandidates {
		if _, ok := isSeed[y.ID()]; ok {
			continue
		}
		if best := b.nearest(orderedSeeds, y, gate, &s); best != nil {
			_ = m.Add(best, y)
		}
	}
	s.Edges = m.EdgeCount()

	return m, s
}

// prepare drops empty clusters and returns the rest sorted.
func (b *Builder) prepare(clusters []*cluster.Cluster) ([]*cluster.Cluster, Summary) {
	var s Summary
	out := make([]*cluster.Cluster, 0, len(clusters))
	for _, c := range clusters {
		if c == nil || c.Empty() {
			s.Malformed++
			continue
		}
		out = append(out, c)
	}
	cluster.Sort(out)
	s.Candidates = len(out)

	return out, s
}

// nearest returns the seed in seeds closest to y below the maximum separation, or nil.
func (b *Builder) nearest(seeds []*cluster.Cluster, y *cluster.Cluster, gate Predicate, s *Summary) *cluster.Cluster {
	var best *cluster.Cluster
	bestD := b.maxSeparation
	for _, x := range seeds {
		if x == y {
			continue
		}
		if d, ok := b.measure(x, y, gate, s); ok && d < bestD {
			best, bestD = x, d
		}
	}

	return best
}

// gate combines the static predicate with the one derived for this call. Nil accepts every pair.
func (b *Builder) gate(clusters []*cluster.Cluster) Predicate {
	var derived Predicate
	if b.predicateFor != nil {
		derived = b.predicateFor(clusters)
	}
	switch {
	case derived == nil:
		return b.predicate
	case b.predicate == nil:
		return derived
	}
	static := b.predicate

	return func(from, to *cluster.Cluster) bool { return static(from, to) && derived(from, to) }
}

// measure applies the gate and the metric to the pair x→y.
func (b *Builder) measure(x, y *cluster.Cluster, gate Predicate, s *Summary) (float64, bool) {
	if gate != nil && !gate(x, y) {
		s.Rejected++
		return 0, false
	}
	s.PairsTested++

	return b.metric(x, y), true
}
