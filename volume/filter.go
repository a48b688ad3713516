package volume

import (
	"github.com/larreco/larmerge/association"
	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/geometry"
)

// Option configures a Filter.
type Option func(f *Filter)

// WithPolicy selects the veto policy (default PolicyOverlapAware).
func WithPolicy(p Policy) Option {
	return func(f *Filter) { f.policy = p }
}

// WithPadding sets the drift-span padding used by the overlap test (default 0.5).
func WithPadding(p float64) Option {
	return func(f *Filter) { f.padding = p }
}

// WithSymmetric keeps a node that lost all outgoing edges as long as something still points at it.
func WithSymmetric(symmetric bool) Option {
	return func(f *Filter) { f.symmetric = symmetric }
}

// Filter vetoes association edges whose endpoints come from inconsistent volumes.
type Filter struct {
	policy    Policy
	padding   float64
	symmetric bool
}

// NewFilter returns a Filter with PolicyOverlapAware and the default padding.
func NewFilter(opts ...Option) *Filter {
	f := &Filter{
		policy:  PolicyOverlapAware,
		padding: geometry.DefaultOverlapPadding,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Policy returns the configured policy.
func (f *Filter) Policy() Policy { return f.policy }

// Padding returns the configured padding.
func (f *Filter) Padding() float64 { return f.padding }

// Summary reports what one Apply call did.
type Summary struct {
	// EdgesTested is the number of edges examined.
	EdgesTested int

	// EdgesKept counts edges that survived, including skipped ones.
	EdgesKept int

	// EdgesRemoved counts vetoed edges.
	EdgesRemoved int

	// EdgesSkipped counts edges kept because their verdict was VerdictUnknown.
	EdgesSkipped int

	// NodesRemoved counts source entries pruned after edge removal.
	NodesRemoved int
}

// Apply filters m in place.
//
// Implementation:
//   - Stage 1 (read-only): classify every edge and collect the vetoed ones.
//   - Stage 2: remove the collected edges.
//   - Stage 3 (read-only): collect source entries left without outgoing edges
//     (and, with WithSymmetric, without incoming edges).
//   - Stage 4: remove the collected nodes.
//
// Behavior highlights:
//   - Only removes; never adds edges or nodes.
//   - Order-independent: no entry is erased while the matrix is being traversed.
func (f *Filter) Apply(m *association.Matrix) Summary {
	var s Summary
	if m == nil {
		return s
	}

	// 1. Classify
	var vetoed []association.Edge
	for _, e := range m.Edges() {
		s.EdgesTested++
		verdict := Classify(e.From, e.To, f.padding)
		if verdict == VerdictUnknown {
			s.EdgesSkipped++
		}
		if !f.policy.Allows(verdict) {
			vetoed = append(vetoed, e)
			continue
		}
		s.EdgesKept++
	}

	// 2. Remove edges
	for _, e := range vetoed {
		m.Remove(e.From.ID(), e.To.ID())
	}
	s.EdgesRemoved = len(vetoed)

	// 3. Collect empty nodes
	var empty []cluster.ID
	for _, src := range m.Sources() {
		id := src.ID()
		if m.OutDegree(id) > 0 {
			continue
		}
		if f.symmetric && m.InDegree(id) > 0 {
			continue
		}
		empty = append(empty, id)
	}

	// 4. Remove nodes
	for _, id := range empty {
		m.RemoveNode(id)
	}
	s.NodesRemoved = len(empty)

	return s
}
