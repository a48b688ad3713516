package resolve

import (
	"errors"

	"github.com/larreco/larmerge/cluster"
)

var (
	// ErrMatrixNil is returned when a nil matrix is passed to Resolve or Collect.
	ErrMatrixNil = errors.New("resolve: matrix is nil")

	// ErrAlreadyClaimed indicates a cluster was selected as a member after being claimed
	// by an earlier group or used as an earlier seed.
	ErrAlreadyClaimed = errors.New("resolve: cluster already claimed")

	// ErrSelfReference indicates a merge group lists its own seed as a member.
	ErrSelfReference = errors.New("resolve: group references its own seed")

	// ErrGroupTooLarge indicates a closure exceeded WithMaxMembers.
	ErrGroupTooLarge = errors.New("resolve: merge group too large")
)

// Group is one seed and the clusters it absorbs, largest first.
type Group struct {
	Seed    *cluster.Cluster
	Members []*cluster.Cluster
}

// MemberIDs returns the handles of g.Members in order.
func (g Group) MemberIDs() []cluster.ID { return cluster.IDs(g.Members) }

// Summary carries the diagnostics of one Resolve call.
type Summary struct {
	// Seeds is the number of seeds examined.
	Seeds int

	// SkippedSeeds counts seeds skipped because an earlier group absorbed them.
	SkippedSeeds int

	// Groups is the number of non-empty groups produced.
	Groups int

	// Absorbed is the total number of members across groups.
	Absorbed int

	// CycleGuards counts associations ignored because the target was the seed or
	// was already collected for the current seed.
	CycleGuards int
}

// Result is the outcome of Resolve.
type Result struct {
	// Groups in seed order.
	Groups []Group

	Summary
}

// Option configures Resolve.
type Option func(*Options)

// Options holds configurable parameters for Resolve.
type Options struct {
	// OnClaim, if non-nil, is invoked after each member is added to the veto set.
	// Returning an error aborts Resolve with that error.
	OnClaim func(seed, member *cluster.Cluster) error

	// MaxMembers, if positive, bounds the size of one closure.
	MaxMembers int
}

// DefaultOptions returns Options with no hook and no size bound.
func DefaultOptions() Options {
	return Options{OnClaim: nil, MaxMembers: 0}
}

// WithOnClaim installs fn as the claim hook.
func WithOnClaim(fn func(seed, member *cluster.Cluster) error) Option {
	return func(o *Options) { o.OnClaim = fn }
}

// WithMaxMembers bounds the size of any single closure.
func WithMaxMembers(n int) Option {
	return func(o *Options) { o.MaxMembers = n }
}
