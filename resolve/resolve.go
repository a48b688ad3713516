package resolve

import (
	"fmt"

	"github.com/larreco/larmerge/association"
	"github.com/larreco/larmerge/cluster"
)

// resolver encapsulates the state of one Resolve call.
type resolver struct {
	m    *association.Matrix
	opts Options
	res  *Result

	veto   map[cluster.ID]struct{} // clusters absorbed in this pass
	seeded map[cluster.ID]struct{} // seeds that produced a group in this pass
}

// Resolve converts m into disjoint merge groups. See the package documentation for the rules.
// On error the returned Result is nil: a partially resolved pass must not be realized.
func Resolve(m *association.Matrix, seeds []*cluster.Cluster, opts ...Option) (*Result, error) {
	// 1. Validate input matrix
	if m == nil {
		return nil, ErrMatrixNil
	}

	// 2. Apply options
	ropts := DefaultOptions()
	for _, fn := range opts {
		fn(&ropts)
	}

	// 3. Seed order
	if seeds == nil {
		seeds = m.Sources()
	}

	r := &resolver{
		m:      m,
		opts:   ropts,
		res:    &Result{},
		veto:   make(map[cluster.ID]struct{}),
		seeded: make(map[cluster.ID]struct{}),
	}

	// 4. One group per unclaimed seed
	for _, seed := range seeds {
		if seed == nil {
			continue
		}
		r.res.Seeds++
		if r.claimed(seed.ID()) {
			r.res.SkippedSeeds++
			continue
		}

		members, err := r.collect(seed)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			continue
		}
		cluster.Sort(members)

		if err = r.claim(seed, members); err != nil {
			return nil, err
		}
		r.seeded[seed.ID()] = struct{}{}
		r.res.Groups = append(r.res.Groups, Group{Seed: seed, Members: members})
		r.res.Absorbed += len(members)
	}
	r.res.Summary.Groups = len(r.res.Groups)

	return r.res, nil
}

// Collect returns the transitive closure of seed in m with an empty veto set,
// sorted by cluster.Compare.
func Collect(m *association.Matrix, seed *cluster.Cluster) ([]*cluster.Cluster, error) {
	if m == nil {
		return nil, ErrMatrixNil
	}
	r := &resolver{
		m:      m,
		opts:   DefaultOptions(),
		res:    &Result{},
		veto:   map[cluster.ID]struct{}{},
		seeded: map[cluster.ID]struct{}{},
	}
	members, err := r.collect(seed)
	if err != nil {
		return nil, err
	}
	cluster.Sort(members)

	return members, nil
}

// claimed reports whether id is in the veto set.
func (r *resolver) claimed(id cluster.ID) bool {
	_, ok := r.veto[id]

	return ok
}

// collect walks the associations reachable from seed with an explicit stack.
func (r *resolver) collect(seed *cluster.Cluster) ([]*cluster.Cluster, error) {
	var list []*cluster.Cluster
	inList := make(map[cluster.ID]struct{})
	stack := []*cluster.Cluster{seed}

	for len(stack) > 0 {
		// 1. Pop
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// 2. Claimed clusters are listed but not expanded
		if cur != seed && r.claimed(cur.ID()) {
			continue
		}

		// 3. Push targets in reverse so they are expanded in cluster.Compare order
		targets := r.m.Targets(cur.ID())
		for i := len(targets) - 1; i >= 0; i-- {
			t := targets[i]
			if t.ID() == seed.ID() {
				r.res.CycleGuards++
				continue
			}
			if _, seen := inList[t.ID()]; seen {
				r.res.CycleGuards++
				continue
			}
			inList[t.ID()] = struct{}{}
			list = append(list, t)
			if r.opts.MaxMembers > 0 && len(list) > r.opts.MaxMembers {
				return nil, fmt.Errorf("%w: seed %d exceeds %d members", ErrGroupTooLarge, seed.ID(), r.opts.MaxMembers)
			}
			stack = append(stack, t)
		}
	}

	return list, nil
}

// claim adds members to the veto set, enforcing disjointness.
func (r *resolver) claim(seed *cluster.Cluster, members []*cluster.Cluster) error {
	for _, mem := range members {
		id := mem.ID()
		if id == seed.ID() {
			return fmt.Errorf("%w: seed %d", ErrSelfReference, id)
		}
		if r.claimed(id) {
			return fmt.Errorf("%w: cluster %d wanted by seed %d was absorbed earlier", ErrAlreadyClaimed, id, seed.ID())
		}
		if _, ok := r.seeded[id]; ok {
			return fmt.Errorf("%w: cluster %d wanted by seed %d already seeded a group", ErrAlreadyClaimed, id, seed.ID())
		}
		r.veto[id] = struct{}{}

		if r.opts.OnClaim != nil {
			if err := r.opts.OnClaim(seed, mem); err != nil {
				return fmt.Errorf("resolve: OnClaim hook for %d→%d: %w", seed.ID(), id, err)
			}
		}
	}

	return nil
}
