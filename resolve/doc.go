// Package resolve turns a filtered association.Matrix into disjoint merge groups.
//
// What:
//
//   - Resolve(m, seeds, opts...): visits seeds in the given order (or the matrix sources in
//     cluster.Compare order when seeds is nil). A seed already claimed by an earlier group is
//     skipped. Otherwise its transitive closure in m is collected with an explicit stack,
//     sorted by cluster.Compare and claimed member by member.
//   - Collect(m, seed): the closure of one seed with an empty veto set.
//
// Traversal rules (per seed):
//
//   - The seed itself is never collected, even if a cycle leads back to it.
//   - A cluster already in the current absorption list is not collected again (cycle guard).
//     Each such encounter is counted in Summary.CycleGuards.
//   - A cluster claimed by an earlier group is collected (so the claim check can see it) but
//     its own associations are not expanded.
//
// Claiming:
//
//	The veto set grows monotonically during one Resolve call and is discarded afterwards.
//	Claiming a cluster that an earlier group already absorbed, or that already served as a
//	seed, is a consistency violation: Resolve aborts with ErrAlreadyClaimed and returns no
//	groups. The association builders and the volume filter are expected to make this
//	impossible; the check guards that contract.
//
// Options:
//
//   - WithOnClaim(fn)     hook invoked for every claimed (seed, member) pair; an error aborts.
//   - WithMaxMembers(n)   aborts with ErrGroupTooLarge when one closure exceeds n clusters.
//
// Errors:
//
//   - ErrMatrixNil        nil matrix.
//   - ErrAlreadyClaimed   member claimed twice, or a seed absorbed later.
//   - ErrSelfReference    a group lists its own seed.
//   - ErrGroupTooLarge    WithMaxMembers exceeded.
//   - hook errors         propagated from OnClaim.
//
// Complexity:
//
//   - Time:   O(V + E) traversal per seed, bounded overall by O(V·(V + E)) in the worst case
//     of overlapping closures; Memory: O(V).
package resolve
