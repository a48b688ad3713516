// Package neargap stitches particle-flow objects that stop on either side of a gap in the
// detector at z = 0.
//
// What:
//
//   - Seed: a PFO with exactly one 3D cluster of at least MinClusterHits hits, of which at
//     least MinGapPoints lie inside the gap region (-GapHalfLength < z < GapHalfLength), and
//     which does not span the gap (more than MaxSpanningPoints hits on both sides). Its side
//     is the side holding more hits. The NearGapPoints hits outside the gap region closest to
//     it give the seed's centroid and direction (PCA).
//   - Candidate: any other PFO with one 3D cluster, not yet matched, with at least
//     MinGapPoints hits in the lookout region on the opposite side of the gap and not
//     spanning. A PCA over those hits gives its centroid and direction.
//   - A candidate matches a seed when |cos| between the seed direction and the centroid
//     displacement exceeds MinAbsCosDisplacement and |cos| between the two directions
//     exceeds MinAbsCosAxis. A candidate is matched at most once.
//
// Realization:
//
//	Matches become edges of an association.Matrix between 3D clusters, optionally pruned by
//	a volume.Filter, and are resolved into disjoint groups by resolve.Resolve. A seed that is
//	itself matched by an earlier seed folds into that seed's group together with its own
//	matches. Each group is realized with pfo.Store.MergeAndDelete.
//
// Malformed input:
//
//	A PFO with more than one 3D cluster is skipped and counted in Summary.Malformed.
//
// Errors:
//
//   - ErrNilStore       nil PFO store.
//   - ErrMergeFailed    wraps the pfo.Store failure; earlier merges stay applied.
//   - resolve errors    consistency violations.
//   - ctx.Err()         when ctx is cancelled between seeds.
package neargap
