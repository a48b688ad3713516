// Package merge drives the fixed-point cluster merge loop.
//
// What:
//
//	Each pass re-reads the clean clusters from a Source, builds an association.Matrix,
//	filters it with a volume.Filter, stops when the matrix is empty, resolves it into
//	disjoint groups with resolve.Resolve and issues one Source.MergeAndDelete per member.
//
// Variants:
//
//   - VariantMerging    threshold associations; unavailable clusters seed first and are never absorbed.
//     Before resolving, association.Disjoin gives a fragment near several unavailable clusters
//     to the closest one only, so groups stay disjoint.
//   - VariantGrowing    candidates join the nearest of a seed list fixed on the first pass.
//   - VariantExtension  endpoint-distance associations between aligned clusters; volume checking off by default.
//
// Options:
//
//	WithVariant, WithBuilder, WithFilter, WithLogger, WithRecorder, WithMaxClusters, WithMaxHits,
//	WithMinSeedHits, WithMaxPasses, WithMaxMembers, WithMinAxisCos.
//	NewDriverFromConfig wires all of them from a config.Config.
//
// Termination:
//
//	Every pass that does not stop realizes at least one merge, so the live cluster count
//	strictly decreases. With N initial clusters the loop ends within N passes; exceeding the
//	bound (or WithMaxPasses) returns ErrNoProgress instead of looping.
//
// Errors:
//
//   - ErrNilSource        nil Source.
//   - ErrMergeFailed      the Source rejected a merge; fatal for the event.
//   - ErrNoProgress       pass bound exceeded.
//   - resolve errors      consistency violations, returned unchanged.
//   - excessive size      not an error: Report.Abandoned is set and Abandoner.Abandon is called.
package merge
