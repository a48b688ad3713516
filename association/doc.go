// Package association builds the directed association matrix between candidate clusters.
//
// What:
//
//   - Matrix: cluster → set of associated clusters. Edges are directed (X→Y means "Y is a
//     candidate to be absorbed by X"); the reverse edge is optional.
//   - Builder: produces a Matrix from an ordered cluster set with one of two policies:
//   - ModeBestSeed: every cluster joins only the single nearest cluster that precedes it
//     in cluster.Compare order, provided the distance is below the maximum separation.
//     Every node has at most one parent, so the matrix is a forest.
//   - ModeThreshold: an edge is added for every ordered pair closer than the maximum
//     separation. The result is dense and symmetric for a symmetric metric; duplicates
//     are resolved later by the resolver's veto set.
//   - BuildSeeded: the growing variant. A fixed list of seeds collects candidates; each
//     candidate joins its nearest seed only.
//   - Disjoin: prunes a threshold matrix so that resolving seeds in a given order yields
//     disjoint groups. A target shared by several roots stays with the closest root.
//
// Determinism:
//
//	Map iteration order never leaks: Sources, Targets and Edges sort by cluster.Compare.
//	Distance ties go to the cluster that comes first in that order.
//
// Errors:
//
//	ErrNilCluster        - nil cluster passed to Add.
//	ErrSelfAssociation   - edge from a cluster to itself.
//
// Complexity:
//
//	Build is O(n²·c) for n clusters and metric cost c; matrix accessors are O(d log d).
package association
