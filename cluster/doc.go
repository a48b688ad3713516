// Package cluster defines the Cluster container and the Store that owns clusters for one event.
//
// What:
//
//   - Cluster: an ordered set of hit references plus cached derived quantities
//     (hit count, energy, drift span). Clusters are addressed by stable ID handles.
//   - Store: an arena of clusters for one event. It is the external collaborator the
//     merge engine talks to: it creates clusters, moves hits between them and realizes
//     merge-and-delete instructions.
//   - Compare / Sort: the fixed total order used everywhere a deterministic seed or
//     member order is needed (descending hit count, then descending energy, then ID).
//
// Invariants:
//
//   - A hit belongs to at most one live cluster (ErrHitOwned).
//   - MergeAndDelete is all-or-nothing: either the member's hits move onto the seed and the
//     member is retired, or nothing changes and an error is returned.
//   - A retired *Cluster keeps its last contents for inspection but is never returned by the
//     Store again; Retired() reports it.
//
// Concurrency:
//
//	Store guards its catalog with a sync.RWMutex so independent readers may inspect it while
//	a single writer mutates. The algorithms drive one event from a single goroutine.
//
// Errors:
//
//	ErrNilHit          - nil hit passed to Create or AddHits.
//	ErrHitOwned        - hit already belongs to another live cluster.
//	ErrClusterNotFound - handle does not name a live cluster.
//	ErrSelfMerge       - seed and member are the same cluster.
//	ErrUnavailable     - member is not available for merging.
//	ErrHitNotInCluster - RemoveHits named a hit the cluster does not hold.
//	ErrCapacity        - WithMaxClusters cap reached.
package cluster
