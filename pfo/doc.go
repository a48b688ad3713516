// Package pfo keeps particle-flow objects (PFOs) on top of a cluster.Store.
//
// A PFO groups the clusters that make up one reconstructed particle, at most one PFO per
// cluster, and carries a parent/daughter hierarchy and a list of vertices. The Store
// records only handles; hits and cluster geometry stay in the cluster.Store it wraps.
//
// MergeAndDelete(enlarge, remove) folds one PFO into another:
//
//  1. remove is deleted and detached from its parent;
//  2. its daughters become daughters of enlarge;
//  3. its vertices are dropped;
//  4. each of its clusters is merged into the cluster of enlarge with the same view and the
//     most hits (ParentCluster) or, when enlarge has no cluster of that view, attached to it.
//
// Every handle and cluster is validated before step 1, so a returned error leaves both
// stores unchanged.
//
// Concurrency: Store guards its catalog with a sync.RWMutex. The wrapped cluster.Store is
// locked separately.
package pfo
