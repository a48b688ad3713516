// Package geometry implements the pure geometric predicates the association and veto
// stages are built on.
//
// What:
//
//   - ClosestDistance: minimum hit-to-hit distance between two clusters.
//   - DriftSpan / VolumeOverlap: drift-coordinate extents and the padded overlap test that
//     separates harmless cross-volume associations from ambiguous ones.
//   - PrincipalAxes: weighted principal component analysis of a point cloud (gonum EigenSym).
//   - DirectionalCompatibility: absolute cosines between a reference axis and the displacement
//     between two centroids, and between two principal axes.
//   - Endpoints / EndpointDistance: extremal hits along the principal axis, used by the
//     extension association.
//
// All functions are side-effect free. A cluster without hits has no geometry: distances
// report Unreachable and span queries report ok == false.
//
// Complexity:
//
//   - ClosestDistance: O(n·m) for n and m hits.
//   - PrincipalAxes:   O(n) accumulation plus a constant 3×3 eigen decomposition.
package geometry
