// Package consolidate moves stray hits from short clusters into the long track clusters
// they sit on.
//
// What:
//
//   - A track is a cluster whose squared length reaches MinTrackLength². Its hits are fitted
//     with a straight line (geometry.ClusterAxes).
//   - Every other cluster J at most half as long (2·len²(J) ≤ len²(I)) is a donor for track I.
//   - For a donor hit rJ, let rI be the nearest track hit and rK the projection of rJ on the
//     track axis. The hit is associated when
//
//     |rJK|² < min(maxT², |rIJ|², |rKI|²)
//
//     and rK lies within the longitudinal extent of the track. The hit then fills a gap in
//     the track rather than running alongside it.
//   - The associated hits of a donor move only if their longitudinal span exceeds
//     MinAssociatedSpan or their share of the donor exceeds MinAssociatedFraction.
//
// Volumes:
//
//	Pairs are gated by volume.Classify with the configured Policy (PolicyVetoAll by default).
//	A pair whose volumes cannot be judged is skipped.
//
// Realization:
//
//	All moves are planned before the store is touched. A hit moves at most once. Removals
//	are applied first, then additions; a cluster left empty afterwards is deleted.
//
// Errors:
//
//   - ErrNilStore      nil store.
//   - store errors     wrapped with the affected cluster; the run stops at the first one.
//   - ctx.Err()        when ctx is cancelled between tracks.
//
// Complexity:
//
//   - Time O(T·(C·h·H)) for T tracks with H hits and C donors with h hits; Memory O(moved hits).
package consolidate
