// Package volume implements the detector-volume consistency gate applied to association
// matrices and to individual cluster pairs.
//
// What:
//
//   - Classify: compares the volume identity of two clusters and, only when they differ,
//     their padded drift spans. The outcome is a Verdict:
//     VerdictSameVolume, VerdictDisjoint, VerdictAmbiguous or VerdictUnknown.
//   - Policy: decides which verdicts keep an association.
//     PolicyOverlapAware vetoes only ambiguous pairs (different volumes whose drift windows
//     overlap cannot come from one trajectory). PolicyVetoAll vetoes every cross-volume pair.
//   - Filter: applies a Policy to every edge of an association.Matrix in two phases
//     (read-only classification, then removal) and prunes nodes left without edges.
//   - Purity / Catalog: bookkeeping helpers that report clusters spanning several volumes
//     and group hits per (volume, view).
//
// Why:
//
//	Simultaneous drift-time overlap across separate volumes cannot originate from one
//	physical trajectory, so such associations are fake and must not be merged.
//
// Malformed input:
//
//	A cluster without hits, or whose first hit carries no volume tag, yields VerdictUnknown.
//	The filter keeps such edges untouched and counts them as skipped.
//
// Properties:
//
//   - Same-volume edges are always kept; drift spans are not consulted for them.
//   - Apply is idempotent: a second Apply on its own output removes nothing.
package volume
