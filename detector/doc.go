// Package detector defines the read-only hit model shared by every algorithm in larmerge:
// 3D positions, readout views, and detector-volume identity.
//
// What:
//
//   - Vector: a Cartesian 3-vector with the handful of operations the geometry code needs.
//   - View: the readout projection a hit was recorded in (U, V, W wire planes, 3D, custom).
//   - VolumeID: the (TPC volume, sub volume) pair identifying a physical detector module.
//   - Hit: a position, an energy-like scalar, a view and an optional volume tag.
//
// Volume tagging:
//
//	Not every hit carries a volume. Hit.Tagged is resolved once when hits are ingested;
//	code that needs a volume asks Hit.VolumeTag() and treats an untagged hit as
//	"volume unknown" instead of probing hit subtypes at every comparison.
//
// Ownership:
//
//	Hits are owned by whoever ingested them (see cluster.Store). The algorithms only read
//	them and never mutate a Hit after creation.
package detector
