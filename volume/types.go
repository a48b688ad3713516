package volume

import (
	"errors"
	"fmt"

	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/geometry"
)

// ErrUnknownPolicy indicates a policy name could not be parsed.
var ErrUnknownPolicy = errors.New("volume: unknown policy")

// Policy selects which cross-volume associations survive.
type Policy int

const (
	// PolicyOverlapAware vetoes a cross-volume pair only if its drift spans overlap.
	PolicyOverlapAware Policy = iota

	// PolicyVetoAll vetoes every cross-volume pair.
	PolicyVetoAll
)

// Policy names accepted by ParsePolicy and produced by String.
const (
	PolicyNameOverlapAware = "overlap"
	PolicyNameVetoAll      = "veto-all"
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case PolicyOverlapAware:
		return PolicyNameOverlapAware
	case PolicyVetoAll:
		return PolicyNameVetoAll
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps "overlap" or "veto-all" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case PolicyNameOverlapAware:
		return PolicyOverlapAware, nil
	case PolicyNameVetoAll:
		return PolicyVetoAll, nil
	default:
		return PolicyOverlapAware, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Verdict is the outcome of comparing the volumes of two clusters.
type Verdict int

const (
	// VerdictUnknown means at least one cluster has no usable volume identity.
	VerdictUnknown Verdict = iota

	// VerdictSameVolume means both clusters share a volume identity.
	VerdictSameVolume

	// VerdictDisjoint means the volumes differ and the drift spans do not overlap.
	VerdictDisjoint

	// VerdictAmbiguous means the volumes differ and the drift spans overlap.
	VerdictAmbiguous
)

// String implements fmt.Stringer.
func (v Verdict) String() string {
	switch v {
	case VerdictSameVolume:
		return "same-volume"
	case VerdictDisjoint:
		return "disjoint"
	case VerdictAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Allows reports whether an association with verdict v survives under p.
// VerdictUnknown is allowed: the pair cannot be judged, so it is left alone.
func (p Policy) Allows(v Verdict) bool {
	switch v {
	case VerdictSameVolume, VerdictUnknown:
		return true
	case VerdictDisjoint:
		return p == PolicyOverlapAware
	default:
		return false
	}
}

// Classify compares the volume identities of a and b. Drift spans are consulted only when
// the identities differ; the overlap test is symmetric in a and b.
func Classify(a, b *cluster.Cluster, padding float64) Verdict {
	va, okA := a.Volume()
	vb, okB := b.Volume()
	if !okA || !okB {
		return VerdictUnknown
	}
	if va == vb {
		return VerdictSameVolume
	}
	if geometry.ClustersOverlap(a, b, padding) {
		return VerdictAmbiguous
	}

	return VerdictDisjoint
}

// Compatible is the pairwise gate used outside the matrix filter:
// it classifies a and b and applies p.
func Compatible(a, b *cluster.Cluster, p Policy, padding float64) bool {
	return p.Allows(Classify(a, b, padding))
}
