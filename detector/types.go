package detector

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownView indicates that a view name could not be parsed.
var ErrUnknownView = errors.New("detector: unknown view")

// Vector is a Cartesian 3-vector. X is the drift coordinate.
type Vector struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Add returns v+o.
func (v Vector) Add(o Vector) Vector { return Vector{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v-o.
func (v Vector) Sub(o Vector) Vector { return Vector{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns s·v.
func (v Vector) Scale(s float64) Vector { return Vector{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the scalar product.
func (v Vector) Dot(o Vector) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns the vector product v×o.
func (v Vector) Cross(o Vector) Vector {
	return Vector{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// MagSq returns |v|².
func (v Vector) MagSq() float64 { return v.Dot(v) }

// Mag returns |v|.
func (v Vector) Mag() float64 { return math.Sqrt(v.MagSq()) }

// Unit returns v/|v|, or false when v has zero length.
func (v Vector) Unit() (Vector, bool) {
	m := v.Mag()
	if m == 0 {
		return Vector{}, false
	}

	return v.Scale(1 / m), true
}

// CosOpeningAngle returns the cosine of the angle between v and o.
// A zero-length operand has no direction; the result is then 0.
func (v Vector) CosOpeningAngle(o Vector) float64 {
	den := v.Mag() * o.Mag()
	if den == 0 {
		return 0
	}
	c := v.Dot(o) / den
	// clamp rounding noise so callers can rely on [-1, 1]
	return math.Max(-1, math.Min(1, c))
}

// String implements fmt.Stringer.
func (v Vector) String() string { return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z) }

// View is the readout projection of a hit.
type View uint8

const (
	ViewUnknown View = iota
	ViewU
	ViewV
	ViewW
	View3D
	ViewCustom
)

var viewNames = [...]string{"unknown", "U", "V", "W", "3D", "custom"}

// String implements fmt.Stringer.
func (v View) String() string {
	if int(v) < len(viewNames) {
		return viewNames[v]
	}

	return fmt.Sprintf("View(%d)", uint8(v))
}

// ParseView maps a case-insensitive view name ("U", "V", "W", "3D", "custom") to a View.
func ParseView(s string) (View, error) {
	for i, name := range viewNames {
		if strings.EqualFold(s, name) {
			return View(i), nil
		}
	}

	return ViewUnknown, fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// Is2D reports whether v is one of the wire-plane projections.
func (v View) Is2D() bool { return v == ViewU || v == ViewV || v == ViewW }

// VolumeID identifies the detector module a hit was recorded in.
type VolumeID struct {
	TPC uint32 `yaml:"tpc"`
	Sub uint32 `yaml:"sub"`
}

// DriftMerged folds stacked daughter volumes that share a drift volume onto one identity.
// It assumes consecutive sub-volume IDs are stacked, which holds for the supported geometries only.
func (id VolumeID) DriftMerged() VolumeID { return VolumeID{TPC: id.TPC, Sub: id.Sub % 2} }

// String implements fmt.Stringer.
func (id VolumeID) String() string { return fmt.Sprintf("%d:%d", id.TPC, id.Sub) }

// Hit is one detector measurement. Hits are immutable once ingested.
type Hit struct {
	// ID identifies the hit within its event.
	ID uint64

	// Position is the reconstructed position; X is the drift coordinate.
	Position Vector

	// Energy is the calibrated energy-like scalar.
	Energy float64

	// View is the readout projection.
	View View

	// Volume is meaningful only when Tagged is true.
	Volume VolumeID

	// Tagged reports whether the hit carries a detector-volume tag.
	Tagged bool
}

// VolumeTag returns the hit's volume and whether it has one.
func (h *Hit) VolumeTag() (VolumeID, bool) {
	if h == nil || !h.Tagged {
		return VolumeID{}, false
	}

	return h.Volume, true
}
