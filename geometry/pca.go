package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/detector"
)

var (
	// ErrTooFewPoints indicates PCA was asked to fit fewer than two points.
	ErrTooFewPoints = errors.New("geometry: at least two points are required")

	// ErrWeights indicates a weight slice of the wrong length or non-positive total weight.
	ErrWeights = errors.New("geometry: invalid weights")

	// ErrEigen indicates the eigen decomposition did not converge.
	ErrEigen = errors.New("geometry: eigen decomposition failed")
)

// Axes is the result of a principal component analysis.
type Axes struct {
	// Centroid is the weighted mean position.
	Centroid detector.Vector

	// Values are the eigenvalues in descending order.
	Values [3]float64

	// Vectors are the unit eigenvectors matching Values; Vectors[0] is the principal axis.
	Vectors [3]detector.Vector
}

// Primary returns the principal axis.
func (a Axes) Primary() detector.Vector { return a.Vectors[0] }

// PrincipalAxes runs a weighted PCA over points. A nil weights slice weighs all points equally.
//
// Implementation:
//   - Stage 1: Validate input sizes and total weight.
//   - Stage 2: Accumulate the weighted centroid, then the weighted covariance.
//   - Stage 3: Factorize the symmetric 3×3 covariance with mat.EigenSym and order by eigenvalue.
//
// Errors:
//   - ErrTooFewPoints, ErrWeights, ErrEigen.
func PrincipalAxes(points []detector.Vector, weights []float64) (Axes, error) {
	// 1. Validate
	if len(points) < 2 {
		return Axes{}, ErrTooFewPoints
	}
	if weights != nil && len(weights) != len(points) {
		return Axes{}, fmt.Errorf("%w: %d weights for %d points", ErrWeights, len(weights), len(points))
	}
	w := func(i int) float64 {
		if weights == nil {
			return 1
		}
		return weights[i]
	}

	// 2. Centroid and covariance
	var total float64
	var centroid detector.Vector
	for i, p := range points {
		total += w(i)
		centroid = centroid.Add(p.Scale(w(i)))
	}
	if total <= 0 {
		return Axes{}, fmt.Errorf("%w: total weight %g", ErrWeights, total)
	}
	centroid = centroid.Scale(1 / total)

	var xx, yy, zz, xy, xz, yz float64
	for i, p := range points {
		d := p.Sub(centroid)
		wi := w(i)
		xx += wi * d.X * d.X
		yy += wi * d.Y * d.Y
		zz += wi * d.Z * d.Z
		xy += wi * d.X * d.Y
		xz += wi * d.X * d.Z
		yz += wi * d.Y * d.Z
	}
	cov := mat.NewSymDense(3, []float64{
		xx, xy, xz,
		xy, yy, yz,
		xz, yz, zz,
	})
	cov.ScaleSym(1/total, cov)

	// 3. Eigen decomposition; gonum returns ascending eigenvalues
	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return Axes{}, ErrEigen
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	axes := Axes{Centroid: centroid}
	for k := 0; k < 3; k++ {
		col := 2 - k
		axes.Values[k] = math.Max(0, values[col])
		axes.Vectors[k] = detector.Vector{
			X: vectors.At(0, col),
			Y: vectors.At(1, col),
			Z: vectors.At(2, col),
		}
	}

	return axes, nil
}

// ClusterAxes runs PrincipalAxes over the hit positions of c, weighting hits equally.
func ClusterAxes(c *cluster.Cluster) (Axes, error) {
	if c == nil {
		return Axes{}, ErrTooFewPoints
	}
	points := make([]detector.Vector, c.NHits())
	for i := range points {
		points[i] = c.Hit(i).Position
	}

	return PrincipalAxes(points, nil)
}

// Alignment holds the two collinearity measures of DirectionalCompatibility, both in [0, 1].
type Alignment struct {
	// Displacement is |cos| between the reference axis and the centroid-to-centroid displacement.
	Displacement float64

	// Axis is |cos| between the two principal axes.
	Axis float64
}

// DirectionalCompatibility measures how collinear object B is with reference object A.
// A zero displacement (coincident centroids) yields Displacement == 0.
func DirectionalCompatibility(centroidA, directionA, centroidB, directionB detector.Vector) Alignment {
	disp := centroidB.Sub(centroidA)

	return Alignment{
		Displacement: math.Abs(directionA.CosOpeningAngle(disp)),
		Axis:         math.Abs(directionA.CosOpeningAngle(directionB)),
	}
}

// Compatibility is DirectionalCompatibility applied to two PCA results.
func Compatibility(a, b Axes) Alignment {
	return DirectionalCompatibility(a.Centroid, a.Primary(), b.Centroid, b.Primary())
}
