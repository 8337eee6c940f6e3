// Package vecmath provides the stateless vector and frame math used by the
// model: coordinate-flavour conversions, orthonormal frames, axis rotations
// and local-frame derivation for line members.
package vecmath

import (
	"math"

	"github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a point or direction in 3D space.
type Vec = v3.Vec

// Global axes.
var (
	UnitX = Vec{X: 1}
	UnitY = Vec{Y: 1}
	UnitZ = Vec{Z: 1}
)

// Default closeness tolerances, matching numpy.isclose.
const (
	RelTol = 1e-5
	AbsTol = 1e-8
)

// IsClose reports whether a and b are equal within RelTol of b plus AbsTol.
func IsClose(a, b float64) bool {
	return math.Abs(a-b) <= AbsTol+RelTol*math.Abs(b)
}

// IsCloseAbs reports whether a and b are equal within an absolute tolerance
// atol plus the default relative tolerance.
func IsCloseAbs(a, b, atol float64) bool {
	return math.Abs(a-b) <= atol+RelTol*math.Abs(b)
}

// IsZero reports whether v has (numerically) zero length.
func IsZero(v Vec) bool {
	return IsClose(v.Length(), 0)
}

// Deg converts radians to degrees.
func Deg(rad float64) float64 { return rad * 180 / math.Pi }

// Rad converts degrees to radians.
func Rad(deg float64) float64 { return deg * math.Pi / 180 }

// RotateAbout rotates v about axis by deg degrees, right-handed.
// A zero axis leaves v unchanged.
func RotateAbout(v, axis Vec, deg float64) Vec {
	if IsZero(axis) || deg == 0 {
		return v
	}
	rot := r3.NewRotation(Rad(deg), r3.Vec(axis.Normalize()))
	return Vec(rot.Rotate(r3.Vec(v)))
}

// Reject returns the component of v orthogonal to the unit vector u.
func Reject(v, u Vec) Vec {
	return v.Sub(u.MulScalar(v.Dot(u)))
}

// AngleBetween returns the angle in radians between a and b. The cosine is
// clamped so nearly parallel vectors never produce NaN.
func AngleBetween(a, b Vec) float64 {
	d := a.Length() * b.Length()
	if d == 0 {
		return 0
	}
	c := a.Dot(b) / d
	return math.Acos(math.Max(-1, math.Min(1, c)))
}
