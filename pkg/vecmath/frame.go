package vecmath

import (
	"fmt"
	"math"
)

// Frame is an orthonormal basis expressed in global coordinates.
type Frame struct {
	I, J, K Vec
}

// GlobalFrame returns the global X, Y, Z basis.
func GlobalFrame() Frame {
	return Frame{I: UnitX, J: UnitY, K: UnitZ}
}

// Apply returns the global vector whose components along the frame axes are c.
func (f Frame) Apply(c Vec) Vec {
	return f.I.MulScalar(c.X).Add(f.J.MulScalar(c.Y)).Add(f.K.MulScalar(c.Z))
}

// Components returns the components of the global vector v along the frame axes.
func (f Frame) Components(v Vec) Vec {
	return Vec{X: v.Dot(f.I), Y: v.Dot(f.J), Z: v.Dot(f.K)}
}

// Orthonormal reports whether the axes are unit length, mutually orthogonal
// and right-handed, within tol.
func (f Frame) Orthonormal(tol float64) bool {
	unit := func(v Vec) bool { return math.Abs(v.Length()-1) <= tol }
	if !unit(f.I) || !unit(f.J) || !unit(f.K) {
		return false
	}
	if math.Abs(f.I.Dot(f.J)) > tol || math.Abs(f.J.Dot(f.K)) > tol || math.Abs(f.K.Dot(f.I)) > tol {
		return false
	}
	return f.I.Cross(f.J).Sub(f.K).Length() <= tol
}

func (f Frame) String() string {
	return fmt.Sprintf("i=(%.4f %.4f %.4f) j=(%.4f %.4f %.4f) k=(%.4f %.4f %.4f)",
		f.I.X, f.I.Y, f.I.Z, f.J.X, f.J.Y, f.J.Z, f.K.X, f.K.Y, f.K.Z)
}

// CalcIJK derives the local frame of a line member running from p1 to p2.
//
// With a reference point p3 the local Y axis points toward p3 and the
// returned twist is the signed rotation about I that carries the default Y
// axis onto it. If p3 is colinear with the member (or coincident with p1)
// the default frame is returned with zero twist.
//
// Without p3 the default frame is used: local Y toward global Y, or local Z
// toward global Z when the member is vertical (parallel to global Y); J and
// K are then rotated about I by twist degrees, which is returned unchanged.
func CalcIJK(p1, p2 Vec, p3 *Vec, twist float64) (Frame, float64) {
	i := p2.Sub(p1)
	if IsZero(i) {
		i = UnitX
	} else {
		i = i.Normalize()
	}

	if p3 == nil {
		f := defaultFrame(i)
		f.J = RotateAbout(f.J, i, twist)
		f.K = RotateAbout(f.K, i, twist)
		return f, twist
	}

	j := p3.Sub(p1)
	if IsZero(i.Cross(j)) {
		return defaultFrame(i), 0
	}
	j = Reject(j, i).Normalize()
	f := Frame{I: i, J: j, K: i.Cross(j)}

	j0 := defaultFrame(i).J
	theta := Deg(AngleBetween(j0, j))
	plus := RotateAbout(j0, i, theta).Sub(j).Length()
	minus := RotateAbout(j0, i, -theta).Sub(j).Length()
	if minus < plus {
		theta = -theta
	}
	return f, theta
}

// defaultFrame returns the untwisted frame for a member along unit vector i.
func defaultFrame(i Vec) Frame {
	if IsClose(math.Abs(i.Y), 1) {
		k := Reject(UnitZ, i).Normalize()
		return Frame{I: i, J: k.Cross(i), K: k}
	}
	j := Reject(UnitY, i).Normalize()
	return Frame{I: i, J: j, K: i.Cross(j)}
}
