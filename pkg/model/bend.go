package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/chazu/fsmodel/pkg/vecmath"
)

// bend computes the arc geometry of a bend element from its offsetted
// endpoints and reference point. ok is false when the data is too
// degenerate to describe an arc; the caller keeps straight geometry.
func (e *Element) bend(p1, p2 vecmath.Vec, p3 *vecmath.Vec, diags *diagnostics) (BendGeometry, bool) {
	if p3 == nil {
		diags.add(DiagDegenerateBend, "%s without a reference node, using straight geometry", e.def.Type)
		return BendGeometry{}, false
	}
	tol := e.m.tol
	a, b := p1.Sub(*p3), p2.Sub(*p3)
	if vecmath.IsZero(a) || vecmath.IsZero(b) {
		diags.add(DiagDegenerateBend, "endpoint coincides with reference node %d, using straight geometry", e.def.N3)
		return BendGeometry{}, false
	}
	la, lb := a.Length(), b.Length()

	var bg BendGeometry
	switch e.def.Type {
	case TypeCentreBend:
		r := e.def.BendRadius
		if !vecmath.IsCloseAbs(la, lb, tol.BendRadius) ||
			!vecmath.IsCloseAbs(la, r, tol.BendRadius) ||
			!vecmath.IsCloseAbs(lb, r, tol.BendRadius) {
			diags.add(DiagBendRadiusMismatch,
				"bend radius does not match node distances: bendrad=%g dist1=%g dist2=%g", r, la, lb)
		}
		bg.Angle = vecmath.AngleBetween(a, b)
		bg.Centre = *p3

	case TypeTangentBend:
		if !vecmath.IsCloseAbs(la, lb, tol.BendRadius) {
			diags.add(DiagTangentMismatch, "bend tangent distances do not match: tan1=%g tan2=%g", la, lb)
		}
		if vecmath.IsZero(b.Cross(a)) {
			diags.add(DiagDegenerateBend, "bend tangents are colinear, using straight geometry")
			return BendGeometry{}, false
		}
		bg.Angle = math.Pi - vecmath.AngleBetween(a, b)
		c, err := tangentCentre(p1, p2, a, b)
		if err != nil {
			diags.add(DiagDegenerateBend, "bend centre: %v, using straight geometry", err)
			return BendGeometry{}, false
		}
		bg.Centre = c
	}

	if bg.Angle <= 0 || bg.Angle > vecmath.Rad(tol.MaxBendAngle)+1e-9 {
		diags.add(DiagBendAngleRange, "bend angle %.2f outside (0, %g] degrees", vecmath.Deg(bg.Angle), tol.MaxBendAngle)
	}

	bg.Radius = e.def.BendRadius
	if bg.Radius <= 0 {
		bg.Radius = p1.Sub(bg.Centre).Length()
	}
	bg.ArcLength = bg.Radius * bg.Angle
	bg.Centroid = arcCentroid(p1, p2, bg.Centre, bg.Radius, bg.Angle)
	return bg, true
}

// tangentCentre finds the bend centre of a tangent-intersection bend: the
// point reached from each endpoint along the in-plane normal of its tangent.
// The two ray parameters are fitted by least squares.
func tangentCentre(p1, p2, a, b vecmath.Vec) (vecmath.Vec, error) {
	n := b.Cross(a).Normalize()
	ap := vecmath.RotateAbout(a.Normalize(), n, 90)
	bp := vecmath.RotateAbout(b.Normalize(), n, 90)

	// p1 + r1*ap = p2 + r2*bp
	A := mat.NewDense(3, 2, []float64{
		ap.X, -bp.X,
		ap.Y, -bp.Y,
		ap.Z, -bp.Z,
	})
	d := p2.Sub(p1)
	rhs := mat.NewVecDense(3, []float64{d.X, d.Y, d.Z})

	var qr mat.QR
	qr.Factorize(A)
	var r mat.VecDense
	if err := qr.SolveVecTo(&r, false, rhs); err != nil {
		return vecmath.Vec{}, fmt.Errorf("least squares: %w", err)
	}
	return p1.Add(ap.MulScalar(r.AtVec(0))), nil
}

// arcCentroid returns the centroid of a circular arc of radius r and angle
// theta about centre, starting at p1 and sweeping toward p2.
func arcCentroid(p1, p2, centre vecmath.Vec, r, theta float64) vecmath.Vec {
	x := p1.Sub(centre)
	if vecmath.IsZero(x) || theta < 1e-12 {
		return p1.Add(p2).MulScalar(0.5)
	}
	x = x.Normalize()
	xc := r * math.Sin(theta) / theta
	yc := r * (1 - math.Cos(theta)) / theta

	c := centre.Add(x.MulScalar(xc))
	if y := vecmath.Reject(p2.Sub(centre), x); !vecmath.IsZero(y) {
		c = c.Add(y.Normalize().MulScalar(yc))
	}
	return c
}
