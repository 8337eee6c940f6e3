package vecmath

import "math"

// CartesianToCylindrical converts (x,y,z) to (r,θ,z) with θ in degrees,
// measured in the X-Y plane from +X toward +Y. At r=0 θ is 0.
func CartesianToCylindrical(p Vec) Vec {
	return Vec{
		X: math.Hypot(p.X, p.Y),
		Y: Deg(math.Atan2(p.Y, p.X)),
		Z: p.Z,
	}
}

// CylindricalToCartesian converts (r,θ,z) with θ in degrees to (x,y,z).
func CylindricalToCartesian(c Vec) Vec {
	s, co := math.Sincos(Rad(c.Y))
	return Vec{X: c.X * co, Y: c.X * s, Z: c.Z}
}

// CartesianToSpherical converts (x,y,z) to (r,θ1,θ2) in degrees. θ1 is the
// azimuth of the projection in the X-Y plane; θ2 is the elevation of the
// point above that plane.
func CartesianToSpherical(p Vec) Vec {
	r := p.Length()
	t1 := math.Atan2(p.Y, p.X)
	s, c := math.Sincos(t1)
	t2 := math.Atan2(p.Z, p.X*c+p.Y*s)
	return Vec{X: r, Y: Deg(t1), Z: Deg(t2)}
}

// SphericalToCartesian converts (r,θ1,θ2) in degrees to (x,y,z).
func SphericalToCartesian(s Vec) Vec {
	s1, c1 := math.Sincos(Rad(s.Y))
	s2, c2 := math.Sincos(Rad(s.Z))
	return Vec{
		X: s.X * c2 * c1,
		Y: s.X * c2 * s1,
		Z: s.X * s2,
	}
}

// CartesianToConical converts (x,y,z) to conical (r,θ,z) on the cone of base
// radius r0 (at z=0) and half-angle halfDeg about the local Z axis. The input
// z is ignored; the returned z is derived from r.
func CartesianToConical(p Vec, r0, halfDeg float64) Vec {
	r := math.Hypot(p.X, p.Y)
	return Vec{
		X: r,
		Y: Deg(math.Atan2(p.Y, p.X)),
		Z: coneZ(r, r0, halfDeg),
	}
}

// ConicalToCartesian converts conical (r,θ,z) to (x,y,z) on the cone surface.
// The supplied z is ignored. A radius of (numerically) zero is replaced by
// the base radius r0.
func ConicalToCartesian(c Vec, r0, halfDeg float64) Vec {
	r := c.X
	if IsClose(r, 0) {
		r = r0
	}
	s, co := math.Sincos(Rad(c.Y))
	return Vec{X: r * co, Y: r * s, Z: coneZ(r, r0, halfDeg)}
}

func coneZ(r, r0, halfDeg float64) float64 {
	return (r - r0) / math.Tan(Rad(halfDeg))
}
