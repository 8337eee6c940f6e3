package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/chazu/fsmodel/pkg/vecmath"
)

// CSysType is the coordinate flavour of a system.
type CSysType int

const (
	Cartesian CSysType = iota
	Cylindrical
	Spherical
	Conical
)

func (t CSysType) String() string {
	switch t {
	case Cartesian:
		return "cartesian"
	case Cylindrical:
		return "cylindrical"
	case Spherical:
		return "spherical"
	case Conical:
		return "conical"
	default:
		return fmt.Sprintf("CSysType(%d)", int(t))
	}
}

func (t CSysType) valid() bool { return t >= Cartesian && t <= Conical }

// ThreePoint is the origin selector value meaning T1, T2 and T3 are node ids.
const ThreePoint = -1

// CSysDef is the field-by-field definition of a coordinate system.
type CSysDef struct {
	ID   CSysID   `yaml:"id"`
	Type CSysType `yaml:"type"`
	// Origin coordinates, or node ids when N3 is ThreePoint.
	T1 float64 `yaml:"t1"`
	T2 float64 `yaml:"t2"`
	T3 float64 `yaml:"t3"`
	// Rotations in degrees, applied about Y, then Z, then X.
	RX float64 `yaml:"rx"`
	RY float64 `yaml:"ry"`
	RZ float64 `yaml:"rz"`
	// Cone base radius and half-angle in degrees.
	P1 float64 `yaml:"p1"`
	P2 float64 `yaml:"p2"`
	N3 int     `yaml:"n3"`
}

// DefaultCSysDef returns a cartesian definition at the global origin.
func DefaultCSysDef(id CSysID) CSysDef {
	return CSysDef{ID: id, N3: 1}
}

func (d CSysDef) validate() error {
	if !d.Type.valid() {
		return fmt.Errorf("type %d: %w", int(d.Type), ErrInvalidParameter)
	}
	if d.Type == Conical {
		if err := validateCone(d.P2); err != nil {
			return err
		}
	}
	if d.N3 == ThreePoint {
		for _, t := range []float64{d.T1, d.T2, d.T3} {
			if t < 1 || t != math.Trunc(t) {
				return fmt.Errorf("three-point origin: node id %v: %w", t, ErrInvalidParameter)
			}
		}
	}
	return nil
}

func validateCone(half float64) error {
	if half <= 0 || half >= 90 {
		return fmt.Errorf("cone half-angle %v must be in (0, 90): %w", half, ErrInvalidParameter)
	}
	return nil
}

// CSys is a coordinate system with a bidirectional transform to global
// cartesian space.
type CSys struct {
	m *Model
	cache
	def CSysDef

	origin vecmath.Vec
	frame  vecmath.Frame
	g2l    *mat.Dense
	l2g    *mat.Dense
	diags  []Diagnostic
}

func newCSys(m *Model, def CSysDef) *CSys {
	c := &CSys{m: m, def: def}
	c.invalidate()
	return c
}

func (c *CSys) ID() CSysID       { return c.def.ID }
func (c *CSys) Type() CSysType   { return c.def.Type }
func (c *CSys) Def() CSysDef     { return c.def }
func (c *CSys) ThreePoint() bool { return c.def.N3 == ThreePoint }

// SetType changes the coordinate flavour. A conical type requires the cone
// half-angle to be set first.
func (c *CSys) SetType(t CSysType) error {
	if !t.valid() {
		return fmt.Errorf("model: csys %d: type %d: %w", c.def.ID, int(t), ErrInvalidParameter)
	}
	if t == Conical {
		if err := validateCone(c.def.P2); err != nil {
			return fmt.Errorf("model: csys %d: %w", c.def.ID, err)
		}
	}
	c.def.Type = t
	c.changed()
	return nil
}

// SetOrigin sets T1, T2 and T3.
func (c *CSys) SetOrigin(t1, t2, t3 float64) error {
	d := c.def
	d.T1, d.T2, d.T3 = t1, t2, t3
	if err := d.validate(); err != nil {
		return fmt.Errorf("model: csys %d: %w", c.def.ID, err)
	}
	c.def = d
	c.changed()
	return nil
}

// SetRotation sets the Y-Z-X rotation angles in degrees.
func (c *CSys) SetRotation(rx, ry, rz float64) {
	c.def.RX, c.def.RY, c.def.RZ = rx, ry, rz
	c.changed()
}

// SetCone sets the cone base radius and half-angle.
func (c *CSys) SetCone(p1, p2 float64) error {
	if c.def.Type == Conical {
		if err := validateCone(p2); err != nil {
			return fmt.Errorf("model: csys %d: %w", c.def.ID, err)
		}
	}
	c.def.P1, c.def.P2 = p1, p2
	c.changed()
	return nil
}

// SetSelector sets the origin mode selector; ThreePoint switches T1..T3 to
// node ids.
func (c *CSys) SetSelector(n3 int) error {
	d := c.def
	d.N3 = n3
	if err := d.validate(); err != nil {
		return fmt.Errorf("model: csys %d: %w", c.def.ID, err)
	}
	c.def = d
	c.changed()
	return nil
}

func (c *CSys) changed() {
	c.invalidate()
	c.m.touch()
}

// ---------------------------------------------------------------------------
// Derived geometry
// ---------------------------------------------------------------------------

// Basis returns the system's axes in global coordinates.
func (c *CSys) Basis() (vecmath.Frame, error) {
	if err := c.calculate(); err != nil {
		return vecmath.Frame{}, err
	}
	return c.frame, nil
}

// Origin returns the system's origin in global coordinates.
func (c *CSys) Origin() (vecmath.Vec, error) {
	if err := c.calculate(); err != nil {
		return vecmath.Vec{}, err
	}
	return c.origin, nil
}

// Diagnostics returns the findings of the last computation.
func (c *CSys) Diagnostics() ([]Diagnostic, error) {
	if err := c.calculate(); err != nil {
		return nil, err
	}
	return append([]Diagnostic(nil), c.diags...), nil
}

// LocalToGlobal maps a point in the system's native coordinates to global
// cartesian coordinates.
func (c *CSys) LocalToGlobal(p vecmath.Vec) (vecmath.Vec, error) {
	if err := c.calculate(); err != nil {
		return vecmath.Vec{}, err
	}
	switch c.def.Type {
	case Cylindrical:
		p = vecmath.CylindricalToCartesian(p)
	case Spherical:
		p = vecmath.SphericalToCartesian(p)
	case Conical:
		p = vecmath.ConicalToCartesian(p, c.def.P1, c.def.P2)
	}
	return transformPoint(c.l2g, p), nil
}

// GlobalToLocal maps a global cartesian point to the system's native
// coordinates.
func (c *CSys) GlobalToLocal(p vecmath.Vec) (vecmath.Vec, error) {
	if err := c.calculate(); err != nil {
		return vecmath.Vec{}, err
	}
	l := transformPoint(c.g2l, p)
	switch c.def.Type {
	case Cylindrical:
		l = vecmath.CartesianToCylindrical(l)
	case Spherical:
		l = vecmath.CartesianToSpherical(l)
	case Conical:
		l = vecmath.CartesianToConical(l, c.def.P1, c.def.P2)
	}
	return l, nil
}

func (c *CSys) calculate() error {
	if c.fresh(c.m) {
		return nil
	}
	ref := csysRef(c.def.ID)
	if err := c.m.enter(ref); err != nil {
		return err
	}
	defer c.m.leave(ref)

	diags := diagnostics{entity: ref}
	var (
		origin vecmath.Vec
		frame  vecmath.Frame
	)
	if c.def.N3 == ThreePoint {
		var err error
		origin, frame, err = c.threePointFrame(&diags)
		if err != nil {
			return err
		}
	} else {
		origin = vecmath.Vec{X: c.def.T1, Y: c.def.T2, Z: c.def.T3}
		frame = rotationFrame(c.def.RX, c.def.RY, c.def.RZ)
	}

	g2l := globalToLocalMatrix(frame, origin)
	var l2g mat.Dense
	if err := l2g.Inverse(g2l); err != nil {
		return fmt.Errorf("model: csys %d: transform: %w", c.def.ID, err)
	}

	c.origin, c.frame, c.g2l, c.l2g, c.diags = origin, frame, g2l, &l2g, diags.list
	c.stamp(c.m)
	c.m.report(diags.list)
	return nil
}

// threePointFrame builds the frame from three node positions: origin at the
// first, I toward the second, J toward the third.
func (c *CSys) threePointFrame(diags *diagnostics) (vecmath.Vec, vecmath.Frame, error) {
	ids := [3]NodeID{NodeID(c.def.T1), NodeID(c.def.T2), NodeID(c.def.T3)}
	var pts [3]vecmath.Vec
	for k, id := range ids {
		n, ok := c.m.nodes.Get(id)
		if !ok {
			diags.add(DiagMissingNode, "undefined node %d in three-point definition", id)
			return pts[0], vecmath.GlobalFrame(), nil
		}
		p, err := n.Global()
		if err != nil {
			return vecmath.Vec{}, vecmath.Frame{}, fmt.Errorf("model: csys %d: node %d: %w", c.def.ID, id, err)
		}
		pts[k] = p
	}

	origin := pts[0]
	i := pts[1].Sub(origin)
	if vecmath.IsZero(i) {
		diags.add(DiagDegenerateFrame, "nodes %d and %d coincide, using global X", ids[0], ids[1])
		i = vecmath.UnitX
	}
	i = i.Normalize()

	j := pts[2].Sub(origin)
	if vecmath.IsZero(i.Cross(j)) {
		diags.add(DiagDegenerateFrame, "node %d is colinear with nodes %d and %d, using global Y", ids[2], ids[0], ids[1])
		j = vecmath.UnitY
		if vecmath.IsZero(i.Cross(j)) {
			j = vecmath.UnitZ
		}
	}
	j = vecmath.Reject(j, i).Normalize()
	return origin, vecmath.Frame{I: i, J: j, K: i.Cross(j)}, nil
}

// rotationFrame returns the axes obtained by rotating the global axes about
// Y, then Z, then X by the given angles in degrees.
func rotationFrame(rx, ry, rz float64) vecmath.Frame {
	sx, cx := math.Sincos(vecmath.Rad(rx))
	sy, cy := math.Sincos(vecmath.Rad(ry))
	sz, cz := math.Sincos(vecmath.Rad(rz))

	my := mat.NewDense(3, 3, []float64{
		cy, 0, -sy,
		0, 1, 0,
		sy, 0, cy,
	})
	mz := mat.NewDense(3, 3, []float64{
		cz, sz, 0,
		-sz, cz, 0,
		0, 0, 1,
	})
	mx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cx, sx,
		0, -sx, cx,
	})

	var zy, r mat.Dense
	zy.Mul(mz, my)
	r.Mul(mx, &zy)

	row := func(k int) vecmath.Vec {
		return vecmath.Vec{X: r.At(k, 0), Y: r.At(k, 1), Z: r.At(k, 2)}
	}
	return vecmath.Frame{I: row(0), J: row(1), K: row(2)}
}

// globalToLocalMatrix returns the homogeneous transform R * T(-origin) whose
// rotation rows are the frame axes.
func globalToLocalMatrix(f vecmath.Frame, origin vecmath.Vec) *mat.Dense {
	t := origin.Neg()
	return mat.NewDense(4, 4, []float64{
		f.I.X, f.I.Y, f.I.Z, f.I.Dot(t),
		f.J.X, f.J.Y, f.J.Z, f.J.Dot(t),
		f.K.X, f.K.Y, f.K.Z, f.K.Dot(t),
		0, 0, 0, 1,
	})
}

func transformPoint(t *mat.Dense, p vecmath.Vec) vecmath.Vec {
	var out mat.VecDense
	out.MulVec(t, mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, 1}))
	return vecmath.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}
