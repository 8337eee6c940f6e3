package model

import (
	"fmt"
	"slices"

	"github.com/chazu/fsmodel/pkg/vecmath"
)

// ElementType is the legacy element type code.
type ElementType int

const (
	TypeStraight    ElementType = 0
	TypeTangentBend ElementType = 2 // third node is the tangent intersection
	TypeCentreBend  ElementType = 3 // third node is the bend centre
)

var validElementTypes = []ElementType{0, 2, 3, 6, 7, 8, 15, 16}

func (t ElementType) valid() bool { return slices.Contains(validElementTypes, t) }

// IsBend reports whether the type describes a curved member.
func (t ElementType) IsBend() bool { return t == TypeTangentBend || t == TypeCentreBend }

func (t ElementType) String() string {
	switch t {
	case TypeStraight:
		return "straight"
	case TypeTangentBend:
		return "tangent-bend"
	case TypeCentreBend:
		return "centre-bend"
	default:
		return fmt.Sprintf("type-%d", int(t))
	}
}

// ElementDef is the field-by-field definition of a beam/pipe element.
type ElementDef struct {
	ID         ElementID   `yaml:"id"`
	N1         NodeID      `yaml:"n1"`
	N2         NodeID      `yaml:"n2"`
	N3         NodeID      `yaml:"n3,omitempty"`
	Rot        float64     `yaml:"rot"`
	Geom       int         `yaml:"geom"`
	Mat        int         `yaml:"mat"`
	RelZ       int         `yaml:"relz"`
	RelY       int         `yaml:"rely"`
	Taper      int         `yaml:"taper"`
	Type       ElementType `yaml:"type"`
	CO         int         `yaml:"co"`
	BendRadius float64     `yaml:"bendrad,omitempty"`
}

// DefaultElementDef returns a straight element using property tables 1.
func DefaultElementDef(id ElementID) ElementDef {
	return ElementDef{ID: id, Geom: 1, Mat: 1}
}

func (d ElementDef) validate() error {
	if !d.Type.valid() {
		return fmt.Errorf("type %d: %w", int(d.Type), ErrInvalidParameter)
	}
	if err := validateHinges(d.RelZ, d.RelY); err != nil {
		return err
	}
	if d.N1 < 0 || d.N2 < 0 || d.N3 < 0 {
		return fmt.Errorf("negative node id: %w", ErrInvalidParameter)
	}
	return nil
}

func validateHinges(relz, rely int) error {
	if relz < 0 || relz > 3 {
		return fmt.Errorf("relz %d must be 0..3: %w", relz, ErrInvalidParameter)
	}
	if rely < 0 || rely > 3 {
		return fmt.Errorf("rely %d must be 0..3: %w", rely, ErrInvalidParameter)
	}
	return nil
}

// BendGeometry is the derived geometry of a curved element. Angles are in
// radians.
type BendGeometry struct {
	Angle     float64
	Centre    vecmath.Vec
	Radius    float64
	ArcLength float64
	Centroid  vecmath.Vec
}

// ElementGeometry is the full derived state of an element. P1 and P2 are the
// offsetted endpoints; Offset1 and Offset2 the resolved global offsets.
type ElementGeometry struct {
	P1, P2           vecmath.Vec
	P3               *vecmath.Vec
	Offset1, Offset2 vecmath.Vec
	Frame            vecmath.Frame
	// Twist is the effective twist in degrees, back-derived when the frame
	// is defined by a reference node.
	Twist       float64
	Length      float64
	Centroid    vecmath.Vec
	Bend        *BendGeometry
	Diagnostics []Diagnostic
}

// clone returns a copy that shares no memory with g.
func (g ElementGeometry) clone() ElementGeometry {
	if g.P3 != nil {
		p3 := *g.P3
		g.P3 = &p3
	}
	if g.Bend != nil {
		b := *g.Bend
		g.Bend = &b
	}
	g.Diagnostics = slices.Clone(g.Diagnostics)
	return g
}

// Element is a beam or pipe member between two nodes.
type Element struct {
	m *Model
	cache
	def ElementDef

	geo ElementGeometry
}

func newElement(m *Model, def ElementDef) *Element {
	e := &Element{m: m, def: def}
	e.invalidate()
	return e
}

func (e *Element) ID() ElementID     { return e.def.ID }
func (e *Element) Def() ElementDef   { return e.def }
func (e *Element) Type() ElementType { return e.def.Type }

// ---------------------------------------------------------------------------
// Setters
// ---------------------------------------------------------------------------

// SetNodes sets the endpoint nodes.
func (e *Element) SetNodes(n1, n2 NodeID) error {
	if n1 < 0 || n2 < 0 {
		return fmt.Errorf("model: element %d: negative node id: %w", e.def.ID, ErrInvalidParameter)
	}
	e.def.N1, e.def.N2 = n1, n2
	e.changed()
	return nil
}

// SetN3 sets the reference node; 0 clears it.
func (e *Element) SetN3(n3 NodeID) error {
	if n3 < 0 {
		return fmt.Errorf("model: element %d: negative node id: %w", e.def.ID, ErrInvalidParameter)
	}
	e.def.N3 = n3
	e.changed()
	return nil
}

// SetRot sets the twist angle in degrees.
func (e *Element) SetRot(deg float64) {
	e.def.Rot = deg
	e.changed()
}

// SetType sets the element type code.
func (e *Element) SetType(t ElementType) error {
	if !t.valid() {
		return fmt.Errorf("model: element %d: type %d: %w", e.def.ID, int(t), ErrInvalidParameter)
	}
	e.def.Type = t
	e.changed()
	return nil
}

// SetBendRadius sets the declared bend radius.
func (e *Element) SetBendRadius(r float64) {
	e.def.BendRadius = r
	e.changed()
}

// SetHinges sets the RELZ and RELY hinge codes.
func (e *Element) SetHinges(relz, rely int) error {
	if err := validateHinges(relz, rely); err != nil {
		return fmt.Errorf("model: element %d: %w", e.def.ID, err)
	}
	e.def.RelZ, e.def.RelY = relz, rely
	e.changed()
	return nil
}

// SetProperties sets the geometric and material property table codes.
func (e *Element) SetProperties(geom, mat int) {
	e.def.Geom, e.def.Mat = geom, mat
	e.changed()
}

func (e *Element) SetTaper(taper int) {
	e.def.Taper = taper
	e.changed()
}

func (e *Element) SetCO(co int) {
	e.def.CO = co
	e.changed()
}

func (e *Element) changed() {
	e.invalidate()
	e.m.touch()
}

// ---------------------------------------------------------------------------
// Derived geometry
// ---------------------------------------------------------------------------

// Geometry returns a copy of the element's derived geometry, recomputing it
// if any part of the model changed since the last read. The only error is a
// circular offset reference.
func (e *Element) Geometry() (ElementGeometry, error) {
	if e.fresh(e.m) {
		return e.geo.clone(), nil
	}
	ref := elementRef(e.def.ID)
	if err := e.m.enter(ref); err != nil {
		return ElementGeometry{}, err
	}
	defer e.m.leave(ref)

	geo, err := e.compute()
	if err != nil {
		return ElementGeometry{}, err
	}
	e.geo = geo
	e.stamp(e.m)
	e.m.report(geo.Diagnostics)
	return geo.clone(), nil
}

// LocalFrame returns the element's local axes.
func (e *Element) LocalFrame() (vecmath.Frame, error) {
	g, err := e.Geometry()
	return g.Frame, err
}

// Length returns the straight length, or the arc length of a bend.
func (e *Element) Length() (float64, error) {
	g, err := e.Geometry()
	return g.Length, err
}

// Endpoints returns the offsetted endpoints.
func (e *Element) Endpoints() (vecmath.Vec, vecmath.Vec, error) {
	g, err := e.Geometry()
	return g.P1, g.P2, err
}

// Centroid returns the centre of gravity of the member's axis.
func (e *Element) Centroid() (vecmath.Vec, error) {
	g, err := e.Geometry()
	return g.Centroid, err
}

// BendAngle returns the bend angle in degrees, or 0 for straight members.
func (e *Element) BendAngle() (float64, error) {
	g, err := e.Geometry()
	if err != nil || g.Bend == nil {
		return 0, err
	}
	return vecmath.Deg(g.Bend.Angle), nil
}

// BendCentre returns the bend centre and whether the element has one.
func (e *Element) BendCentre() (vecmath.Vec, bool, error) {
	g, err := e.Geometry()
	if err != nil || g.Bend == nil {
		return vecmath.Vec{}, false, err
	}
	return g.Bend.Centre, true, nil
}

func (e *Element) compute() (ElementGeometry, error) {
	diags := diagnostics{entity: elementRef(e.def.ID)}
	geo := ElementGeometry{Frame: vecmath.GlobalFrame(), Twist: e.def.Rot}

	p1, ok1, err := e.nodePosition(e.def.N1)
	if err != nil {
		return geo, err
	}
	p2, ok2, err := e.nodePosition(e.def.N2)
	if err != nil {
		return geo, err
	}
	switch {
	case !ok1 && !ok2:
		diags.add(DiagMissingNode, "undefined nodes %d and %d", e.def.N1, e.def.N2)
	case !ok1:
		diags.add(DiagMissingNode, "undefined node %d", e.def.N1)
	case !ok2:
		diags.add(DiagMissingNode, "undefined node %d", e.def.N2)
	}
	if !ok1 || !ok2 {
		geo.Diagnostics = diags.list
		return geo, nil
	}

	if e.def.N3 > 0 {
		p3, ok, err := e.nodePosition(e.def.N3)
		if err != nil {
			return geo, err
		}
		if ok {
			geo.P3 = &p3
		} else {
			diags.add(DiagMissingNode, "undefined reference node %d", e.def.N3)
		}
	}

	frame, twist := vecmath.CalcIJK(p1, p2, geo.P3, e.def.Rot)
	if o, ok := e.m.offsets.Get(e.def.ID); ok && o.def.Ends != OffsetNone {
		var offs [2]vecmath.Vec
		for end := 1; end <= 2; end++ {
			if !o.def.Ends.applies(end) {
				continue
			}
			ref, v := o.End(end)
			off, err := e.resolveOffset(ref, v, frame, &diags)
			if err != nil {
				return geo, err
			}
			offs[end-1] = off
		}
		geo.Offset1, geo.Offset2 = offs[0], offs[1]
		p1, p2 = p1.Add(offs[0]), p2.Add(offs[1])
		frame, twist = vecmath.CalcIJK(p1, p2, geo.P3, e.def.Rot)
	}
	geo.P1, geo.P2, geo.Frame, geo.Twist = p1, p2, frame, twist

	geo.Length = p2.Sub(p1).Length()
	geo.Centroid = p1.Add(p2).MulScalar(0.5)
	if e.def.Type.IsBend() {
		if bend, ok := e.bend(p1, p2, geo.P3, &diags); ok {
			geo.Bend = &bend
			geo.Length = bend.ArcLength
			geo.Centroid = bend.Centroid
		}
	}
	geo.Diagnostics = diags.list
	return geo, nil
}

// nodePosition returns the global position of node id; ok is false when the
// node does not exist.
func (e *Element) nodePosition(id NodeID) (vecmath.Vec, bool, error) {
	n, ok := e.m.nodes.Get(id)
	if !ok {
		return vecmath.Vec{}, false, nil
	}
	p, err := n.Global()
	if err != nil {
		return vecmath.Vec{}, false, fmt.Errorf("model: element %d: %w", e.def.ID, err)
	}
	return p, true, nil
}

// resolveOffset turns one end's offset into a global vector. own is the
// element's frame before offsets are applied.
func (e *Element) resolveOffset(ref ElementID, v vecmath.Vec, own vecmath.Frame, diags *diagnostics) (vecmath.Vec, error) {
	switch {
	case ref == 0:
		return v, nil
	case ref == e.def.ID:
		return own.Apply(v), nil
	}
	other, ok := e.m.elements.Get(ref)
	if !ok {
		diags.add(DiagMissingReference, "undefined offset reference element %d, offset taken as global", ref)
		return v, nil
	}
	f, err := other.LocalFrame()
	if err != nil {
		return vecmath.Vec{}, fmt.Errorf("model: element %d: offset reference %d: %w", e.def.ID, ref, err)
	}
	return f.Apply(v), nil
}
