package model

import (
	"fmt"

	"github.com/chazu/fsmodel/pkg/vecmath"
)

// CoupleDef is the field-by-field definition of a spring/couple element.
type CoupleDef struct {
	ID      CoupleID  `yaml:"id"`
	N1      NodeID    `yaml:"n1"`
	N2      NodeID    `yaml:"n2"`
	Rot     float64   `yaml:"rot"`
	RefElem ElementID `yaml:"refelem,omitempty"`
	SpConst int       `yaml:"spconst"`
	SCCSys  CSysID    `yaml:"sccsys,omitempty"`
}

// DefaultCoupleDef returns a couple with no orientation overrides.
func DefaultCoupleDef(id CoupleID) CoupleDef {
	return CoupleDef{ID: id}
}

func (d CoupleDef) validate() error {
	if d.N1 < 0 || d.N2 < 0 {
		return fmt.Errorf("negative node id: %w", ErrInvalidParameter)
	}
	if d.RefElem < 0 || d.SCCSys < 0 {
		return fmt.Errorf("negative reference: %w", ErrInvalidParameter)
	}
	return nil
}

// CoupleGeometry is the derived state of a spring/couple element.
type CoupleGeometry struct {
	P1, P2      vecmath.Vec
	Frame       vecmath.Frame
	Diagnostics []Diagnostic
}

// Couple is a spring/couple element between two nodes. Its local frame is,
// in order of priority: the basis of SCCSys, the frame of RefElem, or the
// frame a line member between its nodes would have.
type Couple struct {
	m *Model
	cache
	def CoupleDef

	geo CoupleGeometry
}

func newCouple(m *Model, def CoupleDef) *Couple {
	c := &Couple{m: m, def: def}
	c.invalidate()
	return c
}

func (c *Couple) ID() CoupleID   { return c.def.ID }
func (c *Couple) Def() CoupleDef { return c.def }

// SetNodes sets the end nodes.
func (c *Couple) SetNodes(n1, n2 NodeID) error {
	if n1 < 0 || n2 < 0 {
		return fmt.Errorf("model: couple %d: negative node id: %w", c.def.ID, ErrInvalidParameter)
	}
	c.def.N1, c.def.N2 = n1, n2
	c.changed()
	return nil
}

// SetRot sets the twist angle used when the frame comes from the nodes.
func (c *Couple) SetRot(deg float64) {
	c.def.Rot = deg
	c.changed()
}

// SetReference sets the reference element and coordinate system overrides;
// zero clears either.
func (c *Couple) SetReference(elem ElementID, cs CSysID) error {
	if elem < 0 || cs < 0 {
		return fmt.Errorf("model: couple %d: negative reference: %w", c.def.ID, ErrInvalidParameter)
	}
	c.def.RefElem, c.def.SCCSys = elem, cs
	c.changed()
	return nil
}

// SetSpConst sets the stiffness table code.
func (c *Couple) SetSpConst(code int) {
	c.def.SpConst = code
	c.changed()
}

func (c *Couple) changed() {
	c.invalidate()
	c.m.touch()
}

// Geometry returns the couple's derived geometry.
func (c *Couple) Geometry() (CoupleGeometry, error) {
	if c.fresh(c.m) {
		return c.geo, nil
	}
	ref := coupleRef(c.def.ID)
	if err := c.m.enter(ref); err != nil {
		return CoupleGeometry{}, err
	}
	defer c.m.leave(ref)

	geo, err := c.compute()
	if err != nil {
		return CoupleGeometry{}, err
	}
	c.geo = geo
	c.stamp(c.m)
	c.m.report(geo.Diagnostics)
	return geo, nil
}

// LocalFrame returns the couple's local axes.
func (c *Couple) LocalFrame() (vecmath.Frame, error) {
	g, err := c.Geometry()
	return g.Frame, err
}

// Diagnostics returns the findings of the last computation.
func (c *Couple) Diagnostics() ([]Diagnostic, error) {
	g, err := c.Geometry()
	return g.Diagnostics, err
}

func (c *Couple) compute() (CoupleGeometry, error) {
	diags := diagnostics{entity: coupleRef(c.def.ID)}
	geo := CoupleGeometry{Frame: vecmath.GlobalFrame()}

	n1, ok1 := c.m.nodes.Get(c.def.N1)
	n2, ok2 := c.m.nodes.Get(c.def.N2)
	var err error
	if ok1 {
		if geo.P1, err = n1.Global(); err != nil {
			return geo, fmt.Errorf("model: couple %d: %w", c.def.ID, err)
		}
	}
	if ok2 {
		if geo.P2, err = n2.Global(); err != nil {
			return geo, fmt.Errorf("model: couple %d: %w", c.def.ID, err)
		}
	}

	frame, found, err := c.overrideFrame(&diags)
	if err != nil {
		return geo, err
	}
	switch {
	case found:
		geo.Frame = frame
	case !ok1 || !ok2:
		diags.add(DiagMissingNode, "undefined node in couple (%d, %d), using global frame", c.def.N1, c.def.N2)
	case vecmath.IsZero(geo.P2.Sub(geo.P1)):
		// Coincident nodes: the global frame is the defined orientation.
	default:
		geo.Frame, _ = vecmath.CalcIJK(geo.P1, geo.P2, nil, c.def.Rot)
	}
	geo.Diagnostics = diags.list
	return geo, nil
}

// overrideFrame resolves the SCCSys or RefElem frame, if either is set and
// exists.
func (c *Couple) overrideFrame(diags *diagnostics) (vecmath.Frame, bool, error) {
	if c.def.SCCSys > 0 {
		cs, ok := c.m.csys.Get(c.def.SCCSys)
		if ok {
			f, err := cs.Basis()
			if err != nil {
				return f, false, fmt.Errorf("model: couple %d: csys %d: %w", c.def.ID, c.def.SCCSys, err)
			}
			return f, true, nil
		}
		diags.add(DiagMissingReference, "undefined coordinate system %d", c.def.SCCSys)
	}
	if c.def.RefElem > 0 {
		e, ok := c.m.elements.Get(c.def.RefElem)
		if ok {
			f, err := e.LocalFrame()
			if err != nil {
				return f, false, fmt.Errorf("model: couple %d: element %d: %w", c.def.ID, c.def.RefElem, err)
			}
			return f, true, nil
		}
		diags.add(DiagMissingReference, "undefined reference element %d", c.def.RefElem)
	}
	return vecmath.Frame{}, false, nil
}
