package model

import (
	"fmt"

	"github.com/chazu/fsmodel/pkg/vecmath"
)

// NodeDef is the field-by-field definition of a node. X, Y and Z are in the
// native coordinates of CSys.
type NodeDef struct {
	ID   NodeID  `yaml:"id"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Z    float64 `yaml:"z"`
	CSys CSysID  `yaml:"csys"`
}

// DefaultNodeDef returns a node at the global origin.
func DefaultNodeDef(id NodeID) NodeDef {
	return NodeDef{ID: id, CSys: GlobalCartesian}
}

// Node is a point stored in the local coordinates of its owning system.
// The local triple is authoritative; the global position is derived.
type Node struct {
	m *Model
	cache
	id    NodeID
	local vecmath.Vec
	csys  CSysID

	global vecmath.Vec
}

func newNode(m *Model, def NodeDef) *Node {
	n := &Node{
		m:     m,
		id:    def.ID,
		local: vecmath.Vec{X: def.X, Y: def.Y, Z: def.Z},
		csys:  def.CSys,
	}
	n.invalidate()
	return n
}

func (n *Node) ID() NodeID         { return n.id }
func (n *Node) CSys() CSysID       { return n.csys }
func (n *Node) Local() vecmath.Vec { return n.local }

// Def returns the node's current definition.
func (n *Node) Def() NodeDef {
	return NodeDef{ID: n.id, X: n.local.X, Y: n.local.Y, Z: n.local.Z, CSys: n.csys}
}

// SetLocal replaces the local triple.
func (n *Node) SetLocal(v vecmath.Vec) {
	n.local = v
	n.invalidate()
	n.m.touch()
}

// SetX sets the first local coordinate.
func (n *Node) SetX(x float64) {
	l := n.local
	l.X = x
	n.SetLocal(l)
}

// SetY sets the second local coordinate.
func (n *Node) SetY(y float64) {
	l := n.local
	l.Y = y
	n.SetLocal(l)
}

// SetZ sets the third local coordinate.
func (n *Node) SetZ(z float64) {
	l := n.local
	l.Z = z
	n.SetLocal(l)
}

// Global returns the node's position in global cartesian coordinates.
func (n *Node) Global() (vecmath.Vec, error) {
	if n.fresh(n.m) {
		return n.global, nil
	}
	ref := nodeRef(n.id)
	if err := n.m.enter(ref); err != nil {
		return vecmath.Vec{}, err
	}
	defer n.m.leave(ref)

	cs, err := n.owner()
	if err != nil {
		return vecmath.Vec{}, err
	}
	g, err := cs.LocalToGlobal(n.local)
	if err != nil {
		return vecmath.Vec{}, fmt.Errorf("model: node %d: %w", n.id, err)
	}
	n.global = g
	n.stamp(n.m)
	return g, nil
}

// SetGlobal moves the node to global position g. The local triple is
// re-derived immediately through the owning system.
func (n *Node) SetGlobal(g vecmath.Vec) error {
	cs, err := n.owner()
	if err != nil {
		return err
	}
	l, err := cs.GlobalToLocal(g)
	if err != nil {
		return fmt.Errorf("model: node %d: %w", n.id, err)
	}
	n.SetLocal(l)
	return nil
}

// SetXG sets the global X coordinate, keeping global Y and Z.
func (n *Node) SetXG(x float64) error {
	return n.updateGlobal(func(g *vecmath.Vec) { g.X = x })
}

// SetYG sets the global Y coordinate, keeping global X and Z.
func (n *Node) SetYG(y float64) error {
	return n.updateGlobal(func(g *vecmath.Vec) { g.Y = y })
}

// SetZG sets the global Z coordinate, keeping global X and Y.
func (n *Node) SetZG(z float64) error {
	return n.updateGlobal(func(g *vecmath.Vec) { g.Z = z })
}

func (n *Node) updateGlobal(f func(*vecmath.Vec)) error {
	g, err := n.Global()
	if err != nil {
		return err
	}
	f(&g)
	return n.SetGlobal(g)
}

// ConvertToCSys re-expresses the node in coordinate system id, keeping its
// global position.
func (n *Node) ConvertToCSys(id CSysID) error {
	target, ok := n.m.csys.Get(id)
	if !ok {
		return fmt.Errorf("model: node %d: csys %d: %w", n.id, id, ErrNotFound)
	}
	g, err := n.Global()
	if err != nil {
		return err
	}
	l, err := target.GlobalToLocal(g)
	if err != nil {
		return fmt.Errorf("model: node %d: convert to csys %d: %w", n.id, id, err)
	}
	n.csys = id
	n.SetLocal(l)
	return nil
}

// DistanceTo returns the global distance between n and o.
func (n *Node) DistanceTo(o *Node) (float64, error) {
	a, err := n.Global()
	if err != nil {
		return 0, err
	}
	b, err := o.Global()
	if err != nil {
		return 0, err
	}
	return b.Sub(a).Length(), nil
}

func (n *Node) owner() (*CSys, error) {
	cs, ok := n.m.csys.Get(n.csys)
	if !ok {
		return nil, fmt.Errorf("model: node %d: csys %d: %w", n.id, n.csys, ErrNotFound)
	}
	return cs, nil
}
