package engine

import "github.com/chazu/fsmodel/pkg/model"

// Drafting holds the active defaults applied to entities created by a
// script. It belongs to one evaluation; entities never read it.
type Drafting struct {
	CSys model.CSysID
	// N1 is the default first node of the next element or couple: the N2
	// of the last one created, or the last node defined.
	N1      model.NodeID
	N3      model.NodeID
	Rot     float64
	Geom    int
	Mat     int
	RelZ    int
	RelY    int
	Type    model.ElementType
	CO      int
	SpConst int
}

// DefaultDrafting returns the defaults in effect at the start of a script.
func DefaultDrafting() Drafting {
	return Drafting{CSys: model.GlobalCartesian, Geom: 1, Mat: 1}
}

// nodeDef returns the definition of node id with the active system.
func (d *Drafting) nodeDef(id model.NodeID) model.NodeDef {
	def := model.DefaultNodeDef(id)
	def.CSys = d.CSys
	return def
}

// elementDef returns the definition of element id filled with the active
// defaults. N2 defaults to the node after N1.
func (d *Drafting) elementDef(id model.ElementID) model.ElementDef {
	def := model.DefaultElementDef(id)
	def.N1 = d.N1
	def.N2 = d.N1 + 1
	def.N3 = d.N3
	def.Rot = d.Rot
	def.Geom, def.Mat = d.Geom, d.Mat
	def.RelZ, def.RelY = d.RelZ, d.RelY
	def.Type = d.Type
	def.CO = d.CO
	return def
}

func (d *Drafting) coupleDef(id model.CoupleID) model.CoupleDef {
	def := model.DefaultCoupleDef(id)
	def.N1 = d.N1
	def.N2 = d.N1 + 1
	def.Rot = d.Rot
	def.SpConst = d.SpConst
	return def
}

// The commit methods make the fields of the entity just created the active
// defaults for the next one.

func (d *Drafting) commitNode(def model.NodeDef) {
	d.N1 = def.ID
	d.CSys = def.CSys
}

func (d *Drafting) commitElement(def model.ElementDef) {
	d.N1 = def.N2
	d.N3 = def.N3
	d.Rot = def.Rot
	d.Geom, d.Mat = def.Geom, def.Mat
	d.RelZ, d.RelY = def.RelZ, def.RelY
	d.Type = def.Type
	d.CO = def.CO
}

func (d *Drafting) commitCouple(def model.CoupleDef) {
	d.N1 = def.N2
	d.Rot = def.Rot
	d.SpConst = def.SpConst
}

// A new property table becomes the active code of its kind.
func (d *Drafting) commitGeom(code int)       { d.Geom = code }
func (d *Drafting) commitMaterial(code int)   { d.Mat = code }
func (d *Drafting) commitCoupleType(code int) { d.SpConst = code }
