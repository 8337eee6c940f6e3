package model

import "fmt"

// Snapshot is the complete definition of a model: every user entity's
// fields, sorted by id. Built-in coordinate systems are implied.
type Snapshot struct {
	CSys        []CSysDef       `yaml:"csys,omitempty"`
	Geoms       []GeomDef       `yaml:"geoms,omitempty"`
	Materials   []MaterialDef   `yaml:"materials,omitempty"`
	CoupleTypes []CoupleTypeDef `yaml:"couple_types,omitempty"`
	Nodes       []NodeDef       `yaml:"nodes,omitempty"`
	Elements    []ElementDef    `yaml:"elements,omitempty"`
	Offsets     []ElemOffsetDef `yaml:"offsets,omitempty"`
	Couples     []CoupleDef     `yaml:"couples,omitempty"`
}

// Snapshot returns the current definitions of all user entities.
func (m *Model) Snapshot() Snapshot {
	var s Snapshot
	for id, c := range m.csys.All() {
		if id >= MinUserCSys {
			s.CSys = append(s.CSys, c.Def())
		}
	}
	for _, g := range m.geoms.All() {
		s.Geoms = append(s.Geoms, g.Def())
	}
	for _, mt := range m.materials.All() {
		s.Materials = append(s.Materials, mt.Def())
	}
	for _, ct := range m.coupleTypes.All() {
		s.CoupleTypes = append(s.CoupleTypes, ct.Def())
	}
	for _, n := range m.nodes.All() {
		s.Nodes = append(s.Nodes, n.Def())
	}
	for _, e := range m.elements.All() {
		s.Elements = append(s.Elements, e.Def())
	}
	for _, o := range m.offsets.All() {
		s.Offsets = append(s.Offsets, o.Def())
	}
	for _, c := range m.couples.All() {
		s.Couples = append(s.Couples, c.Def())
	}
	return s
}

// FromSnapshot builds a model from a snapshot. Coordinate systems are added
// first so that nodes can refer to them, then the property tables.
func FromSnapshot(s Snapshot, opts ...Option) (*Model, error) {
	m := New(opts...)
	for _, d := range s.CSys {
		if _, err := m.AddCSys(d); err != nil {
			return nil, fmt.Errorf("model: snapshot: %w", err)
		}
	}
	for _, d := range s.Geoms {
		if _, err := m.AddGeomTable(d); err != nil {
			return nil, fmt.Errorf("model: snapshot: %w", err)
		}
	}
	for _, d := range s.Materials {
		if _, err := m.AddMaterial(d); err != nil {
			return nil, fmt.Errorf("model: snapshot: %w", err)
		}
	}
	for _, d := range s.CoupleTypes {
		if _, err := m.AddCoupleType(d); err != nil {
			return nil, fmt.Errorf("model: snapshot: %w", err)
		}
	}
	for _, d := range s.Nodes {
		if _, err := m.AddNode(d); err != nil {
			return nil, fmt.Errorf("model: snapshot: %w", err)
		}
	}
	for _, d := range s.Elements {
		if _, err := m.AddElement(d); err != nil {
			return nil, fmt.Errorf("model: snapshot: %w", err)
		}
	}
	for _, d := range s.Offsets {
		if _, err := m.AddElemOffset(d); err != nil {
			return nil, fmt.Errorf("model: snapshot: %w", err)
		}
	}
	for _, d := range s.Couples {
		if _, err := m.AddCouple(d); err != nil {
			return nil, fmt.Errorf("model: snapshot: %w", err)
		}
	}
	return m, nil
}
