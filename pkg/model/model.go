// Package model holds the in-memory structural model: coordinate systems,
// nodes, beam/pipe elements, element offsets, spring/couple elements and the
// property tables they reference, together with their lazily derived
// geometry.
//
// Every mutation bumps a model-wide generation counter and marks the written
// entity dirty. Derived geometry is recomputed on the first read after any
// mutation, so dependants (an element whose node moved, an element offset
// from another element's frame) never return stale values.
package model

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Tolerances controls the soft geometric checks.
type Tolerances struct {
	// BendRadius is the absolute tolerance used when comparing bend
	// endpoint distances with each other and with the declared radius.
	BendRadius float64
	// MaxBendAngle is the largest bend angle in degrees accepted without a
	// diagnostic.
	MaxBendAngle float64
}

// DefaultTolerances returns the tolerances of the legacy format.
func DefaultTolerances() Tolerances {
	return Tolerances{BendRadius: 1e-4, MaxBendAngle: 90}
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger that receives geometry diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l
		}
	}
}

// WithTolerances overrides the default tolerances.
func WithTolerances(t Tolerances) Option {
	return func(m *Model) { m.tol = t }
}

// Model is the container for all entities. It is not safe for concurrent use.
type Model struct {
	log *zap.Logger
	tol Tolerances

	gen       uint64
	resolving map[EntityRef]struct{}

	csys     *Store[CSysID, *CSys]
	nodes    *Store[NodeID, *Node]
	elements *Store[ElementID, *Element]
	offsets  *Store[ElementID, *ElemOffset]
	couples  *Store[CoupleID, *Couple]

	geoms       *Store[int, *GeomTable]
	materials   *Store[int, *Material]
	coupleTypes *Store[int, *CoupleType]
}

// New creates an empty model holding the three built-in coordinate systems.
func New(opts ...Option) *Model {
	m := &Model{
		log:       zap.NewNop(),
		tol:       DefaultTolerances(),
		resolving: make(map[EntityRef]struct{}),
		csys:      newStore[CSysID, *CSys](),
		nodes:     newStore[NodeID, *Node](),
		elements:  newStore[ElementID, *Element](),
		offsets:   newStore[ElementID, *ElemOffset](),
		couples:   newStore[CoupleID, *Couple](),

		geoms:       newStore[int, *GeomTable](),
		materials:   newStore[int, *Material](),
		coupleTypes: newStore[int, *CoupleType](),
	}
	for _, o := range opts {
		o(m)
	}
	for id, typ := range []CSysType{Cartesian, Cylindrical, Spherical} {
		def := DefaultCSysDef(CSysID(id))
		def.Type = typ
		m.csys.put(def.ID, newCSys(m, def))
	}
	return m
}

// Tolerances returns the tolerances in effect.
func (m *Model) Tolerances() Tolerances { return m.tol }

func (m *Model) CSystems() *Store[CSysID, *CSys]         { return m.csys }
func (m *Model) Nodes() *Store[NodeID, *Node]            { return m.nodes }
func (m *Model) Elements() *Store[ElementID, *Element]   { return m.elements }
func (m *Model) Offsets() *Store[ElementID, *ElemOffset] { return m.offsets }
func (m *Model) Couples() *Store[CoupleID, *Couple]      { return m.couples }

func (m *Model) GeomTables() *Store[int, *GeomTable]   { return m.geoms }
func (m *Model) Materials() *Store[int, *Material]     { return m.materials }
func (m *Model) CoupleTypes() *Store[int, *CoupleType] { return m.coupleTypes }

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// AddCSys adds a user coordinate system, replacing any with the same id.
func (m *Model) AddCSys(def CSysDef) (*CSys, error) {
	if def.ID < MinUserCSys || def.ID > MaxUserCSys {
		return nil, fmt.Errorf("model: csys %d: must be in [%d, %d]: %w",
			def.ID, MinUserCSys, MaxUserCSys, ErrIDOutOfBounds)
	}
	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("model: csys %d: %w", def.ID, err)
	}
	c := newCSys(m, def)
	m.csys.put(def.ID, c)
	m.touch()
	return c, nil
}

// AddNode adds a node, replacing any with the same id.
func (m *Model) AddNode(def NodeDef) (*Node, error) {
	if def.ID < 1 {
		return nil, fmt.Errorf("model: node %d: %w", def.ID, ErrIDOutOfBounds)
	}
	if !m.csys.Has(def.CSys) {
		return nil, fmt.Errorf("model: node %d: csys %d: %w", def.ID, def.CSys, ErrNotFound)
	}
	n := newNode(m, def)
	m.nodes.put(def.ID, n)
	m.touch()
	return n, nil
}

// AddElement adds an element, replacing any with the same id. Node
// references are not required to exist.
func (m *Model) AddElement(def ElementDef) (*Element, error) {
	if def.ID < 1 {
		return nil, fmt.Errorf("model: element %d: %w", def.ID, ErrIDOutOfBounds)
	}
	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("model: element %d: %w", def.ID, err)
	}
	e := newElement(m, def)
	m.elements.put(def.ID, e)
	m.touch()
	return e, nil
}

// AddElemOffset adds the offset definition of an element, replacing any
// previous one for that element.
func (m *Model) AddElemOffset(def ElemOffsetDef) (*ElemOffset, error) {
	if def.Elem < 1 {
		return nil, fmt.Errorf("model: elemoffset %d: %w", def.Elem, ErrIDOutOfBounds)
	}
	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("model: elemoffset %d: %w", def.Elem, err)
	}
	o := newElemOffset(m, def)
	m.offsets.put(def.Elem, o)
	m.invalidateElement(def.Elem)
	m.touch()
	return o, nil
}

// RemoveElemOffset deletes the offset definition of element elem. It
// reports whether one existed.
func (m *Model) RemoveElemOffset(elem ElementID) bool {
	if !m.offsets.remove(elem) {
		return false
	}
	m.invalidateElement(elem)
	m.touch()
	return true
}

// AddCouple adds a spring/couple element, replacing any with the same id.
func (m *Model) AddCouple(def CoupleDef) (*Couple, error) {
	if def.ID < 1 {
		return nil, fmt.Errorf("model: couple %d: %w", def.ID, ErrIDOutOfBounds)
	}
	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("model: couple %d: %w", def.ID, err)
	}
	c := newCouple(m, def)
	m.couples.put(def.ID, c)
	m.touch()
	return c, nil
}

// AddGeomTable adds a geometry property code, replacing any with the same
// code.
func (m *Model) AddGeomTable(def GeomDef) (*GeomTable, error) {
	if def.Code < 1 {
		return nil, fmt.Errorf("model: %s: %w", geomRef(def.Code), ErrIDOutOfBounds)
	}
	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("model: %s: %w", geomRef(def.Code), err)
	}
	def.C = slices.Clone(def.C)
	g := newGeomTable(m, def)
	m.geoms.put(def.Code, g)
	m.touch()
	return g, nil
}

// AddMaterial adds a material property code, replacing any with the same
// code.
func (m *Model) AddMaterial(def MaterialDef) (*Material, error) {
	if def.Code < 1 {
		return nil, fmt.Errorf("model: %s: %w", materialRef(def.Code), ErrIDOutOfBounds)
	}
	mt := newMaterial(m, def)
	m.materials.put(def.Code, mt)
	m.touch()
	return mt, nil
}

// AddCoupleType adds a couple stiffness code, replacing any with the same
// code.
func (m *Model) AddCoupleType(def CoupleTypeDef) (*CoupleType, error) {
	if def.Code < 1 {
		return nil, fmt.Errorf("model: %s: %w", coupleTypeRef(def.Code), ErrIDOutOfBounds)
	}
	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("model: %s: %w", coupleTypeRef(def.Code), err)
	}
	c := &CoupleType{def: def}
	m.coupleTypes.put(def.Code, c)
	m.touch()
	return c, nil
}

// ---------------------------------------------------------------------------
// Lazy recomputation bookkeeping
// ---------------------------------------------------------------------------

// cache is embedded by every entity with derived state.
type cache struct {
	dirty bool
	gen   uint64
}

// fresh reports whether derived state computed at the recorded generation is
// still valid.
func (c *cache) fresh(m *Model) bool {
	return !c.dirty && c.gen == m.gen
}

func (c *cache) invalidate() { c.dirty = true }

func (c *cache) stamp(m *Model) {
	c.gen = m.gen
	c.dirty = false
}

// touch records a mutation. Any cached geometry computed before it is stale.
func (m *Model) touch() { m.gen++ }

func (m *Model) invalidateElement(id ElementID) {
	if e, ok := m.elements.Get(id); ok {
		e.invalidate()
	}
}

// enter marks ref as being resolved. It fails if ref is already on the
// resolution path.
func (m *Model) enter(ref EntityRef) error {
	if _, busy := m.resolving[ref]; busy {
		return fmt.Errorf("model: %s: %w", ref, ErrCircularReference)
	}
	m.resolving[ref] = struct{}{}
	return nil
}

func (m *Model) leave(ref EntityRef) {
	delete(m.resolving, ref)
}

// report logs the diagnostics produced by one recomputation.
func (m *Model) report(list []Diagnostic) {
	for _, d := range list {
		m.log.Warn(d.Message,
			zap.Stringer("entity", d.Entity),
			zap.String("code", string(d.Code)),
		)
	}
}
