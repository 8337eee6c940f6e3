package model

import (
	"fmt"
	"math"
	"slices"

	"github.com/chazu/fsmodel/pkg/vecmath"
)

// ---------------------------------------------------------------------------
// Geometry tables (GTAB)
// ---------------------------------------------------------------------------

// SectionType is the TYPE code of a geometry table.
type SectionType int

const (
	SectionBeam            SectionType = 0
	SectionPipe            SectionType = 3
	SectionCompressionOnly SectionType = 10
	SectionTensionOnly     SectionType = 11
)

// MaxSectionConstants is the number of section constants C1..C20.
const MaxSectionConstants = 20

// GeomDef is the definition of a cross-section property code. C holds the
// section constants C1..C20 in order; missing trailing constants are zero.
// For pipes only C1 (outside diameter) and C2 (wall thickness) are read and
// the rest is derived.
type GeomDef struct {
	Code        int         `yaml:"code"`
	Type        SectionType `yaml:"type"`
	Name        string      `yaml:"name,omitempty"`
	Designation string      `yaml:"designation,omitempty"`
	C           []float64   `yaml:"c,flow,omitempty"`
}

// PipeGeomDef returns the definition of a pipe section.
func PipeGeomDef(code int, od, wall float64) GeomDef {
	return GeomDef{Code: code, Type: SectionPipe, Name: "PIP", C: []float64{od, wall}}
}

func (d GeomDef) validate() error {
	if len(d.C) > MaxSectionConstants {
		return fmt.Errorf("%d section constants, at most %d: %w", len(d.C), MaxSectionConstants, ErrInvalidParameter)
	}
	return nil
}

// constant returns Cn (1-based), zero when not given.
func (d GeomDef) constant(n int) float64 {
	if n < 1 || n > len(d.C) {
		return 0
	}
	return d.C[n-1]
}

// Section holds the properties of a cross section.
type Section struct {
	Area           float64 // C3
	Iz, Iy, J      float64 // C4..C6
	ShearAreaY     float64 // C7
	ShearAreaZ     float64 // C8
	PlasticZ       float64 // C9
	PlasticY       float64 // C10
	PlasticTorsion float64 // C11
	// StressPoints are the (y, z) coordinates of the four stress
	// recovery points, C12..C19.
	StressPoints   [4][2]float64
	ElasticTorsion float64 // C20
}

// GeomTable is a cross-section property code referenced by elements'
// GEOM field.
type GeomTable struct {
	m *Model
	cache
	def GeomDef

	section Section
	diags   []Diagnostic
}

func newGeomTable(m *Model, def GeomDef) *GeomTable {
	g := &GeomTable{m: m, def: def}
	g.invalidate()
	return g
}

func (g *GeomTable) Code() int { return g.def.Code }

// Def returns a copy of the definition.
func (g *GeomTable) Def() GeomDef {
	d := g.def
	d.C = slices.Clone(d.C)
	return d
}

// SetPipe turns the code into a pipe section of the given outside diameter
// and wall thickness. A zero wall means a solid bar.
func (g *GeomTable) SetPipe(od, wall float64) {
	g.def.Type = SectionPipe
	g.def.Name = "PIP"
	g.def.C = []float64{od, wall}
	g.changed()
}

// SetConstants replaces the section constants.
func (g *GeomTable) SetConstants(typ SectionType, c []float64) error {
	d := g.def
	d.Type = typ
	d.C = slices.Clone(c)
	if err := d.validate(); err != nil {
		return fmt.Errorf("model: %s: %w", geomRef(g.def.Code), err)
	}
	g.def = d
	g.changed()
	return nil
}

func (g *GeomTable) changed() {
	g.invalidate()
	g.m.touch()
}

// Section returns the section properties, derived for pipes.
func (g *GeomTable) Section() Section {
	g.calculate()
	return g.section
}

// Diagnostics returns the findings of the last computation.
func (g *GeomTable) Diagnostics() []Diagnostic {
	g.calculate()
	return slices.Clone(g.diags)
}

func (g *GeomTable) calculate() {
	if g.fresh(g.m) {
		return
	}
	diags := &diagnostics{entity: geomRef(g.def.Code)}
	var s Section
	if g.def.Type == SectionPipe {
		s = pipeSection(g.def.constant(1), g.def.constant(2), diags)
	} else {
		s = beamSection(g.def)
	}
	g.section, g.diags = s, diags.list
	g.stamp(g.m)
	g.m.report(g.diags)
}

// pipeSection derives the properties of a circular hollow section.
func pipeSection(od, wall float64, diags *diagnostics) Section {
	if od <= 0 {
		diags.add(DiagInvalidSection, "pipe outside diameter %g is not positive", od)
		return Section{}
	}
	if wall == 0 {
		wall = od / 2
	}
	if wall < 0 || wall > od/2 {
		diags.add(DiagInvalidSection, "pipe wall %g outside (0, %g]", wall, od/2)
		return Section{}
	}
	id := od - 2*wall
	od2, id2 := od*od, id*id
	area := math.Pi * (od2 - id2) / 4
	inertia := math.Pi * (od2*od2 - id2*id2) / 64
	plastic := (od*od2 - id*id2) / 6
	return Section{
		Area:           area,
		Iz:             inertia,
		Iy:             inertia,
		J:              2 * inertia,
		ShearAreaY:     area / 2,
		ShearAreaZ:     area / 2,
		PlasticZ:       plastic,
		PlasticY:       plastic,
		PlasticTorsion: 4 * plastic,
		StressPoints:   [4][2]float64{{od / 2, 0}, {0, od / 2}},
		ElasticTorsion: math.Pi * (od2*od2 - id2*id2) / (16 * od),
	}
}

func beamSection(d GeomDef) Section {
	s := Section{
		Area:           d.constant(3),
		Iz:             d.constant(4),
		Iy:             d.constant(5),
		J:              d.constant(6),
		ShearAreaY:     d.constant(7),
		ShearAreaZ:     d.constant(8),
		PlasticZ:       d.constant(9),
		PlasticY:       d.constant(10),
		PlasticTorsion: d.constant(11),
		ElasticTorsion: d.constant(20),
	}
	for i := range s.StressPoints {
		s.StressPoints[i] = [2]float64{d.constant(12 + 2*i), d.constant(13 + 2*i)}
	}
	return s
}

// ---------------------------------------------------------------------------
// Material tables (MTAB)
// ---------------------------------------------------------------------------

// MaterialDef is the definition of a material property code.
type MaterialDef struct {
	Code    int     `yaml:"code"`
	Name    string  `yaml:"name,omitempty"`
	E       float64 `yaml:"e"`
	G       float64 `yaml:"g"`
	Poisson float64 `yaml:"pois"`
	Density float64 `yaml:"dens"`
	Alpha   float64 `yaml:"alpha"`
	Yield   float64 `yaml:"yield"`
	Ult     float64 `yaml:"ult"`
}

// Elastic holds a material's completed elastic constants.
type Elastic struct {
	E, G, Poisson float64
}

// Material is a material property code referenced by elements' MAT field.
type Material struct {
	m *Model
	cache
	def MaterialDef

	elastic Elastic
}

func newMaterial(m *Model, def MaterialDef) *Material {
	mt := &Material{m: m, def: def}
	mt.invalidate()
	return mt
}

func (mt *Material) Code() int        { return mt.def.Code }
func (mt *Material) Def() MaterialDef { return mt.def }

// SetElastic sets E, G and Poisson's ratio; zeros are derived from the
// other two.
func (mt *Material) SetElastic(e, g, poisson float64) {
	mt.def.E, mt.def.G, mt.def.Poisson = e, g, poisson
	mt.invalidate()
	mt.m.touch()
}

// Elastic returns E, G and Poisson's ratio, filling in whichever one is
// zero from the other two through G = E / 2(1+v).
func (mt *Material) Elastic() Elastic {
	if mt.fresh(mt.m) {
		return mt.elastic
	}
	el := Elastic{E: mt.def.E, G: mt.def.G, Poisson: mt.def.Poisson}
	zero := func(v float64) bool { return vecmath.IsClose(v, 0) }
	switch {
	case zero(el.G) && !zero(el.E) && !zero(el.Poisson):
		el.G = el.E / (2 * (1 + el.Poisson))
	case !zero(el.G) && !zero(el.E) && zero(el.Poisson):
		el.Poisson = el.E/(2*el.G) - 1
	case !zero(el.G) && zero(el.E) && !zero(el.Poisson):
		el.E = 2 * el.G * (1 + el.Poisson)
	}
	mt.elastic = el
	mt.stamp(mt.m)
	return el
}

// ---------------------------------------------------------------------------
// Couple types (STAB)
// ---------------------------------------------------------------------------

var validCoupleTypes = []int{0, 1, 3, 4, 5, 6, 7, 8, 10, 11, 12, 14, 15, 16, 20}

// CoupleTypeDef is a spring/couple stiffness code referenced by couples'
// SPCONST field. K holds the six stiffness constants.
type CoupleTypeDef struct {
	Code int        `yaml:"code"`
	K    [6]float64 `yaml:"k,flow"`
	Type int        `yaml:"type"`
	CO   int        `yaml:"co"`
}

func (d CoupleTypeDef) validate() error {
	if !slices.Contains(validCoupleTypes, d.Type) {
		return fmt.Errorf("couple type %d: %w", d.Type, ErrInvalidParameter)
	}
	return nil
}

// CoupleType is a stiffness code. It has no derived state.
type CoupleType struct {
	def CoupleTypeDef
}

func (c *CoupleType) Code() int             { return c.def.Code }
func (c *CoupleType) Def() CoupleTypeDef    { return c.def }
func (c *CoupleType) Stiffness() [6]float64 { return c.def.K }
