package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chazu/fsmodel/pkg/vecmath"
)

func TestElementStraightGeometry(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(0, 0, 0))
	addNode(t, m, 2, vec(3, 4, 0))
	e := addElement(t, m, straight(1, 1, 2))

	g := mustGeometry(t, e)
	assert.Empty(t, g.Diagnostics)
	assert.InDelta(t, 5.0, g.Length, tol)
	assertVecInDelta(t, vec(1.5, 2, 0), g.Centroid, tol)
	assertVecInDelta(t, vec(0.6, 0.8, 0), g.Frame.I, tol)
	assert.True(t, g.Frame.Orthonormal(1e-9))
	assert.Nil(t, g.Bend)

	angle, err := e.BendAngle()
	require.NoError(t, err)
	assert.Zero(t, angle)
	_, ok, err := e.BendCentre()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddElementValidation(t *testing.T) {
	m := New()
	tests := []struct {
		name string
		def  ElementDef
		err  error
	}{
		{"zero id", ElementDef{ID: 0}, ErrIDOutOfBounds},
		{"unknown type", ElementDef{ID: 1, Type: 5}, ErrInvalidParameter},
		{"relz too large", ElementDef{ID: 1, RelZ: 4}, ErrInvalidParameter},
		{"negative rely", ElementDef{ID: 1, RelY: -1}, ErrInvalidParameter},
		{"negative node", ElementDef{ID: 1, N2: -3}, ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.AddElement(tt.def)
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.Zero(t, m.Elements().Len())
}

func TestElementSetterValidation(t *testing.T) {
	m := New()
	e := addElement(t, m, straight(1, 1, 2))

	assert.ErrorIs(t, e.SetType(1), ErrInvalidParameter)
	assert.ErrorIs(t, e.SetHinges(0, 7), ErrInvalidParameter)
	assert.ErrorIs(t, e.SetNodes(-1, 2), ErrInvalidParameter)
	assert.ErrorIs(t, e.SetN3(-1), ErrInvalidParameter)
	assert.Equal(t, straight(1, 1, 2), e.Def())

	require.NoError(t, e.SetType(16))
	require.NoError(t, e.SetHinges(3, 1))
	e.SetProperties(4, 2)
	e.SetTaper(1)
	e.SetCO(2)

	def := e.Def()
	assert.Equal(t, ElementType(16), def.Type)
	assert.Equal(t, 3, def.RelZ)
	assert.Equal(t, 1, def.RelY)
	assert.Equal(t, 4, def.Geom)
	assert.Equal(t, 2, def.Mat)
	assert.Equal(t, 1, def.Taper)
	assert.Equal(t, 2, def.CO)
}

func TestElementMissingNodes(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(1, 2, 3))
	one := addElement(t, m, straight(1, 1, 9))
	both := addElement(t, m, straight(2, 8, 9))

	g := mustGeometry(t, one)
	assert.Equal(t, []DiagnosticCode{DiagMissingNode}, diagCodes(g.Diagnostics))
	assert.Equal(t, vecmath.GlobalFrame(), g.Frame)

	g = mustGeometry(t, both)
	assert.Equal(t, []DiagnosticCode{DiagMissingNode}, diagCodes(g.Diagnostics))
	assert.Equal(t, elementRef(2), g.Diagnostics[0].Entity)
	assert.Zero(t, g.Length)
}

func TestElementMissingReferenceNode(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(0, 0, 0))
	addNode(t, m, 2, vec(10, 0, 0))
	def := straight(1, 1, 2)
	def.N3 = 7
	def.Rot = 30
	e := addElement(t, m, def)

	g := mustGeometry(t, e)
	assert.Equal(t, []DiagnosticCode{DiagMissingNode}, diagCodes(g.Diagnostics))
	assert.Nil(t, g.P3)
	assert.InDelta(t, 30.0, g.Twist, tol)
	assert.InDelta(t, 10.0, g.Length, tol)
}

func TestElementTwistFromReferenceNode(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(0, 0, 0))
	addNode(t, m, 2, vec(10, 0, 0))
	addNode(t, m, 3, vec(0, 0, 5))
	def := straight(1, 1, 2)
	def.N3 = 3
	e := addElement(t, m, def)

	g := mustGeometry(t, e)
	require.NotNil(t, g.P3)
	assertVecInDelta(t, vecmath.UnitX, g.Frame.I, tol)
	assertVecInDelta(t, vecmath.UnitZ, g.Frame.J, tol)
	assertVecInDelta(t, vec(0, -1, 0), g.Frame.K, tol)
	assert.InDelta(t, 90.0, g.Twist, 1e-6)
	assert.Zero(t, e.Def().Rot)
}

func TestElementGeometryIsACopy(t *testing.T) {
	_, e := centreBendModel(t, 60, 5)
	g := mustGeometry(t, e)
	require.NotNil(t, g.P3)
	require.NotNil(t, g.Bend)
	p3 := *g.P3

	g.P3.X += 100
	g.Bend.Radius = 1
	g.Diagnostics = append(g.Diagnostics, Diagnostic{Code: DiagMissingNode})

	again := mustGeometry(t, e)
	assert.Equal(t, p3, *again.P3)
	assert.InDelta(t, 5.0, again.Bend.Radius, tol)
	assert.Empty(t, again.Diagnostics)
}

func TestElementRecomputesAfterNodeMove(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(0, 0, 0))
	n2 := addNode(t, m, 2, vec(2, 0, 0))
	e := addElement(t, m, straight(1, 1, 2))

	l, err := e.Length()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, l, tol)

	require.NoError(t, n2.SetGlobal(vec(0, 0, 7)))
	l, err = e.Length()
	require.NoError(t, err)
	assert.InDelta(t, 7.0, l, tol)

	p1, p2, err := e.Endpoints()
	require.NoError(t, err)
	assert.Equal(t, vec(0, 0, 0), p1)
	assertVecInDelta(t, vec(0, 0, 7), p2, tol)
}

func TestElementRecomputesAfterCSysChange(t *testing.T) {
	m := New()
	cs, err := m.AddCSys(CSysDef{ID: 6, Type: Cartesian, N3: 1})
	require.NoError(t, err)
	addNodeIn(t, m, 1, 6, vec(0, 0, 0))
	addNodeIn(t, m, 2, 6, vec(1, 0, 0))
	e := addElement(t, m, straight(1, 1, 2))

	f, err := e.LocalFrame()
	require.NoError(t, err)
	assertVecInDelta(t, vecmath.UnitX, f.I, tol)

	cs.SetRotation(0, 0, 90)
	f, err = e.LocalFrame()
	require.NoError(t, err)
	assertVecInDelta(t, vecmath.UnitY, f.I, tol)
}

func centreBendModel(t *testing.T, sweepDeg, radius float64) (*Model, *Element) {
	t.Helper()
	m := New()
	r := 5.0
	s := vecmath.Rad(sweepDeg)
	addNode(t, m, 1, vec(r, 0, 0))
	addNode(t, m, 2, vec(r*math.Cos(s), r*math.Sin(s), 0))
	addNode(t, m, 3, vec(0, 0, 0))
	def := DefaultElementDef(1)
	def.N1, def.N2, def.N3 = 1, 2, 3
	def.Type = TypeCentreBend
	def.BendRadius = radius
	return m, addElement(t, m, def)
}

func TestCentreBend(t *testing.T) {
	_, e := centreBendModel(t, 60, 5)

	g := mustGeometry(t, e)
	assert.Empty(t, g.Diagnostics)
	require.NotNil(t, g.Bend)
	assert.InDelta(t, math.Pi/3, g.Bend.Angle, 1e-9)
	assert.InDelta(t, 5.0, g.Bend.Radius, tol)
	assert.InDelta(t, 5*math.Pi/3, g.Length, 1e-9)
	assertVecInDelta(t, vec(0, 0, 0), g.Bend.Centre, tol)

	theta := math.Pi / 3
	want := vec(5*math.Sin(theta)/theta, 5*(1-math.Cos(theta))/theta, 0)
	assertVecInDelta(t, want, g.Centroid, 1e-9)

	angle, err := e.BendAngle()
	require.NoError(t, err)
	assert.InDelta(t, 60.0, angle, 1e-9)
	c, ok, err := e.BendCentre()
	require.NoError(t, err)
	assert.True(t, ok)
	assertVecInDelta(t, vec(0, 0, 0), c, tol)
}

func TestCentreBendRadiusMismatch(t *testing.T) {
	_, e := centreBendModel(t, 45, 4)

	g := mustGeometry(t, e)
	assert.Equal(t, []DiagnosticCode{DiagBendRadiusMismatch}, diagCodes(g.Diagnostics))
	require.NotNil(t, g.Bend)
	assert.InDelta(t, 4*math.Pi/4, g.Length, 1e-9)
}

func TestCentreBendRadiusFromGeometry(t *testing.T) {
	_, e := centreBendModel(t, 90, 0)

	g := mustGeometry(t, e)
	require.NotNil(t, g.Bend)
	assert.True(t, HasDiagnostic(g.Diagnostics, DiagBendRadiusMismatch))
	assert.InDelta(t, 5.0, g.Bend.Radius, tol)
	assert.InDelta(t, 5*math.Pi/2, g.Length, 1e-9)
}

func TestCentreBendAngleOutOfRange(t *testing.T) {
	_, e := centreBendModel(t, 120, 5)

	g := mustGeometry(t, e)
	assert.Equal(t, []DiagnosticCode{DiagBendAngleRange}, diagCodes(g.Diagnostics))
	require.NotNil(t, g.Bend)
	assert.InDelta(t, 2*math.Pi/3, g.Bend.Angle, 1e-9)
}

func TestBendAngleLimitFromTolerances(t *testing.T) {
	m := New(WithTolerances(Tolerances{BendRadius: 1e-4, MaxBendAngle: 180}))
	addNode(t, m, 1, vec(5, 0, 0))
	addNode(t, m, 2, vec(5*math.Cos(vecmath.Rad(120)), 5*math.Sin(vecmath.Rad(120)), 0))
	addNode(t, m, 3, vec(0, 0, 0))
	def := DefaultElementDef(1)
	def.N1, def.N2, def.N3 = 1, 2, 3
	def.Type = TypeCentreBend
	def.BendRadius = 5
	e := addElement(t, m, def)

	g := mustGeometry(t, e)
	assert.Empty(t, g.Diagnostics)
}

func TestTangentBend(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(5, 0, 0))
	addNode(t, m, 2, vec(0, 5, 0))
	addNode(t, m, 3, vec(5, 5, 0))
	def := DefaultElementDef(1)
	def.N1, def.N2, def.N3 = 1, 2, 3
	def.Type = TypeTangentBend
	e := addElement(t, m, def)

	g := mustGeometry(t, e)
	assert.Empty(t, g.Diagnostics)
	require.NotNil(t, g.Bend)
	assert.InDelta(t, math.Pi/2, g.Bend.Angle, 1e-9)
	assertVecInDelta(t, vec(0, 0, 0), g.Bend.Centre, 1e-9)
	assert.InDelta(t, 5.0, g.Bend.Radius, 1e-9)
	assert.InDelta(t, 5*math.Pi/2, g.Length, 1e-9)
	assertVecInDelta(t, vec(10/math.Pi, 10/math.Pi, 0), g.Centroid, 1e-9)
}

func TestTangentBendMismatchAndColinear(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(5, 0, 0))
	addNode(t, m, 2, vec(0, 7, 0))
	addNode(t, m, 3, vec(5, 5, 0))
	addNode(t, m, 4, vec(10, 0, 0))
	addNode(t, m, 5, vec(20, 0, 0))

	def := DefaultElementDef(1)
	def.N1, def.N2, def.N3 = 1, 2, 3
	def.Type = TypeTangentBend
	uneven := addElement(t, m, def)

	def = DefaultElementDef(2)
	def.N1, def.N2, def.N3 = 1, 5, 4
	def.Type = TypeTangentBend
	flat := addElement(t, m, def)

	g := mustGeometry(t, uneven)
	assert.True(t, HasDiagnostic(g.Diagnostics, DiagTangentMismatch))
	assert.NotNil(t, g.Bend)

	g = mustGeometry(t, flat)
	assert.True(t, HasDiagnostic(g.Diagnostics, DiagDegenerateBend))
	assert.Nil(t, g.Bend)
	assert.InDelta(t, 15.0, g.Length, tol)
}

func TestBendWithoutReferenceNode(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(0, 0, 0))
	addNode(t, m, 2, vec(4, 0, 0))
	def := straight(1, 1, 2)
	def.Type = TypeCentreBend
	def.BendRadius = 2
	e := addElement(t, m, def)

	g := mustGeometry(t, e)
	assert.Equal(t, []DiagnosticCode{DiagDegenerateBend}, diagCodes(g.Diagnostics))
	assert.Nil(t, g.Bend)
	assert.InDelta(t, 4.0, g.Length, tol)
	assertVecInDelta(t, vec(2, 0, 0), g.Centroid, tol)
}

func TestElementGlobalOffset(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(0, 0, 0))
	addNode(t, m, 2, vec(10, 0, 0))
	e := addElement(t, m, straight(1, 1, 2))
	_, err := m.AddElemOffset(ElemOffsetDef{Elem: 1, Ends: OffsetFirst, Offset1: vec(0, 0, 2), Offset2: vec(9, 9, 9)})
	require.NoError(t, err)

	g := mustGeometry(t, e)
	assert.Equal(t, vec(0, 0, 2), g.P1)
	assert.Equal(t, vec(10, 0, 0), g.P2)
	assert.Equal(t, vec(0, 0, 2), g.Offset1)
	assert.Equal(t, vecmath.Vec{}, g.Offset2)
	assert.InDelta(t, math.Sqrt(104), g.Length, tol)
}

func TestElementSelfReferencedOffset(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(0, 0, 0))
	addNode(t, m, 2, vec(0, 0, 10))
	e := addElement(t, m, straight(1, 1, 2))
	// Member along global Z: local Y is global Y, local Z is -X.
	_, err := m.AddElemOffset(ElemOffsetDef{
		Elem: 1, Ends: OffsetBoth,
		Ref1: 1, Offset1: vec(0, 1, 0),
		Ref2: 1, Offset2: vec(0, 0, 2),
	})
	require.NoError(t, err)

	g := mustGeometry(t, e)
	assertVecInDelta(t, vec(0, 1, 0), g.P1, tol)
	assertVecInDelta(t, vec(-2, 0, 10), g.P2, tol)
}

func TestElementOffsetFollowsReferenceElement(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(0, 0, 0))
	addNode(t, m, 2, vec(10, 0, 0))
	addNode(t, m, 3, vec(0, 0, 0))
	n4 := addNode(t, m, 4, vec(0, 10, 0))
	a := addElement(t, m, straight(1, 1, 2))
	addElement(t, m, straight(2, 3, 4))
	_, err := m.AddElemOffset(ElemOffsetDef{Elem: 1, Ends: OffsetSecond, Ref2: 2, Offset2: vec(1, 0, 0)})
	require.NoError(t, err)

	_, p2, err := a.Endpoints()
	require.NoError(t, err)
	assertVecInDelta(t, vec(10, 1, 0), p2, tol)

	n4.SetLocal(vec(10, 0, 0))
	_, p2, err = a.Endpoints()
	require.NoError(t, err)
	assertVecInDelta(t, vec(11, 0, 0), p2, tol)
}

func TestElementOffsetEdits(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(0, 0, 0))
	addNode(t, m, 2, vec(10, 0, 0))
	e := addElement(t, m, straight(1, 1, 2))
	o, err := m.AddElemOffset(DefaultElemOffsetDef(1))
	require.NoError(t, err)

	g := mustGeometry(t, e)
	assert.Equal(t, vec(0, 0, 0), g.P1)

	require.NoError(t, o.SetEnd(1, 0, vec(0, 3, 0)))
	require.NoError(t, o.SetEnds(OffsetFirst))
	g = mustGeometry(t, e)
	assert.Equal(t, vec(0, 3, 0), g.P1)

	assert.ErrorIs(t, o.SetEnd(3, 0, vec(1, 1, 1)), ErrInvalidParameter)
	assert.ErrorIs(t, o.SetEnds(4), ErrInvalidParameter)
	assert.ErrorIs(t, o.SetEnd(1, -2, vec(1, 1, 1)), ErrInvalidParameter)
}

func TestElementOffsetMissingReference(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(0, 0, 0))
	addNode(t, m, 2, vec(10, 0, 0))
	e := addElement(t, m, straight(1, 1, 2))
	_, err := m.AddElemOffset(ElemOffsetDef{Elem: 1, Ends: OffsetFirst, Ref1: 99, Offset1: vec(0, 0, 1)})
	require.NoError(t, err)

	g := mustGeometry(t, e)
	assert.Equal(t, []DiagnosticCode{DiagMissingReference}, diagCodes(g.Diagnostics))
	assert.Equal(t, vec(0, 0, 1), g.P1)
}

func TestElementOffsetCycle(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(0, 0, 0))
	addNode(t, m, 2, vec(10, 0, 0))
	a := addElement(t, m, straight(1, 1, 2))
	addElement(t, m, straight(2, 2, 1))
	_, err := m.AddElemOffset(ElemOffsetDef{Elem: 1, Ends: OffsetFirst, Ref1: 2, Offset1: vec(0, 1, 0)})
	require.NoError(t, err)
	_, err = m.AddElemOffset(ElemOffsetDef{Elem: 2, Ends: OffsetSecond, Ref2: 1, Offset2: vec(0, 1, 0)})
	require.NoError(t, err)

	_, err = a.Geometry()
	assert.ErrorIs(t, err, ErrCircularReference)
	assert.Empty(t, m.resolving)

	// Breaking the cycle makes both resolvable again.
	o, _ := m.Offsets().Get(2)
	require.NoError(t, o.SetEnds(OffsetNone))
	g := mustGeometry(t, a)
	assertVecInDelta(t, vec(0, 1, 0), g.P1, tol)
}

func TestElementDiagnosticsLoggedOnRecompute(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := New(WithLogger(zap.New(core)))
	addNode(t, m, 1, vec(0, 0, 0))
	e := addElement(t, m, straight(1, 1, 2))

	mustGeometry(t, e)
	mustGeometry(t, e)
	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	assert.Equal(t, "missing-node", entry.ContextMap()["code"])
	assert.Equal(t, "element 1", entry.ContextMap()["entity"])

	e.SetRot(15)
	mustGeometry(t, e)
	assert.Equal(t, 2, logs.FilterField(zap.String("code", "missing-node")).Len())
}
