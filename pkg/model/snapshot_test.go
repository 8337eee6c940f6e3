package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleModel(t *testing.T) *Model {
	t.Helper()
	m := New()
	_, err := m.AddCSys(CSysDef{ID: 7, Type: Cylindrical, T1: 1, RZ: 30, N3: 1})
	require.NoError(t, err)
	addNode(t, m, 2, vec(10, 0, 0))
	addNode(t, m, 1, vec(0, 0, 0))
	addNodeIn(t, m, 3, 7, vec(4, 90, 2))
	addNode(t, m, 4, vec(0, 0, 6))

	addElement(t, m, straight(2, 2, 3))
	def := straight(1, 1, 2)
	def.N3 = 4
	addElement(t, m, def)
	_, err = m.AddElemOffset(ElemOffsetDef{Elem: 2, Ends: OffsetSecond, Ref2: 1, Offset2: vec(0, 0.5, 0)})
	require.NoError(t, err)
	_, err = m.AddCouple(CoupleDef{ID: 1, N1: 1, N2: 3, RefElem: 2, SpConst: 3})
	require.NoError(t, err)

	_, err = m.AddGeomTable(PipeGeomDef(1, 0.273, 0.0093))
	require.NoError(t, err)
	_, err = m.AddMaterial(MaterialDef{Code: 1, Name: "steel", E: 2.05e8, Poisson: 0.3, Density: 7.85})
	require.NoError(t, err)
	_, err = m.AddCoupleType(CoupleTypeDef{Code: 3, K: [6]float64{1e6, 1e6, 1e6, 0, 0, 0}})
	require.NoError(t, err)
	return m
}

func TestSnapshotOrderAndContent(t *testing.T) {
	s := sampleModel(t).Snapshot()

	require.Len(t, s.CSys, 1)
	assert.Equal(t, CSysID(7), s.CSys[0].ID)
	want := []NodeID{1, 2, 3, 4}
	var got []NodeID
	for _, n := range s.Nodes {
		got = append(got, n.ID)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, ElementID(1), s.Elements[0].ID)
	assert.Equal(t, NodeID(4), s.Elements[0].N3)
	assert.Len(t, s.Offsets, 1)
	assert.Len(t, s.Couples, 1)

	require.Len(t, s.Geoms, 1)
	assert.Equal(t, SectionPipe, s.Geoms[0].Type)
	assert.Equal(t, []float64{0.273, 0.0093}, s.Geoms[0].C)
	require.Len(t, s.Materials, 1)
	assert.Equal(t, "steel", s.Materials[0].Name)
	require.Len(t, s.CoupleTypes, 1)
	assert.Equal(t, 3, s.CoupleTypes[0].Code)
}

func TestSnapshotYAMLRoundTrip(t *testing.T) {
	m := sampleModel(t)
	s := m.Snapshot()

	out, err := yaml.Marshal(s)
	require.NoError(t, err)
	var back Snapshot
	require.NoError(t, yaml.Unmarshal(out, &back))
	if diff := cmp.Diff(s, back); diff != "" {
		t.Fatalf("snapshot changed through yaml (-want +got):\n%s", diff)
	}

	rebuilt, err := FromSnapshot(back)
	require.NoError(t, err)

	approx := cmpopts.EquateApprox(0, 1e-12)
	for id, e := range m.Elements().All() {
		other, ok := rebuilt.Elements().Get(id)
		require.True(t, ok)
		want := mustGeometry(t, e)
		got := mustGeometry(t, other)
		if diff := cmp.Diff(want, got, approx); diff != "" {
			t.Errorf("element %d geometry differs (-want +got):\n%s", id, diff)
		}
	}
	for code, g := range m.GeomTables().All() {
		other, ok := rebuilt.GeomTables().Get(code)
		require.True(t, ok)
		if diff := cmp.Diff(g.Section(), other.Section(), approx); diff != "" {
			t.Errorf("gtab %d section differs (-want +got):\n%s", code, diff)
		}
	}
	for id, c := range m.Couples().All() {
		other, _ := rebuilt.Couples().Get(id)
		want, err := c.Geometry()
		require.NoError(t, err)
		got, err := other.Geometry()
		require.NoError(t, err)
		if diff := cmp.Diff(want, got, approx); diff != "" {
			t.Errorf("couple %d geometry differs (-want +got):\n%s", id, diff)
		}
	}
}

func TestFromSnapshotRejectsInvalidDefinitions(t *testing.T) {
	_, err := FromSnapshot(Snapshot{CSys: []CSysDef{{ID: 3}}})
	assert.ErrorIs(t, err, ErrIDOutOfBounds)

	_, err = FromSnapshot(Snapshot{Nodes: []NodeDef{{ID: 1, CSys: 8}}})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = FromSnapshot(Snapshot{CoupleTypes: []CoupleTypeDef{{Code: 1, Type: 2}}})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = FromSnapshot(Snapshot{Materials: []MaterialDef{{Code: 0}}})
	assert.ErrorIs(t, err, ErrIDOutOfBounds)
}
