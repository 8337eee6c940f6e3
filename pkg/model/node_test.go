package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/fsmodel/pkg/vecmath"
)

func TestAddNodeValidation(t *testing.T) {
	m := New()
	_, err := m.AddNode(NodeDef{ID: 0})
	assert.ErrorIs(t, err, ErrIDOutOfBounds)

	_, err = m.AddNode(NodeDef{ID: 1, CSys: 12})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, m.Nodes().Has(1))
}

func TestNodeReplaceByID(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(1, 0, 0))
	addNode(t, m, 1, vec(2, 0, 0))
	assert.Equal(t, 1, m.Nodes().Len())

	n, _ := m.Nodes().Get(1)
	assert.Equal(t, vec(2, 0, 0), n.Local())
}

func TestNodeGlobalInBuiltInSystems(t *testing.T) {
	m := New()
	cyl := addNodeIn(t, m, 1, GlobalCylindrical, vec(2, 90, 3))
	sph := addNodeIn(t, m, 2, GlobalSpherical, vec(2, 0, 90))

	g, err := cyl.Global()
	require.NoError(t, err)
	assertVecInDelta(t, vec(0, 2, 3), g, tol)

	g, err = sph.Global()
	require.NoError(t, err)
	assertVecInDelta(t, vec(0, 0, 2), g, tol)
}

func TestNodeGlobalWriteReadBack(t *testing.T) {
	systems := []CSysDef{
		{ID: 6, Type: Cartesian, T1: 3, T2: -1, T3: 2, RX: 15, RY: -40, RZ: 70, N3: 1},
		{ID: 7, Type: Cylindrical, T1: 1, T2: 2, T3: 3, RY: 30, N3: 1},
		{ID: 8, Type: Spherical, T1: -2, T3: 5, RX: 45, RZ: 10, N3: 1},
	}
	target := vec(4.5, -2.25, 7)

	for _, def := range systems {
		t.Run(def.Type.String(), func(t *testing.T) {
			m := New()
			_, err := m.AddCSys(def)
			require.NoError(t, err)
			n := addNodeIn(t, m, 1, def.ID, vec(1, 10, 20))

			require.NoError(t, n.SetXG(target.X))
			require.NoError(t, n.SetYG(target.Y))
			require.NoError(t, n.SetZG(target.Z))

			g, err := n.Global()
			require.NoError(t, err)
			assertVecInDelta(t, target, g, tol)
			assert.Equal(t, def.ID, n.CSys())
		})
	}
}

func TestNodeGlobalWriteReadBackConical(t *testing.T) {
	m := New()
	_, err := m.AddCSys(CSysDef{ID: 6, Type: Conical, RZ: 30, P1: 1, P2: 45, N3: 1})
	require.NoError(t, err)
	n := addNodeIn(t, m, 1, 6, vec(2, 0, 0))

	// r = 3 and z = r - P1 lie on the cone surface.
	onSurface := vec(0, 3, 2)
	require.NoError(t, n.SetGlobal(onSurface))

	g, err := n.Global()
	require.NoError(t, err)
	assertVecInDelta(t, onSurface, g, tol)
	assert.InDelta(t, 3.0, n.Local().X, tol)
}

func TestNodeSetGlobalOverwritesLocal(t *testing.T) {
	m := New()
	n := addNodeIn(t, m, 1, GlobalCylindrical, vec(1, 0, 0))

	require.NoError(t, n.SetGlobal(vec(0, 2, 5)))
	assertVecInDelta(t, vec(2, 90, 5), n.Local(), tol)
}

func TestNodeSetLocalInvalidatesGlobal(t *testing.T) {
	m := New()
	n := addNode(t, m, 1, vec(1, 2, 3))
	g, err := n.Global()
	require.NoError(t, err)
	assert.Equal(t, vec(1, 2, 3), g)

	n.SetX(-1)
	n.SetY(-2)
	n.SetZ(-3)
	g, err = n.Global()
	require.NoError(t, err)
	assert.Equal(t, vec(-1, -2, -3), g)
}

func TestNodeConvertToCSysPreservesGlobal(t *testing.T) {
	m := New()
	_, err := m.AddCSys(CSysDef{ID: 6, Type: Cylindrical, T1: 4, T2: 4, RX: 20, RY: 10, RZ: -35, N3: 1})
	require.NoError(t, err)
	n := addNode(t, m, 1, vec(1, 7, -3))
	before, err := n.Global()
	require.NoError(t, err)

	for _, id := range []CSysID{6, GlobalSpherical, GlobalCylindrical, GlobalCartesian} {
		require.NoError(t, n.ConvertToCSys(id))
		assert.Equal(t, id, n.CSys())

		after, err := n.Global()
		require.NoError(t, err)
		assertVecInDelta(t, before, after, tol, "csys %d", id)
	}
	assertVecInDelta(t, vec(1, 7, -3), n.Local(), tol)
}

func TestNodeConvertToMissingCSys(t *testing.T) {
	m := New()
	n := addNode(t, m, 1, vec(1, 1, 1))
	assert.ErrorIs(t, n.ConvertToCSys(9), ErrNotFound)
	assert.Equal(t, GlobalCartesian, n.CSys())
	assert.Equal(t, vec(1, 1, 1), n.Local())
}

func TestNodeDistanceTo(t *testing.T) {
	m := New()
	a := addNode(t, m, 1, vec(0, 0, 0))
	b := addNodeIn(t, m, 2, GlobalCylindrical, vec(5, 53.13010235415598, 0))

	d, err := a.DistanceTo(b)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, tol)

	p, err := b.Global()
	require.NoError(t, err)
	assertVecInDelta(t, vecmath.Vec{X: 3, Y: 4}, p, 1e-9)
}
