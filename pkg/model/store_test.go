package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreOrderingAndReplace(t *testing.T) {
	s := newStore[NodeID, string]()
	assert.Equal(t, NodeID(0), s.Max())

	s.put(7, "seven")
	s.put(2, "two")
	s.put(11, "eleven")
	s.put(2, "deux")

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []NodeID{2, 7, 11}, s.IDs())
	assert.Equal(t, NodeID(11), s.Max())

	v, ok := s.Get(2)
	assert.True(t, ok)
	assert.Equal(t, "deux", v)

	_, ok = s.Get(3)
	assert.False(t, ok)
	assert.True(t, s.Has(7))
	assert.False(t, s.Has(8))

	var seen []NodeID
	for id := range s.All() {
		seen = append(seen, id)
		if id == 7 {
			break
		}
	}
	assert.Equal(t, []NodeID{2, 7}, seen)
}

func TestIDCompare(t *testing.T) {
	assert.Equal(t, -1, NodeID(1).Compare(2))
	assert.Equal(t, 0, ElementID(4).Compare(4))
	assert.Equal(t, 1, CSysID(7).Compare(6))
	assert.True(t, NodeID(0).IsZero())
	assert.False(t, ElementID(3).IsZero())
	assert.Equal(t, "element 3", elementRef(3).String())
}

func TestRemoveElemOffset(t *testing.T) {
	m := New()
	addNode(t, m, 1, vec(0, 0, 0))
	addNode(t, m, 2, vec(1, 0, 0))
	e := addElement(t, m, straight(1, 1, 2))
	_, err := m.AddElemOffset(ElemOffsetDef{Elem: 1, Ends: OffsetFirst, Offset1: vec(0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	p1, _, err := e.Endpoints()
	assert.NoError(t, err)
	assert.Equal(t, vec(0, 0, 1), p1)

	assert.True(t, m.RemoveElemOffset(1))
	assert.False(t, m.RemoveElemOffset(1))
	p1, _, err = e.Endpoints()
	assert.NoError(t, err)
	assert.Equal(t, vec(0, 0, 0), p1)
}
