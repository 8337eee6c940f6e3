package model

import (
	"cmp"
	"fmt"
)

// CSysID identifies a coordinate system. 0, 1 and 2 are the built-in
// global cartesian, cylindrical and spherical systems.
type CSysID int

// NodeID identifies a node. Zero means "no node".
type NodeID int

// ElementID identifies a beam/pipe element. Zero means "no element" (or the
// global frame when used as an offset reference).
type ElementID int

// CoupleID identifies a spring/couple element.
type CoupleID int

// Built-in coordinate systems.
const (
	GlobalCartesian   CSysID = 0
	GlobalCylindrical CSysID = 1
	GlobalSpherical   CSysID = 2
)

// Bounds for user-defined coordinate system ids.
const (
	MinUserCSys CSysID = 6
	MaxUserCSys CSysID = 20
)

func (id CSysID) Compare(o CSysID) int       { return cmp.Compare(id, o) }
func (id NodeID) Compare(o NodeID) int       { return cmp.Compare(id, o) }
func (id ElementID) Compare(o ElementID) int { return cmp.Compare(id, o) }
func (id CoupleID) Compare(o CoupleID) int   { return cmp.Compare(id, o) }

func (id NodeID) IsZero() bool    { return id == 0 }
func (id ElementID) IsZero() bool { return id == 0 }

// EntityKind names the kind of entity a reference points at.
type EntityKind int

const (
	KindCSys EntityKind = iota
	KindNode
	KindElement
	KindElemOffset
	KindCouple
	KindGeomTable
	KindMaterial
	KindCoupleType
)

func (k EntityKind) String() string {
	switch k {
	case KindCSys:
		return "csys"
	case KindNode:
		return "node"
	case KindElement:
		return "element"
	case KindElemOffset:
		return "elemoffset"
	case KindCouple:
		return "couple"
	case KindGeomTable:
		return "gtab"
	case KindMaterial:
		return "mtab"
	case KindCoupleType:
		return "stab"
	default:
		return fmt.Sprintf("EntityKind(%d)", int(k))
	}
}

// EntityRef is a kind-qualified entity id.
type EntityRef struct {
	Kind EntityKind
	ID   int
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s %d", r.Kind, r.ID)
}

func csysRef(id CSysID) EntityRef       { return EntityRef{Kind: KindCSys, ID: int(id)} }
func nodeRef(id NodeID) EntityRef       { return EntityRef{Kind: KindNode, ID: int(id)} }
func elementRef(id ElementID) EntityRef { return EntityRef{Kind: KindElement, ID: int(id)} }
func offsetRef(id ElementID) EntityRef  { return EntityRef{Kind: KindElemOffset, ID: int(id)} }
func coupleRef(id CoupleID) EntityRef   { return EntityRef{Kind: KindCouple, ID: int(id)} }
func geomRef(code int) EntityRef        { return EntityRef{Kind: KindGeomTable, ID: code} }
func materialRef(code int) EntityRef    { return EntityRef{Kind: KindMaterial, ID: code} }
func coupleTypeRef(code int) EntityRef  { return EntityRef{Kind: KindCoupleType, ID: code} }
