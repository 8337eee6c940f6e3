package model

import (
	"fmt"

	"github.com/chazu/fsmodel/pkg/vecmath"
)

// EndSelector chooses which element ends an offset applies to.
type EndSelector int

const (
	OffsetNone EndSelector = iota
	OffsetFirst
	OffsetSecond
	OffsetBoth
)

func (s EndSelector) String() string {
	switch s {
	case OffsetNone:
		return "none"
	case OffsetFirst:
		return "first"
	case OffsetSecond:
		return "second"
	case OffsetBoth:
		return "both"
	default:
		return fmt.Sprintf("EndSelector(%d)", int(s))
	}
}

func (s EndSelector) valid() bool { return s >= OffsetNone && s <= OffsetBoth }

// applies reports whether the selector covers end 1 or end 2.
func (s EndSelector) applies(end int) bool {
	switch end {
	case 1:
		return s == OffsetFirst || s == OffsetBoth
	case 2:
		return s == OffsetSecond || s == OffsetBoth
	}
	return false
}

// ElemOffsetDef is the field-by-field definition of an element's end
// offsets. A reference of 0 means the offset vector is global; otherwise its
// components are along the referenced element's local axes.
type ElemOffsetDef struct {
	Elem    ElementID   `yaml:"elem"`
	Ends    EndSelector `yaml:"ends"`
	Ref1    ElementID   `yaml:"eref1"`
	Offset1 vecmath.Vec `yaml:"offset1"`
	Ref2    ElementID   `yaml:"eref2"`
	Offset2 vecmath.Vec `yaml:"offset2"`
}

// DefaultElemOffsetDef returns an offset definition that offsets nothing.
func DefaultElemOffsetDef(elem ElementID) ElemOffsetDef {
	return ElemOffsetDef{Elem: elem}
}

func (d ElemOffsetDef) validate() error {
	if !d.Ends.valid() {
		return fmt.Errorf("end selector %d: %w", int(d.Ends), ErrInvalidParameter)
	}
	if d.Ref1 < 0 || d.Ref2 < 0 {
		return fmt.Errorf("negative reference element: %w", ErrInvalidParameter)
	}
	return nil
}

// ElemOffset holds the end offsets of one element.
type ElemOffset struct {
	m   *Model
	def ElemOffsetDef
}

func newElemOffset(m *Model, def ElemOffsetDef) *ElemOffset {
	return &ElemOffset{m: m, def: def}
}

func (o *ElemOffset) Elem() ElementID    { return o.def.Elem }
func (o *ElemOffset) Ends() EndSelector  { return o.def.Ends }
func (o *ElemOffset) Def() ElemOffsetDef { return o.def }

// End returns the reference element and offset vector of end 1 or 2.
func (o *ElemOffset) End(end int) (ElementID, vecmath.Vec) {
	if end == 2 {
		return o.def.Ref2, o.def.Offset2
	}
	return o.def.Ref1, o.def.Offset1
}

// SetEnds changes which ends are offset.
func (o *ElemOffset) SetEnds(s EndSelector) error {
	if !s.valid() {
		return fmt.Errorf("model: elemoffset %d: end selector %d: %w", o.def.Elem, int(s), ErrInvalidParameter)
	}
	o.def.Ends = s
	o.changed()
	return nil
}

// SetEnd sets the reference element and offset vector of end 1 or 2.
func (o *ElemOffset) SetEnd(end int, ref ElementID, off vecmath.Vec) error {
	if ref < 0 {
		return fmt.Errorf("model: elemoffset %d: reference %d: %w", o.def.Elem, ref, ErrInvalidParameter)
	}
	switch end {
	case 1:
		o.def.Ref1, o.def.Offset1 = ref, off
	case 2:
		o.def.Ref2, o.def.Offset2 = ref, off
	default:
		return fmt.Errorf("model: elemoffset %d: end %d: %w", o.def.Elem, end, ErrInvalidParameter)
	}
	o.changed()
	return nil
}

func (o *ElemOffset) changed() {
	o.m.invalidateElement(o.def.Elem)
	o.m.touch()
}
