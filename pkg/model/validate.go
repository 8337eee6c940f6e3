package model

import (
	"errors"
	"fmt"
	"slices"
)

// ValidationSeverity indicates whether a finding blocks downstream use of the
// model or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks use
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single blocking finding.
type ValidationError struct {
	Entity   EntityRef
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Entity, e.Message)
}

// ValidationResult bundles blocking errors and advisory warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []Diagnostic
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate checks the whole model: offset reference cycles and dangling
// hard references are errors; geometry diagnostics of every entity and
// property codes missing from a non-empty table are warnings. Derived
// caches may be filled but no definition is changed.
func Validate(m *Model) ValidationResult {
	var result ValidationResult
	structural := append(validateOffsetCycles(m), validateReferences(m)...)
	result.Warnings = append(result.Warnings, validatePropertyCodes(m)...)
	for _, e := range structural {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, Diagnostic{
				Entity:  e.Entity,
				Code:    DiagMissingReference,
				Message: e.Message,
			})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	for _, cs := range m.csys.All() {
		diags, err := cs.Diagnostics()
		if err != nil {
			result.Errors = append(result.Errors, geometryError(csysRef(cs.ID()), err))
			continue
		}
		result.Warnings = append(result.Warnings, diags...)
	}
	for _, g := range m.geoms.All() {
		result.Warnings = append(result.Warnings, g.Diagnostics()...)
	}
	for _, e := range m.elements.All() {
		g, err := e.Geometry()
		if err != nil {
			if !errors.Is(err, ErrCircularReference) {
				result.Errors = append(result.Errors, geometryError(elementRef(e.ID()), err))
			}
			continue
		}
		result.Warnings = append(result.Warnings, g.Diagnostics...)
	}
	for _, c := range m.couples.All() {
		g, err := c.Geometry()
		if err != nil {
			if !errors.Is(err, ErrCircularReference) {
				result.Errors = append(result.Errors, geometryError(coupleRef(c.ID()), err))
			}
			continue
		}
		result.Warnings = append(result.Warnings, g.Diagnostics...)
	}
	return result
}

func geometryError(ref EntityRef, err error) ValidationError {
	return ValidationError{Entity: ref, Message: err.Error(), Severity: SeverityError}
}

// validateOffsetCycles finds element offset reference cycles using DFS with
// 3-color marking. White = unvisited, gray = on the current path, black =
// fully explored. Reaching a gray element closes a cycle.
func validateOffsetCycles(m *Model) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[ElementID]int)
	var errs []ValidationError

	var visit func(id ElementID, path []ElementID)
	visit = func(id ElementID, path []ElementID) {
		switch color[id] {
		case black:
			return
		case gray:
			errs = append(errs, ValidationError{
				Entity:   elementRef(id),
				Message:  fmt.Sprintf("circular offset reference: %v", append(slices.Clone(cycleFrom(path, id)), id)),
				Severity: SeverityError,
			})
			return
		}
		color[id] = gray
		path = append(path, id)
		for _, ref := range offsetDependencies(m, id) {
			visit(ref, path)
		}
		color[id] = black
	}

	for _, id := range m.elements.IDs() {
		visit(id, nil)
	}
	return errs
}

// offsetDependencies returns the other elements whose frames id's offsets
// are expressed in.
func offsetDependencies(m *Model, id ElementID) []ElementID {
	o, ok := m.offsets.Get(id)
	if !ok {
		return nil
	}
	var deps []ElementID
	for end := 1; end <= 2; end++ {
		if !o.def.Ends.applies(end) {
			continue
		}
		ref, _ := o.End(end)
		if ref != 0 && ref != id && m.elements.Has(ref) {
			deps = append(deps, ref)
		}
	}
	return deps
}

func cycleFrom(path []ElementID, id ElementID) []ElementID {
	for i, p := range path {
		if p == id {
			return path[i:]
		}
	}
	return path
}

// validateReferences reports hard references to coordinate systems that do
// not exist. Dangling node references are soft and surface as warnings.
func validateReferences(m *Model) []ValidationError {
	var errs []ValidationError
	for _, n := range m.nodes.All() {
		if !m.csys.Has(n.CSys()) {
			errs = append(errs, ValidationError{
				Entity:   nodeRef(n.ID()),
				Message:  fmt.Sprintf("undefined coordinate system %d", n.CSys()),
				Severity: SeverityError,
			})
		}
	}
	for _, c := range m.couples.All() {
		if cs := c.def.SCCSys; cs > 0 && !m.csys.Has(cs) {
			errs = append(errs, ValidationError{
				Entity:   coupleRef(c.ID()),
				Message:  fmt.Sprintf("undefined coordinate system %d", cs),
				Severity: SeverityError,
			})
		}
	}
	for _, o := range m.offsets.All() {
		if !m.elements.Has(o.Elem()) {
			errs = append(errs, ValidationError{
				Entity:   offsetRef(o.Elem()),
				Message:  "offset defined for undefined element",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validatePropertyCodes reports GEOM, MAT and SPCONST codes with no table
// entry. A table kind with no entries at all is taken as not modelled and
// is not checked.
func validatePropertyCodes(m *Model) []Diagnostic {
	var diags []Diagnostic
	undefined := func(ref EntityRef, table string, code int) {
		diags = append(diags, Diagnostic{
			Entity:  ref,
			Code:    DiagUndefinedProperty,
			Message: fmt.Sprintf("undefined %s code %d", table, code),
		})
	}
	for _, e := range m.elements.All() {
		if m.geoms.Len() > 0 && !m.geoms.Has(e.def.Geom) {
			undefined(elementRef(e.ID()), "gtab", e.def.Geom)
		}
		if m.materials.Len() > 0 && !m.materials.Has(e.def.Mat) {
			undefined(elementRef(e.ID()), "mtab", e.def.Mat)
		}
	}
	for _, c := range m.couples.All() {
		if sp := c.def.SpConst; sp > 0 && m.coupleTypes.Len() > 0 && !m.coupleTypes.Has(sp) {
			undefined(coupleRef(c.ID()), "stab", sp)
		}
	}
	return diags
}
