package model

import "errors"

var (
	// ErrInvalidParameter is returned when a definition or setter value is
	// structurally invalid (unknown type code, out-of-range hinge code...).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrIDOutOfBounds is returned when an entity id is outside the range
	// allowed for its kind.
	ErrIDOutOfBounds = errors.New("id out of bounds")

	// ErrNotFound is returned when a hard reference (a node's coordinate
	// system, a conversion target) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCircularReference is returned when resolving derived geometry
	// re-enters an entity already being resolved, e.g. two elements whose
	// offsets reference each other's frames.
	ErrCircularReference = errors.New("circular reference")
)
