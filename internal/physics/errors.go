package physics

import "errors"

var (
	// ErrDegenerateCorner is returned when a ball's center lands exactly on a
	// rectangle corner during the corner solve, leaving the normal undefined.
	ErrDegenerateCorner = errors.New("physics: degenerate corner geometry")

	// ErrInconsistentGrid is returned when the spatial grid's cell membership
	// disagrees with a rectangle's recorded range.
	ErrInconsistentGrid = errors.New("physics: inconsistent grid state")

	// ErrInvalidBody is returned for bodies that violate their invariants
	// (non-positive radius, empty rectangle).
	ErrInvalidBody = errors.New("physics: invalid body")
)
