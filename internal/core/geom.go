// Package core provides fundamental types and utilities shared by the
// simulation, the frame loop and the renderer. It has no UI dependencies so
// the physics can be driven headless.
package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// V is shorthand for building a 2D vector.
func V(x, y float64) mgl64.Vec2 {
	return mgl64.Vec2{x, y}
}

// AABB is an axis-aligned box in world (arena) coordinates.
// Min is the top-left corner, Max the bottom-right one; y grows downward.
type AABB struct {
	Min, Max mgl64.Vec2
}

// Box builds an AABB from its edges.
func Box(left, top, right, bottom float64) AABB {
	return AABB{Min: V(left, top), Max: V(right, bottom)}
}

// Overlaps reports whether two boxes overlap. Touching edges count as overlap,
// matching the inclusive tests used by the collision solver.
func (b AABB) Overlaps(o AABB) bool {
	if b.Max.X() < o.Min.X() || o.Max.X() < b.Min.X() {
		return false
	}
	if b.Max.Y() < o.Min.Y() || o.Max.Y() < b.Min.Y() {
		return false
	}
	return true
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: V(math.Min(b.Min.X(), o.Min.X()), math.Min(b.Min.Y(), o.Min.Y())),
		Max: V(math.Max(b.Max.X(), o.Max.X()), math.Max(b.Max.Y(), o.Max.Y())),
	}
}

// CircleBox returns the bounding box of a circle.
func CircleBox(center mgl64.Vec2, radius float64) AABB {
	return AABB{
		Min: V(center.X()-radius, center.Y()-radius),
		Max: V(center.X()+radius, center.Y()+radius),
	}
}

// Rect represents an axis-aligned box in screen cells, used for drawing.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Clamp restricts a value to be within [lo, hi].
func Clamp[T constraints.Ordered](val, lo, hi T) T {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// NearlyEqual compares two floats with an absolute tolerance.
func NearlyEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
