// Package physics implements the kinematic bodies, the uniform spatial grid
// used as broad phase and the swept circle-versus-rectangle solver.
//
// Coordinates are arena units with the origin at the top-left corner and y
// growing downward. Velocities are units per second.
package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vovakirdan/breakout-sweep/internal/core"
)

// MinAxisSpeed is the smallest magnitude either velocity component may have
// after integration. Slower components are snapped to ±MinAxisSpeed so a
// ball always makes progress along both axes.
const MinAxisSpeed = 2.0

// Arena is the fixed rectangular playfield.
type Arena struct {
	Width  float64
	Height float64
}

// Rect is an axis-aligned rectangle: a block or the paddle's shape.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// RectAt builds a rectangle from its top-left corner and size.
func RectAt(left, top, width, height float64) Rect {
	return Rect{Left: left, Top: top, Width: width, Height: height}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Bounds returns the rectangle as an AABB.
func (r Rect) Bounds() core.AABB {
	return core.Box(r.Left, r.Top, r.Right(), r.Bottom())
}

// CenterX returns the horizontal center.
func (r Rect) CenterX() float64 { return r.Left + r.Width/2 }

// Corners returns the four corners: top-right, bottom-right, top-left,
// bottom-left.
func (r Rect) Corners() [4]mgl64.Vec2 {
	return [4]mgl64.Vec2{
		core.V(r.Right(), r.Top),
		core.V(r.Right(), r.Bottom()),
		core.V(r.Left, r.Top),
		core.V(r.Left, r.Bottom()),
	}
}

// Validate checks the rectangle has a positive area.
func (r Rect) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: rectangle %vx%v has no area", ErrInvalidBody, r.Width, r.Height)
	}
	return nil
}

// Ball is a moving circle.
type Ball struct {
	Pos  mgl64.Vec2 // Center
	Prev mgl64.Vec2 // Center at the start of the current step
	Vel  mgl64.Vec2

	Radius float64

	// LastCorner is the most recently resolved corner this step, or nil.
	LastCorner *mgl64.Vec2

	Alive bool
}

// NewBall creates a live ball. The radius must be positive.
func NewBall(pos, vel mgl64.Vec2, radius float64) (*Ball, error) {
	if radius <= 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("%w: ball radius %v", ErrInvalidBody, radius)
	}
	return &Ball{
		Pos:    pos,
		Prev:   pos,
		Vel:    vel,
		Radius: radius,
		Alive:  true,
	}, nil
}

// Speed returns the magnitude of the ball's velocity.
func (b *Ball) Speed() float64 {
	return b.Vel.Len()
}

// Integrate starts a new step: it records Prev, forgets the last corner,
// enforces the velocity dead-zone and advances the position by Vel*dt.
// Prev stays fixed until the next call.
func (b *Ball) Integrate(dt float64) {
	b.Prev = b.Pos
	b.LastCorner = nil
	b.Vel = EnforceMinAxisSpeed(b.Vel)
	b.Pos = b.Pos.Add(b.Vel.Mul(dt))
}

// ApplyWalls reflects the ball off the left, right and top walls and marks
// it dead when it crosses the bottom edge. It returns false for a dead ball.
func (b *Ball) ApplyWalls(arena Arena) bool {
	x, y := b.Pos.X(), b.Pos.Y()
	vx, vy := b.Vel.X(), b.Vel.Y()
	r := b.Radius

	switch {
	case x-r < 0:
		x = r
		vx = math.Abs(vx)
	case x+r > arena.Width:
		x = arena.Width - r
		vx = -math.Abs(vx)
	}

	if y-r < 0 {
		y = r
		vy = math.Abs(vy)
	} else if y+r > arena.Height {
		b.Alive = false
	}

	if b.Alive {
		b.Pos = core.V(x, y)
	} else {
		b.Pos = core.V(x, b.Pos.Y())
	}
	b.Vel = core.V(vx, vy)
	return b.Alive
}

// EnforceMinAxisSpeed snaps components inside (-MinAxisSpeed, MinAxisSpeed)
// to ±MinAxisSpeed, keeping their sign. Zero becomes positive.
func EnforceMinAxisSpeed(v mgl64.Vec2) mgl64.Vec2 {
	return core.V(snapAxis(v.X()), snapAxis(v.Y()))
}

func snapAxis(c float64) float64 {
	if math.Abs(c) >= MinAxisSpeed {
		return c
	}
	if c < 0 {
		return -MinAxisSpeed
	}
	return MinAxisSpeed
}

// Paddle is the player-controlled rectangle. Only Left changes at runtime.
type Paddle struct {
	Rect
	Speed float64
}

// Move shifts the paddle by Speed*direction*dt and clamps it inside the arena.
func (p *Paddle) Move(dir core.Direction, dt float64, arena Arena) {
	p.Left += p.Speed * float64(dir) * dt
	p.Left = core.Clamp(p.Left, 0, math.Max(0, arena.Width-p.Width))
}
