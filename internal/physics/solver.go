package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vovakirdan/breakout-sweep/internal/core"
)

// MaxBounceAngle is the widest paddle deflection from straight up.
const MaxBounceAngle = math.Pi / 4

// zeroTime is the tolerance under which a corner root counts as "now".
const zeroTime = 1e-13

// CollisionKind classifies a contact.
type CollisionKind int

const (
	KindNone CollisionKind = iota
	KindPlanarX
	KindPlanarY
	KindCorner
)

func (k CollisionKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPlanarX:
		return "planar-x"
	case KindPlanarY:
		return "planar-y"
	case KindCorner:
		return "corner"
	default:
		return "unknown"
	}
}

// Sweep is one straight segment of a ball's motion inside a step.
type Sweep struct {
	Start  mgl64.Vec2
	End    mgl64.Vec2
	Vel    mgl64.Vec2
	Radius float64

	// SkipCorner is a corner resolved on the previous segment; it is not
	// tested again.
	SkipCorner *mgl64.Vec2
}

// Bounds returns the AABB swept by the circle over the segment.
func (s Sweep) Bounds() core.AABB {
	return core.CircleBox(s.Start, s.Radius).Union(core.CircleBox(s.End, s.Radius))
}

// At returns the center position t seconds after Start.
func (s Sweep) At(t float64) mgl64.Vec2 {
	return s.Start.Add(s.Vel.Mul(t))
}

// CollisionInfo describes the earliest contact of a sweep with a rectangle.
// TOI is measured from the sweep's Start. Contact is the ball center at
// impact.
type CollisionInfo struct {
	Hit     bool
	TOI     float64
	Contact mgl64.Vec2
	Normal  mgl64.Vec2
	Kind    CollisionKind
	Corner  mgl64.Vec2 // only for KindCorner
}

// axisHit is the time the circle reaches the Minkowski-expanded rectangle
// along one axis; t is -1 when the ball is not moving toward that edge.
type axisHit struct {
	t    float64
	edge float64
}

func axisTime(start, vel, lo, hi, radius float64) axisHit {
	edge, toward := hi+radius, vel < 0
	if start < lo {
		edge, toward = lo-radius, vel > 0
	}
	if !toward {
		return axisHit{t: -1}
	}
	return axisHit{t: (edge - start) / vel, edge: edge}
}

func inStep(t, dt float64) bool {
	return t >= 0 && t <= dt
}

// Solve finds the earliest contact between the sweep and r within dt.
//
// Each axis gets a time of impact against the expanded rectangle. The earlier
// valid axis is checked first and a hit on its face is final. Otherwise the
// ball passed that face outside its span, so the four corners are solved
// exactly and compete with the other axis's face, which can still be reached
// later in the step.
func Solve(s Sweep, r Rect, dt float64) (CollisionInfo, error) {
	if !s.Bounds().Overlaps(r.Bounds()) {
		return CollisionInfo{}, nil
	}

	ax := axisTime(s.Start.X(), s.Vel.X(), r.Left, r.Right(), s.Radius)
	ay := axisTime(s.Start.Y(), s.Vel.Y(), r.Top, r.Bottom(), s.Radius)
	vx, vy := inStep(ax.t, dt), inStep(ay.t, dt)

	xFirst := vx && (!vy || ax.t < ay.t)
	switch {
	case xFirst:
		if hit := planarX(s, r, ax); hit.Hit {
			return hit, nil
		}
	case vy:
		if hit := planarY(s, r, ay); hit.Hit {
			return hit, nil
		}
	}

	corners := r.Corners()
	best, err := solveCorners(s, corners[:], dt)
	if err != nil {
		return CollisionInfo{}, err
	}

	var secondary CollisionInfo
	switch {
	case xFirst && vy:
		secondary = planarY(s, r, ay)
	case !xFirst && vy && vx:
		secondary = planarX(s, r, ax)
	}
	if secondary.Hit && (!best.Hit || secondary.TOI < best.TOI) {
		best = secondary
	}
	return best, nil
}

// planarX tests the vertical face reached at a.t.
func planarX(s Sweep, r Rect, a axisHit) CollisionInfo {
	y := s.Start.Y() + s.Vel.Y()*a.t
	if y < r.Top || y > r.Bottom() {
		return CollisionInfo{}
	}
	n := core.V(1, 0)
	if s.Start.X() < r.Left {
		n = core.V(-1, 0)
	}
	return CollisionInfo{
		Hit:     true,
		TOI:     a.t,
		Contact: core.V(a.edge, y),
		Normal:  n,
		Kind:    KindPlanarX,
	}
}

// planarY is planarX for the horizontal faces.
func planarY(s Sweep, r Rect, a axisHit) CollisionInfo {
	x := s.Start.X() + s.Vel.X()*a.t
	if x < r.Left || x > r.Right() {
		return CollisionInfo{}
	}
	n := core.V(0, 1)
	if s.Start.Y() < r.Top {
		n = core.V(0, -1)
	}
	return CollisionInfo{
		Hit:     true,
		TOI:     a.t,
		Contact: core.V(x, a.edge),
		Normal:  n,
		Kind:    KindPlanarY,
	}
}

func solveCorners(s Sweep, corners []mgl64.Vec2, dt float64) (CollisionInfo, error) {
	var best CollisionInfo
	for _, c := range corners {
		if s.SkipCorner != nil && *s.SkipCorner == c {
			continue
		}
		info, err := SolveCorner(s.Start, s.Vel, c, s.Radius, dt)
		if err != nil {
			return CollisionInfo{}, err
		}
		if info.Hit && (!best.Hit || info.TOI < best.TOI) {
			best = info
		}
	}
	return best, nil
}

// SolveCorner intersects the moving circle with a fixed point by solving
// |p0 + v*t - corner|^2 = radius^2. Only the entry root counts, so a ball
// leaving the corner never hits it. An entry root within zeroTime of 0 is
// treated as dt so a contact that was just resolved is not detected again.
func SolveCorner(p0, v, corner mgl64.Vec2, radius, dt float64) (CollisionInfo, error) {
	d := p0.Sub(corner)
	a := v.Dot(v)
	if a == 0 {
		return CollisionInfo{}, nil
	}
	b := 2 * v.Dot(d)
	c := d.Dot(d) - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return CollisionInfo{}, nil
	}
	t := (-b - math.Sqrt(disc)) / (2 * a)
	if math.Abs(t) < zeroTime {
		t = dt
	}
	if !inStep(t, dt) {
		return CollisionInfo{}, nil
	}

	impact := p0.Add(v.Mul(t))
	n := impact.Sub(corner)
	l := n.Len()
	if l == 0 {
		return CollisionInfo{}, fmt.Errorf("%w: center on corner (%g, %g)", ErrDegenerateCorner, corner.X(), corner.Y())
	}
	n = n.Mul(1 / l)
	return CollisionInfo{
		Hit:     true,
		TOI:     t,
		Contact: corner.Add(n.Mul(radius)),
		Normal:  n,
		Kind:    KindCorner,
		Corner:  corner,
	}, nil
}

// SolvePaddle tests the sweep against the paddle. Only the top face is
// modeled: when the vertical time of impact controls, the contact is where
// the ball meets the top face; otherwise the end of the segment is projected
// onto the top face at dt. A ball moving up never hits the paddle.
func SolvePaddle(s Sweep, paddle Rect, dt float64) CollisionInfo {
	if s.Vel.Y() <= 0 || !s.Bounds().Overlaps(paddle.Bounds()) {
		return CollisionInfo{}
	}

	topY := paddle.Top - s.Radius
	ax := axisTime(s.Start.X(), s.Vel.X(), paddle.Left, paddle.Right(), s.Radius)
	ty := (topY - s.Start.Y()) / s.Vel.Y()

	if inStep(ty, dt) && (ax.t < 0 || ty < ax.t) {
		return CollisionInfo{
			Hit:     true,
			TOI:     ty,
			Contact: core.V(s.Start.X()+s.Vel.X()*ty, topY),
			Normal:  core.V(0, -1),
			Kind:    KindPlanarY,
		}
	}
	return CollisionInfo{
		Hit:     true,
		TOI:     dt,
		Contact: core.V(s.End.X(), topY),
		Normal:  core.V(0, -1),
		Kind:    KindPlanarY,
	}
}

// Reflect mirrors v about the surface with unit normal n.
func Reflect(v, n mgl64.Vec2) mgl64.Vec2 {
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// PaddleBounce returns the velocity after a paddle hit at contactX. The
// direction sweeps linearly from 45° left of straight up at the paddle's left
// edge to 45° right at its right edge; the magnitude is speed.
func PaddleBounce(speed, contactX float64, paddle Rect) mgl64.Vec2 {
	half := paddle.Width / 2
	offset := 0.0
	if half > 0 {
		offset = core.Clamp((contactX-paddle.CenterX())/half, -1, 1)
	}
	angle := -math.Pi/2 + MaxBounceAngle*offset
	return core.V(math.Cos(angle)*speed, math.Sin(angle)*speed)
}

// BounceAngle returns the angle of v from straight up, positive to the right.
func BounceAngle(v mgl64.Vec2) float64 {
	return math.Atan2(v.X(), -v.Y())
}
