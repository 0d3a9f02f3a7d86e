package sim

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/breakout-sweep/internal/physics"
)

// MaxResolveIterations bounds the collisions resolved for one ball in one
// step. Time left when the bound is reached is travelled without further
// tests.
const MaxResolveIterations = 16

// queryRadius is the cell margin added around a swept box.
const queryRadius = 1

// Options tunes a Manager.
type Options struct {
	// Workers is the number of balls resolved concurrently. Values below 2
	// resolve serially.
	Workers int

	// CheckGrid verifies grid membership after every re-index and delete.
	CheckGrid bool
}

// Contact is one resolved collision in a ball's chain.
type Contact struct {
	Rect     physics.RectID
	Kind     physics.CollisionKind
	At       float64 // Time since the start of the step
	Contact  mgl64.Vec2
	Normal   mgl64.Vec2
	VelAfter mgl64.Vec2
}

// StepReport describes what happened during one Manager.Step.
type StepReport struct {
	// Contacts[i] is the collision chain of ball i, in order.
	Contacts [][]Contact
	// Consumed[i] is the time ball i travelled. It equals dt for every ball
	// that was alive at the start of the step.
	Consumed []float64
	// Destroyed lists removed blocks in ascending id order.
	Destroyed []physics.RectID
	BallsLost int
}

// Manager runs the per-step broad and narrow phase for a set of balls
// against the blocks and the paddle held in a RectTable.
type Manager struct {
	arena  physics.Arena
	table  *RectTable
	grid   *physics.Grid
	paddle physics.RectID
	opts   Options
	log    *log.Logger
}

// NewManager indexes every live rectangle of table into a grid whose cell
// size is cellSize.
func NewManager(arena physics.Arena, table *RectTable, paddle physics.RectID, cellSize float64, opts Options, logger *log.Logger) *Manager {
	m := &Manager{
		arena:  arena,
		table:  table,
		grid:   physics.NewGrid(arena, cellSize),
		paddle: paddle,
		opts:   opts,
		log:    logger,
	}
	for id := range physics.RectID(table.Len()) {
		if table.Live(id) {
			m.grid.Update(id, table.Get(id))
		}
	}
	return m
}

// Grid exposes the broad-phase index.
func (m *Manager) Grid() *physics.Grid {
	return m.grid
}

// Step resolves every live ball over dt. Balls must already be integrated:
// Prev is the start of the step and Vel the velocity to sweep with. Blocks
// hit by any ball are removed from the table and the grid after all balls
// are done.
func (m *Manager) Step(balls []*physics.Ball, dt float64) (StepReport, error) {
	if err := m.reindex(); err != nil {
		return StepReport{}, err
	}

	report := StepReport{
		Contacts: make([][]Contact, len(balls)),
		Consumed: make([]float64, len(balls)),
	}
	claims := newClaimSet()

	var g errgroup.Group
	g.SetLimit(max(1, m.opts.Workers))
	for i, b := range balls {
		if !b.Alive {
			continue
		}
		g.Go(func() error {
			trace, used, err := m.resolve(b, dt, claims)
			report.Contacts[i] = trace
			report.Consumed[i] = used
			if err != nil {
				return fmt.Errorf("ball %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	report.Destroyed = claims.ids()
	for _, id := range report.Destroyed {
		m.table.Kill(id)
		m.grid.Remove(id)
		if m.opts.CheckGrid {
			if cells := m.grid.CellsOf(id); len(cells) != 0 {
				return report, fmt.Errorf("%w: destroyed rect %d still in %d cells", physics.ErrInconsistentGrid, id, len(cells))
			}
		}
		if m.log != nil {
			r := m.table.Get(id)
			m.log.Debug("block destroyed", "id", id, "left", r.Left, "top", r.Top)
		}
	}

	for _, b := range balls {
		if !b.Alive {
			report.BallsLost++
		}
	}
	return report, nil
}

// reindex brings the grid up to date with the table. Only the paddle moves
// between steps, so blocks are normally no-ops.
func (m *Manager) reindex() error {
	for id := range physics.RectID(m.table.Len()) {
		if !m.table.Live(id) {
			continue
		}
		r := m.table.Get(id)
		m.grid.Update(id, r)
		if m.opts.CheckGrid {
			if err := m.grid.Verify(id, r); err != nil {
				return err
			}
		}
	}
	if m.opts.CheckGrid {
		return m.grid.VerifyCells()
	}
	return nil
}

// resolve walks one ball through its collision chain. Each segment starts
// at the previous contact and lasts for the remaining time. A rectangle hit
// once in the chain is not tested again until the next step.
func (m *Manager) resolve(b *physics.Ball, dt float64, claims *claimSet) ([]Contact, float64, error) {
	var trace []Contact
	var hit []physics.RectID

	start := b.Prev
	remaining := dt
	consumed := 0.0

	for range MaxResolveIterations {
		if remaining <= 0 {
			break
		}
		s := physics.Sweep{
			Start:      start,
			End:        start.Add(b.Vel.Mul(remaining)),
			Vel:        b.Vel,
			Radius:     b.Radius,
			SkipCorner: b.LastCorner,
		}

		id, info, err := m.earliest(s, remaining, hit)
		if err != nil {
			return trace, consumed, err
		}
		if !info.Hit {
			b.Pos = s.End
			consumed += remaining
			remaining = 0
			break
		}

		m.respond(b, id, info)
		hit = append(hit, id)
		if id != m.paddle {
			claims.claim(id)
		}

		consumed += info.TOI
		remaining -= info.TOI
		start = info.Contact
		trace = append(trace, Contact{
			Rect:     id,
			Kind:     info.Kind,
			At:       consumed,
			Contact:  info.Contact,
			Normal:   info.Normal,
			VelAfter: b.Vel,
		})
	}

	if remaining > 0 {
		b.Pos = start.Add(b.Vel.Mul(remaining))
		consumed += remaining
	}

	if !b.ApplyWalls(m.arena) && m.log != nil {
		m.log.Debug("ball lost", "x", b.Pos.X(), "y", b.Pos.Y())
	}
	return trace, consumed, nil
}

// earliest tests every candidate near the segment and returns the first
// contact. Equal times go to the lower id.
func (m *Manager) earliest(s physics.Sweep, dt float64, skip []physics.RectID) (physics.RectID, physics.CollisionInfo, error) {
	var (
		bestID physics.RectID = -1
		best   physics.CollisionInfo
	)
	for _, id := range m.grid.QueryBox(s.Bounds(), queryRadius) {
		if slices.Contains(skip, id) || !m.table.Live(id) {
			continue
		}
		r := m.table.Get(id)

		var info physics.CollisionInfo
		if id == m.paddle {
			info = physics.SolvePaddle(s, r, dt)
		} else {
			var err error
			info, err = physics.Solve(s, r, dt)
			if err != nil {
				return -1, physics.CollisionInfo{}, fmt.Errorf("rect %d: %w", id, err)
			}
		}
		if info.Hit && (!best.Hit || info.TOI < best.TOI) {
			bestID, best = id, info
		}
	}
	return bestID, best, nil
}

// respond snaps the ball to the contact and sets its new velocity. Planar
// hits point the reflected component along the face normal. Speed is
// preserved for every kind of hit.
func (m *Manager) respond(b *physics.Ball, id physics.RectID, info physics.CollisionInfo) {
	b.Pos = info.Contact
	b.LastCorner = nil

	switch {
	case id == m.paddle:
		b.Vel = physics.PaddleBounce(b.Speed(), info.Contact.X(), m.table.Get(id))
	case info.Kind == physics.KindPlanarX:
		b.Vel = mgl64.Vec2{math.Copysign(b.Vel.X(), info.Normal.X()), b.Vel.Y()}
	case info.Kind == physics.KindPlanarY:
		b.Vel = mgl64.Vec2{b.Vel.X(), math.Copysign(b.Vel.Y(), info.Normal.Y())}
	case info.Kind == physics.KindCorner:
		b.Vel = physics.Reflect(b.Vel, info.Normal)
		corner := info.Corner
		b.LastCorner = &corner
	}
}

// claimSet records destroyed blocks. The first claim of an id wins; later
// claims by other balls in the same step are ignored.
type claimSet struct {
	mu  sync.Mutex
	set map[physics.RectID]struct{}
}

func newClaimSet() *claimSet {
	return &claimSet{set: make(map[physics.RectID]struct{})}
}

func (c *claimSet) claim(id physics.RectID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.set[id]; ok {
		return false
	}
	c.set[id] = struct{}{}
	return true
}

func (c *claimSet) ids() []physics.RectID {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]physics.RectID, 0, len(c.set))
	for id := range c.set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
