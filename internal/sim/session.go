// Package sim runs breakout sessions on top of the physics package: the
// per-step collision manager, the session state machine, snapshots and
// headless rollouts.
package sim

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/vovakirdan/breakout-sweep/internal/core"
	"github.com/vovakirdan/breakout-sweep/internal/physics"
)

// BallSpec describes a ball at session start.
type BallSpec struct {
	Pos    mgl64.Vec2
	Vel    mgl64.Vec2
	Radius float64
}

// Setup is everything needed to build a session.
type Setup struct {
	Arena  physics.Arena
	Blocks []physics.Rect
	Paddle physics.Paddle
	Balls  []BallSpec

	// StepLimit ends the session after that many steps. Zero means no limit.
	StepLimit int
}

// BallState is a read-only view of a ball.
type BallState struct {
	Pos    mgl64.Vec2
	Vel    mgl64.Vec2
	Radius float64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for block, ball and outcome events.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithWorkers resolves up to n balls concurrently per step.
func WithWorkers(n int) Option {
	return func(s *Session) { s.opts.Workers = n }
}

// WithGridCheck verifies the spatial grid on every step.
func WithGridCheck() Option {
	return func(s *Session) { s.opts.CheckGrid = true }
}

// Session is one independent breakout simulation. It is not safe for
// concurrent use; separate sessions share nothing and may run in parallel.
type Session struct {
	arena    physics.Arena
	table    *RectTable
	paddleID physics.RectID
	paddle   physics.Paddle
	balls    []*physics.Ball
	mgr      *Manager

	opts      Options
	log       *log.Logger
	cellSize  float64
	stepLimit int
	total     int // Blocks at session start

	step      int
	broken    int
	won       bool
	lost      bool
	truncated bool
	last      StepReport
}

// New builds a session from setup.
func New(setup Setup, opts ...Option) (*Session, error) {
	if err := validate(setup); err != nil {
		return nil, err
	}

	s := &Session{
		arena:     setup.Arena,
		paddle:    setup.Paddle,
		stepLimit: setup.StepLimit,
		total:     len(setup.Blocks),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.table = NewRectTable(setup.Blocks)
	s.paddleID = s.table.Add(setup.Paddle.Rect)

	minRadius := math.Inf(1)
	for _, spec := range setup.Balls {
		b, err := physics.NewBall(spec.Pos, spec.Vel, spec.Radius)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSetup, err)
		}
		s.balls = append(s.balls, b)
		minRadius = math.Min(minRadius, spec.Radius)
	}
	s.cellSize = 2 * minRadius
	s.mgr = NewManager(s.arena, s.table, s.paddleID, s.cellSize, s.opts, s.log)
	s.won = s.total == 0
	return s, nil
}

func validate(setup Setup) error {
	a := setup.Arena
	if a.Width <= 0 || a.Height <= 0 {
		return fmt.Errorf("%w: arena %vx%v", ErrInvalidSetup, a.Width, a.Height)
	}
	if len(setup.Balls) == 0 {
		return fmt.Errorf("%w: no balls", ErrInvalidSetup)
	}
	for i, r := range setup.Blocks {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: block %d: %w", ErrInvalidSetup, i, err)
		}
	}
	if err := setup.Paddle.Validate(); err != nil {
		return fmt.Errorf("%w: paddle: %w", ErrInvalidSetup, err)
	}
	if setup.Paddle.Speed < 0 {
		return fmt.Errorf("%w: negative paddle speed", ErrInvalidSetup)
	}
	for i, b := range setup.Balls {
		if b.Radius <= 0 {
			return fmt.Errorf("%w: ball %d radius %v", ErrInvalidSetup, i, b.Radius)
		}
		x, y := b.Pos.X(), b.Pos.Y()
		if x < b.Radius || x > a.Width-b.Radius || y < b.Radius || y > a.Height-b.Radius {
			return fmt.Errorf("%w: ball %d at (%v, %v) outside arena", ErrInvalidSetup, i, x, y)
		}
	}
	if setup.StepLimit < 0 {
		return fmt.Errorf("%w: negative step limit", ErrInvalidSetup)
	}
	return nil
}

// Advance simulates dt seconds with the paddle moving in dir. A finished
// session ignores the call.
func (s *Session) Advance(dt float64, dir core.Direction) error {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return fmt.Errorf("%w: %v", ErrInvalidStepTime, dt)
	}
	if s.Done() {
		return nil
	}

	s.paddle.Move(dir, dt, s.arena)
	s.table.Set(s.paddleID, s.paddle.Rect)

	for _, b := range s.balls {
		b.Integrate(dt)
	}

	before := s.liveBlocks()
	report, err := s.mgr.Step(s.balls, dt)
	if err != nil {
		return fmt.Errorf("step %d: %w", s.step, err)
	}
	s.last = report

	alive := s.balls[:0]
	for _, b := range s.balls {
		if b.Alive {
			alive = append(alive, b)
		}
	}
	clear(s.balls[len(alive):])
	s.balls = alive

	after := s.liveBlocks()
	s.broken = before - after
	s.step++

	switch {
	case after == 0:
		s.won = true
		s.logf("session won", "step", s.step)
	case len(s.balls) == 0:
		s.lost = true
		s.logf("session lost", "step", s.step, "blocks_left", after)
	case s.stepLimit > 0 && s.step >= s.stepLimit:
		s.truncated = true
		s.logf("step limit reached", "step", s.step, "blocks_left", after)
	}
	return nil
}

func (s *Session) logf(msg string, kv ...any) {
	if s.log != nil {
		s.log.Info(msg, kv...)
	}
}

func (s *Session) liveBlocks() int {
	n := 0
	for id := range physics.RectID(s.table.Len()) {
		if id != s.paddleID && s.table.Live(id) {
			n++
		}
	}
	return n
}

// Balls returns the live balls.
func (s *Session) Balls() []BallState {
	out := make([]BallState, len(s.balls))
	for i, b := range s.balls {
		out[i] = BallState{Pos: b.Pos, Vel: b.Vel, Radius: b.Radius}
	}
	return out
}

// Blocks returns the remaining blocks in id order.
func (s *Session) Blocks() []physics.Rect {
	ids := s.BlockIDs()
	out := make([]physics.Rect, len(ids))
	for i, id := range ids {
		out[i] = s.table.Get(id)
	}
	return out
}

// BlockIDs returns the ids of the remaining blocks.
func (s *Session) BlockIDs() []physics.RectID {
	var out []physics.RectID
	for id := range physics.RectID(s.table.Len()) {
		if id != s.paddleID && s.table.Live(id) {
			out = append(out, id)
		}
	}
	return out
}

// Paddle returns the paddle.
func (s *Session) Paddle() physics.Paddle { return s.paddle }

// Arena returns the playfield size.
func (s *Session) Arena() physics.Arena { return s.arena }

// Won reports whether every block is gone.
func (s *Session) Won() bool { return s.won }

// Lost reports whether every ball is gone.
func (s *Session) Lost() bool { return s.lost }

// Truncated reports whether the step limit ended the session.
func (s *Session) Truncated() bool { return s.truncated }

// Done reports whether the session has ended for any reason.
func (s *Session) Done() bool { return s.won || s.lost || s.truncated }

// BlocksBroken returns the blocks destroyed by the last Advance.
func (s *Session) BlocksBroken() int { return s.broken }

// BlocksCleared returns the blocks destroyed since the session started.
func (s *Session) BlocksCleared() int { return s.total - s.liveBlocks() }

// BlocksTotal returns the number of blocks the session started with.
func (s *Session) BlocksTotal() int { return s.total }

// Step returns the number of completed Advance calls.
func (s *Session) Step() int { return s.step }

// LastReport returns the manager report of the last Advance.
func (s *Session) LastReport() StepReport { return s.last }

// Grid exposes the broad-phase index for inspection.
func (s *Session) Grid() *physics.Grid { return s.mgr.Grid() }
