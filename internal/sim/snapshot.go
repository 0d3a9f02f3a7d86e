package sim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vovakirdan/breakout-sweep/internal/physics"
)

// Snapshot is the complete state of a session. Restoring it into a session
// and advancing with the same inputs reproduces the same outcome.
type Snapshot struct {
	Arena     physics.Arena  `msgpack:"arena"`
	Rects     []physics.Rect `msgpack:"rects"`
	Live      []bool         `msgpack:"live"`
	PaddleID  int            `msgpack:"paddle_id"`
	Paddle    physics.Paddle `msgpack:"paddle"`
	Balls     []BallSnapshot `msgpack:"balls"`
	CellSize  float64        `msgpack:"cell_size"`
	StepLimit int            `msgpack:"step_limit"`
	Total     int            `msgpack:"total"`
	Step      int            `msgpack:"step"`
	Broken    int            `msgpack:"broken"`
	Won       bool           `msgpack:"won"`
	Lost      bool           `msgpack:"lost"`
	Truncated bool           `msgpack:"truncated"`
}

// BallSnapshot is the full state of one ball.
type BallSnapshot struct {
	Pos        mgl64.Vec2  `msgpack:"pos"`
	Prev       mgl64.Vec2  `msgpack:"prev"`
	Vel        mgl64.Vec2  `msgpack:"vel"`
	Radius     float64     `msgpack:"radius"`
	LastCorner *mgl64.Vec2 `msgpack:"last_corner"`
}

// Snapshot captures the session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Arena:     s.arena,
		Rects:     append([]physics.Rect(nil), s.table.rects...),
		Live:      append([]bool(nil), s.table.live...),
		PaddleID:  int(s.paddleID),
		Paddle:    s.paddle,
		CellSize:  s.cellSize,
		StepLimit: s.stepLimit,
		Total:     s.total,
		Step:      s.step,
		Broken:    s.broken,
		Won:       s.won,
		Lost:      s.lost,
		Truncated: s.truncated,
	}
	for _, b := range s.balls {
		bs := BallSnapshot{Pos: b.Pos, Prev: b.Prev, Vel: b.Vel, Radius: b.Radius}
		if b.LastCorner != nil {
			c := *b.LastCorner
			bs.LastCorner = &c
		}
		snap.Balls = append(snap.Balls, bs)
	}
	return snap
}

// Restore replaces the session state with snap. Options given to New are
// kept. The last step report is cleared.
func (s *Session) Restore(snap Snapshot) error {
	if len(snap.Rects) != len(snap.Live) {
		return fmt.Errorf("%w: %d rects but %d live flags", ErrInvalidSetup, len(snap.Rects), len(snap.Live))
	}
	if snap.PaddleID < 0 || snap.PaddleID >= len(snap.Rects) {
		return fmt.Errorf("%w: paddle id %d out of range", ErrInvalidSetup, snap.PaddleID)
	}
	if snap.Arena.Width <= 0 || snap.Arena.Height <= 0 || !(snap.CellSize > 0) {
		return fmt.Errorf("%w: arena %vx%v cell %v", ErrInvalidSetup, snap.Arena.Width, snap.Arena.Height, snap.CellSize)
	}

	balls := make([]*physics.Ball, 0, len(snap.Balls))
	for i, bs := range snap.Balls {
		b, err := physics.NewBall(bs.Pos, bs.Vel, bs.Radius)
		if err != nil {
			return fmt.Errorf("%w: ball %d: %w", ErrInvalidSetup, i, err)
		}
		b.Prev = bs.Prev
		if bs.LastCorner != nil {
			c := *bs.LastCorner
			b.LastCorner = &c
		}
		balls = append(balls, b)
	}

	s.arena = snap.Arena
	s.table = &RectTable{
		rects: append([]physics.Rect(nil), snap.Rects...),
		live:  append([]bool(nil), snap.Live...),
	}
	s.paddleID = physics.RectID(snap.PaddleID)
	s.paddle = snap.Paddle
	s.table.Set(s.paddleID, s.paddle.Rect)
	s.balls = balls
	s.cellSize = snap.CellSize
	s.stepLimit = snap.StepLimit
	s.total = snap.Total
	s.step = snap.Step
	s.broken = snap.Broken
	s.won = snap.Won
	s.lost = snap.Lost
	s.truncated = snap.Truncated
	s.last = StepReport{}
	s.mgr = NewManager(s.arena, s.table, s.paddleID, s.cellSize, s.opts, s.log)
	return nil
}

// MarshalBinary encodes the snapshot with msgpack.
func (snap Snapshot) MarshalBinary() ([]byte, error) {
	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalBinary decodes a snapshot produced by MarshalBinary.
func (snap *Snapshot) UnmarshalBinary(data []byte) error {
	if err := msgpack.Unmarshal(data, snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return nil
}

// Hash returns a deterministic hash of the snapshot for comparing runs.
func (snap Snapshot) Hash() uint64 {
	h := uint64(snap.Step)
	mix := func(f float64) { h = h*31 + math.Float64bits(f) }
	mixVec := func(v mgl64.Vec2) { mix(v.X()); mix(v.Y()) }

	mix(snap.Paddle.Left)
	for i, r := range snap.Rects {
		if !snap.Live[i] {
			continue
		}
		h = h*31 + uint64(i) //#nosec G115 -- hash computation
		mix(r.Left)
		mix(r.Top)
	}
	for _, b := range snap.Balls {
		mixVec(b.Pos)
		mixVec(b.Vel)
	}
	for _, flag := range []bool{snap.Won, snap.Lost, snap.Truncated} {
		h *= 31
		if flag {
			h++
		}
	}
	return h
}
