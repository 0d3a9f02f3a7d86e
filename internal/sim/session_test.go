package sim

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/vovakirdan/breakout-sweep/internal/core"
	"github.com/vovakirdan/breakout-sweep/internal/physics"
)

const tol = 1e-9

// wallSetup is a 5x10 wall of 100x30 blocks in a 1200x800 arena with the
// paddle near the bottom.
func wallSetup(balls ...BallSpec) Setup {
	arena := physics.Arena{Width: 1200, Height: 800}
	var blocks []physics.Rect
	gap := (arena.Width - 10*100) / 11
	for col := range 10 {
		for row := range 5 {
			blocks = append(blocks, physics.RectAt(gap+float64(col)*(gap+100), 60+float64(row)*60, 100, 30))
		}
	}
	if len(balls) == 0 {
		balls = []BallSpec{{Pos: core.V(600, 400), Vel: core.V(0, 200), Radius: 7}}
	}
	return Setup{
		Arena:  arena,
		Blocks: blocks,
		Paddle: physics.Paddle{Rect: physics.RectAt(550, 785, 100, 5), Speed: 500},
		Balls:  balls,
	}
}

func TestAdvanceFallingOntoBlock(t *testing.T) {
	setup := Setup{
		Arena:  physics.Arena{Width: 400, Height: 400},
		Blocks: []physics.Rect{physics.RectAt(40, 100, 100, 30)},
		Paddle: physics.Paddle{Rect: physics.RectAt(300, 380, 50, 5), Speed: 500},
		Balls:  []BallSpec{{Pos: core.V(50, 50), Vel: core.V(0, 300), Radius: 7}},
	}
	s, err := New(setup, WithGridCheck())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Advance(1.0, core.DirStay); err != nil {
		t.Fatalf("Advance() failed: %v", err)
	}

	rep := s.LastReport()
	if len(rep.Contacts[0]) != 1 {
		t.Fatalf("expected one contact, got %+v", rep.Contacts[0])
	}
	c := rep.Contacts[0][0]
	if c.Kind != physics.KindPlanarY || c.Rect != 0 {
		t.Errorf("contact = %+v, want planar-y on block 0", c)
	}
	if !core.NearlyEqual(c.Contact.Y(), 93, tol) {
		t.Errorf("contact y = %v, want 93", c.Contact.Y())
	}
	if c.VelAfter.Y() != -300 {
		t.Errorf("dy after hit = %v, want -300", c.VelAfter.Y())
	}
	if !core.NearlyEqual(c.At, (93.0-50)/300, tol) {
		t.Errorf("time of impact = %v, want %v", c.At, (93.0-50)/300)
	}
	if !core.NearlyEqual(rep.Consumed[0], 1.0, tol) {
		t.Errorf("consumed = %v, want the whole step", rep.Consumed[0])
	}
	if !slices.Equal(rep.Destroyed, []physics.RectID{0}) {
		t.Errorf("destroyed = %v, want [0]", rep.Destroyed)
	}
	if len(s.Blocks()) != 0 || s.BlocksBroken() != 1 || s.BlocksCleared() != 1 {
		t.Errorf("blocks left %d, broken %d, cleared %d; want 0, 1, 1", len(s.Blocks()), s.BlocksBroken(), s.BlocksCleared())
	}
	if cells := s.Grid().CellsOf(0); len(cells) != 0 {
		t.Errorf("destroyed block still indexed in %v", cells)
	}
	if !s.Won() || !s.Done() {
		t.Error("session should be won once the last block is gone")
	}
}

func TestAdvancePaddleEdgeBounce(t *testing.T) {
	setup := Setup{
		Arena:  physics.Arena{Width: 600, Height: 400},
		Blocks: []physics.Rect{physics.RectAt(10, 10, 20, 10)},
		Paddle: physics.Paddle{Rect: physics.RectAt(250, 380, 100, 5), Speed: 500},
		Balls:  []BallSpec{{Pos: core.V(350, 300), Vel: core.V(0, 200), Radius: 7}},
	}
	s, err := New(setup)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Advance(0.5, core.DirStay); err != nil {
		t.Fatal(err)
	}

	contacts := s.LastReport().Contacts[0]
	if len(contacts) != 1 || contacts[0].Rect != 1 {
		t.Fatalf("contacts = %+v, want one paddle hit", contacts)
	}
	v := contacts[0].VelAfter
	if angle := physics.BounceAngle(v) * 180 / math.Pi; !core.NearlyEqual(angle, 45, tol) {
		t.Errorf("bounce angle = %v°, want 45°", angle)
	}
	// The x component was lifted to the minimum axis speed before impact.
	if want := core.V(2, 200).Len(); !core.NearlyEqual(v.Len(), want, tol) {
		t.Errorf("speed after bounce = %v, want %v", v.Len(), want)
	}
	if got := s.Balls()[0].Vel; got != v {
		t.Errorf("ball velocity %v differs from bounce %v", got, v)
	}
}

func TestAdvanceSharedBlockDestroyedOnce(t *testing.T) {
	setup := Setup{
		Arena: physics.Arena{Width: 400, Height: 400},
		Blocks: []physics.Rect{
			physics.RectAt(100, 100, 100, 30),
			physics.RectAt(300, 300, 50, 20),
		},
		Paddle: physics.Paddle{Rect: physics.RectAt(0, 390, 50, 5), Speed: 500},
		Balls: []BallSpec{
			{Pos: core.V(120, 50), Vel: core.V(0, 300), Radius: 7},
			{Pos: core.V(180, 50), Vel: core.V(0, 300), Radius: 7},
		},
	}

	for _, workers := range []int{1, 2} {
		s, err := New(setup, WithWorkers(workers), WithGridCheck())
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Advance(0.5, core.DirStay); err != nil {
			t.Fatal(err)
		}
		rep := s.LastReport()
		if !slices.Equal(rep.Destroyed, []physics.RectID{0}) {
			t.Errorf("workers=%d destroyed = %v, want [0]", workers, rep.Destroyed)
		}
		for i, chain := range rep.Contacts {
			if len(chain) == 0 || chain[0].Rect != 0 {
				t.Errorf("workers=%d ball %d chain = %+v, want a hit on block 0", workers, i, chain)
			}
		}
		if s.BlocksBroken() != 1 {
			t.Errorf("workers=%d BlocksBroken() = %d, want 1", workers, s.BlocksBroken())
		}
		if !slices.Equal(s.BlockIDs(), []physics.RectID{1}) {
			t.Errorf("workers=%d BlockIDs() = %v, want [1]", workers, s.BlockIDs())
		}
	}
}

func TestAdvanceSeamBetweenBlocks(t *testing.T) {
	// The ball lands exactly on the seam of two touching blocks. The lower
	// id takes the hit and the bounce leaves the neighbor untouched.
	setup := Setup{
		Arena: physics.Arena{Width: 400, Height: 400},
		Blocks: []physics.Rect{
			physics.RectAt(100, 100, 100, 30),
			physics.RectAt(200, 100, 100, 30),
		},
		Paddle: physics.Paddle{Rect: physics.RectAt(0, 390, 50, 5), Speed: 500},
		Balls:  []BallSpec{{Pos: core.V(199, 18), Vel: core.V(4, 300), Radius: 7}},
	}
	s, err := New(setup, WithGridCheck())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Advance(0.5, core.DirStay); err != nil {
		t.Fatal(err)
	}

	rep := s.LastReport()
	if !slices.Equal(rep.Destroyed, []physics.RectID{0}) {
		t.Errorf("destroyed = %v, want [0]", rep.Destroyed)
	}
	if len(rep.Contacts[0]) != 1 || rep.Contacts[0][0].Rect != 0 {
		t.Fatalf("contacts = %+v, want one hit on block 0", rep.Contacts[0])
	}
	if !core.NearlyEqual(rep.Contacts[0][0].At, 0.25, tol) {
		t.Errorf("time of impact = %v, want 0.25", rep.Contacts[0][0].At)
	}
	if got := s.Balls()[0].Vel; got != core.V(4, -300) {
		t.Errorf("velocity = %v, want (4,-300)", got)
	}
	if !slices.Equal(s.BlockIDs(), []physics.RectID{1}) {
		t.Errorf("BlockIDs() = %v, want [1]", s.BlockIDs())
	}
}

func TestAdvanceInvalidStepTime(t *testing.T) {
	s, err := New(wallSetup())
	if err != nil {
		t.Fatal(err)
	}
	for _, dt := range []float64{0, -0.01, math.NaN(), math.Inf(1)} {
		if err := s.Advance(dt, core.DirStay); !errors.Is(err, ErrInvalidStepTime) {
			t.Errorf("Advance(%v) error = %v, want ErrInvalidStepTime", dt, err)
		}
	}
	if s.Step() != 0 {
		t.Errorf("rejected steps advanced the counter to %d", s.Step())
	}
}

func TestNewRejectsInvalidSetup(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Setup)
	}{
		{"no balls", func(s *Setup) { s.Balls = nil }},
		{"zero radius", func(s *Setup) { s.Balls[0].Radius = 0 }},
		{"ball outside", func(s *Setup) { s.Balls[0].Pos = core.V(-5, 10) }},
		{"empty arena", func(s *Setup) { s.Arena.Width = 0 }},
		{"flat block", func(s *Setup) { s.Blocks[3].Height = 0 }},
		{"flat paddle", func(s *Setup) { s.Paddle.Width = 0 }},
		{"negative limit", func(s *Setup) { s.StepLimit = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup := wallSetup()
			tt.mutate(&setup)
			if _, err := New(setup); !errors.Is(err, ErrInvalidSetup) {
				t.Errorf("New() error = %v, want ErrInvalidSetup", err)
			}
		})
	}
}

func TestSessionLost(t *testing.T) {
	setup := wallSetup(BallSpec{Pos: core.V(100, 700), Vel: core.V(0, 400), Radius: 7})
	s, err := New(setup)
	if err != nil {
		t.Fatal(err)
	}
	for range 100 {
		if err := s.Advance(0.05, core.DirStay); err != nil {
			t.Fatal(err)
		}
	}
	if !s.Lost() || !s.Done() || s.Won() {
		t.Fatalf("Lost=%v Done=%v Won=%v, want lost", s.Lost(), s.Done(), s.Won())
	}
	if len(s.Balls()) != 0 {
		t.Errorf("dead ball still listed: %+v", s.Balls())
	}
	if s.Step() >= 100 {
		t.Errorf("Step() = %d, finished session kept advancing", s.Step())
	}
}

func TestSessionStepLimit(t *testing.T) {
	setup := wallSetup()
	setup.StepLimit = 5
	s, err := New(setup)
	if err != nil {
		t.Fatal(err)
	}
	for range 10 {
		if err := s.Advance(DefaultDT, core.DirStay); err != nil {
			t.Fatal(err)
		}
	}
	if !s.Truncated() || s.Step() != 5 {
		t.Errorf("Truncated=%v Step=%d, want true, 5", s.Truncated(), s.Step())
	}
}

// TestSessionProperties drives a multi-ball session with the tracking
// autopilot and checks the per-step guarantees after every Advance.
func TestSessionProperties(t *testing.T) {
	setup := wallSetup(
		BallSpec{Pos: core.V(600, 400), Vel: core.V(60, 190), Radius: 7},
		BallSpec{Pos: core.V(300, 450), Vel: core.V(-150, -140), Radius: 7},
		BallSpec{Pos: core.V(900, 500), Vel: core.V(120, -160), Radius: 7},
	)
	s, err := New(setup, WithGridCheck(), WithWorkers(3))
	if err != nil {
		t.Fatal(err)
	}
	arena := s.Arena()

	for step := 0; step < 4000 && !s.Done(); step++ {
		before := s.Balls()
		blocksBefore := s.BlockIDs()

		if err := s.Advance(DefaultDT, Track(s)); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		rep := s.LastReport()

		for i, used := range rep.Consumed {
			if !core.NearlyEqual(used, DefaultDT, 1e-12) {
				t.Fatalf("step %d ball %d consumed %v of %v", step, i, used, DefaultDT)
			}
		}

		for _, b := range s.Balls() {
			r := b.Radius
			if b.Pos.X() < r-tol || b.Pos.X() > arena.Width-r+tol || b.Pos.Y() < r-tol || b.Pos.Y() > arena.Height-r+tol {
				t.Fatalf("step %d: ball at %v escaped the arena", step, b.Pos)
			}
		}

		if rep.BallsLost == 0 {
			for i, b := range s.Balls() {
				want := physics.EnforceMinAxisSpeed(before[i].Vel).Len()
				if !core.NearlyEqual(b.Vel.Len(), want, 1e-9*want) {
					t.Fatalf("step %d ball %d speed %v, want %v", step, i, b.Vel.Len(), want)
				}
				// A paddle bounce may leave a slow component until the
				// next step; untouched balls keep the integrated velocity.
				if len(rep.Contacts[i]) == 0 {
					if math.Abs(b.Vel.X()) < physics.MinAxisSpeed || math.Abs(b.Vel.Y()) < physics.MinAxisSpeed {
						t.Fatalf("step %d: velocity %v inside the dead zone", step, b.Vel)
					}
				}
			}
		}

		live := s.BlockIDs()
		for _, chain := range rep.Contacts {
			for _, c := range chain {
				if c.Rect == physics.RectID(len(setup.Blocks)) {
					continue
				}
				if slices.Contains(live, c.Rect) {
					t.Fatalf("step %d: block %d hit but still present", step, c.Rect)
				}
				if len(s.Grid().CellsOf(c.Rect)) != 0 {
					t.Fatalf("step %d: block %d hit but still indexed", step, c.Rect)
				}
			}
		}
		if got := len(blocksBefore) - len(live); got != s.BlocksBroken() || got != len(rep.Destroyed) {
			t.Fatalf("step %d: broken %d, destroyed %d, count delta %d", step, s.BlocksBroken(), len(rep.Destroyed), got)
		}
	}
	if s.Step() == 0 {
		t.Fatal("session did not advance")
	}
}

func TestDeterministicAcrossWorkers(t *testing.T) {
	setup := wallSetup(
		BallSpec{Pos: core.V(600, 400), Vel: core.V(60, 190), Radius: 7},
		BallSpec{Pos: core.V(300, 450), Vel: core.V(-150, -140), Radius: 7},
		BallSpec{Pos: core.V(900, 500), Vel: core.V(120, -160), Radius: 7},
		BallSpec{Pos: core.V(150, 600), Vel: core.V(-80, 180), Radius: 5},
	)

	run := func(workers int) Snapshot {
		s, err := New(setup, WithWorkers(workers))
		if err != nil {
			t.Fatal(err)
		}
		for range 1500 {
			if err := s.Advance(DefaultDT, Track(s)); err != nil {
				t.Fatal(err)
			}
		}
		return s.Snapshot()
	}

	serial := run(1)
	parallel := run(4)
	if serial.Hash() != parallel.Hash() {
		t.Errorf("hash differs: serial=%d parallel=%d", serial.Hash(), parallel.Hash())
	}
	if serial.Step != parallel.Step {
		t.Errorf("steps differ: %d vs %d", serial.Step, parallel.Step)
	}
}
