package registry

import (
	"math"
	"testing"

	"github.com/vovakirdan/breakout-sweep/internal/config"
	"github.com/vovakirdan/breakout-sweep/internal/core"
	"github.com/vovakirdan/breakout-sweep/internal/sim"
)

func TestBuiltinLayoutsRegistered(t *testing.T) {
	want := []string{"checker", "classic", "columns", "pyramid", "single"}
	list := List()
	if len(list) != len(want) {
		t.Fatalf("List() has %d layouts, want %d", len(list), len(want))
	}
	for i, info := range list {
		if info.ID != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, info.ID, want[i])
		}
		if info.Title == "" {
			t.Errorf("layout %q has no title", info.ID)
		}
	}
	if !Exists(DefaultLayout) {
		t.Errorf("default layout %q not registered", DefaultLayout)
	}
	if _, err := Get("nope"); err == nil {
		t.Error("Get() of an unknown layout should fail")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register() did not panic")
		}
	}()
	Register("classic", "again", Classic)
}

func TestLayoutCounts(t *testing.T) {
	cfg := config.DefaultConfig()
	tests := []struct {
		id    string
		count int
	}{
		{"classic", 50},
		{"pyramid", 10 + 8 + 6 + 4 + 2},
		{"checker", 25},
		{"columns", 25},
		{"single", 1},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			l, err := Get(tt.id)
			if err != nil {
				t.Fatal(err)
			}
			blocks := l(cfg)
			if len(blocks) != tt.count {
				t.Errorf("%s placed %d blocks, want %d", tt.id, len(blocks), tt.count)
			}
			for i, b := range blocks {
				if b.Left < 0 || b.Right() > cfg.Arena.Width || b.Top < 0 || b.Bottom() > cfg.Arena.Height {
					t.Errorf("block %d %+v outside arena", i, b)
				}
			}
		})
	}
}

func TestClassicMatchesReferenceWall(t *testing.T) {
	cfg := config.DefaultConfig()
	blocks := Classic(cfg)
	gap := (1200.0 - 1000) / 11

	first := blocks[0]
	if !core.NearlyEqual(first.Left, gap, 1e-9) || first.Top != 60 {
		t.Errorf("first block at (%v, %v), want (%v, 60)", first.Left, first.Top, gap)
	}
	// Column-major: the second block is below the first.
	if blocks[1].Left != first.Left || blocks[1].Top != 120 {
		t.Errorf("second block at (%v, %v), want (%v, 120)", blocks[1].Left, blocks[1].Top, first.Left)
	}
	last := blocks[len(blocks)-1]
	if !core.NearlyEqual(last.Right(), 1200-gap, 1e-9) {
		t.Errorf("last block right edge %v, want %v", last.Right(), 1200-gap)
	}
}

func TestBuild(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Difficulty.Level = 0
	cfg.Ball.Count = 3

	setup, err := Build("classic", cfg, 42)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if len(setup.Blocks) != 50 || len(setup.Balls) != 3 {
		t.Fatalf("got %d blocks %d balls", len(setup.Blocks), len(setup.Balls))
	}
	if setup.Paddle.Top != 785 || setup.Paddle.Left != 550 {
		t.Errorf("paddle at (%v, %v), want (550, 785)", setup.Paddle.Left, setup.Paddle.Top)
	}
	for i, b := range setup.Balls {
		if !core.NearlyEqual(b.Vel.Len(), 200, 1e-9) {
			t.Errorf("ball %d speed %v, want 200", i, b.Vel.Len())
		}
		if b.Vel.Y() <= 0 {
			t.Errorf("ball %d served upward: %v", i, b.Vel)
		}
		if math.Abs(math.Atan2(b.Vel.X(), b.Vel.Y())) > 30*math.Pi/180+1e-9 {
			t.Errorf("ball %d outside the serve spread: %v", i, b.Vel)
		}
	}

	again, err := Build("classic", cfg, 42)
	if err != nil {
		t.Fatal(err)
	}
	for i := range setup.Balls {
		if setup.Balls[i] != again.Balls[i] {
			t.Errorf("ball %d differs between builds with the same seed", i)
		}
	}

	if _, err := sim.New(setup, SessionOptions(cfg)...); err != nil {
		t.Errorf("built setup rejected by sim.New: %v", err)
	}
}

func TestBuildSeedZeroServesStraightDown(t *testing.T) {
	setup, err := Build("single", config.DefaultConfig(), 0)
	if err != nil {
		t.Fatal(err)
	}
	v := setup.Balls[0].Vel
	if v.X() != 0 || v.Y() <= 0 {
		t.Errorf("seed 0 serve = %v, want straight down", v)
	}
}

func TestBuildRejectsBadInput(t *testing.T) {
	if _, err := Build("nope", config.DefaultConfig(), 1); err == nil {
		t.Error("Build() with unknown layout should fail")
	}
	cfg := config.DefaultConfig()
	cfg.Ball.Radius = 0
	if _, err := Build("classic", cfg, 1); err == nil {
		t.Error("Build() with invalid config should fail")
	}
}
