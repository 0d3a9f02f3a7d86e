package registry

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/vovakirdan/breakout-sweep/internal/config"
	"github.com/vovakirdan/breakout-sweep/internal/core"
	"github.com/vovakirdan/breakout-sweep/internal/physics"
	"github.com/vovakirdan/breakout-sweep/internal/sim"
)

// Build turns a configuration and a layout into a session setup. Balls are
// served from the arena center, spread side by side, each heading down at an
// angle drawn from seed within the configured spread. The difficulty level
// is applied first.
func Build(layoutID string, cfg config.Config, seed uint64) (sim.Setup, error) {
	if err := cfg.Validate(); err != nil {
		return sim.Setup{}, err
	}
	layout, err := Get(layoutID)
	if err != nil {
		return sim.Setup{}, err
	}
	cfg = cfg.Scaled()

	arena := physics.Arena{Width: cfg.Arena.Width, Height: cfg.Arena.Height}
	p := cfg.Paddle
	paddle := physics.Paddle{
		Rect: physics.RectAt(
			(arena.Width-p.Width)/2,
			arena.Height-(p.Height+p.BottomOffset),
			p.Width,
			p.Height,
		),
		Speed: p.Speed,
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //#nosec G404 -- deterministic serve angles
	spread := cfg.Ball.Spread * math.Pi / 180
	n := cfg.Ball.Count
	r := cfg.Ball.Radius

	balls := make([]sim.BallSpec, n)
	for i := range balls {
		angle := 0.0
		if seed != 0 || i > 0 {
			angle = (rng.Float64()*2 - 1) * spread
		}
		x := arena.Width/2 + (float64(i)-float64(n-1)/2)*4*r
		x = core.Clamp(x, r, arena.Width-r)
		balls[i] = sim.BallSpec{
			Pos:    core.V(x, arena.Height/2),
			Vel:    core.V(math.Sin(angle)*cfg.Ball.Speed, math.Cos(angle)*cfg.Ball.Speed),
			Radius: r,
		}
	}

	blocks := layout(cfg)
	if len(blocks) == 0 {
		return sim.Setup{}, fmt.Errorf("registry: layout %q placed no blocks", layoutID)
	}
	return sim.Setup{
		Arena:     arena,
		Blocks:    blocks,
		Paddle:    paddle,
		Balls:     balls,
		StepLimit: cfg.Sim.StepLimit,
	}, nil
}

// SessionOptions returns the sim options implied by cfg.
func SessionOptions(cfg config.Config) []sim.Option {
	opts := []sim.Option{sim.WithWorkers(cfg.Sim.Workers)}
	if cfg.Sim.CheckGrid {
		opts = append(opts, sim.WithGridCheck())
	}
	return opts
}
