package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/breakout-sweep/internal/core"
)

// DefaultDT is the fixed step used by headless runs.
const DefaultDT = 0.008

// Policy picks the paddle direction for the next step.
type Policy func(*Session) core.Direction

// Track is a policy that keeps the paddle under the lowest ball heading
// down, or the first ball when none is falling.
func Track(s *Session) core.Direction {
	balls := s.Balls()
	if len(balls) == 0 {
		return core.DirStay
	}
	target := balls[0]
	for _, b := range balls[1:] {
		if b.Vel.Y() > 0 && (target.Vel.Y() <= 0 || b.Pos.Y() > target.Pos.Y()) {
			target = b
		}
	}

	p := s.Paddle()
	deadband := p.Width / 8
	switch dx := target.Pos.X() - p.CenterX(); {
	case dx < -deadband:
		return core.DirLeft
	case dx > deadband:
		return core.DirRight
	default:
		return core.DirStay
	}
}

// Idle is a policy that never moves the paddle.
func Idle(*Session) core.Direction { return core.DirStay }

// Actions replays a recorded sequence of discrete actions (0 = stay,
// 1 = left, 2 = right), one per step. The paddle stays once the sequence
// runs out.
func Actions(seq []int) Policy {
	return func(s *Session) core.Direction {
		if i := s.Step(); i < len(seq) {
			return core.DirectionFromAction(seq[i])
		}
		return core.DirStay
	}
}

// EpisodeResult summarises one finished rollout.
type EpisodeResult struct {
	Episode      int
	Steps        int
	BlocksBroken int
	BlocksTotal  int
	Won          bool
	Lost         bool
	Final        Snapshot
}

// RolloutConfig controls RunEpisodes.
type RolloutConfig struct {
	Episodes int
	Workers  int     // Concurrent episodes; below 1 means one per episode
	DT       float64 // Zero means DefaultDT
	Policy   Policy  // Nil means Track
}

// RunEpisodes advances independent sessions built by setup(episode) until
// each one is done, running up to cfg.Workers of them at once. Sessions
// without a step limit must end on their own. The results are in episode
// order.
func RunEpisodes(ctx context.Context, cfg RolloutConfig, setup func(episode int) (Setup, error), opts ...Option) ([]EpisodeResult, error) {
	dt := cfg.DT
	if dt == 0 {
		dt = DefaultDT
	}
	policy := cfg.Policy
	if policy == nil {
		policy = Track
	}

	results := make([]EpisodeResult, cfg.Episodes)
	g, ctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}

	for ep := range cfg.Episodes {
		g.Go(func() error {
			st, err := setup(ep)
			if err != nil {
				return fmt.Errorf("episode %d: %w", ep, err)
			}
			s, err := New(st, opts...)
			if err != nil {
				return fmt.Errorf("episode %d: %w", ep, err)
			}

			broken := 0
			for !s.Done() {
				if s.Step()%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if err := s.Advance(dt, policy(s)); err != nil {
					return fmt.Errorf("episode %d: %w", ep, err)
				}
				broken += s.BlocksBroken()
			}

			results[ep] = EpisodeResult{
				Episode:      ep,
				Steps:        s.Step(),
				BlocksBroken: broken,
				BlocksTotal:  s.BlocksTotal(),
				Won:          s.Won(),
				Lost:         s.Lost(),
				Final:        s.Snapshot(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
