package config

import (
	_ "embed"
)

//go:embed defaults/breakout.yaml
var defaultBreakoutYAML []byte

// DefaultConfig returns the built-in configuration: a 5x10 wall of 100x30
// blocks in a 1200x800 arena, one radius-7 ball at 200 units/s and a fixed
// 8ms step.
func DefaultConfig() Config {
	return Config{
		Arena: ArenaConfig{Width: 1200, Height: 800},
		Blocks: BlocksConfig{
			Rows:   5,
			Cols:   10,
			Width:  100,
			Height: 30,
			Top:    60,
			RowGap: 30,
		},
		Paddle: PaddleConfig{
			Width:        100,
			Height:       5,
			Speed:        500,
			BottomOffset: 10,
		},
		Ball: BallConfig{
			Count:  1,
			Radius: 7,
			Speed:  200,
			Spread: 30,
		},
		Sim: SimConfig{
			DT:        0.008,
			MaxDT:     0.05,
			FixedStep: true,
			StepLimit: 10000,
			Workers:   1,
		},
		Difficulty: DifficultyConfig{
			Level:           0.3,
			SpeedMultiplier: 1.0,
			PaddleShrink:    0.4,
		},
	}
}
