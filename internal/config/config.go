// Package config provides YAML/TOML session configuration loading and
// difficulty presets.
package config

// Config contains everything needed to lay out and run a session.
type Config struct {
	Arena      ArenaConfig      `yaml:"arena" toml:"arena"`
	Blocks     BlocksConfig     `yaml:"blocks" toml:"blocks"`
	Paddle     PaddleConfig     `yaml:"paddle" toml:"paddle"`
	Ball       BallConfig       `yaml:"ball" toml:"ball"`
	Sim        SimConfig        `yaml:"sim" toml:"sim"`
	Difficulty DifficultyConfig `yaml:"difficulty" toml:"difficulty"`
}

// ArenaConfig is the playfield size in arena units.
type ArenaConfig struct {
	Width  float64 `yaml:"width" toml:"width"`
	Height float64 `yaml:"height" toml:"height"`
}

// BlocksConfig defines the block wall. Layouts decide which slots are used.
type BlocksConfig struct {
	Rows   int     `yaml:"rows" toml:"rows"`
	Cols   int     `yaml:"cols" toml:"cols"`
	Width  float64 `yaml:"width" toml:"width"`
	Height float64 `yaml:"height" toml:"height"`
	Top    float64 `yaml:"top" toml:"top"`         // y of the first row
	RowGap float64 `yaml:"row_gap" toml:"row_gap"` // vertical space between rows
}

// PaddleConfig defines the paddle.
type PaddleConfig struct {
	Width        float64 `yaml:"width" toml:"width"`
	Height       float64 `yaml:"height" toml:"height"`
	Speed        float64 `yaml:"speed" toml:"speed"`
	BottomOffset float64 `yaml:"bottom_offset" toml:"bottom_offset"` // gap between paddle and arena bottom
}

// BallConfig defines the balls served at session start.
type BallConfig struct {
	Count  int     `yaml:"count" toml:"count"`
	Radius float64 `yaml:"radius" toml:"radius"`
	Speed  float64 `yaml:"speed" toml:"speed"`
	Spread float64 `yaml:"spread" toml:"spread"` // max serve angle from straight down, degrees
}

// SimConfig controls stepping.
type SimConfig struct {
	DT        float64 `yaml:"dt" toml:"dt"`                 // fixed step, seconds
	MaxDT     float64 `yaml:"max_dt" toml:"max_dt"`         // clamp for wall-clock steps
	FixedStep bool    `yaml:"fixed_step" toml:"fixed_step"` // false steps by elapsed wall time
	StepLimit int     `yaml:"step_limit" toml:"step_limit"`
	Workers   int     `yaml:"workers" toml:"workers"`
	CheckGrid bool    `yaml:"check_grid" toml:"check_grid"`
}

// DifficultyConfig scales the base parameters by a level in [0, 1].
type DifficultyConfig struct {
	Level           float64 `yaml:"level" toml:"level"`
	SpeedMultiplier float64 `yaml:"speed_multiplier" toml:"speed_multiplier"` // added to ball speed at level 1
	PaddleShrink    float64 `yaml:"paddle_shrink" toml:"paddle_shrink"`       // fraction of paddle width lost at level 1
}

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// LevelForPreset returns the difficulty level for a preset.
func LevelForPreset(preset DifficultyPreset) float64 {
	switch preset {
	case DifficultyEasy:
		return 0.0
	case DifficultyNormal:
		return 0.3
	case DifficultyHard:
		return 0.7
	default:
		return 0.0
	}
}

// ParsePreset validates a preset name. The empty string means normal.
func ParsePreset(s string) (DifficultyPreset, bool) {
	switch p := DifficultyPreset(s); p {
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return p, true
	case "":
		return DifficultyNormal, true
	default:
		return "", false
	}
}
