package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Load loads the session configuration.
// Search order: customPath -> ~/.sweep/configs/breakout.yaml -> ./configs/breakout.yaml -> embedded default
// A custom path ending in .toml is decoded as TOML, anything else as YAML.
// Fields missing from a file keep their default values.
func Load(customPath string) (Config, error) {
	// Try custom path first
	if customPath != "" {
		cfg := DefaultConfig()
		if err := decodeFile(customPath, &cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("breakout.yaml"); userCfgPath != "" {
		cfg := DefaultConfig()
		if err := decodeFile(userCfgPath, &cfg); err == nil {
			return cfg, nil
		}
	}

	// Try local configs directory
	cfg := DefaultConfig()
	if err := decodeFile(filepath.Join("configs", "breakout.yaml"), &cfg); err == nil {
		return cfg, nil
	}

	// Use embedded default YAML
	cfg = DefaultConfig()
	if err := yaml.Unmarshal(defaultBreakoutYAML, &cfg); err != nil {
		return DefaultConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sweep", "configs", filename)
}

// Save writes cfg to path as YAML, or TOML for a .toml path.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	f, err := os.Create(path) //#nosec G304 -- user-supplied output path
	if err != nil {
		return fmt.Errorf("failed to create config %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.NewEncoder(f).Encode(cfg)
	} else {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		err = enc.Encode(cfg)
		if err == nil {
			err = enc.Close()
		}
	}
	if err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// ApplyPreset sets the difficulty level for a preset and adjusts the serve.
func ApplyPreset(cfg *Config, preset DifficultyPreset) {
	cfg.Difficulty.Level = LevelForPreset(preset)

	switch preset {
	case DifficultyEasy:
		cfg.Ball.Count = 1
		cfg.Ball.Spread = 15
	case DifficultyHard:
		cfg.Ball.Count = max(cfg.Ball.Count, 2)
		cfg.Ball.Spread = 45
	}
}

// Scaled returns cfg with ball speed and paddle width adjusted for the
// difficulty level.
func (cfg Config) Scaled() Config {
	level := min(max(cfg.Difficulty.Level, 0), 1)
	cfg.Ball.Speed *= 1 + level*cfg.Difficulty.SpeedMultiplier
	cfg.Paddle.Width *= 1 - level*min(max(cfg.Difficulty.PaddleShrink, 0), 0.9)
	return cfg
}

// Validate checks that cfg describes a playable session.
func (cfg Config) Validate() error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(cfg.Arena.Width > 0 && cfg.Arena.Height > 0, "arena must have positive size")
	check(cfg.Blocks.Rows >= 0 && cfg.Blocks.Cols >= 0, "block rows and cols must not be negative")
	check(cfg.Blocks.Width > 0 && cfg.Blocks.Height > 0, "blocks must have positive size")
	check(cfg.Blocks.Cols == 0 || float64(cfg.Blocks.Cols)*cfg.Blocks.Width <= cfg.Arena.Width, "block row wider than arena")
	check(cfg.Paddle.Width > 0 && cfg.Paddle.Height > 0, "paddle must have positive size")
	check(cfg.Paddle.Width <= cfg.Arena.Width, "paddle wider than arena")
	check(cfg.Paddle.Speed >= 0, "paddle speed must not be negative")
	check(cfg.Ball.Count > 0, "at least one ball is required")
	check(cfg.Ball.Radius > 0, "ball radius must be positive")
	check(2*cfg.Ball.Radius < cfg.Arena.Width && 2*cfg.Ball.Radius < cfg.Arena.Height, "ball larger than arena")
	check(cfg.Sim.DT > 0, "dt must be positive")
	check(cfg.Sim.MaxDT >= cfg.Sim.DT, "max_dt must be at least dt")
	check(cfg.Sim.StepLimit >= 0, "step_limit must not be negative")

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
