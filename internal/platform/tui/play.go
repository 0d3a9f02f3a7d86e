package tui

import (
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/breakout-sweep/internal/config"
	"github.com/vovakirdan/breakout-sweep/internal/core"
	"github.com/vovakirdan/breakout-sweep/internal/registry"
	"github.com/vovakirdan/breakout-sweep/internal/sim"
)

// NewPlayConfig wires a layout and a loaded configuration into a PlayConfig.
func NewPlayConfig(layoutID string, cfg config.Config, rt core.RuntimeConfig, logger *log.Logger) PlayConfig {
	return PlayConfig{
		Layout: layoutID,
		Build: func(seed uint64) (sim.Setup, error) {
			return registry.Build(layoutID, cfg, seed)
		},
		Options:   append(registry.SessionOptions(cfg), sim.WithLogger(logger)),
		DT:        cfg.Sim.DT,
		MaxDT:     cfg.Sim.MaxDT,
		FixedStep: cfg.Sim.FixedStep,
		Runtime:   rt,
		Logger:    logger,
	}
}
