package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/breakout-sweep/internal/config"
	"github.com/vovakirdan/breakout-sweep/internal/core"
	"github.com/vovakirdan/breakout-sweep/internal/platform/tui"
	"github.com/vovakirdan/breakout-sweep/internal/registry"
	"github.com/vovakirdan/breakout-sweep/internal/storage"
)

var playCmd = &cobra.Command{
	Use:   "play [layout]",
	Short: "Play a layout",
	Long: `Start playing the given layout. Without a layout, a menu lets you pick
one; after a session you return to the menu.

Controls:
  Left/Right, A/D  - Move paddle
  P/Space          - Pause
  R                - New serve (after the session ends)
  ?                - Toggle help
  Esc/B            - Back to menu
  Q/Ctrl+C         - Quit

Session events are logged to ~/.sweep/play.log.

Examples:
  sweep play
  sweep play classic
  sweep play pyramid --preset hard
  sweep play single --seed 42 --config ./my-breakout.toml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func runPlay(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 1 && !registry.Exists(args[0]) {
		return fmt.Errorf("unknown layout %q, run 'sweep layouts' to see available layouts", args[0])
	}

	logger, closeLog := fileLogger("play.log")
	defer closeLog()

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open run database: %v\n", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	width, height := 80, 24
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	rt := core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: flagFPS,
		Seed:     int64(flagSeed),
	}

	if len(args) == 1 {
		_, err := tui.Run(tui.NewPlayConfig(args[0], cfg, rt, logger), store)
		return err
	}
	return menuLoop(cfg, rt, store, logger)
}

// menuLoop alternates between the layout picker, sessions and the run table
// until the user quits.
func menuLoop(cfg config.Config, rt core.RuntimeConfig, store *storage.Store, logger *log.Logger) error {
	for {
		menuResult, err := tui.RunMenu(store, rt)
		if err != nil {
			return err
		}
		rt = menuResult.Config

		if menuResult.Quit {
			return nil
		}

		if menuResult.WantsRuns {
			goBack, runsErr := tui.RunRuns(store, rt.ScreenW, rt.ScreenH)
			if runsErr != nil {
				return runsErr
			}
			if goBack {
				continue
			}
			return nil
		}

		if menuResult.LayoutID == "" {
			return nil
		}

		if flagSeed == 0 {
			rt.Seed = time.Now().UnixNano()
		}
		goBack, err := tui.Run(tui.NewPlayConfig(menuResult.LayoutID, cfg, rt, logger), store)
		if err != nil {
			return err
		}
		if !goBack {
			return nil
		}
	}
}
