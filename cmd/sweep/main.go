// sweep runs swept-collision breakout sessions in the terminal, headless, or
// over SSH.
//
// Usage:
//
//	sweep layouts            - List available block layouts
//	sweep play [layout]      - Play a layout (menu when omitted)
//	sweep sim [layout]       - Run headless episodes with an autopilot
//	sweep serve              - Start SSH server for remote play
//	sweep runs [layout]      - Show recorded runs
//
// Global flags:
//
//	--config <path>     - Session config file (YAML or TOML)
//	--preset <name>     - Difficulty preset: easy, normal, hard
//	--seed <value>      - Serve seed (0 = random based on time)
//	--db <path>         - Run database path (default: ~/.sweep/runs.db)
//	--log-level <lvl>   - debug, info, warn, error
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/breakout-sweep/internal/config"
)

var (
	// Global flags
	flagFPS      int
	flagSeed     uint64
	flagDBPath   string
	flagConfig   string
	flagPreset   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Swept-collision breakout in your terminal",
	Long: `sweep simulates breakout with continuous (swept) circle-vs-box
collision, so fast balls never tunnel through blocks or the paddle.

Available commands:
  layouts  - Show all block layouts
  play     - Play a layout, or pick one from the menu
  sim      - Run headless episodes with an autopilot
  serve    - Start SSH server for remote play
  runs     - View recorded runs

Examples:
  sweep layouts
  sweep play classic --preset hard
  sweep sim pyramid --episodes 32 --workers 8 --save
  sweep serve --ssh :2222
  sweep runs classic --tui`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "Serve seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.sweep/runs.db", "Path to run database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to session config (YAML or TOML)")
	rootCmd.PersistentFlags().StringVar(&flagPreset, "preset", "", "Difficulty preset: easy, normal, hard")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(layoutsCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(simCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runsCmd)
}

// newLogger builds the process logger writing to w at the --log-level level.
func newLogger(w io.Writer, prefix string) (*log.Logger, error) {
	level, err := log.ParseLevel(strings.ToLower(flagLogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", flagLogLevel, err)
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	logger.SetLevel(level)
	return logger, nil
}

// fileLogger logs to ~/.sweep/<name> so the alternate screen stays clean.
// Falls back to discarding output when the file cannot be opened.
func fileLogger(name string) (*log.Logger, func()) {
	discard := func() {}
	home, err := os.UserHomeDir()
	if err != nil {
		l, _ := newLogger(io.Discard, "sweep")
		return l, discard
	}
	dir := filepath.Join(home, ".sweep")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		l, _ := newLogger(io.Discard, "sweep")
		return l, discard
	}
	l, err := newLogger(f, "sweep")
	if err != nil {
		l, _ = newLogger(io.Discard, "sweep")
	}
	return l, func() { f.Close() }
}

// loadConfig loads the session config and applies --preset.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagPreset != "" {
		preset, ok := config.ParsePreset(flagPreset)
		if !ok {
			return cfg, fmt.Errorf("unknown preset %q (want easy, normal or hard)", flagPreset)
		}
		config.ApplyPreset(&cfg, preset)
	}
	return cfg, cfg.Validate()
}
