package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/breakout-sweep/internal/registry"
	"github.com/vovakirdan/breakout-sweep/internal/sim"
	"github.com/vovakirdan/breakout-sweep/internal/storage"
)

var (
	flagEpisodes  int
	flagWorkers   int
	flagBallPool  int
	flagStepLimit int
	flagPolicy    string
	flagActions   []int
	flagCheckGrid bool
	flagSaveRuns  bool
)

var simCmd = &cobra.Command{
	Use:   "sim [layout]",
	Short: "Run headless episodes",
	Long: `Run independent sessions without a terminal UI, with the paddle driven
by an autopilot. Episode i is served with seed --seed + i, so a run is
reproducible for any number of workers.

Policies:
  track   - Keep the paddle under the lowest falling ball
  idle    - Never move the paddle
  actions - Replay --actions, one per step (0 stay, 1 left, 2 right)

Examples:
  sweep sim
  sweep sim pyramid --episodes 64 --workers 8
  sweep sim single --policy idle --steps 2000 --check
  sweep sim classic --episodes 10 --save
  sweep sim single --policy actions --actions 2,2,2,0,1 --steps 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSim,
}

func init() {
	simCmd.Flags().IntVar(&flagEpisodes, "episodes", 8, "Number of episodes")
	simCmd.Flags().IntVar(&flagWorkers, "workers", 4, "Episodes run concurrently")
	simCmd.Flags().IntVar(&flagBallPool, "ball-workers", 0, "Balls resolved concurrently per step (0 = from config)")
	simCmd.Flags().IntVar(&flagStepLimit, "steps", 0, "Step limit per episode (0 = from config)")
	simCmd.Flags().StringVar(&flagPolicy, "policy", "track", "Paddle policy: track, idle, actions")
	simCmd.Flags().IntSliceVar(&flagActions, "actions", nil, "Action sequence for --policy actions")
	simCmd.Flags().BoolVar(&flagCheckGrid, "check", false, "Verify the spatial grid on every step")
	simCmd.Flags().BoolVar(&flagSaveRuns, "save", false, "Record every episode in the run database")
}

func runSim(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr, "sweep-sim")
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	layoutID := registry.DefaultLayout
	if len(args) == 1 {
		layoutID = args[0]
	}
	if !registry.Exists(layoutID) {
		return fmt.Errorf("unknown layout %q, run 'sweep layouts' to see available layouts", layoutID)
	}

	if flagStepLimit > 0 {
		cfg.Sim.StepLimit = flagStepLimit
	}
	if flagBallPool > 0 {
		cfg.Sim.Workers = flagBallPool
	}
	if flagCheckGrid {
		cfg.Sim.CheckGrid = true
	}

	var policy sim.Policy
	switch flagPolicy {
	case "track":
		policy = sim.Track
	case "idle":
		policy = sim.Idle
	case "actions":
		for _, a := range flagActions {
			if a < 0 || a > 2 {
				return fmt.Errorf("invalid action %d (want 0, 1 or 2)", a)
			}
		}
		policy = sim.Actions(flagActions)
	default:
		return fmt.Errorf("unknown policy %q (want track, idle or actions)", flagPolicy)
	}
	if flagEpisodes < 1 {
		return fmt.Errorf("--episodes must be at least 1")
	}

	seed := flagSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger.Info("running episodes", "layout", layoutID, "episodes", flagEpisodes, "workers", flagWorkers, "seed", seed)
	start := time.Now()
	results, err := sim.RunEpisodes(ctx, sim.RolloutConfig{
		Episodes: flagEpisodes,
		Workers:  flagWorkers,
		DT:       cfg.Sim.DT,
		Policy:   policy,
	}, func(ep int) (sim.Setup, error) {
		return registry.Build(layoutID, cfg, seed+uint64(ep))
	}, registry.SessionOptions(cfg)...)
	if err != nil {
		return err
	}
	logger.Info("episodes finished", "elapsed", time.Since(start).Round(time.Millisecond))

	printResults(results, seed)

	if flagSaveRuns {
		return saveResults(layoutID, seed, results)
	}
	return nil
}

func printResults(results []sim.EpisodeResult, seed uint64) {
	fmt.Printf("  %-7s  %-20s  %-8s  %-9s  %s\n", "Episode", "Seed", "Steps", "Broken", "Result")
	fmt.Printf("  %-7s  %-20s  %-8s  %-9s  %s\n", "-------", "----", "-----", "------", "------")

	wins, steps, broken := 0, 0, 0
	for _, r := range results {
		result := "stopped"
		switch {
		case r.Won:
			result = "cleared"
			wins++
		case r.Lost:
			result = "lost"
		}
		steps += r.Steps
		broken += r.BlocksBroken
		fmt.Printf("  %-7d  %-20d  %-8d  %-9s  %s\n", r.Episode, seed+uint64(r.Episode), r.Steps,
			fmt.Sprintf("%d/%d", r.BlocksBroken, r.BlocksTotal), result)
	}

	n := float64(len(results))
	fmt.Println()
	fmt.Printf("Cleared %d/%d  avg steps %.1f  avg broken %.1f\n", wins, len(results), float64(steps)/n, float64(broken)/n)
}

func saveResults(layoutID string, seed uint64, results []sim.EpisodeResult) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, r := range results {
		blob, err := r.Final.MarshalBinary()
		if err != nil {
			return fmt.Errorf("episode %d: %w", r.Episode, err)
		}
		if _, err := store.SaveRun(storage.Run{
			Layout:       layoutID,
			Seed:         seed + uint64(r.Episode),
			Steps:        r.Steps,
			BlocksBroken: r.BlocksBroken,
			BlocksTotal:  r.BlocksTotal,
			Won:          r.Won,
			Lost:         r.Lost,
			Snapshot:     blob,
		}); err != nil {
			return err
		}
	}
	fmt.Printf("Saved %d runs to %s\n", len(results), flagDBPath)
	return nil
}
