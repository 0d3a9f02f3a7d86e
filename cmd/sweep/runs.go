package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/breakout-sweep/internal/platform/tui"
	"github.com/vovakirdan/breakout-sweep/internal/registry"
	"github.com/vovakirdan/breakout-sweep/internal/sim"
	"github.com/vovakirdan/breakout-sweep/internal/storage"
)

var (
	flagRunsLimit int
	flagRunsTUI   bool
	flagAdvance   int
)

var runsCmd = &cobra.Command{
	Use:   "runs [layout]",
	Short: "Show recorded runs",
	Long: `Display the best runs for a layout, ranked by blocks broken and then by
fewest steps. Without a layout, the most recent runs across all layouts are
shown.

Examples:
  sweep runs
  sweep runs classic --limit 20
  sweep runs --tui
  sweep runs stats pyramid
  sweep runs show 12 --advance 500
  sweep runs clear classic`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats <layout>",
	Short: "Show aggregated statistics for a layout",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsStats,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a run and its final state",
	Long: `Decode the final snapshot of a run. With --advance, the snapshot is
restored into a fresh session and driven further by the tracking autopilot.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsShow,
}

var runsClearCmd = &cobra.Command{
	Use:   "clear <layout>",
	Short: "Delete every run recorded for a layout",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsClear,
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 10, "Number of runs to show")
	runsCmd.Flags().BoolVar(&flagRunsTUI, "tui", false, "Browse runs in an interactive table")
	runsShowCmd.Flags().IntVar(&flagAdvance, "advance", 0, "Steps to continue from the snapshot")

	runsCmd.AddCommand(runsStatsCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsClearCmd)
}

func runRuns(_ *cobra.Command, args []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("opening run database: %w", err)
	}
	defer store.Close()

	if flagRunsTUI {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		_, err := tui.RunRuns(store, width, height)
		return err
	}

	var runs []storage.Run
	if len(args) == 1 {
		if !registry.Exists(args[0]) {
			return fmt.Errorf("unknown layout %q, run 'sweep layouts' to see available layouts", args[0])
		}
		fmt.Printf("Best runs - %s\n", args[0])
		runs, err = store.TopRuns(args[0], flagRunsLimit)
	} else {
		fmt.Println("Recent runs")
		runs, err = store.RecentRuns(flagRunsLimit)
	}
	if err != nil {
		return err
	}
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Play 'sweep play' or 'sweep sim --save' to record one!")
		return nil
	}

	fmt.Printf("  %-5s  %-10s  %-9s  %-8s  %-8s  %s\n", "ID", "Layout", "Broken", "Steps", "Result", "Date")
	fmt.Printf("  %-5s  %-10s  %-9s  %-8s  %-8s  %s\n", "--", "------", "------", "-----", "------", "----")
	for _, r := range runs {
		fmt.Printf("  %-5d  %-10s  %-9s  %-8d  %-8s  %s\n",
			r.ID, r.Layout, fmt.Sprintf("%d/%d", r.BlocksBroken, r.BlocksTotal), r.Steps,
			runResult(r), r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runResult(r storage.Run) string {
	switch {
	case r.Won:
		return "cleared"
	case r.Lost:
		return "lost"
	}
	return "stopped"
}

func runRunsStats(_ *cobra.Command, args []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("opening run database: %w", err)
	}
	defer store.Close()

	st, err := store.Stats(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Stats - %s\n\n", args[0])
	if st.Runs == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}
	fmt.Printf("  Runs          %d\n", st.Runs)
	fmt.Printf("  Cleared       %d\n", st.Wins)
	fmt.Printf("  Lost          %d\n", st.Losses)
	fmt.Printf("  Best broken   %d\n", st.BestBroken)
	fmt.Printf("  Avg broken    %.1f\n", st.AvgBroken)
	if st.FastestWin > 0 {
		fmt.Printf("  Fastest clear %d steps\n", st.FastestWin)
	}
	fmt.Printf("  Last played   %s\n", st.LastPlayedAt.Format("2006-01-02 15:04"))
	return nil
}

func runRunsShow(_ *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("opening run database: %w", err)
	}
	defer store.Close()

	run, err := store.RunByID(id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no run with id %d", id)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Run %d - %s, seed %d\n", run.ID, run.Layout, run.Seed)
	fmt.Printf("  %d steps, %d/%d blocks, %s\n", run.Steps, run.BlocksBroken, run.BlocksTotal, runResult(run))
	if len(run.Snapshot) == 0 {
		fmt.Println("  no snapshot recorded")
		return nil
	}

	var snap sim.Snapshot
	if err := snap.UnmarshalBinary(run.Snapshot); err != nil {
		return err
	}
	fmt.Printf("  snapshot step %d, hash %016x, %d balls\n", snap.Step, snap.Hash(), len(snap.Balls))
	for i, b := range snap.Balls {
		fmt.Printf("    ball %d at (%.2f, %.2f) velocity (%.2f, %.2f)\n", i, b.Pos.X(), b.Pos.Y(), b.Vel.X(), b.Vel.Y())
	}

	if flagAdvance <= 0 {
		return nil
	}
	return advanceSnapshot(run, snap)
}

// advanceSnapshot restores snap into a session built for the run's layout and
// plays it forward with the tracking autopilot.
func advanceSnapshot(run storage.Run, snap sim.Snapshot) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setup, err := registry.Build(run.Layout, cfg, run.Seed)
	if err != nil {
		return err
	}
	s, err := sim.New(setup, registry.SessionOptions(cfg)...)
	if err != nil {
		return err
	}
	if err := s.Restore(snap); err != nil {
		return err
	}

	for i := 0; i < flagAdvance && !s.Done(); i++ {
		if err := s.Advance(cfg.Sim.DT, sim.Track(s)); err != nil {
			return err
		}
	}
	final := s.Snapshot()
	fmt.Printf("  advanced to step %d: %d/%d blocks cleared, hash %016x\n",
		s.Step(), s.BlocksCleared(), s.BlocksTotal(), final.Hash())
	switch {
	case s.Won():
		fmt.Println("  cleared")
	case s.Lost():
		fmt.Println("  all balls lost")
	case s.Truncated():
		fmt.Println("  step limit reached")
	}
	return nil
}

func runRunsClear(_ *cobra.Command, args []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("opening run database: %w", err)
	}
	defer store.Close()

	if err := store.ClearRuns(args[0]); err != nil {
		return err
	}
	fmt.Printf("Cleared runs for %s\n", args[0])
	return nil
}
