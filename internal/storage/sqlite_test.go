package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreSaveAndRetrieve(t *testing.T) {
	store := openTestStore(t)

	runs := []Run{
		{Layout: "classic", Seed: 1, Steps: 900, BlocksBroken: 12, BlocksTotal: 50, Lost: true},
		{Layout: "classic", Seed: 2, Steps: 4000, BlocksBroken: 50, BlocksTotal: 50, Won: true, Snapshot: []byte{1, 2, 3}},
		{Layout: "classic", Seed: 3, Steps: 3000, BlocksBroken: 50, BlocksTotal: 50, Won: true},
		{Layout: "single", Seed: 1 << 63, Steps: 100, BlocksBroken: 1, BlocksTotal: 1, Won: true},
	}
	for _, r := range runs {
		if _, err := store.SaveRun(r); err != nil {
			t.Fatalf("SaveRun() failed: %v", err)
		}
	}

	top, err := store.TopRuns("classic", 10)
	if err != nil {
		t.Fatalf("TopRuns() failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(top))
	}

	// Most blocks first, fewer steps breaking the tie
	if top[0].Seed != 3 || top[1].Seed != 2 || top[2].Seed != 1 {
		t.Errorf("Runs not in expected order: %+v", top)
	}
	if !top[1].Won || top[1].Lost || !bytes.Equal(top[1].Snapshot, []byte{1, 2, 3}) {
		t.Errorf("Run fields not preserved: %+v", top[1])
	}
	if len(top[0].Snapshot) != 0 {
		t.Errorf("Expected empty snapshot, got %v", top[0].Snapshot)
	}

	single, err := store.BestRun("single")
	if err != nil {
		t.Fatalf("BestRun() failed: %v", err)
	}
	if single.Seed != 1<<63 {
		t.Errorf("Seed = %d, want %d", single.Seed, uint64(1<<63))
	}

	byID, err := store.RunByID(single.ID)
	if err != nil || byID.Layout != "single" {
		t.Errorf("RunByID() = %+v, %v", byID, err)
	}
}

func TestStoreTopRunsLimit(t *testing.T) {
	store := openTestStore(t)

	for i := range 5 {
		if _, err := store.SaveRun(Run{Layout: "test", Steps: 10, BlocksBroken: (i + 1) * 10, BlocksTotal: 50}); err != nil {
			t.Fatal(err)
		}
	}

	top, err := store.TopRuns("test", 3)
	if err != nil {
		t.Fatalf("TopRuns() failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("Expected 3 runs with limit, got %d", len(top))
	}
	if top[0].BlocksBroken != 50 || top[1].BlocksBroken != 40 || top[2].BlocksBroken != 30 {
		t.Errorf("Runs not in expected order: %+v", top)
	}

	recent, err := store.RecentRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].BlocksBroken != 50 {
		t.Errorf("RecentRuns() = %+v", recent)
	}
}

func TestStoreBestRunEmpty(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.BestRun("classic"); !errors.Is(err, ErrNotFound) {
		t.Errorf("BestRun() error = %v, want ErrNotFound", err)
	}
	if _, err := store.RunByID(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("RunByID() error = %v, want ErrNotFound", err)
	}
}

func TestStoreClearRuns(t *testing.T) {
	store := openTestStore(t)

	store.SaveRun(Run{Layout: "classic", Steps: 1})
	store.SaveRun(Run{Layout: "classic", Steps: 2})
	store.SaveRun(Run{Layout: "pyramid", Steps: 3})

	if err := store.ClearRuns("classic"); err != nil {
		t.Fatalf("ClearRuns() failed: %v", err)
	}

	runs, _ := store.TopRuns("classic", 10)
	if len(runs) != 0 {
		t.Errorf("Expected 0 runs after clear, got %d", len(runs))
	}

	// Other layouts should be unaffected
	runs, _ = store.TopRuns("pyramid", 10)
	if len(runs) != 1 {
		t.Errorf("Expected pyramid runs to be unaffected, got %d", len(runs))
	}
}

func TestStoreStats(t *testing.T) {
	store := openTestStore(t)

	empty, err := store.Stats("classic")
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if empty.Runs != 0 || empty.BestBroken != 0 || empty.FastestWin != 0 {
		t.Errorf("Expected zero stats, got %+v", empty)
	}

	store.SaveRun(Run{Layout: "classic", Steps: 5000, BlocksBroken: 50, BlocksTotal: 50, Won: true})
	store.SaveRun(Run{Layout: "classic", Steps: 4000, BlocksBroken: 50, BlocksTotal: 50, Won: true})
	store.SaveRun(Run{Layout: "classic", Steps: 800, BlocksBroken: 20, BlocksTotal: 50, Lost: true})

	st, err := store.Stats("classic")
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if st.Runs != 3 || st.Wins != 2 || st.Losses != 1 {
		t.Errorf("counts = %+v", st)
	}
	if st.BestBroken != 50 || st.FastestWin != 4000 {
		t.Errorf("best %d fastest %d, want 50 4000", st.BestBroken, st.FastestWin)
	}
	if st.AvgBroken != 40 {
		t.Errorf("AvgBroken = %v, want 40", st.AvgBroken)
	}
}
