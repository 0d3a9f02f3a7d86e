package sim

import (
	"errors"
	"testing"

	"github.com/vovakirdan/breakout-sweep/internal/core"
)

func TestSnapshotRoundTrip(t *testing.T) {
	setup := wallSetup(
		BallSpec{Pos: core.V(600, 400), Vel: core.V(60, 190), Radius: 7},
		BallSpec{Pos: core.V(300, 450), Vel: core.V(-150, -140), Radius: 7},
	)
	a, err := New(setup)
	if err != nil {
		t.Fatal(err)
	}
	for range 300 {
		if err := a.Advance(DefaultDT, Track(a)); err != nil {
			t.Fatal(err)
		}
	}

	data, err := a.Snapshot().MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() failed: %v", err)
	}
	var decoded Snapshot
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary() failed: %v", err)
	}
	if decoded.Hash() != a.Snapshot().Hash() {
		t.Fatal("decoded snapshot hash differs from the encoded one")
	}

	b, err := New(wallSetup())
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Restore(decoded); err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	if b.Step() != a.Step() || len(b.Blocks()) != len(a.Blocks()) {
		t.Fatalf("restored step %d blocks %d, want %d %d", b.Step(), len(b.Blocks()), a.Step(), len(a.Blocks()))
	}

	for range 700 {
		if err := a.Advance(DefaultDT, Track(a)); err != nil {
			t.Fatal(err)
		}
		if err := b.Advance(DefaultDT, Track(b)); err != nil {
			t.Fatal(err)
		}
	}
	if a.Snapshot().Hash() != b.Snapshot().Hash() {
		t.Error("restored session diverged from the uninterrupted one")
	}
}

func TestRestoreRejectsBrokenSnapshot(t *testing.T) {
	s, err := New(wallSetup())
	if err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	snap.Live = snap.Live[:3]
	if err := s.Restore(snap); !errors.Is(err, ErrInvalidSetup) {
		t.Errorf("Restore() error = %v, want ErrInvalidSetup", err)
	}

	snap = s.Snapshot()
	snap.Balls[0].Radius = 0
	if err := s.Restore(snap); !errors.Is(err, ErrInvalidSetup) {
		t.Errorf("Restore() error = %v, want ErrInvalidSetup", err)
	}
}

func TestUnmarshalBinaryGarbage(t *testing.T) {
	var snap Snapshot
	if err := snap.UnmarshalBinary([]byte{0xc1, 0x00}); err == nil {
		t.Error("UnmarshalBinary() accepted garbage")
	}
}
