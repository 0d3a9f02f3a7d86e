package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("embedded defaults differ from DefaultConfig():\n%+v\n%+v", cfg, DefaultConfig())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadCustomYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := []byte("ball:\n  count: 3\n  speed: 320\narena:\n  width: 640\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Ball.Count != 3 || cfg.Ball.Speed != 320 || cfg.Arena.Width != 640 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Ball.Radius != 7 || cfg.Arena.Height != 800 {
		t.Errorf("unset fields lost their defaults: %+v", cfg)
	}
}

func TestLoadCustomTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	data := []byte("[paddle]\nwidth = 140.0\n\n[sim]\nworkers = 4\nfixed_step = false\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Paddle.Width != 140 || cfg.Sim.Workers != 4 || cfg.Sim.FixedStep {
		t.Errorf("toml overrides not applied: %+v", cfg)
	}
	if cfg.Sim.DT != 0.008 {
		t.Errorf("dt = %v, want default 0.008", cfg.Sim.DT)
	}
}

func TestLoadMissingCustomFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of a missing custom file should fail")
	}
}

func TestLoadLocalConfigsDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	if err := os.MkdirAll("configs", 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join("configs", "breakout.yaml"), []byte("ball:\n  radius: 5\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ball.Radius != 5 {
		t.Errorf("radius = %v, want 5 from ./configs", cfg.Ball.Radius)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			want := DefaultConfig()
			want.Ball.Count = 4
			want.Sim.CheckGrid = true

			if err := Save(path, want); err != nil {
				t.Fatalf("Save() failed: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			if got != want {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestPresetsAndScaling(t *testing.T) {
	tests := []struct {
		preset DifficultyPreset
		speed  float64
		width  float64
		balls  int
	}{
		{DifficultyEasy, 200, 100, 1},
		{DifficultyNormal, 260, 88, 1},
		{DifficultyHard, 340, 72, 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			cfg := DefaultConfig()
			ApplyPreset(&cfg, tt.preset)
			scaled := cfg.Scaled()

			if !approx(scaled.Ball.Speed, tt.speed) {
				t.Errorf("ball speed = %v, want %v", scaled.Ball.Speed, tt.speed)
			}
			if !approx(scaled.Paddle.Width, tt.width) {
				t.Errorf("paddle width = %v, want %v", scaled.Paddle.Width, tt.width)
			}
			if scaled.Ball.Count != tt.balls {
				t.Errorf("ball count = %d, want %d", scaled.Ball.Count, tt.balls)
			}
		})
	}

	if _, ok := ParsePreset("insane"); ok {
		t.Error("ParsePreset accepted an unknown preset")
	}
	if p, ok := ParsePreset(""); !ok || p != DifficultyNormal {
		t.Errorf("ParsePreset(\"\") = %q, %v; want normal", p, ok)
	}
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ball.Count = 0
	cfg.Sim.DT = 0
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
	}
}
