package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/breakout-sweep/internal/core"
	"github.com/vovakirdan/breakout-sweep/internal/sim"
	"github.com/vovakirdan/breakout-sweep/internal/storage"
)

// holdWindow keeps a paddle direction active between terminal key repeats,
// which arrive slower than frames.
const holdWindow = 120 * time.Millisecond

// SetupFunc builds the setup for a new serve from a seed.
type SetupFunc func(seed uint64) (sim.Setup, error)

// PlayConfig describes how a session is built and stepped.
type PlayConfig struct {
	Layout    string
	Build     SetupFunc
	Options   []sim.Option
	DT        float64 // Fixed step in seconds
	MaxDT     float64 // Upper bound for wall-clock steps
	FixedStep bool
	Runtime   core.RuntimeConfig
	Logger    *log.Logger
}

// Model is the Bubble Tea model that plays one layout.
type Model struct {
	cfg        PlayConfig
	session    *sim.Session
	seed       uint64
	screen     *core.Screen
	store      *storage.Store
	keyMapper  *KeyMapper
	keys       PlayKeyMap
	help       help.Model
	inputFrame core.InputFrame
	held       core.Direction
	heldUntil  time.Time
	lastTick   time.Time
	paused     bool
	quitting   bool
	goingBack  bool
	runSaved   bool // Whether the current run has been recorded
	err        error
}

// NewModel creates a new Bubble Tea model and serves the first session.
func NewModel(cfg PlayConfig, store *storage.Store) (Model, error) {
	if cfg.Build == nil {
		return Model{}, errors.New("tui: no setup builder")
	}
	if cfg.DT <= 0 {
		cfg.DT = sim.DefaultDT
	}
	if cfg.MaxDT < cfg.DT {
		cfg.MaxDT = cfg.DT
	}
	if cfg.Runtime.Seed == 0 {
		cfg.Runtime.Seed = time.Now().UnixNano()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	m := Model{
		cfg:        cfg,
		screen:     core.NewScreen(cfg.Runtime.ScreenW, max(1, cfg.Runtime.ScreenH-1)),
		store:      store,
		keyMapper:  NewKeyMapper(),
		keys:       DefaultPlayKeyMap(),
		help:       help.New(),
		inputFrame: core.NewInputFrame(),
	}
	if err := m.serve(uint64(cfg.Runtime.Seed)); err != nil {
		return Model{}, err
	}
	return m, nil
}

// serve replaces the session with a fresh one built from seed.
func (m *Model) serve(seed uint64) error {
	setup, err := m.cfg.Build(seed)
	if err != nil {
		return err
	}
	s, err := sim.New(setup, m.cfg.Options...)
	if err != nil {
		return err
	}
	m.session = s
	m.seed = seed
	m.runSaved = false
	m.paused = false
	m.held = core.DirStay
	m.lastTick = time.Time{}
	return nil
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.cfg.Runtime.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case TickMsg:
		return m.handleTick(time.Time(msg))
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Screenshot):
		m.saveScreenshot()
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Back):
		m.recordRun()
		m.goingBack = true
		return m, tea.Quit
	}

	if m.keyMapper.MapKeyToFrame(msg, &m.inputFrame) {
		m.recordRun()
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// handleResize processes window resize events. The arena is scaled to the
// new size; the session itself is untouched.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.cfg.Runtime.ScreenW = msg.Width
	m.cfg.Runtime.ScreenH = msg.Height
	m.screen.Resize(msg.Width, max(1, msg.Height-1))
	m.help.Width = msg.Width
	return m, nil
}

// handleTick advances the session by one frame.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	defer m.inputFrame.Clear()

	if m.inputFrame.Has(core.ActionRestart) && m.session.Done() {
		if err := m.serve(uint64(now.UnixNano())); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, tickCmd(m.cfg.Runtime.TickRate)
	}
	if m.inputFrame.Has(core.ActionPause) && !m.session.Done() {
		m.paused = !m.paused
		m.lastTick = time.Time{}
	}
	if d := m.inputFrame.Direction(); d != core.DirStay {
		m.held = d
		m.heldUntil = now.Add(holdWindow)
	}

	if m.paused || m.session.Done() {
		return m, tickCmd(m.cfg.Runtime.TickRate)
	}

	dir := core.DirStay
	if now.Before(m.heldUntil) {
		dir = m.held
	}
	if err := m.session.Advance(m.stepTime(now), dir); err != nil {
		m.err = err
		return m, tea.Quit
	}
	if m.session.Done() {
		m.recordRun()
	}
	return m, tickCmd(m.cfg.Runtime.TickRate)
}

// stepTime returns the dt for this frame: the fixed step, or the wall time
// since the previous frame clamped to MaxDT.
func (m *Model) stepTime(now time.Time) float64 {
	if m.cfg.FixedStep || m.lastTick.IsZero() {
		m.lastTick = now
		return m.cfg.DT
	}
	dt := now.Sub(m.lastTick).Seconds()
	m.lastTick = now
	if dt <= 0 {
		return m.cfg.DT
	}
	return min(dt, m.cfg.MaxDT)
}

// recordRun stores the current run once. Runs that never started are skipped.
func (m *Model) recordRun() {
	if m.runSaved || m.store == nil || m.session.Step() == 0 {
		return
	}
	m.runSaved = true

	blob, err := m.session.Snapshot().MarshalBinary()
	if err != nil {
		m.cfg.Logger.Warn("snapshot encode failed", "err", err)
	}
	run := storage.Run{
		Layout:       m.cfg.Layout,
		Seed:         m.seed,
		Steps:        m.session.Step(),
		BlocksBroken: m.session.BlocksCleared(),
		BlocksTotal:  m.session.BlocksTotal(),
		Won:          m.session.Won(),
		Lost:         m.session.Lost(),
		Snapshot:     blob,
	}
	if _, err := m.store.SaveRun(run); err != nil {
		m.cfg.Logger.Warn("save run failed", "layout", run.Layout, "err", err)
	}
}

// saveScreenshot saves the current screen to a file.
func (m *Model) saveScreenshot() {
	m.draw()

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	dir := filepath.Join(home, ".sweep", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", m.cfg.Layout, timestamp))

	//nolint:errcheck // Best-effort save, the session continues regardless
	os.WriteFile(path, []byte(m.screen.String()), 0o600)
}

func (m *Model) draw() {
	DrawSession(m.screen, m.session, HUD{Layout: m.cfg.Layout, Seed: m.seed, Paused: m.paused})
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting || m.goingBack {
		return ""
	}
	m.draw()
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	return RenderScreen(m.screen) + "\n" + helpStyle.Render(m.help.View(m.keys))
}

// Session returns the running session.
func (m Model) Session() *sim.Session {
	return m.session
}

// IsQuitting returns true if user requested to quit entirely.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// IsGoingBack returns true if the user wants to return to the layout picker.
func (m Model) IsGoingBack() bool {
	return m.goingBack
}

// Err returns the error that stopped the model, if any.
func (m Model) Err() error {
	return m.err
}

// Run starts the Bubble Tea program for one layout.
// Returns true if the user asked to go back rather than quit.
func Run(cfg PlayConfig, store *storage.Store) (goBack bool, err error) {
	model, err := NewModel(cfg, store)
	if err != nil {
		return false, err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m, ok := finalModel.(Model)
	if !ok {
		return false, nil
	}
	return m.IsGoingBack(), m.Err()
}
