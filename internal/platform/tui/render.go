package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/breakout-sweep/internal/core"
	"github.com/vovakirdan/breakout-sweep/internal/physics"
	"github.com/vovakirdan/breakout-sweep/internal/sim"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault: lipgloss.NewStyle(),
	core.ColorRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.ColorGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	core.ColorBlue:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	core.ColorMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	core.ColorCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	core.ColorWhite:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	core.ColorOrange:  lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	core.ColorGray:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// Glyphs used by the arena projection.
const (
	glyphBlock  = '█'
	glyphPaddle = '▀'
	glyphBall   = '●'
)

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			cell := s.GetCell(x, y)
			startColor := cell.Color

			var run strings.Builder
			for x < s.Width() {
				cell = s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// viewport maps arena units onto the cells inside the border box.
type viewport struct {
	field  core.Rect // Cells available for the arena, border excluded
	sx, sy float64
}

func newViewport(screen *core.Screen, arena physics.Arena) viewport {
	field := core.NewRect(1, 2, screen.Width()-2, screen.Height()-3)
	if field.W < 1 {
		field.W = 1
	}
	if field.H < 1 {
		field.H = 1
	}
	return viewport{
		field: field,
		sx:    float64(field.W) / arena.Width,
		sy:    float64(field.H) / arena.Height,
	}
}

// cell returns the screen cell containing arena point (x, y).
func (v viewport) cell(x, y float64) (int, int) {
	cx := core.Clamp(int(math.Floor(x*v.sx)), 0, v.field.W-1)
	cy := core.Clamp(int(math.Floor(y*v.sy)), 0, v.field.H-1)
	return v.field.X + cx, v.field.Y + cy
}

// rect returns the cells covered by r. Every rect covers at least one cell.
func (v viewport) rect(r physics.Rect) core.Rect {
	x0, y0 := v.cell(r.Left, r.Top)
	x1 := v.field.X + core.Clamp(int(math.Ceil(r.Right()*v.sx)), 1, v.field.W)
	y1 := v.field.Y + core.Clamp(int(math.Ceil(r.Bottom()*v.sy)), 1, v.field.H)
	return core.NewRect(x0, y0, max(1, x1-x0), max(1, y1-y0))
}

// HUD carries the text shown above the arena.
type HUD struct {
	Layout string
	Seed   uint64
	Paused bool
}

// DrawSession projects the session onto screen: a status line, the arena
// border, live blocks colored by row, the paddle and every live ball.
func DrawSession(screen *core.Screen, s *sim.Session, hud HUD) {
	screen.Clear()
	if screen.Width() < 4 || screen.Height() < 4 {
		screen.DrawText(0, 0, "too small")
		return
	}

	v := newViewport(screen, s.Arena())
	screen.DrawText(0, 0, statusLine(s, hud))
	screen.DrawBox(core.NewRect(0, 1, screen.Width(), screen.Height()-1))

	for _, b := range s.Blocks() {
		screen.DrawRect(v.rect(b), glyphBlock, blockColor(b))
	}

	p := s.Paddle()
	screen.DrawRect(v.rect(p.Rect), glyphPaddle, core.ColorWhite)

	for _, b := range s.Balls() {
		x, y := v.cell(b.Pos.X(), b.Pos.Y())
		screen.SetColored(x, y, glyphBall, core.ColorYellow)
	}

	if msg := banner(s, hud); msg != "" {
		screen.DrawTextCentered(v.field.Y+v.field.H/2, msg)
	}
}

func statusLine(s *sim.Session, hud HUD) string {
	return fmt.Sprintf(" %s  blocks %d/%d  balls %d  step %d  seed %d",
		hud.Layout, s.BlocksCleared(), s.BlocksTotal(), len(s.Balls()), s.Step(), hud.Seed)
}

func banner(s *sim.Session, hud HUD) string {
	switch {
	case s.Won():
		return " CLEARED - r: new serve, q: quit "
	case s.Lost():
		return " ALL BALLS LOST - r: new serve, q: quit "
	case s.Truncated():
		return " STEP LIMIT - r: new serve, q: quit "
	case hud.Paused:
		return " PAUSED "
	}
	return ""
}

// blockColor picks a palette entry from the block's row.
func blockColor(r physics.Rect) core.Color {
	row := 0
	if r.Height > 0 {
		row = int(r.Top / r.Height)
	}
	return core.BlockPalette[row%len(core.BlockPalette)]
}
