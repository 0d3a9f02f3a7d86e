package registry

import (
	"github.com/vovakirdan/breakout-sweep/internal/config"
	"github.com/vovakirdan/breakout-sweep/internal/physics"
)

// DefaultLayout is used when no layout is named.
const DefaultLayout = "classic"

func init() {
	Register("classic", "Classic wall", Classic)
	Register("pyramid", "Pyramid", Pyramid)
	Register("checker", "Checkerboard", Checker)
	Register("columns", "Columns", Columns)
	Register("single", "Single block", Single)
}

// slot returns the block at row, col of the configured wall. Columns are
// spread evenly with equal gaps at both walls.
func slot(cfg config.Config, row, col int) physics.Rect {
	b := cfg.Blocks
	gap := (cfg.Arena.Width - float64(b.Cols)*b.Width) / float64(b.Cols+1)
	left := gap + float64(col)*(gap+b.Width)
	top := b.Top + float64(row)*(b.Height+b.RowGap)
	return physics.RectAt(left, top, b.Width, b.Height)
}

// wall keeps the slots for which keep returns true, column-major like the
// classic wall.
func wall(cfg config.Config, keep func(row, col int) bool) []physics.Rect {
	var out []physics.Rect
	for col := range cfg.Blocks.Cols {
		for row := range cfg.Blocks.Rows {
			if keep(row, col) {
				out = append(out, slot(cfg, row, col))
			}
		}
	}
	return out
}

// Classic fills every slot.
func Classic(cfg config.Config) []physics.Rect {
	return wall(cfg, func(int, int) bool { return true })
}

// Pyramid narrows by one block per side on each lower row, widest on top.
func Pyramid(cfg config.Config) []physics.Rect {
	cols := cfg.Blocks.Cols
	return wall(cfg, func(row, col int) bool {
		return col >= row && col < cols-row
	})
}

// Checker keeps alternating slots.
func Checker(cfg config.Config) []physics.Rect {
	return wall(cfg, func(row, col int) bool { return (row+col)%2 == 0 })
}

// Columns keeps every other column.
func Columns(cfg config.Config) []physics.Rect {
	return wall(cfg, func(_, col int) bool { return col%2 == 0 })
}

// Single places one block centered in the top row.
func Single(cfg config.Config) []physics.Rect {
	b := cfg.Blocks
	return []physics.Rect{physics.RectAt((cfg.Arena.Width-b.Width)/2, b.Top, b.Width, b.Height)}
}
