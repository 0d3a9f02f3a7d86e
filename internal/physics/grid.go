package physics

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vovakirdan/breakout-sweep/internal/core"
)

// RectID is a handle into a session's flat rectangle table.
type RectID int

// CellRange is an inclusive range of grid cells.
type CellRange struct {
	Left, Right int
	Top, Bottom int
}

// Contains reports whether cell (cx, cy) is inside the range.
func (c CellRange) Contains(cx, cy int) bool {
	return cx >= c.Left && cx <= c.Right && cy >= c.Top && cy <= c.Bottom
}

func (c CellRange) union(o CellRange) CellRange {
	return CellRange{
		Left:   min(c.Left, o.Left),
		Right:  max(c.Right, o.Right),
		Top:    min(c.Top, o.Top),
		Bottom: max(c.Bottom, o.Bottom),
	}
}

// Grid is a uniform spatial hash over the arena. Each cell holds the ids of
// the rectangles whose AABB range covers it; every tracked rectangle also
// records the range it was indexed under so moves touch only changed cells.
//
// Reads (Query, QueryBox) are safe to run concurrently as long as no
// Update or Remove runs at the same time.
type Grid struct {
	cols, rows   int
	cellW, cellH float64

	cells   [][]RectID // cols*rows, row-major
	ranges  []CellRange
	tracked []bool
}

// NewGrid creates a grid covering the arena with cells of roughly cellSize.
// The arena is split into ceil(W/cellSize) by ceil(H/cellSize) cells, so the
// actual cell size is never larger than requested.
func NewGrid(arena Arena, cellSize float64) *Grid {
	cols, rows := 1, 1
	if cellSize > 0 {
		cols = max(1, int(math.Ceil(arena.Width/cellSize)))
		rows = max(1, int(math.Ceil(arena.Height/cellSize)))
	}
	return &Grid{
		cols:  cols,
		rows:  rows,
		cellW: arena.Width / float64(cols),
		cellH: arena.Height / float64(rows),
		cells: make([][]RectID, cols*rows),
	}
}

// Dims returns the number of columns and rows.
func (g *Grid) Dims() (cols, rows int) {
	return g.cols, g.rows
}

// CellSize returns the cell width and height.
func (g *Grid) CellSize() (w, h float64) {
	return g.cellW, g.cellH
}

// RangeOf returns the clamped cell range covered by box.
func (g *Grid) RangeOf(box core.AABB) CellRange {
	return CellRange{
		Left:   g.clampCol(int(math.Floor(box.Min.X() / g.cellW))),
		Right:  g.clampCol(int(math.Ceil(box.Max.X() / g.cellW))),
		Top:    g.clampRow(int(math.Floor(box.Min.Y() / g.cellH))),
		Bottom: g.clampRow(int(math.Ceil(box.Max.Y() / g.cellH))),
	}
}

func (g *Grid) clampCol(c int) int { return core.Clamp(c, 0, g.cols-1) }
func (g *Grid) clampRow(r int) int { return core.Clamp(r, 0, g.rows-1) }

// Range returns the range id was last indexed under.
func (g *Grid) Range(id RectID) (CellRange, bool) {
	if id < 0 || int(id) >= len(g.tracked) || !g.tracked[id] {
		return CellRange{}, false
	}
	return g.ranges[id], true
}

// Len returns the number of tracked rectangles.
func (g *Grid) Len() int {
	n := 0
	for _, ok := range g.tracked {
		if ok {
			n++
		}
	}
	return n
}

// Update indexes rect under id. A rectangle whose cell range did not change
// is left alone; a moved one is added to the cells it entered and removed
// from the cells it left.
func (g *Grid) Update(id RectID, rect Rect) {
	next := g.RangeOf(rect.Bounds())
	prev, ok := g.Range(id)
	if ok && prev == next {
		return
	}

	span := next
	if ok {
		span = prev.union(next)
	}
	for cy := span.Top; cy <= span.Bottom; cy++ {
		for cx := span.Left; cx <= span.Right; cx++ {
			switch {
			case next.Contains(cx, cy):
				g.add(cx, cy, id)
			case ok && prev.Contains(cx, cy):
				g.remove(cx, cy, id)
			}
		}
	}
	g.record(id, next)
}

// Remove strikes id from every cell it occupies. It returns false when id
// was not tracked.
func (g *Grid) Remove(id RectID) bool {
	r, ok := g.Range(id)
	if !ok {
		return false
	}
	for cy := r.Top; cy <= r.Bottom; cy++ {
		for cx := r.Left; cx <= r.Right; cx++ {
			g.remove(cx, cy, id)
		}
	}
	g.tracked[id] = false
	g.ranges[id] = CellRange{}
	return true
}

// Query returns the ids in the (2*radiusCells+1)^2 block of cells centered
// on the cell containing p, clamped at the grid edges. The result is sorted
// and free of duplicates. The collision manager uses QueryBox, which covers
// the whole swept segment.
func (g *Grid) Query(p mgl64.Vec2, radiusCells int) []RectID {
	cx := g.clampCol(int(math.Floor(p.X() / g.cellW)))
	cy := g.clampRow(int(math.Floor(p.Y() / g.cellH)))
	return g.collect(g.widen(CellRange{Left: cx, Right: cx, Top: cy, Bottom: cy}, radiusCells))
}

// QueryBox returns the ids in every cell touched by box, widened by
// radiusCells. The result is sorted and free of duplicates.
func (g *Grid) QueryBox(box core.AABB, radiusCells int) []RectID {
	return g.collect(g.widen(g.RangeOf(box), radiusCells))
}

// CellsOf scans the whole grid and returns the cells that list id.
func (g *Grid) CellsOf(id RectID) [][2]int {
	var out [][2]int
	for i, cell := range g.cells {
		if slices.Contains(cell, id) {
			out = append(out, [2]int{i % g.cols, i / g.cols})
		}
	}
	return out
}

// Verify checks that id is recorded under the range covered by rect and is
// listed in every cell of it. Together with VerifyCells this proves the
// indexed cell set equals the range.
func (g *Grid) Verify(id RectID, rect Rect) error {
	want := g.RangeOf(rect.Bounds())
	got, ok := g.Range(id)
	if !ok {
		return fmt.Errorf("%w: rect %d is not tracked", ErrInconsistentGrid, id)
	}
	if got != want {
		return fmt.Errorf("%w: rect %d recorded under %+v, bounds cover %+v", ErrInconsistentGrid, id, got, want)
	}
	for cy := want.Top; cy <= want.Bottom; cy++ {
		for cx := want.Left; cx <= want.Right; cx++ {
			if !slices.Contains(g.cells[cy*g.cols+cx], id) {
				return fmt.Errorf("%w: rect %d missing from cell (%d,%d)", ErrInconsistentGrid, id, cx, cy)
			}
		}
	}
	return nil
}

// VerifyCells checks that every id found in a cell was recorded as
// occupying that cell.
func (g *Grid) VerifyCells() error {
	for i, cell := range g.cells {
		cx, cy := i%g.cols, i/g.cols
		for _, id := range cell {
			r, ok := g.Range(id)
			if !ok || !r.Contains(cx, cy) {
				return fmt.Errorf("%w: rect %d listed in cell (%d,%d) outside its range", ErrInconsistentGrid, id, cx, cy)
			}
		}
	}
	return nil
}

func (g *Grid) widen(r CellRange, n int) CellRange {
	return CellRange{
		Left:   g.clampCol(r.Left - n),
		Right:  g.clampCol(r.Right + n),
		Top:    g.clampRow(r.Top - n),
		Bottom: g.clampRow(r.Bottom + n),
	}
}

func (g *Grid) collect(r CellRange) []RectID {
	var out []RectID
	for cy := r.Top; cy <= r.Bottom; cy++ {
		for cx := r.Left; cx <= r.Right; cx++ {
			out = append(out, g.cells[cy*g.cols+cx]...)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (g *Grid) add(cx, cy int, id RectID) {
	i := cy*g.cols + cx
	if !slices.Contains(g.cells[i], id) {
		g.cells[i] = append(g.cells[i], id)
	}
}

func (g *Grid) remove(cx, cy int, id RectID) {
	i := cy*g.cols + cx
	if j := slices.Index(g.cells[i], id); j >= 0 {
		g.cells[i] = slices.Delete(g.cells[i], j, j+1)
	}
}

func (g *Grid) record(id RectID, r CellRange) {
	for int(id) >= len(g.tracked) {
		g.tracked = append(g.tracked, false)
		g.ranges = append(g.ranges, CellRange{})
	}
	g.tracked[id] = true
	g.ranges[id] = r
}
