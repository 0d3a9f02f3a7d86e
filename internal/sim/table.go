package sim

import (
	"github.com/vovakirdan/breakout-sweep/internal/physics"
)

// RectTable is the flat rectangle store shared by the session, the manager
// and the grid. Ids are indexes and are never reused; a destroyed block
// keeps its slot with live=false.
type RectTable struct {
	rects []physics.Rect
	live  []bool
}

// NewRectTable creates a table holding rects as ids 0..len(rects)-1.
func NewRectTable(rects []physics.Rect) *RectTable {
	t := &RectTable{
		rects: make([]physics.Rect, len(rects)),
		live:  make([]bool, len(rects)),
	}
	copy(t.rects, rects)
	for i := range t.live {
		t.live[i] = true
	}
	return t
}

// Add appends a live rectangle and returns its id.
func (t *RectTable) Add(r physics.Rect) physics.RectID {
	t.rects = append(t.rects, r)
	t.live = append(t.live, true)
	return physics.RectID(len(t.rects) - 1)
}

// Get returns the rectangle stored under id.
func (t *RectTable) Get(id physics.RectID) physics.Rect {
	return t.rects[id]
}

// Set replaces the rectangle stored under id.
func (t *RectTable) Set(id physics.RectID, r physics.Rect) {
	t.rects[id] = r
}

// Live reports whether id is still present.
func (t *RectTable) Live(id physics.RectID) bool {
	return id >= 0 && int(id) < len(t.live) && t.live[id]
}

// Kill marks id as gone. It returns false if id was already gone.
func (t *RectTable) Kill(id physics.RectID) bool {
	if !t.Live(id) {
		return false
	}
	t.live[id] = false
	return true
}

// Len returns the number of slots, live or not.
func (t *RectTable) Len() int {
	return len(t.rects)
}
