// Package registry provides a global registry of block layouts.
// Layouts register themselves in init() functions, allowing the CLI, the
// TUI and rollouts to discover them by name.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/breakout-sweep/internal/config"
	"github.com/vovakirdan/breakout-sweep/internal/physics"
)

// Layout places blocks for a configuration. It returns rectangles in arena
// coordinates; the order becomes the block ids.
type Layout func(cfg config.Config) []physics.Rect

// LayoutInfo contains metadata about a registered layout.
type LayoutInfo struct {
	ID    string
	Title string
}

type entry struct {
	title  string
	layout Layout
}

var (
	layouts = make(map[string]entry)
	mu      sync.RWMutex
)

// Register adds a layout to the registry.
// Panics if a layout with the same ID is already registered.
func Register(id, title string, l Layout) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := layouts[id]; exists {
		panic(fmt.Sprintf("registry: layout %q already registered", id))
	}
	layouts[id] = entry{title: title, layout: l}
}

// List returns information about all registered layouts, sorted by ID.
func List() []LayoutInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]LayoutInfo, 0, len(layouts))
	for id, e := range layouts {
		result = append(result, LayoutInfo{ID: id, Title: e.title})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Get returns the layout registered under id.
func Get(id string) (Layout, error) {
	mu.RLock()
	defer mu.RUnlock()

	e, ok := layouts[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown layout %q", id)
	}
	return e.layout, nil
}

// Exists checks if a layout with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := layouts[id]
	return ok
}
