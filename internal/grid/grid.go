// Package grid holds the pure placement geometry: bounds checks, footprint
// collision detection and the first-fit slot search. No I/O, no state;
// callers are responsible for passing well-formed non-negative geometry.
package grid

import "github.com/Cervini/reinventory-backend/pkg/types"

// Cell addresses a single grid square.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// OutOfBounds reports whether a w×h footprint anchored at (x, y) escapes a
// gridWidth×gridHeight grid.
func OutOfBounds(x, y, w, h, gridWidth, gridHeight int) bool {
	return x < 0 || y < 0 || x+w > gridWidth || y+h > gridHeight
}

// OccupiedTiles returns every cell a w×h footprint anchored at (x, y) covers.
func OccupiedTiles(x, y, w, h int) map[Cell]struct{} {
	tiles := make(map[Cell]struct{}, w*h)
	for col := x; col < x+w; col++ {
		for row := y; row < y+h; row++ {
			tiles[Cell{X: col, Y: row}] = struct{}{}
		}
	}
	return tiles
}

// Overlaps reports whether the active item, anchored at (x, y), shares any
// cell with the passive item at its stored position. Rectangular footprints
// make this an interval check on both axes.
func Overlaps(x, y int, active types.Item, passive types.PlacedItem) bool {
	if x+active.W <= passive.X || passive.X+passive.W <= x {
		return false
	}
	if y+active.H <= passive.Y || passive.Y+passive.H <= y {
		return false
	}
	return true
}

// CanPlace reports whether the item fits at (x, y) without leaving the grid
// or colliding with any of the passed items. Callers relocating an item must
// exclude it from items first.
func CanPlace(x, y int, item types.Item, items types.PlacedItemList, gridWidth, gridHeight int) bool {
	if OutOfBounds(x, y, item.W, item.H, gridWidth, gridHeight) {
		return false
	}
	for i := range items {
		if Overlaps(x, y, item, items[i]) {
			return false
		}
	}
	return true
}

// FindFirstAvailableSlot scans rows top to bottom and columns left to right
// within each row, returning the first cell where the item fits among the
// given items. The scan order is a deliberate tie-break: placement must be
// deterministic and favor the top-left corner.
func FindFirstAvailableSlot(items types.PlacedItemList, item types.Item, gridWidth, gridHeight int) (Cell, bool) {
	for y := 0; y+item.H <= gridHeight; y++ {
		for x := 0; x+item.W <= gridWidth; x++ {
			if CanPlace(x, y, item, items, gridWidth, gridHeight) {
				return Cell{X: x, Y: y}, true
			}
		}
	}
	return Cell{}, false
}
