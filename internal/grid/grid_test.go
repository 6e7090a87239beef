package grid

import (
	"testing"

	"github.com/Cervini/reinventory-backend/pkg/types"
	"github.com/google/uuid"
)

func item(w, h int) types.Item {
	return types.Item{ID: uuid.New(), W: w, H: h}
}

func TestOutOfBounds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		x, y, w, h int
		want       bool
	}{
		{"fits exactly", 0, 0, 10, 5, false},
		{"negative x", -1, 0, 1, 1, true},
		{"negative y", 0, -1, 1, 1, true},
		{"right edge overflow", 9, 0, 2, 1, true},
		{"bottom edge overflow", 0, 4, 1, 2, true},
		{"interior", 3, 2, 2, 2, false},
		{"flush right", 8, 0, 2, 1, false},
		{"flush bottom", 0, 3, 1, 2, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := OutOfBounds(tc.x, tc.y, tc.w, tc.h, 10, 5); got != tc.want {
				t.Fatalf("OutOfBounds(%d,%d,%d,%d) = %v, want %v", tc.x, tc.y, tc.w, tc.h, got, tc.want)
			}
		})
	}
}

func TestOccupiedTiles(t *testing.T) {
	t.Parallel()

	tiles := OccupiedTiles(2, 1, 2, 3)
	if len(tiles) != 6 {
		t.Fatalf("expected 6 tiles, got %d", len(tiles))
	}
	for _, c := range []Cell{{2, 1}, {3, 1}, {2, 2}, {3, 2}, {2, 3}, {3, 3}} {
		if _, ok := tiles[c]; !ok {
			t.Fatalf("missing tile %+v", c)
		}
	}
}

func TestOverlaps(t *testing.T) {
	t.Parallel()

	passive := item(2, 2).PlaceAt(2, 2)

	if !Overlaps(3, 3, item(2, 2), passive) {
		t.Fatal("expected corner overlap")
	}
	if Overlaps(4, 2, item(1, 1), passive) {
		t.Fatal("adjacent cells must not overlap")
	}
	if Overlaps(0, 0, item(2, 2), passive) {
		t.Fatal("disjoint footprints must not overlap")
	}
	if !Overlaps(2, 2, item(1, 1), passive) {
		t.Fatal("contained footprint must overlap")
	}
}

func TestFindFirstAvailableSlotEmptyGrid(t *testing.T) {
	t.Parallel()

	slot, ok := FindFirstAvailableSlot(nil, item(1, 1), 3, 3)
	if !ok {
		t.Fatal("expected a slot on an empty grid")
	}
	if slot != (Cell{X: 0, Y: 0}) {
		t.Fatalf("expected top-left slot, got %+v", slot)
	}
}

func TestFindFirstAvailableSlotSkipsOccupied(t *testing.T) {
	t.Parallel()

	// 3x3 grid with a 2x2 item anchored at the origin.
	occupied := types.PlacedItemList{item(2, 2).PlaceAt(0, 0)}
	slot, ok := FindFirstAvailableSlot(occupied, item(1, 1), 3, 3)
	if !ok {
		t.Fatal("expected a slot")
	}
	if slot != (Cell{X: 2, Y: 0}) {
		t.Fatalf("expected {2,0}, got %+v", slot)
	}
}

func TestFindFirstAvailableSlotRowMajorOrder(t *testing.T) {
	t.Parallel()

	// Empty 10x5 grid: a 2x2 item goes to the origin, then a 3x1 item must
	// stay in the first row right of it.
	var items types.PlacedItemList

	first := item(2, 2)
	slot, ok := FindFirstAvailableSlot(items, first, 10, 5)
	if !ok || slot != (Cell{X: 0, Y: 0}) {
		t.Fatalf("expected {0,0}, got %+v ok=%v", slot, ok)
	}
	items = append(items, first.PlaceAt(slot.X, slot.Y))

	second := item(3, 1)
	slot, ok = FindFirstAvailableSlot(items, second, 10, 5)
	if !ok || slot != (Cell{X: 2, Y: 0}) {
		t.Fatalf("expected {2,0}, got %+v ok=%v", slot, ok)
	}
}

func TestFindFirstAvailableSlotFullGrid(t *testing.T) {
	t.Parallel()

	occupied := types.PlacedItemList{item(2, 2).PlaceAt(0, 0)}
	if _, ok := FindFirstAvailableSlot(occupied, item(2, 2), 2, 2); ok {
		t.Fatal("expected no slot on a full grid")
	}
	if _, ok := FindFirstAvailableSlot(nil, item(4, 1), 3, 3); ok {
		t.Fatal("expected no slot for an oversized footprint")
	}
}

func TestCanPlaceExcludesListedItems(t *testing.T) {
	t.Parallel()

	blocker := item(2, 2).PlaceAt(1, 1)
	if CanPlace(1, 1, item(1, 1), types.PlacedItemList{blocker}, 5, 5) {
		t.Fatal("expected collision with blocker")
	}
	if !CanPlace(1, 1, item(1, 1), nil, 5, 5) {
		t.Fatal("expected placement on empty grid")
	}
}
