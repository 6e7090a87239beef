package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WeaponStats carries weapon sub-stats. Opaque to placement logic.
type WeaponStats struct {
	Damage     string   `json:"damage,omitempty"`
	DamageType string   `json:"damageType,omitempty"`
	Range      string   `json:"range,omitempty"`
	Properties []string `json:"properties,omitempty"`
}

// ArmorStats carries armor sub-stats. Opaque to placement logic.
type ArmorStats struct {
	ArmorClass          int    `json:"armorClass,omitempty"`
	Category            string `json:"category,omitempty"`
	StealthDisadvantage bool   `json:"stealthDisadvantage,omitempty"`
	StrengthMin         int    `json:"strengthMin,omitempty"`
}

// Item is a placeable unit resident in a tray. It carries no coordinates:
// tray items are unordered and position-free. Items sitting on a grid are
// represented by PlacedItem instead, so the grid/tray distinction is checked
// at compile time rather than through optional fields.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	W           int             `json:"w"`
	H           int             `json:"h"`
	Type        string          `json:"type,omitempty"`
	Rarity      string          `json:"rarity,omitempty"`
	Attunement  bool            `json:"attunement"`
	Stackable   bool            `json:"stackable"`
	MaxStack    int             `json:"maxStack,omitempty"`
	Quantity    int             `json:"quantity,omitempty"`
	Cost        decimal.Decimal `json:"cost,omitempty"`
	Weight      decimal.Decimal `json:"weight,omitempty"`
	Description string          `json:"description,omitempty"`
	WeaponStats *WeaponStats    `json:"weaponStats,omitempty"`
	ArmorStats  *ArmorStats     `json:"armorStats,omitempty"`
}

// PlacedItem is an Item pinned to a grid cell. X and Y address the top-left
// cell of the item's w×h footprint.
type PlacedItem struct {
	Item
	X int `json:"x"`
	Y int `json:"y"`
}

// PlaceAt returns a PlacedItem anchored at the given cell.
func (i Item) PlaceAt(x, y int) PlacedItem {
	return PlacedItem{Item: i, X: x, Y: y}
}

// CloneWithID returns a copy of the item under a fresh identity. Pointer
// sub-stats are copied so the clone never aliases the original.
func (i Item) CloneWithID(id uuid.UUID) Item {
	clone := i
	clone.ID = id
	if i.WeaponStats != nil {
		ws := *i.WeaponStats
		ws.Properties = append([]string(nil), i.WeaponStats.Properties...)
		clone.WeaponStats = &ws
	}
	if i.ArmorStats != nil {
		as := *i.ArmorStats
		clone.ArmorStats = &as
	}
	return clone
}

// Strip drops the grid coordinates, returning the tray-resident form.
func (p PlacedItem) Strip() Item {
	return p.Item
}

// ItemList is a tray: an unordered, position-free collection.
type ItemList []Item

// PlacedItemList is the contents of a grid.
type PlacedItemList []PlacedItem

// IndexByID returns the position of the item with the given id, or -1.
func (l ItemList) IndexByID(id uuid.UUID) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// RemoveByID returns a copy of the list without the given item and whether
// the item was present.
func (l ItemList) RemoveByID(id uuid.UUID) (ItemList, bool) {
	idx := l.IndexByID(id)
	if idx < 0 {
		return l, false
	}
	out := make(ItemList, 0, len(l)-1)
	out = append(out, l[:idx]...)
	out = append(out, l[idx+1:]...)
	return out, true
}

// IndexByID returns the position of the placed item with the given id, or -1.
func (l PlacedItemList) IndexByID(id uuid.UUID) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// RemoveByID returns a copy of the list without the given item and whether
// the item was present.
func (l PlacedItemList) RemoveByID(id uuid.UUID) (PlacedItemList, bool) {
	idx := l.IndexByID(id)
	if idx < 0 {
		return l, false
	}
	out := make(PlacedItemList, 0, len(l)-1)
	out = append(out, l[:idx]...)
	out = append(out, l[idx+1:]...)
	return out, true
}

// Strip returns the tray-resident form of every placed item.
func (l PlacedItemList) Strip() ItemList {
	out := make(ItemList, 0, len(l))
	for _, p := range l {
		out = append(out, p.Strip())
	}
	return out
}
