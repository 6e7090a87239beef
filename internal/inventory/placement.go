package inventory

import (
	"github.com/Cervini/reinventory-backend/internal/grid"
	"github.com/Cervini/reinventory-backend/pkg/enums"
	pkgerrors "github.com/Cervini/reinventory-backend/pkg/errors"
	"github.com/Cervini/reinventory-backend/pkg/types"
	"github.com/google/uuid"
)

// Section names the list an item lives in.
type Section string

const (
	SectionGrid  Section = "grid"
	SectionTray  Section = "tray"
	SectionFloor Section = "floor"
)

// Location addresses one list within an owner's inventory. ContainerID is
// nil for the floor tray.
type Location struct {
	ContainerID *uuid.UUID `json:"containerId,omitempty"`
	Section     Section    `json:"section"`
}

// ContainerState is the mutable item state of one container.
type ContainerState struct {
	ID         uuid.UUID
	GridWidth  int
	GridHeight int
	GridItems  types.PlacedItemList
	TrayItems  types.ItemList
}

// OwnerState aggregates one occupant's floor tray and containers. The
// placement operations below mutate it in memory; the service layer decides
// which pieces to persist.
type OwnerState struct {
	FloorTray  types.ItemList
	Containers map[uuid.UUID]*ContainerState
}

// Effect reports what a placement operation did: the user-facing outcome
// tag plus the minimal set of lists that changed and need persisting.
type Effect struct {
	Outcome           enums.PlacementOutcome
	TouchedContainers []uuid.UUID
	FloorTouched      bool
	NewItemID         uuid.UUID
}

// Touch records a container list as changed.
func (e *Effect) Touch(containerID uuid.UUID) {
	for _, id := range e.TouchedContainers {
		if id == containerID {
			return
		}
	}
	e.TouchedContainers = append(e.TouchedContainers, containerID)
}

// Merge folds another effect's touched lists into this one.
func (e *Effect) Merge(other Effect) {
	for _, id := range other.TouchedContainers {
		e.Touch(id)
	}
	e.FloorTouched = e.FloorTouched || other.FloorTouched
}

// MoveRequest describes a drag-drop relocation.
type MoveRequest struct {
	ItemID uuid.UUID
	To     Location
	// X, Y are the drop cell for grid destinations. When nil (or not
	// placeable) the engine falls back to first-fit.
	X *int
	Y *int
}

// found is the resolved position of an item inside an OwnerState.
type found struct {
	loc   Location
	index int
}

// Find reports the list an item currently lives in.
func (st *OwnerState) Find(itemID uuid.UUID) (Location, bool) {
	f, ok := st.find(itemID)
	return f.loc, ok
}

func (st *OwnerState) find(itemID uuid.UUID) (found, bool) {
	if idx := st.FloorTray.IndexByID(itemID); idx >= 0 {
		return found{loc: Location{Section: SectionFloor}, index: idx}, true
	}
	for id, c := range st.Containers {
		cid := id
		if idx := c.GridItems.IndexByID(itemID); idx >= 0 {
			return found{loc: Location{ContainerID: &cid, Section: SectionGrid}, index: idx}, true
		}
		if idx := c.TrayItems.IndexByID(itemID); idx >= 0 {
			return found{loc: Location{ContainerID: &cid, Section: SectionTray}, index: idx}, true
		}
	}
	return found{}, false
}

// take removes the item from whichever list holds it and returns its
// tray-resident form together with its origin.
func (st *OwnerState) take(itemID uuid.UUID) (types.Item, found, error) {
	f, ok := st.find(itemID)
	if !ok {
		return types.Item{}, found{}, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	switch f.loc.Section {
	case SectionFloor:
		item := st.FloorTray[f.index]
		st.FloorTray, _ = st.FloorTray.RemoveByID(itemID)
		return item, f, nil
	case SectionGrid:
		c := st.Containers[*f.loc.ContainerID]
		item := c.GridItems[f.index].Strip()
		c.GridItems, _ = c.GridItems.RemoveByID(itemID)
		return item, f, nil
	default:
		c := st.Containers[*f.loc.ContainerID]
		item := c.TrayItems[f.index]
		c.TrayItems, _ = c.TrayItems.RemoveByID(itemID)
		return item, f, nil
	}
}

// restore puts a previously taken item back at its origin. Grid origins are
// re-placed at their stored coordinates, which are still free because
// restore only runs before any other mutation.
func (st *OwnerState) restore(item types.Item, f found, x, y int) {
	switch f.loc.Section {
	case SectionFloor:
		st.FloorTray = append(st.FloorTray, item)
	case SectionGrid:
		c := st.Containers[*f.loc.ContainerID]
		c.GridItems = append(c.GridItems, item.PlaceAt(x, y))
	default:
		c := st.Containers[*f.loc.ContainerID]
		c.TrayItems = append(c.TrayItems, item)
	}
}

// relocateOrTray is the shared three-tier fallback: requested spot, then
// first-fit, then the given tray. Rotate, edit, resize and split all funnel
// through it so the tiers cannot drift apart.
func relocateOrTray(c *ContainerState, item types.Item, preferX, preferY *int, tray *types.ItemList) enums.PlacementOutcome {
	if preferX != nil && preferY != nil && grid.CanPlace(*preferX, *preferY, item, c.GridItems, c.GridWidth, c.GridHeight) {
		c.GridItems = append(c.GridItems, item.PlaceAt(*preferX, *preferY))
		return enums.OutcomePlaced
	}
	if slot, ok := grid.FindFirstAvailableSlot(c.GridItems, item, c.GridWidth, c.GridHeight); ok {
		c.GridItems = append(c.GridItems, item.PlaceAt(slot.X, slot.Y))
		if preferX == nil && preferY == nil {
			return enums.OutcomePlaced
		}
		return enums.OutcomeRelocated
	}
	*tray = append(*tray, item)
	return enums.OutcomeMovedToTray
}

// Move relocates an item to the requested destination. Tray and floor
// destinations always succeed; grid destinations fall back to first-fit and,
// when the grid is full, reject the move and return the item to its origin.
func Move(st *OwnerState, req MoveRequest) (Effect, error) {
	var eff Effect

	f, ok := st.find(req.ItemID)
	if !ok {
		return eff, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	var originX, originY int
	if f.loc.Section == SectionGrid {
		placed := st.Containers[*f.loc.ContainerID].GridItems[f.index]
		originX, originY = placed.X, placed.Y
	}

	item, f, err := st.take(req.ItemID)
	if err != nil {
		return eff, err
	}

	markOrigin := func() {
		if f.loc.Section == SectionFloor {
			eff.FloorTouched = true
		} else {
			eff.Touch(*f.loc.ContainerID)
		}
	}

	switch req.To.Section {
	case SectionFloor:
		st.FloorTray = append(st.FloorTray, item)
		eff.FloorTouched = true
		markOrigin()
		eff.Outcome = enums.OutcomePlaced
		return eff, nil

	case SectionTray:
		if req.To.ContainerID == nil {
			st.restore(item, f, originX, originY)
			return eff, pkgerrors.New(pkgerrors.CodeValidation, "tray destination requires a container id")
		}
		c, ok := st.Containers[*req.To.ContainerID]
		if !ok {
			st.restore(item, f, originX, originY)
			return eff, pkgerrors.New(pkgerrors.CodeNotFound, "destination container not found")
		}
		c.TrayItems = append(c.TrayItems, item)
		eff.Touch(c.ID)
		markOrigin()
		eff.Outcome = enums.OutcomePlaced
		return eff, nil

	case SectionGrid:
		if req.To.ContainerID == nil {
			st.restore(item, f, originX, originY)
			return eff, pkgerrors.New(pkgerrors.CodeValidation, "grid destination requires a container id")
		}
		c, ok := st.Containers[*req.To.ContainerID]
		if !ok {
			st.restore(item, f, originX, originY)
			return eff, pkgerrors.New(pkgerrors.CodeNotFound, "destination container not found")
		}
		if req.X != nil && req.Y != nil && grid.CanPlace(*req.X, *req.Y, item, c.GridItems, c.GridWidth, c.GridHeight) {
			c.GridItems = append(c.GridItems, item.PlaceAt(*req.X, *req.Y))
			eff.Touch(c.ID)
			markOrigin()
			eff.Outcome = enums.OutcomePlaced
			return eff, nil
		}
		if slot, ok := grid.FindFirstAvailableSlot(c.GridItems, item, c.GridWidth, c.GridHeight); ok {
			c.GridItems = append(c.GridItems, item.PlaceAt(slot.X, slot.Y))
			eff.Touch(c.ID)
			markOrigin()
			if req.X == nil {
				eff.Outcome = enums.OutcomePlaced
			} else {
				eff.Outcome = enums.OutcomeRelocated
			}
			return eff, nil
		}
		// No slot for this footprint: the move is rejected, never the item.
		st.restore(item, f, originX, originY)
		eff.Outcome = enums.OutcomeReturnedToOrigin
		return eff, nil

	default:
		st.restore(item, f, originX, originY)
		return eff, pkgerrors.New(pkgerrors.CodeValidation, "unknown destination section")
	}
}

// Rotate swaps an item's footprint in place when possible, relocates it via
// first-fit otherwise, and strips it onto the floor tray as the last resort.
// Only non-stackable grid items rotate.
func Rotate(st *OwnerState, itemID uuid.UUID) (Effect, error) {
	var eff Effect

	f, ok := st.find(itemID)
	if !ok {
		return eff, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	if f.loc.Section != SectionGrid {
		return eff, pkgerrors.New(pkgerrors.CodeValidation, "only grid items can rotate")
	}
	c := st.Containers[*f.loc.ContainerID]
	placed := c.GridItems[f.index]
	if placed.Stackable {
		return eff, pkgerrors.New(pkgerrors.CodeValidation, "stackable items cannot rotate")
	}

	rotated := placed.Strip()
	rotated.W, rotated.H = placed.H, placed.W

	c.GridItems, _ = c.GridItems.RemoveByID(itemID)
	eff.Touch(c.ID)

	x, y := placed.X, placed.Y
	outcome := relocateOrTray(c, rotated, &x, &y, &st.FloorTray)
	if outcome == enums.OutcomeMovedToTray {
		// relocateOrTray appended to the container tray slot we passed;
		// for rotate the fallback tray is the floor.
		eff.FloorTouched = true
	}
	eff.Outcome = outcome
	return eff, nil
}

// Edit replaces an item's fields. Tray and floor items never need geometry
// checks; grid items whose footprint changed run the shared fallback chain.
func Edit(st *OwnerState, updated types.Item) (Effect, error) {
	var eff Effect

	f, ok := st.find(updated.ID)
	if !ok {
		return eff, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	if updated.W <= 0 || updated.H <= 0 {
		return eff, pkgerrors.New(pkgerrors.CodeValidation, "item footprint must be positive")
	}

	switch f.loc.Section {
	case SectionFloor:
		st.FloorTray[f.index] = updated
		eff.FloorTouched = true
		eff.Outcome = enums.OutcomePlaced
		return eff, nil

	case SectionTray:
		c := st.Containers[*f.loc.ContainerID]
		c.TrayItems[f.index] = updated
		eff.Touch(c.ID)
		eff.Outcome = enums.OutcomePlaced
		return eff, nil

	default:
		c := st.Containers[*f.loc.ContainerID]
		placed := c.GridItems[f.index]
		c.GridItems, _ = c.GridItems.RemoveByID(updated.ID)
		eff.Touch(c.ID)

		x, y := placed.X, placed.Y
		outcome := relocateOrTray(c, updated, &x, &y, &st.FloorTray)
		if outcome == enums.OutcomeMovedToTray {
			eff.FloorTouched = true
		}
		eff.Outcome = outcome
		return eff, nil
	}
}

// Split carves amount units off a stackable item into a new item with a
// fresh id. The new item tries the same container's grid first and falls
// back to that container's tray; splits on the floor stay on the floor.
func Split(st *OwnerState, itemID uuid.UUID, amount int, newID uuid.UUID) (Effect, error) {
	var eff Effect

	f, ok := st.find(itemID)
	if !ok {
		return eff, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	var original *types.Item
	switch f.loc.Section {
	case SectionFloor:
		original = &st.FloorTray[f.index]
	case SectionGrid:
		original = &st.Containers[*f.loc.ContainerID].GridItems[f.index].Item
	default:
		original = &st.Containers[*f.loc.ContainerID].TrayItems[f.index]
	}

	if !original.Stackable {
		return eff, pkgerrors.New(pkgerrors.CodeValidation, "item is not stackable")
	}
	if amount <= 0 || amount >= original.Quantity {
		return eff, pkgerrors.New(pkgerrors.CodeValidation, "split amount must be between 1 and quantity-1")
	}

	original.Quantity -= amount
	split := original.CloneWithID(newID)
	split.Quantity = amount
	eff.NewItemID = newID

	if f.loc.Section == SectionFloor {
		st.FloorTray = append(st.FloorTray, split)
		eff.FloorTouched = true
		eff.Outcome = enums.OutcomeMovedToTray
		return eff, nil
	}

	c := st.Containers[*f.loc.ContainerID]
	eff.Touch(c.ID)
	eff.Outcome = relocateOrTray(c, split, nil, nil, &c.TrayItems)
	return eff, nil
}

// Duplicate clones an item under a fresh id into the owning container's
// tray (or the floor for floor items). Grid placement is deliberately never
// attempted on duplication.
func Duplicate(st *OwnerState, itemID uuid.UUID, newID uuid.UUID) (Effect, error) {
	var eff Effect

	f, ok := st.find(itemID)
	if !ok {
		return eff, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	eff.NewItemID = newID

	switch f.loc.Section {
	case SectionFloor:
		st.FloorTray = append(st.FloorTray, st.FloorTray[f.index].CloneWithID(newID))
		eff.FloorTouched = true
	case SectionGrid:
		c := st.Containers[*f.loc.ContainerID]
		c.TrayItems = append(c.TrayItems, c.GridItems[f.index].Strip().CloneWithID(newID))
		eff.Touch(c.ID)
	default:
		c := st.Containers[*f.loc.ContainerID]
		c.TrayItems = append(c.TrayItems, c.TrayItems[f.index].CloneWithID(newID))
		eff.Touch(c.ID)
	}
	eff.Outcome = enums.OutcomeMovedToTray
	return eff, nil
}

// Take removes an item from whichever list holds it and returns its
// tray-resident form. Trade finalization uses it to pull offered items out
// of the giver's state.
func Take(st *OwnerState, itemID uuid.UUID) (types.Item, Effect, error) {
	var eff Effect

	item, f, err := st.take(itemID)
	if err != nil {
		return types.Item{}, eff, err
	}
	if f.loc.Section == SectionFloor {
		eff.FloorTouched = true
	} else {
		eff.Touch(*f.loc.ContainerID)
	}
	return item, eff, nil
}

// Remove deletes an item from whichever list currently holds it.
func Remove(st *OwnerState, itemID uuid.UUID) (Effect, error) {
	var eff Effect

	_, f, err := st.take(itemID)
	if err != nil {
		return eff, err
	}
	if f.loc.Section == SectionFloor {
		eff.FloorTouched = true
	} else {
		eff.Touch(*f.loc.ContainerID)
	}
	eff.Outcome = enums.OutcomePlaced
	return eff, nil
}

// Resize changes a container's grid dimensions and re-validates every
// placed item. Items that no longer fit relocate via first-fit among the
// survivors or fall back to the container's tray.
func Resize(c *ContainerState, newWidth, newHeight int) (enums.PlacementOutcome, error) {
	if newWidth <= 0 || newHeight <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "grid dimensions must be positive")
	}

	previous := c.GridItems
	c.GridWidth = newWidth
	c.GridHeight = newHeight
	c.GridItems = make(types.PlacedItemList, 0, len(previous))

	outcome := enums.OutcomePlaced
	for _, placed := range previous {
		x, y := placed.X, placed.Y
		switch relocateOrTray(c, placed.Strip(), &x, &y, &c.TrayItems) {
		case enums.OutcomeRelocated:
			if outcome == enums.OutcomePlaced {
				outcome = enums.OutcomeRelocated
			}
		case enums.OutcomeMovedToTray:
			outcome = enums.OutcomeMovedToTray
		}
	}
	return outcome, nil
}
