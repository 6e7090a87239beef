package enums

// PlacementOutcome reports what actually happened to an item after a
// placement-affecting operation. The distinction is user-visible feedback:
// "could not fit, placed on tray" is a success with a different outcome, not
// an error.
type PlacementOutcome string

const (
	// OutcomePlaced means the item sits exactly where the caller asked.
	OutcomePlaced PlacementOutcome = "placed"
	// OutcomeRelocated means the requested spot did not work and first-fit
	// found another slot in the same grid.
	OutcomeRelocated PlacementOutcome = "relocated"
	// OutcomeMovedToTray means no grid slot existed and the item fell back
	// to a tray with its coordinates stripped.
	OutcomeMovedToTray PlacementOutcome = "moved_to_tray"
	// OutcomeReturnedToOrigin means the move was rejected and the item kept
	// its previous location untouched.
	OutcomeReturnedToOrigin PlacementOutcome = "returned_to_origin"
)

// String implements fmt.Stringer.
func (o PlacementOutcome) String() string {
	return string(o)
}
