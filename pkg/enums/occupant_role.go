package enums

import "fmt"

// OccupantRole distinguishes the campaign owner from regular players.
// It is carried as a first-class field on each inventory; nothing is ever
// inferred from a character's display name.
type OccupantRole string

const (
	OccupantRoleDM     OccupantRole = "dm"
	OccupantRolePlayer OccupantRole = "player"
)

var validOccupantRoles = []OccupantRole{
	OccupantRoleDM,
	OccupantRolePlayer,
}

// String implements fmt.Stringer.
func (r OccupantRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known OccupantRole.
func (r OccupantRole) IsValid() bool {
	for _, candidate := range validOccupantRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseOccupantRole converts raw input into an OccupantRole.
func ParseOccupantRole(value string) (OccupantRole, error) {
	for _, candidate := range validOccupantRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid occupant role %q", value)
}
