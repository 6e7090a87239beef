package types

import (
	"testing"

	"github.com/google/uuid"
)

func TestCloneWithIDDoesNotAliasStats(t *testing.T) {
	t.Parallel()

	orig := Item{
		ID:          uuid.New(),
		Name:        "Longsword",
		W:           1,
		H:           3,
		WeaponStats: &WeaponStats{Damage: "1d8", Properties: []string{"versatile"}},
	}

	clone := orig.CloneWithID(uuid.New())
	if clone.ID == orig.ID {
		t.Fatal("clone must receive a fresh id")
	}

	clone.WeaponStats.Damage = "2d6"
	clone.WeaponStats.Properties[0] = "heavy"
	if orig.WeaponStats.Damage != "1d8" {
		t.Fatal("clone aliases original weapon stats")
	}
	if orig.WeaponStats.Properties[0] != "versatile" {
		t.Fatal("clone aliases original properties slice")
	}
}

func TestRemoveByIDKeepsOriginalIntact(t *testing.T) {
	t.Parallel()

	a := Item{ID: uuid.New(), Name: "Rope"}
	b := Item{ID: uuid.New(), Name: "Torch"}
	list := ItemList{a, b}

	out, ok := list.RemoveByID(a.ID)
	if !ok {
		t.Fatal("expected removal")
	}
	if len(out) != 1 || out[0].ID != b.ID {
		t.Fatalf("unexpected result: %+v", out)
	}
	if len(list) != 2 {
		t.Fatal("original list mutated")
	}

	if _, ok := list.RemoveByID(uuid.New()); ok {
		t.Fatal("removal of unknown id must report false")
	}
}

func TestPlacedStripDropsCoordinates(t *testing.T) {
	t.Parallel()

	placed := Item{ID: uuid.New(), Name: "Shield", W: 2, H: 2}.PlaceAt(3, 1)
	stripped := placed.Strip()
	if stripped.ID != placed.ID || stripped.W != 2 || stripped.H != 2 {
		t.Fatalf("strip lost item fields: %+v", stripped)
	}

	list := PlacedItemList{placed}
	if got := list.Strip(); len(got) != 1 || got[0].ID != placed.ID {
		t.Fatalf("list strip mismatch: %+v", got)
	}
}
