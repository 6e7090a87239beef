package inventory

import (
	"testing"

	"github.com/Cervini/reinventory-backend/pkg/db/models"
	"github.com/Cervini/reinventory-backend/pkg/types"
	"github.com/shopspring/decimal"
)

func TestMaxCarryWeightBySize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		size string
		want int64
	}{
		{models.SizeTiny, 25},
		{models.SizeSmall, 50},
		{models.SizeMedium, 50},
		{models.SizeLarge, 100},
		{models.SizeHuge, 200},
		{models.SizeGargantuan, 400},
	}
	for _, tc := range cases {
		t.Run(tc.size, func(t *testing.T) {
			inv := &models.Inventory{Strength: 10, Size: tc.size, UseCalculatedWeight: true}
			if got := MaxCarryWeight(inv); !got.Equal(decimal.NewFromInt(tc.want)) {
				t.Fatalf("max carry for %s = %s, want %d", tc.size, got, tc.want)
			}
		})
	}
}

func TestMaxCarryWeightManualOverride(t *testing.T) {
	t.Parallel()

	inv := &models.Inventory{Strength: 10, Size: models.SizeMedium, TotalMaxWeight: decimal.NewFromInt(300)}
	if got := MaxCarryWeight(inv); !got.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("max carry = %s, want override 300", got)
	}
}

func TestCarriedWeightSkipsUntrackedContainers(t *testing.T) {
	t.Parallel()

	heavy := testItem("anvil", 2, 2)
	heavy.Weight = decimal.NewFromInt(50)
	light := testItem("feather", 1, 1)
	light.Weight = decimal.NewFromFloat(0.5)

	containers := []models.Container{
		{TrackWeight: true, GridItems: types.PlacedItemList{light.PlaceAt(0, 0)}},
		// A bag of holding: contents weigh nothing.
		{TrackWeight: false, GridItems: types.PlacedItemList{heavy.PlaceAt(0, 0)}},
	}
	inv := &models.Inventory{}

	if got := CarriedWeight(inv, containers); !got.Equal(decimal.NewFromFloat(0.5)) {
		t.Fatalf("carried = %s, want 0.5", got)
	}
}

func TestItemWeightMultipliesByQuantity(t *testing.T) {
	t.Parallel()

	stack := stackableItem("javelins", 4)
	stack.Weight = decimal.NewFromInt(2)

	inv := &models.Inventory{TrayItems: types.ItemList{stack}}
	if got := CarriedWeight(inv, nil); !got.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("carried = %s, want 8", got)
	}
}
