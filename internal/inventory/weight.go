package inventory

import (
	"github.com/Cervini/reinventory-backend/pkg/db/models"
	"github.com/Cervini/reinventory-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// itemWeight is unit weight times quantity; quantity zero counts as one so
// legacy items without an explicit stack size still weigh something.
func itemWeight(item types.Item) decimal.Decimal {
	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}
	return item.Weight.Mul(decimal.NewFromInt(int64(qty)))
}

// ContainerWeight sums a container's grid and tray items.
func ContainerWeight(c *models.Container) decimal.Decimal {
	total := decimal.Zero
	for _, placed := range c.GridItems {
		total = total.Add(itemWeight(placed.Item))
	}
	for _, item := range c.TrayItems {
		total = total.Add(itemWeight(item))
	}
	return total
}

// CarriedWeight sums every weight-tracked container plus the floor tray.
// Containers with TrackWeight disabled (a bag of holding) contribute
// nothing regardless of contents.
func CarriedWeight(inv *models.Inventory, containers []models.Container) decimal.Decimal {
	total := decimal.Zero
	for i := range containers {
		if !containers[i].TrackWeight {
			continue
		}
		total = total.Add(ContainerWeight(&containers[i]))
	}
	for _, item := range inv.TrayItems {
		total = total.Add(itemWeight(item))
	}
	return total
}

// MaxCarryWeight resolves the occupant's capacity: an explicit override
// wins, otherwise strength times the size multiplier (the five-times-score
// carrying rule, halved for small creatures and doubled per size above
// medium).
func MaxCarryWeight(inv *models.Inventory) decimal.Decimal {
	if !inv.UseCalculatedWeight && !inv.TotalMaxWeight.IsZero() {
		return inv.TotalMaxWeight
	}
	base := decimal.NewFromInt(int64(inv.Strength)).Mul(decimal.NewFromInt(5))
	switch inv.Size {
	case models.SizeTiny:
		return base.Div(decimal.NewFromInt(2))
	case models.SizeLarge:
		return base.Mul(decimal.NewFromInt(2))
	case models.SizeHuge:
		return base.Mul(decimal.NewFromInt(4))
	case models.SizeGargantuan:
		return base.Mul(decimal.NewFromInt(8))
	default:
		return base
	}
}
