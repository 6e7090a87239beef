package changebus

import (
	"fmt"

	"github.com/google/uuid"
)

// Document path conventions. Each path doubles as a pub/sub topic: one topic
// per campaign document, one per inventories collection, one per player's
// containers sub-collection, one per campaign's trades.

func CampaignPath(campaignID uuid.UUID) string {
	return fmt.Sprintf("campaigns/%s", campaignID)
}

func InventoriesPath(campaignID uuid.UUID) string {
	return fmt.Sprintf("campaigns/%s/inventories", campaignID)
}

func ContainersPath(campaignID, ownerID uuid.UUID) string {
	return fmt.Sprintf("campaigns/%s/inventories/%s/containers", campaignID, ownerID)
}

func TradesPath(campaignID uuid.UUID) string {
	return fmt.Sprintf("campaigns/%s/trades", campaignID)
}
