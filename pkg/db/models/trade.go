package models

import (
	"time"

	"github.com/Cervini/reinventory-backend/pkg/enums"
	"github.com/Cervini/reinventory-backend/pkg/types"
	"github.com/google/uuid"
)

// Trade is an ephemeral two-party negotiation. Finalization and cancellation
// delete the row; only pending and active trades are ever stored.
type Trade struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CampaignID uuid.UUID         `gorm:"column:campaign_id;type:uuid;not null;index"`
	PlayerA    uuid.UUID         `gorm:"column:player_a;type:uuid;not null"`
	PlayerB    uuid.UUID         `gorm:"column:player_b;type:uuid;not null"`
	OfferA     types.ItemList    `gorm:"column:offer_a;type:jsonb;serializer:json"`
	OfferB     types.ItemList    `gorm:"column:offer_b;type:jsonb;serializer:json"`
	Status     enums.TradeStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	AcceptedA  bool              `gorm:"column:accepted_a;not null;default:false"`
	AcceptedB  bool              `gorm:"column:accepted_b;not null;default:false"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// Players returns both participants in stored order.
func (t Trade) Players() [2]uuid.UUID {
	return [2]uuid.UUID{t.PlayerA, t.PlayerB}
}

// Involves reports whether the given actor is one of the two parties.
func (t Trade) Involves(actor uuid.UUID) bool {
	return t.PlayerA == actor || t.PlayerB == actor
}

// OfferOf returns the offer list belonging to the given party.
func (t Trade) OfferOf(actor uuid.UUID) types.ItemList {
	if actor == t.PlayerA {
		return t.OfferA
	}
	return t.OfferB
}

// BothAccepted reports whether both acceptance flags are currently set.
func (t Trade) BothAccepted() bool {
	return t.AcceptedA && t.AcceptedB
}
