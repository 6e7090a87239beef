package models

import (
	"time"

	"github.com/Cervini/reinventory-backend/pkg/enums"
	"github.com/Cervini/reinventory-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Creature size categories recognised by the carry-weight calculation.
const (
	SizeTiny       = "tiny"
	SizeSmall      = "small"
	SizeMedium     = "medium"
	SizeLarge      = "large"
	SizeHuge       = "huge"
	SizeGargantuan = "gargantuan"
)

// Inventory holds a single occupant's top-level inventory state within a
// campaign: identity, the "floor" tray, and weight-tracking settings.
// Containers live in their own rows and are joined by (campaign_id, owner_id).
type Inventory struct {
	CampaignID          uuid.UUID          `gorm:"column:campaign_id;type:uuid;primaryKey"`
	OwnerID             uuid.UUID          `gorm:"column:owner_id;type:uuid;primaryKey"`
	CharacterName       string             `gorm:"column:character_name;not null"`
	Role                enums.OccupantRole `gorm:"column:role;type:text;not null;default:'player'"`
	TrayItems           types.ItemList     `gorm:"column:tray_items;type:jsonb;serializer:json"`
	TotalMaxWeight      decimal.Decimal    `gorm:"column:total_max_weight;type:numeric"`
	WeightUnit          string             `gorm:"column:weight_unit;default:'lb'"`
	Strength            int                `gorm:"column:strength;not null;default:10"`
	Size                string             `gorm:"column:size;default:'medium'"`
	UseCalculatedWeight bool               `gorm:"column:use_calculated_weight;not null;default:false"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// IsDM reports whether this inventory belongs to the campaign owner, which
// exempts it from grid and weight rules.
func (i Inventory) IsDM() bool {
	return i.Role == enums.OccupantRoleDM
}
