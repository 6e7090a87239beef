package models

import (
	"time"

	dbtypes "github.com/Cervini/reinventory-backend/pkg/db/types"
	"github.com/Cervini/reinventory-backend/pkg/types"
	"github.com/google/uuid"
)

// Campaign is the scoping document for inventories and trades.
type Campaign struct {
	ID                  uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	DMID                uuid.UUID            `gorm:"column:dm_id;type:uuid;not null"`
	DMEmail             string               `gorm:"column:dm_email"`
	Name                string               `gorm:"column:name;not null"`
	Players             dbtypes.UUIDArray    `gorm:"column:players;type:uuid[]"`
	Layout              types.CampaignLayout `gorm:"column:layout;type:jsonb;serializer:json"`
	DefaultBackpackSize *types.GridSize      `gorm:"column:default_backpack_size;type:jsonb;serializer:json"`
	CreatedAt           time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
