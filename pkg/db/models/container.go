package models

import (
	"time"

	"github.com/Cervini/reinventory-backend/pkg/types"
	"github.com/google/uuid"
)

// Container is a bounded grid plus its associated tray, owned by one
// inventory. Items on the grid carry coordinates; items in the tray do not.
type Container struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	CampaignID  uuid.UUID            `gorm:"column:campaign_id;type:uuid;not null;index:idx_containers_owner"`
	OwnerID     uuid.UUID            `gorm:"column:owner_id;type:uuid;not null;index:idx_containers_owner"`
	Name        string               `gorm:"column:name;not null"`
	GridWidth   int                  `gorm:"column:grid_width;not null"`
	GridHeight  int                  `gorm:"column:grid_height;not null"`
	TrackWeight bool                 `gorm:"column:track_weight;not null;default:true"`
	GridItems   types.PlacedItemList `gorm:"column:grid_items;type:jsonb;serializer:json"`
	TrayItems   types.ItemList       `gorm:"column:tray_items;type:jsonb;serializer:json"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
