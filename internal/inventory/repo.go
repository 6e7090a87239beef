package inventory

import (
	"context"

	"github.com/Cervini/reinventory-backend/pkg/db/models"
	"github.com/Cervini/reinventory-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the persistence surface for inventories and containers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	GetInventory(ctx context.Context, campaignID, ownerID uuid.UUID) (*models.Inventory, error)
	ListInventories(ctx context.Context, campaignID uuid.UUID) ([]models.Inventory, error)
	CreateInventory(ctx context.Context, inv *models.Inventory) error
	UpdateInventoryTray(ctx context.Context, campaignID, ownerID uuid.UUID, tray types.ItemList) error
	UpdateInventorySettings(ctx context.Context, inv *models.Inventory) error
	DeleteInventory(ctx context.Context, campaignID, ownerID uuid.UUID) error

	GetContainer(ctx context.Context, id uuid.UUID) (*models.Container, error)
	ListContainers(ctx context.Context, campaignID, ownerID uuid.UUID) ([]models.Container, error)
	FirstContainer(ctx context.Context, campaignID, ownerID uuid.UUID) (*models.Container, error)
	CreateContainer(ctx context.Context, c *models.Container) error
	UpdateContainer(ctx context.Context, c *models.Container) error
	UpdateContainerItems(ctx context.Context, id uuid.UUID, gridItems types.PlacedItemList, trayItems types.ItemList) error
	DeleteContainer(ctx context.Context, id uuid.UUID) error
	DeleteContainersForOwner(ctx context.Context, campaignID, ownerID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetInventory(ctx context.Context, campaignID, ownerID uuid.UUID) (*models.Inventory, error) {
	var inv models.Inventory
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND owner_id = ?", campaignID, ownerID).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) ListInventories(ctx context.Context, campaignID uuid.UUID) ([]models.Inventory, error) {
	var invs []models.Inventory
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&invs).Error
	return invs, err
}

func (r *repository) CreateInventory(ctx context.Context, inv *models.Inventory) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *repository) UpdateInventoryTray(ctx context.Context, campaignID, ownerID uuid.UUID, tray types.ItemList) error {
	return r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("campaign_id = ? AND owner_id = ?", campaignID, ownerID).
		Update("tray_items", tray).Error
}

func (r *repository) UpdateInventorySettings(ctx context.Context, inv *models.Inventory) error {
	return r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("campaign_id = ? AND owner_id = ?", inv.CampaignID, inv.OwnerID).
		Updates(map[string]any{
			"character_name":        inv.CharacterName,
			"total_max_weight":      inv.TotalMaxWeight,
			"weight_unit":           inv.WeightUnit,
			"strength":              inv.Strength,
			"size":                  inv.Size,
			"use_calculated_weight": inv.UseCalculatedWeight,
		}).Error
}

func (r *repository) DeleteInventory(ctx context.Context, campaignID, ownerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("campaign_id = ? AND owner_id = ?", campaignID, ownerID).
		Delete(&models.Inventory{}).Error
}

func (r *repository) GetContainer(ctx context.Context, id uuid.UUID) (*models.Container, error) {
	var c models.Container
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListContainers(ctx context.Context, campaignID, ownerID uuid.UUID) ([]models.Container, error) {
	var containers []models.Container
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND owner_id = ?", campaignID, ownerID).
		Order("created_at ASC").
		Find(&containers).Error
	return containers, err
}

func (r *repository) FirstContainer(ctx context.Context, campaignID, ownerID uuid.UUID) (*models.Container, error) {
	var c models.Container
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND owner_id = ?", campaignID, ownerID).
		Order("created_at ASC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) CreateContainer(ctx context.Context, c *models.Container) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) UpdateContainer(ctx context.Context, c *models.Container) error {
	return r.db.WithContext(ctx).
		Model(&models.Container{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"name":         c.Name,
			"grid_width":   c.GridWidth,
			"grid_height":  c.GridHeight,
			"track_weight": c.TrackWeight,
			"grid_items":   c.GridItems,
			"tray_items":   c.TrayItems,
		}).Error
}

func (r *repository) UpdateContainerItems(ctx context.Context, id uuid.UUID, gridItems types.PlacedItemList, trayItems types.ItemList) error {
	return r.db.WithContext(ctx).
		Model(&models.Container{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"grid_items": gridItems,
			"tray_items": trayItems,
		}).Error
}

func (r *repository) DeleteContainer(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Container{}).Error
}

func (r *repository) DeleteContainersForOwner(ctx context.Context, campaignID, ownerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("campaign_id = ? AND owner_id = ?", campaignID, ownerID).
		Delete(&models.Container{}).Error
}
