package campaign

import (
	"context"

	"github.com/Cervini/reinventory-backend/pkg/db/models"
	dbtypes "github.com/Cervini/reinventory-backend/pkg/db/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the persistence surface for campaign documents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	ListForActor(ctx context.Context, actorID uuid.UUID) ([]models.Campaign, error)
	Update(ctx context.Context, c *models.Campaign) error
	UpdatePlayers(ctx context.Context, id uuid.UUID, players dbtypes.UUIDArray) error
	UpdateLayout(ctx context.Context, c *models.Campaign) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a campaign repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, c *models.Campaign) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	var c models.Campaign
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListForActor(ctx context.Context, actorID uuid.UUID) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.WithContext(ctx).
		Where("dm_id = ? OR ? = ANY(players)", actorID, actorID).
		Order("created_at DESC").
		Find(&campaigns).Error
	return campaigns, err
}

func (r *repository) Update(ctx context.Context, c *models.Campaign) error {
	return r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"name":                  c.Name,
			"default_backpack_size": c.DefaultBackpackSize,
		}).Error
}

func (r *repository) UpdatePlayers(ctx context.Context, id uuid.UUID, players dbtypes.UUIDArray) error {
	return r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ?", id).
		Update("players", players).Error
}

func (r *repository) UpdateLayout(ctx context.Context, c *models.Campaign) error {
	return r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ?", c.ID).
		Update("layout", c.Layout).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Campaign{}).Error
}
