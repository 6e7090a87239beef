package trade

import (
	"context"

	"github.com/Cervini/reinventory-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the persistence surface for trade rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, t *models.Trade) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	// GetByIDForUpdate takes a row lock so finalization works against a
	// snapshot no concurrent accept can move underneath it.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	ListForCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Trade, error)
	ListForOccupant(ctx context.Context, campaignID, occupantID uuid.UUID) ([]models.Trade, error)
	Update(ctx context.Context, t *models.Trade) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a trade repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, t *models.Trade) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	var t models.Trade
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	var t models.Trade
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) ListForCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Trade, error) {
	var trades []models.Trade
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&trades).Error
	return trades, err
}

func (r *repository) ListForOccupant(ctx context.Context, campaignID, occupantID uuid.UUID) ([]models.Trade, error) {
	var trades []models.Trade
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND (player_a = ? OR player_b = ?)", campaignID, occupantID, occupantID).
		Order("created_at ASC").
		Find(&trades).Error
	return trades, err
}

func (r *repository) Update(ctx context.Context, t *models.Trade) error {
	return r.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("id = ?", t.ID).
		Updates(map[string]any{
			"offer_a":    t.OfferA,
			"offer_b":    t.OfferB,
			"status":     t.Status,
			"accepted_a": t.AcceptedA,
			"accepted_b": t.AcceptedB,
		}).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Trade{}).Error
}
