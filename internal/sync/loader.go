package sync

import (
	"context"

	"github.com/Cervini/reinventory-backend/internal/campaign"
	"github.com/Cervini/reinventory-backend/internal/inventory"
	"github.com/Cervini/reinventory-backend/internal/trade"
	"github.com/Cervini/reinventory-backend/pkg/db/models"
	"github.com/google/uuid"
)

// Loader reads the documents a watcher mirrors. Each method corresponds to
// one subscription scope and is called on every change event for that scope.
type Loader interface {
	Campaign(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error)
	Inventories(ctx context.Context, campaignID uuid.UUID) ([]models.Inventory, error)
	Containers(ctx context.Context, campaignID, ownerID uuid.UUID) ([]models.Container, error)
	Trades(ctx context.Context, campaignID uuid.UUID) ([]models.Trade, error)
}

type repoLoader struct {
	campaigns   campaign.Repository
	inventories inventory.Repository
	trades      trade.Repository
}

// NewLoader builds a Loader over the persistence repositories.
func NewLoader(campaigns campaign.Repository, inventories inventory.Repository, trades trade.Repository) Loader {
	return &repoLoader{campaigns: campaigns, inventories: inventories, trades: trades}
}

func (l *repoLoader) Campaign(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error) {
	return l.campaigns.GetByID(ctx, campaignID)
}

func (l *repoLoader) Inventories(ctx context.Context, campaignID uuid.UUID) ([]models.Inventory, error) {
	return l.inventories.ListInventories(ctx, campaignID)
}

func (l *repoLoader) Containers(ctx context.Context, campaignID, ownerID uuid.UUID) ([]models.Container, error) {
	return l.inventories.ListContainers(ctx, campaignID, ownerID)
}

func (l *repoLoader) Trades(ctx context.Context, campaignID uuid.UUID) ([]models.Trade, error) {
	return l.trades.ListForCampaign(ctx, campaignID)
}
