package campaign

import (
	"context"
	"errors"

	"github.com/Cervini/reinventory-backend/internal/inventory"
	"github.com/Cervini/reinventory-backend/pkg/changebus"
	"github.com/Cervini/reinventory-backend/pkg/config"
	"github.com/Cervini/reinventory-backend/pkg/db/models"
	dbtypes "github.com/Cervini/reinventory-backend/pkg/db/types"
	"github.com/Cervini/reinventory-backend/pkg/enums"
	pkgerrors "github.com/Cervini/reinventory-backend/pkg/errors"
	"github.com/Cervini/reinventory-backend/pkg/logger"
	"github.com/Cervini/reinventory-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TxRunner runs a function inside a single database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// TradeCanceller tears down open trades when an occupant leaves. Implemented
// by the trade service; declared here so campaign does not import it.
type TradeCanceller interface {
	CancelForOccupant(ctx context.Context, tx *gorm.DB, campaignID, occupantID uuid.UUID) error
}

// ServiceParams groups dependencies for the campaign service.
type ServiceParams struct {
	Repo          Repository
	InventoryRepo inventory.Repository
	Trades        TradeCanceller
	Tx            TxRunner
	Bus           changebus.Bus
	Logger        *logger.Logger
	Defaults      config.CampaignConfig
}

// CreateInput carries the fields needed to open a campaign.
type CreateInput struct {
	Name                string          `json:"name" validate:"required,max=120"`
	CharacterName       string          `json:"characterName" validate:"required,max=120"`
	DefaultBackpackSize *types.GridSize `json:"defaultBackpackSize"`
}

// JoinInput carries the fields needed to join a campaign.
type JoinInput struct {
	CharacterName string `json:"characterName" validate:"required,max=120"`
}

// SettingsInput carries the DM-editable campaign settings.
type SettingsInput struct {
	Name                string          `json:"name" validate:"required,max=120"`
	DefaultBackpackSize *types.GridSize `json:"defaultBackpackSize"`
}

// Service exposes campaign lifecycle and membership management.
type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, actorEmail string, in CreateInput) (*models.Campaign, error)
	Get(ctx context.Context, campaignID, actorID uuid.UUID) (*models.Campaign, error)
	List(ctx context.Context, actorID uuid.UUID) ([]models.Campaign, error)
	Join(ctx context.Context, campaignID, actorID uuid.UUID, in JoinInput) error
	Leave(ctx context.Context, campaignID, actorID uuid.UUID) error
	RemovePlayer(ctx context.Context, campaignID, actorID, playerID uuid.UUID) error
	UpdateLayout(ctx context.Context, campaignID, actorID uuid.UUID, layout types.CampaignLayout) error
	UpdateSettings(ctx context.Context, campaignID, actorID uuid.UUID, in SettingsInput) error
	Delete(ctx context.Context, campaignID, actorID uuid.UUID) error
}

type service struct {
	repo     Repository
	invRepo  inventory.Repository
	trades   TradeCanceller
	tx       TxRunner
	bus      changebus.Bus
	log      *logger.Logger
	defaults config.CampaignConfig
}

// NewService builds the campaign service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign repo is required")
	}
	if params.InventoryRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory repo is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	if params.Bus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "change bus is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	if params.Defaults.DefaultGridWidth <= 0 {
		params.Defaults.DefaultGridWidth = 10
	}
	if params.Defaults.DefaultGridHeight <= 0 {
		params.Defaults.DefaultGridHeight = 5
	}
	return &service{
		repo:     params.Repo,
		invRepo:  params.InventoryRepo,
		trades:   params.Trades,
		tx:       params.Tx,
		bus:      params.Bus,
		log:      params.Logger,
		defaults: params.Defaults,
	}, nil
}

func (s *service) backpackSize(c *models.Campaign) types.GridSize {
	if c.DefaultBackpackSize != nil && c.DefaultBackpackSize.Width > 0 && c.DefaultBackpackSize.Height > 0 {
		return *c.DefaultBackpackSize
	}
	return types.GridSize{Width: s.defaults.DefaultGridWidth, Height: s.defaults.DefaultGridHeight}
}

// Create opens a campaign. The creator becomes the DM and gets an inventory
// plus a starting container so items can be staged before anyone joins.
func (s *service) Create(ctx context.Context, actorID uuid.UUID, actorEmail string, in CreateInput) (*models.Campaign, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}

	campaign := &models.Campaign{
		ID:                  uuid.New(),
		DMID:                actorID,
		DMEmail:             actorEmail,
		Name:                in.Name,
		Players:             dbtypes.UUIDArray{},
		Layout:              types.CampaignLayout{Order: []uuid.UUID{actorID}, Visible: map[uuid.UUID]bool{actorID: true}},
		DefaultBackpackSize: in.DefaultBackpackSize,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invRepo := s.invRepo.WithTx(tx)

		if err := repo.Create(ctx, campaign); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create campaign")
		}
		if err := invRepo.CreateInventory(ctx, &models.Inventory{
			CampaignID:    campaign.ID,
			OwnerID:       actorID,
			CharacterName: in.CharacterName,
			Role:          enums.OccupantRoleDM,
			TrayItems:     types.ItemList{},
			Strength:      10,
			Size:          models.SizeMedium,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create dm inventory")
		}
		size := s.backpackSize(campaign)
		if err := invRepo.CreateContainer(ctx, &models.Container{
			ID:          uuid.New(),
			CampaignID:  campaign.ID,
			OwnerID:     actorID,
			Name:        "Stash",
			GridWidth:   size.Width,
			GridHeight:  size.Height,
			TrackWeight: false,
			GridItems:   types.PlacedItemList{},
			TrayItems:   types.ItemList{},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create dm stash")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, changebus.CampaignPath(campaign.ID))
	return campaign, nil
}

func (s *service) Get(ctx context.Context, campaignID, actorID uuid.UUID) (*models.Campaign, error) {
	campaign, err := s.load(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !s.isMember(campaign, actorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this campaign")
	}
	return campaign, nil
}

func (s *service) List(ctx context.Context, actorID uuid.UUID) ([]models.Campaign, error) {
	campaigns, err := s.repo.ListForActor(ctx, actorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list campaigns")
	}
	return campaigns, nil
}

// Join adds a player: membership array, inventory row and a default
// backpack, all in one transaction.
func (s *service) Join(ctx context.Context, campaignID, actorID uuid.UUID, in JoinInput) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invRepo := s.invRepo.WithTx(tx)

		campaign, err := s.loadWith(ctx, repo, campaignID)
		if err != nil {
			return err
		}
		if s.isMember(campaign, actorID) {
			return pkgerrors.New(pkgerrors.CodeConflict, "already a member of this campaign")
		}

		if err := repo.UpdatePlayers(ctx, campaignID, append(campaign.Players, actorID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update players")
		}

		layout := campaign.Layout
		layout.Order = append(layout.Order, actorID)
		if layout.Visible == nil {
			layout.Visible = map[uuid.UUID]bool{}
		}
		layout.Visible[actorID] = true
		campaign.Layout = layout
		if err := repo.UpdateLayout(ctx, campaign); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update layout")
		}

		if err := invRepo.CreateInventory(ctx, &models.Inventory{
			CampaignID:    campaignID,
			OwnerID:       actorID,
			CharacterName: in.CharacterName,
			Role:          enums.OccupantRolePlayer,
			TrayItems:     types.ItemList{},
			Strength:      10,
			Size:          models.SizeMedium,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create player inventory")
		}
		size := s.backpackSize(campaign)
		if err := invRepo.CreateContainer(ctx, &models.Container{
			ID:          uuid.New(),
			CampaignID:  campaignID,
			OwnerID:     actorID,
			Name:        "Backpack",
			GridWidth:   size.Width,
			GridHeight:  size.Height,
			TrackWeight: true,
			GridItems:   types.PlacedItemList{},
			TrayItems:   types.ItemList{},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create player backpack")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, changebus.CampaignPath(campaignID))
	s.publish(ctx, changebus.InventoriesPath(campaignID))
	return nil
}

func (s *service) Leave(ctx context.Context, campaignID, actorID uuid.UUID) error {
	campaign, err := s.load(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.DMID == actorID {
		return pkgerrors.New(pkgerrors.CodeValidation, "the dm cannot leave; delete the campaign instead")
	}
	if !campaign.Players.Contains(actorID) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "not a member of this campaign")
	}
	return s.evict(ctx, campaignID, actorID)
}

func (s *service) RemovePlayer(ctx context.Context, campaignID, actorID, playerID uuid.UUID) error {
	campaign, err := s.load(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.DMID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the dm can remove players")
	}
	if !campaign.Players.Contains(playerID) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "player is not a member of this campaign")
	}
	return s.evict(ctx, campaignID, playerID)
}

// evict removes a player and everything scoped to them: membership entry,
// layout slot, open trades, containers and the inventory row.
func (s *service) evict(ctx context.Context, campaignID, playerID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invRepo := s.invRepo.WithTx(tx)

		campaign, err := s.loadWith(ctx, repo, campaignID)
		if err != nil {
			return err
		}

		if s.trades != nil {
			if err := s.trades.CancelForOccupant(ctx, tx, campaignID, playerID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel open trades")
			}
		}
		if err := repo.UpdatePlayers(ctx, campaignID, campaign.Players.Without(playerID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update players")
		}

		layout := campaign.Layout
		order := make([]uuid.UUID, 0, len(layout.Order))
		for _, id := range layout.Order {
			if id != playerID {
				order = append(order, id)
			}
		}
		layout.Order = order
		delete(layout.Visible, playerID)
		campaign.Layout = layout
		if err := repo.UpdateLayout(ctx, campaign); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update layout")
		}

		if err := invRepo.DeleteContainersForOwner(ctx, campaignID, playerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete containers")
		}
		if err := invRepo.DeleteInventory(ctx, campaignID, playerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete inventory")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, changebus.CampaignPath(campaignID))
	s.publish(ctx, changebus.InventoriesPath(campaignID))
	s.publish(ctx, changebus.TradesPath(campaignID))
	return nil
}

func (s *service) UpdateLayout(ctx context.Context, campaignID, actorID uuid.UUID, layout types.CampaignLayout) error {
	campaign, err := s.load(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.DMID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the dm can rearrange the layout")
	}

	campaign.Layout = layout
	if err := s.repo.UpdateLayout(ctx, campaign); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist layout")
	}
	s.publish(ctx, changebus.CampaignPath(campaignID))
	return nil
}

func (s *service) UpdateSettings(ctx context.Context, campaignID, actorID uuid.UUID, in SettingsInput) error {
	campaign, err := s.load(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.DMID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the dm can change campaign settings")
	}
	if in.DefaultBackpackSize != nil && (in.DefaultBackpackSize.Width <= 0 || in.DefaultBackpackSize.Height <= 0) {
		return pkgerrors.New(pkgerrors.CodeValidation, "default backpack size must be positive")
	}

	campaign.Name = in.Name
	campaign.DefaultBackpackSize = in.DefaultBackpackSize
	if err := s.repo.Update(ctx, campaign); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist campaign settings")
	}
	s.publish(ctx, changebus.CampaignPath(campaignID))
	return nil
}

func (s *service) Delete(ctx context.Context, campaignID, actorID uuid.UUID) error {
	campaign, err := s.load(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.DMID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the dm can delete the campaign")
	}

	// Inventories, containers and trades go with the campaign via
	// ON DELETE CASCADE.
	if err := s.repo.Delete(ctx, campaignID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete campaign")
	}
	s.publish(ctx, changebus.CampaignPath(campaignID))
	return nil
}

func (s *service) load(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error) {
	return s.loadWith(ctx, s.repo, campaignID)
}

func (s *service) loadWith(ctx context.Context, repo Repository, campaignID uuid.UUID) (*models.Campaign, error) {
	campaign, err := repo.GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}
	return campaign, nil
}

func (s *service) isMember(c *models.Campaign, actorID uuid.UUID) bool {
	return c.DMID == actorID || c.Players.Contains(actorID)
}

func (s *service) publish(ctx context.Context, path string) {
	if err := s.bus.Publish(ctx, path); err != nil {
		s.log.Error(s.log.WithField(ctx, "path", path), "publish change event", err)
	}
}
