package inventory

import (
	"context"
	"errors"

	"github.com/Cervini/reinventory-backend/pkg/changebus"
	"github.com/Cervini/reinventory-backend/pkg/db/models"
	"github.com/Cervini/reinventory-backend/pkg/enums"
	pkgerrors "github.com/Cervini/reinventory-backend/pkg/errors"
	"github.com/Cervini/reinventory-backend/pkg/logger"
	"github.com/Cervini/reinventory-backend/pkg/metrics"
	"github.com/Cervini/reinventory-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TxRunner runs a function inside a single database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the inventory service.
type ServiceParams struct {
	Repo    Repository
	Tx      TxRunner
	Bus     changebus.Bus
	Logger  *logger.Logger
	Metrics *metrics.DomainMetrics
}

// ContainerInput carries the editable container settings.
type ContainerInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	GridWidth   int    `json:"gridWidth" validate:"required,min=1,max=64"`
	GridHeight  int    `json:"gridHeight" validate:"required,min=1,max=64"`
	TrackWeight *bool  `json:"trackWeight"`
}

// ItemInput carries the editable item fields.
type ItemInput struct {
	Name        string             `json:"name" validate:"required,max=200"`
	W           int                `json:"w" validate:"required,min=1,max=32"`
	H           int                `json:"h" validate:"required,min=1,max=32"`
	Type        string             `json:"type"`
	Rarity      string             `json:"rarity"`
	Attunement  bool               `json:"attunement"`
	Stackable   bool               `json:"stackable"`
	MaxStack    int                `json:"maxStack" validate:"min=0"`
	Quantity    int                `json:"quantity" validate:"min=0"`
	Cost        decimal.Decimal    `json:"cost"`
	Weight      decimal.Decimal    `json:"weight"`
	Description string             `json:"description"`
	WeaponStats *types.WeaponStats `json:"weaponStats,omitempty"`
	ArmorStats  *types.ArmorStats  `json:"armorStats,omitempty"`
}

// SettingsInput carries the editable occupant weight settings.
type SettingsInput struct {
	CharacterName       string          `json:"characterName" validate:"required,max=120"`
	TotalMaxWeight      decimal.Decimal `json:"totalMaxWeight"`
	WeightUnit          string          `json:"weightUnit" validate:"omitempty,oneof=lb kg"`
	Strength            int             `json:"strength" validate:"min=1,max=30"`
	Size                string          `json:"size" validate:"omitempty,oneof=tiny small medium large huge gargantuan"`
	UseCalculatedWeight bool            `json:"useCalculatedWeight"`
}

// MoveInput is the transport form of a drag-drop move.
type MoveInput struct {
	ItemID      uuid.UUID  `json:"itemId" validate:"required"`
	Section     Section    `json:"section" validate:"required,oneof=grid tray floor"`
	ContainerID *uuid.UUID `json:"containerId"`
	X           *int       `json:"x" validate:"omitempty,min=0"`
	Y           *int       `json:"y" validate:"omitempty,min=0"`
}

// OperationResult reports a completed item operation to the caller.
type OperationResult struct {
	Outcome   enums.PlacementOutcome `json:"outcome"`
	NewItemID *uuid.UUID             `json:"newItemId,omitempty"`
}

// InventoryView is the read model for one occupant: the inventory row, its
// containers and the derived weight figures.
type InventoryView struct {
	Inventory  models.Inventory   `json:"inventory"`
	Containers []models.Container `json:"containers"`
	Carried    decimal.Decimal    `json:"carriedWeight"`
	MaxCarry   decimal.Decimal    `json:"maxCarryWeight"`
}

// Service exposes the placement engine and container management.
type Service interface {
	GetView(ctx context.Context, campaignID, actorID, ownerID uuid.UUID) (*InventoryView, error)
	UpdateSettings(ctx context.Context, campaignID, actorID, ownerID uuid.UUID, in SettingsInput) error

	CreateContainer(ctx context.Context, campaignID, actorID, ownerID uuid.UUID, in ContainerInput) (*models.Container, error)
	UpdateContainer(ctx context.Context, campaignID, actorID uuid.UUID, containerID uuid.UUID, in ContainerInput) (*OperationResult, error)
	DeleteContainer(ctx context.Context, campaignID, actorID uuid.UUID, containerID uuid.UUID) error

	CreateItem(ctx context.Context, campaignID, actorID, ownerID uuid.UUID, containerID *uuid.UUID, in ItemInput) (*OperationResult, error)
	MoveItem(ctx context.Context, campaignID, actorID, ownerID uuid.UUID, in MoveInput) (*OperationResult, error)
	RotateItem(ctx context.Context, campaignID, actorID, ownerID, itemID uuid.UUID) (*OperationResult, error)
	EditItem(ctx context.Context, campaignID, actorID, ownerID, itemID uuid.UUID, in ItemInput) (*OperationResult, error)
	SplitStack(ctx context.Context, campaignID, actorID, ownerID, itemID uuid.UUID, amount int) (*OperationResult, error)
	DuplicateItem(ctx context.Context, campaignID, actorID, ownerID, itemID uuid.UUID) (*OperationResult, error)
	DeleteItem(ctx context.Context, campaignID, actorID, ownerID, itemID uuid.UUID) error
	SendToPlayer(ctx context.Context, campaignID, actorID, fromOwnerID, toOwnerID, itemID uuid.UUID) (*OperationResult, error)
}

type service struct {
	repo    Repository
	tx      TxRunner
	bus     changebus.Bus
	log     *logger.Logger
	metrics *metrics.DomainMetrics
}

// NewService builds the inventory service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
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
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		bus:     params.Bus,
		log:     params.Logger,
		metrics: params.Metrics,
	}, nil
}

// authorize loads the actor's membership and checks they may act on
// ownerID's inventory: owners act on their own, the DM acts on anyone's.
func (s *service) authorize(ctx context.Context, campaignID, actorID, ownerID uuid.UUID) (*models.Inventory, error) {
	actor, err := s.repo.GetInventory(ctx, campaignID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this campaign")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load actor inventory")
	}
	if actorID != ownerID && !actor.IsDM() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the dm can act on another occupant's inventory")
	}
	return actor, nil
}

// loadOwnerState builds the in-memory placement state for one occupant.
func (s *service) loadOwnerState(ctx context.Context, tx *gorm.DB, campaignID, ownerID uuid.UUID) (*models.Inventory, *OwnerState, error) {
	repo := s.repo.WithTx(tx)
	inv, err := repo.GetInventory(ctx, campaignID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	containers, err := repo.ListContainers(ctx, campaignID, ownerID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load containers")
	}

	st := &OwnerState{
		FloorTray:  inv.TrayItems,
		Containers: make(map[uuid.UUID]*ContainerState, len(containers)),
	}
	for i := range containers {
		c := containers[i]
		st.Containers[c.ID] = &ContainerState{
			ID:         c.ID,
			GridWidth:  c.GridWidth,
			GridHeight: c.GridHeight,
			GridItems:  c.GridItems,
			TrayItems:  c.TrayItems,
		}
	}
	return inv, st, nil
}

// persistEffect writes back exactly the lists an operation touched.
func (s *service) persistEffect(ctx context.Context, tx *gorm.DB, campaignID, ownerID uuid.UUID, st *OwnerState, eff Effect) error {
	repo := s.repo.WithTx(tx)
	for _, id := range eff.TouchedContainers {
		c := st.Containers[id]
		if err := repo.UpdateContainerItems(ctx, id, c.GridItems, c.TrayItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist container")
		}
	}
	if eff.FloorTouched {
		if err := repo.UpdateInventoryTray(ctx, campaignID, ownerID, st.FloorTray); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist floor tray")
		}
	}
	return nil
}

// publishEffect fans out change notifications after the commit.
func (s *service) publishEffect(ctx context.Context, campaignID, ownerID uuid.UUID, eff Effect) {
	if len(eff.TouchedContainers) > 0 {
		s.publish(ctx, changebus.ContainersPath(campaignID, ownerID))
	}
	if eff.FloorTouched {
		s.publish(ctx, changebus.InventoriesPath(campaignID))
	}
}

func (s *service) publish(ctx context.Context, path string) {
	if err := s.bus.Publish(ctx, path); err != nil {
		s.log.Error(s.log.WithField(ctx, "path", path), "publish change event", err)
	}
}

// runItemOp is the shared skeleton for single-owner item operations: load
// state, apply the pure mutation, persist touched lists, publish, count.
func (s *service) runItemOp(ctx context.Context, campaignID, actorID, ownerID uuid.UUID, op func(*OwnerState) (Effect, error)) (*OperationResult, error) {
	if _, err := s.authorize(ctx, campaignID, actorID, ownerID); err != nil {
		return nil, err
	}

	var eff Effect
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, st, err := s.loadOwnerState(ctx, tx, campaignID, ownerID)
		if err != nil {
			return err
		}
		eff, err = op(st)
		if err != nil {
			return err
		}
		return s.persistEffect(ctx, tx, campaignID, ownerID, st, eff)
	})
	if err != nil {
		return nil, err
	}

	s.publishEffect(ctx, campaignID, ownerID, eff)
	s.metrics.Placement(string(eff.Outcome))

	result := &OperationResult{Outcome: eff.Outcome}
	if eff.NewItemID != uuid.Nil {
		id := eff.NewItemID
		result.NewItemID = &id
	}
	return result, nil
}

func (s *service) GetView(ctx context.Context, campaignID, actorID, ownerID uuid.UUID) (*InventoryView, error) {
	if _, err := s.authorize(ctx, campaignID, actorID, ownerID); err != nil {
		return nil, err
	}
	inv, err := s.repo.GetInventory(ctx, campaignID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	containers, err := s.repo.ListContainers(ctx, campaignID, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load containers")
	}
	return &InventoryView{
		Inventory:  *inv,
		Containers: containers,
		Carried:    CarriedWeight(inv, containers),
		MaxCarry:   MaxCarryWeight(inv),
	}, nil
}

func (s *service) UpdateSettings(ctx context.Context, campaignID, actorID, ownerID uuid.UUID, in SettingsInput) error {
	if _, err := s.authorize(ctx, campaignID, actorID, ownerID); err != nil {
		return err
	}
	inv, err := s.repo.GetInventory(ctx, campaignID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}

	inv.CharacterName = in.CharacterName
	inv.TotalMaxWeight = in.TotalMaxWeight
	if in.WeightUnit != "" {
		inv.WeightUnit = in.WeightUnit
	}
	if in.Strength > 0 {
		inv.Strength = in.Strength
	}
	if in.Size != "" {
		inv.Size = in.Size
	}
	inv.UseCalculatedWeight = in.UseCalculatedWeight

	if err := s.repo.UpdateInventorySettings(ctx, inv); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist inventory settings")
	}
	s.publish(ctx, changebus.InventoriesPath(campaignID))
	return nil
}

func (s *service) CreateContainer(ctx context.Context, campaignID, actorID, ownerID uuid.UUID, in ContainerInput) (*models.Container, error) {
	if _, err := s.authorize(ctx, campaignID, actorID, ownerID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetInventory(ctx, campaignID, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}

	trackWeight := true
	if in.TrackWeight != nil {
		trackWeight = *in.TrackWeight
	}
	container := &models.Container{
		ID:          uuid.New(),
		CampaignID:  campaignID,
		OwnerID:     ownerID,
		Name:        in.Name,
		GridWidth:   in.GridWidth,
		GridHeight:  in.GridHeight,
		TrackWeight: trackWeight,
		GridItems:   types.PlacedItemList{},
		TrayItems:   types.ItemList{},
	}
	if err := s.repo.CreateContainer(ctx, container); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create container")
	}
	s.publish(ctx, changebus.ContainersPath(campaignID, ownerID))
	return container, nil
}

func (s *service) UpdateContainer(ctx context.Context, campaignID, actorID uuid.UUID, containerID uuid.UUID, in ContainerInput) (*OperationResult, error) {
	var outcome enums.PlacementOutcome
	var ownerID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		container, err := repo.GetContainer(ctx, containerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "container not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load container")
		}
		if container.CampaignID != campaignID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "container not found")
		}
		if _, err := s.authorize(ctx, campaignID, actorID, container.OwnerID); err != nil {
			return err
		}
		ownerID = container.OwnerID

		state := &ContainerState{
			ID:         container.ID,
			GridWidth:  container.GridWidth,
			GridHeight: container.GridHeight,
			GridItems:  container.GridItems,
			TrayItems:  container.TrayItems,
		}
		outcome, err = Resize(state, in.GridWidth, in.GridHeight)
		if err != nil {
			return err
		}

		container.Name = in.Name
		container.GridWidth = state.GridWidth
		container.GridHeight = state.GridHeight
		container.GridItems = state.GridItems
		container.TrayItems = state.TrayItems
		if in.TrackWeight != nil {
			container.TrackWeight = *in.TrackWeight
		}
		if err := repo.UpdateContainer(ctx, container); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist container")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, changebus.ContainersPath(campaignID, ownerID))
	s.metrics.Placement(string(outcome))
	return &OperationResult{Outcome: outcome}, nil
}

func (s *service) DeleteContainer(ctx context.Context, campaignID, actorID uuid.UUID, containerID uuid.UUID) error {
	var ownerID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		container, err := repo.GetContainer(ctx, containerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "container not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load container")
		}
		if container.CampaignID != campaignID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "container not found")
		}
		if _, err := s.authorize(ctx, campaignID, actorID, container.OwnerID); err != nil {
			return err
		}
		ownerID = container.OwnerID

		// Contents survive the container: everything is stripped onto the
		// owner's floor tray before the row goes away.
		inv, err := repo.GetInventory(ctx, campaignID, container.OwnerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
		}
		tray := inv.TrayItems
		tray = append(tray, container.GridItems.Strip()...)
		tray = append(tray, container.TrayItems...)
		if err := repo.UpdateInventoryTray(ctx, campaignID, container.OwnerID, tray); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist floor tray")
		}
		if err := repo.DeleteContainer(ctx, containerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete container")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, changebus.ContainersPath(campaignID, ownerID))
	s.publish(ctx, changebus.InventoriesPath(campaignID))
	return nil
}

func (s *service) CreateItem(ctx context.Context, campaignID, actorID, ownerID uuid.UUID, containerID *uuid.UUID, in ItemInput) (*OperationResult, error) {
	item := itemFromInput(uuid.New(), in)
	result, err := s.runItemOp(ctx, campaignID, actorID, ownerID, func(st *OwnerState) (Effect, error) {
		var eff Effect
		eff.NewItemID = item.ID
		if containerID == nil {
			st.FloorTray = append(st.FloorTray, item)
			eff.FloorTouched = true
			eff.Outcome = enums.OutcomeMovedToTray
			return eff, nil
		}
		c, ok := st.Containers[*containerID]
		if !ok {
			return eff, pkgerrors.New(pkgerrors.CodeNotFound, "container not found")
		}
		eff.Touch(c.ID)
		eff.Outcome = relocateOrTray(c, item, nil, nil, &c.TrayItems)
		return eff, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) MoveItem(ctx context.Context, campaignID, actorID, ownerID uuid.UUID, in MoveInput) (*OperationResult, error) {
	return s.runItemOp(ctx, campaignID, actorID, ownerID, func(st *OwnerState) (Effect, error) {
		return Move(st, MoveRequest{
			ItemID: in.ItemID,
			To:     Location{ContainerID: in.ContainerID, Section: in.Section},
			X:      in.X,
			Y:      in.Y,
		})
	})
}

func (s *service) RotateItem(ctx context.Context, campaignID, actorID, ownerID, itemID uuid.UUID) (*OperationResult, error) {
	return s.runItemOp(ctx, campaignID, actorID, ownerID, func(st *OwnerState) (Effect, error) {
		return Rotate(st, itemID)
	})
}

func (s *service) EditItem(ctx context.Context, campaignID, actorID, ownerID, itemID uuid.UUID, in ItemInput) (*OperationResult, error) {
	return s.runItemOp(ctx, campaignID, actorID, ownerID, func(st *OwnerState) (Effect, error) {
		return Edit(st, itemFromInput(itemID, in))
	})
}

func (s *service) SplitStack(ctx context.Context, campaignID, actorID, ownerID, itemID uuid.UUID, amount int) (*OperationResult, error) {
	newID := uuid.New()
	return s.runItemOp(ctx, campaignID, actorID, ownerID, func(st *OwnerState) (Effect, error) {
		return Split(st, itemID, amount, newID)
	})
}

func (s *service) DuplicateItem(ctx context.Context, campaignID, actorID, ownerID, itemID uuid.UUID) (*OperationResult, error) {
	newID := uuid.New()
	return s.runItemOp(ctx, campaignID, actorID, ownerID, func(st *OwnerState) (Effect, error) {
		return Duplicate(st, itemID, newID)
	})
}

func (s *service) DeleteItem(ctx context.Context, campaignID, actorID, ownerID, itemID uuid.UUID) error {
	_, err := s.runItemOp(ctx, campaignID, actorID, ownerID, func(st *OwnerState) (Effect, error) {
		return Remove(st, itemID)
	})
	return err
}

// SendToPlayer hands an item from one occupant to another. DM only. The
// item lands coordinate-free in the recipient's first container tray so the
// recipient decides its placement.
func (s *service) SendToPlayer(ctx context.Context, campaignID, actorID, fromOwnerID, toOwnerID, itemID uuid.UUID) (*OperationResult, error) {
	actor, err := s.authorize(ctx, campaignID, actorID, fromOwnerID)
	if err != nil {
		return nil, err
	}
	if !actor.IsDM() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the dm can send items between occupants")
	}
	if fromOwnerID == toOwnerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sender and recipient are the same occupant")
	}

	var sourceEff Effect
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		_, st, err := s.loadOwnerState(ctx, tx, campaignID, fromOwnerID)
		if err != nil {
			return err
		}

		item, origin, err := st.take(itemID)
		if err != nil {
			return err
		}
		if origin.loc.Section == SectionFloor {
			sourceEff.FloorTouched = true
		} else {
			sourceEff.Touch(*origin.loc.ContainerID)
		}

		target, err := repo.FirstContainer(ctx, campaignID, toOwnerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "recipient has no container")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipient container")
		}
		target.TrayItems = append(target.TrayItems, item)
		if err := repo.UpdateContainerItems(ctx, target.ID, target.GridItems, target.TrayItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist recipient container")
		}
		return s.persistEffect(ctx, tx, campaignID, fromOwnerID, st, sourceEff)
	})
	if err != nil {
		return nil, err
	}

	s.publishEffect(ctx, campaignID, fromOwnerID, sourceEff)
	s.publish(ctx, changebus.ContainersPath(campaignID, toOwnerID))
	s.metrics.Placement(string(enums.OutcomeMovedToTray))
	return &OperationResult{Outcome: enums.OutcomeMovedToTray}, nil
}

func itemFromInput(id uuid.UUID, in ItemInput) types.Item {
	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	return types.Item{
		ID:          id,
		Name:        in.Name,
		W:           in.W,
		H:           in.H,
		Type:        in.Type,
		Rarity:      in.Rarity,
		Attunement:  in.Attunement,
		Stackable:   in.Stackable,
		MaxStack:    in.MaxStack,
		Quantity:    quantity,
		Cost:        in.Cost,
		Weight:      in.Weight,
		Description: in.Description,
		WeaponStats: in.WeaponStats,
		ArmorStats:  in.ArmorStats,
	}
}
