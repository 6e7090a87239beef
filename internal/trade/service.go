package trade

import (
	"context"
	"errors"

	"github.com/Cervini/reinventory-backend/internal/inventory"
	"github.com/Cervini/reinventory-backend/pkg/changebus"
	"github.com/Cervini/reinventory-backend/pkg/db/models"
	"github.com/Cervini/reinventory-backend/pkg/enums"
	pkgerrors "github.com/Cervini/reinventory-backend/pkg/errors"
	"github.com/Cervini/reinventory-backend/pkg/logger"
	"github.com/Cervini/reinventory-backend/pkg/metrics"
	"github.com/Cervini/reinventory-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TxRunner runs a function inside a single database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PresenceChecker reports whether an occupant currently has a live session
// in a campaign.
type PresenceChecker interface {
	IsOnline(ctx context.Context, campaignID, occupantID uuid.UUID) (bool, error)
}

// ServiceParams groups dependencies for the trade service.
type ServiceParams struct {
	Repo          Repository
	InventoryRepo inventory.Repository
	Presence      PresenceChecker
	Tx            TxRunner
	Bus           changebus.Bus
	Logger        *logger.Logger
	Metrics       *metrics.DomainMetrics
}

// Service drives the two-party trade state machine.
type Service interface {
	Create(ctx context.Context, campaignID, actorID, inviteeID uuid.UUID) (*models.Trade, error)
	Get(ctx context.Context, campaignID, tradeID, actorID uuid.UUID) (*models.Trade, error)
	ListForOccupant(ctx context.Context, campaignID, actorID uuid.UUID) ([]models.Trade, error)
	AcceptInvitation(ctx context.Context, campaignID, tradeID, actorID uuid.UUID) error
	Decline(ctx context.Context, campaignID, tradeID, actorID uuid.UUID) error
	Cancel(ctx context.Context, campaignID, tradeID, actorID uuid.UUID) error
	ModifyOffer(ctx context.Context, campaignID, tradeID, actorID uuid.UUID, offer types.ItemList) error
	Accept(ctx context.Context, campaignID, tradeID, actorID uuid.UUID) (*models.Trade, error)

	// CancelForOccupant tears down every open trade involving the
	// occupant. Runs inside the caller's transaction.
	CancelForOccupant(ctx context.Context, tx *gorm.DB, campaignID, occupantID uuid.UUID) error
}

type service struct {
	repo     Repository
	invRepo  inventory.Repository
	presence PresenceChecker
	tx       TxRunner
	bus      changebus.Bus
	log      *logger.Logger
	metrics  *metrics.DomainMetrics
}

// NewService builds the trade service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trade repo is required")
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
	return &service{
		repo:     params.Repo,
		invRepo:  params.InventoryRepo,
		presence: params.Presence,
		tx:       params.Tx,
		bus:      params.Bus,
		log:      params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Create opens a pending trade invitation. Inviting the DM requires the DM
// to be online; players take the invitation on their next snapshot either
// way.
func (s *service) Create(ctx context.Context, campaignID, actorID, inviteeID uuid.UUID) (*models.Trade, error) {
	if actorID == inviteeID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot trade with yourself")
	}

	if _, err := s.membership(ctx, campaignID, actorID); err != nil {
		return nil, err
	}
	invitee, err := s.membership(ctx, campaignID, inviteeID)
	if err != nil {
		return nil, err
	}

	if invitee.IsDM() && s.presence != nil {
		online, err := s.presence.IsOnline(ctx, campaignID, inviteeID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check dm presence")
		}
		if !online {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "the dm is not online")
		}
	}

	open, err := s.repo.ListForOccupant(ctx, campaignID, actorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open trades")
	}
	for _, t := range open {
		if t.Involves(inviteeID) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a trade with this occupant is already open")
		}
	}

	t := &models.Trade{
		ID:         uuid.New(),
		CampaignID: campaignID,
		PlayerA:    actorID,
		PlayerB:    inviteeID,
		OfferA:     types.ItemList{},
		OfferB:     types.ItemList{},
		Status:     enums.TradeStatusPending,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create trade")
	}

	s.publish(ctx, changebus.TradesPath(campaignID))
	s.metrics.TradeEvent("created")
	return t, nil
}

func (s *service) Get(ctx context.Context, campaignID, tradeID, actorID uuid.UUID) (*models.Trade, error) {
	t, err := s.loadTrade(ctx, s.repo, campaignID, tradeID)
	if err != nil {
		return nil, err
	}
	if !t.Involves(actorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this trade")
	}
	return t, nil
}

func (s *service) ListForOccupant(ctx context.Context, campaignID, actorID uuid.UUID) ([]models.Trade, error) {
	trades, err := s.repo.ListForOccupant(ctx, campaignID, actorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trades")
	}
	return trades, nil
}

// AcceptInvitation moves a pending trade to active. Only the invitee can.
func (s *service) AcceptInvitation(ctx context.Context, campaignID, tradeID, actorID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		t, err := s.loadTradeForUpdate(ctx, repo, campaignID, tradeID)
		if err != nil {
			return err
		}
		if t.PlayerB != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the invitee can accept the invitation")
		}
		if t.Status != enums.TradeStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "trade is not pending")
		}
		t.Status = enums.TradeStatusActive
		if err := repo.Update(ctx, t); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist trade")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, changebus.TradesPath(campaignID))
	s.metrics.TradeEvent("activated")
	return nil
}

// Decline rejects a pending invitation. Only the invitee can.
func (s *service) Decline(ctx context.Context, campaignID, tradeID, actorID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		t, err := s.loadTradeForUpdate(ctx, repo, campaignID, tradeID)
		if err != nil {
			return err
		}
		if t.PlayerB != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the invitee can decline the invitation")
		}
		if t.Status != enums.TradeStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "trade is not pending")
		}
		if err := repo.Delete(ctx, t.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete trade")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, changebus.TradesPath(campaignID))
	s.metrics.TradeEvent("cancelled")
	return nil
}

// Cancel deletes the trade. Either party can cancel at any point before
// finalization; no items move because offers are only snapshots.
func (s *service) Cancel(ctx context.Context, campaignID, tradeID, actorID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		t, err := s.loadTradeForUpdate(ctx, repo, campaignID, tradeID)
		if err != nil {
			return err
		}
		if !t.Involves(actorID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this trade")
		}
		if err := repo.Delete(ctx, t.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete trade")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, changebus.TradesPath(campaignID))
	s.metrics.TradeEvent("cancelled")
	return nil
}

// CancelForOccupant runs inside the caller's transaction and removes every
// trade the occupant is part of. Used when a player leaves a campaign.
func (s *service) CancelForOccupant(ctx context.Context, tx *gorm.DB, campaignID, occupantID uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	trades, err := repo.ListForOccupant(ctx, campaignID, occupantID)
	if err != nil {
		return err
	}
	for _, t := range trades {
		if err := repo.Delete(ctx, t.ID); err != nil {
			return err
		}
		s.metrics.TradeEvent("cancelled")
	}
	return nil
}

// ModifyOffer replaces the actor's offer list. Any edit unconditionally
// clears both acceptance flags: what either side agreed to no longer exists.
func (s *service) ModifyOffer(ctx context.Context, campaignID, tradeID, actorID uuid.UUID, offer types.ItemList) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		t, err := s.loadTradeForUpdate(ctx, repo, campaignID, tradeID)
		if err != nil {
			return err
		}
		if !t.Involves(actorID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this trade")
		}
		if t.Status != enums.TradeStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "trade is not active")
		}

		st, err := s.ownerState(ctx, tx, campaignID, actorID)
		if err != nil {
			return err
		}
		for _, item := range offer {
			if _, ok := st.Find(item.ID); !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, "offered item is not in your inventory").
					WithDetails(map[string]any{"itemId": item.ID})
			}
		}

		if actorID == t.PlayerA {
			t.OfferA = offer
		} else {
			t.OfferB = offer
		}
		t.AcceptedA = false
		t.AcceptedB = false
		if err := repo.Update(ctx, t); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist trade")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, changebus.TradesPath(campaignID))
	return nil
}

// Accept sets the actor's acceptance flag. When both flags are set the
// trade finalizes inside the same transaction: offered items are pulled
// from fresh giver state and rehomed coordinate-free with the recipient. A
// failed finalization clears both flags and leaves the trade active.
func (s *service) Accept(ctx context.Context, campaignID, tradeID, actorID uuid.UUID) (*models.Trade, error) {
	var (
		finalizing bool
		finalized  bool
		result     *models.Trade
		touched    []publishTarget
	)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		t, err := s.loadTradeForUpdate(ctx, repo, campaignID, tradeID)
		if err != nil {
			return err
		}
		if !t.Involves(actorID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this trade")
		}
		if t.Status != enums.TradeStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "trade is not active")
		}

		if actorID == t.PlayerA {
			t.AcceptedA = true
		} else {
			t.AcceptedB = true
		}

		if !t.BothAccepted() {
			if err := repo.Update(ctx, t); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist trade")
			}
			result = t
			return nil
		}

		finalizing = true
		targets, err := s.finalize(ctx, tx, t)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, t.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete finalized trade")
		}
		finalized = true
		touched = targets
		return nil
	})
	if err != nil {
		// Any failure once finalization has begun — stale offers or a
		// rejected write mid-handover — rolled the transaction back.
		// Clear both acceptances in a follow-up write so the trade stays
		// open and a later accept starts from mutual re-confirmation.
		if finalizing {
			if result2, resetErr := s.resetAcceptance(ctx, campaignID, tradeID); resetErr == nil {
				result = result2
			} else {
				s.log.Error(s.log.WithTradeID(ctx, tradeID.String()), "reset acceptance flags", resetErr)
			}
			s.publish(ctx, changebus.TradesPath(campaignID))
			s.metrics.TradeEvent("finalize_failed")
		}
		return result, err
	}

	s.publish(ctx, changebus.TradesPath(campaignID))
	if finalized {
		for _, target := range touched {
			s.publishEffect(ctx, campaignID, target)
		}
		s.metrics.TradeEvent("finalized")
	}
	return result, nil
}

func (s *service) resetAcceptance(ctx context.Context, campaignID, tradeID uuid.UUID) (*models.Trade, error) {
	var t *models.Trade
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.loadTradeForUpdate(ctx, repo, campaignID, tradeID)
		if err != nil {
			return err
		}
		loaded.AcceptedA = false
		loaded.AcceptedB = false
		if err := repo.Update(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist trade")
		}
		t = loaded
		return nil
	})
	return t, err
}

// publishTarget pairs an occupant with the lists finalization changed.
type publishTarget struct {
	ownerID uuid.UUID
	effect  inventory.Effect
}

// finalize swaps the two offers atomically. It re-reads both parties' state
// inside the transaction, so stale offers (items meanwhile moved, consumed
// or traded away) surface as state conflicts rather than duplications.
func (s *service) finalize(ctx context.Context, tx *gorm.DB, t *models.Trade) ([]publishTarget, error) {
	invRepo := s.invRepo.WithTx(tx)

	states := map[uuid.UUID]*inventory.OwnerState{}
	invs := map[uuid.UUID]*models.Inventory{}
	effects := map[uuid.UUID]*inventory.Effect{}
	for _, ownerID := range t.Players() {
		inv, st, err := s.ownerStateWith(ctx, invRepo, t.CampaignID, ownerID)
		if err != nil {
			return nil, err
		}
		states[ownerID] = st
		invs[ownerID] = inv
		effects[ownerID] = &inventory.Effect{}
	}

	// Pull every offered item out of its giver first. Any missing item
	// aborts before anything is handed over.
	handovers := []struct {
		to   uuid.UUID
		item types.Item
	}{}
	for _, giverID := range t.Players() {
		receiverID := t.PlayerA
		if giverID == t.PlayerA {
			receiverID = t.PlayerB
		}
		for _, offered := range t.OfferOf(giverID) {
			item, eff, err := inventory.Take(states[giverID], offered.ID)
			if err != nil {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "an offered item is no longer available").
					WithDetails(map[string]any{"itemId": offered.ID})
			}
			effects[giverID].Merge(eff)
			handovers = append(handovers, struct {
				to   uuid.UUID
				item types.Item
			}{to: receiverID, item: item})
		}
	}

	// Hand items over coordinate-free: players receive on the floor tray,
	// the DM in their first container's tray.
	for _, h := range handovers {
		st := states[h.to]
		if invs[h.to].IsDM() {
			target, err := invRepo.FirstContainer(ctx, t.CampaignID, h.to)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "the dm has no container to receive items")
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dm container")
			}
			c, ok := st.Containers[target.ID]
			if !ok {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "the dm has no container to receive items")
			}
			c.TrayItems = append(c.TrayItems, h.item)
			effects[h.to].Touch(c.ID)
		} else {
			st.FloorTray = append(st.FloorTray, h.item)
			effects[h.to].FloorTouched = true
		}
	}

	targets := make([]publishTarget, 0, 2)
	for _, ownerID := range t.Players() {
		eff := *effects[ownerID]
		st := states[ownerID]
		for _, id := range eff.TouchedContainers {
			c := st.Containers[id]
			if err := invRepo.UpdateContainerItems(ctx, id, c.GridItems, c.TrayItems); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist container")
			}
		}
		if eff.FloorTouched {
			if err := invRepo.UpdateInventoryTray(ctx, t.CampaignID, ownerID, st.FloorTray); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist floor tray")
			}
		}
		targets = append(targets, publishTarget{ownerID: ownerID, effect: eff})
	}
	return targets, nil
}

func (s *service) publishEffect(ctx context.Context, campaignID uuid.UUID, target publishTarget) {
	if len(target.effect.TouchedContainers) > 0 {
		s.publish(ctx, changebus.ContainersPath(campaignID, target.ownerID))
	}
	if target.effect.FloorTouched {
		s.publish(ctx, changebus.InventoriesPath(campaignID))
	}
}

func (s *service) membership(ctx context.Context, campaignID, occupantID uuid.UUID) (*models.Inventory, error) {
	inv, err := s.invRepo.GetInventory(ctx, campaignID, occupantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "occupant is not a member of this campaign")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return inv, nil
}

func (s *service) ownerState(ctx context.Context, tx *gorm.DB, campaignID, ownerID uuid.UUID) (*inventory.OwnerState, error) {
	_, st, err := s.ownerStateWith(ctx, s.invRepo.WithTx(tx), campaignID, ownerID)
	return st, err
}

func (s *service) ownerStateWith(ctx context.Context, invRepo inventory.Repository, campaignID, ownerID uuid.UUID) (*models.Inventory, *inventory.OwnerState, error) {
	inv, err := invRepo.GetInventory(ctx, campaignID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	containers, err := invRepo.ListContainers(ctx, campaignID, ownerID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load containers")
	}
	st := &inventory.OwnerState{
		FloorTray:  inv.TrayItems,
		Containers: make(map[uuid.UUID]*inventory.ContainerState, len(containers)),
	}
	for i := range containers {
		c := containers[i]
		st.Containers[c.ID] = &inventory.ContainerState{
			ID:         c.ID,
			GridWidth:  c.GridWidth,
			GridHeight: c.GridHeight,
			GridItems:  c.GridItems,
			TrayItems:  c.TrayItems,
		}
	}
	return inv, st, nil
}

func (s *service) loadTrade(ctx context.Context, repo Repository, campaignID, tradeID uuid.UUID) (*models.Trade, error) {
	t, err := repo.GetByID(ctx, tradeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "trade not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trade")
	}
	if t.CampaignID != campaignID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "trade not found")
	}
	return t, nil
}

func (s *service) loadTradeForUpdate(ctx context.Context, repo Repository, campaignID, tradeID uuid.UUID) (*models.Trade, error) {
	t, err := repo.GetByIDForUpdate(ctx, tradeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "trade not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trade")
	}
	if t.CampaignID != campaignID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "trade not found")
	}
	return t, nil
}

func (s *service) publish(ctx context.Context, path string) {
	if err := s.bus.Publish(ctx, path); err != nil {
		s.log.Error(s.log.WithField(ctx, "path", path), "publish change event", err)
	}
}
