package trade

import (
	"context"
	"io"
	"testing"

	"github.com/Cervini/reinventory-backend/internal/inventory"
	"github.com/Cervini/reinventory-backend/pkg/changebus"
	"github.com/Cervini/reinventory-backend/pkg/db/models"
	"github.com/Cervini/reinventory-backend/pkg/enums"
	pkgerrors "github.com/Cervini/reinventory-backend/pkg/errors"
	"github.com/Cervini/reinventory-backend/pkg/logger"
	"github.com/Cervini/reinventory-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubTradeRepo struct {
	trades map[uuid.UUID]*models.Trade
}

func newStubTradeRepo() *stubTradeRepo {
	return &stubTradeRepo{trades: make(map[uuid.UUID]*models.Trade)}
}

func (s *stubTradeRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubTradeRepo) Create(_ context.Context, t *models.Trade) error {
	copied := *t
	s.trades[t.ID] = &copied
	return nil
}

func (s *stubTradeRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Trade, error) {
	t, ok := s.trades[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *stubTradeRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	return s.GetByID(ctx, id)
}

func (s *stubTradeRepo) ListForCampaign(_ context.Context, campaignID uuid.UUID) ([]models.Trade, error) {
	var out []models.Trade
	for _, t := range s.trades {
		if t.CampaignID == campaignID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *stubTradeRepo) ListForOccupant(_ context.Context, campaignID, occupantID uuid.UUID) ([]models.Trade, error) {
	var out []models.Trade
	for _, t := range s.trades {
		if t.CampaignID == campaignID && t.Involves(occupantID) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *stubTradeRepo) Update(_ context.Context, updated *models.Trade) error {
	t, ok := s.trades[updated.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	*t = *updated
	return nil
}

func (s *stubTradeRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.trades, id)
	return nil
}

type stubInvRepo struct {
	inventory.Repository

	inventories map[uuid.UUID]*models.Inventory
	containers  map[uuid.UUID]*models.Container
	order       []uuid.UUID

	containerWriteErr error
}

func newStubInvRepo() *stubInvRepo {
	return &stubInvRepo{
		inventories: make(map[uuid.UUID]*models.Inventory),
		containers:  make(map[uuid.UUID]*models.Container),
	}
}

func (s *stubInvRepo) WithTx(tx *gorm.DB) inventory.Repository { return s }

func (s *stubInvRepo) GetInventory(_ context.Context, _, ownerID uuid.UUID) (*models.Inventory, error) {
	inv, ok := s.inventories[ownerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *inv
	return &copied, nil
}

func (s *stubInvRepo) ListContainers(_ context.Context, _, ownerID uuid.UUID) ([]models.Container, error) {
	var out []models.Container
	for _, id := range s.order {
		if c, ok := s.containers[id]; ok && c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubInvRepo) FirstContainer(_ context.Context, _, ownerID uuid.UUID) (*models.Container, error) {
	for _, id := range s.order {
		if c, ok := s.containers[id]; ok && c.OwnerID == ownerID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubInvRepo) UpdateContainerItems(_ context.Context, id uuid.UUID, gridItems types.PlacedItemList, trayItems types.ItemList) error {
	if s.containerWriteErr != nil {
		return s.containerWriteErr
	}
	c, ok := s.containers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.GridItems = gridItems
	c.TrayItems = trayItems
	return nil
}

func (s *stubInvRepo) UpdateInventoryTray(_ context.Context, _, ownerID uuid.UUID, tray types.ItemList) error {
	inv, ok := s.inventories[ownerID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	inv.TrayItems = tray
	return nil
}

func (s *stubInvRepo) addOccupant(campaignID, ownerID uuid.UUID, role enums.OccupantRole) uuid.UUID {
	s.inventories[ownerID] = &models.Inventory{
		CampaignID: campaignID,
		OwnerID:    ownerID,
		Role:       role,
	}
	containerID := uuid.New()
	s.containers[containerID] = &models.Container{
		ID:         containerID,
		CampaignID: campaignID,
		OwnerID:    ownerID,
		GridWidth:  10,
		GridHeight: 5,
	}
	s.order = append(s.order, containerID)
	return containerID
}

type stubPresence struct {
	online map[uuid.UUID]bool
}

func (s *stubPresence) IsOnline(_ context.Context, _, occupantID uuid.UUID) (bool, error) {
	return s.online[occupantID], nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	svc        Service
	repo       *stubTradeRepo
	invRepo    *stubInvRepo
	presence   *stubPresence
	campaignID uuid.UUID
	dmID       uuid.UUID
	playerA    uuid.UUID
	playerB    uuid.UUID
	packA      uuid.UUID
	packB      uuid.UUID
	dmStash    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newStubTradeRepo()
	invRepo := newStubInvRepo()
	presence := &stubPresence{online: make(map[uuid.UUID]bool)}
	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(ServiceParams{
		Repo:          repo,
		InventoryRepo: invRepo,
		Presence:      presence,
		Tx:            stubTxRunner{},
		Bus:           changebus.NewMemoryBus(),
		Logger:        log,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	f := &fixture{
		svc:        svc,
		repo:       repo,
		invRepo:    invRepo,
		presence:   presence,
		campaignID: uuid.New(),
		dmID:       uuid.New(),
		playerA:    uuid.New(),
		playerB:    uuid.New(),
	}
	f.dmStash = invRepo.addOccupant(f.campaignID, f.dmID, enums.OccupantRoleDM)
	f.packA = invRepo.addOccupant(f.campaignID, f.playerA, enums.OccupantRolePlayer)
	f.packB = invRepo.addOccupant(f.campaignID, f.playerB, enums.OccupantRolePlayer)
	return f
}

func (f *fixture) activeTrade(t *testing.T) *models.Trade {
	t.Helper()
	tr, err := f.svc.Create(context.Background(), f.campaignID, f.playerA, f.playerB)
	if err != nil {
		t.Fatalf("create trade: %v", err)
	}
	if err := f.svc.AcceptInvitation(context.Background(), f.campaignID, tr.ID, f.playerB); err != nil {
		t.Fatalf("accept invitation: %v", err)
	}
	return f.repo.trades[tr.ID]
}

func (f *fixture) seedGridItem(containerID uuid.UUID, item types.Item, x, y int) {
	c := f.invRepo.containers[containerID]
	c.GridItems = append(c.GridItems, item.PlaceAt(x, y))
}

func tradeItem(name string) types.Item {
	return types.Item{ID: uuid.New(), Name: name, W: 1, H: 1}
}

func TestCreateRejectsSelfTrade(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.campaignID, f.playerA, f.playerA)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestCreateRequiresOnlineDM(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.campaignID, f.playerA, f.dmID)
	if !pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("offline dm err = %v, want state conflict", err)
	}

	f.presence.online[f.dmID] = true
	if _, err := f.svc.Create(context.Background(), f.campaignID, f.playerA, f.dmID); err != nil {
		t.Fatalf("online dm create: %v", err)
	}
}

func TestCreateRejectsDuplicatePair(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.svc.Create(context.Background(), f.campaignID, f.playerA, f.playerB); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.svc.Create(context.Background(), f.campaignID, f.playerA, f.playerB)
	if !pkgerrors.Is(err, pkgerrors.CodeConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestAcceptInvitationIsInviteeOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tr, err := f.svc.Create(context.Background(), f.campaignID, f.playerA, f.playerB)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.svc.AcceptInvitation(context.Background(), f.campaignID, tr.ID, f.playerA); !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		t.Fatalf("inviter accept err = %v, want forbidden", err)
	}
	if err := f.svc.AcceptInvitation(context.Background(), f.campaignID, tr.ID, f.playerB); err != nil {
		t.Fatalf("invitee accept: %v", err)
	}
	if got := f.repo.trades[tr.ID].Status; got != enums.TradeStatusActive {
		t.Fatalf("status = %s, want active", got)
	}
}

func TestDeclineDeletesPendingTrade(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tr, _ := f.svc.Create(context.Background(), f.campaignID, f.playerA, f.playerB)
	if err := f.svc.Decline(context.Background(), f.campaignID, tr.ID, f.playerB); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if _, ok := f.repo.trades[tr.ID]; ok {
		t.Fatalf("declined trade still stored")
	}
}

func TestModifyOfferResetsBothAcceptances(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tr := f.activeTrade(t)
	item := tradeItem("dagger")
	f.seedGridItem(f.packA, item, 0, 0)

	// Both parties accept the empty trade, then A edits the offer.
	if _, err := f.svc.Accept(context.Background(), f.campaignID, tr.ID, f.playerA); err != nil {
		t.Fatalf("accept A: %v", err)
	}
	stored := f.repo.trades[tr.ID]
	stored.AcceptedA = true
	stored.AcceptedB = false

	if err := f.svc.ModifyOffer(context.Background(), f.campaignID, tr.ID, f.playerA, types.ItemList{item}); err != nil {
		t.Fatalf("modify offer: %v", err)
	}
	stored = f.repo.trades[tr.ID]
	if stored.AcceptedA || stored.AcceptedB {
		t.Fatalf("acceptance flags not reset: a=%v b=%v", stored.AcceptedA, stored.AcceptedB)
	}
	if len(stored.OfferA) != 1 || stored.OfferA[0].ID != item.ID {
		t.Fatalf("offer not stored: %+v", stored.OfferA)
	}
}

func TestModifyOfferRejectsForeignItems(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tr := f.activeTrade(t)
	item := tradeItem("stolen goods")
	f.seedGridItem(f.packB, item, 0, 0)

	err := f.svc.ModifyOffer(context.Background(), f.campaignID, tr.ID, f.playerA, types.ItemList{item})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestSingleAcceptKeepsTradeOpen(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tr := f.activeTrade(t)

	result, err := f.svc.Accept(context.Background(), f.campaignID, tr.ID, f.playerA)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !result.AcceptedA || result.AcceptedB {
		t.Fatalf("flags = a:%v b:%v, want a only", result.AcceptedA, result.AcceptedB)
	}
	if _, ok := f.repo.trades[tr.ID]; !ok {
		t.Fatalf("trade deleted after single accept")
	}
}

func TestFinalizeSwapsOffersAndDeletesTrade(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tr := f.activeTrade(t)

	sword := tradeItem("sword")
	shield := tradeItem("shield")
	f.seedGridItem(f.packA, sword, 0, 0)
	f.seedGridItem(f.packB, shield, 0, 0)

	if err := f.svc.ModifyOffer(context.Background(), f.campaignID, tr.ID, f.playerA, types.ItemList{sword}); err != nil {
		t.Fatalf("offer A: %v", err)
	}
	if err := f.svc.ModifyOffer(context.Background(), f.campaignID, tr.ID, f.playerB, types.ItemList{shield}); err != nil {
		t.Fatalf("offer B: %v", err)
	}
	if _, err := f.svc.Accept(context.Background(), f.campaignID, tr.ID, f.playerA); err != nil {
		t.Fatalf("accept A: %v", err)
	}
	if _, err := f.svc.Accept(context.Background(), f.campaignID, tr.ID, f.playerB); err != nil {
		t.Fatalf("accept B: %v", err)
	}

	if _, ok := f.repo.trades[tr.ID]; ok {
		t.Fatalf("finalized trade still stored")
	}
	// Givers no longer hold their items.
	if f.invRepo.containers[f.packA].GridItems.IndexByID(sword.ID) >= 0 {
		t.Fatalf("sword still in A's grid")
	}
	if f.invRepo.containers[f.packB].GridItems.IndexByID(shield.ID) >= 0 {
		t.Fatalf("shield still in B's grid")
	}
	// Receivers hold them exactly once, coordinate-free on the floor tray.
	if f.invRepo.inventories[f.playerB].TrayItems.IndexByID(sword.ID) < 0 {
		t.Fatalf("sword not in B's floor tray")
	}
	if f.invRepo.inventories[f.playerA].TrayItems.IndexByID(shield.ID) < 0 {
		t.Fatalf("shield not in A's floor tray")
	}
}

func TestFinalizeDeliversToDMContainerTray(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.presence.online[f.dmID] = true
	tr, err := f.svc.Create(context.Background(), f.campaignID, f.playerA, f.dmID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.svc.AcceptInvitation(context.Background(), f.campaignID, tr.ID, f.dmID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	gift := tradeItem("tribute")
	f.seedGridItem(f.packA, gift, 0, 0)
	if err := f.svc.ModifyOffer(context.Background(), f.campaignID, tr.ID, f.playerA, types.ItemList{gift}); err != nil {
		t.Fatalf("offer: %v", err)
	}
	if _, err := f.svc.Accept(context.Background(), f.campaignID, tr.ID, f.playerA); err != nil {
		t.Fatalf("accept A: %v", err)
	}
	if _, err := f.svc.Accept(context.Background(), f.campaignID, tr.ID, f.dmID); err != nil {
		t.Fatalf("accept DM: %v", err)
	}

	if f.invRepo.containers[f.dmStash].TrayItems.IndexByID(gift.ID) < 0 {
		t.Fatalf("gift not in dm stash tray")
	}
	if len(f.invRepo.inventories[f.dmID].TrayItems) != 0 {
		t.Fatalf("gift landed on dm floor tray instead of stash")
	}
}

func TestFinalizeFailureResetsFlagsAndKeepsTrade(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tr := f.activeTrade(t)

	ghost := tradeItem("vanished relic")
	f.seedGridItem(f.packA, ghost, 0, 0)
	if err := f.svc.ModifyOffer(context.Background(), f.campaignID, tr.ID, f.playerA, types.ItemList{ghost}); err != nil {
		t.Fatalf("offer: %v", err)
	}

	// The item disappears from A's inventory before both sides accept.
	c := f.invRepo.containers[f.packA]
	c.GridItems, _ = c.GridItems.RemoveByID(ghost.ID)

	if _, err := f.svc.Accept(context.Background(), f.campaignID, tr.ID, f.playerA); err != nil {
		t.Fatalf("accept A: %v", err)
	}
	_, err := f.svc.Accept(context.Background(), f.campaignID, tr.ID, f.playerB)
	if !pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("err = %v, want state conflict", err)
	}

	stored, ok := f.repo.trades[tr.ID]
	if !ok {
		t.Fatalf("trade deleted after failed finalization")
	}
	if stored.Status != enums.TradeStatusActive {
		t.Fatalf("status = %s, want active", stored.Status)
	}
	if stored.AcceptedA || stored.AcceptedB {
		t.Fatalf("acceptance flags not reset: a=%v b=%v", stored.AcceptedA, stored.AcceptedB)
	}
}

func TestFinalizeWriteFailureResetsFlags(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tr := f.activeTrade(t)

	offered := tradeItem("silver dagger")
	f.seedGridItem(f.packA, offered, 0, 0)
	if err := f.svc.ModifyOffer(context.Background(), f.campaignID, tr.ID, f.playerA, types.ItemList{offered}); err != nil {
		t.Fatalf("offer: %v", err)
	}

	if _, err := f.svc.Accept(context.Background(), f.campaignID, tr.ID, f.playerA); err != nil {
		t.Fatalf("accept A: %v", err)
	}

	// The handover persistence is rejected mid-finalize.
	f.invRepo.containerWriteErr = gorm.ErrInvalidTransaction
	_, err := f.svc.Accept(context.Background(), f.campaignID, tr.ID, f.playerB)
	if !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("err = %v, want dependency", err)
	}

	stored, ok := f.repo.trades[tr.ID]
	if !ok {
		t.Fatalf("trade deleted after failed finalization")
	}
	if stored.Status != enums.TradeStatusActive {
		t.Fatalf("status = %s, want active", stored.Status)
	}
	if stored.AcceptedA || stored.AcceptedB {
		t.Fatalf("acceptance flags not reset: a=%v b=%v", stored.AcceptedA, stored.AcceptedB)
	}
}

func TestCancelForOccupantRemovesAllTrades(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.svc.Create(context.Background(), f.campaignID, f.playerA, f.playerB); err != nil {
		t.Fatalf("create: %v", err)
	}
	f.presence.online[f.dmID] = true
	if _, err := f.svc.Create(context.Background(), f.campaignID, f.playerA, f.dmID); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.svc.CancelForOccupant(context.Background(), nil, f.campaignID, f.playerA); err != nil {
		t.Fatalf("cancel for occupant: %v", err)
	}
	if len(f.repo.trades) != 0 {
		t.Fatalf("%d trades still stored", len(f.repo.trades))
	}
}
