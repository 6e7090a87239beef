package campaign

import (
	"context"
	"io"
	"testing"

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

type stubCampaignRepo struct {
	campaigns map[uuid.UUID]*models.Campaign
}

func newStubCampaignRepo() *stubCampaignRepo {
	return &stubCampaignRepo{campaigns: make(map[uuid.UUID]*models.Campaign)}
}

func (s *stubCampaignRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCampaignRepo) Create(_ context.Context, c *models.Campaign) error {
	copied := *c
	s.campaigns[c.ID] = &copied
	return nil
}

func (s *stubCampaignRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Campaign, error) {
	c, ok := s.campaigns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *stubCampaignRepo) ListForActor(_ context.Context, actorID uuid.UUID) ([]models.Campaign, error) {
	var out []models.Campaign
	for _, c := range s.campaigns {
		if c.DMID == actorID || c.Players.Contains(actorID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubCampaignRepo) Update(_ context.Context, updated *models.Campaign) error {
	c, ok := s.campaigns[updated.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Name = updated.Name
	c.DefaultBackpackSize = updated.DefaultBackpackSize
	return nil
}

func (s *stubCampaignRepo) UpdatePlayers(_ context.Context, id uuid.UUID, players dbtypes.UUIDArray) error {
	c, ok := s.campaigns[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Players = players
	return nil
}

func (s *stubCampaignRepo) UpdateLayout(_ context.Context, updated *models.Campaign) error {
	c, ok := s.campaigns[updated.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Layout = updated.Layout
	return nil
}

func (s *stubCampaignRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.campaigns, id)
	return nil
}

type stubInventoryRepo struct {
	inventory.Repository

	inventories map[uuid.UUID]*models.Inventory
	containers  map[uuid.UUID]*models.Container
}

func newStubInventoryRepo() *stubInventoryRepo {
	return &stubInventoryRepo{
		inventories: make(map[uuid.UUID]*models.Inventory),
		containers:  make(map[uuid.UUID]*models.Container),
	}
}

func (s *stubInventoryRepo) WithTx(tx *gorm.DB) inventory.Repository { return s }

func (s *stubInventoryRepo) CreateInventory(_ context.Context, inv *models.Inventory) error {
	copied := *inv
	s.inventories[inv.OwnerID] = &copied
	return nil
}

func (s *stubInventoryRepo) CreateContainer(_ context.Context, c *models.Container) error {
	copied := *c
	s.containers[c.ID] = &copied
	return nil
}

func (s *stubInventoryRepo) DeleteContainersForOwner(_ context.Context, _, ownerID uuid.UUID) error {
	for id, c := range s.containers {
		if c.OwnerID == ownerID {
			delete(s.containers, id)
		}
	}
	return nil
}

func (s *stubInventoryRepo) DeleteInventory(_ context.Context, _, ownerID uuid.UUID) error {
	delete(s.inventories, ownerID)
	return nil
}

type stubTradeCanceller struct {
	cancelled []uuid.UUID
}

func (s *stubTradeCanceller) CancelForOccupant(_ context.Context, _ *gorm.DB, _, occupantID uuid.UUID) error {
	s.cancelled = append(s.cancelled, occupantID)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	svc     Service
	repo    *stubCampaignRepo
	invRepo *stubInventoryRepo
	trades  *stubTradeCanceller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newStubCampaignRepo()
	invRepo := newStubInventoryRepo()
	trades := &stubTradeCanceller{}
	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(ServiceParams{
		Repo:          repo,
		InventoryRepo: invRepo,
		Trades:        trades,
		Tx:            stubTxRunner{},
		Bus:           changebus.NewMemoryBus(),
		Logger:        log,
		Defaults:      config.CampaignConfig{DefaultGridWidth: 10, DefaultGridHeight: 5},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, repo: repo, invRepo: invRepo, trades: trades}
}

func TestCreateMakesActorTheDM(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dmID := uuid.New()
	campaign, err := f.svc.Create(context.Background(), dmID, "dm@example.com", CreateInput{
		Name: "Curse of Strahd", CharacterName: "Strahd's Keeper",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if campaign.DMID != dmID {
		t.Fatalf("dm id = %s, want %s", campaign.DMID, dmID)
	}

	inv, ok := f.invRepo.inventories[dmID]
	if !ok {
		t.Fatalf("dm inventory not created")
	}
	if inv.Role != enums.OccupantRoleDM {
		t.Fatalf("dm role = %s, want dm", inv.Role)
	}
	if len(f.invRepo.containers) != 1 {
		t.Fatalf("dm stash not created")
	}
}

func TestJoinCreatesInventoryAndBackpack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dmID := uuid.New()
	campaign, err := f.svc.Create(context.Background(), dmID, "", CreateInput{Name: "c", CharacterName: "dm"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	playerID := uuid.New()
	if err := f.svc.Join(context.Background(), campaign.ID, playerID, JoinInput{CharacterName: "Vex"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	stored := f.repo.campaigns[campaign.ID]
	if !stored.Players.Contains(playerID) {
		t.Fatalf("player not in membership array")
	}
	if !stored.Layout.Visible[playerID] {
		t.Fatalf("player not added to layout")
	}
	inv, ok := f.invRepo.inventories[playerID]
	if !ok {
		t.Fatalf("player inventory not created")
	}
	if inv.Role != enums.OccupantRolePlayer {
		t.Fatalf("player role = %s, want player", inv.Role)
	}

	var backpack *models.Container
	for _, c := range f.invRepo.containers {
		if c.OwnerID == playerID {
			backpack = c
		}
	}
	if backpack == nil {
		t.Fatalf("backpack not created")
	}
	if backpack.GridWidth != 10 || backpack.GridHeight != 5 {
		t.Fatalf("backpack = %dx%d, want 10x5 default", backpack.GridWidth, backpack.GridHeight)
	}
}

func TestJoinHonorsCampaignDefaultBackpackSize(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dmID := uuid.New()
	campaign, err := f.svc.Create(context.Background(), dmID, "", CreateInput{
		Name:                "c",
		CharacterName:       "dm",
		DefaultBackpackSize: &types.GridSize{Width: 6, Height: 4},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	playerID := uuid.New()
	if err := f.svc.Join(context.Background(), campaign.ID, playerID, JoinInput{CharacterName: "Pike"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	for _, c := range f.invRepo.containers {
		if c.OwnerID == playerID && (c.GridWidth != 6 || c.GridHeight != 4) {
			t.Fatalf("backpack = %dx%d, want campaign default 6x4", c.GridWidth, c.GridHeight)
		}
	}
}

func TestJoinTwiceConflicts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	campaign, _ := f.svc.Create(context.Background(), uuid.New(), "", CreateInput{Name: "c", CharacterName: "dm"})
	playerID := uuid.New()
	if err := f.svc.Join(context.Background(), campaign.ID, playerID, JoinInput{CharacterName: "x"}); err != nil {
		t.Fatalf("first join: %v", err)
	}
	err := f.svc.Join(context.Background(), campaign.ID, playerID, JoinInput{CharacterName: "x"})
	if !pkgerrors.Is(err, pkgerrors.CodeConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestLeaveCascades(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	campaign, _ := f.svc.Create(context.Background(), uuid.New(), "", CreateInput{Name: "c", CharacterName: "dm"})
	playerID := uuid.New()
	if err := f.svc.Join(context.Background(), campaign.ID, playerID, JoinInput{CharacterName: "x"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := f.svc.Leave(context.Background(), campaign.ID, playerID); err != nil {
		t.Fatalf("leave: %v", err)
	}

	stored := f.repo.campaigns[campaign.ID]
	if stored.Players.Contains(playerID) {
		t.Fatalf("player still in membership array")
	}
	for _, id := range stored.Layout.Order {
		if id == playerID {
			t.Fatalf("player still in layout order")
		}
	}
	if _, ok := f.invRepo.inventories[playerID]; ok {
		t.Fatalf("player inventory not deleted")
	}
	for _, c := range f.invRepo.containers {
		if c.OwnerID == playerID {
			t.Fatalf("player container not deleted")
		}
	}
	if len(f.trades.cancelled) != 1 || f.trades.cancelled[0] != playerID {
		t.Fatalf("open trades not cancelled: %v", f.trades.cancelled)
	}
}

func TestDMCannotLeave(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dmID := uuid.New()
	campaign, _ := f.svc.Create(context.Background(), dmID, "", CreateInput{Name: "c", CharacterName: "dm"})
	err := f.svc.Leave(context.Background(), campaign.ID, dmID)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestRemovePlayerIsDMOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	campaign, _ := f.svc.Create(context.Background(), uuid.New(), "", CreateInput{Name: "c", CharacterName: "dm"})
	playerA := uuid.New()
	playerB := uuid.New()
	for _, id := range []uuid.UUID{playerA, playerB} {
		if err := f.svc.Join(context.Background(), campaign.ID, id, JoinInput{CharacterName: "x"}); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	err := f.svc.RemovePlayer(context.Background(), campaign.ID, playerA, playerB)
	if !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestUpdateLayoutIsDMOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dmID := uuid.New()
	campaign, _ := f.svc.Create(context.Background(), dmID, "", CreateInput{Name: "c", CharacterName: "dm"})
	playerID := uuid.New()
	if err := f.svc.Join(context.Background(), campaign.ID, playerID, JoinInput{CharacterName: "x"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	layout := types.CampaignLayout{Order: []uuid.UUID{playerID, dmID}, Visible: map[uuid.UUID]bool{playerID: true, dmID: false}}
	if err := f.svc.UpdateLayout(context.Background(), campaign.ID, playerID, layout); !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		t.Fatalf("player layout update err = %v, want forbidden", err)
	}
	if err := f.svc.UpdateLayout(context.Background(), campaign.ID, dmID, layout); err != nil {
		t.Fatalf("dm layout update: %v", err)
	}
	if got := f.repo.campaigns[campaign.ID].Layout.Order[0]; got != playerID {
		t.Fatalf("layout order not persisted")
	}
}

func TestGetRequiresMembership(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	campaign, _ := f.svc.Create(context.Background(), uuid.New(), "", CreateInput{Name: "c", CharacterName: "dm"})
	_, err := f.svc.Get(context.Background(), campaign.ID, uuid.New())
	if !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}
