// Package sync keeps a live, normalized mirror of one campaign's documents.
// A watcher holds three fixed subscriptions (campaign, inventories, trades)
// plus one container subscription per occupant, reconciled whenever the
// membership changes. Every change event re-reads only the affected scope
// and fans a fresh snapshot out to the consumer.
package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/Cervini/reinventory-backend/pkg/changebus"
	"github.com/Cervini/reinventory-backend/pkg/db/models"
	pkgerrors "github.com/Cervini/reinventory-backend/pkg/errors"
	"github.com/Cervini/reinventory-backend/pkg/logger"
	"github.com/Cervini/reinventory-backend/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Subscription scopes, used as metric labels and teardown identifiers.
const (
	ScopeCampaign    = "campaign"
	ScopeInventories = "inventories"
	ScopeContainers  = "containers"
	ScopeTrades      = "trades"
)

// Snapshot is the merged mirror of one campaign. Each scope owns its own
// fields: a rebuild of one scope never touches another's, so a containers
// event can never clobber trade state and vice versa.
type Snapshot struct {
	Campaign    models.Campaign
	Inventories map[uuid.UUID]models.Inventory
	Containers  map[uuid.UUID][]models.Container
	Trades      []models.Trade
	RebuiltAt   time.Time
}

// WatcherParams groups dependencies for a campaign watcher.
type WatcherParams struct {
	CampaignID uuid.UUID
	Loader     Loader
	Bus        changebus.Bus
	Logger     *logger.Logger
	Metrics    *metrics.SyncMetrics
	// Buffer bounds the snapshot channel; the oldest snapshot is dropped
	// when the consumer falls behind.
	Buffer int
}

// Watcher mirrors one campaign and emits a snapshot on every change.
type Watcher struct {
	campaignID uuid.UUID
	loader     Loader
	bus        changebus.Bus
	log        *logger.Logger
	metrics    *metrics.SyncMetrics

	ctx context.Context

	mu   stdsync.Mutex
	snap Snapshot
	// containerGen invalidates pending optimistic rollbacks once a
	// server rebuild has replaced the owner's slice.
	containerGen  map[uuid.UUID]uint64
	containerSubs map[uuid.UUID]changebus.Unsubscribe
	baseSubs      []changebus.Unsubscribe
	out           chan Snapshot
	closed        bool
}

// NewWatcher builds a watcher. Call Start to load the initial state and
// open the subscriptions.
func NewWatcher(params WatcherParams) (*Watcher, error) {
	if params.CampaignID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign id is required")
	}
	if params.Loader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loader is required")
	}
	if params.Bus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "change bus is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	buffer := params.Buffer
	if buffer <= 0 {
		buffer = 16
	}
	return &Watcher{
		campaignID:    params.CampaignID,
		loader:        params.Loader,
		bus:           params.Bus,
		log:           params.Logger,
		metrics:       params.Metrics,
		containerGen:  make(map[uuid.UUID]uint64),
		containerSubs: make(map[uuid.UUID]changebus.Unsubscribe),
		out:           make(chan Snapshot, buffer),
	}, nil
}

// Snapshots is the fan-out channel. It closes when the watcher closes.
func (w *Watcher) Snapshots() <-chan Snapshot {
	return w.out
}

// Start performs the initial full load and opens the subscriptions.
func (w *Watcher) Start(ctx context.Context) error {
	w.ctx = ctx

	if err := w.refreshCampaign(ctx); err != nil {
		return err
	}
	if err := w.refreshInventories(ctx); err != nil {
		return err
	}
	if err := w.refreshTrades(ctx); err != nil {
		return err
	}

	subs := []struct {
		scope   string
		path    string
		handler changebus.Handler
	}{
		{ScopeCampaign, changebus.CampaignPath(w.campaignID), func(changebus.Event) {
			go w.refresh(ScopeCampaign)
		}},
		{ScopeInventories, changebus.InventoriesPath(w.campaignID), func(changebus.Event) {
			go w.refresh(ScopeInventories)
		}},
		{ScopeTrades, changebus.TradesPath(w.campaignID), func(changebus.Event) {
			go w.refresh(ScopeTrades)
		}},
	}
	for _, sub := range subs {
		unsub, err := w.bus.Subscribe(ctx, sub.path, sub.handler)
		if err != nil {
			return multierr.Append(
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open subscription"),
				w.Close(),
			)
		}
		w.baseSubs = append(w.baseSubs, unsub)
		w.metrics.SubscriptionOpened(sub.scope)
	}

	w.emit()
	return nil
}

func (w *Watcher) refresh(scope string) {
	ctx := w.ctx
	var err error
	switch scope {
	case ScopeCampaign:
		err = w.refreshCampaign(ctx)
	case ScopeInventories:
		err = w.refreshInventories(ctx)
	case ScopeTrades:
		err = w.refreshTrades(ctx)
	}
	if err != nil {
		w.log.Error(w.log.WithField(ctx, "scope", scope), "rebuild snapshot scope", err)
		return
	}
	w.emit()
}

// refreshCampaign reloads the campaign document and reconciles the
// per-occupant container subscriptions against the new membership.
func (w *Watcher) refreshCampaign(ctx context.Context) error {
	c, err := w.loader.Campaign(ctx, w.campaignID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}

	w.mu.Lock()
	w.snap.Campaign = *c
	w.snap.RebuiltAt = time.Now().UTC()
	w.mu.Unlock()
	w.metrics.SnapshotRebuilt(ScopeCampaign)

	return w.reconcileContainerSubs(ctx, c)
}

// reconcileContainerSubs keeps the invariant that the container registry
// holds exactly one subscription per current occupant (DM included):
// occupants gained get a subscription and an initial load, occupants lost
// get their subscription and mirror entry dropped.
func (w *Watcher) reconcileContainerSubs(ctx context.Context, c *models.Campaign) error {
	occupants := map[uuid.UUID]struct{}{c.DMID: {}}
	for _, id := range c.Players {
		occupants[id] = struct{}{}
	}

	w.mu.Lock()
	var stale []changebus.Unsubscribe
	for ownerID, unsub := range w.containerSubs {
		if _, keep := occupants[ownerID]; keep {
			continue
		}
		stale = append(stale, unsub)
		delete(w.containerSubs, ownerID)
		delete(w.containerGen, ownerID)
		if w.snap.Containers != nil {
			delete(w.snap.Containers, ownerID)
		}
	}
	var added []uuid.UUID
	for ownerID := range occupants {
		if _, exists := w.containerSubs[ownerID]; !exists {
			added = append(added, ownerID)
		}
	}
	w.mu.Unlock()

	var errs error
	for _, unsub := range stale {
		errs = multierr.Append(errs, unsub())
		w.metrics.SubscriptionClosed(ScopeContainers)
	}

	for _, ownerID := range added {
		ownerID := ownerID
		unsub, err := w.bus.Subscribe(ctx, changebus.ContainersPath(w.campaignID, ownerID), func(changebus.Event) {
			go func() {
				if err := w.refreshContainers(w.ctx, ownerID); err != nil {
					w.log.Error(w.log.WithField(w.ctx, "ownerId", ownerID.String()), "rebuild containers", err)
					return
				}
				w.emit()
			}()
		})
		if err != nil {
			errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open container subscription"))
			continue
		}
		// Re-check under the lock: a concurrent reconcile (or Close) may
		// have won the registry slot while we were subscribing. Exactly one
		// handle per owner may land in the map; a loser tears its own down.
		w.mu.Lock()
		_, taken := w.containerSubs[ownerID]
		if taken || w.closed {
			w.mu.Unlock()
			errs = multierr.Append(errs, unsub())
			continue
		}
		w.containerSubs[ownerID] = unsub
		w.mu.Unlock()
		w.metrics.SubscriptionOpened(ScopeContainers)

		if err := w.refreshContainers(ctx, ownerID); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (w *Watcher) refreshInventories(ctx context.Context) error {
	inventories, err := w.loader.Inventories(ctx, w.campaignID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventories")
	}
	byOwner := make(map[uuid.UUID]models.Inventory, len(inventories))
	for _, inv := range inventories {
		byOwner[inv.OwnerID] = inv
	}

	w.mu.Lock()
	w.snap.Inventories = byOwner
	w.snap.RebuiltAt = time.Now().UTC()
	w.mu.Unlock()
	w.metrics.SnapshotRebuilt(ScopeInventories)
	return nil
}

func (w *Watcher) refreshContainers(ctx context.Context, ownerID uuid.UUID) error {
	containers, err := w.loader.Containers(ctx, w.campaignID, ownerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load containers")
	}

	w.mu.Lock()
	if w.snap.Containers == nil {
		w.snap.Containers = make(map[uuid.UUID][]models.Container)
	}
	w.snap.Containers[ownerID] = containers
	w.containerGen[ownerID]++
	w.snap.RebuiltAt = time.Now().UTC()
	w.mu.Unlock()
	w.metrics.SnapshotRebuilt(ScopeContainers)
	return nil
}

func (w *Watcher) refreshTrades(ctx context.Context) error {
	trades, err := w.loader.Trades(ctx, w.campaignID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trades")
	}

	w.mu.Lock()
	w.snap.Trades = trades
	w.snap.RebuiltAt = time.Now().UTC()
	w.mu.Unlock()
	w.metrics.SnapshotRebuilt(ScopeTrades)
	return nil
}

// ApplyLocal applies an optimistic container mutation for one owner ahead
// of the server write. The previous slice is retained, so the returned
// rollback restores it exactly; a rollback after a server rebuild has
// already replaced the slice is a no-op, the rebuild is authoritative.
func (w *Watcher) ApplyLocal(ownerID uuid.UUID, mutate func([]models.Container) []models.Container) (rollback func()) {
	w.mu.Lock()
	if w.snap.Containers == nil {
		w.snap.Containers = make(map[uuid.UUID][]models.Container)
	}
	previous := w.snap.Containers[ownerID]
	gen := w.containerGen[ownerID]

	working := make([]models.Container, len(previous))
	copy(working, previous)
	w.snap.Containers[ownerID] = mutate(working)
	w.mu.Unlock()
	w.emit()

	return func() {
		w.mu.Lock()
		if w.containerGen[ownerID] != gen {
			w.mu.Unlock()
			return
		}
		w.snap.Containers[ownerID] = previous
		w.mu.Unlock()
		w.metrics.RollbackApplied()
		w.emit()
	}
}

// Current returns a copy of the present snapshot.
func (w *Watcher) Current() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.copySnapshotLocked()
}

func (w *Watcher) copySnapshotLocked() Snapshot {
	snap := w.snap
	if w.snap.Inventories != nil {
		snap.Inventories = make(map[uuid.UUID]models.Inventory, len(w.snap.Inventories))
		for k, v := range w.snap.Inventories {
			snap.Inventories[k] = v
		}
	}
	if w.snap.Containers != nil {
		snap.Containers = make(map[uuid.UUID][]models.Container, len(w.snap.Containers))
		for k, v := range w.snap.Containers {
			snap.Containers[k] = v
		}
	}
	return snap
}

// emit fans the current snapshot out. A full channel drops the oldest
// pending snapshot: consumers only ever need the latest state.
func (w *Watcher) emit() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	snap := w.copySnapshotLocked()
	for {
		select {
		case w.out <- snap:
			w.mu.Unlock()
			return
		default:
			select {
			case <-w.out:
			default:
			}
		}
	}
}

// Close tears down every subscription and closes the snapshot channel.
// Errors from individual teardowns are combined, not short-circuited, so
// one failing unsubscribe never leaks the rest.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	baseSubs := w.baseSubs
	w.baseSubs = nil
	containerSubs := w.containerSubs
	w.containerSubs = make(map[uuid.UUID]changebus.Unsubscribe)
	w.mu.Unlock()

	var errs error
	for i, unsub := range baseSubs {
		errs = multierr.Append(errs, unsub())
		switch i {
		case 0:
			w.metrics.SubscriptionClosed(ScopeCampaign)
		case 1:
			w.metrics.SubscriptionClosed(ScopeInventories)
		case 2:
			w.metrics.SubscriptionClosed(ScopeTrades)
		}
	}
	for range containerSubs {
		w.metrics.SubscriptionClosed(ScopeContainers)
	}
	for _, unsub := range containerSubs {
		errs = multierr.Append(errs, unsub())
	}

	close(w.out)
	return errs
}
