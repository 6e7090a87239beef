// Package presence tracks who currently has a live session in a campaign.
// Each heartbeat refreshes a TTL key in Redis; an occupant whose key has
// expired is considered offline. There is no explicit sign-off: closing the
// connection simply lets the key lapse.
package presence

import (
	"context"
	"time"

	pkgerrors "github.com/Cervini/reinventory-backend/pkg/errors"
	"github.com/google/uuid"
)

// Store is the minimal key/value surface the tracker needs, satisfied by
// the platform redis client.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	PresenceKey(campaignID, occupantID string) string
}

// Tracker records and queries occupant liveness.
type Tracker struct {
	store Store
	ttl   time.Duration
}

// NewTracker builds a presence tracker. The TTL bounds how stale a
// "online" answer can be; heartbeats should arrive at less than half of it.
func NewTracker(store Store, ttl time.Duration) (*Tracker, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "presence store is required")
	}
	if ttl <= 0 {
		ttl = 45 * time.Second
	}
	return &Tracker{store: store, ttl: ttl}, nil
}

// Heartbeat refreshes the occupant's liveness window.
func (t *Tracker) Heartbeat(ctx context.Context, campaignID, occupantID uuid.UUID) error {
	key := t.store.PresenceKey(campaignID.String(), occupantID.String())
	if err := t.store.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), t.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write presence key")
	}
	return nil
}

// Disconnect drops the occupant's key immediately instead of waiting for
// the TTL to lapse. Used when a websocket closes cleanly.
func (t *Tracker) Disconnect(ctx context.Context, campaignID, occupantID uuid.UUID) error {
	key := t.store.PresenceKey(campaignID.String(), occupantID.String())
	if err := t.store.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete presence key")
	}
	return nil
}

// IsOnline reports whether the occupant has a live heartbeat.
func (t *Tracker) IsOnline(ctx context.Context, campaignID, occupantID uuid.UUID) (bool, error) {
	key := t.store.PresenceKey(campaignID.String(), occupantID.String())
	online, err := t.store.Exists(ctx, key)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read presence key")
	}
	return online, nil
}
