package presence

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	keys map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: make(map[string]time.Duration)}
}

func (m *memoryStore) Set(_ context.Context, key string, _ any, ttl time.Duration) error {
	m.keys[key] = ttl
	return nil
}

func (m *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.keys[key]
	return ok, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

func (m *memoryStore) PresenceKey(campaignID, occupantID string) string {
	return strings.Join([]string{"reinv", "presence", campaignID, occupantID}, ":")
}

func TestHeartbeatMarksOnline(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	tracker, err := NewTracker(store, 30*time.Second)
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	campaignID, occupantID := uuid.New(), uuid.New()

	online, err := tracker.IsOnline(context.Background(), campaignID, occupantID)
	if err != nil {
		t.Fatalf("is online: %v", err)
	}
	if online {
		t.Fatalf("occupant online before any heartbeat")
	}

	if err := tracker.Heartbeat(context.Background(), campaignID, occupantID); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	online, err = tracker.IsOnline(context.Background(), campaignID, occupantID)
	if err != nil {
		t.Fatalf("is online: %v", err)
	}
	if !online {
		t.Fatalf("occupant offline after heartbeat")
	}

	key := store.PresenceKey(campaignID.String(), occupantID.String())
	if got := store.keys[key]; got != 30*time.Second {
		t.Fatalf("ttl = %s, want 30s", got)
	}
}

func TestDisconnectDropsKeyImmediately(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	tracker, _ := NewTracker(store, 30*time.Second)
	campaignID, occupantID := uuid.New(), uuid.New()

	if err := tracker.Heartbeat(context.Background(), campaignID, occupantID); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if err := tracker.Disconnect(context.Background(), campaignID, occupantID); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	online, _ := tracker.IsOnline(context.Background(), campaignID, occupantID)
	if online {
		t.Fatalf("occupant still online after disconnect")
	}
}
