package changebus

import (
	"context"
	"sync"
	"time"
)

// MemoryBus is an in-process Bus used by tests and single-node dev setups.
// Delivery is synchronous inside Publish, which makes test assertions
// deterministic.
type MemoryBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]Handler
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[int]Handler)}
}

func (b *MemoryBus) Publish(_ context.Context, path string) error {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subs[path]))
	for _, h := range b.subs[path] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	ev := Event{Path: path, At: time.Now().UTC()}
	for _, h := range handlers {
		h(ev)
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, path string, h Handler) (Unsubscribe, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[path] == nil {
		b.subs[path] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[path][id] = h

	var once sync.Once
	return func() error {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[path], id)
		})
		return nil
	}, nil
}

// SubscriberCount reports the active subscriptions for a path. Tests use it
// to prove teardown leaves nothing behind.
func (b *MemoryBus) SubscriberCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[path])
}
