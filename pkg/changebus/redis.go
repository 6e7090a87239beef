package changebus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Cervini/reinventory-backend/pkg/logger"
	pkgredis "github.com/Cervini/reinventory-backend/pkg/redis"
)

// RedisBus implements Bus over Redis pub/sub channels.
type RedisBus struct {
	client *pkgredis.Client
	logg   *logger.Logger
}

// NewRedisBus wires the bus to an established redis client.
func NewRedisBus(client *pkgredis.Client, logg *logger.Logger) *RedisBus {
	return &RedisBus{client: client, logg: logg}
}

// Publish broadcasts a change event on the channel derived from the path.
func (b *RedisBus) Publish(ctx context.Context, path string) error {
	payload, err := json.Marshal(Event{Path: path, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return b.client.Raw().Publish(ctx, b.client.ChangeChannel(path), payload).Err()
}

// Subscribe listens on the path's channel until unsubscribed. The returned
// Unsubscribe closes the underlying pub/sub connection, which terminates the
// delivery goroutine.
func (b *RedisBus) Subscribe(ctx context.Context, path string, h Handler) (Unsubscribe, error) {
	sub := b.client.Raw().Subscribe(ctx, b.client.ChangeChannel(path))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	go func() {
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				if b.logg != nil {
					b.logg.Warn(ctx, "changebus: dropping malformed event")
				}
				continue
			}
			h(ev)
		}
	}()

	var once sync.Once
	return func() error {
		var err error
		once.Do(func() {
			err = sub.Close()
		})
		return err
	}, nil
}
