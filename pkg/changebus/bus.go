// Package changebus delivers change notifications for persisted documents.
// A committed write publishes the document path it touched; subscribers
// re-read the document and rebuild their snapshot. The bus itself carries no
// document data, so a missed notification degrades to staleness, never to
// corruption.
package changebus

import (
	"context"
	"time"
)

// Event describes a committed change to a document path.
type Event struct {
	Path string    `json:"path"`
	At   time.Time `json:"at"`
}

// Handler consumes change events. Handlers must not block: slow consumers
// should hand off to their own goroutine.
type Handler func(Event)

// Unsubscribe tears down a subscription. Safe to call more than once.
type Unsubscribe func() error

// Bus is the minimal publish/subscribe surface the sync layer consumes.
type Bus interface {
	Publish(ctx context.Context, path string) error
	Subscribe(ctx context.Context, path string, h Handler) (Unsubscribe, error)
}
