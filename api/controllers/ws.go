package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Cervini/reinventory-backend/api/middleware"
	"github.com/Cervini/reinventory-backend/api/responses"
	"github.com/Cervini/reinventory-backend/internal/campaign"
	"github.com/Cervini/reinventory-backend/internal/presence"
	syncpkg "github.com/Cervini/reinventory-backend/internal/sync"
	"github.com/Cervini/reinventory-backend/pkg/changebus"
	"github.com/Cervini/reinventory-backend/pkg/config"
	pkgerrors "github.com/Cervini/reinventory-backend/pkg/errors"
	"github.com/Cervini/reinventory-backend/pkg/logger"
	"github.com/Cervini/reinventory-backend/pkg/metrics"
)

// SyncStreamParams groups the dependencies of the live sync endpoint.
type SyncStreamParams struct {
	Campaigns campaign.Service
	Loader    syncpkg.Loader
	Bus       changebus.Bus
	Presence  *presence.Tracker
	Metrics   *metrics.SyncMetrics
	Sync      config.SyncConfig
	PongWait  time.Duration
	Origins   []string
	Logger    *logger.Logger
}

// SyncStream upgrades the request to a WebSocket and streams campaign
// snapshots until the client goes away. Each pong doubles as a presence
// heartbeat, so the online marker lives exactly as long as the socket.
func SyncStream(p SyncStreamParams) http.HandlerFunc {
	pongWait := p.PongWait
	if pongWait <= 0 {
		pongWait = 45 * time.Second
	}
	pingPeriod := pongWait * 2 / 3

	allowed := map[string]struct{}{}
	for _, origin := range p.Origins {
		allowed[origin] = struct{}{}
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, p.Logger, w, err)
			return
		}
		actorID := middleware.ActorIDFromContext(ctx)

		// Membership gate before the upgrade.
		if _, err := p.Campaigns.Get(ctx, campaignID, actorID); err != nil {
			responses.WriteError(ctx, p.Logger, w, err)
			return
		}

		watcher, err := syncpkg.NewWatcher(syncpkg.WatcherParams{
			CampaignID: campaignID,
			Loader:     p.Loader,
			Bus:        p.Bus,
			Logger:     p.Logger,
			Metrics:    p.Metrics,
			Buffer:     p.Sync.SnapshotBuffer,
		})
		if err != nil {
			responses.WriteError(ctx, p.Logger, w, err)
			return
		}
		if err := watcher.Start(ctx); err != nil {
			responses.WriteError(ctx, p.Logger, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start campaign watcher"))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error.
			_ = watcher.Close()
			if p.Logger != nil {
				p.Logger.Error(ctx, "websocket upgrade failed", err)
			}
			return
		}

		defer func() {
			_ = watcher.Close()
			_ = conn.Close()
			if p.Presence != nil {
				_ = p.Presence.Disconnect(ctx, campaignID, actorID)
			}
		}()

		if p.Presence != nil {
			if err := p.Presence.Heartbeat(ctx, campaignID, actorID); err != nil && p.Logger != nil {
				p.Logger.Error(ctx, "presence heartbeat", err)
			}
		}

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			if p.Presence != nil {
				if err := p.Presence.Heartbeat(ctx, campaignID, actorID); err != nil && p.Logger != nil {
					p.Logger.Error(ctx, "presence heartbeat", err)
				}
			}
			return nil
		})

		// The reader discards client frames; it exists to process control
		// messages and notice a dropped peer.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		writeTimeout := p.Sync.WriteTimeout
		if writeTimeout <= 0 {
			writeTimeout = 10 * time.Second
		}

		for {
			select {
			case snap, ok := <-watcher.Snapshots():
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(snap); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}
