package controllers

import (
	"net/http"

	"github.com/Cervini/reinventory-backend/api/middleware"
	"github.com/Cervini/reinventory-backend/api/responses"
	"github.com/Cervini/reinventory-backend/internal/presence"
	"github.com/Cervini/reinventory-backend/pkg/logger"
)

// PresenceHeartbeat refreshes the actor's online marker. The WebSocket
// stream keeps this alive automatically; this endpoint covers clients that
// poll instead.
func PresenceHeartbeat(tracker *presence.Tracker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := tracker.Heartbeat(ctx, campaignID, middleware.ActorIDFromContext(ctx)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"online": true})
	}
}

// PresenceDisconnect drops the actor's online marker immediately instead of
// waiting for the TTL to lapse.
func PresenceDisconnect(tracker *presence.Tracker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := tracker.Disconnect(ctx, campaignID, middleware.ActorIDFromContext(ctx)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"online": false})
	}
}
