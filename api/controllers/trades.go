package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Cervini/reinventory-backend/api/middleware"
	"github.com/Cervini/reinventory-backend/api/responses"
	"github.com/Cervini/reinventory-backend/api/validators"
	"github.com/Cervini/reinventory-backend/internal/trade"
	"github.com/Cervini/reinventory-backend/pkg/logger"
	"github.com/Cervini/reinventory-backend/pkg/types"
)

type createTradePayload struct {
	InviteeID uuid.UUID `json:"inviteeId" validate:"required"`
}

// TradeCreate opens a pending trade invitation.
func TradeCreate(svc trade.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createTradePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.Create(ctx, campaignID, middleware.ActorIDFromContext(ctx), payload.InviteeID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// TradeList returns the actor's open trades in the campaign.
func TradeList(svc trade.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		trades, err := svc.ListForOccupant(ctx, campaignID, middleware.ActorIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, trades)
	}
}

// TradeDetail returns one trade; party membership required.
func TradeDetail(svc trade.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, tradeID, err := tradePath(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		found, err := svc.Get(ctx, campaignID, tradeID, middleware.ActorIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, found)
	}
}

// TradeAcceptInvitation activates a pending trade; invitee only.
func TradeAcceptInvitation(svc trade.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, tradeID, err := tradePath(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.AcceptInvitation(ctx, campaignID, tradeID, middleware.ActorIDFromContext(ctx)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"active": true})
	}
}

// TradeDecline rejects a pending invitation; invitee only.
func TradeDecline(svc trade.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, tradeID, err := tradePath(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Decline(ctx, campaignID, tradeID, middleware.ActorIDFromContext(ctx)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"declined": true})
	}
}

// TradeCancel abandons a trade; either party may do it at any point before
// finalization.
func TradeCancel(svc trade.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, tradeID, err := tradePath(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Cancel(ctx, campaignID, tradeID, middleware.ActorIDFromContext(ctx)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cancelled": true})
	}
}

type offerPayload struct {
	Items types.ItemList `json:"items"`
}

// TradeModifyOffer replaces the actor's side of the table. Any change
// clears both acceptance flags.
func TradeModifyOffer(svc trade.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, tradeID, err := tradePath(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload offerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.ModifyOffer(ctx, campaignID, tradeID, middleware.ActorIDFromContext(ctx), payload.Items); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}

// TradeAccept marks the actor's side accepted; when both sides accept the
// exchange settles atomically.
func TradeAccept(svc trade.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, tradeID, err := tradePath(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Accept(ctx, campaignID, tradeID, middleware.ActorIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func tradePath(r *http.Request) (campaignID, tradeID uuid.UUID, err error) {
	if campaignID, err = pathUUID(r, "campaignId"); err != nil {
		return
	}
	tradeID, err = pathUUID(r, "tradeId")
	return
}
