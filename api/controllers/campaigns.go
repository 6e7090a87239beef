package controllers

import (
	"net/http"

	"github.com/Cervini/reinventory-backend/api/middleware"
	"github.com/Cervini/reinventory-backend/api/responses"
	"github.com/Cervini/reinventory-backend/api/validators"
	"github.com/Cervini/reinventory-backend/internal/campaign"
	pkgerrors "github.com/Cervini/reinventory-backend/pkg/errors"
	"github.com/Cervini/reinventory-backend/pkg/logger"
	"github.com/Cervini/reinventory-backend/pkg/types"
)

// CampaignList returns every campaign the actor belongs to.
func CampaignList(svc campaign.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		campaigns, err := svc.List(ctx, middleware.ActorIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, campaigns)
	}
}

// CampaignCreate opens a campaign with the actor as DM.
func CampaignCreate(svc campaign.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		var in campaign.CreateInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.Create(ctx, middleware.ActorIDFromContext(ctx), middleware.ActorEmailFromContext(ctx), in)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// CampaignDetail returns one campaign; membership required.
func CampaignDetail(svc campaign.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		found, err := svc.Get(ctx, campaignID, middleware.ActorIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, found)
	}
}

// CampaignJoin adds the actor to the campaign roster.
func CampaignJoin(svc campaign.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var in campaign.JoinInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Join(ctx, campaignID, middleware.ActorIDFromContext(ctx), in); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"joined": true})
	}
}

// CampaignLeave removes the acting player and their inventory.
func CampaignLeave(svc campaign.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Leave(ctx, campaignID, middleware.ActorIDFromContext(ctx)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"left": true})
	}
}

// CampaignRemovePlayer evicts a player; DM only.
func CampaignRemovePlayer(svc campaign.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		playerID, err := pathUUID(r, "playerId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.RemovePlayer(ctx, campaignID, middleware.ActorIDFromContext(ctx), playerID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"removed": true})
	}
}

type layoutPayload struct {
	Layout types.CampaignLayout `json:"layout" validate:"required"`
}

// CampaignUpdateLayout stores the DM's screen arrangement.
func CampaignUpdateLayout(svc campaign.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload layoutPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.UpdateLayout(ctx, campaignID, middleware.ActorIDFromContext(ctx), payload.Layout); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}

// CampaignUpdateSettings edits the campaign name and defaults; DM only.
func CampaignUpdateSettings(svc campaign.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var in campaign.SettingsInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.UpdateSettings(ctx, campaignID, middleware.ActorIDFromContext(ctx), in); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}

// CampaignDelete tears down the whole campaign; DM only.
func CampaignDelete(svc campaign.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, campaignID, middleware.ActorIDFromContext(ctx)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
