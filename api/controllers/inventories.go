package controllers

import (
	"net/http"

	"github.com/Cervini/reinventory-backend/api/middleware"
	"github.com/Cervini/reinventory-backend/api/responses"
	"github.com/Cervini/reinventory-backend/api/validators"
	"github.com/Cervini/reinventory-backend/internal/inventory"
	"github.com/Cervini/reinventory-backend/pkg/logger"
)

// InventoryView returns one occupant's inventory with derived weights.
func InventoryView(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ownerID, err := pathUUID(r, "ownerId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.GetView(ctx, campaignID, middleware.ActorIDFromContext(ctx), ownerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// InventoryUpdateSettings edits an occupant's character and weight settings.
func InventoryUpdateSettings(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ownerID, err := pathUUID(r, "ownerId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var in inventory.SettingsInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.UpdateSettings(ctx, campaignID, middleware.ActorIDFromContext(ctx), ownerID, in); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}

// ContainerCreate adds a container to an occupant's inventory.
func ContainerCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ownerID, err := pathUUID(r, "ownerId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var in inventory.ContainerInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.CreateContainer(ctx, campaignID, middleware.ActorIDFromContext(ctx), ownerID, in)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ContainerUpdate renames or resizes a container. A shrink re-places the
// grid contents and can spill items onto the container tray.
func ContainerUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		containerID, err := pathUUID(r, "containerId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var in inventory.ContainerInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.UpdateContainer(ctx, campaignID, middleware.ActorIDFromContext(ctx), containerID, in)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ContainerDelete removes a container; its contents land on the floor tray.
func ContainerDelete(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		containerID, err := pathUUID(r, "containerId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteContainer(ctx, campaignID, middleware.ActorIDFromContext(ctx), containerID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
