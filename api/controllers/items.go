package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Cervini/reinventory-backend/api/middleware"
	"github.com/Cervini/reinventory-backend/api/responses"
	"github.com/Cervini/reinventory-backend/api/validators"
	"github.com/Cervini/reinventory-backend/internal/inventory"
	"github.com/Cervini/reinventory-backend/pkg/logger"
)

type createItemPayload struct {
	ContainerID *uuid.UUID          `json:"containerId"`
	Item        inventory.ItemInput `json:"item" validate:"required"`
}

// ItemCreate spawns a new item. With a container it lands on the first free
// grid slot or the container tray; without one it goes to the floor tray.
func ItemCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload createItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.CreateItem(ctx, campaignID, middleware.ActorIDFromContext(ctx), ownerID, payload.ContainerID, payload.Item)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ItemMove performs a drag-drop move between grids, trays and the floor.
func ItemMove(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
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

		var in inventory.MoveInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.MoveItem(ctx, campaignID, middleware.ActorIDFromContext(ctx), ownerID, in)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ItemRotate swaps an item's footprint in place when possible.
func ItemRotate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, ownerID, itemID, err := itemPath(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.RotateItem(ctx, campaignID, middleware.ActorIDFromContext(ctx), ownerID, itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ItemEdit replaces the item's fields; a grown footprint may relocate it.
func ItemEdit(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, ownerID, itemID, err := itemPath(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var in inventory.ItemInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.EditItem(ctx, campaignID, middleware.ActorIDFromContext(ctx), ownerID, itemID, in)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type splitPayload struct {
	Amount int `json:"amount" validate:"required,min=1"`
}

// ItemSplit carves a partial stack off a stackable item.
func ItemSplit(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, ownerID, itemID, err := itemPath(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload splitPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.SplitStack(ctx, campaignID, middleware.ActorIDFromContext(ctx), ownerID, itemID, payload.Amount)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ItemDuplicate clones an item onto the tray of its container.
func ItemDuplicate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, ownerID, itemID, err := itemPath(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.DuplicateItem(ctx, campaignID, middleware.ActorIDFromContext(ctx), ownerID, itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ItemDelete removes an item permanently.
func ItemDelete(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, ownerID, itemID, err := itemPath(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteItem(ctx, campaignID, middleware.ActorIDFromContext(ctx), ownerID, itemID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

type sendPayload struct {
	ToOwnerID uuid.UUID `json:"toOwnerId" validate:"required"`
}

// ItemSend hands an item to another occupant; DM only.
func ItemSend(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		campaignID, ownerID, itemID, err := itemPath(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload sendPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.SendToPlayer(ctx, campaignID, middleware.ActorIDFromContext(ctx), ownerID, payload.ToOwnerID, itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func itemPath(r *http.Request) (campaignID, ownerID, itemID uuid.UUID, err error) {
	if campaignID, err = pathUUID(r, "campaignId"); err != nil {
		return
	}
	if ownerID, err = pathUUID(r, "ownerId"); err != nil {
		return
	}
	itemID, err = pathUUID(r, "itemId")
	return
}
