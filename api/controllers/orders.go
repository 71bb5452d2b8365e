package controllers

import (
	"net/http"

	"github.com/angelmondragon/codcrm-backend/api/responses"
	"github.com/angelmondragon/codcrm-backend/api/validators"
	"github.com/angelmondragon/codcrm-backend/internal/orders"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
)

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseOrderStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		leadID, err := validators.ParseQueryUUID(r, "lead_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), orders.ListParams{
			Params: page,
			Status: status,
			LeadID: leadID,
			Search: search(r),
		})
		reply(w, r, logg, http.StatusOK, result, err)
	}
}

func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body orders.CreateOrderInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		order, err := svc.Create(r.Context(), actorFrom(r.Context()), body)
		reply(w, r, logg, http.StatusCreated, order, err)
	}
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		order, err := svc.Get(r.Context(), id)
		reply(w, r, logg, http.StatusOK, order, err)
	}
}

func OrderUpdate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body orders.UpdateOrderInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		order, err := svc.Update(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusOK, order, err)
	}
}

func OrderAddItem(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body orders.ItemInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		order, err := svc.AddItem(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusCreated, order, err)
	}
}

func OrderUpdateItem(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		itemID, ok := pathID(w, r, logg, "itemId")
		if !ok {
			return
		}
		var body orders.UpdateItemInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		order, err := svc.UpdateItem(r.Context(), actorFrom(r.Context()), id, itemID, body)
		reply(w, r, logg, http.StatusOK, order, err)
	}
}

func OrderRemoveItem(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		itemID, ok := pathID(w, r, logg, "itemId")
		if !ok {
			return
		}
		order, err := svc.RemoveItem(r.Context(), actorFrom(r.Context()), id, itemID)
		reply(w, r, logg, http.StatusOK, order, err)
	}
}

func OrderTransition(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body orders.TransitionInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		order, err := svc.Transition(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusOK, order, err)
	}
}

// OrderRecompute rebuilds the cached totals from the order's items.
func OrderRecompute(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		order, err := svc.Recompute(r.Context(), actorFrom(r.Context()), id)
		reply(w, r, logg, http.StatusOK, order, err)
	}
}
