package controllers

import (
	"net/http"

	"github.com/angelmondragon/codcrm-backend/api/responses"
	"github.com/angelmondragon/codcrm-backend/api/validators"
	"github.com/angelmondragon/codcrm-backend/internal/shipping"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
)

func CourierList(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		couriers, err := svc.ListCouriers(r.Context(), active)
		reply(w, r, logg, http.StatusOK, couriers, err)
	}
}

func CourierCreate(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body shipping.CreateCourierInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		courier, err := svc.CreateCourier(r.Context(), actorFrom(r.Context()), body)
		reply(w, r, logg, http.StatusCreated, courier, err)
	}
}

func CourierGet(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		courier, err := svc.GetCourier(r.Context(), id)
		reply(w, r, logg, http.StatusOK, courier, err)
	}
}

func CourierUpdate(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body shipping.UpdateCourierInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		courier, err := svc.UpdateCourier(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusOK, courier, err)
	}
}

func CourierStats(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		stats, err := svc.CourierStats(r.Context(), id)
		reply(w, r, logg, http.StatusOK, stats, err)
	}
}

// ShipmentList accepts unassigned=true to list shipments on no bordereau.
func ShipmentList(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseShipmentStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		courierID, err := validators.ParseQueryUUID(r, "courier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bordereauID, err := validators.ParseQueryUUID(r, "bordereau_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unassigned, err := validators.ParseQueryBool(r, "unassigned")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := shipping.ShipmentListParams{
			Params:      page,
			Status:      status,
			CourierID:   courierID,
			BordereauID: bordereauID,
		}
		if unassigned != nil {
			params.Unassigned = *unassigned
		}
		result, err := svc.ListShipments(r.Context(), params)
		reply(w, r, logg, http.StatusOK, result, err)
	}
}

func ShipmentCreate(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body shipping.CreateShipmentInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		shipment, err := svc.CreateShipment(r.Context(), actorFrom(r.Context()), body)
		reply(w, r, logg, http.StatusCreated, shipment, err)
	}
}

func ShipmentGet(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		shipment, err := svc.GetShipment(r.Context(), id)
		reply(w, r, logg, http.StatusOK, shipment, err)
	}
}

func ShipmentDelete(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		if err := svc.DeleteShipment(r.Context(), actorFrom(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func ShipmentTransition(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body shipping.TransitionInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		shipment, err := svc.Transition(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusOK, shipment, err)
	}
}

func ShipmentTrack(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body shipping.TrackingEventInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		event, err := svc.AddTrackingEvent(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusCreated, event, err)
	}
}
