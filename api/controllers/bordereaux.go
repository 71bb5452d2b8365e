package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/angelmondragon/codcrm-backend/api/responses"
	"github.com/angelmondragon/codcrm-backend/api/validators"
	"github.com/angelmondragon/codcrm-backend/internal/bordereaux"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
)

func BordereauList(svc bordereaux.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseBordereauStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		courierID, err := validators.ParseQueryUUID(r, "courier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), bordereaux.ListParams{Params: page, Status: status, CourierID: courierID})
		reply(w, r, logg, http.StatusOK, result, err)
	}
}

func BordereauCreate(svc bordereaux.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body bordereaux.CreateInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		b, err := svc.Create(r.Context(), actorFrom(r.Context()), body)
		reply(w, r, logg, http.StatusCreated, b, err)
	}
}

func BordereauGet(svc bordereaux.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		b, err := svc.Get(r.Context(), id)
		reply(w, r, logg, http.StatusOK, b, err)
	}
}

func BordereauAddShipments(svc bordereaux.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body bordereaux.ShipmentsInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		b, err := svc.AddShipments(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusOK, b, err)
	}
}

func BordereauRemoveShipment(svc bordereaux.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		shipmentID, ok := pathID(w, r, logg, "shipmentId")
		if !ok {
			return
		}
		b, err := svc.RemoveShipment(r.Context(), actorFrom(r.Context()), id, shipmentID)
		reply(w, r, logg, http.StatusOK, b, err)
	}
}

func BordereauTransition(svc bordereaux.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body bordereaux.TransitionInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		b, err := svc.Transition(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusOK, b, err)
	}
}

func BordereauRecompute(svc bordereaux.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		b, err := svc.Recompute(r.Context(), actorFrom(r.Context()), id)
		reply(w, r, logg, http.StatusOK, b, err)
	}
}

// BordereauManifest streams the courier hand-over sheet as xlsx.
func BordereauManifest(svc bordereaux.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		manifest, err := svc.Manifest(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var buf bytes.Buffer
		if err := bordereaux.WriteManifest(&buf, manifest); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render manifest"))
			return
		}

		w.Header().Set("Content-Type", bordereaux.XLSXContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", manifest.FileName()))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}
