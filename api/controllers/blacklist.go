package controllers

import (
	"net/http"

	"github.com/angelmondragon/codcrm-backend/api/responses"
	"github.com/angelmondragon/codcrm-backend/api/validators"
	"github.com/angelmondragon/codcrm-backend/internal/blacklist"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
)

func BlacklistList(svc blacklist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := validators.ParseQueryEnum(r, "reason", enums.ParseBlacklistReason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := blacklist.ListParams{Params: page, Reason: reason}
		if phone := validators.ParseQueryString(r, "phone"); phone != nil {
			params.Phone = *phone
		}
		result, err := svc.List(r.Context(), params)
		reply(w, r, logg, http.StatusOK, result, err)
	}
}

func BlacklistAdd(svc blacklist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body blacklist.AddInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		entry, err := svc.Add(r.Context(), actorFrom(r.Context()), body)
		reply(w, r, logg, http.StatusCreated, entry, err)
	}
}

func BlacklistRemove(svc blacklist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		if err := svc.Remove(r.Context(), actorFrom(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// BlacklistCheck answers whether ?phone= is blocked.
func BlacklistCheck(svc blacklist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone := validators.ParseQueryString(r, "phone")
		if phone == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "phone is required").WithDetails(map[string]string{"phone": "is required"}))
			return
		}
		blocked, err := svc.IsBlacklisted(r.Context(), *phone)
		reply(w, r, logg, http.StatusOK, map[string]any{"phone": *phone, "blacklisted": blocked}, err)
	}
}
