package controllers

import (
	"net/http"

	"github.com/angelmondragon/codcrm-backend/api/responses"
	"github.com/angelmondragon/codcrm-backend/internal/auth"
	"github.com/angelmondragon/codcrm-backend/internal/users"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
)

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth")
			return
		}

		var body auth.LoginRequest
		if !decodeBody(w, r, logg, &body) {
			return
		}

		result, err := svc.Login(r.Context(), body)
		reply(w, r, logg, http.StatusOK, result, err)
	}
}

// AuthMe returns the operator behind the bearer token.
func AuthMe(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act := actorFrom(r.Context())
		if act.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		user, err := svc.Get(r.Context(), act.UserID)
		reply(w, r, logg, http.StatusOK, user, err)
	}
}
