package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/codcrm-backend/api/middleware"
	"github.com/angelmondragon/codcrm-backend/api/responses"
	"github.com/angelmondragon/codcrm-backend/api/validators"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
)

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}

// decodeBody writes the error response itself and reports whether to continue.
func decodeBody(w http.ResponseWriter, r *http.Request, logg *logger.Logger, dest any) bool {
	if err := validators.DecodeJSONBody(w, r, dest); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, logg *logger.Logger, key string) (uuid.UUID, bool) {
	id, err := validators.ParseURLUUID(r, key)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, false
	}
	return id, true
}

// reply writes data with status or maps err onto the error envelope.
func reply(w http.ResponseWriter, r *http.Request, logg *logger.Logger, status int, data any, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, status, data)
}

func search(r *http.Request) string {
	if q := validators.ParseSearch(r, "q"); q != nil {
		return *q
	}
	return ""
}

var actorFrom = middleware.ActorFromContext
