package controllers

import (
	"net/http"

	"github.com/angelmondragon/codcrm-backend/api/responses"
	"github.com/angelmondragon/codcrm-backend/api/validators"
	"github.com/angelmondragon/codcrm-backend/internal/leads"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
)

// LeadList filters by status, source, assignee and a free-text q over name and phone.
func LeadList(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseLeadStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		source, err := validators.ParseQueryEnum(r, "source", enums.ParseLeadSource)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignee, err := validators.ParseQueryUUID(r, "assigned_to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), leads.ListParams{
			Params:     page,
			Status:     status,
			Source:     source,
			AssignedTo: assignee,
			Search:     search(r),
		})
		reply(w, r, logg, http.StatusOK, result, err)
	}
}

func LeadCreate(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body leads.CreateLeadInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		lead, err := svc.Create(r.Context(), actorFrom(r.Context()), body)
		reply(w, r, logg, http.StatusCreated, lead, err)
	}
}

func LeadGet(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		lead, err := svc.Get(r.Context(), id)
		reply(w, r, logg, http.StatusOK, lead, err)
	}
}

func LeadUpdate(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body leads.UpdateLeadInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		lead, err := svc.Update(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusOK, lead, err)
	}
}

func LeadTransition(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body leads.TransitionInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		lead, err := svc.Transition(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusOK, lead, err)
	}
}

func LeadReopen(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body leads.ReopenInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		lead, err := svc.Reopen(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusOK, lead, err)
	}
}

func LeadAddNote(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body leads.NoteInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		entry, err := svc.AddNote(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusCreated, entry, err)
	}
}

// LeadLogCall records a call attempt and moves the lead along the funnel.
func LeadLogCall(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body leads.LogCallInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		result, err := svc.LogCall(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusCreated, result, err)
	}
}

func LeadHistory(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		history, err := svc.History(r.Context(), id)
		reply(w, r, logg, http.StatusOK, history, err)
	}
}
