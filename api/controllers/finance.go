package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/codcrm-backend/api/responses"
	"github.com/angelmondragon/codcrm-backend/api/validators"
	"github.com/angelmondragon/codcrm-backend/internal/finance"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
)

const defaultSummaryDays = 30

// TransactionList treats ?to= as an inclusive calendar day.
func TransactionList(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txType, err := validators.ParseQueryEnum(r, "type", enums.ParseTransactionType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, to, ok := dateRange(w, r, logg)
		if !ok {
			return
		}
		if to != nil {
			next := to.AddDate(0, 0, 1)
			to = &next
		}
		result, err := svc.ListTransactions(r.Context(), finance.TransactionListParams{Params: page, Type: txType, From: from, To: to})
		reply(w, r, logg, http.StatusOK, result, err)
	}
}

func TransactionCreate(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body finance.CreateTransactionInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		tx, err := svc.CreateTransaction(r.Context(), actorFrom(r.Context()), body)
		reply(w, r, logg, http.StatusCreated, tx, err)
	}
}

func AdSpendList(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform, err := validators.ParseQueryEnum(r, "platform", enums.ParseLeadSource)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, to, ok := dateRange(w, r, logg)
		if !ok {
			return
		}
		rows, err := svc.ListAdSpend(r.Context(), finance.AdSpendListParams{From: from, To: to, Platform: platform})
		reply(w, r, logg, http.StatusOK, rows, err)
	}
}

func AdSpendCreate(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body finance.AdSpendInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		row, err := svc.CreateAdSpend(r.Context(), actorFrom(r.Context()), body)
		reply(w, r, logg, http.StatusCreated, row, err)
	}
}

// AdSpendUpsert replaces the figures booked for the same date, platform and campaign.
func AdSpendUpsert(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body finance.AdSpendInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		row, err := svc.UpsertAdSpend(r.Context(), actorFrom(r.Context()), body)
		reply(w, r, logg, http.StatusOK, row, err)
	}
}

func SettingsGet(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := svc.GetSettings(r.Context())
		reply(w, r, logg, http.StatusOK, settings, err)
	}
}

func SettingsUpdate(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body finance.UpdateSettingsInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		settings, err := svc.UpdateSettings(r.Context(), actorFrom(r.Context()), body)
		reply(w, r, logg, http.StatusOK, settings, err)
	}
}

// FinanceSummary defaults to the last 30 days ending today (UTC).
func FinanceSummary(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, ok := dateRange(w, r, logg)
		if !ok {
			return
		}
		end := finance.Day(time.Now())
		if to != nil {
			end = *to
		}
		start := end.AddDate(0, 0, 1-defaultSummaryDays)
		if from != nil {
			start = *from
		}
		summary, err := svc.Summary(r.Context(), start, end)
		reply(w, r, logg, http.StatusOK, summary, err)
	}
}

func dateRange(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*time.Time, *time.Time, bool) {
	from, err := validators.ParseQueryDate(r, "from")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, nil, false
	}
	to, err := validators.ParseQueryDate(r, "to")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, nil, false
	}
	return from, to, true
}
