package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/BenAffleck/ledger-live-common/internal/apperror"
	"github.com/BenAffleck/ledger-live-common/internal/countervalue"
	"github.com/BenAffleck/ledger-live-common/internal/currency"
	"github.com/BenAffleck/ledger-live-common/internal/tracker"
)

type handler struct {
	tracker  *tracker.Service
	registry *currency.Registry
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type pairInfo struct {
	From      string     `json:"from"`
	To        string     `json:"to"`
	StartDate *time.Time `json:"startDate,omitempty"`
	Failures  int        `json:"failures,omitempty"`
	LastSync  *time.Time `json:"lastSync,omitempty"`
}

func (h *handler) listPairs(w http.ResponseWriter, _ *http.Request) {
	state := h.tracker.State()
	pairs := h.tracker.Pairs()

	out := make([]pairInfo, 0, len(pairs))
	for _, p := range pairs {
		info := pairInfo{
			From:      p.From.Ticker,
			To:        p.To.Ticker,
			StartDate: p.StartDate,
		}
		if status, ok := state.Status[p.Key()]; ok {
			info.Failures = status.Failures
			if !status.Timestamp.IsZero() {
				ts := status.Timestamp
				info.LastSync = &ts
			}
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

type rateResponse struct {
	From string     `json:"from"`
	To   string     `json:"to"`
	Date *time.Time `json:"date,omitempty"`
	Rate float64    `json:"rate"`
}

func (h *handler) getRate(w http.ResponseWriter, r *http.Request) {
	from, to, appErr := h.parsePair(r)
	if appErr != nil {
		writeError(w, appErr.HTTPStatus(), appErr.Message())
		return
	}
	at, appErr := parseDate(r)
	if appErr != nil {
		writeError(w, appErr.HTTPStatus(), appErr.Message())
		return
	}

	rate, ok := h.tracker.Engine().Rate(h.tracker.State(), from, to, at)
	if !ok {
		writeError(w, http.StatusNotFound, "no countervalue available")
		return
	}
	writeJSON(w, http.StatusOK, rateResponse{
		From: from.Ticker,
		To:   to.Ticker,
		Date: at,
		Rate: rate,
	})
}

type convertResponse struct {
	From   string     `json:"from"`
	To     string     `json:"to"`
	Date   *time.Time `json:"date,omitempty"`
	Value  float64    `json:"value"`
	Result float64    `json:"result"`
}

func (h *handler) convert(w http.ResponseWriter, r *http.Request) {
	from, to, appErr := h.parsePair(r)
	if appErr != nil {
		writeError(w, appErr.HTTPStatus(), appErr.Message())
		return
	}
	at, appErr := parseDate(r)
	if appErr != nil {
		writeError(w, appErr.HTTPStatus(), appErr.Message())
		return
	}

	valueStr := r.URL.Query().Get("value")
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid value, expected a number")
		return
	}

	query := countervalue.CalculateQuery{
		Value:           value,
		From:            from,
		To:              to,
		Date:            at,
		Reverse:         r.URL.Query().Get("reverse") == "true",
		DisableRounding: r.URL.Query().Get("raw") == "true",
	}

	result := h.tracker.Engine().Calculate(h.tracker.State(), query)
	if !result.Valid {
		writeError(w, http.StatusNotFound, "no countervalue available")
		return
	}
	writeJSON(w, http.StatusOK, convertResponse{
		From:   from.Ticker,
		To:     to.Ticker,
		Date:   at,
		Value:  value,
		Result: result.Amount,
	})
}

func (h *handler) triggerSync(w http.ResponseWriter, _ *http.Request) {
	h.tracker.SyncNow()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sync scheduled"})
}

func (h *handler) parsePair(r *http.Request) (currency.Currency, currency.Currency, *apperror.AppError) {
	fromTicker := r.URL.Query().Get("from")
	toTicker := r.URL.Query().Get("to")
	if fromTicker == "" || toTicker == "" {
		return currency.Currency{}, currency.Currency{},
			apperror.New(apperror.BadRequest, "from and to query parameters are required")
	}
	from, err := h.registry.Get(fromTicker)
	if err != nil {
		return currency.Currency{}, currency.Currency{},
			apperror.New(apperror.BadRequest, err.Error())
	}
	to, err := h.registry.Get(toTicker)
	if err != nil {
		return currency.Currency{}, currency.Currency{},
			apperror.New(apperror.BadRequest, err.Error())
	}
	return from, to, nil
}

// parseDate accepts a daily (YYYY-MM-DD) or hourly (YYYY-MM-DDTHH)
// date; absence means "latest".
func parseDate(r *http.Request) (*time.Time, *apperror.AppError) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return nil, nil
	}
	t, err := countervalue.ParseBucket(v)
	if err != nil {
		return nil, apperror.New(apperror.BadRequest,
			"invalid date, expected YYYY-MM-DD or YYYY-MM-DDTHH")
	}
	return &t, nil
}
