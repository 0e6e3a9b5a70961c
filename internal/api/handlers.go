package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/internal/tariff"
)

func (s *server) viability(w http.ResponseWriter, r *http.Request) {
	var req model.ViabilityRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.Engine.Evaluate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *server) resolveTariff(w http.ResponseWriter, r *http.Request) {
	var q tariff.Query
	if err := decode(w, r, &q); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.Tariffs.Resolve(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "tariff": t})
}

type batchRequest struct {
	Queries []tariff.Query `json:"queries"`
}

func (s *server) resolveTariffBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ts, err := s.Tariffs.ResolveBatch(r.Context(), req.Queries)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "tariffs": ts})
}

func (s *server) rates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Rates.Fetch(r.Context()))
}

type observation struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// rateHistory serves ?from=YYYY-MM-DD&to=YYYY-MM-DD, defaulting to the last year.
func (s *server) rateHistory(w http.ResponseWriter, r *http.Request) {
	series := chi.URLParam(r, "series")
	to, err := parseDate(r.URL.Query().Get("to"), "to", s.Now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, err := parseDate(r.URL.Query().Get("from"), "from", to.AddDate(-1, 0, 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if from.After(to) {
		writeError(w, r, model.NewValidationError("from", "must not be after to"))
		return
	}

	obs, err := s.Rates.History(r.Context(), series, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]observation, len(obs))
	for i, o := range obs {
		out[i] = observation{Date: o.Date.Format(time.DateOnly), Value: o.Value}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "series": series, "observations": out})
}

func parseDate(v, field string, def time.Time) (time.Time, error) {
	if v == "" {
		return def, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, model.NewValidationError(field, "expected YYYY-MM-DD, got %q", v)
	}
	return t, nil
}

type scheduleRequest struct {
	model.FinancialInputs
	MonthlySavings decimal.Decimal `json:"monthly_savings"`
}

// schedule simulates financing on its own. SELIC is only fetched when the
// request does not fix the monthly rate.
func (s *server) schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	body := map[string]any{"success": true}
	var selic float64
	if req.MonthlyRate == nil {
		rates := s.Rates.Fetch(r.Context())
		selic = rates.Selic.Value
		body["bacen_validation"] = rates
	}
	sim, err := s.Scheduler.Simulate(req.FinancialInputs, selic, req.MonthlySavings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body["financing_simulation"] = sim
	writeJSON(w, http.StatusOK, body)
}
