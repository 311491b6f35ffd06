package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"portfel/internal/core"
	"portfel/internal/currency"
)

type alertResponse struct {
	ID         string  `json:"id"`
	Category   string  `json:"category"`
	Tier       string  `json:"tier"`
	Percentage float64 `json:"percentage"`
	CreatedAt  string  `json:"created_at"`
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	alerts, err := s.alerts.ListByOwner(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to list alerts")
		return
	}
	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertResponse{
			ID:         a.ID,
			Category:   a.Category,
			Tier:       string(a.Tier),
			Percentage: a.Percentage,
			CreatedAt:  a.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	kind := core.Kind(r.URL.Query().Get("kind"))
	if kind == "" {
		writeJSON(w, http.StatusOK, map[string][]string{
			"income":  s.registry.List(core.Income),
			"expense": s.registry.List(core.Expense),
		})
		return
	}
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_kind", "kind must be income or expense")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{string(kind): s.registry.List(kind)})
}

func (s *Server) handleGetRate(w http.ResponseWriter, r *http.Request) {
	code := currency.Normalize(chi.URLParam(r, "code"))
	if !currency.Valid(code) {
		writeError(w, http.StatusBadRequest, "invalid_currency", "unsupported currency code")
		return
	}

	mid, err := s.rates.MidRate(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusBadGateway, "rates_unavailable", "exchange rate lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"code": code, "mid": mid})
}
