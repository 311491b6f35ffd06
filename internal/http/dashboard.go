package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"portfel/internal/cache"
	"portfel/internal/core"
)

type summaryResponse struct {
	IncomeCents  int64              `json:"income_cents"`
	Income       string             `json:"income"`
	ExpenseCents int64              `json:"expense_cents"`
	Expense      string             `json:"expense"`
	BalanceCents int64              `json:"balance_cents"`
	Balance      string             `json:"balance"`
	Count        int                `json:"count"`
	Advisories   []advisoryResponse `json:"advisories,omitempty"`
}

type advisoryResponse struct {
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

type monthlyResponse struct {
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	IncomeCents  int64  `json:"income_cents"`
	Income       string `json:"income"`
	ExpenseCents int64  `json:"expense_cents"`
	Expense      string `json:"expense"`
}

type categoryTotalResponse struct {
	Category   string `json:"category"`
	TotalCents int64  `json:"total_cents"`
	Total      string `json:"total"`
}

// cached wraps a dashboard handler with the per-owner response cache. The
// cache key includes the raw query so different windows never collide.
func (s *Server) cached(w http.ResponseWriter, r *http.Request, owner string, build func() (any, error)) {
	key := cache.Key(owner, r.URL.Path+"?"+r.URL.RawQuery)
	if body, ok := s.dashboardCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
		return
	}

	payload, err := build()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to build dashboard data")
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to encode dashboard data")
		return
	}
	s.dashboardCache.Set(key, body)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	s.cached(w, r, owner, func() (any, error) {
		summary, advisories, err := s.reports.Summary(r.Context(), owner)
		if err != nil {
			return nil, err
		}
		resp := summaryResponse{
			IncomeCents:  summary.IncomeTotal.Cents,
			Income:       centsToDecimal(summary.IncomeTotal.Cents),
			ExpenseCents: summary.ExpenseTotal.Cents,
			Expense:      centsToDecimal(summary.ExpenseTotal.Cents),
			BalanceCents: summary.Balance.Cents,
			Balance:      centsToDecimal(summary.Balance.Cents),
			Count:        summary.Count,
		}
		for _, a := range advisories {
			resp.Advisories = append(resp.Advisories, advisoryResponse{
				TransactionID: a.TransactionID,
				Reason:        a.Reason,
			})
		}
		return resp, nil
	})
}

func (s *Server) handleDashboardMonthly(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	s.cached(w, r, owner, func() (any, error) {
		buckets, err := s.reports.Monthly(r.Context(), owner, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		out := make([]monthlyResponse, 0, len(buckets))
		for _, b := range buckets {
			out = append(out, monthlyResponse{
				Year:         b.Year,
				Month:        b.Month,
				IncomeCents:  b.IncomeTotal.Cents,
				Income:       centsToDecimal(b.IncomeTotal.Cents),
				ExpenseCents: b.ExpenseTotal.Cents,
				Expense:      centsToDecimal(b.ExpenseTotal.Cents),
			})
		}
		return out, nil
	})
}

func (s *Server) handleDashboardCategories(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	kind := core.Kind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = core.Expense
	}
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_kind", "kind must be income or expense")
		return
	}

	top := s.topCategories
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_top", "top must be a positive integer")
			return
		}
		top = n
	}

	s.cached(w, r, owner, func() (any, error) {
		totals, err := s.reports.Categories(r.Context(), owner, kind)
		if err != nil {
			return nil, err
		}
		if len(totals) > top {
			totals = totals[:top]
		}
		out := make([]categoryTotalResponse, 0, len(totals))
		for _, t := range totals {
			out = append(out, categoryTotalResponse{
				Category:   t.Category,
				TotalCents: t.Total.Cents,
				Total:      centsToDecimal(t.Total.Cents),
			})
		}
		return out, nil
	})
}
