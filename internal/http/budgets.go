package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"portfel/internal/core"
	"portfel/internal/store"
)

type budgetRequest struct {
	Category string `json:"category"`
	Amount   string `json:"amount"` // decimal string
	Currency string `json:"currency,omitempty"`
	Period   string `json:"period,omitempty"`
}

type budgetResponse struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Period      string `json:"period"`
}

type budgetUsageResponse struct {
	Budget budgetResponse `json:"budget"`
	Usage  usageResponse  `json:"usage"`
}

type usageResponse struct {
	SpentCents     int64   `json:"spent_cents"`
	Spent          string  `json:"spent"`
	RemainingCents int64   `json:"remaining_cents"`
	Remaining      string  `json:"remaining"`
	Percentage     float64 `json:"percentage"`
	Tier           string  `json:"tier"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		Category:    b.Category,
		Amount:      centsToDecimal(b.Amount.Cents),
		AmountCents: b.Amount.Cents,
		Currency:    b.Currency,
		Period:      string(b.Period),
	}
}

func toUsageResponse(u core.BudgetUsage) usageResponse {
	return usageResponse{
		SpentCents:     u.Spent.Cents,
		Spent:          centsToDecimal(u.Spent.Cents),
		RemainingCents: u.Remaining.Cents,
		Remaining:      centsToDecimal(u.Remaining.Cents),
		Percentage:     u.Percentage,
		Tier:           string(u.Tier),
	}
}

func (req budgetRequest) toDomain(owner string) (core.Budget, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		OwnerID:  owner,
		Category: req.Category,
		Amount:   core.Money{Cents: cents},
		Currency: req.Currency,
		Period:   core.Period(req.Period),
	}, nil
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}
	b, err := req.toDomain(owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_budget", err.Error())
		return
	}

	created, err := s.budgets.Create(r.Context(), b)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_budget", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	items, err := s.budgets.ListWithUsage(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to list budgets")
		return
	}
	out := make([]budgetUsageResponse, 0, len(items))
	for _, item := range items {
		out = append(out, budgetUsageResponse{
			Budget: toBudgetResponse(item.Budget),
			Usage:  toUsageResponse(item.Usage),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}
	b, err := req.toDomain(owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_budget", err.Error())
		return
	}
	b.ID = chi.URLParam(r, "id")

	if err := s.budgets.Update(r.Context(), b); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "budget not found")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_budget", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	err := s.budgets.Delete(r.Context(), owner, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "budget not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to delete budget")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
