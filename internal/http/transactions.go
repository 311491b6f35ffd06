package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"portfel/internal/core"
	"portfel/internal/services"
	"portfel/internal/store"
)

type transactionRequest struct {
	Kind       string `json:"kind"`
	Category   string `json:"category"`
	Amount     string `json:"amount"` // decimal string, e.g. "123.45"
	Currency   string `json:"currency,omitempty"`
	OccurredAt string `json:"occurred_at"` // RFC 3339
	Note       string `json:"note,omitempty"`
	Confirmed  bool   `json:"confirmed,omitempty"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	OccurredAt  string `json:"occurred_at"`
	Note        string `json:"note,omitempty"`
}

type overBudgetResponse struct {
	Error   string           `json:"error"`
	Message string           `json:"message"`
	Detail  overBudgetDetail `json:"detail"`
}

type overBudgetDetail struct {
	Category            string  `json:"category"`
	BudgetAmount        string  `json:"budget_amount"`
	BudgetCents         int64   `json:"budget_cents"`
	CurrentSpent        string  `json:"current_spent"`
	CurrentSpentCents   int64   `json:"current_spent_cents"`
	ProjectedSpent      string  `json:"projected_spent"`
	ProjectedSpentCents int64   `json:"projected_spent_cents"`
	ProjectedPercentage float64 `json:"projected_percentage"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Kind:        string(t.Kind),
		Category:    t.Category,
		Amount:      centsToDecimal(t.Amount.Cents),
		AmountCents: t.Amount.Cents,
		Currency:    t.Currency,
		OccurredAt:  t.OccurredAt.Format(time.RFC3339),
		Note:        t.Note,
	}
}

func (req transactionRequest) toDomain(owner string) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	occurred, err := time.Parse(time.RFC3339, req.OccurredAt)
	if err != nil {
		return core.Transaction{}, errors.New("occurred_at must be an RFC 3339 timestamp")
	}
	return core.Transaction{
		OwnerID:    owner,
		Kind:       core.Kind(req.Kind),
		Category:   req.Category,
		Amount:     core.Money{Cents: cents},
		Currency:   req.Currency,
		OccurredAt: occurred,
		Note:       req.Note,
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}
	tx, err := req.toDomain(owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_transaction", err.Error())
		return
	}

	created, err := s.transactions.Create(r.Context(), tx, req.Confirmed)
	if err != nil {
		var confirmErr *services.ConfirmationRequiredError
		if errors.As(err, &confirmErr) {
			d := confirmErr.Detail
			writeJSON(w, http.StatusConflict, overBudgetResponse{
				Error:   "confirmation_required",
				Message: confirmErr.Error(),
				Detail: overBudgetDetail{
					Category:            d.Category,
					BudgetAmount:        centsToDecimal(d.BudgetAmount.Cents),
					BudgetCents:         d.BudgetAmount.Cents,
					CurrentSpent:        centsToDecimal(d.CurrentSpent.Cents),
					CurrentSpentCents:   d.CurrentSpent.Cents,
					ProjectedSpent:      centsToDecimal(d.ProjectedSpent.Cents),
					ProjectedSpentCents: d.ProjectedSpent.Cents,
					ProjectedPercentage: d.ProjectedPercentage,
				},
			})
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_transaction", err.Error())
		return
	}

	s.dashboardCache.InvalidateOwner(owner)
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	filter := store.TransactionFilter{
		Kind:     core.Kind(r.URL.Query().Get("kind")),
		Category: r.URL.Query().Get("category"),
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_kind", "kind must be income or expense")
		return
	}
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", "from must be an RFC 3339 timestamp")
			return
		}
		filter.From = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", "to must be an RFC 3339 timestamp")
			return
		}
		filter.To = t
	}

	txs, err := s.transactions.List(r.Context(), owner, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to list transactions")
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	tx, err := s.transactions.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "transaction not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to load transaction")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}
	tx, err := req.toDomain(owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_transaction", err.Error())
		return
	}
	tx.ID = chi.URLParam(r, "id")

	updated, err := s.transactions.Update(r.Context(), tx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "transaction not found")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_transaction", err.Error())
		return
	}

	s.dashboardCache.InvalidateOwner(owner)
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	err := s.transactions.Delete(r.Context(), owner, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "transaction not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to delete transaction")
		return
	}

	s.dashboardCache.InvalidateOwner(owner)
	w.WriteHeader(http.StatusNoContent)
}
