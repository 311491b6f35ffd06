package storage

import (
	"context"

	"portfel/internal/core"
	"portfel/internal/store"
)

// The repository carries transactions, budgets and alerts on one receiver,
// so the budget and alert ports are exposed through narrow views.

var _ store.TransactionStore = (*SQLiteRepository)(nil)

type budgetView struct{ r *SQLiteRepository }

func (v budgetView) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	return v.r.CreateBudget(ctx, b)
}

func (v budgetView) Update(ctx context.Context, b core.Budget) error {
	return v.r.UpdateBudget(ctx, b)
}

func (v budgetView) Delete(ctx context.Context, ownerID, id string) error {
	return v.r.DeleteBudget(ctx, ownerID, id)
}

func (v budgetView) ListByOwner(ctx context.Context, ownerID string) ([]core.Budget, error) {
	return v.r.ListBudgetsByOwner(ctx, ownerID)
}

func (v budgetView) GetByCategory(ctx context.Context, ownerID, category string) (core.Budget, error) {
	return v.r.GetBudgetByCategory(ctx, ownerID, category)
}

type alertView struct{ r *SQLiteRepository }

func (v alertView) Record(ctx context.Context, a store.Alert) error {
	return v.r.RecordAlert(ctx, a)
}

func (v alertView) ListByOwner(ctx context.Context, ownerID string) ([]store.Alert, error) {
	return v.r.ListAlertsByOwner(ctx, ownerID)
}

// Budgets returns the store.BudgetStore view of the repository.
func (r *SQLiteRepository) Budgets() store.BudgetStore { return budgetView{r} }

// Alerts returns the store.AlertStore view of the repository.
func (r *SQLiteRepository) Alerts() store.AlertStore { return alertView{r} }
