package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"portfel/internal/core"
	"portfel/internal/store"
)

const budgetColumns = "id, owner_id, category, amount_cents, currency, period"

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var b core.Budget
	err := row.Scan(&b.ID, &b.OwnerID, &b.Category, &b.Amount.Cents, &b.Currency, &b.Period)
	return b, err
}

// CreateBudget implements store.BudgetStore.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, owner_id, category, amount_cents, currency, period)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.Category, b.Amount.Cents, b.Currency, string(b.Period))
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"id", b.ID,
		"owner_id", b.OwnerID,
		"category", b.Category,
		"amount_cents", b.Amount.Cents,
		"period", b.Period)
	return b, nil
}

// UpdateBudget overwrites prior values; no history is retained.
func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET category = ?, amount_cents = ?, currency = ?, period = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ?`,
		b.Category, b.Amount.Cents, b.Currency, string(b.Period), b.ID, b.OwnerID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListBudgetsByOwner(ctx context.Context, ownerID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var result []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// GetBudgetByCategory returns the owner's budget for the category. When
// multiple budgets exist for one category the most recent wins.
func (r *SQLiteRepository) GetBudgetByCategory(ctx context.Context, ownerID, category string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets
		 WHERE owner_id = ? AND category = ?
		 ORDER BY created_at DESC LIMIT 1`, ownerID, category)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, store.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget by category: %w", err)
	}
	return b, nil
}
