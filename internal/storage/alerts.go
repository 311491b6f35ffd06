package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"portfel/internal/core"
	"portfel/internal/store"
)

// RecordAlert implements store.AlertStore.
func (r *SQLiteRepository) RecordAlert(ctx context.Context, a store.Alert) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budget_alerts (id, owner_id, category, tier, percentage, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, a.Category, string(a.Tier), a.Percentage,
		a.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert budget alert: %w", err)
	}
	return nil
}

// ListAlertsByOwner returns the owner's alerts, newest first.
func (r *SQLiteRepository) ListAlertsByOwner(ctx context.Context, ownerID string) ([]store.Alert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, category, tier, percentage, created_at
		FROM budget_alerts WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budget alerts: %w", err)
	}
	defer rows.Close()

	var result []store.Alert
	for rows.Next() {
		var a store.Alert
		var tier, created string
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Category, &tier, &a.Percentage, &created); err != nil {
			return nil, fmt.Errorf("scan budget alert: %w", err)
		}
		a.Tier = core.Tier(tier)
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			a.CreatedAt = t
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
