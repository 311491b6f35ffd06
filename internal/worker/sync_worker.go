// Package worker consumes the AMQP queues: it exports committed
// transactions to the spreadsheet and records budget alerts.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"portfel/internal/amqp"
	"portfel/internal/core"
	"portfel/internal/export"
	"portfel/internal/store"
)

// SyncStore is the slice of the storage layer the worker needs.
type SyncStore interface {
	GetByID(ctx context.Context, id string) (core.Transaction, error)
	ListPendingSync(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
}

// SyncWorker moves transactions from SQLite to the spreadsheet and persists
// budget alerts delivered over AMQP.
type SyncWorker struct {
	store     SyncStore
	appender  export.TransactionAppender
	alerts    store.AlertStore
	batchSize int
}

func NewSyncWorker(store SyncStore, appender export.TransactionAppender, alerts store.AlertStore, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		appender:  appender,
		alerts:    alerts,
		batchSize: batchSize,
	}
}

// HandleSyncMessage exports one transaction. A transaction deleted between
// publish and delivery is not an error; the message is simply dropped.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "transaction_id", msg.ID)

	t, err := w.store.GetByID(ctx, msg.ID)
	if errors.Is(err, store.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction gone before export, dropping message",
			"transaction_id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}
	return w.export(ctx, t)
}

// HandleAlertMessage records a budget alert for the owner's notification
// feed.
func (w *SyncWorker) HandleAlertMessage(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	slog.InfoContext(ctx, "Processing budget alert",
		"owner_id", msg.OwnerID, "category", msg.Category,
		"tier", msg.Tier, "percentage", msg.Percentage)

	return w.alerts.Record(ctx, store.Alert{
		OwnerID:    msg.OwnerID,
		Category:   msg.Category,
		Tier:       msg.Tier,
		Percentage: msg.Percentage,
		CreatedAt:  msg.Timestamp,
	})
}

// ProcessPending sweeps transactions that never made it through the queue.
// Backup mechanism for lost messages and worker downtime.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	for _, t := range pending {
		if err := w.export(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending transaction",
				"transaction_id", t.ID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains a larger pending backlog once at startup.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.store.ListPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending transactions at startup: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup", "count", len(pending))
	synced, failed := 0, 0
	for _, t := range pending {
		if err := w.export(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup",
				"transaction_id", t.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending), "synced", synced, "errors", failed)
	return nil
}

// RunPendingSweep calls ProcessPending on the given interval until the
// context is cancelled.
func (w *SyncWorker) RunPendingSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) export(ctx context.Context, t core.Transaction) error {
	ref, err := w.appender.Append(ctx, t)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, t.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"transaction_id", t.ID, "error", markErr)
		}
		return fmt.Errorf("append to spreadsheet: %w", err)
	}

	if err := w.store.MarkSynced(ctx, t.ID); err != nil {
		// The row is written; losing the state update only means one
		// duplicate export on the next sweep.
		slog.ErrorContext(ctx, "Failed to mark as synced",
			"transaction_id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"transaction_id", t.ID, "sheets_ref", ref,
		"category", t.Category, "amount_cents", t.Amount.Cents)
	return nil
}
