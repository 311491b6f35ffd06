package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfel/internal/amqp"
	"portfel/internal/core"
	"portfel/internal/export/memory"
	"portfel/internal/store"
)

type fakeSyncStore struct {
	byID      map[string]core.Transaction
	pending   []core.Transaction
	synced    []string
	errored   []string
	listError error
}

func (f *fakeSyncStore) GetByID(_ context.Context, id string) (core.Transaction, error) {
	t, ok := f.byID[id]
	if !ok {
		return core.Transaction{}, store.ErrNotFound
	}
	return t, nil
}

func (f *fakeSyncStore) ListPendingSync(_ context.Context, limit int) ([]core.Transaction, error) {
	if f.listError != nil {
		return nil, f.listError
	}
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeSyncStore) MarkSynced(_ context.Context, id string) error {
	f.synced = append(f.synced, id)
	return nil
}

func (f *fakeSyncStore) MarkSyncError(_ context.Context, id string) error {
	f.errored = append(f.errored, id)
	return nil
}

type fakeAlerts struct {
	recorded []store.Alert
}

func (f *fakeAlerts) Record(_ context.Context, a store.Alert) error {
	f.recorded = append(f.recorded, a)
	return nil
}

func (f *fakeAlerts) ListByOwner(_ context.Context, _ string) ([]store.Alert, error) {
	return f.recorded, nil
}

type failingAppender struct{}

func (failingAppender) Append(_ context.Context, _ core.Transaction) (string, error) {
	return "", errors.New("sheets unavailable")
}

func sampleTx(id string) core.Transaction {
	return core.Transaction{
		ID: id, OwnerID: "u1", Kind: core.Expense, Category: "Food",
		Amount: core.Money{Cents: 1234}, Currency: "PLN",
		OccurredAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandleSyncMessageExports(t *testing.T) {
	sink := memory.New()
	fs := &fakeSyncStore{byID: map[string]core.Transaction{"t1": sampleTx("t1")}}
	w := NewSyncWorker(fs, sink, &fakeAlerts{}, 10)

	if err := w.HandleSyncMessage(context.Background(), &amqp.TransactionSyncMessage{ID: "t1"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if items := sink.Items(); len(items) != 1 || items[0].ID != "t1" {
		t.Fatalf("expected exported transaction, got %v", items)
	}
	if len(fs.synced) != 1 || fs.synced[0] != "t1" {
		t.Fatalf("expected t1 marked synced, got %v", fs.synced)
	}
}

func TestHandleSyncMessageDropsDeleted(t *testing.T) {
	w := NewSyncWorker(&fakeSyncStore{byID: map[string]core.Transaction{}}, memory.New(), &fakeAlerts{}, 10)

	// Deleted before delivery: drop, do not requeue.
	if err := w.HandleSyncMessage(context.Background(), &amqp.TransactionSyncMessage{ID: "gone"}); err != nil {
		t.Fatalf("expected nil for missing transaction, got %v", err)
	}
}

func TestHandleSyncMessageMarksError(t *testing.T) {
	fs := &fakeSyncStore{byID: map[string]core.Transaction{"t1": sampleTx("t1")}}
	w := NewSyncWorker(fs, failingAppender{}, &fakeAlerts{}, 10)

	if err := w.HandleSyncMessage(context.Background(), &amqp.TransactionSyncMessage{ID: "t1"}); err == nil {
		t.Fatalf("expected append failure to propagate")
	}
	if len(fs.errored) != 1 || fs.errored[0] != "t1" {
		t.Fatalf("expected t1 marked errored, got %v", fs.errored)
	}
}

func TestHandleAlertMessageRecords(t *testing.T) {
	alerts := &fakeAlerts{}
	w := NewSyncWorker(&fakeSyncStore{}, memory.New(), alerts, 10)

	msg := amqp.NewBudgetAlertMessage("u1", "Food", core.TierCritical, 95)
	if err := w.HandleAlertMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle alert: %v", err)
	}
	if len(alerts.recorded) != 1 {
		t.Fatalf("expected 1 recorded alert, got %d", len(alerts.recorded))
	}
	got := alerts.recorded[0]
	if got.OwnerID != "u1" || got.Tier != core.TierCritical || got.Percentage != 95 {
		t.Fatalf("unexpected alert: %+v", got)
	}
}

func TestProcessPendingRespectsBatchSize(t *testing.T) {
	sink := memory.New()
	fs := &fakeSyncStore{
		byID:    map[string]core.Transaction{},
		pending: []core.Transaction{sampleTx("a"), sampleTx("b"), sampleTx("c")},
	}
	w := NewSyncWorker(fs, sink, &fakeAlerts{}, 2)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if items := sink.Items(); len(items) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(items))
	}
}

func TestStartupSyncCheckContinuesPastFailures(t *testing.T) {
	fs := &fakeSyncStore{
		byID:    map[string]core.Transaction{},
		pending: []core.Transaction{sampleTx("a"), sampleTx("b")},
	}
	w := NewSyncWorker(fs, failingAppender{}, &fakeAlerts{}, 10)

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("startup check should not fail on export errors: %v", err)
	}
	if len(fs.errored) != 2 {
		t.Fatalf("expected both transactions marked errored, got %v", fs.errored)
	}
}
