package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"portfel/internal/core"
	"portfel/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "portfel.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testTx(owner, category string, kind core.Kind, cents int64, occurred time.Time) core.Transaction {
	return core.Transaction{
		OwnerID:    owner,
		Kind:       kind,
		Category:   category,
		Amount:     core.Money{Cents: cents},
		Currency:   "PLN",
		OccurredAt: occurred,
		Note:       "test",
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	day := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, testTx("u1", "Food", core.Expense, 4200, day))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected store-assigned id")
	}

	got, err := repo.Get(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount.Cents != 4200 || got.Category != "Food" || !got.OccurredAt.Equal(day) {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	// Other owners cannot see the record.
	if _, err := repo.Get(ctx, "u2", created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
}

func TestListByOwnerFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	march := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC)

	seed := []core.Transaction{
		testTx("u1", "Food", core.Expense, 1000, march),
		testTx("u1", "Transport", core.Expense, 2000, april),
		testTx("u1", "Salary", core.Income, 90000, april),
		testTx("u2", "Food", core.Expense, 5000, april),
	}
	for _, tx := range seed {
		if _, err := repo.Create(ctx, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	all, err := repo.ListByOwner(ctx, "u1", store.TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records for u1, got %d", len(all))
	}
	for _, tx := range all {
		if tx.OwnerID != "u1" {
			t.Fatalf("owner isolation broken: %+v", tx)
		}
	}

	expenses, err := repo.ListByOwner(ctx, "u1", store.TransactionFilter{Kind: core.Expense})
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(expenses))
	}

	food, err := repo.ListByOwner(ctx, "u1", store.TransactionFilter{Category: "Food"})
	if err != nil {
		t.Fatalf("list food: %v", err)
	}
	if len(food) != 1 || food[0].Category != "Food" {
		t.Fatalf("category filter broken: %+v", food)
	}

	recent, err := repo.ListByOwner(ctx, "u1", store.TransactionFilter{From: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("date filter broken, expected 2, got %d", len(recent))
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	day := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, testTx("u1", "Food", core.Expense, 1000, day))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Amount = core.Money{Cents: 2500}
	created.Category = "Restaurants"
	if err := repo.Update(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.Get(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Amount.Cents != 2500 || got.Category != "Restaurants" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := repo.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "u1", created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, "u1", created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("double delete should report ErrNotFound, got %v", err)
	}
}

func TestBudgetStoreViews(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	budgets := repo.Budgets()

	created, err := budgets.Create(ctx, core.Budget{
		OwnerID:  "u1",
		Category: "Food",
		Amount:   core.Money{Cents: 50000},
		Currency: "PLN",
		Period:   core.Monthly,
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	got, err := budgets.GetByCategory(ctx, "u1", "Food")
	if err != nil {
		t.Fatalf("get by category: %v", err)
	}
	if got.ID != created.ID || got.Amount.Cents != 50000 {
		t.Fatalf("budget mismatch: %+v", got)
	}

	if _, err := budgets.GetByCategory(ctx, "u1", "Travel"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing budget, got %v", err)
	}
	if _, err := budgets.GetByCategory(ctx, "u2", "Food"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected owner isolation on budgets, got %v", err)
	}

	created.Amount = core.Money{Cents: 60000}
	if err := budgets.Update(ctx, created); err != nil {
		t.Fatalf("update budget: %v", err)
	}
	list, err := budgets.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	if len(list) != 1 || list[0].Amount.Cents != 60000 {
		t.Fatalf("expected overwritten budget, got %+v", list)
	}

	if err := budgets.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("delete budget: %v", err)
	}
}

func TestSyncQueue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	day := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, testTx("u1", "Food", core.Expense, 1000, day))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pending, err := repo.ListPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != created.ID {
		t.Fatalf("expected new record pending, got %+v", pending)
	}

	if err := repo.MarkSynced(ctx, created.ID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	pending, err = repo.ListPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty queue after sync, got %+v", pending)
	}
}

func TestAlertStore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	alerts := repo.Alerts()

	err := alerts.Record(ctx, store.Alert{
		OwnerID:    "u1",
		Category:   "Food",
		Tier:       core.TierCritical,
		Percentage: 95,
	})
	if err != nil {
		t.Fatalf("record alert: %v", err)
	}

	got, err := alerts.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(got) != 1 || got[0].Tier != core.TierCritical || got[0].Percentage != 95 {
		t.Fatalf("alert mismatch: %+v", got)
	}
	if got[0].ID == "" || got[0].CreatedAt.IsZero() {
		t.Fatalf("expected assigned id and timestamp: %+v", got[0])
	}

	other, err := alerts.ListByOwner(ctx, "u2")
	if err != nil {
		t.Fatalf("list alerts for u2: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("owner isolation broken for alerts: %+v", other)
	}
}
