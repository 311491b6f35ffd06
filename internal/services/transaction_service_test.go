package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"portfel/internal/amqp"
	"portfel/internal/category"
	"portfel/internal/core"
	"portfel/internal/store"
)

// fakeTransactionStore keeps records in memory and enforces the owner
// boundary the way the SQLite store does: the core only ever sees
// single-owner snapshots.
type fakeTransactionStore struct {
	items  []core.Transaction
	nextID int
}

func (f *fakeTransactionStore) Create(_ context.Context, t core.Transaction) (core.Transaction, error) {
	f.nextID++
	t.ID = fmt.Sprintf("tx-%d", f.nextID)
	f.items = append(f.items, t)
	return t, nil
}

func (f *fakeTransactionStore) Update(_ context.Context, t core.Transaction) error {
	for i := range f.items {
		if f.items[i].ID == t.ID && f.items[i].OwnerID == t.OwnerID {
			f.items[i] = t
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeTransactionStore) Delete(_ context.Context, ownerID, id string) error {
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].OwnerID == ownerID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeTransactionStore) Get(_ context.Context, ownerID, id string) (core.Transaction, error) {
	for _, t := range f.items {
		if t.ID == id && t.OwnerID == ownerID {
			return t, nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

func (f *fakeTransactionStore) ListByOwner(_ context.Context, ownerID string, filter store.TransactionFilter) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.items {
		if t.OwnerID != ownerID {
			continue
		}
		if filter.Kind != "" && t.Kind != filter.Kind {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type fakeBudgetStore struct {
	items []core.Budget
}

func (f *fakeBudgetStore) Create(_ context.Context, b core.Budget) (core.Budget, error) {
	b.ID = fmt.Sprintf("b-%d", len(f.items)+1)
	f.items = append(f.items, b)
	return b, nil
}

func (f *fakeBudgetStore) Update(_ context.Context, b core.Budget) error {
	for i := range f.items {
		if f.items[i].ID == b.ID && f.items[i].OwnerID == b.OwnerID {
			f.items[i] = b
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeBudgetStore) Delete(_ context.Context, ownerID, id string) error {
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].OwnerID == ownerID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeBudgetStore) ListByOwner(_ context.Context, ownerID string) ([]core.Budget, error) {
	var out []core.Budget
	for _, b := range f.items {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBudgetStore) GetByCategory(_ context.Context, ownerID, cat string) (core.Budget, error) {
	for _, b := range f.items {
		if b.OwnerID == ownerID && b.Category == cat {
			return b, nil
		}
	}
	return core.Budget{}, store.ErrNotFound
}

type fakePublisher struct {
	syncs  []string
	alerts []*amqp.BudgetAlertMessage
}

func (f *fakePublisher) PublishTransactionSync(_ context.Context, id string) error {
	f.syncs = append(f.syncs, id)
	return nil
}

func (f *fakePublisher) PublishBudgetAlert(_ context.Context, msg *amqp.BudgetAlertMessage) error {
	f.alerts = append(f.alerts, msg)
	return nil
}

func newFixture() (*TransactionService, *fakeTransactionStore, *fakeBudgetStore, *fakePublisher) {
	txs := &fakeTransactionStore{}
	budgets := &fakeBudgetStore{}
	pub := &fakePublisher{}
	svc := NewTransactionService(txs, budgets, pub, category.NewDefault(), "PLN", false)
	return svc, txs, budgets, pub
}

func expense(owner, cat string, cents int64) core.Transaction {
	return core.Transaction{
		OwnerID:    owner,
		Kind:       core.Expense,
		Category:   cat,
		Amount:     core.Money{Cents: cents},
		Currency:   "PLN",
		OccurredAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateWithinBudgetProceeds(t *testing.T) {
	svc, _, budgets, pub := newFixture()
	ctx := context.Background()
	budgets.items = []core.Budget{{
		ID: "b1", OwnerID: "u1", Category: "Food",
		Amount: core.Money{Cents: 10000}, Currency: "PLN", Period: core.Monthly,
	}}

	created, err := svc.Create(ctx, expense("u1", "Food", 5000), false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if len(pub.syncs) != 1 || pub.syncs[0] != created.ID {
		t.Fatalf("expected sync message for %s, got %v", created.ID, pub.syncs)
	}
	// 50% usage is Normal, no alert.
	if len(pub.alerts) != 0 {
		t.Fatalf("expected no alert, got %v", pub.alerts)
	}
}

func TestCreateOverBudgetRequiresConfirmation(t *testing.T) {
	svc, txs, budgets, pub := newFixture()
	ctx := context.Background()
	budgets.items = []core.Budget{{
		ID: "b1", OwnerID: "u1", Category: "Food",
		Amount: core.Money{Cents: 10000}, Currency: "PLN", Period: core.Monthly,
	}}
	if _, err := txs.Create(ctx, expense("u1", "Food", 8000)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Projected 105% of budget: blocked until the user confirms.
	_, err := svc.Create(ctx, expense("u1", "Food", 2500), false)
	var confirmErr *ConfirmationRequiredError
	if !errors.As(err, &confirmErr) {
		t.Fatalf("expected ConfirmationRequiredError, got %v", err)
	}
	d := confirmErr.Detail
	if d.BudgetAmount.Cents != 10000 || d.CurrentSpent.Cents != 8000 || d.ProjectedSpent.Cents != 10500 {
		t.Fatalf("unexpected guard payload: %+v", d)
	}
	if len(pub.syncs) != 0 {
		t.Fatalf("nothing should be persisted or published, got %v", pub.syncs)
	}

	// Explicit confirmation commits and raises an exceeded alert.
	created, err := svc.Create(ctx, expense("u1", "Food", 2500), true)
	if err != nil {
		t.Fatalf("confirmed create: %v", err)
	}
	if len(pub.syncs) != 1 || pub.syncs[0] != created.ID {
		t.Fatalf("expected sync for confirmed commit, got %v", pub.syncs)
	}
	if len(pub.alerts) != 1 || pub.alerts[0].Tier != core.TierExceeded {
		t.Fatalf("expected exceeded alert, got %+v", pub.alerts)
	}
}

func TestCreateGuardUsesLatestSnapshot(t *testing.T) {
	svc, txs, budgets, _ := newFixture()
	ctx := context.Background()
	budgets.items = []core.Budget{{
		ID: "b1", OwnerID: "u1", Category: "Food",
		Amount: core.Money{Cents: 10000}, Currency: "PLN", Period: core.Monthly,
	}}

	// First commit fits; a concurrent writer then consumes most of the
	// budget behind our back.
	if _, err := svc.Create(ctx, expense("u1", "Food", 3000), false); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := txs.Create(ctx, expense("u1", "Food", 6500)); err != nil {
		t.Fatalf("concurrent write: %v", err)
	}

	// The same request that was fine a moment ago must now be re-checked
	// against the fresh snapshot and blocked.
	_, err := svc.Create(ctx, expense("u1", "Food", 3000), false)
	var confirmErr *ConfirmationRequiredError
	if !errors.As(err, &confirmErr) {
		t.Fatalf("expected guard to use latest snapshot, got %v", err)
	}
}

func TestCreateGuardHonorsPeriodFilter(t *testing.T) {
	txs := &fakeTransactionStore{}
	budgets := &fakeBudgetStore{}
	registry := category.NewDefault()
	ctx := context.Background()

	budgets.items = []core.Budget{{
		ID: "b1", OwnerID: "u1", Category: "Food",
		Amount: core.Money{Cents: 10000}, Currency: "PLN", Period: core.Monthly,
	}}

	// 90% of the budget spent, but a year ago: outside the current period.
	old := expense("u1", "Food", 9000)
	old.OccurredAt = time.Now().UTC().AddDate(-1, 0, 0)
	if _, err := txs.Create(ctx, old); err != nil {
		t.Fatalf("seed: %v", err)
	}

	candidate := expense("u1", "Food", 2000)
	candidate.OccurredAt = time.Now().UTC()

	// Legacy all-history evaluation projects 110% and blocks.
	legacy := NewTransactionService(txs, budgets, nil, registry, "PLN", false)
	var confirmErr *ConfirmationRequiredError
	if _, err := legacy.Create(ctx, candidate, false); !errors.As(err, &confirmErr) {
		t.Fatalf("all-history guard should block, got %v", err)
	}

	// With period filtering on, the budget card reads 0%/normal and the
	// guard must agree: the same expense commits without a prompt.
	filtered := NewTransactionService(txs, budgets, nil, registry, "PLN", true)
	cards := NewBudgetService(budgets, txs, registry, "PLN", true)

	usage, err := cards.ListWithUsage(ctx, "u1")
	if err != nil {
		t.Fatalf("list usage: %v", err)
	}
	if len(usage) != 1 || usage[0].Usage.Tier != core.TierNormal || usage[0].Usage.Spent.Cents != 0 {
		t.Fatalf("expected 0%%/normal card, got %+v", usage[0].Usage)
	}
	if _, err := filtered.Create(ctx, candidate, false); err != nil {
		t.Fatalf("guard contradicts the budget card: %v", err)
	}
}

func TestCreateIncomeBypassesGuard(t *testing.T) {
	svc, _, budgets, pub := newFixture()
	ctx := context.Background()
	// Even an absurd budget on an income category never blocks income.
	budgets.items = []core.Budget{{
		ID: "b1", OwnerID: "u1", Category: "Salary",
		Amount: core.Money{Cents: 1}, Currency: "PLN", Period: core.Monthly,
	}}

	income := core.Transaction{
		OwnerID: "u1", Kind: core.Income, Category: "Salary",
		Amount: core.Money{Cents: 100000}, Currency: "PLN",
		OccurredAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	if _, err := svc.Create(ctx, income, false); err != nil {
		t.Fatalf("income create: %v", err)
	}
	if len(pub.alerts) != 0 {
		t.Fatalf("income must not raise alerts, got %v", pub.alerts)
	}
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	svc, _, _, _ := newFixture()
	if _, err := svc.Create(context.Background(), expense("u1", "Nonsense", 100), false); err == nil {
		t.Fatalf("expected category validation error")
	}
}

func TestCreateDefaultsCurrency(t *testing.T) {
	svc, _, _, _ := newFixture()
	tx := expense("u1", "Food", 100)
	tx.Currency = ""
	created, err := svc.Create(context.Background(), tx, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Currency != "PLN" {
		t.Fatalf("expected default currency, got %s", created.Currency)
	}
}

func TestOwnerBoundaryBeforeCore(t *testing.T) {
	svc, txs, budgets, _ := newFixture()
	ctx := context.Background()
	budgets.items = []core.Budget{{
		ID: "b1", OwnerID: "u1", Category: "Food",
		Amount: core.Money{Cents: 10000}, Currency: "PLN", Period: core.Monthly,
	}}

	// Another owner has already burned through an identical category. If
	// the boundary failed to filter by owner, this spend would trip u1's
	// guard.
	if _, err := txs.Create(ctx, expense("u2", "Food", 999999)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Create(ctx, expense("u1", "Food", 5000), false); err != nil {
		t.Fatalf("foreign spend leaked into the guard: %v", err)
	}
}

func TestAlertTiers(t *testing.T) {
	svc, _, budgets, pub := newFixture()
	ctx := context.Background()
	budgets.items = []core.Budget{{
		ID: "b1", OwnerID: "u1", Category: "Food",
		Amount: core.Money{Cents: 10000}, Currency: "PLN", Period: core.Monthly,
	}}

	// 80% -> warning alert.
	if _, err := svc.Create(ctx, expense("u1", "Food", 8000), false); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(pub.alerts) != 1 || pub.alerts[0].Tier != core.TierWarning {
		t.Fatalf("expected warning alert, got %+v", pub.alerts)
	}
	if pub.alerts[0].Percentage != 80 {
		t.Fatalf("expected 80%%, got %v", pub.alerts[0].Percentage)
	}

	// 95% -> critical alert.
	if _, err := svc.Create(ctx, expense("u1", "Food", 1500), false); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(pub.alerts) != 2 || pub.alerts[1].Tier != core.TierCritical {
		t.Fatalf("expected critical alert, got %+v", pub.alerts)
	}
}

func TestDeleteAndUpdate(t *testing.T) {
	svc, _, _, pub := newFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, expense("u1", "Food", 1000), false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Amount = core.Money{Cents: 2000}
	created.Category = "Restaurants"
	if _, err := svc.Update(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := svc.Get(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount.Cents != 2000 {
		t.Fatalf("update not applied: %+v", got)
	}
	// Create + update both queue exports.
	if len(pub.syncs) != 2 {
		t.Fatalf("expected 2 sync messages, got %v", pub.syncs)
	}

	if err := svc.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, "u1", created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
