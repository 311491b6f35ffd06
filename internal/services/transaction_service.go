// Package services orchestrates the stores, the core computations and the
// async messaging. Handlers talk to these services, never to the core or
// the database directly.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"portfel/internal/amqp"
	"portfel/internal/category"
	"portfel/internal/core"
	"portfel/internal/currency"
	"portfel/internal/store"
)

// EventPublisher is the slice of the AMQP client the services need. A nil
// publisher disables messaging without failing requests.
type EventPublisher interface {
	PublishTransactionSync(ctx context.Context, id string) error
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// ConfirmationRequiredError is returned when the guard blocks an
// over-budget expense that the user has not confirmed yet.
type ConfirmationRequiredError struct {
	Detail core.OverBudgetDetail
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf(
		"committing would exceed the %q budget: budget %s, current spend %s, projected %s",
		e.Detail.Category,
		currency.Format(e.Detail.BudgetAmount.Cents, ""),
		currency.Format(e.Detail.CurrentSpent.Cents, ""),
		currency.Format(e.Detail.ProjectedSpent.Cents, ""))
}

// TransactionService owns the submission flow: validate, guard against the
// latest snapshot, persist, then publish sync and alert messages.
type TransactionService struct {
	transactions store.TransactionStore
	budgets      store.BudgetStore
	publisher    EventPublisher
	registry     *category.Registry

	defaultCurrency string
	periodFilter    bool
}

func NewTransactionService(
	transactions store.TransactionStore,
	budgets store.BudgetStore,
	publisher EventPublisher,
	registry *category.Registry,
	defaultCurrency string,
	periodFilter bool,
) *TransactionService {
	return &TransactionService{
		transactions:    transactions,
		budgets:         budgets,
		publisher:       publisher,
		registry:        registry,
		defaultCurrency: defaultCurrency,
		periodFilter:    periodFilter,
	}
}

func (s *TransactionService) normalize(t *core.Transaction) error {
	if t.Currency == "" {
		t.Currency = s.defaultCurrency
	}
	t.Currency = currency.Normalize(t.Currency)
	if !currency.Valid(t.Currency) {
		return fmt.Errorf("unsupported currency %q", t.Currency)
	}
	if err := s.registry.Validate(t.Kind, t.Category); err != nil {
		return err
	}
	return t.Validate()
}

// Create runs the full Draft -> guard -> Committing flow. A guard decision
// computed earlier (for form previews) is not binding: the check always
// reruns here against a snapshot fetched immediately before the write, so
// a stale preview can neither block nor let an over-budget commit slip
// through. confirmed carries the user's explicit consent past the guard.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction, confirmed bool) (core.Transaction, error) {
	if err := s.normalize(&t); err != nil {
		return core.Transaction{}, err
	}

	if t.Kind == core.Expense && !confirmed {
		snapshot, err := s.transactions.ListByOwner(ctx, t.OwnerID, store.TransactionFilter{})
		if err != nil {
			return core.Transaction{}, fmt.Errorf("fetch transaction snapshot: %w", err)
		}
		budgets, err := s.budgets.ListByOwner(ctx, t.OwnerID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("fetch budget snapshot: %w", err)
		}

		// Same options as ListWithUsage, so the guard can never contradict
		// the usage shown on the budget cards.
		decision := core.CheckBeforeCommitWithOptions(t, snapshot, budgets, core.EvaluateOptions{
			FilterByPeriod: s.periodFilter,
			Now:            time.Now().UTC(),
		})
		if decision.RequiresConfirmation() {
			slog.InfoContext(ctx, "Guard blocked over-budget expense",
				"owner_id", t.OwnerID,
				"category", t.Category,
				"amount_cents", t.Amount.Cents,
				"projected_percentage", decision.Detail.ProjectedPercentage)
			return core.Transaction{}, &ConfirmationRequiredError{Detail: *decision.Detail}
		}
	}

	created, err := s.transactions.Create(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishSync(ctx, created.ID)
	s.maybeAlert(ctx, created)
	return created, nil
}

// Update replaces all fields except ID and OwnerID and returns the record
// as persisted, normalization included.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := s.normalize(&t); err != nil {
		return core.Transaction{}, err
	}
	if err := s.transactions.Update(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	s.publishSync(ctx, t.ID)
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	return s.transactions.Delete(ctx, ownerID, id)
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return s.transactions.Get(ctx, ownerID, id)
}

func (s *TransactionService) List(ctx context.Context, ownerID string, f store.TransactionFilter) ([]core.Transaction, error) {
	return s.transactions.ListByOwner(ctx, ownerID, f)
}

func (s *TransactionService) publishSync(ctx context.Context, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, id); err != nil {
		// The record is saved; export will be retried by the worker sweep.
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"transaction_id", id, "error", err)
	}
}

// maybeAlert re-evaluates the affected budget after a committed expense and
// raises an alert when the category sits at Warning or above.
func (s *TransactionService) maybeAlert(ctx context.Context, t core.Transaction) {
	if s.publisher == nil || t.Kind != core.Expense {
		return
	}

	budget, err := s.budgets.GetByCategory(ctx, t.OwnerID, t.Category)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load budget for alert",
			"owner_id", t.OwnerID, "category", t.Category, "error", err)
		return
	}

	snapshot, err := s.transactions.ListByOwner(ctx, t.OwnerID, store.TransactionFilter{
		Kind:     core.Expense,
		Category: t.Category,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load snapshot for alert",
			"owner_id", t.OwnerID, "category", t.Category, "error", err)
		return
	}

	usage := core.EvaluateWithOptions(budget, snapshot, core.EvaluateOptions{
		FilterByPeriod: s.periodFilter,
		Now:            time.Now().UTC(),
	})
	if usage.Tier == core.TierNormal {
		return
	}

	msg := amqp.NewBudgetAlertMessage(t.OwnerID, t.Category, usage.Tier, usage.Percentage)
	if err := s.publisher.PublishBudgetAlert(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget alert",
			"owner_id", t.OwnerID, "category", t.Category, "error", err)
	}
}
