package services

import (
	"context"
	"fmt"
	"time"

	"portfel/internal/category"
	"portfel/internal/core"
	"portfel/internal/currency"
	"portfel/internal/store"
)

// BudgetWithUsage pairs a budget with its derived consumption state for
// rendering budget cards.
type BudgetWithUsage struct {
	Budget core.Budget
	Usage  core.BudgetUsage
}

// BudgetService owns budget CRUD and usage evaluation.
type BudgetService struct {
	budgets      store.BudgetStore
	transactions store.TransactionStore
	registry     *category.Registry

	defaultCurrency string
	periodFilter    bool
}

func NewBudgetService(
	budgets store.BudgetStore,
	transactions store.TransactionStore,
	registry *category.Registry,
	defaultCurrency string,
	periodFilter bool,
) *BudgetService {
	return &BudgetService{
		budgets:         budgets,
		transactions:    transactions,
		registry:        registry,
		defaultCurrency: defaultCurrency,
		periodFilter:    periodFilter,
	}
}

func (s *BudgetService) normalize(b *core.Budget) error {
	if b.Currency == "" {
		b.Currency = s.defaultCurrency
	}
	b.Currency = currency.Normalize(b.Currency)
	if !currency.Valid(b.Currency) {
		return fmt.Errorf("unsupported currency %q", b.Currency)
	}
	if b.Period == "" {
		b.Period = core.Monthly
	}
	// Budgets constrain spending, so the category must be a valid expense
	// category.
	if err := s.registry.Validate(core.Expense, b.Category); err != nil {
		return err
	}
	return b.Validate()
}

func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := s.normalize(&b); err != nil {
		return core.Budget{}, err
	}
	return s.budgets.Create(ctx, b)
}

func (s *BudgetService) Update(ctx context.Context, b core.Budget) error {
	if err := s.normalize(&b); err != nil {
		return err
	}
	return s.budgets.Update(ctx, b)
}

func (s *BudgetService) Delete(ctx context.Context, ownerID, id string) error {
	return s.budgets.Delete(ctx, ownerID, id)
}

// ListWithUsage returns the owner's budgets, each evaluated against the
// owner's expense snapshot.
func (s *BudgetService) ListWithUsage(ctx context.Context, ownerID string) ([]BudgetWithUsage, error) {
	budgets, err := s.budgets.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	if len(budgets) == 0 {
		return nil, nil
	}

	// One snapshot for all budgets keeps the cards mutually consistent.
	snapshot, err := s.transactions.ListByOwner(ctx, ownerID, store.TransactionFilter{Kind: core.Expense})
	if err != nil {
		return nil, fmt.Errorf("fetch expense snapshot: %w", err)
	}

	opts := core.EvaluateOptions{FilterByPeriod: s.periodFilter, Now: time.Now().UTC()}
	result := make([]BudgetWithUsage, 0, len(budgets))
	for _, b := range budgets {
		result = append(result, BudgetWithUsage{
			Budget: b,
			Usage:  core.EvaluateWithOptions(b, snapshot, opts),
		})
	}
	return result, nil
}
