// Package store declares the ports the application core consumes. The
// SQLite repositories in internal/storage implement them; tests use
// in-memory fakes.
package store

import (
	"context"
	"errors"
	"time"

	"portfel/internal/core"
)

// ErrNotFound is returned when a record does not exist or belongs to a
// different owner.
var ErrNotFound = errors.New("record not found")

// TransactionFilter narrows ListByOwner results. Zero values mean "no
// constraint". Filtering happens in the store, never in the core.
type TransactionFilter struct {
	Kind     core.Kind
	Category string
	From     time.Time
	To       time.Time
}

type (
	TransactionStore interface {
		// Create persists the transaction and returns it with the
		// store-assigned ID.
		Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// Update replaces all fields except ID and OwnerID.
		Update(ctx context.Context, t core.Transaction) error
		// Delete removes the record immediately and irreversibly.
		Delete(ctx context.Context, ownerID, id string) error
		Get(ctx context.Context, ownerID, id string) (core.Transaction, error)
		// ListByOwner returns the owner's transactions, newest first.
		ListByOwner(ctx context.Context, ownerID string, f TransactionFilter) ([]core.Transaction, error)
	}

	BudgetStore interface {
		Create(ctx context.Context, b core.Budget) (core.Budget, error)
		Update(ctx context.Context, b core.Budget) error
		Delete(ctx context.Context, ownerID, id string) error
		ListByOwner(ctx context.Context, ownerID string) ([]core.Budget, error)
		// GetByCategory returns the owner's budget for the category, or
		// ErrNotFound when no constraint exists.
		GetByCategory(ctx context.Context, ownerID, category string) (core.Budget, error)
	}
)

// Alert is a recorded budget-tier notification.
type Alert struct {
	ID         string
	OwnerID    string
	Category   string
	Tier       core.Tier
	Percentage float64
	CreatedAt  time.Time
}

// AlertStore records and lists budget alerts raised after commits.
type AlertStore interface {
	Record(ctx context.Context, a Alert) error
	ListByOwner(ctx context.Context, ownerID string) ([]Alert, error)
}
