package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

type (
	// Kind partitions transactions into income and expense.
	Kind string

	// Period is the declared window of a budget. It is informational for
	// usage evaluation unless period filtering is explicitly enabled.
	Period string

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense record. ID and OwnerID are
	// assigned at creation and never change; edits replace all other fields.
	Transaction struct {
		ID         string
		OwnerID    string
		Kind       Kind
		Category   string
		Amount     Money
		Currency   string
		OccurredAt time.Time
		Note       string
	}

	// Budget is a per-category spending ceiling for one owner.
	Budget struct {
		ID       string
		OwnerID  string
		Category string
		Amount   Money
		Currency string
		Period   Period
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyOwner     = errors.New("empty owner id")
	ErrEmptyCategory  = errors.New("empty category")
	ErrInvalidKind    = errors.New("invalid kind")
	ErrInvalidPeriod  = errors.New("invalid period")
	ErrZeroOccurrence = errors.New("occurred-at date cannot be zero")
	ErrEmptyCurrency  = errors.New("empty currency code")
)

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (p Period) Valid() bool {
	return p == Monthly || p == Yearly
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.OccurredAt.IsZero() {
		return ErrZeroOccurrence
	}
	if strings.TrimSpace(t.Currency) == "" {
		return ErrEmptyCurrency
	}
	if len(t.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(b.Currency) == "" {
		return ErrEmptyCurrency
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}
