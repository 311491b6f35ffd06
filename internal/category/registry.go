// Package category holds the closed set of transaction categories. Invalid
// categories are rejected here, at the boundary, so the core never has to
// group records under an unknown key.
package category

import (
	"fmt"

	"portfel/internal/core"
)

// Registry validates category names per transaction kind.
type Registry struct {
	byKind map[core.Kind][]string
	lookup map[core.Kind]map[string]struct{}
}

// Default categories shipped with the application.
var (
	incomeCategories = []string{
		"Salary",
		"Bonus",
		"Investments",
		"Bank interest",
		"Tax refund",
		"Gift",
		"Sale",
		"Other income",
	}

	expenseCategories = []string{
		"Housing",
		"Utilities",
		"Food",
		"Transport",
		"Car",
		"Entertainment",
		"Restaurants",
		"Clothing",
		"Health",
		"Personal care",
		"Education",
		"Gifts & donations",
		"Subscriptions",
		"Electronics",
		"Hobbies & sport",
		"Travel",
		"Taxes & fees",
		"Loan payments",
		"Other expenses",
	}
)

// NewDefault returns a registry with the application's standard categories.
func NewDefault() *Registry {
	return New(map[core.Kind][]string{
		core.Income:  incomeCategories,
		core.Expense: expenseCategories,
	})
}

// New builds a registry from explicit per-kind category lists.
func New(byKind map[core.Kind][]string) *Registry {
	r := &Registry{
		byKind: make(map[core.Kind][]string, len(byKind)),
		lookup: make(map[core.Kind]map[string]struct{}, len(byKind)),
	}
	for kind, names := range byKind {
		r.byKind[kind] = append([]string(nil), names...)
		set := make(map[string]struct{}, len(names))
		for _, n := range names {
			set[n] = struct{}{}
		}
		r.lookup[kind] = set
	}
	return r
}

// Validate checks that the category belongs to the set valid for the kind.
func (r *Registry) Validate(kind core.Kind, category string) error {
	set, ok := r.lookup[kind]
	if !ok {
		return fmt.Errorf("unknown kind %q", kind)
	}
	if _, ok := set[category]; !ok {
		return fmt.Errorf("category %q is not valid for kind %q", category, kind)
	}
	return nil
}

// List returns the categories valid for the given kind, in display order.
func (r *Registry) List(kind core.Kind) []string {
	return append([]string(nil), r.byKind[kind]...)
}
