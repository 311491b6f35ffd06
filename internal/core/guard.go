package core

const (
	Proceed             GuardAction = "proceed"
	RequireConfirmation GuardAction = "require_confirmation"
)

// GuardAction is the outcome of a pre-commit budget check.
type GuardAction string

// OverBudgetDetail explains a RequireConfirmation decision so the caller
// can render a human-readable warning.
type OverBudgetDetail struct {
	Category            string
	BudgetAmount        Money
	CurrentSpent        Money
	ProjectedSpent      Money
	ProjectedPercentage float64
}

// GuardDecision is the result of CheckBeforeCommit. Detail is set only when
// confirmation is required.
type GuardDecision struct {
	Action GuardAction
	Detail *OverBudgetDetail
}

// RequiresConfirmation reports whether the candidate must be explicitly
// confirmed by the user before it is persisted.
func (d GuardDecision) RequiresConfirmation() bool {
	return d.Action == RequireConfirmation
}

// CheckBeforeCommit decides whether persisting the candidate expense would
// push its category over budget. It is pure and idempotent; decisions
// computed against a stale snapshot are not binding, so callers must
// re-invoke it with the latest snapshot immediately before the write.
//
// Income transactions and categories without a budget always proceed.
func CheckBeforeCommit(candidate Transaction, existing []Transaction, budgets []Budget) GuardDecision {
	return CheckBeforeCommitWithOptions(candidate, existing, budgets, EvaluateOptions{})
}

// CheckBeforeCommitWithOptions is CheckBeforeCommit with explicit evaluate
// options. Callers that evaluate budget usage with period filtering must
// pass the same options here, so the guard and the displayed usage agree
// on what counts as spent.
func CheckBeforeCommitWithOptions(candidate Transaction, existing []Transaction, budgets []Budget, opts EvaluateOptions) GuardDecision {
	if candidate.Kind != Expense {
		return GuardDecision{Action: Proceed}
	}

	var budget *Budget
	for i := range budgets {
		if budgets[i].OwnerID == candidate.OwnerID && budgets[i].Category == candidate.Category {
			budget = &budgets[i]
			break
		}
	}
	if budget == nil {
		return GuardDecision{Action: Proceed}
	}

	current := EvaluateWithOptions(*budget, existing, opts)
	projected := current.Spent.Add(candidate.Amount)

	var projectedPct float64
	if budget.Amount.Cents <= 0 {
		if projected.Cents > 0 {
			projectedPct = PercentageCap
		}
	} else {
		projectedPct = float64(projected.Cents) / float64(budget.Amount.Cents) * 100
	}

	if projectedPct > ExceededThreshold {
		return GuardDecision{
			Action: RequireConfirmation,
			Detail: &OverBudgetDetail{
				Category:            candidate.Category,
				BudgetAmount:        budget.Amount,
				CurrentSpent:        current.Spent,
				ProjectedSpent:      projected,
				ProjectedPercentage: projectedPct,
			},
		}
	}
	return GuardDecision{Action: Proceed}
}
