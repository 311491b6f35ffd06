package core

import "time"

// Tier classifies how much of a budget has been consumed.
type Tier string

const (
	TierNormal   Tier = "normal"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
	TierExceeded Tier = "exceeded"
)

// Percentage thresholds for tier assignment. These are the single source of
// truth for every budget bar, alert and guard decision in the application.
const (
	WarningThreshold  = 75.0
	CriticalThreshold = 90.0
	ExceededThreshold = 100.0
)

// PercentageCap is reported instead of an unbounded percentage when the
// budget amount is zero or negative. A misconfigured budget is never a
// crash condition.
const PercentageCap = 9999.0

// BudgetUsage is the derived consumption state of one budget. It is never
// persisted.
type BudgetUsage struct {
	BudgetAmount Money
	Spent        Money
	Remaining    Money
	Percentage   float64
	Tier         Tier
}

// EvaluateOptions controls optional behavior of Evaluate.
type EvaluateOptions struct {
	// FilterByPeriod restricts matching expenses to the budget's current
	// period window (the calendar month or year containing Now). Off by
	// default: historically all matching-category expenses ever recorded
	// count against the budget, regardless of its declared period.
	FilterByPeriod bool
	Now            time.Time
}

// TierFor maps a consumption percentage onto a severity tier. Boundary
// values resolve downward: exactly 90 is Critical, exactly 100 is still
// Critical, anything above 100 is Exceeded.
func TierFor(percentage float64) Tier {
	switch {
	case percentage > ExceededThreshold:
		return TierExceeded
	case percentage >= CriticalThreshold:
		return TierCritical
	case percentage >= WarningThreshold:
		return TierWarning
	default:
		return TierNormal
	}
}

// Evaluate computes how much of the budget the snapshot has consumed,
// considering every matching-category expense regardless of the budget's
// declared period.
func Evaluate(b Budget, txs []Transaction) BudgetUsage {
	return EvaluateWithOptions(b, txs, EvaluateOptions{})
}

// EvaluateWithOptions is Evaluate with explicit period filtering control.
// Only expenses sharing the budget's owner and category are counted. A
// budget whose category matches nothing yields zero spend, not an error.
func EvaluateWithOptions(b Budget, txs []Transaction, opts EvaluateOptions) BudgetUsage {
	var spent Money
	for _, t := range txs {
		if t.OwnerID != b.OwnerID || t.Kind != Expense || t.Category != b.Category {
			continue
		}
		if t.Amount.Cents <= 0 {
			continue
		}
		if opts.FilterByPeriod && !inPeriod(b.Period, t.OccurredAt, opts.Now) {
			continue
		}
		spent = spent.Add(t.Amount)
	}

	usage := BudgetUsage{
		BudgetAmount: b.Amount,
		Spent:        spent,
		Remaining:    b.Amount.Sub(spent),
	}
	if b.Amount.Cents <= 0 {
		if spent.Cents == 0 {
			usage.Percentage = 0
			usage.Tier = TierNormal
		} else {
			usage.Percentage = PercentageCap
			usage.Tier = TierExceeded
		}
		return usage
	}
	usage.Percentage = float64(spent.Cents) / float64(b.Amount.Cents) * 100
	usage.Tier = TierFor(usage.Percentage)
	return usage
}

func inPeriod(p Period, occurred, now time.Time) bool {
	if now.IsZero() {
		now = time.Now()
	}
	switch p {
	case Yearly:
		return occurred.Year() == now.Year()
	default:
		return occurred.Year() == now.Year() && occurred.Month() == now.Month()
	}
}
