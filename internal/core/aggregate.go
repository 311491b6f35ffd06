package core

import (
	"sort"
	"time"
)

// Summary holds the overall totals for a transaction snapshot.
type Summary struct {
	IncomeTotal  Money
	ExpenseTotal Money
	Balance      Money
	Count        int
}

// Advisory flags a record that was excluded from sums because its amount
// was not a positive value. Aggregation continues over the valid records;
// the caller decides how to surface the warning.
type Advisory struct {
	TransactionID string
	Reason        string
}

// CategoryTotal is one entry of a per-category breakdown.
type CategoryTotal struct {
	Category string
	Total    Money
}

// MonthlyAggregate holds income and expense totals for one calendar month.
type MonthlyAggregate struct {
	Year         int
	Month        int // 1-12
	IncomeTotal  Money
	ExpenseTotal Money
}

// Summarize reduces a single-owner snapshot to overall totals. Empty input
// yields an all-zero summary. Count covers every record passed in, valid or
// not; records with non-positive amounts are excluded from the sums and
// reported as advisories.
func Summarize(txs []Transaction) (Summary, []Advisory) {
	s := Summary{Count: len(txs)}
	var advisories []Advisory
	for _, t := range txs {
		if t.Amount.Cents <= 0 {
			advisories = append(advisories, Advisory{
				TransactionID: t.ID,
				Reason:        "non-positive amount excluded from totals",
			})
			continue
		}
		switch t.Kind {
		case Income:
			s.IncomeTotal = s.IncomeTotal.Add(t.Amount)
		case Expense:
			s.ExpenseTotal = s.ExpenseTotal.Add(t.Amount)
		}
	}
	s.Balance = s.IncomeTotal.Sub(s.ExpenseTotal)
	return s, advisories
}

// ByCategory groups transactions of the given kind by category and returns
// the full breakdown sorted by total descending. Ties keep the order in
// which the categories were first encountered. Categories absent from the
// input do not appear; truncating to a top-K cut is the caller's concern.
func ByCategory(txs []Transaction, kind Kind) []CategoryTotal {
	totals := make(map[string]int64)
	var order []string
	for _, t := range txs {
		if t.Kind != kind || t.Amount.Cents <= 0 {
			continue
		}
		if _, seen := totals[t.Category]; !seen {
			order = append(order, t.Category)
		}
		totals[t.Category] += t.Amount.Cents
	}

	result := make([]CategoryTotal, 0, len(order))
	for _, c := range order {
		result = append(result, CategoryTotal{Category: c, Total: Money{Cents: totals[c]}})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Total.Cents > result[j].Total.Cents
	})
	return result
}

// MonthlyBuckets builds windowMonths consecutive calendar-month buckets
// ending at anchor's month inclusive, oldest first. A transaction falls
// into the bucket matching its OccurredAt year and month; records outside
// the window contribute to nothing. A non-positive window yields an empty
// sequence.
func MonthlyBuckets(txs []Transaction, windowMonths int, anchor time.Time) []MonthlyAggregate {
	if windowMonths <= 0 {
		return nil
	}

	buckets := make([]MonthlyAggregate, windowMonths)
	index := make(map[int]int, windowMonths)
	for i := 0; i < windowMonths; i++ {
		m := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
		m = m.AddDate(0, i-windowMonths+1, 0)
		buckets[i] = MonthlyAggregate{Year: m.Year(), Month: int(m.Month())}
		index[m.Year()*12+int(m.Month())] = i
	}

	for _, t := range txs {
		if t.Amount.Cents <= 0 {
			continue
		}
		i, ok := index[t.OccurredAt.Year()*12+int(t.OccurredAt.Month())]
		if !ok {
			continue
		}
		switch t.Kind {
		case Income:
			buckets[i].IncomeTotal = buckets[i].IncomeTotal.Add(t.Amount)
		case Expense:
			buckets[i].ExpenseTotal = buckets[i].ExpenseTotal.Add(t.Amount)
		}
	}
	return buckets
}
