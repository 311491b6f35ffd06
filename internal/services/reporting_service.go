package services

import (
	"context"
	"fmt"
	"time"

	"portfel/internal/core"
	"portfel/internal/store"
)

// ReportingService produces the dashboard aggregates. All computation is
// delegated to the core; this layer only fetches single-owner snapshots.
type ReportingService struct {
	transactions store.TransactionStore
	windowMonths int
}

func NewReportingService(transactions store.TransactionStore, windowMonths int) *ReportingService {
	return &ReportingService{transactions: transactions, windowMonths: windowMonths}
}

// Summary returns overall totals plus data-integrity advisories for the
// owner.
func (s *ReportingService) Summary(ctx context.Context, ownerID string) (core.Summary, []core.Advisory, error) {
	snapshot, err := s.transactions.ListByOwner(ctx, ownerID, store.TransactionFilter{})
	if err != nil {
		return core.Summary{}, nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	summary, advisories := core.Summarize(snapshot)
	return summary, advisories, nil
}

// Monthly returns the trailing income/expense buckets anchored at now.
// The anchor is normalized to UTC: occurrence timestamps are stored in UTC,
// so a local-time anchor near a month boundary would key the window one
// month off.
func (s *ReportingService) Monthly(ctx context.Context, ownerID string, now time.Time) ([]core.MonthlyAggregate, error) {
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1-s.windowMonths, 0)
	snapshot, err := s.transactions.ListByOwner(ctx, ownerID, store.TransactionFilter{From: from})
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	return core.MonthlyBuckets(snapshot, s.windowMonths, now), nil
}

// Categories returns the full category breakdown for the kind, sorted
// descending. Callers truncate for display.
func (s *ReportingService) Categories(ctx context.Context, ownerID string, kind core.Kind) ([]core.CategoryTotal, error) {
	snapshot, err := s.transactions.ListByOwner(ctx, ownerID, store.TransactionFilter{Kind: kind})
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	return core.ByCategory(snapshot, kind), nil
}
