// Package export declares the outbound port for spreadsheet export. The
// worker drives it; internal/export/google and internal/export/memory
// implement it.
package export

import (
	"context"

	"portfel/internal/core"
)

// TransactionAppender appends one transaction to the export target and
// returns an opaque reference to the written row.
type TransactionAppender interface {
	Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
