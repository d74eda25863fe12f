package sheets

import (
	"context"

	"checkbook/internal/core"
)

// Ports for outbound adapters.
type (
	// EntryAppender mirrors a ledger entry to an external sheet and
	// returns a reference to the written row.
	EntryAppender interface {
		Append(ctx context.Context, e core.LedgerEntry) (rowRef string, err error)
	}
)
