// Package ledger defines the persistence ports the checkbook services
// depend on. The sqlite repository in internal/storage and the
// in-memory store in internal/ledger/memory both satisfy them.
package ledger

import (
	"context"

	"checkbook/internal/core"
)

// Ports for persistence adapters.
type (
	AccountReader interface {
		// ListAccounts returns all accounts owned by the user, ordered by id.
		ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
		GetAccount(ctx context.Context, id int64) (core.Account, error)
	}

	AccountWriter interface {
		InsertAccount(ctx context.Context, account core.Account) (id int64, err error)
	}

	EntryReader interface {
		// SumCashCents returns the signed sum of the user's pooled cash
		// entries dated on or before the given day: credits minus debits.
		SumCashCents(ctx context.Context, userID string, through core.Date) (cents int64, err error)
		// SumCheckCents returns the signed sum of one account's check
		// entries dated on or before the given day: incoming minus outgoing.
		SumCheckCents(ctx context.Context, accountID int64, through core.Date) (cents int64, err error)
		GetEntry(ctx context.Context, id int64) (core.LedgerEntry, error)
		// GetTemplateEntry finds the entry a template materialized on a
		// specific day, or core.ErrEntryNotFound.
		GetTemplateEntry(ctx context.Context, templateID int64, date core.Date) (core.LedgerEntry, error)
	}

	EntryWriter interface {
		// InsertEntry persists a new entry. Inserting a second entry for
		// the same template and date returns core.ErrDuplicateEntry.
		InsertEntry(ctx context.Context, entry core.LedgerEntry) (id int64, err error)
	}

	TemplateReader interface {
		// ListDueTemplates returns the active templates due on or before
		// asOf whose window admits the due date, ordered by next due date
		// ascending.
		ListDueTemplates(ctx context.Context, asOf core.Date) ([]core.RecurringTemplate, error)
		GetTemplate(ctx context.Context, id int64) (core.RecurringTemplate, error)
	}

	TemplateWriter interface {
		InsertTemplate(ctx context.Context, template core.RecurringTemplate) (id int64, err error)
		// UpdateTemplateSchedule advances a template's schedule position,
		// but only when its persisted next due date still equals
		// expectedNextDue. A stale expectation returns
		// core.ErrScheduleConflict and writes nothing.
		UpdateTemplateSchedule(ctx context.Context, id int64, lastCreated, nextDue, expectedNextDue core.Date) error
	}

	// MirrorStore tracks which entries still need mirroring to the
	// external sheet.
	MirrorStore interface {
		// GetPendingMirrorEntries returns up to limit entries still
		// pending, oldest first. A non-positive limit returns all.
		GetPendingMirrorEntries(ctx context.Context, limit int) ([]core.LedgerEntry, error)
		MarkMirrored(ctx context.Context, entryID int64) error
		MarkMirrorError(ctx context.Context, entryID int64) error
	}
)

// Mirror status values for LedgerEntry.MirrorStatus.
const (
	MirrorStatusPending  = "pending"
	MirrorStatusMirrored = "mirrored"
	MirrorStatusError    = "error"
)

// Store is the full persistence surface a backend must provide.
type Store interface {
	AccountReader
	AccountWriter
	EntryReader
	EntryWriter
	TemplateReader
	TemplateWriter
	MirrorStore
}
