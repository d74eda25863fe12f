package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"checkbook/internal/amqp"
	"checkbook/internal/cache"
	"checkbook/internal/core"
	"checkbook/internal/ledger"
	"checkbook/internal/sheets"
)

// MirrorWorker copies stored ledger entries to the external sheet. It
// consumes entry-created messages from AMQP and sweeps the pending
// backlog as a fallback for lost messages.
type MirrorWorker struct {
	store     ledger.Store
	sheets    sheets.EntryAppender
	seen      *cache.LRUCache[struct{}]
	batchSize int
}

func NewMirrorWorker(store ledger.Store, appender sheets.EntryAppender, seen *cache.LRUCache[struct{}], batchSize int) *MirrorWorker {
	return &MirrorWorker{
		store:     store,
		sheets:    appender,
		seen:      seen,
		batchSize: batchSize,
	}
}

// HandleEntryCreated processes a single entry-created message from AMQP
func (w *MirrorWorker) HandleEntryCreated(ctx context.Context, msg *amqp.EntryCreatedMessage) error {
	if w.isDuplicate(msg.EventID) {
		slog.InfoContext(ctx, "Skipping duplicate event",
			"event_id", msg.EventID,
			"entry_id", msg.EntryID)
		return nil
	}

	slog.InfoContext(ctx, "Processing entry-created message",
		"event_id", msg.EventID,
		"entry_id", msg.EntryID)

	entry, err := w.store.GetEntry(ctx, msg.EntryID)
	if err != nil {
		if errors.Is(err, core.ErrEntryNotFound) {
			// The entry vanished between publish and delivery. There is
			// nothing to mirror, so ack instead of requeueing forever.
			slog.WarnContext(ctx, "Entry not found for mirror message", "entry_id", msg.EntryID)
			w.markSeen(msg.EventID)
			return nil
		}
		return fmt.Errorf("get entry from storage: %w", err)
	}

	if entry.MirrorStatus == ledger.MirrorStatusMirrored {
		slog.InfoContext(ctx, "Entry already mirrored, skipping", "entry_id", entry.ID)
		w.markSeen(msg.EventID)
		return nil
	}

	if err := w.mirrorEntry(ctx, entry); err != nil {
		return fmt.Errorf("mirror entry: %w", err)
	}

	w.markSeen(msg.EventID)
	return nil
}

// ProcessPendingEntries mirrors any entries that are still pending.
// This is a backup mechanism in case AMQP messages are lost.
func (w *MirrorWorker) ProcessPendingEntries(ctx context.Context) error {
	pending, err := w.store.GetPendingMirrorEntries(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending entries: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending entries", "count", len(pending))

	for _, entry := range pending {
		if err := w.mirrorEntry(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror entry", "entry_id", entry.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupMirrorCheck sweeps the pending backlog once at worker startup.
// This recovers from missed AMQP messages or worker downtime.
func (w *MirrorWorker) StartupMirrorCheck(ctx context.Context) error {
	// Use a larger batch for the startup sweep
	pending, err := w.store.GetPendingMirrorEntries(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending entries for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending entries found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending entries on startup, processing...",
		"count", len(pending))

	mirrored := 0
	failed := 0

	for _, entry := range pending {
		if err := w.mirrorEntry(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror entry during startup",
				"entry_id", entry.ID, "error", err)
			failed++
			continue
		}
		mirrored++
	}

	slog.InfoContext(ctx, "Startup mirror completed",
		"total", len(pending),
		"mirrored", mirrored,
		"errors", failed)

	return nil
}

func (w *MirrorWorker) mirrorEntry(ctx context.Context, entry core.LedgerEntry) error {
	ref, err := w.sheets.Append(ctx, entry)
	if err != nil {
		if markErr := w.store.MarkMirrorError(ctx, entry.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark mirror error", "entry_id", entry.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.store.MarkMirrored(ctx, entry.ID); err != nil {
		// The row landed, so don't fail the operation over bookkeeping
		slog.ErrorContext(ctx, "Failed to mark entry as mirrored", "entry_id", entry.ID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Entry mirrored",
		"entry_id", entry.ID,
		"sheets_ref", ref,
		"amount_cents", entry.Amount.Cents)

	return nil
}

// isDuplicate reports whether the event ID was already handled. A nil
// cache disables deduplication.
func (w *MirrorWorker) isDuplicate(eventID string) bool {
	if w.seen == nil || eventID == "" {
		return false
	}
	_, dup := w.seen.Get(eventID)
	return dup
}

func (w *MirrorWorker) markSeen(eventID string) {
	if w.seen == nil || eventID == "" {
		return
	}
	w.seen.Set(eventID, struct{}{})
}
