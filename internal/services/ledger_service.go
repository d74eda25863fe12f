package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"checkbook/internal/amqp"
	"checkbook/internal/core"
	"checkbook/internal/ledger"
)

// LedgerService orchestrates writes across the ledger store and AMQP
type LedgerService struct {
	store      ledger.Store
	amqpClient *amqp.Client
}

func NewLedgerService(store ledger.Store, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		store:      store,
		amqpClient: amqpClient,
	}
}

// CreateEntry saves an entry locally and publishes an entry-created message
func (s *LedgerService) CreateEntry(ctx context.Context, entry core.LedgerEntry) (core.LedgerEntry, error) {
	if err := entry.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}

	// Save to the store first (fast, reliable)
	id, err := s.store.InsertEntry(ctx, entry)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("save entry: %w", err)
	}
	entry.ID = id
	if entry.MirrorStatus == "" {
		entry.MirrorStatus = ledger.MirrorStatusPending
	}

	// Publish async mirror message (non-blocking)
	if err := s.publishEntryCreated(ctx, entry.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry-created message",
			"entry_id", entry.ID, "error", err)
		// Don't fail the request - entry is saved locally
	}

	return entry, nil
}

// CreateAccount validates and stores a new account
func (s *LedgerService) CreateAccount(ctx context.Context, account core.Account) (core.Account, error) {
	if err := account.Validate(); err != nil {
		return core.Account{}, err
	}
	id, err := s.store.InsertAccount(ctx, account)
	if err != nil {
		return core.Account{}, fmt.Errorf("save account: %w", err)
	}
	account.ID = id
	return account, nil
}

// CreateTemplate validates and stores a new recurring template. When no
// next due date is supplied the first occurrence on or after the start
// date is derived from the template's frequency.
func (s *LedgerService) CreateTemplate(ctx context.Context, template core.RecurringTemplate) (core.RecurringTemplate, error) {
	if err := template.Validate(); err != nil {
		return core.RecurringTemplate{}, err
	}
	if template.NextDueDate.IsZero() {
		due, err := InitialDueDate(template)
		if err != nil {
			return core.RecurringTemplate{}, fmt.Errorf("derive first due date: %w", err)
		}
		template.NextDueDate = due
	}
	id, err := s.store.InsertTemplate(ctx, template)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("save template: %w", err)
	}
	template.ID = id

	slog.InfoContext(ctx, "Created recurring template",
		"template_id", template.ID,
		"frequency", template.Frequency,
		"next_due", template.NextDueDate.String())

	return template, nil
}

func (s *LedgerService) publishEntryCreated(ctx context.Context, entryID int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping entry-created message")
		return nil
	}

	return s.amqpClient.PublishEntryCreated(ctx, entryID)
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if closer, ok := s.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
