package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"checkbook/internal/core"
	"checkbook/internal/ledger"
)

// ProcessorStore is the slice of the ledger the recurring processor
// reads and advances.
type ProcessorStore interface {
	ledger.TemplateReader
	ledger.TemplateWriter
	ledger.EntryReader
}

// BatchError records why a single template failed during a batch run.
type BatchError struct {
	TemplateID int64
	Err        error
}

// MarshalJSON flattens the wrapped error into its message.
func (e BatchError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TemplateID int64  `json:"template_id"`
		Error      string `json:"error"`
	}{TemplateID: e.TemplateID, Error: e.Err.Error()})
}

// BatchResult summarizes one ProcessDue run. Errors holds one element
// per failed template, in processing order.
type BatchResult struct {
	Processed int          `json:"processed"`
	Failed    int          `json:"failed"`
	Errors    []BatchError `json:"errors,omitempty"`
}

// RecurringProcessor handles the automatic creation of ledger entries
// from recurring templates.
type RecurringProcessor struct {
	store         ProcessorStore
	ledgerService *LedgerService
}

// NewRecurringProcessor creates a new recurring template processor
func NewRecurringProcessor(store ProcessorStore, ledgerService *LedgerService) *RecurringProcessor {
	return &RecurringProcessor{
		store:         store,
		ledgerService: ledgerService,
	}
}

// FindDue returns the templates due on or before asOf: active, with the
// due date inside the template's start/end window, ordered by next due
// date ascending.
func (p *RecurringProcessor) FindDue(ctx context.Context, asOf core.Date) ([]core.RecurringTemplate, error) {
	if err := asOf.Validate(); err != nil {
		return nil, err
	}
	templates, err := p.store.ListDueTemplates(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("list due templates: %w", err)
	}
	return templates, nil
}

// Fire materializes one entry from the template dated effectiveDate and
// advances the schedule. The schedule update is conditional on the
// template's next due date being unchanged since it was read; a
// concurrent advance surfaces as core.ErrScheduleConflict.
//
// When the entry already exists for this template and date the schedule
// still advances, so a run that crashed between insert and advance
// converges on retry instead of wedging.
func (p *RecurringProcessor) Fire(ctx context.Context, template core.RecurringTemplate, effectiveDate core.Date) (core.LedgerEntry, error) {
	if !template.IsActive {
		return core.LedgerEntry{}, fmt.Errorf("template %d: %w", template.ID, core.ErrTemplateInactive)
	}
	if err := effectiveDate.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}

	// Compute the advanced schedule first: an unknown frequency must
	// fail before anything is written.
	nextDue, err := NextDueDate(template, effectiveDate)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("advance template %d: %w", template.ID, err)
	}

	entry, err := p.ledgerService.CreateEntry(ctx, template.Materialize(effectiveDate))
	if err != nil {
		if !errors.Is(err, core.ErrDuplicateEntry) {
			return core.LedgerEntry{}, fmt.Errorf("create entry from template %d: %w", template.ID, err)
		}
		slog.WarnContext(ctx, "Entry already exists for template, advancing schedule",
			"template_id", template.ID,
			"date", effectiveDate.String())
		entry, err = p.store.GetTemplateEntry(ctx, template.ID, effectiveDate)
		if err != nil {
			return core.LedgerEntry{}, fmt.Errorf("load existing entry for template %d: %w", template.ID, err)
		}
	}

	if err := p.store.UpdateTemplateSchedule(ctx, template.ID, effectiveDate, nextDue, template.NextDueDate); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("advance template %d schedule: %w", template.ID, err)
	}

	slog.InfoContext(ctx, "Created entry from recurring template",
		"template_id", template.ID,
		"entry_id", entry.ID,
		"date", effectiveDate.String(),
		"next_due", nextDue.String(),
		"amount_cents", template.Amount.Cents,
		"frequency", template.Frequency)

	return entry, nil
}

// ProcessDue fires every template due on or before asOf, dating the
// entries asOf. Templates are processed strictly in order and in
// isolation: one failure is recorded and the run moves on. Only the
// initial listing aborts the whole batch.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, asOf core.Date) (BatchResult, error) {
	if p.store == nil || p.ledgerService == nil {
		return BatchResult{}, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.FindDue(ctx, asOf)
	if err != nil {
		return BatchResult{}, err
	}

	slog.InfoContext(ctx, "Processing recurring templates",
		"total_due", len(templates),
		"as_of", asOf.String())

	var result BatchResult
	for _, template := range templates {
		if _, err := p.Fire(ctx, template, asOf); err != nil {
			slog.ErrorContext(ctx, "Failed to process template",
				"template_id", template.ID,
				"error", err)
			result.Failed++
			result.Errors = append(result.Errors, BatchError{TemplateID: template.ID, Err: err})
			continue
		}
		result.Processed++
	}

	slog.InfoContext(ctx, "Recurring template processing complete",
		"processed", result.Processed,
		"failed", result.Failed,
		"total_due", len(templates))

	return result, nil
}
