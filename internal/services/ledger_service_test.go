package services

import (
	"context"
	"errors"
	"testing"

	"checkbook/internal/core"
	"checkbook/internal/ledger"
	"checkbook/internal/ledger/memory"
)

func TestNewLedgerService(t *testing.T) {
	// Test with nil values since we can't easily mock the concrete types
	service := NewLedgerService(nil, nil)

	if service == nil {
		t.Error("NewLedgerService should return a non-nil service")
	}
	if service.amqpClient != nil {
		t.Error("NewLedgerService should set amqpClient to nil when passed nil")
	}
}

func TestLedgerService_CreateEntry(t *testing.T) {
	store := memory.New()
	service := NewLedgerService(store, nil)
	ctx := context.Background()

	entry, err := service.CreateEntry(ctx, core.LedgerEntry{
		UserID:      "u1",
		Kind:        core.KindCash,
		Direction:   core.DirectionDebit,
		Amount:      core.Money{Cents: 450},
		Date:        core.NewDate(2024, 5, 1),
		Description: "coffee",
	})
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}
	if entry.ID == 0 {
		t.Error("CreateEntry() should assign an id")
	}
	if entry.MirrorStatus != ledger.MirrorStatusPending {
		t.Errorf("MirrorStatus = %q, want pending", entry.MirrorStatus)
	}

	stored, err := store.GetEntry(ctx, entry.ID)
	if err != nil || stored.Description != "coffee" {
		t.Fatalf("stored entry = %+v err=%v", stored, err)
	}

	_, err = service.CreateEntry(ctx, core.LedgerEntry{UserID: "u1", Kind: "bond"})
	if !errors.Is(err, core.ErrInvalidKind) {
		t.Errorf("CreateEntry() error = %v, want ErrInvalidKind", err)
	}
}

func TestLedgerService_CreateAccount(t *testing.T) {
	store := memory.New()
	service := NewLedgerService(store, nil)

	account, err := service.CreateAccount(context.Background(), core.Account{
		UserID:              "u1",
		Name:                "Main",
		OpeningBalance:      core.Money{Cents: 120000},
		LowBalanceThreshold: core.Money{Cents: 10000},
	})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if account.ID == 0 {
		t.Error("CreateAccount() should assign an id")
	}

	_, err = service.CreateAccount(context.Background(), core.Account{Name: "orphan"})
	if !errors.Is(err, core.ErrMissingUser) {
		t.Errorf("CreateAccount() error = %v, want ErrMissingUser", err)
	}
}

func TestLedgerService_CreateTemplate(t *testing.T) {
	store := memory.New()
	service := NewLedgerService(store, nil)
	ctx := context.Background()

	day := 10
	created, err := service.CreateTemplate(ctx, core.RecurringTemplate{
		UserID:      "u1",
		Kind:        core.KindCash,
		Direction:   core.DirectionDebit,
		Description: "internet",
		Amount:      core.Money{Cents: 3999},
		Frequency:   core.Monthly,
		StartDate:   core.NewDate(2024, 1, 5),
		DayOfMonth:  &day,
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("CreateTemplate() error = %v", err)
	}
	if created.ID == 0 {
		t.Error("CreateTemplate() should assign an id")
	}
	if created.NextDueDate.String() != "2024-01-10" {
		t.Errorf("derived next due = %v, want 2024-01-10", created.NextDueDate)
	}

	// An explicit next due date is kept as-is.
	explicit, err := service.CreateTemplate(ctx, core.RecurringTemplate{
		UserID:      "u1",
		Kind:        core.KindCash,
		Direction:   core.DirectionCredit,
		Description: "salary",
		Amount:      core.Money{Cents: 250000},
		Frequency:   core.Monthly,
		StartDate:   core.NewDate(2024, 1, 1),
		IsActive:    true,
		NextDueDate: core.NewDate(2024, 6, 1),
	})
	if err != nil {
		t.Fatalf("CreateTemplate() error = %v", err)
	}
	if explicit.NextDueDate.String() != "2024-06-01" {
		t.Errorf("explicit next due = %v, want 2024-06-01", explicit.NextDueDate)
	}

	_, err = service.CreateTemplate(ctx, core.RecurringTemplate{UserID: "u1", Kind: core.KindCash, Direction: core.DirectionDebit, Description: "x", Amount: core.Money{Cents: 1}, Frequency: "sometimes", StartDate: core.NewDate(2024, 1, 1)})
	if !errors.Is(err, core.ErrInvalidFrequency) {
		t.Errorf("CreateTemplate() error = %v, want ErrInvalidFrequency", err)
	}
}

func TestLedgerService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := &LedgerService{}

		err := service.Close()

		if err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})

	t.Run("memory store has no closer", func(t *testing.T) {
		service := NewLedgerService(memory.New(), nil)
		if err := service.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	})
}
