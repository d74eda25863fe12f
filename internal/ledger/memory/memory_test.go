package memory

import (
	"context"
	"errors"
	"testing"

	"checkbook/internal/core"
	"checkbook/internal/ledger"
)

func int64Ptr(v int64) *int64 { return &v }

func TestAccountRoundtrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.InsertAccount(ctx, core.Account{UserID: "u1", Name: "Main", OpeningBalance: core.Money{Cents: 10000}})
	if err != nil || id != 1 {
		t.Fatalf("unexpected insert: id=%d err=%v", id, err)
	}
	if _, err := s.InsertAccount(ctx, core.Account{UserID: "u1", Name: "Savings"}); err != nil {
		t.Fatalf("second insert failed: %v", err)
	}
	if _, err := s.InsertAccount(ctx, core.Account{UserID: "u2", Name: "Other"}); err != nil {
		t.Fatalf("third insert failed: %v", err)
	}

	a, err := s.GetAccount(ctx, id)
	if err != nil || a.Name != "Main" || a.OpeningBalance.Cents != 10000 {
		t.Fatalf("unexpected get: %+v err=%v", a, err)
	}
	if _, err := s.GetAccount(ctx, 99); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	list, err := s.ListAccounts(ctx, "u1")
	if err != nil || len(list) != 2 || list[0].Name != "Main" || list[1].Name != "Savings" {
		t.Fatalf("unexpected list: %+v err=%v", list, err)
	}
	if _, err := s.InsertAccount(ctx, core.Account{UserID: "", Name: "bad"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSumsRespectDateCutoff(t *testing.T) {
	s := New()
	ctx := context.Background()
	acct, _ := s.InsertAccount(ctx, core.Account{UserID: "u1", Name: "Main"})

	insert := func(e core.LedgerEntry) {
		t.Helper()
		if _, err := s.InsertEntry(ctx, e); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	insert(core.LedgerEntry{UserID: "u1", Kind: core.KindCash, Direction: core.DirectionCredit, Amount: core.Money{Cents: 500}, Date: core.NewDate(2025, 1, 10), Description: "float"})
	insert(core.LedgerEntry{UserID: "u1", Kind: core.KindCash, Direction: core.DirectionDebit, Amount: core.Money{Cents: 200}, Date: core.NewDate(2025, 1, 15), Description: "coffee"})
	insert(core.LedgerEntry{UserID: "u1", Kind: core.KindCash, Direction: core.DirectionDebit, Amount: core.Money{Cents: 999}, Date: core.NewDate(2025, 2, 1), Description: "later"})
	insert(core.LedgerEntry{UserID: "u2", Kind: core.KindCash, Direction: core.DirectionCredit, Amount: core.Money{Cents: 7777}, Date: core.NewDate(2025, 1, 1), Description: "other user"})
	insert(core.LedgerEntry{UserID: "u1", Kind: core.KindCheck, Direction: core.DirectionIncoming, AccountID: &acct, Amount: core.Money{Cents: 1000}, Date: core.NewDate(2025, 1, 5), Payee: "Employer"})
	insert(core.LedgerEntry{UserID: "u1", Kind: core.KindCheck, Direction: core.DirectionOutgoing, AccountID: &acct, Amount: core.Money{Cents: 300}, Date: core.NewDate(2025, 1, 20), Payee: "Utility"})

	cash, err := s.SumCashCents(ctx, "u1", core.NewDate(2025, 1, 31))
	if err != nil || cash != 300 {
		t.Fatalf("expected cash 300, got %d err=%v", cash, err)
	}
	// Cutoff day itself is included.
	cash, _ = s.SumCashCents(ctx, "u1", core.NewDate(2025, 1, 10))
	if cash != 500 {
		t.Fatalf("expected cash 500 on cutoff day, got %d", cash)
	}
	checks, err := s.SumCheckCents(ctx, acct, core.NewDate(2025, 1, 31))
	if err != nil || checks != 700 {
		t.Fatalf("expected checks 700, got %d err=%v", checks, err)
	}
	checks, _ = s.SumCheckCents(ctx, acct, core.NewDate(2025, 1, 10))
	if checks != 1000 {
		t.Fatalf("expected checks 1000 before outgoing, got %d", checks)
	}
	empty, _ := s.SumCashCents(ctx, "nobody", core.NewDate(2025, 12, 31))
	if empty != 0 {
		t.Fatalf("expected 0 for unknown user, got %d", empty)
	}
}

func TestInsertEntryDuplicateTemplateDate(t *testing.T) {
	s := New()
	ctx := context.Background()

	e := core.LedgerEntry{
		UserID:      "u1",
		Kind:        core.KindCash,
		Direction:   core.DirectionDebit,
		Amount:      core.Money{Cents: 100},
		Date:        core.NewDate(2025, 3, 1),
		Description: "subscription",
		TemplateID:  int64Ptr(5),
	}
	id, err := s.InsertEntry(ctx, e)
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := s.InsertEntry(ctx, e); !errors.Is(err, core.ErrDuplicateEntry) {
		t.Fatalf("expected ErrDuplicateEntry, got %v", err)
	}
	// Same template on another day is fine.
	e.Date = core.NewDate(2025, 4, 1)
	if _, err := s.InsertEntry(ctx, e); err != nil {
		t.Fatalf("different date insert failed: %v", err)
	}

	got, err := s.GetTemplateEntry(ctx, 5, core.NewDate(2025, 3, 1))
	if err != nil || got.ID != id {
		t.Fatalf("unexpected template entry: %+v err=%v", got, err)
	}
	if _, err := s.GetTemplateEntry(ctx, 5, core.NewDate(2025, 5, 1)); !errors.Is(err, core.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}

	stored, _ := s.GetEntry(ctx, id)
	if stored.MirrorStatus != ledger.MirrorStatusPending {
		t.Fatalf("expected pending mirror status, got %q", stored.MirrorStatus)
	}
}

func TestListDueTemplatesFiltersAndOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	asOf := core.NewDate(2025, 6, 15)

	mk := func(next core.Date, active bool, mutate func(*core.RecurringTemplate)) int64 {
		t.Helper()
		tpl := core.RecurringTemplate{
			UserID:      "u1",
			Kind:        core.KindCash,
			Direction:   core.DirectionDebit,
			Description: "d",
			Amount:      core.Money{Cents: 100},
			Frequency:   core.Monthly,
			StartDate:   core.NewDate(2025, 1, 1),
			IsActive:    active,
			NextDueDate: next,
		}
		if mutate != nil {
			mutate(&tpl)
		}
		id, err := s.InsertTemplate(ctx, tpl)
		if err != nil {
			t.Fatalf("insert template failed: %v", err)
		}
		return id
	}

	late := mk(core.NewDate(2025, 6, 10), true, nil)
	early := mk(core.NewDate(2025, 6, 1), true, nil)
	mk(core.NewDate(2025, 6, 1), false, nil)               // inactive
	mk(core.NewDate(2025, 7, 1), true, nil)                // future
	mk(core.NewDate(2025, 6, 5), true, func(r *core.RecurringTemplate) { // due before start
		r.StartDate = core.NewDate(2025, 6, 20)
	})
	mk(core.NewDate(2025, 6, 5), true, func(r *core.RecurringTemplate) { // window closed
		end := core.NewDate(2025, 6, 1)
		r.StartDate = core.NewDate(2025, 5, 1)
		r.EndDate = &end
	})
	sameDay := mk(asOf, true, nil)

	due, err := s.ListDueTemplates(ctx, asOf)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(due) != 3 {
		t.Fatalf("expected 3 due templates, got %d", len(due))
	}
	if due[0].ID != early || due[1].ID != late || due[2].ID != sameDay {
		t.Fatalf("unexpected order: %d %d %d", due[0].ID, due[1].ID, due[2].ID)
	}
}

func TestUpdateTemplateSchedule(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, err := s.InsertTemplate(ctx, core.RecurringTemplate{
		UserID:      "u1",
		Kind:        core.KindCash,
		Direction:   core.DirectionDebit,
		Description: "rent",
		Amount:      core.Money{Cents: 100},
		Frequency:   core.Monthly,
		StartDate:   core.NewDate(2025, 1, 1),
		IsActive:    true,
		NextDueDate: core.NewDate(2025, 2, 1),
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	err = s.UpdateTemplateSchedule(ctx, id, core.NewDate(2025, 2, 1), core.NewDate(2025, 3, 1), core.NewDate(2025, 2, 1))
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	tpl, _ := s.GetTemplate(ctx, id)
	if tpl.NextDueDate.String() != "2025-03-01" {
		t.Fatalf("expected next due 2025-03-01, got %s", tpl.NextDueDate)
	}
	if tpl.LastCreatedDate == nil || tpl.LastCreatedDate.String() != "2025-02-01" {
		t.Fatalf("expected last created 2025-02-01, got %v", tpl.LastCreatedDate)
	}

	// Stale expectation leaves the row untouched.
	err = s.UpdateTemplateSchedule(ctx, id, core.NewDate(2025, 2, 1), core.NewDate(2025, 3, 1), core.NewDate(2025, 2, 1))
	if !errors.Is(err, core.ErrScheduleConflict) {
		t.Fatalf("expected ErrScheduleConflict, got %v", err)
	}
	tpl, _ = s.GetTemplate(ctx, id)
	if tpl.NextDueDate.String() != "2025-03-01" {
		t.Fatalf("conflict should not modify schedule, got %s", tpl.NextDueDate)
	}

	err = s.UpdateTemplateSchedule(ctx, 99, core.NewDate(2025, 2, 1), core.NewDate(2025, 3, 1), core.NewDate(2025, 2, 1))
	if !errors.Is(err, core.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestMirrorStatusTransitions(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, _ := s.InsertEntry(ctx, core.LedgerEntry{UserID: "u1", Kind: core.KindCash, Direction: core.DirectionDebit, Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 1, 1), Description: "a"})
	second, _ := s.InsertEntry(ctx, core.LedgerEntry{UserID: "u1", Kind: core.KindCash, Direction: core.DirectionDebit, Amount: core.Money{Cents: 200}, Date: core.NewDate(2025, 1, 2), Description: "b"})

	pending, err := s.GetPendingMirrorEntries(ctx, 10)
	if err != nil || len(pending) != 2 || pending[0].ID != first {
		t.Fatalf("unexpected pending: %+v err=%v", pending, err)
	}
	limited, _ := s.GetPendingMirrorEntries(ctx, 1)
	if len(limited) != 1 || limited[0].ID != first {
		t.Fatalf("expected oldest entry only, got %+v", limited)
	}

	if err := s.MarkMirrored(ctx, first); err != nil {
		t.Fatalf("mark mirrored failed: %v", err)
	}
	if err := s.MarkMirrorError(ctx, second); err != nil {
		t.Fatalf("mark error failed: %v", err)
	}
	pending, _ = s.GetPendingMirrorEntries(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected no pending entries, got %d", len(pending))
	}
	e, _ := s.GetEntry(ctx, first)
	if e.MirrorStatus != ledger.MirrorStatusMirrored {
		t.Fatalf("expected mirrored, got %q", e.MirrorStatus)
	}
	e, _ = s.GetEntry(ctx, second)
	if e.MirrorStatus != ledger.MirrorStatusError {
		t.Fatalf("expected error status, got %q", e.MirrorStatus)
	}
	if err := s.MarkMirrored(ctx, 99); !errors.Is(err, core.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}
