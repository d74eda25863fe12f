// Package memory provides an in-memory ledger store for tests and for
// running the binaries without a database file.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"checkbook/internal/core"
	"checkbook/internal/ledger"
)

type Store struct {
	mu             sync.Mutex
	accounts       map[int64]core.Account
	entries        map[int64]core.LedgerEntry
	templates      map[int64]core.RecurringTemplate
	nextAccountID  int64
	nextEntryID    int64
	nextTemplateID int64
}

func New() *Store {
	return &Store{
		accounts:  make(map[int64]core.Account),
		entries:   make(map[int64]core.LedgerEntry),
		templates: make(map[int64]core.RecurringTemplate),
	}
}

func (s *Store) InsertAccount(_ context.Context, account core.Account) (int64, error) {
	if err := account.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAccountID++
	account.ID = s.nextAccountID
	account.CreatedAt = time.Now()
	s.accounts[account.ID] = account
	return account.ID, nil
}

func (s *Store) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, id int64) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, core.ErrAccountNotFound
	}
	return a, nil
}

func (s *Store) InsertEntry(_ context.Context, entry core.LedgerEntry) (int64, error) {
	if err := entry.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.TemplateID != nil {
		for _, e := range s.entries {
			if e.TemplateID != nil && *e.TemplateID == *entry.TemplateID && e.Date.Equal(entry.Date.Time) {
				return 0, core.ErrDuplicateEntry
			}
		}
	}
	s.nextEntryID++
	entry.ID = s.nextEntryID
	if entry.MirrorStatus == "" {
		entry.MirrorStatus = ledger.MirrorStatusPending
	}
	entry.CreatedAt = time.Now()
	s.entries[entry.ID] = entry
	return entry.ID, nil
}

func (s *Store) GetEntry(_ context.Context, id int64) (core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return core.LedgerEntry{}, core.ErrEntryNotFound
	}
	return e, nil
}

func (s *Store) GetTemplateEntry(_ context.Context, templateID int64, date core.Date) (core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.TemplateID != nil && *e.TemplateID == templateID && e.Date.Equal(date.Time) {
			return e, nil
		}
	}
	return core.LedgerEntry{}, core.ErrEntryNotFound
}

func (s *Store) SumCashCents(_ context.Context, userID string, through core.Date) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, e := range s.entries {
		if e.UserID != userID || e.Kind != core.KindCash {
			continue
		}
		if e.Date.After(through.Time) {
			continue
		}
		sum += e.SignedCents()
	}
	return sum, nil
}

func (s *Store) SumCheckCents(_ context.Context, accountID int64, through core.Date) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, e := range s.entries {
		if e.Kind != core.KindCheck || e.AccountID == nil || *e.AccountID != accountID {
			continue
		}
		if e.Date.After(through.Time) {
			continue
		}
		sum += e.SignedCents()
	}
	return sum, nil
}

func (s *Store) InsertTemplate(_ context.Context, template core.RecurringTemplate) (int64, error) {
	if err := template.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTemplateID++
	template.ID = s.nextTemplateID
	template.CreatedAt = time.Now()
	s.templates[template.ID] = template
	return template.ID, nil
}

func (s *Store) GetTemplate(_ context.Context, id int64) (core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return core.RecurringTemplate{}, core.ErrTemplateNotFound
	}
	return t, nil
}

func (s *Store) ListDueTemplates(_ context.Context, asOf core.Date) ([]core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RecurringTemplate
	for _, t := range s.templates {
		if !t.IsActive {
			continue
		}
		if t.NextDueDate.After(asOf.Time) {
			continue
		}
		if t.StartDate.After(t.NextDueDate.Time) {
			continue
		}
		if t.EndDate != nil && t.EndDate.Before(t.NextDueDate.Time) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextDueDate.Equal(out[j].NextDueDate.Time) {
			return out[i].NextDueDate.Before(out[j].NextDueDate.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateTemplateSchedule(_ context.Context, id int64, lastCreated, nextDue, expectedNextDue core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return core.ErrTemplateNotFound
	}
	if !t.NextDueDate.Equal(expectedNextDue.Time) {
		return core.ErrScheduleConflict
	}
	t.LastCreatedDate = &lastCreated
	t.NextDueDate = nextDue
	s.templates[id] = t
	return nil
}

func (s *Store) GetPendingMirrorEntries(_ context.Context, limit int) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.LedgerEntry
	for _, e := range s.entries {
		if e.MirrorStatus == ledger.MirrorStatusPending {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkMirrored(_ context.Context, entryID int64) error {
	return s.setMirrorStatus(entryID, ledger.MirrorStatusMirrored)
}

func (s *Store) MarkMirrorError(_ context.Context, entryID int64) error {
	return s.setMirrorStatus(entryID, ledger.MirrorStatusError)
}

func (s *Store) setMirrorStatus(entryID int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok {
		return core.ErrEntryNotFound
	}
	e.MirrorStatus = status
	s.entries[entryID] = e
	return nil
}
