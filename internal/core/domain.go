// Package core contains the domain model for the checkbook ledger:
// accounts, ledger entries, recurring templates, and the balance
// snapshot produced for a user on a given day.
package core

import (
	"errors"
	"strings"
	"time"
)

// EntryKind distinguishes account-scoped check entries from the
// per-user pooled cash entries.
type EntryKind string

const (
	KindCheck EntryKind = "check"
	KindCash  EntryKind = "cash"
)

// Direction is the signed orientation of an entry. Check entries use
// incoming/outgoing, cash entries use credit/debit.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
	DirectionCredit   Direction = "credit"
	DirectionDebit    Direction = "debit"
)

// Frequency is the recurrence cadence of a template.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidDateRange  = errors.New("end date cannot be before start date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidKind       = errors.New("entry kind must be check or cash")
	ErrInvalidDirection  = errors.New("direction not valid for entry kind")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidDayOfMonth = errors.New("day of month must be between 1 and 31")
	ErrInvalidDayOfWeek  = errors.New("day of week must be between 0 (Sunday) and 6 (Saturday)")
	ErrMissingUser       = errors.New("user id is required")
	ErrMissingAccount    = errors.New("check entries require an account")
	ErrAccountForbidden  = errors.New("cash entries cannot reference an account")
	ErrEmptyPayee        = errors.New("empty payee")
	ErrEmptyDescription  = errors.New("empty description")

	ErrAccountNotFound  = errors.New("account not found")
	ErrTemplateNotFound = errors.New("recurring template not found")
	ErrEntryNotFound    = errors.New("ledger entry not found")

	ErrTemplateInactive = errors.New("recurring template is not active")
	ErrScheduleConflict = errors.New("template schedule was modified concurrently")
	ErrDuplicateEntry   = errors.New("entry already created for this template and date")
)

func (k EntryKind) Validate() error {
	switch k {
	case KindCheck, KindCash:
		return nil
	default:
		return ErrInvalidKind
	}
}

// Sign is the balance contribution factor of the direction: +1 for
// money in (incoming, credit), -1 for money out (outgoing, debit).
func (d Direction) Sign() int64 {
	switch d {
	case DirectionIncoming, DirectionCredit:
		return 1
	case DirectionOutgoing, DirectionDebit:
		return -1
	default:
		return 0
	}
}

// ValidFor reports whether the direction belongs to the kind's
// vocabulary: check entries move incoming/outgoing, cash credit/debit.
func (d Direction) ValidFor(kind EntryKind) bool {
	switch kind {
	case KindCheck:
		return d == DirectionIncoming || d == DirectionOutgoing
	case KindCash:
		return d == DirectionCredit || d == DirectionDebit
	default:
		return false
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

// Account is a named checking account with an opening balance and a
// low-balance warning threshold, both stored in cents.
type Account struct {
	ID                  int64
	UserID              string
	Name                string
	OpeningBalance      Money
	LowBalanceThreshold Money
	CreatedAt           time.Time
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("empty account name")
	}
	if len(a.Name) > 200 {
		return errors.New("account name too long (max 200 characters)")
	}
	return nil
}

// LedgerEntry is a single posted movement. Check entries belong to an
// account and carry a payee; cash entries are pooled per user and carry
// a description. Entries materialized from a recurring template keep a
// reference to it in TemplateID.
type LedgerEntry struct {
	ID           int64
	UserID       string
	Kind         EntryKind
	Direction    Direction
	AccountID    *int64
	Amount       Money
	Date         Date
	Payee        string
	Description  string
	TemplateID   *int64
	MirrorStatus string
	CreatedAt    time.Time
}

func (e LedgerEntry) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrMissingUser
	}
	if err := e.Kind.Validate(); err != nil {
		return err
	}
	if !e.Direction.ValidFor(e.Kind) {
		return ErrInvalidDirection
	}
	switch e.Kind {
	case KindCheck:
		if e.AccountID == nil {
			return ErrMissingAccount
		}
		if strings.TrimSpace(e.Payee) == "" {
			return ErrEmptyPayee
		}
		if len(e.Payee) > 200 {
			return errors.New("payee too long (max 200 characters)")
		}
	case KindCash:
		if e.AccountID != nil {
			return ErrAccountForbidden
		}
		if strings.TrimSpace(e.Description) == "" {
			return ErrEmptyDescription
		}
		if len(e.Description) > 200 {
			return errors.New("description too long (max 200 characters)")
		}
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return nil
}

// SignedCents is the entry's contribution to a balance in cents.
func (e LedgerEntry) SignedCents() int64 {
	return e.Direction.Sign() * e.Amount.Cents
}

// RecurringTemplate describes an entry that repeats on a schedule.
// DayOfMonth steers monthly and yearly cadences and stays authoritative
// across clamping: a day-31 template lands on Feb 28/29 and returns to
// the 31st in longer months. DayOfWeek steers weekly cadences.
// NextDueDate is the persisted schedule position advanced on every
// fire; LastCreatedDate records the most recent materialization.
type RecurringTemplate struct {
	ID              int64
	UserID          string
	Kind            EntryKind
	Direction       Direction
	AccountID       *int64
	Payee           string
	Description     string
	Amount          Money
	Frequency       Frequency
	StartDate       Date
	EndDate         *Date
	DayOfMonth      *int
	DayOfWeek       *int
	IsActive        bool
	LastCreatedDate *Date
	NextDueDate     Date
	CreatedAt       time.Time
}

func (t RecurringTemplate) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrMissingUser
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if !t.Direction.ValidFor(t.Kind) {
		return ErrInvalidDirection
	}
	switch t.Kind {
	case KindCheck:
		if t.AccountID == nil {
			return ErrMissingAccount
		}
		if strings.TrimSpace(t.Payee) == "" {
			return ErrEmptyPayee
		}
	case KindCash:
		if t.AccountID != nil {
			return ErrAccountForbidden
		}
		if strings.TrimSpace(t.Description) == "" {
			return ErrEmptyDescription
		}
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Frequency.Validate(); err != nil {
		return err
	}
	if err := t.StartDate.Validate(); err != nil {
		return err
	}
	if t.EndDate != nil && t.EndDate.Before(t.StartDate.Time) {
		return ErrInvalidDateRange
	}
	if t.DayOfMonth != nil && (*t.DayOfMonth < 1 || *t.DayOfMonth > 31) {
		return ErrInvalidDayOfMonth
	}
	if t.DayOfWeek != nil && (*t.DayOfWeek < 0 || *t.DayOfWeek > 6) {
		return ErrInvalidDayOfWeek
	}
	return nil
}

// Materialize builds the ledger entry this template produces on the
// given day. The entry is not yet persisted and has no ID.
func (t RecurringTemplate) Materialize(date Date) LedgerEntry {
	templateID := t.ID
	return LedgerEntry{
		UserID:      t.UserID,
		Kind:        t.Kind,
		Direction:   t.Direction,
		AccountID:   t.AccountID,
		Amount:      t.Amount,
		Date:        date,
		Payee:       t.Payee,
		Description: t.Description,
		TemplateID:  &templateID,
	}
}
