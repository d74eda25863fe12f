// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring schedule
// advancement. Each frequency (daily, weekly, monthly, yearly) has its
// own rule that encapsulates the date arithmetic for the next occurrence.

package services

import (
	"fmt"
	"time"

	"checkbook/internal/core"
)

// DueDateRule is the strategy interface for advancing a template's
// schedule. Each implementation encapsulates the algorithm for a
// specific frequency type.
type DueDateRule interface {
	// Next returns the first occurrence strictly after the anchor date.
	Next(anchor core.Date, template core.RecurringTemplate) core.Date
}

// DailyRule implements DueDateRule for daily templates.
type DailyRule struct{}

// Next returns the day after the anchor.
func (DailyRule) Next(anchor core.Date, _ core.RecurringTemplate) core.Date {
	return anchor.AddDays(1)
}

// WeeklyRule implements DueDateRule for weekly templates.
type WeeklyRule struct{}

// Next returns the next occurrence of the template's weekday strictly
// after the anchor; when the anchor already falls on that weekday the
// occurrence is a full week out. Without a weekday it is anchor plus
// seven days.
func (WeeklyRule) Next(anchor core.Date, template core.RecurringTemplate) core.Date {
	if template.DayOfWeek == nil {
		return anchor.AddDays(7)
	}
	days := (*template.DayOfWeek - int(anchor.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return anchor.AddDays(days)
}

// MonthlyRule implements DueDateRule for monthly templates.
type MonthlyRule struct{}

// Next returns the template's day in the month after the anchor,
// clamped to that month's last day. The stored day of month stays
// authoritative: a day-31 template visits Feb 28 and returns to the
// 31st in March.
func (MonthlyRule) Next(anchor core.Date, template core.RecurringTemplate) core.Date {
	day := anchor.Day()
	if template.DayOfMonth != nil {
		day = *template.DayOfMonth
	}
	return clampedDate(anchor.Year(), anchor.Month()+1, day)
}

// YearlyRule implements DueDateRule for yearly templates.
type YearlyRule struct{}

// Next returns the same month one year after the anchor, with the day
// clamped leap-aware: a Feb-29 target lands on Feb 28 in common years
// and back on Feb 29 in leap years.
func (YearlyRule) Next(anchor core.Date, template core.RecurringTemplate) core.Date {
	day := anchor.Day()
	if template.DayOfMonth != nil {
		day = *template.DayOfMonth
	}
	return clampedDate(anchor.Year()+1, anchor.Month(), day)
}

// clampedDate builds a date with the day clamped to the month's length.
// Month overflow normalizes, so month 13 of 2025 is January 2026.
func clampedDate(year, month, day int) core.Date {
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return core.NewDate(year, month, day)
}

// dueDateRules maps frequencies to their corresponding rules.
// This registry enables O(1) lookup and easy extension for new frequency types.
var dueDateRules = map[core.Frequency]DueDateRule{
	core.Daily:   DailyRule{},
	core.Weekly:  WeeklyRule{},
	core.Monthly: MonthlyRule{},
	core.Yearly:  YearlyRule{},
}

// GetDueDateRule returns the appropriate rule for a frequency.
// Returns an error if the frequency is not supported.
func GetDueDateRule(frequency core.Frequency) (DueDateRule, error) {
	rule, ok := dueDateRules[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidFrequency, frequency)
	}
	return rule, nil
}

// RegisterDueDateRule allows registering custom rules for new frequency types.
// This supports the Open/Closed principle by allowing extension without modification.
func RegisterDueDateRule(frequency core.Frequency, rule DueDateRule) {
	dueDateRules[frequency] = rule
}

// NextDueDate computes the occurrence after the anchor for the
// template's frequency. Unknown frequencies are an error, never a
// silent skip.
func NextDueDate(template core.RecurringTemplate, anchor core.Date) (core.Date, error) {
	rule, err := GetDueDateRule(template.Frequency)
	if err != nil {
		return core.Date{}, err
	}
	return rule.Next(anchor, template), nil
}

// InitialDueDate returns the first occurrence on or after the
// template's start date. The start date itself qualifies when it
// matches the pattern.
func InitialDueDate(template core.RecurringTemplate) (core.Date, error) {
	if _, err := GetDueDateRule(template.Frequency); err != nil {
		return core.Date{}, err
	}
	start := template.StartDate
	switch template.Frequency {
	case core.Weekly:
		if template.DayOfWeek == nil {
			return start, nil
		}
		days := (*template.DayOfWeek - int(start.Weekday()) + 7) % 7
		return start.AddDays(days), nil
	case core.Monthly:
		if template.DayOfMonth == nil {
			return start, nil
		}
		candidate := clampedDate(start.Year(), start.Month(), *template.DayOfMonth)
		if candidate.Before(start.Time) {
			candidate = clampedDate(start.Year(), start.Month()+1, *template.DayOfMonth)
		}
		return candidate, nil
	case core.Yearly:
		if template.DayOfMonth == nil {
			return start, nil
		}
		candidate := clampedDate(start.Year(), start.Month(), *template.DayOfMonth)
		if candidate.Before(start.Time) {
			candidate = clampedDate(start.Year()+1, start.Month(), *template.DayOfMonth)
		}
		return candidate, nil
	default:
		return start, nil
	}
}
