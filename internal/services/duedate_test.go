package services

import (
	"errors"
	"testing"

	"checkbook/internal/core"
)

func intPtr(v int) *int { return &v }

func TestDailyRule_Next(t *testing.T) {
	rule := DailyRule{}

	tests := []struct {
		name   string
		anchor core.Date
		want   string
	}{
		{
			name:   "mid month",
			anchor: core.NewDate(2024, 1, 15),
			want:   "2024-01-16",
		},
		{
			name:   "month boundary",
			anchor: core.NewDate(2024, 1, 31),
			want:   "2024-02-01",
		},
		{
			name:   "year boundary",
			anchor: core.NewDate(2024, 12, 31),
			want:   "2025-01-01",
		},
		{
			name:   "into leap day",
			anchor: core.NewDate(2024, 2, 28),
			want:   "2024-02-29",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rule.Next(tt.anchor, core.RecurringTemplate{})
			if got.String() != tt.want {
				t.Errorf("DailyRule.Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyRule_Next(t *testing.T) {
	rule := WeeklyRule{}

	tests := []struct {
		name      string
		anchor    core.Date
		dayOfWeek *int
		want      string
	}{
		{
			name:      "no weekday - plain week",
			anchor:    core.NewDate(2024, 3, 6),
			dayOfWeek: nil,
			want:      "2024-03-13",
		},
		{
			name:      "anchor already on weekday - full week out",
			anchor:    core.NewDate(2024, 3, 4), // a Monday
			dayOfWeek: intPtr(1),
			want:      "2024-03-11",
		},
		{
			name:      "weekday later this week",
			anchor:    core.NewDate(2024, 3, 4), // Monday
			dayOfWeek: intPtr(5),                // Friday
			want:      "2024-03-08",
		},
		{
			name:      "weekday wraps into next week",
			anchor:    core.NewDate(2024, 3, 6), // Wednesday
			dayOfWeek: intPtr(1),                // Monday
			want:      "2024-03-11",
		},
		{
			name:      "sunday target",
			anchor:    core.NewDate(2024, 3, 4), // Monday
			dayOfWeek: intPtr(0),
			want:      "2024-03-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rule.Next(tt.anchor, core.RecurringTemplate{DayOfWeek: tt.dayOfWeek})
			if got.String() != tt.want {
				t.Errorf("WeeklyRule.Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyRule_Next(t *testing.T) {
	rule := MonthlyRule{}

	tests := []struct {
		name       string
		anchor     core.Date
		dayOfMonth *int
		want       string
	}{
		{
			name:       "no day of month - anchor day carries",
			anchor:     core.NewDate(2024, 1, 15),
			dayOfMonth: nil,
			want:       "2024-02-15",
		},
		{
			name:       "day 31 clamps to leap february",
			anchor:     core.NewDate(2024, 1, 31),
			dayOfMonth: intPtr(31),
			want:       "2024-02-29",
		},
		{
			name:       "day 31 clamps to common february",
			anchor:     core.NewDate(2023, 1, 31),
			dayOfMonth: intPtr(31),
			want:       "2023-02-28",
		},
		{
			name:       "stored day re-expands after clamp",
			anchor:     core.NewDate(2024, 2, 29),
			dayOfMonth: intPtr(31),
			want:       "2024-03-31",
		},
		{
			name:       "day 30 clamps only in february",
			anchor:     core.NewDate(2024, 3, 30),
			dayOfMonth: intPtr(30),
			want:       "2024-04-30",
		},
		{
			name:       "december rolls into january",
			anchor:     core.NewDate(2024, 12, 10),
			dayOfMonth: intPtr(10),
			want:       "2025-01-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rule.Next(tt.anchor, core.RecurringTemplate{DayOfMonth: tt.dayOfMonth})
			if got.String() != tt.want {
				t.Errorf("MonthlyRule.Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyRule_Next(t *testing.T) {
	rule := YearlyRule{}

	tests := []struct {
		name       string
		anchor     core.Date
		dayOfMonth *int
		want       string
	}{
		{
			name:       "no day of month - anchor day carries",
			anchor:     core.NewDate(2024, 6, 15),
			dayOfMonth: nil,
			want:       "2025-06-15",
		},
		{
			name:       "clamped occurrence returns to leap day",
			anchor:     core.NewDate(2023, 2, 28),
			dayOfMonth: intPtr(29),
			want:       "2024-02-29",
		},
		{
			name:       "leap day clamps in common year",
			anchor:     core.NewDate(2024, 2, 29),
			dayOfMonth: intPtr(29),
			want:       "2025-02-28",
		},
		{
			name:       "plain anniversary",
			anchor:     core.NewDate(2024, 7, 4),
			dayOfMonth: intPtr(4),
			want:       "2025-07-04",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rule.Next(tt.anchor, core.RecurringTemplate{DayOfMonth: tt.dayOfMonth})
			if got.String() != tt.want {
				t.Errorf("YearlyRule.Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDueDateRule(t *testing.T) {
	tests := []struct {
		name      string
		frequency core.Frequency
		wantErr   bool
	}{
		{"daily", core.Daily, false},
		{"weekly", core.Weekly, false},
		{"monthly", core.Monthly, false},
		{"yearly", core.Yearly, false},
		{"unknown", core.Frequency("biweekly"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := GetDueDateRule(tt.frequency)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetDueDateRule() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && rule == nil {
				t.Error("GetDueDateRule() returned nil rule")
			}
			if tt.wantErr && !errors.Is(err, core.ErrInvalidFrequency) {
				t.Errorf("GetDueDateRule() error = %v, want ErrInvalidFrequency", err)
			}
		})
	}
}

func TestRegisterDueDateRule(t *testing.T) {
	// Create a custom rule
	customRule := DailyRule{} // Using DailyRule as a mock
	customFreq := core.Frequency("biweekly")

	// Register it
	RegisterDueDateRule(customFreq, customRule)

	// Verify it's registered
	rule, err := GetDueDateRule(customFreq)
	if err != nil {
		t.Errorf("GetDueDateRule() after register error = %v", err)
	}
	if rule == nil {
		t.Error("GetDueDateRule() returned nil after registration")
	}

	// Cleanup - remove the custom rule to avoid affecting other tests
	delete(dueDateRules, customFreq)
}

func TestNextDueDate(t *testing.T) {
	tpl := core.RecurringTemplate{Frequency: core.Monthly, DayOfMonth: intPtr(31)}
	got, err := NextDueDate(tpl, core.NewDate(2024, 1, 31))
	if err != nil {
		t.Fatalf("NextDueDate() error = %v", err)
	}
	if got.String() != "2024-02-29" {
		t.Errorf("NextDueDate() = %v, want 2024-02-29", got)
	}

	_, err = NextDueDate(core.RecurringTemplate{Frequency: "fortnightly"}, core.NewDate(2024, 1, 1))
	if !errors.Is(err, core.ErrInvalidFrequency) {
		t.Errorf("NextDueDate() error = %v, want ErrInvalidFrequency", err)
	}
}

func TestInitialDueDate(t *testing.T) {
	tests := []struct {
		name    string
		tpl     core.RecurringTemplate
		want    string
		wantErr bool
	}{
		{
			name: "daily starts on start date",
			tpl:  core.RecurringTemplate{Frequency: core.Daily, StartDate: core.NewDate(2024, 5, 1)},
			want: "2024-05-01",
		},
		{
			name: "weekly start already on weekday",
			tpl:  core.RecurringTemplate{Frequency: core.Weekly, StartDate: core.NewDate(2024, 3, 4), DayOfWeek: intPtr(1)},
			want: "2024-03-04",
		},
		{
			name: "weekly rolls forward to weekday",
			tpl:  core.RecurringTemplate{Frequency: core.Weekly, StartDate: core.NewDate(2024, 3, 6), DayOfWeek: intPtr(1)},
			want: "2024-03-11",
		},
		{
			name: "monthly target later in start month",
			tpl:  core.RecurringTemplate{Frequency: core.Monthly, StartDate: core.NewDate(2024, 1, 5), DayOfMonth: intPtr(10)},
			want: "2024-01-10",
		},
		{
			name: "monthly target already passed",
			tpl:  core.RecurringTemplate{Frequency: core.Monthly, StartDate: core.NewDate(2024, 1, 15), DayOfMonth: intPtr(10)},
			want: "2024-02-10",
		},
		{
			name: "monthly clamp in start month",
			tpl:  core.RecurringTemplate{Frequency: core.Monthly, StartDate: core.NewDate(2024, 2, 1), DayOfMonth: intPtr(31)},
			want: "2024-02-29",
		},
		{
			name: "yearly target in following year",
			tpl:  core.RecurringTemplate{Frequency: core.Yearly, StartDate: core.NewDate(2023, 3, 15), DayOfMonth: intPtr(10)},
			want: "2024-03-10",
		},
		{
			name:    "unknown frequency",
			tpl:     core.RecurringTemplate{Frequency: "fortnightly", StartDate: core.NewDate(2024, 1, 1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InitialDueDate(tt.tpl)
			if (err != nil) != tt.wantErr {
				t.Errorf("InitialDueDate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("InitialDueDate() = %v, want %v", got, tt.want)
			}
		})
	}
}
