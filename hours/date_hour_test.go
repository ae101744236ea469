package hours

import (
	"testing"
	"time"
)

func TestDateHourString(t *testing.T) {
	dh := DateHour{Date: "2026-01-01", Hour: 5}
	expected := "2026-01-01 05"
	if s := dh.String(); s != expected {
		t.Errorf("String() expected %q, got %q", expected, s)
	}
}

func TestFormatTimeInGuiTimezone(t *testing.T) {
	if err := SetGuiTimezone("Europe/Madrid"); err != nil {
		t.Fatalf("SetGuiTimezone() failed: %v", err)
	}
	defer SetGuiTimezone("UTC")

	ts := time.Date(2026, 1, 15, 11, 30, 0, 0, time.UTC)
	expected := "2026-01-15 12:30:00" // CET is UTC+1 in winter
	if s := FormatTimeInGuiTimezone(ts); s != expected {
		t.Errorf("FormatTimeInGuiTimezone() expected %q, got %q", expected, s)
	}
}

func TestDateHourAdd(t *testing.T) {
	tests := []struct {
		name     string
		input    DateHour
		addHours int
		expected DateHour
	}{
		{
			name:     "add within same day",
			input:    DateHour{Date: "2026-01-01", Hour: 10},
			addHours: 2,
			expected: DateHour{Date: "2026-01-01", Hour: 12},
		},
		{
			name:     "add crossing midnight",
			input:    DateHour{Date: "2026-01-01", Hour: 23},
			addHours: 2,
			expected: DateHour{Date: "2026-01-02", Hour: 1},
		},
		{
			name:     "add negative hours (subtract)",
			input:    DateHour{Date: "2026-01-01", Hour: 1},
			addHours: -2,
			expected: DateHour{Date: "2025-12-31", Hour: 23},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.input.Add(tt.addHours)
			if result != tt.expected {
				t.Errorf("Add(%d) expected %+v, got %+v", tt.addHours, tt.expected, result)
			}
		})
	}
}

func TestDateHourCompare(t *testing.T) {
	a := DateHour{Date: "2026-01-01", Hour: 10}
	b := DateHour{Date: "2026-01-01", Hour: 11}
	c := DateHour{Date: "2026-01-02", Hour: 0}

	if a.Compare(a) != 0 {
		t.Errorf("expected equal hours to compare 0")
	}
	if a.Compare(b) != -1 || b.Compare(a) != 1 {
		t.Errorf("expected hour ordering within a day")
	}
	if b.Compare(c) != -1 {
		t.Errorf("expected date ordering to win over hour")
	}
}

func TestDateHourIsZero(t *testing.T) {
	var dh DateHour
	if !dh.IsZero() {
		t.Errorf("expected a zero value DateHour to be zero")
	}
	dh = DateHour{Date: "2026-01-01", Hour: 0}
	if dh.IsZero() {
		t.Errorf("expected a non-zero DateHour (non-empty Date) not to be zero")
	}
}

func TestFromTime(t *testing.T) {
	// 15:30 UTC in winter is 16:30 in Madrid.
	tm := time.Date(2026, time.January, 1, 15, 30, 0, 0, time.UTC)
	dh := FromTime(tm)
	expected := DateHour{Date: "2026-01-01", Hour: 16}
	if dh != expected {
		t.Errorf("FromTime() expected %+v, got %+v", expected, dh)
	}

	var zero time.Time
	if !FromTime(zero).IsZero() {
		t.Errorf("FromTime() with zero time expected a zero DateHour")
	}
}
