package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddClampedMonths(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		months   int
		expected time.Time
	}{
		{
			name:     "mid month is untouched",
			start:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			months:   1,
			expected: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "jan 31 clamps to leap feb 29",
			start:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months:   1,
			expected: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "jan 31 clamps to feb 28 outside leap years",
			start:    time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
			months:   1,
			expected: time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "two months from jan 31 lands on mar 31",
			start:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months:   2,
			expected: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "crosses year boundary",
			start:    time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC),
			months:   3,
			expected: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "twelve months keeps the day",
			start:    time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			months:   12,
			expected: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AddClampedMonths(tt.start, tt.months))
		})
	}
}

func TestAddClampedMonthsStepping(t *testing.T) {
	// Stepping month by month carries a clamped day forward: Jan 31 becomes
	// Feb 29 and stays on the 29th from then on.
	date := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	date = AddClampedMonths(date, 1)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), date)

	date = AddClampedMonths(date, 1)
	assert.Equal(t, time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC), date)

	date = AddClampedMonths(date, 1)
	assert.Equal(t, time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC), date)
}

func TestMonthsBetweenCeil(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		end      time.Time
		expected int
	}{
		{
			name:     "end before start is zero",
			end:      start.AddDate(0, 0, -5),
			expected: 0,
		},
		{
			name:     "same instant is zero",
			end:      start,
			expected: 0,
		},
		{
			name:     "partial month rounds up",
			end:      start.AddDate(0, 0, 10),
			expected: 1,
		},
		{
			name:     "exactly one calendar month",
			end:      time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			expected: 1,
		},
		{
			name:     "one month and a day rounds up",
			end:      time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
			expected: 2,
		},
		{
			name:     "two calendar months",
			end:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MonthsBetweenCeil(start, tt.end))
		})
	}
}

func TestDateOnly(t *testing.T) {
	ts := time.Date(2024, 6, 15, 17, 42, 9, 120, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), DateOnly(ts))

	// Non-UTC inputs normalize to the UTC calendar day.
	loc := time.FixedZone("UTC+5", 5*3600)
	early := time.Date(2024, 6, 15, 2, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), DateOnly(early))
}
