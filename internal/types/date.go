package types

import (
	"time"
)

// AddClampedMonths advances t by the given number of calendar months, clamping
// the day-of-month to the last valid day of the target month. For example
// Jan 31 + 1 month lands on Feb 28 (or Feb 29 in a leap year), not Mar 2/3,
// which is what time.AddDate would produce.
func AddClampedMonths(t time.Time, months int) time.Time {
	return AddClampedDate(t, 0, months, 0)
}

// AddClampedDate advances t by years/months/days with day-of-month clamping
// on the month arithmetic.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	// If we move beyond December, it adjusts correctly,
	// for example adding 2 months to November will land on January next year.
	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	// Find the last valid day of the new month
	firstOfNextMonth := time.Date(newY, newM+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNextMonth.Add(-24 * time.Hour).Day()

	newD := d + days
	if newD > lastDay {
		newD = lastDay
	}

	return time.Date(newY, newM, newD, h, min, sec, t.Nanosecond(), t.Location())
}

// MonthsBetweenCeil returns the window length in whole calendar months,
// rounding a partial month up. Counting in calendar months rather than 30-day
// blocks keeps month-boundary windows exact: Mar 1 to May 1 is two months,
// not ceil(61/30) = 3.
func MonthsBetweenCeil(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	months := 0
	date := start
	for date.Before(end) {
		date = AddClampedMonths(date, 1)
		months++
	}
	return months
}

// DateOnly truncates t to midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
