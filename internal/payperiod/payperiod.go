// Package payperiod maps calendar dates onto semi-monthly pay periods.
//
// Every date belongs to exactly one period, periods are contiguous and
// non-overlapping, and the same date always yields the same period key no
// matter which caller asks. The functions here are pure; persistence of
// periods is the ledger's concern.
package payperiod

import "time"

// Anchor configures how pay dates are derived from a work period.
type Anchor struct {
	// PayDelayDays is the number of days after the last work day of the
	// period on which compensation is disbursed.
	PayDelayDays int
}

// DefaultAnchor pays five days after the period closes: the first half of a
// month pays on the 20th, the second half on the 5th of the next month.
var DefaultAnchor = Anchor{PayDelayDays: 5}

// Period is one semi-monthly pay cycle. WorkStart/WorkEnd form a half-open
// range [WorkStart, WorkEnd); Key is derived from the pay date so concurrent
// callers converge on the same identifier.
type Period struct {
	Key       string
	WorkStart time.Time
	WorkEnd   time.Time
	PayDate   time.Time
}

// Contains reports whether the date falls inside the work range.
func (p Period) Contains(date time.Time) bool {
	d := dateOnly(date)
	return !d.Before(p.WorkStart) && d.Before(p.WorkEnd)
}

// For returns the period enclosing the given date. First half: the 1st
// through the 15th. Second half: the 16th through month end.
func For(date time.Time, anchor Anchor) Period {
	d := dateOnly(date)
	year, month, day := d.Date()

	var start, end time.Time
	if day <= 15 {
		start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(year, month, 16, 0, 0, 0, 0, time.UTC)
	} else {
		start = time.Date(year, month, 16, 0, 0, 0, 0, time.UTC)
		end = time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	}

	lastWorkDay := end.AddDate(0, 0, -1)
	payDate := lastWorkDay.AddDate(0, 0, anchor.PayDelayDays)

	return Period{
		Key:       payDate.Format("2006-01-02"),
		WorkStart: start,
		WorkEnd:   end,
		PayDate:   payDate,
	}
}

// ByKey resolves a period key (the pay date, formatted YYYY-MM-DD) back to
// its period. The second return is false when the string does not parse or
// does not land on an actual pay date under the anchor.
func ByKey(key string, anchor Anchor) (Period, bool) {
	payDate, err := time.Parse("2006-01-02", key)
	if err != nil {
		return Period{}, false
	}
	// The last work day precedes the pay date by the configured delay and
	// always lies inside the period in question.
	p := For(payDate.AddDate(0, 0, -anchor.PayDelayDays), anchor)
	if p.Key != key {
		return Period{}, false
	}
	return p, true
}

// Range returns every distinct period whose work range intersects
// [from, to], in chronological order.
func Range(from, to time.Time, anchor Anchor) []Period {
	start := dateOnly(from)
	stop := dateOnly(to)
	if stop.Before(start) {
		return nil
	}

	var periods []Period
	cursor := start
	for !cursor.After(stop) {
		p := For(cursor, anchor)
		periods = append(periods, p)
		cursor = p.WorkEnd
	}
	return periods
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
