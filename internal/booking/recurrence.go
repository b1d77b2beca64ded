package booking

import (
	"iter"
	"slices"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// Dates yields, in order, the calendar dates (midnight UTC) on which the
// series has an occurrence between StartDate and EndDate inclusive.
// Monthly series skip months that have no DayOfMonth.
func Dates(rs model.RecurringSeries) iter.Seq[time.Time] {
	first, last := midnight(rs.StartDate), midnight(rs.EndDate)
	return func(yield func(time.Time) bool) {
		if last.Before(first) {
			return
		}
		switch rs.Pattern {
		case model.RecurDaily:
			for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
				if !yield(d) {
					return
				}
			}
		case model.RecurWeekly:
			for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
				if slices.Contains(rs.Weekdays, d.Weekday()) && !yield(d) {
					return
				}
			}
		case model.RecurMonthly:
			if rs.DayOfMonth < 1 || rs.DayOfMonth > 31 {
				return
			}
			for m := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(last); m = m.AddDate(0, 1, 0) {
				d := time.Date(m.Year(), m.Month(), rs.DayOfMonth, 0, 0, 0, 0, time.UTC)
				if d.Month() != m.Month() {
					continue // e.g. the 31st in a 30 day month
				}
				if d.Before(first) || d.After(last) {
					continue
				}
				if !yield(d) {
					return
				}
			}
		}
	}
}
