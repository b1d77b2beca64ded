package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// InsertSeries stores a recurring series.  Weekdays are persisted as a
// comma separated list of day numbers (0=Sunday).
func (r *queries) InsertSeries(ctx context.Context, s *model.RecurringSeries) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO recurring_series
		 (user_id, venue_id, pattern, start_date, end_date, weekdays, day_of_month, start_offset_min, end_offset_min, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UserID, s.VenueID, string(s.Pattern), s.StartDate.UTC(), s.EndDate.UTC(), encodeWeekdays(s.Weekdays),
		s.DayOfMonth, int(s.StartTime/time.Minute), int(s.EndTime/time.Minute), s.CreatedAt.UTC())
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return classify(err)
	}
	s.ID = uint64(id)
	return nil
}

func encodeWeekdays(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}
