package repository

import (
	"context"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// GetBookingRule returns the rule for a (venue, role) pair.
func (r *queries) GetBookingRule(ctx context.Context, venueID uint64, role model.Role) (model.BookingRule, error) {
	var (
		rule           model.BookingRule
		roleName       string
		minMin, maxMin int
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT id, venue_id, role, min_duration_min, max_duration_min, max_daily, max_weekly, max_monthly
		 FROM booking_rules WHERE venue_id = ? AND role = ? LIMIT 1`,
		venueID, string(role)).Scan(
		&rule.ID, &rule.VenueID, &roleName, &minMin, &maxMin, &rule.MaxPerDay, &rule.MaxPerWeek, &rule.MaxPerMonth)
	if err != nil {
		return model.BookingRule{}, notFound(err)
	}
	rule.Role = model.Role(roleName)
	rule.MinDuration = time.Duration(minMin) * time.Minute
	rule.MaxDuration = time.Duration(maxMin) * time.Minute
	return rule, nil
}

// ListBlockedIntervals returns the administrator blocks of a venue on a weekday.
func (r *queries) ListBlockedIntervals(ctx context.Context, venueID uint64, weekday time.Weekday) ([]model.BlockedInterval, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, venue_id, user_id, day_of_week, start_offset_min, end_offset_min
		 FROM blocked_intervals WHERE venue_id = ? AND day_of_week = ?
		 ORDER BY start_offset_min`, venueID, int(weekday))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []model.BlockedInterval
	for rows.Next() {
		var (
			b              model.BlockedInterval
			day            int
			startM, endMin int
		)
		if err := rows.Scan(&b.ID, &b.VenueID, &b.UserID, &day, &startM, &endMin); err != nil {
			return nil, err
		}
		b.Weekday = time.Weekday(day)
		b.Start = time.Duration(startM) * time.Minute
		b.End = time.Duration(endMin) * time.Minute
		out = append(out, b)
	}
	return out, classify(rows.Err())
}

// LockQuota upserts the (user, venue) quota row, which leaves it
// exclusively locked until the transaction ends.
func (r *queries) LockQuota(ctx context.Context, userID, venueID uint64) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO quota_locks (user_id, venue_id) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE user_id = user_id`, userID, venueID)
	return classify(err)
}
