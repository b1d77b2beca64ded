package booking

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/venue-reservation/internal/apperror"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

// RuleRequest is the input of EvaluateRules.
type RuleRequest struct {
	UserID  uint64
	Role    model.Role
	VenueID uint64
	Start   time.Time
	End     time.Time
}

// quotaWindow is one calendar period a quota is counted over.
type quotaWindow struct {
	name     string
	from, to time.Time
	max      int
}

// EvaluateRules applies the venue's booking rule for the caller's role:
// the requested duration must lie within [MinDuration, MaxDuration] and
// the user must have fewer than MaxPerDay/Week/Month non-cancelled
// reservations at the venue in the day, ISO week and month containing
// the requested start.  A venue without a rule for the role is
// unrestricted.  It only reads.
func EvaluateRules(ctx context.Context, q repository.Queries, req RuleRequest) error {
	rule, err := q.GetBookingRule(ctx, req.VenueID, req.Role)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	d := req.End.Sub(req.Start)
	if rule.MinDuration > 0 && d < rule.MinDuration {
		return apperror.New(apperror.KindValidation, "duration %s is below the minimum of %s", d, rule.MinDuration)
	}
	if rule.MaxDuration > 0 && d > rule.MaxDuration {
		return apperror.New(apperror.KindValidation, "duration %s exceeds the maximum of %s", d, rule.MaxDuration)
	}

	for _, w := range quotaWindows(req.Start, rule) {
		if w.max <= 0 {
			continue
		}
		n, err := q.CountActiveReservations(ctx, req.UserID, req.VenueID, w.from, w.to)
		if err != nil {
			return err
		}
		if n >= w.max {
			return apperror.New(apperror.KindQuotaExceeded, "%s limit of %d reservations reached", w.name, w.max)
		}
	}
	return nil
}

func quotaWindows(t time.Time, rule model.BookingRule) []quotaWindow {
	day := midnight(t)
	// ISO weeks start on Monday.
	offset := (int(day.Weekday()) + 6) % 7
	week := day.AddDate(0, 0, -offset)
	month := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	return []quotaWindow{
		{name: "daily", from: day, to: day.AddDate(0, 0, 1), max: rule.MaxPerDay},
		{name: "weekly", from: week, to: week.AddDate(0, 0, 7), max: rule.MaxPerWeek},
		{name: "monthly", from: month, to: month.AddDate(0, 1, 0), max: rule.MaxPerMonth},
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
