package model

import "time"

// RecurrencePattern selects how a series repeats.
type RecurrencePattern string

const (
    RecurDaily   RecurrencePattern = "DAILY"
    RecurWeekly  RecurrencePattern = "WEEKLY"
    RecurMonthly RecurrencePattern = "MONTHLY"
)

// RecurringSeries owns the reservations generated from one recurrence
// pattern.  Weekdays is only used by WEEKLY series and DayOfMonth only
// by MONTHLY series.  StartTime and EndTime are offsets from midnight.
type RecurringSeries struct {
    ID         uint64            // recurring_series.id
    UserID     uint64            // recurring_series.user_id
    VenueID    uint64            // recurring_series.venue_id
    Pattern    RecurrencePattern // recurring_series.pattern
    StartDate  time.Time         // recurring_series.start_date
    EndDate    time.Time         // recurring_series.end_date
    Weekdays   []time.Weekday    // recurring_series.weekdays (comma separated)
    DayOfMonth int               // recurring_series.day_of_month
    StartTime  time.Duration     // recurring_series.start_offset_min
    EndTime    time.Duration     // recurring_series.end_offset_min
    CreatedAt  time.Time         // recurring_series.created_at
}
