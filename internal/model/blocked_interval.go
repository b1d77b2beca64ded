package model

import "time"

// BlockedInterval is administrator-reserved time at a venue that repeats
// every week on Weekday.  Start and End are offsets from midnight.
type BlockedInterval struct {
    ID      uint64        // blocked_intervals.id
    VenueID uint64        // blocked_intervals.venue_id
    UserID  uint64        // blocked_intervals.user_id (administrator who blocked it)
    Weekday time.Weekday  // blocked_intervals.day_of_week (0=Sunday)
    Start   time.Duration // blocked_intervals.start_offset_min
    End     time.Duration // blocked_intervals.end_offset_min
}

// On returns the concrete interval of the block on the given date.
func (b BlockedInterval) On(date time.Time) (time.Time, time.Time) {
    y, m, d := date.UTC().Date()
    midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
    return midnight.Add(b.Start), midnight.Add(b.End)
}
