package model

import "time"

// BookingRule limits how a role may book a venue.  A zero Max* value
// means the corresponding quota is not enforced.
type BookingRule struct {
    ID             uint64        // booking_rules.id
    VenueID        uint64        // booking_rules.venue_id
    Role           Role          // booking_rules.role
    MinDuration    time.Duration // booking_rules.min_duration_min
    MaxDuration    time.Duration // booking_rules.max_duration_min
    MaxPerDay      int           // booking_rules.max_daily
    MaxPerWeek     int           // booking_rules.max_weekly
    MaxPerMonth    int           // booking_rules.max_monthly
}
