package model

import "time"

// TimeSlot is a bookable interval at a venue carrying its own capacity
// counter.  (venue_id, starts_at, ends_at) is unique.  Remaining is the
// ledger's state and always satisfies 0 <= Remaining <= Capacity.
//
// Fields:
//  ID        – primary key identifier.
//  VenueID   – venue the slot belongs to.
//  StartsAt  – slot start (UTC).
//  EndsAt    – slot end (UTC).
//  Capacity  – venue default capacity at the time the slot was created.
//  Remaining – units still available.
type TimeSlot struct {
    ID        uint64    // time_slots.id
    VenueID   uint64    // time_slots.venue_id
    StartsAt  time.Time // time_slots.starts_at
    EndsAt    time.Time // time_slots.ends_at
    Capacity  int       // time_slots.capacity
    Remaining int       // time_slots.remaining
}

// Date returns the calendar date of the slot at midnight UTC.
func (s TimeSlot) Date() time.Time {
    y, m, d := s.StartsAt.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Held returns the number of capacity units currently taken.
func (s TimeSlot) Held() int { return s.Capacity - s.Remaining }
