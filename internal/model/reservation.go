package model

import "time"

// ReservationStatus is a state of the reservation lifecycle.
type ReservationStatus string

const (
    StatusPending   ReservationStatus = "PENDING"
    StatusConfirmed ReservationStatus = "CONFIRMED"
    StatusCheckedIn ReservationStatus = "CHECKED_IN"
    StatusCancelled ReservationStatus = "CANCELLED"
)

// Active reports whether a reservation in this state holds capacity.
func (s ReservationStatus) Active() bool {
    return s == StatusPending || s == StatusConfirmed || s == StatusCheckedIn
}

// Terminal reports whether no further transitions are allowed.
func (s ReservationStatus) Terminal() bool {
    return s == StatusCancelled || s == StatusCheckedIn
}

// Reservation records one user's claim on one capacity unit of a time
// slot.  The requested interval may be a sub-interval of the slot.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – owner of the reservation.
//  VenueID        – venue being reserved.
//  SlotID         – slot whose capacity unit is held.
//  Status         – PENDING, CONFIRMED, CHECKED_IN or CANCELLED.
//  StartsAt       – requested start (UTC).
//  EndsAt         – requested end (UTC).
//  SlotStartsAt   – start of the backing slot; drives every deadline.
//  SeriesID       – recurring series that generated it, if any.
//  CreatedAt      – creation timestamp.
//  ConfirmedAt    – when it became CONFIRMED.
//  CancelledAt    – when it became CANCELLED.
//  CheckedInAt    – when it became CHECKED_IN.
//  ReminderSentAt – when the pre-start reminder went out.
type Reservation struct {
    ID             uint64            // reservations.id
    UserID         uint64            // reservations.user_id
    VenueID        uint64            // reservations.venue_id
    SlotID         uint64            // reservations.slot_id
    Status         ReservationStatus // reservations.status
    StartsAt       time.Time         // reservations.starts_at
    EndsAt         time.Time         // reservations.ends_at
    SlotStartsAt   time.Time         // reservations.slot_starts_at
    SeriesID       *uint64           // reservations.series_id (nullable)
    CreatedAt      time.Time         // reservations.created_at
    ConfirmedAt    *time.Time        // reservations.confirmed_at (nullable)
    CancelledAt    *time.Time        // reservations.cancelled_at (nullable)
    CheckedInAt    *time.Time        // reservations.checked_in_at (nullable)
    ReminderSentAt *time.Time        // reservations.reminder_sent_at (nullable)
}

// Duration is the length of the requested interval.
func (r Reservation) Duration() time.Duration { return r.EndsAt.Sub(r.StartsAt) }
