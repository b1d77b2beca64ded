package repository

import (
	"context"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// Queries are the read operations available both on the Store and
// inside a transaction.  None of them take locks.
type Queries interface {
	GetVenue(ctx context.Context, id uint64) (model.Venue, error)
	ListOpenVenues(ctx context.Context) ([]model.Venue, error)

	GetSlot(ctx context.Context, id uint64) (model.TimeSlot, error)
	FindSlot(ctx context.Context, venueID uint64, start, end time.Time) (model.TimeSlot, error)
	// ListSlotsOverlapping returns the slots of a venue whose interval
	// overlaps [from, to), ordered by start.
	ListSlotsOverlapping(ctx context.Context, venueID uint64, from, to time.Time) ([]model.TimeSlot, error)

	ListBlockedIntervals(ctx context.Context, venueID uint64, weekday time.Weekday) ([]model.BlockedInterval, error)
	GetBookingRule(ctx context.Context, venueID uint64, role model.Role) (model.BookingRule, error)

	GetReservation(ctx context.Context, id uint64) (model.Reservation, error)
	// CountActiveReservations counts the user's non-cancelled reservations
	// at a venue whose requested start falls in [from, to).
	CountActiveReservations(ctx context.Context, userID, venueID uint64, from, to time.Time) (int, error)
	ListReservationsBySlot(ctx context.Context, slotID uint64) ([]model.Reservation, error)
	// ListReservationsStartingBetween returns reservations in status whose
	// slot starts in [from, to], ordered by slot start.
	ListReservationsStartingBetween(ctx context.Context, status model.ReservationStatus, from, to time.Time) ([]model.Reservation, error)

	// ListWaitingEntries returns the non-expired entries of a slot in
	// promotion order.
	ListWaitingEntries(ctx context.Context, slotID uint64) ([]model.WaitingEntry, error)
	// ListStaleWaitingEntries returns non-expired entries whose slot
	// starts before the given time.
	ListStaleWaitingEntries(ctx context.Context, before time.Time) ([]model.WaitingEntry, error)
}

// Tx is a unit of work.  Methods ending in ForUpdate take an exclusive
// row lock that is held until the transaction commits or rolls back.  A
// lock that cannot be obtained in time yields ErrLockTimeout.
type Tx interface {
	Queries

	GetSlotForUpdate(ctx context.Context, id uint64) (model.TimeSlot, error)
	// FindOrCreateSlotForUpdate locks the slot (venueID, start, end),
	// creating it with remaining = capacity when it does not exist yet.
	FindOrCreateSlotForUpdate(ctx context.Context, venueID uint64, start, end time.Time, capacity int) (model.TimeSlot, error)
	// EnsureSlot creates the slot when missing and reports whether it did.
	// It does not lock an existing row.
	EnsureSlot(ctx context.Context, venueID uint64, start, end time.Time, capacity int) (bool, error)
	ListSlotsForUpdate(ctx context.Context, venueID uint64, from, to time.Time) ([]model.TimeSlot, error)
	// ListSlotsOverlappingForUpdate locks, in id order, every slot of the
	// venue whose interval overlaps [from, to).
	ListSlotsOverlappingForUpdate(ctx context.Context, venueID uint64, from, to time.Time) ([]model.TimeSlot, error)
	UpdateSlotRemaining(ctx context.Context, slotID uint64, remaining int) error
	DeleteSlots(ctx context.Context, ids []uint64) error

	GetReservationForUpdate(ctx context.Context, id uint64) (model.Reservation, error)
	InsertReservation(ctx context.Context, r *model.Reservation) error
	// UpdateReservation persists status and lifecycle timestamps.
	UpdateReservation(ctx context.Context, r model.Reservation) error

	FindActiveWaitingEntry(ctx context.Context, slotID, userID uint64) (model.WaitingEntry, error)
	InsertWaitingEntry(ctx context.Context, e *model.WaitingEntry) error
	// NextWaitingEntryForUpdate locks and returns the oldest non-expired
	// entry of the slot.
	NextWaitingEntryForUpdate(ctx context.Context, slotID uint64) (model.WaitingEntry, error)
	DeleteWaitingEntry(ctx context.Context, id uint64) error
	// ExpireWaitingEntry flags an entry as expired and reports whether it
	// was still active.
	ExpireWaitingEntry(ctx context.Context, id uint64) (bool, error)

	// LockQuota serializes the creates of one user at one venue so that
	// quota counts cannot be raced.  It is taken before any slot lock.
	LockQuota(ctx context.Context, userID, venueID uint64) error

	InsertSeries(ctx context.Context, s *model.RecurringSeries) error
	SetVenueStatus(ctx context.Context, venueID uint64, status model.VenueStatus) error
}

// Store is the entry point of the gateway.
type Store interface {
	Queries

	// WithTx runs fn inside a transaction.  The transaction commits when
	// fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
