package handler

import (
    "time"

    "github.com/iliyamo/venue-reservation/internal/booking"
    "github.com/iliyamo/venue-reservation/internal/model"
)

// JSON shapes returned by the API.

type reservationView struct {
    ID           uint64     `json:"id"`
    UserID       uint64     `json:"user_id"`
    VenueID      uint64     `json:"venue_id"`
    SlotID       uint64     `json:"slot_id"`
    Status       string     `json:"status"`
    StartsAt     time.Time  `json:"starts_at"`
    EndsAt       time.Time  `json:"ends_at"`
    SlotStartsAt time.Time  `json:"slot_starts_at"`
    SeriesID     *uint64    `json:"series_id,omitempty"`
    CreatedAt    time.Time  `json:"created_at"`
    ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
    CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
    CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
}

func viewReservation(r model.Reservation) reservationView {
    return reservationView{
        ID: r.ID, UserID: r.UserID, VenueID: r.VenueID, SlotID: r.SlotID,
        Status: string(r.Status), StartsAt: r.StartsAt, EndsAt: r.EndsAt, SlotStartsAt: r.SlotStartsAt,
        SeriesID: r.SeriesID, CreatedAt: r.CreatedAt,
        ConfirmedAt: r.ConfirmedAt, CancelledAt: r.CancelledAt, CheckedInAt: r.CheckedInAt,
    }
}

type waitingView struct {
    ID        uint64    `json:"id"`
    UserID    uint64    `json:"user_id"`
    SlotID    uint64    `json:"slot_id"`
    StartsAt  time.Time `json:"starts_at"`
    EndsAt    time.Time `json:"ends_at"`
    CreatedAt time.Time `json:"created_at"`
    Position  int       `json:"position,omitempty"`
}

func viewWaiting(e model.WaitingEntry) waitingView {
    return waitingView{ID: e.ID, UserID: e.UserID, SlotID: e.SlotID, StartsAt: e.StartsAt, EndsAt: e.EndsAt, CreatedAt: e.CreatedAt}
}

type occurrenceView struct {
    StartsAt     time.Time        `json:"starts_at"`
    EndsAt       time.Time        `json:"ends_at"`
    Result       string           `json:"result"` // reserved, waitlisted or failed
    Reservation  *reservationView `json:"reservation,omitempty"`
    WaitingEntry *waitingView     `json:"waiting_entry,omitempty"`
    Error        string           `json:"error,omitempty"`
}

func viewOutcome(o booking.Outcome) occurrenceView {
    v := occurrenceView{StartsAt: o.Start, EndsAt: o.End}
    switch {
    case o.Err != nil:
        v.Result = "failed"
        v.Error = o.Err.Error()
    case o.Waitlisted():
        v.Result = "waitlisted"
        w := viewWaiting(*o.Waiting)
        v.WaitingEntry = &w
    default:
        v.Result = "reserved"
        r := viewReservation(*o.Reservation)
        v.Reservation = &r
    }
    return v
}

type slotView struct {
    ID        uint64    `json:"id"`
    StartsAt  time.Time `json:"starts_at"`
    EndsAt    time.Time `json:"ends_at"`
    Capacity  int       `json:"capacity"`
    Remaining int       `json:"remaining"`
}

type blockView struct {
    StartsAt time.Time `json:"starts_at"`
    EndsAt   time.Time `json:"ends_at"`
}

type availabilityView struct {
    VenueID uint64      `json:"venue_id"`
    Venue   string      `json:"venue"`
    Status  string      `json:"status"`
    Date    string      `json:"date"`
    Slots   []slotView  `json:"slots"`
    Blocks  []blockView `json:"blocked"`
}

func viewAvailability(a booking.Availability) availabilityView {
    v := availabilityView{
        VenueID: a.Venue.ID, Venue: a.Venue.Name, Status: string(a.Venue.Status),
        Date:   a.Date.Format(time.DateOnly),
        Slots:  make([]slotView, 0, len(a.Slots)),
        Blocks: make([]blockView, 0, len(a.Blocks)),
    }
    for _, s := range a.Slots {
        v.Slots = append(v.Slots, slotView{ID: s.ID, StartsAt: s.StartsAt, EndsAt: s.EndsAt, Capacity: s.Capacity, Remaining: s.Remaining})
    }
    for _, b := range a.Blocks {
        start, end := b.On(a.Date)
        v.Blocks = append(v.Blocks, blockView{StartsAt: start, EndsAt: end})
    }
    return v
}
