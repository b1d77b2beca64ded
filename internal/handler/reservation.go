package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation/internal/booking"
    "github.com/iliyamo/venue-reservation/internal/model"
)

// ReservationHandler exposes the reservation lifecycle.  Every route
// except CheckInWithToken runs behind JWTAuth.
type ReservationHandler struct {
    svc *booking.Service
}

// NewReservationHandler panics on a nil service.
func NewReservationHandler(svc *booking.Service) *ReservationHandler {
    if svc == nil {
        panic("nil service passed to NewReservationHandler")
    }
    return &ReservationHandler{svc: svc}
}

type recurrenceRequest struct {
    Pattern    string    `json:"pattern" validate:"required,oneof=DAILY WEEKLY MONTHLY"`
    Until      time.Time `json:"until" validate:"required"`
    Weekdays   []int     `json:"weekdays" validate:"omitempty,dive,gte=0,lte=6"`
    DayOfMonth int       `json:"day_of_month" validate:"gte=0,lte=31"`
}

type createReservationRequest struct {
    VenueID    uint64             `json:"venue_id" validate:"required"`
    StartsAt   time.Time          `json:"starts_at" validate:"required"`
    EndsAt     time.Time          `json:"ends_at" validate:"required,gtfield=StartsAt"`
    Recurrence *recurrenceRequest `json:"recurrence"`
}

// Create handles POST /v1/reservations.  A single booking answers 201
// with the reservation, or 202 with the waiting entry when the slot is
// full.  A recurring booking answers 201 with one result per occurrence.
func (h *ReservationHandler) Create(c echo.Context) error {
    a, ok, err := actor(c)
    if !ok {
        return err
    }
    var body createReservationRequest
    if ok, err := bind(c, &body); !ok {
        return err
    }
    req := booking.CreateRequest{Actor: a, VenueID: body.VenueID, Start: body.StartsAt, End: body.EndsAt}
    if rr := body.Recurrence; rr != nil {
        rec := &booking.Recurrence{Pattern: model.RecurrencePattern(rr.Pattern), Until: rr.Until, DayOfMonth: rr.DayOfMonth}
        for _, d := range rr.Weekdays {
            rec.Weekdays = append(rec.Weekdays, time.Weekday(d))
        }
        req.Recurrence = rec
    }

    res, err := h.svc.Create(c.Request().Context(), req)
    if err != nil {
        return fail(c, err)
    }
    if res.Series != nil {
        occ := make([]occurrenceView, 0, len(res.Outcomes))
        for _, o := range res.Outcomes {
            occ = append(occ, viewOutcome(o))
        }
        return c.JSON(http.StatusCreated, echo.Map{"series_id": res.Series.ID, "occurrences": occ})
    }
    o := res.Outcomes[0]
    if o.Waitlisted() {
        return c.JSON(http.StatusAccepted, echo.Map{"waiting_entry": viewWaiting(*o.Waiting)})
    }
    return c.JSON(http.StatusCreated, echo.Map{"reservation": viewReservation(*o.Reservation)})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
    return h.transition(c, h.svc.Get)
}

// Confirm handles POST /v1/reservations/:id/confirm.
func (h *ReservationHandler) Confirm(c echo.Context) error {
    return h.transition(c, h.svc.Confirm)
}

// CheckIn handles POST /v1/reservations/:id/check-in.
func (h *ReservationHandler) CheckIn(c echo.Context) error {
    return h.transition(c, h.svc.CheckIn)
}

func (h *ReservationHandler) transition(c echo.Context, op func(ctx context.Context, a model.Actor, id uint64) (model.Reservation, error)) error {
    a, ok, err := actor(c)
    if !ok {
        return err
    }
    id, ok, err := pathID(c, "id")
    if !ok {
        return err
    }
    r, err := op(c.Request().Context(), a, id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation": viewReservation(r)})
}

// Cancel handles POST /v1/reservations/:id/cancel.  The response names
// the reservation promoted from the waiting list, if any.
func (h *ReservationHandler) Cancel(c echo.Context) error {
    a, ok, err := actor(c)
    if !ok {
        return err
    }
    id, ok, err := pathID(c, "id")
    if !ok {
        return err
    }
    res, err := h.svc.Cancel(c.Request().Context(), a, id)
    if err != nil {
        return fail(c, err)
    }
    out := echo.Map{"reservation": viewReservation(res.Reservation)}
    if res.Promoted != nil {
        out["promoted_reservation_id"] = res.Promoted.ID
    }
    return c.JSON(http.StatusOK, out)
}

// IssueCheckInToken handles POST /v1/reservations/:id/check-in-token.
func (h *ReservationHandler) IssueCheckInToken(c echo.Context) error {
    a, ok, err := actor(c)
    if !ok {
        return err
    }
    id, ok, err := pathID(c, "id")
    if !ok {
        return err
    }
    tok, exp, err := h.svc.IssueCheckInToken(c.Request().Context(), a, id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"token": tok, "expires_at": exp})
}

type checkInRequest struct {
    Token string `json:"token" validate:"required"`
}

// CheckInWithToken handles POST /v1/check-in.  It needs no session; the
// token itself identifies the reservation and its owner.
func (h *ReservationHandler) CheckInWithToken(c echo.Context) error {
    var body checkInRequest
    if ok, err := bind(c, &body); !ok {
        return err
    }
    r, err := h.svc.CheckInWithToken(c.Request().Context(), body.Token)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation": viewReservation(r)})
}
