package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation/internal/booking"
    "github.com/iliyamo/venue-reservation/internal/clock"
    "github.com/iliyamo/venue-reservation/internal/model"
)

// VenueHandler serves the availability calendar and the administrator
// operations on venues and slots.
type VenueHandler struct {
    svc   *booking.Service
    clock clock.Clock
}

func NewVenueHandler(svc *booking.Service, clk clock.Clock) *VenueHandler {
    if svc == nil || clk == nil {
        panic("nil dependency passed to NewVenueHandler")
    }
    return &VenueHandler{svc: svc, clock: clk}
}

// Availability handles GET /v1/venues/:id/slots?date=YYYY-MM-DD.  The
// date defaults to today (UTC).
func (h *VenueHandler) Availability(c echo.Context) error {
    id, ok, err := pathID(c, "id")
    if !ok {
        return err
    }
    date := h.clock.Now()
    if q := c.QueryParam("date"); q != "" {
        d, err := time.Parse(time.DateOnly, q)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
        }
        date = d
    }
    a, err := h.svc.Availability(c.Request().Context(), id, date)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, viewAvailability(a))
}

type closureRequest struct {
    From   time.Time `json:"from" validate:"required"`
    To     time.Time `json:"to" validate:"required,gtfield=From"`
    Status string    `json:"status" validate:"required,oneof=CLOSED MAINTENANCE"`
    Reason string    `json:"reason" validate:"max=500"`
}

// Closure handles POST /v1/admin/venues/:id/closure.
func (h *VenueHandler) Closure(c echo.Context) error {
    a, ok, err := actor(c)
    if !ok {
        return err
    }
    id, ok, err := pathID(c, "id")
    if !ok {
        return err
    }
    var body closureRequest
    if ok, err := bind(c, &body); !ok {
        return err
    }
    res, err := h.svc.HandleVenueClosure(c.Request().Context(), a, booking.ClosureRequest{
        VenueID: id,
        From:    body.From,
        To:      body.To,
        Status:  model.VenueStatus(body.Status),
        Reason:  body.Reason,
    })
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "cancelled_reservations":  res.Cancelled,
        "expired_waiting_entries": res.Expired,
        "slots_removed":           res.SlotsRemoved,
    })
}

// Reopen handles POST /v1/admin/venues/:id/reopen.
func (h *VenueHandler) Reopen(c echo.Context) error {
    a, ok, err := actor(c)
    if !ok {
        return err
    }
    id, ok, err := pathID(c, "id")
    if !ok {
        return err
    }
    v, err := h.svc.ReopenVenue(c.Request().Context(), a, id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"venue_id": v.ID, "status": v.Status})
}

// WaitingList handles GET /v1/slots/:id/waiting-list.
func (h *VenueHandler) WaitingList(c echo.Context) error {
    a, ok, err := actor(c)
    if !ok {
        return err
    }
    id, ok, err := pathID(c, "id")
    if !ok {
        return err
    }
    entries, err := h.svc.WaitingList(c.Request().Context(), a, id)
    if err != nil {
        return fail(c, err)
    }
    out := make([]waitingView, 0, len(entries))
    for i, e := range entries {
        v := viewWaiting(e)
        v.Position = i + 1
        out = append(out, v)
    }
    return c.JSON(http.StatusOK, echo.Map{"slot_id": id, "waiting": out})
}
