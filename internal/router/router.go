package router // package router defines how HTTP routes are registered for the API

import (
    "context"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation/internal/clock"
    "github.com/iliyamo/venue-reservation/internal/handler"
    "github.com/iliyamo/venue-reservation/internal/middleware"
    "github.com/iliyamo/venue-reservation/internal/model"
)

// Auth carries what the protected groups need to authenticate callers.
type Auth struct {
    Secret string
    Clock  clock.Clock
}

func (a Auth) jwt() echo.MiddlewareFunc { return middleware.JWTAuth(a.Secret, a.Clock) }

// RegisterRoutes registers the unauthenticated health check.
func RegisterRoutes(e *echo.Echo, ping func(ctx context.Context) error) {
    e.GET("/healthz", handler.Health(ping))
}

// RegisterPublic registers the routes guests may call: the availability
// calendar, served through the response cache, and token check-in.
func RegisterPublic(e *echo.Echo, v *handler.VenueHandler, r *handler.ReservationHandler, cache echo.MiddlewareFunc) {
    e.GET("/v1/venues/:id/slots", v.Availability, cache)
    e.POST("/v1/check-in", r.CheckInWithToken)
}

// RegisterReservations registers the reservation lifecycle under
// /v1/reservations.  Any authenticated role may call them; ownership is
// checked by the service.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, auth Auth, limiter echo.MiddlewareFunc) {
    g := e.Group("/v1/reservations", auth.jwt(), limiter)
    g.POST("", h.Create)
    g.GET("/:id", h.Get)
    g.POST("/:id/confirm", h.Confirm)
    g.POST("/:id/cancel", h.Cancel)
    g.POST("/:id/check-in", h.CheckIn)
    g.POST("/:id/check-in-token", h.IssueCheckInToken)
}

// RegisterAdmin registers the ADMIN-only routes.
func RegisterAdmin(e *echo.Echo, v *handler.VenueHandler, auth Auth) {
    g := e.Group("/v1", auth.jwt(), middleware.RequireRole(model.RoleAdmin))
    g.GET("/slots/:id/waiting-list", v.WaitingList)
    g.POST("/admin/venues/:id/closure", v.Closure)
    g.POST("/admin/venues/:id/reopen", v.Reopen)
}
