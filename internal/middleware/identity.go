package middleware

// identity.go holds the helpers that move the authenticated actor in and
// out of the Echo context.  JWTAuth stores it; handlers, RequireRole and
// the rate limiter read it back.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation/internal/model"
)

const actorKey = "actor"

// SetActor stores the authenticated actor, together with the plain
// user_id and role values older handlers read.
func SetActor(c echo.Context, a model.Actor) {
    c.Set(actorKey, a)
    c.Set("user_id", strconv.FormatUint(a.UserID, 10))
    c.Set("role", string(a.Role))
}

// ActorFrom returns the actor set by JWTAuth.
func ActorFrom(c echo.Context) (model.Actor, bool) {
    a, ok := c.Get(actorKey).(model.Actor)
    return a, ok
}

// userID returns the caller's id for keying, or "anon" on public routes.
func userID(c echo.Context) string {
    if a, ok := ActorFrom(c); ok {
        return strconv.FormatUint(a.UserID, 10)
    }
    return "anon"
}
