package middleware // middleware holds the reusable HTTP middleware of the API

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation/internal/clock"
    "github.com/iliyamo/venue-reservation/internal/token"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the actor it identifies on the context.  Check-in tokens are
// rejected here; they are only accepted by the check-in endpoint.
func JWTAuth(secret string, clk clock.Clock) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            actor, err := token.ParseAccess(secret, clk, raw)
            if err != nil {
                msg := "invalid token"
                if errors.Is(err, token.ErrExpired) {
                    msg = "token expired"
                }
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
            }
            SetActor(c, actor)
            return next(c)
        }
    }
}
