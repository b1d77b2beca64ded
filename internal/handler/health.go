package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Health answers load balancer probes.  When ping is set it must succeed
// within two seconds for the service to report healthy.
func Health(ping func(ctx context.Context) error) echo.HandlerFunc {
    return func(c echo.Context) error {
        if ping != nil {
            ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
            defer cancel()
            if err := ping(ctx); err != nil {
                c.Logger().Warnf("health: %v", err)
                return c.String(http.StatusServiceUnavailable, "unavailable")
            }
        }
        return c.String(http.StatusOK, "ok")
    }
}
