package handler // handler defines the HTTP handlers of the reservation API

import (
    "context"
    "errors"
    "net/http"
    "strconv"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation/internal/apperror"
    "github.com/iliyamo/venue-reservation/internal/middleware"
    "github.com/iliyamo/venue-reservation/internal/model"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
    v *validator.Validate
}

func NewValidator() *Validator { return &Validator{v: validator.New()} }

func (cv *Validator) Validate(i any) error { return cv.v.Struct(i) }

// bind decodes and validates the request body.  Failures are written as
// 400 responses; ok is false when the handler should return.
func bind(c echo.Context, dst any) (ok bool, err error) {
    if err := c.Bind(dst); err != nil {
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(dst); err != nil {
        var ve validator.ValidationErrors
        if errors.As(err, &ve) && len(ve) > 0 {
            return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid field " + ve[0].Field() + ": " + ve[0].Tag()})
        }
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    return true, nil
}

// fail writes err with the status of its kind.  Internal errors are
// logged and answered with a generic message.
func fail(c echo.Context, err error) error {
    if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request cancelled"})
    }
    kind := apperror.KindOf(err)
    if kind == apperror.KindInternal {
        c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    var ae *apperror.Error
    errors.As(err, &ae)
    return c.JSON(kind.HTTPStatus(), echo.Map{"error": ae.Msg, "kind": kind.String()})
}

// actor returns the authenticated caller or writes a 401.
func actor(c echo.Context) (model.Actor, bool, error) {
    a, ok := middleware.ActorFrom(c)
    if !ok {
        return model.Actor{}, false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    return a, true, nil
}

// pathID parses a positive numeric path parameter or writes a 400.
func pathID(c echo.Context, name string) (uint64, bool, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + name})
    }
    return id, true, nil
}
