package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/campusevents/campus-events/internal/middleware"
	"github.com/campusevents/campus-events/internal/service"
	"github.com/campusevents/campus-events/internal/web"
	"github.com/labstack/echo/v4"
)

func parseID(c echo.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// render wraps data in the layout page with the current user and pending flashes.
func render(c echo.Context, status int, name, title string, data any) error {
	return c.Render(status, name, web.Page{
		Title:   title,
		User:    middleware.CurrentUser(c),
		Flashes: web.TakeFlashes(c),
		Data:    data,
	})
}

func redirectWithFlash(c echo.Context, category, message, to string) error {
	web.AddFlash(c, category, message)
	return c.Redirect(http.StatusSeeOther, to)
}

// toHTTPError maps service errors onto status codes. Unknown errors pass
// through and end up as 500s in the error handler.
func toHTTPError(err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrEventNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Event not found")
	case errors.Is(err, service.ErrBookingNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Booking not found")
	case errors.Is(err, service.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrAlreadyBooked):
		return echo.NewHTTPError(http.StatusConflict, "Already booked")
	case errors.Is(err, service.ErrEventFull):
		return echo.NewHTTPError(http.StatusConflict, "Event is full")
	case errors.Is(err, service.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, "That email is already registered.")
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Admin only")
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password.")
	case errors.Is(err, service.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, service.ErrTicketingDisabled):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Ticket services are not configured")
	case errors.Is(err, service.ErrUpstream):
		return echo.NewHTTPError(http.StatusBadGateway, "Ticket service request failed")
	default:
		return err
	}
}

// safeNext only allows local redirect targets.
func safeNext(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
