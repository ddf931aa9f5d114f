package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/campusevents/campus-events/internal/dto"
	"github.com/campusevents/campus-events/internal/middleware"
	"github.com/campusevents/campus-events/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/events/:id/book", h.BookForm, middleware.RequireUser)

	api := e.Group("/api")
	api.POST("/events/:id/book", h.CreateBooking, middleware.RequireUser)
	api.GET("/bookings", h.ListBookings, middleware.RequireUser)
}

func (h *BookingHandler) BookForm(c echo.Context) error {
	eventID, ok := parseID(c, "id")
	if !ok {
		return redirectWithFlash(c, "error", "Event not found.", "/events/")
	}

	_, err := h.svc.CreateBooking(c.Request().Context(), middleware.CurrentUser(c), eventID)
	switch {
	case err == nil:
		return redirectWithFlash(c, "success", "Booking confirmed.", "/events/")
	case errors.Is(err, service.ErrEventNotFound):
		return redirectWithFlash(c, "error", "Event not found.", "/events/")
	case errors.Is(err, service.ErrEventFull):
		return redirectWithFlash(c, "error", "Event is full.", "/events/")
	case errors.Is(err, service.ErrAlreadyBooked):
		return redirectWithFlash(c, "error", "You already booked this event.", "/events/")
	default:
		return err
	}
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	eventID, ok := parseID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Event not found")
	}

	booking, err := h.svc.CreateBooking(c.Request().Context(), middleware.CurrentUser(c), eventID)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyBooked) && booking != nil {
			existing := dto.ToBookingResponse(booking)
			return c.JSON(http.StatusConflict, dto.ErrorResponse{
				Error:   middleware.Slug(http.StatusConflict),
				Message: "Already booked",
				Booking: &existing,
			})
		}
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, map[string]any{"booking": dto.ToBookingResponse(booking)})
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	views, err := h.svc.ListForUser(c.Request().Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}

	resp := make([]dto.BookingResponse, len(views))
	for i, v := range views {
		resp[i] = dto.ToBookingViewResponse(v)
	}
	return c.JSON(http.StatusOK, map[string]any{"bookings": resp})
}
