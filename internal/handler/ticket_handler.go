package handler

import (
	"fmt"
	"net/http"

	"github.com/campusevents/campus-events/internal/dto"
	"github.com/campusevents/campus-events/internal/middleware"
	"github.com/campusevents/campus-events/internal/service"
	"github.com/labstack/echo/v4"
)

type TicketHandler struct {
	svc service.TicketService
}

func NewTicketHandler(svc service.TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

func (h *TicketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/bookings/:id/ticket.pdf", h.TicketPDF, middleware.RequireUser)

	api := e.Group("/api")
	api.POST("/bookings/:id/email-ticket", h.EmailTicket, middleware.RequireUser)
	api.GET("/bookings/:id/ticket.pdf", h.TicketPDF, middleware.RequireUser)
	api.POST("/checkin", h.CheckIn, middleware.RequireUser, middleware.RequireAdmin)
}

func (h *TicketHandler) EmailTicket(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Booking not found")
	}

	if err := h.svc.EmailTicket(c.Request().Context(), middleware.CurrentUser(c), id); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *TicketHandler) TicketPDF(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Booking not found")
	}

	pdf, booking, err := h.svc.RenderPDF(c.Request().Context(), middleware.CurrentUser(c), id)
	if err != nil {
		return toHTTPError(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="ticket-%s.pdf"`, *booking.TicketCode))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

func (h *TicketHandler) CheckIn(c echo.Context) error {
	var req dto.CheckinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.svc.CheckIn(c.Request().Context(), req.TicketCode, req.EventID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}
