package handler

import (
	"errors"
	"net/http"

	"github.com/campusevents/campus-events/internal/dto"
	"github.com/campusevents/campus-events/internal/middleware"
	"github.com/campusevents/campus-events/internal/service"
	"github.com/labstack/echo/v4"
)

type EventHandler struct {
	svc service.EventService
}

func NewEventHandler(svc service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/events/")
	})

	g := e.Group("/events")
	g.GET("", h.ListPage)
	g.GET("/", h.ListPage)
	g.GET("/new", h.NewPage, middleware.RequireUser, middleware.RequireAdmin)
	g.POST("/new", h.CreateForm, middleware.RequireUser, middleware.RequireAdmin)
	g.GET("/:id", h.DetailPage)

	api := e.Group("/api/events")
	api.GET("", h.ListEvents)
	api.GET("/:id", h.GetEvent)
	api.POST("", h.CreateEvent, middleware.RequireUser, middleware.RequireAdmin)
}

// --- Pages ---

func (h *EventHandler) ListPage(c echo.Context) error {
	events, err := h.svc.ListEvents(c.Request().Context())
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, "events_list", "Events", events)
}

func (h *EventHandler) NewPage(c echo.Context) error {
	return render(c, http.StatusOK, "event_new", "New event", nil)
}

func (h *EventHandler) CreateForm(c echo.Context) error {
	in := service.CreateEventInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Location:    c.FormValue("location"),
		StartTime:   c.FormValue("start_time"),
		EndTime:     c.FormValue("end_time"),
		Capacity:    c.FormValue("capacity"),
	}

	_, err := h.svc.CreateEvent(c.Request().Context(), middleware.CurrentUser(c), in)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return redirectWithFlash(c, "error", verr.Message, "/events/new")
		}
		return toHTTPError(err)
	}
	return redirectWithFlash(c, "success", "Event created.", "/events/")
}

func (h *EventHandler) DetailPage(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Event not found.")
	}

	event, err := h.svc.GetEvent(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Event not found.")
		}
		return err
	}
	return render(c, http.StatusOK, "event_detail", event.Event.Title, event)
}

// --- API ---

func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.svc.ListEvents(c.Request().Context())
	if err != nil {
		return err
	}

	resp := make([]dto.EventResponse, len(events))
	for i, e := range events {
		resp[i] = dto.ToEventResponse(e)
	}
	return c.JSON(http.StatusOK, map[string]any{"events": resp})
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Event not found")
	}

	event, err := h.svc.GetEvent(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"event": dto.ToEventResponse(*event)})
}

func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req dto.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	in := service.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.CapacityText(),
	}

	event, err := h.svc.CreateEvent(c.Request().Context(), middleware.CurrentUser(c), in)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"event": dto.ToEventResponse(service.EventWithCount{Event: *event}),
	})
}
