package handler

import (
	"net/http"

	"github.com/campusevents/campus-events/internal/audit"
	"github.com/campusevents/campus-events/internal/middleware"
	"github.com/labstack/echo/v4"
)

type DebugHandler struct {
	audit audit.Logger
}

func NewDebugHandler(auditLog audit.Logger) *DebugHandler {
	return &DebugHandler{audit: auditLog}
}

func (h *DebugHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/debug/audit", h.AuditTest)
}

func (h *DebugHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "campus-events"})
}

// AuditTest writes one audit entry so the log sink can be checked end to end.
func (h *DebugHandler) AuditTest(c echo.Context) error {
	var userID *uint
	if user := middleware.CurrentUser(c); user != nil {
		userID = audit.UserID(user.ID)
	}
	h.audit.Log(c.Request().Context(), audit.ActionAuditTest, userID, map[string]any{"source": "debug_route"})
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "message": "Wrote audit_test to logs"})
}
