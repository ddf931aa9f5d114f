package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/campusevents/campus-events/internal/dto"
	"github.com/campusevents/campus-events/internal/web"
	"github.com/labstack/echo/v4"
)

var slugs = map[int]string{
	http.StatusBadRequest:         "bad_request",
	http.StatusUnauthorized:       "unauthorized",
	http.StatusForbidden:          "forbidden",
	http.StatusNotFound:           "not_found",
	http.StatusMethodNotAllowed:   "method_not_allowed",
	http.StatusConflict:           "conflict",
	http.StatusTooManyRequests:    "too_many_requests",
	http.StatusBadGateway:         "upstream_error",
	http.StatusServiceUnavailable: "service_unavailable",
}

// Slug is the machine readable error name sent with JSON errors.
func Slug(code int) string {
	if s, ok := slugs[code]; ok {
		return s
	}
	return "server_error"
}

// WantsJSON reports whether the request came through the JSON API.
func WantsJSON(c echo.Context) bool {
	req := c.Request()
	return strings.HasPrefix(req.URL.Path, "/api/") ||
		strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// ErrorHandler renders API errors as {"error","message"} JSON and page errors
// through the error template.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	} else {
		log.Printf("[HTTP] %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}

	if WantsJSON(c) || c.Echo().Renderer == nil {
		_ = c.JSON(code, dto.ErrorResponse{Error: Slug(code), Message: msg})
		return
	}

	page := web.Page{Title: http.StatusText(code), User: CurrentUser(c), Data: msg}
	if err := c.Render(code, "error", page); err != nil {
		log.Printf("[HTTP] render error page: %v", err)
		_ = c.String(code, msg)
	}
}
