package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/campusevents/campus-events/internal/dto"
	"github.com/campusevents/campus-events/internal/middleware"
	"github.com/campusevents/campus-events/internal/service"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	auth     service.AuthService
	bookings service.BookingService
	limiter  *middleware.RateLimiter
}

func NewAuthHandler(auth service.AuthService, bookings service.BookingService, limiter *middleware.RateLimiter) *AuthHandler {
	return &AuthHandler{auth: auth, bookings: bookings, limiter: limiter}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	limit := h.limiter.Limit

	g := e.Group("/auth")
	g.GET("/register", h.RegisterPage)
	g.POST("/register", h.RegisterForm, limit)
	g.GET("/login", h.LoginPage)
	g.POST("/login", h.LoginForm, limit)
	g.GET("/logout", h.LogoutPage, middleware.RequireUser)
	g.GET("/me", h.MePage, middleware.RequireUser)

	api := e.Group("/api")
	api.GET("/me", h.Me)
	api.POST("/auth/register", h.Register, limit)
	api.POST("/auth/login", h.Login, limit)
	api.POST("/auth/logout", h.Logout, middleware.RequireUser)
}

// --- Pages ---

func (h *AuthHandler) RegisterPage(c echo.Context) error {
	return render(c, http.StatusOK, "register", "Register", nil)
}

func (h *AuthHandler) RegisterForm(c echo.Context) error {
	session, err := h.auth.Register(c.Request().Context(), c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return redirectWithFlash(c, "error", verr.Message, "/auth/register")
		case errors.Is(err, service.ErrEmailTaken):
			return redirectWithFlash(c, "error", "That email is already registered.", "/auth/register")
		}
		return err
	}

	middleware.SetSessionCookie(c, session.Token, session.ExpiresAt)
	return redirectWithFlash(c, "success", "Account created. You're logged in.", "/auth/me")
}

func (h *AuthHandler) LoginPage(c echo.Context) error {
	return render(c, http.StatusOK, "login", "Log in", safeNext(c.QueryParam("next"), ""))
}

func (h *AuthHandler) LoginForm(c echo.Context) error {
	session, err := h.auth.Login(c.Request().Context(), c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return redirectWithFlash(c, "error", "Invalid email or password.", "/auth/login")
		}
		return err
	}

	middleware.SetSessionCookie(c, session.Token, session.ExpiresAt)
	return redirectWithFlash(c, "success", "Logged in.", safeNext(c.FormValue("next"), "/auth/me"))
}

func (h *AuthHandler) LogoutPage(c echo.Context) error {
	h.logout(c)
	return redirectWithFlash(c, "success", "Logged out.", "/")
}

func (h *AuthHandler) MePage(c echo.Context) error {
	views, err := h.bookings.ListForUser(c.Request().Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, "me", "My account", views)
}

// --- API ---

func (h *AuthHandler) Me(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.JSON(http.StatusOK, dto.MeResponse{Authenticated: false})
	}
	resp := dto.ToUserResponse(user)
	return c.JSON(http.StatusOK, dto.MeResponse{Authenticated: true, User: &resp})
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.auth.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return toHTTPError(err)
	}
	return h.sessionResponse(c, http.StatusCreated, session)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return toHTTPError(err)
	}
	return h.sessionResponse(c, http.StatusOK, session)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	h.logout(c)
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *AuthHandler) sessionResponse(c echo.Context, status int, session *service.Session) error {
	middleware.SetSessionCookie(c, session.Token, session.ExpiresAt)
	return c.JSON(status, dto.AuthResponse{
		User:      dto.ToUserResponse(session.User),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

func (h *AuthHandler) logout(c echo.Context) {
	user := middleware.CurrentUser(c)
	if err := h.auth.Logout(c.Request().Context(), user, middleware.CurrentClaims(c)); err != nil {
		log.Printf("[Auth] logout for user %d: %v", user.ID, err)
	}
	middleware.ClearSessionCookie(c)
}
