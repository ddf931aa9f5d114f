package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/campusevents/campus-events/internal/auth"
	"github.com/campusevents/campus-events/internal/models"
	"github.com/campusevents/campus-events/internal/web"
	"github.com/labstack/echo/v4"
)

const (
	SessionCookie = "session"

	userKey   = "auth.user"
	claimsKey = "auth.claims"
)

// Authenticator resolves a session token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error)
}

// LoadUser attaches the signed-in user, if any, to the context. A bearer
// token takes precedence over the session cookie. Requests without a valid
// token continue anonymously.
func LoadUser(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, fromCookie := tokenFrom(c)
			if token == "" {
				return next(c)
			}

			user, claims, err := a.Authenticate(c.Request().Context(), token)
			if err != nil {
				if fromCookie {
					ClearSessionCookie(c)
				}
				return next(c)
			}

			SetUser(c, user, claims)
			return next(c)
		}
	}
}

func tokenFrom(c echo.Context) (string, bool) {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token), false
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

// SetUser marks the request as made by user.
func SetUser(c echo.Context, user *models.User, claims *auth.Claims) {
	c.Set(userKey, user)
	c.Set(claimsKey, claims)
}

func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userKey).(*models.User)
	return user
}

func CurrentClaims(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}

// RequireUser rejects anonymous requests: 401 for the API, a redirect to the
// login page otherwise.
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) != nil {
			return next(c)
		}
		if WantsJSON(c) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}
		web.AddFlash(c, "info", "Please log in to access this page.")
		return c.Redirect(http.StatusSeeOther, "/auth/login?next="+url.QueryEscape(c.Request().URL.RequestURI()))
	}
}

// RequireAdmin must run after RequireUser.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c).IsAdmin() {
			return next(c)
		}
		if WantsJSON(c) {
			return echo.NewHTTPError(http.StatusForbidden, "Admin only")
		}
		web.AddFlash(c, "error", "Admin only.")
		return c.Redirect(http.StatusSeeOther, "/events/")
	}
}

func SetSessionCookie(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
