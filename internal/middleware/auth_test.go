package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campusevents/campus-events/internal/auth"
	"github.com/campusevents/campus-events/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAuthenticator struct {
	users map[string]*models.User
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	if u, ok := m.users[token]; ok {
		return u, &auth.Claims{Role: string(u.Role)}, nil
	}
	return nil, nil, errors.New("bad token")
}

func newAuthServer() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.Use(LoadUser(&mockAuthenticator{users: map[string]*models.User{
		"user-token":  {ID: 1, Email: "a@campus.edu", Role: models.RoleUser},
		"admin-token": {ID: 2, Email: "admin@campus.edu", Role: models.RoleAdmin},
	}}))

	whoami := func(c echo.Context) error {
		if u := CurrentUser(c); u != nil {
			return c.String(http.StatusOK, u.Email)
		}
		return c.String(http.StatusOK, "anonymous")
	}
	e.GET("/whoami", whoami)
	e.GET("/api/private", whoami, RequireUser)
	e.GET("/private", whoami, RequireUser)
	e.GET("/api/admin", whoami, RequireUser, RequireAdmin)
	e.GET("/admin", whoami, RequireUser, RequireAdmin)
	return e
}

func do(e *echo.Echo, path string, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLoadUser_CookieAndBearer(t *testing.T) {
	e := newAuthServer()

	rec := do(e, "/whoami", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "user-token"}) })
	assert.Equal(t, "a@campus.edu", rec.Body.String())

	rec = do(e, "/whoami", func(r *http.Request) { r.Header.Set("Authorization", "Bearer admin-token") })
	assert.Equal(t, "admin@campus.edu", rec.Body.String())

	rec = do(e, "/whoami", nil)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestLoadUser_InvalidCookieIsCleared(t *testing.T) {
	e := newAuthServer()

	rec := do(e, "/whoami", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "stale"}) })

	assert.Equal(t, "anonymous", rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestRequireUser(t *testing.T) {
	e := newAuthServer()

	rec := do(e, "/api/private", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unauthorized"`)

	rec = do(e, "/private", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?next=%2Fprivate", rec.Header().Get("Location"))

	rec = do(e, "/private", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "user-token"}) })
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	e := newAuthServer()
	asUser := func(r *http.Request) { r.Header.Set("Authorization", "Bearer user-token") }
	asAdmin := func(r *http.Request) { r.Header.Set("Authorization", "Bearer admin-token") }

	rec := do(e, "/api/admin", asUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, "/admin", asUser)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/events/", rec.Header().Get("Location"))

	rec = do(e, "/api/admin", asAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin@campus.edu", rec.Body.String())
}
