package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/campusevents/campus-events/internal/auth"
	"github.com/campusevents/campus-events/internal/middleware"
	"github.com/campusevents/campus-events/internal/models"
	"github.com/campusevents/campus-events/internal/service"
	"github.com/campusevents/campus-events/internal/ticketing"
	"github.com/campusevents/campus-events/internal/web"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// --- Mock services ---

type mockEventService struct {
	createFn func(ctx context.Context, creator *models.User, in service.CreateEventInput) (*models.Event, error)
	listFn   func(ctx context.Context) ([]service.EventWithCount, error)
	getFn    func(ctx context.Context, id uint) (*service.EventWithCount, error)
}

func (m *mockEventService) CreateEvent(ctx context.Context, creator *models.User, in service.CreateEventInput) (*models.Event, error) {
	return m.createFn(ctx, creator, in)
}
func (m *mockEventService) ListEvents(ctx context.Context) ([]service.EventWithCount, error) {
	return m.listFn(ctx)
}
func (m *mockEventService) GetEvent(ctx context.Context, id uint) (*service.EventWithCount, error) {
	return m.getFn(ctx, id)
}

type mockBookingService struct {
	createFn func(ctx context.Context, user *models.User, eventID uint) (*models.Booking, error)
	listFn   func(ctx context.Context, userID uint) ([]service.BookingView, error)
}

func (m *mockBookingService) CreateBooking(ctx context.Context, user *models.User, eventID uint) (*models.Booking, error) {
	return m.createFn(ctx, user, eventID)
}
func (m *mockBookingService) ListForUser(ctx context.Context, userID uint) ([]service.BookingView, error) {
	return m.listFn(ctx, userID)
}

type mockAuthService struct {
	registerFn func(ctx context.Context, email, password string) (*service.Session, error)
	loginFn    func(ctx context.Context, email, password string) (*service.Session, error)
	logoutFn   func(ctx context.Context, user *models.User, claims *auth.Claims) error
}

func (m *mockAuthService) Register(ctx context.Context, email, password string) (*service.Session, error) {
	return m.registerFn(ctx, email, password)
}
func (m *mockAuthService) Login(ctx context.Context, email, password string) (*service.Session, error) {
	return m.loginFn(ctx, email, password)
}
func (m *mockAuthService) Logout(ctx context.Context, user *models.User, claims *auth.Claims) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, user, claims)
	}
	return nil
}
func (m *mockAuthService) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	return nil, nil, service.ErrUnauthenticated
}
func (m *mockAuthService) Promote(ctx context.Context, email string) (*models.User, error) {
	return nil, service.ErrUserNotFound
}

type mockTicketService struct {
	emailFn   func(ctx context.Context, user *models.User, id uint) error
	pdfFn     func(ctx context.Context, user *models.User, id uint) ([]byte, *models.Booking, error)
	checkinFn func(ctx context.Context, code string, eventID uint) (*ticketing.CheckinResult, error)
}

func (m *mockTicketService) Deliver(ctx context.Context, user *models.User, b *models.Booking) error {
	return nil
}
func (m *mockTicketService) EmailTicket(ctx context.Context, user *models.User, id uint) error {
	return m.emailFn(ctx, user, id)
}
func (m *mockTicketService) RenderPDF(ctx context.Context, user *models.User, id uint) ([]byte, *models.Booking, error) {
	return m.pdfFn(ctx, user, id)
}
func (m *mockTicketService) CheckIn(ctx context.Context, code string, eventID uint) (*ticketing.CheckinResult, error) {
	return m.checkinFn(ctx, code, eventID)
}

// --- Test server ---

var (
	student = &models.User{ID: 1, Email: "student@campus.edu", Role: models.RoleUser}
	admin   = &models.User{ID: 2, Email: "admin@campus.edu", Role: models.RoleAdmin}
)

const testSecret = "handler-test-secret"

type routes interface {
	RegisterRoutes(e *echo.Echo)
}

// newServer builds an echo instance like main does, signing requests in as user.
func newServer(t *testing.T, h routes, user *models.User) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = middleware.NewValidator()
	r, err := web.NewRenderer()
	require.NoError(t, err)
	e.Renderer = r
	e.Use(web.FlashMiddleware(testSecret))

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if user != nil {
				middleware.SetUser(c, user, &auth.Claims{Role: string(user.Role)})
			}
			return next(c)
		}
	})
	h.RegisterRoutes(e)
	return e
}

func serve(e *echo.Echo, method, path, body, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// flashesOf replays the response's flash cookie into a new request.
func flashesOf(rec *httptest.ResponseRecorder) []web.Flash {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if c := findCookie(rec, "flash"); c != nil {
		req.AddCookie(c)
	}
	var flashes []web.Flash
	c := echo.New().NewContext(req, httptest.NewRecorder())
	_ = web.FlashMiddleware(testSecret)(func(c echo.Context) error {
		flashes = web.TakeFlashes(c)
		return nil
	})(c)
	return flashes
}

// findCookie returns the last cookie set under name.
func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}
