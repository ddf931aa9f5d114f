package functions

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/campusevents/campus-events/config"
	"github.com/campusevents/campus-events/internal/audit"
	"github.com/campusevents/campus-events/internal/ticketing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTicketStore struct {
	findFn func(ctx context.Context, code string, eventID uint) (*ticketing.CheckinBooking, error)
}

func (m *mockTicketStore) FindTicket(ctx context.Context, code string, eventID uint) (*ticketing.CheckinBooking, error) {
	return m.findFn(ctx, code, eventID)
}

type mockMailer struct {
	sent   []Mail
	status int
	body   string
	err    error
}

func (m *mockMailer) Send(ctx context.Context, mail Mail) (int, string, error) {
	m.sent = append(m.sent, mail)
	return m.status, m.body, m.err
}

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
	metas   []map[string]any
}

func (a *recordingAudit) Log(ctx context.Context, action string, userID *uint, meta map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	a.metas = append(a.metas, meta)
}

func testConfig() *config.FunctionsConfig {
	return &config.FunctionsConfig{
		QRSecret:          "qr-secret",
		EmailSecret:       "email-secret",
		CheckinSecret:     "checkin-secret",
		SendGridAPIKey:    "sg-key",
		SendGridFromEmail: "tickets@campus.edu",
	}
}

func post(t *testing.T, h http.Handler, path, header, secret, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if header != "" {
		req.Header.Set(header, secret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestGenerateTicketQR(t *testing.T) {
	h := NewServer(testConfig(), nil, nil, nil).Routes()

	t.Run("wrong secret", func(t *testing.T) {
		rec, body := post(t, h, "/generate_ticket_qr", ticketing.HeaderQRSecret, "nope", `{"ticket_code":"ABC"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", body["error"])
	})

	t.Run("missing code", func(t *testing.T) {
		rec, body := post(t, h, "/generate_ticket_qr", ticketing.HeaderQRSecret, "qr-secret", `{"ticket_code":"  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", body["error"])
		assert.Equal(t, "ticket_code is required", body["message"])
	})

	t.Run("ok", func(t *testing.T) {
		rec, body := post(t, h, "/generate_ticket_qr", ticketing.HeaderQRSecret, "qr-secret", `{"ticket_code":" ABC123 "}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ABC123", body["ticket_code"])

		pngB64 := body["png_base64"].(string)
		png, err := base64.StdEncoding.DecodeString(pngB64)
		require.NoError(t, err)
		assert.Equal(t, []byte("\x89PNG"), png[:4])
		assert.Equal(t, "data:image/png;base64,"+pngB64, body["data_url"])
	})
}

func TestGenerateTicketQR_UnsetSecretRejectsEverything(t *testing.T) {
	cfg := testConfig()
	cfg.QRSecret = ""
	h := NewServer(cfg, nil, nil, nil).Routes()

	rec, _ := post(t, h, "/generate_ticket_qr", ticketing.HeaderQRSecret, "", `{"ticket_code":"ABC"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendBookingEmail(t *testing.T) {
	t.Run("wrong secret", func(t *testing.T) {
		h := NewServer(testConfig(), nil, &mockMailer{status: 202}, nil).Routes()
		rec, _ := post(t, h, "/send_booking_email", ticketing.HeaderEmailSecret, "bad", `{}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing recipient", func(t *testing.T) {
		h := NewServer(testConfig(), nil, &mockMailer{status: 202}, nil).Routes()
		rec, body := post(t, h, "/send_booking_email", ticketing.HeaderEmailSecret, "email-secret", `{"qr_png_base64":"abc"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "to_email is required", body["message"])
	})

	t.Run("missing qr", func(t *testing.T) {
		h := NewServer(testConfig(), nil, &mockMailer{status: 202}, nil).Routes()
		rec, body := post(t, h, "/send_booking_email", ticketing.HeaderEmailSecret, "email-secret", `{"to_email":"a@b.c"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "qr_png_base64 is required", body["message"])
	})

	t.Run("sendgrid not configured", func(t *testing.T) {
		cfg := testConfig()
		cfg.SendGridFromEmail = ""
		h := NewServer(cfg, nil, &mockMailer{status: 202}, nil).Routes()
		rec, body := post(t, h, "/send_booking_email", ticketing.HeaderEmailSecret, "email-secret", `{"to_email":"a@b.c","qr_png_base64":"abc"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "server_error", body["error"])
		assert.Equal(t, "SENDGRID_FROM_EMAIL not set", body["message"])
	})

	t.Run("defaults and inline image", func(t *testing.T) {
		mailer := &mockMailer{status: http.StatusAccepted}
		h := NewServer(testConfig(), nil, mailer, nil).Routes()
		rec, body := post(t, h, "/send_booking_email", ticketing.HeaderEmailSecret, "email-secret", `{"to_email":" a@b.c ","qr_png_base64":"abc"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["ok"])

		require.Len(t, mailer.sent, 1)
		sent := mailer.sent[0]
		assert.Equal(t, "a@b.c", sent.To)
		assert.Equal(t, ticketing.DefaultEmailSubject, sent.Subject)
		assert.Contains(t, sent.HTML, defaultEmailHTML)
		assert.Contains(t, sent.HTML, `src="cid:ticketqr"`)
	})

	t.Run("html already references image", func(t *testing.T) {
		mailer := &mockMailer{status: http.StatusAccepted}
		h := NewServer(testConfig(), nil, mailer, nil).Routes()
		html := `<img src=\"cid:ticketqr\">`
		rec, _ := post(t, h, "/send_booking_email", ticketing.HeaderEmailSecret, "email-secret",
			`{"to_email":"a@b.c","subject":"Hi","html":"`+html+`","qr_png_base64":"abc"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `<img src="cid:ticketqr">`, mailer.sent[0].HTML)
		assert.Equal(t, "Hi", mailer.sent[0].Subject)
	})

	t.Run("provider rejects", func(t *testing.T) {
		long := make([]byte, 500)
		for i := range long {
			long[i] = 'x'
		}
		mailer := &mockMailer{status: http.StatusUnauthorized, body: string(long)}
		h := NewServer(testConfig(), nil, mailer, nil).Routes()
		rec, body := post(t, h, "/send_booking_email", ticketing.HeaderEmailSecret, "email-secret", `{"to_email":"a@b.c","qr_png_base64":"abc"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "sendgrid_error", body["error"])
		assert.Equal(t, float64(401), body["status"])
		assert.Len(t, body["message"], 300)
	})
}

func TestCheckinValidate(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := &mockTicketStore{
		findFn: func(ctx context.Context, code string, eventID uint) (*ticketing.CheckinBooking, error) {
			switch {
			case code == "BOOM":
				return nil, errors.New("connection refused")
			case code == "GOOD" && eventID == 5:
				return &ticketing.CheckinBooking{ID: 9, UserID: 2, EventID: 5, TicketCode: code, CreatedAt: created}, nil
			default:
				return nil, ErrTicketNotFound
			}
		},
	}

	tests := []struct {
		name       string
		secret     string
		body       string
		wantStatus int
		wantAction string
		check      func(t *testing.T, body map[string]any)
	}{
		{
			name:       "bad secret",
			secret:     "wrong",
			body:       `{"ticket_code":"GOOD","event_id":5}`,
			wantStatus: http.StatusUnauthorized,
			wantAction: audit.ActionCheckinDenied,
		},
		{
			name:       "missing fields",
			secret:     "checkin-secret",
			body:       `{"ticket_code":"GOOD"}`,
			wantStatus: http.StatusBadRequest,
			wantAction: audit.ActionCheckinBadRequest,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "ticket_code and event_id are required", body["message"])
			},
		},
		{
			name:       "non positive event id",
			secret:     "checkin-secret",
			body:       `{"ticket_code":"GOOD","event_id":0}`,
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "event_id must be a positive integer", body["message"])
			},
		},
		{
			name:       "unknown ticket",
			secret:     "checkin-secret",
			body:       `{"ticket_code":"NOPE","event_id":5}`,
			wantStatus: http.StatusOK,
			wantAction: audit.ActionCheckinInvalid,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, false, body["valid"])
				assert.NotContains(t, body, "booking")
			},
		},
		{
			name:       "ticket for another event",
			secret:     "checkin-secret",
			body:       `{"ticket_code":"GOOD","event_id":6}`,
			wantStatus: http.StatusOK,
			wantAction: audit.ActionCheckinInvalid,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, false, body["valid"])
			},
		},
		{
			name:       "valid with string event id",
			secret:     "checkin-secret",
			body:       `{"ticket_code":" GOOD ","event_id":"5"}`,
			wantStatus: http.StatusOK,
			wantAction: audit.ActionCheckinValid,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["valid"])
				booking := body["booking"].(map[string]any)
				assert.Equal(t, float64(9), booking["id"])
				assert.Equal(t, "GOOD", booking["ticket_code"])
				assert.Equal(t, "2026-03-01T09:00:00Z", booking["created_at"])
			},
		},
		{
			name:       "store failure",
			secret:     "checkin-secret",
			body:       `{"ticket_code":"BOOM","event_id":5}`,
			wantStatus: http.StatusInternalServerError,
			wantAction: audit.ActionCheckinError,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "server_error", body["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingAudit{}
			h := NewServer(testConfig(), store, nil, rec).Routes()

			res, body := post(t, h, "/checkin_validate", ticketing.HeaderCheckinSecret, tt.secret, tt.body)

			assert.Equal(t, tt.wantStatus, res.Code)
			if tt.wantAction != "" {
				assert.Equal(t, []string{tt.wantAction}, rec.actions)
			} else {
				assert.Empty(t, rec.actions)
			}
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestParseEventID(t *testing.T) {
	id, err := parseEventID(json.RawMessage(`12`))
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)

	for _, raw := range []string{`-1`, `1.5`, `"abc"`, `true`, `[]`} {
		_, err := parseEventID(json.RawMessage(raw))
		assert.ErrorIs(t, err, errBadEventID, raw)
	}
}
