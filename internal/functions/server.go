// Package functions serves the ticket functions used by the web application:
// QR generation, ticket email delivery and check-in validation.
package functions

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/campusevents/campus-events/config"
	"github.com/campusevents/campus-events/internal/audit"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	cfg     *config.FunctionsConfig
	tickets TicketStore
	mailer  Mailer
	audit   audit.Logger
}

func NewServer(cfg *config.FunctionsConfig, tickets TicketStore, mailer Mailer, auditLog audit.Logger) *Server {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Server{cfg: cfg, tickets: tickets, mailer: mailer, audit: auditLog}
}

// Routes builds the router with one POST route per function.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "ticket-functions"})
	})

	r.Post("/generate_ticket_qr", s.GenerateTicketQR)
	r.Post("/send_booking_email", s.SendBookingEmail)
	r.Post("/checkin_validate", s.CheckinValidate)

	return r
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

// decodeJSON leaves dst untouched when the body is missing or malformed, so
// callers report the absent fields instead of a parse error.
func decodeJSON(r *http.Request, dst any) {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	_ = json.NewDecoder(r.Body).Decode(dst)
}

// authorized compares the shared secret header. An unset secret rejects everything.
func authorized(r *http.Request, header, expected string) bool {
	if expected == "" {
		return false
	}
	provided := r.Header.Get(header)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
