// Package ticketing talks to the ticket functions (QR, email, check-in) and
// renders printable tickets.
package ticketing

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderQRSecret      = "X-QR-Secret"
	HeaderEmailSecret   = "X-Email-Secret"
	HeaderCheckinSecret = "X-Checkin-Secret"

	DefaultEmailSubject = "Your Campus Event Ticket"
	InlineQRContentID   = "ticketqr"
)

type QRRequest struct {
	TicketCode string `json:"ticket_code"`
}

type QRResponse struct {
	TicketCode string `json:"ticket_code"`
	PNGBase64  string `json:"png_base64"`
	DataURL    string `json:"data_url"`
}

type EmailRequest struct {
	ToEmail     string `json:"to_email"`
	Subject     string `json:"subject,omitempty"`
	HTML        string `json:"html,omitempty"`
	QRPNGBase64 string `json:"qr_png_base64"`
}

type CheckinRequest struct {
	TicketCode string `json:"ticket_code"`
	EventID    uint   `json:"event_id"`
}

type CheckinBooking struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	EventID    uint      `json:"event_id"`
	TicketCode string    `json:"ticket_code"`
	CreatedAt  time.Time `json:"created_at"`
}

type CheckinResult struct {
	Valid   bool            `json:"valid"`
	Booking *CheckinBooking `json:"booking,omitempty"`
}

// NewCode returns a 32 character upper-case hex ticket code.
func NewCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
