package service

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/campusevents/campus-events/internal/audit"
	"github.com/campusevents/campus-events/internal/models"
	"github.com/campusevents/campus-events/internal/repository"
	"github.com/campusevents/campus-events/internal/ticketing"
)

// TicketGateway is the remote side of ticketing; *ticketing.Client implements it.
type TicketGateway interface {
	EmailEnabled() bool
	CheckinEnabled() bool
	GenerateQR(ctx context.Context, ticketCode string) (string, error)
	SendEmail(ctx context.Context, req ticketing.EmailRequest) error
	ValidateCheckin(ctx context.Context, ticketCode string, eventID uint) (*ticketing.CheckinResult, error)
}

type TicketService interface {
	TicketDeliverer
	EmailTicket(ctx context.Context, user *models.User, bookingID uint) error
	RenderPDF(ctx context.Context, user *models.User, bookingID uint) ([]byte, *models.Booking, error)
	CheckIn(ctx context.Context, ticketCode string, eventID uint) (*ticketing.CheckinResult, error)
}

type ticketService struct {
	gateway  TicketGateway
	bookings repository.BookingRepository
	users    repository.UserRepository
	audit    audit.Logger
	newCode  func() string
}

func NewTicketService(
	gateway TicketGateway,
	bookings repository.BookingRepository,
	users repository.UserRepository,
	auditLog audit.Logger,
) TicketService {
	return &ticketService{
		gateway:  gateway,
		bookings: bookings,
		users:    users,
		audit:    auditLog,
		newCode:  ticketing.NewCode,
	}
}

// Deliver emails the ticket right after booking. It is a no-op when the
// QR and email functions are not configured.
func (s *ticketService) Deliver(ctx context.Context, user *models.User, booking *models.Booking) error {
	if !s.gateway.EmailEnabled() {
		return nil
	}
	return s.send(ctx, user, booking)
}

func (s *ticketService) EmailTicket(ctx context.Context, user *models.User, bookingID uint) error {
	if !s.gateway.EmailEnabled() {
		return ErrTicketingDisabled
	}

	booking, err := s.load(ctx, user, bookingID)
	if err != nil {
		return err
	}

	recipient := user
	if booking.UserID != user.ID {
		if recipient, err = s.users.FindByID(ctx, booking.UserID); err != nil {
			return fmt.Errorf("load booking owner: %w", err)
		}
	}
	return s.send(ctx, recipient, booking)
}

func (s *ticketService) RenderPDF(ctx context.Context, user *models.User, bookingID uint) ([]byte, *models.Booking, error) {
	booking, err := s.load(ctx, user, bookingID)
	if err != nil {
		return nil, nil, err
	}

	holder := user.Email
	if booking.UserID != user.ID {
		if owner, err := s.users.FindByID(ctx, booking.UserID); err == nil {
			holder = owner.Email
		}
	}

	ticket := ticketing.Ticket{
		Code:       *booking.TicketCode,
		BookingID:  booking.ID,
		HolderName: holder,
	}
	if booking.Event != nil {
		ticket.EventTitle = booking.Event.Title
		ticket.Location = booking.Event.Location
		ticket.StartTime = booking.Event.StartTime
		ticket.EndTime = booking.Event.EndTime
	}

	var buf bytes.Buffer
	if err := ticketing.WritePDF(&buf, ticket); err != nil {
		return nil, nil, fmt.Errorf("render ticket: %w", err)
	}
	return buf.Bytes(), booking, nil
}

func (s *ticketService) CheckIn(ctx context.Context, ticketCode string, eventID uint) (*ticketing.CheckinResult, error) {
	ticketCode = strings.TrimSpace(ticketCode)
	if ticketCode == "" {
		return nil, invalid("ticket_code", "ticket_code and event_id are required")
	}
	if eventID == 0 {
		return nil, invalid("event_id", "event_id must be a positive integer")
	}
	if !s.gateway.CheckinEnabled() {
		return nil, ErrTicketingDisabled
	}

	result, err := s.gateway.ValidateCheckin(ctx, ticketCode, eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return result, nil
}

// load fetches a booking the user may see and makes sure it carries a ticket code.
func (s *ticketService) load(ctx context.Context, user *models.User, bookingID uint) (*models.Booking, error) {
	booking, err := findVisibleBooking(ctx, s.bookings, user, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.TicketCode == nil || *booking.TicketCode == "" {
		if err := s.bookings.SetTicketCode(ctx, booking.ID, s.newCode()); err != nil {
			return nil, fmt.Errorf("assign ticket code: %w", err)
		}
		// Re-read so a code assigned concurrently wins over ours.
		fresh, err := s.bookings.FindByID(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		booking.TicketCode = fresh.TicketCode
	}
	return booking, nil
}

func (s *ticketService) send(ctx context.Context, recipient *models.User, booking *models.Booking) error {
	if booking.TicketCode == nil || *booking.TicketCode == "" {
		return fmt.Errorf("booking %d has no ticket code", booking.ID)
	}
	code := *booking.TicketCode

	png, err := s.gateway.GenerateQR(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	req := ticketing.EmailRequest{
		ToEmail:     recipient.Email,
		Subject:     ticketing.DefaultEmailSubject,
		HTML:        ticketEmailHTML(booking, code),
		QRPNGBase64: png,
	}
	if err := s.gateway.SendEmail(ctx, req); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	s.audit.Log(ctx, audit.ActionTicketEmailSent, audit.UserID(recipient.ID), map[string]any{
		"booking_id": booking.ID,
		"event_id":   booking.EventID,
	})
	return nil
}

func ticketEmailHTML(booking *models.Booking, code string) string {
	var b strings.Builder
	b.WriteString("<p>Your booking is confirmed.</p>")
	if e := booking.Event; e != nil {
		fmt.Fprintf(&b, "<p><strong>%s</strong><br>%s<br>%s to %s</p>",
			html.EscapeString(e.Title),
			html.EscapeString(e.Location),
			e.StartTime.Format("Mon 02 Jan 2006 15:04"),
			e.EndTime.Format("Mon 02 Jan 2006 15:04"),
		)
	}
	fmt.Fprintf(&b, "<p>Ticket code: <code>%s</code></p>", html.EscapeString(code))
	fmt.Fprintf(&b, `<p><img alt="Ticket QR" src="cid:%s" /></p>`, ticketing.InlineQRContentID)
	return b.String()
}
