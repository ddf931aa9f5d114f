package service

import (
	"context"
	"errors"
	"log"

	"github.com/campusevents/campus-events/internal/audit"
	"github.com/campusevents/campus-events/internal/models"
	"github.com/campusevents/campus-events/internal/repository"
	"github.com/campusevents/campus-events/internal/ticketing"
	"gorm.io/gorm"
)

// TicketDeliverer sends the ticket for a freshly committed booking.
type TicketDeliverer interface {
	Deliver(ctx context.Context, user *models.User, booking *models.Booking) error
}

type BookingService interface {
	// CreateBooking books the event for the user. On ErrAlreadyBooked the
	// existing booking is returned together with the error.
	CreateBooking(ctx context.Context, user *models.User, eventID uint) (*models.Booking, error)
	ListForUser(ctx context.Context, userID uint) ([]BookingView, error)
}

// BookingView is a booking with its event and that event's booking count.
type BookingView struct {
	Booking models.Booking
	Event   *EventWithCount
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	eventRepo   repository.EventRepository
	tickets     TicketDeliverer
	audit       audit.Logger
	newCode     func() string
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	eventRepo repository.EventRepository,
	tickets TicketDeliverer,
	auditLog audit.Logger,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		eventRepo:   eventRepo,
		tickets:     tickets,
		audit:       auditLog,
		newCode:     ticketing.NewCode,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, user *models.User, eventID uint) (*models.Booking, error) {
	var result *models.Booking

	err := s.bookingRepo.WithinTx(ctx, func(tx *gorm.DB) error {
		// The event row lock serializes concurrent bookings for the same event,
		// so the count below cannot go stale before the insert commits.
		event, err := s.eventRepo.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		existing, err := s.bookingRepo.FindByUserAndEvent(ctx, tx, user.ID, eventID)
		if err == nil {
			result = existing
			return ErrAlreadyBooked
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		booked, err := s.bookingRepo.CountByEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if booked >= int64(event.Capacity) {
			return ErrEventFull
		}

		code := s.newCode()
		booking := &models.Booking{
			UserID:     user.ID,
			EventID:    eventID,
			TicketCode: &code,
		}
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyBooked
			}
			return err
		}
		booking.Event = event
		result = booking
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyBooked) {
			return result, err
		}
		return nil, err
	}

	s.audit.Log(ctx, audit.ActionBookingCreated, audit.UserID(user.ID), map[string]any{
		"event_id":   eventID,
		"booking_id": result.ID,
	})

	if s.tickets != nil {
		if err := s.tickets.Deliver(ctx, user, result); err != nil {
			log.Printf("[Booking] ticket delivery for booking %d failed: %v", result.ID, err)
		}
	}

	return result, nil
}

// findVisibleBooking returns the booking when it belongs to the user; admins
// may read any booking. Everything else reads as not found.
func findVisibleBooking(ctx context.Context, repo repository.BookingRepository, user *models.User, bookingID uint) (*models.Booking, error) {
	booking, err := repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != user.ID && !user.IsAdmin() {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// ListForUser returns the user's bookings, newest first.
func (s *bookingService) ListForUser(ctx context.Context, userID uint) ([]BookingView, error) {
	bookings, err := s.bookingRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool)
	ids := make([]uint, 0, len(bookings))
	for _, b := range bookings {
		if !seen[b.EventID] {
			seen[b.EventID] = true
			ids = append(ids, b.EventID)
		}
	}
	counts, err := s.bookingRepo.CountByEvents(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		view := BookingView{Booking: b}
		if b.Event != nil {
			view.Event = &EventWithCount{Event: *b.Event, Booked: counts[b.EventID]}
		}
		views = append(views, view)
	}
	return views, nil
}
