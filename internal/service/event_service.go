package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/campusevents/campus-events/internal/audit"
	"github.com/campusevents/campus-events/internal/models"
	"github.com/campusevents/campus-events/internal/repository"
	"gorm.io/gorm"
)

// CreateEventInput carries raw form or JSON values; Capacity and the times
// are parsed here so both surfaces share one set of rules.
type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	StartTime   string
	EndTime     string
	Capacity    string
}

// EventWithCount is an event together with the number of bookings it holds.
type EventWithCount struct {
	Event  models.Event
	Booked int64
}

func (e EventWithCount) Remaining() int64 {
	if left := int64(e.Event.Capacity) - e.Booked; left > 0 {
		return left
	}
	return 0
}

type EventService interface {
	CreateEvent(ctx context.Context, creator *models.User, in CreateEventInput) (*models.Event, error)
	ListEvents(ctx context.Context) ([]EventWithCount, error)
	GetEvent(ctx context.Context, id uint) (*EventWithCount, error)
}

type eventService struct {
	eventRepo   repository.EventRepository
	bookingRepo repository.BookingRepository
	audit       audit.Logger
}

func NewEventService(eventRepo repository.EventRepository, bookingRepo repository.BookingRepository, auditLog audit.Logger) EventService {
	return &eventService{
		eventRepo:   eventRepo,
		bookingRepo: bookingRepo,
		audit:       auditLog,
	}
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseTime accepts RFC 3339 and the datetime-local formats browsers submit.
// Values without a zone are taken as UTC.
func parseTime(value string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func (s *eventService) CreateEvent(ctx context.Context, creator *models.User, in CreateEventInput) (*models.Event, error) {
	if !creator.IsAdmin() {
		return nil, ErrForbidden
	}

	title := strings.TrimSpace(in.Title)
	location := strings.TrimSpace(in.Location)
	startRaw := strings.TrimSpace(in.StartTime)
	endRaw := strings.TrimSpace(in.EndTime)
	capacityRaw := strings.TrimSpace(in.Capacity)

	switch {
	case title == "":
		return nil, invalid("title", "title is required")
	case location == "":
		return nil, invalid("location", "location is required")
	case startRaw == "":
		return nil, invalid("start_time", "start_time is required")
	case endRaw == "":
		return nil, invalid("end_time", "end_time is required")
	case capacityRaw == "":
		return nil, invalid("capacity", "capacity is required")
	}

	capacity, err := strconv.Atoi(capacityRaw)
	if err != nil {
		return nil, invalid("capacity", "capacity must be an integer")
	}
	if capacity <= 0 {
		return nil, invalid("capacity", "capacity must be > 0")
	}

	start, ok := parseTime(startRaw)
	if !ok {
		return nil, invalid("start_time", "start_time is not a valid date/time")
	}
	end, ok := parseTime(endRaw)
	if !ok {
		return nil, invalid("end_time", "end_time is not a valid date/time")
	}
	if !end.After(start) {
		return nil, invalid("end_time", "end_time must be after start_time")
	}

	event := &models.Event{
		Title:     title,
		Location:  location,
		StartTime: start,
		EndTime:   end,
		Capacity:  capacity,
		CreatedBy: creator.ID,
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		event.Description = &desc
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.ActionEventCreated, audit.UserID(creator.ID), map[string]any{
		"event_id": event.ID,
		"title":    event.Title,
	})
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]EventWithCount, error) {
	events, err := s.eventRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	counts, err := s.bookingRepo.CountByEvents(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]EventWithCount, 0, len(events))
	for _, e := range events {
		result = append(result, EventWithCount{Event: e, Booked: counts[e.ID]})
	}
	return result, nil
}

func (s *eventService) GetEvent(ctx context.Context, id uint) (*EventWithCount, error) {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	counts, err := s.bookingRepo.CountByEvents(ctx, []uint{id})
	if err != nil {
		return nil, err
	}
	return &EventWithCount{Event: *event, Booked: counts[id]}, nil
}
