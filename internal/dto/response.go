package dto

import (
	"time"

	"github.com/campusevents/campus-events/internal/models"
	"github.com/campusevents/campus-events/internal/service"
)

type ErrorResponse struct {
	Error   string           `json:"error"`
	Message string           `json:"message"`
	Booking *BookingResponse `json:"booking,omitempty"`
}

type UserResponse struct {
	ID    uint        `json:"id"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type MeResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`
}

type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type EventResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Capacity    int       `json:"capacity"`
	Booked      int64     `json:"booked"`
	Remaining   int64     `json:"remaining"`
	CreatedBy   uint      `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type BookingResponse struct {
	ID         uint           `json:"id"`
	UserID     uint           `json:"user_id"`
	EventID    uint           `json:"event_id"`
	TicketCode *string        `json:"ticket_code"`
	CreatedAt  time.Time      `json:"created_at"`
	Event      *EventResponse `json:"event,omitempty"`
}

func ToUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Role: u.Role}
}

func ToEventResponse(e service.EventWithCount) EventResponse {
	return EventResponse{
		ID:          e.Event.ID,
		Title:       e.Event.Title,
		Description: e.Event.Description,
		Location:    e.Event.Location,
		StartTime:   e.Event.StartTime,
		EndTime:     e.Event.EndTime,
		Capacity:    e.Event.Capacity,
		Booked:      e.Booked,
		Remaining:   e.Remaining(),
		CreatedBy:   e.Event.CreatedBy,
		CreatedAt:   e.Event.CreatedAt,
	}
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:         b.ID,
		UserID:     b.UserID,
		EventID:    b.EventID,
		TicketCode: b.TicketCode,
		CreatedAt:  b.CreatedAt,
	}
}

func ToBookingViewResponse(v service.BookingView) BookingResponse {
	resp := ToBookingResponse(&v.Booking)
	if v.Event != nil {
		ev := ToEventResponse(*v.Event)
		resp.Event = &ev
	}
	return resp
}
