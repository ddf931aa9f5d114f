// Package audit records user-facing actions (registrations, logins, bookings,
// ticket deliveries) to a document log. Writes never fail the caller.
package audit

import (
	"context"
	"time"
)

const (
	ActionUserRegistered  = "user_registered"
	ActionUserLogin       = "user_login"
	ActionUserLogout      = "user_logout"
	ActionEventCreated    = "event_created"
	ActionBookingCreated  = "booking_created"
	ActionTicketEmailSent = "ticket_email_sent"
	ActionAuditTest       = "audit_test"

	ActionCheckinDenied     = "checkin_denied"
	ActionCheckinBadRequest = "checkin_bad_request"
	ActionCheckinInvalid    = "checkin_invalid"
	ActionCheckinValid      = "checkin_valid"
	ActionCheckinError      = "checkin_error"
)

const (
	SourceWeb      = "web"
	SourceFunction = "cloud_function"
)

type Entry struct {
	Action    string         `bson:"action" json:"action"`
	UserID    *uint          `bson:"user_id" json:"user_id"`
	Meta      map[string]any `bson:"meta" json:"meta"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
	Source    string         `bson:"source" json:"source"`
}

func NewEntry(source, action string, userID *uint, meta map[string]any) Entry {
	if meta == nil {
		meta = map[string]any{}
	}
	return Entry{
		Action:    action,
		UserID:    userID,
		Meta:      meta,
		CreatedAt: time.Now().UTC(),
		Source:    source,
	}
}

// Logger is implemented by every sink. Log must not block on the sink for long
// and must swallow sink errors.
type Logger interface {
	Log(ctx context.Context, action string, userID *uint, meta map[string]any)
}

// UserID is a helper for the optional user reference on an entry.
func UserID(id uint) *uint {
	return &id
}

type Nop struct{}

func (Nop) Log(context.Context, string, *uint, map[string]any) {}
