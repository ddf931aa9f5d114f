package service

import "errors"

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyBooked      = errors.New("already booked")
	ErrEventFull          = errors.New("event is full")
	ErrForbidden          = errors.New("admin only")
	ErrEmailTaken         = errors.New("that email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrTicketingDisabled  = errors.New("ticket services are not configured")
	ErrUpstream           = errors.New("ticket service request failed")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
