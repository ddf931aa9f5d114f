package dto

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

type CredentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateEventRequest keeps capacity raw so that 12, 12.0 and "12" are all
// accepted and anything else reaches the service for a field error.
type CreateEventRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	Capacity    json.RawMessage `json:"capacity"`
}

// CapacityText returns capacity as the text the service validates.
// Missing or null yields "".
func (r CreateEventRequest) CapacityText() string {
	raw := bytes.TrimSpace(r.Capacity)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return strconv.FormatInt(int64(t), 10)
		}
	}
	return string(raw)
}

type CheckinRequest struct {
	TicketCode string `json:"ticket_code" validate:"required"`
	EventID    uint   `json:"event_id" validate:"required,gt=0"`
}
