package functions

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/campusevents/campus-events/internal/audit"
	"github.com/campusevents/campus-events/internal/ticketing"
)

var errBadEventID = errors.New("event_id must be a positive integer")

type checkinInput struct {
	TicketCode string          `json:"ticket_code"`
	EventID    json.RawMessage `json:"event_id"`
}

// parseEventID accepts a JSON number or a numeric string.
func parseEventID(raw json.RawMessage) (uint, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, errBadEventID
	}

	var n int64
	switch t := v.(type) {
	case float64:
		if t != float64(int64(t)) {
			return 0, errBadEventID
		}
		n = int64(t)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, errBadEventID
		}
		n = parsed
	default:
		return 0, errBadEventID
	}
	if n <= 0 {
		return 0, errBadEventID
	}
	return uint(n), nil
}

// CheckinValidate handles POST /checkin_validate
func (s *Server) CheckinValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !authorized(r, ticketing.HeaderCheckinSecret, s.cfg.CheckinSecret) {
		s.audit.Log(ctx, audit.ActionCheckinDenied, nil, map[string]any{"reason": "bad_secret"})
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var in checkinInput
	decodeJSON(r, &in)
	code := strings.TrimSpace(in.TicketCode)
	if code == "" || len(in.EventID) == 0 || string(in.EventID) == "null" {
		s.audit.Log(ctx, audit.ActionCheckinBadRequest, nil, map[string]any{"missing": true})
		writeError(w, http.StatusBadRequest, "bad_request", "ticket_code and event_id are required")
		return
	}

	eventID, err := parseEventID(in.EventID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	booking, err := s.tickets.FindTicket(ctx, code, eventID)
	switch {
	case errors.Is(err, ErrTicketNotFound):
		s.audit.Log(ctx, audit.ActionCheckinInvalid, nil, map[string]any{"event_id": eventID})
		writeJSON(w, http.StatusOK, ticketing.CheckinResult{Valid: false})
	case err != nil:
		s.audit.Log(ctx, audit.ActionCheckinError, nil, map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "server_error", "")
	default:
		s.audit.Log(ctx, audit.ActionCheckinValid, nil, map[string]any{"event_id": eventID, "booking_id": booking.ID})
		writeJSON(w, http.StatusOK, ticketing.CheckinResult{Valid: true, Booking: booking})
	}
}
