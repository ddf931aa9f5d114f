package functions

import (
	"context"
	"errors"

	"github.com/campusevents/campus-events/internal/ticketing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTicketNotFound = errors.New("ticket not found")

// TicketStore looks bookings up by ticket code for check-in.
type TicketStore interface {
	FindTicket(ctx context.Context, ticketCode string, eventID uint) (*ticketing.CheckinBooking, error)
}

// PgTicketStore reads the bookings table written by the web application.
type PgTicketStore struct {
	pool *pgxpool.Pool
}

func NewPgTicketStore(pool *pgxpool.Pool) *PgTicketStore {
	return &PgTicketStore{pool: pool}
}

func (s *PgTicketStore) FindTicket(ctx context.Context, ticketCode string, eventID uint) (*ticketing.CheckinBooking, error) {
	var b ticketing.CheckinBooking
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, event_id, ticket_code, created_at
		   FROM bookings
		  WHERE ticket_code = $1 AND event_id = $2
		  LIMIT 1`,
		ticketCode, eventID,
	).Scan(&b.ID, &b.UserID, &b.EventID, &b.TicketCode, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &b, nil
}
