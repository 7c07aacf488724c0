// Package queue carries ticket.confirmed events between the booking
// service and the log consumer.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// TicketConfirmedQueue is the durable queue (and default Kafka topic)
// carrying TicketConfirmedEvent messages.
const TicketConfirmedQueue = "ticket.confirmed"

// TicketConfirmedEvent is published after a ticket is committed.  It holds
// everything a downstream consumer needs without reading the ticket store.
type TicketConfirmedEvent struct {
	EventID       string `json:"event_id"`
	TicketID      uint64 `json:"ticket_id"`
	TicketNumber  string `json:"ticket_number"`
	CorrelationID int64  `json:"correlation_id"`
	MovieName     string `json:"movie_name"`
	Showtime      string `json:"showtime"`
	Genre         string `json:"genre"`
	Seat          string `json:"seat"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// NewTicketConfirmedEvent builds the event for t with a fresh event id.
func NewTicketConfirmedEvent(t model.Ticket, correlationID int64) TicketConfirmedEvent {
	confirmed := t.CreatedAt
	if confirmed.IsZero() {
		confirmed = time.Now()
	}
	return TicketConfirmedEvent{
		EventID:       uuid.NewString(),
		TicketID:      t.ID,
		TicketNumber:  t.TicketNumber,
		CorrelationID: correlationID,
		MovieName:     t.MovieName,
		Showtime:      t.Showtime.UTC().Format(time.RFC3339),
		Genre:         string(t.Genre),
		Seat:          t.Seat,
		ConfirmedAt:   confirmed.UTC().Format(time.RFC3339),
	}
}
