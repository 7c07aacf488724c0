// Package booking decides whether a seat request becomes a ticket.
//
// A booking resolves the screening, obtains a ticket number from the
// issuer, checks the seat against the tickets already issued for that
// screening and commits the new ticket.  The check and the commit run
// under a per-screening lock and the ticket store's unique index backs
// the same rule.
package booking

import (
	"context"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// ScreeningStore is the catalog read the coordinator needs.
type ScreeningStore interface {
	ScreeningsByName(ctx context.Context, movieName string) ([]model.Screening, error)
}

// TicketStore lists and creates tickets.  CreateTicket must report a
// violated (movie, showtime, seat) uniqueness rule with an error marked as
// repository.ErrDuplicateTicket.
type TicketStore interface {
	TicketsByMovie(ctx context.Context, movieName string) ([]model.Ticket, error)
	CreateTicket(ctx context.Context, t *model.Ticket) error
}

// Issuer mints a globally unique ticket number.
type Issuer interface {
	Issue(ctx context.Context) (string, error)
}

// Notifier is told about every committed ticket.
type Notifier interface {
	TicketConfirmed(ctx context.Context, t model.Ticket, correlationID int64) error
}
