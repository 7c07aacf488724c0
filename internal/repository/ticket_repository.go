package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// TicketRepo persists issued tickets.  The tickets table carries a unique
// key on (movie_name, showtime, seat); an insert that violates it is
// reported as ErrDuplicateTicket.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// TicketsByMovie returns every ticket issued for any screening of the
// movie.
func (r *TicketRepo) TicketsByMovie(ctx context.Context, movieName string) ([]model.Ticket, error) {
	const q = `SELECT id, ticket_number, movie_name, showtime, genre, seat, created_at
               FROM tickets WHERE movie_name = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, movieName)
	if err != nil {
		return nil, errors.Wrap(err, "tickets by movie")
	}
	defer rows.Close()

	out := []model.Ticket{}
	for rows.Next() {
		var (
			t     model.Ticket
			genre string
		)
		if err := rows.Scan(&t.ID, &t.TicketNumber, &t.MovieName, &t.Showtime, &genre, &t.Seat, &t.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan ticket")
		}
		t.Genre = model.Genre(genre)
		t.Showtime = t.Showtime.UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate tickets")
	}
	return out, nil
}

// CreateTicket inserts t and fills in the generated ID.  CreatedAt is
// stamped here when the caller left it zero.
func (r *TicketRepo) CreateTicket(ctx context.Context, t *model.Ticket) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO tickets (ticket_number, movie_name, showtime, genre, seat, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.TicketNumber, t.MovieName, t.Showtime.UTC(), string(t.Genre), t.Seat, t.CreatedAt)
	if err != nil {
		if isDuplicateEntry(err) {
			return errors.Mark(errors.Wrapf(err, "insert ticket for seat %s", t.Seat), ErrDuplicateTicket)
		}
		return errors.Wrap(err, "insert ticket")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "ticket insert id")
	}
	t.ID = uint64(id)
	return nil
}
