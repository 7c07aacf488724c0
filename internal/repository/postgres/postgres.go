// Package postgres implements the catalog and ticket stores on PostgreSQL
// using the movie_service schema.  Prices are kept as NUMERIC and
// converted to cents on read.
package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

// DBTX is the subset of *pgxpool.Pool and pgx.Tx used by the repositories.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ScreeningRepo reads movie_service.movies.
type ScreeningRepo struct {
	db DBTX
}

func NewScreeningRepo(db DBTX) *ScreeningRepo { return &ScreeningRepo{db: db} }

const movieColumns = `id, movie_name, showtime, genre, (ROUND(price * 100))::bigint`

func (r *ScreeningRepo) ScreeningsByName(ctx context.Context, movieName string) ([]model.Screening, error) {
	const q = `SELECT ` + movieColumns + ` FROM movie_service.movies WHERE movie_name = $1 ORDER BY id`
	out, err := r.query(ctx, q, movieName)
	return out, errors.Wrap(err, "screenings by name")
}

func (r *ScreeningRepo) ScreeningsByGenre(ctx context.Context, genre model.Genre) ([]model.Screening, error) {
	const q = `SELECT ` + movieColumns + ` FROM movie_service.movies WHERE genre = $1 ORDER BY id`
	out, err := r.query(ctx, q, string(genre))
	return out, errors.Wrap(err, "screenings by genre")
}

func (r *ScreeningRepo) ScreeningsBetween(ctx context.Context, start, end time.Time) ([]model.Screening, error) {
	const q = `SELECT ` + movieColumns + ` FROM movie_service.movies WHERE showtime BETWEEN $1 AND $2 ORDER BY id`
	out, err := r.query(ctx, q, start.UTC(), end.UTC())
	return out, errors.Wrap(err, "screenings between")
}

// Create inserts a screening; PriceCents is stored as a NUMERIC amount.
func (r *ScreeningRepo) Create(ctx context.Context, s *model.Screening) error {
	const q = `INSERT INTO movie_service.movies (movie_name, showtime, genre, price)
               VALUES ($1, $2, $3, $4::numeric / 100) RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, q, s.MovieName, s.Showtime.UTC(), string(s.Genre), s.PriceCents).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Mark(errors.Wrap(err, "insert screening"), repository.ErrDuplicateScreening)
		}
		return errors.Wrap(err, "insert screening")
	}
	s.ID = uint64(id)
	return nil
}

func (r *ScreeningRepo) query(ctx context.Context, q string, args ...any) ([]model.Screening, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Screening{}
	for rows.Next() {
		var (
			s     model.Screening
			id    int64
			genre string
		)
		if err := rows.Scan(&id, &s.MovieName, &s.Showtime, &genre, &s.PriceCents); err != nil {
			return nil, err
		}
		s.ID = uint64(id)
		s.Genre = model.Genre(genre)
		s.Showtime = s.Showtime.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// TicketRepo persists movie_service.tickets.  The issuer's number lives in
// the ticket_id column.
type TicketRepo struct {
	db DBTX
}

func NewTicketRepo(db DBTX) *TicketRepo { return &TicketRepo{db: db} }

func (r *TicketRepo) TicketsByMovie(ctx context.Context, movieName string) ([]model.Ticket, error) {
	const q = `SELECT id, ticket_id, movie_name, showtime, genre, seat, created_at
               FROM movie_service.tickets WHERE movie_name = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, q, movieName)
	if err != nil {
		return nil, errors.Wrap(err, "tickets by movie")
	}
	defer rows.Close()

	out := []model.Ticket{}
	for rows.Next() {
		var (
			t     model.Ticket
			id    int64
			genre string
		)
		if err := rows.Scan(&id, &t.TicketNumber, &t.MovieName, &t.Showtime, &genre, &t.Seat, &t.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan ticket")
		}
		t.ID = uint64(id)
		t.Genre = model.Genre(genre)
		t.Showtime = t.Showtime.UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate tickets")
	}
	return out, nil
}

// CreateTicket inserts t.  A unique violation on the screening seat is
// marked with repository.ErrDuplicateTicket.
func (r *TicketRepo) CreateTicket(ctx context.Context, t *model.Ticket) error {
	const q = `INSERT INTO movie_service.tickets (ticket_id, movie_name, showtime, genre, seat)
               VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	var id int64
	err := r.db.QueryRow(ctx, q, t.TicketNumber, t.MovieName, t.Showtime.UTC(), string(t.Genre), t.Seat).Scan(&id, &t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Mark(errors.Wrapf(err, "insert ticket for seat %s", t.Seat), repository.ErrDuplicateTicket)
		}
		return errors.Wrap(err, "insert ticket")
	}
	t.ID = uint64(id)
	return nil
}
