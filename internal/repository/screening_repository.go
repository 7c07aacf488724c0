package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// ScreeningRepo reads and writes the screenings table.  Showtimes are
// stored as DATETIME(6) in UTC; the connection is opened with loc=UTC so
// scanned values come back as UTC instants.
type ScreeningRepo struct {
	db *sql.DB
}

// NewScreeningRepo constructs a ScreeningRepo with the given DB handle.
func NewScreeningRepo(db *sql.DB) *ScreeningRepo {
	return &ScreeningRepo{db: db}
}

const screeningColumns = `id, movie_name, showtime, genre, price_cents`

// ScreeningsByName returns every screening of the exact movie title.
func (r *ScreeningRepo) ScreeningsByName(ctx context.Context, movieName string) ([]model.Screening, error) {
	const q = `SELECT ` + screeningColumns + ` FROM screenings WHERE movie_name = ? ORDER BY id`
	out, err := r.query(ctx, q, movieName)
	return out, errors.Wrap(err, "screenings by name")
}

// ScreeningsByGenre returns every screening tagged with genre.
func (r *ScreeningRepo) ScreeningsByGenre(ctx context.Context, genre model.Genre) ([]model.Screening, error) {
	const q = `SELECT ` + screeningColumns + ` FROM screenings WHERE genre = ? ORDER BY id`
	out, err := r.query(ctx, q, string(genre))
	return out, errors.Wrap(err, "screenings by genre")
}

// ScreeningsBetween returns screenings whose showtime lies in the closed
// interval [start, end].
func (r *ScreeningRepo) ScreeningsBetween(ctx context.Context, start, end time.Time) ([]model.Screening, error) {
	const q = `SELECT ` + screeningColumns + ` FROM screenings WHERE showtime BETWEEN ? AND ? ORDER BY id`
	out, err := r.query(ctx, q, start.UTC(), end.UTC())
	return out, errors.Wrap(err, "screenings between")
}

// Create inserts a screening and assigns the generated ID.
func (r *ScreeningRepo) Create(ctx context.Context, s *model.Screening) error {
	const q = `INSERT INTO screenings (movie_name, showtime, genre, price_cents) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.MovieName, s.Showtime.UTC(), string(s.Genre), s.PriceCents)
	if err != nil {
		if isDuplicateEntry(err) {
			return errors.Mark(errors.Wrap(err, "insert screening"), ErrDuplicateScreening)
		}
		return errors.Wrap(err, "insert screening")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "screening insert id")
	}
	s.ID = uint64(id)
	return nil
}

func (r *ScreeningRepo) query(ctx context.Context, q string, args ...any) ([]model.Screening, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Screening{}
	for rows.Next() {
		var (
			s     model.Screening
			genre string
		)
		if err := rows.Scan(&s.ID, &s.MovieName, &s.Showtime, &genre, &s.PriceCents); err != nil {
			return nil, err
		}
		s.Genre = model.Genre(genre)
		s.Showtime = s.Showtime.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
