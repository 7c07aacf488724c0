// Package boltrepo keeps screenings and tickets in a single BoltDB file so
// the service can run without an external database.
//
// Keys are built from the screening identity:
//
//	screenings: movieName 0x00 showtime
//	tickets:    movieName 0x00 showtime 0x00 seat
//
// Showtimes are encoded as fixed-width UTC strings, so a cursor over the
// movieName prefix yields screenings in chronological order.  The ticket
// key doubles as the unique index on (movie, showtime, seat).
package boltrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

var (
	screeningsBucket = []byte("screenings")
	ticketsBucket    = []byte("tickets")
)

const showtimeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements both the screening and the ticket store.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path and ensures both buckets
// exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{screeningsBucket, ticketsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create buckets")
	}
	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

func showtimeKey(t time.Time) string {
	return t.UTC().Format(showtimeLayout)
}

func moviePrefix(movieName string) []byte {
	return append([]byte(movieName), 0)
}

func screeningKey(movieName string, showtime time.Time) []byte {
	return append(moviePrefix(movieName), showtimeKey(showtime)...)
}

func ticketKey(movieName string, showtime time.Time, seat string) []byte {
	k := append(screeningKey(movieName, showtime), 0)
	return append(k, seat...)
}

// CreateScreening stores s, assigning ID from the bucket sequence.  A
// screening with the same name and showtime is rejected with
// repository.ErrDuplicateScreening.
func (s *Store) CreateScreening(_ context.Context, sc *model.Screening) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putScreening(tx.Bucket(screeningsBucket), sc)
	})
}

func putScreening(b *bolt.Bucket, sc *model.Screening) error {
	key := screeningKey(sc.MovieName, sc.Showtime)
	if b.Get(key) != nil {
		return errors.Mark(errors.Newf("screening %s at %s exists", sc.MovieName, showtimeKey(sc.Showtime)),
			repository.ErrDuplicateScreening)
	}
	id, err := b.NextSequence()
	if err != nil {
		return err
	}
	sc.ID = id
	sc.Showtime = sc.Showtime.UTC()
	data, err := json.Marshal(sc)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// ScreeningsByName returns the screenings of movieName ordered by showtime.
func (s *Store) ScreeningsByName(_ context.Context, movieName string) ([]model.Screening, error) {
	out := []model.Screening{}
	prefix := moviePrefix(movieName)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(screeningsBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var sc model.Screening
			if err := json.Unmarshal(v, &sc); err != nil {
				return err
			}
			out = append(out, sc)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "screenings by name")
	}
	return out, nil
}

// ScreeningsByGenre scans the whole bucket for an exact genre match.
func (s *Store) ScreeningsByGenre(_ context.Context, genre model.Genre) ([]model.Screening, error) {
	out, err := s.scanScreenings(func(sc model.Screening) bool { return sc.Genre == genre })
	return out, errors.Wrap(err, "screenings by genre")
}

// ScreeningsBetween returns screenings with start <= showtime <= end.
func (s *Store) ScreeningsBetween(_ context.Context, start, end time.Time) ([]model.Screening, error) {
	out, err := s.scanScreenings(func(sc model.Screening) bool {
		return !sc.Showtime.Before(start) && !sc.Showtime.After(end)
	})
	return out, errors.Wrap(err, "screenings between")
}

func (s *Store) scanScreenings(keep func(model.Screening) bool) ([]model.Screening, error) {
	out := []model.Screening{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(screeningsBucket).ForEach(func(_, v []byte) error {
			var sc model.Screening
			if err := json.Unmarshal(v, &sc); err != nil {
				return err
			}
			if keep(sc) {
				out = append(out, sc)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TicketsByMovie returns every ticket issued for movieName.
func (s *Store) TicketsByMovie(_ context.Context, movieName string) ([]model.Ticket, error) {
	out := []model.Ticket{}
	prefix := moviePrefix(movieName)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(ticketsBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var t model.Ticket
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			out = append(out, t)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "tickets by movie")
	}
	return out, nil
}

// CreateTicket stores t if its seat is still free.  The existence check and
// the write happen in one bolt write transaction, which bolt serialises.
func (s *Store) CreateTicket(_ context.Context, t *model.Ticket) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(ticketsBucket)
		key := ticketKey(t.MovieName, t.Showtime, t.Seat)
		if b.Get(key) != nil {
			return errors.Mark(errors.Newf("seat %s already issued", t.Seat), repository.ErrDuplicateTicket)
		}
		id, err := b.NextSequence()
		if err != nil {
			return errors.Wrap(err, "ticket sequence")
		}
		t.ID = id
		t.Showtime = t.Showtime.UTC()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now().UTC()
		}
		data, err := json.Marshal(t)
		if err != nil {
			return errors.Wrap(err, "encode ticket")
		}
		return errors.Wrap(b.Put(key, data), "put ticket")
	})
}

// SeedScreening is the on-disk shape of one entry in a seed file.
type SeedScreening struct {
	MovieName  string      `json:"movieName"`
	Showtime   time.Time   `json:"showtime"`
	Genre      model.Genre `json:"genre"`
	PriceCents int64       `json:"priceCents"`
}

// SeedScreenings inserts every screening not already present and returns
// how many were added.  Re-seeding the same data is a no-op.
func (s *Store) SeedScreenings(_ context.Context, seeds []SeedScreening) (int, error) {
	added := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(screeningsBucket)
		for _, seed := range seeds {
			if !seed.Genre.Valid() {
				return errors.Newf("seed %q: unknown genre %q", seed.MovieName, seed.Genre)
			}
			sc := model.Screening{
				MovieName:  seed.MovieName,
				Showtime:   seed.Showtime,
				Genre:      seed.Genre,
				PriceCents: seed.PriceCents,
			}
			err := putScreening(b, &sc)
			if errors.Is(err, repository.ErrDuplicateScreening) {
				continue
			}
			if err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "seed screenings")
	}
	return added, nil
}

// LoadSeedFile reads a JSON array of SeedScreening from path.
func LoadSeedFile(path string) ([]SeedScreening, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read seed file %s", path)
	}
	var seeds []SeedScreening
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, errors.Wrapf(err, "decode seed file %s", path)
	}
	return seeds, nil
}
