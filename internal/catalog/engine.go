// Package catalog answers screening list queries.  It is a read-only path
// and takes no locks.
package catalog

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jinzhu/copier"

	"github.com/iliyamo/cinema-ticket-booking/internal/metrics"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// ResponseTopic is the topic name stamped on every list response.
const ResponseTopic = "MovieListResponse"

// ErrInvalidQuery marks a query that can never be answered, such as an
// unknown genre or a range ending before it starts.
var ErrInvalidQuery = errors.New("invalid catalog query")

// Store is the catalog read surface.
type Store interface {
	ScreeningsByName(ctx context.Context, movieName string) ([]model.Screening, error)
	ScreeningsByGenre(ctx context.Context, genre model.Genre) ([]model.Screening, error)
	ScreeningsBetween(ctx context.Context, start, end time.Time) ([]model.Screening, error)
}

// Query carries the optional filters of a list request.  The range is
// applied only when both Start and End are set.
type Query struct {
	CorrelationID int64
	Genre         model.Genre
	Title         string
	Start         *time.Time
	End           *time.Time
}

func (q Query) hasRange() bool { return q.Start != nil && q.End != nil }

// Validate rejects unknown genres and inverted ranges.
func (q Query) Validate() error {
	if q.Genre != "" && !q.Genre.Valid() {
		return errors.Mark(errors.Newf("unknown genre %q", q.Genre), ErrInvalidQuery)
	}
	if q.hasRange() && q.End.Before(*q.Start) {
		return errors.Mark(errors.New("range end is before range start"), ErrInvalidQuery)
	}
	return nil
}

// Response is a finished list answer.
type Response struct {
	TopicName    string                `json:"topicName"`
	CorrelatorID int64                 `json:"correlatorId"`
	Movies       []model.ScreeningView `json:"movies"`
	Timestamp    time.Time             `json:"timestamp"`
}

type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// Search runs one store query per present filter, genre first, then range,
// then title, and merges the results.  A screening matched by several
// filters appears once, at its first position.
func (e *Engine) Search(ctx context.Context, q Query) (*Response, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var merged []model.Screening
	seen := make(map[string]struct{})
	add := func(filter string, found []model.Screening, err error) error {
		metrics.CatalogQueries.WithLabelValues(filter).Inc()
		if err != nil {
			return errors.Wrapf(err, "catalog %s query", filter)
		}
		for _, s := range found {
			key := s.MovieName + "\x00" + s.Showtime.UTC().Format(time.RFC3339Nano)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, s)
		}
		return nil
	}

	if q.Genre != "" {
		found, err := e.store.ScreeningsByGenre(ctx, q.Genre)
		if err := add("genre", found, err); err != nil {
			return nil, err
		}
	}
	if q.hasRange() {
		found, err := e.store.ScreeningsBetween(ctx, q.Start.UTC(), q.End.UTC())
		if err := add("showtime", found, err); err != nil {
			return nil, err
		}
	}
	if q.Title != "" {
		found, err := e.store.ScreeningsByName(ctx, q.Title)
		if err := add("title", found, err); err != nil {
			return nil, err
		}
	}

	views := []model.ScreeningView{}
	if len(merged) > 0 {
		if err := copier.Copy(&views, &merged); err != nil {
			return nil, errors.Wrap(err, "project screenings")
		}
	}
	for i := range views {
		views[i].Showtime = views[i].Showtime.UTC()
	}

	return &Response{
		TopicName:    ResponseTopic,
		CorrelatorID: q.CorrelationID,
		Movies:       views,
		Timestamp:    e.now().UTC(),
	}, nil
}
