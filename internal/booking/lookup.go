package booking

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// Lookup returns the screenings of movieName in store order.  An unknown
// title yields an empty slice, not an error.
func Lookup(ctx context.Context, store ScreeningStore, movieName string) ([]model.Screening, error) {
	if strings.TrimSpace(movieName) == "" {
		return nil, errors.New("movie name is required")
	}
	screenings, err := store.ScreeningsByName(ctx, movieName)
	if err != nil {
		return nil, errors.Wrapf(err, "lookup %q", movieName)
	}
	return screenings, nil
}

// resolve picks the first screening starting exactly at showtime.
func resolve(screenings []model.Screening, movieName string, showtime time.Time) (*model.Screening, *Failure) {
	if len(screenings) == 0 {
		return nil, fail(model.OutcomeNotFound, CodeTitleUnknown,
			"no screenings found for "+movieName, nil)
	}
	for i := range screenings {
		if screenings[i].SameScreening(movieName, showtime) {
			return &screenings[i], nil
		}
	}
	return nil, fail(model.OutcomeNotFound, CodeShowtimeUnknown,
		movieName+" is not showing at "+showtime.UTC().Format(time.RFC3339), nil)
}
