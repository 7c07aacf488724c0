package model

import (
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// BookingRequest asks for exactly one seat at one screening.  It is never
// persisted.
type BookingRequest struct {
	MovieName     string
	Showtime      time.Time
	Genre         Genre
	Seat          string
	CorrelationID int64
}

// Validate checks the fields every booking needs.  Genre is optional
// because the screening's own genre is authoritative.
func (r BookingRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.MovieName) == "":
		return errors.New("movie name is required")
	case r.Showtime.IsZero():
		return errors.New("showtime is required")
	case r.Seat == "":
		return errors.New("seat is required")
	case r.Genre != "" && !r.Genre.Valid():
		return errors.Newf("unknown genre %q", r.Genre)
	}
	return nil
}

// Outcome is the terminal state of a booking attempt.
type Outcome string

const (
	OutcomeConfirmed       Outcome = "CONFIRMED"
	OutcomeConflict        Outcome = "CONFLICT"
	OutcomeNotFound        Outcome = "NOT_FOUND"
	OutcomeUpstreamFailure Outcome = "UPSTREAM_FAILURE"
	OutcomeInvalid         Outcome = "INVALID"
)

// BookingResult is the transport-neutral answer to a BookingRequest.
// Ticket is set only for OutcomeConfirmed; Code and Reason only for the
// failure outcomes.
type BookingResult struct {
	Outcome Outcome
	Ticket  *Ticket
	Code    string
	Reason  string
}

// Status maps the outcome onto an HTTP status class.
func (r BookingResult) Status() int {
	switch r.Outcome {
	case OutcomeConfirmed:
		return http.StatusCreated
	case OutcomeConflict:
		return http.StatusConflict
	case OutcomeNotFound:
		return http.StatusNotFound
	case OutcomeInvalid:
		return http.StatusBadRequest
	case OutcomeUpstreamFailure:
		if strings.HasPrefix(r.Code, "issuer") {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
