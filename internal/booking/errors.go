package booking

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// Reason codes carried by a Failure.
const (
	CodeInvalidRequest  = "invalid_request"
	CodeTitleUnknown    = "title_unknown"
	CodeShowtimeUnknown = "showtime_unknown"
	CodeSeatTaken       = "seat_taken"
	CodeIssuerFailed    = "issuer_failed"
	CodeStoreRead       = "store_read_failed"
	CodeStoreWrite      = "store_write_failed"
	CodeLockFailed      = "lock_failed"
	CodeInternal        = "internal_error"
)

// Failure is a booking that ended in a non-confirmed terminal state.
type Failure struct {
	Outcome model.Outcome
	Code    string
	Reason  string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Code, f.Reason, f.Cause)
	}
	return f.Code + ": " + f.Reason
}

func (f *Failure) Unwrap() error { return f.Cause }

func fail(outcome model.Outcome, code, reason string, cause error) *Failure {
	return &Failure{Outcome: outcome, Code: code, Reason: reason, Cause: cause}
}

// Result converts the return values of Coordinator.Book into a
// transport-neutral BookingResult.  Errors that are not a Failure are
// reported as an upstream failure.
func Result(t *model.Ticket, err error) model.BookingResult {
	if err == nil {
		return model.BookingResult{Outcome: model.OutcomeConfirmed, Ticket: t}
	}
	var f *Failure
	if errors.As(err, &f) {
		return model.BookingResult{Outcome: f.Outcome, Code: f.Code, Reason: f.Reason}
	}
	return model.BookingResult{
		Outcome: model.OutcomeUpstreamFailure,
		Code:    CodeInternal,
		Reason:  "booking could not be completed",
	}
}
