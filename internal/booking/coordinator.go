package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-ticket-booking/internal/lock"
	"github.com/iliyamo/cinema-ticket-booking/internal/metrics"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

const notifyTimeout = 2 * time.Second

// Coordinator runs the booking workflow:
//
//	validate -> resolve screening -> issue number -> lock screening
//	-> conflict check -> commit -> unlock -> notify
//
// Any step may end the booking with a *Failure.  Numbers minted for a
// booking that later conflicts are discarded.
type Coordinator struct {
	screenings ScreeningStore
	tickets    TicketStore
	issuer     Issuer
	locker     lock.Locker
	notifier   Notifier
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLocker replaces the default in-process keyed mutex.
func WithLocker(l lock.Locker) Option {
	return func(c *Coordinator) { c.locker = l }
}

// WithNotifier registers n to hear about committed tickets.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithClock overrides the clock used to stamp CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(screenings ScreeningStore, tickets TicketStore, issuer Issuer, opts ...Option) *Coordinator {
	c := &Coordinator{
		screenings: screenings,
		tickets:    tickets,
		issuer:     issuer,
		locker:     lock.NewKeyedMutex(),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Book attempts to reserve req.Seat.  On success it returns the committed
// ticket.  Every other terminal state is returned as a *Failure; pass the
// results to Result for a transport-neutral answer.
func (c *Coordinator) Book(ctx context.Context, req model.BookingRequest) (*model.Ticket, error) {
	t, err := c.book(ctx, req)
	c.finish(req, t, err)
	if err != nil {
		return nil, err
	}
	c.notify(ctx, *t, req.CorrelationID)
	return t, nil
}

func (c *Coordinator) book(ctx context.Context, req model.BookingRequest) (*model.Ticket, error) {
	if err := req.Validate(); err != nil {
		return nil, fail(model.OutcomeInvalid, CodeInvalidRequest, err.Error(), nil)
	}

	screenings, err := Lookup(ctx, c.screenings, req.MovieName)
	if err != nil {
		return nil, fail(model.OutcomeUpstreamFailure, CodeStoreRead, "catalog lookup failed", err)
	}
	screening, f := resolve(screenings, req.MovieName, req.Showtime)
	if f != nil {
		return nil, f
	}

	number, err := c.issuer.Issue(ctx)
	if err != nil {
		return nil, fail(model.OutcomeUpstreamFailure, CodeIssuerFailed, "ticket issuer unavailable", err)
	}

	candidate := model.Ticket{
		TicketNumber: number,
		MovieName:    screening.MovieName,
		Showtime:     screening.Showtime.UTC(),
		Genre:        screening.Genre,
		Seat:         req.Seat,
		CreatedAt:    c.now().UTC(),
	}
	if err := c.commit(ctx, &candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}

// commit holds the screening lock across the conflict check and the
// insert.
func (c *Coordinator) commit(ctx context.Context, candidate *model.Ticket) error {
	release, err := c.locker.Acquire(ctx, lock.ScreeningKey(candidate.MovieName, candidate.Showtime))
	if err != nil {
		return fail(model.OutcomeUpstreamFailure, CodeLockFailed, "screening is busy", err)
	}
	defer release()

	issued, err := c.tickets.TicketsByMovie(ctx, candidate.MovieName)
	if err != nil {
		return fail(model.OutcomeUpstreamFailure, CodeStoreRead, "ticket lookup failed", err)
	}
	if existing, taken := DetectConflict(*candidate, issued); taken {
		return fail(model.OutcomeConflict, CodeSeatTaken,
			"seat "+candidate.Seat+" already issued as ticket "+existing.TicketNumber, nil)
	}

	if err := c.tickets.CreateTicket(ctx, candidate); err != nil {
		if errors.Is(err, repository.ErrDuplicateTicket) {
			return fail(model.OutcomeConflict, CodeSeatTaken, "seat "+candidate.Seat+" already issued", err)
		}
		return fail(model.OutcomeUpstreamFailure, CodeStoreWrite, "ticket could not be stored", err)
	}
	return nil
}

func (c *Coordinator) notify(ctx context.Context, t model.Ticket, correlationID int64) {
	if c.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := c.notifier.TicketConfirmed(nctx, t, correlationID); err != nil {
		c.logger.Warn("ticket notification failed",
			"ticket_number", t.TicketNumber,
			"correlation_id", correlationID,
			"error", err)
	}
}

func (c *Coordinator) finish(req model.BookingRequest, t *model.Ticket, err error) {
	res := Result(t, err)
	metrics.BookingAttempts.WithLabelValues(string(res.Outcome)).Inc()

	attrs := []any{
		"correlation_id", req.CorrelationID,
		"movie", req.MovieName,
		"showtime", req.Showtime.UTC().Format(time.RFC3339),
		"seat", req.Seat,
		"outcome", res.Outcome,
	}
	switch res.Outcome {
	case model.OutcomeConfirmed:
		c.logger.Info("booking confirmed", append(attrs, "ticket_number", t.TicketNumber, "ticket_id", t.ID)...)
	case model.OutcomeUpstreamFailure:
		c.logger.Error("booking failed", append(attrs, "code", res.Code, "error", err)...)
	default:
		c.logger.Info("booking rejected", append(attrs, "code", res.Code, "reason", res.Reason)...)
	}
}
