package queue

import (
	"context"
	"log/slog"

	"github.com/iliyamo/cinema-ticket-booking/internal/metrics"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// Publisher hands a TicketConfirmedEvent to a broker.
type Publisher interface {
	Publish(ctx context.Context, ev TicketConfirmedEvent) error
	Close() error
}

// Notifier adapts a Publisher to the booking coordinator's notification
// hook and records the publish result.
type Notifier struct {
	pub    Publisher
	driver string
	logger *slog.Logger
}

func NewNotifier(pub Publisher, driver string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{pub: pub, driver: driver, logger: logger}
}

func (n *Notifier) TicketConfirmed(ctx context.Context, t model.Ticket, correlationID int64) error {
	ev := NewTicketConfirmedEvent(t, correlationID)
	err := n.pub.Publish(ctx, ev)
	metrics.EventsPublished.WithLabelValues(n.driver, metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	n.logger.Debug("ticket event published", "driver", n.driver, "event_id", ev.EventID, "ticket_number", ev.TicketNumber)
	return nil
}
