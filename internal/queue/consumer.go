package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// TicketLogFile is the file, under the consumer's log directory, that
// receives one line per confirmed ticket.
const TicketLogFile = "tickets.log"

// Consumer reads ticket.confirmed messages and appends them to
// <dir>/tickets.log.
type Consumer struct {
	url    string
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

func NewConsumer(url, dir string, logger *slog.Logger) *Consumer {
	if dir == "" {
		dir = "logs"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{url: url, dir: dir, logger: logger}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff whenever the broker connection is lost.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("ticket consumer: dial failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("ticket consumer: loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "channel open")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("ticket consumer: set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(TicketConfirmedQueue, true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "queue declare")
	}
	msgs, err := ch.ConsumeWithContext(ctx, TicketConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "queue consume")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.HandleMessage(d.Body); err != nil {
				c.logger.Error("ticket consumer: handle message failed", "error", err)
				// Reject without requeue so a bad message cannot spin.
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event and appends its log line.
func (c *Consumer) HandleMessage(body []byte) error {
	var ev TicketConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return errors.Wrap(err, "unmarshal")
	}
	if ev.TicketNumber == "" {
		return errors.New("event without ticket number")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.Wrap(err, "mkdir logs")
	}
	f, err := os.OpenFile(filepath.Join(c.dir, TicketLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open log file")
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return errors.Wrap(err, "write log")
	}
	return nil
}

func formatLine(ev TicketConfirmedEvent) string {
	return fmt.Sprintf("[%s] Ticket confirmed | ticket_number=%s | ticket_id=%d | correlation_id=%d | movie=%q | showtime=%s | genre=%s | seat=%s\n",
		ev.ConfirmedAt, ev.TicketNumber, ev.TicketID, ev.CorrelationID, ev.MovieName, ev.Showtime, ev.Genre, ev.Seat)
}
