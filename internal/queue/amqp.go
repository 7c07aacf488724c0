package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// defaultDialTimeout bounds the connect and handshake when the caller's
// context has no deadline.
const defaultDialTimeout = 5 * time.Second

// AMQPPublisher publishes persistent messages to the ticket.confirmed
// queue through the default exchange.  The connection is opened on first
// use and reopened after the broker drops it.
type AMQPPublisher struct {
	url   string
	queue string

	// sem is a one-slot lock that callers can give up on when their
	// context ends.
	sem  chan struct{}
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: TicketConfirmedQueue, sem: make(chan struct{}, 1)}
}

func (p *AMQPPublisher) lock(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "wait for broker connection")
	}
}

func (p *AMQPPublisher) unlock() { <-p.sem }

// dialTimeout is what is left of ctx's deadline, or defaultDialTimeout.
func dialTimeout(ctx context.Context) (time.Duration, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultDialTimeout, nil
	}
	d := time.Until(deadline)
	if d <= 0 {
		return 0, errors.Wrap(context.DeadlineExceeded, "dial broker")
	}
	return d, nil
}

func (p *AMQPPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()

	timeout, err := dialTimeout(ctx)
	if err != nil {
		return nil, err
	}
	// DefaultDial keeps the socket deadline through the AMQP handshake.
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, errors.Wrap(err, "dial broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declare %s", p.queue)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev TicketConfirmedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	if err := p.lock(ctx); err != nil {
		return err
	}
	defer p.unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.closeLocked()
		return errors.Wrap(err, "publish")
	}
	return nil
}

func (p *AMQPPublisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *AMQPPublisher) Close() error {
	p.sem <- struct{}{}
	defer p.unlock()
	p.closeLocked()
	return nil
}
