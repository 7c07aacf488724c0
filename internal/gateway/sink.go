// Package gateway pushes finished responses to the API gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-ticket-booking/internal/metrics"
)

// ErrUnknownTopic is returned for a topic with no registered destination.
var ErrUnknownTopic = errors.New("no destination registered for topic")

// ProcessTopicPath is the gateway endpoint receiving topic messages.
const ProcessTopicPath = "/api/v1/processTopic"

// Topics routed to the gateway.
var gatewayTopics = []string{"MovieListResponse"}

// Sink delivers topic payloads over HTTP.  Routes are fixed when the sink
// is built.
type Sink struct {
	routes  map[string]string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewSink routes every gateway topic to baseURL + ProcessTopicPath.  An
// empty baseURL yields a sink that drops everything.
func NewSink(baseURL string, timeout time.Duration, client *http.Client, logger *slog.Logger) *Sink {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	routes := make(map[string]string, len(gatewayTopics))
	if baseURL != "" {
		endpoint := strings.TrimRight(baseURL, "/") + ProcessTopicPath
		for _, topic := range gatewayTopics {
			routes[topic] = endpoint
		}
	}
	return &Sink{routes: routes, client: client, timeout: timeout, logger: logger}
}

// Deliver posts payload as JSON to the topic's destination and waits for a
// 2xx answer.
func (s *Sink) Deliver(ctx context.Context, topic string, payload any) (err error) {
	defer func() { metrics.GatewayDeliveries.WithLabelValues(metrics.Result(err)).Inc() }()

	url, ok := s.routes[topic]
	if !ok {
		return errors.Wrapf(ErrUnknownTopic, "topic %s", topic)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encode payload")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "post %s", topic)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Newf("gateway answered %d for %s", resp.StatusCode, topic)
	}
	return nil
}

// Enabled reports whether the sink has any destination.
func (s *Sink) Enabled() bool { return len(s.routes) > 0 }

// Forward delivers in the background.  Failures are logged only.  A
// disabled sink drops the payload silently.
func (s *Sink) Forward(topic string, payload any) {
	if !s.Enabled() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Deliver(context.Background(), topic, payload); err != nil {
			s.logger.Error("gateway delivery failed", "topic", topic, "error", err)
			return
		}
		s.logger.Debug("gateway delivery done", "topic", topic)
	}()
}

// Wait blocks until background deliveries finish or ctx is done.
func (s *Sink) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
