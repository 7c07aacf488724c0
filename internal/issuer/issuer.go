// Package issuer obtains globally unique ticket numbers.
package issuer

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-ticket-booking/internal/metrics"
)

// ErrMalformedNumber is returned when the issuer answers 2xx with a body
// that is not a decimal ticket number.
var ErrMalformedNumber = errors.New("issuer returned a non-numeric ticket number")

// maxBody caps how much of the issuer response is read.
const maxBody = 1 << 10

// HTTPClient calls a remote issuer with POST and no request body.  Every
// call is bounded by the configured timeout on top of the caller's ctx.
type HTTPClient struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPClient returns an issuer client for url.  A nil client uses
// http.DefaultClient.
func NewHTTPClient(url string, timeout time.Duration, client *http.Client) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPClient{url: url, timeout: timeout, client: client}
}

// Issue mints one ticket number.
func (c *HTTPClient) Issue(ctx context.Context) (number string, err error) {
	start := time.Now()
	defer func() {
		metrics.IssuerRequestDuration.WithLabelValues(metrics.Result(err)).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, nil)
	if err != nil {
		return "", errors.Wrap(err, "build issuer request")
	}
	req.Header.Set("Accept", "text/plain, application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "call issuer")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", errors.Wrap(err, "read issuer response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Newf("issuer responded %d", resp.StatusCode)
	}
	return parseNumber(string(body))
}

// parseNumber accepts a bare or JSON-quoted decimal number.
func parseNumber(body string) (string, error) {
	n := strings.Trim(strings.TrimSpace(body), `"`)
	if n == "" {
		return "", ErrMalformedNumber
	}
	if _, err := strconv.ParseUint(n, 10, 64); err != nil {
		return "", errors.Wrapf(ErrMalformedNumber, "body %q", n)
	}
	return n, nil
}

// Sequence is an in-process issuer handing out consecutive numbers.
type Sequence struct {
	next atomic.Uint64
}

// NewSequence starts numbering at start.
func NewSequence(start uint64) *Sequence {
	s := &Sequence{}
	s.next.Store(start)
	return s
}

func (s *Sequence) Issue(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n := s.next.Add(1) - 1
	return strconv.FormatUint(n, 10), nil
}
