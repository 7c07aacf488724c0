package issuer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Issue(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{name: "plain number", status: http.StatusOK, body: "8060000", want: "8060000"},
		{name: "quoted number", status: http.StatusCreated, body: "\"8060001\"\n", want: "8060001"},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantErr: true},
		{name: "not a number", status: http.StatusOK, body: "abc", wantErr: true},
		{name: "empty body", status: http.StatusOK, body: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := NewHTTPClient(srv.URL, time.Second, srv.Client()).Issue(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPClient_MalformedIsMarked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("12a"))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second, nil).Issue(context.Background())
	assert.True(t, errors.Is(err, ErrMalformedNumber))
}

func TestHTTPClient_Timeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-done:
		}
	}))
	defer srv.Close()
	defer close(done)

	start := time.Now()
	_, err := NewHTTPClient(srv.URL, 50*time.Millisecond, nil).Issue(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHTTPClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPClient(url, time.Second, nil).Issue(context.Background())
	assert.Error(t, err)
}

func TestSequence_Unique(t *testing.T) {
	seq := NewSequence(8060000)
	first, err := seq.Issue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "8060000", first)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]bool{first: true}
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.Issue(context.Background())
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[n], "duplicate %s", n)
			seen[n] = true
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 51)
}

func TestSequence_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSequence(1).Issue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
