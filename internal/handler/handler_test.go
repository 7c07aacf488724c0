package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/catalog"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

const inceptionTicketJSON = `{"topicName":"CreateTicketRequest","correlatorId":5557,"movie":{"movieName":"Inception","showtime":"2025-11-10T19:30:00-06:00","genre":"SCIFI"},"seatNumber":"C5"}`

var inceptionShowtime = time.Date(2025, 11, 11, 1, 30, 0, 0, time.UTC)

type mockBooker struct{ mock.Mock }

func (m *mockBooker) Book(ctx context.Context, req model.BookingRequest) (*model.Ticket, error) {
	args := m.Called(ctx, req)
	t, _ := args.Get(0).(*model.Ticket)
	return t, args.Error(1)
}

type mockSearcher struct{ mock.Mock }

func (m *mockSearcher) Search(ctx context.Context, q catalog.Query) (*catalog.Response, error) {
	args := m.Called(ctx, q)
	r, _ := args.Get(0).(*catalog.Response)
	return r, args.Error(1)
}

type recordingForwarder struct {
	mu       sync.Mutex
	topics   []string
	payloads []any
}

func (f *recordingForwarder) Forward(topic string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
}

type harness struct {
	e        *echo.Echo
	booker   *mockBooker
	searcher *mockSearcher
	fwd      *recordingForwarder
}

func newHarness() *harness {
	h := &harness{e: echo.New(), booker: &mockBooker{}, searcher: &mockSearcher{}, fwd: &recordingForwarder{}}
	bh := NewBookingHandler(h.booker)
	ch := NewCatalogHandler(h.searcher, h.fwd)
	reg := NewTopicRegistry(bh, ch)
	h.e.POST("/v1/tickets", bh.CreateTicket)
	h.e.GET("/v1/screenings", ch.ListScreenings)
	h.e.POST("/api/v1/processTopic", reg.ProcessTopic)
	return h
}

func (h *harness) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

func isInceptionC5(req model.BookingRequest) bool {
	return req.MovieName == "Inception" && req.Seat == "C5" &&
		req.Showtime.Equal(inceptionShowtime) && req.CorrelationID == 5557
}

func TestProcessTopic_CreateTicket(t *testing.T) {
	h := newHarness()
	h.booker.On("Book", mock.Anything, mock.MatchedBy(isInceptionC5)).Return(&model.Ticket{
		ID: 1, TicketNumber: "8060000", MovieName: "Inception", Showtime: inceptionShowtime,
		Genre: model.GenreSciFi, Seat: "C5",
	}, nil)

	rec := h.do(http.MethodPost, "/api/v1/processTopic", inceptionTicketJSON)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		CorrelatorID int64 `json:"correlatorId"`
		Movie        struct {
			MovieName string `json:"movieName"`
		} `json:"movie"`
		SeatNumber string `json:"seatNumber"`
		TicketID   int64  `json:"ticketId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(5557), resp.CorrelatorID)
	assert.Equal(t, "Inception", resp.Movie.MovieName)
	assert.Equal(t, "C5", resp.SeatNumber)
	assert.Equal(t, int64(8060000), resp.TicketID)
	h.booker.AssertExpectations(t)
}

func TestCreateTicket_FailureStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "conflict",
			err:    &booking.Failure{Outcome: model.OutcomeConflict, Code: booking.CodeSeatTaken, Reason: "seat C5 already issued"},
			status: http.StatusConflict,
			code:   booking.CodeSeatTaken,
		},
		{
			name:   "not found",
			err:    &booking.Failure{Outcome: model.OutcomeNotFound, Code: booking.CodeTitleUnknown, Reason: "no screenings"},
			status: http.StatusNotFound,
			code:   booking.CodeTitleUnknown,
		},
		{
			name:   "issuer down",
			err:    &booking.Failure{Outcome: model.OutcomeUpstreamFailure, Code: booking.CodeIssuerFailed, Reason: "ticket issuer unavailable"},
			status: http.StatusBadGateway,
			code:   booking.CodeIssuerFailed,
		},
		{
			name:   "store down",
			err:    &booking.Failure{Outcome: model.OutcomeUpstreamFailure, Code: booking.CodeStoreWrite, Reason: "ticket could not be stored"},
			status: http.StatusInternalServerError,
			code:   booking.CodeStoreWrite,
		},
		{
			name:   "invalid",
			err:    &booking.Failure{Outcome: model.OutcomeInvalid, Code: booking.CodeInvalidRequest, Reason: "seat is required"},
			status: http.StatusBadRequest,
			code:   booking.CodeInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.booker.On("Book", mock.Anything, mock.Anything).Return(nil, errors.Wrap(tt.err, "book"))

			rec := h.do(http.MethodPost, "/v1/tickets", inceptionTicketJSON)

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error)
			assert.Equal(t, int64(5557), body.CorrelatorID)
			assert.NotEmpty(t, body.Reason)
		})
	}
}

func TestCreateTicket_BadJSON(t *testing.T) {
	h := newHarness()
	rec := h.do(http.MethodPost, "/v1/tickets", `{"movie":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	h.booker.AssertNotCalled(t, "Book", mock.Anything, mock.Anything)
}

func TestProcessTopic_UnknownTopic(t *testing.T) {
	h := newHarness()
	rec := h.do(http.MethodPost, "/api/v1/processTopic", `{"topicName":"SeatRequest","correlatorId":3}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown_topic")
}

func TestProcessTopic_ListForwardsAndAccepts(t *testing.T) {
	h := newHarness()
	resp := &catalog.Response{TopicName: catalog.ResponseTopic, CorrelatorID: 77, Movies: []model.ScreeningView{}}
	h.searcher.On("Search", mock.Anything, mock.MatchedBy(func(q catalog.Query) bool {
		return q.CorrelationID == 77 && q.Genre == model.GenreSciFi && q.Start != nil && q.End != nil
	})).Return(resp, nil)

	rec := h.do(http.MethodPost, "/api/v1/processTopic",
		`{"topicName":"MovieListRequest","correlatorId":77,"genre":"SCIFI","startingShowtime":"2025-11-10T00:00:00Z","endingShowtime":"2025-11-12T00:00:00Z"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, h.fwd.topics, 1)
	assert.Equal(t, "MovieListResponse", h.fwd.topics[0])
	assert.Same(t, resp, h.fwd.payloads[0])
}

func TestProcessTopic_ListInvalidRange(t *testing.T) {
	h := newHarness()
	h.searcher.On("Search", mock.Anything, mock.Anything).
		Return(nil, errors.Mark(errors.New("range end is before range start"), catalog.ErrInvalidQuery))

	rec := h.do(http.MethodPost, "/api/v1/processTopic",
		`{"topicName":"MovieListRequest","correlatorId":1,"startingShowtime":"2025-11-12T00:00:00Z","endingShowtime":"2025-11-10T00:00:00Z"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, h.fwd.topics)
}

func TestListScreenings(t *testing.T) {
	h := newHarness()
	resp := &catalog.Response{
		TopicName:    catalog.ResponseTopic,
		CorrelatorID: 9,
		Movies:       []model.ScreeningView{{MovieName: "Inception", Genre: model.GenreSciFi, Showtime: inceptionShowtime}},
		Timestamp:    inceptionShowtime,
	}
	h.searcher.On("Search", mock.Anything, mock.MatchedBy(func(q catalog.Query) bool {
		return q.CorrelationID == 9 && q.Title == "Inception" && q.Start != nil && q.Start.Equal(inceptionShowtime) && q.End == nil
	})).Return(resp, nil)

	rec := h.do(http.MethodGet, "/v1/screenings?title=Inception&correlator_id=9&start=2025-11-11T01:30:00Z", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"topicName": "MovieListResponse",
		"correlatorId": 9,
		"movies": [{"movieName": "Inception", "genre": "SCIFI", "showtime": "2025-11-11T01:30:00Z"}],
		"timestamp": "2025-11-11T01:30:00Z"
	}`, rec.Body.String())
	assert.Empty(t, h.fwd.topics)
}

func TestListScreenings_BadParams(t *testing.T) {
	h := newHarness()

	rec := h.do(http.MethodGet, "/v1/screenings?start=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodGet, "/v1/screenings?correlator_id=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	h.searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestListScreenings_StoreFailure(t *testing.T) {
	h := newHarness()
	h.searcher.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	rec := h.do(http.MethodGet, "/v1/screenings?genre=SCIFI", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
