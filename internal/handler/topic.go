package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// maxTopicBody bounds the size of a topic message.
const maxTopicBody = 1 << 20

// TopicFunc handles one decoded topic message.
type TopicFunc func(c echo.Context, body []byte) error

// TopicRegistry routes topic messages by their topicName.  The set of
// topics is fixed when the registry is built.
type TopicRegistry struct {
	routes map[string]TopicFunc
}

// NewTopicRegistry wires the booking and catalog topics.
func NewTopicRegistry(b *BookingHandler, cat *CatalogHandler) *TopicRegistry {
	ticket := func(c echo.Context, body []byte) error {
		var req TicketRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Reason: err.Error()})
		}
		return b.book(c, req)
	}
	list := func(c echo.Context, body []byte) error {
		var req ListRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_query", Reason: err.Error()})
		}
		return cat.listTopic(c, req)
	}
	return &TopicRegistry{routes: map[string]TopicFunc{
		TopicCreateTicketRequest: ticket,
		TopicMovieTicketRequest:  ticket,
		TopicMovieListRequest:    list,
	}}
}

// Topics lists the registered topic names.
func (r *TopicRegistry) Topics() []string {
	out := make([]string, 0, len(r.routes))
	for name := range r.routes {
		out = append(out, name)
	}
	return out
}

// ProcessTopic handles POST /api/v1/processTopic.
func (r *TopicRegistry) ProcessTopic(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxTopicBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Reason: "unreadable body"})
	}
	var envelope struct {
		TopicName    string `json:"topicName"`
		CorrelatorID int64  `json:"correlatorId"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Reason: "body is not a topic message"})
	}
	handle, ok := r.routes[envelope.TopicName]
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			CorrelatorID: envelope.CorrelatorID,
			Error:        "unknown_topic",
			Reason:       "topic " + envelope.TopicName + " is not handled by this service",
		})
	}
	return handle(c, body)
}
