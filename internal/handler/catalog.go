package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/catalog"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// Searcher answers catalog queries.
type Searcher interface {
	Search(ctx context.Context, q catalog.Query) (*catalog.Response, error)
}

// Forwarder sends a finished response to its downstream consumer in the
// background.
type Forwarder interface {
	Forward(topic string, payload any)
}

// CatalogHandler serves screening lists.
type CatalogHandler struct {
	searcher  Searcher
	forwarder Forwarder
}

func NewCatalogHandler(s Searcher, f Forwarder) *CatalogHandler {
	return &CatalogHandler{searcher: s, forwarder: f}
}

// ListScreenings handles GET /v1/screenings.  Query parameters: genre,
// title, start and end (RFC3339) and correlator_id.
func (h *CatalogHandler) ListScreenings(c echo.Context) error {
	q, err := queryFromParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_query", Reason: err.Error()})
	}
	resp, err := h.searcher.Search(c.Request().Context(), q)
	if err != nil {
		return h.searchError(c, q.CorrelationID, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func queryFromParams(c echo.Context) (catalog.Query, error) {
	q := catalog.Query{
		Genre: model.Genre(c.QueryParam("genre")),
		Title: c.QueryParam("title"),
	}
	if v := c.QueryParam("correlator_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return q, errors.Newf("correlator_id %q is not a number", v)
		}
		q.CorrelationID = id
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"start", &q.Start}, {"end", &q.End}} {
		v := c.QueryParam(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, errors.Newf("%s %q is not an RFC3339 time", p.name, v)
		}
		*p.dst = &t
	}
	return q, nil
}

// listTopic answers a MovieListRequest with 202 and pushes the result to
// the gateway.
func (h *CatalogHandler) listTopic(c echo.Context, req ListRequest) error {
	q := catalog.Query{
		CorrelationID: req.CorrelatorID,
		Genre:         req.Genre,
		Title:         req.MovieName,
		Start:         req.StartingShowtime,
		End:           req.EndingShowtime,
	}
	resp, err := h.searcher.Search(c.Request().Context(), q)
	if err != nil {
		return h.searchError(c, req.CorrelatorID, err)
	}
	h.forwarder.Forward(catalog.ResponseTopic, resp)
	return c.JSON(http.StatusAccepted, echo.Map{
		"correlatorId": req.CorrelatorID,
		"message":      "MovieListRequest was received and is being processed",
	})
}

func (h *CatalogHandler) searchError(c echo.Context, correlatorID int64, err error) error {
	if errors.Is(err, catalog.ErrInvalidQuery) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{CorrelatorID: correlatorID, Error: "invalid_query", Reason: err.Error()})
	}
	slog.Error("catalog search failed", "correlation_id", correlatorID, "error", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{CorrelatorID: correlatorID, Error: "catalog_unavailable"})
}
