package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
)

func TestRegisterRoutes(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e)
	RegisterBooking(e, handler.NewBookingHandler(nil))
	RegisterCatalog(e, handler.NewCatalogHandler(nil, nil))
	RegisterTopics(e, handler.NewTopicRegistry(nil, nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	routes := map[string]bool{}
	for _, r := range e.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{"POST /v1/tickets", "GET /v1/screenings", "POST /api/v1/processTopic"} {
		assert.True(t, routes[want], want)
	}
}
