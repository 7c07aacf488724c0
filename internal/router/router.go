// Package router registers the HTTP routes on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
)

// RegisterRoutes registers the operational endpoints: the health check
// and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterBooking maps POST /v1/tickets.  mw runs before the handler,
// typically the rate limiter.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, mw ...echo.MiddlewareFunc) {
	e.POST("/v1/tickets", b.CreateTicket, mw...)
}

// RegisterCatalog maps GET /v1/screenings.
func RegisterCatalog(e *echo.Echo, c *handler.CatalogHandler, mw ...echo.MiddlewareFunc) {
	e.GET("/v1/screenings", c.ListScreenings, mw...)
}

// RegisterTopics maps the topic endpoint used by the service
// orchestrator.
func RegisterTopics(e *echo.Echo, r *handler.TopicRegistry, mw ...echo.MiddlewareFunc) {
	e.POST("/api/v1/processTopic", r.ProcessTopic, mw...)
}
