package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// Booker books a single seat.
type Booker interface {
	Book(ctx context.Context, req model.BookingRequest) (*model.Ticket, error)
}

// BookingHandler exposes seat booking over HTTP.
type BookingHandler struct {
	booker Booker
}

func NewBookingHandler(b Booker) *BookingHandler {
	return &BookingHandler{booker: b}
}

// CreateTicket handles POST /v1/tickets.
func (h *BookingHandler) CreateTicket(c echo.Context) error {
	var req TicketRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: booking.CodeInvalidRequest, Reason: "invalid JSON body"})
	}
	return h.book(c, req)
}

func (h *BookingHandler) book(c echo.Context, req TicketRequest) error {
	ticket, err := h.booker.Book(c.Request().Context(), req.toModel())
	res := booking.Result(ticket, err)
	if res.Outcome != model.OutcomeConfirmed {
		return c.JSON(res.Status(), ErrorResponse{
			CorrelatorID: req.CorrelatorID,
			Error:        res.Code,
			Reason:       res.Reason,
		})
	}
	return c.JSON(http.StatusCreated, newTicketResponse(req.CorrelatorID, res.Ticket))
}
