package handler

import (
	"encoding/json"
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// Topic names accepted on the topic endpoint.
const (
	TopicCreateTicketRequest  = "CreateTicketRequest"
	TopicMovieTicketRequest   = "MovieTicketRequest"
	TopicMovieListRequest     = "MovieListRequest"
	TopicCreateTicketResponse = "CreateTicketResponse"
)

// MovieDTO identifies a screening on the wire.
type MovieDTO struct {
	MovieName string      `json:"movieName"`
	Showtime  time.Time   `json:"showtime"`
	Genre     model.Genre `json:"genre,omitempty"`
}

// TicketRequest asks for one seat.
type TicketRequest struct {
	TopicName    string   `json:"topicName,omitempty"`
	CorrelatorID int64    `json:"correlatorId"`
	Movie        MovieDTO `json:"movie"`
	SeatNumber   string   `json:"seatNumber"`
}

func (r TicketRequest) toModel() model.BookingRequest {
	return model.BookingRequest{
		MovieName:     r.Movie.MovieName,
		Showtime:      r.Movie.Showtime,
		Genre:         r.Movie.Genre,
		Seat:          r.SeatNumber,
		CorrelationID: r.CorrelatorID,
	}
}

// TicketResponse confirms an issued ticket.  TicketID is the issuer's
// number, encoded as a JSON number.
type TicketResponse struct {
	TopicName    string      `json:"topicName"`
	CorrelatorID int64       `json:"correlatorId"`
	Movie        MovieDTO    `json:"movie"`
	SeatNumber   string      `json:"seatNumber"`
	TicketID     json.Number `json:"ticketId"`
}

func newTicketResponse(correlatorID int64, t *model.Ticket) TicketResponse {
	return TicketResponse{
		TopicName:    TopicCreateTicketResponse,
		CorrelatorID: correlatorID,
		Movie: MovieDTO{
			MovieName: t.MovieName,
			Showtime:  t.Showtime.UTC(),
			Genre:     t.Genre,
		},
		SeatNumber: t.Seat,
		TicketID:   json.Number(t.TicketNumber),
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	CorrelatorID int64  `json:"correlatorId,omitempty"`
	Error        string `json:"error"`
	Reason       string `json:"reason,omitempty"`
}

// ListRequest asks for screenings matching any of the present filters.
type ListRequest struct {
	TopicName        string      `json:"topicName,omitempty"`
	CorrelatorID     int64       `json:"correlatorId"`
	Genre            model.Genre `json:"genre,omitempty"`
	MovieName        string      `json:"movieName,omitempty"`
	StartingShowtime *time.Time  `json:"startingShowtime,omitempty"`
	EndingShowtime   *time.Time  `json:"endingShowtime,omitempty"`
}
