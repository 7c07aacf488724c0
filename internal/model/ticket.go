package model

import "time"

// Ticket is a committed seat reservation for one screening.  Tickets are
// created only by the booking coordinator and never mutated afterwards.
// No two tickets may share the same (MovieName, Showtime, Seat) triple.
//
// Fields:
//  ID           – row key assigned by the ticket store on insert.
//  TicketNumber – number minted by the external issuer.
//  MovieName    – movie of the booked screening.
//  Showtime     – start instant of the booked screening (UTC).
//  Genre        – genre of the booked screening.
//  Seat         – canonical seat code, compared byte for byte.
//  CreatedAt    – insertion timestamp, zero until stored.
type Ticket struct {
	ID           uint64    // tickets.id
	TicketNumber string    // tickets.ticket_number
	MovieName    string    // tickets.movie_name
	Showtime     time.Time // tickets.showtime (UTC)
	Genre        Genre     // tickets.genre
	Seat         string    // tickets.seat
	CreatedAt    time.Time // tickets.created_at
}
