package model

import "time"

// Screening is a specific movie shown at a specific instant.  Screenings
// are owned by the catalog store and never change once created.  At most
// one screening exists per (MovieName, Showtime) pair, while a movie will
// normally have many showtimes.
//
// Fields:
//  ID         – catalog row key.
//  MovieName  – exact movie title.
//  Showtime   – start instant, always normalised to UTC.
//  Genre      – genre tag.
//  PriceCents – ticket price in cents.
type Screening struct {
	ID         uint64    // screenings.id
	MovieName  string    // screenings.movie_name
	Showtime   time.Time // screenings.showtime (UTC)
	Genre      Genre     // screenings.genre
	PriceCents int64     // screenings.price_cents
}

// ScreeningView is the outward-facing projection of a Screening.  Price
// and row identifiers are deliberately absent.
type ScreeningView struct {
	MovieName string    `json:"movieName"`
	Genre     Genre     `json:"genre"`
	Showtime  time.Time `json:"showtime"`
}

// SameScreening reports whether s is the screening of movieName starting
// at showtime.  Showtimes are compared as instants.
func (s Screening) SameScreening(movieName string, showtime time.Time) bool {
	return s.MovieName == movieName && s.Showtime.Equal(showtime)
}
