// Package repository defines the sentinel errors shared by every store
// backend and the MySQL implementation of the catalog and ticket stores.
// Backends mark their low-level errors with these values so callers can
// branch with errors.Is regardless of the driver underneath.
package repository

import "github.com/cockroachdb/errors"

// ErrDuplicateTicket is returned when inserting a ticket whose
// (movie_name, showtime, seat) triple is already taken.  The booking
// coordinator reports it as a seat conflict.
var ErrDuplicateTicket = errors.New("duplicate ticket for screening seat")

// ErrDuplicateScreening is returned when inserting a second screening with
// the same (movie_name, showtime) pair.
var ErrDuplicateScreening = errors.New("duplicate screening")
