package booking

import "github.com/iliyamo/cinema-ticket-booking/internal/model"

// DetectConflict reports the already issued ticket that holds the
// candidate's seat, if any.  Tickets of other movies or other showtimes
// are ignored.  Seats compare byte for byte, so "C5" and "c5" differ.
func DetectConflict(candidate model.Ticket, issued []model.Ticket) (*model.Ticket, bool) {
	for i := range issued {
		t := &issued[i]
		if t.MovieName != candidate.MovieName {
			continue
		}
		if !t.Showtime.Equal(candidate.Showtime) {
			continue
		}
		if t.Seat == candidate.Seat {
			return t, true
		}
	}
	return nil, false
}
