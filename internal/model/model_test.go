package model

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingRequest_Validate(t *testing.T) {
	at := time.Date(2025, 11, 11, 1, 30, 0, 0, time.UTC)
	valid := BookingRequest{MovieName: "Inception", Showtime: at, Seat: "C5"}
	assert.NoError(t, valid.Validate())

	withGenre := valid
	withGenre.Genre = GenreSciFi
	assert.NoError(t, withGenre.Validate())

	for name, req := range map[string]BookingRequest{
		"blank name":    {MovieName: "  ", Showtime: at, Seat: "C5"},
		"zero showtime": {MovieName: "Inception", Seat: "C5"},
		"no seat":       {MovieName: "Inception", Showtime: at},
		"bad genre":     {MovieName: "Inception", Showtime: at, Seat: "C5", Genre: "WESTERN"},
	} {
		assert.Error(t, req.Validate(), name)
	}
}

func TestBookingResult_Status(t *testing.T) {
	assert.Equal(t, http.StatusCreated, BookingResult{Outcome: OutcomeConfirmed}.Status())
	assert.Equal(t, http.StatusConflict, BookingResult{Outcome: OutcomeConflict}.Status())
	assert.Equal(t, http.StatusNotFound, BookingResult{Outcome: OutcomeNotFound}.Status())
	assert.Equal(t, http.StatusBadRequest, BookingResult{Outcome: OutcomeInvalid}.Status())
	assert.Equal(t, http.StatusBadGateway, BookingResult{Outcome: OutcomeUpstreamFailure, Code: "issuer_failed"}.Status())
	assert.Equal(t, http.StatusInternalServerError, BookingResult{Outcome: OutcomeUpstreamFailure, Code: "store_write_failed"}.Status())
}

func TestScreening_SameScreening(t *testing.T) {
	at := time.Date(2025, 11, 11, 1, 30, 0, 0, time.UTC)
	s := Screening{MovieName: "Inception", Showtime: at}

	assert.True(t, s.SameScreening("Inception", at.In(time.FixedZone("CST", -6*3600))))
	assert.False(t, s.SameScreening("Inception", at.Add(time.Nanosecond)))
	assert.False(t, s.SameScreening("inception", at))
}

func TestGenre_Valid(t *testing.T) {
	assert.True(t, GenreThriller.Valid())
	assert.False(t, Genre("scifi").Valid())
	assert.Equal(t, "DRAMA", GenreDrama.String())
}
