package model

// Genre classifies a screening. Values are stored and transmitted as the
// upper-case names below and compared by exact match.
type Genre string

const (
	GenreAction   Genre = "ACTION"
	GenreComedy   Genre = "COMEDY"
	GenreDrama    Genre = "DRAMA"
	GenreHorror   Genre = "HORROR"
	GenreRomance  Genre = "ROMANCE"
	GenreSciFi    Genre = "SCIFI"
	GenreThriller Genre = "THRILLER"
)

var knownGenres = map[Genre]struct{}{
	GenreAction:   {},
	GenreComedy:   {},
	GenreDrama:    {},
	GenreHorror:   {},
	GenreRomance:  {},
	GenreSciFi:    {},
	GenreThriller: {},
}

// Valid reports whether g is one of the known genres.
func (g Genre) Valid() bool {
	_, ok := knownGenres[g]
	return ok
}

func (g Genre) String() string { return string(g) }
