// Package catalog holds the static genre and year-range options users can
// pick from. The content is fixed configuration data, never mutated at
// runtime.
package catalog

import (
	"errors"

	"github.com/soyeahso/kinobot/internal/domain"
)

// ErrUnknownOption is returned when a choice token does not resolve.
var ErrUnknownOption = errors.New("catalog: unknown option")

// Token prefixes used in option callback tokens.
const (
	genrePrefix = "genre:"
	yearPrefix  = "year:"
)

// entry binds a display label to its normalized value.
type entry struct {
	label string
	value string
}

var genres = []entry{
	{"Action", "action"},
	{"Comedy", "comedy"},
	{"Drama", "drama"},
	{"Thriller", "thriller"},
	{"Horror", "horror"},
	{"Sci-Fi", "sci-fi"},
	{"Fantasy", "fantasy"},
	{"Adventure", "adventure"},
	{"Romance", "romance"},
	{"Animation", "animation"},
	{"Mystery", "mystery"},
	{"Historical", "historical"},
	{"Documentary", "documentary"},
}

var yearRanges = []entry{
	{"00s (2000-2009)", "2000-2009"},
	{"10s (2010-2020)", "2010-2020"},
	{"20s (2020-2029)", "2020-2029"},
	{"30s (1930-1939)", "1930-1939"},
	{"40s (1940-1949)", "1940-1949"},
	{"50s (1950-1959)", "1950-1959"},
	{"60s (1960-1969)", "1960-1969"},
	{"70s (1970-1979)", "1970-1979"},
	{"80s (1980-1989)", "1980-1989"},
	{"90s (1990-1999)", "1990-1999"},
}

// Genres returns the ordered genre options.
func Genres() []domain.Option {
	return options(genres, genrePrefix)
}

// YearRanges returns the ordered year-range options.
func YearRanges() []domain.Option {
	return options(yearRanges, yearPrefix)
}

// ResolveGenre maps a genre choice token to its normalized value.
func ResolveGenre(token string) (string, error) {
	return resolve(genres, genrePrefix, token)
}

// ResolveYearRange maps a year-range choice token to its normalized value.
func ResolveYearRange(token string) (string, error) {
	return resolve(yearRanges, yearPrefix, token)
}

func options(entries []entry, prefix string) []domain.Option {
	opts := make([]domain.Option, len(entries))
	for i, e := range entries {
		opts[i] = domain.Option{Label: e.label, Token: prefix + e.value}
	}
	return opts
}

func resolve(entries []entry, prefix, token string) (string, error) {
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return "", ErrUnknownOption
	}
	value := token[len(prefix):]
	for _, e := range entries {
		if e.value == value {
			return e.value, nil
		}
	}
	return "", ErrUnknownOption
}
