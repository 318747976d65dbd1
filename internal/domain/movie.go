package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFavorite is returned when a persisted favorite cannot be trusted.
var ErrInvalidFavorite = errors.New("invalid favorite record")

// Movie is a single hit returned by a title search.
// Field names mirror the OMDb payload so results decode without a mapping layer.
type Movie struct {
	// IMDbID is the external primary key of the title (e.g. "tt0111161").
	IMDbID string `json:"imdbID"`

	Title  string `json:"Title"`
	Year   string `json:"Year"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// MovieDetails is the full record of a title. It is also the shape of a
// favorites ("My List") entry: entries are stored exactly as fetched.
type MovieDetails struct {
	Movie

	Plot       string `json:"Plot"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	IMDbRating string `json:"imdbRating"`
	Rated      string `json:"Rated,omitempty"`
	Awards     string `json:"Awards,omitempty"`
}

// SearchResponse is the payload of a title search.
type SearchResponse struct {
	Search       []Movie `json:"Search"`
	TotalResults string  `json:"totalResults"`
	Response     string  `json:"Response"`
	Error        string  `json:"Error,omitempty"`
}

// Media types accepted by SearchParams.Type.
const (
	TypeMovie   = "movie"
	TypeSeries  = "series"
	TypeEpisode = "episode"
)

// SearchParams describes one page of a title search.
type SearchParams struct {
	Query string
	// Page is 1-based; zero is treated as the first page.
	Page int
	// Type optionally narrows results to movie, series or episode.
	Type string
	// Year optionally narrows results to a release year; zero means unset.
	Year int
}

// Normalize trims the query and fills defaults. It returns an error when the
// media type is not one of the known values.
func (p SearchParams) Normalize() (SearchParams, error) {
	p.Query = strings.TrimSpace(p.Query)
	if p.Page < 1 {
		p.Page = 1
	}
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	switch p.Type {
	case "", TypeMovie, TypeSeries, TypeEpisode:
	default:
		return p, fmt.Errorf("unknown media type %q", p.Type)
	}
	if p.Year < 0 {
		p.Year = 0
	}
	return p, nil
}

// FavoriteKey returns the identity of a favorites entry.
func FavoriteKey(m MovieDetails) string {
	return m.IMDbID
}

// ParseFavorite decodes a single persisted favorites record. Records that are
// not JSON objects or that fail Validate are rejected.
func ParseFavorite(raw json.RawMessage) (MovieDetails, error) {
	var m MovieDetails
	if !isObject(raw) {
		return MovieDetails{}, fmt.Errorf("%w: not an object", ErrInvalidFavorite)
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return MovieDetails{}, fmt.Errorf("%w: %v", ErrInvalidFavorite, err)
	}
	if err := m.Validate(); err != nil {
		return MovieDetails{}, err
	}
	return m, nil
}

// Validate checks the fields a favorites entry cannot do without: the
// identifier and the title it is sorted by.
func (m MovieDetails) Validate() error {
	if strings.TrimSpace(m.IMDbID) == "" {
		return fmt.Errorf("%w: missing imdbID", ErrInvalidFavorite)
	}
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("%w: missing Title", ErrInvalidFavorite)
	}
	return nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{")
}
