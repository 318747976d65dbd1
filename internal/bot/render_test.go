package bot

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelbox/internal/domain"
	"reelbox/internal/fetchcache"
	"reelbox/internal/omdb"
)

func searchResult(total string, movies ...domain.Movie) fetchcache.Result[domain.SearchResponse] {
	return fetchcache.Result[domain.SearchResponse]{
		Data: &domain.SearchResponse{Search: movies, TotalResults: total, Response: "True"},
	}
}

func TestRenderSearch_EmptyIsNotAnError(t *testing.T) {
	r := renderSearch("zzz", 1, searchResult("0"))
	assert.Equal(t, `No results for "zzz".`, r.Text)
	assert.Nil(t, r.Markup)

	r = renderSearch("zzz", 1, fetchcache.Result[domain.SearchResponse]{})
	assert.True(t, strings.HasPrefix(r.Text, "No results"))
}

func TestRenderSearch_Error(t *testing.T) {
	r := renderSearch("x", 1, fetchcache.Result[domain.SearchResponse]{
		Err:     &omdb.APIError{Op: "search", Message: "Too many results."},
		IsError: true,
	})
	assert.Equal(t, "⚠️ Too many results.", r.Text)

	r = renderError(errors.New("dial tcp: timeout"))
	assert.Equal(t, "⚠️ dial tcp: timeout", r.Text)
}

func TestRenderSearch_SinglePageHasNoKeyboard(t *testing.T) {
	r := renderSearch("alien", 1, searchResult("3", domain.Movie{IMDbID: "tt1", Title: "Alien", Year: "1979", Type: "movie"}))
	assert.Contains(t, r.Text, "(page 1 of 1)")
	assert.Contains(t, r.Text, "1. Alien (1979) [movie]\n   /movie tt1")
	assert.Nil(t, r.Markup)
}

func TestRenderSearch_Keyboard(t *testing.T) {
	r := renderSearch("star", 10, searchResult("200", domain.Movie{IMDbID: "tt1", Title: "Star"}))
	require.NotNil(t, r.Markup)
	row := r.Markup.InlineKeyboard[0]

	labels := make([]string, len(row))
	for i, b := range row {
		labels[i] = b.Text
	}
	assert.Equal(t, []string{"‹", "8", "9", "·10·", "11", "12", "›"}, labels)
	assert.Equal(t, "page:9:star", row[0].CallbackData)
	assert.Equal(t, "page:11:star", row[len(row)-1].CallbackData)

	r = renderSearch("star", 1, searchResult("200", domain.Movie{IMDbID: "tt1"}))
	assert.Equal(t, "·1·", r.Markup.InlineKeyboard[0][0].Text, "no previous button on the first page")

	long := strings.Repeat("q", maxCallbackData)
	r = renderSearch(long, 1, searchResult("200", domain.Movie{IMDbID: "tt1"}))
	assert.Nil(t, r.Markup, "queries too long for callback data get no keyboard")
}

func TestRenderDetails(t *testing.T) {
	d := domain.MovieDetails{
		Movie:      domain.Movie{IMDbID: "tt0111161", Title: "The Shawshank Redemption", Year: "1994"},
		Plot:       "Two imprisoned men bond.",
		Director:   "Frank Darabont",
		Runtime:    "142 min",
		Genre:      "Drama",
		IMDbRating: "9.3",
		Rated:      "R",
	}
	reviews := []domain.Review{
		{ID: "r2", MovieID: "tt0111161", Rating: 10, Author: "Bo", Comment: "Hope", CreatedAt: 1700000000000},
		{ID: "r1", MovieID: "tt0111161", Rating: 7, Author: "Al", CreatedAt: 1600000000000},
	}

	r := renderDetails(d, false, reviews)
	assert.Contains(t, r.Text, "The Shawshank Redemption (1994)")
	assert.Contains(t, r.Text, "Rated R · 142 min · Drama")
	assert.Contains(t, r.Text, "Director: Frank Darabont")
	assert.Contains(t, r.Text, "Reviews (2) · average 8.5/10")
	assert.Less(t, strings.Index(r.Text, "by Bo"), strings.Index(r.Text, "by Al"), "input order kept")
	assert.NotContains(t, r.Text, "In My List")
	assert.Equal(t, "fav:add:tt0111161", r.Markup.InlineKeyboard[0][0].CallbackData)

	r = renderDetails(d, true, nil)
	assert.Contains(t, r.Text, "✓ In My List")
	assert.Contains(t, r.Text, "Reviews (0)")
	assert.NotContains(t, r.Text, "average")
	assert.Equal(t, "fav:del:tt0111161", r.Markup.InlineKeyboard[0][0].CallbackData)
}

func TestRenderMyListAndReviews(t *testing.T) {
	assert.Contains(t, renderMyList(nil).Text, "empty")
	assert.Contains(t, renderReviews("tt1", nil).Text, "No reviews for tt1")

	r := renderMyList([]domain.MovieDetails{
		{Movie: domain.Movie{IMDbID: "tt2", Title: "Alien", Year: "1979"}},
		{Movie: domain.Movie{IMDbID: "tt1", Title: "Brazil", Year: "1985"}},
	})
	assert.Equal(t, "My List (2)\n\n• Alien (1979) /movie tt2\n• Brazil (1985) /movie tt1", r.Text)
}

func TestRender_LongCollectionsFitOneMessage(t *testing.T) {
	items := make([]domain.MovieDetails, 500)
	for i := range items {
		id := fmt.Sprintf("tt%07d", i)
		items[i] = domain.MovieDetails{Movie: domain.Movie{IMDbID: id, Title: "The Lord of the Rings: The Return of the King", Year: "2003"}}
	}
	r := renderMyList(items)
	assert.LessOrEqual(t, len(r.Text), maxMessageLen)
	assert.True(t, strings.HasPrefix(r.Text, "My List (500)"))
	assert.Regexp(t, `…and \d+ more$`, r.Text)

	reviews := make([]domain.Review, 200)
	for i := range reviews {
		reviews[i] = domain.Review{ID: fmt.Sprintf("r%d", i), MovieID: "tt1", Rating: 7, Author: "Ann", Comment: strings.Repeat("é", 2000)}
	}
	r = renderReviews("tt1", reviews)
	assert.LessOrEqual(t, len(r.Text), maxMessageLen)
	assert.True(t, utf8.ValidString(r.Text), "clipping must not split a rune")
	assert.Contains(t, r.Text, "more")

	d := domain.MovieDetails{Movie: domain.Movie{IMDbID: "tt1", Title: "Epic"}, Plot: strings.Repeat("long plot ", 1000)}
	r = renderDetails(d, true, reviews)
	assert.LessOrEqual(t, len(r.Text), maxMessageLen)
	assert.Contains(t, r.Text, "Reviews (200)")
	assert.Contains(t, r.Text, "more")
}

func TestFitLinesReportsOmittedCount(t *testing.T) {
	line := strings.Repeat("x", 1000) + "\n"
	lines := []string{line, line, line, line, line, line}

	got := fitLines("head\n", lines)
	assert.LessOrEqual(t, len(got), maxMessageLen)
	assert.True(t, strings.HasSuffix(got, "…and 2 more"), got[len(got)-20:])

	assert.Equal(t, "head\nshort", fitLines("head\n", []string{"short\n"}))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 3))
	assert.Equal(t, "a…", clip("abcdef", 4))

	got := clip(strings.Repeat("é", 10), 8)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 8)
}
