package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot/models"

	"reelbox/internal/catalog"
	"reelbox/internal/domain"
	"reelbox/internal/fetchcache"
	"reelbox/internal/omdb"
)

// maxCallbackData is Telegram's limit on inline button payloads, in bytes.
const maxCallbackData = 64

// pageButtons is how many numbered page buttons are shown at once.
const pageButtons = 5

// maxMessageLen is Telegram's limit on message text. Telegram counts UTF-16
// units, which never exceed the UTF-8 byte length, so lengths here are bytes.
const maxMessageLen = 4096

// Per-field caps keep one oversized value from crowding out the rest.
const (
	maxPlotLen    = 1500
	maxCommentLen = 500
	// overflowReserve leaves room for the "…and N more" line.
	overflowReserve = 32
)

// reply is a rendered response, independent of how it is delivered.
type reply struct {
	Text   string
	Markup *models.InlineKeyboardMarkup
}

func textReply(format string, args ...any) reply {
	return reply{Text: fmt.Sprintf(format, args...)}
}

const welcomeText = `Welcome to Reelbox! Search movies, keep a list, write reviews.

/search <title> [p:<page>]  search titles
/movie <imdbID>  show details
/add <imdbID>  add to My List
/remove <imdbID>  remove from My List
/mylist  show My List
/review <imdbID> <1-10> <comment>  review a title
/reviews <imdbID>  show reviews
/unreview <reviewID>  delete a review

Any other text is searched as a title.`

func renderError(err error) reply {
	msg := err.Error()
	var apiErr *omdb.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return textReply("⚠️ %s", msg)
}

func renderSearch(query string, page int, res fetchcache.Result[domain.SearchResponse]) reply {
	if res.IsError {
		return renderError(res.Err)
	}
	if res.Data == nil || len(res.Data.Search) == 0 {
		return textReply("No results for %q.", query)
	}

	total := catalog.TotalPages(res.Data.TotalResults)
	var b strings.Builder
	fmt.Fprintf(&b, "Results for %q", query)
	if total > 0 {
		fmt.Fprintf(&b, " (page %d of %d)", page, total)
	}
	b.WriteString("\n\n")
	lines := make([]string, len(res.Data.Search))
	for i, m := range res.Data.Search {
		lines[i] = fmt.Sprintf("%d. %s (%s) [%s]\n   /movie %s\n",
			(page-1)*catalog.PageSize+i+1, m.Title, m.Year, m.Type, m.IMDbID)
	}

	return reply{
		Text:   fitLines(b.String(), lines),
		Markup: pageKeyboard(query, page, total),
	}
}

func pageKeyboard(query string, page, total int) *models.InlineKeyboardMarkup {
	window := catalog.PageWindow(page, total, pageButtons)
	if window == nil {
		return nil
	}

	row := make([]models.InlineKeyboardButton, 0, len(window)+2)
	add := func(label string, n int) bool {
		data, ok := pageCallback(n, query)
		if !ok {
			return false
		}
		row = append(row, models.InlineKeyboardButton{Text: label, CallbackData: data})
		return true
	}

	if page > 1 && !add("‹", page-1) {
		return nil
	}
	for _, n := range window {
		label := strconv.Itoa(n)
		if n == page {
			label = "·" + label + "·"
		}
		if !add(label, n) {
			return nil
		}
	}
	if page < total && !add("›", page+1) {
		return nil
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}
}

func renderDetails(d domain.MovieDetails, inList bool, reviews []domain.Review) reply {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", d.Title, d.Year)
	if d.Rated != "" {
		fmt.Fprintf(&b, "Rated %s · ", d.Rated)
	}
	fmt.Fprintf(&b, "%s · %s\n", d.Runtime, d.Genre)
	fmt.Fprintf(&b, "IMDb %s\n\n", d.IMDbRating)
	if d.Plot != "" {
		fmt.Fprintf(&b, "%s\n\n", clip(d.Plot, maxPlotLen))
	}
	fmt.Fprintf(&b, "Director: %s\nCast: %s\nReleased: %s\n", d.Director, d.Actors, d.Released)
	if d.Awards != "" {
		fmt.Fprintf(&b, "Awards: %s\n", d.Awards)
	}

	if inList {
		b.WriteString("\n✓ In My List\n")
	}
	fmt.Fprintf(&b, "\nReviews (%d)", len(reviews))
	if avg, ok := averageRating(reviews); ok {
		fmt.Fprintf(&b, " · average %.1f/10", avg)
	}
	b.WriteString("\n")
	lines := make([]string, len(reviews))
	for i, r := range reviews {
		lines[i] = reviewLine(r)
	}

	button := models.InlineKeyboardButton{Text: "Add to My List", CallbackData: "fav:add:" + d.IMDbID}
	if inList {
		button = models.InlineKeyboardButton{Text: "Remove from My List", CallbackData: "fav:del:" + d.IMDbID}
	}
	return reply{
		Text:   fitLines(b.String(), lines),
		Markup: &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{{button}}},
	}
}

func renderMyList(items []domain.MovieDetails) reply {
	if len(items) == 0 {
		return textReply("My List is empty. Use /add <imdbID> to save a title.")
	}
	head := fmt.Sprintf("My List (%d)\n\n", len(items))
	lines := make([]string, len(items))
	for i, m := range items {
		lines[i] = fmt.Sprintf("• %s (%s) /movie %s\n", m.Title, m.Year, m.IMDbID)
	}
	return reply{Text: fitLines(head, lines)}
}

func renderReviews(movieID string, reviews []domain.Review) reply {
	if len(reviews) == 0 {
		return textReply("No reviews for %s yet.", movieID)
	}
	head := fmt.Sprintf("Reviews for %s (%d)\n\n", movieID, len(reviews))
	lines := make([]string, len(reviews))
	for i, r := range reviews {
		lines[i] = reviewLine(r)
	}
	return reply{Text: fitLines(head, lines)}
}

func reviewLine(r domain.Review) string {
	when := time.UnixMilli(r.CreatedAt).UTC().Format("2006-01-02")
	line := fmt.Sprintf("%d/10 by %s on %s", r.Rating, r.Author, when)
	if r.Comment != "" {
		line += ": " + clip(r.Comment, maxCommentLen)
	}
	return line + "\n   id " + r.ID + "\n"
}

func averageRating(reviews []domain.Review) (float64, bool) {
	if len(reviews) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews)), true
}

// fitLines appends lines to head while the message stays within Telegram's
// limit and reports how many lines were left out.
func fitLines(head string, lines []string) string {
	var b strings.Builder
	b.WriteString(clip(head, maxMessageLen-overflowReserve))
	for i, line := range lines {
		if b.Len()+len(line) > maxMessageLen-overflowReserve {
			fmt.Fprintf(&b, "…and %d more", len(lines)-i)
			break
		}
		b.WriteString(line)
	}
	return strings.TrimRight(b.String(), "\n")
}

// clip shortens s to at most n bytes without splitting a UTF-8 sequence.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	const ellipsis = "…"
	i := n - len(ellipsis)
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i] + ellipsis
}
