package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"reelbox/internal/domain"
)

var errUsage = errors.New("usage")

// splitCommand separates "/cmd@botname rest" into "/cmd" and "rest".
// Text that is not a command yields an empty cmd.
func splitCommand(text string) (cmd, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	cmd, args, _ = strings.Cut(text, " ")
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), strings.TrimSpace(args)
}

// pageMarker introduces an explicit page in "/search <title> p:<n>".
const pageMarker = "p:"

// parseSearchArgs reads "<title> [p:<n>]". Only a trailing p:<n> token selects
// a page, so titles ending in a number ("Alien 3") stay intact.
func parseSearchArgs(args string) (query string, page int) {
	fields := strings.Fields(args)
	page = 1
	if n := len(fields); n > 1 {
		if num, ok := strings.CutPrefix(strings.ToLower(fields[n-1]), pageMarker); ok {
			if p, err := strconv.Atoi(num); err == nil && p > 0 {
				page = p
				fields = fields[:n-1]
			}
		}
	}
	return strings.Join(fields, " "), page
}

// parseReviewArgs reads "<imdbID> <rating> <comment...>".
func parseReviewArgs(args string) (movieID string, rating int, comment string, err error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", 0, "", errUsage
	}
	rating, err = strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, "", fmt.Errorf("%w: rating must be a number", errUsage)
	}
	rest := strings.TrimSpace(args)
	for i := 0; i < 2; i++ {
		_, rest, _ = strings.Cut(rest, " ")
		rest = strings.TrimSpace(rest)
	}
	return fields[0], rating, rest, nil
}

// parsePageCallback reads "page:<n>:<query>".
func parsePageCallback(data string) (page int, query string, ok bool) {
	rest, found := strings.CutPrefix(data, "page:")
	if !found {
		return 0, "", false
	}
	num, query, found := strings.Cut(rest, ":")
	if !found || query == "" {
		return 0, "", false
	}
	page, err := strconv.Atoi(num)
	if err != nil || page < 1 {
		return 0, "", false
	}
	return page, query, true
}

func pageCallback(page int, query string) (string, bool) {
	data := "page:" + strconv.Itoa(page) + ":" + query
	return data, len(data) <= maxCallbackData
}

// execute runs one text message and renders the response. author is the
// display name recorded on reviews.
func (h *Handler) execute(ctx context.Context, text, author string) reply {
	cmd, args := splitCommand(text)
	log := h.log.WithField("command", cmd)

	switch cmd {
	case "/start", "/help":
		return reply{Text: welcomeText}
	case "/search":
		query, page := parseSearchArgs(args)
		if query == "" {
			return textReply("Usage: /search <title> [p:<page>]")
		}
		return h.search(ctx, query, page)
	case "":
		if args == "" {
			return reply{Text: welcomeText}
		}
		// Plain text is always the whole title; paging goes through the buttons.
		return h.search(ctx, strings.Join(strings.Fields(args), " "), 1)
	case "/movie":
		if args == "" {
			return textReply("Usage: /movie <imdbID>")
		}
		return h.details(ctx, firstField(args))
	case "/add":
		if args == "" {
			return textReply("Usage: /add <imdbID>")
		}
		return h.addFavorite(ctx, firstField(args))
	case "/remove":
		if args == "" {
			return textReply("Usage: /remove <imdbID>")
		}
		return h.removeFavorite(ctx, firstField(args))
	case "/mylist":
		return renderMyList(h.store.Favorites())
	case "/review":
		return h.addReview(ctx, args, author)
	case "/reviews":
		if args == "" {
			return textReply("Usage: /reviews <imdbID>")
		}
		id := firstField(args)
		return renderReviews(id, h.store.ReviewsFor(id))
	case "/unreview":
		if args == "" {
			return textReply("Usage: /unreview <reviewID>")
		}
		h.store.RemoveReview(ctx, firstField(args))
		return textReply("Review %s deleted.", firstField(args))
	default:
		log.Debug("Unknown command")
		return textReply("Unknown command %s. Send /start for help.", cmd)
	}
}

// executeCallback runs an inline button press. It returns the new message
// content and a short notification for the button.
func (h *Handler) executeCallback(ctx context.Context, data string) (reply, string) {
	switch {
	case strings.HasPrefix(data, "fav:add:"):
		id := strings.TrimPrefix(data, "fav:add:")
		r := h.addFavorite(ctx, id)
		if h.store.IsFavorite(id) {
			return h.details(ctx, id), "Added to My List"
		}
		return r, ""
	case strings.HasPrefix(data, "fav:del:"):
		id := strings.TrimPrefix(data, "fav:del:")
		h.store.RemoveFavorite(ctx, id)
		return h.details(ctx, id), "Removed from My List"
	}
	if page, query, ok := parsePageCallback(data); ok {
		return h.search(ctx, query, page), ""
	}
	h.log.WithField("data", data).Warn("Unknown callback data")
	return reply{}, "Unknown action"
}

func (h *Handler) search(ctx context.Context, query string, page int) reply {
	res := h.catalog.Search(ctx, &domain.SearchParams{Query: query, Page: page})
	return renderSearch(query, page, res)
}

func (h *Handler) details(ctx context.Context, id string) reply {
	res := h.catalog.Details(ctx, id)
	if res.IsError {
		return renderError(res.Err)
	}
	if res.Data == nil {
		return textReply("No details for %s.", id)
	}
	return renderDetails(*res.Data, h.store.IsFavorite(id), h.store.ReviewsFor(id))
}

func (h *Handler) addFavorite(ctx context.Context, id string) reply {
	if h.store.IsFavorite(id) {
		return textReply("%s is already in My List.", id)
	}
	res := h.catalog.Details(ctx, id)
	if res.IsError {
		return renderError(res.Err)
	}
	if res.Data == nil {
		return textReply("No details for %s.", id)
	}
	if err := h.store.AddFavorite(ctx, *res.Data); err != nil {
		h.log.WithField("imdb_id", id).WithError(err).Warn("Rejected favorite")
		return textReply("⚠️ %s cannot be added: %v", id, err)
	}
	return textReply("Added %s to My List.", res.Data.Title)
}

func (h *Handler) removeFavorite(ctx context.Context, id string) reply {
	if !h.store.IsFavorite(id) {
		return textReply("%s is not in My List.", id)
	}
	h.store.RemoveFavorite(ctx, id)
	return textReply("Removed %s from My List.", id)
}

func (h *Handler) addReview(ctx context.Context, args, author string) reply {
	movieID, rating, comment, err := parseReviewArgs(args)
	if err != nil {
		return textReply("Usage: /review <imdbID> <%d-%d> <comment>", domain.MinRating, domain.MaxRating)
	}
	if author == "" {
		author = "Anonymous"
	}
	review, err := domain.NewReview(movieID, author, comment, rating, h.now())
	if err == nil {
		err = h.store.AddReview(ctx, review)
	}
	if err != nil {
		h.log.WithFields(logrus.Fields{"movie_id": movieID, "rating": rating}).WithError(err).Debug("Rejected review")
		return textReply("⚠️ %v", err)
	}
	return textReply("Review saved (%d/10). Delete it with /unreview %s", review.Rating, review.ID)
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
