package catalog

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"reelbox/internal/domain"
	"reelbox/internal/fetchcache"
	"reelbox/internal/omdb"
)

// Default staleness windows. Search rankings move; title records barely do.
const (
	DefaultSearchTTL  = 5 * time.Minute
	DefaultDetailsTTL = time.Hour
)

// Options configure a Catalog.
type Options struct {
	SearchTTL  time.Duration
	DetailsTTL time.Duration
	Now        func() time.Time
	Logger     logrus.FieldLogger
}

// Catalog is the read side of the movie database, cached per request key.
type Catalog struct {
	fetcher omdb.Fetcher
	search  *fetchcache.Query[domain.SearchResponse]
	details *fetchcache.Query[domain.MovieDetails]
	log     logrus.FieldLogger
}

// New wraps fetcher with search and details caches.
func New(fetcher omdb.Fetcher, opts Options) *Catalog {
	if opts.SearchTTL <= 0 {
		opts.SearchTTL = DefaultSearchTTL
	}
	if opts.DetailsTTL <= 0 {
		opts.DetailsTTL = DefaultDetailsTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Catalog{
		fetcher: fetcher,
		search: fetchcache.NewQuery[domain.SearchResponse](fetchcache.Config{
			Name: "search", TTL: opts.SearchTTL, Now: opts.Now, Logger: logger,
		}),
		details: fetchcache.NewQuery[domain.MovieDetails](fetchcache.Config{
			Name: "details", TTL: opts.DetailsTTL, Now: opts.Now, Logger: logger,
		}),
		log: logger.WithField("component", "catalog"),
	}
}

// SearchKey returns the cache key for params, or "" when there is nothing to
// search for.
func SearchKey(params *domain.SearchParams) string {
	if params == nil {
		return ""
	}
	p, err := params.Normalize()
	if err != nil || p.Query == "" {
		return ""
	}
	return strings.Join([]string{
		"search",
		p.Query,
		strconv.Itoa(p.Page),
		p.Type,
		strconv.Itoa(p.Year),
	}, "|")
}

// DetailsKey returns the cache key for a title id, or "" when id is blank.
func DetailsKey(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return "details|" + id
}

// Search returns a page of results. A nil params, or one with a blank query,
// is not a request: the result is empty and upstream is not called.
func (c *Catalog) Search(ctx context.Context, params *domain.SearchParams) fetchcache.Result[domain.SearchResponse] {
	key := SearchKey(params)
	if key == "" {
		return fetchcache.Result[domain.SearchResponse]{}
	}
	p, _ := params.Normalize()
	return c.search.Fetch(ctx, key, func(ctx context.Context) (domain.SearchResponse, error) {
		return c.fetcher.Search(ctx, p)
	})
}

// Details returns the full record of a title. A blank id is not a request.
func (c *Catalog) Details(ctx context.Context, id string) fetchcache.Result[domain.MovieDetails] {
	key := DetailsKey(id)
	if key == "" {
		return fetchcache.Result[domain.MovieDetails]{}
	}
	id = strings.TrimSpace(id)
	return c.details.Fetch(ctx, key, func(ctx context.Context) (domain.MovieDetails, error) {
		return c.fetcher.Details(ctx, id, "full")
	})
}

// Purge drops expired entries from both caches.
func (c *Catalog) Purge() {
	removed := c.search.Purge() + c.details.Purge()
	if removed > 0 {
		c.log.WithField("removed", removed).Debug("Purged expired entries")
	}
}

// RunJanitor purges expired entries every interval until ctx is cancelled.
func (c *Catalog) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSearchTTL
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Purge()
		case <-ctx.Done():
			return
		}
	}
}

// Stats reports upstream call counts and cache sizes.
type Stats struct {
	SearchCalls    int64
	SearchEntries  int
	DetailsCalls   int64
	DetailsEntries int
}

// Stats returns the current counters.
func (c *Catalog) Stats() Stats {
	return Stats{
		SearchCalls:    c.search.Calls(),
		SearchEntries:  c.search.Len(),
		DetailsCalls:   c.details.Calls(),
		DetailsEntries: c.details.Len(),
	}
}
