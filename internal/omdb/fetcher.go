package omdb

import (
	"context"

	"reelbox/internal/domain"
)

// Fetcher reads titles from the movie database.
type Fetcher interface {
	// Search returns one page of titles matching params.Query.
	Search(ctx context.Context, params domain.SearchParams) (domain.SearchResponse, error)

	// Details returns the full record of a title. plot is "short" or "full".
	Details(ctx context.Context, id string, plot string) (domain.MovieDetails, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)
