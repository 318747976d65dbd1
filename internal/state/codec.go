package state

import (
	"reelbox/internal/domain"
	"reelbox/internal/storage"
)

// Default slot names for the two persisted collections.
const (
	DefaultFavoritesSlot = "myList"
	DefaultReviewsSlot   = "reviews"
)

// FavoritesCodec persists favorites keyed by imdbID, ordered by title.
var FavoritesCodec = storage.Codec[domain.MovieDetails]{
	Key:   domain.FavoriteKey,
	Sort:  SortFavorites,
	Parse: domain.ParseFavorite,
}

// ReviewsCodec persists reviews keyed by id, newest first.
var ReviewsCodec = storage.Codec[domain.Review]{
	Key:   domain.ReviewKey,
	Sort:  SortReviews,
	Parse: domain.ParseReview,
}
