package state

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"reelbox/internal/domain"
)

// SortFavorites orders entries by title using English collation, which is
// case and accent aware. Entries with equal titles fall back to their id so
// the order is total.
func SortFavorites(items []domain.MovieDetails) {
	// Collators are not safe for concurrent use; build one per sort.
	c := collate.New(language.English)
	sort.SliceStable(items, func(i, j int) bool {
		if cmp := c.CompareString(items[i].Title, items[j].Title); cmp != 0 {
			return cmp < 0
		}
		return items[i].IMDbID < items[j].IMDbID
	})
}

// AddFavorite returns items with entry appended. When an entry with the same
// id already exists the input is returned unchanged and changed is false.
func AddFavorite(items []domain.MovieDetails, entry domain.MovieDetails) (next []domain.MovieDetails, changed bool) {
	for _, m := range items {
		if m.IMDbID == entry.IMDbID {
			return items, false
		}
	}
	next = make([]domain.MovieDetails, 0, len(items)+1)
	next = append(next, items...)
	next = append(next, entry)
	SortFavorites(next)
	return next, true
}

// RemoveFavorite returns items without the entry identified by id.
// Removing an unknown id yields an equal collection.
func RemoveFavorite(items []domain.MovieDetails, id string) []domain.MovieDetails {
	next := make([]domain.MovieDetails, 0, len(items))
	for _, m := range items {
		if m.IMDbID != id {
			next = append(next, m)
		}
	}
	return next
}

// ReplaceFavorites returns a sorted copy of entries. Duplicates are the
// caller's responsibility.
func ReplaceFavorites(entries []domain.MovieDetails) []domain.MovieDetails {
	next := make([]domain.MovieDetails, len(entries))
	copy(next, entries)
	SortFavorites(next)
	return next
}
