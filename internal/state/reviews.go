package state

import (
	"sort"

	"reelbox/internal/domain"
)

// SortReviews orders reviews newest first.
func SortReviews(items []domain.Review) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt != items[j].CreatedAt {
			return items[i].CreatedAt > items[j].CreatedAt
		}
		return items[i].ID < items[j].ID
	})
}

// UpsertReview returns items with review inserted, replacing any review that
// has the same id.
func UpsertReview(items []domain.Review, review domain.Review) []domain.Review {
	next := make([]domain.Review, 0, len(items)+1)
	replaced := false
	for _, r := range items {
		if r.ID == review.ID {
			next = append(next, review)
			replaced = true
			continue
		}
		next = append(next, r)
	}
	if !replaced {
		next = append(next, review)
	}
	SortReviews(next)
	return next
}

// RemoveReview returns items without the review identified by id.
func RemoveReview(items []domain.Review, id string) []domain.Review {
	next := make([]domain.Review, 0, len(items))
	for _, r := range items {
		if r.ID != id {
			next = append(next, r)
		}
	}
	return next
}

// ReplaceReviews returns a sorted copy of reviews.
func ReplaceReviews(reviews []domain.Review) []domain.Review {
	next := make([]domain.Review, len(reviews))
	copy(next, reviews)
	SortReviews(next)
	return next
}
