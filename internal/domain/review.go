package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 10
)

// ErrInvalidReview is returned when a review fails validation.
var ErrInvalidReview = errors.New("invalid review")

// Review is a user-authored rating and comment for a title.
type Review struct {
	// ID is generated client side, see NewReview.
	ID string `json:"id"`

	// MovieID references the reviewed title. It is a lookup key, not ownership.
	MovieID string `json:"movieId"`

	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
	Author  string `json:"author"`

	// CreatedAt is milliseconds since the Unix epoch.
	CreatedAt int64 `json:"createdAt"`
}

// NewReview builds a review for movieID stamped with now. The identifier
// combines the movie prefix, the timestamp and a random suffix so two
// submissions in the same millisecond do not collide.
func NewReview(movieID, author, comment string, rating int, now time.Time) (Review, error) {
	ts := now.UnixMilli()
	r := Review{
		ID:        reviewID(movieID, ts),
		MovieID:   strings.TrimSpace(movieID),
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		Author:    strings.TrimSpace(author),
		CreatedAt: ts,
	}
	if err := r.Validate(); err != nil {
		return Review{}, err
	}
	return r, nil
}

func reviewID(movieID string, ts int64) string {
	prefix := strings.TrimSpace(movieID)
	if len(prefix) > 5 {
		prefix = prefix[:5]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("review-%s-%d-%s", prefix, ts, suffix)
}

// Validate checks the review against the data model rules.
func (r Review) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidReview)
	}
	if strings.TrimSpace(r.MovieID) == "" {
		return fmt.Errorf("%w: missing movieId", ErrInvalidReview)
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("%w: rating %d outside %d..%d", ErrInvalidReview, r.Rating, MinRating, MaxRating)
	}
	return nil
}

// ReviewKey returns the identity of a review.
func ReviewKey(r Review) string {
	return r.ID
}

// ParseReview decodes a single persisted review record and validates it.
func ParseReview(raw json.RawMessage) (Review, error) {
	if !isObject(raw) {
		return Review{}, fmt.Errorf("%w: not an object", ErrInvalidReview)
	}
	var r Review
	if err := json.Unmarshal(raw, &r); err != nil {
		return Review{}, fmt.Errorf("%w: %v", ErrInvalidReview, err)
	}
	if err := r.Validate(); err != nil {
		return Review{}, err
	}
	return r, nil
}
