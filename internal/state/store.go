package state

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"reelbox/internal/domain"
	"reelbox/internal/storage"
)

// ActionType names a mutation applied to the store.
type ActionType string

// Mutations understood by the store.
const (
	ActionAddFavorite    ActionType = "myList/add"
	ActionRemoveFavorite ActionType = "myList/remove"
	ActionSetFavorites   ActionType = "myList/set"
	ActionAddReview      ActionType = "reviews/add"
	ActionRemoveReview   ActionType = "reviews/remove"
	ActionSetReviews     ActionType = "reviews/set"
)

// Action describes a completed mutation. Changed is false when the mutation
// left the collection untouched (adding a favorite that is already present).
type Action struct {
	Type    ActionType
	ID      string
	Changed bool
}

// Observer is notified synchronously after every mutation.
type Observer func(Action)

// Snapshot is a consistent copy of both collections. The generation counters
// increase every time the corresponding collection is replaced.
type Snapshot struct {
	Favorites    []domain.MovieDetails
	FavoritesGen uint64
	Reviews      []domain.Review
	ReviewsGen   uint64
}

// SelectorStats counts how many times each derived view was recomputed.
type SelectorStats struct {
	IsFavorite     int
	FavoritesCount int
	ReviewsFor     int
}

// Options configure a Store.
type Options struct {
	Slots         storage.Slots
	FavoritesSlot string
	ReviewsSlot   string
	Logger        logrus.FieldLogger
}

// Store owns the favorites and reviews collections. Mutations are serialized
// and persisted while the lock is held so the slot order matches memory;
// observers run after the lock is released and may read the store.
type Store struct {
	mu           sync.RWMutex
	favorites    []domain.MovieDetails
	favoritesGen uint64
	reviews      []domain.Review
	reviewsGen   uint64

	favoritesDB *storage.Collection[domain.MovieDetails]
	reviewsDB   *storage.Collection[domain.Review]

	obsMu     sync.Mutex
	observers []observerEntry
	nextObsID int

	isFavorite     *memo[string, bool]
	favoritesCount *memo[struct{}, int]
	reviewsFor     *memo[string, []domain.Review]

	log logrus.FieldLogger
}

type observerEntry struct {
	id int
	fn Observer
}

// New builds a store and hydrates it from the configured slots.
func New(ctx context.Context, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.FavoritesSlot == "" {
		opts.FavoritesSlot = DefaultFavoritesSlot
	}
	if opts.ReviewsSlot == "" {
		opts.ReviewsSlot = DefaultReviewsSlot
	}

	s := &Store{
		favoritesDB:    storage.NewCollection(opts.Slots, opts.FavoritesSlot, FavoritesCodec, logger),
		reviewsDB:      storage.NewCollection(opts.Slots, opts.ReviewsSlot, ReviewsCodec, logger),
		isFavorite:     newMemo[string, bool](),
		favoritesCount: newMemo[struct{}, int](),
		reviewsFor:     newMemo[string, []domain.Review](),
		log:            logger.WithField("component", "store"),
	}
	s.favorites = s.favoritesDB.Load(ctx)
	s.favoritesGen = 1
	s.reviews = s.reviewsDB.Load(ctx)
	s.reviewsGen = 1

	s.log.WithFields(logrus.Fields{
		"favorites": len(s.favorites),
		"reviews":   len(s.reviews),
	}).Info("Store hydrated")
	return s
}

// Subscribe registers fn and returns a function that unregisters it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	id := s.nextObsID
	s.nextObsID++
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			defer s.obsMu.Unlock()
			for i, o := range s.observers {
				if o.id == id {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) notify(a Action) {
	s.obsMu.Lock()
	observers := make([]observerEntry, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.Unlock()

	for _, o := range observers {
		o.fn(a)
	}
}

// --- Favorites ---

// AddFavorite adds entry unless a favorite with the same id exists.
// The entry must pass domain validation, so everything kept in memory also
// survives a reload.
func (s *Store) AddFavorite(ctx context.Context, entry domain.MovieDetails) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	next, changed := AddFavorite(s.favorites, entry)
	if changed {
		s.commitFavoritesLocked(ctx, next)
	}
	s.mu.Unlock()

	s.notify(Action{Type: ActionAddFavorite, ID: entry.IMDbID, Changed: changed})
	return nil
}

// RemoveFavorite removes the favorite identified by id, if any.
func (s *Store) RemoveFavorite(ctx context.Context, id string) {
	s.mu.Lock()
	s.commitFavoritesLocked(ctx, RemoveFavorite(s.favorites, id))
	s.mu.Unlock()

	s.notify(Action{Type: ActionRemoveFavorite, ID: id, Changed: true})
}

// SetFavorites replaces the whole favorites collection.
func (s *Store) SetFavorites(ctx context.Context, entries []domain.MovieDetails) {
	s.mu.Lock()
	s.commitFavoritesLocked(ctx, ReplaceFavorites(entries))
	s.mu.Unlock()

	s.notify(Action{Type: ActionSetFavorites, Changed: true})
}

func (s *Store) commitFavoritesLocked(ctx context.Context, next []domain.MovieDetails) {
	s.favorites = next
	s.favoritesGen++
	s.favoritesDB.Save(ctx, next)
}

// --- Reviews ---

// AddReview inserts review or replaces the review with the same id.
// The review must pass domain validation.
func (s *Store) AddReview(ctx context.Context, review domain.Review) error {
	if err := review.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.commitReviewsLocked(ctx, UpsertReview(s.reviews, review))
	s.mu.Unlock()

	s.notify(Action{Type: ActionAddReview, ID: review.ID, Changed: true})
	return nil
}

// RemoveReview removes the review identified by id, if any.
func (s *Store) RemoveReview(ctx context.Context, id string) {
	s.mu.Lock()
	s.commitReviewsLocked(ctx, RemoveReview(s.reviews, id))
	s.mu.Unlock()

	s.notify(Action{Type: ActionRemoveReview, ID: id, Changed: true})
}

// SetReviews replaces the whole reviews collection.
func (s *Store) SetReviews(ctx context.Context, reviews []domain.Review) {
	s.mu.Lock()
	s.commitReviewsLocked(ctx, ReplaceReviews(reviews))
	s.mu.Unlock()

	s.notify(Action{Type: ActionSetReviews, Changed: true})
}

func (s *Store) commitReviewsLocked(ctx context.Context, next []domain.Review) {
	s.reviews = next
	s.reviewsGen++
	s.reviewsDB.Save(ctx, next)
}

// --- Reads ---

// Favorites returns a copy of the favorites collection in title order.
func (s *Store) Favorites() []domain.MovieDetails {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.favorites)
}

// Reviews returns a copy of the reviews collection, newest first.
func (s *Store) Reviews() []domain.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.reviews)
}

// Snapshot returns both collections and their generations atomically.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Favorites:    cloneSlice(s.favorites),
		FavoritesGen: s.favoritesGen,
		Reviews:      cloneSlice(s.reviews),
		ReviewsGen:   s.reviewsGen,
	}
}

// IsFavorite reports whether the title id is in favorites.
func (s *Store) IsFavorite(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isFavorite.get(id, s.favoritesGen, func() bool {
		for _, m := range s.favorites {
			if m.IMDbID == id {
				return true
			}
		}
		return false
	})
}

// FavoritesCount returns the number of favorites.
func (s *Store) FavoritesCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favoritesCount.get(struct{}{}, s.favoritesGen, func() int {
		return len(s.favorites)
	})
}

// ReviewsFor returns the reviews of a title, newest first.
func (s *Store) ReviewsFor(movieID string) []domain.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reviews := s.reviewsFor.get(movieID, s.reviewsGen, func() []domain.Review {
		var out []domain.Review
		for _, r := range s.reviews {
			if r.MovieID == movieID {
				out = append(out, r)
			}
		}
		return out
	})
	return cloneSlice(reviews)
}

// SelectorStats reports recompute counts for the derived views.
func (s *Store) SelectorStats() SelectorStats {
	return SelectorStats{
		IsFavorite:     s.isFavorite.computeCount(),
		FavoritesCount: s.favoritesCount.computeCount(),
		ReviewsFor:     s.reviewsFor.computeCount(),
	}
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
