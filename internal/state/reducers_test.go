package state

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"reelbox/internal/domain"
)

func fav(id, title string) domain.MovieDetails {
	return domain.MovieDetails{Movie: domain.Movie{IMDbID: id, Title: title}}
}

func assertTitleOrder(t *testing.T, items []domain.MovieDetails) {
	t.Helper()
	c := collate.New(language.English)
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, c.CompareString(items[i-1].Title, items[i].Title), 0,
			"%q should not sort after %q", items[i-1].Title, items[i].Title)
	}
}

func assertNewestFirst(t *testing.T, items []domain.Review) {
	t.Helper()
	assert.True(t, sort.SliceIsSorted(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	}), "reviews not newest first: %+v", items)
}

func TestAddFavorite_Scenario(t *testing.T) {
	var items []domain.MovieDetails
	items, _ = AddFavorite(items, fav("tt1", "Beta"))
	items, _ = AddFavorite(items, fav("tt2", "Alpha"))
	items, changed := AddFavorite(items, fav("tt1", "Beta"))

	assert.False(t, changed)
	assert.Equal(t, []domain.MovieDetails{fav("tt2", "Alpha"), fav("tt1", "Beta")}, items)
}

func TestAddFavorite_DoesNotMutateInput(t *testing.T) {
	items := []domain.MovieDetails{fav("tt2", "Zed"), fav("tt1", "Able")}
	next, changed := AddFavorite(items, fav("tt3", "Mid"))

	require.True(t, changed)
	assert.Equal(t, "tt2", items[0].IMDbID)
	assert.Len(t, items, 2)
	assert.Len(t, next, 3)
}

func TestAddFavorite_UniquenessUnderRepeats(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids := []string{"tt1", "tt2", "tt3", "tt4", "tt5"}
	titles := map[string]string{"tt1": "échappée", "tt2": "Echo", "tt3": "alpha", "tt4": "Zulu", "tt5": "bravo"}

	var items []domain.MovieDetails
	distinct := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := ids[rng.Intn(len(ids))]
		distinct[id] = true
		items, _ = AddFavorite(items, fav(id, titles[id]))
	}
	assert.Len(t, items, len(distinct))
	assertTitleOrder(t, items)
}

func TestSortFavorites_IsLocaleAware(t *testing.T) {
	items := []domain.MovieDetails{fav("1", "Zulu"), fav("2", "éclair"), fav("3", "apple"), fav("4", "Banana")}
	SortFavorites(items)

	var titles []string
	for _, m := range items {
		titles = append(titles, m.Title)
	}
	assert.Equal(t, []string{"apple", "Banana", "éclair", "Zulu"}, titles)
}

func TestFavoritesSortInvariant_AfterMixedOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	words := []string{"Heat", "alien", "Brazil", "Ødegaard", "casablanca", "Amélie", "up", "Up"}

	var items []domain.MovieDetails
	for i := 0; i < 300; i++ {
		id := string(rune('a' + rng.Intn(10)))
		switch rng.Intn(5) {
		case 0, 1, 2:
			items, _ = AddFavorite(items, fav(id, words[rng.Intn(len(words))]))
		case 3:
			items = RemoveFavorite(items, id)
		case 4:
			items = ReplaceFavorites([]domain.MovieDetails{fav("x", words[rng.Intn(len(words))]), fav("y", words[rng.Intn(len(words))])})
		}
		assertTitleOrder(t, items)
	}
}

func TestRemoveFavorite_AbsentIsNoop(t *testing.T) {
	items := []domain.MovieDetails{fav("tt1", "A")}
	next := RemoveFavorite(items, "tt9")
	assert.Equal(t, items, next)

	next = RemoveFavorite(items, "tt1")
	assert.Empty(t, next)
}

func review(id string, rating int, createdAt int64) domain.Review {
	return domain.Review{ID: id, MovieID: "tt1", Rating: rating, CreatedAt: createdAt}
}

func TestUpsertReview_Scenario(t *testing.T) {
	var items []domain.Review
	items = UpsertReview(items, review("r1", 5, 1000))
	items = UpsertReview(items, review("r2", 3, 2000))
	items = UpsertReview(items, review("r1", 8, 3000))

	assert.Equal(t, []domain.Review{review("r1", 8, 3000), review("r2", 3, 2000)}, items)
}

func TestUpsertReview_ReplacesWithoutGrowing(t *testing.T) {
	items := []domain.Review{review("r1", 5, 1000), review("r2", 6, 500)}
	next := UpsertReview(items, domain.Review{ID: "r2", MovieID: "tt1", Rating: 9, Comment: "edited", CreatedAt: 500})

	require.Len(t, next, 2)
	assert.Equal(t, "edited", next[1].Comment)
	assert.Equal(t, 9, next[1].Rating)
	assert.Equal(t, 6, items[1].Rating, "input must not be mutated")
}

func TestReviewsSortInvariant_AfterMixedOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var items []domain.Review
	for i := 0; i < 300; i++ {
		id := string(rune('a' + rng.Intn(8)))
		switch rng.Intn(4) {
		case 0, 1:
			items = UpsertReview(items, review(id, 1+rng.Intn(10), rng.Int63n(10000)))
		case 2:
			items = RemoveReview(items, id)
		case 3:
			items = ReplaceReviews([]domain.Review{review("p", 1, rng.Int63n(100)), review("q", 2, rng.Int63n(100))})
		}
		assertNewestFirst(t, items)

		seen := map[string]bool{}
		for _, r := range items {
			assert.False(t, seen[r.ID], "duplicate review id %s", r.ID)
			seen[r.ID] = true
		}
	}
}
