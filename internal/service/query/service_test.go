package query

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakdale/lessongo/internal/domain"
	"github.com/oakdale/lessongo/internal/repository"
)

// fakeCatalog mirrors the store's search predicate: case-insensitive
// substring over subject/location, unioned with exact numeric equality on
// price/availableSpace.
type fakeCatalog struct {
	mu          sync.RWMutex
	lessons     map[int64]domain.Lesson
	searchCalls int
}

func newFakeCatalog(lessons ...domain.Lesson) *fakeCatalog {
	f := &fakeCatalog{lessons: make(map[int64]domain.Lesson)}
	for _, l := range lessons {
		f.lessons[l.ID] = l
	}
	return f
}

func (f *fakeCatalog) List(ctx context.Context) ([]domain.Lesson, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]domain.Lesson, 0, len(f.lessons))
	for _, l := range f.lessons {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCatalog) Search(ctx context.Context, text string, numeric *float64) ([]domain.Lesson, error) {
	f.mu.Lock()
	f.searchCalls++
	f.mu.Unlock()

	all, _ := f.List(ctx)
	needle := strings.ToLower(text)

	out := []domain.Lesson{}
	for _, l := range all {
		match := strings.Contains(strings.ToLower(l.Subject), needle) ||
			strings.Contains(strings.ToLower(l.Location), needle)
		if numeric != nil {
			match = match ||
				l.Price == *numeric ||
				float64(l.AvailableSpace) == *numeric
		}
		if match {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Get(ctx context.Context, id int64) (*domain.Lesson, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	l, ok := f.lessons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func TestSearchLessons_EmptyQueryReturnsEmpty(t *testing.T) {
	cat := newFakeCatalog(domain.Lesson{ID: 1, Subject: "Mathematics", Location: "Hendon"})
	svc := New(cat, nil, Config{})

	for _, q := range []string{"", "   ", "\t\n"} {
		got, err := svc.SearchLessons(context.Background(), q)
		require.NoError(t, err)
		require.Empty(t, got)
	}

	require.Equal(t, 0, cat.searchCalls, "blank queries must not reach the store")
}

func TestSearchLessons_SubstringMatchesCaseInsensitive(t *testing.T) {
	cat := newFakeCatalog(
		domain.Lesson{ID: 1, Subject: "Mathematics", Location: "Hendon"},
		domain.Lesson{ID: 2, Subject: "Music", Location: "Colindale"},
	)
	svc := New(cat, nil, Config{})

	got, err := svc.SearchLessons(context.Background(), "math")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(1), got[0].ID)
}

func TestSearchLessons_LocationMatches(t *testing.T) {
	cat := newFakeCatalog(
		domain.Lesson{ID: 1, Subject: "Mathematics", Location: "Hendon"},
		domain.Lesson{ID: 2, Subject: "Music", Location: "Colindale"},
	)
	svc := New(cat, nil, Config{})

	got, err := svc.SearchLessons(context.Background(), "colin")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(2), got[0].ID)
}

func TestSearchLessons_NumericQueryIsUnionNotEitherOr(t *testing.T) {
	cat := newFakeCatalog(
		domain.Lesson{ID: 1, Subject: "Chess", Location: "Hendon", Price: 5},
		domain.Lesson{ID: 2, Subject: "5-a-side", Location: "Colindale", Price: 50},
		domain.Lesson{ID: 3, Subject: "Drama", Location: "Brent Cross", Price: 75, AvailableSpace: 5},
		domain.Lesson{ID: 4, Subject: "Art", Location: "Golders Green", Price: 70, AvailableSpace: 3},
	)
	svc := New(cat, nil, Config{})

	got, err := svc.SearchLessons(context.Background(), "5")
	require.NoError(t, err)

	ids := make([]int64, 0, len(got))
	for _, l := range got {
		ids = append(ids, l.ID)
	}
	// price match, substring match and availableSpace match together
	require.ElementsMatch(t, []int64{1, 2, 3}, ids)
}

func TestSearchLessons_TrimsQuery(t *testing.T) {
	cat := newFakeCatalog(domain.Lesson{ID: 1, Subject: "Mathematics", Location: "Hendon"})
	svc := New(cat, nil, Config{})

	got, err := svc.SearchLessons(context.Background(), "  Math  ")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestListLessons_ReturnsAllWithoutMutation(t *testing.T) {
	cat := newFakeCatalog(
		domain.Lesson{ID: 1, Subject: "Mathematics", Location: "Hendon", AvailableSpace: 5},
		domain.Lesson{ID: 2, Subject: "Music", Location: "Colindale", AvailableSpace: 3},
	)
	svc := New(cat, nil, Config{})

	first, err := svc.ListLessons(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.ListLessons(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestGetLesson_NotFound(t *testing.T) {
	svc := New(newFakeCatalog(), nil, Config{})

	_, err := svc.GetLesson(context.Background(), 42)
	require.ErrorIs(t, err, ErrLessonNotFound)
}

func TestGetLesson_Found(t *testing.T) {
	cat := newFakeCatalog(domain.Lesson{ID: 7, Subject: "Coding", Location: "Hendon", Price: 120})
	svc := New(cat, nil, Config{})

	got, err := svc.GetLesson(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "Coding", got.Subject)
}
