package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakdale/lessongo/internal/domain"
	"github.com/oakdale/lessongo/internal/repository"
)

// fakeStore applies updates with the same conditional semantics as the
// postgres repo: field sets verbatim, delta only when the result stays
// non-negative, all under one lock.
type fakeStore struct {
	mu      sync.Mutex
	lessons map[int64]domain.Lesson
	calls   int
}

func newFakeStore(lessons ...domain.Lesson) *fakeStore {
	f := &fakeStore{lessons: make(map[int64]domain.Lesson)}
	for _, l := range lessons {
		f.lessons[l.ID] = l
	}
	return f
}

func (f *fakeStore) ApplyUpdate(ctx context.Context, id int64, upd domain.LessonUpdate) (*domain.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if upd.Empty() {
		return nil, repository.ErrEmptyUpdate
	}

	l, ok := f.lessons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if upd.Subject != nil {
		l.Subject = *upd.Subject
	}
	if upd.Location != nil {
		l.Location = *upd.Location
	}
	if upd.Price != nil {
		l.Price = *upd.Price
	}
	if upd.Icon != nil {
		l.Icon = *upd.Icon
	}
	if upd.AvailableSpace != nil {
		l.AvailableSpace = *upd.AvailableSpace
	}
	if upd.SpaceDelta != nil {
		next := l.AvailableSpace + *upd.SpaceDelta
		if next < 0 {
			return nil, repository.ErrInsufficientSpace
		}
		l.AvailableSpace = next
	}

	f.lessons[id] = l
	return &l, nil
}

func (f *fakeStore) lesson(id int64) domain.Lesson {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lessons[id]
}

func ptr[T any](v T) *T { return &v }

func TestUpdateLesson_EmptyUpdateRejected(t *testing.T) {
	store := newFakeStore(domain.Lesson{ID: 1, Subject: "Music"})
	svc := New(store, nil, nil)

	_, err := svc.UpdateLesson(context.Background(), 1, domain.LessonUpdate{})
	require.ErrorIs(t, err, ErrEmptyUpdate)
	require.Equal(t, 0, store.calls, "no-op requests must not reach the store")
}

func TestUpdateLesson_AmbiguousSpaceUpdateRejected(t *testing.T) {
	store := newFakeStore(domain.Lesson{ID: 1, Subject: "Music", AvailableSpace: 5})
	svc := New(store, nil, nil)

	_, err := svc.UpdateLesson(context.Background(), 1, domain.LessonUpdate{
		AvailableSpace: ptr(10),
		SpaceDelta:     ptr(-2),
	})
	require.ErrorIs(t, err, ErrAmbiguousUpdate)
	require.Equal(t, 0, store.calls)
	require.Equal(t, 5, store.lesson(1).AvailableSpace)
}

func TestUpdateLesson_FieldSetWithZeroDelta(t *testing.T) {
	store := newFakeStore(domain.Lesson{ID: 1, Subject: "Music", AvailableSpace: 5})
	svc := New(store, nil, nil)

	got, err := svc.UpdateLesson(context.Background(), 1, domain.LessonUpdate{
		Subject:    ptr("Art"),
		SpaceDelta: ptr(0),
	})
	require.NoError(t, err)
	require.Equal(t, "Art", got.Subject)
	require.Equal(t, 5, got.AvailableSpace)
}

func TestUpdateLesson_NotFound(t *testing.T) {
	svc := New(newFakeStore(), nil, nil)

	_, err := svc.UpdateLesson(context.Background(), 42, domain.LessonUpdate{Subject: ptr("Art")})
	require.ErrorIs(t, err, ErrLessonNotFound)
}

func TestUpdateLesson_NegativeDeltaBelowZeroRejected(t *testing.T) {
	store := newFakeStore(domain.Lesson{ID: 1, Subject: "Music", AvailableSpace: 1})
	svc := New(store, nil, nil)

	_, err := svc.UpdateLesson(context.Background(), 1, domain.LessonUpdate{SpaceDelta: ptr(-2)})
	require.ErrorIs(t, err, ErrInsufficientSpace)
	require.Equal(t, 1, store.lesson(1).AvailableSpace, "failed delta must not mutate")
}

func TestUpdateLesson_DeltaAdjustsSpaces(t *testing.T) {
	store := newFakeStore(domain.Lesson{ID: 1, Subject: "Music", AvailableSpace: 2})
	svc := New(store, nil, nil)

	got, err := svc.UpdateLesson(context.Background(), 1, domain.LessonUpdate{SpaceDelta: ptr(3)})
	require.NoError(t, err)
	require.Equal(t, 5, got.AvailableSpace)

	got, err = svc.UpdateLesson(context.Background(), 1, domain.LessonUpdate{SpaceDelta: ptr(-5)})
	require.NoError(t, err)
	require.Equal(t, 0, got.AvailableSpace)
}

func TestUpdateLesson_AbsoluteSpaceAssignment(t *testing.T) {
	store := newFakeStore(domain.Lesson{ID: 1, Subject: "Music", AvailableSpace: 2})
	svc := New(store, nil, nil)

	got, err := svc.UpdateLesson(context.Background(), 1, domain.LessonUpdate{AvailableSpace: ptr(9)})
	require.NoError(t, err)
	require.Equal(t, 9, got.AvailableSpace)
}
