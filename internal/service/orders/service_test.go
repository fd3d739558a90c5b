package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oakdale/lessongo/internal/domain"
	"github.com/oakdale/lessongo/internal/repository"
)

// fakeStore honors the Store contract: placement is all-or-nothing, and a
// decrement never drives available space below zero.
type fakeStore struct {
	mu         sync.Mutex
	lessons    map[int64]*domain.Lesson
	orders     map[uuid.UUID]*domain.Order
	placeCalls int
}

func newFakeStore(lessons ...domain.Lesson) *fakeStore {
	f := &fakeStore{
		lessons: make(map[int64]*domain.Lesson),
		orders:  make(map[uuid.UUID]*domain.Order),
	}
	for _, l := range lessons {
		cp := l
		f.lessons[l.ID] = &cp
	}
	return f
}

func (f *fakeStore) Place(ctx context.Context, o *domain.Order) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placeCalls++

	// verify every line before mutating anything
	for _, ln := range o.Lines {
		l, ok := f.lessons[ln.LessonID]
		if !ok {
			return uuid.Nil, repository.ErrNotFound
		}
		if l.AvailableSpace < ln.Quantity {
			return uuid.Nil, repository.ErrInsufficientSpace
		}
	}

	for _, ln := range o.Lines {
		f.lessons[ln.LessonID].AvailableSpace -= ln.Quantity
	}

	id := uuid.New()
	stored := *o
	stored.ID = id
	f.orders[id] = &stored
	return id, nil
}

func (f *fakeStore) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

func (f *fakeStore) space(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lessons[id].AvailableSpace
}

func (f *fakeStore) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func validOrder() *domain.Order {
	return &domain.Order{
		Name:  "A",
		Phone: "1",
		Lines: []domain.OrderLine{{LessonID: 1, Quantity: 2}},
	}
}

func TestPlaceOrder_ValidationRejectsBeforeStore(t *testing.T) {
	store := newFakeStore(domain.Lesson{ID: 1, AvailableSpace: 3})
	svc := New(store, nil, nil, nil)

	cases := map[string]*domain.Order{
		"nil order":     nil,
		"missing name":  {Phone: "1", Lines: []domain.OrderLine{{LessonID: 1, Quantity: 1}}},
		"blank name":    {Name: "   ", Phone: "1", Lines: []domain.OrderLine{{LessonID: 1, Quantity: 1}}},
		"missing phone": {Name: "A", Lines: []domain.OrderLine{{LessonID: 1, Quantity: 1}}},
		"no lines":      {Name: "A", Phone: "1"},
		"zero quantity": {Name: "A", Phone: "1", Lines: []domain.OrderLine{{LessonID: 1, Quantity: 0}}},
	}

	for name, o := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), o, "")
			require.ErrorIs(t, err, ErrInvalidOrder)
		})
	}

	require.Equal(t, 0, store.placeCalls, "invalid orders must have no side effects")
	require.Equal(t, 3, store.space(1))
}

func TestPlaceOrder_HappyPathReservesAndPersists(t *testing.T) {
	store := newFakeStore(domain.Lesson{ID: 1, Subject: "Mathematics", AvailableSpace: 3})
	svc := New(store, nil, nil, nil)

	id, err := svc.PlaceOrder(context.Background(), validOrder(), "")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)
	require.Equal(t, 1, store.space(1))

	persisted, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "A", persisted.Name)
	require.Len(t, persisted.Lines, 1)
	require.Equal(t, int64(1), persisted.Lines[0].LessonID)
	require.False(t, persisted.CreatedAt.IsZero(), "createdAt must default to processing time")
}

func TestPlaceOrder_KeepsCallerCreatedAt(t *testing.T) {
	store := newFakeStore(domain.Lesson{ID: 1, AvailableSpace: 3})
	svc := New(store, nil, nil, nil)

	at := time.Date(2025, 11, 3, 17, 30, 0, 0, time.UTC)
	o := validOrder()
	o.CreatedAt = at

	id, err := svc.PlaceOrder(context.Background(), o, "")
	require.NoError(t, err)

	persisted, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	require.True(t, persisted.CreatedAt.Equal(at))
}

func TestPlaceOrder_InsufficientSpace(t *testing.T) {
	store := newFakeStore(domain.Lesson{ID: 1, AvailableSpace: 1})
	svc := New(store, nil, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), validOrder(), "")
	require.ErrorIs(t, err, ErrInsufficientSpace)
	require.Equal(t, 1, store.space(1), "failed order must not mutate capacity")
	require.Equal(t, 0, store.orderCount())
}

func TestPlaceOrder_UnknownLesson(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), validOrder(), "")
	require.ErrorIs(t, err, ErrLessonNotFound)
	require.Equal(t, 0, store.orderCount())
}

func TestPlaceOrder_MultiLineIsAllOrNothing(t *testing.T) {
	store := newFakeStore(
		domain.Lesson{ID: 1, AvailableSpace: 5},
		domain.Lesson{ID: 2, AvailableSpace: 1},
	)
	svc := New(store, nil, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), &domain.Order{
		Name:  "A",
		Phone: "1",
		Lines: []domain.OrderLine{
			{LessonID: 1, Quantity: 2},
			{LessonID: 2, Quantity: 2},
		},
	}, "")
	require.ErrorIs(t, err, ErrInsufficientSpace)
	require.Equal(t, 5, store.space(1), "earlier lines must not stay decremented")
	require.Equal(t, 1, store.space(2))
	require.Equal(t, 0, store.orderCount())
}

func TestPlaceOrder_ConcurrentReservationsNeverOversell(t *testing.T) {
	const capacity = 5
	const attempts = 8

	store := newFakeStore(domain.Lesson{ID: 1, AvailableSpace: capacity})
	svc := New(store, nil, nil, nil)

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), &domain.Order{
				Name:  "A",
				Phone: "1",
				Lines: []domain.OrderLine{{LessonID: 1, Quantity: 1}},
			}, "")
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, ErrInsufficientSpace)
			rejected++
		}
	}

	require.Equal(t, capacity, succeeded)
	require.Equal(t, attempts-capacity, rejected)
	require.Equal(t, 0, store.space(1))
	require.Equal(t, capacity, store.orderCount())
}

func TestGetOrder_NotFound(t *testing.T) {
	svc := New(newFakeStore(), nil, nil, nil)

	_, err := svc.GetOrder(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrOrderNotFound)
}
