package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oakdale/lessongo/internal/domain"
	redisx "github.com/oakdale/lessongo/internal/redis"
	"github.com/oakdale/lessongo/internal/repository"
	redisrepo "github.com/oakdale/lessongo/internal/repository/redis"
)

// Store is the persistence contract for order placement. Place must reserve
// capacity for every line item and persist the order atomically: either the
// order and all its decrements commit, or nothing does.
type Store interface {
	Place(ctx context.Context, o *domain.Order) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

type Service struct {
	store   Store
	cache   *redisrepo.Cache
	pubsub  *redisx.CatalogPubSub
	limiter *redisrepo.SlidingWindowLimiter
}

func New(
	store Store,
	cache *redisrepo.Cache,
	pubsub *redisx.CatalogPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
) *Service {
	return &Service{
		store:   store,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
	}
}

// PlaceOrder validates an incoming order and reserves capacity for every line
// item before persisting the order, all inside one store transaction.
// Validation failures are detected before any store call and have no side
// effects.
//
// Parameters:
//   - ctx: request-scoped context.
//   - o: order request; CreatedAt is defaulted to processing time when zero.
//   - rlKey: rate-limit bucket key, empty to skip limiting.
//
// Returns:
//   - uuid.UUID: the generated ID of the persisted order.
//   - error: orders.ErrInvalidOrder on a malformed request.
//   - error: orders.ErrRateLimited when the caller exceeded the window.
//   - error: orders.ErrLessonNotFound if a referenced lesson is absent.
//   - error: orders.ErrInsufficientSpace if any lesson lacks the requested
//     quantity.
func (s *Service) PlaceOrder(ctx context.Context, o *domain.Order, rlKey string) (uuid.UUID, error) {
	const op = "service.orders.PlaceOrder"

	if err := validate(o); err != nil {
		return uuid.Nil, fmt.Errorf("%s:%w", op, err)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, _, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return uuid.Nil, fmt.Errorf("%s:%w", op, ErrRateLimited)
		}
	}

	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	orderID, err := s.store.Place(ctx, o)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return uuid.Nil, fmt.Errorf("%s:%w", op, ErrLessonNotFound)
		case errors.Is(err, repository.ErrInsufficientSpace):
			return uuid.Nil, fmt.Errorf("%s:%w", op, ErrInsufficientSpace)
		}

		return uuid.Nil, fmt.Errorf("%s:%w", op, err)
	}

	for _, ln := range o.Lines {
		if s.cache != nil {
			_ = s.cache.InvalidateLesson(ctx, ln.LessonID)
		}
		if s.pubsub != nil {
			_ = s.pubsub.PublishLessonChanged(ctx, ln.LessonID)
		}
	}

	return orderID, nil
}

// GetOrder retrieves a persisted order with its line items.
//
// Returns:
//   - *domain.Order: the order when found.
//   - error: orders.ErrOrderNotFound if the order does not exist.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const op = "service.orders.GetOrder"

	o, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrOrderNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return o, nil
}

func validate(o *domain.Order) error {
	if o == nil {
		return ErrInvalidOrder
	}

	if strings.TrimSpace(o.Name) == "" || strings.TrimSpace(o.Phone) == "" {
		return ErrInvalidOrder
	}

	if len(o.Lines) == 0 {
		return ErrInvalidOrder
	}

	for _, ln := range o.Lines {
		if ln.Quantity < 1 {
			return ErrInvalidOrder
		}
	}

	return nil
}
