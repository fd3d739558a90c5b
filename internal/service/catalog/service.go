package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/oakdale/lessongo/internal/domain"
	redisx "github.com/oakdale/lessongo/internal/redis"
	"github.com/oakdale/lessongo/internal/repository"
	redisrepo "github.com/oakdale/lessongo/internal/repository/redis"
)

// Store is the write-side contract of the catalog store.
type Store interface {
	ApplyUpdate(ctx context.Context, id int64, upd domain.LessonUpdate) (*domain.Lesson, error)
}

type Service struct {
	store  Store
	cache  *redisrepo.Cache
	pubsub *redisx.CatalogPubSub
}

func New(store Store, cache *redisrepo.Cache, pubsub *redisx.CatalogPubSub) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
	}
}

// UpdateLesson applies a partial update and/or a relative space delta to one
// lesson and returns the post-update record.
//
// A request with neither a field assignment nor a delta is a caller error,
// not a silent success. An absolute availableSpace assignment combined with a
// delta is rejected as well: applying one on top of the other would silently
// pick an order of application for an ambiguous input.
//
// Returns:
//   - *domain.Lesson: the updated lesson.
//   - error: catalog.ErrEmptyUpdate if the update carries no changes.
//   - error: catalog.ErrAmbiguousUpdate if both an absolute availableSpace
//     and a delta are present.
//   - error: catalog.ErrLessonNotFound if the lesson does not exist.
//   - error: catalog.ErrInsufficientSpace if the delta would drive
//     availableSpace below zero.
func (s *Service) UpdateLesson(ctx context.Context, id int64, upd domain.LessonUpdate) (*domain.Lesson, error) {
	const op = "service.catalog.UpdateLesson"

	if upd.Empty() {
		return nil, fmt.Errorf("%s:%w", op, ErrEmptyUpdate)
	}

	if upd.AvailableSpace != nil && upd.SpaceDelta != nil {
		return nil, fmt.Errorf("%s:%w", op, ErrAmbiguousUpdate)
	}

	lesson, err := s.store.ApplyUpdate(ctx, id, upd)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%s:%w", op, ErrLessonNotFound)
		case errors.Is(err, repository.ErrInsufficientSpace):
			return nil, fmt.Errorf("%s:%w", op, ErrInsufficientSpace)
		case errors.Is(err, repository.ErrEmptyUpdate):
			return nil, fmt.Errorf("%s:%w", op, ErrEmptyUpdate)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if s.cache != nil {
		_ = s.cache.InvalidateLesson(ctx, id)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishLessonChanged(ctx, id)
	}

	return lesson, nil
}
