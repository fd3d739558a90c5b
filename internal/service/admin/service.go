package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/oakdale/lessongo/internal/domain"
	redisx "github.com/oakdale/lessongo/internal/redis"
	"github.com/oakdale/lessongo/internal/repository"
	postgresrepo "github.com/oakdale/lessongo/internal/repository/postgres"
	redisrepo "github.com/oakdale/lessongo/internal/repository/redis"
	"github.com/oakdale/lessongo/internal/uow"
)

type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisx.CatalogPubSub
	uow    *uow.UoW
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, pubsub *redisx.CatalogPubSub) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
	}
}

// CreateLesson creates one lesson record and returns its ID. This is the
// out-of-band seed/import path; the booking core itself never creates
// lessons.
//
// Returns:
//   - int64: the created lesson ID on success.
//   - error: admin.ErrLessonConflict if an identical lesson already exists.
func (s *Service) CreateLesson(ctx context.Context, l domain.Lesson) (int64, error) {
	const op = "service.admin.CreateLesson"

	var id int64
	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		var err error
		id, err = s.store.Admin().With(tx).CreateLesson(ctx, l)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrLessonConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			if s.cache != nil {
				_ = s.cache.InvalidateLesson(ctx, id)
			}
			if s.pubsub != nil {
				_ = s.pubsub.PublishLessonChanged(ctx, id)
			}
		})
		return nil
	})

	return id, err
}

// BatchCreateLessons imports multiple lessons within a transactional Unit of
// Work. Duplicates (same subject and location) are skipped.
//
// Returns:
//   - error: admin.ErrLessonConflict on a uniqueness violation that cannot be
//     skipped.
func (s *Service) BatchCreateLessons(ctx context.Context, lessons []domain.Lesson) error {
	const op = "service.admin.BatchCreateLessons"

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		err := s.store.Admin().With(tx).BatchCreateLessons(ctx, lessons)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrLessonConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			if s.cache != nil {
				_ = s.cache.Del(ctx, redisx.KeyCatalogList())
			}
		})
		return nil
	})

	return err
}
