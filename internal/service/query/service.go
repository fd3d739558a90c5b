package query

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oakdale/lessongo/internal/domain"
	redisx "github.com/oakdale/lessongo/internal/redis"
	"github.com/oakdale/lessongo/internal/repository"
	redisrepo "github.com/oakdale/lessongo/internal/repository/redis"
)

type Config struct {
	LessonSummaryTTL time.Duration
	CatalogListTTL   time.Duration
}

// CatalogReader is the read-side contract of the catalog store. All methods
// are side-effect-free.
type CatalogReader interface {
	List(ctx context.Context) ([]domain.Lesson, error)
	Search(ctx context.Context, text string, numeric *float64) ([]domain.Lesson, error)
	Get(ctx context.Context, id int64) (*domain.Lesson, error)
}

type Service struct {
	catalog CatalogReader
	cache   *redisrepo.Cache
	cfg     Config
}

func New(catalog CatalogReader, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.LessonSummaryTTL <= 0 {
		cfg.LessonSummaryTTL = 60 * time.Second
	}

	if cfg.CatalogListTTL <= 0 {
		cfg.CatalogListTTL = 15 * time.Second
	}

	return &Service{
		catalog: catalog,
		cache:   cache,
		cfg:     cfg,
	}
}

// ListLessons retrieves the whole catalog, utilizing a short-TTL caching
// layer since the listing is the hottest read.
func (s *Service) ListLessons(ctx context.Context) ([]domain.Lesson, error) {
	const op = "service.query.ListLessons"

	if s.cache == nil {
		lessons, err := s.catalog.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return lessons, nil
	}

	lessons, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyCatalogList(),
		s.cfg.CatalogListTTL,
		func(ctx context.Context) ([]domain.Lesson, error) {
			return s.catalog.List(ctx)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return lessons, nil
}

// SearchLessons resolves a free-form query string against the catalog.
//
// An empty or whitespace-only query yields an empty result, never the whole
// catalog. The trimmed query matches subject and location as a
// case-insensitive substring; when it also parses as a number it additionally
// matches price or availableSpace exactly. The two modes are a union: a
// numeric-looking query still matches text fields.
//
// Returns:
//   - []domain.Lesson: matches in store-native order, no ranking, no cap.
func (s *Service) SearchLessons(ctx context.Context, rawQuery string) ([]domain.Lesson, error) {
	const op = "service.query.SearchLessons"

	q := strings.TrimSpace(rawQuery)
	if q == "" {
		return []domain.Lesson{}, nil
	}

	var numeric *float64
	if n, err := strconv.ParseFloat(q, 64); err == nil {
		numeric = &n
	}

	lessons, err := s.catalog.Search(ctx, q, numeric)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return lessons, nil
}

// GetLesson retrieves a lesson by its ID, utilizing a caching layer.
//
// Returns:
//   - *domain.Lesson: the retrieved lesson, or nil if not found.
//   - error: query.ErrLessonNotFound if the lesson is not found.
func (s *Service) GetLesson(ctx context.Context, id int64) (*domain.Lesson, error) {
	const op = "service.query.GetLesson"

	load := func(ctx context.Context) (domain.Lesson, error) {
		l, err := s.catalog.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.Lesson{}, ErrLessonNotFound
			}

			return domain.Lesson{}, err
		}

		return *l, nil
	}

	if s.cache == nil {
		l, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &l, nil
	}

	lesson, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyLessonSummary(id),
		s.cfg.LessonSummaryTTL,
		load,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &lesson, nil
}
