package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oakdale/lessongo/internal/domain"
	"github.com/oakdale/lessongo/internal/repository"
)

const lessonColumns = "id, subject, location, price, available_space, icon"

type CatalogRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *CatalogRepo) With(db DB) *CatalogRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *CatalogRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// List retrieves every lesson in store-native order.
//
// Returns:
//   - []domain.Lesson: all lessons, possibly empty.
func (r *CatalogRepo) List(ctx context.Context) ([]domain.Lesson, error) {
	const op = "postgres.CatalogRepo.List"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+lessonColumns+`
		 FROM lessons
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	return scanLessons(op, rows)
}

// Search retrieves lessons matching a case-insensitive substring of text
// against subject or location, unioned (when numeric is non-nil) with an
// exact match on price or available_space. Matching modes are additive: a
// numeric-looking query still matches text fields.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - text: trimmed, non-empty query text.
//   - numeric: parsed numeric value of the query, or nil.
//
// Returns:
//   - []domain.Lesson: matches in store-native order, possibly empty.
func (r *CatalogRepo) Search(ctx context.Context, text string, numeric *float64) ([]domain.Lesson, error) {
	const op = "postgres.CatalogRepo.Search"

	db := r.handle()

	pattern := "%" + escapeLike(text) + "%"

	var rows pgx.Rows
	var err error

	if numeric != nil {
		rows, err = db.Query(ctx,
			`SELECT `+lessonColumns+`
			 FROM lessons
			 WHERE subject ILIKE $1
			    OR location ILIKE $1
			    OR price = $2
			    OR available_space = $2
			 ORDER BY id`,
			pattern, *numeric,
		)
	} else {
		rows, err = db.Query(ctx,
			`SELECT `+lessonColumns+`
			 FROM lessons
			 WHERE subject ILIKE $1 OR location ILIKE $1
			 ORDER BY id`,
			pattern,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	return scanLessons(op, rows)
}

// Get retrieves a lesson by its ID.
//
// Returns:
//   - *domain.Lesson: the lesson when found.
//   - error: repository.ErrNotFound if the lesson does not exist.
func (r *CatalogRepo) Get(ctx context.Context, id int64) (*domain.Lesson, error) {
	const op = "postgres.CatalogRepo.Get"

	db := r.handle()

	var l domain.Lesson
	err := db.QueryRow(ctx,
		`SELECT `+lessonColumns+`
		 FROM lessons WHERE id = $1`,
		id,
	).Scan(&l.ID, &l.Subject, &l.Location, &l.Price, &l.AvailableSpace, &l.Icon)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &l, nil
}

// ApplyUpdate applies field assignments and/or a relative space delta to one
// lesson as a single conditional UPDATE keyed on id, so concurrent updates on
// the same lesson serialize at the row and available_space can never be
// driven below zero. The caller guarantees the update is non-empty and that
// at most one of AvailableSpace/SpaceDelta targets available_space.
//
// Returns:
//   - *domain.Lesson: the post-update lesson.
//   - error: repository.ErrEmptyUpdate if the update carries no changes.
//   - error: repository.ErrNotFound if the lesson does not exist.
//   - error: repository.ErrInsufficientSpace if the delta would make
//     available_space negative.
func (r *CatalogRepo) ApplyUpdate(ctx context.Context, id int64, upd domain.LessonUpdate) (*domain.Lesson, error) {
	const op = "postgres.CatalogRepo.ApplyUpdate"

	if upd.Empty() {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrEmptyUpdate)
	}

	db := r.handle()

	sets := make([]string, 0, 6)
	args := []any{id}

	set := func(expr string, v any) int {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
		return len(args)
	}

	if upd.Subject != nil {
		set("subject = $%d", *upd.Subject)
	}
	if upd.Location != nil {
		set("location = $%d", *upd.Location)
	}
	if upd.Price != nil {
		set("price = $%d", *upd.Price)
	}
	if upd.Icon != nil {
		set("icon = $%d", *upd.Icon)
	}
	if upd.AvailableSpace != nil {
		set("available_space = $%d", *upd.AvailableSpace)
	}

	cond := "id = $1"
	if upd.SpaceDelta != nil {
		n := set("available_space = available_space + $%d", *upd.SpaceDelta)
		cond = fmt.Sprintf("id = $1 AND available_space + $%d >= 0", n)
	}

	var l domain.Lesson
	err := db.QueryRow(ctx,
		`UPDATE lessons SET `+strings.Join(sets, ", ")+`
		 WHERE `+cond+`
		 RETURNING `+lessonColumns,
		args...,
	).Scan(&l.ID, &l.Subject, &l.Location, &l.Price, &l.AvailableSpace, &l.Icon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) && upd.SpaceDelta != nil {
			exists, exErr := r.exists(ctx, db, id)
			if exErr != nil {
				return nil, fmt.Errorf("%s:%w", op, exErr)
			}
			if exists {
				return nil, fmt.Errorf("%s:%w", op, repository.ErrInsufficientSpace)
			}
		}
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &l, nil
}

func (r *CatalogRepo) exists(ctx context.Context, db DB, id int64) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM lessons WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, translateDBErr(err)
}

func scanLessons(op string, rows pgx.Rows) ([]domain.Lesson, error) {
	out := []domain.Lesson{}
	for rows.Next() {
		var l domain.Lesson
		if err := rows.Scan(&l.ID, &l.Subject, &l.Location, &l.Price, &l.AvailableSpace, &l.Icon); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// escapeLike neutralizes LIKE metacharacters so user queries match literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
