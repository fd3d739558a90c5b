package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oakdale/lessongo/internal/domain"
)

type AdminRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *AdminRepo) With(db DB) *AdminRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AdminRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *AdminRepo) CreateLesson(ctx context.Context, l domain.Lesson) (int64, error) {
	const op = "postgres.AdminRepo.CreateLesson"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO lessons(subject, location, price, available_space, icon)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		l.Subject, l.Location, l.Price, l.AvailableSpace, l.Icon,
	).Scan(&id); err != nil {
		return 0, translateAndWrap(op, err)
	}

	return id, nil
}

func (r *AdminRepo) BatchCreateLessons(ctx context.Context, lessons []domain.Lesson) error {
	const op = "postgres.AdminRepo.BatchCreateLessons"

	db := r.handle()

	batch := &pgx.Batch{}
	for _, l := range lessons {
		batch.Queue(
			`INSERT INTO lessons(subject, location, price, available_space, icon)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (subject, location) DO NOTHING`,
			l.Subject, l.Location, l.Price, l.AvailableSpace, l.Icon,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return translateAndWrap(op, err)
	}

	return nil
}
