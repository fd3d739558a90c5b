package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oakdale/lessongo/internal/domain"
	"github.com/oakdale/lessongo/internal/repository"
)

type OrderRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *OrderRepo) With(db DB) *OrderRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *OrderRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Place reserves capacity for every line item and persists the order as one
// transaction. A failed reservation aborts the whole transaction, so partial
// decrements never survive a multi-line failure.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - o: validated order; CreatedAt must already be set.
//
// Returns:
//   - uuid.UUID: the generated order ID when successful.
//   - error: repository.ErrNotFound if a referenced lesson does not exist.
//   - error: repository.ErrInsufficientSpace if a lesson lacks the requested
//     quantity.
func (r *OrderRepo) Place(ctx context.Context, o *domain.Order) (uuid.UUID, error) {
	const op = "postgres.OrderRepo.Place"

	if r.db != nil {
		id, err := r.placeCore(ctx, r.db, o)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		return id, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer tx.Rollback(ctx)

	orderID, err := r.placeCore(ctx, tx, o)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return orderID, nil
}

func (r *OrderRepo) placeCore(ctx context.Context, db DB, o *domain.Order) (uuid.UUID, error) {
	const op = "postgres.OrderRepo.placeCore"

	for _, ln := range o.Lines {
		tag, err := db.Exec(ctx,
			`UPDATE lessons
			 SET available_space = available_space - $2
			 WHERE id = $1 AND available_space >= $2`,
			ln.LessonID, ln.Quantity,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		if tag.RowsAffected() == 0 {
			var exists bool
			if err := db.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM lessons WHERE id = $1)`,
				ln.LessonID,
			).Scan(&exists); err != nil {
				return uuid.Nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
			}

			if !exists {
				return uuid.Nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
			}

			return uuid.Nil, fmt.Errorf("%s:%w", op, repository.ErrInsufficientSpace)
		}
	}

	orderID := uuid.New()
	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO orders(id, name, phone, created_at)
		 VALUES ($1, $2, $3, $4)`,
		orderID, o.Name, o.Phone, createdAt,
	); err != nil {
		return uuid.Nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	batch := &pgx.Batch{}
	for i, ln := range o.Lines {
		batch.Queue(
			`INSERT INTO order_lines(order_id, position, lesson_id, quantity)
			 VALUES ($1, $2, $3, $4)`,
			orderID, i, ln.LessonID, ln.Quantity,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return uuid.Nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return orderID, nil
}

// Get retrieves an order with its line items in request order.
//
// Returns:
//   - *domain.Order: the order when found.
//   - error: repository.ErrNotFound if the order does not exist.
func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const op = "postgres.OrderRepo.Get"

	db := r.handle()

	var o domain.Order
	err := db.QueryRow(ctx,
		`SELECT id, name, phone, created_at
		 FROM orders WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.Name, &o.Phone, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	rows, err := db.Query(ctx,
		`SELECT lesson_id, quantity
		 FROM order_lines
		 WHERE order_id = $1
		 ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	for rows.Next() {
		var ln domain.OrderLine
		if err := rows.Scan(&ln.LessonID, &ln.Quantity); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		o.Lines = append(o.Lines, ln)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &o, nil
}
