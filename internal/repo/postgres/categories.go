package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventlocator/internal/domain/category"
	"eventlocator/internal/observability"
)

type CategoriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCategoriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CategoriesRepo {
	return &CategoriesRepo{pool: pool, prom: prom}
}

func (r *CategoriesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, error) {
	var out []category.Category

	op := "categories.list"

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var c category.Category

			if err := rows.Scan(&c.ID, &c.Name); err != nil {
				return err
			}
			out = append(out, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// GetByName backs the legacy /api/events/filter route, which filters by
// category name rather than id.
func (r *CategoriesRepo) GetByName(ctx context.Context, name string) (category.Category, error) {
	var c category.Category
	var err error

	op := "categories.get_by_name"

	err = r.observe(op, func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name FROM categories WHERE LOWER(name) = LOWER($1)`, name,
		).Scan(&c.ID, &c.Name)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category.Category{}, category.ErrNotFound
		}
		return category.Category{}, err
	}

	return c, nil
}
