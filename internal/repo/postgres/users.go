package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventlocator/internal/domain/category"
	"eventlocator/internal/domain/geo"
	"eventlocator/internal/domain/user"
	"eventlocator/internal/observability"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const userColumns = `
	id, email, password_hash, first_name, last_name,
	ST_X(location::geometry), ST_Y(location::geometry),
	preferred_language, default_radius_km, created_at, updated_at
`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var lon, lat *float64

	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&lon, &lat,
		&u.PreferredLanguage, &u.DefaultRadiusKm, &u.CreatedAt, &u.UpdatedAt,
	)

	if err != nil {
		return user.User{}, err
	}

	if lon != nil && lat != nil {
		u.Location = &geo.Point{Longitude: *lon, Latitude: *lat}
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, req user.CreateRequest) (user.User, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	var lon, lat *float64

	if req.Location != nil {
		lon, lat = &req.Location.Longitude, &req.Location.Latitude
	}

	lang := req.PreferredLanguage

	if lang == "" {
		lang = "en"
	}

	op := "users.create"

	err := r.observe(op, func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO users(
				id, email, password_hash, first_name, last_name,
				location, preferred_language, default_radius_km, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5,
				CASE WHEN $6::float8 IS NULL THEN NULL
				     ELSE ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography END,
				$8, $9, $10, $10
			)`,
			id, req.Email, req.PasswordHash, req.FirstName, req.LastName,
			lon, lat, lang, user.DefaultRadiusKm, now,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	var err error

	op := "users.get_by_email"

	err = r.observe(op, func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	var err error

	op := "users.get_by_id"

	err = r.observe(op, func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	u.PreferredCategories, err = r.preferredCategories(ctx, id)

	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) preferredCategories(ctx context.Context, userID string) ([]category.Category, error) {
	var out []category.Category

	op := "users.preferred_categories"

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT c.id, c.name
			FROM user_categories uc
			JOIN categories c ON c.id = uc.category_id
			WHERE uc.user_id = $1
			ORDER BY c.name ASC`, userID)

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

// UpdateProfile applies a partial update: nil fields keep prior values,
// a supplied location replaces the stored point atomically, and a non-nil
// category list replaces the preference set wholesale. All writes share
// one transaction.
func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error) {
	var lon, lat *float64

	if req.Location != nil {
		lon, lat = &req.Location.Longitude, &req.Location.Latitude
	}

	op := "users.update_profile"

	err := r.observe(op, func() error {
		tx, err := r.pool.Begin(ctx)

		if err != nil {
			return err
		}

		defer func() { _ = tx.Rollback(ctx) }()

		var updatedID string

		err = tx.QueryRow(ctx, `
			UPDATE users
			SET first_name         = COALESCE($2, first_name),
			    last_name          = COALESCE($3, last_name),
			    preferred_language = COALESCE($4, preferred_language),
			    default_radius_km  = COALESCE($5, default_radius_km),
			    location = CASE WHEN $6::float8 IS NULL THEN location
			                    ELSE ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography END,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING id`,
			id, req.FirstName, req.LastName, req.PreferredLanguage, req.DefaultRadiusKm, lon, lat,
		).Scan(&updatedID)

		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return user.ErrNotFound
			}
			return err
		}

		if req.PreferredCategories != nil {
			_, err = tx.Exec(ctx, `DELETE FROM user_categories WHERE user_id = $1`, id)

			if err != nil {
				return err
			}

			// unknown category ids are silently skipped
			_, err = tx.Exec(ctx, `
				INSERT INTO user_categories(user_id, category_id)
				SELECT $1, c.id FROM categories c WHERE c.id = ANY($2)`,
				id, req.PreferredCategories)

			if err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		return user.User{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	var err error

	op := "users.update_password"

	err = r.observe(op, func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE users
			SET password_hash = $2, updated_at = NOW()
			WHERE id = $1`, id, passwordHash)

		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})

	return err
}
