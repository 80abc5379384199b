package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventlocator/internal/domain/category"
	"eventlocator/internal/domain/event"
	"eventlocator/internal/domain/geo"
	"eventlocator/internal/domain/user"
	"eventlocator/internal/observability"
)

type EventsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{pool: pool, prom: prom}
}

func (r *EventsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const eventColumns = `
	e.id, e.title, e.description, e.event_date, e.end_date,
	ST_X(e.location::geometry), ST_Y(e.location::geometry),
	e.created_by, e.created_at, e.updated_at,
	u.id, u.first_name, u.last_name, u.email
`

func scanEvent(row pgx.Row, extra ...any) (event.Event, error) {
	var e event.Event
	var lon, lat float64
	var creator user.Public

	dest := []any{
		&e.ID, &e.Title, &e.Description, &e.EventDate, &e.EndDate,
		&lon, &lat,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
		&creator.ID, &creator.FirstName, &creator.LastName, &creator.Email,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return event.Event{}, err
	}

	e.Location = geo.Point{Longitude: lon, Latitude: lat}
	e.Creator = &creator

	return e, nil
}

// Create persists the event row and its category associations as one
// transaction: either both commit or both roll back. Unknown category ids
// are silently skipped rather than failing the insert.
func (r *EventsRepo) Create(ctx context.Context, req event.CreateEventRequest, creatorID string) (event.Event, error) {
	e := event.NewFromCreateRequest(req, creatorID)

	op := "events.create"

	err := r.observe(op, func() error {
		tx, err := r.pool.Begin(ctx)

		if err != nil {
			return err
		}

		defer func() { _ = tx.Rollback(ctx) }()

		_, err = tx.Exec(ctx, `
			INSERT INTO events(
				id, title, description, event_date, end_date,
				location, created_by, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5,
				ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography,
				$8, $9, $9
			)`,
			e.ID, e.Title, e.Description, e.EventDate, e.EndDate,
			e.Location.Longitude, e.Location.Latitude,
			e.CreatedBy, e.CreatedAt,
		)

		if err != nil {
			return err
		}

		if len(req.Categories) > 0 {
			_, err = tx.Exec(ctx, `
				INSERT INTO event_categories(event_id, category_id)
				SELECT $1, c.id FROM categories c WHERE c.id = ANY($2)`,
				e.ID, req.Categories)

			if err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		return event.Event{}, err
	}

	return r.GetByID(ctx, e.ID)
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	var e event.Event
	var err error

	op := "events.get_by_id"

	err = r.observe(op, func() error {
		e, err = scanEvent(r.pool.QueryRow(ctx, `
			SELECT `+eventColumns+`
			FROM events e
			JOIN users u ON u.id = e.created_by
			WHERE e.id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}

	cats, err := r.categoriesFor(ctx, []string{e.ID})

	if err != nil {
		return event.Event{}, err
	}

	e.Categories = cats[e.ID]

	if e.Categories == nil {
		e.Categories = []category.Category{}
	}

	return e, nil
}

// GetOwner is the cheap lookup used for ownership checks before mutations.
func (r *EventsRepo) GetOwner(ctx context.Context, id string) (string, error) {
	var owner string
	var err error

	op := "events.get_owner"

	err = r.observe(op, func() error {
		return r.pool.QueryRow(ctx, `SELECT created_by FROM events WHERE id = $1`, id).Scan(&owner)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", event.ErrNotFound
		}
		return "", err
	}

	return owner, nil
}

func (r *EventsRepo) List(ctx context.Context, f event.ListFilter) ([]event.Event, int, error) {
	base := `
		SELECT ` + eventColumns + `, COUNT(*) OVER() AS total
		FROM events e
		JOIN users u ON u.id = e.created_by
	`

	var conds []string
	var args []any

	argsPosition := 1

	if f.CategoryID != nil {
		// inner-join semantics: at least one matching association
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM event_categories ec WHERE ec.event_id = e.id AND ec.category_id = $%d)",
			argsPosition))
		args = append(args, *f.CategoryID)
		argsPosition++
	}

	if f.From != nil {
		conds = append(conds, fmt.Sprintf("e.event_date >= $%d", argsPosition))
		args = append(args, *f.From)
		argsPosition++
	}

	if f.To != nil {
		conds = append(conds, fmt.Sprintf("e.event_date <= $%d", argsPosition))
		args = append(args, *f.To)
		argsPosition++
	}

	if f.CreatedBy != nil {
		conds = append(conds, fmt.Sprintf("e.created_by = $%d", argsPosition))
		args = append(args, *f.CreatedBy)
		argsPosition++
	}

	query := base

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY e.event_date ASC, e.id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, f.Limit, f.Offset)

	out := make([]event.Event, 0, f.Limit)
	total := 0

	op := "events.list"

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var t int

			e, err := scanEvent(rows, &t)

			if err != nil {
				return err
			}

			total = t
			out = append(out, e)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	if err := r.attachCategories(ctx, out); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

// Update replaces supplied fields only: nil (and, for strings, empty)
// values retain the previous column value, so an empty string cannot clear
// a field. Category replacement is delete-then-insert inside the same
// transaction as the field update.
func (r *EventsRepo) Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error) {
	op := "events.update"

	err := r.observe(op, func() error {
		tx, err := r.pool.Begin(ctx)

		if err != nil {
			return err
		}

		defer func() { _ = tx.Rollback(ctx) }()

		var updatedID string

		err = tx.QueryRow(ctx, `
			UPDATE events
			SET title       = COALESCE(NULLIF($2, ''), title),
			    description = COALESCE(NULLIF($3, ''), description),
			    event_date  = COALESCE($4, event_date),
			    end_date    = COALESCE($5, end_date),
			    location = CASE WHEN $6::float8 IS NULL THEN location
			                    ELSE ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography END,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING id`,
			id, req.Title, req.Description, req.EventDate, req.EndDate,
			req.Longitude, req.Latitude,
		).Scan(&updatedID)

		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return event.ErrNotFound
			}
			return err
		}

		if req.Categories != nil {
			_, err = tx.Exec(ctx, `DELETE FROM event_categories WHERE event_id = $1`, id)

			if err != nil {
				return err
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO event_categories(event_id, category_id)
				SELECT $1, c.id FROM categories c WHERE c.id = ANY($2)`,
				id, req.Categories)

			if err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		return event.Event{}, err
	}

	return r.GetByID(ctx, id)
}

// Delete removes the category associations before the event row, in one
// transaction.
func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	op := "events.delete"

	return r.observe(op, func() error {
		tx, err := r.pool.Begin(ctx)

		if err != nil {
			return err
		}

		defer func() { _ = tx.Rollback(ctx) }()

		_, err = tx.Exec(ctx, `DELETE FROM event_categories WHERE event_id = $1`, id)

		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return event.ErrNotFound
		}

		return tx.Commit(ctx)
	})
}

func (r *EventsRepo) categoriesFor(ctx context.Context, eventIDs []string) (map[string][]category.Category, error) {
	out := make(map[string][]category.Category, len(eventIDs))

	if len(eventIDs) == 0 {
		return out, nil
	}

	op := "events.categories_for"

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT ec.event_id, c.id, c.name
			FROM event_categories ec
			JOIN categories c ON c.id = ec.category_id
			WHERE ec.event_id = ANY($1)
			ORDER BY c.name ASC`, eventIDs)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var eventID string
			var c category.Category

			if err := rows.Scan(&eventID, &c.ID, &c.Name); err != nil {
				return err
			}

			out[eventID] = append(out[eventID], c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *EventsRepo) attachCategories(ctx context.Context, events []event.Event) error {
	ids := make([]string, 0, len(events))

	for _, e := range events {
		ids = append(ids, e.ID)
	}

	cats, err := r.categoriesFor(ctx, ids)

	if err != nil {
		return err
	}

	for i := range events {
		events[i].Categories = cats[events[i].ID]

		if events[i].Categories == nil {
			events[i].Categories = []category.Category{}
		}
	}

	return nil
}
