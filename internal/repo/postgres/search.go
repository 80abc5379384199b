package postgres

import (
	"fmt"
	"strings"

	"context"

	"eventlocator/internal/domain/event"
)

// Geospatial queries. Distance filtering and the distance annotation are
// both delegated to PostGIS (ST_DWithin / ST_Distance on geography); the
// service never computes geodesic distance itself.

const distanceExpr = `ST_Distance(e.location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) / 1000`

func (r *EventsRepo) SearchByLocation(ctx context.Context, q event.LocationSearch) ([]event.Event, error) {
	base := `
		SELECT ` + eventColumns + `, ` + distanceExpr + ` AS distance_km
		FROM events e
		JOIN users u ON u.id = e.created_by
		WHERE ST_DWithin(e.location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
	`

	args := []any{q.Point.Longitude, q.Point.Latitude, q.RadiusKm * 1000}
	argsPosition := 4

	var conds []string

	if len(q.CategoryIDs) > 0 {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM event_categories ec WHERE ec.event_id = e.id AND ec.category_id = ANY($%d))",
			argsPosition))
		args = append(args, q.CategoryIDs)
		argsPosition++
	}

	if q.From != nil {
		conds = append(conds, fmt.Sprintf("e.event_date >= $%d", argsPosition))
		args = append(args, *q.From)
		argsPosition++
	}

	if q.To != nil {
		conds = append(conds, fmt.Sprintf("e.event_date <= $%d", argsPosition))
		args = append(args, *q.To)
		argsPosition++
	}

	query := base

	if len(conds) > 0 {
		query += " AND " + strings.Join(conds, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY distance_km ASC, e.id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, q.Limit, q.Offset)

	return r.searchQuery(ctx, "events.search_by_location", query, args)
}

func (r *EventsRepo) SearchByPreferences(ctx context.Context, q event.PreferenceSearch) ([]event.Event, error) {
	base := `
		SELECT ` + eventColumns + `, ` + distanceExpr + ` AS distance_km
		FROM events e
		JOIN users u ON u.id = e.created_by
		WHERE ST_DWithin(e.location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		  AND e.event_date >= $4
	`

	args := []any{q.Point.Longitude, q.Point.Latitude, q.RadiusKm * 1000, q.Now}
	argsPosition := 5

	if len(q.CategoryIDs) > 0 {
		base += fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM event_categories ec WHERE ec.event_id = e.id AND ec.category_id = ANY($%d))",
			argsPosition)
		args = append(args, q.CategoryIDs)
		argsPosition++
	}

	base += fmt.Sprintf(" ORDER BY e.event_date ASC, distance_km ASC LIMIT $%d", argsPosition)
	args = append(args, q.Limit)

	return r.searchQuery(ctx, "events.search_by_preferences", base, args)
}

func (r *EventsRepo) searchQuery(ctx context.Context, op, query string, args []any) ([]event.Event, error) {
	// empty result must serialize as [] like List does
	out := make([]event.Event, 0, 8)

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var distance float64

			e, err := scanEvent(rows, &distance)

			if err != nil {
				return err
			}

			e.DistanceKm = &distance
			out = append(out, e)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if err := r.attachCategories(ctx, out); err != nil {
		return nil, err
	}

	return out, nil
}
