package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventlocator/internal/config"
	"eventlocator/internal/domain/event"
	"eventlocator/internal/domain/user"
	"eventlocator/internal/http/middlewares"
)

// preference search never returns more than this many rows
const preferenceResultCap = 50

type SearchStore interface {
	SearchByLocation(ctx context.Context, q event.LocationSearch) ([]event.Event, error)
	SearchByPreferences(ctx context.Context, q event.PreferenceSearch) ([]event.Event, error)
}

type ProfileReader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type SearchHandler struct {
	events SearchStore
	users  ProfileReader
}

func NewSearchHandler(events SearchStore, users ProfileReader) *SearchHandler {
	return &SearchHandler{
		events: events,
		users:  users,
	}
}

// ByLocation answers GET /api/search/location: events within radius km
// of the given point, nearest first, each annotated with distance_km.
func (h *SearchHandler) ByLocation(ctx *gin.Context) {
	point, ok := pointFromQuery(ctx)

	if !ok {
		return
	}

	radius := user.DefaultRadiusKm

	if raw := ctx.Query("radius"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)

		if err != nil || v <= 0 {
			RespondBadRequest(ctx, "radius must be a positive number of kilometers", nil)
			return
		}
		radius = v
	}

	categoryIDs, ok := categoryIDsFromQuery(ctx)

	if !ok {
		return
	}

	from, ok := timeFromQuery(ctx, "startDate", "from")
	if !ok {
		return
	}

	to, ok := timeFromQuery(ctx, "endDate", "to")
	if !ok {
		return
	}

	limit, offset, ok := pageFromQuery(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	events, err := h.events.SearchByLocation(cctx, event.LocationSearch{
		Point:       point,
		RadiusKm:    radius,
		CategoryIDs: categoryIDs,
		From:        from,
		To:          to,
		Limit:       limit,
		Offset:      offset,
	})

	if err != nil {
		RespondInternal(ctx, "Could not search events")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
		"radius": radius,
	})
}

// ByPreferences answers GET /api/search/preferences: upcoming events
// near the caller's stored location, filtered to their preferred
// categories, soonest first.
func (h *SearchHandler) ByPreferences(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not search events")
		return
	}

	if u.Location == nil {
		RespondError(ctx, http.StatusBadRequest, "location_not_set", "Set a location on your profile to search by preferences.", nil)
		return
	}

	radius := u.DefaultRadiusKm

	if radius <= 0 {
		radius = user.DefaultRadiusKm
	}

	categoryIDs := make([]string, 0, len(u.PreferredCategories))

	for _, c := range u.PreferredCategories {
		categoryIDs = append(categoryIDs, c.ID)
	}

	events, err := h.events.SearchByPreferences(cctx, event.PreferenceSearch{
		Point:       *u.Location,
		RadiusKm:    radius,
		CategoryIDs: categoryIDs,
		Now:         time.Now().UTC(),
		Limit:       preferenceResultCap,
	})

	if err != nil {
		RespondInternal(ctx, "Could not search events")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
		"radius": radius,
	})
}

// categories arrives as a comma separated list of ids
func categoryIDsFromQuery(ctx *gin.Context) ([]string, bool) {
	raw := ctx.Query("categories")

	if raw == "" {
		return nil, true
	}

	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)

		if p == "" {
			continue
		}

		if _, err := uuid.Parse(p); err != nil {
			RespondBadRequest(ctx, "categories must be a comma separated list of ids", nil)
			return nil, false
		}

		ids = append(ids, p)
	}

	return ids, true
}
