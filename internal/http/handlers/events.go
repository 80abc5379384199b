package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventlocator/internal/config"
	"eventlocator/internal/domain/category"
	"eventlocator/internal/domain/event"
	"eventlocator/internal/domain/geo"
	"eventlocator/internal/http/middlewares"
	"eventlocator/internal/i18n"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// legacy nearby alias measures in meters
	defaultMaxDistanceMeters = 5000
)

type EventsStore interface {
	Create(ctx context.Context, req event.CreateEventRequest, creatorID string) (event.Event, error)
	GetByID(ctx context.Context, id string) (event.Event, error)
	GetOwner(ctx context.Context, id string) (string, error)
	List(ctx context.Context, f event.ListFilter) ([]event.Event, int, error)
	Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error)
	Delete(ctx context.Context, id string) error
	SearchByLocation(ctx context.Context, q event.LocationSearch) ([]event.Event, error)
}

type CategoryFinder interface {
	GetByName(ctx context.Context, name string) (category.Category, error)
}

// ReminderScheduler is fire and forget: event creation never fails on a
// scheduling problem.
type ReminderScheduler interface {
	Schedule(ctx context.Context, ev event.Event)
}

type EventsHandler struct {
	repo       EventsStore
	categories CategoryFinder
	scheduler  ReminderScheduler
}

func NewEventsHandler(repo EventsStore, categories CategoryFinder, scheduler ReminderScheduler) *EventsHandler {
	return &EventsHandler{
		repo:       repo,
		categories: categories,
		scheduler:  scheduler,
	}
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req event.CreateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, req, userID)

	if err != nil {
		RespondInternal(ctx, "Could not create event")
		return
	}

	if h.scheduler != nil {
		h.scheduler.Schedule(ctx.Request.Context(), created)
	}

	lang := middlewares.LocaleFromContext(ctx)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": i18n.T(lang, "event_created"),
		"event":   created,
	})
}

func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	filter, ok := listFilterFromQuery(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	events, total, err := h.repo.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list events")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"count":  total,
		"events": events,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (h *EventsHandler) GetEventById(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	e, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not fetch event")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"event": e})
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	id := ctx.Param("id")

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req event.UpdateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// location needs both coordinates or neither
	if (req.Latitude == nil) != (req.Longitude == nil) {
		RespondBadRequest(ctx, "latitude and longitude must be provided together", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if !h.requireOwner(ctx, cctx, id, userID) {
		return
	}

	updated, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not update event")
		return
	}

	lang := middlewares.LocaleFromContext(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"message": i18n.T(lang, "event_updated"),
		"event":   updated,
	})
}

func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
	id := ctx.Param("id")

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if !h.requireOwner(ctx, cctx, id, userID) {
		return
	}

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not delete event")
		return
	}

	lang := middlewares.LocaleFromContext(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"message": i18n.T(lang, "event_deleted"),
	})
}

// requireOwner writes the error response itself and reports whether the
// caller may proceed. Ownership is checked with a cheap creator lookup
// instead of loading the whole event.
func (h *EventsHandler) requireOwner(ctx *gin.Context, cctx context.Context, eventID, userID string) bool {
	owner, err := h.repo.GetOwner(cctx, eventID)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return false
		}
		RespondInternal(ctx, "Could not fetch event")
		return false
	}

	if owner != userID {
		RespondForbidden(ctx, "Only the event creator can modify this event")
		return false
	}

	return true
}

// SearchNearby is the legacy alias: radius comes in meters via
// maxDistance and results carry no distance annotation ordering
// guarantees beyond nearest first.
func (h *EventsHandler) SearchNearby(ctx *gin.Context) {
	point, ok := pointFromQuery(ctx)

	if !ok {
		return
	}

	maxDistance := float64(defaultMaxDistanceMeters)

	if raw := ctx.Query("maxDistance"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)

		if err != nil || v <= 0 {
			RespondBadRequest(ctx, "maxDistance must be a positive number of meters", nil)
			return
		}
		maxDistance = v
	}

	limit, offset, ok := pageFromQuery(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	events, err := h.repo.SearchByLocation(cctx, event.LocationSearch{
		Point:    point,
		RadiusKm: maxDistance / 1000,
		Limit:    limit,
		Offset:   offset,
	})

	if err != nil {
		RespondInternal(ctx, "Could not search events")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// FilterByCategory is the legacy alias that filters by category NAME
// rather than id.
func (h *EventsHandler) FilterByCategory(ctx *gin.Context) {
	name := ctx.Query("category")

	if name == "" {
		RespondBadRequest(ctx, "category is required", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	cat, err := h.categories.GetByName(cctx, name)

	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			RespondNotFound(ctx, "Category not found")
			return
		}
		RespondInternal(ctx, "Could not filter events")
		return
	}

	limit, offset, ok := pageFromQuery(ctx)

	if !ok {
		return
	}

	events, total, err := h.repo.List(cctx, event.ListFilter{
		CategoryID: &cat.ID,
		Limit:      limit,
		Offset:     offset,
	})

	if err != nil {
		RespondInternal(ctx, "Could not filter events")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"count":  total,
		"events": events,
		"limit":  limit,
		"offset": offset,
	})
}

// query helpers shared by list/search endpoints

func listFilterFromQuery(ctx *gin.Context) (event.ListFilter, bool) {
	var f event.ListFilter

	if raw := ctx.Query("category"); raw != "" {
		if _, err := uuid.Parse(raw); err != nil {
			RespondBadRequest(ctx, "category must be a valid id", nil)
			return f, false
		}
		f.CategoryID = &raw
	}

	from, ok := timeFromQuery(ctx, "startDate", "from")
	if !ok {
		return f, false
	}
	f.From = from

	to, ok := timeFromQuery(ctx, "endDate", "to")
	if !ok {
		return f, false
	}
	f.To = to

	if raw := ctx.Query("createdBy"); raw != "" {
		f.CreatedBy = &raw
	}

	limit, offset, ok := pageFromQuery(ctx)
	if !ok {
		return f, false
	}
	f.Limit = limit
	f.Offset = offset

	return f, true
}

func pointFromQuery(ctx *gin.Context) (geo.Point, bool) {
	latRaw := ctx.Query("latitude")
	lonRaw := ctx.Query("longitude")

	if latRaw == "" || lonRaw == "" {
		RespondBadRequest(ctx, "latitude and longitude are required", nil)
		return geo.Point{}, false
	}

	lat, err := strconv.ParseFloat(latRaw, 64)

	if err != nil {
		RespondBadRequest(ctx, "latitude must be a number", nil)
		return geo.Point{}, false
	}

	lon, err := strconv.ParseFloat(lonRaw, 64)

	if err != nil {
		RespondBadRequest(ctx, "longitude must be a number", nil)
		return geo.Point{}, false
	}

	p, err := geo.New(lon, lat)

	if err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return geo.Point{}, false
	}

	return p, true
}

// timeFromQuery reads the first of keys that is present. Date filters
// are documented as startDate/endDate; from/to stay accepted as
// aliases.
func timeFromQuery(ctx *gin.Context, keys ...string) (*time.Time, bool) {
	for _, key := range keys {
		raw := ctx.Query(key)

		if raw == "" {
			continue
		}

		t, err := time.Parse(time.RFC3339, raw)

		if err != nil {
			RespondBadRequest(ctx, key+" must be an RFC3339 timestamp", nil)
			return nil, false
		}

		return &t, true
	}

	return nil, true
}

func pageFromQuery(ctx *gin.Context) (int, int, bool) {
	limit := defaultPageSize

	if raw := ctx.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)

		if err != nil || v <= 0 {
			RespondBadRequest(ctx, "limit must be a positive integer", nil)
			return 0, 0, false
		}

		if v > maxPageSize {
			v = maxPageSize
		}
		limit = v
	}

	offset := 0

	if raw := ctx.Query("offset"); raw != "" {
		v, err := strconv.Atoi(raw)

		if err != nil || v < 0 {
			RespondBadRequest(ctx, "offset must be a non-negative integer", nil)
			return 0, 0, false
		}
		offset = v
	}

	return limit, offset, true
}
