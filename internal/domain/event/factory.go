package event

import (
	"time"

	"github.com/google/uuid"

	"eventlocator/internal/domain/geo"
)

func NewFromCreateRequest(req CreateEventRequest, creatorID string) Event {
	now := time.Now().UTC()

	return Event{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		EventDate:   req.EventDate,
		EndDate:     req.EndDate,
		Location:    geo.Point{Longitude: *req.Longitude, Latitude: *req.Latitude},
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
