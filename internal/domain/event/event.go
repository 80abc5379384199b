package event

import (
	"errors"
	"time"

	"eventlocator/internal/domain/category"
	"eventlocator/internal/domain/geo"
	"eventlocator/internal/domain/user"
)

var (
	ErrNotFound  = errors.New("event not found")
	ErrForbidden = errors.New("caller is not the event creator")
)

type Event struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	EventDate   time.Time           `json:"event_date"`
	EndDate     *time.Time          `json:"end_date,omitempty"`
	Location    geo.Point           `json:"location"`
	CreatedBy   string              `json:"created_by"`
	Creator     *user.Public        `json:"creator,omitempty"`
	Categories  []category.Category `json:"categories"`
	// Populated only by location searches; computed by the database.
	DistanceKm *float64  `json:"distance_km,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type CreateEventRequest struct {
	Title       string     `json:"title" binding:"required,min=1,max=200"`
	Description string     `json:"description" binding:"required,max=2000"`
	Latitude    *float64   `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude   *float64   `json:"longitude" binding:"required,min=-180,max=180"`
	EventDate   time.Time  `json:"event_date" binding:"required"`
	EndDate     *time.Time `json:"end_date" binding:"omitempty,gtefield=EventDate"`
	Categories  []string   `json:"categories" binding:"omitempty,dive,uuid"`
}

// UpdateEventRequest is a partial update. Absent (or empty-string) fields
// retain their previous values, so an empty string cannot be used to clear
// a field. Categories nil = keep, non-nil = replace wholesale.
type UpdateEventRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Latitude    *float64   `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude   *float64   `json:"longitude" binding:"omitempty,min=-180,max=180"`
	EventDate   *time.Time `json:"event_date"`
	EndDate     *time.Time `json:"end_date"`
	Categories  []string   `json:"categories" binding:"omitempty,dive,uuid"`
}

// with pointers if optional, it will be nil
type ListFilter struct {
	CategoryID *string
	From       *time.Time
	To         *time.Time
	CreatedBy  *string
	Limit      int
	Offset     int
}

type LocationSearch struct {
	Point       geo.Point
	RadiusKm    float64
	CategoryIDs []string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

type PreferenceSearch struct {
	Point       geo.Point
	RadiusKm    float64
	CategoryIDs []string
	Now         time.Time
	Limit       int
}
