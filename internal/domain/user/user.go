package user

import (
	"errors"
	"time"

	"eventlocator/internal/domain/category"
	"eventlocator/internal/domain/geo"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
	ErrNoLocation = errors.New("user has no stored location")
)

const DefaultRadiusKm = 10.0

type User struct {
	ID                  string              `json:"id"`
	Email               string              `json:"email"`
	PasswordHash        string              `json:"-"` // never expose hash in JSON
	FirstName           string              `json:"first_name"`
	LastName            string              `json:"last_name"`
	Location            *geo.Point          `json:"location,omitempty"`
	PreferredLanguage   string              `json:"preferred_language"`
	DefaultRadiusKm     float64             `json:"default_radius"`
	PreferredCategories []category.Category `json:"preferredCategories,omitempty"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// Public is the projection embedded in event responses. Never carries
// the password hash or preference data.
type Public struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (u User) Public() Public {
	return Public{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

type CreateRequest struct {
	Email             string
	PasswordHash      string
	FirstName         string
	LastName          string
	Location          *geo.Point
	PreferredLanguage string
}

// UpdateProfileRequest is a partial update: nil fields retain prior values.
// A location replaces the stored point atomically when both coordinates
// are supplied.
type UpdateProfileRequest struct {
	FirstName           *string
	LastName            *string
	Location            *geo.Point
	PreferredLanguage   *string
	DefaultRadiusKm     *float64
	PreferredCategories []string // nil = keep, non-nil = replace wholesale
}
