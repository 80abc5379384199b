package category

import "errors"

var ErrNotFound = errors.New("category not found")

// Category is reference data tagged onto events and user preferences.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
