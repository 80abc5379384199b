package geo

import "fmt"

// Point is a (longitude, latitude) pair used for proximity queries.
// Serialized as GeoJSON-style coordinates so clients see [lon, lat].
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

func New(lon, lat float64) (Point, error) {
	if lon < -180 || lon > 180 {
		return Point{}, fmt.Errorf("longitude out of range: %v", lon)
	}

	if lat < -90 || lat > 90 {
		return Point{}, fmt.Errorf("latitude out of range: %v", lat)
	}

	return Point{Longitude: lon, Latitude: lat}, nil
}
