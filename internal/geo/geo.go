// Package geo resolves place names to coordinates and measures the distance
// between them.
package geo

import (
	"errors"
	"math"
)

// EarthRadiusKm is the mean radius used by Haversine.
const EarthRadiusKm = 6371.0

// ErrLocationNotFound is returned when a place name cannot be geocoded.
var ErrLocationNotFound = errors.New("location not found")

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
