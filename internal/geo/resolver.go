package geo

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Geocoder turns a place name into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (Point, error)
}

// Cache stores geocoded coordinates by place name.
type Cache interface {
	Lookup(ctx context.Context, name string) (lat, lng float64, found bool, err error)
	Store(ctx context.Context, name string, lat, lng float64) error
}

// RouteResolver measures the straight-line distance between two place names.
type RouteResolver struct {
	geocoder Geocoder
	cache    Cache
	logger   logrus.FieldLogger
}

// NewRouteResolver creates a RouteResolver. cache may be nil.
func NewRouteResolver(geocoder Geocoder, cache Cache, logger logrus.FieldLogger) *RouteResolver {
	return &RouteResolver{geocoder: geocoder, cache: cache, logger: logger}
}

// DistanceKm geocodes both names and returns the haversine distance.
func (r *RouteResolver) DistanceKm(ctx context.Context, from, to string) (float64, error) {
	a, err := r.Locate(ctx, from)
	if err != nil {
		return 0, err
	}
	b, err := r.Locate(ctx, to)
	if err != nil {
		return 0, err
	}
	return Haversine(a, b), nil
}

// Locate geocodes name, consulting the cache first. Cache failures are logged
// and fall through to the geocoder.
func (r *RouteResolver) Locate(ctx context.Context, name string) (Point, error) {
	if r.cache != nil {
		lat, lng, found, err := r.cache.Lookup(ctx, name)
		if err != nil {
			r.logger.WithError(err).WithField("place", name).Warn("geocode cache lookup failed")
		} else if found {
			return Point{Lat: lat, Lng: lng}, nil
		}
	}

	p, err := r.geocoder.Geocode(ctx, name)
	if err != nil {
		return Point{}, err
	}

	if r.cache != nil {
		if err := r.cache.Store(ctx, name, p.Lat, p.Lng); err != nil {
			r.logger.WithError(err).WithField("place", name).Warn("geocode cache store failed")
		}
	}

	return p, nil
}
