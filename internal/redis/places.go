package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	placesKey          = "geo:places"
	placesFreshnessKey = "geo:places:fresh:"
)

// PlaceStore caches geocoded place names in a Redis GEO set. Each member has a
// companion key whose expiry marks the cached position as stale.
type PlaceStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPlaceStore creates a new PlaceStore.
func NewPlaceStore(client *redis.Client, ttl time.Duration) *PlaceStore {
	return &PlaceStore{client: client, ttl: ttl}
}

// Lookup returns the cached coordinates of name.
func (s *PlaceStore) Lookup(ctx context.Context, name string) (lat, lng float64, found bool, err error) {
	member := normalizePlace(name)

	fresh, err := s.client.Exists(ctx, placesFreshnessKey+member).Result()
	if err != nil {
		return 0, 0, false, err
	}
	if fresh == 0 {
		return 0, 0, false, nil
	}

	positions, err := s.client.GeoPos(ctx, placesKey, member).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, 0, false, nil
		}
		return 0, 0, false, err
	}
	if len(positions) == 0 || positions[0] == nil {
		return 0, 0, false, nil
	}

	return positions[0].Latitude, positions[0].Longitude, true, nil
}

// Store caches the coordinates of name.
func (s *PlaceStore) Store(ctx context.Context, name string, lat, lng float64) error {
	member := normalizePlace(name)

	pipe := s.client.TxPipeline()
	pipe.GeoAdd(ctx, placesKey, &redis.GeoLocation{
		Name:      member,
		Longitude: lng,
		Latitude:  lat,
	})
	pipe.Set(ctx, placesFreshnessKey+member, 1, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func normalizePlace(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
