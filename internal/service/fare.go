package service

import (
	"context"
	"math"

	"github.com/SeifHesham2/SwiftRide/internal/config"
)

// DistanceProvider measures the distance between two place names in kilometers.
type DistanceProvider interface {
	DistanceKm(ctx context.Context, from, to string) (float64, error)
}

// FareModifier adjusts an accumulated fare.
type FareModifier func(amount float64) float64

// Surcharge returns a modifier adding a fixed amount.
func Surcharge(amount float64) FareModifier {
	return func(fare float64) float64 {
		return fare + amount
	}
}

// FareOptions are the optional trip features that change the price.
type FareOptions struct {
	Premium   bool
	ChildSeat bool
}

// FareQuote is the price and duration estimate of a route.
type FareQuote struct {
	DistanceKm       float64
	Fare             float64
	EstimatedMinutes int
}

// FareCalculator prices trips: base fare plus a per-kilometer rate, followed by
// the modifiers of the selected options.
type FareCalculator struct {
	distance DistanceProvider
	cfg      config.FareConfig
}

// NewFareCalculator creates a new FareCalculator.
func NewFareCalculator(distance DistanceProvider, cfg config.FareConfig) *FareCalculator {
	return &FareCalculator{distance: distance, cfg: cfg}
}

// Modifiers returns the modifiers for opts in application order: premium
// first, then child seat.
func (c *FareCalculator) Modifiers(opts FareOptions) []FareModifier {
	var mods []FareModifier
	if opts.Premium {
		mods = append(mods, Surcharge(c.cfg.PremiumSurcharge))
	}
	if opts.ChildSeat {
		mods = append(mods, Surcharge(c.cfg.ChildSeatSurcharge))
	}
	return mods
}

// FareForDistance prices a route of km kilometers, rounded to cents.
func (c *FareCalculator) FareForDistance(km float64, opts FareOptions) float64 {
	amount := c.cfg.BaseFare + km*c.cfg.RatePerKm
	for _, modify := range c.Modifiers(opts) {
		amount = modify(amount)
	}
	return math.Round(amount*100) / 100
}

// MinutesForDistance estimates the duration of a route of km kilometers,
// truncated to whole minutes, plus the fixed buffer.
func (c *FareCalculator) MinutesForDistance(km float64) int {
	return int(km/c.cfg.AverageSpeedKmh*60) + c.cfg.BufferMinutes
}

// ComputeFare prices the trip from pickup to destination.
func (c *FareCalculator) ComputeFare(ctx context.Context, pickup, destination string, opts FareOptions) (float64, error) {
	km, err := c.distance.DistanceKm(ctx, pickup, destination)
	if err != nil {
		return 0, err
	}
	return c.FareForDistance(km, opts), nil
}

// EstimateMinutes estimates the duration of the trip from pickup to destination.
func (c *FareCalculator) EstimateMinutes(ctx context.Context, pickup, destination string) (int, error) {
	km, err := c.distance.DistanceKm(ctx, pickup, destination)
	if err != nil {
		return 0, err
	}
	return c.MinutesForDistance(km), nil
}

// Quote prices and estimates a trip with a single distance lookup.
func (c *FareCalculator) Quote(ctx context.Context, pickup, destination string, opts FareOptions) (*FareQuote, error) {
	if pickup == "" || destination == "" {
		return nil, ErrInvalidLocation
	}

	km, err := c.distance.DistanceKm(ctx, pickup, destination)
	if err != nil {
		return nil, err
	}

	return &FareQuote{
		DistanceKm:       math.Round(km*100) / 100,
		Fare:             c.FareForDistance(km, opts),
		EstimatedMinutes: c.MinutesForDistance(km),
	}, nil
}
