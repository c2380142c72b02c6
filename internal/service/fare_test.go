package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeifHesham2/SwiftRide/internal/config"
	"github.com/SeifHesham2/SwiftRide/internal/geo"
)

type distanceFunc func(ctx context.Context, from, to string) (float64, error)

func (f distanceFunc) DistanceKm(ctx context.Context, from, to string) (float64, error) {
	return f(ctx, from, to)
}

func fixedDistance(km float64) DistanceProvider {
	return distanceFunc(func(context.Context, string, string) (float64, error) {
		return km, nil
	})
}

func testFareConfig() config.FareConfig {
	return config.FareConfig{
		BaseFare:           11.80,
		RatePerKm:          4.30,
		PremiumSurcharge:   25.00,
		ChildSeatSurcharge: 15.00,
		AverageSpeedKmh:    40,
		BufferMinutes:      10,
	}
}

func TestFareCalculator_FareForDistance(t *testing.T) {
	calc := NewFareCalculator(nil, testFareConfig())

	tests := []struct {
		name string
		km   float64
		opts FareOptions
		want float64
	}{
		{"standard", 10, FareOptions{}, 54.80},
		{"premium", 10, FareOptions{Premium: true}, 79.80},
		{"child seat", 10, FareOptions{ChildSeat: true}, 69.80},
		{"premium with child seat", 10, FareOptions{Premium: true, ChildSeat: true}, 94.80},
		{"zero distance", 0, FareOptions{}, 11.80},
		{"rounded to cents", 3.333, FareOptions{}, 26.13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calc.FareForDistance(tt.km, tt.opts), 1e-9)
		})
	}
}

func TestFareCalculator_ModifiersOrder(t *testing.T) {
	calc := NewFareCalculator(nil, testFareConfig())

	mods := calc.Modifiers(FareOptions{Premium: true, ChildSeat: true})
	require.Len(t, mods, 2)
	assert.Equal(t, 25.0, mods[0](0))
	assert.Equal(t, 15.0, mods[1](0))

	assert.Empty(t, calc.Modifiers(FareOptions{}))
}

func TestFareCalculator_MinutesForDistance(t *testing.T) {
	calc := NewFareCalculator(nil, testFareConfig())

	assert.Equal(t, 25, calc.MinutesForDistance(10))
	assert.Equal(t, 20, calc.MinutesForDistance(7))
	assert.Equal(t, 10, calc.MinutesForDistance(0))
}

func TestFareCalculator_Quote(t *testing.T) {
	calls := 0
	calc := NewFareCalculator(distanceFunc(func(_ context.Context, from, to string) (float64, error) {
		calls++
		assert.Equal(t, "A", from)
		assert.Equal(t, "B", to)
		return 10, nil
	}), testFareConfig())

	quote, err := calc.Quote(context.Background(), "A", "B", FareOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.InDelta(t, 10.0, quote.DistanceKm, 1e-9)
	assert.InDelta(t, 54.80, quote.Fare, 1e-9)
	assert.Equal(t, 25, quote.EstimatedMinutes)
}

func TestFareCalculator_QuoteErrors(t *testing.T) {
	calc := NewFareCalculator(distanceFunc(func(context.Context, string, string) (float64, error) {
		return 0, geo.ErrLocationNotFound
	}), testFareConfig())

	_, err := calc.Quote(context.Background(), "", "B", FareOptions{})
	assert.ErrorIs(t, err, ErrInvalidLocation)

	_, err = calc.Quote(context.Background(), "Nowhere", "B", FareOptions{})
	assert.ErrorIs(t, err, ErrLocationNotFound)

	_, err = calc.ComputeFare(context.Background(), "Nowhere", "B", FareOptions{})
	assert.ErrorIs(t, err, ErrLocationNotFound)

	_, err = calc.EstimateMinutes(context.Background(), "Nowhere", "B")
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestFareCalculator_ComputeAndEstimate(t *testing.T) {
	calc := NewFareCalculator(fixedDistance(20), testFareConfig())

	fare, err := calc.ComputeFare(context.Background(), "A", "B", FareOptions{Premium: true})
	require.NoError(t, err)
	assert.InDelta(t, 122.80, fare, 1e-9)

	minutes, err := calc.EstimateMinutes(context.Background(), "A", "B")
	require.NoError(t, err)
	assert.Equal(t, 40, minutes)
}
