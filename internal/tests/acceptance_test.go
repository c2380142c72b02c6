package tests

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/service"
)

// ──────────────────────────────────────────────
// 2. DRIVER ACCEPTANCE
// ──────────────────────────────────────────────

// tomorrowAt returns a time on a future day, at hour:minute local time.
func tomorrowAt(hour, minute int) time.Time {
	d := time.Now().AddDate(0, 0, 2)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.Local)
}

func TestAcceptTrip_AssignsDriverAndCountsBooking(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Nour")
	driver := env.SeedDriver("Adel")
	trip := env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusRequested, nil)

	accepted, err := env.Trips.AcceptTrip(context.Background(), trip.ID, driver.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TripStatusAccepted, accepted.Status)
	assert.True(t, accepted.HasDriver(driver.ID))

	storedDriver := env.Store.Driver(driver.ID)
	assert.Equal(t, 1, storedDriver.CurrentBookedTrips)
	assert.True(t, storedDriver.Available)

	assert.Equal(t, []string{
		fmt.Sprintf("driver:%d", driver.ID),
		fmt.Sprintf("trip:%d", trip.ID),
	}, env.Locker.AcquiredKeys())

	messages := env.Sender.MessagesTo(customer.Email)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Body, "PLATE-ADEL")
}

func TestAcceptTrip_InsufficientGapBetweenTrips(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Yara")
	driver := env.SeedDriver("Tamer")
	driverID := Int64(driver.ID)

	env.SeedTrip(customer.ID, tomorrowAt(10, 0), 30, domain.TripStatusAccepted, driverID)
	env.SeedTrip(customer.ID, tomorrowAt(11, 0), 30, domain.TripStatusAccepted, driverID)
	env.Store.AddDriver(&domain.Driver{
		ID:                 driver.ID,
		FirstName:          driver.FirstName,
		Email:              driver.Email,
		Phone:              driver.Phone,
		LicenseNumber:      driver.LicenseNumber,
		Available:          true,
		CurrentBookedTrips: 2,
	})

	candidate := env.SeedTrip(customer.ID, tomorrowAt(10, 35), 20, domain.TripStatusRequested, nil)

	_, err := env.Trips.AcceptTrip(context.Background(), candidate.ID, driver.ID)
	assert.ErrorIs(t, err, service.ErrInsufficientGap)

	assert.Equal(t, domain.TripStatusRequested, env.Store.Trip(candidate.ID).Status)
	assert.Equal(t, 2, env.Store.Driver(driver.ID).CurrentBookedTrips)
}

func TestAcceptTrip_Overlap(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Rana")
	driver := env.SeedDriver("Samir")

	env.SeedTrip(customer.ID, tomorrowAt(10, 0), 30, domain.TripStatusAccepted, Int64(driver.ID))
	candidate := env.SeedTrip(customer.ID, tomorrowAt(10, 15), 20, domain.TripStatusRequested, nil)

	_, err := env.Trips.AcceptTrip(context.Background(), candidate.ID, driver.ID)
	assert.ErrorIs(t, err, service.ErrTripOverlap)
}

func TestAcceptTrip_ExactMinimumGapIsAllowed(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Dina")
	driver := env.SeedDriver("Fady")

	env.SeedTrip(customer.ID, tomorrowAt(10, 0), 30, domain.TripStatusAccepted, Int64(driver.ID))
	candidate := env.SeedTrip(customer.ID, tomorrowAt(11, 0), 20, domain.TripStatusRequested, nil)

	_, err := env.Trips.AcceptTrip(context.Background(), candidate.ID, driver.ID)
	assert.NoError(t, err)
}

func TestAcceptTrip_CapacityIsEnforced(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Hala")
	driver := env.SeedDriver("Magdy")

	for day := 0; day < 3; day++ {
		trip := env.SeedTrip(customer.ID, tomorrowAt(9, 0).AddDate(0, 0, day), 25, domain.TripStatusRequested, nil)
		_, err := env.Trips.AcceptTrip(context.Background(), trip.ID, driver.ID)
		require.NoError(t, err)
	}

	storedDriver := env.Store.Driver(driver.ID)
	assert.Equal(t, 3, storedDriver.CurrentBookedTrips)
	assert.False(t, storedDriver.Available)

	fourth := env.SeedTrip(customer.ID, tomorrowAt(9, 0).AddDate(0, 0, 5), 25, domain.TripStatusRequested, nil)
	_, err := env.Trips.AcceptTrip(context.Background(), fourth.ID, driver.ID)
	assert.ErrorIs(t, err, service.ErrDriverAtCapacity)
	assert.Equal(t, 3, env.Store.Driver(driver.ID).CurrentBookedTrips)
}

func TestAcceptTrip_Rejections(t *testing.T) {
	t.Parallel()

	t.Run("driver without car", func(t *testing.T) {
		t.Parallel()
		env := NewEnv()
		customer := env.SeedCustomer("Aya")
		driver := env.Store.AddDriver(&domain.Driver{FirstName: "NoCar", Email: "nocar@example.com", Available: true})
		trip := env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusRequested, nil)

		_, err := env.Trips.AcceptTrip(context.Background(), trip.ID, driver.ID)
		assert.ErrorIs(t, err, service.ErrCarNotFound)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Parallel()
		env := NewEnv()
		customer := env.SeedCustomer("Mai")
		trip := env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusRequested, nil)

		_, err := env.Trips.AcceptTrip(context.Background(), trip.ID, 9999)
		assert.ErrorIs(t, err, service.ErrDriverNotFound)
	})

	t.Run("unknown trip", func(t *testing.T) {
		t.Parallel()
		env := NewEnv()
		driver := env.SeedDriver("Ola")

		_, err := env.Trips.AcceptTrip(context.Background(), 9999, driver.ID)
		assert.ErrorIs(t, err, service.ErrTripNotFound)
	})

	t.Run("trip already accepted", func(t *testing.T) {
		t.Parallel()
		env := NewEnv()
		customer := env.SeedCustomer("Reem")
		first := env.SeedDriver("First")
		second := env.SeedDriver("Second")
		trip := env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusRequested, nil)

		_, err := env.Trips.AcceptTrip(context.Background(), trip.ID, first.ID)
		require.NoError(t, err)

		_, err = env.Trips.AcceptTrip(context.Background(), trip.ID, second.ID)
		assert.ErrorIs(t, err, service.ErrTripNotRequested)
		assert.Equal(t, 0, env.Store.Driver(second.ID).CurrentBookedTrips)
	})

	t.Run("lock held elsewhere", func(t *testing.T) {
		t.Parallel()
		env := NewEnv()
		env.Locker.wait = 20 * time.Millisecond
		customer := env.SeedCustomer("Salma")
		driver := env.SeedDriver("Busy")
		trip := env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusRequested, nil)

		release := env.Locker.Hold(fmt.Sprintf("trip:%d", trip.ID))
		defer release()

		_, err := env.Trips.AcceptTrip(context.Background(), trip.ID, driver.ID)
		assert.ErrorIs(t, err, service.ErrConcurrentUpdate)
		assert.Equal(t, domain.TripStatusRequested, env.Store.Trip(trip.ID).Status)
	})
}

// ──────────────────────────────────────────────
// 3. CONCURRENT ACCEPTANCE
// ──────────────────────────────────────────────

func TestAcceptTrip_ConcurrentAcceptsNeverExceedCapacity(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Farida")
	driver := env.SeedDriver("Hossam")

	const attempts = 6
	tripIDs := make([]int64, attempts)
	for i := range tripIDs {
		tripIDs[i] = env.SeedTrip(customer.ID, tomorrowAt(9, 0).AddDate(0, 0, i), 25, domain.TripStatusRequested, nil).ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for _, id := range tripIDs {
		wg.Add(1)
		go func(tripID int64) {
			defer wg.Done()
			_, err := env.Trips.AcceptTrip(context.Background(), tripID, driver.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			failures = append(failures, err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	for _, err := range failures {
		assert.ErrorIs(t, err, service.ErrDriverAtCapacity)
	}

	storedDriver := env.Store.Driver(driver.ID)
	assert.Equal(t, 3, storedDriver.CurrentBookedTrips)
	assert.False(t, storedDriver.Available)
}

func TestAcceptTrip_ConcurrentDriversOnlyOneWins(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Malak")
	trip := env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusRequested, nil)

	drivers := make([]*domain.Driver, 5)
	for i := range drivers {
		drivers[i] = env.SeedDriver(fmt.Sprintf("Racer%d", i))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []int64
	)
	for _, d := range drivers {
		wg.Add(1)
		go func(driverID int64) {
			defer wg.Done()
			_, err := env.Trips.AcceptTrip(context.Background(), trip.ID, driverID)
			if err != nil {
				assert.ErrorIs(t, err, service.ErrTripNotRequested)
				return
			}
			mu.Lock()
			winners = append(winners, driverID)
			mu.Unlock()
		}(d.ID)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	stored := env.Store.Trip(trip.ID)
	assert.True(t, stored.HasDriver(winners[0]))

	booked := 0
	for _, d := range drivers {
		booked += env.Store.Driver(d.ID).CurrentBookedTrips
	}
	assert.Equal(t, 1, booked)
}
