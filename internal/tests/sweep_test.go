package tests

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
)

// ──────────────────────────────────────────────
// 7. EXPIRATION SWEEP
// ──────────────────────────────────────────────

func TestSweep_ExpiresOverdueTrips(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Amal")
	driver := env.SeedDriver("Saad")
	past := time.Now().Add(-time.Hour)

	requested := env.SeedTrip(customer.ID, past, 25, domain.TripStatusRequested, nil)
	accepted := env.SeedTrip(customer.ID, past, 25, domain.TripStatusAccepted, Int64(driver.ID))
	ongoing := env.SeedTrip(customer.ID, past, 25, domain.TripStatusOngoing, Int64(driver.ID))
	cancelled := env.SeedTrip(customer.ID, past, 25, domain.TripStatusCancelledByCustomer, nil)
	completed := env.SeedTrip(customer.ID, past, 25, domain.TripStatusCompleted, Int64(driver.ID))
	future := env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusRequested, nil)

	expired, err := env.Sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), expired)

	for _, trip := range []*domain.Trip{requested, accepted, ongoing, cancelled} {
		assert.Equal(t, domain.TripStatusExpired, env.Store.Trip(trip.ID).Status, "trip %d", trip.ID)
	}
	assert.Equal(t, domain.TripStatusCompleted, env.Store.Trip(completed.ID).Status)
	assert.Equal(t, domain.TripStatusRequested, env.Store.Trip(future.ID).Status)

	again, err := env.Sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestListRequestedTrips_SweepsFirst(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Nermeen")
	overdue := env.SeedTrip(customer.ID, time.Now().Add(-time.Minute), 25, domain.TripStatusRequested, nil)
	open := env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusRequested, nil)

	trips, err := env.Trips.ListRequestedTrips(context.Background())
	require.NoError(t, err)

	require.Len(t, trips, 1)
	assert.Equal(t, open.ID, trips[0].ID)
	assert.Equal(t, domain.TripStatusExpired, env.Store.Trip(overdue.ID).Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&env.Store.ExpireCount))
}

func TestListRequestedTrips_EmptyIsNotNil(t *testing.T) {
	t.Parallel()

	env := NewEnv()

	trips, err := env.Trips.ListRequestedTrips(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, trips)
	assert.Empty(t, trips)
}

func TestListRequestedTrips_SweepFailure(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	env.Store.ExpireError = ErrMockStorage

	_, err := env.Trips.ListRequestedTrips(context.Background())
	assert.ErrorIs(t, err, ErrMockStorage)
}

func TestListDriverActiveTrips_SweepsFirst(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Marwa")
	driver := env.SeedDriver("Hesham")
	env.SeedTrip(customer.ID, time.Now().Add(-time.Hour), 25, domain.TripStatusAccepted, Int64(driver.ID))
	upcoming := env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusAccepted, Int64(driver.ID))

	trips, err := env.Trips.ListDriverActiveTrips(context.Background(), driver.ID)
	require.NoError(t, err)

	require.Len(t, trips, 1)
	assert.Equal(t, upcoming.ID, trips[0].ID)
}

func TestSweeperRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Ahlam")
	overdue := env.SeedTrip(customer.ID, time.Now().Add(-time.Minute), 25, domain.TripStatusRequested, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.Sweeper.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return env.Store.Trip(overdue.ID).Status == domain.TripStatusExpired
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeperRun_LogsFailures(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	env.Store.ExpireError = ErrMockStorage

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.Sweeper.Run(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return hasLogMessage(env, "expiration sweep failed")
	}, time.Second, 10*time.Millisecond)
}
