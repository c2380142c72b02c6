package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/service"
)

// seedAssigned stores a trip already accepted by driver and counts it
// against the driver's capacity.
func seedAssigned(env *Env, customer *domain.Customer, driver *domain.Driver, tripDate time.Time, status domain.TripStatus) *domain.Trip {
	trip := env.SeedTrip(customer.ID, tripDate, 25, status, Int64(driver.ID))
	stored := env.Store.Driver(driver.ID)
	stored.CurrentBookedTrips++
	stored.Available = stored.CurrentBookedTrips < env.Config.Dispatch.MaxBookedTrips
	env.Store.AddDriver(stored)
	return trip
}

// ──────────────────────────────────────────────
// 4. START
// ──────────────────────────────────────────────

func TestStartTrip_InsideWindow(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Lina")
	driver := env.SeedDriver("Karim")
	trip := seedAssigned(env, customer, driver, time.Now().Add(5*time.Minute), domain.TripStatusAccepted)

	started, err := env.Trips.StartTrip(context.Background(), trip.ID, driver.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TripStatusOngoing, started.Status)
	assert.Equal(t, domain.TripStatusOngoing, env.Store.Trip(trip.ID).Status)
	assert.Len(t, env.Sender.MessagesTo(customer.Email), 1)
}

func TestStartTrip_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		tripDate  time.Duration
		status    domain.TripStatus
		otherUser bool
		wantErr   error
	}{
		{
			name:     "too early",
			tripDate: time.Hour,
			status:   domain.TripStatusAccepted,
			wantErr:  service.ErrStartOutsideWindow,
		},
		{
			name:     "too late",
			tripDate: -20 * time.Minute,
			status:   domain.TripStatusAccepted,
			wantErr:  service.ErrStartOutsideWindow,
		},
		{
			name:     "already ongoing",
			tripDate: time.Minute,
			status:   domain.TripStatusOngoing,
			wantErr:  service.ErrInvalidTransition,
		},
		{
			name:      "driver not assigned",
			tripDate:  time.Minute,
			status:    domain.TripStatusAccepted,
			otherUser: true,
			wantErr:   service.ErrDriverNotAssignedToTrip,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := NewEnv()
			customer := env.SeedCustomer("Sara")
			driver := env.SeedDriver("Omar")
			trip := seedAssigned(env, customer, driver, time.Now().Add(tt.tripDate), tt.status)

			actor := driver.ID
			if tt.otherUser {
				actor = env.SeedDriver("Other").ID
			}

			_, err := env.Trips.StartTrip(context.Background(), trip.ID, actor)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.status, env.Store.Trip(trip.ID).Status)
		})
	}
}

// ──────────────────────────────────────────────
// 5. END
// ──────────────────────────────────────────────

func TestEndTrip_CompletesAndSettlesPayment(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Hana")
	driver := env.SeedDriver("Youssef")
	trip := seedAssigned(env, customer, driver, time.Now().Add(-5*time.Minute), domain.TripStatusOngoing)

	resp, err := env.Trips.EndTrip(context.Background(), trip.ID, driver.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TripStatusCompleted, resp.Trip.Status)
	assert.Equal(t, domain.PaymentStatusPaid, resp.Payment.Status)
	require.NotNil(t, resp.Receipt)
	assert.InDelta(t, 54.80, resp.Receipt.TotalFare, 0.001)
	assert.Equal(t, driver.ID, resp.Receipt.DriverID)
	assert.Equal(t, domain.PaymentMethodCash, resp.Receipt.PaymentMethod)

	storedDriver := env.Store.Driver(driver.ID)
	assert.Equal(t, 0, storedDriver.CurrentBookedTrips)
	assert.True(t, storedDriver.Available)

	payments := env.Store.PaymentsOf(trip.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentStatusPaid, payments[0].Status)

	messages := env.Sender.MessagesTo(customer.Email)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Body, "TRIP RECEIPT")
}

func TestEndTrip_FullDriverBecomesAvailable(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Nada")
	driver := env.SeedDriver("Ziad")
	ongoing := seedAssigned(env, customer, driver, time.Now().Add(-5*time.Minute), domain.TripStatusOngoing)
	seedAssigned(env, customer, driver, tomorrowAt(9, 0), domain.TripStatusAccepted)
	seedAssigned(env, customer, driver, tomorrowAt(15, 0), domain.TripStatusAccepted)
	require.False(t, env.Store.Driver(driver.ID).Available)

	_, err := env.Trips.EndTrip(context.Background(), ongoing.ID, driver.ID)
	require.NoError(t, err)

	storedDriver := env.Store.Driver(driver.ID)
	assert.Equal(t, 2, storedDriver.CurrentBookedTrips)
	assert.True(t, storedDriver.Available)
}

func TestEndTrip_MissingPaymentRollsBack(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Mona")
	driver := env.SeedDriver("Sherif")
	stored := env.Store.Driver(driver.ID)
	stored.CurrentBookedTrips = 1
	env.Store.AddDriver(stored)

	fare := 54.80
	trip := env.Store.AddTrip(&domain.Trip{
		PickupLocation:   "Dokki",
		Destination:      "Zamalek",
		TripDate:         time.Now().Add(-5 * time.Minute),
		Status:           domain.TripStatusOngoing,
		Fare:             &fare,
		EstimatedMinutes: 25,
		CustomerID:       customer.ID,
		DriverID:         Int64(driver.ID),
	})

	_, err := env.Trips.EndTrip(context.Background(), trip.ID, driver.ID)
	assert.ErrorIs(t, err, service.ErrPaymentNotFound)

	assert.Equal(t, domain.TripStatusOngoing, env.Store.Trip(trip.ID).Status)
	assert.Equal(t, 1, env.Store.Driver(driver.ID).CurrentBookedTrips)
	assert.Equal(t, int32(1), env.Store.RollbackCount)
	assert.Empty(t, env.Sender.Messages())
}

func TestEndTrip_Rejections(t *testing.T) {
	t.Parallel()

	t.Run("not started", func(t *testing.T) {
		t.Parallel()
		env := NewEnv()
		customer := env.SeedCustomer("Ghada")
		driver := env.SeedDriver("Wael")
		trip := seedAssigned(env, customer, driver, time.Now().Add(time.Minute), domain.TripStatusAccepted)

		_, err := env.Trips.EndTrip(context.Background(), trip.ID, driver.ID)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
		assert.Equal(t, 1, env.Store.Driver(driver.ID).CurrentBookedTrips)
	})

	t.Run("another driver", func(t *testing.T) {
		t.Parallel()
		env := NewEnv()
		customer := env.SeedCustomer("Abeer")
		driver := env.SeedDriver("Hany")
		other := env.SeedDriver("Amr")
		trip := seedAssigned(env, customer, driver, time.Now().Add(-time.Minute), domain.TripStatusOngoing)

		_, err := env.Trips.EndTrip(context.Background(), trip.ID, other.ID)
		assert.ErrorIs(t, err, service.ErrDriverNotAssignedToTrip)
	})

	t.Run("unknown trip", func(t *testing.T) {
		t.Parallel()
		env := NewEnv()
		driver := env.SeedDriver("Ramy")

		_, err := env.Trips.EndTrip(context.Background(), 404, driver.ID)
		assert.ErrorIs(t, err, service.ErrTripNotFound)
	})
}

// ──────────────────────────────────────────────
// 6. CANCELLATION
// ──────────────────────────────────────────────

func TestCancelTripByCustomer_FreesDriverAndCancelsPayment(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Laila")
	driver := env.SeedDriver("Mostafa")
	trip := seedAssigned(env, customer, driver, tomorrowAt(9, 0), domain.TripStatusAccepted)

	cancelled, err := env.Trips.CancelTripByCustomer(context.Background(), trip.ID, customer.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TripStatusCancelledByCustomer, cancelled.Status)
	assert.True(t, cancelled.HasDriver(driver.ID))

	storedDriver := env.Store.Driver(driver.ID)
	assert.Equal(t, 0, storedDriver.CurrentBookedTrips)
	assert.True(t, storedDriver.Available)

	payments := env.Store.PaymentsOf(trip.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentStatusCancelled, payments[0].Status)

	assert.Len(t, env.Sender.MessagesTo(driver.Email), 1)
}

func TestCancelTripByCustomer_RequestedTrip(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Jana")
	trip := env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusRequested, nil)

	cancelled, err := env.Trips.CancelTripByCustomer(context.Background(), trip.ID, customer.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TripStatusCancelledByCustomer, cancelled.Status)
	assert.Nil(t, cancelled.DriverID)
	assert.Equal(t, []string{fmt.Sprintf("trip:%d", trip.ID)}, env.Locker.AcquiredKeys())
	assert.Empty(t, env.Sender.Messages())
}

func TestCancelTripByCustomer_Rejections(t *testing.T) {
	t.Parallel()

	t.Run("not the owner", func(t *testing.T) {
		t.Parallel()
		env := NewEnv()
		owner := env.SeedCustomer("Owner")
		intruder := env.SeedCustomer("Intruder")
		trip := env.SeedTrip(owner.ID, tomorrowAt(9, 0), 25, domain.TripStatusRequested, nil)

		_, err := env.Trips.CancelTripByCustomer(context.Background(), trip.ID, intruder.ID)
		assert.ErrorIs(t, err, service.ErrTripNotOwnedByCustomer)
		assert.Equal(t, domain.TripStatusRequested, env.Store.Trip(trip.ID).Status)
	})

	t.Run("completed trip", func(t *testing.T) {
		t.Parallel()
		env := NewEnv()
		customer := env.SeedCustomer("Done")
		trip := env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusCompleted, nil)

		_, err := env.Trips.CancelTripByCustomer(context.Background(), trip.ID, customer.ID)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("payment already settled rolls back", func(t *testing.T) {
		t.Parallel()
		env := NewEnv()
		customer := env.SeedCustomer("Settled")
		driver := env.SeedDriver("Settler")
		trip := seedAssigned(env, customer, driver, tomorrowAt(9, 0), domain.TripStatusAccepted)
		for _, p := range env.Store.PaymentsOf(trip.ID) {
			p.Status = domain.PaymentStatusPaid
			env.Store.AddPayment(p)
		}

		_, err := env.Trips.CancelTripByCustomer(context.Background(), trip.ID, customer.ID)
		assert.ErrorIs(t, err, service.ErrPaymentNotFound)
		assert.Equal(t, domain.TripStatusAccepted, env.Store.Trip(trip.ID).Status)
		assert.Equal(t, 1, env.Store.Driver(driver.ID).CurrentBookedTrips)
	})
}

func TestCancelTripByDriver_RequeuesTrip(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Rania")
	driver := env.SeedDriver("Bassem")
	trip := env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusRequested, nil)
	for day := 1; day <= 2; day++ {
		other := env.SeedTrip(customer.ID, tomorrowAt(9, 0).AddDate(0, 0, day), 25, domain.TripStatusRequested, nil)
		_, err := env.Trips.AcceptTrip(context.Background(), other.ID, driver.ID)
		require.NoError(t, err)
	}
	_, err := env.Trips.AcceptTrip(context.Background(), trip.ID, driver.ID)
	require.NoError(t, err)
	require.False(t, env.Store.Driver(driver.ID).Available)

	requeued, err := env.Trips.CancelTripByDriver(context.Background(), trip.ID, driver.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TripStatusRequested, requeued.Status)
	assert.Nil(t, requeued.DriverID)

	storedDriver := env.Store.Driver(driver.ID)
	assert.Equal(t, 2, storedDriver.CurrentBookedTrips)
	assert.True(t, storedDriver.Available)

	payments := env.Store.PaymentsOf(trip.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentStatusPending, payments[0].Status)

	// Another driver can pick it up again.
	second := env.SeedDriver("Nabil")
	_, err = env.Trips.AcceptTrip(context.Background(), trip.ID, second.ID)
	assert.NoError(t, err)
}

func TestCancelTripByDriver_Rejections(t *testing.T) {
	t.Parallel()

	t.Run("driver not assigned", func(t *testing.T) {
		t.Parallel()
		env := NewEnv()
		customer := env.SeedCustomer("Eman")
		driver := env.SeedDriver("Kamal")
		other := env.SeedDriver("Galal")
		trip := seedAssigned(env, customer, driver, tomorrowAt(9, 0), domain.TripStatusAccepted)

		_, err := env.Trips.CancelTripByDriver(context.Background(), trip.ID, other.ID)
		assert.ErrorIs(t, err, service.ErrDriverNotAssignedToTrip)
		assert.True(t, env.Store.Trip(trip.ID).HasDriver(driver.ID))
	})

	t.Run("requested trip", func(t *testing.T) {
		t.Parallel()
		env := NewEnv()
		customer := env.SeedCustomer("Heba")
		driver := env.SeedDriver("Tarek")
		trip := env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusRequested, nil)

		_, err := env.Trips.CancelTripByDriver(context.Background(), trip.ID, driver.ID)
		assert.ErrorIs(t, err, service.ErrDriverNotAssignedToTrip)
	})

	t.Run("completed trip", func(t *testing.T) {
		t.Parallel()
		env := NewEnv()
		customer := env.SeedCustomer("Shahd")
		driver := env.SeedDriver("Adham")
		trip := env.SeedTrip(customer.ID, time.Now().Add(-time.Hour), 25, domain.TripStatusCompleted, Int64(driver.ID))

		_, err := env.Trips.CancelTripByDriver(context.Background(), trip.ID, driver.ID)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})
}
