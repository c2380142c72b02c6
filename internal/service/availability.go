package service

import (
	"fmt"
	"time"

	"github.com/SeifHesham2/SwiftRide/internal/config"
	"github.com/SeifHesham2/SwiftRide/internal/domain"
)

// AvailabilityTracker decides whether a driver may take a trip and keeps the
// driver's booked-trip counter and availability flag in step.
type AvailabilityTracker struct {
	minGapMinutes  int64
	maxBookedTrips int
}

// NewAvailabilityTracker creates a new AvailabilityTracker.
func NewAvailabilityTracker(cfg config.DispatchConfig) *AvailabilityTracker {
	return &AvailabilityTracker{
		minGapMinutes:  int64(cfg.MinGap / time.Minute),
		maxBookedTrips: cfg.MaxBookedTrips,
	}
}

// CanAccept checks candidate against the driver's capacity and active trips.
// It does not mutate its arguments.
func (a *AvailabilityTracker) CanAccept(driver *domain.Driver, candidate *domain.Trip, active []*domain.Trip) error {
	if driver.CurrentBookedTrips >= a.maxBookedTrips {
		return ErrDriverAtCapacity
	}
	if !driver.Available {
		return ErrDriverNotAvailable
	}

	if candidate.Status != domain.TripStatusRequested {
		return ErrTripNotRequested
	}

	newStart, newEnd := candidate.TripDate, candidate.EndsAt()

	for _, existing := range active {
		if existing.ID == candidate.ID {
			continue
		}

		exStart, exEnd := existing.TripDate, existing.EndsAt()

		overlap := !(newEnd.Before(exStart) || newStart.After(exEnd))
		if overlap {
			return fmt.Errorf("%w: trip %d", ErrTripOverlap, existing.ID)
		}

		gapBefore := minutesBetween(exEnd, newStart)
		gapAfter := minutesBetween(newEnd, exStart)
		if (gapBefore >= 0 && gapBefore < a.minGapMinutes) || (gapAfter >= 0 && gapAfter < a.minGapMinutes) {
			return fmt.Errorf("%w: trip %d", ErrInsufficientGap, existing.ID)
		}
	}

	return nil
}

// Book assigns the driver to the trip and counts it against the driver's capacity.
func (a *AvailabilityTracker) Book(driver *domain.Driver, trip *domain.Trip) {
	driver.CurrentBookedTrips++
	if driver.CurrentBookedTrips >= a.maxBookedTrips {
		driver.Available = false
	}

	driverID := driver.ID
	trip.DriverID = &driverID
	trip.Status = domain.TripStatusAccepted
}

// Release frees one booked slot of the driver.
func (a *AvailabilityTracker) Release(driver *domain.Driver) {
	if driver.CurrentBookedTrips > 0 {
		driver.CurrentBookedTrips--
	}
	driver.Available = true
}

// minutesBetween returns whole minutes from a to b, truncated toward zero.
func minutesBetween(a, b time.Time) int64 {
	return int64(b.Sub(a) / time.Minute)
}
