package repository

import (
	"context"
	"time"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip and sets its ID and CreatedAt.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)

	// GetByIDForUpdate retrieves a trip and locks its row until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// ListByStatus retrieves all trips in the given status.
	ListByStatus(ctx context.Context, status domain.TripStatus) ([]*domain.Trip, error)

	// ListByDriverAndStatuses retrieves a driver's trips whose status is one of statuses.
	ListByDriverAndStatuses(ctx context.Context, driverID int64, statuses []domain.TripStatus) ([]*domain.Trip, error)

	// ListByCustomer retrieves all trips booked by a customer.
	ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Trip, error)

	// ListByCustomerAndStatuses retrieves a customer's trips whose status is one of statuses.
	ListByCustomerAndStatuses(ctx context.Context, customerID int64, statuses []domain.TripStatus) ([]*domain.Trip, error)

	// ExpireOverdue sets EXPIRED on every trip scheduled before now whose status is
	// neither COMPLETED nor EXPIRED, and returns the number of trips changed.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}
