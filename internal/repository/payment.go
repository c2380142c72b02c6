package repository

import (
	"context"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment and sets its ID and CreatedAt.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByTripID retrieves the most recent payment of a trip.
	GetByTripID(ctx context.Context, tripID int64) (*domain.Payment, error)

	// GetPendingByTripID retrieves the PENDING payment of a trip.
	GetPendingByTripID(ctx context.Context, tripID int64) (*domain.Payment, error)

	// UpdateStatus updates the status of a payment.
	UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus) error
}
