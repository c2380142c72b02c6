package repository

import (
	"context"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
)

// CustomerRepository defines the persistence operations for customers.
type CustomerRepository interface {
	// Create adds a new customer and sets its ID and CreatedAt.
	Create(ctx context.Context, customer *domain.Customer) error

	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Customer, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// ComplaintRepository defines the persistence operations for complaints.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id int64) (*domain.Complaint, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ComplaintStatus) error
	ListByStatus(ctx context.Context, status domain.ComplaintStatus) ([]*domain.Complaint, error)
}
