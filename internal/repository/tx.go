package repository

import "context"

// Repositories groups the repositories that take part in one unit of work.
type Repositories struct {
	Trips      TripRepository
	Drivers    DriverRepository
	Customers  CustomerRepository
	Cars       CarRepository
	Payments   PaymentRepository
	Complaints ComplaintRepository
}

// Transactor runs fn against transaction-scoped repositories. The transaction
// commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
