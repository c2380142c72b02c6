package repository

import (
	"context"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver and sets its ID.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id int64) (*domain.Driver, error)

	// GetByIDForUpdate retrieves a driver and locks its row until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Driver, error)

	GetByEmail(ctx context.Context, email string) (*domain.Driver, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Driver, error)
	GetByLicenseNumber(ctx context.Context, licenseNumber string) (*domain.Driver, error)

	// Update writes rating, availability and booked-trip counter.
	Update(ctx context.Context, driver *domain.Driver) error
}

// CarRepository defines the persistence operations for cars.
type CarRepository interface {
	Create(ctx context.Context, car *domain.Car) error
	GetByID(ctx context.Context, id int64) (*domain.Car, error)
	GetByLicensePlate(ctx context.Context, plate string) (*domain.Car, error)

	// GetByDriverID retrieves the car assigned to a driver.
	GetByDriverID(ctx context.Context, driverID int64) (*domain.Car, error)

	// AssignDriver links a car to a driver.
	AssignDriver(ctx context.Context, carID, driverID int64) error
}
