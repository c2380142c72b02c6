package postgres

import (
	"context"
	"database/sql"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/repository"
)

const driverColumns = `id, first_name, last_name, email, phone, password_hash, license_number,
		COALESCE(image_url, ''), rating, available, current_booked_trips, created_at`

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (first_name, last_name, email, phone, password_hash, license_number,
			image_url, rating, available, current_booked_trips)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := r.q.QueryRowContext(ctx, query,
		driver.FirstName,
		driver.LastName,
		driver.Email,
		driver.Phone,
		driver.PasswordHash,
		driver.LicenseNumber,
		driver.ImageURL,
		driver.Rating,
		driver.Available,
		driver.CurrentBookedTrips,
	).Scan(&driver.ID, &driver.CreatedAt)

	return translateError(err)
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id int64) (*domain.Driver, error) {
	return r.getOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a driver and locks the row.
func (r *DriverRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Driver, error) {
	return r.getOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1 FOR UPDATE`, id)
}

// GetByEmail retrieves a driver by email.
func (r *DriverRepository) GetByEmail(ctx context.Context, email string) (*domain.Driver, error) {
	return r.getOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE email = $1`, email)
}

// GetByPhone retrieves a driver by phone number.
func (r *DriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	return r.getOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE phone = $1`, phone)
}

// GetByLicenseNumber retrieves a driver by driving license number.
func (r *DriverRepository) GetByLicenseNumber(ctx context.Context, licenseNumber string) (*domain.Driver, error) {
	return r.getOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE license_number = $1`, licenseNumber)
}

// Update writes the mutable dispatch fields of a driver.
func (r *DriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	query := `
		UPDATE drivers
		SET rating = $1, available = $2, current_booked_trips = $3, image_url = $4
		WHERE id = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		driver.Rating,
		driver.Available,
		driver.CurrentBookedTrips,
		driver.ImageURL,
		driver.ID,
	)
	if err != nil {
		return translateError(err)
	}

	return checkAffected(result)
}

func (r *DriverRepository) getOne(ctx context.Context, query string, arg any) (*domain.Driver, error) {
	var driver domain.Driver
	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&driver.ID,
		&driver.FirstName,
		&driver.LastName,
		&driver.Email,
		&driver.Phone,
		&driver.PasswordHash,
		&driver.LicenseNumber,
		&driver.ImageURL,
		&driver.Rating,
		&driver.Available,
		&driver.CurrentBookedTrips,
		&driver.CreatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	return &driver, nil
}

// CarRepository is a PostgreSQL implementation of repository.CarRepository.
type CarRepository struct {
	q Querier
}

// NewCarRepository creates a new PostgreSQL car repository.
func NewCarRepository(db *sql.DB) *CarRepository {
	return &CarRepository{q: db}
}

// NewCarRepositoryWithTx creates a car repository using a transaction.
func NewCarRepositoryWithTx(tx *sql.Tx) *CarRepository {
	return &CarRepository{q: tx}
}

// Create adds a new car.
func (r *CarRepository) Create(ctx context.Context, car *domain.Car) error {
	query := `
		INSERT INTO cars (model, license_plate, color, driver_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.q.QueryRowContext(ctx, query, car.Model, car.LicensePlate, car.Color, nullInt64(car.DriverID)).Scan(&car.ID)
	return translateError(err)
}

// GetByID retrieves a car by ID.
func (r *CarRepository) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	return r.getOne(ctx, `SELECT id, model, license_plate, color, driver_id FROM cars WHERE id = $1`, id)
}

// GetByLicensePlate retrieves a car by license plate.
func (r *CarRepository) GetByLicensePlate(ctx context.Context, plate string) (*domain.Car, error) {
	return r.getOne(ctx, `SELECT id, model, license_plate, color, driver_id FROM cars WHERE license_plate = $1`, plate)
}

// GetByDriverID retrieves the car assigned to a driver.
func (r *CarRepository) GetByDriverID(ctx context.Context, driverID int64) (*domain.Car, error) {
	return r.getOne(ctx, `SELECT id, model, license_plate, color, driver_id FROM cars WHERE driver_id = $1`, driverID)
}

// AssignDriver links a car to a driver.
func (r *CarRepository) AssignDriver(ctx context.Context, carID, driverID int64) error {
	result, err := r.q.ExecContext(ctx, `UPDATE cars SET driver_id = $1 WHERE id = $2`, driverID, carID)
	if err != nil {
		return translateError(err)
	}
	return checkAffected(result)
}

func (r *CarRepository) getOne(ctx context.Context, query string, arg any) (*domain.Car, error) {
	var car domain.Car
	var driverID sql.NullInt64
	err := r.q.QueryRowContext(ctx, query, arg).Scan(&car.ID, &car.Model, &car.LicensePlate, &car.Color, &driverID)
	if err != nil {
		return nil, translateError(err)
	}
	car.DriverID = int64Ptr(driverID)
	return &car, nil
}

var (
	_ repository.DriverRepository = (*DriverRepository)(nil)
	_ repository.CarRepository    = (*CarRepository)(nil)
)
