package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/repository"
)

const tripColumns = `id, pickup_location, destination, trip_date, created_at, status, fare,
		estimated_minutes, rated, premium, has_child_seat, customer_id, driver_id`

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (pickup_location, destination, trip_date, status, fare, estimated_minutes,
			rated, premium, has_child_seat, customer_id, driver_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	err := r.q.QueryRowContext(ctx, query,
		trip.PickupLocation,
		trip.Destination,
		trip.TripDate,
		trip.Status,
		nullFare(trip.Fare),
		trip.EstimatedMinutes,
		trip.Rated,
		trip.Premium,
		trip.HasChildSeat,
		trip.CustomerID,
		nullInt64(trip.DriverID),
	).Scan(&trip.ID, &trip.CreatedAt)

	return translateError(err)
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	return scanTrip(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a trip and locks the row.
func (r *TripRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 FOR UPDATE`
	return scanTrip(r.q.QueryRowContext(ctx, query, id))
}

// Update updates an existing trip. The customer is immutable and is not written.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET pickup_location = $1, destination = $2, trip_date = $3, status = $4, fare = $5,
			estimated_minutes = $6, rated = $7, premium = $8, has_child_seat = $9, driver_id = $10
		WHERE id = $11
	`

	result, err := r.q.ExecContext(ctx, query,
		trip.PickupLocation,
		trip.Destination,
		trip.TripDate,
		trip.Status,
		nullFare(trip.Fare),
		trip.EstimatedMinutes,
		trip.Rated,
		trip.Premium,
		trip.HasChildSeat,
		nullInt64(trip.DriverID),
		trip.ID,
	)
	if err != nil {
		return translateError(err)
	}

	return checkAffected(result)
}

// ListByStatus retrieves all trips in the given status.
func (r *TripRepository) ListByStatus(ctx context.Context, status domain.TripStatus) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE status = $1 ORDER BY trip_date`
	return r.list(ctx, query, status)
}

// ListByDriverAndStatuses retrieves a driver's trips in any of the given statuses.
func (r *TripRepository) ListByDriverAndStatuses(ctx context.Context, driverID int64, statuses []domain.TripStatus) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE driver_id = $1 AND status = ANY($2) ORDER BY trip_date`
	return r.list(ctx, query, driverID, pq.Array(statusStrings(statuses)))
}

// ListByCustomer retrieves all trips booked by a customer.
func (r *TripRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE customer_id = $1 ORDER BY trip_date DESC`
	return r.list(ctx, query, customerID)
}

// ListByCustomerAndStatuses retrieves a customer's trips in any of the given statuses.
func (r *TripRepository) ListByCustomerAndStatuses(ctx context.Context, customerID int64, statuses []domain.TripStatus) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE customer_id = $1 AND status = ANY($2) ORDER BY trip_date DESC`
	return r.list(ctx, query, customerID, pq.Array(statusStrings(statuses)))
}

// ExpireOverdue moves overdue trips to EXPIRED in a single conditional update.
// Rows locked by an in-flight transition are re-checked against the predicate
// once that transaction ends.
func (r *TripRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE trips
		SET status = $1
		WHERE trip_date < $2 AND status NOT IN ($3, $4)
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.TripStatusExpired,
		now,
		domain.TripStatusCompleted,
		domain.TripStatusExpired,
	)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *TripRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Trip, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]*domain.Trip, 0)
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var fare sql.NullFloat64
	var driverID sql.NullInt64

	err := row.Scan(
		&trip.ID,
		&trip.PickupLocation,
		&trip.Destination,
		&trip.TripDate,
		&trip.CreatedAt,
		&trip.Status,
		&fare,
		&trip.EstimatedMinutes,
		&trip.Rated,
		&trip.Premium,
		&trip.HasChildSeat,
		&trip.CustomerID,
		&driverID,
	)
	if err != nil {
		return nil, translateError(err)
	}

	if fare.Valid {
		amount := fare.Float64
		trip.Fare = &amount
	}
	trip.DriverID = int64Ptr(driverID)

	return &trip, nil
}

func nullFare(fare *float64) sql.NullFloat64 {
	if fare == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *fare, Valid: true}
}

func statusStrings(statuses []domain.TripStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
