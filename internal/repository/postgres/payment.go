package postgres

import (
	"context"
	"database/sql"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (trip_id, amount, method, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRowContext(ctx, query,
		payment.TripID,
		payment.Amount,
		payment.Method,
		payment.Status,
	).Scan(&payment.ID, &payment.CreatedAt)

	return translateError(err)
}

// GetByTripID retrieves the most recent payment of a trip.
func (r *PaymentRepository) GetByTripID(ctx context.Context, tripID int64) (*domain.Payment, error) {
	query := `
		SELECT id, trip_id, amount, method, status, created_at
		FROM payments WHERE trip_id = $1
		ORDER BY created_at DESC LIMIT 1
	`
	return scanPayment(r.q.QueryRowContext(ctx, query, tripID))
}

// GetPendingByTripID retrieves the pending payment of a trip.
func (r *PaymentRepository) GetPendingByTripID(ctx context.Context, tripID int64) (*domain.Payment, error) {
	query := `
		SELECT id, trip_id, amount, method, status, created_at
		FROM payments WHERE trip_id = $1 AND status = $2
		LIMIT 1
	`
	return scanPayment(r.q.QueryRowContext(ctx, query, tripID, domain.PaymentStatusPending))
}

// UpdateStatus updates the status of a payment.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	query := `UPDATE payments SET status = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	return checkAffected(result)
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var payment domain.Payment
	err := row.Scan(
		&payment.ID,
		&payment.TripID,
		&payment.Amount,
		&payment.Method,
		&payment.Status,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	return &payment, nil
}

var _ repository.PaymentRepository = (*PaymentRepository)(nil)
