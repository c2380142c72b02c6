package postgres

import (
	"context"
	"database/sql"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/repository"
)

// CustomerRepository implements repository.CustomerRepository using PostgreSQL.
type CustomerRepository struct {
	q Querier
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{q: db}
}

// NewCustomerRepositoryWithTx creates a customer repository using a transaction.
func NewCustomerRepositoryWithTx(tx *sql.Tx) *CustomerRepository {
	return &CustomerRepository{q: tx}
}

// Create adds a new customer.
func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (first_name, last_name, email, phone, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.q.QueryRowContext(ctx, query,
		customer.FirstName, customer.LastName, customer.Email, customer.Phone, customer.PasswordHash,
	).Scan(&customer.ID, &customer.CreatedAt)
	return translateError(err)
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT id, first_name, last_name, email, phone, password_hash, created_at FROM customers WHERE id = $1`, id)
}

// GetByEmail retrieves a customer by email.
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT id, first_name, last_name, email, phone, password_hash, created_at FROM customers WHERE email = $1`, email)
}

// GetByPhone retrieves a customer by phone number.
func (r *CustomerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT id, first_name, last_name, email, phone, password_hash, created_at FROM customers WHERE phone = $1`, phone)
}

// UpdatePassword replaces the stored password hash.
func (r *CustomerRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE customers SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *CustomerRepository) getOne(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	var customer domain.Customer
	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&customer.ID,
		&customer.FirstName,
		&customer.LastName,
		&customer.Email,
		&customer.Phone,
		&customer.PasswordHash,
		&customer.CreatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &customer, nil
}

// ComplaintRepository implements repository.ComplaintRepository using PostgreSQL.
type ComplaintRepository struct {
	q Querier
}

// NewComplaintRepository creates a new ComplaintRepository.
func NewComplaintRepository(db *sql.DB) *ComplaintRepository {
	return &ComplaintRepository{q: db}
}

// NewComplaintRepositoryWithTx creates a complaint repository using a transaction.
func NewComplaintRepositoryWithTx(tx *sql.Tx) *ComplaintRepository {
	return &ComplaintRepository{q: tx}
}

// Create adds a new complaint.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	query := `
		INSERT INTO complaints (message, status, customer_id, trip_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.q.QueryRowContext(ctx, query,
		complaint.Message, complaint.Status, complaint.CustomerID, complaint.TripID,
	).Scan(&complaint.ID, &complaint.CreatedAt)
	return translateError(err)
}

// GetByID retrieves a complaint by ID.
func (r *ComplaintRepository) GetByID(ctx context.Context, id int64) (*domain.Complaint, error) {
	query := `SELECT id, message, status, customer_id, trip_id, created_at FROM complaints WHERE id = $1`

	var c domain.Complaint
	err := r.q.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Message, &c.Status, &c.CustomerID, &c.TripID, &c.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

// UpdateStatus updates the status of a complaint.
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id int64, status domain.ComplaintStatus) error {
	result, err := r.q.ExecContext(ctx, `UPDATE complaints SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// ListByStatus retrieves complaints in the given status, newest first.
func (r *ComplaintRepository) ListByStatus(ctx context.Context, status domain.ComplaintStatus) ([]*domain.Complaint, error) {
	query := `SELECT id, message, status, customer_id, trip_id, created_at FROM complaints WHERE status = $1 ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	complaints := make([]*domain.Complaint, 0)
	for rows.Next() {
		var c domain.Complaint
		if err := rows.Scan(&c.ID, &c.Message, &c.Status, &c.CustomerID, &c.TripID, &c.CreatedAt); err != nil {
			return nil, err
		}
		complaints = append(complaints, &c)
	}
	return complaints, rows.Err()
}

var (
	_ repository.CustomerRepository  = (*CustomerRepository)(nil)
	_ repository.ComplaintRepository = (*ComplaintRepository)(nil)
)
