package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SeifHesham2/SwiftRide/internal/repository"
)

// Transactor is a PostgreSQL implementation of repository.Transactor.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new Transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// NewRepositories returns repositories bound to db.
func NewRepositories(db *sql.DB) repository.Repositories {
	return repository.Repositories{
		Trips:      NewTripRepository(db),
		Drivers:    NewDriverRepository(db),
		Customers:  NewCustomerRepository(db),
		Cars:       NewCarRepository(db),
		Payments:   NewPaymentRepository(db),
		Complaints: NewComplaintRepository(db),
	}
}

// WithinTx runs fn inside a transaction with tx-scoped repositories.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	repos := repository.Repositories{
		Trips:      NewTripRepositoryWithTx(tx),
		Drivers:    NewDriverRepositoryWithTx(tx),
		Customers:  NewCustomerRepositoryWithTx(tx),
		Cars:       NewCarRepositoryWithTx(tx),
		Payments:   NewPaymentRepositoryWithTx(tx),
		Complaints: NewComplaintRepositoryWithTx(tx),
	}

	if err = fn(ctx, repos); err != nil {
		return err
	}

	return tx.Commit()
}

var _ repository.Transactor = (*Transactor)(nil)
