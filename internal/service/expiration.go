package service

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"github.com/SeifHesham2/SwiftRide/internal/repository"
)

// ExpirationSweeper moves trips whose scheduled date has passed to EXPIRED.
// Completed and already expired trips are left alone. Sweeping is idempotent.
type ExpirationSweeper struct {
	tripRepo repository.TripRepository
	nrApp    *newrelic.Application
	logger   logrus.FieldLogger
}

// NewExpirationSweeper creates a new ExpirationSweeper. nrApp may be nil.
func NewExpirationSweeper(tripRepo repository.TripRepository, nrApp *newrelic.Application, logger logrus.FieldLogger) *ExpirationSweeper {
	return &ExpirationSweeper{
		tripRepo: tripRepo,
		nrApp:    nrApp,
		logger:   logger,
	}
}

// Sweep expires every overdue trip and returns how many were expired.
func (s *ExpirationSweeper) Sweep(ctx context.Context) (int64, error) {
	expired, err := s.tripRepo.ExpireOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		s.logger.WithField("expired", expired).Info("expired overdue trips")
	}

	return expired, nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *ExpirationSweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.WithField("interval", interval.String()).Info("expiration sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiration sweeper stopped")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *ExpirationSweeper) sweepOnce(ctx context.Context) {
	if s.nrApp != nil {
		txn := s.nrApp.StartTransaction("expiration-sweep")
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
	}

	if _, err := s.Sweep(ctx); err != nil {
		if txn := newrelic.FromContext(ctx); txn != nil {
			txn.NoticeError(err)
		}
		s.logger.WithError(err).Error("expiration sweep failed")
	}
}
