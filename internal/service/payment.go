package service

import (
	"context"
	"errors"
	"sort"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/repository"
)

// PaymentStrategy builds the payment record of a trip for one payment method.
type PaymentStrategy func(trip *domain.Trip) *domain.Payment

// PendingPayment returns a strategy creating a PENDING payment of the trip's fare.
func PendingPayment(method domain.PaymentMethod) PaymentStrategy {
	return func(trip *domain.Trip) *domain.Payment {
		return &domain.Payment{
			TripID: trip.ID,
			Amount: trip.FareAmount(),
			Method: method,
			Status: domain.PaymentStatusPending,
		}
	}
}

// PaymentService handles payment operations.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	strategies  map[domain.PaymentMethod]PaymentStrategy
}

// NewPaymentService creates a new PaymentService supporting cash and credit card.
func NewPaymentService(paymentRepo repository.PaymentRepository) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		strategies: map[domain.PaymentMethod]PaymentStrategy{
			domain.PaymentMethodCash:       PendingPayment(domain.PaymentMethodCash),
			domain.PaymentMethodCreditCard: PendingPayment(domain.PaymentMethodCreditCard),
		},
	}
}

// Register adds or replaces the strategy of a payment method. It is meant to
// be called while wiring, before the service is shared.
func (s *PaymentService) Register(method domain.PaymentMethod, strategy PaymentStrategy) {
	s.strategies[method] = strategy
}

// Supports reports whether a strategy is registered for method.
func (s *PaymentService) Supports(method domain.PaymentMethod) bool {
	_, ok := s.strategies[method]
	return ok
}

// Methods lists the supported payment methods in name order.
func (s *PaymentService) Methods() []domain.PaymentMethod {
	methods := make([]domain.PaymentMethod, 0, len(s.strategies))
	for method := range s.strategies {
		methods = append(methods, method)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}

// WithRepository returns a copy of the service bound to paymentRepo, typically
// a transaction-scoped repository.
func (s *PaymentService) WithRepository(paymentRepo repository.PaymentRepository) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		strategies:  s.strategies,
	}
}

// ChoosePayment creates the PENDING payment of a trip using method's strategy.
func (s *PaymentService) ChoosePayment(ctx context.Context, trip *domain.Trip, method domain.PaymentMethod) (*domain.Payment, error) {
	strategy, ok := s.strategies[method]
	if !ok {
		return nil, ErrPaymentMethodNotSupported
	}

	payment := strategy(trip)
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

// DonePayment marks the pending payment of a trip as PAID.
func (s *PaymentService) DonePayment(ctx context.Context, tripID int64) (*domain.Payment, error) {
	return s.settle(ctx, tripID, domain.PaymentStatusPaid)
}

// CancelPayment marks the pending payment of a trip as CANCELLED.
func (s *PaymentService) CancelPayment(ctx context.Context, tripID int64) (*domain.Payment, error) {
	return s.settle(ctx, tripID, domain.PaymentStatusCancelled)
}

// GetPaymentByTrip retrieves the latest payment of a trip.
func (s *PaymentService) GetPaymentByTrip(ctx context.Context, tripID int64) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByTripID(ctx, tripID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	return payment, err
}

func (s *PaymentService) settle(ctx context.Context, tripID int64, status domain.PaymentStatus) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetPendingByTripID(ctx, tripID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	payment.Status = status

	return payment, nil
}
