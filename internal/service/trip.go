package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SeifHesham2/SwiftRide/internal/config"
	"github.com/SeifHesham2/SwiftRide/internal/domain"
	internalRedis "github.com/SeifHesham2/SwiftRide/internal/redis"
	"github.com/SeifHesham2/SwiftRide/internal/repository"
)

const maxRating = 5

// TripService owns the trip lifecycle: booking, acceptance, start, end,
// cancellation and rating. Every state change runs in one transaction while
// the affected driver and trip are locked, always in driver-then-trip order.
type TripService struct {
	repos               repository.Repositories
	tx                  repository.Transactor
	locker              internalRedis.Locker
	fareCalculator      *FareCalculator
	availability        *AvailabilityTracker
	paymentService      *PaymentService
	sweeper             *ExpirationSweeper
	notificationService *NotificationService
	receiptService      *ReceiptService
	startWindow         time.Duration
	logger              logrus.FieldLogger
}

// NewTripService creates a new TripService.
func NewTripService(
	repos repository.Repositories,
	tx repository.Transactor,
	locker internalRedis.Locker,
	fareCalculator *FareCalculator,
	availability *AvailabilityTracker,
	paymentService *PaymentService,
	sweeper *ExpirationSweeper,
	notificationService *NotificationService,
	receiptService *ReceiptService,
	cfg config.DispatchConfig,
	logger logrus.FieldLogger,
) *TripService {
	return &TripService{
		repos:               repos,
		tx:                  tx,
		locker:              locker,
		fareCalculator:      fareCalculator,
		availability:        availability,
		paymentService:      paymentService,
		sweeper:             sweeper,
		notificationService: notificationService,
		receiptService:      receiptService,
		startWindow:         cfg.StartWindow,
		logger:              logger,
	}
}

// BookTripRequest contains the parameters for booking a trip.
type BookTripRequest struct {
	CustomerID     int64
	PickupLocation string
	Destination    string
	TripDate       time.Time
	Premium        bool
	HasChildSeat   bool
	PaymentMethod  domain.PaymentMethod
}

// BookTripResponse contains the booked trip and its pending payment.
type BookTripResponse struct {
	Trip    *domain.Trip
	Payment *domain.Payment
}

// BookTrip prices a new trip and stores it as REQUESTED together with a
// PENDING payment.
func (s *TripService) BookTrip(ctx context.Context, req BookTripRequest) (*BookTripResponse, error) {
	if req.PickupLocation == "" || req.Destination == "" {
		return nil, ErrInvalidLocation
	}

	if _, err := s.repos.Customers.GetByID(ctx, req.CustomerID); err != nil {
		return nil, mapNotFound(err, ErrCustomerNotFound)
	}

	if !req.TripDate.After(time.Now()) {
		return nil, ErrInvalidTripDate
	}

	if !s.paymentService.Supports(req.PaymentMethod) {
		return nil, ErrPaymentMethodNotSupported
	}

	quote, err := s.fareCalculator.Quote(ctx, req.PickupLocation, req.Destination, FareOptions{
		Premium:   req.Premium,
		ChildSeat: req.HasChildSeat,
	})
	if err != nil {
		return nil, err
	}

	fare := quote.Fare
	trip := &domain.Trip{
		PickupLocation:   req.PickupLocation,
		Destination:      req.Destination,
		TripDate:         req.TripDate,
		Status:           domain.TripStatusRequested,
		Fare:             &fare,
		EstimatedMinutes: quote.EstimatedMinutes,
		Premium:          req.Premium,
		HasChildSeat:     req.HasChildSeat,
		CustomerID:       req.CustomerID,
	}

	var payment *domain.Payment
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Trips.Create(ctx, trip); err != nil {
			return err
		}

		var err error
		payment, err = s.paymentService.WithRepository(repos.Payments).ChoosePayment(ctx, trip, req.PaymentMethod)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":     trip.ID,
		"customer_id": trip.CustomerID,
		"fare":        fare,
	}).Info("trip booked")

	s.notificationService.NotifyTripBooked(ctx, trip)

	return &BookTripResponse{Trip: trip, Payment: payment}, nil
}

// QuoteTrip prices a route without booking it.
func (s *TripService) QuoteTrip(ctx context.Context, pickup, destination string, opts FareOptions) (*FareQuote, error) {
	return s.fareCalculator.Quote(ctx, pickup, destination, opts)
}

// AcceptTrip assigns a REQUESTED trip to a driver when the driver has a car,
// has capacity left and the trip fits the driver's schedule.
func (s *TripService) AcceptTrip(ctx context.Context, tripID, driverID int64) (*domain.Trip, error) {
	unlock, err := s.lock(ctx, driverKey(driverID), tripKey(tripID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		trip   *domain.Trip
		driver *domain.Driver
		car    *domain.Car
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error

		driver, err = repos.Drivers.GetByIDForUpdate(ctx, driverID)
		if err != nil {
			return mapNotFound(err, ErrDriverNotFound)
		}

		car, err = repos.Cars.GetByDriverID(ctx, driverID)
		if err != nil {
			return mapNotFound(err, ErrCarNotFound)
		}

		trip, err = repos.Trips.GetByIDForUpdate(ctx, tripID)
		if err != nil {
			return mapNotFound(err, ErrTripNotFound)
		}

		active, err := repos.Trips.ListByDriverAndStatuses(ctx, driverID, domain.ActiveTripStatuses)
		if err != nil {
			return err
		}

		if err := s.availability.CanAccept(driver, trip, active); err != nil {
			return err
		}

		s.availability.Book(driver, trip)

		if err := repos.Drivers.Update(ctx, driver); err != nil {
			return err
		}
		return repos.Trips.Update(ctx, trip)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":      trip.ID,
		"driver_id":    driver.ID,
		"booked_trips": driver.CurrentBookedTrips,
	}).Info("trip accepted")

	s.notificationService.NotifyTripAccepted(ctx, trip, driver, car)

	return trip, nil
}

// StartTrip moves an ACCEPTED trip to ONGOING. The assigned driver may start
// it only within the start window around the scheduled time.
func (s *TripService) StartTrip(ctx context.Context, tripID, driverID int64) (*domain.Trip, error) {
	unlock, err := s.lock(ctx, driverKey(driverID), tripKey(tripID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var trip *domain.Trip
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error

		trip, err = repos.Trips.GetByIDForUpdate(ctx, tripID)
		if err != nil {
			return mapNotFound(err, ErrTripNotFound)
		}

		if _, err := repos.Drivers.GetByID(ctx, driverID); err != nil {
			return mapNotFound(err, ErrDriverNotFound)
		}

		if !trip.HasDriver(driverID) {
			return ErrDriverNotAssignedToTrip
		}

		if trip.Status != domain.TripStatusAccepted {
			return fmt.Errorf("%w: cannot start a %s trip", ErrInvalidTransition, trip.Status)
		}

		now := time.Now()
		if now.Before(trip.TripDate.Add(-s.startWindow)) || now.After(trip.TripDate.Add(s.startWindow)) {
			return ErrStartOutsideWindow
		}

		trip.Status = domain.TripStatusOngoing
		return repos.Trips.Update(ctx, trip)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":   trip.ID,
		"driver_id": driverID,
	}).Info("trip started")

	s.notificationService.NotifyTripStarted(ctx, trip)

	return trip, nil
}

// EndTripResponse contains the result of ending a trip.
type EndTripResponse struct {
	Trip    *domain.Trip
	Payment *domain.Payment
	Receipt *domain.Receipt
}

// EndTrip completes an ONGOING trip, frees one slot of the driver and marks
// the trip's payment as PAID. Nothing is written when the payment is missing.
func (s *TripService) EndTrip(ctx context.Context, tripID, driverID int64) (*EndTripResponse, error) {
	unlock, err := s.lock(ctx, driverKey(driverID), tripKey(tripID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		trip    *domain.Trip
		payment *domain.Payment
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error

		trip, err = repos.Trips.GetByIDForUpdate(ctx, tripID)
		if err != nil {
			return mapNotFound(err, ErrTripNotFound)
		}

		driver, err := repos.Drivers.GetByIDForUpdate(ctx, driverID)
		if err != nil {
			return mapNotFound(err, ErrDriverNotFound)
		}

		if !trip.HasDriver(driverID) {
			return ErrDriverNotAssignedToTrip
		}

		if trip.Status != domain.TripStatusOngoing {
			return fmt.Errorf("%w: cannot end a %s trip", ErrInvalidTransition, trip.Status)
		}

		trip.Status = domain.TripStatusCompleted
		s.availability.Release(driver)

		if err := repos.Trips.Update(ctx, trip); err != nil {
			return err
		}
		if err := repos.Drivers.Update(ctx, driver); err != nil {
			return err
		}

		payment, err = s.paymentService.WithRepository(repos.Payments).DonePayment(ctx, trip.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	receipt := s.receiptService.GenerateReceipt(trip, payment)

	s.logger.WithFields(logrus.Fields{
		"trip_id":   trip.ID,
		"driver_id": driverID,
		"amount":    payment.Amount,
	}).Info("trip completed")

	s.notificationService.NotifyTripCompleted(ctx, trip, receipt)

	return &EndTripResponse{
		Trip:    trip,
		Payment: payment,
		Receipt: receipt,
	}, nil
}

// CancelTripByCustomer cancels a trip on behalf of its customer, frees the
// assigned driver if any and cancels the pending payment.
func (s *TripService) CancelTripByCustomer(ctx context.Context, tripID, customerID int64) (*domain.Trip, error) {
	seen, err := s.repos.Trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, mapNotFound(err, ErrTripNotFound)
	}

	keys := []string{tripKey(tripID)}
	if seen.DriverID != nil {
		keys = []string{driverKey(*seen.DriverID), tripKey(tripID)}
	}

	unlock, err := s.lock(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var trip *domain.Trip
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error

		trip, err = repos.Trips.GetByIDForUpdate(ctx, tripID)
		if err != nil {
			return mapNotFound(err, ErrTripNotFound)
		}

		if _, err := repos.Customers.GetByID(ctx, customerID); err != nil {
			return mapNotFound(err, ErrCustomerNotFound)
		}

		if trip.CustomerID != customerID {
			return ErrTripNotOwnedByCustomer
		}

		// The driver lock was chosen from the unlocked read.
		if !sameDriver(trip.DriverID, seen.DriverID) {
			return ErrConcurrentUpdate
		}

		switch trip.Status {
		case domain.TripStatusRequested, domain.TripStatusAccepted, domain.TripStatusOngoing:
		default:
			return fmt.Errorf("%w: cannot cancel a %s trip", ErrInvalidTransition, trip.Status)
		}

		if trip.DriverID != nil {
			driver, err := repos.Drivers.GetByIDForUpdate(ctx, *trip.DriverID)
			if err != nil {
				return mapNotFound(err, ErrDriverNotFound)
			}
			s.availability.Release(driver)
			if err := repos.Drivers.Update(ctx, driver); err != nil {
				return err
			}
		}

		trip.Status = domain.TripStatusCancelledByCustomer
		if err := repos.Trips.Update(ctx, trip); err != nil {
			return err
		}

		_, err = s.paymentService.WithRepository(repos.Payments).CancelPayment(ctx, trip.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":     trip.ID,
		"customer_id": customerID,
	}).Info("trip cancelled by customer")

	if trip.DriverID != nil {
		s.notificationService.NotifyTripCancelledByCustomer(ctx, trip, *trip.DriverID)
	}

	return trip, nil
}

// CancelTripByDriver releases the trip from its assigned driver and puts it
// back to REQUESTED so another driver can accept it.
func (s *TripService) CancelTripByDriver(ctx context.Context, tripID, driverID int64) (*domain.Trip, error) {
	unlock, err := s.lock(ctx, driverKey(driverID), tripKey(tripID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var trip *domain.Trip
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error

		trip, err = repos.Trips.GetByIDForUpdate(ctx, tripID)
		if err != nil {
			return mapNotFound(err, ErrTripNotFound)
		}

		driver, err := repos.Drivers.GetByIDForUpdate(ctx, driverID)
		if err != nil {
			return mapNotFound(err, ErrDriverNotFound)
		}

		if trip.Status.IsTerminal() {
			return fmt.Errorf("%w: cannot cancel a %s trip", ErrInvalidTransition, trip.Status)
		}

		if !trip.HasDriver(driverID) {
			return ErrDriverNotAssignedToTrip
		}

		s.availability.Release(driver)
		trip.DriverID = nil
		trip.Status = domain.TripStatusRequested

		if err := repos.Drivers.Update(ctx, driver); err != nil {
			return err
		}
		return repos.Trips.Update(ctx, trip)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":   trip.ID,
		"driver_id": driverID,
	}).Info("trip cancelled by driver, back to requested")

	s.notificationService.NotifyTripRequeued(ctx, trip)

	return trip, nil
}

// RateDriver records a rating for the driver of a trip. Each trip can be
// rated once.
func (s *TripService) RateDriver(ctx context.Context, tripID, driverID int64, rating int) (*domain.Driver, error) {
	if rating < 0 || rating > maxRating {
		return nil, ErrInvalidRating
	}

	unlock, err := s.lock(ctx, driverKey(driverID), tripKey(tripID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var driver *domain.Driver
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		trip, err := repos.Trips.GetByIDForUpdate(ctx, tripID)
		if err != nil {
			return mapNotFound(err, ErrTripNotFound)
		}

		driver, err = repos.Drivers.GetByIDForUpdate(ctx, driverID)
		if err != nil {
			return mapNotFound(err, ErrDriverNotFound)
		}

		if trip.Rated {
			return ErrAlreadyRated
		}

		trip.Rated = true
		driver.Rating = NextRating(driver.Rating, rating)

		if err := repos.Trips.Update(ctx, trip); err != nil {
			return err
		}
		return repos.Drivers.Update(ctx, driver)
	})
	if err != nil {
		return nil, err
	}

	return driver, nil
}

// NextRating folds a new rating into the driver's score: the new rating plus
// half the previous score, capped at 5.
func NextRating(previous, rating int) int {
	next := rating + previous/2
	if next > maxRating {
		next = maxRating
	}
	return next
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID int64) (*domain.Trip, error) {
	trip, err := s.repos.Trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, mapNotFound(err, ErrTripNotFound)
	}
	return trip, nil
}

// ListRequestedTrips expires overdue trips, then lists every trip still
// waiting for a driver.
func (s *TripService) ListRequestedTrips(ctx context.Context) ([]*domain.Trip, error) {
	if _, err := s.sweeper.Sweep(ctx); err != nil {
		return nil, err
	}
	return s.repos.Trips.ListByStatus(ctx, domain.TripStatusRequested)
}

// ListDriverActiveTrips expires overdue trips, then lists the driver's
// ACCEPTED and ONGOING trips.
func (s *TripService) ListDriverActiveTrips(ctx context.Context, driverID int64) ([]*domain.Trip, error) {
	if _, err := s.sweeper.Sweep(ctx); err != nil {
		return nil, err
	}

	if _, err := s.repos.Drivers.GetByID(ctx, driverID); err != nil {
		return nil, mapNotFound(err, ErrDriverNotFound)
	}

	return s.repos.Trips.ListByDriverAndStatuses(ctx, driverID, domain.ActiveTripStatuses)
}

// ListCustomerTrips lists every trip of a customer.
func (s *TripService) ListCustomerTrips(ctx context.Context, customerID int64) ([]*domain.Trip, error) {
	if _, err := s.repos.Customers.GetByID(ctx, customerID); err != nil {
		return nil, mapNotFound(err, ErrCustomerNotFound)
	}
	return s.repos.Trips.ListByCustomer(ctx, customerID)
}

// ListCustomerPreviousTrips lists a customer's expired, completed and
// cancelled trips.
func (s *TripService) ListCustomerPreviousTrips(ctx context.Context, customerID int64) ([]*domain.Trip, error) {
	if _, err := s.repos.Customers.GetByID(ctx, customerID); err != nil {
		return nil, mapNotFound(err, ErrCustomerNotFound)
	}
	return s.repos.Trips.ListByCustomerAndStatuses(ctx, customerID, domain.PreviousTripStatuses)
}

// lock acquires keys in order and returns a function releasing them in
// reverse order.
func (s *TripService) lock(ctx context.Context, keys ...string) (func(), error) {
	releases := make([]func(), 0, len(keys))
	unlock := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, key := range keys {
		release, err := s.locker.Lock(ctx, key)
		if err != nil {
			unlock()
			if errors.Is(err, internalRedis.ErrLockNotAcquired) {
				return nil, fmt.Errorf("%w: %s", ErrConcurrentUpdate, key)
			}
			return nil, err
		}
		releases = append(releases, release)
	}

	return unlock, nil
}

func driverKey(id int64) string {
	return "driver:" + strconv.FormatInt(id, 10)
}

func tripKey(id int64) string {
	return "trip:" + strconv.FormatInt(id, 10)
}

func sameDriver(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// mapNotFound replaces repository.ErrNotFound with target.
func mapNotFound(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}
