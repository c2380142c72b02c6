package service

import (
	"context"
	"errors"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/repository"
)

// CarService handles cars and their assignment to drivers.
type CarService struct {
	repos repository.Repositories
	tx    repository.Transactor
}

// NewCarService creates a new CarService.
func NewCarService(repos repository.Repositories, tx repository.Transactor) *CarService {
	return &CarService{repos: repos, tx: tx}
}

// RegisterCarRequest contains the parameters for registering a car.
type RegisterCarRequest struct {
	Model        string
	LicensePlate string
	Color        string
	DriverID     *int64
}

// RegisterCar creates a car, optionally assigned to a driver right away.
func (s *CarService) RegisterCar(ctx context.Context, req RegisterCarRequest) (*domain.Car, error) {
	if req.Model == "" || req.LicensePlate == "" {
		return nil, ErrInvalidInput
	}

	car := &domain.Car{
		Model:        req.Model,
		LicensePlate: req.LicensePlate,
		Color:        req.Color,
		DriverID:     req.DriverID,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Cars.GetByLicensePlate(ctx, req.LicensePlate); err == nil {
			return ErrCarLicensePlateExists
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if req.DriverID != nil {
			if err := ensureDriverWithoutCar(ctx, repos, *req.DriverID); err != nil {
				return err
			}
		}

		if err := repos.Cars.Create(ctx, car); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrCarLicensePlateExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return car, nil
}

// AssignCar links an unassigned car to a driver without a car.
func (s *CarService) AssignCar(ctx context.Context, carID, driverID int64) (*domain.Car, error) {
	var car *domain.Car
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error

		car, err = repos.Cars.GetByID(ctx, carID)
		if err != nil {
			return mapNotFound(err, ErrCarNotFound)
		}

		if car.DriverID != nil {
			return ErrCarHasDriver
		}

		if err := ensureDriverWithoutCar(ctx, repos, driverID); err != nil {
			return err
		}

		if err := repos.Cars.AssignDriver(ctx, carID, driverID); err != nil {
			return mapNotFound(err, ErrCarNotFound)
		}
		car.DriverID = &driverID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return car, nil
}

// GetDriverCar retrieves the car assigned to a driver.
func (s *CarService) GetDriverCar(ctx context.Context, driverID int64) (*domain.Car, error) {
	car, err := s.repos.Cars.GetByDriverID(ctx, driverID)
	if err != nil {
		return nil, mapNotFound(err, ErrCarNotFound)
	}
	return car, nil
}

func ensureDriverWithoutCar(ctx context.Context, repos repository.Repositories, driverID int64) error {
	if _, err := repos.Drivers.GetByID(ctx, driverID); err != nil {
		return mapNotFound(err, ErrDriverNotFound)
	}

	_, err := repos.Cars.GetByDriverID(ctx, driverID)
	if err == nil {
		return ErrDriverHasCar
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}
