package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/SeifHesham2/SwiftRide/internal/auth"
	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/repository"
)

// DriverService handles driver accounts.
type DriverService struct {
	driverRepo repository.DriverRepository
	auth       *auth.Service
	logger     logrus.FieldLogger
}

// NewDriverService creates a new DriverService.
func NewDriverService(driverRepo repository.DriverRepository, authService *auth.Service, logger logrus.FieldLogger) *DriverService {
	return &DriverService{
		driverRepo: driverRepo,
		auth:       authService,
		logger:     logger,
	}
}

// RegisterDriverRequest contains the parameters for registering a driver.
type RegisterDriverRequest struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Password      string
	LicenseNumber string
	ImageURL      string
}

// RegisterDriver creates an available driver with no booked trips.
func (s *DriverService) RegisterDriver(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Phone == "" || req.LicenseNumber == "" || req.Password == "" {
		return nil, ErrInvalidInput
	}

	if err := s.checkUnique(ctx, email, req.Phone, req.LicenseNumber); err != nil {
		return nil, err
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	driver := &domain.Driver{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         email,
		Phone:         req.Phone,
		PasswordHash:  hash,
		LicenseNumber: req.LicenseNumber,
		ImageURL:      req.ImageURL,
		Available:     true,
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.logger.WithField("driver_id", driver.ID).Info("driver registered")

	return driver, nil
}

// Login checks a driver's credentials and returns an access token.
func (s *DriverService) Login(ctx context.Context, email, password string) (string, *domain.Driver, error) {
	driver, err := s.driverRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", nil, mapNotFound(err, ErrInvalidCredentials)
	}

	if !s.auth.CheckPassword(password, driver.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.auth.GenerateToken(driver.ID, auth.RoleDriver)
	if err != nil {
		return "", nil, err
	}

	return token, driver, nil
}

// GetDriver retrieves a driver by ID.
func (s *DriverService) GetDriver(ctx context.Context, driverID int64) (*domain.Driver, error) {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, mapNotFound(err, ErrDriverNotFound)
	}
	return driver, nil
}

func (s *DriverService) checkUnique(ctx context.Context, email, phone, license string) error {
	if _, err := s.driverRepo.GetByEmail(ctx, email); err == nil {
		return ErrEmailExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if _, err := s.driverRepo.GetByPhone(ctx, phone); err == nil {
		return ErrPhoneExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if _, err := s.driverRepo.GetByLicenseNumber(ctx, license); err == nil {
		return ErrLicenseExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
