package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/SeifHesham2/SwiftRide/internal/auth"
	"github.com/SeifHesham2/SwiftRide/internal/domain"
	internalRedis "github.com/SeifHesham2/SwiftRide/internal/redis"
	"github.com/SeifHesham2/SwiftRide/internal/repository"
)

// One-time token purposes.
const (
	TokenPurposeEmailVerification = "email-verification"
	TokenPurposePasswordReset     = "password-reset"
)

const minPasswordLength = 8

// CustomerService handles customer accounts: email verification,
// registration, login and password reset.
type CustomerService struct {
	customerRepo        repository.CustomerRepository
	tokens              internalRedis.TokenStoreInterface
	auth                *auth.Service
	notificationService *NotificationService
	logger              logrus.FieldLogger
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(
	customerRepo repository.CustomerRepository,
	tokens internalRedis.TokenStoreInterface,
	authService *auth.Service,
	notificationService *NotificationService,
	logger logrus.FieldLogger,
) *CustomerService {
	return &CustomerService{
		customerRepo:        customerRepo,
		tokens:              tokens,
		auth:                authService,
		notificationService: notificationService,
		logger:              logger,
	}
}

// RequestEmailVerification emails a verification code to an address that is
// not registered yet.
func (s *CustomerService) RequestEmailVerification(ctx context.Context, email, firstName string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrInvalidInput
	}

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return err
	}

	token, err := s.tokens.Issue(ctx, TokenPurposeEmailVerification, email)
	if err != nil {
		return err
	}

	return s.notificationService.SendToken(ctx, email, firstName, "Verify your email", token)
}

// RegisterCustomerRequest contains the parameters for registering a customer.
type RegisterCustomerRequest struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Token     string
}

// RegisterCustomer creates a customer after checking the email verification code.
func (s *CustomerService) RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) (*domain.Customer, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Phone == "" || len(req.Password) < minPasswordLength {
		return nil, ErrInvalidInput
	}

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	if _, err := s.customerRepo.GetByPhone(ctx, req.Phone); err == nil {
		return nil, ErrPhoneExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	verified, err := s.consumeToken(ctx, TokenPurposeEmailVerification, req.Token)
	if err != nil {
		return nil, err
	}
	if verified != email {
		return nil, ErrTokenExpiredOrWrong
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	customer := &domain.Customer{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: hash,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.logger.WithField("customer_id", customer.ID).Info("customer registered")

	return customer, nil
}

// Login checks a customer's credentials and returns an access token.
func (s *CustomerService) Login(ctx context.Context, email, password string) (string, *domain.Customer, error) {
	customer, err := s.customerRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", nil, mapNotFound(err, ErrInvalidCredentials)
	}

	if !s.auth.CheckPassword(password, customer.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.auth.GenerateToken(customer.ID, auth.RoleCustomer)
	if err != nil {
		return "", nil, err
	}

	return token, customer, nil
}

// ForgotPassword emails a password reset code to a registered customer.
func (s *CustomerService) ForgotPassword(ctx context.Context, email string) error {
	customer, err := s.customerRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return mapNotFound(err, ErrCustomerNotFound)
	}

	token, err := s.tokens.Issue(ctx, TokenPurposePasswordReset, customer.Email)
	if err != nil {
		return err
	}

	return s.notificationService.SendToken(ctx, customer.Email, customer.FirstName, "Reset your password", token)
}

// ResetPassword replaces the password of the customer the reset code was issued to.
func (s *CustomerService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrInvalidInput
	}

	email, err := s.consumeToken(ctx, TokenPurposePasswordReset, token)
	if err != nil {
		return err
	}

	customer, err := s.customerRepo.GetByEmail(ctx, email)
	if err != nil {
		return mapNotFound(err, ErrCustomerNotFound)
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.customerRepo.UpdatePassword(ctx, customer.ID, hash); err != nil {
		return mapNotFound(err, ErrCustomerNotFound)
	}

	s.logger.WithField("customer_id", customer.ID).Info("password reset")

	return nil
}

// GetCustomer retrieves a customer by ID.
func (s *CustomerService) GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, mapNotFound(err, ErrCustomerNotFound)
	}
	return customer, nil
}

func (s *CustomerService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.customerRepo.GetByEmail(ctx, email)
	if err == nil {
		return ErrEmailExists
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

func (s *CustomerService) consumeToken(ctx context.Context, purpose, token string) (string, error) {
	subject, err := s.tokens.Consume(ctx, purpose, token)
	if errors.Is(err, internalRedis.ErrTokenInvalid) {
		return "", ErrTokenExpiredOrWrong
	}
	return subject, err
}
