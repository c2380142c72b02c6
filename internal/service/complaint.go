package service

import (
	"context"
	"fmt"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/repository"
)

// ComplaintService handles customer complaints about trips.
type ComplaintService struct {
	repos repository.Repositories
}

// NewComplaintService creates a new ComplaintService.
func NewComplaintService(repos repository.Repositories) *ComplaintService {
	return &ComplaintService{repos: repos}
}

// FileComplaintRequest contains the parameters for filing a complaint.
type FileComplaintRequest struct {
	CustomerID int64
	TripID     int64
	Message    string
}

// FileComplaint records a NEW complaint about one of the customer's trips.
func (s *ComplaintService) FileComplaint(ctx context.Context, req FileComplaintRequest) (*domain.Complaint, error) {
	if req.Message == "" {
		return nil, ErrInvalidInput
	}

	if _, err := s.repos.Customers.GetByID(ctx, req.CustomerID); err != nil {
		return nil, mapNotFound(err, ErrCustomerNotFound)
	}

	trip, err := s.repos.Trips.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, mapNotFound(err, ErrTripNotFound)
	}
	if trip.CustomerID != req.CustomerID {
		return nil, ErrTripNotOwnedByCustomer
	}

	complaint := &domain.Complaint{
		Message:    req.Message,
		Status:     domain.ComplaintStatusNew,
		CustomerID: req.CustomerID,
		TripID:     req.TripID,
	}
	if err := s.repos.Complaints.Create(ctx, complaint); err != nil {
		return nil, err
	}

	return complaint, nil
}

// OpenComplaint moves a NEW complaint to OPENED.
func (s *ComplaintService) OpenComplaint(ctx context.Context, id int64) (*domain.Complaint, error) {
	return s.move(ctx, id, domain.ComplaintStatusNew, domain.ComplaintStatusOpened)
}

// CloseComplaint moves an OPENED complaint to CLOSED.
func (s *ComplaintService) CloseComplaint(ctx context.Context, id int64) (*domain.Complaint, error) {
	return s.move(ctx, id, domain.ComplaintStatusOpened, domain.ComplaintStatusClosed)
}

// ListComplaints lists complaints in the given status.
func (s *ComplaintService) ListComplaints(ctx context.Context, status domain.ComplaintStatus) ([]*domain.Complaint, error) {
	switch status {
	case domain.ComplaintStatusNew, domain.ComplaintStatusOpened, domain.ComplaintStatusClosed:
	default:
		return nil, ErrInvalidInput
	}
	return s.repos.Complaints.ListByStatus(ctx, status)
}

func (s *ComplaintService) move(ctx context.Context, id int64, from, to domain.ComplaintStatus) (*domain.Complaint, error) {
	complaint, err := s.repos.Complaints.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrComplaintNotFound)
	}

	if complaint.Status != from {
		return nil, fmt.Errorf("%w: complaint is %s", ErrInvalidTransition, complaint.Status)
	}

	if err := s.repos.Complaints.UpdateStatus(ctx, id, to); err != nil {
		return nil, mapNotFound(err, ErrComplaintNotFound)
	}
	complaint.Status = to

	return complaint, nil
}
