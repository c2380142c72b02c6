package domain

import "time"

// Customer represents a rider in the system.
type Customer struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

// ComplaintStatus represents the handling state of a complaint.
type ComplaintStatus string

const (
	ComplaintStatusNew    ComplaintStatus = "NEW"
	ComplaintStatusOpened ComplaintStatus = "OPENED"
	ComplaintStatusClosed ComplaintStatus = "CLOSED"
)

// Complaint is a customer's report about a trip.
type Complaint struct {
	ID         int64
	Message    string
	Status     ComplaintStatus
	CustomerID int64
	TripID     int64
	CreatedAt  time.Time
}
