package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusRequested           TripStatus = "REQUESTED"
	TripStatusBooked              TripStatus = "BOOKED" // reserved, no transition produces it
	TripStatusAccepted            TripStatus = "ACCEPTED"
	TripStatusOngoing             TripStatus = "ONGOING"
	TripStatusCompleted           TripStatus = "COMPLETED"
	TripStatusCancelledByCustomer TripStatus = "CANCELLED_BY_CUSTOMER"
	TripStatusCancelledByDriver   TripStatus = "CANCELLED_BY_DRIVER"
	TripStatusExpired             TripStatus = "EXPIRED"
)

var (
	// ActiveTripStatuses are the statuses that occupy a driver's schedule.
	ActiveTripStatuses = []TripStatus{TripStatusAccepted, TripStatusOngoing}

	// PreviousTripStatuses are the statuses shown in a customer's trip history.
	PreviousTripStatuses = []TripStatus{TripStatusExpired, TripStatusCompleted, TripStatusCancelledByCustomer}
)

// IsTerminal reports whether no lifecycle event can move a trip out of s.
func (s TripStatus) IsTerminal() bool {
	switch s {
	case TripStatusCompleted, TripStatusCancelledByCustomer, TripStatusCancelledByDriver, TripStatusExpired:
		return true
	}
	return false
}

// Trip is a single ride engagement between a customer and, once accepted, a driver.
type Trip struct {
	ID               int64
	PickupLocation   string
	Destination      string
	TripDate         time.Time
	CreatedAt        time.Time
	Status           TripStatus
	Fare             *float64 // nil until priced
	EstimatedMinutes int
	Rated            bool
	Premium          bool
	HasChildSeat     bool
	CustomerID       int64
	DriverID         *int64 // nil until accepted
}

// EndsAt returns the scheduled end of the trip.
func (t *Trip) EndsAt() time.Time {
	return t.TripDate.Add(time.Duration(t.EstimatedMinutes) * time.Minute)
}

// HasDriver reports whether driverID is the driver assigned to the trip.
func (t *Trip) HasDriver(driverID int64) bool {
	return t.DriverID != nil && *t.DriverID == driverID
}

// FareAmount returns the fare, or zero when the trip has not been priced.
func (t *Trip) FareAmount() float64 {
	if t.Fare == nil {
		return 0
	}
	return *t.Fare
}

// Receipt summarises a completed trip for the customer.
type Receipt struct {
	TripID           int64
	CustomerID       int64
	DriverID         int64
	PickupLocation   string
	Destination      string
	TripDate         time.Time
	EstimatedMinutes int
	Premium          bool
	HasChildSeat     bool
	TotalFare        float64
	PaymentMethod    PaymentMethod
	PaymentStatus    PaymentStatus
	IssuedAt         time.Time
}
