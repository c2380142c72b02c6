package service

import (
	"errors"

	"github.com/SeifHesham2/SwiftRide/internal/geo"
)

// Not found.
var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrDriverNotFound    = errors.New("driver not found")
	ErrTripNotFound      = errors.New("trip not found")
	ErrCarNotFound       = errors.New("no vehicle assigned to driver")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrComplaintNotFound = errors.New("complaint not found")

	// ErrLocationNotFound is returned when a pickup or destination cannot be geocoded.
	ErrLocationNotFound = geo.ErrLocationNotFound
)

// Conflicts with existing records.
var (
	ErrEmailExists           = errors.New("email already registered")
	ErrPhoneExists           = errors.New("phone number already registered")
	ErrLicenseExists         = errors.New("license number already registered")
	ErrCarLicensePlateExists = errors.New("car license plate already registered")
	ErrCarHasDriver          = errors.New("car is already assigned to a driver")
	ErrDriverHasCar          = errors.New("driver already has a car assigned")
)

// Scheduling violations.
var (
	ErrTripOverlap        = errors.New("trip overlaps another trip of the driver")
	ErrInsufficientGap    = errors.New("not enough time between trips")
	ErrDriverAtCapacity   = errors.New("driver already has the maximum number of booked trips")
	ErrDriverNotAvailable = errors.New("driver is not available")
	ErrStartOutsideWindow = errors.New("trip can only be started within the window around its scheduled time")
	ErrInvalidTripDate    = errors.New("trip date must be in the future")
	ErrTripNotRequested   = errors.New("trip is not available for acceptance")
)

// Lifecycle and ownership.
var (
	// ErrInvalidTransition is returned when the trip's status does not allow the operation.
	ErrInvalidTransition = errors.New("operation not allowed in the trip's current status")

	ErrDriverNotAssignedToTrip = errors.New("driver not assigned to this trip")
	ErrTripNotOwnedByCustomer  = errors.New("trip does not belong to this customer")
	ErrAlreadyRated            = errors.New("driver already rated for this trip")

	// ErrConcurrentUpdate is returned when another operation holds the trip or driver.
	ErrConcurrentUpdate = errors.New("trip or driver is being updated, retry")
)

// Payments.
var (
	ErrPaymentMethodNotSupported = errors.New("payment method is not supported")
)

// Authentication.
var (
	ErrInvalidCredentials  = errors.New("the email or password you entered is not correct")
	ErrTokenExpiredOrWrong = errors.New("token is expired or wrong")
)

// Validation.
var (
	ErrInvalidLocation = errors.New("pickup location and destination are required")
	ErrInvalidRating   = errors.New("rating must be between 0 and 5")
	ErrInvalidInput    = errors.New("invalid input")
)
