package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/repository"
	"github.com/SeifHesham2/SwiftRide/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// respondBadRequest sends a 400 with msg.
func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrDriverNotFound),
		errors.Is(err, service.ErrTripNotFound),
		errors.Is(err, service.ErrCarNotFound),
		errors.Is(err, service.ErrPaymentNotFound),
		errors.Is(err, service.ErrComplaintNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidTripDate),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrPaymentMethodNotSupported):
		return http.StatusBadRequest

	// Unresolvable places
	case errors.Is(err, service.ErrLocationNotFound):
		return http.StatusUnprocessableEntity

	// Authentication errors
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrTokenExpiredOrWrong):
		return http.StatusUnauthorized

	// Forbidden/Ownership errors
	case errors.Is(err, service.ErrDriverNotAssignedToTrip),
		errors.Is(err, service.ErrTripNotOwnedByCustomer):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrPhoneExists),
		errors.Is(err, service.ErrLicenseExists),
		errors.Is(err, service.ErrCarLicensePlateExists),
		errors.Is(err, service.ErrCarHasDriver),
		errors.Is(err, service.ErrDriverHasCar),
		errors.Is(err, service.ErrTripOverlap),
		errors.Is(err, service.ErrInsufficientGap),
		errors.Is(err, service.ErrDriverAtCapacity),
		errors.Is(err, service.ErrDriverNotAvailable),
		errors.Is(err, service.ErrStartOutsideWindow),
		errors.Is(err, service.ErrTripNotRequested),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyRated),
		errors.Is(err, service.ErrConcurrentUpdate),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// paramID parses the int64 path parameter name, answering 400 when it is malformed.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// TripResponse is the HTTP response for a trip.
type TripResponse struct {
	ID               int64    `json:"id"`
	PickupLocation   string   `json:"pickup_location"`
	Destination      string   `json:"destination"`
	TripDate         string   `json:"trip_date"`
	CreatedAt        string   `json:"created_at"`
	Status           string   `json:"status"`
	Fare             *float64 `json:"fare,omitempty"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	Rated            bool     `json:"rated"`
	Premium          bool     `json:"premium"`
	HasChildSeat     bool     `json:"has_child_seat"`
	CustomerID       int64    `json:"customer_id"`
	DriverID         *int64   `json:"driver_id,omitempty"`
}

func toTripResponse(trip *domain.Trip) TripResponse {
	return TripResponse{
		ID:               trip.ID,
		PickupLocation:   trip.PickupLocation,
		Destination:      trip.Destination,
		TripDate:         trip.TripDate.Format(time.RFC3339),
		CreatedAt:        trip.CreatedAt.Format(time.RFC3339),
		Status:           string(trip.Status),
		Fare:             trip.Fare,
		EstimatedMinutes: trip.EstimatedMinutes,
		Rated:            trip.Rated,
		Premium:          trip.Premium,
		HasChildSeat:     trip.HasChildSeat,
		CustomerID:       trip.CustomerID,
		DriverID:         trip.DriverID,
	}
}

func toTripResponses(trips []*domain.Trip) []TripResponse {
	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, toTripResponse(trip))
	}
	return response
}

// PaymentResponse is the HTTP response for a payment.
type PaymentResponse struct {
	ID     int64   `json:"id"`
	TripID int64   `json:"trip_id"`
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
	Status string  `json:"status"`
}

func toPaymentResponse(payment *domain.Payment) *PaymentResponse {
	if payment == nil {
		return nil
	}
	return &PaymentResponse{
		ID:     payment.ID,
		TripID: payment.TripID,
		Amount: payment.Amount,
		Method: string(payment.Method),
		Status: string(payment.Status),
	}
}

// DriverResponse is the HTTP response for a driver.
type DriverResponse struct {
	ID                 int64  `json:"id"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	LicenseNumber      string `json:"license_number"`
	ImageURL           string `json:"image_url,omitempty"`
	Rating             int    `json:"rating"`
	Available          bool   `json:"available"`
	CurrentBookedTrips int    `json:"current_booked_trips"`
}

func toDriverResponse(driver *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:                 driver.ID,
		FirstName:          driver.FirstName,
		LastName:           driver.LastName,
		Email:              driver.Email,
		Phone:              driver.Phone,
		LicenseNumber:      driver.LicenseNumber,
		ImageURL:           driver.ImageURL,
		Rating:             driver.Rating,
		Available:          driver.Available,
		CurrentBookedTrips: driver.CurrentBookedTrips,
	}
}
