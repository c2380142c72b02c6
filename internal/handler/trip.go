package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// BookTripRequest is the HTTP request body for booking a trip.
type BookTripRequest struct {
	CustomerID     int64     `json:"customer_id" binding:"required"`
	PickupLocation string    `json:"pickup_location" binding:"required"`
	Destination    string    `json:"destination" binding:"required"`
	TripDate       time.Time `json:"trip_date" binding:"required"`
	Premium        bool      `json:"premium"`
	HasChildSeat   bool      `json:"has_child_seat"`
	PaymentMethod  string    `json:"payment_method" binding:"required"`
}

// BookTripResponse is the HTTP response for a booked trip.
type BookTripResponse struct {
	Trip    TripResponse     `json:"trip"`
	Payment *PaymentResponse `json:"payment"`
}

// BookTrip handles POST /v1/trips
func (h *TripHandler) BookTrip(c *gin.Context) {
	var req BookTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := h.tripService.BookTrip(c.Request.Context(), service.BookTripRequest{
		CustomerID:     req.CustomerID,
		PickupLocation: req.PickupLocation,
		Destination:    req.Destination,
		TripDate:       req.TripDate,
		Premium:        req.Premium,
		HasChildSeat:   req.HasChildSeat,
		PaymentMethod:  domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, BookTripResponse{
		Trip:    toTripResponse(result.Trip),
		Payment: toPaymentResponse(result.Payment),
	})
}

// QuoteRequest holds the query parameters of a fare quote.
type QuoteRequest struct {
	PickupLocation string `form:"pickup_location" binding:"required"`
	Destination    string `form:"destination" binding:"required"`
	Premium        bool   `form:"premium"`
	HasChildSeat   bool   `form:"has_child_seat"`
}

// QuoteResponse is the HTTP response for a fare quote.
type QuoteResponse struct {
	DistanceKm       float64 `json:"distance_km"`
	Fare             float64 `json:"fare"`
	EstimatedMinutes int     `json:"estimated_minutes"`
}

// Quote handles GET /v1/trips/quote
func (h *TripHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBadRequest(c, "pickup_location and destination are required")
		return
	}

	quote, err := h.tripService.QuoteTrip(c.Request.Context(), req.PickupLocation, req.Destination, service.FareOptions{
		Premium:   req.Premium,
		ChildSeat: req.HasChildSeat,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, QuoteResponse{
		DistanceKm:       quote.DistanceKm,
		Fare:             quote.Fare,
		EstimatedMinutes: quote.EstimatedMinutes,
	})
}

// ListRequested handles GET /v1/trips/requested
func (h *TripHandler) ListRequested(c *gin.Context) {
	trips, err := h.tripService.ListRequestedTrips(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponses(trips))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}

	trip, err := h.tripService.GetTrip(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// DriverActionRequest is the HTTP request body of driver-initiated trip actions.
type DriverActionRequest struct {
	DriverID int64 `json:"driver_id" binding:"required"`
}

// AcceptTrip handles POST /v1/trips/:id/accept
func (h *TripHandler) AcceptTrip(c *gin.Context) {
	h.driverAction(c, h.tripService.AcceptTrip)
}

// StartTrip handles POST /v1/trips/:id/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	h.driverAction(c, h.tripService.StartTrip)
}

// CancelByDriver handles POST /v1/trips/:id/cancel-by-driver
func (h *TripHandler) CancelByDriver(c *gin.Context) {
	h.driverAction(c, h.tripService.CancelTripByDriver)
}

// EndTripResponse is the HTTP response for a completed trip.
type EndTripResponse struct {
	Trip    TripResponse     `json:"trip"`
	Payment *PaymentResponse `json:"payment"`
	Receipt *ReceiptInfo     `json:"receipt,omitempty"`
}

// ReceiptInfo contains receipt details in the response.
type ReceiptInfo struct {
	TripID        int64   `json:"trip_id"`
	TotalFare     float64 `json:"total_fare"`
	PaymentMethod string  `json:"payment_method"`
	PaymentStatus string  `json:"payment_status"`
	IssuedAt      string  `json:"issued_at"`
}

// EndTrip handles POST /v1/trips/:id/end
func (h *TripHandler) EndTrip(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req DriverActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "driver_id is required")
		return
	}

	result, err := h.tripService.EndTrip(c.Request.Context(), tripID, req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := EndTripResponse{
		Trip:    toTripResponse(result.Trip),
		Payment: toPaymentResponse(result.Payment),
	}
	if result.Receipt != nil {
		response.Receipt = &ReceiptInfo{
			TripID:        result.Receipt.TripID,
			TotalFare:     result.Receipt.TotalFare,
			PaymentMethod: string(result.Receipt.PaymentMethod),
			PaymentStatus: string(result.Receipt.PaymentStatus),
			IssuedAt:      result.Receipt.IssuedAt.Format(time.RFC3339),
		}
	}

	respondJSON(c, http.StatusOK, response)
}

// CancelByCustomerRequest is the HTTP request body for a customer cancellation.
type CancelByCustomerRequest struct {
	CustomerID int64 `json:"customer_id" binding:"required"`
}

// CancelByCustomer handles POST /v1/trips/:id/cancel-by-customer
func (h *TripHandler) CancelByCustomer(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req CancelByCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "customer_id is required")
		return
	}

	trip, err := h.tripService.CancelTripByCustomer(c.Request.Context(), tripID, req.CustomerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// RateDriverRequest is the HTTP request body for rating a trip's driver.
type RateDriverRequest struct {
	DriverID int64 `json:"driver_id" binding:"required"`
	Rating   *int  `json:"rating" binding:"required"`
}

// RateDriver handles POST /v1/trips/:id/rate
func (h *TripHandler) RateDriver(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req RateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "driver_id and rating are required")
		return
	}

	driver, err := h.tripService.RateDriver(c.Request.Context(), tripID, req.DriverID, *req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

func (h *TripHandler) driverAction(c *gin.Context, action func(ctx context.Context, tripID, driverID int64) (*domain.Trip, error)) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req DriverActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "driver_id is required")
		return
	}

	trip, err := action(c.Request.Context(), tripID, req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}
