package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SeifHesham2/SwiftRide/internal/service"
)

// CustomerHandler handles HTTP requests for customers.
type CustomerHandler struct {
	customerService *service.CustomerService
	tripService     *service.TripService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerService *service.CustomerService, tripService *service.TripService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		tripService:     tripService,
	}
}

// CustomerResponse is the HTTP response for a customer.
type CustomerResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// VerifyEmailRequest is the HTTP request body for requesting a verification code.
type VerifyEmailRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name"`
}

// VerifyEmail handles POST /v1/customers/verify-email
func (h *CustomerHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "a valid email is required")
		return
	}

	if err := h.customerService.RequestEmailVerification(c.Request.Context(), req.Email, req.FirstName); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusAccepted, MessageResponse{Message: "verification code sent"})
}

// RegisterCustomerRequest is the HTTP request body for registering a customer.
type RegisterCustomerRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
	Token     string `json:"token" binding:"required"`
}

// Register handles POST /v1/customers/register
func (h *CustomerHandler) Register(c *gin.Context) {
	var req RegisterCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	customer, err := h.customerService.RegisterCustomer(c.Request.Context(), service.RegisterCustomerRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		Token:     req.Token,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CustomerResponse{
		ID:        customer.ID,
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		Email:     customer.Email,
		Phone:     customer.Phone,
	})
}

// Login handles POST /v1/customers/login
func (h *CustomerHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email and password are required")
		return
	}

	token, customer, err := h.customerService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, LoginResponse{Token: token, ID: customer.ID})
}

// ForgotPasswordRequest is the HTTP request body for requesting a reset code.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ForgotPassword handles POST /v1/customers/forgot-password
func (h *CustomerHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email is required")
		return
	}

	if err := h.customerService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusAccepted, MessageResponse{Message: "reset code sent"})
}

// ResetPasswordRequest is the HTTP request body for resetting a password.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// ResetPassword handles POST /v1/customers/reset-password
func (h *CustomerHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "token and a password of at least 8 characters are required")
		return
	}

	if err := h.customerService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, MessageResponse{Message: "password updated"})
}

// Trips handles GET /v1/customers/:id/trips
func (h *CustomerHandler) Trips(c *gin.Context) {
	customerID, ok := paramID(c, "id")
	if !ok {
		return
	}

	trips, err := h.tripService.ListCustomerTrips(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponses(trips))
}

// PreviousTrips handles GET /v1/customers/:id/previous-trips
func (h *CustomerHandler) PreviousTrips(c *gin.Context) {
	customerID, ok := paramID(c, "id")
	if !ok {
		return
	}

	trips, err := h.tripService.ListCustomerPreviousTrips(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponses(trips))
}
