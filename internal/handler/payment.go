package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SeifHesham2/SwiftRide/internal/service"
)

// PaymentHandler exposes trip payments and the accepted payment methods.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// PaymentMethodsResponse lists the methods a booking may use.
type PaymentMethodsResponse struct {
	Methods []string `json:"methods"`
}

// Methods handles GET /v1/payments/methods
func (h *PaymentHandler) Methods(c *gin.Context) {
	methods := h.paymentService.Methods()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	respondJSON(c, http.StatusOK, PaymentMethodsResponse{Methods: names})
}

// GetByTrip handles GET /v1/payments/trip/:tripId
// The latest payment is returned; a trip cancelled after payment has only one.
func (h *PaymentHandler) GetByTrip(c *gin.Context) {
	tripID, ok := paramID(c, "tripId")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPaymentByTrip(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}
