package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/service"
)

// ComplaintHandler handles HTTP requests for complaints.
type ComplaintHandler struct {
	complaintService *service.ComplaintService
}

// NewComplaintHandler creates a new ComplaintHandler.
func NewComplaintHandler(complaintService *service.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{complaintService: complaintService}
}

// FileComplaintRequest is the HTTP request body for filing a complaint.
type FileComplaintRequest struct {
	CustomerID int64  `json:"customer_id" binding:"required"`
	TripID     int64  `json:"trip_id" binding:"required"`
	Message    string `json:"message" binding:"required"`
}

// ComplaintResponse is the HTTP response for a complaint.
type ComplaintResponse struct {
	ID         int64  `json:"id"`
	Message    string `json:"message"`
	Status     string `json:"status"`
	CustomerID int64  `json:"customer_id"`
	TripID     int64  `json:"trip_id"`
	CreatedAt  string `json:"created_at"`
}

func toComplaintResponse(complaint *domain.Complaint) ComplaintResponse {
	return ComplaintResponse{
		ID:         complaint.ID,
		Message:    complaint.Message,
		Status:     string(complaint.Status),
		CustomerID: complaint.CustomerID,
		TripID:     complaint.TripID,
		CreatedAt:  complaint.CreatedAt.Format(time.RFC3339),
	}
}

// File handles POST /v1/complaints
func (h *ComplaintHandler) File(c *gin.Context) {
	var req FileComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "customer_id, trip_id and message are required")
		return
	}

	complaint, err := h.complaintService.FileComplaint(c.Request.Context(), service.FileComplaintRequest{
		CustomerID: req.CustomerID,
		TripID:     req.TripID,
		Message:    req.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toComplaintResponse(complaint))
}

// Open handles POST /v1/complaints/:id/open
func (h *ComplaintHandler) Open(c *gin.Context) {
	h.transition(c, h.complaintService.OpenComplaint)
}

// Close handles POST /v1/complaints/:id/close
func (h *ComplaintHandler) Close(c *gin.Context) {
	h.transition(c, h.complaintService.CloseComplaint)
}

// List handles GET /v1/complaints?status=
func (h *ComplaintHandler) List(c *gin.Context) {
	status := domain.ComplaintStatus(c.DefaultQuery("status", string(domain.ComplaintStatusNew)))

	complaints, err := h.complaintService.ListComplaints(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]ComplaintResponse, 0, len(complaints))
	for _, complaint := range complaints {
		response = append(response, toComplaintResponse(complaint))
	}

	respondJSON(c, http.StatusOK, response)
}

func (h *ComplaintHandler) transition(c *gin.Context, move func(ctx context.Context, id int64) (*domain.Complaint, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	complaint, err := move(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toComplaintResponse(complaint))
}
