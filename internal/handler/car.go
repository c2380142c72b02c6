package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/service"
)

// CarHandler handles HTTP requests for cars.
type CarHandler struct {
	carService *service.CarService
}

// NewCarHandler creates a new CarHandler.
func NewCarHandler(carService *service.CarService) *CarHandler {
	return &CarHandler{carService: carService}
}

// RegisterCarRequest is the HTTP request body for registering a car.
type RegisterCarRequest struct {
	Model        string `json:"model" binding:"required"`
	LicensePlate string `json:"license_plate" binding:"required"`
	Color        string `json:"color"`
	DriverID     *int64 `json:"driver_id"`
}

// AssignCarRequest is the HTTP request body for assigning a car to a driver.
type AssignCarRequest struct {
	DriverID int64 `json:"driver_id" binding:"required"`
}

// CarResponse is the HTTP response for a car.
type CarResponse struct {
	ID           int64  `json:"id"`
	Model        string `json:"model"`
	LicensePlate string `json:"license_plate"`
	Color        string `json:"color"`
	DriverID     *int64 `json:"driver_id,omitempty"`
}

func toCarResponse(car *domain.Car) CarResponse {
	return CarResponse{
		ID:           car.ID,
		Model:        car.Model,
		LicensePlate: car.LicensePlate,
		Color:        car.Color,
		DriverID:     car.DriverID,
	}
}

// Register handles POST /v1/cars
func (h *CarHandler) Register(c *gin.Context) {
	var req RegisterCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "model and license_plate are required")
		return
	}

	car, err := h.carService.RegisterCar(c.Request.Context(), service.RegisterCarRequest{
		Model:        req.Model,
		LicensePlate: req.LicensePlate,
		Color:        req.Color,
		DriverID:     req.DriverID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toCarResponse(car))
}

// Assign handles POST /v1/cars/:id/assign
func (h *CarHandler) Assign(c *gin.Context) {
	carID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req AssignCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "driver_id is required")
		return
	}

	car, err := h.carService.AssignCar(c.Request.Context(), carID, req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toCarResponse(car))
}

// DriverCar handles GET /v1/drivers/:id/car
func (h *CarHandler) DriverCar(c *gin.Context) {
	driverID, ok := paramID(c, "id")
	if !ok {
		return
	}

	car, err := h.carService.GetDriverCar(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toCarResponse(car))
}
