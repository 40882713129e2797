package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// PassengerHandler handles HTTP requests for passengers.
type PassengerHandler struct {
	passengerService *service.PassengerService
}

// NewPassengerHandler creates a new PassengerHandler.
func NewPassengerHandler(passengerService *service.PassengerService) *PassengerHandler {
	return &PassengerHandler{passengerService: passengerService}
}

// RegisterPassengerRequest is the HTTP request body for registering a passenger.
type RegisterPassengerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// PassengerResponse is the HTTP response for passenger operations.
type PassengerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Register handles POST /v1/passengers
func (h *PassengerHandler) Register(c *gin.Context) {
	var req RegisterPassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	passenger, err := h.passengerService.RegisterPassenger(c.Request.Context(), service.RegisterPassengerRequest{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toPassengerResponse(passenger))
}

// GetPassenger handles GET /v1/passengers/:id
func (h *PassengerHandler) GetPassenger(c *gin.Context) {
	passenger, err := h.passengerService.GetPassenger(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPassengerResponse(passenger))
}

// GetAll handles GET /v1/passengers
func (h *PassengerHandler) GetAll(c *gin.Context) {
	passengers, err := h.passengerService.ListPassengers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PassengerResponse, 0, len(passengers))
	for _, passenger := range passengers {
		response = append(response, toPassengerResponse(passenger))
	}
	respondJSON(c, http.StatusOK, response)
}

func toPassengerResponse(passenger *domain.Passenger) PassengerResponse {
	return PassengerResponse{
		ID:    passenger.ID,
		Name:  passenger.Name,
		Phone: passenger.Phone,
	}
}
