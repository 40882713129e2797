package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// RideHandler handles HTTP requests for ride booking and lifecycle.
type RideHandler struct {
	rideService     *service.RideService
	dispatchService *service.DispatchService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService, dispatchService *service.DispatchService) *RideHandler {
	return &RideHandler{
		rideService:     rideService,
		dispatchService: dispatchService,
	}
}

// CreateRideRequest is the HTTP request body for booking a ride.
type CreateRideRequest struct {
	PassengerID        string  `json:"passenger_id"`
	RouteID            string  `json:"route_id,omitempty"`
	PickupLocation     string  `json:"pickup_location"`
	DropoffLocation    string  `json:"dropoff_location"`
	DistanceKm         float64 `json:"distance_km,omitempty"`
	Duration           string  `json:"duration,omitempty"`
	PickupDateTime     string  `json:"pickup_date_time,omitempty"` // RFC 3339
	DurationMultiplier float64 `json:"duration_multiplier,omitempty"`
	PaymentMethod      string  `json:"payment_method,omitempty"` // CASH, CARD, WALLET
}

// AcceptRideRequest is the HTTP request body for accepting a ride.
type AcceptRideRequest struct {
	DriverID string `json:"driver_id"`
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason,omitempty"`
}

// UpdateStatusRequest is the HTTP request body for a driver-side lifecycle
// transition (IN_PROGRESS or COMPLETED).
type UpdateStatusRequest struct {
	DriverID string `json:"driver_id"`
	Status   string `json:"status"`
}

// RideResponse is the HTTP response for ride operations.
type RideResponse struct {
	ID                 string  `json:"id"`
	PassengerID        string  `json:"passenger_id"`
	DriverID           string  `json:"driver_id,omitempty"`
	RouteID            string  `json:"route_id,omitempty"`
	PickupLocation     string  `json:"pickup_location"`
	DropoffLocation    string  `json:"dropoff_location"`
	DistanceKm         float64 `json:"distance_km"`
	Duration           string  `json:"duration,omitempty"`
	DurationMultiplier float64 `json:"duration_multiplier"`
	Fare               float64 `json:"fare"`
	Status             string  `json:"status"`
	PaymentStatus      string  `json:"payment_status"`
	PaymentMethod      string  `json:"payment_method"`
	BookedAt           string  `json:"booked_at"`
	PickupDateTime     string  `json:"pickup_date_time,omitempty"`
	AcceptedAt         string  `json:"accepted_at,omitempty"`
	StartedAt          string  `json:"started_at,omitempty"`
	CompletedAt        string  `json:"completed_at,omitempty"`
	CancelledAt        string  `json:"cancelled_at,omitempty"`
	CancelledBy        string  `json:"cancelled_by,omitempty"`
	CancelReason       string  `json:"cancel_reason,omitempty"`
}

// ReceiptResponse is the HTTP representation of a receipt.
type ReceiptResponse struct {
	ID                 string  `json:"id"`
	RideID             string  `json:"ride_id"`
	DriverID           string  `json:"driver_id"`
	PassengerID        string  `json:"passenger_id"`
	RouteName          string  `json:"route_name,omitempty"`
	PickupLocation     string  `json:"pickup_location"`
	DropoffLocation    string  `json:"dropoff_location"`
	BaseFare           float64 `json:"base_fare"`
	SegmentFare        float64 `json:"segment_fare"`
	ExtraStopAmount    float64 `json:"extra_stop_amount"`
	DurationMultiplier float64 `json:"duration_multiplier"`
	TotalFare          float64 `json:"total_fare"`
	DistanceKm         float64 `json:"distance_km"`
	PaymentMethod      string  `json:"payment_method"`
	PaymentStatus      string  `json:"payment_status"`
}

// CompleteRideResponse bundles the completed ride with its receipt.
type CompleteRideResponse struct {
	Ride    RideResponse     `json:"ride"`
	Receipt *ReceiptResponse `json:"receipt,omitempty"`
}

// TrackingResponse is the HTTP response for live ride tracking.
type TrackingResponse struct {
	RideID         string            `json:"ride_id"`
	Status         string            `json:"status"`
	DriverID       string            `json:"driver_id,omitempty"`
	DriverLocation *LocationResponse `json:"driver_location,omitempty"`
}

// LocationResponse carries a driver position.
type LocationResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	paymentMethod, err := service.ValidatePaymentMethod(req.PaymentMethod)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var pickupAt time.Time
	if req.PickupDateTime != "" {
		pickupAt, err = time.Parse(time.RFC3339, req.PickupDateTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pickup_date_time must be RFC 3339"})
			return
		}
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		PassengerID:        req.PassengerID,
		RouteID:            req.RouteID,
		PickupLocation:     req.PickupLocation,
		DropoffLocation:    req.DropoffLocation,
		DistanceKm:         req.DistanceKm,
		Duration:           req.Duration,
		PickupDateTime:     pickupAt,
		DurationMultiplier: req.DurationMultiplier,
		PaymentMethod:      paymentMethod,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// GetAll handles GET /v1/rides with optional driver_id, passenger_id or
// status filters.
func (h *RideHandler) GetAll(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		rides []*domain.Ride
		err   error
	)
	switch {
	case c.Query("driver_id") != "":
		rides, err = h.rideService.ListRidesByDriver(ctx, c.Query("driver_id"))
	case c.Query("passenger_id") != "":
		rides, err = h.rideService.ListRidesByPassenger(ctx, c.Query("passenger_id"))
	case c.Query("status") == string(domain.RideStatusCancelled):
		rides, err = h.rideService.ListCancelledRides(ctx)
	default:
		rides, err = h.rideService.ListRides(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		response = append(response, toRideResponse(ride))
	}
	respondJSON(c, http.StatusOK, response)
}

// GetPending handles GET /v1/rides/pending?driver_id=X
func (h *RideHandler) GetPending(c *gin.Context) {
	rides, err := h.dispatchService.ListPendingRidesForDriver(c.Request.Context(), c.Query("driver_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		response = append(response, toRideResponse(ride))
	}
	respondJSON(c, http.StatusOK, response)
}

// TrackRide handles GET /v1/rides/:id/track
func (h *RideHandler) TrackRide(c *gin.Context) {
	tracking, err := h.dispatchService.TrackRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := TrackingResponse{
		RideID:   tracking.Ride.ID,
		Status:   string(tracking.Ride.Status),
		DriverID: tracking.Ride.DriverID,
	}
	if tracking.DriverLocation != nil {
		resp.DriverLocation = &LocationResponse{
			Lat: tracking.DriverLocation.Lat,
			Lng: tracking.DriverLocation.Lng,
		}
	}
	respondJSON(c, http.StatusOK, resp)
}

// AcceptRide handles POST /v1/rides/:id/accept
func (h *RideHandler) AcceptRide(c *gin.Context) {
	var req AcceptRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.dispatchService.AcceptRide(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.dispatchService.CancelRide(c.Request.Context(), c.Param("id"), req.CancelledBy, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// UpdateStatus handles PATCH /v1/rides/:id/status for the driver-side
// transitions IN_PROGRESS and COMPLETED.
func (h *RideHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	rideID := c.Param("id")

	switch domain.RideStatus(req.Status) {
	case domain.RideStatusInProgress:
		ride, err := h.rideService.StartRide(ctx, rideID, req.DriverID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondJSON(c, http.StatusOK, toRideResponse(ride))

	case domain.RideStatusCompleted:
		ride, receipt, err := h.rideService.CompleteRide(ctx, rideID, req.DriverID)
		if err != nil {
			respondError(c, err)
			return
		}
		resp := CompleteRideResponse{Ride: toRideResponse(ride)}
		if receipt != nil {
			r := toReceiptResponse(receipt)
			resp.Receipt = &r
		}
		respondJSON(c, http.StatusOK, resp)

	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "status must be IN_PROGRESS or COMPLETED"})
	}
}

func toRideResponse(ride *domain.Ride) RideResponse {
	response := RideResponse{
		ID:                 ride.ID,
		PassengerID:        ride.PassengerID,
		DriverID:           ride.DriverID,
		RouteID:            ride.RouteID,
		PickupLocation:     ride.PickupLocation,
		DropoffLocation:    ride.DropoffLocation,
		DistanceKm:         ride.DistanceKm,
		Duration:           ride.Duration,
		DurationMultiplier: ride.DurationMultiplier,
		Fare:               ride.Fare,
		Status:             string(ride.Status),
		PaymentStatus:      string(ride.PaymentStatus),
		PaymentMethod:      string(ride.PaymentMethod),
		BookedAt:           formatTime(ride.BookedAt),
		PickupDateTime:     formatTime(ride.PickupDateTime),
		AcceptedAt:         formatTime(ride.AcceptedAt),
		StartedAt:          formatTime(ride.StartedAt),
		CompletedAt:        formatTime(ride.CompletedAt),
		CancelledAt:        formatTime(ride.CancelledAt),
		CancelledBy:        ride.CancelledBy,
		CancelReason:       ride.CancelReason,
	}
	return response
}

func toReceiptResponse(receipt *domain.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:                 receipt.ID,
		RideID:             receipt.RideID,
		DriverID:           receipt.DriverID,
		PassengerID:        receipt.PassengerID,
		RouteName:          receipt.RouteName,
		PickupLocation:     receipt.PickupLocation,
		DropoffLocation:    receipt.DropoffLocation,
		BaseFare:           receipt.BaseFare,
		SegmentFare:        receipt.SegmentFare,
		ExtraStopAmount:    receipt.ExtraStopAmount,
		DurationMultiplier: receipt.DurationMultiplier,
		TotalFare:          receipt.TotalFare,
		DistanceKm:         receipt.DistanceKm,
		PaymentMethod:      string(receipt.PaymentMethod),
		PaymentStatus:      string(receipt.PaymentStatus),
	}
}

// formatTime renders a timestamp as RFC 3339, or empty when unset.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
