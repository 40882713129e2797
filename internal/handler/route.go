package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// RouteHandler handles HTTP requests for the route catalog.
type RouteHandler struct {
	routeService *service.RouteService
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routeService *service.RouteService) *RouteHandler {
	return &RouteHandler{routeService: routeService}
}

// StopRequest is one stop in a route create/update body.
type StopRequest struct {
	Location        string  `json:"location"`
	FareFromStart   float64 `json:"fare_from_start"`
	ExpectedArrival string  `json:"expected_arrival,omitempty"`
}

// RouteRequest is the HTTP request body for creating or updating a route.
type RouteRequest struct {
	DriverID         string        `json:"driver_id"`
	Name             string        `json:"name"`
	StartPoint       string        `json:"start_point"`
	EndPoint         string        `json:"end_point"`
	Stops            []StopRequest `json:"stops,omitempty"`
	TotalDistanceKm  float64       `json:"total_distance_km"`
	EstimatedTimeMin float64       `json:"estimated_time_min"`
	BaseFare         float64       `json:"base_fare"`
	PerKmFare        float64       `json:"per_km_fare"`
	ExtraStopFare    float64       `json:"extra_stop_fare"`
}

// StopResponse is one stop in a route response.
type StopResponse struct {
	Position        int     `json:"position"`
	Location        string  `json:"location"`
	FareFromStart   float64 `json:"fare_from_start"`
	ExpectedArrival string  `json:"expected_arrival,omitempty"`
}

// RouteResponse is the HTTP response for route operations.
type RouteResponse struct {
	ID               string         `json:"id"`
	DriverID         string         `json:"driver_id"`
	Name             string         `json:"name"`
	StartPoint       string         `json:"start_point"`
	EndPoint         string         `json:"end_point"`
	Stops            []StopResponse `json:"stops,omitempty"`
	TotalDistanceKm  float64        `json:"total_distance_km"`
	EstimatedTimeMin float64        `json:"estimated_time_min"`
	BaseFare         float64        `json:"base_fare"`
	PerKmFare        float64        `json:"per_km_fare"`
	ExtraStopFare    float64        `json:"extra_stop_fare"`
	CreatedAt        string         `json:"created_at"`
	UpdatedAt        string         `json:"updated_at"`
}

// FareQuoteResponse is the HTTP response for a fare quote.
type FareQuoteResponse struct {
	RouteID            string  `json:"route_id"`
	Pickup             string  `json:"pickup"`
	Dropoff            string  `json:"dropoff"`
	BaseFare           float64 `json:"base_fare"`
	SegmentFare        float64 `json:"segment_fare"`
	ExtraStopAmount    float64 `json:"extra_stop_amount"`
	IntermediateStops  int     `json:"intermediate_stops"`
	DurationMultiplier float64 `json:"duration_multiplier"`
	Total              float64 `json:"total"`
}

// CreateRoute handles POST /v1/routes
func (h *RouteHandler) CreateRoute(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	route, err := h.routeService.CreateRoute(c.Request.Context(), req.DriverID, toRouteInput(req))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRouteResponse(route))
}

// UpdateRoute handles PUT /v1/routes/:id
func (h *RouteHandler) UpdateRoute(c *gin.Context) {
	routeID := c.Param("id")

	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	route, err := h.routeService.UpdateRoute(c.Request.Context(), routeID, toRouteInput(req))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRouteResponse(route))
}

// GetRoute handles GET /v1/routes/:id
func (h *RouteHandler) GetRoute(c *gin.Context) {
	route, err := h.routeService.GetRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRouteResponse(route))
}

// GetAll handles GET /v1/routes
func (h *RouteHandler) GetAll(c *gin.Context) {
	driverID := c.Query("driver_id")

	var (
		routes []*domain.Route
		err    error
	)
	if driverID != "" {
		routes, err = h.routeService.ListRoutesForDriver(c.Request.Context(), driverID)
	} else {
		routes, err = h.routeService.ListAllRoutes(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RouteResponse, 0, len(routes))
	for _, route := range routes {
		response = append(response, toRouteResponse(route))
	}
	respondJSON(c, http.StatusOK, response)
}

// QuoteFare handles GET /v1/routes/:id/fare?pickup=X&dropoff=Y&multiplier=N
func (h *RouteHandler) QuoteFare(c *gin.Context) {
	routeID := c.Param("id")
	pickup := c.Query("pickup")
	dropoff := c.Query("dropoff")

	route, err := h.routeService.GetRoute(c.Request.Context(), routeID)
	if err != nil {
		respondError(c, err)
		return
	}

	pickupPos, ok := route.PositionOf(pickup)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "pickup is not on the route"})
		return
	}
	dropoffPos, ok := route.PositionOf(dropoff)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "dropoff is not on the route"})
		return
	}

	multiplier := queryFloat(c, "multiplier", 1.0)

	breakdown, err := service.ComputeFare(route, pickupPos, dropoffPos, route.TotalDistanceKm, multiplier)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, FareQuoteResponse{
		RouteID:            route.ID,
		Pickup:             pickup,
		Dropoff:            dropoff,
		BaseFare:           breakdown.BaseFare,
		SegmentFare:        breakdown.SegmentFare,
		ExtraStopAmount:    breakdown.ExtraStopAmount,
		IntermediateStops:  breakdown.IntermediateStops,
		DurationMultiplier: breakdown.DurationMultiplier,
		Total:              breakdown.Total,
	})
}

func toRouteInput(req RouteRequest) service.RouteInput {
	stops := make([]service.StopInput, len(req.Stops))
	for i, s := range req.Stops {
		stops[i] = service.StopInput{
			Location:        s.Location,
			FareFromStart:   s.FareFromStart,
			ExpectedArrival: s.ExpectedArrival,
		}
	}
	return service.RouteInput{
		Name:             req.Name,
		StartPoint:       req.StartPoint,
		EndPoint:         req.EndPoint,
		Stops:            stops,
		TotalDistanceKm:  req.TotalDistanceKm,
		EstimatedTimeMin: req.EstimatedTimeMin,
		BaseFare:         req.BaseFare,
		PerKmFare:        req.PerKmFare,
		ExtraStopFare:    req.ExtraStopFare,
	}
}

func toRouteResponse(route *domain.Route) RouteResponse {
	stops := make([]StopResponse, len(route.Stops))
	for i, s := range route.Stops {
		stops[i] = StopResponse{
			Position:        i + 1,
			Location:        s.Location,
			FareFromStart:   s.FareFromStart,
			ExpectedArrival: s.ExpectedArrival,
		}
	}
	return RouteResponse{
		ID:               route.ID,
		DriverID:         route.DriverID,
		Name:             route.Name,
		StartPoint:       route.StartPoint,
		EndPoint:         route.EndPoint,
		Stops:            stops,
		TotalDistanceKm:  route.TotalDistanceKm,
		EstimatedTimeMin: route.EstimatedTimeMin,
		BaseFare:         route.BaseFare,
		PerKmFare:        route.PerKmFare,
		ExtraStopFare:    route.ExtraStopFare,
		CreatedAt:        route.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:        route.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
