package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// RegisterDriverRequest is the HTTP request body for registering a driver.
type RegisterDriverRequest struct {
	Name    string          `json:"name"`
	Phone   string          `json:"phone"`
	Vehicle *VehicleRequest `json:"vehicle,omitempty"`
}

// UpdateDriverRequest is the HTTP request body for a driver profile update.
type UpdateDriverRequest struct {
	Name    string          `json:"name"`
	Phone   string          `json:"phone"`
	Vehicle *VehicleRequest `json:"vehicle,omitempty"`
}

// SetApprovalRequest is the HTTP request body for an approval decision.
type SetApprovalRequest struct {
	ApprovalStatus string `json:"approval_status"`
}

// VehicleRequest carries the vehicle details embedded in driver requests.
type VehicleRequest struct {
	Type        string `json:"type"`
	Model       string `json:"model"`
	PlateNumber string `json:"plate_number"`
	Year        string `json:"year"`
	Color       string `json:"color"`
}

// UpdateLocationRequest is the HTTP request body for a location report.
type UpdateLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DriverResponse is the HTTP response for driver operations.
type DriverResponse struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Phone          string           `json:"phone"`
	Status         string           `json:"status"`
	ApprovalStatus string           `json:"approval_status"`
	Vehicle        *VehicleResponse `json:"vehicle,omitempty"`
}

// VehicleResponse is the HTTP response for a registered vehicle.
type VehicleResponse struct {
	DriverID    string `json:"driver_id"`
	DriverName  string `json:"driver_name"`
	Type        string `json:"type"`
	Model       string `json:"model"`
	PlateNumber string `json:"plate_number"`
	Year        string `json:"year"`
	Color       string `json:"color"`
}

// Register handles POST /v1/drivers
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.RegisterDriver(c.Request.Context(), service.RegisterDriverRequest{
		Name:    req.Name,
		Phone:   req.Phone,
		Vehicle: toVehicle(req.Vehicle),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverResponse(driver))
}

// GetDriver handles GET /v1/drivers/:id
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driver, err := h.driverService.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// GetAll handles GET /v1/drivers
func (h *DriverHandler) GetAll(c *gin.Context) {
	drivers, err := h.driverService.ListDrivers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, driver := range drivers {
		response = append(response, toDriverResponse(driver))
	}
	respondJSON(c, http.StatusOK, response)
}

// UpdateLocation handles PUT /v1/drivers/:id/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.driverService.UpdateLocation(c.Request.Context(), service.UpdateLocationRequest{
		DriverID: c.Param("id"),
		Lat:      req.Lat,
		Lng:      req.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateProfile handles PUT /v1/drivers/:id
func (h *DriverHandler) UpdateProfile(c *gin.Context) {
	var req UpdateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.UpdateDriverProfile(c.Request.Context(), service.UpdateDriverProfileRequest{
		DriverID: c.Param("id"),
		Name:     req.Name,
		Phone:    req.Phone,
		Vehicle:  toVehicle(req.Vehicle),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// SetApproval handles PATCH /v1/drivers/:id/approval
func (h *DriverHandler) SetApproval(c *gin.Context) {
	var req SetApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.SetApprovalStatus(c.Request.Context(), c.Param("id"), req.ApprovalStatus)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// ListVehicles handles GET /v1/vehicles
func (h *DriverHandler) ListVehicles(c *gin.Context) {
	drivers, err := h.driverService.ListVehicles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]VehicleResponse, 0, len(drivers))
	for _, driver := range drivers {
		response = append(response, VehicleResponse{
			DriverID:    driver.ID,
			DriverName:  driver.Name,
			Type:        driver.Vehicle.Type,
			Model:       driver.Vehicle.Model,
			PlateNumber: driver.Vehicle.PlateNumber,
			Year:        driver.Vehicle.Year,
			Color:       driver.Vehicle.Color,
		})
	}
	respondJSON(c, http.StatusOK, response)
}

// GoOffline handles POST /v1/drivers/:id/offline
func (h *DriverHandler) GoOffline(c *gin.Context) {
	if err := h.driverService.SetDriverOffline(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func toDriverResponse(driver *domain.Driver) DriverResponse {
	resp := DriverResponse{
		ID:             driver.ID,
		Name:           driver.Name,
		Phone:          driver.Phone,
		Status:         string(driver.Status),
		ApprovalStatus: string(driver.ApprovalStatus),
	}
	if driver.Vehicle.Registered() {
		resp.Vehicle = &VehicleResponse{
			DriverID:    driver.ID,
			DriverName:  driver.Name,
			Type:        driver.Vehicle.Type,
			Model:       driver.Vehicle.Model,
			PlateNumber: driver.Vehicle.PlateNumber,
			Year:        driver.Vehicle.Year,
			Color:       driver.Vehicle.Color,
		}
	}
	return resp
}

func toVehicle(req *VehicleRequest) domain.Vehicle {
	if req == nil {
		return domain.Vehicle{}
	}
	return domain.Vehicle{
		Type:        req.Type,
		Model:       req.Model,
		PlateNumber: req.PlateNumber,
		Year:        req.Year,
		Color:       req.Color,
	}
}
