package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// ErrorResponse represents an error response. Fields carries per-field
// validation messages when the error enumerates them.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)

	resp := ErrorResponse{Error: err.Error()}
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		resp.Fields = validation.Fields
	}

	c.JSON(code, resp)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// queryFloat parses an optional float query parameter.
func queryFloat(c *gin.Context, name string, fallback float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var (
		validation  *service.ValidationError
		notFound    *service.NotFoundError
		transition  *service.InvalidTransitionError
		unavailable *service.RideUnavailableError
		badSegment  *service.InvalidRouteSegmentError
	)

	switch {
	case errors.As(err, &validation),
		errors.Is(err, service.ErrInvalidPaymentMethod):
		return http.StatusBadRequest

	case errors.As(err, &notFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	case errors.As(err, &transition),
		errors.As(err, &unavailable),
		errors.Is(err, service.ErrPaymentNotRefundable),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict

	case errors.As(err, &badSegment):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}
