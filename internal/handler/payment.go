package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// ProcessPaymentRequest is the HTTP request body for settling a ride.
type ProcessPaymentRequest struct {
	RideID      string  `json:"ride_id"`
	PassengerID string  `json:"passenger_id"`
	Amount      float64 `json:"amount"`
	Method      string  `json:"method"`               // CASH, CARD, WALLET
	CardToken   string  `json:"card_token,omitempty"` // required for CARD
}

// PaymentResponse is the HTTP response for payment operations.
type PaymentResponse struct {
	ID            string  `json:"id"`
	RideID        string  `json:"ride_id"`
	PassengerID   string  `json:"passenger_id"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	Status        string  `json:"status"`
	TransactionID string  `json:"transaction_id,omitempty"`
}

// ProcessPayment handles POST /v1/payments
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	method, err := service.ValidatePaymentMethod(req.Method)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	payment, err := h.paymentService.ProcessPayment(c.Request.Context(), service.ProcessPaymentRequest{
		RideID:      req.RideID,
		PassengerID: req.PassengerID,
		Amount:      req.Amount,
		Method:      method,
		CardToken:   req.CardToken,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// GetAll handles GET /v1/payments
func (h *PaymentHandler) GetAll(c *gin.Context) {
	payments, err := h.paymentService.ListPayments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		response = append(response, toPaymentResponse(payment))
	}
	respondJSON(c, http.StatusOK, response)
}

// RefundPayment handles POST /v1/payments/:id/refund
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	payment, err := h.paymentService.RefundPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

func toPaymentResponse(payment *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            payment.ID,
		RideID:        payment.RideID,
		PassengerID:   payment.PassengerID,
		Amount:        payment.Amount,
		Method:        string(payment.Method),
		Status:        string(payment.Status),
		TransactionID: payment.TransactionID,
	}
}
