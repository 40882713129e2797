package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// PSP is the interface for a Payment Service Provider.
type PSP interface {
	// Charge attempts to collect amount and returns the provider's
	// transaction id.
	Charge(ctx context.Context, amount float64, method domain.PaymentMethod, cardToken string) (string, error)

	// Refund reverses a previously successful charge.
	Refund(ctx context.Context, transactionID string) error
}

// MockPSP is a stand-in provider that always succeeds.
type MockPSP struct{}

// NewMockPSP creates a new mock PSP.
func NewMockPSP() *MockPSP {
	return &MockPSP{}
}

func (p *MockPSP) Charge(ctx context.Context, amount float64, method domain.PaymentMethod, cardToken string) (string, error) {
	return "txn-" + uuid.New().String(), nil
}

func (p *MockPSP) Refund(ctx context.Context, transactionID string) error {
	return nil
}

// PaymentService settles rides. Settlement is idempotent per ride: repeated
// requests return the first payment rather than charging twice.
type PaymentService struct {
	paymentRepo         repository.PaymentRepository
	rideRepo            repository.RideRepository
	psp                 PSP
	notificationService *NotificationService
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	rideRepo repository.RideRepository,
	psp PSP,
	notificationService *NotificationService,
) *PaymentService {
	return &PaymentService{
		paymentRepo:         paymentRepo,
		rideRepo:            rideRepo,
		psp:                 psp,
		notificationService: notificationService,
	}
}

// ProcessPaymentRequest contains the parameters for settling a ride.
type ProcessPaymentRequest struct {
	RideID      string
	PassengerID string
	Amount      float64
	Method      domain.PaymentMethod
	CardToken   string // required for CARD
}

// ProcessPayment settles a ride. The payment reaches a terminal status
// (PAID/FAILED) and the outcome is recorded on the ride's paymentStatus.
func (s *PaymentService) ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*domain.Payment, error) {
	fields := fieldErrors{}
	if req.RideID == "" {
		fields.add("ride_id", "is required")
	}
	if req.PassengerID == "" {
		fields.add("passenger_id", "is required")
	}
	if req.Amount <= 0 {
		fields.add("amount", "must be > 0")
	}
	switch req.Method {
	case domain.PaymentMethodCash, domain.PaymentMethodWallet:
	case domain.PaymentMethodCard:
		if req.CardToken == "" {
			fields.add("card_token", "is required for card payments")
		}
	default:
		fields.add("method", "must be one of CASH, CARD, WALLET")
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "ride", ID: req.RideID}
		}
		return nil, err
	}

	if ride.PassengerID != req.PassengerID {
		return nil, &ValidationError{Fields: map[string]string{"passenger_id": "does not match the ride"}}
	}

	// One payment per ride.
	idempotencyKey := fmt.Sprintf("payment:%s", req.RideID)
	existing, err := s.paymentRepo.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	payment := &domain.Payment{
		ID:             uuid.New().String(),
		RideID:         req.RideID,
		PassengerID:    req.PassengerID,
		Amount:         roundMoney(req.Amount),
		Method:         req.Method,
		Status:         domain.PaymentStatusPending,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now(),
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	transactionID, chargeErr := s.psp.Charge(ctx, payment.Amount, payment.Method, req.CardToken)
	if chargeErr != nil {
		_ = s.paymentRepo.UpdateStatus(ctx, payment.ID, domain.PaymentStatusFailed)
		_ = s.rideRepo.UpdatePaymentStatus(ctx, req.RideID, domain.PaymentStatusFailed)
		payment.Status = domain.PaymentStatusFailed

		if s.notificationService != nil {
			_ = s.notificationService.NotifyPaymentFailed(ctx, payment)
		}
		return payment, nil
	}

	payment.TransactionID = transactionID
	payment.PaidAt = time.Now()

	if err := s.paymentRepo.RecordTransaction(ctx, payment.ID, transactionID); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, domain.PaymentStatusPaid); err != nil {
		return nil, err
	}
	if err := s.rideRepo.UpdatePaymentStatus(ctx, req.RideID, domain.PaymentStatusPaid); err != nil {
		return nil, err
	}
	payment.Status = domain.PaymentStatusPaid

	if s.notificationService != nil {
		_ = s.notificationService.NotifyPaymentSettled(ctx, payment)
	}

	return payment, nil
}

// RefundPayment reverses a PAID payment for a cancelled ride.
func (s *PaymentService) RefundPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, &ValidationError{Fields: map[string]string{"payment_id": "is required"}}
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "payment", ID: paymentID}
		}
		return nil, err
	}

	if payment.Status != domain.PaymentStatusPaid {
		return nil, ErrPaymentNotRefundable
	}

	ride, err := s.rideRepo.GetByID(ctx, payment.RideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusCancelled {
		return nil, ErrPaymentNotRefundable
	}

	if err := s.psp.Refund(ctx, payment.TransactionID); err != nil {
		return nil, err
	}

	if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, domain.PaymentStatusRefunded); err != nil {
		return nil, err
	}
	if err := s.rideRepo.UpdatePaymentStatus(ctx, payment.RideID, domain.PaymentStatusRefunded); err != nil {
		return nil, err
	}
	payment.Status = domain.PaymentStatusRefunded

	return payment, nil
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, &ValidationError{Fields: map[string]string{"payment_id": "is required"}}
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "payment", ID: paymentID}
		}
		return nil, err
	}
	return payment, nil
}

// ListPayments retrieves recent payments.
func (s *PaymentService) ListPayments(ctx context.Context) ([]*domain.Payment, error) {
	return s.paymentRepo.GetAll(ctx)
}
