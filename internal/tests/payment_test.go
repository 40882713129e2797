package tests

import (
	"context"
	"errors"
	"testing"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func newPaymentService(paymentRepo *MockPaymentRepository, rideRepo *MockRideRepository, psp *MockPSP) *service.PaymentService {
	return service.NewPaymentService(paymentRepo, rideRepo, psp, service.NewNotificationService())
}

func completedRide(id string) *domain.Ride {
	ride := pendingRide(id)
	ride.Status = domain.RideStatusCompleted
	ride.DriverID = "driver-1"
	return ride
}

func TestProcessPayment_SettlesRide(t *testing.T) {
	ctx := context.Background()
	paymentRepo := NewMockPaymentRepository()
	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(completedRide("ride-1"))
	psp := &MockPSP{}

	svc := newPaymentService(paymentRepo, rideRepo, psp)

	payment, err := svc.ProcessPayment(ctx, service.ProcessPaymentRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Amount:      210,
		Method:      domain.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if payment.Status != domain.PaymentStatusPaid {
		t.Errorf("expected PAID, got %s", payment.Status)
	}
	if payment.TransactionID == "" {
		t.Error("expected a provider transaction id")
	}
	if rideRepo.GetRide("ride-1").PaymentStatus != domain.PaymentStatusPaid {
		t.Error("ride payment status not updated")
	}
}

func TestProcessPayment_RepeatDoesNotChargeTwice(t *testing.T) {
	ctx := context.Background()
	paymentRepo := NewMockPaymentRepository()
	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(completedRide("ride-1"))
	psp := &MockPSP{}

	svc := newPaymentService(paymentRepo, rideRepo, psp)

	req := service.ProcessPaymentRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Amount:      210,
		Method:      domain.PaymentMethodCash,
	}

	first, err := svc.ProcessPayment(ctx, req)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.ProcessPayment(ctx, req)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected the same payment, got %s and %s", first.ID, second.ID)
	}
	if psp.ChargeCallCount != 1 {
		t.Errorf("expected 1 charge, got %d", psp.ChargeCallCount)
	}
	if paymentRepo.CreateCallCount != 1 {
		t.Errorf("expected 1 payment row, got %d", paymentRepo.CreateCallCount)
	}
}

func TestProcessPayment_ProviderFailureIsTerminal(t *testing.T) {
	ctx := context.Background()
	paymentRepo := NewMockPaymentRepository()
	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(completedRide("ride-1"))
	psp := &MockPSP{ChargeError: errors.New("card declined")}

	svc := newPaymentService(paymentRepo, rideRepo, psp)

	payment, err := svc.ProcessPayment(ctx, service.ProcessPaymentRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Amount:      210,
		Method:      domain.PaymentMethodCard,
		CardToken:   "tok_visa",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if payment.Status != domain.PaymentStatusFailed {
		t.Errorf("expected FAILED, got %s", payment.Status)
	}
	if rideRepo.GetRide("ride-1").PaymentStatus != domain.PaymentStatusFailed {
		t.Error("ride payment status not marked FAILED")
	}
}

func TestProcessPayment_CardRequiresToken(t *testing.T) {
	ctx := context.Background()
	svc := newPaymentService(NewMockPaymentRepository(), NewMockRideRepository(), &MockPSP{})

	_, err := svc.ProcessPayment(ctx, service.ProcessPaymentRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Amount:      210,
		Method:      domain.PaymentMethodCard,
	})
	var validation *service.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := validation.Fields["card_token"]; !ok {
		t.Errorf("expected card_token among failures: %v", validation.Fields)
	}
}

func TestRefundPayment_RequiresPaidAndCancelled(t *testing.T) {
	ctx := context.Background()
	paymentRepo := NewMockPaymentRepository()
	rideRepo := NewMockRideRepository()
	psp := &MockPSP{}
	svc := newPaymentService(paymentRepo, rideRepo, psp)

	rideRepo.AddRide(completedRide("ride-1"))

	payment, err := svc.ProcessPayment(ctx, service.ProcessPaymentRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Amount:      210,
		Method:      domain.PaymentMethodWallet,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	// Ride is COMPLETED, not CANCELLED: refund must refuse.
	_, err = svc.RefundPayment(ctx, payment.ID)
	if !errors.Is(err, service.ErrPaymentNotRefundable) {
		t.Fatalf("expected ErrPaymentNotRefundable, got %v", err)
	}
	if psp.RefundCallCount != 0 {
		t.Error("provider refund called for a non-refundable payment")
	}

	// After cancellation the refund goes through.
	rideRepo.GetRide("ride-1").Status = domain.RideStatusCancelled
	refunded, err := svc.RefundPayment(ctx, payment.ID)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.Status != domain.PaymentStatusRefunded {
		t.Errorf("expected REFUNDED, got %s", refunded.Status)
	}
	if rideRepo.GetRide("ride-1").PaymentStatus != domain.PaymentStatusRefunded {
		t.Error("ride payment status not marked REFUNDED")
	}
}

func TestRefundPayment_UnpaidPayment(t *testing.T) {
	ctx := context.Background()
	paymentRepo := NewMockPaymentRepository()
	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(completedRide("ride-1"))
	psp := &MockPSP{ChargeError: errors.New("card declined")}
	svc := newPaymentService(paymentRepo, rideRepo, psp)

	payment, err := svc.ProcessPayment(ctx, service.ProcessPaymentRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Amount:      210,
		Method:      domain.PaymentMethodCard,
		CardToken:   "tok_visa",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	_, err = svc.RefundPayment(ctx, payment.ID)
	if !errors.Is(err, service.ErrPaymentNotRefundable) {
		t.Fatalf("expected ErrPaymentNotRefundable for a FAILED payment, got %v", err)
	}
}
