package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
)

// ReceiptService handles receipt generation for completed rides.
type ReceiptService struct {
	notificationService *NotificationService
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(notificationService *NotificationService) *ReceiptService {
	return &ReceiptService{
		notificationService: notificationService,
	}
}

// GenerateReceipt builds a receipt for a completed ride. When the ride was
// booked on a route whose stop table covers both endpoints, the fare
// breakdown is recomputed from the route. Otherwise the receipt carries the
// ride's stored fare with the base taken from the route (or zero for
// point-to-point rides priced off a flat tariff).
func (s *ReceiptService) GenerateReceipt(ctx context.Context, ride *domain.Ride, route *domain.Route, payment *domain.Payment) (*domain.Receipt, error) {
	if ride == nil {
		return nil, &ValidationError{Fields: map[string]string{"ride": "is required"}}
	}

	var (
		routeName       string
		baseFare        float64
		segmentFare     float64
		extraStopAmount float64
	)
	if route != nil {
		routeName = route.Name
		baseFare = route.BaseFare
		segmentFare = ride.Fare - route.BaseFare
		if segmentFare < 0 {
			segmentFare = 0
		}

		pickupPos, pickupOK := route.PositionOf(ride.PickupLocation)
		dropoffPos, dropoffOK := route.PositionOf(ride.DropoffLocation)
		if pickupOK && dropoffOK {
			if breakdown, err := ComputeFare(route, pickupPos, dropoffPos, ride.DistanceKm, ride.DurationMultiplier); err == nil {
				segmentFare = breakdown.SegmentFare
				extraStopAmount = breakdown.ExtraStopAmount
			}
		}
	}

	paymentStatus := ride.PaymentStatus
	if payment != nil {
		paymentStatus = payment.Status
	}

	completedAt := ride.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	receipt := &domain.Receipt{
		ID:                 uuid.New().String(),
		RideID:             ride.ID,
		DriverID:           ride.DriverID,
		PassengerID:        ride.PassengerID,
		RouteName:          routeName,
		PickupLocation:     ride.PickupLocation,
		DropoffLocation:    ride.DropoffLocation,
		BaseFare:           roundMoney(baseFare),
		SegmentFare:        roundMoney(segmentFare),
		ExtraStopAmount:    roundMoney(extraStopAmount),
		DurationMultiplier: ride.DurationMultiplier,
		TotalFare:          ride.Fare,
		DistanceKm:         ride.DistanceKm,
		PaymentMethod:      ride.PaymentMethod,
		PaymentStatus:      paymentStatus,
		BookedAt:           ride.BookedAt,
		CompletedAt:        completedAt,
		CreatedAt:          time.Now(),
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyReceiptReady(ctx, receipt)
	}

	return receipt, nil
}

// FormatReceipt formats the receipt as a string (for email/print).
func (s *ReceiptService) FormatReceipt(receipt *domain.Receipt) string {
	return `
=====================================
        RIDE RECEIPT
=====================================
Receipt ID: ` + receipt.ID + `
Ride ID: ` + receipt.RideID + `
Date: ` + receipt.CreatedAt.Format("Jan 02, 2006 3:04 PM") + `

TRIP DETAILS
-------------------------------------
Route:    ` + receipt.RouteName + `
Pickup:   ` + receipt.PickupLocation + `
Dropoff:  ` + receipt.DropoffLocation + `
Distance: ` + formatFloat(receipt.DistanceKm) + ` km

FARE BREAKDOWN
-------------------------------------
Base Fare:        ` + formatFloat(receipt.BaseFare) + `
Segment Fare:     ` + formatFloat(receipt.SegmentFare) + `
Extra Stops:      ` + formatFloat(receipt.ExtraStopAmount) + `
Multiplier:       ` + formatFloat(receipt.DurationMultiplier) + `x
-------------------------------------
TOTAL:            ` + formatFloat(receipt.TotalFare) + `

PAYMENT
-------------------------------------
Method: ` + string(receipt.PaymentMethod) + `
Status: ` + string(receipt.PaymentStatus) + `

=====================================
     Thank you for riding with us!
=====================================
`
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
