package domain

import "time"

// Payment settles exactly one ride. Once its status reaches PAID, FAILED or
// REFUNDED it is immutable except for the PAID→REFUNDED edge.
type Payment struct {
	ID             string
	RideID         string
	PassengerID    string
	Amount         float64
	Method         PaymentMethod
	Status         PaymentStatus
	TransactionID  string
	IdempotencyKey string
	PaidAt         time.Time
	CreatedAt      time.Time
}

// Receipt is the fare breakdown handed to passenger and driver after a ride
// completes.
type Receipt struct {
	ID                 string
	RideID             string
	DriverID           string
	PassengerID        string
	RouteName          string
	PickupLocation     string
	DropoffLocation    string
	BaseFare           float64
	SegmentFare        float64
	ExtraStopAmount    float64
	DurationMultiplier float64
	TotalFare          float64
	DistanceKm         float64
	PaymentMethod      PaymentMethod
	PaymentStatus      PaymentStatus
	BookedAt           time.Time
	CompletedAt        time.Time
	CreatedAt          time.Time
}
