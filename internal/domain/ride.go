package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusPending    RideStatus = "PENDING"
	RideStatusAccepted   RideStatus = "ACCEPTED"
	RideStatusInProgress RideStatus = "IN_PROGRESS"
	RideStatusCompleted  RideStatus = "COMPLETED"
	RideStatusCancelled  RideStatus = "CANCELLED"
)

// validTransitions is the authoritative lifecycle table. COMPLETED and
// CANCELLED have no outgoing edges.
var validTransitions = map[RideStatus][]RideStatus{
	RideStatusPending:    {RideStatusAccepted, RideStatusCancelled},
	RideStatusAccepted:   {RideStatusInProgress, RideStatusCancelled},
	RideStatusInProgress: {RideStatusCompleted},
}

// CanTransitionTo reports whether the lifecycle permits moving to target.
func (s RideStatus) CanTransitionTo(target RideStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s RideStatus) Terminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// PaymentStatus represents the settlement state of a ride or payment.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

// PaymentMethod represents how a ride is settled.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodWallet PaymentMethod = "WALLET"
)

// Ride represents a single passenger transport request. Fare is fixed at
// creation time and never recomputed afterwards.
type Ride struct {
	ID                 string
	PassengerID        string
	DriverID           string // empty until a driver accepts
	RouteID            string // empty for point-to-point rides
	PickupLocation     string
	DropoffLocation    string
	DistanceKm         float64
	Duration           string
	DurationMultiplier float64
	Fare               float64
	Status             RideStatus
	PaymentStatus      PaymentStatus
	PaymentMethod      PaymentMethod
	BookedAt           time.Time
	PickupDateTime     time.Time
	AcceptedAt         time.Time
	StartedAt          time.Time
	CompletedAt        time.Time
	CancelledAt        time.Time
	CancelledBy        string
	CancelReason       string
}
