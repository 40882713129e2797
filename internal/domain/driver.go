package domain

import "time"

// DriverStatus represents the current status of a driver.
type DriverStatus string

const (
	DriverStatusOnline  DriverStatus = "ONLINE"
	DriverStatusOffline DriverStatus = "OFFLINE"
	DriverStatusOnRide  DriverStatus = "ON_RIDE"
)

// ApprovalStatus represents where a driver stands in the admin review flow.
// Only APPROVED drivers should be offered rides.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// Vehicle describes a driver's registered vehicle. It has no identity of its
// own; every driver carries at most one.
type Vehicle struct {
	Type        string
	Model       string
	PlateNumber string
	Year        string
	Color       string
}

// Registered reports whether any vehicle details have been provided.
func (v Vehicle) Registered() bool {
	return v != Vehicle{}
}

// Driver represents a driver in the system.
type Driver struct {
	ID             string
	Name           string
	Phone          string
	Status         DriverStatus
	ApprovalStatus ApprovalStatus
	Vehicle        Vehicle
	CreatedAt      time.Time
}
