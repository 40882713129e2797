package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"dispatch/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRideRequested  NotificationType = "RIDE_REQUESTED"
	NotificationRideAccepted   NotificationType = "RIDE_ACCEPTED"
	NotificationRideStarted    NotificationType = "RIDE_STARTED"
	NotificationRideCompleted  NotificationType = "RIDE_COMPLETED"
	NotificationRideCancelled  NotificationType = "RIDE_CANCELLED"
	NotificationPaymentSettled NotificationType = "PAYMENT_SETTLED"
	NotificationPaymentFailed  NotificationType = "PAYMENT_FAILED"
	NotificationReceiptReady   NotificationType = "RECEIPT_READY"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string // passenger or driver ID
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client (Twilio)
	// - WebSocket connections for real-time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyRideRequested notifies the driver owning the route about a new booking.
func (s *NotificationService) NotifyRideRequested(ctx context.Context, ride *domain.Ride, route *domain.Route) error {
	recipientID := ""
	routeName := ""
	if route != nil {
		recipientID = route.DriverID
		routeName = route.Name
	}
	notification := Notification{
		Type:        NotificationRideRequested,
		RecipientID: recipientID,
		Title:       "New Ride Request",
		Message:     fmt.Sprintf("New ride from %s to %s", ride.PickupLocation, ride.DropoffLocation),
		Data: map[string]interface{}{
			"ride_id":    ride.ID,
			"route_name": routeName,
			"pickup":     ride.PickupLocation,
			"dropoff":    ride.DropoffLocation,
			"fare":       ride.Fare,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRideAccepted notifies the passenger that a driver accepted the ride.
func (s *NotificationService) NotifyRideAccepted(ctx context.Context, ride *domain.Ride, driver *domain.Driver) error {
	driverName := ""
	if driver != nil {
		driverName = driver.Name
	}
	notification := Notification{
		Type:        NotificationRideAccepted,
		RecipientID: ride.PassengerID,
		Title:       "Ride Accepted",
		Message:     fmt.Sprintf("Driver %s has accepted your ride", driverName),
		Data: map[string]interface{}{
			"ride_id":     ride.ID,
			"driver_id":   ride.DriverID,
			"driver_name": driverName,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRideStarted notifies the passenger that the ride has started.
func (s *NotificationService) NotifyRideStarted(ctx context.Context, ride *domain.Ride) error {
	notification := Notification{
		Type:        NotificationRideStarted,
		RecipientID: ride.PassengerID,
		Title:       "Ride Started",
		Message:     "Your ride has started. Enjoy the trip!",
		Data: map[string]interface{}{
			"ride_id":    ride.ID,
			"started_at": ride.StartedAt,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRideCompleted notifies the passenger that the ride has ended.
func (s *NotificationService) NotifyRideCompleted(ctx context.Context, ride *domain.Ride) error {
	notification := Notification{
		Type:        NotificationRideCompleted,
		RecipientID: ride.PassengerID,
		Title:       "Ride Completed",
		Message:     fmt.Sprintf("Your ride has ended. Total fare: %.2f", ride.Fare),
		Data: map[string]interface{}{
			"ride_id":      ride.ID,
			"fare":         ride.Fare,
			"completed_at": ride.CompletedAt,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRideCancelled notifies the other party about a cancellation.
func (s *NotificationService) NotifyRideCancelled(ctx context.Context, ride *domain.Ride, cancelledBy string, reason string) error {
	var recipientID, message string
	if cancelledBy == ride.PassengerID {
		recipientID = ride.DriverID
		message = "The passenger has cancelled the ride"
	} else {
		recipientID = ride.PassengerID
		message = "The driver has cancelled the ride"
	}
	if recipientID == "" {
		return nil // no one to notify
	}

	notification := Notification{
		Type:        NotificationRideCancelled,
		RecipientID: recipientID,
		Title:       "Ride Cancelled",
		Message:     message,
		Data: map[string]interface{}{
			"ride_id":      ride.ID,
			"cancelled_by": cancelledBy,
			"reason":       reason,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyPaymentSettled notifies the passenger of a successful payment.
func (s *NotificationService) NotifyPaymentSettled(ctx context.Context, payment *domain.Payment) error {
	notification := Notification{
		Type:        NotificationPaymentSettled,
		RecipientID: payment.PassengerID,
		Title:       "Payment Successful",
		Message:     fmt.Sprintf("Payment of %.2f was successful", payment.Amount),
		Data: map[string]interface{}{
			"payment_id": payment.ID,
			"ride_id":    payment.RideID,
			"amount":     payment.Amount,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyPaymentFailed notifies the passenger of a failed payment.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, payment *domain.Payment) error {
	notification := Notification{
		Type:        NotificationPaymentFailed,
		RecipientID: payment.PassengerID,
		Title:       "Payment Failed",
		Message:     fmt.Sprintf("Payment of %.2f failed. Please try again.", payment.Amount),
		Data: map[string]interface{}{
			"payment_id": payment.ID,
			"ride_id":    payment.RideID,
			"amount":     payment.Amount,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyReceiptReady notifies the passenger that the receipt is ready.
func (s *NotificationService) NotifyReceiptReady(ctx context.Context, receipt *domain.Receipt) error {
	notification := Notification{
		Type:        NotificationReceiptReady,
		RecipientID: receipt.PassengerID,
		Title:       "Receipt Ready",
		Message:     fmt.Sprintf("Your receipt for %.2f is ready", receipt.TotalFare),
		Data: map[string]interface{}{
			"receipt_id": receipt.ID,
			"ride_id":    receipt.RideID,
			"total_fare": receipt.TotalFare,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	// In a real implementation, this would:
	// 1. Store notification in database
	// 2. Send push notification via FCM/APNS
	// 3. Broadcast via WebSocket for real-time updates

	logrus.WithFields(logrus.Fields{
		"type":      notification.Type,
		"recipient": notification.RecipientID,
		"title":     notification.Title,
	}).Info(notification.Message)

	return nil
}
