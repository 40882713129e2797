package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"dispatch/internal/domain"
)

// ValidationError reports every invalid field of a request, keyed by field
// name. Callers fix their input and retry.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// fieldErrors accumulates per-field validation failures.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	f[field] = msg
}

// err returns a ValidationError when any field failed, nil otherwise.
func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// NotFoundError is returned when a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidTransitionError is returned when a ride lifecycle transition is
// attempted from a state that does not permit it.
type InvalidTransitionError struct {
	RideID string
	From   domain.RideStatus
	To     domain.RideStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("ride %s: invalid transition %s -> %s", e.RideID, e.From, e.To)
}

// RideUnavailableError is returned when an accept attempt loses the race for
// a ride, or the ride is already held or terminal. These are normal dispatch
// outcomes, not system errors.
type RideUnavailableError struct {
	RideID string
	Status domain.RideStatus
}

func (e *RideUnavailableError) Error() string {
	return fmt.Sprintf("ride %s no longer available (status %s)", e.RideID, e.Status)
}

// InvalidRouteSegmentError is returned when a fare is requested for an
// impossible pickup/dropoff pair.
type InvalidRouteSegmentError struct {
	RouteID string
	Pickup  int
	Dropoff int
	Reason  string
}

func (e *InvalidRouteSegmentError) Error() string {
	return fmt.Sprintf("route %s: invalid segment %d -> %d: %s", e.RouteID, e.Pickup, e.Dropoff, e.Reason)
}

var (
	// ErrPaymentNotRefundable is returned when a refund is requested for a
	// payment that is not PAID or whose ride was not cancelled.
	ErrPaymentNotRefundable = errors.New("payment not refundable")

	// ErrInvalidPaymentMethod is returned when a payment method string is not
	// one of CASH, CARD or WALLET.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// ValidatePaymentMethod validates a payment method string. Empty defaults to
// CASH.
func ValidatePaymentMethod(method string) (domain.PaymentMethod, error) {
	switch domain.PaymentMethod(method) {
	case domain.PaymentMethodCash, domain.PaymentMethodCard, domain.PaymentMethodWallet:
		return domain.PaymentMethod(method), nil
	case "":
		return domain.PaymentMethodCash, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}
