package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// PassengerService handles passenger registration and lookup.
type PassengerService struct {
	passengerRepo repository.PassengerRepository
}

// NewPassengerService creates a new PassengerService.
func NewPassengerService(passengerRepo repository.PassengerRepository) *PassengerService {
	return &PassengerService{passengerRepo: passengerRepo}
}

// RegisterPassengerRequest contains the parameters for registering a passenger.
type RegisterPassengerRequest struct {
	Name  string
	Phone string
}

// RegisterPassenger creates a new passenger account.
func (s *PassengerService) RegisterPassenger(ctx context.Context, req RegisterPassengerRequest) (*domain.Passenger, error) {
	fields := fieldErrors{}
	if req.Name == "" {
		fields.add("name", "is required")
	}
	if req.Phone == "" {
		fields.add("phone", "is required")
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	existing, err := s.passengerRepo.GetByPhone(ctx, req.Phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, &ValidationError{Fields: map[string]string{"phone": "is already registered"}}
	}

	passenger := &domain.Passenger{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		CreatedAt: time.Now(),
	}

	if err := s.passengerRepo.Create(ctx, passenger); err != nil {
		return nil, err
	}
	return passenger, nil
}

// GetPassenger retrieves a passenger by ID.
func (s *PassengerService) GetPassenger(ctx context.Context, passengerID string) (*domain.Passenger, error) {
	if passengerID == "" {
		return nil, &ValidationError{Fields: map[string]string{"passenger_id": "is required"}}
	}

	passenger, err := s.passengerRepo.GetByID(ctx, passengerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "passenger", ID: passengerID}
		}
		return nil, err
	}
	return passenger, nil
}

// ListPassengers retrieves all passengers.
func (s *PassengerService) ListPassengers(ctx context.Context) ([]*domain.Passenger, error) {
	return s.passengerRepo.GetAll(ctx)
}
