package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// PassengerRepository is a PostgreSQL implementation of repository.PassengerRepository.
type PassengerRepository struct {
	q Querier
}

// NewPassengerRepository creates a new PostgreSQL passenger repository.
func NewPassengerRepository(db *sql.DB) *PassengerRepository {
	return &PassengerRepository{q: db}
}

// Create persists a new passenger.
func (r *PassengerRepository) Create(ctx context.Context, passenger *domain.Passenger) error {
	query := `
		INSERT INTO passengers (id, name, phone, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		passenger.ID,
		passenger.Name,
		passenger.Phone,
		passenger.CreatedAt,
	)

	return err
}

// GetByID retrieves a passenger by ID.
func (r *PassengerRepository) GetByID(ctx context.Context, id string) (*domain.Passenger, error) {
	query := `SELECT id, name, phone, created_at FROM passengers WHERE id = $1`

	var passenger domain.Passenger
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&passenger.ID,
		&passenger.Name,
		&passenger.Phone,
		&passenger.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &passenger, nil
}

// GetByPhone retrieves a passenger by phone number.
func (r *PassengerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Passenger, error) {
	query := `SELECT id, name, phone, created_at FROM passengers WHERE phone = $1`

	var passenger domain.Passenger
	err := r.q.QueryRowContext(ctx, query, phone).Scan(
		&passenger.ID,
		&passenger.Name,
		&passenger.Phone,
		&passenger.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &passenger, nil
}

// GetAll retrieves all passengers.
func (r *PassengerRepository) GetAll(ctx context.Context) ([]*domain.Passenger, error) {
	query := `SELECT id, name, phone, created_at FROM passengers ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passengers []*domain.Passenger
	for rows.Next() {
		var passenger domain.Passenger
		if err := rows.Scan(
			&passenger.ID,
			&passenger.Name,
			&passenger.Phone,
			&passenger.CreatedAt,
		); err != nil {
			return nil, err
		}
		passengers = append(passengers, &passenger)
	}
	return passengers, rows.Err()
}

// Ensure PassengerRepository implements repository.PassengerRepository.
var _ repository.PassengerRepository = (*PassengerRepository)(nil)
