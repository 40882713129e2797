package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

const paymentColumns = `id, ride_id, passenger_id, amount, method, status, transaction_id, idempotency_key, paid_at, created_at`

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.RideID,
		payment.PassengerID,
		payment.Amount,
		payment.Method,
		payment.Status,
		nullString(payment.TransactionID),
		payment.IdempotencyKey,
		nullTime(payment.PaidAt),
		payment.CreatedAt,
	)

	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return payment, nil
}

// GetByIdempotencyKey retrieves a payment by its idempotency key.
// Returns nil when no payment exists for the key.
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}

// GetAll retrieves recent payments.
func (r *PaymentRepository) GetAll(ctx context.Context) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// UpdateStatus updates the status of a payment.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	query := `UPDATE payments SET status = $1, paid_at = CASE WHEN $1 = 'PAID' THEN NOW() ELSE paid_at END WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RecordTransaction stores the provider transaction reference on a payment.
func (r *PaymentRepository) RecordTransaction(ctx context.Context, id, transactionID string) error {
	query := `UPDATE payments SET transaction_id = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, transactionID, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var payment domain.Payment
	var transactionID sql.NullString
	var paidAt sql.NullTime

	err := row.Scan(
		&payment.ID,
		&payment.RideID,
		&payment.PassengerID,
		&payment.Amount,
		&payment.Method,
		&payment.Status,
		&transactionID,
		&payment.IdempotencyKey,
		&paidAt,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	payment.TransactionID = transactionID.String
	payment.PaidAt = paidAt.Time

	return &payment, nil
}

// Ensure PaymentRepository implements repository.PaymentRepository.
var _ repository.PaymentRepository = (*PaymentRepository)(nil)
