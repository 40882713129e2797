package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

const driverColumns = `id, name, phone, status, approval_status,
		vehicle_type, vehicle_model, vehicle_plate, vehicle_year, vehicle_color, created_at`

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

// Create persists a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (` + driverColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	approval := driver.ApprovalStatus
	if approval == "" {
		approval = domain.ApprovalStatusPending
	}

	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.Name,
		driver.Phone,
		driver.Status,
		approval,
		nullString(driver.Vehicle.Type),
		nullString(driver.Vehicle.Model),
		nullString(driver.Vehicle.PlateNumber),
		nullString(driver.Vehicle.Year),
		nullString(driver.Vehicle.Color),
		driver.CreatedAt,
	)

	return err
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`

	driver, err := scanDriver(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return driver, nil
}

// GetByPhone retrieves a driver by phone number.
func (r *DriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE phone = $1`

	driver, err := scanDriver(r.q.QueryRowContext(ctx, query, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return driver, nil
}

// GetAll retrieves all drivers.
func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

// Update replaces a driver's profile fields.
func (r *DriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	query := `
		UPDATE drivers
		SET name = $1, phone = $2, vehicle_type = $3, vehicle_model = $4,
			vehicle_plate = $5, vehicle_year = $6, vehicle_color = $7
		WHERE id = $8
	`

	result, err := r.q.ExecContext(ctx, query,
		driver.Name,
		driver.Phone,
		nullString(driver.Vehicle.Type),
		nullString(driver.Vehicle.Model),
		nullString(driver.Vehicle.PlateNumber),
		nullString(driver.Vehicle.Year),
		nullString(driver.Vehicle.Color),
		driver.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// UpdateStatus updates a driver's status.
func (r *DriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	result, err := r.q.ExecContext(ctx, `UPDATE drivers SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// UpdateApprovalStatus updates a driver's approval status.
func (r *DriverRepository) UpdateApprovalStatus(ctx context.Context, id string, status domain.ApprovalStatus) error {
	result, err := r.q.ExecContext(ctx, `UPDATE drivers SET approval_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var driver domain.Driver
	var vType, vModel, vPlate, vYear, vColor sql.NullString

	err := row.Scan(
		&driver.ID,
		&driver.Name,
		&driver.Phone,
		&driver.Status,
		&driver.ApprovalStatus,
		&vType,
		&vModel,
		&vPlate,
		&vYear,
		&vColor,
		&driver.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	driver.Vehicle = domain.Vehicle{
		Type:        vType.String,
		Model:       vModel.String,
		PlateNumber: vPlate.String,
		Year:        vYear.String,
		Color:       vColor.String,
	}

	return &driver, nil
}

// Ensure DriverRepository implements repository.DriverRepository.
var _ repository.DriverRepository = (*DriverRepository)(nil)
