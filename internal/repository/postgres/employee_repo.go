// internal/repository/postgres/employee_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"attendance-service/internal/domain/employee"
	xerrors "attendance-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type EmployeeRepository struct {
	db *DB
}

func NewEmployeeRepository(db *DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `
	id, employee_code, full_name, email, phone, department, designation,
	fingerprint_template, enrolled_at, base_latitude, base_longitude,
	is_active, notes, tags, created_at, updated_at, deleted_at
`

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID, &e.EmployeeCode, &e.FullName, &e.Email, &e.Phone, &e.Department, &e.Designation,
		&e.FingerprintTemplate, &e.EnrolledAt, &e.BaseLatitude, &e.BaseLongitude,
		&e.IsActive, &e.Notes, &e.Tags, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan employee: %w", err)
	}
	return &e, nil
}

// Create inserts a new employee
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) error {
	query := `
		INSERT INTO employees (
			employee_code, full_name, email, phone, department, designation,
			fingerprint_template, enrolled_at, base_latitude, base_longitude,
			is_active, notes, tags
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		e.EmployeeCode, e.FullName, e.Email, e.Phone, e.Department, e.Designation,
		e.FingerprintTemplate, e.EnrolledAt, e.BaseLatitude, e.BaseLongitude,
		e.IsActive, e.Notes, e.Tags,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return xerrors.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}

	return nil
}

// FindByID retrieves an employee by ID
func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 AND deleted_at IS NULL`
	return scanEmployee(r.db.QueryRow(ctx, query, id))
}

// FindByCode retrieves an employee by employee code
func (r *EmployeeRepository) FindByCode(ctx context.Context, code string) (*employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE employee_code = $1 AND deleted_at IS NULL`
	return scanEmployee(r.db.QueryRow(ctx, query, code))
}

// List returns employees matching the filter
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE deleted_at IS NULL`
	args := []interface{}{}
	argPos := 1

	if filter.Department != "" {
		query += fmt.Sprintf(" AND department = $%d", argPos)
		args = append(args, filter.Department)
		argPos++
	}
	if filter.ActiveOnly {
		query += " AND is_active = TRUE"
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (full_name ILIKE $%d OR employee_code ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	query += " ORDER BY full_name"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
		argPos++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []*employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}

	return employees, rows.Err()
}

// Update persists mutable employee fields
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) error {
	query := `
		UPDATE employees
		SET full_name = $2, email = $3, phone = $4, department = $5, designation = $6,
		    base_latitude = $7, base_longitude = $8, notes = $9, tags = $10, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		e.ID, e.FullName, e.Email, e.Phone, e.Department, e.Designation,
		e.BaseLatitude, e.BaseLongitude, e.Notes, e.Tags,
	).Scan(&e.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}

	return nil
}

// SetFingerprintTemplate stores a captured template and stamps enrollment
func (r *EmployeeRepository) SetFingerprintTemplate(ctx context.Context, id int64, template string) error {
	query := `
		UPDATE employees
		SET fingerprint_template = $2, enrolled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id, template)
	if err != nil {
		return fmt.Errorf("failed to set fingerprint template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

// SetActive toggles the active flag
func (r *EmployeeRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE employees SET is_active = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to set active flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

// SoftDelete marks an employee as deleted
func (r *EmployeeRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE employees SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

// GetStats returns aggregate employee counts
func (r *EmployeeRepository) GetStats(ctx context.Context) (*employee.EmployeeStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE fingerprint_template IS NOT NULL),
		       COUNT(DISTINCT department)
		FROM employees
		WHERE deleted_at IS NULL
	`

	var s employee.EmployeeStats
	err := r.db.QueryRow(ctx, query).Scan(
		&s.TotalEmployees, &s.ActiveEmployees, &s.EnrolledEmployees, &s.Departments,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee stats: %w", err)
	}

	return &s, nil
}
