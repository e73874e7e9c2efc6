// internal/repository/postgres/attendance_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance-service/internal/domain/attendance"
	xerrors "attendance-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type AttendanceRepository struct {
	db *DB
}

func NewAttendanceRepository(db *DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `
	id, employee_id, date, status, check_in_at, latitude, longitude,
	note, marked_by, created_at, updated_at
`

func scanRecord(row pgx.Row) (*attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.Status, &rec.CheckInAt,
		&rec.Latitude, &rec.Longitude, &rec.Note, &rec.MarkedBy,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan attendance record: %w", err)
	}
	return &rec, nil
}

const upsertRecordQuery = `
	INSERT INTO attendance_records (
		employee_id, date, status, check_in_at, latitude, longitude, note, marked_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (employee_id, date) DO UPDATE
	SET status = EXCLUDED.status,
	    check_in_at = EXCLUDED.check_in_at,
	    latitude = EXCLUDED.latitude,
	    longitude = EXCLUDED.longitude,
	    note = EXCLUDED.note,
	    marked_by = EXCLUDED.marked_by,
	    updated_at = NOW()
	RETURNING id, created_at, updated_at
`

// Upsert inserts or replaces the mark for (employee, date)
func (r *AttendanceRepository) Upsert(ctx context.Context, rec *attendance.Record) error {
	err := r.db.QueryRow(
		ctx, upsertRecordQuery,
		rec.EmployeeID, rec.Date, rec.Status, rec.CheckInAt,
		rec.Latitude, rec.Longitude, rec.Note, rec.MarkedBy,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert attendance record: %w", err)
	}

	return nil
}

// UpsertMany writes a batch of marks in one transaction so a bulk mark
// never half-applies.
func (r *AttendanceRepository) UpsertMany(ctx context.Context, recs []*attendance.Record) error {
	if len(recs) == 0 {
		return nil
	}

	return r.db.WithinTx(ctx, func(tx pgx.Tx) error {
		for _, rec := range recs {
			err := tx.QueryRow(
				ctx, upsertRecordQuery,
				rec.EmployeeID, rec.Date, rec.Status, rec.CheckInAt,
				rec.Latitude, rec.Longitude, rec.Note, rec.MarkedBy,
			).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to upsert record for employee %d: %w", rec.EmployeeID, err)
			}
		}
		return nil
	})
}

// ListByDate returns all marks for one day
func (r *AttendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]*attendance.Record, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE date = $1 ORDER BY employee_id`

	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance by date: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListByEmployee returns an employee's marks in a date range
func (r *AttendanceRepository) ListByEmployee(ctx context.Context, employeeID int64, from, to time.Time) ([]*attendance.Record, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`

	rows, err := r.db.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance by employee: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// Delete removes a single mark
func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// DaySummary aggregates one day's marks across active employees
func (r *AttendanceRepository) DaySummary(ctx context.Context, date time.Time) (*attendance.DaySummary, error) {
	query := `
		SELECT
			COUNT(ar.id) FILTER (WHERE ar.status = 'present'),
			COUNT(ar.id) FILTER (WHERE ar.status = 'absent'),
			COUNT(ar.id) FILTER (WHERE ar.status = 'late'),
			COUNT(ar.id) FILTER (WHERE ar.status = 'half_day'),
			COUNT(e.id) FILTER (WHERE ar.id IS NULL),
			COUNT(e.id)
		FROM employees e
		LEFT JOIN attendance_records ar ON ar.employee_id = e.id AND ar.date = $1
		WHERE e.deleted_at IS NULL AND e.is_active
	`

	s := attendance.DaySummary{Date: date}
	err := r.db.QueryRow(ctx, query, date).Scan(
		&s.Present, &s.Absent, &s.Late, &s.HalfDay, &s.Unmarked, &s.Total,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get day summary: %w", err)
	}

	return &s, nil
}

// MonthSummary aggregates per-employee marks for one month
func (r *AttendanceRepository) MonthSummary(ctx context.Context, year int, month time.Month) ([]*attendance.EmployeeMonthSummary, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	query := `
		SELECT e.id, e.employee_code, e.full_name, e.department,
			COUNT(ar.id) FILTER (WHERE ar.status = 'present'),
			COUNT(ar.id) FILTER (WHERE ar.status = 'absent'),
			COUNT(ar.id) FILTER (WHERE ar.status = 'late'),
			COUNT(ar.id) FILTER (WHERE ar.status = 'half_day'),
			COUNT(ar.id)
		FROM employees e
		LEFT JOIN attendance_records ar
			ON ar.employee_id = e.id AND ar.date >= $1 AND ar.date <= $2
		WHERE e.deleted_at IS NULL AND e.is_active
		GROUP BY e.id, e.employee_code, e.full_name, e.department
		ORDER BY e.full_name
	`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get month summary: %w", err)
	}
	defer rows.Close()

	var summaries []*attendance.EmployeeMonthSummary
	for rows.Next() {
		var s attendance.EmployeeMonthSummary
		if err := rows.Scan(
			&s.EmployeeID, &s.EmployeeCode, &s.FullName, &s.Department,
			&s.Present, &s.Absent, &s.Late, &s.HalfDay, &s.DaysMarked,
		); err != nil {
			return nil, fmt.Errorf("failed to scan month summary: %w", err)
		}
		summaries = append(summaries, &s)
	}

	return summaries, rows.Err()
}

// DepartmentSummary aggregates one day's marks per department
func (r *AttendanceRepository) DepartmentSummary(ctx context.Context, date time.Time) ([]*attendance.DepartmentSummary, error) {
	query := `
		SELECT e.department,
			COUNT(ar.id) FILTER (WHERE ar.status = 'present'),
			COUNT(ar.id) FILTER (WHERE ar.status = 'absent'),
			COUNT(ar.id) FILTER (WHERE ar.status = 'late'),
			COUNT(ar.id) FILTER (WHERE ar.status = 'half_day'),
			COUNT(e.id)
		FROM employees e
		LEFT JOIN attendance_records ar ON ar.employee_id = e.id AND ar.date = $1
		WHERE e.deleted_at IS NULL AND e.is_active
		GROUP BY e.department
		ORDER BY e.department
	`

	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get department summary: %w", err)
	}
	defer rows.Close()

	var summaries []*attendance.DepartmentSummary
	for rows.Next() {
		var s attendance.DepartmentSummary
		if err := rows.Scan(
			&s.Department, &s.Present, &s.Absent, &s.Late, &s.HalfDay, &s.Employees,
		); err != nil {
			return nil, fmt.Errorf("failed to scan department summary: %w", err)
		}
		summaries = append(summaries, &s)
	}

	return summaries, rows.Err()
}

func collectRecords(rows pgx.Rows) ([]*attendance.Record, error) {
	var records []*attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
