// internal/domain/employee/entity.go
package employee

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Employee represents an enrolled employee with biometric template and
// base GPS coordinates used for location-aware attendance marking.
type Employee struct {
	ID           int64          `json:"id" db:"id"`
	EmployeeCode string         `json:"employee_code" db:"employee_code"`
	FullName     string         `json:"full_name" db:"full_name"`
	Email        sql.NullString `json:"email,omitempty" db:"email"`
	Phone        sql.NullString `json:"phone,omitempty" db:"phone"`
	Department   string         `json:"department" db:"department"`
	Designation  sql.NullString `json:"designation,omitempty" db:"designation"`

	// Biometric enrollment. The template is an opaque string produced by the
	// capture device; this service never interprets it.
	FingerprintTemplate sql.NullString `json:"-" db:"fingerprint_template"`
	EnrolledAt          sql.NullTime   `json:"enrolled_at,omitempty" db:"enrolled_at"`

	// Base location assigned at enrollment
	BaseLatitude  sql.NullFloat64 `json:"base_latitude,omitempty" db:"base_latitude"`
	BaseLongitude sql.NullFloat64 `json:"base_longitude,omitempty" db:"base_longitude"`

	IsActive bool           `json:"is_active" db:"is_active"`
	Notes    sql.NullString `json:"notes,omitempty" db:"notes"`
	Tags     pq.StringArray `json:"tags,omitempty" db:"tags"`

	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
	DeletedAt sql.NullTime `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsEnrolled reports whether a fingerprint template has been captured.
func (e *Employee) IsEnrolled() bool {
	return e.FingerprintTemplate.Valid && e.FingerprintTemplate.String != ""
}

type EmployeeStats struct {
	TotalEmployees    int64 `json:"total_employees"`
	ActiveEmployees   int64 `json:"active_employees"`
	EnrolledEmployees int64 `json:"enrolled_employees"`
	Departments       int64 `json:"departments"`
}
