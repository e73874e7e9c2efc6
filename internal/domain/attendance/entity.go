// internal/domain/attendance/entity.go
package attendance

import (
	"database/sql"
	"time"
)

// Status is the attendance state recorded for an employee on a given day.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half_day"
)

// Valid reports whether s is one of the recognized attendance statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusHalfDay:
		return true
	}
	return false
}

// Record is one attendance mark. At most one record exists per
// (employee, date); marking again the same day updates the record in place.
type Record struct {
	ID         int64           `json:"id" db:"id"`
	EmployeeID int64           `json:"employee_id" db:"employee_id"`
	Date       time.Time       `json:"date" db:"date"` // date only, midnight UTC
	Status     Status          `json:"status" db:"status"`
	CheckInAt  sql.NullTime    `json:"check_in_at,omitempty" db:"check_in_at"`
	Latitude   sql.NullFloat64 `json:"latitude,omitempty" db:"latitude"`
	Longitude  sql.NullFloat64 `json:"longitude,omitempty" db:"longitude"`
	Note       sql.NullString  `json:"note,omitempty" db:"note"`
	MarkedBy   int64           `json:"marked_by" db:"marked_by"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// DaySummary aggregates one day's marks across all active employees.
type DaySummary struct {
	Date     time.Time `json:"date"`
	Present  int64     `json:"present"`
	Absent   int64     `json:"absent"`
	Late     int64     `json:"late"`
	HalfDay  int64     `json:"half_day"`
	Unmarked int64     `json:"unmarked"`
	Total    int64     `json:"total"`
}

// EmployeeMonthSummary aggregates one employee's marks over a month.
type EmployeeMonthSummary struct {
	EmployeeID   int64  `json:"employee_id"`
	EmployeeCode string `json:"employee_code"`
	FullName     string `json:"full_name"`
	Department   string `json:"department"`
	Present      int64  `json:"present"`
	Absent       int64  `json:"absent"`
	Late         int64  `json:"late"`
	HalfDay      int64  `json:"half_day"`
	DaysMarked   int64  `json:"days_marked"`
}

// DepartmentSummary aggregates a day's marks per department.
type DepartmentSummary struct {
	Department string `json:"department"`
	Present    int64  `json:"present"`
	Absent     int64  `json:"absent"`
	Late       int64  `json:"late"`
	HalfDay    int64  `json:"half_day"`
	Employees  int64  `json:"employees"`
}
