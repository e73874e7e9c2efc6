// internal/domain/employee/dto.go
package employee

// CreateEmployeeRequest for enrolling a new employee
type CreateEmployeeRequest struct {
	EmployeeCode        string   `json:"employee_code" binding:"required"`
	FullName            string   `json:"full_name" binding:"required"`
	Email               string   `json:"email" binding:"omitempty,email"`
	Phone               string   `json:"phone"`
	Department          string   `json:"department" binding:"required"`
	Designation         string   `json:"designation"`
	FingerprintTemplate string   `json:"fingerprint_template"`
	BaseLatitude        *float64 `json:"base_latitude"`
	BaseLongitude       *float64 `json:"base_longitude"`
	Notes               string   `json:"notes"`
	Tags                []string `json:"tags"`
}

// UpdateEmployeeRequest for partial employee updates
type UpdateEmployeeRequest struct {
	FullName      *string  `json:"full_name"`
	Email         *string  `json:"email"`
	Phone         *string  `json:"phone"`
	Department    *string  `json:"department"`
	Designation   *string  `json:"designation"`
	BaseLatitude  *float64 `json:"base_latitude"`
	BaseLongitude *float64 `json:"base_longitude"`
	Notes         *string  `json:"notes"`
	Tags          []string `json:"tags"`
}

// EnrollFingerprintRequest attaches a captured template to an employee
type EnrollFingerprintRequest struct {
	FingerprintTemplate string `json:"fingerprint_template" binding:"required"`
}

// ListEmployeesFilter narrows employee listings
type ListEmployeesFilter struct {
	Department string
	ActiveOnly bool
	Search     string
	Limit      int
	Offset     int
}
