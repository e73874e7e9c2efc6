// internal/service/employee/employee.go
package employee

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"attendance-service/internal/domain/employee"
	"attendance-service/internal/repository/postgres"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type EmployeeService struct {
	employeeRepo *postgres.EmployeeRepository
	logger       *zap.Logger
}

func NewEmployeeService(employeeRepo *postgres.EmployeeRepository, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{
		employeeRepo: employeeRepo,
		logger:       logger,
	}
}

// ValidateCoordinates checks latitude/longitude ranges. Both must be given
// together or not at all.
func ValidateCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return fmt.Errorf("latitude and longitude must be provided together")
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 {
		return fmt.Errorf("latitude out of range: %f", *lat)
	}
	if *lng < -180 || *lng > 180 {
		return fmt.Errorf("longitude out of range: %f", *lng)
	}
	return nil
}

// CreateEmployee enrolls a new employee
func (s *EmployeeService) CreateEmployee(ctx context.Context, req *employee.CreateEmployeeRequest) (*employee.Employee, error) {
	code := strings.TrimSpace(req.EmployeeCode)
	if code == "" {
		return nil, fmt.Errorf("employee code is required")
	}
	if strings.TrimSpace(req.FullName) == "" {
		return nil, fmt.Errorf("full name is required")
	}
	if err := ValidateCoordinates(req.BaseLatitude, req.BaseLongitude); err != nil {
		return nil, err
	}

	e := &employee.Employee{
		EmployeeCode: code,
		FullName:     strings.TrimSpace(req.FullName),
		Email:        nullString(req.Email),
		Phone:        nullString(req.Phone),
		Department:   strings.TrimSpace(req.Department),
		Designation:  nullString(req.Designation),
		IsActive:     true,
		Notes:        nullString(req.Notes),
		Tags:         pq.StringArray(req.Tags),
	}

	if req.FingerprintTemplate != "" {
		e.FingerprintTemplate = nullString(req.FingerprintTemplate)
		e.EnrolledAt = sql.NullTime{Time: time.Now(), Valid: true}
	}
	if req.BaseLatitude != nil {
		e.BaseLatitude = sql.NullFloat64{Float64: *req.BaseLatitude, Valid: true}
		e.BaseLongitude = sql.NullFloat64{Float64: *req.BaseLongitude, Valid: true}
	}

	if err := s.employeeRepo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info("employee enrolled",
		zap.String("employee_code", e.EmployeeCode),
		zap.String("department", e.Department),
	)

	return e, nil
}

// GetEmployee retrieves one employee
func (s *EmployeeService) GetEmployee(ctx context.Context, id int64) (*employee.Employee, error) {
	return s.employeeRepo.FindByID(ctx, id)
}

// GetEmployeeByCode retrieves one employee by code
func (s *EmployeeService) GetEmployeeByCode(ctx context.Context, code string) (*employee.Employee, error) {
	return s.employeeRepo.FindByCode(ctx, code)
}

// ListEmployees returns employees matching the filter
func (s *EmployeeService) ListEmployees(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.employeeRepo.List(ctx, filter)
}

// UpdateEmployee applies a partial update
func (s *EmployeeService) UpdateEmployee(ctx context.Context, id int64, req *employee.UpdateEmployeeRequest) (*employee.Employee, error) {
	e, err := s.employeeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		e.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		e.Email = nullString(*req.Email)
	}
	if req.Phone != nil {
		e.Phone = nullString(*req.Phone)
	}
	if req.Department != nil {
		e.Department = strings.TrimSpace(*req.Department)
	}
	if req.Designation != nil {
		e.Designation = nullString(*req.Designation)
	}
	if req.Notes != nil {
		e.Notes = nullString(*req.Notes)
	}
	if req.Tags != nil {
		e.Tags = pq.StringArray(req.Tags)
	}
	if req.BaseLatitude != nil || req.BaseLongitude != nil {
		if err := ValidateCoordinates(req.BaseLatitude, req.BaseLongitude); err != nil {
			return nil, err
		}
		e.BaseLatitude = sql.NullFloat64{Float64: *req.BaseLatitude, Valid: true}
		e.BaseLongitude = sql.NullFloat64{Float64: *req.BaseLongitude, Valid: true}
	}

	if err := s.employeeRepo.Update(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

// EnrollFingerprint attaches a captured template to an employee
func (s *EmployeeService) EnrollFingerprint(ctx context.Context, id int64, template string) error {
	if strings.TrimSpace(template) == "" {
		return fmt.Errorf("fingerprint template is required")
	}

	if err := s.employeeRepo.SetFingerprintTemplate(ctx, id, template); err != nil {
		return err
	}

	s.logger.Info("fingerprint enrolled", zap.Int64("employee_id", id))
	return nil
}

// ActivateEmployee marks an employee active
func (s *EmployeeService) ActivateEmployee(ctx context.Context, id int64) error {
	return s.employeeRepo.SetActive(ctx, id, true)
}

// DeactivateEmployee marks an employee inactive
func (s *EmployeeService) DeactivateEmployee(ctx context.Context, id int64) error {
	return s.employeeRepo.SetActive(ctx, id, false)
}

// DeleteEmployee soft-deletes an employee
func (s *EmployeeService) DeleteEmployee(ctx context.Context, id int64) error {
	return s.employeeRepo.SoftDelete(ctx, id)
}

// GetStats returns aggregate employee counts
func (s *EmployeeService) GetStats(ctx context.Context) (*employee.EmployeeStats, error) {
	return s.employeeRepo.GetStats(ctx)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
