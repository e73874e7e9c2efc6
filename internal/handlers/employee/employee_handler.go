// internal/handlers/employee/employee_handler.go
package employee

import (
	"errors"
	"net/http"
	"strconv"

	"attendance-service/internal/domain/employee"
	xerrors "attendance-service/internal/pkg/errors"
	"attendance-service/internal/pkg/response"
	employeeUsecase "attendance-service/internal/service/employee"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EmployeeHandler struct {
	employeeService *employeeUsecase.EmployeeService
	logger          *zap.Logger
}

func NewEmployeeHandler(employeeService *employeeUsecase.EmployeeService, logger *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		employeeService: employeeService,
		logger:          logger,
	}
}

// ========== CRUD ==========

// Create registers a new employee
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req employee.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	emp, err := h.employeeService.CreateEmployee(c.Request.Context(), &req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, xerrors.ErrDuplicateEntry) {
			status = http.StatusConflict
		}
		response.Error(c, status, "failed to create employee", err)
		return
	}

	h.logger.Info("employee created",
		zap.Int64("employee_id", emp.ID),
		zap.String("employee_code", emp.EmployeeCode),
	)

	response.Success(c, http.StatusCreated, "employee created", emp)
}

// Get returns a single employee by id
func (h *EmployeeHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid employee id", err)
		return
	}

	emp, err := h.employeeService.GetEmployee(c.Request.Context(), id)
	if err != nil {
		response.Error(c, statusFor(err), "failed to get employee", err)
		return
	}

	response.Success(c, http.StatusOK, "employee retrieved", emp)
}

// GetByCode returns a single employee by employee code
func (h *EmployeeHandler) GetByCode(c *gin.Context) {
	emp, err := h.employeeService.GetEmployeeByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, statusFor(err), "failed to get employee", err)
		return
	}

	response.Success(c, http.StatusOK, "employee retrieved", emp)
}

// List returns employees matching the query filters
func (h *EmployeeHandler) List(c *gin.Context) {
	filter := employee.ListEmployeesFilter{
		Department: c.Query("department"),
		Search:     c.Query("search"),
		ActiveOnly: c.Query("active_only") == "true",
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	employees, err := h.employeeService.ListEmployees(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list employees", err)
		return
	}

	response.Success(c, http.StatusOK, "employees retrieved", employees)
}

// Update applies a partial update to an employee
func (h *EmployeeHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid employee id", err)
		return
	}

	var req employee.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	emp, err := h.employeeService.UpdateEmployee(c.Request.Context(), id, &req)
	if err != nil {
		response.Error(c, statusFor(err), "failed to update employee", err)
		return
	}

	response.Success(c, http.StatusOK, "employee updated", emp)
}

// Delete soft deletes an employee
func (h *EmployeeHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid employee id", err)
		return
	}

	if err := h.employeeService.DeleteEmployee(c.Request.Context(), id); err != nil {
		response.Error(c, statusFor(err), "failed to delete employee", err)
		return
	}

	response.Success(c, http.StatusOK, "employee deleted", nil)
}

// ========== Enrollment and Status ==========

// EnrollFingerprint stores a fingerprint template for an employee
func (h *EmployeeHandler) EnrollFingerprint(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid employee id", err)
		return
	}

	var req employee.EnrollFingerprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.employeeService.EnrollFingerprint(c.Request.Context(), id, req.FingerprintTemplate); err != nil {
		response.Error(c, statusFor(err), "failed to enroll fingerprint", err)
		return
	}

	h.logger.Info("fingerprint enrolled", zap.Int64("employee_id", id))

	response.Success(c, http.StatusOK, "fingerprint enrolled", nil)
}

// Activate re-activates an employee
func (h *EmployeeHandler) Activate(c *gin.Context) {
	h.setActive(c, true, "employee activated")
}

// Deactivate marks an employee as inactive
func (h *EmployeeHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false, "employee deactivated")
}

func (h *EmployeeHandler) setActive(c *gin.Context, active bool, message string) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid employee id", err)
		return
	}

	if active {
		err = h.employeeService.ActivateEmployee(c.Request.Context(), id)
	} else {
		err = h.employeeService.DeactivateEmployee(c.Request.Context(), id)
	}
	if err != nil {
		response.Error(c, statusFor(err), "failed to update employee status", err)
		return
	}

	response.Success(c, http.StatusOK, message, nil)
}

// Stats returns headcount and enrollment counts
func (h *EmployeeHandler) Stats(c *gin.Context) {
	stats, err := h.employeeService.GetStats(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to get stats", err)
		return
	}

	response.Success(c, http.StatusOK, "stats retrieved", stats)
}

func parseID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, xerrors.ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, xerrors.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
