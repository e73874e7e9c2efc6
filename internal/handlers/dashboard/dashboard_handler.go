// internal/handlers/dashboard/dashboard_handler.go
package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	xerrors "attendance-service/internal/pkg/errors"
	"attendance-service/internal/pkg/response"
	attendanceUsecase "attendance-service/internal/service/attendance"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	attendanceService *attendanceUsecase.AttendanceService
	logger            *zap.Logger
}

func NewDashboardHandler(attendanceService *attendanceUsecase.AttendanceService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		attendanceService: attendanceService,
		logger:            logger,
	}
}

// Day returns the attendance summary for one day, defaulting to today
func (h *DashboardHandler) Day(c *gin.Context) {
	summary, err := h.attendanceService.DaySummary(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, statusFor(err), "failed to build day summary", err)
		return
	}

	response.Success(c, http.StatusOK, "day summary retrieved", summary)
}

// Month returns per-employee totals for one month, defaulting to the current
// month.
func (h *DashboardHandler) Month(c *gin.Context) {
	now := time.Now().UTC()

	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid year", err)
		return
	}
	monthNum, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid month", err)
		return
	}

	summaries, err := h.attendanceService.MonthSummary(c.Request.Context(), year, time.Month(monthNum))
	if err != nil {
		response.Error(c, statusFor(err), "failed to build month summary", err)
		return
	}

	response.Success(c, http.StatusOK, "month summary retrieved", summaries)
}

// Departments returns per-department totals for one day
func (h *DashboardHandler) Departments(c *gin.Context) {
	summaries, err := h.attendanceService.DepartmentSummary(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, statusFor(err), "failed to build department summary", err)
		return
	}

	response.Success(c, http.StatusOK, "department summary retrieved", summaries)
}

func statusFor(err error) int {
	if errors.Is(err, xerrors.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
