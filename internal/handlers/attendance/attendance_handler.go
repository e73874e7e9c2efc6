// internal/handlers/attendance/attendance_handler.go
package attendance

import (
	"errors"
	"net/http"
	"strconv"

	"attendance-service/internal/domain/attendance"
	"attendance-service/internal/middleware"
	xerrors "attendance-service/internal/pkg/errors"
	"attendance-service/internal/pkg/response"
	attendanceUsecase "attendance-service/internal/service/attendance"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AttendanceHandler struct {
	attendanceService *attendanceUsecase.AttendanceService
	logger            *zap.Logger
}

func NewAttendanceHandler(attendanceService *attendanceUsecase.AttendanceService, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceService: attendanceService,
		logger:            logger,
	}
}

// ========== Marking ==========

// Mark records attendance for one employee on one day. Re-marking the same
// day overwrites the previous record.
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req attendance.MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	markedBy := middleware.MustGetIdentityID(c)

	rec, err := h.attendanceService.Mark(c.Request.Context(), &req, markedBy)
	if err != nil {
		response.Error(c, statusFor(err), "failed to mark attendance", err)
		return
	}

	response.Success(c, http.StatusOK, "attendance marked", rec)
}

// BulkMark records attendance for multiple employees in one call. Partial
// failures are reported per item without aborting the batch.
func (h *AttendanceHandler) BulkMark(c *gin.Context) {
	var req attendance.BulkMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	markedBy := middleware.MustGetIdentityID(c)

	records, failures := h.attendanceService.BulkMark(c.Request.Context(), &req, markedBy)

	failed := make([]string, 0, len(failures))
	for _, err := range failures {
		failed = append(failed, err.Error())
	}

	response.Success(c, http.StatusOK, "bulk mark processed", gin.H{
		"marked":   records,
		"failures": failed,
	})
}

// ========== Queries ==========

// ListByDate returns all records for a day, defaulting to today
func (h *AttendanceHandler) ListByDate(c *gin.Context) {
	records, err := h.attendanceService.ListByDate(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, statusFor(err), "failed to list attendance", err)
		return
	}

	response.Success(c, http.StatusOK, "attendance retrieved", records)
}

// ListByEmployee returns one employee's records within a date range
func (h *AttendanceHandler) ListByEmployee(c *gin.Context) {
	employeeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid employee id", err)
		return
	}

	records, err := h.attendanceService.ListByEmployee(c.Request.Context(), employeeID, c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, statusFor(err), "failed to list attendance", err)
		return
	}

	response.Success(c, http.StatusOK, "attendance retrieved", records)
}

// Delete removes an attendance record (superadmin only)
func (h *AttendanceHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid record id", err)
		return
	}

	if err := h.attendanceService.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, statusFor(err), "failed to delete record", err)
		return
	}

	h.logger.Info("attendance record deleted",
		zap.Int64("record_id", id),
		zap.Int64("deleted_by", middleware.MustGetIdentityID(c)),
	)

	response.Success(c, http.StatusOK, "record deleted", nil)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, xerrors.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
