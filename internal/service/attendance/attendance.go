// internal/service/attendance/attendance.go
package attendance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"attendance-service/internal/domain/attendance"
	"attendance-service/internal/domain/employee"
	xerrors "attendance-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	dayFormat     = "2006-01-02"
	summaryCacheT = 5 * time.Minute
)

// EventPublisher pushes attendance events to live dashboard feeds.
type EventPublisher interface {
	PublishAttendance(rec *attendance.Record)
}

type AttendanceRepository interface {
	Upsert(ctx context.Context, rec *attendance.Record) error
	UpsertMany(ctx context.Context, recs []*attendance.Record) error
	ListByDate(ctx context.Context, date time.Time) ([]*attendance.Record, error)
	ListByEmployee(ctx context.Context, employeeID int64, from, to time.Time) ([]*attendance.Record, error)
	Delete(ctx context.Context, id int64) error
	DaySummary(ctx context.Context, date time.Time) (*attendance.DaySummary, error)
	MonthSummary(ctx context.Context, year int, month time.Month) ([]*attendance.EmployeeMonthSummary, error)
	DepartmentSummary(ctx context.Context, date time.Time) ([]*attendance.DepartmentSummary, error)
}

// EmployeeFinder is the slice of the employee repository marking needs.
type EmployeeFinder interface {
	FindByID(ctx context.Context, id int64) (*employee.Employee, error)
}

type AttendanceService struct {
	attendanceRepo AttendanceRepository
	employeeRepo   EmployeeFinder
	publisher      EventPublisher
	cache          *redis.Client
	logger         *zap.Logger
}

func NewAttendanceService(
	attendanceRepo AttendanceRepository,
	employeeRepo EmployeeFinder,
	publisher EventPublisher,
	cache *redis.Client,
	logger *zap.Logger,
) *AttendanceService {
	return &AttendanceService{
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		publisher:      publisher,
		cache:          cache,
		logger:         logger,
	}
}

// ParseDay parses a "2006-01-02" date, defaulting to today (UTC) when empty.
// Future dates are rejected; attendance cannot be marked ahead of time.
func ParseDay(raw string, now time.Time) (time.Time, error) {
	today := now.UTC().Truncate(24 * time.Hour)

	if strings.TrimSpace(raw) == "" {
		return today, nil
	}

	day, err := time.ParseInLocation(dayFormat, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", raw, xerrors.ErrInvalidInput)
	}
	if day.After(today) {
		return time.Time{}, fmt.Errorf("cannot mark attendance for a future date: %w", xerrors.ErrInvalidInput)
	}

	return day, nil
}

// buildRecord validates one mark request and shapes it for storage
func (s *AttendanceService) buildRecord(ctx context.Context, req *attendance.MarkRequest, markedBy int64) (*attendance.Record, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("unknown attendance status %q: %w", req.Status, xerrors.ErrInvalidInput)
	}

	day, err := ParseDay(req.Date, time.Now())
	if err != nil {
		return nil, err
	}

	// Marking a deleted or unknown employee is a caller error
	emp, err := s.employeeRepo.FindByID(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !emp.IsActive {
		return nil, fmt.Errorf("employee %s is inactive: %w", emp.EmployeeCode, xerrors.ErrInvalidInput)
	}

	rec := &attendance.Record{
		EmployeeID: req.EmployeeID,
		Date:       day,
		Status:     req.Status,
		Note:       nullString(req.Note),
		MarkedBy:   markedBy,
	}

	if req.CheckInAt != "" {
		checkIn, err := time.Parse(time.RFC3339, req.CheckInAt)
		if err != nil {
			return nil, fmt.Errorf("invalid check_in_at %q: %w", req.CheckInAt, xerrors.ErrInvalidInput)
		}
		rec.CheckInAt = sql.NullTime{Time: checkIn, Valid: true}
	}
	if req.Latitude != nil && req.Longitude != nil {
		rec.Latitude = sql.NullFloat64{Float64: *req.Latitude, Valid: true}
		rec.Longitude = sql.NullFloat64{Float64: *req.Longitude, Valid: true}
	}

	return rec, nil
}

// Mark records or updates one attendance mark
func (s *AttendanceService) Mark(ctx context.Context, req *attendance.MarkRequest, markedBy int64) (*attendance.Record, error) {
	rec, err := s.buildRecord(ctx, req, markedBy)
	if err != nil {
		return nil, err
	}

	if err := s.attendanceRepo.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	s.invalidateSummaries(ctx, rec.Date)

	if s.publisher != nil {
		s.publisher.PublishAttendance(rec)
	}

	s.logger.Info("attendance marked",
		zap.Int64("employee_id", rec.EmployeeID),
		zap.String("date", rec.Date.Format(dayFormat)),
		zap.String("status", string(rec.Status)),
		zap.Int64("marked_by", markedBy),
	)

	return rec, nil
}

// BulkMark marks several employees against one date. Marks that fail
// validation are reported individually; the valid ones are written in one
// transaction, so a batch either lands whole or not at all.
func (s *AttendanceService) BulkMark(ctx context.Context, req *attendance.BulkMarkRequest, markedBy int64) ([]*attendance.Record, []error) {
	var records []*attendance.Record
	var failures []error

	for i := range req.Marks {
		mark := req.Marks[i]
		if mark.Date == "" {
			mark.Date = req.Date
		}

		rec, err := s.buildRecord(ctx, &mark, markedBy)
		if err != nil {
			failures = append(failures, fmt.Errorf("employee %d: %w", mark.EmployeeID, err))
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, failures
	}

	if err := s.attendanceRepo.UpsertMany(ctx, records); err != nil {
		failures = append(failures, err)
		return nil, failures
	}

	seen := make(map[time.Time]bool)
	for _, rec := range records {
		if !seen[rec.Date] {
			seen[rec.Date] = true
			s.invalidateSummaries(ctx, rec.Date)
		}
		if s.publisher != nil {
			s.publisher.PublishAttendance(rec)
		}
	}

	s.logger.Info("bulk attendance marked",
		zap.Int("count", len(records)),
		zap.Int64("marked_by", markedBy),
	)

	return records, failures
}

// ListByDate returns all marks for one day
func (s *AttendanceService) ListByDate(ctx context.Context, rawDate string) ([]*attendance.Record, error) {
	day, err := ParseDay(rawDate, time.Now())
	if err != nil {
		return nil, err
	}
	return s.attendanceRepo.ListByDate(ctx, day)
}

// ListByEmployee returns an employee's marks in a range (defaults to the
// current month when no range is given).
func (s *AttendanceService) ListByEmployee(ctx context.Context, employeeID int64, rawFrom, rawTo string) ([]*attendance.Record, error) {
	now := time.Now().UTC()

	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := now.Truncate(24 * time.Hour)

	if rawFrom != "" {
		var err error
		if from, err = time.ParseInLocation(dayFormat, rawFrom, time.UTC); err != nil {
			return nil, fmt.Errorf("invalid from date %q: %w", rawFrom, xerrors.ErrInvalidInput)
		}
	}
	if rawTo != "" {
		var err error
		if to, err = time.ParseInLocation(dayFormat, rawTo, time.UTC); err != nil {
			return nil, fmt.Errorf("invalid to date %q: %w", rawTo, xerrors.ErrInvalidInput)
		}
	}
	if to.Before(from) {
		return nil, fmt.Errorf("date range is inverted: %w", xerrors.ErrInvalidInput)
	}

	return s.attendanceRepo.ListByEmployee(ctx, employeeID, from, to)
}

// Delete removes one mark
func (s *AttendanceService) Delete(ctx context.Context, id int64) error {
	return s.attendanceRepo.Delete(ctx, id)
}

// ========== Dashboards ==========

// DaySummary aggregates one day, served from redis when fresh
func (s *AttendanceService) DaySummary(ctx context.Context, rawDate string) (*attendance.DaySummary, error) {
	day, err := ParseDay(rawDate, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := s.daySummaryKey(day)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var summary attendance.DaySummary
			if err := json.Unmarshal(data, &summary); err == nil {
				return &summary, nil
			}
		}
	}

	summary, err := s.attendanceRepo.DaySummary(ctx, day)
	if err != nil {
		return nil, err
	}

	s.cacheSummary(ctx, cacheKey, summary)
	return summary, nil
}

// MonthSummary aggregates per-employee marks for one month
func (s *AttendanceService) MonthSummary(ctx context.Context, year int, month time.Month) ([]*attendance.EmployeeMonthSummary, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d: %w", month, xerrors.ErrInvalidInput)
	}
	if year < 2000 || year > time.Now().Year() {
		return nil, fmt.Errorf("invalid year %d: %w", year, xerrors.ErrInvalidInput)
	}

	return s.attendanceRepo.MonthSummary(ctx, year, month)
}

// DepartmentSummary aggregates one day per department
func (s *AttendanceService) DepartmentSummary(ctx context.Context, rawDate string) ([]*attendance.DepartmentSummary, error) {
	day, err := ParseDay(rawDate, time.Now())
	if err != nil {
		return nil, err
	}
	return s.attendanceRepo.DepartmentSummary(ctx, day)
}

func (s *AttendanceService) daySummaryKey(day time.Time) string {
	return fmt.Sprintf("dashboard:day:%s", day.Format(dayFormat))
}

func (s *AttendanceService) cacheSummary(ctx context.Context, key string, v interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, summaryCacheT).Err(); err != nil {
		s.logger.Warn("failed to cache summary", zap.String("key", key), zap.Error(err))
	}
}

func (s *AttendanceService) invalidateSummaries(ctx context.Context, day time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.daySummaryKey(day)).Err(); err != nil {
		s.logger.Warn("failed to invalidate summary cache", zap.Error(err))
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
