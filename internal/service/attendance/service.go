package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/messaging"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	policies       policy.PolicyService
	publisher      messaging.Publisher
	now            func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	policies policy.PolicyService,
	publisher messaging.Publisher,
) attendance.AttendanceService {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		policies:       policies,
		publisher:      publisher,
		now:            time.Now,
	}
}

// ClassifyCheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClassifyCheckIn(ctx context.Context, companyID, employeeID string, ts time.Time) (attendance.AttendanceRecord, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID, companyID)
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}
	if !emp.IsActive() {
		return attendance.AttendanceRecord{}, validator.Single("employee_id", "employee is not active")
	}

	p, fallbacks, err := s.policies.ResolveAttendance(ctx, companyID)
	if err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to resolve attendance policy: %w", err)
	}
	for _, fb := range fallbacks {
		slog.Warn("check-in classified with baseline policy", "company_id", companyID, "employee_id", employeeID, "fallback", fb)
	}

	checkIn := ts.UTC()
	record := attendance.AttendanceRecord{
		CompanyID:   companyID,
		EmployeeID:  employeeID,
		Date:        attendance.DateOf(ts, p.Location()),
		CheckInTime: &checkIn,
		AutoStatus:  Classify(ts, p),
		Status:      attendance.StatusPending,
		Source:      attendance.SourceCheckIn,
	}

	created, err := s.attendanceRepo.Create(ctx, record)
	if errors.Is(err, attendance.ErrDuplicateAttendance) {
		created, err = s.attachToLeaveDay(ctx, record)
	}
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}

	slog.Info("check-in classified",
		"company_id", companyID,
		"employee_id", employeeID,
		"date", created.Date.Format("2006-01-02"),
		"auto_status", created.AutoStatus,
	)
	messaging.PublishBestEffort(ctx, s.publisher, companyID, messaging.EventAttendanceClassified, classifiedEvent{
		RecordID:   created.ID,
		EmployeeID: employeeID,
		Date:       created.Date.Format("2006-01-02"),
		AutoStatus: created.AutoStatus,
	})
	return created, nil
}

// attachToLeaveDay stores a check-in on a day already written by an approved
// leave. The day keeps its leave status; cancelling the leave later turns the
// row back into a classified check-in.
func (s *AttendanceServiceImpl) attachToLeaveDay(ctx context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	existing, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, record.EmployeeID, record.Date, record.CompanyID)
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}
	if existing == nil || existing.Source != attendance.SourceLeave || existing.CheckInTime != nil {
		return attendance.AttendanceRecord{}, attendance.ErrDuplicateAttendance
	}

	existing.CheckInTime = record.CheckInTime
	updated, err := s.attendanceRepo.Update(ctx, *existing)
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}
	slog.Info("check-in attached to leave day", "company_id", record.CompanyID, "employee_id", record.EmployeeID, "record_id", updated.ID)
	return updated, nil
}

// ApproveAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ApproveAttendance(ctx context.Context, companyID string, req attendance.ApproveAttendanceRequest) (attendance.AttendanceRecord, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceRecord{}, err
	}
	return s.decide(ctx, companyID, req.ID, req.Version, func(r *attendance.AttendanceRecord, now time.Time) {
		r.Status = attendance.StatusApproved
		r.ApprovedBy = &req.ApproverID
		r.ApprovedAt = &now
	})
}

// RejectAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RejectAttendance(ctx context.Context, companyID string, req attendance.RejectAttendanceRequest) (attendance.AttendanceRecord, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceRecord{}, err
	}
	return s.decide(ctx, companyID, req.ID, req.Version, func(r *attendance.AttendanceRecord, now time.Time) {
		r.Status = attendance.StatusRejected
		r.ApprovedBy = &req.ApproverID
		r.ApprovedAt = &now
		r.RejectionReason = &req.Reason
	})
}

// decide applies an approval decision. version 0 skips the caller side check,
// the repository update stays conditional either way.
func (s *AttendanceServiceImpl) decide(ctx context.Context, companyID, id string, version int64, apply func(r *attendance.AttendanceRecord, now time.Time)) (attendance.AttendanceRecord, error) {
	record, err := s.attendanceRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}
	if record.Status != attendance.StatusPending {
		return attendance.AttendanceRecord{}, attendance.ErrAttendanceAlreadyProcessed
	}
	if version != 0 && version != record.Version {
		return attendance.AttendanceRecord{}, attendance.ErrConcurrentModification
	}

	apply(&record, s.now())
	updated, err := s.attendanceRepo.Update(ctx, record)
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}

	slog.Info("attendance decided", "company_id", companyID, "record_id", id, "status", updated.Status)
	return updated, nil
}

// ListAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, companyID, employeeID string, month time.Month, year int) ([]attendance.AttendanceRecord, error) {
	if month < time.January || month > time.December || year < 2000 || year > 2100 {
		return nil, validator.Single("period", "month must be 1-12 and year between 2000 and 2100")
	}
	if _, err := s.employeeRepo.GetByID(ctx, employeeID, companyID); err != nil {
		return nil, err
	}

	first, last := attendance.MonthRange(month, year)
	records, err := s.attendanceRepo.ListByEmployeeBetween(ctx, employeeID, first, last, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

// CloseDay implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CloseDay(ctx context.Context, companyID string, date time.Time) (int64, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	p, _, err := s.policies.ResolveAttendance(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve attendance policy: %w", err)
	}
	holidays, err := s.policies.Holidays(ctx, companyID, day, day)
	if err != nil {
		return 0, err
	}

	status := DayStatus(day, p, holidays)
	n, err := s.attendanceRepo.CreateMissing(ctx, companyID, day, status)
	if err != nil {
		return 0, fmt.Errorf("failed to close day: %w", err)
	}
	if n > 0 {
		slog.Info("day closed", "company_id", companyID, "date", day.Format("2006-01-02"), "status", status, "records", n)
	}
	return n, nil
}

// Today returns the current calendar day in the company timezone.
func Today(ctx context.Context, policies policy.PolicyService, companyID string, now time.Time) (time.Time, error) {
	p, _, err := policies.ResolveAttendance(ctx, companyID)
	if err != nil {
		return time.Time{}, err
	}
	return attendance.DateOf(now, p.Location()), nil
}

type classifiedEvent struct {
	RecordID   string                `json:"record_id"`
	EmployeeID string                `json:"employee_id"`
	Date       string                `json:"date"`
	AutoStatus attendance.AutoStatus `json:"auto_status"`
}
