package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/messaging"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	attendanceService "github.com/cmlabs-hris/hris-payroll-go/internal/service/attendance"
	"github.com/shopspring/decimal"
)

type LeaveServiceImpl struct {
	tx             database.Transactor
	leaveTypeRepo  leave.LeaveTypeRepository
	balanceRepo    leave.LeaveBalanceRepository
	requestRepo    leave.LeaveRequestRepository
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	policies       policy.PolicyService
	publisher      messaging.Publisher
	now            func() time.Time
}

func NewLeaveService(
	tx database.Transactor,
	leaveTypeRepo leave.LeaveTypeRepository,
	balanceRepo leave.LeaveBalanceRepository,
	requestRepo leave.LeaveRequestRepository,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	policies policy.PolicyService,
	publisher messaging.Publisher,
) leave.LeaveService {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &LeaveServiceImpl{
		tx:             tx,
		leaveTypeRepo:  leaveTypeRepo,
		balanceRepo:    balanceRepo,
		requestRepo:    requestRepo,
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		policies:       policies,
		publisher:      publisher,
		now:            time.Now,
	}
}

// ========== APPLY ==========

// ApplyLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) ApplyLeave(ctx context.Context, companyID string, req leave.ApplyLeaveRequest) (leave.LeaveRequest, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequest{}, err
	}
	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, companyID); err != nil {
		return leave.LeaveRequest{}, err
	}

	leaveType, err := s.lookupType(ctx, companyID, req.LeaveType)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if req.HalfDay && !leaveType.AllowHalfDay {
		return leave.LeaveRequest{}, leave.ErrHalfDayNotAllowed
	}

	from, to := req.Range()
	workDays, err := s.workingDays(ctx, companyID, from, to)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	days := CountDays(workDays, req.HalfDay)
	if days.IsZero() {
		return leave.LeaveRequest{}, validator.Single("from", leave.ErrNoWorkingDays.Error())
	}

	var created leave.LeaveRequest
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		overlapping, err := s.requestRepo.ListActiveOverlapping(txCtx, req.EmployeeID, from, to, companyID)
		if err != nil {
			return fmt.Errorf("failed to check overlapping leave: %w", err)
		}
		if len(overlapping) > 0 {
			return leave.ErrOverlappingLeave
		}

		balance, err := s.balanceFor(txCtx, companyID, req.EmployeeID, from.Year())
		if err != nil {
			return err
		}
		if err := balance.Reserve(leaveType.Code, days, leaveType.IsPaid); err != nil {
			return err
		}
		if _, err := s.balanceRepo.Update(txCtx, balance); err != nil {
			return err
		}

		created, err = s.requestRepo.Create(txCtx, leave.LeaveRequest{
			CompanyID:     companyID,
			EmployeeID:    req.EmployeeID,
			LeaveTypeCode: leaveType.Code,
			FromDate:      from,
			ToDate:        to,
			HalfDay:       req.HalfDay,
			Days:          days,
			Reason:        req.Reason,
			Status:        leave.LeaveRequestStatusPending,
		})
		return err
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("leave applied", "company_id", companyID, "employee_id", req.EmployeeID, "leave_type", leaveType.Code, "days", days.String())
	messaging.PublishBestEffort(ctx, s.publisher, companyID, messaging.EventLeaveApplied, newLeaveEvent(created))
	return created, nil
}

// ========== DECISIONS ==========

// ApproveLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) ApproveLeave(ctx context.Context, companyID, requestID, approverID string) (leave.LeaveRequest, error) {
	var approved leave.LeaveRequest
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.requestRepo.GetByID(txCtx, requestID, companyID)
		if err != nil {
			return err
		}
		if req.Status != leave.LeaveRequestStatusPending {
			return leave.ErrAlreadyProcessed
		}

		leaveType, err := s.lookupType(txCtx, companyID, req.LeaveTypeCode)
		if err != nil {
			return err
		}

		balance, err := s.balanceFor(txCtx, companyID, req.EmployeeID, req.FromDate.Year())
		if err != nil {
			return err
		}
		if err := balance.Commit(req.LeaveTypeCode, req.Days); err != nil {
			return err
		}
		if _, err := s.balanceRepo.Update(txCtx, balance); err != nil {
			return err
		}

		now := s.now()
		if err := s.writeLeaveAttendance(txCtx, req, leaveType, approverID, now); err != nil {
			return err
		}

		req.Status = leave.LeaveRequestStatusApproved
		req.ApprovedBy = &approverID
		req.ApprovedAt = &now
		if err := s.requestRepo.Update(txCtx, req); err != nil {
			return err
		}
		approved = req
		return nil
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("leave approved", "company_id", companyID, "request_id", requestID, "approver_id", approverID)
	messaging.PublishBestEffort(ctx, s.publisher, companyID, messaging.EventLeaveApproved, newLeaveEvent(approved))
	return approved, nil
}

// writeLeaveAttendance records the approved leave on every working day of
// the request. Full-day leave replaces whatever is on the day, half-day
// leave only fills an empty day or an ABSENT placeholder.
func (s *LeaveServiceImpl) writeLeaveAttendance(ctx context.Context, req leave.LeaveRequest, leaveType leave.LeaveType, approverID string, now time.Time) error {
	days, err := s.workingDays(ctx, req.CompanyID, req.FromDate, req.ToDate)
	if err != nil {
		return err
	}

	status := attendance.AutoStatusUnpaidLeave
	if leaveType.IsPaid {
		status = attendance.AutoStatusPaidLeave
	}

	for _, day := range days {
		existing, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, req.EmployeeID, day, req.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to get attendance: %w", err)
		}

		if existing == nil {
			_, err := s.attendanceRepo.Create(ctx, attendance.AttendanceRecord{
				CompanyID:      req.CompanyID,
				EmployeeID:     req.EmployeeID,
				Date:           day,
				AutoStatus:     status,
				Status:         attendance.StatusApproved,
				Source:         attendance.SourceLeave,
				LeaveRequestID: &req.ID,
				ApprovedBy:     &approverID,
				ApprovedAt:     &now,
			})
			if errors.Is(err, attendance.ErrDuplicateAttendance) {
				return fmt.Errorf("%w: attendance written for %s", leave.ErrConcurrentModification, day.Format("2006-01-02"))
			}
			if err != nil {
				return err
			}
			continue
		}

		if req.HalfDay && existing.AutoStatus != attendance.AutoStatusAbsent {
			continue
		}

		existing.AutoStatus = status
		existing.Status = attendance.StatusApproved
		existing.Source = attendance.SourceLeave
		existing.LeaveRequestID = &req.ID
		existing.ApprovedBy = &approverID
		existing.ApprovedAt = &now
		existing.RejectionReason = nil
		if _, err := s.attendanceRepo.Update(ctx, *existing); err != nil {
			if errors.Is(err, attendance.ErrConcurrentModification) {
				return fmt.Errorf("%w: attendance changed for %s", leave.ErrConcurrentModification, day.Format("2006-01-02"))
			}
			return err
		}
	}
	return nil
}

// restoreCheckIns turns leave days that carry a real check-in back into
// classified check-ins awaiting approval. Rows without a check-in are removed
// by DeleteByLeaveRequest.
func (s *LeaveServiceImpl) restoreCheckIns(ctx context.Context, req leave.LeaveRequest, p policy.AttendancePolicy) error {
	rows, err := s.attendanceRepo.ListByEmployeeBetween(ctx, req.EmployeeID, req.FromDate, req.ToDate, req.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to list leave attendance: %w", err)
	}

	for _, row := range rows {
		if row.LeaveRequestID == nil || *row.LeaveRequestID != req.ID || row.CheckInTime == nil {
			continue
		}
		row.AutoStatus = attendanceService.Classify(*row.CheckInTime, p)
		row.Status = attendance.StatusPending
		row.Source = attendance.SourceCheckIn
		row.LeaveRequestID = nil
		row.ApprovedBy = nil
		row.ApprovedAt = nil
		row.RejectionReason = nil
		if _, err := s.attendanceRepo.Update(ctx, row); err != nil {
			if errors.Is(err, attendance.ErrConcurrentModification) {
				return fmt.Errorf("%w: attendance changed for %s", leave.ErrConcurrentModification, row.Date.Format("2006-01-02"))
			}
			return err
		}
	}
	return nil
}

// RejectLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) RejectLeave(ctx context.Context, companyID, requestID, approverID, reason string) (leave.LeaveRequest, error) {
	if validator.IsEmpty(reason) {
		return leave.LeaveRequest{}, validator.Single("reason", "is required")
	}

	var rejected leave.LeaveRequest
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.requestRepo.GetByID(txCtx, requestID, companyID)
		if err != nil {
			return err
		}
		if req.Status != leave.LeaveRequestStatusPending {
			return leave.ErrAlreadyProcessed
		}

		if err := s.release(txCtx, req, (*leave.LeaveBalance).Release); err != nil {
			return err
		}

		now := s.now()
		req.Status = leave.LeaveRequestStatusRejected
		req.ApprovedBy = &approverID
		req.ApprovedAt = &now
		req.RejectionReason = &reason
		if err := s.requestRepo.Update(txCtx, req); err != nil {
			return err
		}
		rejected = req
		return nil
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("leave rejected", "company_id", companyID, "request_id", requestID, "approver_id", approverID)
	messaging.PublishBestEffort(ctx, s.publisher, companyID, messaging.EventLeaveRejected, newLeaveEvent(rejected))
	return rejected, nil
}

// CancelLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) CancelLeave(ctx context.Context, companyID, requestID string) (leave.LeaveRequest, error) {
	var cancelled leave.LeaveRequest
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.requestRepo.GetByID(txCtx, requestID, companyID)
		if err != nil {
			return err
		}

		switch req.Status {
		case leave.LeaveRequestStatusPending:
			if err := s.release(txCtx, req, (*leave.LeaveBalance).Release); err != nil {
				return err
			}
		case leave.LeaveRequestStatusApproved:
			p, _, err := s.policies.ResolveAttendance(txCtx, companyID)
			if err != nil {
				return fmt.Errorf("failed to resolve attendance policy: %w", err)
			}
			today := attendance.DateOf(s.now(), p.Location())
			if req.FromDate.Before(today) {
				return leave.ErrPastLeaveCancellation
			}
			if err := s.release(txCtx, req, (*leave.LeaveBalance).Restore); err != nil {
				return err
			}
			if err := s.restoreCheckIns(txCtx, req, p); err != nil {
				return err
			}
			if _, err := s.attendanceRepo.DeleteByLeaveRequest(txCtx, req.ID, companyID); err != nil {
				return fmt.Errorf("failed to remove leave attendance: %w", err)
			}
		default:
			return leave.ErrAlreadyProcessed
		}

		now := s.now()
		req.Status = leave.LeaveRequestStatusCancelled
		req.CancelledAt = &now
		if err := s.requestRepo.Update(txCtx, req); err != nil {
			return err
		}
		cancelled = req
		return nil
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("leave cancelled", "company_id", companyID, "request_id", requestID)
	messaging.PublishBestEffort(ctx, s.publisher, companyID, messaging.EventLeaveCancelled, newLeaveEvent(cancelled))
	return cancelled, nil
}

// release gives the request days back to the balance with op.
func (s *LeaveServiceImpl) release(ctx context.Context, req leave.LeaveRequest, op func(b *leave.LeaveBalance, code string, days decimal.Decimal) error) error {
	balance, err := s.balanceRepo.GetByEmployeeAndYear(ctx, req.EmployeeID, req.FromDate.Year(), req.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to get leave balance: %w", err)
	}
	if err := op(&balance, req.LeaveTypeCode, req.Days); err != nil {
		return err
	}
	_, err = s.balanceRepo.Update(ctx, balance)
	return err
}

// ========== BALANCES ==========

// GetBalance implements leave.LeaveService.
func (s *LeaveServiceImpl) GetBalance(ctx context.Context, companyID, employeeID string, year int) (leave.LeaveBalance, error) {
	if year < 2000 || year > 2100 {
		return leave.LeaveBalance{}, validator.Single("year", "must be between 2000 and 2100")
	}
	if _, err := s.employeeRepo.GetByID(ctx, employeeID, companyID); err != nil {
		return leave.LeaveBalance{}, err
	}

	var balance leave.LeaveBalance
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		balance, err = s.balanceFor(txCtx, companyID, employeeID, year)
		return err
	})
	return balance, err
}

// balanceFor returns the balance of the year, creating it from the catalog on
// first use and adding entries for leave types created since.
func (s *LeaveServiceImpl) balanceFor(ctx context.Context, companyID, employeeID string, year int) (leave.LeaveBalance, error) {
	types, err := s.catalog(ctx, companyID)
	if err != nil {
		return leave.LeaveBalance{}, err
	}

	balance, err := s.balanceRepo.GetByEmployeeAndYear(ctx, employeeID, year, companyID)
	switch {
	case errors.Is(err, leave.ErrBalanceNotFound):
		return s.openBalance(ctx, companyID, employeeID, year, types)
	case err != nil:
		return leave.LeaveBalance{}, fmt.Errorf("failed to get leave balance: %w", err)
	}

	missing := false
	for _, t := range types {
		if _, ok := balance.Entry(t.Code); !ok && t.IsActive {
			balance.Entries = append(balance.Entries, leave.BalanceEntry{LeaveTypeCode: t.Code, Total: t.DefaultQuota})
			missing = true
		}
	}
	if missing {
		return s.balanceRepo.Update(ctx, balance)
	}
	return balance, nil
}

// openBalance creates the year balance. Carry forward is the remaining
// balance of the previous year capped by the leave type.
func (s *LeaveServiceImpl) openBalance(ctx context.Context, companyID, employeeID string, year int, types []leave.LeaveType) (leave.LeaveBalance, error) {
	previous, err := s.balanceRepo.GetByEmployeeAndYear(ctx, employeeID, year-1, companyID)
	hasPrevious := err == nil
	if err != nil && !errors.Is(err, leave.ErrBalanceNotFound) {
		return leave.LeaveBalance{}, fmt.Errorf("failed to get previous leave balance: %w", err)
	}

	balance := leave.LeaveBalance{
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Year:       year,
	}
	for _, t := range types {
		if !t.IsActive {
			continue
		}
		entry := leave.BalanceEntry{LeaveTypeCode: t.Code, Total: t.DefaultQuota}
		if hasPrevious && t.MaxCarryForward.IsPositive() {
			if prev, ok := previous.Entry(t.Code); ok && prev.Remaining().IsPositive() {
				entry.CarryForward = decimal.Min(prev.Remaining(), t.MaxCarryForward)
			}
		}
		balance.Entries = append(balance.Entries, entry)
	}

	created, err := s.balanceRepo.Create(ctx, balance)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	slog.Info("leave balance opened", "company_id", companyID, "employee_id", employeeID, "year", year)
	return created, nil
}

// ========== QUERIES ==========

// ListRequests implements leave.LeaveService.
func (s *LeaveServiceImpl) ListRequests(ctx context.Context, companyID, employeeID string, year int) ([]leave.LeaveRequest, error) {
	if _, err := s.employeeRepo.GetByID(ctx, employeeID, companyID); err != nil {
		return nil, err
	}
	return s.requestRepo.ListByEmployee(ctx, employeeID, year, companyID)
}

func (s *LeaveServiceImpl) GetRequest(ctx context.Context, companyID, requestID string) (leave.LeaveRequest, error) {
	return s.requestRepo.GetByID(ctx, requestID, companyID)
}

func (s *LeaveServiceImpl) workingDays(ctx context.Context, companyID string, from, to time.Time) ([]time.Time, error) {
	p, _, err := s.policies.ResolveAttendance(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve attendance policy: %w", err)
	}
	holidays, err := s.policies.Holidays(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}
	return WorkingDays(from, to, p, holidays), nil
}

// ========== EVENTS ==========

type leaveEvent struct {
	RequestID  string                   `json:"request_id"`
	EmployeeID string                   `json:"employee_id"`
	LeaveType  string                   `json:"leave_type"`
	From       string                   `json:"from"`
	To         string                   `json:"to"`
	Days       string                   `json:"days"`
	Status     leave.LeaveRequestStatus `json:"status"`
}

func newLeaveEvent(r leave.LeaveRequest) leaveEvent {
	return leaveEvent{
		RequestID:  r.ID,
		EmployeeID: r.EmployeeID,
		LeaveType:  r.LeaveTypeCode,
		From:       r.FromDate.Format("2006-01-02"),
		To:         r.ToDate.Format("2006-01-02"),
		Days:       r.Days.String(),
		Status:     r.Status,
	}
}
