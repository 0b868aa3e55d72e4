package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/messaging"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const maxHistoryDepth = 100

type PayrollServiceImpl struct {
	tx             database.Transactor
	payrollRepo    payroll.PayrollRepository
	adjustmentRepo payroll.AdjustmentRepository
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	structureRepo  salary.StructureRepository
	componentRepo  salary.ComponentRepository
	policies       policy.PolicyService
	evaluator      *ComponentEvaluator
	publisher      messaging.Publisher
	workers        int
	now            func() time.Time
}

func NewPayrollService(
	tx database.Transactor,
	payrollRepo payroll.PayrollRepository,
	adjustmentRepo payroll.AdjustmentRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	structureRepo salary.StructureRepository,
	componentRepo salary.ComponentRepository,
	policies policy.PolicyService,
	evaluator *ComponentEvaluator,
	publisher messaging.Publisher,
	workers int,
) payroll.PayrollService {
	if workers < 1 {
		workers = 1
	}
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &PayrollServiceImpl{
		tx:             tx,
		payrollRepo:    payrollRepo,
		adjustmentRepo: adjustmentRepo,
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		structureRepo:  structureRepo,
		componentRepo:  componentRepo,
		policies:       policies,
		evaluator:      evaluator,
		publisher:      publisher,
		workers:        workers,
		now:            time.Now,
	}
}

// ========== CALCULATION ==========

// revision carries the explicit revise flow into calculate.
type revision struct {
	supersedes *payroll.PayrollRecord
	reason     string
}

func (s *PayrollServiceImpl) CalculatePayroll(ctx context.Context, companyID, employeeID string, month time.Month, year int) (payroll.PayrollRecord, error) {
	if err := payroll.ValidatePeriod(month, year); err != nil {
		return payroll.PayrollRecord{}, err
	}
	if _, err := uuid.Parse(employeeID); err != nil {
		return payroll.PayrollRecord{}, validator.Single("employee_id", "must be a valid UUID")
	}
	return s.calculate(ctx, companyID, employeeID, month, year, nil)
}

func (s *PayrollServiceImpl) calculate(ctx context.Context, companyID, employeeID string, month time.Month, year int, rev *revision) (payroll.PayrollRecord, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID, companyID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	first, last := attendance.MonthRange(month, year)
	if !emp.EmployedDuring(first, last) {
		return payroll.PayrollRecord{}, validator.Single("period", "employee was not employed during this period")
	}

	resolved, err := s.policies.Resolve(ctx, companyID)
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to resolve policies: %w", err)
	}

	structure, err := s.structureRepo.GetEffective(ctx, employeeID, last, companyID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	defs, err := s.componentRepo.ListByCompany(ctx, companyID, false)
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get salary components: %w", err)
	}
	definitions := make(map[string]salary.ComponentDefinition, len(defs))
	for _, d := range defs {
		definitions[d.Code] = d
	}

	records, err := s.attendanceRepo.ListByEmployeeBetween(ctx, employeeID, first, last, companyID)
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	summary := Derive(records, resolved.Attendance, month, year)

	eval, err := s.evaluator.Evaluate(structure, definitions, summary)
	var evalErr *payroll.ComponentEvaluationError
	if err != nil && !errors.As(err, &evalErr) {
		return payroll.PayrollRecord{}, err
	}
	if evalErr != nil {
		slog.Warn("salary components zeroed during evaluation",
			"company_id", companyID,
			"employee_id", employeeID,
			"period", fmt.Sprintf("%d-%02d", year, month),
			"components", evalErr.Error(),
		)
	}

	stat := CalculateStatutory(sumItems(eval.Earnings), resolved.Statutory)

	adjustments, err := s.adjustmentRepo.ListByPeriod(ctx, employeeID, int(month), year, companyID)
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get adjustments: %w", err)
	}

	now := s.now()
	record := payroll.PayrollRecord{
		CompanyID:             companyID,
		EmployeeID:            employeeID,
		PeriodMonth:           int(month),
		PeriodYear:            year,
		StructureID:           structure.ID,
		Attendance:            summary,
		Earnings:              eval.Earnings,
		Deductions:            eval.Deductions,
		EmployerContributions: eval.EmployerContributions,
		Statutory:             stat,
		Adjustments:           adjustments,
		Status:                payroll.PayrollStatusDraft,
		Revision:              1,
		PolicyFallbacks:       resolved.Fallbacks,
		ComponentErrors:       eval.Errors,
		AttendanceToken:       summary.Token,
		CalculatedAt:          now,
	}
	record.ApplyTotals(Aggregate(eval, stat, adjustments))

	var created payroll.PayrollRecord
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		// Attendance written between the read above and this point would
		// make the record stale.
		fresh, err := s.attendanceRepo.ListByEmployeeBetween(txCtx, employeeID, first, last, companyID)
		if err != nil {
			return fmt.Errorf("failed to re-read attendance: %w", err)
		}
		if AttendanceToken(fresh) != summary.Token {
			return payroll.ErrConcurrentModification
		}

		current, err := s.payrollRepo.GetCurrent(txCtx, employeeID, int(month), year, companyID)
		switch {
		case errors.Is(err, payroll.ErrPayrollRecordNotFound):
			if rev != nil {
				return payroll.ErrDuplicatePeriod
			}
		case err != nil:
			return fmt.Errorf("failed to get current payroll record: %w", err)
		default:
			if err := checkReplaceable(current, rev); err != nil {
				return err
			}
			if err := s.payrollRepo.Supersede(txCtx, current.ID, current.Version, companyID); err != nil {
				return err
			}
			record.PreviousRecordID = &current.ID
			record.Revision = current.Revision + 1
			if rev != nil {
				record.RevisionReason = &rev.reason
			}
		}

		created, err = s.payrollRepo.Create(txCtx, record)
		return err
	})
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	for _, fb := range resolved.Fallbacks {
		slog.Warn("payroll calculated with baseline policy", "company_id", companyID, "employee_id", employeeID, "fallback", fb)
	}
	messaging.PublishBestEffort(ctx, s.publisher, companyID, messaging.EventPayrollCalculated, payrollEvent(created))

	return created, nil
}

// checkReplaceable decides whether current may be superseded by a new calculation.
func checkReplaceable(current payroll.PayrollRecord, rev *revision) error {
	if rev == nil {
		if current.Status.IsFinal() {
			return payroll.ErrImmutableRecord
		}
		return nil
	}
	// explicit revision must target the record it was started from
	if current.ID != rev.supersedes.ID {
		return payroll.ErrDuplicatePeriod
	}
	if current.Status != payroll.PayrollStatusApproved {
		return payroll.ErrImmutableRecord
	}
	return nil
}

// ========== BULK ==========

func (s *PayrollServiceImpl) BulkCalculatePayroll(ctx context.Context, companyID string, req payroll.BulkCalculateRequest) (payroll.BulkResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.BulkResult{}, err
	}
	month := time.Month(req.Month)

	employeeIDs := dedupe(req.EmployeeIDs)
	if len(employeeIDs) == 0 {
		first, last := attendance.MonthRange(month, req.Year)
		employees, err := s.employeeRepo.GetActiveByCompanyID(ctx, companyID)
		if err != nil {
			return payroll.BulkResult{}, fmt.Errorf("failed to get employees: %w", err)
		}
		for _, emp := range employees {
			if emp.EmployedDuring(first, last) {
				employeeIDs = append(employeeIDs, emp.ID)
			}
		}
	}

	var (
		mu     sync.Mutex
		result payroll.BulkResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, id := range employeeIDs {
		g.Go(func() error {
			// a failure for one employee never stops the others
			rec, err := s.CalculatePayroll(gctx, companyID, id, month, req.Year)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, payroll.BulkFailure{
					EmployeeID: id,
					Error:      err.Error(),
					Code:       ErrorCode(err),
				})
				return nil
			}
			result.Succeeded = append(result.Succeeded, rec)
			return nil
		})
	}
	_ = g.Wait()

	order := make(map[string]int, len(employeeIDs))
	for i, id := range employeeIDs {
		order[id] = i
	}
	sort.Slice(result.Succeeded, func(i, j int) bool {
		return order[result.Succeeded[i].EmployeeID] < order[result.Succeeded[j].EmployeeID]
	})
	sort.Slice(result.Failed, func(i, j int) bool {
		return order[result.Failed[i].EmployeeID] < order[result.Failed[j].EmployeeID]
	})

	slog.Info("bulk payroll calculation finished",
		"company_id", companyID,
		"period", fmt.Sprintf("%d-%02d", req.Year, month),
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed),
	)
	return result, nil
}

// ErrorCode maps an engine error to a stable machine readable code.
func ErrorCode(err error) string {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return "VALIDATION_ERROR"
	case errors.Is(err, payroll.ErrEmployeeNotFound):
		return "EMPLOYEE_NOT_FOUND"
	case errors.Is(err, payroll.ErrNoActiveStructure):
		return "NO_ACTIVE_STRUCTURE"
	case errors.Is(err, payroll.ErrImmutableRecord):
		return "IMMUTABLE_RECORD"
	case errors.Is(err, payroll.ErrDuplicatePeriod):
		return "DUPLICATE_PERIOD"
	case errors.Is(err, payroll.ErrConcurrentModification), errors.Is(err, payroll.ErrStaleRecord):
		return "CONCURRENT_MODIFICATION"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CANCELLED"
	default:
		return "INTERNAL_ERROR"
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// ========== WORKFLOW ==========

func (s *PayrollServiceImpl) SubmitPayroll(ctx context.Context, companyID, recordID, actorID string) (payroll.PayrollRecord, error) {
	return s.transition(ctx, companyID, recordID, payroll.PayrollStatusPendingApproval, func(r *payroll.PayrollRecord, now time.Time) {
		r.SubmittedAt = &now
		r.RejectionReason = nil
	})
}

func (s *PayrollServiceImpl) ApprovePayroll(ctx context.Context, companyID, recordID, approverID string) (payroll.PayrollRecord, error) {
	return s.transition(ctx, companyID, recordID, payroll.PayrollStatusApproved, func(r *payroll.PayrollRecord, now time.Time) {
		r.ApprovedBy = &approverID
		r.ApprovedAt = &now
	})
}

func (s *PayrollServiceImpl) RejectPayroll(ctx context.Context, companyID, recordID, approverID, reason string) (payroll.PayrollRecord, error) {
	if validator.IsEmpty(reason) {
		return payroll.PayrollRecord{}, validator.Single("reason", "is required")
	}
	return s.transition(ctx, companyID, recordID, payroll.PayrollStatusDraft, func(r *payroll.PayrollRecord, _ time.Time) {
		r.RejectionReason = &reason
		r.SubmittedAt = nil
	})
}

func (s *PayrollServiceImpl) ProcessPayroll(ctx context.Context, companyID, recordID, actorID string) (payroll.PayrollRecord, error) {
	return s.transition(ctx, companyID, recordID, payroll.PayrollStatusProcessed, func(r *payroll.PayrollRecord, now time.Time) {
		r.ProcessedBy = &actorID
		r.ProcessedAt = &now
	})
}

func (s *PayrollServiceImpl) transition(
	ctx context.Context,
	companyID, recordID string,
	next payroll.PayrollStatus,
	mutate func(r *payroll.PayrollRecord, now time.Time),
) (payroll.PayrollRecord, error) {
	var (
		updated payroll.PayrollRecord
		from    payroll.PayrollStatus
	)
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		record, err := s.payrollRepo.GetByID(txCtx, recordID, companyID)
		if err != nil {
			return err
		}
		if !record.IsCurrent() {
			return payroll.ErrImmutableRecord
		}
		if !record.Status.CanTransitionTo(next) {
			if record.Status.IsFinal() {
				return payroll.ErrImmutableRecord
			}
			return fmt.Errorf("%w: %s to %s", payroll.ErrInvalidStatusTransition, record.Status, next)
		}

		from = record.Status
		record.Status = next
		mutate(&record, s.now())

		updated, err = s.payrollRepo.UpdateStatus(txCtx, record)
		return err
	})
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	slog.Info("payroll status changed", "company_id", companyID, "record_id", recordID, "from", from, "to", next)
	messaging.PublishBestEffort(ctx, s.publisher, companyID, messaging.EventPayrollStatusChanged, statusChangedEvent{
		RecordID:   updated.ID,
		EmployeeID: updated.EmployeeID,
		Month:      updated.PeriodMonth,
		Year:       updated.PeriodYear,
		From:       from,
		To:         next,
	})
	return updated, nil
}

func (s *PayrollServiceImpl) RevisePayroll(ctx context.Context, companyID, recordID, actorID, reason string) (payroll.PayrollRecord, error) {
	if validator.IsEmpty(reason) {
		return payroll.PayrollRecord{}, validator.Single("reason", "is required")
	}

	record, err := s.payrollRepo.GetByID(ctx, recordID, companyID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	if !record.IsCurrent() || record.Status == payroll.PayrollStatusProcessed {
		return payroll.PayrollRecord{}, payroll.ErrImmutableRecord
	}
	if record.Status != payroll.PayrollStatusApproved {
		return payroll.PayrollRecord{}, fmt.Errorf("%w: only approved records can be revised, recalculate instead", payroll.ErrInvalidStatusTransition)
	}

	revised, err := s.calculate(ctx, companyID, record.EmployeeID, time.Month(record.PeriodMonth), record.PeriodYear, &revision{
		supersedes: &record,
		reason:     reason,
	})
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	slog.Info("payroll record revised", "company_id", companyID, "record_id", recordID, "new_record_id", revised.ID, "actor_id", actorID)
	return revised, nil
}

// ========== ADJUSTMENTS ==========

func (s *PayrollServiceImpl) AddAdjustment(ctx context.Context, companyID, actorID string, req payroll.AddAdjustmentRequest) (payroll.Adjustment, error) {
	if err := req.Validate(); err != nil {
		return payroll.Adjustment{}, err
	}
	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, companyID); err != nil {
		return payroll.Adjustment{}, err
	}

	current, err := s.payrollRepo.GetCurrent(ctx, req.EmployeeID, int(req.Month), req.Year, companyID)
	if err != nil && !errors.Is(err, payroll.ErrPayrollRecordNotFound) {
		return payroll.Adjustment{}, fmt.Errorf("failed to get current payroll record: %w", err)
	}
	if err == nil && current.Status.IsFinal() {
		return payroll.Adjustment{}, payroll.ErrImmutableRecord
	}

	return s.adjustmentRepo.Create(ctx, payroll.Adjustment{
		CompanyID:  companyID,
		EmployeeID: req.EmployeeID,
		Month:      int(req.Month),
		Year:       req.Year,
		Type:       payroll.AdjustmentType(req.Type),
		Category:   salary.Category(req.Category),
		Amount:     req.Amount,
		Note:       req.Note,
		CreatedBy:  actorID,
	})
}

func (s *PayrollServiceImpl) ListAdjustments(ctx context.Context, companyID, employeeID string, month time.Month, year int) ([]payroll.Adjustment, error) {
	if err := payroll.ValidatePeriod(month, year); err != nil {
		return nil, err
	}
	return s.adjustmentRepo.ListByPeriod(ctx, employeeID, int(month), year, companyID)
}

// ========== QUERIES ==========

func (s *PayrollServiceImpl) GetPayrollRecord(ctx context.Context, companyID, id string) (payroll.PayrollRecord, error) {
	return s.payrollRepo.GetByID(ctx, id, companyID)
}

func (s *PayrollServiceImpl) ListPayrollRecords(ctx context.Context, companyID string, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	filter.Normalize()
	return s.payrollRepo.List(ctx, companyID, filter)
}

func (s *PayrollServiceImpl) GetPayrollHistory(ctx context.Context, companyID, recordID string) ([]payroll.PayrollRecord, error) {
	record, err := s.payrollRepo.GetByID(ctx, recordID, companyID)
	if err != nil {
		return nil, err
	}

	history := []payroll.PayrollRecord{record}
	for record.PreviousRecordID != nil && len(history) < maxHistoryDepth {
		record, err = s.payrollRepo.GetByID(ctx, *record.PreviousRecordID, companyID)
		if err != nil {
			return nil, fmt.Errorf("failed to walk payroll history: %w", err)
		}
		history = append(history, record)
	}
	return history, nil
}

// ========== EVENTS ==========

type calculatedEvent struct {
	RecordID         string   `json:"record_id"`
	EmployeeID       string   `json:"employee_id"`
	Month            int      `json:"month"`
	Year             int      `json:"year"`
	Revision         int      `json:"revision"`
	PreviousRecordID *string  `json:"previous_record_id,omitempty"`
	GrossEarnings    string   `json:"gross_earnings"`
	NetPayable       string   `json:"net_payable"`
	CTC              string   `json:"ctc"`
	PolicyFallbacks  []string `json:"policy_fallbacks,omitempty"`
}

func payrollEvent(r payroll.PayrollRecord) calculatedEvent {
	return calculatedEvent{
		RecordID:         r.ID,
		EmployeeID:       r.EmployeeID,
		Month:            r.PeriodMonth,
		Year:             r.PeriodYear,
		Revision:         r.Revision,
		PreviousRecordID: r.PreviousRecordID,
		GrossEarnings:    r.GrossEarnings.String(),
		NetPayable:       r.NetPayable.String(),
		CTC:              r.CTC.String(),
		PolicyFallbacks:  r.PolicyFallbacks,
	}
}

type statusChangedEvent struct {
	RecordID   string                `json:"record_id"`
	EmployeeID string                `json:"employee_id"`
	Month      int                   `json:"month"`
	Year       int                   `json:"year"`
	From       payroll.PayrollStatus `json:"from"`
	To         payroll.PayrollStatus `json:"to"`
}
