package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var balanceErr *leave.InsufficientBalanceError
	if errors.As(err, &balanceErr) {
		UnprocessableEntity(w, "INSUFFICIENT_BALANCE", "Insufficient leave balance", map[string]string{
			"leave_type": balanceErr.LeaveType,
			"available":  balanceErr.Available.String(),
			"requested":  balanceErr.Requested.String(),
			"shortfall":  balanceErr.Shortfall.String(),
		})
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, "Invalid or missing token")
	case errors.Is(err, jwt.ErrCompanyIDMissing):
		Forbidden(w, "Company ID required")
	case errors.Is(err, ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeCodeExists):
		Conflict(w, "Employee code already exists")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrDuplicateAttendance):
		Conflict(w, "Attendance already recorded for this date")
	case errors.Is(err, attendance.ErrAttendanceAlreadyProcessed):
		Conflict(w, "Attendance already approved or rejected")
	case errors.Is(err, attendance.ErrConcurrentModification):
		Conflict(w, "Attendance was modified concurrently, reload and retry")

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrLeaveTypeNotFound):
		NotFound(w, "Leave type not found")
	case errors.Is(err, leave.ErrLeaveTypeCodeExists):
		Conflict(w, "Leave type code already exists")
	case errors.Is(err, leave.ErrOverlappingLeave):
		Conflict(w, "Leave request overlaps an existing request")
	case errors.Is(err, leave.ErrAlreadyProcessed):
		Conflict(w, "Leave request already processed")
	case errors.Is(err, leave.ErrConcurrentModification):
		Conflict(w, "Leave balance was modified concurrently, retry")
	case errors.Is(err, leave.ErrPastLeaveCancellation):
		UnprocessableEntity(w, "LEAVE_ALREADY_STARTED", err.Error(), nil)
	case errors.Is(err, leave.ErrHalfDayNotAllowed),
		errors.Is(err, leave.ErrCrossYearLeave),
		errors.Is(err, leave.ErrNoWorkingDays):
		UnprocessableEntity(w, "INVALID_LEAVE_REQUEST", err.Error(), nil)

	// Salary domain errors
	case errors.Is(err, salary.ErrComponentNotFound):
		NotFound(w, "Salary component not found")
	case errors.Is(err, salary.ErrNoActiveStructure):
		NotFound(w, "No salary structure effective for this period")
	case errors.Is(err, salary.ErrStructureNotFound):
		NotFound(w, "Salary structure not found")
	case errors.Is(err, salary.ErrComponentCodeExists):
		Conflict(w, "Salary component code already exists")
	case errors.Is(err, salary.ErrStructureOverlap):
		Conflict(w, "Salary structure overlaps an existing structure")
	case errors.Is(err, salary.ErrConcurrentModification):
		Conflict(w, "Salary structure was modified concurrently, retry")
	case errors.Is(err, salary.ErrReservedComponentCode),
		errors.Is(err, salary.ErrInvalidFormula),
		errors.Is(err, salary.ErrUnknownComponent),
		errors.Is(err, salary.ErrBaseComponentMissing):
		UnprocessableEntity(w, "INVALID_SALARY_CONFIGURATION", err.Error(), nil)

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrollRecordNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrDuplicatePeriod):
		Conflict(w, "Payroll for this period was written concurrently, retry")
	case errors.Is(err, payroll.ErrConcurrentModification):
		Conflict(w, "Attendance changed during calculation, retry")
	case errors.Is(err, payroll.ErrStaleRecord):
		Conflict(w, "Payroll record was modified concurrently, reload and retry")
	case errors.Is(err, payroll.ErrImmutableRecord):
		Conflict(w, "Payroll record is approved or processed")
	case errors.Is(err, payroll.ErrInvalidStatusTransition):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrInvalidPeriod):
		UnprocessableEntity(w, "INVALID_PERIOD", err.Error(), nil)

	// Policy domain errors
	case errors.Is(err, policy.ErrHolidayNotFound):
		NotFound(w, "Holiday not found")
	case errors.Is(err, policy.ErrHolidayExists):
		Conflict(w, "Holiday already exists for this date")
	case errors.Is(err, policy.ErrInvalidAttendancePolicy),
		errors.Is(err, policy.ErrInvalidStatutoryPolicy),
		errors.Is(err, policy.ErrInvalidTimezone):
		UnprocessableEntity(w, "INVALID_POLICY", err.Error(), nil)

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

// ErrManagerAccessRequired is returned by handlers and middleware guarding manager routes.
var ErrManagerAccessRequired = errors.New("manager access required")
