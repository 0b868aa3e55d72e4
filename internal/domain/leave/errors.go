package leave

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/shopspring/decimal"
)

var (
	ErrLeaveRequestNotFound   = errors.New("leave request not found")
	ErrLeaveTypeNotFound      = errors.New("leave type not found")
	ErrLeaveTypeCodeExists    = errors.New("leave type code already exists")
	ErrLeaveTypeNotInBalance  = errors.New("leave type not present in balance")
	ErrBalanceNotFound        = errors.New("leave balance not found")
	ErrInsufficientBalance    = errors.New("insufficient leave balance")
	ErrOverlappingLeave       = errors.New("leave request overlaps an existing request")
	ErrAlreadyProcessed       = errors.New("leave request already processed")
	ErrPastLeaveCancellation  = errors.New("cannot cancel an approved leave that has already started")
	ErrHalfDayNotAllowed      = errors.New("half day is not allowed for this leave type")
	ErrCrossYearLeave         = errors.New("leave request cannot span two calendar years")
	ErrNoWorkingDays          = errors.New("leave range contains no working days")
	ErrConcurrentModification = errors.New("leave balance was modified concurrently")
	ErrEmployeeNotFound       = employee.ErrEmployeeNotFound
)

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	LeaveType string
	Available decimal.Decimal
	Requested decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: available %s, requested %s, shortfall %s",
		e.LeaveType, e.Available, e.Requested, e.Shortfall)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}
