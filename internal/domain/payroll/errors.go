package payroll

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
)

var (
	ErrPayrollRecordNotFound   = errors.New("payroll record not found")
	ErrInvalidPeriod           = errors.New("invalid payroll period")
	ErrDuplicatePeriod         = errors.New("payroll record for this period was written concurrently")
	ErrConcurrentModification  = errors.New("attendance changed while payroll was being calculated")
	ErrImmutableRecord         = errors.New("payroll record is approved or processed and cannot be modified")
	ErrInvalidStatusTransition = errors.New("invalid payroll status transition")
	ErrStaleRecord             = errors.New("payroll record was modified concurrently")
	ErrComponentEvaluation     = errors.New("salary component evaluation failed")
	ErrEmployeeNotFound        = employee.ErrEmployeeNotFound
	ErrNoActiveStructure       = salary.ErrNoActiveStructure
)

// ComponentEvaluationError lists the components that were zeroed during an evaluation.
type ComponentEvaluationError struct {
	Errors []ComponentError
}

func (e *ComponentEvaluationError) Error() string {
	codes := make([]string, 0, len(e.Errors))
	for _, ce := range e.Errors {
		codes = append(codes, ce.Code)
	}
	return fmt.Sprintf("%d component(s) could not be evaluated: %s", len(e.Errors), strings.Join(codes, ", "))
}

func (e *ComponentEvaluationError) Unwrap() error {
	return ErrComponentEvaluation
}
