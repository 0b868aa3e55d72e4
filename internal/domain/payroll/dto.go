package payroll

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// Month accepts a number 1-12 or an english month name in JSON.
type Month time.Month

func (m *Month) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(data, `"`))
	parsed, err := validator.ParseMonth(raw)
	if err != nil {
		return err
	}
	*m = Month(parsed)
	return nil
}

func (m Month) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(m))), nil
}

// ValidatePeriod checks a month and year pair.
func ValidatePeriod(month time.Month, year int) error {
	var errs validator.ValidationErrors
	if month < time.January || month > time.December {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12 or a month name"})
	}
	if year < 2000 || year > 2100 {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 2000 and 2100"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== CALCULATION DTOs ==========

type CalculatePayrollRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Month      Month  `json:"month"`
	Year       int    `json:"year"`
}

func (r *CalculatePayrollRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	return ValidatePeriod(time.Month(r.Month), r.Year)
}

type BulkCalculateRequest struct {
	// EmployeeIDs empty means every active employee of the company
	EmployeeIDs []string `json:"employee_ids" validate:"omitempty,dive,uuid"`
	Month       Month    `json:"month"`
	Year        int      `json:"year"`
}

func (r *BulkCalculateRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	return ValidatePeriod(time.Month(r.Month), r.Year)
}

// BulkFailure - one employee whose calculation failed
type BulkFailure struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
	Code       string `json:"code"`
}

type BulkResult struct {
	Succeeded []PayrollRecord
	Failed    []BulkFailure
}

type BulkResultResponse struct {
	Succeeded []PayrollRecordResponse `json:"succeeded"`
	Failed    []BulkFailure           `json:"failed"`
}

func NewBulkResultResponse(r BulkResult) BulkResultResponse {
	resp := BulkResultResponse{
		Succeeded: make([]PayrollRecordResponse, 0, len(r.Succeeded)),
		Failed:    r.Failed,
	}
	if resp.Failed == nil {
		resp.Failed = []BulkFailure{}
	}
	for _, rec := range r.Succeeded {
		resp.Succeeded = append(resp.Succeeded, NewPayrollRecordResponse(rec))
	}
	return resp
}

// ========== WORKFLOW DTOs ==========

type DecisionRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type RevisePayrollRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ========== ADJUSTMENT DTOs ==========

type AddAdjustmentRequest struct {
	EmployeeID string          `json:"employee_id" validate:"required,uuid"`
	Month      Month           `json:"month"`
	Year       int             `json:"year"`
	Type       string          `json:"type" validate:"required"`
	Category   string          `json:"category" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note" validate:"max=500"`
}

func (r *AddAdjustmentRequest) Validate() error {
	r.Type = strings.ToUpper(r.Type)
	r.Category = strings.ToUpper(r.Category)

	if err := validator.Struct(r); err != nil {
		return err
	}

	var errs validator.ValidationErrors
	if !validator.IsInSlice(r.Type, AdjustmentTypes) {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "must be one of " + strings.Join(AdjustmentTypes, ", ")})
	}
	if r.Category != string(salary.CategoryEarning) && r.Category != string(salary.CategoryDeduction) {
		errs = append(errs, validator.ValidationError{Field: "category", Message: "must be EARNING or DEDUCTION"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be greater than zero"})
	}
	if err := ValidatePeriod(time.Month(r.Month), r.Year); err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== RECORD DTOs ==========

type PayrollFilter struct {
	PeriodMonth *int    `json:"period_month,omitempty"`
	PeriodYear  *int    `json:"period_year,omitempty"`
	Status      *string `json:"status,omitempty"`
	EmployeeID  *string `json:"employee_id,omitempty"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
}

func (f *PayrollFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

type PayrollRecordResponse struct {
	ID                    string             `json:"id"`
	EmployeeID            string             `json:"employee_id"`
	PeriodMonth           int                `json:"period_month"`
	PeriodYear            int                `json:"period_year"`
	StructureID           string             `json:"structure_id"`
	Attendance            AttendanceSummary  `json:"attendance"`
	Earnings              []LineItem         `json:"earnings"`
	Deductions            []LineItem         `json:"deductions"`
	EmployerContributions []LineItem         `json:"employer_contributions"`
	Statutory             StatutoryBreakdown `json:"statutory"`
	Adjustments           []Adjustment       `json:"adjustments"`
	GrossEarnings         decimal.Decimal    `json:"gross_earnings"`
	TotalDeductions       decimal.Decimal    `json:"total_deductions"`
	AdjustmentTotal       decimal.Decimal    `json:"adjustment_total"`
	NetPayable            decimal.Decimal    `json:"net_payable"`
	CTC                   decimal.Decimal    `json:"ctc"`
	Status                PayrollStatus      `json:"status"`
	Revision              int                `json:"revision"`
	RevisionReason        *string            `json:"revision_reason,omitempty"`
	PreviousRecordID      *string            `json:"previous_record_id,omitempty"`
	SupersededAt          *time.Time         `json:"superseded_at,omitempty"`
	PolicyFallbacks       []string           `json:"policy_fallbacks"`
	ComponentErrors       []ComponentError   `json:"component_errors"`
	SubmittedAt           *time.Time         `json:"submitted_at,omitempty"`
	ApprovedBy            *string            `json:"approved_by,omitempty"`
	ApprovedAt            *time.Time         `json:"approved_at,omitempty"`
	RejectionReason       *string            `json:"rejection_reason,omitempty"`
	ProcessedAt           *time.Time         `json:"processed_at,omitempty"`
	CalculatedAt          time.Time          `json:"calculated_at"`
	Version               int64              `json:"version"`
}

func NewPayrollRecordResponse(r PayrollRecord) PayrollRecordResponse {
	return PayrollRecordResponse{
		ID:                    r.ID,
		EmployeeID:            r.EmployeeID,
		PeriodMonth:           r.PeriodMonth,
		PeriodYear:            r.PeriodYear,
		StructureID:           r.StructureID,
		Attendance:            r.Attendance,
		Earnings:              nonNil(r.Earnings),
		Deductions:            nonNil(r.Deductions),
		EmployerContributions: nonNil(r.EmployerContributions),
		Statutory:             r.Statutory,
		Adjustments:           nonNil(r.Adjustments),
		GrossEarnings:         r.GrossEarnings,
		TotalDeductions:       r.TotalDeductions,
		AdjustmentTotal:       r.AdjustmentTotal,
		NetPayable:            r.NetPayable,
		CTC:                   r.CTC,
		Status:                r.Status,
		Revision:              r.Revision,
		RevisionReason:        r.RevisionReason,
		PreviousRecordID:      r.PreviousRecordID,
		SupersededAt:          r.SupersededAt,
		PolicyFallbacks:       nonNil(r.PolicyFallbacks),
		ComponentErrors:       nonNil(r.ComponentErrors),
		SubmittedAt:           r.SubmittedAt,
		ApprovedBy:            r.ApprovedBy,
		ApprovedAt:            r.ApprovedAt,
		RejectionReason:       r.RejectionReason,
		ProcessedAt:           r.ProcessedAt,
		CalculatedAt:          r.CalculatedAt,
		Version:               r.Version,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var _ json.Unmarshaler = (*Month)(nil)
