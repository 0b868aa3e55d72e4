package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/shopspring/decimal"
)

// PayrollStatus enum
type PayrollStatus string

const (
	PayrollStatusDraft           PayrollStatus = "DRAFT"
	PayrollStatusPendingApproval PayrollStatus = "PENDING_APPROVAL"
	PayrollStatusApproved        PayrollStatus = "APPROVED"
	PayrollStatusProcessed       PayrollStatus = "PROCESSED"
)

// IsFinal reports whether the record can no longer be recalculated in place.
func (s PayrollStatus) IsFinal() bool {
	return s == PayrollStatusApproved || s == PayrollStatusProcessed
}

var transitions = map[PayrollStatus][]PayrollStatus{
	PayrollStatusDraft:           {PayrollStatusPendingApproval},
	PayrollStatusPendingApproval: {PayrollStatusApproved, PayrollStatusDraft},
	PayrollStatusApproved:        {PayrollStatusProcessed},
}

func (s PayrollStatus) CanTransitionTo(next PayrollStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AttendanceSummary - output of the deduction rules for one employee month.
type AttendanceSummary struct {
	Month              time.Month      `json:"month"`
	Year               int             `json:"year"`
	TotalDays          int             `json:"total_days"`
	FullDays           int             `json:"full_days"`
	LateCount          int             `json:"late_count"`
	HalfDayCount       int             `json:"half_day_count"`
	AbsentDays         int             `json:"absent_days"`
	PaidLeaveDays      int             `json:"paid_leave_days"`
	UnpaidLeaveDays    int             `json:"unpaid_leave_days"`
	HolidayDays        int             `json:"holiday_days"`
	WeekOffDays        int             `json:"week_off_days"`
	EquivalentAbsences decimal.Decimal `json:"equivalent_absences"`
	PayableDays        decimal.Decimal `json:"payable_days"`
	// Token identifies the attendance rows the summary was derived from
	Token string `json:"token"`
}

// LineItem - one evaluated component. BaseAmount is the monthly amount before
// proration, Amount the final one.
type LineItem struct {
	Code            string                 `json:"code"`
	Name            string                 `json:"name"`
	Category        salary.Category        `json:"category"`
	CalculationType salary.CalculationType `json:"calculation_type"`
	BaseAmount      decimal.Decimal        `json:"base_amount"`
	Amount          decimal.Decimal        `json:"amount"`
	Prorated        bool                   `json:"prorated"`
}

// ComponentError flags a component that could not be evaluated and was zeroed.
type ComponentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Evaluation - output of the component evaluator.
type Evaluation struct {
	Earnings              []LineItem
	Deductions            []LineItem
	EmployerContributions []LineItem
	Errors                []ComponentError
}

// StatutoryBreakdown - statutory contributions on a gross amount.
// PFPension is the part of PFEmployer routed to the pension scheme.
type StatutoryBreakdown struct {
	PFBase          decimal.Decimal `json:"pf_base"`
	PFEmployee      decimal.Decimal `json:"pf_employee"`
	PFEmployer      decimal.Decimal `json:"pf_employer"`
	PFPension       decimal.Decimal `json:"pf_pension"`
	ESIApplicable   bool            `json:"esi_applicable"`
	ESIEmployee     decimal.Decimal `json:"esi_employee"`
	ESIEmployer     decimal.Decimal `json:"esi_employer"`
	ProfessionalTax decimal.Decimal `json:"professional_tax"`
	EmployeeTotal   decimal.Decimal `json:"employee_total"`
	EmployerTotal   decimal.Decimal `json:"employer_total"`
}

// AdjustmentType enum
type AdjustmentType string

const (
	AdjustmentArrears         AdjustmentType = "ARREARS"
	AdjustmentAdvance         AdjustmentType = "ADVANCE"
	AdjustmentLoanInstallment AdjustmentType = "LOAN_INSTALLMENT"
	AdjustmentBonus           AdjustmentType = "BONUS"
	AdjustmentOther           AdjustmentType = "OTHER"
)

var AdjustmentTypes = []string{
	string(AdjustmentArrears), string(AdjustmentAdvance), string(AdjustmentLoanInstallment),
	string(AdjustmentBonus), string(AdjustmentOther),
}

// Adjustment - manual one-off amount for an employee period.
// Category is EARNING or DEDUCTION.
type Adjustment struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"-"`
	EmployeeID string          `json:"employee_id"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	Type       AdjustmentType  `json:"type"`
	Category   salary.Category `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	CreatedBy  string          `json:"created_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Totals - output of the aggregator.
type Totals struct {
	GrossEarnings   decimal.Decimal
	TotalDeductions decimal.Decimal
	AdjustmentTotal decimal.Decimal
	NetPayable      decimal.Decimal
	CTC             decimal.Decimal
}

// PayrollRecord - computed result for one employee period. Only one record
// per period is current, older revisions carry SupersededAt.
type PayrollRecord struct {
	ID                    string
	CompanyID             string
	EmployeeID            string
	PeriodMonth           int
	PeriodYear            int
	StructureID           string
	Attendance            AttendanceSummary
	Earnings              []LineItem
	Deductions            []LineItem
	EmployerContributions []LineItem
	Statutory             StatutoryBreakdown
	Adjustments           []Adjustment
	GrossEarnings         decimal.Decimal
	TotalDeductions       decimal.Decimal
	AdjustmentTotal       decimal.Decimal
	NetPayable            decimal.Decimal
	CTC                   decimal.Decimal
	Status                PayrollStatus
	PreviousRecordID      *string
	SupersededAt          *time.Time
	Revision              int
	RevisionReason        *string
	PolicyFallbacks       []string
	ComponentErrors       []ComponentError
	AttendanceToken       string
	SubmittedAt           *time.Time
	ApprovedBy            *string
	ApprovedAt            *time.Time
	RejectionReason       *string
	ProcessedBy           *string
	ProcessedAt           *time.Time
	CalculatedAt          time.Time
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (r PayrollRecord) IsCurrent() bool {
	return r.SupersededAt == nil
}

// ApplyTotals copies aggregator output onto the record.
func (r *PayrollRecord) ApplyTotals(t Totals) {
	r.GrossEarnings = t.GrossEarnings
	r.TotalDeductions = t.TotalDeductions
	r.AdjustmentTotal = t.AdjustmentTotal
	r.NetPayable = t.NetPayable
	r.CTC = t.CTC
}
