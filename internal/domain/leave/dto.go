package leave

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type ApplyLeaveRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	LeaveType  string `json:"leave_type" validate:"required,max=20"`
	From       string `json:"from" validate:"required,date"`
	To         string `json:"to" validate:"required,date"`
	HalfDay    bool   `json:"half_day"`
	Reason     string `json:"reason" validate:"max=1000"`
}

func (r *ApplyLeaveRequest) Validate() error {
	r.LeaveType = strings.ToUpper(strings.TrimSpace(r.LeaveType))
	if err := validator.Struct(r); err != nil {
		return err
	}

	var errs validator.ValidationErrors
	from, to := r.Range()
	if to.Before(from) {
		errs = append(errs, validator.ValidationError{Field: "to", Message: "must not be before from"})
	}
	if from.Year() != to.Year() {
		errs = append(errs, validator.ValidationError{Field: "to", Message: ErrCrossYearLeave.Error()})
	}
	if r.HalfDay && !from.Equal(to) {
		errs = append(errs, validator.ValidationError{Field: "half_day", Message: "half day leave must start and end on the same date"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Range returns the parsed dates. Call after Validate.
func (r ApplyLeaveRequest) Range() (time.Time, time.Time) {
	from, _ := time.Parse("2006-01-02", r.From)
	to, _ := time.Parse("2006-01-02", r.To)
	return from, to
}

type DecideLeaveRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type CreateLeaveTypeRequest struct {
	Code            string          `json:"code" validate:"required,max=20,alphanum"`
	Name            string          `json:"name" validate:"required,max=100"`
	IsPaid          bool            `json:"is_paid"`
	DefaultQuota    decimal.Decimal `json:"default_quota"`
	AllowHalfDay    bool            `json:"allow_half_day"`
	MaxCarryForward decimal.Decimal `json:"max_carry_forward"`
}

func (r *CreateLeaveTypeRequest) Validate() error {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	if err := validator.Struct(r); err != nil {
		return err
	}
	if r.DefaultQuota.IsNegative() || r.MaxCarryForward.IsNegative() {
		return validator.Single("default_quota", "quotas must be non-negative")
	}
	return nil
}

type LeaveRequestResponse struct {
	ID              string             `json:"id"`
	EmployeeID      string             `json:"employee_id"`
	LeaveType       string             `json:"leave_type"`
	From            string             `json:"from"`
	To              string             `json:"to"`
	HalfDay         bool               `json:"half_day"`
	Days            decimal.Decimal    `json:"days"`
	Reason          string             `json:"reason,omitempty"`
	Status          LeaveRequestStatus `json:"status"`
	ApprovedBy      *string            `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time         `json:"approved_at,omitempty"`
	RejectionReason *string            `json:"rejection_reason,omitempty"`
	CancelledAt     *time.Time         `json:"cancelled_at,omitempty"`
}

func NewLeaveRequestResponse(r LeaveRequest) LeaveRequestResponse {
	return LeaveRequestResponse{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		LeaveType:       r.LeaveTypeCode,
		From:            r.FromDate.Format("2006-01-02"),
		To:              r.ToDate.Format("2006-01-02"),
		HalfDay:         r.HalfDay,
		Days:            r.Days,
		Reason:          r.Reason,
		Status:          r.Status,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectionReason: r.RejectionReason,
		CancelledAt:     r.CancelledAt,
	}
}

type BalanceEntryResponse struct {
	LeaveType    string          `json:"leave_type"`
	Total        decimal.Decimal `json:"total"`
	CarryForward decimal.Decimal `json:"carry_forward"`
	Used         decimal.Decimal `json:"used"`
	Pending      decimal.Decimal `json:"pending"`
	Remaining    decimal.Decimal `json:"remaining"`
	Available    decimal.Decimal `json:"available"`
}

type LeaveBalanceResponse struct {
	EmployeeID string                 `json:"employee_id"`
	Year       int                    `json:"year"`
	Entries    []BalanceEntryResponse `json:"entries"`
	Version    int64                  `json:"version"`
}

func NewLeaveBalanceResponse(b LeaveBalance) LeaveBalanceResponse {
	entries := make([]BalanceEntryResponse, 0, len(b.Entries))
	for _, e := range b.Entries {
		entries = append(entries, BalanceEntryResponse{
			LeaveType:    e.LeaveTypeCode,
			Total:        e.Total,
			CarryForward: e.CarryForward,
			Used:         e.Used,
			Pending:      e.Pending,
			Remaining:    e.Remaining(),
			Available:    e.Available(),
		})
	}
	return LeaveBalanceResponse{
		EmployeeID: b.EmployeeID,
		Year:       b.Year,
		Entries:    entries,
		Version:    b.Version,
	}
}

type LeaveTypeResponse struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	IsPaid          bool            `json:"is_paid"`
	DefaultQuota    decimal.Decimal `json:"default_quota"`
	AllowHalfDay    bool            `json:"allow_half_day"`
	MaxCarryForward decimal.Decimal `json:"max_carry_forward"`
}

func NewLeaveTypeResponse(t LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		Code:            t.Code,
		Name:            t.Name,
		IsPaid:          t.IsPaid,
		DefaultQuota:    t.DefaultQuota,
		AllowHalfDay:    t.AllowHalfDay,
		MaxCarryForward: t.MaxCarryForward,
	}
}
