package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaveType - one entry of the company leave catalog
type LeaveType struct {
	ID              string
	CompanyID       string
	Code            string
	Name            string
	IsPaid          bool
	DefaultQuota    decimal.Decimal
	AllowHalfDay    bool
	MaxCarryForward decimal.Decimal
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BalanceEntry - balance of one leave type within a year.
type BalanceEntry struct {
	LeaveTypeCode string          `json:"leave_type_code"`
	Total         decimal.Decimal `json:"total"`
	CarryForward  decimal.Decimal `json:"carry_forward"`
	Used          decimal.Decimal `json:"used"`
	Pending       decimal.Decimal `json:"pending"`
}

// Remaining = Total + CarryForward - Used
func (e BalanceEntry) Remaining() decimal.Decimal {
	return e.Total.Add(e.CarryForward).Sub(e.Used)
}

// Available is what a new request may still reserve.
func (e BalanceEntry) Available() decimal.Decimal {
	return e.Remaining().Sub(e.Pending)
}

// LeaveBalance - per employee per year, versioned as a whole.
type LeaveBalance struct {
	ID         string
	CompanyID  string
	EmployeeID string
	Year       int
	Entries    []BalanceEntry
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (b *LeaveBalance) entry(code string) (*BalanceEntry, error) {
	for i := range b.Entries {
		if b.Entries[i].LeaveTypeCode == code {
			return &b.Entries[i], nil
		}
	}
	return nil, ErrLeaveTypeNotInBalance
}

// Entry returns a copy of the entry for code.
func (b LeaveBalance) Entry(code string) (BalanceEntry, bool) {
	e, err := b.entry(code)
	if err != nil {
		return BalanceEntry{}, false
	}
	return *e, true
}

// Reserve adds days to Pending. When enforce is set the request must fit in
// the available balance.
func (b *LeaveBalance) Reserve(code string, days decimal.Decimal, enforce bool) error {
	e, err := b.entry(code)
	if err != nil {
		return err
	}
	if enforce && days.GreaterThan(e.Available()) {
		return &InsufficientBalanceError{
			LeaveType: code,
			Available: e.Available(),
			Requested: days,
			Shortfall: days.Sub(e.Available()),
		}
	}
	e.Pending = e.Pending.Add(days)
	return nil
}

// Commit moves days from Pending to Used.
func (b *LeaveBalance) Commit(code string, days decimal.Decimal) error {
	e, err := b.entry(code)
	if err != nil {
		return err
	}
	e.Pending = decimal.Max(e.Pending.Sub(days), decimal.Zero)
	e.Used = e.Used.Add(days)
	return nil
}

// Release gives back days reserved by a pending request.
func (b *LeaveBalance) Release(code string, days decimal.Decimal) error {
	e, err := b.entry(code)
	if err != nil {
		return err
	}
	e.Pending = decimal.Max(e.Pending.Sub(days), decimal.Zero)
	return nil
}

// Restore gives back days consumed by an approved request.
func (b *LeaveBalance) Restore(code string, days decimal.Decimal) error {
	e, err := b.entry(code)
	if err != nil {
		return err
	}
	e.Used = decimal.Max(e.Used.Sub(days), decimal.Zero)
	return nil
}

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending   LeaveRequestStatus = "PENDING"
	LeaveRequestStatusApproved  LeaveRequestStatus = "APPROVED"
	LeaveRequestStatusRejected  LeaveRequestStatus = "REJECTED"
	LeaveRequestStatusCancelled LeaveRequestStatus = "CANCELLED"
)

// LeaveRequest entity. Dates are UTC midnight calendar days.
type LeaveRequest struct {
	ID              string
	CompanyID       string
	EmployeeID      string
	LeaveTypeCode   string
	FromDate        time.Time
	ToDate          time.Time
	HalfDay         bool
	Days            decimal.Decimal
	Reason          string
	Status          LeaveRequestStatus
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string
	CancelledAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive reports whether the request still blocks its date range.
func (r LeaveRequest) IsActive() bool {
	return r.Status == LeaveRequestStatusPending || r.Status == LeaveRequestStatusApproved
}

func (r LeaveRequest) Overlaps(from, to time.Time) bool {
	return !r.FromDate.After(to) && !r.ToDate.Before(from)
}
